// Package orchestrator собирает приложение: хранилище сессии, рефрешер,
// оркестратор тарифов, мост к виджету оплаты и HTTP-шлюз для дашборда.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/billing-orchestrator/internal/authapi"
	"github.com/magabrotheeeer/billing-orchestrator/internal/billingapi"
	"github.com/magabrotheeeer/billing-orchestrator/internal/cache"
	"github.com/magabrotheeeer/billing-orchestrator/internal/checkout"
	"github.com/magabrotheeeer/billing-orchestrator/internal/config"
	"github.com/magabrotheeeer/billing-orchestrator/internal/guard"
	"github.com/magabrotheeeer/billing-orchestrator/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/billing-orchestrator/internal/lib/sl"
	"github.com/magabrotheeeer/billing-orchestrator/internal/oauthrelay"
	"github.com/magabrotheeeer/billing-orchestrator/internal/services/cancellation"
	"github.com/magabrotheeeer/billing-orchestrator/internal/services/history"
	"github.com/magabrotheeeer/billing-orchestrator/internal/services/notifier"
	"github.com/magabrotheeeer/billing-orchestrator/internal/services/plan"
	"github.com/magabrotheeeer/billing-orchestrator/internal/services/snapshot"
	"github.com/magabrotheeeer/billing-orchestrator/internal/session"
)

// Сроки жизни закешированных ответов бэкенда.
const (
	historyCacheTTL  = 5 * time.Minute
	snapshotCacheTTL = 5 * time.Minute
)

// Notifier — общий контракт доставки уведомлений, см. services/notifier.
type Notifier interface {
	Notify(ctx context.Context, user, title, body string) error
}

// App держит собранные зависимости и HTTP-сервер шлюза.
type App struct {
	server      *http.Server
	logger      *slog.Logger
	bridge      *checkout.Bridge
	planService *plan.Service
	cancService *cancellation.Service
}

// New собирает приложение из конфига.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	store := session.NewStore(cacheRedis, cfg.Session.AccessTTL, cfg.Session.RefreshTTL, logger)
	authClient := authapi.NewClient(cfg.AuthAPI.URL, cfg.AuthAPI.Timeout)
	refresher := session.NewRefresher(store, authClient, logger)

	billingClient := billingapi.NewClient(cfg.BillingAPI.URL, cfg.BillingAPI.Timeout)

	widget := checkout.NewHTTPWidget(cfg.CheckoutWidget.URL, cfg.CheckoutWidget.Timeout)
	bridge := checkout.NewBridge(widget, cfg.CheckoutWidget.Environment, cfg.CheckoutWidget.ClientToken,
		checkout.OpenSettings{
			Theme:      cfg.CheckoutWidget.Theme,
			SuccessURL: cfg.CheckoutWidget.SuccessURL,
		}, logger)

	notify, err := buildNotifier(cfg, logger)
	if err != nil {
		return nil, err
	}

	authGuard, err := guard.New(store, notify, &logNavigator{log: logger},
		cfg.Guard.NotifyDelay, cfg.Guard.RedirectDelay, logger)
	if err != nil {
		return nil, err
	}

	// Отложенный рефреш после мутаций биллинга: сбрасывается закешированный
	// срез подписки, следующий запрос дашборда перечитает его из бэкенда.
	refreshSnapshot := func(ctx context.Context, userID string) {
		if err := cacheRedis.Invalidate(ctx, snapshot.CacheKey(userID)); err != nil {
			logger.Warn("failed to invalidate snapshot cache", sl.Err(err))
		}
	}

	planService := plan.New(billingClient, bridge, store, notify,
		refreshSnapshot, cfg.Guard.RefreshDelay, logger)
	cancService := cancellation.New(billingClient, store, notify,
		refreshSnapshot, cfg.Guard.RefreshDelay, logger)
	historyService := history.New(billingClient, cacheRedis, historyCacheTTL, logger)
	snapshotService := snapshot.New(billingClient, store, cacheRedis, snapshotCacheTTL, logger)

	relay := oauthrelay.NewRegistry()

	router := chi.NewRouter()
	RegisterRoutes(router, logger, RouteDeps{
		Store:      store,
		Refresher:  refresher,
		Guard:      authGuard,
		Plan:       planService,
		Cancel:     cancService,
		History:    historyService,
		Snapshot:   snapshotService,
		Relay:      relay,
		RelayHosts: cfg.OAuthRelay.AllowedOrigins,
		RelayWait:  cfg.OAuthRelay.WaitTimeout,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:      srv,
		logger:      logger,
		bridge:      bridge,
		planService: planService,
		cancService: cancService,
	}, nil
}

// buildNotifier подключает очередь уведомлений; без настроенного брокера
// уведомления уходят в лог.
func buildNotifier(cfg *config.Config, logger *slog.Logger) (Notifier, error) {
	if cfg.Rabbit.URL == "" {
		return &notifier.LogNotifier{Log: logger}, nil
	}
	conn, err := rabbitmq.Connect(cfg.Rabbit.URL, cfg.Rabbit.Retries, cfg.Rabbit.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.NotificationQueues())
	if err != nil {
		return nil, fmt.Errorf("failed to set up rabbitmq channel: %w", err)
	}
	return notifier.NewQueueNotifier(ch, cfg.Rabbit.Exchange, cfg.Rabbit.RoutingKey, logger), nil
}

// logNavigator фиксирует запрошенный переход; сам переход выполняет клиент
// по решению гарда.
type logNavigator struct {
	log *slog.Logger
}

func (n *logNavigator) Navigate(to string) {
	n.log.Info("navigation requested", slog.String("to", to))
}

// Run инициализирует виджет оплаты и запускает HTTP-сервер до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	go func() {
		if err := a.bridge.Initialize(ctx); err != nil {
			a.logger.Error("checkout widget initialization failed", sl.Err(err))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.planService.Close()
		a.cancService.Close()
		return err
	}
}
