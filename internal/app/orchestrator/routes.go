// Package orchestrator предоставляет маршруты HTTP-шлюза.
package orchestrator

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/billing-orchestrator/internal/guard"
	"github.com/magabrotheeeer/billing-orchestrator/internal/http/handlers/payment/historylist"
	"github.com/magabrotheeeer/billing-orchestrator/internal/http/handlers/plan/selectplan"
	"github.com/magabrotheeeer/billing-orchestrator/internal/http/handlers/session/guardcheck"
	"github.com/magabrotheeeer/billing-orchestrator/internal/http/handlers/session/refresh"
	"github.com/magabrotheeeer/billing-orchestrator/internal/http/handlers/session/signout"
	"github.com/magabrotheeeer/billing-orchestrator/internal/http/handlers/subscription/cancel"
	"github.com/magabrotheeeer/billing-orchestrator/internal/http/handlers/subscription/snapshotread"
	"github.com/magabrotheeeer/billing-orchestrator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/billing-orchestrator/internal/oauthrelay"
	"github.com/magabrotheeeer/billing-orchestrator/internal/services/cancellation"
	"github.com/magabrotheeeer/billing-orchestrator/internal/services/history"
	"github.com/magabrotheeeer/billing-orchestrator/internal/services/plan"
	"github.com/magabrotheeeer/billing-orchestrator/internal/services/snapshot"
	"github.com/magabrotheeeer/billing-orchestrator/internal/session"
)

// RouteDeps — зависимости маршрутов шлюза.
type RouteDeps struct {
	Store      *session.Store
	Refresher  *session.Refresher
	Guard      *guard.Guard
	Plan       *plan.Service
	Cancel     *cancellation.Service
	History    *history.Service
	Snapshot   *snapshot.Service
	Relay      *oauthrelay.Registry
	RelayHosts []string
	RelayWait  time.Duration
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, deps RouteDeps) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/session/refresh", refresh.New(logger, deps.Refresher).ServeHTTP)
		r.Post("/session/signout", signout.New(logger, deps.Store).ServeHTTP)
		r.Post("/session/guard", guardcheck.New(logger, deps.Guard).ServeHTTP)
		r.Post("/payments/history", historylist.New(logger, deps.History).ServeHTTP)

		// Окно-открыватель OAuth-попапа: регистрация и ожидание результата
		r.Post("/oauth/start", oauthrelay.NewStartHandler(logger, deps.Relay).ServeHTTP)
		r.Get("/oauth/result", oauthrelay.NewResultHandler(logger, deps.Relay, deps.RelayWait).ServeHTTP)

		// Группа с активной сессией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.SessionMiddleware(deps.Store, logger))
			r.Use(middlewarectx.RateLimitMiddleware(rate.NewLimiter(1, 3), logger))
			r.Post("/plans/select", selectplan.New(logger, deps.Plan).ServeHTTP)
			r.Post("/subscriptions/cancel", cancel.New(logger, deps.Cancel).ServeHTTP)
			r.Post("/subscriptions/snapshot", snapshotread.New(logger, deps.Snapshot).ServeHTTP)
		})
	})

	// Возврат из OAuth-попапа провайдера (без аутентификации)
	r.Get("/oauth/popup", oauthrelay.NewHandler(logger, deps.Relay, deps.RelayHosts).ServeHTTP)

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
