// Package checkout оборачивает жизненный цикл внешнего виджета оплаты:
// асинхронную инициализацию и открытие по идентификатору транзакции.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/magabrotheeeer/billing-orchestrator/internal/metrics"
)

// Ошибки моста к виджету.
var (
	// ErrNotReady — Open вызван до успешной инициализации. Ошибка обязана
	// дойти до вызывающего: молча не открывшийся чекаут неотличим от бага.
	ErrNotReady = errors.New("checkout widget is not initialized")
	// ErrInitFailed — инициализация виджета завершилась неуспехом.
	ErrInitFailed = errors.New("checkout widget initialization failed")
)

// Widget — внешний виджет оплаты.
type Widget interface {
	// Setup выполняет единовременную инициализацию виджета.
	Setup(ctx context.Context, environment, clientToken string) error
	// Open передает виджету транзакцию и настройки отображения.
	Open(ctx context.Context, transactionID string, settings OpenSettings) error
}

// OpenSettings — настройки, передаваемые виджету при открытии.
type OpenSettings struct {
	Theme      string `json:"theme"`
	SuccessURL string `json:"success_url"`
}

// Bridge управляет инициализацией виджета и передачей ему транзакций.
// Завершение оплаты мост не наблюдает: результат приходит внешним каналом.
type Bridge struct {
	widget      Widget
	environment string
	clientToken string
	settings    OpenSettings
	log         *slog.Logger

	mu       sync.Mutex
	ready    bool
	inflight chan struct{}
	initErr  error
}

// NewBridge создает мост к виджету. Инициализация откладывается до Initialize.
func NewBridge(widget Widget, environment, clientToken string, settings OpenSettings, log *slog.Logger) *Bridge {
	return &Bridge{
		widget:      widget,
		environment: environment,
		clientToken: clientToken,
		settings:    settings,
		log:         log,
	}
}

// Initialize инициализирует виджет. Идемпотентна: повторный вызов во время
// идущей инициализации ждет ее результата, вызов после успеха — no-op.
// После неуспеха следующий вызов запускает инициализацию заново.
func (b *Bridge) Initialize(ctx context.Context) error {
	const op = "checkout.Initialize"

	b.mu.Lock()
	if b.ready {
		b.mu.Unlock()
		return nil
	}
	if ch := b.inflight; ch != nil {
		b.mu.Unlock()
		select {
		case <-ch:
			b.mu.Lock()
			err := b.initErr
			b.mu.Unlock()
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	ch := make(chan struct{})
	b.inflight = ch
	b.mu.Unlock()

	err := b.widget.Setup(ctx, b.environment, b.clientToken)

	b.mu.Lock()
	b.inflight = nil
	if err != nil {
		b.initErr = fmt.Errorf("%s: %w: %v", op, ErrInitFailed, err)
	} else {
		b.ready = true
		b.initErr = nil
	}
	resErr := b.initErr
	b.mu.Unlock()
	close(ch)

	if resErr == nil {
		b.log.Info("checkout widget initialized", slog.String("environment", b.environment))
	}
	return resErr
}

// Open передает транзакцию готовому виджету вместе с темой и адресом успеха.
func (b *Bridge) Open(ctx context.Context, transactionID string) error {
	const op = "checkout.Open"

	b.mu.Lock()
	ready := b.ready
	b.mu.Unlock()
	if !ready {
		return fmt.Errorf("%s: %w", op, ErrNotReady)
	}

	if err := b.widget.Open(ctx, transactionID, b.settings); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.CheckoutOpens.Inc()
	b.log.Info("checkout opened", slog.String("transaction_id", transactionID))
	return nil
}
