// Package cancellation реализует отмену действующей подписки с отложенным
// перечитыванием состояния пользователя.
package cancellation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/billing-orchestrator/internal/lib/sched"
	"github.com/magabrotheeeer/billing-orchestrator/internal/lib/sl"
	"github.com/magabrotheeeer/billing-orchestrator/internal/session"
)

// ErrCancelFailed — бэкенд не подтвердил отмену подписки.
var ErrCancelFailed = errors.New("subscription cancellation failed")

// Billing описывает операцию отмены в биллинговом бэкенде.
type Billing interface {
	CancelSubscription(ctx context.Context, bearer, userID string) error
}

// Sessions выдает bearer-токен текущей сессии.
type Sessions interface {
	AccessToken(ctx context.Context) (string, bool)
}

// Notifier доставляет пользователю уведомление об отмене.
type Notifier interface {
	Notify(ctx context.Context, user, title, body string) error
}

// Service — координатор отмены подписки.
type Service struct {
	billing  Billing
	sessions Sessions
	notifier Notifier
	tasks    *sched.Scheduler
	// refreshUser перечитывает состояние пользователя; вызывается с задержкой,
	// потому что бэкенд не гарантирует видимость отмены сразу после ответа.
	refreshUser  func(ctx context.Context, userID string)
	refreshDelay time.Duration
	log          *slog.Logger
}

// New создает координатор отмены.
func New(billing Billing, sessions Sessions, notifier Notifier,
	refreshUser func(ctx context.Context, userID string), refreshDelay time.Duration, log *slog.Logger) *Service {
	return &Service{
		billing:      billing,
		sessions:     sessions,
		notifier:     notifier,
		tasks:        sched.New(),
		refreshUser:  refreshUser,
		refreshDelay: refreshDelay,
		log:          log,
	}
}

// Cancel отменяет подписку пользователя. Возвращает true только при
// подтвержденном успехе бэкенда.
func (s *Service) Cancel(ctx context.Context, userID string) (bool, error) {
	const op = "cancellation.Cancel"

	bearer, ok := s.sessions.AccessToken(ctx)
	if !ok {
		return false, fmt.Errorf("%s: %w", op, session.ErrTokenMissing)
	}

	if err := s.billing.CancelSubscription(ctx, bearer, userID); err != nil {
		s.log.Error("failed to cancel subscription", slog.String("user_id", userID), sl.Err(err))
		return false, fmt.Errorf("%s: %w: %v", op, ErrCancelFailed, err)
	}

	s.log.Info("subscription canceled", slog.String("user_id", userID))
	if err := s.notifier.Notify(ctx, userID, "Subscription canceled", "Your subscription has been canceled."); err != nil {
		s.log.Warn("failed to notify about cancellation", sl.Err(err))
	}
	s.tasks.After(s.refreshDelay, func() {
		s.refreshUser(context.Background(), userID)
	})
	return true, nil
}

// Close отменяет запланированные отложенные рефреши.
func (s *Service) Close() {
	s.tasks.Close()
}
