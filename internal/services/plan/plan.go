// Package plan содержит оркестратор смены тарифа: выбор между обновлением
// действующей подписки и созданием транзакции с передачей ее виджету оплаты.
package plan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/magabrotheeeer/billing-orchestrator/internal/billingapi"
	"github.com/magabrotheeeer/billing-orchestrator/internal/lib/sched"
	"github.com/magabrotheeeer/billing-orchestrator/internal/lib/sl"
	"github.com/magabrotheeeer/billing-orchestrator/internal/metrics"
	"github.com/magabrotheeeer/billing-orchestrator/internal/models"
	"github.com/magabrotheeeer/billing-orchestrator/internal/session"
)

// Ошибки оркестратора. Ни одна операция не повторяется автоматически:
// повтор — только по новому действию пользователя.
var (
	ErrUpdateFailed = errors.New("subscription update failed")
	ErrCreateFailed = errors.New("transaction creation failed")
)

// Пути решения, см. Result.Path.
const (
	PathUpdate = "update"
	PathCreate = "create"
)

// Billing описывает используемые операции биллингового бэкенда.
type Billing interface {
	CreateTransaction(ctx context.Context, bearer string, req billingapi.CreateTransactionRequest) (*billingapi.CreateTransactionResponse, error)
	UpdateSubscription(ctx context.Context, bearer string, req billingapi.UpdateSubscriptionRequest) error
}

// Checkout принимает идентификатор транзакции для открытия виджета оплаты.
type Checkout interface {
	Open(ctx context.Context, transactionID string) error
}

// Sessions выдает bearer-токен текущей сессии.
type Sessions interface {
	AccessToken(ctx context.Context) (string, bool)
}

// Notifier доставляет пользователю уведомление об успешной смене тарифа.
type Notifier interface {
	Notify(ctx context.Context, user, title, body string) error
}

// Result — исход SelectPlan: какой путь был выбран. Идентификатор транзакции
// передается виджету и нигде не сохраняется.
type Result struct {
	Path string `json:"path"`
}

// Service — оркестратор смены тарифа.
type Service struct {
	billing  Billing
	checkout Checkout
	sessions Sessions
	notifier Notifier
	tasks    *sched.Scheduler
	// refreshSnapshot перечитывает срез подписки из профильного сервиса.
	// Вызывается с задержкой: бэкенд не гарантирует видимость мутации сразу
	// после ответа.
	refreshSnapshot func(ctx context.Context, userID string)
	refreshDelay    time.Duration
	log             *slog.Logger
	loading         atomic.Bool
}

// New создает оркестратор.
func New(billing Billing, checkout Checkout, sessions Sessions, notifier Notifier,
	refreshSnapshot func(ctx context.Context, userID string), refreshDelay time.Duration, log *slog.Logger) *Service {
	return &Service{
		billing:         billing,
		checkout:        checkout,
		sessions:        sessions,
		notifier:        notifier,
		tasks:           sched.New(),
		refreshSnapshot: refreshSnapshot,
		refreshDelay:    refreshDelay,
		log:             log,
	}
}

// SelectPlan направляет намерение пользователя в нужную операцию бэкенда.
//
// Действующая платная подписка (status=active и не пробный тариф) меняется
// на месте через update-subscription; во всех остальных случаях создается
// транзакция, и ее идентификатор передается виджету оплаты. За один вызов
// выполняется ровно один запрос к биллингу.
func (s *Service) SelectPlan(ctx context.Context, planID int, snapshot models.SubscriptionSnapshot, email, userID string) (*Result, error) {
	const op = "plan.SelectPlan"

	s.loading.Store(true)
	defer s.loading.Store(false)

	bearer, ok := s.sessions.AccessToken(ctx)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, session.ErrTokenMissing)
	}

	if snapshot.Status == models.StatusActive && snapshot.Tier != models.TierTrial {
		if err := s.updatePlan(ctx, bearer, planID, email, userID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &Result{Path: PathUpdate}, nil
	}

	if err := s.createAndOpen(ctx, bearer, planID, email, userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Result{Path: PathCreate}, nil
}

func (s *Service) updatePlan(ctx context.Context, bearer string, planID int, email, userID string) error {
	err := s.billing.UpdateSubscription(ctx, bearer, billingapi.UpdateSubscriptionRequest{
		PlanID: planID,
		Email:  email,
		UserID: userID,
	})
	if err != nil {
		s.log.Error("failed to update subscription", slog.Int("plan_id", planID), sl.Err(err))
		return fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}
	metrics.PlanDecisions.WithLabelValues(PathUpdate).Inc()

	if err := s.notifier.Notify(ctx, userID, "Plan updated", "Your subscription plan has been changed."); err != nil {
		s.log.Warn("failed to notify about plan update", sl.Err(err))
	}
	s.tasks.After(s.refreshDelay, func() {
		s.refreshSnapshot(context.Background(), userID)
	})
	return nil
}

func (s *Service) createAndOpen(ctx context.Context, bearer string, planID int, email, userID string) error {
	resp, err := s.billing.CreateTransaction(ctx, bearer, billingapi.CreateTransactionRequest{
		PlanID: planID,
		Email:  email,
		UserID: userID,
	})
	if err != nil {
		s.log.Error("failed to create transaction", slog.Int("plan_id", planID), sl.Err(err))
		return fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}
	metrics.PlanDecisions.WithLabelValues(PathCreate).Inc()

	return s.checkout.Open(ctx, resp.TransactionID)
}

// IsLoading истинен на всем протяжении SelectPlan, включая передачу
// транзакции виджету, но не время работы самого виджета.
func (s *Service) IsLoading() bool {
	return s.loading.Load()
}

// Close отменяет запланированные отложенные рефреши.
func (s *Service) Close() {
	s.tasks.Close()
}
