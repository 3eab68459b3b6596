// Package history реализует постраничное чтение платежной истории
// с коротким кешем на каждую страницу.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/billing-orchestrator/internal/billingapi"
	"github.com/magabrotheeeer/billing-orchestrator/internal/lib/sl"
	"github.com/magabrotheeeer/billing-orchestrator/internal/models"
)

// ErrMissingUser — запрос истории без идентификатора пользователя не выполняется.
var ErrMissingUser = errors.New("user id is empty")

// Billing описывает операцию чтения истории в биллинговом бэкенде.
type Billing interface {
	PaymentHistory(ctx context.Context, req billingapi.PaymentHistoryRequest) (*models.PaymentHistoryPage, error)
}

// Cache описывает методы для кеширования страниц.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Service — читатель платежной истории.
type Service struct {
	billing Billing
	cache   Cache
	ttl     time.Duration
	log     *slog.Logger
}

// New создает сервис истории с заданным временем жизни кеша страниц.
func New(billing Billing, cache Cache, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		billing: billing,
		cache:   cache,
		ttl:     ttl,
		log:     log,
	}
}

// cacheKey включает все три параметра запроса: страница одного пользователя
// или другого номера никогда не отдается по чужому ключу.
func cacheKey(userID string, page, pageSize int) string {
	return fmt.Sprintf("payments:%s:%d:%d", userID, page, pageSize)
}

// Fetch возвращает страницу истории, по возможности из кеша. Ошибка запроса
// не трогает ранее закешированные страницы: лучше устаревшие данные, чем
// никакие.
func (s *Service) Fetch(ctx context.Context, userID string, page, pageSize int) (*models.PaymentHistoryPage, error) {
	const op = "history.Fetch"

	if userID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingUser)
	}

	key := cacheKey(userID, page, pageSize)
	var cached models.PaymentHistoryPage
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read history cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	result, err := s.billing.PaymentHistory(ctx, billingapi.PaymentHistoryRequest{
		UserID:   userID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Set(ctx, key, result, s.ttl); err != nil {
		s.log.Warn("failed to cache history page", slog.String("key", key), sl.Err(err))
	}
	return result, nil
}
