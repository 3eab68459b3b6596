// Package snapshot реализует чтение среза состояния подписки из профильного
// бэкенда с кешем на пользователя.
//
// Ключ кеша разделяется с отложенным рефрешем после мутаций биллинга:
// оркестратор сбрасывает его, и следующий запрос дашборда перечитывает срез
// из бэкенда.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/billing-orchestrator/internal/lib/sl"
	"github.com/magabrotheeeer/billing-orchestrator/internal/models"
	"github.com/magabrotheeeer/billing-orchestrator/internal/session"
)

// ErrMissingUser — запрос среза без идентификатора пользователя не выполняется.
var ErrMissingUser = errors.New("user id is empty")

// Billing описывает чтение среза подписки в биллинговом бэкенде.
type Billing interface {
	SubscriptionSnapshot(ctx context.Context, bearer, userID string) (*models.SubscriptionSnapshot, error)
}

// Sessions выдает bearer-токен текущей сессии.
type Sessions interface {
	AccessToken(ctx context.Context) (string, bool)
}

// Cache описывает методы для кеширования срезов.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Service — читатель среза состояния подписки.
type Service struct {
	billing  Billing
	sessions Sessions
	cache    Cache
	ttl      time.Duration
	log      *slog.Logger
}

// New создает сервис среза с заданным временем жизни кеша.
func New(billing Billing, sessions Sessions, cache Cache, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		billing:  billing,
		sessions: sessions,
		cache:    cache,
		ttl:      ttl,
		log:      log,
	}
}

// CacheKey — ключ закешированного среза пользователя. Его же сбрасывает
// отложенный рефреш после смены тарифа и отмены подписки.
func CacheKey(userID string) string {
	return "snapshot:" + userID
}

// Fetch возвращает срез подписки, по возможности из кеша.
func (s *Service) Fetch(ctx context.Context, userID string) (*models.SubscriptionSnapshot, error) {
	const op = "snapshot.Fetch"

	if userID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingUser)
	}

	key := CacheKey(userID)
	var cached models.SubscriptionSnapshot
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read snapshot cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	bearer, ok := s.sessions.AccessToken(ctx)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, session.ErrTokenMissing)
	}

	result, err := s.billing.SubscriptionSnapshot(ctx, bearer, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Set(ctx, key, result, s.ttl); err != nil {
		s.log.Warn("failed to cache subscription snapshot", slog.String("key", key), sl.Err(err))
	}
	return result, nil
}
