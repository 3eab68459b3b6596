package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/billing-orchestrator/internal/authapi"
	"github.com/magabrotheeeer/billing-orchestrator/internal/lib/sl"
	"github.com/magabrotheeeer/billing-orchestrator/internal/metrics"
	"github.com/magabrotheeeer/billing-orchestrator/internal/models"
	"github.com/magabrotheeeer/billing-orchestrator/internal/remote"
)

// Ошибки обмена refresh-токена.
var (
	// ErrRefreshTokenMissing — в хранилище нет refresh-токена, обмен невозможен.
	ErrRefreshTokenMissing = errors.New("no refresh token in session")
	// ErrRefreshRejected — сервис аутентификации отверг refresh-токен,
	// сессия сброшена.
	ErrRefreshRejected = errors.New("refresh token rejected")
)

// AuthExchanger описывает обмен refresh-токена на новую пару.
type AuthExchanger interface {
	Refresh(ctx context.Context, refreshToken string) (*authapi.RefreshResponse, error)
}

// Refresher выполняет обмен refresh-токена и атомарно заменяет пару в Store.
//
// Обмен одиночный: два refresh-токена, отправленные параллельно, аннулируют
// друг друга на стороне сервера, поэтому конкурентные вызовы Refresh ждут
// результата уже идущего обмена вместо того, чтобы начинать собственный.
type Refresher struct {
	store *Store
	auth  AuthExchanger
	log   *slog.Logger

	mu       sync.Mutex
	inflight *refreshCall
}

// refreshCall — общий результат одного обмена, которого ждут все вызвавшие.
type refreshCall struct {
	done chan struct{}
	cred *models.Credential
	err  error
}

// NewRefresher создает Refresher поверх хранилища и клиента аутентификации.
func NewRefresher(store *Store, auth AuthExchanger, log *slog.Logger) *Refresher {
	return &Refresher{
		store: store,
		auth:  auth,
		log:   log,
	}
}

// Refresh возвращает новую пару токенов. Конкурентные вызовы получают
// результат одного и того же обмена.
func (r *Refresher) Refresh(ctx context.Context) (*models.Credential, error) {
	r.mu.Lock()
	if c := r.inflight; c != nil {
		r.mu.Unlock()
		metrics.RefreshCoalesced.Inc()
		select {
		case <-c.done:
			return c.cred, c.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c := &refreshCall{done: make(chan struct{})}
	r.inflight = c
	r.mu.Unlock()

	c.cred, c.err = r.exchange(ctx)

	r.mu.Lock()
	r.inflight = nil
	r.mu.Unlock()
	close(c.done)

	return c.cred, c.err
}

func (r *Refresher) exchange(ctx context.Context) (*models.Credential, error) {
	const op = "session.Refresh"

	refreshToken, ok := r.store.RefreshToken(ctx)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrRefreshTokenMissing)
	}

	resp, err := r.auth.Refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, remote.ErrNonSuccessStatus) {
			r.log.Warn("refresh token rejected, clearing session", sl.Err(err))
			r.store.Clear(ctx)
			return nil, fmt.Errorf("%s: %w", op, ErrRefreshRejected)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.RefreshExchanges.Inc()

	now := time.Now()
	cred := models.Credential{
		AccessToken:   resp.AccessToken,
		RefreshToken:  resp.RefreshToken,
		AccessExpiry:  AccessExpiryFrom(resp.AccessToken, now.Add(r.store.accessTTL)),
		RefreshExpiry: now.Add(r.store.refreshTTL),
	}
	if err := r.store.Set(ctx, cred); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.log.Info("session credential refreshed",
		slog.Time("access_expiry", cred.AccessExpiry),
		slog.Time("refresh_expiry", cred.RefreshExpiry))
	return &cred, nil
}
