// Package session владеет учетными данными сессии: хранит пару токенов
// с независимыми сроками жизни и обновляет ее обменом refresh-токена.
//
// Писать в хранилище могут только рефрешер и явный выход из сессии;
// остальные компоненты только читают.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/magabrotheeeer/billing-orchestrator/internal/lib/sl"
	"github.com/magabrotheeeer/billing-orchestrator/internal/models"
)

// Ключи записей в хранилище: по одной на каждый токен.
const (
	accessKey  = "session:access_token"
	refreshKey = "session:refresh_token"
)

// ErrTokenMissing возвращается операциям, требующим действующего access-токена,
// когда в хранилище его нет.
var ErrTokenMissing = errors.New("no access token in session")

// Cache описывает методы хранилища с TTL на запись.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(ctx context.Context, key string) error
}

// tokenRecord — формат хранимой записи: токен плюс явный срок годности.
// TTL записи в хранилище дублирует ExpiresAt, проверка при чтении покрывает
// реализации кеша без вытеснения.
type tokenRecord struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store — хранилище учетных данных сессии.
type Store struct {
	cache      Cache
	accessTTL  time.Duration
	refreshTTL time.Duration
	log        *slog.Logger
}

// NewStore создает Store с заданными сроками жизни токенов.
func NewStore(cache Cache, accessTTL, refreshTTL time.Duration, log *slog.Logger) *Store {
	return &Store{
		cache:      cache,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		log:        log,
	}
}

// readToken читает одну запись. Любая ошибка хранилища трактуется как
// отсутствие записи: недоступное хранилище означает "не аутентифицирован",
// никогда наоборот.
func (s *Store) readToken(ctx context.Context, key string) (tokenRecord, bool) {
	var rec tokenRecord
	found, err := s.cache.Get(ctx, key, &rec)
	if err != nil {
		s.log.Warn("session storage read failed, treating as signed out", slog.String("key", key), sl.Err(err))
		return tokenRecord{}, false
	}
	if !found || rec.Token == "" || !time.Now().Before(rec.ExpiresAt) {
		return tokenRecord{}, false
	}
	return rec, true
}

// Get возвращает текущие учетные данные. Второе значение false означает,
// что ни одного токена нет — сессия отсутствует.
func (s *Store) Get(ctx context.Context) (*models.Credential, bool) {
	access, accessOK := s.readToken(ctx, accessKey)
	refresh, refreshOK := s.readToken(ctx, refreshKey)
	if !accessOK && !refreshOK {
		return nil, false
	}
	return &models.Credential{
		AccessToken:   access.Token,
		AccessExpiry:  access.ExpiresAt,
		RefreshToken:  refresh.Token,
		RefreshExpiry: refresh.ExpiresAt,
	}, true
}

// AccessToken возвращает действующий access-токен, если он есть.
func (s *Store) AccessToken(ctx context.Context) (string, bool) {
	rec, ok := s.readToken(ctx, accessKey)
	return rec.Token, ok
}

// RefreshToken возвращает действующий refresh-токен, если он есть.
func (s *Store) RefreshToken(ctx context.Context) (string, bool) {
	rec, ok := s.readToken(ctx, refreshKey)
	return rec.Token, ok
}

// Set атомарно заменяет пару токенов. Сначала пишется refresh-запись, затем
// access; при ошибке второй записи первая откатывается, чтобы не осталось
// состояния с наполовину обновленной парой.
func (s *Store) Set(ctx context.Context, cred models.Credential) error {
	const op = "session.Set"

	refreshRec := tokenRecord{Token: cred.RefreshToken, ExpiresAt: cred.RefreshExpiry}
	if err := s.cache.Set(ctx, refreshKey, refreshRec, time.Until(cred.RefreshExpiry)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	accessRec := tokenRecord{Token: cred.AccessToken, ExpiresAt: cred.AccessExpiry}
	if err := s.cache.Set(ctx, accessKey, accessRec, time.Until(cred.AccessExpiry)); err != nil {
		if rbErr := s.cache.Invalidate(ctx, refreshKey); rbErr != nil {
			s.log.Warn("failed to roll back refresh token entry", sl.Err(rbErr))
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Clear удаляет оба токена. Очищенная пара означает "не аутентифицирован".
func (s *Store) Clear(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, accessKey); err != nil {
		s.log.Warn("failed to clear access token entry", sl.Err(err))
	}
	if err := s.cache.Invalidate(ctx, refreshKey); err != nil {
		s.log.Warn("failed to clear refresh token entry", sl.Err(err))
	}
}

// AccessExpiryFrom извлекает срок годности из exp-клейма access-токена.
// Подпись не проверяется: шлюз — потребитель токена, а не его издатель.
// Если токен не является разбираемым JWT, используется fallback.
func AccessExpiryFrom(accessToken string, fallback time.Time) time.Time {
	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(accessToken, &claims); err != nil {
		return fallback
	}
	if claims.ExpiresAt == nil {
		return fallback
	}
	return claims.ExpiresAt.Time
}
