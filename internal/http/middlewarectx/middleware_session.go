// Package middlewarectx содержит HTTP middleware шлюза: проверку активной
// сессии перед операциями биллинга и ограничение частоты запросов.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"

	"github.com/magabrotheeeer/billing-orchestrator/internal/http/response"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// User — ключ для идентификатора пользователя в контексте.
const User Key = "user"

// Sessions читает access-токен текущей сессии.
type Sessions interface {
	AccessToken(ctx context.Context) (string, bool)
}

// SessionMiddleware возвращает middleware, требующее действующего
// access-токена в хранилище сессии. Subject-клейм токена кладется в контекст
// как идентификатор пользователя; подпись не проверяется — шлюз потребитель
// токена, а не его издатель.
func SessionMiddleware(sessions Sessions, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SessionMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token, ok := sessions.AccessToken(r.Context())
			if !ok {
				log.Error("no active session")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("no active session"))
				return
			}

			ctx := r.Context()
			claims := jwt.RegisteredClaims{}
			if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil && claims.Subject != "" {
				ctx = context.WithValue(ctx, User, claims.Subject)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
