// Package refresh реализует HTTP-обработчик обновления пары токенов сессии.
//
// Тело запроса пустое: refresh-токен берется из хранилища сессии. В ответе
// возвращаются только сроки жизни новой пары, сами токены наружу не отдаются.
package refresh

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/billing-orchestrator/internal/http/response"
	"github.com/magabrotheeeer/billing-orchestrator/internal/lib/sl"
	"github.com/magabrotheeeer/billing-orchestrator/internal/models"
	"github.com/magabrotheeeer/billing-orchestrator/internal/remote"
	"github.com/magabrotheeeer/billing-orchestrator/internal/session"
)

// Service описывает интерфейс обмена refresh-токена.
type Service interface {
	Refresh(ctx context.Context) (*models.Credential, error)
}

// Handler управляет HTTP-запросами на обновление сессии.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.refresh"
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	cred, err := h.service.Refresh(r.Context())
	switch {
	case errors.Is(err, session.ErrRefreshTokenMissing):
		log.Error("refresh token missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("no refresh token"))
		return
	case errors.Is(err, session.ErrRefreshRejected):
		log.Error("refresh token rejected")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("session expired"))
		return
	case errors.Is(err, remote.ErrUnreachable):
		log.Error("auth service unreachable", sl.Err(err))
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("auth service unavailable"))
		return
	case err != nil:
		log.Error("failed to refresh session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not refresh session"))
		return
	}

	log.Info("session refreshed")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"access_expiry":  cred.AccessExpiry,
		"refresh_expiry": cred.RefreshExpiry,
	}))
}
