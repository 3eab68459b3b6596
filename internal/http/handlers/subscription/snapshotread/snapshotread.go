// Package snapshotread реализует HTTP-обработчик чтения среза состояния
// подписки пользователя.
package snapshotread

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/billing-orchestrator/internal/http/response"
	"github.com/magabrotheeeer/billing-orchestrator/internal/lib/sl"
	"github.com/magabrotheeeer/billing-orchestrator/internal/models"
	"github.com/magabrotheeeer/billing-orchestrator/internal/services/snapshot"
	"github.com/magabrotheeeer/billing-orchestrator/internal/session"
)

// Request — запрос среза подписки.
type Request struct {
	UserID string `json:"user_id" validate:"required"`
}

// Service описывает интерфейс чтения среза.
type Service interface {
	Fetch(ctx context.Context, userID string) (*models.SubscriptionSnapshot, error)
}

// Handler управляет HTTP-запросами среза подписки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.snapshotread"
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	snap, err := h.service.Fetch(r.Context(), req.UserID)
	switch {
	case errors.Is(err, snapshot.ErrMissingUser):
		log.Error("empty user id")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("user id is required"))
		return
	case errors.Is(err, session.ErrTokenMissing):
		log.Error("no access token in session")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	case err != nil:
		log.Error("failed to fetch subscription snapshot", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not fetch subscription snapshot"))
		return
	}

	log.Info("subscription snapshot fetched", slog.String("user_id", req.UserID))
	render.JSON(w, r, response.OKWithData(snap))
}
