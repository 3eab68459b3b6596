// Package selectplan реализует HTTP-обработчик выбора тарифа.
//
// Обработчик валидирует намерение пользователя и срез подписки, затем отдает
// решение оркестратору: смена тарифа на месте или новая транзакция с передачей
// виджету оплаты.
package selectplan

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/billing-orchestrator/internal/checkout"
	"github.com/magabrotheeeer/billing-orchestrator/internal/http/response"
	"github.com/magabrotheeeer/billing-orchestrator/internal/lib/sl"
	"github.com/magabrotheeeer/billing-orchestrator/internal/models"
	"github.com/magabrotheeeer/billing-orchestrator/internal/services/plan"
	"github.com/magabrotheeeer/billing-orchestrator/internal/session"
)

// Request — намерение пользователя сменить тариф вместе со срезом подписки.
type Request struct {
	PlanID   int                         `json:"plan_id" validate:"required"`
	Email    string                      `json:"email" validate:"required,email"`
	UserID   string                      `json:"user_id" validate:"required"`
	Snapshot models.SubscriptionSnapshot `json:"snapshot" validate:"required"`
}

// Service описывает интерфейс оркестратора смены тарифа.
type Service interface {
	SelectPlan(ctx context.Context, planID int, snapshot models.SubscriptionSnapshot, email, userID string) (*plan.Result, error)
}

// Handler управляет HTTP-запросами выбора тарифа.
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
	const op = "handlers.plan.selectplan"
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

	result, err := h.service.SelectPlan(r.Context(), req.PlanID, req.Snapshot, req.Email, req.UserID)
	switch {
	case errors.Is(err, session.ErrTokenMissing):
		log.Error("no access token in session")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	case errors.Is(err, checkout.ErrNotReady):
		log.Error("checkout widget not ready", sl.Err(err))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("checkout is not ready"))
		return
	case err != nil:
		log.Error("failed to select plan", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not select plan"))
		return
	}

	log.Info("plan selected", slog.Int("plan_id", req.PlanID), slog.String("path", result.Path))
	render.JSON(w, r, response.OKWithData(result))
}
