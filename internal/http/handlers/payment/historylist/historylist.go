// Package historylist реализует HTTP-обработчик постраничного чтения
// платежной истории пользователя.
package historylist

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
	"github.com/magabrotheeeer/billing-orchestrator/internal/services/history"
)

// Request — запрос страницы платежной истории.
type Request struct {
	UserID   string `json:"user_id" validate:"required"`
	Page     int    `json:"page" validate:"min=1"`
	PageSize int    `json:"page_size" validate:"min=1"`
}

// Service описывает интерфейс чтения истории.
type Service interface {
	Fetch(ctx context.Context, userID string, page, pageSize int) (*models.PaymentHistoryPage, error)
}

// Handler управляет HTTP-запросами платежной истории.
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
	const op = "handlers.payment.historylist"
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

	page, err := h.service.Fetch(r.Context(), req.UserID, req.Page, req.PageSize)
	switch {
	case errors.Is(err, history.ErrMissingUser):
		log.Error("empty user id")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("user id is required"))
		return
	case err != nil:
		log.Error("failed to fetch payment history", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not fetch payment history"))
		return
	}

	log.Info("payment history fetched",
		slog.String("user_id", req.UserID),
		slog.Int("page", req.Page))
	render.JSON(w, r, response.OKWithData(page))
}
