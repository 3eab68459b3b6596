// Package guardcheck реализует HTTP-обработчик проверки доступа к защищенному
// представлению: монтирует гард и возвращает его решение.
//
// При отказе в доступе уведомление и редирект уже запланированы гардом;
// обработчик отдает клиенту фазу, флаг сообщения и момент редиректа.
package guardcheck

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	gd "github.com/magabrotheeeer/billing-orchestrator/internal/guard"
	"github.com/magabrotheeeer/billing-orchestrator/internal/http/response"
	"github.com/magabrotheeeer/billing-orchestrator/internal/lib/sl"
)

// Request — требования защищенного представления.
type Request struct {
	RequireAuth      bool   `json:"require_auth"`
	User             string `json:"user"`
	RedirectTo       string `json:"redirect_to" validate:"required"`
	ToastTitle       string `json:"toast_title" validate:"required"`
	ToastDescription string `json:"toast_description"`
}

// Guard описывает монтирование гарда для представления.
type Guard interface {
	Mount(ctx context.Context, opts gd.Options) *gd.Mount
}

// Handler управляет HTTP-запросами проверки доступа.
type Handler struct {
	log      *slog.Logger
	guard    Guard
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, guard Guard) *Handler {
	return &Handler{
		log:      log,
		guard:    guard,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.guardcheck"
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

	m := h.guard.Mount(r.Context(), gd.Options{
		RequireAuth:      req.RequireAuth,
		User:             req.User,
		RedirectTo:       req.RedirectTo,
		ToastTitle:       req.ToastTitle,
		ToastDescription: req.ToastDescription,
	})

	decision := m.Decision(r.Context())
	log.Info("guard decision", slog.String("phase", string(decision.Phase)))
	render.JSON(w, r, response.OKWithData(decision))
}
