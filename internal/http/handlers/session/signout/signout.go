// Package signout реализует HTTP-обработчик выхода из сессии: оба токена
// удаляются из хранилища, очищенная пара означает "не аутентифицирован".
package signout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/billing-orchestrator/internal/http/response"
	"github.com/magabrotheeeer/billing-orchestrator/internal/lib/sl"
)

// Sessions описывает очистку хранилища сессии.
type Sessions interface {
	Clear(ctx context.Context)
}

// Handler управляет HTTP-запросами на выход из сессии.
type Handler struct {
	log      *slog.Logger
	sessions Sessions
}

// New создает новый Handler.
func New(log *slog.Logger, sessions Sessions) *Handler {
	return &Handler{
		log:      log,
		sessions: sessions,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.signout"
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	h.sessions.Clear(r.Context())
	log.Info("session cleared")
	render.JSON(w, r, response.OK())
}
