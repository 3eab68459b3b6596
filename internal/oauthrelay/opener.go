package oauthrelay

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/billing-orchestrator/internal/http/response"
	"github.com/magabrotheeeer/billing-orchestrator/internal/lib/sl"
)

// StartHandler регистрирует окно-открыватель перед запуском попапа.
type StartHandler struct {
	log      *slog.Logger
	registry *Registry
}

// NewStartHandler создает обработчик регистрации открывателя.
func NewStartHandler(log *slog.Logger, registry *Registry) *StartHandler {
	return &StartHandler{
		log:      log,
		registry: registry,
	}
}

// ServeHTTP выдает state для ссылки попапа. Клиент открывает попап с этим
// state и ждет результат через обработчик результата.
func (h *StartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "oauthrelay.Start"
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	state, _ := h.registry.Register()
	log.Info("oauth opener registered")
	render.JSON(w, r, response.OKWithData(map[string]string{
		"state": state,
	}))
}

// ResultHandler долгим опросом ждет сообщение попапа для выданного state.
type ResultHandler struct {
	log      *slog.Logger
	registry *Registry
	wait     time.Duration
}

// NewResultHandler создает обработчик ожидания результата попапа.
func NewResultHandler(log *slog.Logger, registry *Registry, wait time.Duration) *ResultHandler {
	return &ResultHandler{
		log:      log,
		registry: registry,
		wait:     wait,
	}
}

// ServeHTTP отдает типизированное сообщение попапа, как только оно доставлено.
// По истечении времени ожидания или при уходе клиента регистрация снимается:
// опоздавший попап получит статическую страницу подтверждения.
func (h *ResultHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "oauthrelay.Result"
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	state := r.URL.Query().Get("state")
	if state == "" {
		log.Error("missing state parameter")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("state is required"))
		return
	}

	ch, ok := h.registry.Await(state)
	if !ok {
		log.Error("unknown opener state")
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("unknown state"))
		return
	}

	timer := time.NewTimer(h.wait)
	defer timer.Stop()

	select {
	case msg, delivered := <-ch:
		h.registry.Release(state)
		if !delivered {
			log.Info("opener released without a result")
			w.WriteHeader(http.StatusGone)
			render.JSON(w, r, response.Error("authorization canceled"))
			return
		}
		log.Info("provider auth result delivered to opener")
		render.JSON(w, r, response.OKWithData(msg))
	case <-timer.C:
		h.registry.Release(state)
		log.Info("opener wait timed out")
		w.WriteHeader(http.StatusRequestTimeout)
		render.JSON(w, r, response.Error("authorization timed out"))
	case <-r.Context().Done():
		h.registry.Release(state)
	}
}
