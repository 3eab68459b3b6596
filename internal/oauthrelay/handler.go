package oauthrelay

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/billing-orchestrator/internal/lib/sl"
)

// Страницы попапа: закрывающаяся после доставки сообщения и статическая
// деградация, когда открывателя нет.
const (
	closingPage = `<!doctype html><html><body>Authorization complete. This window will close.</body></html>`
	staticPage  = `<!doctype html><html><body>Authorization complete. You can close this window.</body></html>`
)

// Handler обрабатывает возврат из OAuth-попапа провайдера.
type Handler struct {
	log      *slog.Logger
	registry *Registry
	allowed  map[string]struct{}
}

// NewHandler создает обработчик. Сообщение передается открывателю только если
// источник запроса входит в список разрешенных: прием с произвольного origin
// намеренно запрещен.
func NewHandler(log *slog.Logger, registry *Registry, allowedOrigins []string) *Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &Handler{
		log:      log,
		registry: registry,
		allowed:  allowed,
	}
}

// ServeHTTP извлекает из query идентификатор, выданный провайдером, и при
// зарегистрированном открывателе передает ему типизированное сообщение.
// Без открывателя попап остается на статической странице подтверждения.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "oauthrelay.ServeHTTP"
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	id := r.URL.Query().Get("account_id")
	state := r.URL.Query().Get("state")

	if origin := requestOrigin(r); origin != "" {
		if _, ok := h.allowed[origin]; !ok {
			log.Warn("oauth popup from disallowed origin", slog.String("origin", origin))
			_, _ = w.Write([]byte(staticPage))
			return
		}
	}

	if id != "" && h.registry.Relay(state, Message{Type: MessageType, ID: id}) {
		log.Info("relayed provider auth result to opener")
		_, _ = w.Write([]byte(closingPage))
		return
	}

	log.Info("no opener registered, serving static confirmation")
	_, _ = w.Write([]byte(staticPage))
}

// requestOrigin возвращает источник запроса в виде scheme://host.
func requestOrigin(r *http.Request) string {
	if origin := r.Header.Get("Origin"); origin != "" {
		return origin
	}
	referer := r.Header.Get("Referer")
	if referer == "" {
		return ""
	}
	u, err := url.Parse(referer)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
