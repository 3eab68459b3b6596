package oauthrelay

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestRegistry_RelayDeliversTypedMessage(t *testing.T) {
	reg := NewRegistry()
	state, ch := reg.Register()

	require.True(t, reg.Relay(state, Message{Type: MessageType, ID: "acct-1"}))

	msg, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, "PROVIDER_AUTH_SUCCESS", msg.Type)
	assert.Equal(t, "acct-1", msg.ID)
}

func TestRegistry_UnknownStateIsRejected(t *testing.T) {
	reg := NewRegistry()

	assert.False(t, reg.Relay("no-such-state", Message{Type: MessageType, ID: "acct-1"}))
}

func TestRegistry_RelayIsOneShot(t *testing.T) {
	reg := NewRegistry()
	state, _ := reg.Register()

	require.True(t, reg.Relay(state, Message{Type: MessageType, ID: "acct-1"}))
	// повторная доставка по тому же state невозможна
	assert.False(t, reg.Relay(state, Message{Type: MessageType, ID: "acct-2"}))
}

func TestRegistry_ReleaseClosesChannel(t *testing.T) {
	reg := NewRegistry()
	state, ch := reg.Register()

	reg.Release(state)

	_, ok := <-ch
	assert.False(t, ok)
	assert.False(t, reg.Relay(state, Message{Type: MessageType, ID: "acct-1"}))
}

func popupRequest(state, origin string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/oauth/popup?account_id=acct-1&state="+state, nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func TestHandler_RelaysToOpener(t *testing.T) {
	reg := NewRegistry()
	state, ch := reg.Register()
	h := NewHandler(noopLogger(), reg, []string{"https://provider.example.com"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, popupRequest(state, "https://provider.example.com"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "will close")

	msg := <-ch
	assert.Equal(t, MessageType, msg.Type)
	assert.Equal(t, "acct-1", msg.ID)
}

func TestHandler_NoOpenerServesStaticPage(t *testing.T) {
	reg := NewRegistry()
	h := NewHandler(noopLogger(), reg, []string{"https://provider.example.com"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, popupRequest("unknown-state", "https://provider.example.com"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "You can close this window")
}

func TestHandler_DisallowedOriginNeverRelays(t *testing.T) {
	reg := NewRegistry()
	state, ch := reg.Register()
	h := NewHandler(noopLogger(), reg, []string{"https://provider.example.com"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, popupRequest(state, "https://evil.example.com"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "You can close this window")

	select {
	case <-ch:
		t.Fatal("message relayed despite disallowed origin")
	default:
	}
}

// startedState регистрирует открывателя через StartHandler и возвращает
// выданный state.
func startedState(t *testing.T, reg *Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	NewStartHandler(noopLogger(), reg).ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/api/v1/oauth/start", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			State string `json:"state"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "OK", resp.Status)
	require.NotEmpty(t, resp.Data.State)
	return resp.Data.State
}

func TestOpenerFlow_PopupResultReachesOpener(t *testing.T) {
	reg := NewRegistry()
	state := startedState(t, reg)

	// попап провайдера возвращается с результатом
	popup := NewHandler(noopLogger(), reg, []string{"https://provider.example.com"})
	popupRec := httptest.NewRecorder()
	popup.ServeHTTP(popupRec, popupRequest(state, "https://provider.example.com"))
	assert.Contains(t, popupRec.Body.String(), "will close")

	// открыватель забирает типизированное сообщение долгим опросом
	result := NewResultHandler(noopLogger(), reg, time.Second)
	resultRec := httptest.NewRecorder()
	result.ServeHTTP(resultRec,
		httptest.NewRequest(http.MethodGet, "/api/v1/oauth/result?state="+state, nil))

	require.Equal(t, http.StatusOK, resultRec.Code)
	assert.Contains(t, resultRec.Body.String(), "PROVIDER_AUTH_SUCCESS")
	assert.Contains(t, resultRec.Body.String(), "acct-1")
}

func TestResultHandler_TimeoutReleasesOpener(t *testing.T) {
	reg := NewRegistry()
	state := startedState(t, reg)

	result := NewResultHandler(noopLogger(), reg, 30*time.Millisecond)
	rec := httptest.NewRecorder()
	result.ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/api/v1/oauth/result?state="+state, nil))
	require.Equal(t, http.StatusRequestTimeout, rec.Code)

	// опоздавший попап попадает на статическую страницу
	popup := NewHandler(noopLogger(), reg, []string{"https://provider.example.com"})
	popupRec := httptest.NewRecorder()
	popup.ServeHTTP(popupRec, popupRequest(state, "https://provider.example.com"))
	assert.Contains(t, popupRec.Body.String(), "You can close this window")
}

func TestResultHandler_UnknownState(t *testing.T) {
	reg := NewRegistry()

	result := NewResultHandler(noopLogger(), reg, time.Second)
	rec := httptest.NewRecorder()
	result.ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/api/v1/oauth/result?state=no-such-state", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	missing := httptest.NewRecorder()
	result.ServeHTTP(missing,
		httptest.NewRequest(http.MethodGet, "/api/v1/oauth/result", nil))
	assert.Equal(t, http.StatusBadRequest, missing.Code)
}

func TestHandler_RefererFallback(t *testing.T) {
	reg := NewRegistry()
	state, ch := reg.Register()
	h := NewHandler(noopLogger(), reg, []string{"https://provider.example.com"})

	req := popupRequest(state, "")
	req.Header.Set("Referer", "https://provider.example.com/oauth/done?x=1")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	msg := <-ch
	assert.Equal(t, "acct-1", msg.ID)
	assert.Contains(t, rec.Body.String(), "will close")
}
