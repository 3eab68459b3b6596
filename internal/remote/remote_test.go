package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "1", body["plan"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transaction_id": "txn-1"}`))
	}))
	defer srv.Close()

	req, err := NewJSONRequest(context.Background(), http.MethodPost, srv.URL, map[string]string{"plan": "1"})
	require.NoError(t, err)

	var out struct {
		TransactionID string `json:"transaction_id"`
	}
	require.NoError(t, DoJSON(srv.Client(), req, &out))
	assert.Equal(t, "txn-1", out.TransactionID)
}

func TestDoJSON_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	req, err := NewJSONRequest(context.Background(), http.MethodPost, srv.URL, nil)
	require.NoError(t, err)

	err = DoJSON(srv.Client(), req, nil)
	assert.ErrorIs(t, err, ErrNonSuccessStatus)
}

func TestDoJSON_UnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	srv.Close()

	req, err := NewJSONRequest(context.Background(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	err = DoJSON(http.DefaultClient, req, nil)
	assert.ErrorIs(t, err, ErrUnreachable)
}
