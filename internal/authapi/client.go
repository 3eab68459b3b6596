// Package authapi реализует клиента сервиса аутентификации.
// Единственная операция — обмен refresh-токена на новую пару токенов.
package authapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/magabrotheeeer/billing-orchestrator/internal/remote"
)

// RefreshResponse — новая пара токенов, выданная сервисом аутентификации.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Client — HTTP-клиент сервиса аутентификации.
type Client struct {
	apiURL     string
	httpClient *http.Client
}

// NewClient создает клиента с заданным базовым URL и таймаутом.
func NewClient(apiURL string, timeout time.Duration) *Client {
	return &Client{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Refresh обменивает refresh-токен на новую пару. Токен передается заголовком,
// тело запроса пустое.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	const op = "authapi.Refresh"

	req, err := remote.NewJSONRequest(ctx, http.MethodPost, c.apiURL+"/auth/refresh", nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Refresh-Token", refreshToken)

	var resp RefreshResponse
	if err := remote.DoJSON(c.httpClient, req, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &resp, nil
}
