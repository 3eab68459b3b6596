// Package billingapi реализует клиента биллингового бэкенда: создание
// транзакции, смену тарифа, отмену подписки и платежную историю.
package billingapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/magabrotheeeer/billing-orchestrator/internal/models"
	"github.com/magabrotheeeer/billing-orchestrator/internal/remote"
)

// Client — HTTP-клиент биллингового бэкенда.
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

func (c *Client) newRequest(ctx context.Context, path, bearer string, body any) (*http.Request, error) {
	req, err := remote.NewJSONRequest(ctx, http.MethodPost, c.apiURL+path, body)
	if err != nil {
		return nil, err
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return req, nil
}

// CreateTransaction создает транзакцию для новой покупки и возвращает ее
// идентификатор для передачи виджету оплаты.
func (c *Client) CreateTransaction(ctx context.Context, bearer string, reqParams CreateTransactionRequest) (*CreateTransactionResponse, error) {
	const op = "billingapi.CreateTransaction"

	req, err := c.newRequest(ctx, "/transactions", bearer, reqParams)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var resp CreateTransactionResponse
	if err := remote.DoJSON(c.httpClient, req, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &resp, nil
}

// UpdateSubscription меняет тариф действующей подписки на месте, без новой
// транзакции.
func (c *Client) UpdateSubscription(ctx context.Context, bearer string, reqParams UpdateSubscriptionRequest) error {
	const op = "billingapi.UpdateSubscription"

	req, err := c.newRequest(ctx, "/subscriptions/update", bearer, reqParams)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := remote.DoJSON(c.httpClient, req, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CancelSubscription отменяет действующую подписку пользователя.
func (c *Client) CancelSubscription(ctx context.Context, bearer, userID string) error {
	const op = "billingapi.CancelSubscription"

	req, err := c.newRequest(ctx, "/subscriptions/cancel", bearer, CancelSubscriptionRequest{UserID: userID})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := remote.DoJSON(c.httpClient, req, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SubscriptionSnapshot читает текущий срез состояния подписки пользователя.
func (c *Client) SubscriptionSnapshot(ctx context.Context, bearer, userID string) (*models.SubscriptionSnapshot, error) {
	const op = "billingapi.SubscriptionSnapshot"

	req, err := c.newRequest(ctx, "/subscriptions/snapshot", bearer, SnapshotRequest{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var resp models.SubscriptionSnapshot
	if err := remote.DoJSON(c.httpClient, req, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &resp, nil
}

// PaymentHistory запрашивает страницу платежной истории. Авторизация не
// требуется, пользователь задается телом запроса.
func (c *Client) PaymentHistory(ctx context.Context, reqParams PaymentHistoryRequest) (*models.PaymentHistoryPage, error) {
	const op = "billingapi.PaymentHistory"

	req, err := c.newRequest(ctx, "/payments/history", "", reqParams)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var resp PaymentHistoryResponse
	if err := remote.DoJSON(c.httpClient, req, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.PaymentHistoryPage{
		Items:       resp.Items,
		Page:        resp.Page,
		PageSize:    resp.PageSize,
		TotalPages:  resp.TotalPages,
		HasNext:     resp.HasNext,
		HasPrevious: resp.HasPrevious,
	}, nil
}
