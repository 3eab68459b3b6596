package checkout

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/magabrotheeeer/billing-orchestrator/internal/remote"
)

// HTTPWidget — реализация Widget поверх HTTP API провайдера оплаты.
type HTTPWidget struct {
	apiURL     string
	httpClient *http.Client
}

// NewHTTPWidget создает клиента виджета с заданным базовым URL и таймаутом.
func NewHTTPWidget(apiURL string, timeout time.Duration) *HTTPWidget {
	return &HTTPWidget{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type setupRequest struct {
	Environment string `json:"environment"`
	ClientToken string `json:"client_token"`
}

type openRequest struct {
	TransactionID string       `json:"transaction_id"`
	Settings      OpenSettings `json:"settings"`
}

// Setup регистрирует сессию виджета у провайдера.
func (w *HTTPWidget) Setup(ctx context.Context, environment, clientToken string) error {
	const op = "checkout.HTTPWidget.Setup"

	req, err := remote.NewJSONRequest(ctx, http.MethodPost, w.apiURL+"/v1/initialize",
		setupRequest{Environment: environment, ClientToken: clientToken})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := remote.DoJSON(w.httpClient, req, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Open передает провайдеру транзакцию и настройки отображения.
func (w *HTTPWidget) Open(ctx context.Context, transactionID string, settings OpenSettings) error {
	const op = "checkout.HTTPWidget.Open"

	req, err := remote.NewJSONRequest(ctx, http.MethodPost, w.apiURL+"/v1/checkout",
		openRequest{TransactionID: transactionID, Settings: settings})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := remote.DoJSON(w.httpClient, req, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
