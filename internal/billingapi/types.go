package billingapi

import "github.com/magabrotheeeer/billing-orchestrator/internal/models"

// CreateTransactionRequest — запрос на создание транзакции для новой покупки.
type CreateTransactionRequest struct {
	PlanID int    `json:"plan_id" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	UserID string `json:"user_id" validate:"required"`
}

// CreateTransactionResponse содержит идентификатор транзакции для виджета оплаты.
type CreateTransactionResponse struct {
	TransactionID string `json:"transaction_id"`
}

// UpdateSubscriptionRequest — запрос на смену тарифа действующей подписки.
type UpdateSubscriptionRequest struct {
	PlanID int    `json:"plan_id" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	UserID string `json:"user_id" validate:"required"`
}

// CancelSubscriptionRequest — запрос на отмену действующей подписки.
type CancelSubscriptionRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// SnapshotRequest — запрос текущего среза состояния подписки.
type SnapshotRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// PaymentHistoryRequest — запрос страницы платежной истории.
type PaymentHistoryRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	Page     int    `json:"page" validate:"min=1"`
	PageSize int    `json:"page_size" validate:"min=1"`
}

// PaymentHistoryResponse — страница истории в формате биллингового бэкенда.
type PaymentHistoryResponse struct {
	Items       []models.PaymentHistoryItem `json:"items"`
	Page        int                         `json:"page"`
	PageSize    int                         `json:"page_size"`
	TotalPages  int                         `json:"total_pages"`
	HasNext     bool                        `json:"has_next"`
	HasPrevious bool                        `json:"has_previous"`
}
