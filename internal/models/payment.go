package models

import "time"

// CheckoutIntent описывает намерение пользователя купить тариф.
// Создается на одно действие и не переживает запрос.
type CheckoutIntent struct {
	PlanID int    `json:"plan_id" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	UserID string `json:"user_id"`
}

// PaymentHistoryItem — одно событие биллинга из истории пользователя.
type PaymentHistoryItem struct {
	ID        string    `json:"id"`
	PlanID    int       `json:"plan_id"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// PaymentHistoryPage — страница истории платежей. Создается заново на каждый
// запрос и после возврата не изменяется.
type PaymentHistoryPage struct {
	Items       []PaymentHistoryItem `json:"items"`
	Page        int                  `json:"page"`
	PageSize    int                  `json:"page_size"`
	TotalPages  int                  `json:"total_pages"`
	HasNext     bool                 `json:"has_next"`
	HasPrevious bool                 `json:"has_previous"`
}
