package models

// SubscriptionStatus — статус подписки пользователя в профильном сервисе.
type SubscriptionStatus string

// Возможные статусы подписки.
const (
	StatusNone     SubscriptionStatus = "none"
	StatusTrialing SubscriptionStatus = "trialing"
	StatusActive   SubscriptionStatus = "active"
	StatusCanceled SubscriptionStatus = "canceled"
	StatusPastDue  SubscriptionStatus = "past_due"
)

// TierTrial — тариф пробного периода; остальные значения — идентификаторы платных тарифов.
const TierTrial = "trial"

// SubscriptionSnapshot — срез состояния подписки на момент действия пользователя.
// Поставляется внешним профильным сервисом, здесь только читается.
type SubscriptionSnapshot struct {
	Status SubscriptionStatus `json:"status" validate:"required"`
	Tier   string             `json:"tier" validate:"required"`
	PlanID int                `json:"plan_id"`
}
