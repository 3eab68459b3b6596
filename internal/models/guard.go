package models

import "time"

// GuardPhase — фаза решения гарда для защищенного представления.
type GuardPhase string

// Фазы жизненного цикла решения: pending при монтировании, затем ровно один
// переход в authorized или denied.
const (
	GuardPending    GuardPhase = "pending"
	GuardAuthorized GuardPhase = "authorized"
	GuardDenied     GuardPhase = "denied"
)

// GuardDecision — наблюдаемое состояние гарда. Живет, пока смонтировано
// защищенное представление.
type GuardDecision struct {
	Phase               GuardPhase `json:"phase"`
	ShowRedirectMessage bool       `json:"show_redirect_message"`
	RedirectTo          string     `json:"redirect_to,omitempty"`
	RedirectAt          *time.Time `json:"redirect_at,omitempty"`
}
