// Package metrics объявляет счетчики prometheus, отдаваемые через /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RefreshExchanges — число реальных обменов refresh-токена.
	RefreshExchanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_refresh_exchanges_total",
		Help: "Number of refresh token exchanges performed against the auth API.",
	})

	// RefreshCoalesced — число вызовов, присоединившихся к уже идущему обмену.
	RefreshCoalesced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_refresh_coalesced_total",
		Help: "Number of refresh calls that awaited an in-flight exchange.",
	})

	// PlanDecisions — решения оркестратора по пути update/create.
	PlanDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plan_decisions_total",
		Help: "Plan selection decisions by backend path.",
	}, []string{"path"})

	// CheckoutOpens — число передач транзакции виджету оплаты.
	CheckoutOpens = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_opens_total",
		Help: "Number of checkout widget open calls.",
	})
)
