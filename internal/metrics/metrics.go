// Package metrics содержит Prometheus-метрики сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTP метрики
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "path"},
	)

	// Платёжные метрики
	PaymentInitializationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_initializations_total",
			Help: "Total number of payment initializations",
		},
		[]string{"plan", "outcome"},
	)
	PaymentVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verifications_total",
			Help: "Total number of payment verifications by outcome",
		},
		[]string{"outcome"},
	)
	SubscriptionActivationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_activations_total",
			Help: "Total number of subscription activations",
		},
		[]string{"plan", "source"},
	)
	AccessChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_checks_total",
			Help: "Total number of page access checks",
		},
		[]string{"allowed"},
	)

	// Почтовые метрики
	EmailsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Total number of emails sent by type and outcome",
		},
		[]string{"type", "outcome"},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)

	prometheus.MustRegister(PaymentInitializationsTotal)
	prometheus.MustRegister(PaymentVerificationsTotal)
	prometheus.MustRegister(SubscriptionActivationsTotal)
	prometheus.MustRegister(AccessChecksTotal)

	prometheus.MustRegister(EmailsSentTotal)
}
