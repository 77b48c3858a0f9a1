// Package metrics собирает счётчики чата и отдаёт их Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "roomchat"

var (
	// MessagesTotal — сохранённые сообщения пользователей по комнатам.
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_total",
		Help:      "Messages accepted into a room log.",
	}, []string{"room"})

	ReactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reactions_total",
		Help:      "Reactions attached to stored messages.",
	}, []string{"room"})

	PrivateMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "private_messages_total",
		Help:      "Private messages delivered to an online recipient.",
	})

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Messages dropped by the per-session rate limiter.",
	})

	// ErrorsTotal считает ошибки, отправленные клиентам, по классу.
	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Errors reported back to the originating session.",
	}, []string{"kind"})

	Connections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connections",
		Help:      "Open WebSocket connections.",
	})

	OnlineUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "online_users",
		Help:      "Sessions that completed join.",
	})
)

// Handler отдаёт метрики на /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
