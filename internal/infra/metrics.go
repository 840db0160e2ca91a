package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: сколько времени заняла обработка HTTP-запроса
	RequestDuration *prometheus.HistogramVec

	// Traffic: команды, ушедшие в плагин (по видам)
	CommandsPublished *prometheus.CounterVec

	// Errors: broadcast не дошел до брокера (best-effort потери)
	BroadcastFailures *prometheus.CounterVec

	// События журнала по типам
	EventsAppended *prometheus.CounterVec

	// Saturation: текущее число зрителей статус-топика
	StatusViewers prometheus.Gauge

	// Живые WebSocket-подключения браузеров
	WSConnections prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashbot_request_duration_seconds",
			Help:    "Histogram of request latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"route", "status"}),

		CommandsPublished: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dashbot_commands_published_total",
			Help: "Total number of plugin commands published.",
		}, []string{"kind"}),

		BroadcastFailures: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dashbot_broadcast_failures_total",
			Help: "Total number of failed topic publishes (best-effort drops).",
		}, []string{"channel"}),

		EventsAppended: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "dashbot_events_appended_total",
			Help: "Total number of agent lifecycle events persisted.",
		}, []string{"type"}),

		StatusViewers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "dashbot_status_viewers",
			Help: "Current number of status topic subscribers.",
		}),

		WSConnections: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "dashbot_ws_connections",
			Help: "Current number of live browser WebSocket connections.",
		}),
	}
}
