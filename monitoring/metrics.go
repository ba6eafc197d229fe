package monitoring

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
)

var (
	SnapshotSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_snapshot_saves_total",
			Help: "Total snapshot saves by backend and result",
		},
		[]string{"backend", "result"},
	)

	SnapshotSaveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clinic_snapshot_save_duration_seconds",
			Help:    "Duration of snapshot saves",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	RemindersFlagged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "clinic_reminders_flagged_total",
			Help: "Appointments marked as reminded",
		},
	)

	ConsumedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_consumed_events_total",
			Help: "Change events handled by the indexing consumer",
		},
		[]string{"event", "result"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(SnapshotSaves)
		prometheus.MustRegister(SnapshotSaveDuration)
		prometheus.MustRegister(RemindersFlagged)
		prometheus.MustRegister(ConsumedEvents)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
