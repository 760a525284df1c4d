package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MeowExort/pw-hub-relics-backend/internal/domain/service/reconcile"
)

const (
	StatusCreated = "created"
	StatusUpdated = "updated"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

type Metrics struct {
	Processed               *prometheus.CounterVec
	Batches                 prometheus.Counter
	ParseQueueLength        prometheus.Gauge
	BatchDuration           prometheus.Histogram
	BatchSize               prometheus.Histogram
	NotificationsDropped    prometheus.Counter
	NotificationQueueLength prometheus.Gauge
	ListingsDeactivated     prometheus.Counter
	ListingsTotal           prometheus.Gauge
	ListingsActive          prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Processed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relics_processed_total",
			Help: "Lots processed by the reconciliation engine, by outcome.",
		}, []string{"status"}),
		Batches: factory.NewCounter(prometheus.CounterOpts{
			Name: "relics_batches_processed_total",
			Help: "Ingestion batches handed to the reconciliation engine.",
		}),
		ParseQueueLength: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relics_parse_queue_length",
			Help: "Parse requests waiting in the ingestion queue.",
		}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "relics_batch_processing_duration_seconds",
			Help:    "Time spent reconciling one batch.",
			Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10},
		}),
		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "relics_batch_size",
			Help:    "Parse requests per batch.",
			Buckets: []float64{1, 5, 10, 25, 50, 75, 100},
		}),
		NotificationsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "relics_notifications_dropped_total",
			Help: "Created listing events dropped because the notification queue stayed full.",
		}),
		NotificationQueueLength: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relics_notification_queue_length",
			Help: "Created listing events waiting for dispatch.",
		}),
		ListingsDeactivated: factory.NewCounter(prometheus.CounterOpts{
			Name: "relics_listings_deactivated_total",
			Help: "Listings marked inactive by the expiry sweeper.",
		}),
		ListingsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relic_listings_total",
			Help: "Stored relic listings.",
		}),
		ListingsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relic_listings_active_total",
			Help: "Active relic listings.",
		}),
	}
}

// ObserveBatch учитывает итог одного пакета.
func (m *Metrics) ObserveBatch(res reconcile.Result, size int, elapsed time.Duration) {
	m.Batches.Inc()
	m.BatchSize.Observe(float64(size))
	m.BatchDuration.Observe(elapsed.Seconds())

	m.Processed.WithLabelValues(StatusCreated).Add(float64(res.Created))
	m.Processed.WithLabelValues(StatusUpdated).Add(float64(res.Updated))
	m.Processed.WithLabelValues(StatusSkipped).Add(float64(res.Skipped + res.Duplicates))
	m.Processed.WithLabelValues(StatusFailed).Add(float64(res.Failed))
}
