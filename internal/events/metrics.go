package events

import "github.com/prometheus/client_golang/prometheus"

var (
	deliveredCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "solar_back",
		Subsystem: "events",
		Name:      "delivered_total",
		Help:      "Number of lifecycle events published to Kafka, labeled by topic.",
	}, []string{"topic"})

	failedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "solar_back",
		Subsystem: "events",
		Name:      "failed_total",
		Help:      "Number of lifecycle events that could not be published, labeled by topic.",
	}, []string{"topic"})

	droppedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "solar_back",
		Subsystem: "events",
		Name:      "dropped_total",
		Help:      "Number of lifecycle events discarded because the dispatch buffer was full.",
	})

	dlqCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "solar_back",
		Subsystem: "events",
		Name:      "dlq_total",
		Help:      "Number of lifecycle events written to the dead-letter collection, labeled by topic.",
	}, []string{"topic"})

	replayCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "solar_back",
		Subsystem: "events",
		Name:      "dlq_replayed_total",
		Help:      "Outcome of dead-letter replay attempts.",
	}, []string{"outcome"})

	batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "solar_back",
		Subsystem: "events",
		Name:      "batch_duration_seconds",
		Help:      "Time spent delivering one batch of lifecycle events.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})
)

func init() {
	prometheus.MustRegister(deliveredCounter, failedCounter, droppedCounter, dlqCounter, replayCounter, batchDuration)
}
