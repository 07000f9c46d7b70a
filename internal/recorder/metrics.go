package recorder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recorder_events_total",
		Help: "Events appended to the log, by event type.",
	}, []string{"type"})

	sessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recorder_sessions_total",
		Help: "Recording sessions started.",
	})

	eventsTrimmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recorder_events_trimmed_total",
		Help: "Events removed by the trim policy on stop.",
	})

	eventsCapped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recorder_events_capped_total",
		Help: "Events dropped because the log hit its size cap.",
	})

	keyErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recorder_key_errors_total",
		Help: "Keyboard events dropped because the key could not be named.",
	})

	exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recorder_exports_total",
		Help: "Export attempts, by outcome.",
	}, []string{"status"})

	exportSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recorder_export_seconds",
		Help:    "Time spent writing a recording to disk.",
		Buckets: prometheus.DefBuckets,
	})
)
