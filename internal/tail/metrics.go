package tail

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tail_subscribers",
		Help: "Live event feed subscribers.",
	})

	dropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tail_dropped_total",
		Help: "Events dropped for subscribers that could not keep up.",
	})
)
