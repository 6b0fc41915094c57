package pushqueue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reelfocus",
			Subsystem: "pushqueue",
			Name:      "submissions_total",
			Help:      "Push jobs accepted into a family queue.",
		},
		[]string{"family"},
	)

	failuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reelfocus",
			Subsystem: "pushqueue",
			Name:      "failures_total",
			Help:      "Push jobs that exhausted retries or failed fast.",
		},
		[]string{"family"},
	)

	queueFullTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reelfocus",
			Subsystem: "pushqueue",
			Name:      "queue_full_total",
			Help:      "Submissions rejected because a family queue was full.",
		},
		[]string{"family"},
	)
)
