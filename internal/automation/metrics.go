package automation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ticksTotal counts every tick attempt, including aborted ones.
	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "automation_ticks_total",
		Help: "Number of automation ticks started.",
	})

	// dispatchTotal counts per-recipient outcomes by kind.
	dispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "automation_dispatch_total",
		Help: "Number of automation dispatch decisions, by kind and outcome.",
	}, []string{"kind", "status"})
)
