package collective

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OpLabels are vector definitions for per-operation traffic metrics.
var OpLabels = []string{"op"}

var MessagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "collective_messages_total",
		Help: "The number of messages sent, per collective operation",
	},
	OpLabels,
)

var BytesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "collective_bytes_total",
		Help: "The number of payload bytes sent, per collective operation",
	},
	OpLabels,
)
