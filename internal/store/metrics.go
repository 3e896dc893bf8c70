package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cartOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_operations_total",
			Help: "Total number of cart mutation operations by outcome",
		},
		[]string{"op", "result"},
	)

	cartLineItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cart_line_items",
			Help: "Number of distinct line items in the published cart",
		},
	)
)

const (
	resultCommitted = "committed"
	resultRejected  = "rejected"
	resultFailed    = "failed"
)
