package coord

import (
	"github.com/LeeDigitalWorks/zapgate/pkg/debug"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK       = "ok"
	resultMiss     = "miss"
	resultDegraded = "degraded"
)

var (
	// Operations tracks coordination calls by operation and result
	Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zapgate",
		Subsystem: "coord",
		Name:      "operations_total",
		Help:      "Total number of coordination store operations",
	}, []string{"operation", "result"}) // operation: "record", "lookup", "forget", "register", "list"; result: "ok", "miss", "degraded"

	// OperationDuration tracks coordination call latency
	OperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "zapgate",
		Subsystem: "coord",
		Name:      "operation_duration_seconds",
		Help:      "Latency of coordination store operations",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"operation"})
)

func init() {
	debug.Registry().MustRegister(
		Operations,
		OperationDuration,
	)
}
