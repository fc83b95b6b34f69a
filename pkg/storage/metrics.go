package storage

import (
	"github.com/LeeDigitalWorks/zapgate/pkg/debug"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ObjectOperations tracks local store operations by type and result
	ObjectOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zapgate",
		Subsystem: "storage",
		Name:      "operations_total",
		Help:      "Total number of local store operations",
	}, []string{"operation", "result"}) // operation: "put", "get", "stat", "delete"; result: "ok", "not_found", "error"

	// BytesWritten tracks object bytes persisted to disk
	BytesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zapgate",
		Subsystem: "storage",
		Name:      "bytes_written_total",
		Help:      "Total object bytes written to the local store",
	})
)

func init() {
	debug.Registry().MustRegister(
		ObjectOperations,
		BytesWritten,
	)
}

func observe(op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case IsNotFound(err):
		result = "not_found"
	default:
		result = "error"
	}
	ObjectOperations.WithLabelValues(op, result).Inc()
}
