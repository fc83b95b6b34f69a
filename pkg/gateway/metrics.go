package gateway

import (
	"github.com/LeeDigitalWorks/zapgate/pkg/debug"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestsTotal tracks gateway requests by route pattern and status code
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zapgate",
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Number of gateway API requests received",
	}, []string{"route", "status_code"})

	// RequestDuration tracks gateway request latency
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "zapgate",
		Subsystem: "gateway",
		Name:      "request_duration_seconds",
		Help:      "Duration of gateway API requests",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "status_code"})

	// BytesTransferred tracks object payload bytes served and accepted
	BytesTransferred = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zapgate",
		Subsystem: "gateway",
		Name:      "bytes_total",
		Help:      "Object payload bytes transferred",
	}, []string{"direction"}) // direction: "upload", "download"
)

func init() {
	debug.Registry().MustRegister(
		RequestsTotal,
		RequestDuration,
		BytesTransferred,
	)
}
