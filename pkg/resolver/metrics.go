package resolver

import (
	"github.com/LeeDigitalWorks/zapgate/pkg/debug"

	"github.com/prometheus/client_golang/prometheus"
)

// ResolutionsTotal tracks resolver outcomes by operation and final state
var ResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "zapgate",
	Subsystem: "resolver",
	Name:      "resolutions_total",
	Help:      "Total number of read resolutions by terminal state",
}, []string{"operation", "state"}) // operation: "open", "stat"; state: "local_hit", "not_found", "redirected"

func init() {
	debug.Registry().MustRegister(ResolutionsTotal)
}

func observe(op string, s State) {
	ResolutionsTotal.WithLabelValues(op, s.String()).Inc()
}
