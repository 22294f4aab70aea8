package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OpAll    = "all"
	OpSave   = "save"
	OpDelete = "delete"
	OpReload = "reload"
	OpClose  = "close"
)

//nolint:gochecknoglobals // prometheus collectors
var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hbnb",
		Subsystem: "storage",
		Name:      "operations_total",
		Help:      "Storage engine operations by engine, operation and result.",
	}, []string{"engine", "op", "result"})

	objectsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "hbnb",
		Subsystem: "storage",
		Name:      "objects",
		Help:      "Entities held by the engine after the last reload or save.",
	}, []string{"engine"})
)

// Observe records the outcome of one engine operation.
func Observe(engine, op string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}

	operationsTotal.WithLabelValues(engine, op, result).Inc()
}

// SetObjects publishes the entity count of engine.
func SetObjects(engine string, count int) {
	objectsGauge.WithLabelValues(engine).Set(float64(count))
}
