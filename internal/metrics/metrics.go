// Package metrics provides the centralized Prometheus registry for sweeps.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "strategy_lab"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(SweepCellsTotal)
		registry.MustRegister(SweepCellDuration)
		registry.MustRegister(SweepDuration)
		registry.MustRegister(SweepBestSharpe)
		registry.MustRegister(SweepsRunning)

		registry.MustRegister(DataFetchTotal)
		registry.MustRegister(DataFetchDuration)
		registry.MustRegister(DataCacheHitsTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}
