package watcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// definitionReloads tracks applied definition changes by directory.
	definitionReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowline_definition_reloads_total",
			Help: "Total workflow definition reloads applied by watched directory",
		},
		[]string{"dir"},
	)

	// definitionReloadErrors tracks definition changes that failed to apply.
	definitionReloadErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowline_definition_reload_errors_total",
			Help: "Total workflow definition reloads rejected by watched directory",
		},
		[]string{"dir"},
	)
)

func recordReload(dir string) {
	definitionReloads.WithLabelValues(dir).Inc()
}

func recordReloadError(dir string) {
	definitionReloadErrors.WithLabelValues(dir).Inc()
}
