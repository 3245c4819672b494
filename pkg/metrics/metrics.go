// Package metrics exposes previewd counters in Prometheus format via the
// bridge server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScansTotal counts workspace scans, cache hits excluded.
	ScansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "previewd_scans_total",
		Help: "Number of workspace scans performed.",
	})

	// LaunchesTotal counts preview launches by mode and outcome.
	LaunchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "previewd_launches_total",
		Help: "Number of preview launches by mode and outcome.",
	}, []string{"mode", "outcome"})

	// ReloadsTotal counts debounced reload notifications sent to clients.
	ReloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "previewd_reloads_total",
		Help: "Number of reload notifications sent.",
	})

	// BridgeClients tracks currently connected notification clients.
	BridgeClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "previewd_bridge_clients",
		Help: "Currently connected websocket clients.",
	})
)
