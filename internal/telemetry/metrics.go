/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package telemetry carries the ambient prometheus instrumentation
// concern (spec.md §9 EXPANSION): the Non-goals exclude features, not the
// observability idiom the teacher always carries.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CommandsTotal counts commands processed by the Controller, by kind.
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rradio_commands_total",
		Help: "Total commands processed by the player controller.",
	}, []string{"kind"})

	// StationSwitchesTotal counts successful play_station invocations.
	StationSwitchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rradio_station_switches_total",
		Help: "Total successful station switches.",
	})

	// PipelineErrorsTotal counts pipeline errors by classification.
	PipelineErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rradio_pipeline_errors_total",
		Help: "Total pipeline errors by domain classification.",
	}, []string{"domain"})

	// PipelineStateGauge reports the current PipelineState as an enum value.
	PipelineStateGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rradio_pipeline_state",
		Help: "Current pipeline state (0=Null,1=Ready,2=Paused,3=Playing).",
	})

	// ConnectionsGauge is the active-connections-per-port gauge. No
	// listener sets it, so it stays at zero.
	ConnectionsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rradio_port_connections",
		Help: "Active connections per port listener.",
	}, []string{"port"})

	// PingLatencySeconds is the ping round-trip histogram. The ping
	// driver does not observe into it, so it stays empty.
	PingLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rradio_ping_latency_seconds",
		Help:    "Observed ICMP round-trip latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"target"})
)

// Handler exposes the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
