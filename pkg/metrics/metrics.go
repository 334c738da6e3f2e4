// Package metrics defines the Prometheus instrumentation for the diagram
// engine: edit log activity, graph population, and simulation progress.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles every engine metric. Components hold an optional
// reference; a nil registry disables instrumentation.
type Registry struct {
	CommandsExecuted *prometheus.CounterVec
	CommandsUndone   prometheus.Counter
	CommandsRedone   prometheus.Counter

	NodesLive prometheus.Gauge
	LinksLive prometheus.Gauge

	TransitionsFired  prometheus.Counter
	SimulationSteps   prometheus.Counter
	ReachabilityNodes prometheus.Histogram

	ImportRecords prometheus.Counter
	ImportErrors  prometheus.Counter
}

// NewRegistry creates the metric set and registers it with reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		CommandsExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opm",
			Subsystem: "commands",
			Name:      "executed_total",
			Help:      "Commands executed, by command name",
		}, []string{"command"}),
		CommandsUndone: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "opm",
			Subsystem: "commands",
			Name:      "undone_total",
			Help:      "Commands undone",
		}),
		CommandsRedone: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "opm",
			Subsystem: "commands",
			Name:      "redone_total",
			Help:      "Commands redone",
		}),
		NodesLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "opm",
			Subsystem: "graph",
			Name:      "nodes_live",
			Help:      "Live nodes in the diagram graph",
		}),
		LinksLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "opm",
			Subsystem: "graph",
			Name:      "links_live",
			Help:      "Live links in the diagram graph",
		}),
		TransitionsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "opm",
			Subsystem: "sim",
			Name:      "transitions_fired_total",
			Help:      "Petri net transitions fired",
		}),
		SimulationSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "opm",
			Subsystem: "sim",
			Name:      "steps_total",
			Help:      "Simulation steps taken",
		}),
		ReachabilityNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "opm",
			Subsystem: "sim",
			Name:      "reachability_nodes",
			Help:      "Distinct markings per reachability exploration",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		ImportRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "opm",
			Subsystem: "codec",
			Name:      "import_records_total",
			Help:      "Diagram records seen by import",
		}),
		ImportErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "opm",
			Subsystem: "codec",
			Name:      "import_errors_total",
			Help:      "Malformed records rejected by import",
		}),
	}

	reg.MustRegister(
		r.CommandsExecuted, r.CommandsUndone, r.CommandsRedone,
		r.NodesLive, r.LinksLive,
		r.TransitionsFired, r.SimulationSteps, r.ReachabilityNodes,
		r.ImportRecords, r.ImportErrors,
	)
	return r
}

// NewDefaultRegistry registers with the process-global default registerer.
func NewDefaultRegistry() *Registry {
	return NewRegistry(prometheus.DefaultRegisterer)
}
