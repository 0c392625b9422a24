// Package prometheus implements driver metrics with the Prometheus client.
package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/oxplot/go-tps6699x"
	"github.com/oxplot/go-tps6699x/metrics"
)

type MetricsConfig struct {
	Namespace      string
	SubCommand     string
	SubPort        string
	LatencyBuckets []float64 // seconds
}

func DefaultConfig() *MetricsConfig {
	return &MetricsConfig{
		Namespace:      "tps6699x",
		SubCommand:     "command",
		SubPort:        "port",
		LatencyBuckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}
}

type Metrics struct {
	config *MetricsConfig

	// command
	commands       *prometheus.CounterVec
	commandLatency *prometheus.HistogramVec

	// port
	events *prometheus.CounterVec
	phase  *prometheus.GaugeVec
}

var _ metrics.Metrics = (*Metrics)(nil)

func New(reg prometheus.Registerer, config *MetricsConfig) *Metrics {
	met := &Metrics{
		config: config,
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace, Subsystem: config.SubCommand, Name: "total", Help: "Commands by outcome"}, []string{"id", "port", "cmd", "result"}),
		commandLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace, Subsystem: config.SubCommand, Name: "duration_seconds", Help: "Command duration",
			Buckets: config.LatencyBuckets}, []string{"id", "port", "cmd"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace, Subsystem: config.SubPort, Name: "events_total", Help: "Decoded port events"}, []string{"id", "port", "kind"}),
		phase: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: config.Namespace, Subsystem: config.SubPort, Name: "phase", Help: "Negotiation phase (0 disconnected, 1 negotiating, 2 contracted, 3 error recovery)"}, []string{"id", "port"}),
	}

	reg.MustRegister(met.commands, met.commandLatency, met.events, met.phase)
	return met
}

func portLabel(port tps6699x.PortID) string {
	return strconv.Itoa(int(port))
}

func (m *Metrics) CommandCompleted(id string, port tps6699x.PortID, cmd string, result string, d time.Duration) {
	p := portLabel(port)
	m.commands.WithLabelValues(id, p, cmd, result).Inc()
	m.commandLatency.WithLabelValues(id, p, cmd).Observe(d.Seconds())
}

func (m *Metrics) EventDecoded(id string, port tps6699x.PortID, kind tps6699x.EventKind) {
	m.events.WithLabelValues(id, portLabel(port), kind.String()).Inc()
}

func (m *Metrics) PhaseChanged(id string, port tps6699x.PortID, phase tps6699x.Phase) {
	m.phase.WithLabelValues(id, portLabel(port)).Set(float64(phase))
}

// RemoveAllID drops every series of driver instance id.
func (m *Metrics) RemoveAllID(id string) {
	l := prometheus.Labels{"id": id}
	m.commands.DeletePartialMatch(l)
	m.commandLatency.DeletePartialMatch(l)
	m.events.DeletePartialMatch(l)
	m.phase.DeletePartialMatch(l)
}
