package translator

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what the translator did. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	records          *prometheus.CounterVec
	actions          *prometheus.CounterVec
	structuralErrors *prometheus.CounterVec
	parses           *prometheus.CounterVec
}

const (
	sectionNodes    = "nodes"
	sectionElements = "elements"
	passIndex       = "index"
	passParse       = "parse"
)

// NewMetrics creates the collectors and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gmshtranslate",
			Name:      "records_streamed_total",
			Help:      "Records tokenized during streaming parses.",
		}, []string{"section"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gmshtranslate",
			Name:      "rule_actions_total",
			Help:      "Rule actions invoked.",
		}, []string{"section"}),
		structuralErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gmshtranslate",
			Name:      "structural_errors_total",
			Help:      "Malformed element records seen.",
		}, []string{"pass"}),
		parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gmshtranslate",
			Name:      "parses_total",
			Help:      "Streaming parses by final state.",
		}, []string{"state"}),
	}
	if reg != nil {
		reg.MustRegister(m.records, m.actions, m.structuralErrors, m.parses)
	}
	return m
}

func (m *Metrics) record(section string) {
	if m != nil {
		m.records.WithLabelValues(section).Inc()
	}
}

func (m *Metrics) action(section string) {
	if m != nil {
		m.actions.WithLabelValues(section).Inc()
	}
}

func (m *Metrics) structural(pass string) {
	if m != nil {
		m.structuralErrors.WithLabelValues(pass).Inc()
	}
}

func (m *Metrics) parsed(state ParseState) {
	if m != nil {
		m.parses.WithLabelValues(state.String()).Inc()
	}
}
