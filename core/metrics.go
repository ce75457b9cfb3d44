package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/axiomesh/stakegov/governance"
)

const (
	resultAccepted = "accepted"
)

type metrics struct {
	operations  *prometheus.CounterVec
	totalSupply prometheus.Gauge
	height      prometheus.Gauge
	proposals   *prometheus.GaugeVec
}

// newMetrics registers on reg. A nil reg keeps the collectors unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stakegov_operations_total",
				Help: "Operations handled by the governor, by operation and result code",
			},
			[]string{"op", "result"},
		),
		totalSupply: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "stakegov_token_total_supply",
				Help: "Current total supply of the governance token",
			},
		),
		height: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "stakegov_height",
				Help: "Highest height observed in a mutating call",
			},
		),
		proposals: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stakegov_proposals",
				Help: "Number of proposals by status",
			},
			[]string{"status"},
		),
	}
}

func (m *metrics) observe(op string, err error) {
	result := resultAccepted
	if err != nil {
		result = ErrorCode(err)
	}
	m.operations.WithLabelValues(op, result).Inc()
}

func (m *metrics) proposalStatus(from, to governance.ProposalStatus) {
	m.proposals.WithLabelValues(from.String()).Dec()
	m.proposals.WithLabelValues(to.String()).Inc()
}
