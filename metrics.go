package bongo

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/bongo/internal/metrics"
)

// RegisterMetrics registers bongo's collectors with reg:
//
//	bongo_statements_total{kind,outcome}
//	bongo_statement_duration_seconds{kind}
//	bongo_actions_total{mode,outcome}
//	bongo_migrations_total{direction}
//
// The collectors are process-wide. Registering them twice with the same
// registry panics.
func RegisterMetrics(reg prometheus.Registerer) {
	metrics.RegisterCollectors(reg)
}
