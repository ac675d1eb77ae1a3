// Package metrics holds the prometheus collectors bongo updates.
//
// Collectors are created unregistered; the host process decides where they
// live by calling RegisterCollectors with its own registerer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Statements = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "bongo", Name: "statements_total", Help: "Number of statements issued by kind and outcome."},
		[]string{"kind", "outcome"},
	)
	StatementDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "bongo", Name: "statement_duration_seconds", Help: "Statement latency by kind.", Buckets: prometheus.DefBuckets},
		[]string{"kind"},
	)
	Actions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "bongo", Name: "actions_total", Help: "Number of interpreted actions by mode and outcome."},
		[]string{"mode", "outcome"},
	)
	Migrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "bongo", Name: "migrations_total", Help: "Number of revisions applied or reverted."},
		[]string{"direction"},
	)
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeRollback = "rollback"
)

// RegisterCollectors registers all bongo collectors with reg.
func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(Statements)
	reg.MustRegister(StatementDuration)
	reg.MustRegister(Actions)
	reg.MustRegister(Migrations)
}

// Outcome maps an error to an outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
