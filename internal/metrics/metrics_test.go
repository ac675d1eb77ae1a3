package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	assert.NotPanics(t, func() { RegisterCollectors(reg) })

	// Registering twice with the same registry is a programming error.
	assert.Panics(t, func() { RegisterCollectors(reg) })
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeOK, Outcome(nil))
	assert.Equal(t, OutcomeError, Outcome(errors.New("x")))
}
