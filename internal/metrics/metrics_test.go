package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Register(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector("ledger")

	require.NoError(t, c.Register(registry))
	assert.Error(t, c.Register(registry), "second registration should collide")
}

func TestCollector_Records(t *testing.T) {
	c := NewCollector("ledger")

	c.RecordLedgerComputation(true, 5*time.Millisecond)
	c.RecordLedgerComputation(false, time.Millisecond)
	c.RecordLedgerComputation(true, time.Millisecond)
	c.RecordClosure("already_closed", time.Millisecond)
	c.RecordClosure(OutcomeSuccess, 20*time.Millisecond)
	c.RecordEntryWrite("sale", true)
	c.RecordEntryWrite("sale", false)
	c.RecordLockWait(time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.ledgerComputations.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ledgerComputations.WithLabelValues(OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.closures.WithLabelValues("already_closed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.closures.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.entryWrites.WithLabelValues("sale", OutcomeError)))
	assert.Equal(t, 1, testutil.CollectAndCount(c.lockWait))
}
