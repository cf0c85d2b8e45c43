package service

import "time"

// MetricsRecorder receives ledger, closure and entry-write observations
type MetricsRecorder interface {
	RecordLedgerComputation(success bool, duration time.Duration)
	RecordClosure(reason string, duration time.Duration)
	RecordEntryWrite(kind string, success bool)
	RecordLockWait(duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) RecordLedgerComputation(bool, time.Duration) {}
func (noopMetrics) RecordClosure(string, time.Duration)         {}
func (noopMetrics) RecordEntryWrite(string, bool)               {}
func (noopMetrics) RecordLockWait(time.Duration)                {}
