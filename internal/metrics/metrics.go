// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
// For production observability, consider integrating with Prometheus or similar.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// Collaborator API metrics
	apiCallsTotal   atomic.Int64
	apiErrorsTotal  atomic.Int64
	apiLatencyNanos atomic.Int64

	// Signing operation metrics
	signOpsTotal  atomic.Int64
	signOpsErrors atomic.Int64

	// Prompt bridge metrics
	promptsSettled   atomic.Int64
	promptsCancelled atomic.Int64
}

// Global is the global metrics instance.
// Use this for recording metrics throughout the application.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordAPICall records a collaborator API call with its duration and
// success status.
func (m *Metrics) RecordAPICall(duration time.Duration, err error) {
	m.apiCallsTotal.Add(1)
	m.apiLatencyNanos.Add(duration.Nanoseconds())

	if err != nil {
		m.apiErrorsTotal.Add(1)
	}
}

// RecordSignOp records a signing operation.
func (m *Metrics) RecordSignOp(err error) {
	m.signOpsTotal.Add(1)
	if err != nil {
		m.signOpsErrors.Add(1)
	}
}

// RecordPrompt records a settled prompt request.
func (m *Metrics) RecordPrompt(cancelled bool) {
	if cancelled {
		m.promptsCancelled.Add(1)
		return
	}
	m.promptsSettled.Add(1)
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	APICallsTotal    int64
	APIErrorsTotal   int64
	APILatencyNanos  int64
	SignOpsTotal     int64
	SignOpsErrors    int64
	PromptsSettled   int64
	PromptsCancelled int64
}

// Read returns a snapshot of the current counter values.
func (m *Metrics) Read() Snapshot {
	return Snapshot{
		APICallsTotal:    m.apiCallsTotal.Load(),
		APIErrorsTotal:   m.apiErrorsTotal.Load(),
		APILatencyNanos:  m.apiLatencyNanos.Load(),
		SignOpsTotal:     m.signOpsTotal.Load(),
		SignOpsErrors:    m.signOpsErrors.Load(),
		PromptsSettled:   m.promptsSettled.Load(),
		PromptsCancelled: m.promptsCancelled.Load(),
	}
}

// AverageAPILatency returns the mean API call latency, zero when no calls
// have been recorded.
func (m *Metrics) AverageAPILatency() time.Duration {
	calls := m.apiCallsTotal.Load()
	if calls == 0 {
		return 0
	}
	return time.Duration(m.apiLatencyNanos.Load() / calls)
}

// Reset zeroes all counters. Intended for tests.
func (m *Metrics) Reset() {
	m.apiCallsTotal.Store(0)
	m.apiErrorsTotal.Store(0)
	m.apiLatencyNanos.Store(0)
	m.signOpsTotal.Store(0)
	m.signOpsErrors.Store(0)
	m.promptsSettled.Store(0)
	m.promptsCancelled.Store(0)
}
