package metrics

import "time"

// NopMetrics is a no-op implementation of ports.Metrics.
// Use this when metrics collection is disabled.
type NopMetrics struct{}

// NewNopMetrics creates a new NopMetrics instance.
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

func (m *NopMetrics) CallStarted(op string)                                   {}
func (m *NopMetrics) CallFinished(op, outcome string, duration time.Duration) {}
func (m *NopMetrics) SessionStatus(status string)                             {}
