package ports

import "time"

// Metrics records dispatcher and session activity.
type Metrics interface {
	// CallStarted is invoked when a dispatcher call begins.
	CallStarted(op string)

	// CallFinished is invoked when a call returns. outcome is "ok" or a fault kind.
	CallFinished(op, outcome string, duration time.Duration)

	// SessionStatus records the current session status.
	SessionStatus(status string)
}
