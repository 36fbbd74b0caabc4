package domain

// Outcome classifies the result of a realtime operation. Duplicate buzzes,
// late answers, and unauthorized moderator commands are expected races in a
// live multi-client system, so they are tagged values rather than errors.
type Outcome int

const (
	// Accepted means the operation took effect and was broadcast.
	Accepted Outcome = iota
	// Ignored means the operation was a no-op (duplicate or stale action).
	Ignored
	// Rejected means a precondition failed (wrong state, not the moderator).
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Ignored:
		return "ignored"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}
