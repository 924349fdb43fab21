package domain

// RunState is the lifecycle state of a streaming generation run.
type RunState int

// Run states. Completed, Cancelled and Failed are terminal.
const (
	RunIdle RunState = iota
	RunStreaming
	RunCompleted
	RunCancelled
	RunFailed
)

// String returns the string representation.
func (s RunState) String() string {
	switch s {
	case RunIdle:
		return "idle"
	case RunStreaming:
		return "streaming"
	case RunCompleted:
		return "completed"
	case RunCancelled:
		return "cancelled"
	case RunFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal returns true once the run can make no further progress.
func (s RunState) IsTerminal() bool {
	return s == RunCompleted || s == RunCancelled || s == RunFailed
}

// RecordsHistory returns true if a run ending in this state is written to
// the session history. Failed runs are not.
func (s RunState) RecordsHistory() bool {
	return s == RunCompleted || s == RunCancelled
}
