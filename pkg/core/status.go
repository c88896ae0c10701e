package core

// StepStatus describes the lifecycle state of a plan step.
// A step never leaves StepRunning except to a terminal state.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepRunning StepStatus = "running"
	StepDone    StepStatus = "done"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// Terminal reports whether the status is final.
func (s StepStatus) Terminal() bool {
	switch s {
	case StepDone, StepFailed, StepSkipped:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is legal.
func (s StepStatus) CanTransition(next StepStatus) bool {
	switch s {
	case StepPending:
		return next == StepRunning || next == StepSkipped || next == StepFailed
	case StepRunning:
		return next.Terminal()
	}
	return false
}
