package model

// JobState represents the lifecycle state of a Job.
type JobState string

const (
	JobStateQueued  JobState = "QUEUED"
	JobStateRunning JobState = "RUNNING"
	JobStateDone    JobState = "DONE"
	JobStateFailed  JobState = "FAILED"
)

// String returns the string representation of the job state.
func (s JobState) String() string {
	return string(s)
}

// IsTerminal returns true if the job is in a final state.
func (s JobState) IsTerminal() bool {
	switch s {
	case JobStateDone, JobStateFailed:
		return true
	}
	return false
}

// ValidJobTransitions defines the allowed state transitions for Jobs.
// A round-robin job that is sliced stays RUNNING between slices; it never
// goes back to QUEUED.
var ValidJobTransitions = map[JobState][]JobState{
	JobStateQueued:  {JobStateRunning},
	JobStateRunning: {JobStateDone, JobStateFailed},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s JobState) CanTransitionTo(next JobState) bool {
	for _, allowed := range ValidJobTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RunState is the state carried by status events for a whole batch.
type RunState string

const (
	RunStateRunning RunState = "running"
	RunStateDone    RunState = "done"
)
