package lifecycle

import "slices"

// State is the controller's position in the job lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StatePolling    State = "polling"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Active reports whether a job is in flight.
func (s State) Active() bool {
	return s == StateSubmitting || s == StatePolling
}

// Job is the controller's view of the remote job, overwritten by every poll.
type Job struct {
	ID                 string   `json:"id"`
	VideoID            string   `json:"video_id"`
	Status             string   `json:"status"`
	Progress           int      `json:"progress"`
	CurrentStep        string   `json:"current_step"`
	EstimatedRemaining *float64 `json:"estimated_remaining,omitempty"`
	Features           []string `json:"features,omitempty"`
	ErrorMessage       string   `json:"error_message,omitempty"`
}

func (j *Job) clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	if j.EstimatedRemaining != nil {
		v := *j.EstimatedRemaining
		cp.EstimatedRemaining = &v
	}
	cp.Features = slices.Clone(j.Features)
	return &cp
}

// Snapshot is an immutable copy of the controller state handed to observers.
type Snapshot struct {
	State        State  `json:"state"`
	Job          *Job   `json:"job,omitempty"`
	ErrorKind    string `json:"error_kind,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	HasResult    bool   `json:"has_result"`
}
