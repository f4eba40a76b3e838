package refresh

import "time"

// State of a refresh run
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Status reports one refresh run
type Status struct {
	State      State         `json:"state"`
	Date       string        `json:"date,omitempty"`
	StartedAt  time.Time     `json:"started_at,omitempty"`
	FinishedAt time.Time     `json:"finished_at,omitempty"`
	Duration   time.Duration `json:"duration_ns,omitempty"`
	Alerts     int           `json:"alerts"`
	Symbols    int           `json:"symbols"`
	Enriched   int           `json:"enriched"`
	Failed     int           `json:"failed"`
	Error      string        `json:"error,omitempty"`
}

// Done reports whether the run has finished
func (s Status) Done() bool {
	return s.State == StateSucceeded || s.State == StateFailed
}
