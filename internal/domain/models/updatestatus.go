// internal/domain/models/updatestatus.go
package models

import "time"

// Update states. Exactly one refresh may be running at a time; the store
// enforces that with a conditional update on the singleton status document.
const (
	UpdateStateIdle    = "idle"
	UpdateStateRunning = "running"
)

// UpdateStatus is the singleton document tracking the data refresh lifecycle.
type UpdateStatus struct {
	State  string `bson:"state" json:"state"`
	RunID  string `bson:"run_id,omitempty" json:"runId,omitempty"`
	Source string `bson:"source,omitempty" json:"source,omitempty"` // "manual", "scheduled", "startup"

	StartedAt     *time.Time `bson:"started_at,omitempty" json:"startedAt,omitempty"`
	FinishedAt    *time.Time `bson:"finished_at,omitempty" json:"finishedAt,omitempty"`
	LastSuccessAt *time.Time `bson:"last_success_at,omitempty" json:"lastSuccessAt,omitempty"`

	// Error holds the failure message of the most recent run, empty on success.
	Error string `bson:"error,omitempty" json:"error,omitempty"`

	EmployeeCount int `bson:"employee_count,omitempty" json:"employeeCount,omitempty"`
}

// Running reports whether a refresh is currently marked in progress.
func (s *UpdateStatus) Running() bool {
	return s.State == UpdateStateRunning
}
