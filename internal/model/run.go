package model

import "time"

// RunStatus is the lifecycle state of a playbook run
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// StepStatus is the outcome of a single playbook step. Steps after the
// first failure remain pending.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// StepResult records the outcome of one executed playbook step
type StepResult struct {
	Index     int            `json:"index"`
	Action    PlaybookAction `json:"action"`
	Status    StepStatus     `json:"status"`
	Simulated bool           `json:"simulated,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// PlaybookRun is the record of one playbook execution against an alert
type PlaybookRun struct {
	ID          string       `json:"id"`
	AlertID     string       `json:"alert_id"`
	PlaybookID  string       `json:"playbook_id"`
	Status      RunStatus    `json:"status"`
	Steps       []StepResult `json:"steps"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// Succeeded reports whether the run finished with no failed step
func (r *PlaybookRun) Succeeded() bool {
	return r.Status == RunCompleted
}
