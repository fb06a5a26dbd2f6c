package model

import "time"

// Event names recorded in the activation audit trail.
const (
	EventStepStarted      = "step_started"
	EventStepCompleted    = "step_completed"
	EventStepFailed       = "step_failed"
	EventRecoveryStarted  = "recovery_started"
	EventBackoffWait      = "backoff_wait"
	EventRetryAbandoned   = "retry_abandoned"
	EventIncidentCreated  = "incident_created"
	EventUnhandledFailure = "unhandled_failure"
)

// StepEvent records one entry in an activation's audit trail.
type StepEvent struct {
	ID            string      `json:"id"`
	ChangeRequest string      `json:"change_request"`
	Step          string      `json:"step,omitempty"`
	Event         string      `json:"event"`
	FailureKind   FailureKind `json:"failure_kind,omitempty"`
	Detail        string      `json:"detail,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
}
