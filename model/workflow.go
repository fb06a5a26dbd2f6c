package model

// ChangeState is the lifecycle state of a change request in the change
// management system.
type ChangeState string

// Change lifecycle states. The intended progression is
// NEW -> ASSESS -> SCHEDULED -> IMPLEMENT -> CLOSED; CANCELLED is a side
// branch reachable from any non-terminal state.
const (
	ChangeStateNew       ChangeState = "NEW"
	ChangeStateAssess    ChangeState = "ASSESS"
	ChangeStateScheduled ChangeState = "SCHEDULED"
	ChangeStateImplement ChangeState = "IMPLEMENT"
	ChangeStateClosed    ChangeState = "CLOSED"
	ChangeStateCancelled ChangeState = "CANCELLED"
)

// Terminal reports whether no further change-state transition may occur.
func (s ChangeState) Terminal() bool {
	return s == ChangeStateClosed || s == ChangeStateCancelled
}

// ActivationState is the device-level activation lifecycle, tracked
// independently of the change lifecycle.
type ActivationState string

// Activation lifecycle states. StartActivation is entered before the
// activation call is attempted, so a failure during activation leaves the
// instance at StartActivation rather than ActivationCompleted.
const (
	ActivationNotStarted  ActivationState = "NOT_STARTED"
	ActivationCheckModule ActivationState = "CHECK_MODULE"
	ActivationPreCheck    ActivationState = "PRE_CHECK"
	ActivationStarted     ActivationState = "START_ACTIVATION"
	ActivationCompleted   ActivationState = "ACTIVATION_COMPLETED"
)

// Workflow run outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeRecovered = "recovered"
	OutcomeUnhandled = "unhandled_failure"
)

// Change close dispositions.
const (
	CloseSuccessful   = "successful"
	CloseUnsuccessful = "unsuccessful"
)

// Device describes the target network device for an activation.
// It is created by the get-device-info step and read-only afterwards.
type Device struct {
	Hostname   string `json:"hostname"`
	CIItemName string `json:"ci_item_name"`
}

// WorkflowInstance is the mutable state of a single activation run.
// One instance corresponds to one change request and is owned by a single
// goroutine; it is never shared.
type WorkflowInstance struct {
	ESPInstance     string          `json:"esp_instance"`
	ChangeRequest   string          `json:"change_request"`
	ChangeState     ChangeState     `json:"change_state"`
	ActivationState ActivationState `json:"activation_state"`
	Device          *Device         `json:"device,omitempty"`
	Outcome         string          `json:"outcome,omitempty"`
}

// NewWorkflowInstance returns an instance ready for activation: the change
// request is already scheduled and the device activation has not started.
func NewWorkflowInstance(espInstance, changeRequest string) *WorkflowInstance {
	return &WorkflowInstance{
		ESPInstance:     espInstance,
		ChangeRequest:   changeRequest,
		ChangeState:     ChangeStateScheduled,
		ActivationState: ActivationNotStarted,
	}
}
