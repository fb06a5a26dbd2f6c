package model

import (
	"errors"
	"fmt"
)

// FailureKind identifies which step category a failure came from. The set
// is closed: every failure-capable action raises exactly one kind.
type FailureKind string

// Failure kinds.
const (
	KindGetDevice       FailureKind = "GET_DEVICE"
	KindCheckModule     FailureKind = "CHECK_MODULE"
	KindImplementChange FailureKind = "IMPLEMENT_CHANGE"
	KindPreCheck        FailureKind = "PRE_CHECK"
	KindActivation      FailureKind = "ACTIVATION"
	KindCloseChange     FailureKind = "CLOSE_CHANGE"
	KindCancelChange    FailureKind = "CANCEL_CHANGE"
	KindUploadArtifacts FailureKind = "UPLOAD_ARTIFACTS"
	KindCreateIncident  FailureKind = "CREATE_INCIDENT"
)

// StepError is a typed failure raised by a step action or one of its
// collaborators. It implements the error interface.
type StepError struct {
	Kind    FailureKind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *StepError) Unwrap() error { return e.Cause }

// NewGetDeviceError returns a GET_DEVICE failure.
func NewGetDeviceError(msg string) *StepError {
	return &StepError{Kind: KindGetDevice, Message: msg}
}

// NewCheckModuleError returns a CHECK_MODULE failure.
func NewCheckModuleError(msg string) *StepError {
	return &StepError{Kind: KindCheckModule, Message: msg}
}

// NewImplementChangeError returns an IMPLEMENT_CHANGE failure.
func NewImplementChangeError(msg string) *StepError {
	return &StepError{Kind: KindImplementChange, Message: msg}
}

// NewPreCheckError returns a PRE_CHECK failure.
func NewPreCheckError(msg string) *StepError {
	return &StepError{Kind: KindPreCheck, Message: msg}
}

// NewActivationError returns an ACTIVATION failure.
func NewActivationError(msg string) *StepError {
	return &StepError{Kind: KindActivation, Message: msg}
}

// NewCloseChangeError returns a CLOSE_CHANGE failure.
func NewCloseChangeError(msg string) *StepError {
	return &StepError{Kind: KindCloseChange, Message: msg}
}

// NewCancelChangeError returns a CANCEL_CHANGE failure.
func NewCancelChangeError(msg string) *StepError {
	return &StepError{Kind: KindCancelChange, Message: msg}
}

// NewUploadArtifactsError returns an UPLOAD_ARTIFACTS failure.
func NewUploadArtifactsError(msg string) *StepError {
	return &StepError{Kind: KindUploadArtifacts, Message: msg}
}

// NewCreateIncidentError returns a CREATE_INCIDENT failure.
func NewCreateIncidentError(msg string) *StepError {
	return &StepError{Kind: KindCreateIncident, Message: msg}
}

// KindOf extracts the failure kind from err. It returns the empty kind if
// err does not carry a StepError anywhere in its chain.
func KindOf(err error) FailureKind {
	var se *StepError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// IsKind reports whether err carries the given failure kind.
func IsKind(err error, kind FailureKind) bool {
	return KindOf(err) == kind
}
