package model

import "time"

// Incident classification constants. Activation failures are attributed to
// the device or service offering; every other failure is attributed to the
// automation software.
const (
	IncidentClassServiceOffering = "service_offering"
	IncidentClassSoftware        = "software"
)

// ClassifyIncident maps a failure to its incident class.
func ClassifyIncident(err error) string {
	if IsKind(err, KindActivation) {
		return IncidentClassServiceOffering
	}
	return IncidentClassSoftware
}

// Incident is a recorded failure ticket.
type Incident struct {
	ID            string      `json:"id"`
	ChangeRequest string      `json:"change_request"`
	Class         string      `json:"class"`
	FailureKind   FailureKind `json:"failure_kind"`
	Summary       string      `json:"summary"`
	CreatedAt     time.Time   `json:"created_at"`
}
