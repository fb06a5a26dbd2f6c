// Package backend defines the external collaborators the activation
// workflow drives: the target device, the change management system, the
// artifact store, and the incident system. Every method either succeeds or
// returns a typed failure from the model taxonomy.
package backend

import (
	"context"

	"github.com/netgrid/activation/model"
)

// DeviceService talks to the target network device.
type DeviceService interface {
	// FetchDevice resolves the device targeted by a change request.
	FetchDevice(ctx context.Context, changeRequest string) (model.Device, error)

	// CheckModule verifies the module to activate is present on the device.
	CheckModule(ctx context.Context, dev model.Device) error

	// RunPreChecks runs the activation pre-checks on the device.
	RunPreChecks(ctx context.Context, dev model.Device) error

	// Activate brings the module into service on the device.
	Activate(ctx context.Context, dev model.Device) error
}

// ChangeSystem is the change management backend.
type ChangeSystem interface {
	// Implement moves the change request into implementation.
	Implement(ctx context.Context, changeRequest string) error

	// Close closes the change request with the given disposition
	// (model.CloseSuccessful or model.CloseUnsuccessful).
	Close(ctx context.Context, changeRequest, disposition string) error

	// Cancel cancels the change request.
	Cancel(ctx context.Context, changeRequest string) error
}

// ArtifactStore accepts durable activation artifacts.
type ArtifactStore interface {
	Upload(ctx context.Context, changeRequest string) error
}

// IncidentSystem accepts classified incidents.
type IncidentSystem interface {
	CreateIncident(ctx context.Context, inc model.Incident) error
}
