// Package journal persists the activation audit trail: every step attempt,
// compensation, backoff wait, and incident is recorded as a StepEvent.
package journal

import (
	"context"

	"github.com/netgrid/activation/model"
)

// Store persists activation audit events.
type Store interface {
	// Append adds an event to the audit trail.
	Append(ctx context.Context, event model.StepEvent) error

	// List retrieves all events for a change request, ordered by timestamp.
	List(ctx context.Context, changeRequest string) ([]model.StepEvent, error)
}
