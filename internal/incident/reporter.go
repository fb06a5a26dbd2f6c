// Package incident classifies workflow failures and records them with the
// incident system.
package incident

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/netgrid/activation/internal/backend"
	"github.com/netgrid/activation/internal/journal"
	"github.com/netgrid/activation/internal/observability"
	"github.com/netgrid/activation/model"
)

// Reporter records classified incidents for workflow failures.
type Reporter struct {
	system  backend.IncidentSystem
	journal journal.Store
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewReporter creates a new incident reporter.
func NewReporter(system backend.IncidentSystem, store journal.Store, metrics *observability.Metrics, logger *zap.Logger) *Reporter {
	return &Reporter{
		system:  system,
		journal: store,
		metrics: metrics,
		logger:  logger,
	}
}

// CreateIncident classifies failure and records an incident for it.
// Activation failures become service-offering incidents, everything else
// becomes a software incident. A creation failure is returned to the
// caller unguarded: the incident system is the last line of defense and
// must not fail silently.
func (r *Reporter) CreateIncident(ctx context.Context, changeRequest string, failure error) error {
	inc := model.Incident{
		ID:            uuid.New().String(),
		ChangeRequest: changeRequest,
		Class:         model.ClassifyIncident(failure),
		FailureKind:   model.KindOf(failure),
		Summary:       failure.Error(),
		CreatedAt:     time.Now().UTC(),
	}

	if err := r.system.CreateIncident(ctx, inc); err != nil {
		return err
	}

	_ = r.journal.Append(ctx, model.StepEvent{
		ID:            uuid.New().String(),
		ChangeRequest: changeRequest,
		Event:         model.EventIncidentCreated,
		FailureKind:   inc.FailureKind,
		Detail:        inc.Class,
		Timestamp:     inc.CreatedAt,
	})
	r.metrics.IncidentsTotal.WithLabelValues(inc.Class).Inc()
	r.logger.Info("incident created",
		zap.String("change_request", changeRequest),
		zap.String("incident_id", inc.ID),
		zap.String("class", inc.Class),
		zap.String("failure_kind", string(inc.FailureKind)),
	)
	return nil
}
