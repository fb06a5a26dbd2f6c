package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/netgrid/activation/internal/incident"
	"github.com/netgrid/activation/internal/journal"
	"github.com/netgrid/activation/internal/observability"
	"github.com/netgrid/activation/model"
)

// Recovery action labels for metrics.
const (
	actionClose       = "close"
	actionCancel      = "cancel"
	actionRetryClose  = "retry_close_upload"
	actionRetryUpload = "retry_upload"
	actionUnhandled   = "unhandled"
)

// Dispatcher is the failure-recovery state machine. Given the first
// failure from the primary sequence and the instance's current change
// state, it runs the matching compensating sequence:
//
//   - device lookup or module check failures cancel the change before
//     implementation and close it afterwards, then raise an incident;
//   - pre-check and activation failures always close, then raise an
//     incident (service-offering for activation failures);
//   - a close failure gets one fixed backoff and one retried close+upload,
//     escalating to an incident for the original failure if the retry
//     fails again;
//   - an upload failure gets one fixed backoff and one retried upload;
//   - any other kind has no recovery policy and marks the run as an
//     unhandled failure.
//
// Handle is evaluated exactly once per sequencer failure. Incident
// creation is deliberately unguarded: if the incident system is down the
// error escapes the whole recovery attempt.
type Dispatcher struct {
	worker    *Worker
	incidents *incident.Reporter
	journal   journal.Store
	metrics   *observability.Metrics
	logger    *zap.Logger
	backoff   time.Duration
	sleep     func(time.Duration)
}

// NewDispatcher creates a recovery dispatcher for one worker.
func NewDispatcher(
	worker *Worker,
	incidents *incident.Reporter,
	store journal.Store,
	metrics *observability.Metrics,
	logger *zap.Logger,
	backoff time.Duration,
) *Dispatcher {
	return &Dispatcher{
		worker:    worker,
		incidents: incidents,
		journal:   store,
		metrics:   metrics,
		logger:    logger.With(zap.String("change_request", worker.Instance().ChangeRequest)),
		backoff:   backoff,
		sleep:     time.Sleep,
	}
}

// Handle runs the compensating sequence for the given primary failure.
func (d *Dispatcher) Handle(ctx context.Context, failure error) error {
	inst := d.worker.Instance()
	kind := model.KindOf(failure)

	ctx, span := observability.StartSpan(ctx, "activation.recovery",
		observability.AttrFailureKind.String(string(kind)),
	)
	defer span.End()

	d.appendEvent(ctx, model.EventRecoveryStarted, kind, string(inst.ChangeState))

	switch kind {
	case model.KindGetDevice, model.KindCheckModule:
		// Once implementation has begun the change must be formally
		// closed for the audit trail; before that, cancellation is
		// cheaper and correct.
		if inst.ChangeState == model.ChangeStateImplement {
			d.metrics.RecoveriesTotal.WithLabelValues(string(kind), actionClose).Inc()
			return d.closeAndReport(ctx, failure)
		}
		d.metrics.RecoveriesTotal.WithLabelValues(string(kind), actionCancel).Inc()
		return d.cancelAndReport(ctx, failure)

	case model.KindPreCheck, model.KindActivation:
		// Pre-checks and activation only run after implementation has
		// started; cancellation is never appropriate here.
		d.metrics.RecoveriesTotal.WithLabelValues(string(kind), actionClose).Inc()
		return d.closeAndReport(ctx, failure)

	case model.KindCloseChange:
		d.metrics.RecoveriesTotal.WithLabelValues(string(kind), actionRetryClose).Inc()
		return d.retryCloseUpload(ctx, failure)

	case model.KindUploadArtifacts:
		d.metrics.RecoveriesTotal.WithLabelValues(string(kind), actionRetryUpload).Inc()
		return d.retryUpload(ctx, failure)

	default:
		d.metrics.RecoveriesTotal.WithLabelValues(string(kind), actionUnhandled).Inc()
		inst.Outcome = model.OutcomeUnhandled
		d.appendEvent(ctx, model.EventUnhandledFailure, kind, failure.Error())
		d.logger.Error("no recovery branch for failure kind",
			zap.String("failure_kind", string(kind)),
			zap.Error(failure),
		)
		return nil
	}
}

// closeAndReport closes the change, uploads artifacts, and raises an
// incident for the original failure. A close or upload failure here is
// itself a compensation failure and falls into the bounded-retry
// policies; any other failure escapes.
func (d *Dispatcher) closeAndReport(ctx context.Context, failure error) error {
	if err := d.worker.CloseChange(ctx); err != nil {
		if model.IsKind(err, model.KindCloseChange) {
			return d.retryCloseUpload(ctx, failure)
		}
		return err
	}
	if err := d.worker.UploadArtifacts(ctx); err != nil {
		if model.IsKind(err, model.KindUploadArtifacts) {
			return d.retryUpload(ctx, failure)
		}
		return err
	}
	return d.report(ctx, failure)
}

// cancelAndReport cancels the change, uploads artifacts, and raises an
// incident for the original failure. A cancel failure has no recovery
// policy and escapes unguarded.
func (d *Dispatcher) cancelAndReport(ctx context.Context, failure error) error {
	if err := d.worker.CancelChange(ctx); err != nil {
		return err
	}
	if err := d.worker.UploadArtifacts(ctx); err != nil {
		if model.IsKind(err, model.KindUploadArtifacts) {
			return d.retryUpload(ctx, failure)
		}
		return err
	}
	return d.report(ctx, failure)
}

// retryCloseUpload is the single-retry-then-escalate policy for a failed
// compensating close: one fixed backoff, one retried close+upload. If the
// retry fails again with a close or upload failure, the close/upload pair
// is abandoned and an incident is raised for the original failure, not
// the retry's.
func (d *Dispatcher) retryCloseUpload(ctx context.Context, failure error) error {
	d.wait(ctx)

	retryErr := d.worker.CloseChange(ctx)
	if retryErr == nil {
		retryErr = d.worker.UploadArtifacts(ctx)
	}
	if retryErr != nil {
		switch model.KindOf(retryErr) {
		case model.KindCloseChange, model.KindUploadArtifacts:
			d.appendEvent(ctx, model.EventRetryAbandoned, model.KindOf(retryErr), retryErr.Error())
			d.logger.Warn("close/upload retry failed, escalating to incident",
				zap.Error(retryErr),
				zap.String("original_failure", failure.Error()),
			)
			return d.report(ctx, failure)
		default:
			return retryErr
		}
	}

	d.worker.Instance().Outcome = model.OutcomeRecovered
	return nil
}

// retryUpload retries a failed artifact upload once after a fixed
// backoff. A second failure is not escalated; it is journaled and logged
// so the gap is at least visible to operators.
func (d *Dispatcher) retryUpload(ctx context.Context, failure error) error {
	d.wait(ctx)

	if err := d.worker.UploadArtifacts(ctx); err != nil {
		d.appendEvent(ctx, model.EventRetryAbandoned, model.KindOf(err), err.Error())
		d.logger.Warn("artifact upload retry failed, artifacts dropped",
			zap.Error(err),
			zap.String("original_failure", failure.Error()),
		)
	}

	d.worker.Instance().Outcome = model.OutcomeRecovered
	return nil
}

// report raises an incident for the original failure and marks the run
// recovered. Incident-creation failures escape.
func (d *Dispatcher) report(ctx context.Context, failure error) error {
	if err := d.incidents.CreateIncident(ctx, d.worker.Instance().ChangeRequest, failure); err != nil {
		return err
	}
	d.worker.Instance().Outcome = model.OutcomeRecovered
	return nil
}

// wait blocks for the fixed recovery backoff.
func (d *Dispatcher) wait(ctx context.Context) {
	d.appendEvent(ctx, model.EventBackoffWait, "", d.backoff.String())
	d.metrics.BackoffWaitsTotal.Inc()
	d.sleep(d.backoff)
}

// appendEvent writes an audit event; journal failures are logged, never
// propagated into recovery control flow.
func (d *Dispatcher) appendEvent(ctx context.Context, event string, kind model.FailureKind, detail string) {
	evt := model.StepEvent{
		ID:            uuid.New().String(),
		ChangeRequest: d.worker.Instance().ChangeRequest,
		Event:         event,
		FailureKind:   kind,
		Detail:        detail,
		Timestamp:     time.Now().UTC(),
	}
	if err := d.journal.Append(ctx, evt); err != nil {
		d.logger.Error("journal append failed", zap.Error(err))
	}
}
