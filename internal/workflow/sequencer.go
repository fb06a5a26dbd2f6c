package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/netgrid/activation/internal/journal"
	"github.com/netgrid/activation/internal/observability"
	"github.com/netgrid/activation/model"
)

// Sequencer drives an ordered list of steps against a worker. The steps
// run strictly in order, synchronously, one at a time; the first failure
// stops the sequence and is handed to the recovery dispatcher exactly
// once. The sequencer itself never retries.
type Sequencer struct {
	worker   *Worker
	recovery *Dispatcher
	journal  journal.Store
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewSequencer creates a sequencer for one worker and its dispatcher.
func NewSequencer(
	worker *Worker,
	recovery *Dispatcher,
	store journal.Store,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Sequencer {
	return &Sequencer{
		worker:   worker,
		recovery: recovery,
		journal:  store,
		metrics:  metrics,
		logger:   logger.With(zap.String("change_request", worker.Instance().ChangeRequest)),
	}
}

// Run executes the steps in order. A clean run completes with the change
// closed and artifacts uploaded; a failed run ends inside the recovery
// dispatcher. The returned error is non-nil only when recovery itself
// breaks out: incident creation failed, or a compensating action failed
// outside the guarded retry.
func (s *Sequencer) Run(ctx context.Context, steps []Step) error {
	inst := s.worker.Instance()

	ctx, span := observability.StartSpan(ctx, "activation.run",
		observability.AttrChangeRequest.String(inst.ChangeRequest),
		observability.AttrESPInstance.String(inst.ESPInstance),
	)

	var runErr error
	for _, step := range steps {
		if err := s.runStep(ctx, step); err != nil {
			s.logger.Warn("step failed, dispatching recovery",
				zap.String("step", step.Name),
				zap.Error(err),
			)
			runErr = s.recovery.Handle(ctx, err)
			s.finish(span, runErr)
			return runErr
		}
	}

	inst.Outcome = model.OutcomeCompleted
	s.logger.Info("activation completed",
		zap.String("change_state", string(inst.ChangeState)),
		zap.String("activation_state", string(inst.ActivationState)),
	)
	s.finish(span, nil)
	return nil
}

// runStep executes one step with journaling, metrics, and a span.
func (s *Sequencer) runStep(ctx context.Context, step Step) error {
	inst := s.worker.Instance()

	ctx, span := observability.StartSpan(ctx, "activation.step",
		observability.AttrStep.String(step.Name),
	)

	s.appendEvent(ctx, step.Name, model.EventStepStarted, "", "")

	start := time.Now()
	err := step.Run(ctx)
	s.metrics.StepDuration.WithLabelValues(step.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		s.metrics.StepsTotal.WithLabelValues(step.Name, "failed").Inc()
		s.appendEvent(ctx, step.Name, model.EventStepFailed, model.KindOf(err), err.Error())
		observability.EndSpanWithError(span, err)
		return err
	}

	s.metrics.StepsTotal.WithLabelValues(step.Name, "completed").Inc()
	s.appendEvent(ctx, step.Name, model.EventStepCompleted, "", "")
	s.logger.Info("step completed",
		zap.String("step", step.Name),
		zap.String("change_state", string(inst.ChangeState)),
		zap.String("activation_state", string(inst.ActivationState)),
	)
	span.End()
	return nil
}

// finish records the run outcome on metrics and the run span.
func (s *Sequencer) finish(span trace.Span, err error) {
	inst := s.worker.Instance()
	if inst.Outcome != "" {
		s.metrics.RunsTotal.WithLabelValues(inst.Outcome).Inc()
		span.SetAttributes(observability.AttrOutcome.String(inst.Outcome))
	}
	observability.EndSpanWithError(span, err)
}

// appendEvent writes an audit event; journal failures are logged, never
// propagated into workflow control flow.
func (s *Sequencer) appendEvent(ctx context.Context, step, event string, kind model.FailureKind, detail string) {
	evt := model.StepEvent{
		ID:            uuid.New().String(),
		ChangeRequest: s.worker.Instance().ChangeRequest,
		Step:          step,
		Event:         event,
		FailureKind:   kind,
		Detail:        detail,
		Timestamp:     time.Now().UTC(),
	}
	if err := s.journal.Append(ctx, evt); err != nil {
		s.logger.Error("journal append failed", zap.Error(err))
	}
}
