// Package workflow contains the activation step actions, the sequencer
// that drives them in order, and the recovery dispatcher that runs
// compensating sequences when a step fails.
package workflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/netgrid/activation/internal/backend"
	"github.com/netgrid/activation/model"
)

// Step names, used for journal events and metrics labels.
const (
	StepGetDeviceInfo   = "get_device_info"
	StepCheckModule     = "check_module"
	StepImplementChange = "implement_change"
	StepPreChecks       = "activation_pre_checks"
	StepActivateDevice  = "activate_device"
	StepCloseChange     = "close_change"
	StepCancelChange    = "cancel_change"
	StepUploadArtifacts = "upload_artifacts"
)

// Step is a single workflow action operating on the worker's instance.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Worker owns a single workflow instance and executes the activation step
// actions against it. The same actions serve both the primary sequence
// and the recovery dispatcher's compensating sequences.
type Worker struct {
	inst      *model.WorkflowInstance
	devices   backend.DeviceService
	changes   backend.ChangeSystem
	artifacts backend.ArtifactStore
	logger    *zap.Logger
}

// NewWorker creates a worker for one workflow instance.
func NewWorker(
	inst *model.WorkflowInstance,
	devices backend.DeviceService,
	changes backend.ChangeSystem,
	artifacts backend.ArtifactStore,
	logger *zap.Logger,
) *Worker {
	return &Worker{
		inst:      inst,
		devices:   devices,
		changes:   changes,
		artifacts: artifacts,
		logger:    logger.With(zap.String("change_request", inst.ChangeRequest)),
	}
}

// Instance returns the workflow instance the worker operates on.
func (w *Worker) Instance() *model.WorkflowInstance { return w.inst }

// Sequence returns the standard activation step order.
func (w *Worker) Sequence() []Step {
	return []Step{
		{Name: StepGetDeviceInfo, Run: w.GetDeviceInfo},
		{Name: StepCheckModule, Run: w.CheckModule},
		{Name: StepImplementChange, Run: w.ImplementChange},
		{Name: StepPreChecks, Run: w.RunPreChecks},
		{Name: StepActivateDevice, Run: w.ActivateDevice},
		{Name: StepCloseChange, Run: w.CloseChange},
		{Name: StepUploadArtifacts, Run: w.UploadArtifacts},
	}
}

// GetDeviceInfo resolves the target device and attaches it to the
// instance.
func (w *Worker) GetDeviceInfo(ctx context.Context) error {
	dev, err := w.devices.FetchDevice(ctx, w.inst.ChangeRequest)
	if err != nil {
		return err
	}
	w.inst.Device = &dev
	return nil
}

// CheckModule verifies the module and advances the activation state.
func (w *Worker) CheckModule(ctx context.Context) error {
	if err := w.devices.CheckModule(ctx, w.device()); err != nil {
		return err
	}
	w.inst.ActivationState = model.ActivationCheckModule
	return nil
}

// ImplementChange moves the change request into implementation.
func (w *Worker) ImplementChange(ctx context.Context) error {
	if err := w.changes.Implement(ctx, w.inst.ChangeRequest); err != nil {
		return err
	}
	w.inst.ChangeState = model.ChangeStateImplement
	return nil
}

// RunPreChecks runs the activation pre-checks and advances the activation
// state.
func (w *Worker) RunPreChecks(ctx context.Context) error {
	if err := w.devices.RunPreChecks(ctx, w.device()); err != nil {
		return err
	}
	w.inst.ActivationState = model.ActivationPreCheck
	return nil
}

// ActivateDevice activates the device. The activation state advances to
// START_ACTIVATION before the attempt, so a failure here is
// distinguishable from an activation that never started.
func (w *Worker) ActivateDevice(ctx context.Context) error {
	w.inst.ActivationState = model.ActivationStarted
	if err := w.devices.Activate(ctx, w.device()); err != nil {
		return err
	}
	w.inst.ActivationState = model.ActivationCompleted
	return nil
}

// CloseChange closes the change request. A change whose activation did not
// complete is closed with an unsuccessful disposition but still reaches
// CLOSED. Closing an already terminal change is a no-op.
func (w *Worker) CloseChange(ctx context.Context) error {
	if w.inst.ChangeState.Terminal() {
		w.logger.Info("change already terminal, close skipped",
			zap.String("change_state", string(w.inst.ChangeState)))
		return nil
	}

	disposition := model.CloseSuccessful
	if w.inst.ActivationState != model.ActivationCompleted {
		disposition = model.CloseUnsuccessful
	}
	if err := w.changes.Close(ctx, w.inst.ChangeRequest, disposition); err != nil {
		return err
	}
	w.inst.ChangeState = model.ChangeStateClosed
	w.logger.Info("change closed", zap.String("disposition", disposition))
	return nil
}

// CancelChange cancels the change request. Cancelling an already terminal
// change is a no-op.
func (w *Worker) CancelChange(ctx context.Context) error {
	if w.inst.ChangeState.Terminal() {
		w.logger.Info("change already terminal, cancel skipped",
			zap.String("change_state", string(w.inst.ChangeState)))
		return nil
	}

	if err := w.changes.Cancel(ctx, w.inst.ChangeRequest); err != nil {
		return err
	}
	w.inst.ChangeState = model.ChangeStateCancelled
	w.logger.Info("change cancelled")
	return nil
}

// UploadArtifacts captures the activation artifacts. It does not change
// lifecycle state.
func (w *Worker) UploadArtifacts(ctx context.Context) error {
	return w.artifacts.Upload(ctx, w.inst.ChangeRequest)
}

// device returns the fetched device, or a zero device if the fetch step
// has not run.
func (w *Worker) device() model.Device {
	if w.inst.Device == nil {
		return model.Device{}
	}
	return *w.inst.Device
}
