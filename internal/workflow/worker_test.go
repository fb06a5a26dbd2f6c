package workflow

import (
	"context"
	"testing"

	"github.com/netgrid/activation/internal/config"
	"github.com/netgrid/activation/model"
)

func TestWorker_sequenceOrder(t *testing.T) {
	h := newHarness(t, config.FaultsConfig{})
	want := []string{
		StepGetDeviceInfo,
		StepCheckModule,
		StepImplementChange,
		StepPreChecks,
		StepActivateDevice,
		StepCloseChange,
		StepUploadArtifacts,
	}
	steps := h.worker.Sequence()
	if len(steps) != len(want) {
		t.Fatalf("Sequence() length = %d, want %d", len(steps), len(want))
	}
	for i, step := range steps {
		if step.Name != want[i] {
			t.Errorf("step %d = %q, want %q", i, step.Name, want[i])
		}
	}
}

func TestWorker_getDeviceInfoAttachesDevice(t *testing.T) {
	h := newHarness(t, config.FaultsConfig{})
	if err := h.worker.GetDeviceInfo(context.Background()); err != nil {
		t.Fatalf("GetDeviceInfo() error = %v", err)
	}
	if h.inst.Device == nil {
		t.Fatal("Device = nil after GetDeviceInfo")
	}
	if h.inst.Device.Hostname != "switch-1.cisco.com" {
		t.Errorf("Hostname = %q", h.inst.Device.Hostname)
	}
}

func TestWorker_stateTransitions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, config.FaultsConfig{})

	if err := h.worker.CheckModule(ctx); err != nil {
		t.Fatalf("CheckModule() error = %v", err)
	}
	h.wantStates(t, model.ChangeStateScheduled, model.ActivationCheckModule)

	if err := h.worker.ImplementChange(ctx); err != nil {
		t.Fatalf("ImplementChange() error = %v", err)
	}
	h.wantStates(t, model.ChangeStateImplement, model.ActivationCheckModule)

	if err := h.worker.RunPreChecks(ctx); err != nil {
		t.Fatalf("RunPreChecks() error = %v", err)
	}
	h.wantStates(t, model.ChangeStateImplement, model.ActivationPreCheck)

	if err := h.worker.ActivateDevice(ctx); err != nil {
		t.Fatalf("ActivateDevice() error = %v", err)
	}
	h.wantStates(t, model.ChangeStateImplement, model.ActivationCompleted)
}

func TestWorker_activateFailureLeavesStartedState(t *testing.T) {
	faults := config.FaultsConfig{Activation: config.FaultConfig{Enabled: true}}
	h := newHarness(t, faults)

	err := h.worker.ActivateDevice(context.Background())
	if got := model.KindOf(err); got != model.KindActivation {
		t.Fatalf("ActivateDevice() kind = %q, want %q", got, model.KindActivation)
	}
	if h.inst.ActivationState != model.ActivationStarted {
		t.Errorf("ActivationState = %q, want %q", h.inst.ActivationState, model.ActivationStarted)
	}
}

func TestWorker_closeDisposition(t *testing.T) {
	ctx := context.Background()

	t.Run("successful after completed activation", func(t *testing.T) {
		h := newHarness(t, config.FaultsConfig{})
		h.inst.ActivationState = model.ActivationCompleted
		if err := h.worker.CloseChange(ctx); err != nil {
			t.Fatalf("CloseChange() error = %v", err)
		}
		got := h.changes.CloseDispositions()
		if len(got) != 1 || got[0] != model.CloseSuccessful {
			t.Errorf("dispositions = %v, want [successful]", got)
		}
		if h.inst.ChangeState != model.ChangeStateClosed {
			t.Errorf("ChangeState = %q, want CLOSED", h.inst.ChangeState)
		}
	})

	t.Run("unsuccessful when activation incomplete", func(t *testing.T) {
		h := newHarness(t, config.FaultsConfig{})
		h.inst.ActivationState = model.ActivationStarted
		if err := h.worker.CloseChange(ctx); err != nil {
			t.Fatalf("CloseChange() error = %v", err)
		}
		got := h.changes.CloseDispositions()
		if len(got) != 1 || got[0] != model.CloseUnsuccessful {
			t.Errorf("dispositions = %v, want [unsuccessful]", got)
		}
		if h.inst.ChangeState != model.ChangeStateClosed {
			t.Errorf("ChangeState = %q, want CLOSED", h.inst.ChangeState)
		}
	})
}

func TestWorker_terminalChangeNoOps(t *testing.T) {
	ctx := context.Background()

	t.Run("close on cancelled change", func(t *testing.T) {
		h := newHarness(t, config.FaultsConfig{})
		h.inst.ChangeState = model.ChangeStateCancelled
		if err := h.worker.CloseChange(ctx); err != nil {
			t.Fatalf("CloseChange() error = %v", err)
		}
		if h.inst.ChangeState != model.ChangeStateCancelled {
			t.Errorf("ChangeState = %q, want CANCELLED", h.inst.ChangeState)
		}
		if n := len(h.changes.CloseDispositions()); n != 0 {
			t.Errorf("close calls = %d, want 0", n)
		}
	})

	t.Run("cancel on closed change", func(t *testing.T) {
		h := newHarness(t, config.FaultsConfig{})
		h.inst.ChangeState = model.ChangeStateClosed
		if err := h.worker.CancelChange(ctx); err != nil {
			t.Fatalf("CancelChange() error = %v", err)
		}
		if h.inst.ChangeState != model.ChangeStateClosed {
			t.Errorf("ChangeState = %q, want CLOSED", h.inst.ChangeState)
		}
	})
}

func TestWorker_cancelFromScheduled(t *testing.T) {
	h := newHarness(t, config.FaultsConfig{})
	if err := h.worker.CancelChange(context.Background()); err != nil {
		t.Fatalf("CancelChange() error = %v", err)
	}
	if h.inst.ChangeState != model.ChangeStateCancelled {
		t.Errorf("ChangeState = %q, want CANCELLED", h.inst.ChangeState)
	}
}
