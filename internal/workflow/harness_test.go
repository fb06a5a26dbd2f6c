package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/netgrid/activation/internal/backend"
	"github.com/netgrid/activation/internal/config"
	"github.com/netgrid/activation/internal/incident"
	"github.com/netgrid/activation/internal/journal"
	"github.com/netgrid/activation/internal/observability"
	"github.com/netgrid/activation/model"
)

// harness wires a complete workflow around stub collaborators with the
// given faults. The dispatcher's sleep is replaced by a counter so retry
// tests do not block.
type harness struct {
	inst       *model.WorkflowInstance
	worker     *Worker
	sequencer  *Sequencer
	dispatcher *Dispatcher
	changes    *backend.StubChangeSystem
	incidents  *backend.StubIncidentSystem
	journal    *journal.MemoryStore
	waits      int
}

func newHarness(t *testing.T, faults config.FaultsConfig) *harness {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.InitMetrics(prometheus.NewRegistry())
	store := journal.NewMemoryStore()

	devices := backend.NewStubDeviceService(faults, logger)
	changes := backend.NewStubChangeSystem(faults, logger)
	artifacts := backend.NewStubArtifactStore(faults, logger)
	incidents := backend.NewStubIncidentSystem(faults, logger)

	inst := model.NewWorkflowInstance("cisco", "CHG1234")
	worker := NewWorker(inst, devices, changes, artifacts, logger)
	reporter := incident.NewReporter(incidents, store, metrics, logger)
	dispatcher := NewDispatcher(worker, reporter, store, metrics, logger, 3*time.Second)

	h := &harness{
		inst:       inst,
		worker:     worker,
		dispatcher: dispatcher,
		changes:    changes,
		incidents:  incidents,
		journal:    store,
	}
	dispatcher.sleep = func(time.Duration) { h.waits++ }
	h.sequencer = NewSequencer(worker, dispatcher, store, metrics, logger)
	return h
}

func (h *harness) run(t *testing.T) error {
	t.Helper()
	return h.sequencer.Run(context.Background(), h.worker.Sequence())
}

// events returns the journaled entries matching an event name and,
// when step is non-empty, a step name.
func (h *harness) events(t *testing.T, event, step string) []model.StepEvent {
	t.Helper()
	all, err := h.journal.List(context.Background(), "CHG1234")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var out []model.StepEvent
	for _, ev := range all {
		if ev.Event != event {
			continue
		}
		if step != "" && ev.Step != step {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func (h *harness) wantStates(t *testing.T, change model.ChangeState, activation model.ActivationState) {
	t.Helper()
	if h.inst.ChangeState != change {
		t.Errorf("ChangeState = %q, want %q", h.inst.ChangeState, change)
	}
	if h.inst.ActivationState != activation {
		t.Errorf("ActivationState = %q, want %q", h.inst.ActivationState, activation)
	}
}

func (h *harness) wantOutcome(t *testing.T, outcome string) {
	t.Helper()
	if h.inst.Outcome != outcome {
		t.Errorf("Outcome = %q, want %q", h.inst.Outcome, outcome)
	}
}

func (h *harness) wantIncidents(t *testing.T, classes ...string) {
	t.Helper()
	created := h.incidents.Created()
	if len(created) != len(classes) {
		t.Fatalf("created incidents = %d, want %d", len(created), len(classes))
	}
	for i, class := range classes {
		if created[i].Class != class {
			t.Errorf("incident %d class = %q, want %q", i, created[i].Class, class)
		}
	}
}
