package backend

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/netgrid/activation/internal/config"
	"github.com/netgrid/activation/model"
)

// fault tracks injected failures for a single collaborator call.
type fault struct {
	mu    sync.Mutex
	cfg   config.FaultConfig
	calls int
}

// trip records one call and reports whether it should fail.
func (f *fault) trip() bool {
	if !f.cfg.Enabled {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.cfg.FailFirst <= 0 {
		return true
	}
	return f.calls <= f.cfg.FailFirst
}

// StubDeviceService is a DeviceService whose calls succeed unless a fault
// is injected. It stands in for real device communication, which is out of
// scope for the workflow core.
type StubDeviceService struct {
	logger     *zap.Logger
	fetch      fault
	check      fault
	preChecks  fault
	activation fault
}

// NewStubDeviceService creates a stub device service with the given faults.
func NewStubDeviceService(faults config.FaultsConfig, logger *zap.Logger) *StubDeviceService {
	return &StubDeviceService{
		logger:     logger,
		fetch:      fault{cfg: faults.GetDevice},
		check:      fault{cfg: faults.CheckModule},
		preChecks:  fault{cfg: faults.PreChecks},
		activation: fault{cfg: faults.Activation},
	}
}

// FetchDevice resolves the device targeted by a change request.
func (s *StubDeviceService) FetchDevice(_ context.Context, changeRequest string) (model.Device, error) {
	if s.fetch.trip() {
		return model.Device{}, model.NewGetDeviceError("injected fault on device lookup")
	}
	dev := model.Device{Hostname: "switch-1.cisco.com", CIItemName: "switch-1"}
	s.logger.Info("got device info",
		zap.String("change_request", changeRequest),
		zap.String("hostname", dev.Hostname),
	)
	return dev, nil
}

// CheckModule verifies the module to activate is present on the device.
func (s *StubDeviceService) CheckModule(_ context.Context, dev model.Device) error {
	if s.check.trip() {
		return model.NewCheckModuleError("injected fault on module check")
	}
	s.logger.Info("ran check module", zap.String("hostname", dev.Hostname))
	return nil
}

// RunPreChecks runs the activation pre-checks on the device.
func (s *StubDeviceService) RunPreChecks(_ context.Context, dev model.Device) error {
	if s.preChecks.trip() {
		return model.NewPreCheckError("injected fault on pre-checks")
	}
	s.logger.Info("ran pre checks", zap.String("hostname", dev.Hostname))
	return nil
}

// Activate brings the module into service on the device.
func (s *StubDeviceService) Activate(_ context.Context, dev model.Device) error {
	if s.activation.trip() {
		return model.NewActivationError("injected fault on activation")
	}
	s.logger.Info("activated device", zap.String("hostname", dev.Hostname))
	return nil
}

// StubChangeSystem is a ChangeSystem whose calls succeed unless a fault is
// injected.
type StubChangeSystem struct {
	logger    *zap.Logger
	implement fault
	closeCR   fault
	cancel    fault

	mu           sync.Mutex
	dispositions []string
}

// NewStubChangeSystem creates a stub change system with the given faults.
func NewStubChangeSystem(faults config.FaultsConfig, logger *zap.Logger) *StubChangeSystem {
	return &StubChangeSystem{
		logger:    logger,
		implement: fault{cfg: faults.ImplementChange},
		closeCR:   fault{cfg: faults.CloseChange},
		cancel:    fault{cfg: faults.CancelChange},
	}
}

// Implement moves the change request into implementation.
func (s *StubChangeSystem) Implement(_ context.Context, changeRequest string) error {
	if s.implement.trip() {
		return model.NewImplementChangeError("injected fault on implement")
	}
	s.logger.Info("implemented change request", zap.String("change_request", changeRequest))
	return nil
}

// Close closes the change request with the given disposition.
func (s *StubChangeSystem) Close(_ context.Context, changeRequest, disposition string) error {
	if s.closeCR.trip() {
		return model.NewCloseChangeError("injected fault on close")
	}
	s.mu.Lock()
	s.dispositions = append(s.dispositions, disposition)
	s.mu.Unlock()
	s.logger.Info("closed change request",
		zap.String("change_request", changeRequest),
		zap.String("disposition", disposition),
	)
	return nil
}

// Cancel cancels the change request.
func (s *StubChangeSystem) Cancel(_ context.Context, changeRequest string) error {
	if s.cancel.trip() {
		return model.NewCancelChangeError("injected fault on cancel")
	}
	s.logger.Info("cancelled change request", zap.String("change_request", changeRequest))
	return nil
}

// CloseDispositions returns the dispositions of the successful close
// calls so far.
func (s *StubChangeSystem) CloseDispositions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.dispositions))
	copy(out, s.dispositions)
	return out
}

// StubArtifactStore is an ArtifactStore whose uploads succeed unless a
// fault is injected.
type StubArtifactStore struct {
	logger *zap.Logger
	upload fault
}

// NewStubArtifactStore creates a stub artifact store with the given fault.
func NewStubArtifactStore(faults config.FaultsConfig, logger *zap.Logger) *StubArtifactStore {
	return &StubArtifactStore{
		logger: logger,
		upload: fault{cfg: faults.UploadArtifacts},
	}
}

// Upload accepts durable activation artifacts.
func (s *StubArtifactStore) Upload(_ context.Context, changeRequest string) error {
	if s.upload.trip() {
		return model.NewUploadArtifactsError("injected fault on artifact upload")
	}
	s.logger.Info("uploaded artifacts", zap.String("change_request", changeRequest))
	return nil
}

// StubIncidentSystem is an IncidentSystem that records created incidents
// in memory.
type StubIncidentSystem struct {
	logger *zap.Logger
	create fault

	mu      sync.Mutex
	created []model.Incident
}

// NewStubIncidentSystem creates a stub incident system with the given fault.
func NewStubIncidentSystem(faults config.FaultsConfig, logger *zap.Logger) *StubIncidentSystem {
	return &StubIncidentSystem{
		logger: logger,
		create: fault{cfg: faults.CreateIncident},
	}
}

// CreateIncident records a classified incident.
func (s *StubIncidentSystem) CreateIncident(_ context.Context, inc model.Incident) error {
	if s.create.trip() {
		return model.NewCreateIncidentError("injected fault on incident creation")
	}
	s.mu.Lock()
	s.created = append(s.created, inc)
	s.mu.Unlock()
	s.logger.Info("created incident",
		zap.String("change_request", inc.ChangeRequest),
		zap.String("class", inc.Class),
		zap.String("failure_kind", string(inc.FailureKind)),
	)
	return nil
}

// Created returns a copy of the incidents recorded so far.
func (s *StubIncidentSystem) Created() []model.Incident {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Incident, len(s.created))
	copy(out, s.created)
	return out
}
