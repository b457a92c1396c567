package response

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/audit"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/metrics"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/mode"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/model"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/notify"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/playbook"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/registry"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/sched"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type failingActions struct {
	isolateErr  error
	snapshotErr error
	notifyErr   error
}

func (f failingActions) IsolateHost(ctx context.Context, ip string) error  { return f.isolateErr }
func (f failingActions) SnapshotDisk(ctx context.Context, ip string) error { return f.snapshotErr }
func (f failingActions) NotifySOCLead(ctx context.Context, alert model.ThreatAlert) error {
	return f.notifyErr
}

type harness struct {
	engine   *Engine
	mode     *mode.Controller
	registry *registry.Registry
	audit    *audit.Log
	metrics  *metrics.Metrics
	clock    *sched.ManualClock
}

func newHarness(t *testing.T, actions ExternalActions) *harness {
	t.Helper()
	logger := testLogger()
	clock := sched.NewManualClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	m := metrics.NewMetrics()
	auditLog := audit.New(audit.DefaultCapacity, clock, nil, m, logger)
	notifier := notify.New(nil, model.DefaultSettings, logger)
	reg := registry.New(2*time.Minute, clock, auditLog, nil, m, logger)
	modeCtl := mode.NewController(auditLog, notifier, logger)
	if actions == nil {
		actions = StubActions{Logger: logger}
	}
	eng := NewEngine(modeCtl, reg, auditLog, actions, clock, notifier, m, logger, time.Millisecond)
	return &harness{engine: eng, mode: modeCtl, registry: reg, audit: auditLog, metrics: m, clock: clock}
}

func malwareAlert() model.ThreatAlert {
	return model.ThreatAlert{
		ID:       "alert-1",
		IP:       "203.0.113.50",
		Type:     "Malware",
		Severity: model.SeverityHigh,
	}
}

func containmentPlaybook(t *testing.T) model.Playbook {
	t.Helper()
	for _, pb := range playbook.Defaults() {
		if pb.ID == "PB-001" {
			return pb
		}
	}
	t.Fatal("malware containment playbook missing from defaults")
	return model.Playbook{}
}

func TestExecuteLiveMalwareContainment(t *testing.T) {
	h := newHarness(t, nil)
	h.mode.Toggle() // arm live mode
	h.audit.Clear()

	run, err := h.engine.Execute(context.Background(), containmentPlaybook(t), malwareAlert())
	require.NoError(t, err)

	assert.Equal(t, model.RunCompleted, run.Status)
	require.Len(t, run.Steps, 4)
	for _, step := range run.Steps {
		assert.Equal(t, model.StepCompleted, step.Status)
		assert.False(t, step.Simulated)
	}

	// The source IP ends up blocked
	assert.True(t, h.registry.IsBlocked("203.0.113.50"))

	// Each of the four steps produced exactly one audit entry
	entries := h.audit.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, "High-priority notification sent to SOC Lead for alert Malware.", entries[0].Message)
	assert.Equal(t, "Forensic disk snapshot started for 203.0.113.50.", entries[1].Message)
	assert.Equal(t, "IP 203.0.113.50 blocked for threat: Malware.", entries[2].Message)
	assert.Equal(t, "Host isolation initiated for 203.0.113.50.", entries[3].Message)

	// Only the block entry is rollback-eligible
	assert.True(t, entries[2].CanRollback)
	assert.False(t, entries[0].CanRollback)
	assert.False(t, entries[1].CanRollback)
	assert.False(t, entries[3].CanRollback)
}

func TestExecuteSurvivesCallerCancellation(t *testing.T) {
	h := newHarness(t, nil)
	h.mode.Toggle()
	h.audit.Clear()

	// A cancelled caller context must not abort a started run
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := h.engine.Execute(ctx, containmentPlaybook(t), malwareAlert())
	require.NoError(t, err)

	assert.Equal(t, model.RunCompleted, run.Status)
	require.Len(t, run.Steps, 4)
	for _, step := range run.Steps {
		assert.Equal(t, model.StepCompleted, step.Status)
	}
	assert.True(t, h.registry.IsBlocked("203.0.113.50"))
}

func TestExecuteSimulationGatesMutatingActions(t *testing.T) {
	h := newHarness(t, nil)

	run, err := h.engine.Execute(context.Background(), containmentPlaybook(t), malwareAlert())
	require.NoError(t, err)

	assert.Equal(t, model.RunCompleted, run.Status)
	require.Len(t, run.Steps, 4)
	assert.True(t, run.Steps[0].Simulated) // ISOLATE_HOST
	assert.True(t, run.Steps[1].Simulated) // BLOCK_IP
	assert.False(t, run.Steps[2].Simulated)
	assert.False(t, run.Steps[3].Simulated)

	// No block is created in simulation mode
	assert.False(t, h.registry.IsBlocked("203.0.113.50"))
	assert.Equal(t, 0, h.registry.Count())

	entries := h.audit.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, "Simulation Mode: Action 'BLOCK_IP' for 203.0.113.50 logged.", entries[2].Message)
	assert.Equal(t, "Simulation Mode: Action 'ISOLATE_HOST' for 203.0.113.50 logged.", entries[3].Message)

	// The simulated block entry stays rollback-eligible; unblock is idempotent
	assert.True(t, entries[2].CanRollback)
}

func TestExecuteAlreadyBlockedContinuesRun(t *testing.T) {
	h := newHarness(t, nil)
	h.mode.Toggle()
	h.registry.Block("203.0.113.50", "Malware")
	h.audit.Clear()

	run, err := h.engine.Execute(context.Background(), containmentPlaybook(t), malwareAlert())
	require.NoError(t, err)

	assert.Equal(t, model.RunCompleted, run.Status)
	assert.Equal(t, "IP 203.0.113.50 is already blocked.", run.Steps[1].Message)

	entries := h.audit.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, "IP 203.0.113.50 is already blocked.", entries[2].Message)
}

func TestExecuteHaltsOnFirstFailure(t *testing.T) {
	h := newHarness(t, failingActions{snapshotErr: errors.New("snapshot service unavailable")})
	h.mode.Toggle()
	h.audit.Clear()

	run, err := h.engine.Execute(context.Background(), containmentPlaybook(t), malwareAlert())
	require.NoError(t, err)

	assert.Equal(t, model.RunFailed, run.Status)
	require.Len(t, run.Steps, 4)
	assert.Equal(t, model.StepCompleted, run.Steps[0].Status)
	assert.Equal(t, model.StepCompleted, run.Steps[1].Status)
	assert.Equal(t, model.StepFailed, run.Steps[2].Status)
	assert.Equal(t, model.StepPending, run.Steps[3].Status)

	// Steps before the failure still took effect
	assert.True(t, h.registry.IsBlocked("203.0.113.50"))
}

func TestExecuteRejectsConcurrentRunForSameAlert(t *testing.T) {
	h := newHarness(t, nil)
	h.mode.Toggle() // mutating steps only reach the actions backend in live mode
	started := make(chan struct{})
	release := make(chan struct{})
	h.engine.actions = blockingActions{started: started, release: release}

	go func() {
		_, _ = h.engine.Execute(context.Background(), containmentPlaybook(t), malwareAlert())
	}()
	<-started

	_, err := h.engine.Execute(context.Background(), containmentPlaybook(t), malwareAlert())
	assert.ErrorIs(t, err, ErrRunInProgress)
	close(release)
}

type blockingActions struct {
	started chan struct{}
	release chan struct{}
}

func (b blockingActions) IsolateHost(ctx context.Context, ip string) error {
	close(b.started)
	<-b.release
	return nil
}
func (b blockingActions) SnapshotDisk(ctx context.Context, ip string) error { return nil }
func (b blockingActions) NotifySOCLead(ctx context.Context, alert model.ThreatAlert) error {
	return nil
}

func TestBlockIPSimulationLogsWithoutBlocking(t *testing.T) {
	h := newHarness(t, nil)

	assert.True(t, h.engine.BlockIP("198.51.100.9", "Threat intel match"))
	assert.Equal(t, 0, h.registry.Count())

	entries := h.audit.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Simulation Mode: API request to block 198.51.100.9 logged.", entries[0].Message)
	assert.True(t, entries[0].CanRollback)
}

func TestBlockIPLiveAndDuplicate(t *testing.T) {
	h := newHarness(t, nil)
	h.mode.Toggle()
	h.audit.Clear()

	assert.True(t, h.engine.BlockIP("198.51.100.9", "Threat intel match"))
	assert.True(t, h.registry.IsBlocked("198.51.100.9"))

	entries := h.audit.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "IP 198.51.100.9 blocked via API for reason: Threat intel match.", entries[0].Message)

	// A duplicate request is rejected and adds no audit entry
	assert.False(t, h.engine.BlockIP("198.51.100.9", "Threat intel match"))
	assert.Equal(t, 1, h.audit.Len())
}

func TestRollbackUnblocksAndMarks(t *testing.T) {
	h := newHarness(t, nil)
	h.mode.Toggle()
	h.audit.Clear()

	require.True(t, h.engine.BlockIP("198.51.100.9", "Threat intel match"))
	blockEntry := h.audit.Entries()[0]

	updated, err := h.engine.Rollback(blockEntry.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsRolledBack)
	assert.False(t, h.registry.IsBlocked("198.51.100.9"))

	// The rollback itself is audited
	entries := h.audit.Entries()
	assert.Equal(t, "IP 198.51.100.9 was unblocked due to a rollback action.", entries[0].Message)

	// Rollback is one-way
	_, err = h.engine.Rollback(blockEntry.ID)
	assert.ErrorIs(t, err, ErrNotRollbackable)
}

func TestRollbackIncrementsCounterOnce(t *testing.T) {
	h := newHarness(t, nil)
	h.mode.Toggle()
	h.audit.Clear()

	require.True(t, h.engine.BlockIP("198.51.100.9", "Threat intel match"))
	blockEntry := h.audit.Entries()[0]

	_, err := h.engine.Rollback(blockEntry.ID)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "actdrs_rollbacks_total 1")
}

func TestRollbackRejectsIneligibleEntries(t *testing.T) {
	h := newHarness(t, nil)
	plain := h.audit.Append("Settings saved.")

	_, err := h.engine.Rollback(plain.ID)
	assert.ErrorIs(t, err, ErrNotRollbackable)

	_, err = h.engine.Rollback("log-missing")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestRollbackOfSimulatedBlockIsIdempotentUnblock(t *testing.T) {
	h := newHarness(t, nil)

	require.True(t, h.engine.BlockIP("198.51.100.9", "Threat intel match"))
	simEntry := h.audit.Entries()[0]

	// No real block exists, but rolling back the simulated entry still
	// succeeds because unblocking is idempotent.
	updated, err := h.engine.Rollback(simEntry.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsRolledBack)
}
