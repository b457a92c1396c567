// Package response executes playbooks against alerts and owns the
// manual block, unblock and rollback entry points. Execution honors the
// defense mode: in simulation mode the mutating actions are audited but
// not applied.
package response

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/audit"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/metrics"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/mode"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/model"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/notify"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/registry"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/sched"
)

// DefaultStepPause is the delay between consecutive playbook steps
const DefaultStepPause = 1500 * time.Millisecond

var (
	// ErrRunInProgress means the alert already has an active playbook run
	ErrRunInProgress = errors.New("a playbook run is already in progress for this alert")
	// ErrEntryNotFound means the referenced audit entry does not exist
	ErrEntryNotFound = errors.New("audit entry not found")
	// ErrNotRollbackable means the audit entry is not rollback-eligible
	ErrNotRollbackable = errors.New("audit entry cannot be rolled back")
)

// Engine runs playbooks and applies response actions
type Engine struct {
	mode      *mode.Controller
	registry  *registry.Registry
	auditLog  *audit.Log
	actions   ExternalActions
	clock     sched.Clock
	notifier  *notify.Notifier
	metrics   *metrics.Metrics
	logger    *slog.Logger
	stepPause time.Duration

	mu     sync.Mutex
	runs   map[string]model.PlaybookRun
	active map[string]string // alert ID -> run ID
}

// NewEngine creates a response engine. A zero stepPause uses the default.
func NewEngine(modeCtl *mode.Controller, reg *registry.Registry, auditLog *audit.Log, actions ExternalActions, clock sched.Clock, notifier *notify.Notifier, m *metrics.Metrics, logger *slog.Logger, stepPause time.Duration) *Engine {
	if stepPause <= 0 {
		stepPause = DefaultStepPause
	}
	return &Engine{
		mode:      modeCtl,
		registry:  reg,
		auditLog:  auditLog,
		actions:   actions,
		clock:     clock,
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
		stepPause: stepPause,
		runs:      make(map[string]model.PlaybookRun),
		active:    make(map[string]string),
	}
}

// Execute runs every step of pb against alert in order, pausing between
// steps. At most one run can be active per alert at a time. A failing
// step halts the run: the step is marked failed, the remaining steps stay
// pending, and the run completes as failed. A started run always proceeds
// to completion or first failure; cancellation of the caller's context
// does not abort it.
func (e *Engine) Execute(ctx context.Context, pb model.Playbook, alert model.ThreatAlert) (model.PlaybookRun, error) {
	ctx = context.WithoutCancel(ctx)
	run := model.PlaybookRun{
		ID:         "run-" + uuid.NewString(),
		AlertID:    alert.ID,
		PlaybookID: pb.ID,
		Status:     model.RunRunning,
		StartedAt:  e.clock.Now(),
		Steps:      make([]model.StepResult, len(pb.Steps)),
	}
	for i, step := range pb.Steps {
		run.Steps[i] = model.StepResult{Index: i, Action: step.Action, Status: model.StepPending}
	}

	e.mu.Lock()
	if _, busy := e.active[alert.ID]; busy {
		e.mu.Unlock()
		return model.PlaybookRun{}, ErrRunInProgress
	}
	e.active[alert.ID] = run.ID
	e.runs[run.ID] = run
	e.mu.Unlock()

	e.logger.Info("Playbook run started",
		"run_id", run.ID, "playbook_id", pb.ID, "alert_id", alert.ID, "mode", e.mode.String())

	run.Status = model.RunCompleted
	for i, step := range pb.Steps {
		if i > 0 {
			e.clock.Sleep(e.stepPause)
		}
		result := e.executeStep(ctx, step, alert)
		run.Steps[i] = result
		run.Steps[i].Index = i
		if e.metrics != nil {
			e.metrics.IncPlaybookSteps()
		}
		if result.Status == model.StepFailed {
			run.Status = model.RunFailed
			break
		}
	}
	completed := e.clock.Now()
	run.CompletedAt = &completed

	e.mu.Lock()
	delete(e.active, alert.ID)
	e.runs[run.ID] = run
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.IncPlaybookRuns(string(run.Status))
	}
	e.logger.Info("Playbook run finished", "run_id", run.ID, "status", string(run.Status))
	return run, nil
}

// executeStep applies one playbook step and returns its result. In
// simulation mode the mutating actions (BLOCK_IP, ISOLATE_HOST) are
// audited with their action tag but not applied; the notification-style
// actions run in both modes.
func (e *Engine) executeStep(ctx context.Context, step model.PlaybookStep, alert model.ThreatAlert) model.StepResult {
	result := model.StepResult{Action: step.Action, Status: model.StepCompleted}

	if !e.mode.IsLive() && (step.Action == model.ActionBlockIP || step.Action == model.ActionIsolateHost) {
		message := fmt.Sprintf("Simulation Mode: Action '%s' for %s logged.", step.Action, alert.IP)
		e.auditLog.AppendAction(message, step.Action, alert.IP)
		e.notifier.Info(message)
		result.Simulated = true
		result.Message = message
		return result
	}

	switch step.Action {
	case model.ActionBlockIP:
		if e.registry.Block(alert.IP, alert.Type) {
			result.Message = fmt.Sprintf("IP %s blocked for threat: %s.", alert.IP, alert.Type)
			e.notifier.Success(result.Message)
		} else {
			result.Message = fmt.Sprintf("IP %s is already blocked.", alert.IP)
			e.auditLog.AppendAction(result.Message, step.Action, alert.IP)
			e.notifier.Info(result.Message)
		}

	case model.ActionIsolateHost:
		if err := e.actions.IsolateHost(ctx, alert.IP); err != nil {
			return e.failStep(result, step, alert, err)
		}
		result.Message = fmt.Sprintf("Host isolation initiated for %s.", alert.IP)
		e.auditLog.AppendAction(result.Message, step.Action, alert.IP)
		e.notifier.Info(result.Message)

	case model.ActionSnapshotDisk:
		if err := e.actions.SnapshotDisk(ctx, alert.IP); err != nil {
			return e.failStep(result, step, alert, err)
		}
		result.Message = fmt.Sprintf("Forensic disk snapshot started for %s.", alert.IP)
		e.auditLog.AppendAction(result.Message, step.Action, alert.IP)
		e.notifier.Info(result.Message)

	case model.ActionNotifySOCLead:
		if err := e.actions.NotifySOCLead(ctx, alert); err != nil {
			return e.failStep(result, step, alert, err)
		}
		result.Message = fmt.Sprintf("High-priority notification sent to SOC Lead for alert %s.", alert.Type)
		e.auditLog.AppendAction(result.Message, step.Action, alert.IP)
		e.notifier.Info(result.Message)

	default:
		return e.failStep(result, step, alert, fmt.Errorf("unknown action %q", step.Action))
	}
	return result
}

func (e *Engine) failStep(result model.StepResult, step model.PlaybookStep, alert model.ThreatAlert, err error) model.StepResult {
	result.Status = model.StepFailed
	result.Message = fmt.Sprintf("Action '%s' failed for %s: %v", step.Action, alert.IP, err)
	e.auditLog.Append(result.Message)
	e.notifier.Error(result.Message)
	e.logger.Error("Playbook step failed", "action", string(step.Action), "alert_id", alert.ID, "error", err)
	return result
}

// Run returns a finished or in-flight run by ID
func (e *Engine) Run(id string) (model.PlaybookRun, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	run, ok := e.runs[id]
	return run, ok
}

// BlockIP is the programmatic block entry point. In simulation mode the
// request is audited as rollback-eligible but no block is created. In
// live mode a duplicate request is ignored and reports false.
func (e *Engine) BlockIP(ip, reason string) bool {
	if !e.mode.IsLive() {
		message := fmt.Sprintf("Simulation Mode: API request to block %s logged.", ip)
		e.auditLog.AppendAction(message, model.ActionBlockIP, ip)
		e.notifier.Info(message)
		return true
	}

	message := fmt.Sprintf("IP %s blocked via API for reason: %s.", ip, reason)
	if !e.registry.BlockWithMessage(ip, reason, message) {
		e.notifier.Info(fmt.Sprintf("API request to block %s ignored: already blocked.", ip))
		return false
	}
	e.notifier.Success(message)
	return true
}

// UnblockIP removes a block manually
func (e *Engine) UnblockIP(ip string) {
	e.registry.Unblock(ip, registry.UnblockManual)
	e.notifier.Success(fmt.Sprintf("IP %s has been manually unblocked.", ip))
}

// Rollback reverses the rollback-eligible audit entry with the given ID:
// it unblocks the entry's target IP and marks the entry rolled back. The
// transition is one-way; a second rollback of the same entry fails.
func (e *Engine) Rollback(entryID string) (model.LogEntry, error) {
	entry, ok := e.auditLog.Get(entryID)
	if !ok {
		return model.LogEntry{}, ErrEntryNotFound
	}
	if !entry.CanRollback || entry.IsRolledBack || entry.Target == nil || entry.Target.Action != model.ActionBlockIP {
		return model.LogEntry{}, ErrNotRollbackable
	}

	e.registry.Unblock(entry.Target.TargetIP, registry.UnblockRollback)

	updated, ok := e.auditLog.MarkRolledBack(entryID)
	if !ok {
		// Lost a race with a concurrent rollback of the same entry.
		return model.LogEntry{}, ErrNotRollbackable
	}

	e.notifier.Success(fmt.Sprintf("Rolled back action: unblocked %s", entry.Target.TargetIP))
	e.logger.Info("Audit entry rolled back", "entry_id", entryID, "ip", entry.Target.TargetIP)
	return updated, nil
}
