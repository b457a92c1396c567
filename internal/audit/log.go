package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/metrics"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/model"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/sched"
)

// DefaultCapacity bounds the audit log; the oldest entries are dropped
const DefaultCapacity = 100

// Persister is the durable backing for the audit log. A nil Persister
// degrades the log to in-memory-only operation.
type Persister interface {
	SaveAuditLog(entries []model.LogEntry) error
	LoadAuditLog() []model.LogEntry
}

// Log is the append-only, capacity-bounded audit record of every
// state-changing action. Rollback-eligible entries carry a typed target
// reference; the rolled-back transition is one-way.
type Log struct {
	mu       sync.Mutex
	entries  []model.LogEntry // oldest first
	capacity int
	clock    sched.Clock
	persist  Persister
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates an audit log with the given capacity
func New(capacity int, clock sched.Clock, persist Persister, m *metrics.Metrics, logger *slog.Logger) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		capacity: capacity,
		clock:    clock,
		persist:  persist,
		metrics:  m,
		logger:   logger,
	}
}

// Restore loads the persisted snapshot. Missing or corrupt state yields an
// empty log.
func (l *Log) Restore() {
	if l.persist == nil {
		return
	}

	snapshot := l.persist.LoadAuditLog() // newest first
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(snapshot) > l.capacity {
		snapshot = snapshot[:l.capacity]
	}

	l.entries = l.entries[:0]
	for i := len(snapshot) - 1; i >= 0; i-- {
		l.entries = append(l.entries, snapshot[i])
	}

	if len(l.entries) > 0 {
		l.logger.Info("Audit log restored", "entries", len(l.entries))
	}
}

// Append records a plain audit entry
func (l *Log) Append(message string) model.LogEntry {
	return l.append(message, nil)
}

// AppendAction records an audit entry produced by a playbook action.
// Entries for BLOCK_IP carry a rollback target and are rollback-eligible.
func (l *Log) AppendAction(message string, action model.PlaybookAction, targetIP string) model.LogEntry {
	var target *model.RollbackTarget
	if targetIP != "" {
		target = &model.RollbackTarget{Action: action, TargetIP: targetIP}
	}
	return l.append(message, target)
}

func (l *Log) append(message string, target *model.RollbackTarget) model.LogEntry {
	entry := model.LogEntry{
		ID:          fmt.Sprintf("log-%s", uuid.New().String()),
		Timestamp:   l.clock.Now(),
		Message:     message,
		CanRollback: target != nil && target.Action == model.ActionBlockIP,
		Target:      target,
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.capacity {
		trimmed := make([]model.LogEntry, l.capacity)
		copy(trimmed, l.entries[len(l.entries)-l.capacity:])
		l.entries = trimmed
	}
	l.mu.Unlock()

	if l.metrics != nil {
		l.metrics.IncAuditEntries()
	}
	l.save()
	return entry
}

// Entries returns a snapshot of the log, newest first
func (l *Log) Entries() []model.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Log) snapshotLocked() []model.LogEntry {
	out := make([]model.LogEntry, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// Get returns the entry with the given id
func (l *Log) Get(id string) (model.LogEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.entries {
		if e.ID == id {
			return e, true
		}
	}
	return model.LogEntry{}, false
}

// Len returns the number of stored entries
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// MarkRolledBack transitions an eligible entry to rolled-back and clears
// its eligibility. The transition happens at most once; repeat calls and
// calls on ineligible entries report false with no state change.
func (l *Log) MarkRolledBack(id string) (model.LogEntry, bool) {
	l.mu.Lock()
	var marked model.LogEntry
	var found bool
	for i := range l.entries {
		if l.entries[i].ID != id {
			continue
		}
		if !l.entries[i].CanRollback || l.entries[i].IsRolledBack {
			unchanged := l.entries[i]
			l.mu.Unlock()
			return unchanged, false
		}
		l.entries[i].IsRolledBack = true
		l.entries[i].CanRollback = false
		marked = l.entries[i]
		found = true
		break
	}
	l.mu.Unlock()

	if !found {
		return model.LogEntry{}, false
	}

	if l.metrics != nil {
		l.metrics.IncRollbacks()
	}
	l.save()
	return marked, true
}

// Clear empties the log unconditionally
func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = l.entries[:0]
	l.mu.Unlock()
	l.save()
}

// Export writes a zstd-compressed JSON snapshot of the log, newest first
func (l *Log) Export(w io.Writer) error {
	entries := l.Entries()

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}

	if err := json.NewEncoder(zw).Encode(entries); err != nil {
		zw.Close()
		return fmt.Errorf("failed to encode audit export: %w", err)
	}
	return zw.Close()
}

func (l *Log) save() {
	if l.persist == nil {
		return
	}
	if err := l.persist.SaveAuditLog(l.Entries()); err != nil {
		l.logger.Warn("Failed to persist audit log, continuing in memory", "error", err)
	}
}
