package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/audit"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/metrics"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/model"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/sched"
)

// DefaultBlockDuration is how long a block stays active before the expiry
// sweep removes it.
const DefaultBlockDuration = 2 * time.Minute

// UnblockReason explains why an IP was removed from the registry
type UnblockReason string

const (
	UnblockManual   UnblockReason = "manual"
	UnblockRollback UnblockReason = "rollback"
)

// Persister is the durable backing for the blocked-IP set. A nil Persister
// keeps the registry in memory only.
type Persister interface {
	SaveBlockedIPs(ips []model.BlockedIP) error
	LoadBlockedIPs() []model.BlockedIP
}

// Registry maintains the set of currently blocked IPs with absolute expiry
// timestamps. At most one active entry exists per IP. Block and Unblock
// write audit entries; the expiry sweep returns what it removed so the
// caller can log and notify per entry.
type Registry struct {
	mu       sync.Mutex
	entries  map[string]model.BlockedIP
	duration time.Duration
	clock    sched.Clock
	auditLog *audit.Log
	persist  Persister
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates a registry with the given block duration
func New(duration time.Duration, clock sched.Clock, auditLog *audit.Log, persist Persister, m *metrics.Metrics, logger *slog.Logger) *Registry {
	if duration <= 0 {
		duration = DefaultBlockDuration
	}
	return &Registry{
		entries:  make(map[string]model.BlockedIP),
		duration: duration,
		clock:    clock,
		auditLog: auditLog,
		persist:  persist,
		metrics:  m,
		logger:   logger,
	}
}

// Restore loads the persisted blocked-IP set. Entries that expired while
// the process was down are left in place for the next sweep to clean up.
func (r *Registry) Restore() {
	if r.persist == nil {
		return
	}

	ips := r.persist.LoadBlockedIPs()
	r.mu.Lock()
	for _, ip := range ips {
		r.entries[ip.IP] = ip
	}
	count := len(r.entries)
	r.mu.Unlock()

	r.updateGauge()
	if count > 0 {
		r.logger.Info("Block registry restored", "entries", count)
	}
}

// Block creates an active block for ip expiring after the configured
// duration. If an active entry already exists the call is a no-op and
// reports false.
func (r *Registry) Block(ip, threatType string) bool {
	return r.BlockWithMessage(ip, threatType, fmt.Sprintf("IP %s blocked for threat: %s.", ip, threatType))
}

// BlockWithMessage is Block with a caller-supplied audit message for
// entry points that describe the block differently.
func (r *Registry) BlockWithMessage(ip, threatType, message string) bool {
	now := r.clock.Now()

	r.mu.Lock()
	if existing, ok := r.entries[ip]; ok && existing.ExpiresAt.After(now) {
		r.mu.Unlock()
		r.logger.Info("Block request ignored, IP already blocked", "ip", ip)
		return false
	}
	r.entries[ip] = model.BlockedIP{
		IP:         ip,
		ThreatType: threatType,
		BlockedAt:  now,
		ExpiresAt:  now.Add(r.duration),
	}
	r.mu.Unlock()

	r.auditLog.AppendAction(message, model.ActionBlockIP, ip)
	if r.metrics != nil {
		r.metrics.IncIPsBlocked()
	}
	r.logger.Info("IP blocked", "ip", ip, "threat_type", threatType, "duration", r.duration)
	r.save()
	r.updateGauge()
	return true
}

// Unblock removes the entry for ip unconditionally and writes an audit
// entry describing the reason. Idempotent when no entry exists.
func (r *Registry) Unblock(ip string, reason UnblockReason) {
	r.mu.Lock()
	delete(r.entries, ip)
	r.mu.Unlock()

	switch reason {
	case UnblockRollback:
		r.auditLog.Append(fmt.Sprintf("IP %s was unblocked due to a rollback action.", ip))
	default:
		r.auditLog.Append(fmt.Sprintf("IP %s has been manually unblocked.", ip))
	}

	if r.metrics != nil {
		r.metrics.IncIPsUnblocked(string(reason))
	}
	r.logger.Info("IP unblocked", "ip", ip, "reason", string(reason))
	r.save()
	r.updateGauge()
}

// SweepExpired removes and returns every entry whose expiry is at or
// before now. The caller logs one audit entry and one notification per
// expired entry.
func (r *Registry) SweepExpired(now time.Time) []model.BlockedIP {
	r.mu.Lock()
	var expired []model.BlockedIP
	for ip, entry := range r.entries {
		if !entry.ExpiresAt.After(now) {
			expired = append(expired, entry)
			delete(r.entries, ip)
		}
	}
	r.mu.Unlock()

	if len(expired) == 0 {
		return nil
	}

	sort.Slice(expired, func(i, j int) bool { return expired[i].ExpiresAt.Before(expired[j].ExpiresAt) })

	if r.metrics != nil {
		for range expired {
			r.metrics.IncBlocksExpired()
		}
	}
	r.save()
	r.updateGauge()
	return expired
}

// IsBlocked reports whether ip has an active, non-expired entry
func (r *Registry) IsBlocked(ip string) bool {
	now := r.clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[ip]
	return ok && entry.ExpiresAt.After(now)
}

// Blocked returns a snapshot of all entries, soonest-to-expire last
func (r *Registry) Blocked() []model.BlockedIP {
	r.mu.Lock()
	out := make([]model.BlockedIP, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.After(out[j].ExpiresAt) })
	return out
}

// Count returns the number of entries currently in the registry
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) save() {
	if r.persist == nil {
		return
	}
	if err := r.persist.SaveBlockedIPs(r.Blocked()); err != nil {
		r.logger.Warn("Failed to persist blocked IPs, continuing in memory", "error", err)
	}
}

func (r *Registry) updateGauge() {
	if r.metrics != nil {
		r.metrics.SetBlockedIPsActive(float64(r.Count()))
	}
}
