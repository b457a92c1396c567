package registry

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/audit"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/sched"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRegistry(t *testing.T) (*Registry, *audit.Log, *sched.ManualClock) {
	t.Helper()
	clock := sched.NewManualClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	auditLog := audit.New(audit.DefaultCapacity, clock, nil, nil, testLogger())
	reg := New(2*time.Minute, clock, auditLog, nil, nil, testLogger())
	return reg, auditLog, clock
}

func TestBlockCreatesEntryAndAudits(t *testing.T) {
	reg, auditLog, clock := newTestRegistry(t)

	require.True(t, reg.Block("203.0.113.7", "Malware"))
	require.True(t, reg.IsBlocked("203.0.113.7"))

	blocked := reg.Blocked()
	require.Len(t, blocked, 1)
	assert.Equal(t, "203.0.113.7", blocked[0].IP)
	assert.Equal(t, "Malware", blocked[0].ThreatType)
	assert.Equal(t, clock.Now().Add(2*time.Minute), blocked[0].ExpiresAt)

	entries := auditLog.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "IP 203.0.113.7 blocked for threat: Malware.", entries[0].Message)
	assert.True(t, entries[0].CanRollback)
}

func TestBlockIgnoresActiveDuplicate(t *testing.T) {
	reg, auditLog, _ := newTestRegistry(t)

	require.True(t, reg.Block("203.0.113.7", "Malware"))
	assert.False(t, reg.Block("203.0.113.7", "Port Scan"))

	// The duplicate attempt does not change the stored entry or add audit noise
	blocked := reg.Blocked()
	require.Len(t, blocked, 1)
	assert.Equal(t, "Malware", blocked[0].ThreatType)
	assert.Equal(t, 1, auditLog.Len())
}

func TestBlockReplacesExpiredEntry(t *testing.T) {
	reg, _, clock := newTestRegistry(t)

	require.True(t, reg.Block("203.0.113.7", "Malware"))
	clock.Advance(3 * time.Minute)

	assert.False(t, reg.IsBlocked("203.0.113.7"))
	assert.True(t, reg.Block("203.0.113.7", "Port Scan"))
	assert.True(t, reg.IsBlocked("203.0.113.7"))
}

func TestUnblockReasonsAudited(t *testing.T) {
	reg, auditLog, _ := newTestRegistry(t)
	reg.Block("203.0.113.7", "Malware")
	reg.Block("203.0.113.8", "Port Scan")

	reg.Unblock("203.0.113.7", UnblockManual)
	reg.Unblock("203.0.113.8", UnblockRollback)

	entries := auditLog.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, "IP 203.0.113.8 was unblocked due to a rollback action.", entries[0].Message)
	assert.Equal(t, "IP 203.0.113.7 has been manually unblocked.", entries[1].Message)
	assert.Equal(t, 0, reg.Count())
}

func TestUnblockIsIdempotent(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	// Unblocking an IP that was never blocked must not fail
	reg.Unblock("203.0.113.9", UnblockManual)
	assert.Equal(t, 0, reg.Count())
}

func TestSweepExpiredRemovesExactSubset(t *testing.T) {
	reg, _, clock := newTestRegistry(t)

	reg.Block("203.0.113.1", "Malware")
	clock.Advance(90 * time.Second)
	reg.Block("203.0.113.2", "Port Scan")

	// Only the first block has crossed its 2 minute expiry
	clock.Advance(45 * time.Second)
	expired := reg.SweepExpired(clock.Now())

	require.Len(t, expired, 1)
	assert.Equal(t, "203.0.113.1", expired[0].IP)
	assert.False(t, reg.IsBlocked("203.0.113.1"))
	assert.True(t, reg.IsBlocked("203.0.113.2"))

	// Nothing further to sweep until the second block expires
	assert.Empty(t, reg.SweepExpired(clock.Now()))

	clock.Advance(2 * time.Minute)
	expired = reg.SweepExpired(clock.Now())
	require.Len(t, expired, 1)
	assert.Equal(t, "203.0.113.2", expired[0].IP)
}

func TestBlockedSortedByExpiry(t *testing.T) {
	reg, _, clock := newTestRegistry(t)

	reg.Block("203.0.113.1", "Malware")
	clock.Advance(10 * time.Second)
	reg.Block("203.0.113.2", "Port Scan")

	blocked := reg.Blocked()
	require.Len(t, blocked, 2)
	// Latest expiry first
	assert.Equal(t, "203.0.113.2", blocked[0].IP)
	assert.Equal(t, "203.0.113.1", blocked[1].IP)
}
