package playbook

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDefaultsCoverKnownThreatTypes(t *testing.T) {
	c := NewCatalog(nil, testLogger())

	tests := []struct {
		threatType string
		wantID     string
	}{
		{"Malware", "PB-001"},
		{"Honeypot Interaction", "PB-001"},
		{"Unauthorized Access", "PB-001"},
		{"DDoS Attack", "PB-002"},
		{"Port Scan", "PB-003"},
		{"SQL Injection", "PB-003"},
		{"Data Exfiltration", "PB-003"},
		{"Anomalous Traffic Volume", "PB-003"},
	}
	for _, tt := range tests {
		t.Run(tt.threatType, func(t *testing.T) {
			assert.Equal(t, tt.wantID, c.Select(tt.threatType).ID)
		})
	}
}

func TestSelectFallsBackToTriage(t *testing.T) {
	c := NewCatalog(nil, testLogger())
	pb := c.Select("Unknown Exotic Threat")
	assert.Equal(t, FallbackID, pb.ID)
}

func TestSelectPrefersCustomPlaybooks(t *testing.T) {
	c := NewCatalog(nil, testLogger())
	require.NoError(t, c.AddCustom(model.Playbook{
		ID:        "PB-CUST-1",
		Name:      "Malware Deep Containment",
		AppliesTo: []string{"Malware"},
		Steps: []model.PlaybookStep{
			{Action: model.ActionIsolateHost, Description: "Isolate the host."},
		},
	}))

	got := c.Select("Malware")
	assert.Equal(t, "PB-CUST-1", got.ID)
	assert.True(t, got.IsCustom)

	// Threat types the custom plan does not cover still use the defaults
	assert.Equal(t, "PB-002", c.Select("DDoS Attack").ID)
}

func TestAddCustomRejectsInvalid(t *testing.T) {
	c := NewCatalog(nil, testLogger())

	assert.Error(t, c.AddCustom(model.Playbook{Name: "no id"}))
	assert.Error(t, c.AddCustom(model.Playbook{ID: "PB-X", Name: "no steps"}))
	assert.Error(t, c.AddCustom(model.Playbook{
		ID:   "PB-X",
		Name: "bad action",
		Steps: []model.PlaybookStep{
			{Action: "DELETE_EVERYTHING"},
		},
	}))
}

func TestLoadDirMergesAndReplaces(t *testing.T) {
	dir := t.TempDir()
	custom := `
id: PB-100
name: Exfil Lockdown
description: Contain a confirmed exfiltration channel.
applies_to:
  - Cryptojacking
steps:
  - action: BLOCK_IP
    description: Block the exfiltration destination.
  - action: NOTIFY_SOC_LEAD
    description: Escalate to the SOC Lead.
`
	override := `
id: PB-002
name: DDoS Mitigation (tuned)
applies_to:
  - DDoS Attack
steps:
  - action: NOTIFY_SOC_LEAD
    description: Engage the upstream scrubbing service immediately.
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pb-100.yaml"), []byte(custom), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pb-002.yml"), []byte(override), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	c := NewCatalog(nil, testLogger())
	require.NoError(t, c.LoadDir(dir))

	loaded, ok := c.Get("PB-100")
	require.True(t, ok)
	assert.Equal(t, "Exfil Lockdown", loaded.Name)

	replaced, ok := c.Get("PB-002")
	require.True(t, ok)
	assert.Equal(t, "DDoS Mitigation (tuned)", replaced.Name)
	require.Len(t, replaced.Steps, 1)

	// A threat type only the loaded plan covers selects it over the fallback
	assert.Equal(t, "PB-100", c.Select("Cryptojacking").ID)
}

func TestLoadDirMissingDirectory(t *testing.T) {
	c := NewCatalog(nil, testLogger())
	assert.NoError(t, c.LoadDir(filepath.Join(t.TempDir(), "does-not-exist")))
}

func TestLoadDirRejectsInvalidPlaybook(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: PB-BAD\nname: Bad\nsteps: []\n"), 0o644))

	c := NewCatalog(nil, testLogger())
	assert.Error(t, c.LoadDir(dir))
}
