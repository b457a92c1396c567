package synth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/model"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/sched"
)

func newTestGenerator(seed int64) *Generator {
	clock := sched.NewManualClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return New(seed, clock)
}

func TestNewAlertFields(t *testing.T) {
	g := newTestGenerator(1)

	for i := 0; i < 50; i++ {
		alert := g.NewAlert()
		assert.NotEmpty(t, alert.ID)
		assert.NotEmpty(t, alert.IP)
		assert.Contains(t, threatTypes, alert.Type)
		assert.True(t, model.ValidSeverity(alert.Severity))
		assert.Contains(t, locations, alert.Location)
		assert.Contains(t, alert.Description, alert.Type)
		assert.NotEmpty(t, alert.Details.PayloadSignature)
	}
}

func TestAlertFromHoneypot(t *testing.T) {
	g := newTestGenerator(1)
	entry := model.HoneypotLog{
		ID:               "hplog-1",
		HoneypotID:       "hp-2",
		HoneypotType:     model.HoneypotHTTP,
		AttackerIP:       "198.51.100.23",
		AttackerLocation: "Russia",
		Summary:          "Probing for '/.env'",
	}

	alert := g.AlertFromHoneypot(entry)
	assert.Equal(t, "198.51.100.23", alert.IP)
	assert.Equal(t, "Honeypot Interaction", alert.Type)
	assert.Equal(t, model.SeverityHigh, alert.Severity)
	assert.Equal(t, "Russia", alert.Location)
	assert.Equal(t, model.OriginHoneypot, alert.Origin)
	assert.Equal(t, "High-confidence alert: Attacker interacted with HTTP Web Server decoy.", alert.Description)
	// Honeypot alerts carry the unauthorized-access detection context
	assert.Equal(t, "SSH (22)", alert.Details.TargetService)
}

func TestNewDataPointRanges(t *testing.T) {
	g := newTestGenerator(7)

	for i := 0; i < 200; i++ {
		p := g.NewDataPoint()
		if g.Spiking() {
			assert.GreaterOrEqual(t, p.Incoming, float64(150))
			assert.Less(t, p.Incoming, float64(250))
		} else {
			assert.GreaterOrEqual(t, p.Incoming, float64(20))
			assert.Less(t, p.Incoming, float64(140))
		}
		assert.Greater(t, p.Outgoing, float64(0))
	}
}

func TestSpikeEndsAfterWindow(t *testing.T) {
	clock := sched.NewManualClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	g := New(7, clock)

	// Walk until a spike starts
	started := false
	for i := 0; i < 2000 && !started; i++ {
		g.NewDataPoint()
		started = g.Spiking()
	}
	require.True(t, started, "expected a spike to start within 2000 samples")

	// A spike lasts at most 20 seconds
	clock.Advance(21 * time.Second)
	g.NewDataPoint()
	assert.False(t, g.Spiking())
}

func TestNewHoneypotLogUsesRoster(t *testing.T) {
	g := newTestGenerator(3)
	roster := DefaultHoneypots()
	ids := map[string]model.HoneypotType{}
	for _, hp := range roster {
		ids[hp.ID] = hp.Type
	}

	for i := 0; i < 40; i++ {
		entry := g.NewHoneypotLog(roster)
		wantType, ok := ids[entry.HoneypotID]
		require.True(t, ok)
		assert.Equal(t, wantType, entry.HoneypotType)
		assert.Contains(t, honeypotSummaries[entry.HoneypotType], entry.Summary)
	}
}

func TestDeterministicWithSameSeed(t *testing.T) {
	a := newTestGenerator(42)
	b := newTestGenerator(42)

	for i := 0; i < 20; i++ {
		alertA, alertB := a.NewAlert(), b.NewAlert()
		assert.Equal(t, alertA.IP, alertB.IP)
		assert.Equal(t, alertA.Type, alertB.Type)
		assert.Equal(t, alertA.Severity, alertB.Severity)
	}
}

func TestInitialSeedsBackdated(t *testing.T) {
	g := newTestGenerator(5)

	alerts := g.InitialAlerts(20)
	require.Len(t, alerts, 20)
	assert.True(t, alerts[0].Timestamp.Before(alerts[19].Timestamp))

	points := g.InitialNetworkData(30)
	require.Len(t, points, 30)
	assert.True(t, points[0].Timestamp.Before(points[29].Timestamp))

	require.Len(t, g.InitialPackets(50), 50)
}
