package feed

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/model"
)

func makeAlert(i int) model.ThreatAlert {
	return model.ThreatAlert{
		ID:   fmt.Sprintf("alert-%d", i),
		IP:   fmt.Sprintf("10.0.0.%d", i%250),
		Type: "Port Scan",
	}
}

func TestAlertFeedNewestFirst(t *testing.T) {
	f := NewAlertFeed(5)
	for i := 0; i < 3; i++ {
		require.True(t, f.Push(makeAlert(i)))
	}

	alerts := f.Alerts()
	require.Len(t, alerts, 3)
	assert.Equal(t, "alert-2", alerts[0].ID)
	assert.Equal(t, "alert-0", alerts[2].ID)
}

func TestAlertFeedEvictsOldest(t *testing.T) {
	f := NewAlertFeed(5)
	for i := 0; i < 8; i++ {
		f.Push(makeAlert(i))
	}

	alerts := f.Alerts()
	require.Len(t, alerts, 5)
	assert.Equal(t, "alert-7", alerts[0].ID)
	assert.Equal(t, "alert-3", alerts[4].ID)

	// Evicted alerts are no longer findable
	_, ok := f.Find("alert-0")
	assert.False(t, ok)
	_, ok = f.Find("alert-7")
	assert.True(t, ok)
}

func TestAlertFeedDeduplicatesByID(t *testing.T) {
	f := NewAlertFeed(5)
	alert := makeAlert(1)

	assert.True(t, f.Push(alert))
	assert.False(t, f.Push(alert))
	assert.Equal(t, 1, f.Len())
}

func TestNetworkWindowDisplacesOldest(t *testing.T) {
	w := NewNetworkWindow(3)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		w.Push(model.NetworkDataPoint{Timestamp: base.Add(time.Duration(i) * time.Second), Incoming: float64(i)})
	}

	points := w.Points()
	require.Len(t, points, 3)
	// Oldest first, covering the most recent three samples
	assert.Equal(t, float64(2), points[0].Incoming)
	assert.Equal(t, float64(4), points[2].Incoming)

	latest, ok := w.Latest()
	require.True(t, ok)
	assert.Equal(t, float64(4), latest.Incoming)
}

func TestNetworkWindowPartialFill(t *testing.T) {
	w := NewNetworkWindow(30)
	w.Push(model.NetworkDataPoint{Incoming: 42})

	points := w.Points()
	require.Len(t, points, 1)
	assert.Equal(t, float64(42), points[0].Incoming)
}

func TestPacketFeedBounded(t *testing.T) {
	f := NewPacketFeed(4)
	for i := 0; i < 10; i++ {
		f.Push(model.Packet{ID: fmt.Sprintf("pkt-%d", i)})
	}

	packets := f.Packets()
	require.Len(t, packets, 4)
	assert.Equal(t, "pkt-9", packets[0].ID)
	assert.Equal(t, "pkt-6", packets[3].ID)
}

func TestHoneypotLogFeedBounded(t *testing.T) {
	f := NewHoneypotLogFeed(2)
	f.Push(model.HoneypotLog{ID: "hplog-1"})
	f.Push(model.HoneypotLog{ID: "hplog-2"})
	f.Push(model.HoneypotLog{ID: "hplog-3"})

	logs := f.Logs()
	require.Len(t, logs, 2)
	assert.Equal(t, "hplog-3", logs[0].ID)
	assert.Equal(t, "hplog-2", logs[1].ID)
}
