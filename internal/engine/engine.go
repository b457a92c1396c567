// Package engine orchestrates the threat response state engine: it wires
// the telemetry generators, feeds, threshold evaluation, block expiry and
// alert ingestion onto the scheduler and exposes the state snapshots the
// API serves.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/audit"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/config"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/feed"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/metrics"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/model"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/notify"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/registry"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/sched"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/synth"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/thresholds"
)

// Generation cadences. Each feed advances on its own timer.
const (
	AlertInterval    = 3 * time.Second
	NetworkInterval  = 2 * time.Second
	PacketInterval   = 500 * time.Millisecond
	HoneypotInterval = 5500 * time.Millisecond
	SweepInterval    = time.Second
)

// Engine owns the live state of the simulated SOC: the telemetry feeds,
// the honeynet roster and the periodic work that keeps them moving.
type Engine struct {
	gen       *synth.Generator
	alerts    *feed.AlertFeed
	network   *feed.NetworkWindow
	packets   *feed.PacketFeed
	hpLogs    *feed.HoneypotLogFeed
	honeypots []model.Honeypot
	settings  *config.Manager
	registry  *registry.Registry
	auditLog  *audit.Log
	notifier  *notify.Notifier
	metrics   *metrics.Metrics
	clock     sched.Clock
	logger    *slog.Logger
}

// New creates an engine over the given collaborators
func New(gen *synth.Generator, alerts *feed.AlertFeed, network *feed.NetworkWindow, packets *feed.PacketFeed, hpLogs *feed.HoneypotLogFeed, settings *config.Manager, reg *registry.Registry, auditLog *audit.Log, notifier *notify.Notifier, m *metrics.Metrics, clock sched.Clock, logger *slog.Logger) *Engine {
	return &Engine{
		gen:       gen,
		alerts:    alerts,
		network:   network,
		packets:   packets,
		hpLogs:    hpLogs,
		honeypots: synth.DefaultHoneypots(),
		settings:  settings,
		registry:  reg,
		auditLog:  auditLog,
		notifier:  notifier,
		metrics:   m,
		clock:     clock,
		logger:    logger,
	}
}

// Seed pre-populates the feeds so the dashboard starts with history
// instead of empty views.
func (e *Engine) Seed() {
	for _, alert := range e.gen.InitialAlerts(20) {
		e.alerts.Push(alert)
	}
	for _, p := range e.gen.InitialNetworkData(feed.DefaultWindowSize) {
		e.network.Push(p)
	}
	for _, p := range e.gen.InitialPackets(50) {
		e.packets.Push(p)
	}
	e.logger.Info("Feeds seeded",
		"alerts", e.alerts.Len(), "network_samples", e.network.Len(), "packets", e.packets.Len())
}

// RegisterTasks binds the periodic work onto the scheduler
func (e *Engine) RegisterTasks(s *sched.Scheduler) {
	s.Every("alert-generation", AlertInterval, e.GenerateAlertTick)
	s.Every("network-sampling", NetworkInterval, e.SampleNetworkTick)
	s.Every("packet-sampling", PacketInterval, e.SamplePacketTick)
	s.Every("honeypot-activity", HoneypotInterval, e.SampleHoneypotTick)
	s.Every("block-expiry-sweep", SweepInterval, e.SweepTick)
}

// GenerateAlertTick emits one synthetic alert into the feed. When
// notifications are enabled, a High severity alert is additionally
// audited and pushed to the configured endpoint.
func (e *Engine) GenerateAlertTick(now time.Time) {
	alert := e.gen.NewAlert()
	e.alerts.Push(alert)
	if e.metrics != nil {
		e.metrics.IncAlertsGenerated(string(model.OriginDefault))
	}

	s := e.settings.Get()
	if s.NotificationsEnabled && alert.Severity == model.SeverityHigh {
		message := fmt.Sprintf("High-severity threat detected: %s from %s. Sending alert to %s.",
			alert.Type, alert.IP, s.NotificationEndpoint)
		e.auditLog.Append(message)
		e.notifier.Error(fmt.Sprintf("High-severity alert: %s", alert.Type))
	}
}

// SampleNetworkTick takes one throughput sample, evaluates it against
// the severity thresholds and raises a network-wide anomaly alert on a
// breach. Evaluation is stateless: a sustained breach alerts every tick.
func (e *Engine) SampleNetworkTick(now time.Time) {
	point := e.gen.NewDataPoint()
	s := e.settings.Get()

	if severity, breached := thresholds.Evaluate(point.Incoming, s); breached {
		threshold := s.HighSeverityThreshold
		if severity == model.SeverityMedium {
			threshold = s.MediumSeverityThreshold
		}
		alert := thresholds.NewAnomalyAlert(severity, point.Incoming, threshold, now)
		e.alerts.Push(alert)
		if e.metrics != nil {
			e.metrics.IncAlertsGenerated(string(model.OriginThreshold))
		}
		e.logger.Warn("Traffic threshold breached",
			"incoming_mbps", point.Incoming, "severity", string(severity), "threshold_mbps", threshold)
	}

	e.network.Push(point)
}

// SamplePacketTick emits one synthetic packet capture
func (e *Engine) SamplePacketTick(now time.Time) {
	e.packets.Push(e.gen.NewPacket())
}

// SampleHoneypotTick emits one honeypot interaction and promotes it to a
// High severity alert attributed to the attacker.
func (e *Engine) SampleHoneypotTick(now time.Time) {
	entry := e.gen.NewHoneypotLog(e.honeypots)
	e.hpLogs.Push(entry)

	alert := e.gen.AlertFromHoneypot(entry)
	e.alerts.Push(alert)
	if e.metrics != nil {
		e.metrics.IncAlertsGenerated(string(model.OriginHoneypot))
	}
	e.notifier.Error(fmt.Sprintf("Honeypot alert: %s", entry.Summary))
}

// SweepTick removes expired blocks, auditing and announcing each one
func (e *Engine) SweepTick(now time.Time) {
	for _, entry := range e.registry.SweepExpired(now) {
		message := fmt.Sprintf("IP %s auto-unblocked after expiry.", entry.IP)
		e.auditLog.Append(message)
		e.notifier.Info(message)
	}
}

// Ingest accepts an externally submitted alert: it stamps identity,
// timestamp and origin, pushes it into the feed and audits the ingestion.
// A duplicate delivery of an alert already carrying an ID is dropped.
func (e *Engine) Ingest(alert model.ThreatAlert) (model.ThreatAlert, bool) {
	if alert.ID == "" {
		alert.ID = "alert-api-" + uuid.NewString()
	}
	if alert.Timestamp.IsZero() {
		alert.Timestamp = e.clock.Now()
	}
	alert.Origin = model.OriginAPI

	if !e.alerts.Push(alert) {
		e.logger.Info("Duplicate alert ingest dropped", "alert_id", alert.ID)
		return alert, false
	}

	message := fmt.Sprintf("New alert for %s ingested via API.", alert.IP)
	e.auditLog.Append(message)
	e.notifier.Success(message)
	if e.metrics != nil {
		e.metrics.IncAlertsIngested()
	}
	return alert, true
}

// Alerts returns the alert feed snapshot, newest first
func (e *Engine) Alerts() []model.ThreatAlert { return e.alerts.Alerts() }

// FindAlert returns an alert still held in the feed
func (e *Engine) FindAlert(id string) (model.ThreatAlert, bool) { return e.alerts.Find(id) }

// NetworkData returns the throughput window, oldest first
func (e *Engine) NetworkData() []model.NetworkDataPoint { return e.network.Points() }

// Packets returns the packet feed snapshot, newest first
func (e *Engine) Packets() []model.Packet { return e.packets.Packets() }

// HoneypotLogs returns the honeypot activity snapshot, newest first
func (e *Engine) HoneypotLogs() []model.HoneypotLog { return e.hpLogs.Logs() }

// Honeypots returns the honeynet roster
func (e *Engine) Honeypots() []model.Honeypot {
	out := make([]model.Honeypot, len(e.honeypots))
	copy(out, e.honeypots)
	return out
}

// Spiking reports whether a synthetic traffic spike is active
func (e *Engine) Spiking() bool { return e.gen.Spiking() }
