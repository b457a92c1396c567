package notify

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/model"
)

// Level is the transient notification level, mirroring the operator
// surface's toast types.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notification is the payload published to the configured endpoint subject
type Notification struct {
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// SettingsProvider yields the current operator settings at publish time
type SettingsProvider func() model.Settings

// Notifier delivers transient operator notifications. Every notification
// is mirrored to the structured log; when notifications are enabled and a
// NATS connection is available it is also published to the configured
// endpoint subject. The audit log, not this channel, is the durable record.
type Notifier struct {
	nc       *nats.Conn
	settings SettingsProvider
	logger   *slog.Logger
}

// New creates a notifier. nc may be nil, in which case notifications are
// log-only.
func New(nc *nats.Conn, settings SettingsProvider, logger *slog.Logger) *Notifier {
	return &Notifier{nc: nc, settings: settings, logger: logger}
}

// Notify emits one notification at the given level
func (n *Notifier) Notify(level Level, message string) {
	n.logger.Info("Notification", "level", string(level), "message", message)

	settings := n.settings()
	if !settings.NotificationsEnabled || settings.NotificationEndpoint == "" || n.nc == nil {
		return
	}

	payload, err := json.Marshal(Notification{
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
	})
	if err != nil {
		n.logger.Error("Failed to marshal notification", "error", err)
		return
	}

	if err := n.nc.Publish(settings.NotificationEndpoint, payload); err != nil {
		// Delivery is best-effort; never fail the triggering action.
		n.logger.Error("Failed to publish notification", "subject", settings.NotificationEndpoint, "error", err)
	}
}

// Success emits a success-level notification
func (n *Notifier) Success(message string) { n.Notify(LevelSuccess, message) }

// Info emits an info-level notification
func (n *Notifier) Info(message string) { n.Notify(LevelInfo, message) }

// Error emits an error-level notification
func (n *Notifier) Error(message string) { n.Notify(LevelError, message) }
