// Package config manages the operator-tunable runtime settings
package config

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/model"
)

// Persister is the durable backing for settings. A nil Persister keeps
// them in memory only.
type Persister interface {
	SaveSettings(s model.Settings) error
	LoadSettings() model.Settings
}

// Manager serves and updates the current settings snapshot
type Manager struct {
	mu      sync.RWMutex
	current model.Settings
	persist Persister
	logger  *slog.Logger
}

// NewManager creates a manager holding the documented defaults
func NewManager(persist Persister, logger *slog.Logger) *Manager {
	return &Manager{
		current: model.DefaultSettings(),
		persist: persist,
		logger:  logger,
	}
}

// Restore loads persisted settings, keeping defaults when none exist
func (m *Manager) Restore() {
	if m.persist == nil {
		return
	}
	s := m.persist.LoadSettings()
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
}

// Get returns the current settings snapshot
func (m *Manager) Get() model.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Update validates and applies a full settings replacement
func (m *Manager) Update(s model.Settings) error {
	if s.MediumSeverityThreshold < 0 || s.HighSeverityThreshold < 0 {
		return fmt.Errorf("thresholds must not be negative")
	}
	if s.NotificationsEnabled && s.NotificationEndpoint == "" {
		return fmt.Errorf("notifications enabled without an endpoint")
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()

	if m.persist != nil {
		if err := m.persist.SaveSettings(s); err != nil {
			m.logger.Warn("Failed to persist settings, continuing in memory", "error", err)
		}
	}
	m.logger.Info("Settings updated",
		"medium_threshold", s.MediumSeverityThreshold,
		"high_threshold", s.HighSeverityThreshold,
		"notifications_enabled", s.NotificationsEnabled)
	return nil
}
