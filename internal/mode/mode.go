// Package mode holds the global defense mode switch. In simulation mode
// response actions are logged but not applied; live mode arms them.
package mode

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/audit"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/notify"
)

// Controller guards the simulation/live switch. The engine starts in
// simulation mode.
type Controller struct {
	mu       sync.RWMutex
	live     bool
	auditLog *audit.Log
	notifier *notify.Notifier
	logger   *slog.Logger
}

// NewController creates a controller starting in simulation mode
func NewController(auditLog *audit.Log, notifier *notify.Notifier, logger *slog.Logger) *Controller {
	return &Controller{
		auditLog: auditLog,
		notifier: notifier,
		logger:   logger,
	}
}

// IsLive reports whether live defense mode is armed
func (c *Controller) IsLive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.live
}

// String returns the current mode name
func (c *Controller) String() string {
	if c.IsLive() {
		return "LIVE"
	}
	return "SIMULATION"
}

// Toggle flips the defense mode and returns the new live state. The
// change is audited and announced.
func (c *Controller) Toggle() bool {
	c.mu.Lock()
	c.live = !c.live
	live := c.live
	c.mu.Unlock()

	name := "SIMULATION"
	if live {
		name = "LIVE"
	}
	c.auditLog.Append(fmt.Sprintf("Defense mode set to: %s.", name))
	c.notifier.Info(fmt.Sprintf("Defense mode is now %s.", name))
	c.logger.Info("Defense mode changed", "mode", name)
	return live
}
