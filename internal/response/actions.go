package response

import (
	"context"
	"log/slog"

	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/model"
)

// ExternalActions abstracts the response actions that would touch
// infrastructure outside the engine. The engine calls these only in live
// mode; an error from any of them fails the running playbook.
type ExternalActions interface {
	IsolateHost(ctx context.Context, ip string) error
	SnapshotDisk(ctx context.Context, ip string) error
	NotifySOCLead(ctx context.Context, alert model.ThreatAlert) error
}

// StubActions is the built-in ExternalActions implementation. The actions
// have no real enforcement backend, so each one just records that it ran.
type StubActions struct {
	Logger *slog.Logger
}

func (s StubActions) IsolateHost(ctx context.Context, ip string) error {
	s.Logger.Info("Host isolation initiated", "ip", ip)
	return nil
}

func (s StubActions) SnapshotDisk(ctx context.Context, ip string) error {
	s.Logger.Info("Forensic disk snapshot started", "ip", ip)
	return nil
}

func (s StubActions) NotifySOCLead(ctx context.Context, alert model.ThreatAlert) error {
	s.Logger.Info("SOC Lead notified", "alert_id", alert.ID, "threat_type", alert.Type)
	return nil
}
