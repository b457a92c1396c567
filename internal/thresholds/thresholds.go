// Package thresholds evaluates network throughput samples against the
// operator-configured severity thresholds and builds the network-wide
// anomaly alerts the evaluation raises.
package thresholds

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/model"
)

// AnomalyType is the threat type assigned to threshold-raised alerts
const AnomalyType = "Anomalous Traffic Volume"

// Evaluate compares an incoming-traffic sample against the configured
// thresholds and returns the severity of the breach, if any. The high
// tier is checked first; a disabled tier (threshold 0) never matches.
// Evaluation is stateless, so a sustained breach raises an alert on
// every sample.
func Evaluate(incoming float64, s model.Settings) (model.Severity, bool) {
	if s.HighSeverityThreshold > 0 && incoming > s.HighSeverityThreshold {
		return model.SeverityHigh, true
	}
	if s.MediumSeverityThreshold > 0 && incoming > s.MediumSeverityThreshold {
		return model.SeverityMedium, true
	}
	return "", false
}

// NewAnomalyAlert builds the network-wide alert raised when a sample
// breaches a threshold
func NewAnomalyAlert(severity model.Severity, incoming, threshold float64, now time.Time) model.ThreatAlert {
	return model.ThreatAlert{
		ID:        "alert-" + uuid.NewString(),
		Timestamp: now,
		IP:        model.NetworkWideIP,
		Type:      AnomalyType,
		Severity:  severity,
		Description: fmt.Sprintf("Incoming traffic of %.0f MB/s exceeded %s severity threshold of %.0f MB/s.",
			incoming, strings.ToLower(string(severity)), threshold),
		Location: "Internal Monitor",
		Details: model.ThreatDetails{
			TargetService:    "Network Infrastructure",
			PayloadSignature: "Traffic.Volume.Anomaly",
		},
		Origin: model.OriginThreshold,
	}
}
