package model

import "time"

// Severity represents the severity level of a threat alert
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// ValidSeverity reports whether s is one of the closed severity set
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// PlaybookAction is one of the closed set of response actions a playbook step can take
type PlaybookAction string

const (
	ActionBlockIP       PlaybookAction = "BLOCK_IP"
	ActionIsolateHost   PlaybookAction = "ISOLATE_HOST"
	ActionSnapshotDisk  PlaybookAction = "SNAPSHOT_DISK"
	ActionNotifySOCLead PlaybookAction = "NOTIFY_SOC_LEAD"
)

// AlertOrigin tags where a threat alert came from
type AlertOrigin string

const (
	OriginDefault   AlertOrigin = ""
	OriginAPI       AlertOrigin = "API"
	OriginThreshold AlertOrigin = "internal-threshold"
	OriginHoneypot  AlertOrigin = "honeypot"
)

// NetworkWideIP is the sentinel source IP for alerts that are not tied to a single host
const NetworkWideIP = "N/A (Network Wide)"

// ThreatDetails holds supplementary detection context for an alert
type ThreatDetails struct {
	TargetService    string `json:"target_service"`
	PayloadSignature string `json:"payload_signature"`
}

// ThreatAlert is one detected or synthesized threat event. Alerts are
// immutable once created; the alert feed drops the oldest entries beyond
// its capacity.
type ThreatAlert struct {
	ID          string        `json:"id"`
	Timestamp   time.Time     `json:"timestamp"`
	IP          string        `json:"ip"`
	Type        string        `json:"type"`
	Severity    Severity      `json:"severity"`
	Description string        `json:"description"`
	Location    string        `json:"location"`
	Details     ThreatDetails `json:"details"`
	Origin      AlertOrigin   `json:"origin,omitempty"`
}

// NetworkDataPoint is one traffic sample in MB/s
type NetworkDataPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Incoming  float64   `json:"incoming"`
	Outgoing  float64   `json:"outgoing"`
}

// Packet is one synthetic captured packet
type Packet struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	SourceIP   string    `json:"source_ip"`
	DestIP     string    `json:"dest_ip"`
	SourcePort int       `json:"source_port"`
	DestPort   int       `json:"dest_port"`
	Protocol   string    `json:"protocol"`
	Size       int       `json:"size"`
}

// BlockedIP is one active block in the registry. At most one active entry
// exists per IP value at any time.
type BlockedIP struct {
	IP         string    `json:"ip"`
	ThreatType string    `json:"threat_type"`
	BlockedAt  time.Time `json:"blocked_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// RollbackTarget is the typed reference a rollback-eligible audit entry
// carries. Rollback resolves its target from this structure, never from
// the entry's message text.
type RollbackTarget struct {
	Action   PlaybookAction `json:"action"`
	TargetIP string         `json:"target_ip"`
}

// LogEntry is one audit record. Entries are append-only; the rolled-back
// transition is one-way and clears the rollback eligibility.
type LogEntry struct {
	ID           string          `json:"id"`
	Timestamp    time.Time       `json:"timestamp"`
	Message      string          `json:"message"`
	CanRollback  bool            `json:"can_rollback"`
	IsRolledBack bool            `json:"is_rolled_back"`
	Target       *RollbackTarget `json:"target,omitempty"`
}

// HoneypotType is the decoy service a honeypot impersonates
type HoneypotType string

const (
	HoneypotSSH  HoneypotType = "SSH"
	HoneypotHTTP HoneypotType = "HTTP Web Server"
	HoneypotFTP  HoneypotType = "FTP"
	HoneypotSMB  HoneypotType = "SMB Share"
)

// HoneypotStatus is the lifecycle state of a honeypot. The transition from
// Active to Compromised is reserved for future use; no component currently
// triggers it.
type HoneypotStatus string

const (
	HoneypotActive      HoneypotStatus = "Active"
	HoneypotCompromised HoneypotStatus = "Compromised"
)

// Honeypot is one decoy asset in the honeynet roster
type Honeypot struct {
	ID     string         `json:"id"`
	Type   HoneypotType   `json:"type"`
	IP     string         `json:"ip"`
	Status HoneypotStatus `json:"status"`
}

// HoneypotLog is one attacker interaction against a honeypot
type HoneypotLog struct {
	ID               string       `json:"id"`
	Timestamp        time.Time    `json:"timestamp"`
	HoneypotID       string       `json:"honeypot_id"`
	HoneypotType     HoneypotType `json:"honeypot_type"`
	AttackerIP       string       `json:"attacker_ip"`
	AttackerLocation string       `json:"attacker_location"`
	Summary          string       `json:"summary"`
}

// PlaybookStep is one ordered action within a playbook
type PlaybookStep struct {
	Action      PlaybookAction `json:"action" yaml:"action"`
	Description string         `json:"description" yaml:"description"`
}

// Playbook is a named response plan applied to one or more threat types
type Playbook struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	AppliesTo   []string       `json:"applies_to" yaml:"applies_to"`
	Steps       []PlaybookStep `json:"steps" yaml:"steps"`
	IsCustom    bool           `json:"is_custom,omitempty" yaml:"is_custom,omitempty"`
}

// AppliesToType reports whether the playbook covers the given threat type
func (p Playbook) AppliesToType(threatType string) bool {
	for _, t := range p.AppliesTo {
		if t == threatType {
			return true
		}
	}
	return false
}

// Settings holds the operator-tunable thresholds and notification options.
// A threshold of 0 disables that tier's evaluation.
type Settings struct {
	NotificationsEnabled    bool    `json:"notifications_enabled"`
	NotificationEndpoint    string  `json:"notification_endpoint"`
	MediumSeverityThreshold float64 `json:"medium_severity_threshold"`
	HighSeverityThreshold   float64 `json:"high_severity_threshold"`
}

// DefaultSettings returns the documented defaults: medium=150, high=200,
// notifications off.
func DefaultSettings() Settings {
	return Settings{
		NotificationsEnabled:    false,
		NotificationEndpoint:    "",
		MediumSeverityThreshold: 150,
		HighSeverityThreshold:   200,
	}
}
