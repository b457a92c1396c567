// Package synth produces the simulated telemetry that drives the engine:
// threat alerts, network throughput samples, packet captures and honeypot
// interaction logs. All randomness flows through a single seeded source so
// tests can make generation deterministic.
package synth

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/model"
	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/sched"
)

var threatTypes = []string{
	"DDoS Attack",
	"Port Scan",
	"Malware",
	"SQL Injection",
	"Unauthorized Access",
	"Data Exfiltration",
}

var locations = []string{"USA", "China", "Russia", "Germany", "Brazil", "India", "UK", "Nigeria"}

var protocols = []string{"TCP", "UDP", "ICMP"}

var honeypotSummaries = map[model.HoneypotType][]string{
	model.HoneypotSSH: {
		"Login attempt with user 'root'",
		"SSH version scan",
		"Brute-force attempt detected",
	},
	model.HoneypotHTTP: {
		"Probing for '/.env'",
		"SQL injection attempt on login form",
		"Log4Shell vulnerability scan",
	},
	model.HoneypotFTP: {
		"Anonymous login attempt",
		"Directory traversal attempt",
		"Probing for open FTP port",
	},
	model.HoneypotSMB: {
		"Attempted to access ADMIN$ share",
		"Enum. users via SAMR",
		"WannaCry malware propagation attempt",
	},
}

// ThreatDetailsFor returns the detection context associated with a threat type
func ThreatDetailsFor(threatType string) model.ThreatDetails {
	switch threatType {
	case "DDoS Attack":
		return model.ThreatDetails{TargetService: "HTTPS (443)", PayloadSignature: "SYN.Flood.Generic"}
	case "Port Scan":
		return model.ThreatDetails{TargetService: "Multiple", PayloadSignature: "Nmap.Stealth.Scan"}
	case "Malware":
		return model.ThreatDetails{TargetService: "HTTP (80)", PayloadSignature: "CobaltStrike.Beacon.HTTP"}
	case "SQL Injection":
		return model.ThreatDetails{TargetService: "HTTP (80)", PayloadSignature: "SQLi.Union.Attempt"}
	case "Unauthorized Access":
		return model.ThreatDetails{TargetService: "SSH (22)", PayloadSignature: "BruteForce.Login.Attempt"}
	case "Data Exfiltration":
		return model.ThreatDetails{TargetService: "DNS (53)", PayloadSignature: "DNS.Tunneling.Exfil"}
	default:
		return model.ThreatDetails{TargetService: "Unknown", PayloadSignature: "Generic.Anomaly"}
	}
}

// DefaultHoneypots returns the fixed honeynet roster
func DefaultHoneypots() []model.Honeypot {
	return []model.Honeypot{
		{ID: "hp-1", Type: model.HoneypotSSH, IP: "192.168.10.254", Status: model.HoneypotActive},
		{ID: "hp-2", Type: model.HoneypotHTTP, IP: "192.168.10.253", Status: model.HoneypotActive},
		{ID: "hp-3", Type: model.HoneypotFTP, IP: "192.168.10.252", Status: model.HoneypotActive},
		{ID: "hp-4", Type: model.HoneypotSMB, IP: "192.168.10.251", Status: model.HoneypotActive},
	}
}

// Generator produces synthetic telemetry. It owns the traffic-spike state:
// each throughput sample has a small chance to start a spike that elevates
// traffic volumes and biases alert generation toward high-severity DDoS
// for 10 to 20 seconds.
type Generator struct {
	mu          sync.Mutex
	rng         *rand.Rand
	clock       sched.Clock
	spikeActive bool
	spikeEndsAt time.Time
}

// New creates a generator seeded from seed. Pass the same seed and clock
// to reproduce a sequence.
func New(seed int64, clock sched.Clock) *Generator {
	return &Generator{
		rng:   rand.New(rand.NewSource(seed)),
		clock: clock,
	}
}

func (g *Generator) randomIP() string {
	return fmt.Sprintf("%d.%d.%d.%d", g.rng.Intn(255), g.rng.Intn(255), g.rng.Intn(255), g.rng.Intn(255))
}

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.Intn(len(items))]
}

// NewAlert generates one random threat alert. During an active traffic
// spike the alert is a DDoS Attack with a 70% chance of High severity.
func (g *Generator) NewAlert() model.ThreatAlert {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	spiking := g.spikeActive && now.Before(g.spikeEndsAt)

	var severity model.Severity
	var threatType string
	if spiking {
		threatType = "DDoS Attack"
		if g.rng.Float64() > 0.3 {
			severity = model.SeverityHigh
		} else {
			severity = model.SeverityMedium
		}
	} else {
		threatType = pick(g.rng, threatTypes)
		severity = pick(g.rng, []model.Severity{model.SeverityHigh, model.SeverityMedium, model.SeverityLow})
	}

	ip := g.randomIP()
	return model.ThreatAlert{
		ID:          "alert-" + uuid.NewString(),
		Timestamp:   now,
		IP:          ip,
		Type:        threatType,
		Severity:    severity,
		Description: fmt.Sprintf("Suspicious activity detected from %s. Potential %s.", ip, threatType),
		Location:    pick(g.rng, locations),
		Details:     ThreatDetailsFor(threatType),
	}
}

// AlertFromHoneypot promotes a honeypot interaction into a high-confidence
// High severity alert attributed to the attacker.
func (g *Generator) AlertFromHoneypot(entry model.HoneypotLog) model.ThreatAlert {
	g.mu.Lock()
	defer g.mu.Unlock()

	return model.ThreatAlert{
		ID:          "alert-hp-" + uuid.NewString(),
		Timestamp:   g.clock.Now(),
		IP:          entry.AttackerIP,
		Type:        "Honeypot Interaction",
		Severity:    model.SeverityHigh,
		Description: fmt.Sprintf("High-confidence alert: Attacker interacted with %s decoy.", entry.HoneypotType),
		Location:    entry.AttackerLocation,
		Details:     ThreatDetailsFor("Unauthorized Access"),
		Origin:      model.OriginHoneypot,
	}
}

// NewDataPoint generates one throughput sample, advancing the spike state.
// Normal traffic runs 20-140 MB/s incoming; during a spike it jumps to
// 150-250 MB/s, enough to cross the default thresholds.
func (g *Generator) NewDataPoint() model.NetworkDataPoint {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	if !g.spikeActive && g.rng.Float64() < 0.015 {
		g.spikeActive = true
		g.spikeEndsAt = now.Add(time.Duration(10+g.rng.Float64()*10) * time.Second)
	}
	if g.spikeActive && !now.Before(g.spikeEndsAt) {
		g.spikeActive = false
	}

	var incoming, outgoing float64
	if g.spikeActive {
		incoming = float64(g.rng.Intn(100) + 150)
		outgoing = float64(g.rng.Intn(50) + 70)
	} else {
		incoming = float64(g.rng.Intn(120) + 20)
		outgoing = float64(g.rng.Intn(60) + 10)
	}

	return model.NetworkDataPoint{Timestamp: now, Incoming: incoming, Outgoing: outgoing}
}

// Spiking reports whether a traffic spike is currently active
func (g *Generator) Spiking() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.spikeActive && g.clock.Now().Before(g.spikeEndsAt)
}

// NewPacket generates one random packet capture
func (g *Generator) NewPacket() model.Packet {
	g.mu.Lock()
	defer g.mu.Unlock()

	return model.Packet{
		ID:         "pkt-" + uuid.NewString(),
		Timestamp:  g.clock.Now(),
		SourceIP:   g.randomIP(),
		DestIP:     g.randomIP(),
		SourcePort: g.rng.Intn(65535) + 1,
		DestPort:   g.rng.Intn(65535) + 1,
		Protocol:   pick(g.rng, protocols),
		Size:       g.rng.Intn(1400) + 60,
	}
}

// NewHoneypotLog generates one attacker interaction against a random
// honeypot from the roster.
func (g *Generator) NewHoneypotLog(honeypots []model.Honeypot) model.HoneypotLog {
	g.mu.Lock()
	defer g.mu.Unlock()

	target := pick(g.rng, honeypots)
	return model.HoneypotLog{
		ID:               "hplog-" + uuid.NewString(),
		Timestamp:        g.clock.Now(),
		HoneypotID:       target.ID,
		HoneypotType:     target.Type,
		AttackerIP:       g.randomIP(),
		AttackerLocation: pick(g.rng, locations),
		Summary:          pick(g.rng, honeypotSummaries[target.Type]),
	}
}

// InitialAlerts seeds the alert feed with count alerts backdated so the
// feed is populated at startup.
func (g *Generator) InitialAlerts(count int) []model.ThreatAlert {
	out := make([]model.ThreatAlert, 0, count)
	for i := 0; i < count; i++ {
		alert := g.NewAlert()
		alert.Timestamp = alert.Timestamp.Add(-time.Duration(count-i) * 3 * time.Second)
		out = append(out, alert)
	}
	return out
}

// InitialNetworkData seeds the throughput window with count backdated samples
func (g *Generator) InitialNetworkData(count int) []model.NetworkDataPoint {
	out := make([]model.NetworkDataPoint, 0, count)
	for i := 0; i < count; i++ {
		p := g.NewDataPoint()
		p.Timestamp = p.Timestamp.Add(-time.Duration(count-i) * 10 * time.Second)
		out = append(out, p)
	}
	return out
}

// InitialPackets seeds the packet feed with count backdated packets
func (g *Generator) InitialPackets(count int) []model.Packet {
	out := make([]model.Packet, 0, count)
	for i := 0; i < count; i++ {
		p := g.NewPacket()
		p.Timestamp = p.Timestamp.Add(-time.Duration(count-i) * 500 * time.Millisecond)
		out = append(out, p)
	}
	return out
}
