// Package playbook manages the response playbook catalog: the built-in
// plans, plans loaded from a playbooks.d directory at startup, and custom
// plans added at runtime via the API.
package playbook

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/model"
)

// FallbackID is the playbook selected when no plan covers an alert's
// threat type.
const FallbackID = "PB-003"

// Persister is the durable backing for custom playbooks. A nil Persister
// keeps them in memory only.
type Persister interface {
	SaveCustomPlaybooks(pbs []model.Playbook) error
	LoadCustomPlaybooks() []model.Playbook
}

// Defaults returns the built-in playbook set
func Defaults() []model.Playbook {
	return []model.Playbook{
		{
			ID:          "PB-001",
			Name:        "Malware Containment",
			Description: "Standard procedure for isolating and analyzing a potential malware infection.",
			AppliesTo:   []string{"Malware", "Honeypot Interaction", "Unauthorized Access"},
			Steps: []model.PlaybookStep{
				{Action: model.ActionIsolateHost, Description: "Isolate host from the network to prevent lateral movement."},
				{Action: model.ActionBlockIP, Description: "Block the source IP address at the firewall."},
				{Action: model.ActionSnapshotDisk, Description: "Take a forensic snapshot of the host's disk for analysis."},
				{Action: model.ActionNotifySOCLead, Description: "Send a high-priority notification to the SOC Lead."},
			},
		},
		{
			ID:          "PB-002",
			Name:        "DDoS Mitigation",
			Description: "Procedure to mitigate an ongoing Distributed Denial-of-Service attack.",
			AppliesTo:   []string{"DDoS Attack"},
			Steps: []model.PlaybookStep{
				{Action: model.ActionBlockIP, Description: "Block the primary source IP (Note: often insufficient for DDoS)."},
				{Action: model.ActionNotifySOCLead, Description: "Notify SOC Lead to engage upstream DDoS mitigation service."},
			},
		},
		{
			ID:          "PB-003",
			Name:        "Suspicious Activity Triage",
			Description: "Initial triage for low-to-medium confidence alerts.",
			AppliesTo:   []string{"Port Scan", "SQL Injection", "Data Exfiltration", "Anomalous Traffic Volume"},
			Steps: []model.PlaybookStep{
				{Action: model.ActionBlockIP, Description: "Temporarily block the source IP address."},
				{Action: model.ActionNotifySOCLead, Description: "Create a ticket for a Level 1 analyst to investigate further."},
			},
		},
	}
}

// Catalog holds the known playbooks. Custom playbooks take precedence
// over built-in ones during selection.
type Catalog struct {
	mu       sync.RWMutex
	defaults []model.Playbook
	custom   []model.Playbook
	persist  Persister
	logger   *slog.Logger
}

// NewCatalog creates a catalog seeded with the built-in playbooks
func NewCatalog(persist Persister, logger *slog.Logger) *Catalog {
	return &Catalog{
		defaults: Defaults(),
		persist:  persist,
		logger:   logger,
	}
}

// Restore loads persisted custom playbooks
func (c *Catalog) Restore() {
	if c.persist == nil {
		return
	}
	pbs := c.persist.LoadCustomPlaybooks()
	c.mu.Lock()
	c.custom = pbs
	c.mu.Unlock()
	if len(pbs) > 0 {
		c.logger.Info("Custom playbooks restored", "count", len(pbs))
	}
}

// LoadDir reads *.yaml / *.yml playbook definitions from dir and merges
// them into the built-in set, replacing a built-in with the same ID. A
// missing directory is not an error.
func (c *Catalog) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading playbook dir: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("reading playbook file %s: %w", name, err)
		}

		var pb model.Playbook
		if err := yaml.Unmarshal(data, &pb); err != nil {
			return fmt.Errorf("parsing playbook file %s: %w", name, err)
		}
		if err := Validate(pb); err != nil {
			return fmt.Errorf("invalid playbook in %s: %w", name, err)
		}

		c.mu.Lock()
		replaced := false
		for i := range c.defaults {
			if c.defaults[i].ID == pb.ID {
				c.defaults[i] = pb
				replaced = true
				break
			}
		}
		if !replaced {
			c.defaults = append(c.defaults, pb)
		}
		c.mu.Unlock()

		c.logger.Info("Loaded playbook definition", "file", name, "id", pb.ID, "replaced_builtin", replaced)
	}
	return nil
}

// Validate checks a playbook definition for the structural requirements:
// an ID, a name, at least one step, and only known actions.
func Validate(pb model.Playbook) error {
	if pb.ID == "" {
		return fmt.Errorf("playbook is missing an id")
	}
	if pb.Name == "" {
		return fmt.Errorf("playbook %s is missing a name", pb.ID)
	}
	if len(pb.Steps) == 0 {
		return fmt.Errorf("playbook %s has no steps", pb.ID)
	}
	for i, step := range pb.Steps {
		switch step.Action {
		case model.ActionBlockIP, model.ActionIsolateHost, model.ActionSnapshotDisk, model.ActionNotifySOCLead:
		default:
			return fmt.Errorf("playbook %s step %d has unknown action %q", pb.ID, i, step.Action)
		}
	}
	return nil
}

// AddCustom registers a custom playbook and persists the custom set.
// A custom playbook with an existing custom ID replaces it.
func (c *Catalog) AddCustom(pb model.Playbook) error {
	if err := Validate(pb); err != nil {
		return err
	}
	pb.IsCustom = true

	c.mu.Lock()
	replaced := false
	for i := range c.custom {
		if c.custom[i].ID == pb.ID {
			c.custom[i] = pb
			replaced = true
			break
		}
	}
	if !replaced {
		c.custom = append(c.custom, pb)
	}
	custom := append([]model.Playbook(nil), c.custom...)
	c.mu.Unlock()

	if c.persist != nil {
		if err := c.persist.SaveCustomPlaybooks(custom); err != nil {
			c.logger.Warn("Failed to persist custom playbooks, continuing in memory", "error", err)
		}
	}
	c.logger.Info("Custom playbook added", "id", pb.ID, "name", pb.Name)
	return nil
}

// All returns every known playbook, custom plans first, each group
// sorted by ID.
func (c *Catalog) All() []model.Playbook {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Playbook, 0, len(c.custom)+len(c.defaults))
	out = append(out, c.custom...)
	out = append(out, c.defaults...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsCustom != out[j].IsCustom {
			return out[i].IsCustom
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Get returns the playbook with the given ID, preferring custom plans
func (c *Catalog) Get(id string) (model.Playbook, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, pb := range c.custom {
		if pb.ID == id {
			return pb, true
		}
	}
	for _, pb := range c.defaults {
		if pb.ID == id {
			return pb, true
		}
	}
	return model.Playbook{}, false
}

// Select returns the playbook to run for a threat type: the first custom
// plan covering it, else the first built-in plan covering it, else the
// triage fallback.
func (c *Catalog) Select(threatType string) model.Playbook {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, pb := range c.custom {
		if pb.AppliesToType(threatType) {
			return pb
		}
	}
	for _, pb := range c.defaults {
		if pb.AppliesToType(threatType) {
			return pb
		}
	}
	for _, pb := range c.defaults {
		if pb.ID == FallbackID {
			return pb
		}
	}
	// Fallback was removed from the catalog; return the first plan available.
	if len(c.defaults) > 0 {
		return c.defaults[0]
	}
	return model.Playbook{}
}
