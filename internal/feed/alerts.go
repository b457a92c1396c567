// Package feed holds the bounded in-memory feeds backing the dashboard
// views: the alert feed, the network throughput window, the packet stream
// and the honeypot activity log. Each feed keeps a fixed number of recent
// items and evicts the oldest on overflow.
package feed

import (
	"container/ring"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/model"
)

// DefaultAlertCapacity bounds the alert feed
const DefaultAlertCapacity = 50

// dedupeSize tracks recently seen alert IDs so a retried ingest does not
// duplicate an alert. Sized above the feed capacity to remember IDs for a
// while after eviction.
const dedupeSize = 256

// AlertFeed is a fixed-capacity buffer of the most recent threat alerts,
// deduplicated by alert ID.
type AlertFeed struct {
	mu     sync.RWMutex
	buf    *ring.Ring
	seen   *lru.Cache[string, struct{}]
	size   int
	cap    int
	byID   map[string]model.ThreatAlert
}

// NewAlertFeed creates an alert feed holding at most capacity alerts
func NewAlertFeed(capacity int) *AlertFeed {
	if capacity <= 0 {
		capacity = DefaultAlertCapacity
	}
	seen, _ := lru.New[string, struct{}](dedupeSize)
	return &AlertFeed{
		buf:  ring.New(capacity),
		seen: seen,
		cap:  capacity,
		byID: make(map[string]model.ThreatAlert),
	}
}

// Push prepends an alert to the feed, evicting the oldest when full.
// An alert whose ID was already seen is dropped and Push reports false.
func (f *AlertFeed) Push(alert model.ThreatAlert) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, dup := f.seen.Get(alert.ID); dup {
		return false
	}
	f.seen.Add(alert.ID, struct{}{})

	if f.size == f.cap {
		if old, ok := f.buf.Value.(model.ThreatAlert); ok {
			delete(f.byID, old.ID)
		}
	} else {
		f.size++
	}
	f.buf.Value = alert
	f.buf = f.buf.Next()
	f.byID[alert.ID] = alert
	return true
}

// Alerts returns a snapshot of the feed, newest first
func (f *AlertFeed) Alerts() []model.ThreatAlert {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]model.ThreatAlert, 0, f.size)
	r := f.buf
	for i := 0; i < f.size; i++ {
		r = r.Prev()
		if alert, ok := r.Value.(model.ThreatAlert); ok {
			out = append(out, alert)
		}
	}
	return out
}

// Find returns the alert with the given ID if it is still in the feed
func (f *AlertFeed) Find(id string) (model.ThreatAlert, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	alert, ok := f.byID[id]
	return alert, ok
}

// Len returns the number of alerts currently held
func (f *AlertFeed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.size
}
