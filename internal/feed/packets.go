package feed

import (
	"container/ring"
	"sync"

	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/model"
)

// DefaultPacketCapacity bounds the live packet stream
const DefaultPacketCapacity = 100

// DefaultHoneypotLogCapacity bounds the honeypot activity log
const DefaultHoneypotLogCapacity = 50

// PacketFeed is a fixed-capacity buffer of the most recent packet captures
type PacketFeed struct {
	mu   sync.RWMutex
	buf  *ring.Ring
	size int
	cap  int
}

// NewPacketFeed creates a packet feed holding at most capacity packets
func NewPacketFeed(capacity int) *PacketFeed {
	if capacity <= 0 {
		capacity = DefaultPacketCapacity
	}
	return &PacketFeed{buf: ring.New(capacity), cap: capacity}
}

// Push prepends a packet, evicting the oldest when full
func (f *PacketFeed) Push(p model.Packet) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.size < f.cap {
		f.size++
	}
	f.buf.Value = p
	f.buf = f.buf.Next()
}

// Packets returns a snapshot of the feed, newest first
func (f *PacketFeed) Packets() []model.Packet {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]model.Packet, 0, f.size)
	r := f.buf
	for i := 0; i < f.size; i++ {
		r = r.Prev()
		if p, ok := r.Value.(model.Packet); ok {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of packets currently held
func (f *PacketFeed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.size
}

// HoneypotLogFeed is a fixed-capacity buffer of honeypot interaction logs
type HoneypotLogFeed struct {
	mu   sync.RWMutex
	buf  *ring.Ring
	size int
	cap  int
}

// NewHoneypotLogFeed creates a log feed holding at most capacity entries
func NewHoneypotLogFeed(capacity int) *HoneypotLogFeed {
	if capacity <= 0 {
		capacity = DefaultHoneypotLogCapacity
	}
	return &HoneypotLogFeed{buf: ring.New(capacity), cap: capacity}
}

// Push prepends a log entry, evicting the oldest when full
func (f *HoneypotLogFeed) Push(entry model.HoneypotLog) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.size < f.cap {
		f.size++
	}
	f.buf.Value = entry
	f.buf = f.buf.Next()
}

// Logs returns a snapshot of the feed, newest first
func (f *HoneypotLogFeed) Logs() []model.HoneypotLog {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]model.HoneypotLog, 0, f.size)
	r := f.buf
	for i := 0; i < f.size; i++ {
		r = r.Prev()
		if entry, ok := r.Value.(model.HoneypotLog); ok {
			out = append(out, entry)
		}
	}
	return out
}

// Len returns the number of log entries currently held
func (f *HoneypotLogFeed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.size
}
