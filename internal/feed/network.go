package feed

import (
	"sync"

	"github.com/Pranesh003/Automated-Cyber-Threat-Detection-and-Response-System/internal/model"
)

// DefaultWindowSize is the number of throughput samples kept for the
// sliding network view.
const DefaultWindowSize = 30

// NetworkWindow is a fixed-size sliding window of throughput samples.
// Once full, each new sample displaces the oldest so the window always
// covers the most recent N samples.
type NetworkWindow struct {
	mu   sync.RWMutex
	buf  []model.NetworkDataPoint
	head int
	size int
}

// NewNetworkWindow creates a window holding at most size samples
func NewNetworkWindow(size int) *NetworkWindow {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &NetworkWindow{buf: make([]model.NetworkDataPoint, size)}
}

// Push appends a sample, displacing the oldest when the window is full
func (w *NetworkWindow) Push(p model.NetworkDataPoint) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf[w.head] = p
	w.head = (w.head + 1) % len(w.buf)
	if w.size < len(w.buf) {
		w.size++
	}
}

// Points returns the window contents oldest first
func (w *NetworkWindow) Points() []model.NetworkDataPoint {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]model.NetworkDataPoint, 0, w.size)
	start := (w.head - w.size + len(w.buf)) % len(w.buf)
	for i := 0; i < w.size; i++ {
		out = append(out, w.buf[(start+i)%len(w.buf)])
	}
	return out
}

// Latest returns the most recent sample, if any
func (w *NetworkWindow) Latest() (model.NetworkDataPoint, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.size == 0 {
		return model.NetworkDataPoint{}, false
	}
	idx := (w.head - 1 + len(w.buf)) % len(w.buf)
	return w.buf[idx], true
}

// Len returns the number of samples currently held
func (w *NetworkWindow) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.size
}
