package sched

import (
	"log/slog"
	"sync"
	"time"
)

// Scheduler drives named periodic tasks over an injectable clock. Each
// task's callbacks are strictly serialized on its own goroutine; no task
// waits on another. Stop cancels every ticker so teardown leaks nothing.
type Scheduler struct {
	clock  Clock
	logger *slog.Logger

	mu      sync.Mutex
	tasks   []task
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

type task struct {
	name     string
	interval time.Duration
	fn       func(now time.Time)
}

// New creates a scheduler using the given clock
func New(clock Clock, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		clock:  clock,
		logger: logger,
	}
}

// Every registers a periodic task. Registration after Start has no effect
// until the next Start.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(now time.Time)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task{name: name, interval: interval, fn: fn})
}

// Start launches one goroutine per registered task
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})

	for _, t := range s.tasks {
		s.wg.Add(1)
		go s.run(t, s.stop)
	}

	s.logger.Info("Scheduler started", "tasks", len(s.tasks))
}

// Stop cancels all tickers and waits for in-flight callbacks to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) run(t task, stop chan struct{}) {
	defer s.wg.Done()

	ticker := s.clock.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C():
			t.fn(now)
		}
	}
}
