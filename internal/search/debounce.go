// Package search schedules debounced catalog queries: one lookup per quiet
// period, newest query wins.
package search

import (
	"strings"
	"sync"
	"time"
)

const (
	DefaultQuietPeriod = 300 * time.Millisecond
	MinQueryLength     = 2
)

// Func runs once the operator pauses typing. It receives the query that
// survived the quiet period and the generation it belongs to. Implementations
// must re-check Latest(gen) before publishing results, a response landing
// after a newer keystroke is discarded, never merged.
type Func func(query string, gen uint64)

// Scheduler is a cancellable debounce timer. Every Update supersedes any
// pending task, so at most one query fires per quiet period.
type Scheduler struct {
	mu     sync.Mutex
	quiet  time.Duration
	minLen int
	run    Func
	gen    uint64
	timer  *time.Timer
}

func NewScheduler(quiet time.Duration, minLen int, run Func) *Scheduler {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	if minLen <= 0 {
		minLen = MinQueryLength
	}
	return &Scheduler{quiet: quiet, minLen: minLen, run: run}
}

// Update records a keystroke. It cancels whatever was pending and, when the
// trimmed query meets the minimum length, schedules a fresh task. The false
// return tells the caller the query was too short and no lookup will fire,
// any previous results should be dropped.
func (s *Scheduler) Update(query string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	q := strings.TrimSpace(query)
	if len([]rune(q)) < s.minLen {
		return false
	}

	gen := s.gen
	s.timer = time.AfterFunc(s.quiet, func() {
		if s.Latest(gen) {
			s.run(q, gen)
		}
	})
	return true
}

// Latest reports whether gen is still the newest generation.
func (s *Scheduler) Latest(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.gen
}

// Generation returns the current generation counter.
func (s *Scheduler) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Stop cancels any pending task and invalidates in-flight generations.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
