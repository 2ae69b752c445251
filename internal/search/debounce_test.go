package search

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testQuiet = 15 * time.Millisecond

type recorder struct {
	mu   sync.Mutex
	runs []string
}

func (r *recorder) run(query string, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, query)
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.runs))
	copy(out, r.runs)
	return out
}

func TestFiresOnceAfterQuietPeriod(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler(testQuiet, MinQueryLength, rec.run)
	defer s.Stop()

	assert.True(t, s.Update("para"))

	require.Eventually(t, func() bool {
		return len(rec.seen()) == 1
	}, time.Second, 2*time.Millisecond)
	assert.Equal(t, []string{"para"}, rec.seen())

	// Nothing else fires without another keystroke.
	time.Sleep(3 * testQuiet)
	assert.Equal(t, []string{"para"}, rec.seen())
}

func TestNewKeystrokeSupersedesPendingTask(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler(testQuiet, MinQueryLength, rec.run)
	defer s.Stop()

	s.Update("pa")
	s.Update("par")
	s.Update("para")

	require.Eventually(t, func() bool {
		return len(rec.seen()) == 1
	}, time.Second, 2*time.Millisecond)
	assert.Equal(t, []string{"para"}, rec.seen())
}

func TestShortQueryNeverSchedules(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler(testQuiet, MinQueryLength, rec.run)
	defer s.Stop()

	assert.False(t, s.Update(""))
	assert.False(t, s.Update("p"))
	assert.False(t, s.Update("  p  "))

	time.Sleep(3 * testQuiet)
	assert.Empty(t, rec.seen())
}

func TestShortQueryCancelsPendingTask(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler(testQuiet, MinQueryLength, rec.run)
	defer s.Stop()

	s.Update("para")
	assert.False(t, s.Update("p"))

	time.Sleep(3 * testQuiet)
	assert.Empty(t, rec.seen())
}

func TestLatestTracksGenerations(t *testing.T) {
	s := NewScheduler(testQuiet, MinQueryLength, func(string, uint64) {})
	defer s.Stop()

	s.Update("para")
	gen := s.Generation()
	assert.True(t, s.Latest(gen))

	s.Update("parac")
	assert.False(t, s.Latest(gen), "an older generation must read as superseded")
	assert.True(t, s.Latest(s.Generation()))
}

func TestStopCancelsAndInvalidates(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler(testQuiet, MinQueryLength, rec.run)

	s.Update("para")
	gen := s.Generation()
	s.Stop()

	assert.False(t, s.Latest(gen))
	time.Sleep(3 * testQuiet)
	assert.Empty(t, rec.seen())
}

func TestQueryTrimmedBeforeScheduling(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler(testQuiet, MinQueryLength, rec.run)
	defer s.Stop()

	s.Update("  para  ")

	require.Eventually(t, func() bool {
		return len(rec.seen()) == 1
	}, time.Second, 2*time.Millisecond)
	assert.Equal(t, []string{"para"}, rec.seen())
}
