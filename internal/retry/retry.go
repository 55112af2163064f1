// Package retry implements the reconnect backoff sequence used by the hub
// client: an unbounded stream of attempt numbers with randomized exponential
// backoff between them, stoppable from any goroutine.
package retry

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	DefaultMinWait = 2.0
	DefaultMaxWait = 16.0
)

// Scheduler produces attempt numbers 1, 2, 3, ... pausing between each by
// uniform(0,1) * clamp(attempt^2, minWait, maxWait) seconds. Success resets
// the counter to zero; Done ends the sequence, waking any in-progress wait
// immediately.
type Scheduler struct {
	MinWait float64
	MaxWait float64

	mu        sync.Mutex
	attempt   int
	firstCall bool
	done      chan struct{}
	doneOne   sync.Once
}

// New builds a Scheduler with the given bounds. Zero values select the
// package defaults.
func New(minWait, maxWait float64) *Scheduler {
	if minWait <= 0 {
		minWait = DefaultMinWait
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &Scheduler{
		MinWait:   minWait,
		MaxWait:   maxWait,
		firstCall: true,
		done:      make(chan struct{}),
	}
}

// Success resets the attempt counter after a successful connect.
func (s *Scheduler) Success() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempt = 0
}

// Done terminates the sequence; any in-progress or future Next call returns
// false immediately.
func (s *Scheduler) Done() {
	s.doneOne.Do(func() { close(s.done) })
}

// Next blocks for the backoff interval (or until Done/ctx is triggered) and
// returns the next attempt number. ok is false if the sequence has ended.
func (s *Scheduler) Next(ctx context.Context) (attempt int, ok bool) {
	s.mu.Lock()
	s.attempt++
	attempt = s.attempt
	isVeryFirstCall := s.firstCall
	s.firstCall = false
	s.mu.Unlock()

	if isVeryFirstCall {
		// Only the scheduler's true first-ever call fires immediately,
		// matching the Python generator yielding before ever sleeping. A
		// later call that happens to land on attempt == 1 because Success
		// just reset the counter still waits uniform(0,1) * min_wait.
		select {
		case <-s.done:
			return attempt, false
		default:
			return attempt, true
		}
	}

	wait := s.sleepFor(attempt - 1)
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-s.done:
		return attempt, false
	case <-ctx.Done():
		return attempt, false
	case <-timer.C:
		return attempt, true
	}
}

func (s *Scheduler) sleepFor(attempt int) time.Duration {
	sq := math.Pow(float64(attempt), 2)
	clamped := math.Max(s.MinWait, math.Min(s.MaxWait, sq))
	seconds := rand.Float64() * clamped
	return time.Duration(seconds * float64(time.Second))
}
