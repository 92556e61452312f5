// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package handoff implements the one-shot rendezvous between the control
// goroutine and the render thread.
//
// The caller locks the slot, posts the work, and sleeps on a condition
// variable. The render thread locks the same mutex before doing the work, so
// it cannot complete (and signal) before the caller is waiting. The caller
// therefore never misses the wake-up.
package handoff

import (
	"sync"
)

// Slot carries one command result from the render thread to its caller.
//
// A Slot is served exactly once. The zero value is ready to use.
type Slot[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	served bool
	value  T
	err    error
}

func (s *Slot[T]) init() {
	if s.cond == nil {
		s.cond = sync.NewCond(&s.mu)
	}
}

// Call holds the slot lock while post runs, then waits until the slot is
// served and returns the result.
//
// post normally enqueues the command for the render thread. It must not
// block on the render thread finishing, since the lock is held.
func (s *Slot[T]) Call(post func()) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	post()
	for !s.served {
		s.cond.Wait()
	}
	return s.value, s.err
}

// Wait blocks until the slot has been served and returns the result.
// Wait may be called any number of times, from any goroutine.
func (s *Slot[T]) Wait() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	for !s.served {
		s.cond.Wait()
	}
	return s.value, s.err
}

// Serve runs work under the slot lock, stores its result and wakes every
// waiter.
//
// Serve panics if the slot was already served.
func (s *Slot[T]) Serve(work func() (T, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()

	if s.served {
		panic("handoff: slot served twice")
	}
	v, err := work()
	s.value, s.err = v, err
	s.served = true
	s.cond.Broadcast()
}

// Done reports whether the slot has been served.
func (s *Slot[T]) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.served
}
