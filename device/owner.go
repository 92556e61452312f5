// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Ownership errors.
var (
	// ErrNotOwner is returned when a thread other than the owner uses a
	// handle.
	ErrNotOwner = errors.New("device: caller does not own the context")

	// ErrCurrent is returned by MoveTo while the context is current.
	ErrCurrent = errors.New("device: context is current")

	// ErrCurrentElsewhere is returned by MakeCurrent when the context is
	// current for another owner.
	ErrCurrentElsewhere = errors.New("device: context is current on another thread")

	// ErrWrongThread is returned when a thread-bound owner is used from a
	// different OS thread.
	ErrWrongThread = errors.New("device: owner used from a different OS thread")
)

var ownerSeq atomic.Uint64

// Owner identifies a thread that may own a context.
type Owner struct {
	id   uint64
	name string
	tid  int // OS thread id, 0 when not bound
}

// NewOwner returns an owner that is not bound to an OS thread.
// Use it for the control side, which may run on any goroutine.
func NewOwner(name string) *Owner {
	return &Owner{id: ownerSeq.Add(1), name: name}
}

// NewThreadOwner returns an owner bound to the calling OS thread.
// The caller must have called runtime.LockOSThread. On platforms without
// thread ids the owner is not bound.
func NewThreadOwner(name string) *Owner {
	return &Owner{id: ownerSeq.Add(1), name: name, tid: threadID()}
}

// Name returns the owner name.
func (o *Owner) Name() string { return o.name }

// ThreadID returns the bound OS thread id, or 0.
func (o *Owner) ThreadID() int { return o.tid }

func (o *Owner) String() string {
	if o == nil {
		return "<nil>"
	}
	if o.tid != 0 {
		return fmt.Sprintf("%s#%d(tid %d)", o.name, o.id, o.tid)
	}
	return fmt.Sprintf("%s#%d", o.name, o.id)
}

// onThread reports whether the calling thread may act as o.
func (o *Owner) onThread() bool {
	return o.tid == 0 || o.tid == threadID()
}

// Handle wraps a Context with exclusive ownership.
//
// Exactly one owner holds the context at a time. Only the owner may make
// it current, and ownership moves only while it is not current.
type Handle struct {
	mu       sync.Mutex
	ctx      Context
	owner    *Owner
	current  *Owner
	released bool
}

// NewHandle wraps ctx, owned by owner.
func NewHandle(ctx Context, owner *Owner) *Handle {
	return &Handle{ctx: ctx, owner: owner}
}

// Owner returns the current owner.
func (h *Handle) Owner() *Owner {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.owner
}

// Current returns the owner the context is current for, or nil.
func (h *Handle) Current() *Owner {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// MoveTo transfers ownership from one owner to another.
func (h *Handle) MoveTo(from, to *Owner) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.check(from); err != nil {
		return err
	}
	if h.current != nil {
		return ErrCurrent
	}
	if to == nil {
		return errors.New("device: nil owner")
	}
	h.owner = to
	return nil
}

// MakeCurrent makes the context current on s for by.
func (h *Handle) MakeCurrent(by *Owner, s *Surface) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.check(by); err != nil {
		return err
	}
	if h.current != nil && h.current != by {
		return ErrCurrentElsewhere
	}
	if err := h.ctx.MakeCurrent(s); err != nil {
		return err
	}
	h.current = by
	return nil
}

// DoneCurrent releases the current binding if by holds it.
func (h *Handle) DoneCurrent(by *Owner) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released || h.current != by {
		return
	}
	h.ctx.DoneCurrent()
	h.current = nil
}

// Context returns the wrapped context for use by its owner.
func (h *Handle) Context(by *Owner) (Context, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.check(by); err != nil {
		return nil, err
	}
	return h.ctx, nil
}

// Release destroys the context. Releasing twice is a no-op.
func (h *Handle) Release(by *Owner) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return nil
	}
	if err := h.check(by); err != nil {
		return err
	}
	if h.current != nil {
		h.ctx.DoneCurrent()
		h.current = nil
	}
	h.released = true
	return h.ctx.Release()
}

// Released reports whether Release has been called.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// check must be called with h.mu held.
func (h *Handle) check(by *Owner) error {
	if h.released {
		return ErrReleased
	}
	if by == nil || by != h.owner {
		return ErrNotOwner
	}
	if !by.onThread() {
		return ErrWrongThread
	}
	return nil
}
