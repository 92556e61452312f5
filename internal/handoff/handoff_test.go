// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package handoff

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCallReturnsServedValue(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		err     error
		wantErr bool
	}{
		{"value", 42, nil, false},
		{"error", 0, errors.New("boom"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Slot[int]
			queue := make(chan *Slot[int], 1)

			go func() {
				slot := <-queue
				slot.Serve(func() (int, error) { return tt.value, tt.err })
			}()

			got, err := s.Call(func() { queue <- &s })
			if (err != nil) != tt.wantErr {
				t.Fatalf("Call() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.value {
				t.Errorf("Call() = %d, want %d", got, tt.value)
			}
			if !s.Done() {
				t.Error("Done() = false after Call returned")
			}
		})
	}
}

// TestFastServerCannotOvertakeCaller posts to a server that is already
// spinning on the queue. The server must block on the slot lock until the
// caller is waiting, so no signal is lost.
func TestFastServerCannotOvertakeCaller(t *testing.T) {
	const rounds = 500

	queue := make(chan *Slot[int])
	go func() {
		for i := 0; i < rounds; i++ {
			slot := <-queue
			n := i
			slot.Serve(func() (int, error) { return n, nil })
		}
	}()

	for i := 0; i < rounds; i++ {
		var s Slot[int]
		got, err := s.Call(func() { queue <- &s })
		if err != nil {
			t.Fatalf("round %d: %v", i, err)
		}
		if got != i {
			t.Fatalf("round %d: got %d", i, got)
		}
	}
}

func TestServeRunsAfterPostReturns(t *testing.T) {
	var s Slot[string]
	posted := make(chan struct{})
	var order []string
	var mu sync.Mutex
	record := func(ev string) {
		mu.Lock()
		order = append(order, ev)
		mu.Unlock()
	}

	go func() {
		<-posted
		s.Serve(func() (string, error) {
			record("serve")
			return "ok", nil
		})
	}()

	_, err := s.Call(func() {
		close(posted)
		// Give the server a chance to race ahead; it must wait for the lock.
		time.Sleep(10 * time.Millisecond)
		record("post")
	})
	if err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "post" || order[1] != "serve" {
		t.Errorf("order = %v, want [post serve]", order)
	}
}

func TestWaitMultipleWaiters(t *testing.T) {
	var s Slot[int]
	var wg sync.WaitGroup
	results := make([]int, 4)

	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _ := s.Wait()
			results[i] = v
		}(i)
	}

	s.Serve(func() (int, error) { return 7, nil })
	wg.Wait()

	for i, v := range results {
		if v != 7 {
			t.Errorf("waiter %d got %d, want 7", i, v)
		}
	}
}

func TestServeTwicePanics(t *testing.T) {
	var s Slot[int]
	s.Serve(func() (int, error) { return 1, nil })

	defer func() {
		if recover() == nil {
			t.Error("second Serve did not panic")
		}
	}()
	s.Serve(func() (int, error) { return 2, nil })
}

func TestDoneBeforeServe(t *testing.T) {
	var s Slot[int]
	if s.Done() {
		t.Error("Done() = true before Serve")
	}
}
