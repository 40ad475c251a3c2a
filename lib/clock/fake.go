// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock pinned to the given time. Time moves only
// when Advance is called; pending After/Sleep waiters whose deadlines
// fall within the advanced window fire in deadline order.
//
// FakeClock is safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	fake := &FakeClock{current: initial}
	fake.registered = sync.NewCond(&fake.mu)
	return fake
}

// FakeClock is a deterministic Clock for tests.
type FakeClock struct {
	mu         sync.Mutex
	current    time.Time
	pending    []*fakeTimer
	registered *sync.Cond
}

type fakeTimer struct {
	deadline time.Time
	ch       chan time.Time
}

// Now returns the current fake time.
func (f *FakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// After returns a channel that receives when the clock is advanced to
// or past the deadline. A non-positive d fires immediately.
func (f *FakeClock) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- f.current
		return ch
	}
	f.pending = append(f.pending, &fakeTimer{deadline: f.current.Add(d), ch: ch})
	f.registered.Broadcast()
	return ch
}

// Sleep blocks the calling goroutine until the clock advances past the
// deadline. A non-positive d returns immediately.
func (f *FakeClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	<-f.After(d)
}

// Advance moves the clock forward by d and fires every pending waiter
// whose deadline is now due, oldest deadline first.
func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.current = f.current.Add(d)
	target := f.current

	var due, remaining []*fakeTimer
	for _, timer := range f.pending {
		if timer.deadline.After(target) {
			remaining = append(remaining, timer)
		} else {
			due = append(due, timer)
		}
	}
	f.pending = remaining
	f.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })
	for _, timer := range due {
		timer.ch <- target
	}
}

// WaitForWaiters blocks until at least n waiters are pending. This
// removes the race between a goroutine calling Sleep/After and the
// test advancing the clock:
//
//	go worker(fake)            // worker will sleep
//	fake.WaitForWaiters(1)     // blocks until the sleep registers
//	fake.Advance(time.Minute)  // deterministically wakes it
func (f *FakeClock) WaitForWaiters(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.pending) < n {
		f.registered.Wait()
	}
}
