// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for testability. Production code injects
// Real(); tests inject Fake() and advance it deterministically.
//
// Everything in this library that looks at the wall clock (reconnect
// pacing, rotation boundaries, scheduler backoff) goes through a Clock
// so tests never sleep.
package clock

import "time"

// Clock is the subset of the time package this library needs.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives once duration d has
	// elapsed. If d <= 0 the channel receives immediately.
	After(d time.Duration) <-chan time.Time

	// Sleep pauses the calling goroutine for at least d.
	Sleep(d time.Duration)
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
