// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

// Package rotate implements time-based log file rotation: boundary
// detection (hourly, daily, weekly, monthly), rotated part naming
// with a UTC timestamp segment, retained-part trimming, and optional
// compression of closed parts.
package rotate

import (
	"fmt"
	"strings"
	"time"
)

// Mode is the rotation granularity.
type Mode int

const (
	// None disables time-based rotation.
	None Mode = iota
	Hourly
	Daily
	Weekly
	Monthly
)

// ParseMode parses a rotate option value.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "none":
		return None, nil
	case "hourly":
		return Hourly, nil
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "monthly":
		return Monthly, nil
	}
	return None, fmt.Errorf("invalid rotate mode %q", value)
}

// String returns the option spelling of the mode.
func (m Mode) String() string {
	switch m {
	case None:
		return "none"
	case Hourly:
		return "hourly"
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	}
	return "unknown"
}

// Rotater detects rotation-boundary crossings. It anchors on the
// period of the stream's opening time; Update reports true exactly
// when a write lands in a later period, and re-anchors.
type Rotater struct {
	mode   Mode
	anchor int64
}

// New returns a Rotater for the given mode. Reset must be called with
// the stream's opening time before the first Update.
func New(mode Mode) *Rotater {
	return &Rotater{mode: mode}
}

// Mode returns the configured granularity.
func (r *Rotater) Mode() Mode { return r.mode }

// Reset anchors the rotater to the period containing now.
func (r *Rotater) Reset(now time.Time) {
	r.anchor = periodIndex(r.mode, now)
}

// Update reports whether now falls past the anchored period's
// boundary. On a crossing the rotater re-anchors to now's period.
func (r *Rotater) Update(now time.Time) bool {
	if r.mode == None {
		return false
	}
	period := periodIndex(r.mode, now)
	if period <= r.anchor {
		return false
	}
	r.anchor = period
	return true
}

// periodIndex maps a time to a monotonically increasing index of its
// rotation period, in UTC.
func periodIndex(mode Mode, t time.Time) int64 {
	t = t.UTC()
	switch mode {
	case Hourly:
		return t.Unix() / 3600
	case Daily:
		return t.Unix() / 86400
	case Weekly:
		// Weeks roll over at Monday 00:00 UTC.
		days := t.Unix() / 86400
		// 1970-01-01 was a Thursday; shift so the index increments
		// on Mondays.
		return (days + 3) / 7
	case Monthly:
		return int64(t.Year())*12 + int64(t.Month()-1)
	}
	return 0
}
