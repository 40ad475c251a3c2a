// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package packet

import "time"

// The wire encodes timestamps as 100-nanosecond ticks counted from
// 0001-01-01 00:00:00 UTC. unixEpochTicks is the tick value of the
// Unix epoch in that scheme.
const unixEpochTicks = 621355968000000000

// ToTicks converts a time to wire ticks. Sub-tick precision (the two
// low decimal digits of the nanosecond count) is truncated.
func ToTicks(t time.Time) int64 {
	return unixEpochTicks + t.UnixNano()/100
}

// FromTicks converts wire ticks back to a UTC time.
func FromTicks(ticks int64) time.Time {
	return time.Unix(0, (ticks-unixEpochTicks)*100).UTC()
}
