// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package connections

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Bool parses an option value as a boolean. Accepted spellings:
// true/false, yes/no, on/off, 1/0 (case-insensitive).
func Bool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", value)
}

// Int parses an option value as a decimal integer.
func Int(value string) (int, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", value)
	}
	return parsed, nil
}

// Size parses an option value as a byte count. A bare number counts
// kilobytes; the case-insensitive suffixes KB, MB, and GB select the
// unit explicitly.
func Size(value string) (int64, error) {
	text := strings.TrimSpace(value)
	unit := int64(1024)
	upper := strings.ToUpper(text)
	switch {
	case strings.HasSuffix(upper, "KB"):
		text = text[:len(text)-2]
	case strings.HasSuffix(upper, "MB"):
		unit = 1024 * 1024
		text = text[:len(text)-2]
	case strings.HasSuffix(upper, "GB"):
		unit = 1024 * 1024 * 1024
		text = text[:len(text)-2]
	}
	count, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || count < 0 {
		return 0, fmt.Errorf("invalid size %q", value)
	}
	return count * unit, nil
}

// Duration parses an option value as a duration. A bare number counts
// seconds; the suffixes ms, s, m, and h select the unit explicitly.
func Duration(value string) (time.Duration, error) {
	text := strings.TrimSpace(value)
	unit := time.Second
	lower := strings.ToLower(text)
	switch {
	case strings.HasSuffix(lower, "ms"):
		unit = time.Millisecond
		text = text[:len(text)-2]
	case strings.HasSuffix(lower, "s"):
		text = text[:len(text)-1]
	case strings.HasSuffix(lower, "m"):
		unit = time.Minute
		text = text[:len(text)-1]
	case strings.HasSuffix(lower, "h"):
		unit = time.Hour
		text = text[:len(text)-1]
	}
	count, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || count < 0 {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	return time.Duration(count) * unit, nil
}
