// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"
	"time"

	"github.com/wirelog/wirelog/connections"
)

// OptionSet is the validated key/value view of one protocol's parsed
// option text. Typed accessors wrap the value parsers in
// package connections and name the offending key in their errors.
type OptionSet struct {
	keys   []string
	values map[string]string
}

// ParseOptionSet tokenizes a raw option string into an OptionSet,
// preserving discovery order.
func ParseOptionSet(raw string) (*OptionSet, error) {
	set := &OptionSet{values: make(map[string]string)}
	err := connections.ParseOptions(raw, func(key, value string) error {
		if _, seen := set.values[key]; !seen {
			set.keys = append(set.keys, key)
		}
		set.values[key] = value
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// Keys returns the option names in discovery order.
func (s *OptionSet) Keys() []string { return s.keys }

// Has reports whether the option was supplied.
func (s *OptionSet) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Get returns the raw value, or fallback when the option is absent.
func (s *OptionSet) Get(key, fallback string) string {
	if value, ok := s.values[key]; ok {
		return value
	}
	return fallback
}

// Bool returns the option parsed as a boolean.
func (s *OptionSet) Bool(key string, fallback bool) (bool, error) {
	value, ok := s.values[key]
	if !ok {
		return fallback, nil
	}
	parsed, err := connections.Bool(value)
	if err != nil {
		return false, fmt.Errorf("option %q: %w", key, err)
	}
	return parsed, nil
}

// Int returns the option parsed as a decimal integer.
func (s *OptionSet) Int(key string, fallback int) (int, error) {
	value, ok := s.values[key]
	if !ok {
		return fallback, nil
	}
	parsed, err := connections.Int(value)
	if err != nil {
		return 0, fmt.Errorf("option %q: %w", key, err)
	}
	return parsed, nil
}

// Size returns the option parsed as a byte count (bare numbers count
// kilobytes).
func (s *OptionSet) Size(key string, fallback int64) (int64, error) {
	value, ok := s.values[key]
	if !ok {
		return fallback, nil
	}
	parsed, err := connections.Size(value)
	if err != nil {
		return 0, fmt.Errorf("option %q: %w", key, err)
	}
	return parsed, nil
}

// Duration returns the option parsed as a duration (bare numbers
// count seconds).
func (s *OptionSet) Duration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := s.values[key]
	if !ok {
		return fallback, nil
	}
	parsed, err := connections.Duration(value)
	if err != nil {
		return 0, fmt.Errorf("option %q: %w", key, err)
	}
	return parsed, nil
}
