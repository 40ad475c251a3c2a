// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package connections

import (
	"fmt"
	"strings"
)

// ParseOptions tokenizes one protocol's raw option text
// (`key=value, key2="quoted, value"`) and calls emit once per pair in
// left-to-right order. Whitespace around keys, '=' and ',' is
// trimmed; quoted values are unescaped (\" to " and \\ to \). An emit
// error aborts the scan and is returned.
func ParseOptions(raw string, emit func(key, value string) error) error {
	pos := 0
	n := len(raw)
	for {
		pos = skipSpace(raw, pos)
		if pos >= n {
			return nil
		}
		if raw[pos] == ',' {
			// Empty segment (leading, trailing, or doubled comma).
			pos++
			continue
		}

		equals := strings.IndexByte(raw[pos:], '=')
		if equals < 0 {
			return &ParseError{Offset: pos, Reason: fmt.Sprintf("option %q has no '='", strings.TrimSpace(raw[pos:]))}
		}
		equals += pos
		key := strings.TrimSpace(raw[pos:equals])
		if key == "" {
			return &ParseError{Offset: pos, Reason: "missing option name before '='"}
		}

		value, next, err := scanOptionValue(raw, equals+1)
		if err != nil {
			return err
		}
		if err := emit(key, value); err != nil {
			return err
		}

		pos = skipSpace(raw, next)
		if pos >= n {
			return nil
		}
		if raw[pos] != ',' {
			return &ParseError{Offset: pos, Reason: fmt.Sprintf("expected ',' after option value, found %q", raw[pos])}
		}
		pos++
	}
}

// scanOptionValue reads one option value starting at pos, returning
// the unescaped value and the position just past it.
func scanOptionValue(raw string, pos int) (string, int, error) {
	pos = skipSpace(raw, pos)
	if pos < len(raw) && raw[pos] == '"' {
		return scanQuotedValue(raw, pos)
	}

	end := strings.IndexByte(raw[pos:], ',')
	if end < 0 {
		end = len(raw)
	} else {
		end += pos
	}
	return strings.TrimSpace(raw[pos:end]), end, nil
}

func scanQuotedValue(raw string, quoteStart int) (string, int, error) {
	var value strings.Builder
	for i := quoteStart + 1; i < len(raw); i++ {
		switch c := raw[i]; c {
		case '\\':
			if i+1 < len(raw) && (raw[i+1] == '"' || raw[i+1] == '\\') {
				value.WriteByte(raw[i+1])
				i++
				continue
			}
			value.WriteByte(c)
		case '"':
			return value.String(), i + 1, nil
		default:
			value.WriteByte(c)
		}
	}
	return "", 0, &ParseError{Offset: quoteStart, Reason: "unmatched '\"' in option value"}
}
