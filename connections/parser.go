// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package connections

import (
	"fmt"
	"strings"
)

// Descriptor is one parsed connections-string section: a protocol
// name and its raw, still-quoted option text.
type Descriptor struct {
	Name    string
	Options string
}

// ParseError reports where in the connections string parsing failed.
type ParseError struct {
	// Offset is the byte position of the offending input.
	Offset int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("connections: %s at offset %d", e.Reason, e.Offset)
}

// Parser scans a connections string and reports each completed
// section to its registered handlers, in registration order, before
// scanning continues. A handler error aborts the parse and is
// returned to the caller.
type Parser struct {
	handlers []func(Descriptor) error
}

// OnDescriptor registers a handler invoked once per parsed section.
// The returned function unregisters it.
func (p *Parser) OnDescriptor(handler func(Descriptor) error) (remove func()) {
	p.handlers = append(p.handlers, handler)
	index := len(p.handlers) - 1
	return func() { p.handlers[index] = nil }
}

// Parse scans the full connections string. An empty or all-whitespace
// string parses to nothing.
func (p *Parser) Parse(input string) error {
	pos := 0
	n := len(input)
	for {
		pos = skipSpace(input, pos)
		if pos >= n {
			return nil
		}

		// Protocol name runs up to the opening parenthesis.
		open := strings.IndexByte(input[pos:], '(')
		if open < 0 {
			return &ParseError{Offset: pos, Reason: fmt.Sprintf("protocol name %q has no option list", strings.TrimSpace(input[pos:]))}
		}
		open += pos
		name := strings.TrimSpace(input[pos:open])
		if name == "" {
			return &ParseError{Offset: pos, Reason: "missing protocol name before '('"}
		}

		optionStart := open + 1
		end, err := scanOptionText(input, optionStart, open)
		if err != nil {
			return err
		}

		descriptor := Descriptor{Name: name, Options: input[optionStart:end]}
		for _, handler := range p.handlers {
			if handler == nil {
				continue
			}
			if err := handler(descriptor); err != nil {
				return err
			}
		}

		pos = skipSpace(input, end+1)
		if pos >= n {
			return nil
		}
		if input[pos] != ',' {
			return &ParseError{Offset: pos, Reason: fmt.Sprintf("expected ',' between connections, found %q", input[pos])}
		}
		pos++
	}
}

// scanOptionText finds the ')' closing the option list that opened at
// openParen, honoring quoting. Returns the index of the ')'.
func scanOptionText(input string, start, openParen int) (int, error) {
	inQuotes := false
	quoteStart := 0
	for i := start; i < len(input); i++ {
		switch c := input[i]; {
		case inQuotes && c == '\\':
			i++ // escaped character, including a quote or backslash
		case inQuotes && c == '"':
			inQuotes = false
		case inQuotes:
			// Quoted text is opaque: commas and parentheses included.
		case c == '"':
			inQuotes = true
			quoteStart = i
		case c == ')':
			return i, nil
		}
	}
	if inQuotes {
		return 0, &ParseError{Offset: quoteStart, Reason: "unmatched '\"' in option value"}
	}
	return 0, &ParseError{Offset: openParen, Reason: "unmatched '('"}
}

func skipSpace(input string, pos int) int {
	for pos < len(input) && (input[pos] == ' ' || input[pos] == '\t' || input[pos] == '\n' || input[pos] == '\r') {
		pos++
	}
	return pos
}

// Parse is the one-shot convenience form: it returns the ordered list
// of descriptors for a connections string.
func Parse(input string) ([]Descriptor, error) {
	var descriptors []Descriptor
	var parser Parser
	parser.OnDescriptor(func(d Descriptor) error {
		descriptors = append(descriptors, d)
		return nil
	})
	if err := parser.Parse(input); err != nil {
		return nil, err
	}
	return descriptors, nil
}
