// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package packet

import (
	"strconv"
	"strings"
)

// DefaultPattern is the line layout used by text-mode sinks when no
// pattern option is configured.
const DefaultPattern = "[%timestamp%] %level%: %title%"

// timestampLayout renders pattern timestamps with millisecond
// precision.
const timestampLayout = "2006-01-02 15:04:05.000"

// TextFormatter renders packets as human-readable lines according to
// a pattern of literal text and %variable% references. Recognized
// variables: timestamp, level, title, session, hostname, appname,
// processid, threadid. Unknown variables pass through untouched.
//
// With indent enabled, enter/leave markers shift subsequent lines by
// three spaces per nesting level. Not safe for concurrent use.
type TextFormatter struct {
	parts  []patternPart
	indent bool
	depth  int
}

type patternPart struct {
	text     string
	variable bool
}

// NewTextFormatter parses pattern once and returns a formatter. An
// empty pattern selects DefaultPattern.
func NewTextFormatter(pattern string, indent bool) *TextFormatter {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &TextFormatter{parts: parsePattern(pattern), indent: indent}
}

// parsePattern splits "literal %var% literal" into parts. A variable
// needs both delimiters; a dangling % stays literal.
func parsePattern(pattern string) []patternPart {
	var parts []patternPart
	for len(pattern) > 0 {
		start := strings.IndexByte(pattern, '%')
		if start < 0 {
			parts = append(parts, patternPart{text: pattern})
			break
		}
		end := strings.IndexByte(pattern[start+1:], '%')
		if end < 0 {
			parts = append(parts, patternPart{text: pattern})
			break
		}
		if start > 0 {
			parts = append(parts, patternPart{text: pattern[:start]})
		}
		parts = append(parts, patternPart{text: pattern[start+1 : start+1+end], variable: true})
		pattern = pattern[start+1+end+1:]
	}
	return parts
}

// Format renders p as one line (no trailing newline). The second
// result is false for packet kinds a text sink does not render
// (control commands and log headers).
func (f *TextFormatter) Format(p Packet) (string, bool) {
	title, ok := packetTitle(p)
	if !ok {
		return "", false
	}

	if f.indent {
		if leavesScope(p) && f.depth > 0 {
			f.depth--
		}
		title = strings.Repeat("   ", f.depth) + title
		if entersScope(p) {
			f.depth++
		}
	}

	head := p.Head()
	var line strings.Builder
	for _, part := range f.parts {
		if !part.variable {
			line.WriteString(part.text)
			continue
		}
		switch part.text {
		case "timestamp":
			line.WriteString(head.Timestamp.Format(timestampLayout))
		case "level":
			line.WriteString(head.Level.String())
		case "title":
			line.WriteString(title)
		case "session":
			if entry, isEntry := p.(*LogEntry); isEntry {
				line.WriteString(entry.SessionName)
			}
		case "hostname":
			line.WriteString(packetHostName(p))
		case "appname":
			if entry, isEntry := p.(*LogEntry); isEntry {
				line.WriteString(entry.AppName)
			}
		case "processid":
			line.WriteString(strconv.FormatUint(uint64(head.ProcessID), 10))
		case "threadid":
			line.WriteString(strconv.FormatUint(uint64(head.ThreadID), 10))
		default:
			line.WriteByte('%')
			line.WriteString(part.text)
			line.WriteByte('%')
		}
	}
	return line.String(), true
}

func packetTitle(p Packet) (string, bool) {
	switch p := p.(type) {
	case *LogEntry:
		return p.Title, true
	case *Watch:
		return p.Name + " = " + p.Value, true
	case *ProcessFlow:
		return p.Title, true
	}
	return "", false
}

func packetHostName(p Packet) string {
	switch p := p.(type) {
	case *LogEntry:
		return p.HostName
	case *ProcessFlow:
		return p.HostName
	}
	return ""
}

func entersScope(p Packet) bool {
	switch p := p.(type) {
	case *LogEntry:
		return p.EntryType == EntryEnterMethod
	case *ProcessFlow:
		return p.FlowType == FlowEnterMethod
	}
	return false
}

func leavesScope(p Packet) bool {
	switch p := p.(type) {
	case *LogEntry:
		return p.EntryType == EntryLeaveMethod
	case *ProcessFlow:
		return p.FlowType == FlowLeaveMethod
	}
	return false
}
