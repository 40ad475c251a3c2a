// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package packet

import "time"

// Type tags a packet's kind on the wire. The numeric values are part
// of the SIL format and must not change.
type Type uint16

const (
	// TypeControlCommand instructs the sink (clear log, clear
	// watches, ...).
	TypeControlCommand Type = 1
	// TypeLogEntry is a regular log message with optional viewer data.
	TypeLogEntry Type = 4
	// TypeWatch is a named value snapshot.
	TypeWatch Type = 5
	// TypeProcessFlow marks entering or leaving a method, thread, or
	// process.
	TypeProcessFlow Type = 6
	// TypeLogHeader carries stream metadata (host name, application
	// name) as the first packet of a stream.
	TypeLogHeader Type = 7
)

// String returns the lowercase packet kind name.
func (t Type) String() string {
	switch t {
	case TypeControlCommand:
		return "controlcommand"
	case TypeLogEntry:
		return "logentry"
	case TypeWatch:
		return "watch"
	case TypeProcessFlow:
		return "processflow"
	case TypeLogHeader:
		return "logheader"
	}
	return "unknown"
}

// Level grades packet importance. Protocols and sinks may filter on it.
type Level uint8

const (
	LevelDebug Level = iota
	LevelVerbose
	LevelMessage
	LevelWarning
	LevelError
	LevelFatal
	// LevelControl is reserved for control commands, which bypass
	// level filtering.
	LevelControl
)

// String returns the lowercase level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelVerbose:
		return "verbose"
	case LevelMessage:
		return "message"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	case LevelControl:
		return "control"
	}
	return "unknown"
}

// Header holds the fields common to every packet. Concrete packet
// types embed it.
type Header struct {
	// Level grades the packet's importance.
	Level Level
	// Timestamp is when the packet was created. Serialized as 100 ns
	// ticks since 0001-01-01 UTC.
	Timestamp time.Time
	// ProcessID identifies the originating OS process.
	ProcessID uint32
	// ThreadID identifies the originating thread or goroutine.
	ThreadID uint32
}

// Head exposes the embedded Header through the Packet interface.
func (h *Header) Head() *Header { return h }

// Packet is one unit of telemetry. A packet is built by the caller,
// handed to a protocol by pointer, and must not be mutated after it
// has been written or enqueued.
type Packet interface {
	// PacketType returns the wire type tag.
	PacketType() Type
	// Head returns the common header fields.
	Head() *Header
}
