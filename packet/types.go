// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package packet

// LogEntryType classifies a LogEntry for the sink's presentation
// layer. Values are part of the wire format.
type LogEntryType uint32

const (
	EntrySeparator   LogEntryType = 0
	EntryEnterMethod LogEntryType = 1
	EntryLeaveMethod LogEntryType = 2
	EntryMessage     LogEntryType = 100
	EntryWarning     LogEntryType = 101
	EntryError       LogEntryType = 102
	EntryComment     LogEntryType = 105
	EntryVariable    LogEntryType = 106
)

// ViewerID selects how a sink renders a LogEntry's data blob.
type ViewerID uint32

const (
	ViewerTitle  ViewerID = 0
	ViewerData   ViewerID = 1
	ViewerList   ViewerID = 2
	ViewerBinary ViewerID = 200
)

// DefaultColor is the "no color assigned" sentinel in the LogEntry
// color field (fully transparent).
const DefaultColor uint32 = 0xff000000

// LogEntry is a log message, optionally carrying a data blob rendered
// by the viewer identified by ViewerID.
type LogEntry struct {
	Header
	SessionName string
	Title       string
	HostName    string
	AppName     string
	EntryType   LogEntryType
	ViewerID    ViewerID
	// Color is the 0xAABBGGRR background color hint for the sink.
	Color uint32
	// Data is the viewer payload. Nil and empty are distinct on the
	// wire.
	Data []byte
}

// PacketType implements Packet.
func (*LogEntry) PacketType() Type { return TypeLogEntry }

// WatchType declares the logical type of a watch value, which is
// always transmitted as a string.
type WatchType uint32

const (
	WatchChar WatchType = iota
	WatchString
	WatchInteger
	WatchFloat
	WatchBoolean
	WatchAddress
	WatchTimestamp
	WatchObject
)

// Watch is a named value snapshot shown in the sink's watch panel.
type Watch struct {
	Header
	Name      string
	Value     string
	WatchType WatchType
}

// PacketType implements Packet.
func (*Watch) PacketType() Type { return TypeWatch }

// FlowType classifies a ProcessFlow marker.
type FlowType uint32

const (
	FlowEnterMethod FlowType = iota
	FlowLeaveMethod
	FlowEnterThread
	FlowLeaveThread
	FlowEnterProcess
	FlowLeaveProcess
)

// ProcessFlow marks entering or leaving a method, thread, or process,
// letting the sink reconstruct call and lifetime hierarchies.
type ProcessFlow struct {
	Header
	Title    string
	HostName string
	FlowType FlowType
}

// PacketType implements Packet.
func (*ProcessFlow) PacketType() Type { return TypeProcessFlow }

// CommandType identifies a control command action.
type CommandType uint32

const (
	CommandClearLog CommandType = iota
	CommandClearWatches
	CommandClearAutoViews
	CommandClearAll
	CommandClearProcessFlow
)

// ControlCommand instructs the sink to perform an action that is not a
// log write, such as clearing a panel.
type ControlCommand struct {
	Header
	CommandType CommandType
	Data        []byte
}

// PacketType implements Packet.
func (*ControlCommand) PacketType() Type { return TypeControlCommand }

// LogHeader is the first packet of a stream, announcing the
// originating host and application as "key=value" lines.
type LogHeader struct {
	Header
	HostName string
	AppName  string
}

// PacketType implements Packet.
func (*LogHeader) PacketType() Type { return TypeLogHeader }

// Content renders the header's key=value lines as transmitted on the
// wire.
func (h *LogHeader) Content() string {
	return "hostname=" + h.HostName + "\r\nappname=" + h.AppName + "\r\n"
}
