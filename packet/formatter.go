// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package packet

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Stream eye-catchers. A binary stream opens with exactly one of
// these; the encrypted form is followed by a 16-byte IV.
var (
	EyeCatcherPlain     = []byte("SILF")
	EyeCatcherEncrypted = []byte("SILE")
)

// EyeCatcherSize is the byte length of either eye-catcher.
const EyeCatcherSize = 4

// recordHeaderSize is the per-packet prefix: uint16 type tag plus
// uint32 body size.
const recordHeaderSize = 6

// Formatter serializes packets to the SIL binary layout. Compile
// encodes a packet into an internal buffer and reports the exact
// record size; Write emits the compiled record. A Formatter is reused
// across packets and is not safe for concurrent use.
type Formatter struct {
	tag  Type
	body bytes.Buffer
}

// NewFormatter returns an empty Formatter.
func NewFormatter() *Formatter { return &Formatter{} }

// Compile encodes p and returns the byte size its record will occupy
// on the wire, including the record header. The encoded form stays
// cached until the next Compile.
func (f *Formatter) Compile(p Packet) (int, error) {
	if p == nil {
		return 0, fmt.Errorf("packet: cannot compile nil packet")
	}
	f.tag = p.PacketType()
	f.body.Reset()

	w := wireWriter{buf: &f.body}
	head := p.Head()
	w.u8(uint8(head.Level))
	w.i64(ToTicks(head.Timestamp))
	w.u32(head.ProcessID)
	w.u32(head.ThreadID)

	switch p := p.(type) {
	case *LogEntry:
		w.str(p.SessionName)
		w.str(p.Title)
		w.str(p.HostName)
		w.str(p.AppName)
		w.u32(uint32(p.EntryType))
		w.u32(uint32(p.ViewerID))
		w.u32(p.Color)
		w.blob(p.Data)
	case *Watch:
		w.str(p.Name)
		w.str(p.Value)
		w.u32(uint32(p.WatchType))
	case *ProcessFlow:
		w.str(p.Title)
		w.str(p.HostName)
		w.u32(uint32(p.FlowType))
	case *ControlCommand:
		w.u32(uint32(p.CommandType))
		w.blob(p.Data)
	case *LogHeader:
		w.str(p.Content())
	default:
		return 0, fmt.Errorf("packet: unknown packet type %T", p)
	}
	return recordHeaderSize + f.body.Len(), nil
}

// Write emits the most recently compiled record to w.
func (f *Formatter) Write(w io.Writer) error {
	var header [recordHeaderSize]byte
	binary.LittleEndian.PutUint16(header[0:2], uint16(f.tag))
	binary.LittleEndian.PutUint32(header[2:6], uint32(f.body.Len()))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(f.body.Bytes())
	return err
}

// Encode compiles p and writes its record to w in one step.
func (f *Formatter) Encode(p Packet, w io.Writer) error {
	if _, err := f.Compile(p); err != nil {
		return err
	}
	return f.Write(w)
}

// wireWriter appends little-endian primitives to a buffer.
// bytes.Buffer writes cannot fail, so the helpers return nothing.
type wireWriter struct {
	buf *bytes.Buffer
}

func (w wireWriter) u8(v uint8) {
	w.buf.WriteByte(v)
}

func (w wireWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w wireWriter) i32(v int32) {
	w.u32(uint32(v))
}

func (w wireWriter) i64(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	w.buf.Write(b[:])
}

// str writes an int32 byte length followed by UTF-8 bytes.
func (w wireWriter) str(s string) {
	w.i32(int32(len(s)))
	w.buf.WriteString(s)
}

// blob writes an int32 length followed by the bytes; nil is encoded
// as length -1 and is distinct from an empty slice.
func (w wireWriter) blob(b []byte) {
	if b == nil {
		w.i32(-1)
		return
	}
	w.i32(int32(len(b)))
	w.buf.Write(b)
}
