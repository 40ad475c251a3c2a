// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package packet

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEncryptedStream is returned when a Reader encounters the "SILE"
// eye-catcher. The caller must wrap the source with a decrypting
// reader before decoding packets.
var ErrEncryptedStream = errors.New("packet: stream is encrypted")

// maxBodySize rejects records whose claimed body size is absurd,
// which protects the reader from corrupt or truncated streams.
const maxBodySize = 64 << 20

// Reader decodes a SIL binary stream back into packets. It consumes a
// leading "SILF" eye-catcher transparently; every Read after that
// returns one packet, and io.EOF at a clean end of stream.
type Reader struct {
	source        *bufio.Reader
	checkedHeader bool
}

// NewReader returns a Reader decoding from source.
func NewReader(source io.Reader) *Reader {
	return &Reader{source: bufio.NewReader(source)}
}

// Read decodes and returns the next packet.
func (r *Reader) Read() (Packet, error) {
	if !r.checkedHeader {
		r.checkedHeader = true
		if err := r.skipEyeCatcher(); err != nil {
			return nil, err
		}
	}

	var header [recordHeaderSize]byte
	if _, err := io.ReadFull(r.source, header[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("packet: truncated record header: %w", err)
		}
		return nil, err
	}
	tag := Type(binary.LittleEndian.Uint16(header[0:2]))
	bodySize := binary.LittleEndian.Uint32(header[2:6])
	if bodySize > maxBodySize {
		return nil, fmt.Errorf("packet: implausible body size %d for %s record", bodySize, tag)
	}

	body := make([]byte, bodySize)
	if _, err := io.ReadFull(r.source, body); err != nil {
		return nil, fmt.Errorf("packet: truncated %s body: %w", tag, err)
	}
	return decodeBody(tag, body)
}

// skipEyeCatcher consumes a leading stream eye-catcher if present. A
// stream that starts directly with a record (an appended segment read
// in isolation) is accepted as-is.
func (r *Reader) skipEyeCatcher() error {
	prefix, err := r.source.Peek(EyeCatcherSize)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return err
	}
	switch {
	case bytes.Equal(prefix, EyeCatcherPlain):
		_, err = r.source.Discard(EyeCatcherSize)
		return err
	case bytes.Equal(prefix, EyeCatcherEncrypted):
		return ErrEncryptedStream
	}
	return nil
}

func decodeBody(tag Type, body []byte) (Packet, error) {
	c := &cursor{data: body}

	var head Header
	head.Level = Level(c.u8())
	head.Timestamp = FromTicks(c.i64())
	head.ProcessID = c.u32()
	head.ThreadID = c.u32()

	var p Packet
	switch tag {
	case TypeLogEntry:
		entry := &LogEntry{Header: head}
		entry.SessionName = c.str()
		entry.Title = c.str()
		entry.HostName = c.str()
		entry.AppName = c.str()
		entry.EntryType = LogEntryType(c.u32())
		entry.ViewerID = ViewerID(c.u32())
		entry.Color = c.u32()
		entry.Data = c.blob()
		p = entry
	case TypeWatch:
		watch := &Watch{Header: head}
		watch.Name = c.str()
		watch.Value = c.str()
		watch.WatchType = WatchType(c.u32())
		p = watch
	case TypeProcessFlow:
		flow := &ProcessFlow{Header: head}
		flow.Title = c.str()
		flow.HostName = c.str()
		flow.FlowType = FlowType(c.u32())
		p = flow
	case TypeControlCommand:
		command := &ControlCommand{Header: head}
		command.CommandType = CommandType(c.u32())
		command.Data = c.blob()
		p = command
	case TypeLogHeader:
		logHeader := &LogHeader{Header: head}
		parseHeaderContent(c.str(), logHeader)
		p = logHeader
	default:
		return nil, fmt.Errorf("packet: unknown type tag %d", tag)
	}

	if c.err != nil {
		return nil, fmt.Errorf("packet: malformed %s body: %w", tag, c.err)
	}
	return p, nil
}

// parseHeaderContent restores LogHeader fields from its key=value
// line content.
func parseHeaderContent(content string, header *LogHeader) {
	for _, line := range strings.Split(content, "\r\n") {
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		switch key {
		case "hostname":
			header.HostName = value
		case "appname":
			header.AppName = value
		}
	}
}

// cursor walks a record body, latching the first out-of-bounds error.
// Once err is set, every accessor returns a zero value.
type cursor struct {
	data []byte
	off  int
	err  error
}

func (c *cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.off+n > len(c.data) {
		c.err = fmt.Errorf("need %d bytes at offset %d, have %d", n, c.off, len(c.data)-c.off)
		return nil
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b
}

func (c *cursor) u8() uint8 {
	b := c.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (c *cursor) u32() uint32 {
	b := c.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (c *cursor) i32() int32 { return int32(c.u32()) }

func (c *cursor) i64() int64 {
	b := c.take(8)
	if b == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b))
}

func (c *cursor) str() string {
	length := c.i32()
	if length < 0 {
		if c.err == nil {
			c.err = fmt.Errorf("negative string length %d", length)
		}
		return ""
	}
	return string(c.take(int(length)))
}

func (c *cursor) blob() []byte {
	length := c.i32()
	if length == -1 {
		return nil
	}
	if length < 0 {
		if c.err == nil {
			c.err = fmt.Errorf("negative blob length %d", length)
		}
		return nil
	}
	b := c.take(int(length))
	if b == nil {
		return nil
	}
	out := make([]byte, length)
	copy(out, b)
	return out
}
