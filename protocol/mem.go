// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bytes"
	"fmt"
	"io"

	"github.com/wirelog/wirelog/packet"
)

// DefaultMemorySize bounds the in-memory backlog when no maxsize
// option is configured.
const DefaultMemorySize = 8 * 1024 * 1024

// memoryTransport keeps the most recent packets in a bounded byte
// buffer instead of shipping them anywhere. When the bound is reached
// the oldest entries fall out. Dispatch flushes the backlog to an
// io.Writer supplied by the caller, prefixed by the stream header.
type memoryTransport struct {
	maxSize int64
	asText  bool

	header    []byte
	formatter *packet.Formatter
	text      *packet.TextFormatter

	entries [][]byte
	size    int64
}

func newMemoryTransport() *memoryTransport {
	return &memoryTransport{}
}

func (t *memoryTransport) Name() string { return "mem" }

func (t *memoryTransport) IsValidOption(name string) bool {
	switch name {
	case "maxsize", "astext", "indent", "pattern":
		return true
	}
	return false
}

func (t *memoryTransport) LoadOptions(set *OptionSet) error {
	maxSize, err := set.Size("maxsize", DefaultMemorySize)
	if err != nil {
		return err
	}
	t.maxSize = maxSize

	if t.asText, err = set.Bool("astext", false); err != nil {
		return err
	}
	if t.asText {
		indent, err := set.Bool("indent", false)
		if err != nil {
			return err
		}
		t.header = utf8BOM
		t.text = packet.NewTextFormatter(set.Get("pattern", ""), indent)
		t.formatter = nil
	} else {
		t.header = []byte("SILF")
		t.formatter = packet.NewFormatter()
		t.text = nil
	}
	return nil
}

func (t *memoryTransport) InternalConnect() error { return nil }

func (t *memoryTransport) InternalWritePacket(p packet.Packet) (int, error) {
	var entry []byte
	if t.asText {
		line, ok := t.text.Format(p)
		if !ok {
			return 0, nil
		}
		entry = []byte(line + "\n")
	} else {
		var buf bytes.Buffer
		if err := t.formatter.Encode(p, &buf); err != nil {
			return 0, err
		}
		entry = buf.Bytes()
	}

	t.entries = append(t.entries, entry)
	t.size += int64(len(entry))
	for t.size > t.maxSize && len(t.entries) > 0 {
		t.size -= int64(len(t.entries[0]))
		t.entries[0] = nil
		t.entries = t.entries[1:]
	}
	return len(entry), nil
}

// InternalDispatch writes the stream header and the buffered entries,
// oldest first, to the io.Writer carried in the dispatch context. The
// backlog stays intact so later dispatches see the same data.
func (t *memoryTransport) InternalDispatch(ctx *DispatchContext) error {
	if ctx == nil || ctx.Data == nil {
		return nil
	}
	w, ok := ctx.Data.(io.Writer)
	if !ok {
		return fmt.Errorf("mem: dispatch expects an io.Writer, got %T", ctx.Data)
	}
	if _, err := w.Write(t.header); err != nil {
		return err
	}
	for _, entry := range t.entries {
		if _, err := w.Write(entry); err != nil {
			return err
		}
	}
	return nil
}

func (t *memoryTransport) InternalDisconnect() error {
	t.entries = nil
	t.size = 0
	return nil
}
