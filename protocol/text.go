// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"io"

	"github.com/wirelog/wirelog/lib/clock"
	"github.com/wirelog/wirelog/packet"
)

// utf8BOM starts fresh text log files so editors pick the right
// encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textTransport writes packets as human-readable lines. It shares the
// file sink with the binary transport (rotation, buffering, part
// trimming) but never encrypts: text logs exist to be read in place.
type textTransport struct {
	sink      fileSink
	formatter *packet.TextFormatter
}

func newTextTransport(clk clock.Clock) *textTransport {
	t := &textTransport{}
	t.sink.clk = clk
	t.sink.header = utf8BOM
	return t
}

func (t *textTransport) Name() string { return "text" }

func (t *textTransport) IsValidOption(name string) bool {
	switch name {
	case "filename", "append", "buffer",
		"rotate", "maxsize", "maxparts", "rotate.compress",
		"indent", "pattern":
		return true
	}
	return false
}

func (t *textTransport) LoadOptions(set *OptionSet) error {
	if err := t.sink.loadOptions(set, "log.txt"); err != nil {
		return err
	}
	indent, err := set.Bool("indent", false)
	if err != nil {
		return err
	}
	t.formatter = packet.NewTextFormatter(set.Get("pattern", ""), indent)
	return nil
}

func (t *textTransport) InternalConnect() error {
	return t.sink.connect()
}

func (t *textTransport) InternalWritePacket(p packet.Packet) (int, error) {
	line, ok := t.formatter.Format(p)
	if !ok {
		// Control commands and log headers have no text rendering.
		return 0, nil
	}
	data := []byte(line + "\n")
	if err := t.sink.write(len(data), func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return 0, err
	}
	return len(data), nil
}

func (t *textTransport) InternalDisconnect() error {
	return t.sink.disconnect()
}

func (t *textTransport) InternalDispatch(*DispatchContext) error { return nil }
