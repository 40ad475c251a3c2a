// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"io"

	"github.com/wirelog/wirelog/lib/clock"
	"github.com/wirelog/wirelog/packet"
)

// fileTransport writes packets to a binary SIL log file. Fresh streams
// start with the "SILF" eye-catcher, or "SILE" plus the IV when
// encryption is enabled.
type fileTransport struct {
	sink      fileSink
	formatter *packet.Formatter
}

func newFileTransport(clk clock.Clock) *fileTransport {
	t := &fileTransport{formatter: packet.NewFormatter()}
	t.sink.clk = clk
	t.sink.header = []byte("SILF")
	return t
}

func (t *fileTransport) Name() string { return "file" }

func (t *fileTransport) IsValidOption(name string) bool {
	switch name {
	case "filename", "append", "buffer",
		"rotate", "maxsize", "maxparts", "rotate.compress",
		"encrypt", "key":
		return true
	}
	return false
}

func (t *fileTransport) LoadOptions(set *OptionSet) error {
	if err := t.sink.loadOptions(set, "log.sil"); err != nil {
		return err
	}
	return t.sink.loadEncryptionOptions(set)
}

func (t *fileTransport) InternalConnect() error {
	return t.sink.connect()
}

func (t *fileTransport) InternalWritePacket(p packet.Packet) (int, error) {
	size, err := t.formatter.Compile(p)
	if err != nil {
		return 0, err
	}
	if err := t.sink.write(size, func(w io.Writer) error {
		return t.formatter.Write(w)
	}); err != nil {
		return 0, err
	}
	return size, nil
}

func (t *fileTransport) InternalDisconnect() error {
	return t.sink.disconnect()
}

func (t *fileTransport) InternalDispatch(*DispatchContext) error { return nil }
