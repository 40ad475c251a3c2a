// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wirelog/wirelog/packet"
)

// pipeDialTimeout bounds the local socket connect. Local sinks answer
// fast or not at all.
const pipeDialTimeout = 5 * time.Second

// pipeTransport ships packets to a local sink over a named pipe. On
// this platform a pipe name resolves to a Unix domain socket: a value
// containing a path separator is used verbatim, anything else lands
// in the system temp directory with a ".pipe" suffix.
type pipeTransport struct {
	pipeName string

	conn      net.Conn
	formatter *packet.Formatter
}

func newPipeTransport() *pipeTransport {
	return &pipeTransport{formatter: packet.NewFormatter()}
}

func (t *pipeTransport) Name() string { return "pipe" }

func (t *pipeTransport) IsValidOption(name string) bool {
	return name == "pipename"
}

func (t *pipeTransport) LoadOptions(set *OptionSet) error {
	t.pipeName = set.Get("pipename", "smartinspect")
	return nil
}

// socketPath resolves the configured pipe name to a socket path.
func (t *pipeTransport) socketPath() string {
	if strings.ContainsRune(t.pipeName, os.PathSeparator) {
		return t.pipeName
	}
	return filepath.Join(os.TempDir(), t.pipeName+".pipe")
}

func (t *pipeTransport) InternalConnect() error {
	conn, err := net.DialTimeout("unix", t.socketPath(), pipeDialTimeout)
	if err != nil {
		return err
	}
	t.conn = conn
	return nil
}

func (t *pipeTransport) InternalWritePacket(p packet.Packet) (int, error) {
	size, err := t.formatter.Compile(p)
	if err != nil {
		return 0, err
	}
	if err := t.formatter.Write(t.conn); err != nil {
		return 0, err
	}
	return size, nil
}

func (t *pipeTransport) InternalDisconnect() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *pipeTransport) InternalDispatch(*DispatchContext) error { return nil }
