// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/wirelog/wirelog/packet"
)

// Compile-time interface checks for the closed transport set.
var (
	_ Transport = (*tcpTransport)(nil)
	_ Transport = (*pipeTransport)(nil)
	_ Transport = (*fileTransport)(nil)
	_ Transport = (*textTransport)(nil)
	_ Transport = (*memoryTransport)(nil)
)

// ClientBanner identifies this library during the TCP handshake. The
// server answers every packet with a two-byte acknowledgement.
const ClientBanner = "wirelog v1.0\n"

// tcpTransport ships packets to a live viewer or relay over TCP.
type tcpTransport struct {
	host    string
	port    int
	timeout time.Duration

	conn      net.Conn
	reader    *bufio.Reader
	formatter *packet.Formatter
}

func newTCPTransport() *tcpTransport {
	return &tcpTransport{formatter: packet.NewFormatter()}
}

func (t *tcpTransport) Name() string { return "tcp" }

func (t *tcpTransport) IsValidOption(name string) bool {
	switch name {
	case "host", "port", "timeout":
		return true
	}
	return false
}

func (t *tcpTransport) LoadOptions(set *OptionSet) error {
	t.host = set.Get("host", "localhost")

	port, err := set.Int("port", 4228)
	if err != nil {
		return err
	}
	if port <= 0 || port > 65535 {
		return fmt.Errorf("option \"port\": %d out of range", port)
	}
	t.port = port

	// timeout is in milliseconds, matching the option table.
	timeoutMillis, err := set.Int("timeout", 30000)
	if err != nil {
		return err
	}
	t.timeout = time.Duration(timeoutMillis) * time.Millisecond
	return nil
}

// InternalConnect dials the sink and performs the banner exchange:
// the server speaks first with an LF-terminated identification line,
// then the client sends its own banner.
func (t *tcpTransport) InternalConnect() error {
	address := net.JoinHostPort(t.host, strconv.Itoa(t.port))
	conn, err := net.DialTimeout("tcp", address, t.timeout)
	if err != nil {
		return err
	}

	reader := bufio.NewReader(conn)
	deadline := time.Now().Add(t.timeout)
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return err
	}
	if _, err := reader.ReadString('\n'); err != nil {
		conn.Close()
		return fmt.Errorf("reading server banner: %w", err)
	}
	if _, err := io.WriteString(conn, ClientBanner); err != nil {
		conn.Close()
		return fmt.Errorf("sending client banner: %w", err)
	}
	if err := conn.SetDeadline(time.Time{}); err != nil {
		conn.Close()
		return err
	}

	t.conn = conn
	t.reader = reader
	return nil
}

// InternalWritePacket writes one packet and waits for the server's
// two-byte acknowledgement, which turns a silently dead peer into a
// prompt write error.
func (t *tcpTransport) InternalWritePacket(p packet.Packet) (int, error) {
	size, err := t.formatter.Compile(p)
	if err != nil {
		return 0, err
	}
	if err := t.conn.SetDeadline(time.Now().Add(t.timeout)); err != nil {
		return 0, err
	}
	if err := t.formatter.Write(t.conn); err != nil {
		return 0, err
	}
	var ack [2]byte
	if _, err := io.ReadFull(t.reader, ack[:]); err != nil {
		return 0, fmt.Errorf("reading packet acknowledgement: %w", err)
	}
	return size, nil
}

func (t *tcpTransport) InternalDisconnect() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	t.reader = nil
	return err
}

func (t *tcpTransport) InternalDispatch(*DispatchContext) error { return nil }
