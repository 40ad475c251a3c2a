// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package wirelog

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wirelog/wirelog/lib/config"
	"github.com/wirelog/wirelog/packet"
	"github.com/wirelog/wirelog/protocol"
)

func decodeAll(t *testing.T, r io.Reader) []packet.Packet {
	t.Helper()
	decoder := packet.NewReader(r)
	var packets []packet.Packet
	for {
		p, err := decoder.Read()
		if err == io.EOF {
			return packets
		}
		if err != nil {
			t.Fatal(err)
		}
		packets = append(packets, p)
	}
}

func TestClientMemoryRoundTrip(t *testing.T) {
	t.Parallel()
	client, err := New(Options{
		AppName:     "orders",
		HostName:    "web-1",
		Connections: "mem()",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := client.Connect(); err != nil {
		t.Fatal(err)
	}
	defer client.Disconnect()

	if err := client.Write(&packet.LogEntry{Title: "order placed"}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := client.Dispatch(&protocol.DispatchContext{Data: &buf}); err != nil {
		t.Fatal(err)
	}
	packets := decodeAll(t, &buf)
	if len(packets) != 1 {
		t.Fatalf("decoded %d packets, want 1", len(packets))
	}
	entry := packets[0].(*packet.LogEntry)
	if entry.Title != "order placed" {
		t.Errorf("Title = %q, want order placed", entry.Title)
	}
}

func TestClientStampsIdentity(t *testing.T) {
	t.Parallel()
	client, err := New(Options{
		AppName:     "orders",
		HostName:    "web-1",
		Connections: "mem()",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := client.Connect(); err != nil {
		t.Fatal(err)
	}
	defer client.Disconnect()

	if err := client.Write(&packet.LogEntry{Title: "stamped"}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := client.Dispatch(&protocol.DispatchContext{Data: &buf}); err != nil {
		t.Fatal(err)
	}
	entry := decodeAll(t, &buf)[0].(*packet.LogEntry)
	if entry.HostName != "web-1" || entry.AppName != "orders" {
		t.Errorf("identity = %q/%q, want web-1/orders", entry.HostName, entry.AppName)
	}
	if entry.ProcessID == 0 {
		t.Error("ProcessID not stamped")
	}
	if entry.Timestamp.IsZero() {
		t.Error("Timestamp not stamped")
	}
}

func TestClientPreservesExplicitIdentity(t *testing.T) {
	t.Parallel()
	client, err := New(Options{
		AppName:     "orders",
		Connections: "mem()",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := client.Connect(); err != nil {
		t.Fatal(err)
	}
	defer client.Disconnect()

	if err := client.Write(&packet.LogEntry{Title: "x", AppName: "billing"}); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := client.Dispatch(&protocol.DispatchContext{Data: &buf}); err != nil {
		t.Fatal(err)
	}
	entry := decodeAll(t, &buf)[0].(*packet.LogEntry)
	if entry.AppName != "billing" {
		t.Errorf("AppName = %q, want the caller's value kept", entry.AppName)
	}
}

func TestClientFansOutToAllTransports(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "app.sil")
	client, err := New(Options{
		Connections: "mem(), file(filename=" + path + ")",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := client.Connect(); err != nil {
		t.Fatal(err)
	}
	if err := client.Write(&packet.Watch{Name: "depth", Value: "2"}); err != nil {
		t.Fatal(err)
	}
	if err := client.Disconnect(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	packets := decodeAll(t, bytes.NewReader(data))
	if len(packets) != 1 {
		t.Fatalf("file transport saw %d packets, want 1", len(packets))
	}
	if watch := packets[0].(*packet.Watch); watch.Name != "depth" {
		t.Errorf("watch = %q, want depth", watch.Name)
	}
}

func TestClientRejectsBadConnections(t *testing.T) {
	t.Parallel()
	if _, err := New(Options{Connections: "tcp(host=x"}); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := New(Options{Connections: "smoke()"}); err == nil {
		t.Fatal("expected unknown protocol error")
	}
}

func TestClientDisabledDiscardsWrites(t *testing.T) {
	t.Parallel()
	client, err := New(Options{Connections: "mem()"})
	if err != nil {
		t.Fatal(err)
	}
	if err := client.Connect(); err != nil {
		t.Fatal(err)
	}
	defer client.Disconnect()

	client.SetEnabled(false)
	if err := client.Write(&packet.LogEntry{Title: "dropped"}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := client.Dispatch(&protocol.DispatchContext{Data: &buf}); err != nil {
		t.Fatal(err)
	}
	if packets := decodeAll(t, &buf); len(packets) != 0 {
		t.Errorf("disabled client delivered %d packets, want 0", len(packets))
	}
}

func TestClientSetConnectionsRebuilds(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	first := filepath.Join(dir, "first.sil")
	second := filepath.Join(dir, "second.sil")

	client, err := New(Options{Connections: "file(filename=" + first + ")"})
	if err != nil {
		t.Fatal(err)
	}
	if err := client.Connect(); err != nil {
		t.Fatal(err)
	}
	if err := client.Write(&packet.LogEntry{Title: "to-first"}); err != nil {
		t.Fatal(err)
	}

	// A connected client swaps transports live.
	if err := client.SetConnections("file(filename=" + second + ")"); err != nil {
		t.Fatal(err)
	}
	if err := client.Write(&packet.LogEntry{Title: "to-second"}); err != nil {
		t.Fatal(err)
	}
	if err := client.Disconnect(); err != nil {
		t.Fatal(err)
	}

	for path, want := range map[string]string{first: "to-first", second: "to-second"} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		packets := decodeAll(t, bytes.NewReader(data))
		if len(packets) != 1 {
			t.Fatalf("%s holds %d packets, want 1", path, len(packets))
		}
		if entry := packets[0].(*packet.LogEntry); entry.Title != want {
			t.Errorf("%s holds %q, want %q", path, entry.Title, want)
		}
	}
}

func TestClientSetConnectionsKeepsOldSetOnError(t *testing.T) {
	t.Parallel()
	client, err := New(Options{Connections: "mem()"})
	if err != nil {
		t.Fatal(err)
	}
	if err := client.Connect(); err != nil {
		t.Fatal(err)
	}
	defer client.Disconnect()
	if err := client.Write(&packet.LogEntry{Title: "kept"}); err != nil {
		t.Fatal(err)
	}

	if err := client.SetConnections("bogus()"); err == nil {
		t.Fatal("expected error for unknown protocol")
	}

	// The old transport set keeps working.
	var buf bytes.Buffer
	if err := client.Dispatch(&protocol.DispatchContext{Data: &buf}); err != nil {
		t.Fatal(err)
	}
	if packets := decodeAll(t, &buf); len(packets) != 1 {
		t.Errorf("old transport lost its backlog after failed swap: %d packets", len(packets))
	}
}

func TestClientForwardsAsyncErrors(t *testing.T) {
	t.Parallel()
	// Nothing listens on the pipe path, and the transport is async, so
	// the connect failure surfaces through the error listeners.
	socket := filepath.Join(t.TempDir(), "absent.pipe")
	client, err := New(Options{
		Connections: "pipe(pipename=" + socket + ", async.enabled=true)",
	})
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var seen []error
	client.OnError(func(err error) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, err)
	})

	if err := client.Connect(); err != nil {
		t.Fatal(err)
	}
	// Disconnect joins the worker, so the failure has been delivered.
	if err := client.Disconnect(); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 {
		t.Fatal("async connect failure never reached the listener")
	}
}

func TestClientFromConfig(t *testing.T) {
	t.Parallel()
	disabled := false
	cfg := &config.Config{
		AppName:     "orders",
		Connections: "mem()",
		Enabled:     &disabled,
	}
	client, err := NewFromConfig(cfg, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := client.Connect(); err != nil {
		t.Fatal(err)
	}
	defer client.Disconnect()

	if err := client.Write(&packet.LogEntry{Title: "x"}); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := client.Dispatch(&protocol.DispatchContext{Data: &buf}); err != nil {
		t.Fatal(err)
	}
	if packets := decodeAll(t, &buf); len(packets) != 0 {
		t.Errorf("disabled-by-config client delivered %d packets", len(packets))
	}
}

func TestClientWriteErrorsJoin(t *testing.T) {
	t.Parallel()
	client, err := New(Options{Connections: "mem()"})
	if err != nil {
		t.Fatal(err)
	}
	// Not connected: the synchronous mem transport reports it.
	err = client.Write(&packet.LogEntry{Title: "x"})
	if !errors.Is(err, protocol.ErrNotConnected) {
		t.Fatalf("error = %v, want ErrNotConnected", err)
	}
}
