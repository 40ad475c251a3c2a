// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bytes"
	"strings"
	"testing"

	"github.com/wirelog/wirelog/connections"
	"github.com/wirelog/wirelog/packet"
)

func newMemoryProtocol(t *testing.T, options string) *Protocol {
	t.Helper()
	p, err := New(connections.Descriptor{Name: "mem", Options: options}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestMemoryTransportDispatch(t *testing.T) {
	t.Parallel()
	p := newMemoryProtocol(t, "")

	if err := p.Connect(); err != nil {
		t.Fatal(err)
	}
	defer p.Disconnect()
	for _, title := range []string{"one", "two"} {
		if err := p.WritePacket(&packet.LogEntry{Title: title}); err != nil {
			t.Fatal(err)
		}
	}

	var buf bytes.Buffer
	if err := p.Dispatch(&DispatchContext{Data: &buf}); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("SILF")) {
		t.Fatalf("dispatch output starts with %q, want SILF", buf.Bytes()[:4])
	}
	titles := entryTitles(t, readPackets(t, &buf))
	if len(titles) != 2 || titles[0] != "one" || titles[1] != "two" {
		t.Errorf("titles = %v, want [one two]", titles)
	}

	// The backlog survives a dispatch.
	var again bytes.Buffer
	if err := p.Dispatch(&DispatchContext{Data: &again}); err != nil {
		t.Fatal(err)
	}
	if again.Len() == 0 {
		t.Error("second dispatch returned nothing")
	}
}

func TestMemoryTransportDropsOldest(t *testing.T) {
	t.Parallel()
	// 2 KB budget; each packet is ~1.5 KB, so only the newest survives.
	p := newMemoryProtocol(t, "maxsize=2")

	if err := p.Connect(); err != nil {
		t.Fatal(err)
	}
	defer p.Disconnect()
	first := strings.Repeat("a", 1500)
	second := strings.Repeat("b", 1500)
	for _, title := range []string{first, second} {
		if err := p.WritePacket(&packet.LogEntry{Title: title}); err != nil {
			t.Fatal(err)
		}
	}

	var buf bytes.Buffer
	if err := p.Dispatch(&DispatchContext{Data: &buf}); err != nil {
		t.Fatal(err)
	}
	titles := entryTitles(t, readPackets(t, &buf))
	if len(titles) != 1 || titles[0] != second {
		t.Errorf("surviving titles = %d, want only the newest packet", len(titles))
	}
}

func TestMemoryTransportAsText(t *testing.T) {
	t.Parallel()
	p := newMemoryProtocol(t, "astext=true, pattern=%title%")

	if err := p.Connect(); err != nil {
		t.Fatal(err)
	}
	defer p.Disconnect()
	if err := p.WritePacket(&packet.LogEntry{Title: "readable"}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := p.Dispatch(&DispatchContext{Data: &buf}); err != nil {
		t.Fatal(err)
	}
	want := string(utf8BOM) + "readable\n"
	if got := buf.String(); got != want {
		t.Errorf("dispatch output = %q, want %q", got, want)
	}
}

func TestMemoryTransportDispatchNeedsWriter(t *testing.T) {
	t.Parallel()
	p := newMemoryProtocol(t, "")
	if err := p.Connect(); err != nil {
		t.Fatal(err)
	}
	defer p.Disconnect()

	if err := p.Dispatch(&DispatchContext{Data: 42}); err == nil {
		t.Fatal("dispatch with a non-writer payload succeeded")
	}
	// A nil payload is a no-op, not an error.
	if err := p.Dispatch(&DispatchContext{}); err != nil {
		t.Fatal(err)
	}
}

func TestMemoryTransportClearsOnDisconnect(t *testing.T) {
	t.Parallel()
	p := newMemoryProtocol(t, "")

	if err := p.Connect(); err != nil {
		t.Fatal(err)
	}
	if err := p.WritePacket(&packet.LogEntry{Title: "gone"}); err != nil {
		t.Fatal(err)
	}
	if err := p.Disconnect(); err != nil {
		t.Fatal(err)
	}
	if err := p.Connect(); err != nil {
		t.Fatal(err)
	}
	defer p.Disconnect()

	var buf bytes.Buffer
	if err := p.Dispatch(&DispatchContext{Data: &buf}); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "SILF" {
		t.Errorf("dispatch after reconnect = %q, want header only", got)
	}
}
