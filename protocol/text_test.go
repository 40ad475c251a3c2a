// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wirelog/wirelog/connections"
	"github.com/wirelog/wirelog/packet"
)

func newTextProtocol(t *testing.T, extraOptions string) (*Protocol, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.txt")
	options := "filename=" + path
	if extraOptions != "" {
		options += ", " + extraOptions
	}
	p, err := New(connections.Descriptor{Name: "text", Options: options}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	return p, path
}

func textLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, utf8BOM) {
		t.Fatalf("file starts with % x, want UTF-8 BOM", data[:3])
	}
	text := strings.TrimSuffix(string(data[3:]), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func TestTextTransportPattern(t *testing.T) {
	t.Parallel()
	p, path := newTextProtocol(t, "pattern=\"%level%: %title%\"")

	if err := p.Connect(); err != nil {
		t.Fatal(err)
	}
	if err := p.WritePacket(&packet.LogEntry{
		Header: packet.Header{Level: packet.LevelWarning},
		Title:  "disk almost full",
	}); err != nil {
		t.Fatal(err)
	}
	if err := p.Disconnect(); err != nil {
		t.Fatal(err)
	}

	lines := textLines(t, path)
	if len(lines) != 1 || lines[0] != "warning: disk almost full" {
		t.Errorf("lines = %q, want [warning: disk almost full]", lines)
	}
}

func TestTextTransportIndent(t *testing.T) {
	t.Parallel()
	p, path := newTextProtocol(t, "indent=true, pattern=%title%")

	if err := p.Connect(); err != nil {
		t.Fatal(err)
	}
	write := func(title string, entryType packet.LogEntryType) {
		t.Helper()
		if err := p.WritePacket(&packet.LogEntry{Title: title, EntryType: entryType}); err != nil {
			t.Fatal(err)
		}
	}
	write("Process", packet.EntryEnterMethod)
	write("working", packet.EntryMessage)
	write("Process", packet.EntryLeaveMethod)
	if err := p.Disconnect(); err != nil {
		t.Fatal(err)
	}

	want := []string{"Process", "   working", "Process"}
	if got := textLines(t, path); !equalStrings(got, want) {
		t.Errorf("lines = %q, want %q", got, want)
	}
}

func TestTextTransportSkipsUnrenderablePackets(t *testing.T) {
	t.Parallel()
	p, path := newTextProtocol(t, "pattern=%title%")

	if err := p.Connect(); err != nil {
		t.Fatal(err)
	}
	if err := p.WritePacket(&packet.ControlCommand{CommandType: packet.CommandClearLog}); err != nil {
		t.Fatal(err)
	}
	if err := p.WritePacket(&packet.LogHeader{HostName: "h", AppName: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := p.WritePacket(&packet.Watch{Name: "n", Value: "v"}); err != nil {
		t.Fatal(err)
	}
	if err := p.Disconnect(); err != nil {
		t.Fatal(err)
	}

	want := []string{"n = v"}
	if got := textLines(t, path); !equalStrings(got, want) {
		t.Errorf("lines = %q, want %q", got, want)
	}
}

func TestTextTransportRejectsEncryptOption(t *testing.T) {
	t.Parallel()
	_, err := New(connections.Descriptor{
		Name:    "text",
		Options: "encrypt=true, key=0123456789abcdef",
	}, Options{})
	if err == nil || !strings.Contains(err.Error(), "unknown option") {
		t.Fatalf("error = %v, want unknown option", err)
	}
}
