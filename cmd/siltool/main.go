// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/pflag"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/wirelog/wirelog/lib/rotate"
	"github.com/wirelog/wirelog/lib/sicrypt"
	"github.com/wirelog/wirelog/packet"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var key string
	var format string
	var pattern string
	var sqlitePath string

	flagSet := pflag.NewFlagSet("siltool", pflag.ContinueOnError)
	flagSet.StringVar(&key, "key", "", "16-byte decryption key for encrypted (SILE) streams")
	flagSet.StringVar(&format, "format", "text", "output format: text, json, or cbor")
	flagSet.StringVar(&pattern, "pattern", "", "line pattern for text output (%timestamp%, %level%, %title%, ...)")
	flagSet.StringVar(&sqlitePath, "sqlite", "", "index packets into this SQLite database instead of printing")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	paths := flagSet.Args()
	if len(paths) == 0 {
		return fmt.Errorf("no input files; usage: siltool [flags] file.sil...")
	}
	if key != "" {
		if err := sicrypt.ValidateKey([]byte(key)); err != nil {
			return err
		}
	}

	var sink packetSink
	switch {
	case sqlitePath != "":
		indexer, err := newIndexer(sqlitePath)
		if err != nil {
			return err
		}
		defer indexer.close()
		sink = indexer
	case format == "text":
		sink = &textSink{
			out:       bufio.NewWriter(os.Stdout),
			formatter: packet.NewTextFormatter(pattern, false),
		}
	case format == "json":
		sink = &jsonSink{out: bufio.NewWriter(os.Stdout)}
	case format == "cbor":
		sink = &cborSink{encoder: cbor.NewEncoder(os.Stdout)}
	default:
		return fmt.Errorf("unknown format %q (want text, json, or cbor)", format)
	}

	for _, path := range paths {
		if err := dumpFile(path, []byte(key), sink); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return sink.flush()
}

// packetSink consumes decoded packets.
type packetSink interface {
	consume(source string, p packet.Packet) error
	flush() error
}

// dumpFile decodes every packet in one file (decompressing rotated
// parts and decrypting SILE streams as needed) and feeds them to sink.
func dumpFile(path string, key []byte, sink packetSink) error {
	raw, err := rotate.OpenPart(path)
	if err != nil {
		return err
	}
	defer raw.Close()

	buffered := bufio.NewReader(raw)
	source := io.Reader(buffered)
	prefix, err := buffered.Peek(packet.EyeCatcherSize)
	if err == nil && bytes.Equal(prefix, packet.EyeCatcherEncrypted) {
		if len(key) == 0 {
			return fmt.Errorf("stream is encrypted; pass --key")
		}
		source, err = sicrypt.ReadStream(buffered, key)
		if err != nil {
			return err
		}
	}

	decoder := packet.NewReader(source)
	for {
		p, err := decoder.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := sink.consume(path, p); err != nil {
			return err
		}
	}
}

// record is the flattened export form shared by the JSON and CBOR
// sinks and the SQLite indexer.
type record struct {
	Source    string    `json:"source" cbor:"source"`
	Type      string    `json:"type" cbor:"type"`
	Level     string    `json:"level" cbor:"level"`
	Timestamp time.Time `json:"timestamp" cbor:"timestamp"`
	ProcessID uint32    `json:"process_id" cbor:"process_id"`
	ThreadID  uint32    `json:"thread_id" cbor:"thread_id"`
	Session   string    `json:"session,omitempty" cbor:"session,omitempty"`
	Title     string    `json:"title,omitempty" cbor:"title,omitempty"`
	HostName  string    `json:"hostname,omitempty" cbor:"hostname,omitempty"`
	AppName   string    `json:"appname,omitempty" cbor:"appname,omitempty"`
	Name      string    `json:"name,omitempty" cbor:"name,omitempty"`
	Value     string    `json:"value,omitempty" cbor:"value,omitempty"`
	Data      []byte    `json:"data,omitempty" cbor:"data,omitempty"`
}

func recordOf(source string, p packet.Packet) record {
	head := p.Head()
	r := record{
		Source:    source,
		Type:      p.PacketType().String(),
		Level:     head.Level.String(),
		Timestamp: head.Timestamp,
		ProcessID: head.ProcessID,
		ThreadID:  head.ThreadID,
	}
	switch p := p.(type) {
	case *packet.LogEntry:
		r.Session = p.SessionName
		r.Title = p.Title
		r.HostName = p.HostName
		r.AppName = p.AppName
		r.Data = p.Data
	case *packet.Watch:
		r.Name = p.Name
		r.Value = p.Value
	case *packet.ProcessFlow:
		r.Title = p.Title
		r.HostName = p.HostName
	case *packet.ControlCommand:
		r.Data = p.Data
	case *packet.LogHeader:
		r.HostName = p.HostName
		r.AppName = p.AppName
	}
	return r
}

type textSink struct {
	out       *bufio.Writer
	formatter *packet.TextFormatter
}

func (s *textSink) consume(source string, p packet.Packet) error {
	line, ok := s.formatter.Format(p)
	if !ok {
		return nil
	}
	_, err := fmt.Fprintln(s.out, line)
	return err
}

func (s *textSink) flush() error { return s.out.Flush() }

type jsonSink struct {
	out *bufio.Writer
}

func (s *jsonSink) consume(source string, p packet.Packet) error {
	data, err := json.Marshal(recordOf(source, p))
	if err != nil {
		return err
	}
	if _, err := s.out.Write(data); err != nil {
		return err
	}
	return s.out.WriteByte('\n')
}

func (s *jsonSink) flush() error { return s.out.Flush() }

type cborSink struct {
	encoder *cbor.Encoder
}

func (s *cborSink) consume(source string, p packet.Packet) error {
	return s.encoder.Encode(recordOf(source, p))
}

func (s *cborSink) flush() error { return nil }

const indexSchema = `
CREATE TABLE IF NOT EXISTS packets (
	id         INTEGER PRIMARY KEY,
	source     TEXT NOT NULL,
	type       TEXT NOT NULL,
	level      TEXT NOT NULL,
	timestamp  TEXT NOT NULL,
	process_id INTEGER NOT NULL,
	thread_id  INTEGER NOT NULL,
	session    TEXT,
	title      TEXT,
	hostname   TEXT,
	appname    TEXT,
	name       TEXT,
	value      TEXT
);
CREATE INDEX IF NOT EXISTS packets_by_time ON packets (timestamp);
CREATE INDEX IF NOT EXISTS packets_by_source ON packets (source);
`

// indexer writes packets into a SQLite database for ad-hoc querying.
type indexer struct {
	conn *sqlite.Conn
}

func newIndexer(path string) (*indexer, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite|sqlite.OpenCreate)
	if err != nil {
		return nil, err
	}
	if err := sqlitex.ExecuteScript(conn, indexSchema, nil); err != nil {
		conn.Close()
		return nil, err
	}
	return &indexer{conn: conn}, nil
}

func (ix *indexer) consume(source string, p packet.Packet) error {
	r := recordOf(source, p)
	return sqlitex.Execute(ix.conn, `
		INSERT INTO packets
			(source, type, level, timestamp, process_id, thread_id,
			 session, title, hostname, appname, name, value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				r.Source, r.Type, r.Level,
				r.Timestamp.UTC().Format(time.RFC3339Nano),
				int64(r.ProcessID), int64(r.ThreadID),
				r.Session, r.Title, r.HostName, r.AppName,
				r.Name, r.Value,
			},
		})
}

func (ix *indexer) flush() error { return nil }

func (ix *indexer) close() { ix.conn.Close() }
