// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package rotate

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestUpdateDetectsBoundaries(t *testing.T) {
	t.Parallel()
	base := time.Date(2026, 5, 17, 23, 30, 0, 0, time.UTC) // Sunday

	cases := []struct {
		mode    Mode
		step    time.Duration
		crosses bool
	}{
		{Hourly, 10 * time.Minute, false},
		{Hourly, 45 * time.Minute, true},
		{Daily, 20 * time.Minute, false},
		{Daily, time.Hour, true},
		{Weekly, 25 * time.Hour, true}, // Sunday -> Monday
		{Monthly, 24 * time.Hour, false},
		{Monthly, 15 * 24 * time.Hour, true},
		{None, 1000 * time.Hour, false},
	}
	for _, tc := range cases {
		rotater := New(tc.mode)
		rotater.Reset(base)
		if got := rotater.Update(base.Add(tc.step)); got != tc.crosses {
			t.Errorf("%s + %v: Update = %v, want %v", tc.mode, tc.step, got, tc.crosses)
		}
	}
}

func TestUpdateReanchors(t *testing.T) {
	t.Parallel()
	rotater := New(Daily)
	start := time.Date(2026, 5, 17, 12, 0, 0, 0, time.UTC)
	rotater.Reset(start)

	nextDay := start.Add(24 * time.Hour)
	if !rotater.Update(nextDay) {
		t.Fatal("first boundary not detected")
	}
	if rotater.Update(nextDay.Add(time.Hour)) {
		t.Fatal("re-anchor failed: same day reported as crossing")
	}
	if !rotater.Update(nextDay.Add(24 * time.Hour)) {
		t.Fatal("second boundary not detected")
	}
}

func TestTimestampName(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 5, 17, 9, 30, 0, 0, time.UTC)
	got := TimestampName(filepath.Join("logs", "app.sil"), now)
	want := filepath.Join("logs", "app-2026-05-17-09-30-00.sil")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPartsAndTrim(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	base := filepath.Join(dir, "app.sil")

	stamps := []time.Time{
		time.Date(2026, 5, 13, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 5, 16, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 5, 17, 0, 0, 0, 0, time.UTC),
	}
	for _, stamp := range stamps {
		if err := os.WriteFile(TimestampName(base, stamp), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// Unrelated files are not parts.
	for _, name := range []string{"app.sil", "other-2026-05-17-00-00-00.sil", "app-notatimestamp.sil"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	parts, err := Parts(base)
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 5 {
		t.Fatalf("found %d parts, want 5: %v", len(parts), parts)
	}

	if err := TrimParts(base, 3); err != nil {
		t.Fatal(err)
	}
	parts, err = Parts(base)
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 3 {
		t.Fatalf("after trim: %d parts, want 3", len(parts))
	}
	// The three newest survive.
	for i, stamp := range stamps[2:] {
		if parts[i] != TimestampName(base, stamp) {
			t.Errorf("part %d: got %q, want %q", i, parts[i], TimestampName(base, stamp))
		}
	}
}

func TestCompressPartRoundTrip(t *testing.T) {
	t.Parallel()
	payload := bytes.Repeat([]byte("telemetry "), 1000)

	for _, algorithm := range []Compression{CompressZstd, CompressLZ4} {
		dir := t.TempDir()
		part := filepath.Join(dir, "app-2026-05-17-00-00-00.sil")
		if err := os.WriteFile(part, payload, 0o644); err != nil {
			t.Fatal(err)
		}

		compressed, err := CompressPart(part, algorithm)
		if err != nil {
			t.Fatalf("%s: %v", algorithm, err)
		}
		if _, err := os.Stat(part); !os.IsNotExist(err) {
			t.Errorf("%s: original part still present", algorithm)
		}

		// Compressed parts still count as parts.
		parts, err := Parts(filepath.Join(dir, "app.sil"))
		if err != nil || len(parts) != 1 {
			t.Fatalf("%s: parts = %v, %v", algorithm, parts, err)
		}

		reader, err := OpenPart(compressed)
		if err != nil {
			t.Fatal(err)
		}
		got, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("%s: decompressed content differs", algorithm)
		}
	}
}

func TestParseModeAndCompression(t *testing.T) {
	t.Parallel()
	if mode, err := ParseMode("Weekly"); err != nil || mode != Weekly {
		t.Errorf("ParseMode(Weekly) = %v, %v", mode, err)
	}
	if _, err := ParseMode("fortnightly"); err == nil {
		t.Error("ParseMode(fortnightly) did not fail")
	}
	if algo, err := ParseCompression(""); err != nil || algo != CompressNone {
		t.Errorf("ParseCompression(empty) = %v, %v", algo, err)
	}
	if _, err := ParseCompression("brotli"); err == nil {
		t.Error("ParseCompression(brotli) did not fail")
	}
}
