// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package connections

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func collectOptions(t *testing.T, raw string) map[string]string {
	t.Helper()
	got := map[string]string{}
	err := ParseOptions(raw, func(key, value string) error {
		got[key] = value
		return nil
	})
	if err != nil {
		t.Fatalf("ParseOptions(%q): %v", raw, err)
	}
	return got
}

func TestParseOptionsPlain(t *testing.T) {
	t.Parallel()
	got := collectOptions(t, "host=localhost, port = 4228 ,timeout=30000")
	want := map[string]string{"host": "localhost", "port": "4228", "timeout": "30000"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseOptionsQuotingAndEscapes(t *testing.T) {
	t.Parallel()
	got := collectOptions(t, `filename="c:\\logs\\app.sil", pattern="say \"hi\", bye"`)
	want := map[string]string{
		"filename": `c:\logs\app.sil`,
		"pattern":  `say "hi", bye`,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseOptionsOrder(t *testing.T) {
	t.Parallel()
	var keys []string
	err := ParseOptions("b=1,a=2,c=3", func(key, _ string) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(keys, []string{"b", "a", "c"}) {
		t.Errorf("keys in order %v", keys)
	}
}

func TestParseOptionsEmptyAndTrailing(t *testing.T) {
	t.Parallel()
	got := collectOptions(t, " append=true, ")
	if !reflect.DeepEqual(got, map[string]string{"append": "true"}) {
		t.Errorf("got %v", got)
	}
	if len(collectOptions(t, "")) != 0 {
		t.Error("empty option text produced pairs")
	}
}

func TestParseOptionsErrors(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"justakey", `key="unterminated`, "=value"} {
		err := ParseOptions(raw, func(string, string) error { return nil })
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("ParseOptions(%q): got %v, want *ParseError", raw, err)
		}
	}
}

func TestValueParsers(t *testing.T) {
	t.Parallel()

	if v, err := Bool("Yes"); err != nil || !v {
		t.Errorf("Bool(Yes) = %v, %v", v, err)
	}
	if _, err := Bool("maybe"); err == nil {
		t.Error("Bool(maybe) did not fail")
	}

	sizes := map[string]int64{
		"2048":  2048 * 1024,
		"16MB":  16 << 20,
		"1gb":   1 << 30,
		"512KB": 512 << 10,
		"0":     0,
	}
	for in, want := range sizes {
		if got, err := Size(in); err != nil || got != want {
			t.Errorf("Size(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	if _, err := Size("-1"); err == nil {
		t.Error("Size(-1) did not fail")
	}

	durations := map[string]time.Duration{
		"30":    30 * time.Second,
		"500ms": 500 * time.Millisecond,
		"5m":    5 * time.Minute,
		"2h":    2 * time.Hour,
	}
	for in, want := range durations {
		if got, err := Duration(in); err != nil || got != want {
			t.Errorf("Duration(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}
