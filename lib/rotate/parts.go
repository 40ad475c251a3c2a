// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package rotate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// timestampLayout is the UTC segment inserted into rotated part
// names.
const timestampLayout = "2006-01-02-15-04-05"

// TimestampName inserts a UTC timestamp segment before the extension:
// "logs/app.sil" becomes "logs/app-2026-05-17-09-30-00.sil".
func TimestampName(path string, now time.Time) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	return base + "-" + now.UTC().Format(timestampLayout) + ext
}

// Parts returns the rotated siblings of the base log path, oldest
// first. Compressed parts (.zst, .lz4 suffix) are included. The base
// file itself is not a part.
func Parts(path string) ([]string, error) {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	prefix := strings.TrimSuffix(filepath.Base(path), ext) + "-"

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing rotated parts: %w", err)
	}

	var parts []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := strings.TrimPrefix(name, prefix)
		rest = strings.TrimSuffix(rest, ".zst")
		rest = strings.TrimSuffix(rest, ".lz4")
		if !strings.HasSuffix(rest, ext) {
			continue
		}
		stamp := strings.TrimSuffix(rest, ext)
		if _, err := time.Parse(timestampLayout, stamp); err != nil {
			continue
		}
		parts = append(parts, filepath.Join(dir, name))
	}

	// The timestamp layout sorts lexically in chronological order.
	sort.Strings(parts)
	return parts, nil
}

// TrimParts deletes the oldest rotated parts of path until at most
// maxParts remain. A maxParts of zero or less keeps everything.
func TrimParts(path string, maxParts int) error {
	if maxParts <= 0 {
		return nil
	}
	parts, err := Parts(path)
	if err != nil {
		return err
	}
	for len(parts) > maxParts {
		if err := os.Remove(parts[0]); err != nil {
			return fmt.Errorf("trimming rotated part: %w", err)
		}
		parts = parts[1:]
	}
	return nil
}
