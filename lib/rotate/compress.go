// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package rotate

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how closed rotated parts are compressed.
type Compression int

const (
	// CompressNone leaves rotated parts as written.
	CompressNone Compression = iota
	// CompressZstd rewrites a closed part as part.zst.
	CompressZstd
	// CompressLZ4 rewrites a closed part as part.lz4.
	CompressLZ4
)

// ParseCompression parses a rotate.compress option value.
func ParseCompression(value string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none":
		return CompressNone, nil
	case "zstd":
		return CompressZstd, nil
	case "lz4":
		return CompressLZ4, nil
	}
	return CompressNone, fmt.Errorf("invalid rotate.compress value %q", value)
}

// String returns the option spelling.
func (c Compression) String() string {
	switch c {
	case CompressNone:
		return "none"
	case CompressZstd:
		return "zstd"
	case CompressLZ4:
		return "lz4"
	}
	return "unknown"
}

// CompressPart compresses a closed rotated part in place: the
// compressed file is written next to the original with the algorithm
// suffix appended, and the original is removed on success. Returns
// the compressed path. CompressNone returns the input unchanged.
func CompressPart(path string, algorithm Compression) (string, error) {
	if algorithm == CompressNone {
		return path, nil
	}

	source, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("compressing rotated part: %w", err)
	}
	defer source.Close()

	target := path + "." + algorithm.String()
	destination, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("compressing rotated part: %w", err)
	}

	var encoder io.WriteCloser
	switch algorithm {
	case CompressZstd:
		encoder, err = zstd.NewWriter(destination)
		if err != nil {
			destination.Close()
			os.Remove(target)
			return "", fmt.Errorf("compressing rotated part: %w", err)
		}
	case CompressLZ4:
		encoder = lz4.NewWriter(destination)
	}

	_, copyErr := io.Copy(encoder, source)
	closeErr := encoder.Close()
	syncErr := destination.Close()
	for _, err := range []error{copyErr, closeErr, syncErr} {
		if err != nil {
			os.Remove(target)
			return "", fmt.Errorf("compressing rotated part: %w", err)
		}
	}

	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("removing uncompressed part: %w", err)
	}
	return target, nil
}

// OpenPart opens a rotated part for reading, transparently
// decompressing .zst and .lz4 parts. The caller closes the returned
// closer.
func OpenPart(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(path, ".zst"):
		decoder, err := zstd.NewReader(file)
		if err != nil {
			file.Close()
			return nil, err
		}
		return &decodedPart{Reader: decoder.IOReadCloser(), file: file}, nil
	case strings.HasSuffix(path, ".lz4"):
		return &decodedPart{Reader: io.NopCloser(lz4.NewReader(file)), file: file}, nil
	}
	return file, nil
}

// decodedPart closes both the decoder and the backing file.
type decodedPart struct {
	io.Reader
	file *os.File
}

func (d *decodedPart) Close() error {
	if closer, ok := d.Reader.(io.Closer); ok {
		closer.Close()
	}
	return d.file.Close()
}
