// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

// Package sicrypt implements the SIL encrypted-stream construction:
// AES-128 in CBC mode with PKCS7 padding and a per-stream MD5-derived
// IV. The IV is transmitted in clear immediately after the "SILE"
// eye-catcher; the key never leaves the producing process.
//
// The construction is fixed by the wire format: sinks and viewers
// expect exactly this layout, so no other cipher or mode is
// negotiable here.
package sicrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// EyeCatcher marks an encrypted stream. It is written in clear,
// immediately followed by the IV.
const EyeCatcher = "SILE"

const (
	// KeySize is the required encryption key length (AES-128).
	KeySize = 16
	// BlockSize is the AES block size.
	BlockSize = aes.BlockSize
	// IVSize is the initialization vector length written after the
	// eye-catcher.
	IVSize = 16
)

// ErrKeySize reports a key of the wrong length.
type ErrKeySize struct {
	Got int
}

func (e *ErrKeySize) Error() string {
	return fmt.Sprintf("sicrypt: encryption key must be exactly %d bytes, got %d", KeySize, e.Got)
}

// ValidateKey checks the key length without constructing a cipher.
func ValidateKey(key []byte) error {
	if len(key) != KeySize {
		return &ErrKeySize{Got: len(key)}
	}
	return nil
}

// NewIV derives a fresh 16-byte IV by hashing the given clock reading
// with MD5. Each opened stream (and each rotated file) gets its own
// IV.
func NewIV(now time.Time) [IVSize]byte {
	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], uint64(now.UnixNano()))
	return md5.Sum(seed[:])
}

// Writer encrypts a plaintext stream to an underlying destination.
// Sub-block writes are buffered until a full cipher block accumulates;
// Close pads the final partial block with PKCS7 and flushes it. Close
// does not close the destination.
type Writer struct {
	dst     io.Writer
	mode    cipher.BlockMode
	partial []byte
	closed  bool
}

// NewWriter returns a Writer encrypting to dst with the given 16-byte
// key and IV. The caller is responsible for having written the "SILE"
// eye-catcher and the IV to dst beforehand.
func NewWriter(dst io.Writer, key []byte, iv [IVSize]byte) (*Writer, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &Writer{
		dst:     dst,
		mode:    cipher.NewCBCEncrypter(block, iv[:]),
		partial: make([]byte, 0, BlockSize),
	}, nil
}

// Write buffers and encrypts p. Full blocks are encrypted and emitted
// immediately; a trailing partial block waits for more data or Close.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("sicrypt: write after Close")
	}
	written := len(p)

	if len(w.partial) > 0 {
		need := BlockSize - len(w.partial)
		if need > len(p) {
			w.partial = append(w.partial, p...)
			return written, nil
		}
		w.partial = append(w.partial, p[:need]...)
		p = p[need:]
		if err := w.emit(w.partial); err != nil {
			return 0, err
		}
		w.partial = w.partial[:0]
	}

	whole := len(p) - len(p)%BlockSize
	if whole > 0 {
		if err := w.emit(p[:whole]); err != nil {
			return 0, err
		}
	}
	w.partial = append(w.partial, p[whole:]...)
	return written, nil
}

// emit encrypts a block-aligned plaintext chunk in place of a scratch
// copy and writes it out.
func (w *Writer) emit(plaintext []byte) error {
	ciphertext := make([]byte, len(plaintext))
	w.mode.CryptBlocks(ciphertext, plaintext)
	_, err := w.dst.Write(ciphertext)
	return err
}

// Close PKCS7-pads the pending partial block (a full padding block if
// the plaintext ended on a block boundary), encrypts and flushes it.
// Further writes fail.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	padLength := BlockSize - len(w.partial)
	block := append(w.partial, make([]byte, padLength)...)
	for i := len(w.partial); i < BlockSize; i++ {
		block[i] = byte(padLength)
	}
	w.partial = nil
	return w.emit(block)
}
