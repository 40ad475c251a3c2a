// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package sicrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"
)

// Reader decrypts a stream produced by Writer. The source must be
// positioned just past the "SILE" eye-catcher and the IV (use
// ReadStream to handle both). The final block's PKCS7 padding is
// stripped at end of stream.
type Reader struct {
	src  io.Reader
	mode cipher.BlockMode

	// held is the most recently decrypted block. It is not released
	// to the caller until the following block has been read, because
	// the last block of the stream carries padding.
	held    []byte
	ready   []byte
	readErr error
}

// NewReader returns a Reader decrypting src with key and iv.
func NewReader(src io.Reader, key []byte, iv [IVSize]byte) (*Reader, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &Reader{
		src:  src,
		mode: cipher.NewCBCDecrypter(block, iv[:]),
	}, nil
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	for len(r.ready) == 0 {
		if r.readErr != nil {
			return 0, r.readErr
		}
		if err := r.advance(); err != nil {
			r.readErr = err
			if len(r.ready) == 0 {
				return 0, err
			}
			break
		}
	}
	n := copy(p, r.ready)
	r.ready = r.ready[n:]
	return n, nil
}

// advance reads and decrypts one more ciphertext block, releasing the
// previously held block to the ready buffer. At end of stream it
// strips the padding from the held block instead.
func (r *Reader) advance() error {
	ciphertext := make([]byte, BlockSize)
	_, err := io.ReadFull(r.src, ciphertext)
	switch err {
	case nil:
	case io.EOF:
		return r.finish()
	case io.ErrUnexpectedEOF:
		return fmt.Errorf("sicrypt: ciphertext not block-aligned: %w", err)
	default:
		return err
	}

	plaintext := make([]byte, BlockSize)
	r.mode.CryptBlocks(plaintext, ciphertext)
	if r.held != nil {
		r.ready = r.held
	}
	r.held = plaintext
	return nil
}

// finish validates and strips the PKCS7 padding of the final block.
func (r *Reader) finish() error {
	if r.held == nil {
		// Stream ended before any ciphertext: an empty (header-only)
		// file from a writer that never reached Close.
		return io.EOF
	}
	padLength := int(r.held[BlockSize-1])
	if padLength < 1 || padLength > BlockSize {
		return fmt.Errorf("sicrypt: invalid padding length %d (wrong key?)", padLength)
	}
	for _, b := range r.held[BlockSize-padLength:] {
		if int(b) != padLength {
			return fmt.Errorf("sicrypt: corrupt padding (wrong key?)")
		}
	}
	r.ready = r.held[:BlockSize-padLength]
	r.held = nil
	return io.EOF
}

// ReadStream consumes the "SILE" eye-catcher and IV from src and
// returns a Reader decrypting the remainder. It fails if the stream
// does not start with the encrypted eye-catcher.
func ReadStream(src io.Reader, key []byte) (*Reader, error) {
	header := make([]byte, 4+IVSize)
	if _, err := io.ReadFull(src, header); err != nil {
		return nil, fmt.Errorf("sicrypt: reading stream header: %w", err)
	}
	if string(header[:4]) != "SILE" {
		return nil, fmt.Errorf("sicrypt: stream does not start with SILE (got %q)", header[:4])
	}
	var iv [IVSize]byte
	copy(iv[:], header[4:])
	return NewReader(src, key, iv)
}
