// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/wirelog/wirelog/lib/clock"
	"github.com/wirelog/wirelog/lib/rotate"
	"github.com/wirelog/wirelog/lib/sicrypt"
)

// fileSink is the stream machinery shared by the binary and text file
// transports: open/append semantics, write buffering, size- and
// time-based rotation with part trimming and compression, optional
// encryption, and an exclusive file lock against concurrent writers.
//
// The owning transport supplies the stream header for fresh files and
// feeds writes through emit callbacks; the sink decides when a write
// crosses a rotation boundary.
type fileSink struct {
	clk clock.Clock

	fileName    string
	appendMode  bool
	bufferSize  int64
	rotateMode  rotate.Mode
	maxSize     int64
	maxParts    int
	compression rotate.Compression
	encrypt     bool
	key         []byte

	// header is the fresh-stream prefix for plaintext streams
	// ("SILF" or a BOM). Encrypted streams write SILE+IV instead.
	header []byte

	file     *os.File
	buffered *bufio.Writer
	cipher   *sicrypt.Writer
	out      io.Writer
	written  int64
	rotater  *rotate.Rotater
}

// loadOptions reads the option subset shared by both file transports.
// defaultName is the transport's default filename.
func (s *fileSink) loadOptions(set *OptionSet, defaultName string) error {
	s.fileName = set.Get("filename", defaultName)

	var err error
	if s.appendMode, err = set.Bool("append", false); err != nil {
		return err
	}
	if s.bufferSize, err = set.Size("buffer", 0); err != nil {
		return err
	}
	if s.rotateMode, err = rotate.ParseMode(set.Get("rotate", "none")); err != nil {
		return err
	}
	if s.maxSize, err = set.Size("maxsize", 0); err != nil {
		return err
	}

	// maxparts defaults to 2 when a size limit is active, otherwise
	// rotated parts are kept indefinitely.
	defaultParts := 0
	if s.maxSize > 0 {
		defaultParts = 2
	}
	if s.maxParts, err = set.Int("maxparts", defaultParts); err != nil {
		return err
	}

	if s.compression, err = rotate.ParseCompression(set.Get("rotate.compress", "none")); err != nil {
		return err
	}

	s.rotater = rotate.New(s.rotateMode)
	return nil
}

// loadEncryptionOptions reads encrypt/key, validating the key size
// before any connect so a bad key never reaches Connected state.
func (s *fileSink) loadEncryptionOptions(set *OptionSet) error {
	var err error
	if s.encrypt, err = set.Bool("encrypt", false); err != nil {
		return err
	}
	if !s.encrypt {
		return nil
	}
	s.key = []byte(set.Get("key", ""))
	if err := sicrypt.ValidateKey(s.key); err != nil {
		return fmt.Errorf("option \"key\": %w", err)
	}
	if s.appendMode {
		return fmt.Errorf("option \"append\": cannot append to an encrypted stream")
	}
	return nil
}

// rotating reports whether writes go to timestamped part files.
func (s *fileSink) rotating() bool {
	return s.rotateMode != rotate.None || s.maxSize > 0
}

// connect opens the stream and anchors the rotation clock.
func (s *fileSink) connect() error {
	now := s.clk.Now()
	s.rotater.Reset(now)
	return s.openStream(now)
}

// write runs one emit callback against the stream, rotating first if
// this write would cross a time or size boundary. size is the number
// of payload bytes the callback will produce.
func (s *fileSink) write(size int, emit func(io.Writer) error) error {
	now := s.clk.Now()
	if s.rotater.Update(now) {
		if err := s.rotateStream(now); err != nil {
			return err
		}
	} else if s.maxSize > 0 && s.written+int64(size) > s.maxSize &&
		rotate.TimestampName(s.fileName, now) != s.file.Name() {
		// Part names carry second resolution; a size rotation inside
		// the same second would reopen the part just closed, so it
		// waits for the name to move on.
		if err := s.rotateStream(now); err != nil {
			return err
		}
	}

	if err := emit(s.out); err != nil {
		return err
	}
	s.written += int64(size)
	return nil
}

// disconnect finalizes and closes the stream.
func (s *fileSink) disconnect() error {
	return s.closeStream()
}

// openStream opens the part file for now, locks it, and writes the
// stream header when the file starts empty.
func (s *fileSink) openStream(now time.Time) error {
	name := s.fileName
	if s.rotating() {
		name = rotate.TimestampName(s.fileName, now)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if s.appendMode || s.rotating() {
		// Rotated part names repeat when two rotations land in the
		// same second; appending keeps both streams intact.
		flags |= os.O_APPEND
	}
	file, err := os.OpenFile(name, flags, 0o644)
	if err != nil {
		return err
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		file.Close()
		return fmt.Errorf("locking %s: %w (already open in another writer?)", name, err)
	}
	// Truncation waits for the lock so a rejected writer cannot wipe
	// the owner's data.
	if flags&os.O_APPEND == 0 {
		if err := file.Truncate(0); err != nil {
			file.Close()
			return err
		}
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}
	fresh := info.Size() == 0

	var base io.Writer = file
	if s.bufferSize > 0 {
		s.buffered = bufio.NewWriterSize(file, int(s.bufferSize))
		base = s.buffered
	} else {
		s.buffered = nil
	}

	if s.encrypt {
		// The SILE marker and IV stay in the clear so readers can
		// recover the cipher stream offset.
		iv := sicrypt.NewIV(now)
		if _, err := base.Write([]byte(sicrypt.EyeCatcher)); err != nil {
			file.Close()
			return err
		}
		if _, err := base.Write(iv[:]); err != nil {
			file.Close()
			return err
		}
		cipher, err := sicrypt.NewWriter(base, s.key, iv)
		if err != nil {
			file.Close()
			return err
		}
		s.cipher = cipher
		s.out = cipher
		s.written = int64(len(sicrypt.EyeCatcher) + sicrypt.IVSize)
	} else {
		s.cipher = nil
		s.out = base
		s.written = info.Size()
		if fresh && len(s.header) > 0 {
			if _, err := base.Write(s.header); err != nil {
				file.Close()
				return err
			}
			s.written = int64(len(s.header))
		}
	}

	s.file = file
	return nil
}

// closeStream finalizes the cipher padding, flushes buffers, and
// releases the lock by closing the file.
func (s *fileSink) closeStream() error {
	if s.file == nil {
		return nil
	}
	var firstErr error
	if s.cipher != nil {
		if err := s.cipher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.cipher = nil
	}
	if s.buffered != nil {
		if err := s.buffered.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.buffered = nil
	}
	if err := s.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	s.file = nil
	s.out = nil
	return firstErr
}

// rotateStream closes the current part, compresses it if configured,
// trims parts beyond maxParts, and opens the part for now.
func (s *fileSink) rotateStream(now time.Time) error {
	closedName := s.file.Name()
	if err := s.closeStream(); err != nil {
		return err
	}
	if s.compression != rotate.CompressNone {
		if _, err := rotate.CompressPart(closedName, s.compression); err != nil {
			return err
		}
	}
	if s.maxParts > 0 {
		if err := rotate.TrimParts(s.fileName, s.maxParts); err != nil {
			return err
		}
	}
	return s.openStream(now)
}
