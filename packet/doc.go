// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

// Package packet defines the telemetry packet model and the SIL binary
// wire format.
//
// A packet is one unit of telemetry: a log entry, a watch value, a
// process-flow marker, a control command, or a stream-level log header.
// Every packet carries a level, a timestamp, and the originating
// process and thread ids; the rest of the payload is type-specific.
//
// The wire format is little-endian. A stream starts with a four-byte
// eye-catcher ("SILF" plaintext, "SILE" encrypted), then a sequence of
// records, each a uint16 type tag, a uint32 body size, and the body.
// Strings and byte blobs inside a body are length-prefixed with an
// int32, where -1 marks a nil blob.
//
// Formatter.Compile computes and caches the encoded form and returns
// its exact record size without writing anything; Write emits the
// cached bytes. The split lets callers account for queue budgets and
// rotation thresholds before committing any I/O.
package packet
