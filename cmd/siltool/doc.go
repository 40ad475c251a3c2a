// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

// Siltool inspects SIL binary log files produced by the wirelog
// transports.
//
// It decodes one or more .sil files (including .zst/.lz4 compressed
// rotated parts) and renders the packets:
//
//	siltool app.sil                          # human-readable lines
//	siltool --format json app.sil            # one JSON object per packet
//	siltool --format cbor app.sil > out.cbor # CBOR sequence
//	siltool --key "0123456789abcdef" enc.sil # decrypt a SILE stream
//	siltool --sqlite index.db *.sil          # index packets for SQL queries
//
// The SQLite index holds one row per packet in a single "packets"
// table, keyed by source file, for ad-hoc querying with any SQLite
// client.
package main
