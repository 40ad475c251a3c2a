// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

// Package protocol implements the transport lifecycle shared by every
// sink: option validation, the Disconnected/Connecting/Connected
// state machine, reconnect pacing, and optional asynchronous delivery
// through a bounded command queue drained by one worker goroutine per
// protocol instance.
//
// The concrete transports form a closed set selected by the parsed
// protocol name: "tcp", "pipe", "file", "text", and "mem". Each
// supplies only its primitives (connect, write, disconnect, dispatch)
// and its option whitelist; scheduling, ordering, backpressure, and
// error reporting live in Protocol and are identical across
// transports.
//
// Ordering: commands for one protocol instance execute in strict
// enqueue order. A Disconnect enqueued behind pending writes runs
// after them, so shutdown never silently drops data that trimming
// did not already discard.
//
// Asynchronous failures never reach the producer as an error return;
// they are delivered to registered error handlers, and the worker
// keeps running.
package protocol
