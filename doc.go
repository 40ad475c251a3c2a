// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

// Package wirelog is a client-side telemetry transport library. It
// ships structured trace packets (log entries, watches, process-flow
// markers, control commands) over interchangeable transports in the
// compact SIL binary wire format.
//
// A Client is configured with a connections string naming one or more
// transports and their options:
//
//	client, err := wirelog.New(wirelog.Options{
//		AppName:     "orders",
//		Connections: "tcp(host=relay.internal), file(filename=orders.sil, rotate=daily)",
//	})
//	if err != nil {
//		// a malformed connections string fails here, before any I/O
//	}
//	if err := client.Connect(); err != nil {
//		// degraded: some transports may still be up
//	}
//	defer client.Disconnect()
//
//	client.Write(&packet.LogEntry{Title: "order placed"})
//
// Every write fans out to all configured transports in declaration
// order. Transports marked async.enabled=true buffer writes through a
// bounded queue and never block the caller; their failures are
// delivered to error listeners registered with OnError.
package wirelog
