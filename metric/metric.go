// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

// Package metric provides Prometheus instrumentation for the
// transport layer. All collectors are labeled by protocol name so a
// client fanning out to several transports stays distinguishable.
//
// Metrics are optional: a nil *Metrics is valid everywhere and every
// observation on it is a no-op, so library users who do not run
// Prometheus pay nothing.
package metric

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the transport-level collectors.
type Metrics struct {
	PacketsWritten *prometheus.CounterVec
	BytesWritten   *prometheus.CounterVec
	WriteErrors    *prometheus.CounterVec
	Reconnects     *prometheus.CounterVec
	PacketsTrimmed *prometheus.CounterVec
	PacketsDropped *prometheus.CounterVec
	QueueCount     *prometheus.GaugeVec
	QueueBytes     *prometheus.GaugeVec
}

// New creates the collector set. Call Register to attach it to a
// Prometheus registry.
func New() *Metrics {
	protocolLabel := []string{"protocol"}
	return &Metrics{
		PacketsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wirelog",
			Subsystem: "transport",
			Name:      "packets_written_total",
			Help:      "Packets successfully written to the transport",
		}, protocolLabel),
		BytesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wirelog",
			Subsystem: "transport",
			Name:      "bytes_written_total",
			Help:      "Serialized packet bytes written to the transport",
		}, protocolLabel),
		WriteErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wirelog",
			Subsystem: "transport",
			Name:      "write_errors_total",
			Help:      "Transport-level write or connect failures",
		}, protocolLabel),
		Reconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wirelog",
			Subsystem: "transport",
			Name:      "reconnects_total",
			Help:      "Reconnect attempts after a lost connection",
		}, protocolLabel),
		PacketsTrimmed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wirelog",
			Subsystem: "queue",
			Name:      "packets_trimmed_total",
			Help:      "Queued write commands discarded by backpressure trimming",
		}, protocolLabel),
		PacketsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wirelog",
			Subsystem: "queue",
			Name:      "packets_dropped_total",
			Help:      "New packets dropped because trimming could not free space",
		}, protocolLabel),
		QueueCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "wirelog",
			Subsystem: "queue",
			Name:      "commands",
			Help:      "Commands currently queued for the scheduler worker",
		}, protocolLabel),
		QueueBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "wirelog",
			Subsystem: "queue",
			Name:      "bytes",
			Help:      "Byte budget currently consumed by queued commands",
		}, protocolLabel),
	}
}

// Register attaches all collectors to the given registerer.
func (m *Metrics) Register(registerer prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.PacketsWritten, m.BytesWritten, m.WriteErrors, m.Reconnects,
		m.PacketsTrimmed, m.PacketsDropped, m.QueueCount, m.QueueBytes,
	}
	for _, collector := range collectors {
		if err := registerer.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// The observation helpers below are nil-safe so protocol code never
// branches on whether metrics are configured.

// ObserveWrite records a successful packet write of the given size.
func (m *Metrics) ObserveWrite(protocol string, size int) {
	if m == nil {
		return
	}
	m.PacketsWritten.WithLabelValues(protocol).Inc()
	m.BytesWritten.WithLabelValues(protocol).Add(float64(size))
}

// ObserveError records a transport failure.
func (m *Metrics) ObserveError(protocol string) {
	if m == nil {
		return
	}
	m.WriteErrors.WithLabelValues(protocol).Inc()
}

// ObserveReconnect records a reconnect attempt.
func (m *Metrics) ObserveReconnect(protocol string) {
	if m == nil {
		return
	}
	m.Reconnects.WithLabelValues(protocol).Inc()
}

// ObserveTrim records write commands discarded by Trim.
func (m *Metrics) ObserveTrim(protocol string, count int) {
	if m == nil {
		return
	}
	m.PacketsTrimmed.WithLabelValues(protocol).Add(float64(count))
}

// ObserveDrop records a packet dropped on enqueue.
func (m *Metrics) ObserveDrop(protocol string) {
	if m == nil {
		return
	}
	m.PacketsDropped.WithLabelValues(protocol).Inc()
}

// ObserveQueue records the queue's current depth and byte size.
func (m *Metrics) ObserveQueue(protocol string, count int, bytes int64) {
	if m == nil {
		return
	}
	m.QueueCount.WithLabelValues(protocol).Set(float64(count))
	m.QueueBytes.WithLabelValues(protocol).Set(float64(bytes))
}
