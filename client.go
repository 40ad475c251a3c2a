// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package wirelog

import (
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/wirelog/wirelog/connections"
	"github.com/wirelog/wirelog/lib/clock"
	"github.com/wirelog/wirelog/lib/config"
	"github.com/wirelog/wirelog/metric"
	"github.com/wirelog/wirelog/packet"
	"github.com/wirelog/wirelog/protocol"
)

// Options configures a Client.
type Options struct {
	// AppName identifies this application in emitted packets.
	AppName string
	// HostName overrides the OS host name in emitted packets.
	HostName string
	// Connections is the initial connections string. Empty means no
	// transports until SetConnections is called.
	Connections string
	// Logger receives diagnostics; nil means slog.Default().
	Logger *slog.Logger
	// Clock supplies time for packet stamps, reconnect pacing, and
	// file rotation; nil means the real clock.
	Clock clock.Clock
	// Metrics receives transport counters; nil disables them.
	Metrics *metric.Metrics
}

// Client fans telemetry packets out to a set of configured transports.
// All methods are safe for concurrent use.
type Client struct {
	appName   string
	hostName  string
	processID uint32
	logger    *slog.Logger
	clk       clock.Clock
	metrics   *metric.Metrics

	mu        sync.Mutex
	protocols []*protocol.Protocol
	removals  []func()
	connected bool
	enabled   bool

	handlerMu sync.Mutex
	handlers  []func(error)
}

// New builds a Client. A malformed connections string or a bad option
// fails here, before any transport I/O.
func New(opts Options) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	hostName := opts.HostName
	if hostName == "" {
		hostName, _ = os.Hostname()
	}

	c := &Client{
		appName:   opts.AppName,
		hostName:  hostName,
		processID: uint32(os.Getpid()),
		logger:    opts.Logger,
		clk:       opts.Clock,
		metrics:   opts.Metrics,
		enabled:   true,
	}
	if opts.Connections != "" {
		if err := c.SetConnections(opts.Connections); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NewFromConfig builds a Client from a loaded configuration file.
// Explicit opts fields win over the file.
func NewFromConfig(cfg *config.Config, opts Options) (*Client, error) {
	if opts.AppName == "" {
		opts.AppName = cfg.AppName
	}
	if opts.HostName == "" {
		opts.HostName = cfg.HostName
	}
	if opts.Connections == "" {
		opts.Connections = cfg.Connections
	}
	c, err := New(opts)
	if err != nil {
		return nil, err
	}
	c.SetEnabled(cfg.IsEnabled())
	return c, nil
}

// SetEnabled switches packet delivery on or off. A disabled client
// accepts writes and discards them.
func (c *Client) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

// OnError registers a listener for failures that cannot be returned to
// a caller: asynchronous transport errors and packets dropped under
// backpressure. Listeners run in registration order; the returned
// function removes the listener.
func (c *Client) OnError(listener func(error)) (remove func()) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.handlers = append(c.handlers, listener)
	index := len(c.handlers) - 1
	return func() {
		c.handlerMu.Lock()
		defer c.handlerMu.Unlock()
		c.handlers[index] = nil
	}
}

func (c *Client) dispatchError(err error) {
	c.handlerMu.Lock()
	listeners := make([]func(error), len(c.handlers))
	copy(listeners, c.handlers)
	c.handlerMu.Unlock()
	for _, listener := range listeners {
		if listener != nil {
			listener(err)
		}
	}
}

// SetConnections replaces the transport set with the one described by
// the connections string. The new set must build completely before the
// old one is touched; if the client is connected, the old transports
// are disconnected and the new ones connected.
func (c *Client) SetConnections(conns string) error {
	descriptors, err := connections.Parse(conns)
	if err != nil {
		return err
	}

	popts := protocol.Options{
		Clock:   c.clk,
		Logger:  c.logger,
		Metrics: c.metrics,
	}
	protocols := make([]*protocol.Protocol, 0, len(descriptors))
	removals := make([]func(), 0, len(descriptors))
	for _, descriptor := range descriptors {
		p, err := protocol.New(descriptor, popts)
		if err != nil {
			return err
		}
		protocols = append(protocols, p)
		removals = append(removals, p.OnError(c.dispatchError))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.connected {
		errs = append(errs, c.disconnectLocked())
	}
	for _, remove := range c.removals {
		remove()
	}
	c.protocols = protocols
	c.removals = removals
	if c.connected {
		errs = append(errs, c.connectLocked())
	}
	return errors.Join(errs...)
}

// Connect opens every transport in declaration order. A failure on one
// transport does not stop the rest; the joined errors are returned.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true
	return c.connectLocked()
}

func (c *Client) connectLocked() error {
	var errs []error
	for _, p := range c.protocols {
		if err := p.Connect(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Disconnect closes every transport. Asynchronous transports drain
// their queues first, so Disconnect blocks until buffered packets are
// flushed.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	return c.disconnectLocked()
}

func (c *Client) disconnectLocked() error {
	var errs []error
	for _, p := range c.protocols {
		if err := p.Disconnect(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Write stamps and delivers one packet to every transport in
// declaration order. Transport failures do not stop the fan-out; the
// joined errors are returned (asynchronous transports report theirs
// through OnError instead).
func (c *Client) Write(p packet.Packet) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return nil
	}

	c.stamp(p)
	var errs []error
	for _, proto := range c.protocols {
		if err := proto.WritePacket(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispatch runs a transport side operation (such as flushing a mem
// transport) on every configured transport.
func (c *Client) Dispatch(ctx *protocol.DispatchContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for _, p := range c.protocols {
		if err := p.Dispatch(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// stamp fills identity fields the caller left unset. The packet is
// mutated in place, which is why a packet must not be shared across
// concurrent writers.
func (c *Client) stamp(p packet.Packet) {
	head := p.Head()
	if head.Timestamp.IsZero() {
		head.Timestamp = c.clk.Now()
	}
	if head.ProcessID == 0 {
		head.ProcessID = c.processID
	}
	switch p := p.(type) {
	case *packet.LogEntry:
		if p.HostName == "" {
			p.HostName = c.hostName
		}
		if p.AppName == "" {
			p.AppName = c.appName
		}
	case *packet.ProcessFlow:
		if p.HostName == "" {
			p.HostName = c.hostName
		}
	case *packet.LogHeader:
		if p.HostName == "" {
			p.HostName = c.hostName
		}
		if p.AppName == "" {
			p.AppName = c.appName
		}
	}
}
