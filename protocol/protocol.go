// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wirelog/wirelog/connections"
	"github.com/wirelog/wirelog/lib/clock"
	"github.com/wirelog/wirelog/metric"
	"github.com/wirelog/wirelog/packet"
)

// State is the lifecycle position of a protocol instance.
type State int32

const (
	// Disconnected means no live transport handle exists. Failures
	// from any state land here.
	Disconnected State = iota
	// Connecting is the transient state while the transport opens.
	Connecting
	// Connected guarantees a live transport handle.
	Connected
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return "unknown"
}

// Sentinel errors callers and error handlers branch on.
var (
	// ErrNotConnected reports a write attempted with no live
	// transport and no permissible reconnect.
	ErrNotConnected = errors.New("protocol: not connected")
	// ErrQueueFull reports a packet dropped because trimming could
	// not free enough queue budget.
	ErrQueueFull = errors.New("protocol: queue full, packet dropped")
	// ErrNotStarted reports an operation on an asynchronous protocol
	// before Connect started its worker.
	ErrNotStarted = errors.New("protocol: not connected (worker not started)")
)

// DispatchContext carries the payload of a transport-specific side
// operation. The memory transport expects Data to be an io.Writer to
// flush its buffer into; other transports ignore dispatches.
type DispatchContext struct {
	Data any
}

// Transport supplies one sink's primitives. Implementations are not
// responsible for locking, state tracking, scheduling, or reconnect;
// Protocol calls these with its instance lock held, one call at a
// time.
type Transport interface {
	// Name returns the connections-string protocol name.
	Name() string
	// IsValidOption reports whether the transport accepts the named
	// option (the common options are handled by Protocol).
	IsValidOption(name string) bool
	// LoadOptions reads and validates the transport's options.
	LoadOptions(set *OptionSet) error
	// InternalConnect opens the transport handle.
	InternalConnect() error
	// InternalWritePacket serializes and writes one packet, returning
	// the serialized size.
	InternalWritePacket(p packet.Packet) (int, error)
	// InternalDisconnect closes the transport handle.
	InternalDisconnect() error
	// InternalDispatch runs a side operation.
	InternalDispatch(ctx *DispatchContext) error
}

// Options configures a Protocol instance. The zero value selects the
// real clock, the default slog logger, and no metrics.
type Options struct {
	Clock   clock.Clock
	Logger  *slog.Logger
	Metrics *metric.Metrics
}

// New builds a Protocol for a parsed connections-string descriptor:
// the named transport is selected, the option text parsed, every key
// validated against the transport's whitelist, and the option values
// loaded. Configuration problems fail here, before any connect.
func New(descriptor connections.Descriptor, opts Options) (*Protocol, error) {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	transport, err := newTransport(descriptor.Name, opts.Clock)
	if err != nil {
		return nil, err
	}

	p := &Protocol{
		transport: transport,
		clk:       opts.Clock,
		logger:    opts.Logger.With("protocol", descriptor.Name),
		metrics:   opts.Metrics,
	}

	set, err := ParseOptionSet(descriptor.Options)
	if err != nil {
		return nil, fmt.Errorf("%s protocol: %w", descriptor.Name, err)
	}
	if err := p.loadOptions(set); err != nil {
		return nil, fmt.Errorf("%s protocol: %w", descriptor.Name, err)
	}
	return p, nil
}

// newTransport maps a protocol name to its implementation. The set is
// closed: configuration with an unknown name fails.
func newTransport(name string, clk clock.Clock) (Transport, error) {
	switch name {
	case "tcp":
		return newTCPTransport(), nil
	case "pipe":
		return newPipeTransport(), nil
	case "file":
		return newFileTransport(clk), nil
	case "text":
		return newTextTransport(clk), nil
	case "mem":
		return newMemoryTransport(), nil
	}
	return nil, fmt.Errorf("protocol: unknown protocol %q", name)
}

// Protocol drives one transport through the shared lifecycle. All
// transport primitives run under the instance lock; in asynchronous
// mode only the single worker goroutine takes that path.
type Protocol struct {
	transport Transport
	clk       clock.Clock
	logger    *slog.Logger
	metrics   *metric.Metrics

	state atomic.Int32

	// mu guards the transport handle, reconnect bookkeeping, and all
	// perform* methods.
	mu sync.Mutex

	reconnect         bool
	reconnectInterval time.Duration
	attempted         bool
	lastAttempt       time.Time

	asyncEnabled bool
	worker       *scheduler

	// sizer computes packet sizes for queue accounting on the
	// producer side, independent of the transport's own formatter.
	sizerMu sync.Mutex
	sizer   packet.Formatter

	handlerMu sync.Mutex
	handlers  []func(error)
}

// Default common option values.
const (
	DefaultReconnectInterval = 0
	DefaultAsyncQueueSize    = 2048 * 1024
)

// commonOptions are accepted by every protocol.
var commonOptions = map[string]bool{
	"reconnect":          true,
	"reconnect.interval": true,
	"async.enabled":      true,
	"async.queue":        true,
}

// Name returns the transport's protocol name.
func (p *Protocol) Name() string { return p.transport.Name() }

// State returns the current lifecycle state.
func (p *Protocol) State() State { return State(p.state.Load()) }

func (p *Protocol) setState(s State) { p.state.Store(int32(s)) }

// IsValidOption reports whether the named option is accepted by this
// protocol, either as a common option or by the transport.
func (p *Protocol) IsValidOption(name string) bool {
	return commonOptions[name] || p.transport.IsValidOption(name)
}

// loadOptions validates every supplied key and loads the common and
// transport-specific values. All problems are reported together.
func (p *Protocol) loadOptions(set *OptionSet) error {
	var errs []error
	for _, key := range set.Keys() {
		if !p.IsValidOption(key) {
			errs = append(errs, fmt.Errorf("unknown option %q", key))
		}
	}

	var err error
	if p.reconnect, err = set.Bool("reconnect", false); err != nil {
		errs = append(errs, err)
	}
	if p.reconnectInterval, err = set.Duration("reconnect.interval", DefaultReconnectInterval); err != nil {
		errs = append(errs, err)
	}
	if p.asyncEnabled, err = set.Bool("async.enabled", false); err != nil {
		errs = append(errs, err)
	}
	queueSize, err := set.Size("async.queue", DefaultAsyncQueueSize)
	if err != nil {
		errs = append(errs, err)
	}

	if err := p.transport.LoadOptions(set); err != nil {
		errs = append(errs, err)
	}
	if joined := errors.Join(errs...); joined != nil {
		return joined
	}

	if p.asyncEnabled {
		p.worker = &scheduler{
			maxSize: queueSize,
			execute: p.execute,
			logger:  p.logger,
			onTrim: func(count int) {
				p.metrics.ObserveTrim(p.Name(), count)
			},
			onDrop: func() {
				p.metrics.ObserveDrop(p.Name())
			},
			onDepth: func(count int, bytes int64) {
				p.metrics.ObserveQueue(p.Name(), count, bytes)
			},
		}
	}
	return nil
}

// OnError registers a handler for failures that cannot be returned to
// the caller (asynchronous transport errors, dropped packets).
// Handlers run in registration order; the returned function removes
// the handler.
func (p *Protocol) OnError(handler func(error)) (remove func()) {
	p.handlerMu.Lock()
	defer p.handlerMu.Unlock()
	p.handlers = append(p.handlers, handler)
	index := len(p.handlers) - 1
	return func() {
		p.handlerMu.Lock()
		defer p.handlerMu.Unlock()
		p.handlers[index] = nil
	}
}

// reportError delivers err to the registered handlers and the logger.
// It never panics the worker.
func (p *Protocol) reportError(err error) {
	p.logger.Warn("transport error", "error", err)
	p.handlerMu.Lock()
	handlers := make([]func(error), len(p.handlers))
	copy(handlers, p.handlers)
	p.handlerMu.Unlock()
	for _, handler := range handlers {
		if handler != nil {
			handler(err)
		}
	}
}

// Connect opens the transport. In asynchronous mode it starts the
// worker and enqueues the connect, returning immediately.
func (p *Protocol) Connect() error {
	if p.asyncEnabled {
		p.worker.start()
		if err := p.worker.schedule(SchedulerCommand{Action: ActionConnect}); err != nil {
			p.reportError(p.wrap(err))
		}
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.performConnect()
}

// WritePacket delivers one packet. Synchronous mode blocks for the
// transport I/O and returns its error; asynchronous mode enqueues and
// always returns nil. Failures, including a dropped packet under
// backpressure, go to the error handlers.
func (p *Protocol) WritePacket(pkt packet.Packet) error {
	if p.asyncEnabled {
		size, err := p.packetSize(pkt)
		if err != nil {
			p.reportError(p.wrap(err))
			return nil
		}
		err = p.worker.schedule(SchedulerCommand{
			Action: ActionWritePacket,
			Packet: pkt,
			Size:   int64(size),
		})
		if err != nil {
			p.reportError(p.wrap(err))
		}
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.performWrite(pkt)
}

// Dispatch runs a transport-specific side operation, queued behind
// pending writes in asynchronous mode.
func (p *Protocol) Dispatch(ctx *DispatchContext) error {
	if p.asyncEnabled {
		if err := p.worker.schedule(SchedulerCommand{Action: ActionDispatch, Dispatch: ctx}); err != nil {
			p.reportError(p.wrap(err))
		}
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.transport.InternalDispatch(ctx); err != nil {
		return p.wrap(err)
	}
	return nil
}

// Disconnect closes the transport. In asynchronous mode the
// disconnect is queued behind pending writes, then the worker is
// stopped and joined; the call blocks until the worker has exited.
func (p *Protocol) Disconnect() error {
	if p.asyncEnabled {
		if err := p.worker.schedule(SchedulerCommand{Action: ActionDisconnect}); err != nil {
			p.reportError(p.wrap(err))
		}
		p.worker.stop()
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.performDisconnect()
}

// execute runs one dequeued command on the worker goroutine. Errors
// are reported, never returned: the worker survives every failure.
func (p *Protocol) execute(cmd SchedulerCommand) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	switch cmd.Action {
	case ActionConnect:
		err = p.performConnect()
	case ActionWritePacket:
		err = p.performWrite(cmd.Packet)
	case ActionDisconnect:
		err = p.performDisconnect()
	case ActionDispatch:
		if err = p.transport.InternalDispatch(cmd.Dispatch); err != nil {
			err = p.wrap(err)
		}
	}
	if err != nil {
		p.reportError(err)
	}
}

// performConnect runs with mu held.
func (p *Protocol) performConnect() error {
	if p.State() == Connected {
		return nil
	}
	p.setState(Connecting)
	p.attempted = true
	p.lastAttempt = p.clk.Now()
	if err := p.transport.InternalConnect(); err != nil {
		p.setState(Disconnected)
		p.metrics.ObserveError(p.Name())
		return p.wrap(err)
	}
	p.setState(Connected)
	p.logger.Debug("connected")
	return nil
}

// performWrite runs with mu held. A write with no live connection
// first attempts a paced reconnect when enabled; a transport failure
// drops the connection so the next write retries.
func (p *Protocol) performWrite(pkt packet.Packet) error {
	if p.State() != Connected && !p.tryReconnect() {
		return fmt.Errorf("%s protocol: %w", p.Name(), ErrNotConnected)
	}
	size, err := p.transport.InternalWritePacket(pkt)
	if err != nil {
		p.dropConnection()
		p.metrics.ObserveError(p.Name())
		return p.wrap(err)
	}
	p.metrics.ObserveWrite(p.Name(), size)
	return nil
}

// tryReconnect attempts a reconnect when enabled and the configured
// interval has passed since the previous attempt. Runs with mu held.
func (p *Protocol) tryReconnect() bool {
	if !p.reconnect {
		return false
	}
	if p.attempted && p.clk.Now().Sub(p.lastAttempt) < p.reconnectInterval {
		return false
	}
	p.metrics.ObserveReconnect(p.Name())
	return p.performConnect() == nil
}

// dropConnection closes the transport after a failure, returning the
// protocol to Disconnected. Best effort: the close error is logged,
// not propagated, since the triggering error matters more.
func (p *Protocol) dropConnection() {
	if err := p.transport.InternalDisconnect(); err != nil {
		p.logger.Debug("closing failed transport", "error", err)
	}
	p.setState(Disconnected)
}

// performDisconnect runs with mu held.
func (p *Protocol) performDisconnect() error {
	if p.State() == Disconnected {
		return nil
	}
	err := p.transport.InternalDisconnect()
	p.setState(Disconnected)
	if err != nil {
		return p.wrap(err)
	}
	return nil
}

// packetSize computes pkt's serialized size for queue accounting.
func (p *Protocol) packetSize(pkt packet.Packet) (int, error) {
	p.sizerMu.Lock()
	defer p.sizerMu.Unlock()
	return p.sizer.Compile(pkt)
}

func (p *Protocol) wrap(err error) error {
	return fmt.Errorf("%s protocol: %w", p.Name(), err)
}
