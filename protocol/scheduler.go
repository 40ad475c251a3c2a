// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"log/slog"
	"sync"
)

// scheduler runs one worker goroutine that drains a protocol's
// command queue in strict FIFO order. Producers only touch the queue
// and return immediately; all transport I/O happens on the worker.
type scheduler struct {
	queue   Queue
	maxSize int64

	// execute runs one command against the protocol. Errors are
	// handled inside (reported to the protocol's error handlers);
	// the worker never stops on a failed command.
	execute func(SchedulerCommand)

	// onTrim and onDrop report backpressure decisions; onDepth
	// reports queue gauges after every mutation.
	onTrim  func(count int)
	onDrop  func()
	onDepth func(count int, bytes int64)

	logger *slog.Logger

	mu      sync.Mutex
	running bool
	notify  chan struct{}
	stopped chan struct{}
	done    chan struct{}
}

// start launches the worker if it is not already running.
func (s *scheduler) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.notify = make(chan struct{}, 1)
	s.stopped = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.notify, s.stopped, s.done)
}

// stop signals the worker, waits for it to drain the queue and exit,
// and leaves the scheduler restartable.
func (s *scheduler) stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	stopped, done := s.stopped, s.done
	s.mu.Unlock()

	close(stopped)
	<-done

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// schedule enqueues a command for the worker, applying the byte
// budget to write commands. A rejected write returns ErrQueueFull.
func (s *scheduler) schedule(cmd SchedulerCommand) error {
	s.mu.Lock()
	running := s.running
	notify := s.notify
	s.mu.Unlock()
	if !running {
		return ErrNotStarted
	}

	trimmed, ok := s.queue.Offer(cmd, s.maxSize)
	if trimmed > 0 {
		s.onTrim(trimmed)
		s.logger.Warn("queue budget exceeded, trimmed oldest packets",
			"trimmed", trimmed,
			"queue_bytes", s.queue.Size(),
		)
	}
	if !ok {
		s.onDrop()
		return ErrQueueFull
	}
	s.onDepth(s.queue.Count(), s.queue.Size())

	select {
	case notify <- struct{}{}:
	default:
	}
	return nil
}

// run is the worker loop: wake on notify, drain everything available,
// and on stop make a final drain pass so queued data is not silently
// abandoned.
func (s *scheduler) run(notify, stopped, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-notify:
			s.drain()
		case <-stopped:
			s.drain()
			return
		}
	}
}

func (s *scheduler) drain() {
	for {
		cmd, ok := s.queue.Dequeue()
		if !ok {
			return
		}
		s.onDepth(s.queue.Count(), s.queue.Size())
		s.execute(cmd)
	}
}
