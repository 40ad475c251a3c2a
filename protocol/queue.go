// Copyright 2026 The Wirelog Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"sync"

	"github.com/wirelog/wirelog/packet"
)

// Action identifies what a scheduler command asks the worker to do.
type Action int

const (
	// ActionConnect opens the transport.
	ActionConnect Action = iota
	// ActionWritePacket writes one packet. The only trimmable action.
	ActionWritePacket
	// ActionDisconnect closes the transport.
	ActionDisconnect
	// ActionDispatch runs a transport-specific side operation.
	ActionDispatch
)

// SchedulerCommand is one unit of work for a protocol's worker. Size
// is the serialized packet size for ActionWritePacket and zero
// otherwise. The queue owns a command from enqueue to dequeue.
type SchedulerCommand struct {
	Action   Action
	Packet   packet.Packet
	Dispatch *DispatchContext
	Size     int64
}

// ItemOverhead is the fixed per-command bookkeeping cost counted
// toward the queue byte budget, on top of the packet payload size.
const ItemOverhead = 24

// Queue is the scheduler's byte-accounted FIFO. Count and Size stay
// consistent across every operation; all methods are safe for
// concurrent use.
type Queue struct {
	mu    sync.Mutex
	items []SchedulerCommand
	size  int64
}

// Enqueue appends a command unconditionally.
func (q *Queue) Enqueue(cmd SchedulerCommand) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enqueueLocked(cmd)
}

func (q *Queue) enqueueLocked(cmd SchedulerCommand) {
	q.items = append(q.items, cmd)
	q.size += cmd.Size + ItemOverhead
}

// Dequeue removes and returns the oldest command.
func (q *Queue) Dequeue() (SchedulerCommand, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return SchedulerCommand{}, false
	}
	cmd := q.items[0]
	q.items[0] = SchedulerCommand{} // release the packet for GC
	q.items = q.items[1:]
	q.size -= cmd.Size + ItemOverhead
	return cmd, true
}

// Trim frees at least required bytes by discarding WritePacket
// commands, oldest first. Structural commands (Connect, Disconnect,
// Dispatch) are never discarded. Returns true once enough space is
// freed; if discarding every eligible command still would not free
// required bytes, the queue is left unchanged and Trim returns false.
func (q *Queue) Trim(required int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.trimLocked(required)
	return ok
}

func (q *Queue) trimLocked(required int64) (removed int, ok bool) {
	var freeable int64
	for _, cmd := range q.items {
		if cmd.Action != ActionWritePacket {
			continue
		}
		freeable += cmd.Size + ItemOverhead
		if freeable >= required {
			break
		}
	}
	if freeable < required {
		return 0, false
	}

	var freed int64
	kept := q.items[:0]
	for _, cmd := range q.items {
		if freed < required && cmd.Action == ActionWritePacket {
			freed += cmd.Size + ItemOverhead
			removed++
			continue
		}
		kept = append(kept, cmd)
	}
	// Zero the tail so discarded packets are collectable.
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = SchedulerCommand{}
	}
	q.items = kept
	q.size -= freed
	return removed, true
}

// Offer enqueues cmd subject to the byte budget. WritePacket commands
// that would exceed maxSize trigger a Trim for the shortfall; if
// trimming cannot free enough, the command is rejected and the queue
// is unchanged. Structural commands bypass the budget; they must
// never be dropped. Returns the number of commands trimmed away and
// whether cmd was enqueued.
func (q *Queue) Offer(cmd SchedulerCommand, maxSize int64) (trimmed int, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	needed := cmd.Size + ItemOverhead
	if cmd.Action == ActionWritePacket && maxSize > 0 && q.size+needed > maxSize {
		trimmed, ok = q.trimLocked(q.size + needed - maxSize)
		if !ok {
			return 0, false
		}
	}
	q.enqueueLocked(cmd)
	return trimmed, true
}

// Count returns the number of queued commands.
func (q *Queue) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Size returns the accounted byte size of the queue, including the
// per-command overhead.
func (q *Queue) Size() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}
