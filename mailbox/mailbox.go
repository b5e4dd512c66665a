package mailbox

import "runtime"

// Conveyor is the opaque all-to-all exchange engine spec.md section 6
// treats as a collaborator: "must provide new(size_max, tag, hint,
// flags), begin(size_of_payload), advance(done) returning bool (false =
// terminal), push(payload, rank) returning bool, pull(out_payload,
// out_rank) returning ok/empty, free()". This module never implements
// the real transport (it is an explicit Non-goal); LoopbackConveyor in
// loopback.go is a supplemented local stand-in used for testing.
type Conveyor[T any] interface {
	// Begin prepares the conveyor to exchange values of T. Called once
	// (by Mailbox.Start), after the ConveyorFactory has built the
	// conveyor and before the first Advance.
	Begin()
	// Advance drives one round of the exchange. done is true only when
	// the caller's next packet to push is the done sentinel. Advance
	// returns false once the conveyor has reached terminal quiescence.
	Advance(done bool) bool
	// Push hands one payload bound for rank to the conveyor. It returns
	// false if the conveyor's outbound staging is full; the caller must
	// retry on a later Advance round.
	Push(payload T, rank int64) bool
	// Pull retrieves one inbound (payload, source rank) pair. ok is
	// false once there is nothing more to pull this round.
	Pull() (payload T, rank int64, ok bool)
	// Free releases the conveyor's resources.
	Free()
}

// ConveyorFactory constructs a Conveyor sized for the given hint (the
// original's size_max/hint parameters collapsed into one, since this
// port does not model a fixed SIZE_MAX distinct from the capacity hint).
type ConveyorFactory[T any] func(sizeHint int) Conveyor[T]

// Handler processes one inbound (payload, source rank) pair.
type Handler[T any] func(payload T, sourceRank int64)

// Mailbox is a per-endpoint send queue driving a conveyor advance loop
// (spec.md section 3, component H). One Mailbox owns exactly one safe
// buffer and one conveyor; its worker loop is the sole consumer of both.
type Mailbox[T any] struct {
	buffer   *SafeBuffer[BufferPacket[T]]
	conveyor Conveyor[T]
	handler  Handler[T]
	done     chan struct{}
}

// NewMailbox constructs a mailbox with the given buffer capacity (0 for
// DefaultCapacity), conveyor factory, and inbound message handler.
func NewMailbox[T any](capacity int, factory ConveyorFactory[T], handler Handler[T]) *Mailbox[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Mailbox[T]{
		buffer:   NewSafeBuffer[BufferPacket[T]](capacity),
		conveyor: factory(capacity),
		handler:  handler,
		done:     make(chan struct{}),
	}
}

// Start prepares the mailbox's conveyor for exchange (spec.md section
// 4.H step 0: conveyor construction/begin, split from the worker loop
// itself so a Selector can start every mailbox's conveyor before
// launching any worker loops).
func (m *Mailbox[T]) Start() {
	m.conveyor.Begin()
}

// Send appends an outbound packet to the mailbox's buffer. Undefined
// (per spec.md section 4.H note) after Done has been called.
func (m *Mailbox[T]) Send(payload T, rank int64) {
	m.buffer.Append(BufferPacket[T]{Data: payload, Rank: rank})
}

// Done appends the done sentinel, signaling no further sends on this
// mailbox. It transitions the conveyor to a draining state once the
// worker loop observes it as the first visible packet.
func (m *Mailbox[T]) Done() {
	var zero T
	m.buffer.Append(BufferPacket[T]{Data: zero, Rank: doneRank})
}

// WorkerLoopDone returns a channel closed once the worker loop has
// observed conveyor termination and posted completion (the original's
// promise_t<int> worker_loop_end, expressed as a channel close instead
// of a future so a Selector can select/range over it directly).
func (m *Mailbox[T]) WorkerLoopDone() <-chan struct{} {
	return m.done
}

// StartWorkerLoop launches the mailbox's cooperative worker loop in its
// own goroutine: spin until the buffer is non-empty, then repeatedly
// advance the conveyor, push as much of the buffer as it accepts,
// drain-erase the pushed prefix, pull and dispatch every inbound
// message, and yield — until Advance reports terminal (spec.md section
// 4.H). Exactly one goroutine runs this per mailbox, matching the
// at-most-one-concurrent-erase invariant SafeBuffer assumes.
func (m *Mailbox[T]) StartWorkerLoop() {
	go m.workerLoop()
}

func (m *Mailbox[T]) workerLoop() {
	for m.buffer.Size() == 0 {
		runtime.Gosched()
	}

	head := m.buffer.At(0)
	for m.conveyor.Advance(head.IsDone()) {
		size := m.buffer.Size()
		i := 1
		for ; i <= size-1; i++ {
			if !m.conveyor.Push(head.Data, head.Rank) {
				break
			}
			head = m.buffer.At(i)
		}
		if i > 1 {
			m.buffer.ErasePrefix(i - 1)
		}

		for {
			payload, rank, ok := m.conveyor.Pull()
			if !ok {
				break
			}
			m.handler(payload, rank)
		}
		runtime.Gosched()
	}

	m.conveyor.Free()
	close(m.done)
}
