package mailbox

import "sync"

// LoopbackHub is a supplemented, in-process stand-in for the real
// conveyor transport (an explicit Non-goal per spec.md section 2): a
// fixed set of ranks exchanging messages entirely in memory, used to
// exercise Mailbox and Selector end-to-end (spec.md section 8, scenario
// S4) without depending on the external all-to-all exchange engine.
//
// Each rank gets its own *LoopbackConveyor sharing this hub's state;
// Push(payload, rank) on any conveyor enqueues directly into the target
// rank's inbox, and Pull on that rank's conveyor dequeues it. A rank's
// Advance reports non-terminal until that rank has signaled done and
// its own inbox has drained (see LoopbackConveyor.Advance).
type LoopbackHub[T any] struct {
	mu     sync.Mutex
	inbox  [][]loopbackMsg[T]
	doneBy []bool
	next   int
}

type loopbackMsg[T any] struct {
	payload T
	source  int64
}

// NewLoopbackHub builds a hub for the given number of ranks.
func NewLoopbackHub[T any](ranks int) *LoopbackHub[T] {
	return &LoopbackHub[T]{
		inbox:  make([][]loopbackMsg[T], ranks),
		doneBy: make([]bool, ranks),
	}
}

// Factory returns a ConveyorFactory assigning ranks in call order: the
// first mailbox built from it gets rank 0, the second rank 1, and so
// on. NewSelector and NewMailbox both call their factory in that order,
// so passing this directly to NewSelector wires up ranks correctly.
func (h *LoopbackHub[T]) Factory() ConveyorFactory[T] {
	return func(int) Conveyor[T] {
		h.mu.Lock()
		rank := h.next
		h.next++
		h.mu.Unlock()
		return &LoopbackConveyor[T]{hub: h, rank: rank}
	}
}

// LoopbackConveyor is one rank's view of a LoopbackHub.
type LoopbackConveyor[T any] struct {
	hub  *LoopbackHub[T]
	rank int
}

func (c *LoopbackConveyor[T]) Begin() {}

// Advance reports terminal (false) once this rank itself has been
// marked done and its own inbox has drained. This is deliberately a
// per-rank, local-only condition rather than a genuine collective
// barrier across every rank: the Selector's done-chain only ever
// forwards Done to rank i+1 after rank i's worker loop has already
// terminated, so by construction every Push a prior rank owed rank i
// has already landed in rank i's inbox by the time rank i is told to
// finish. A cross-rank barrier here (waiting for every rank's doneBy)
// would deadlock against that sequential forwarding order.
func (c *LoopbackConveyor[T]) Advance(done bool) bool {
	h := c.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	if done {
		h.doneBy[c.rank] = true
	}
	return !(h.doneBy[c.rank] && len(h.inbox[c.rank]) == 0)
}

func (c *LoopbackConveyor[T]) Push(payload T, rank int64) bool {
	h := c.hub
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inbox[rank] = append(h.inbox[rank], loopbackMsg[T]{payload: payload, source: int64(c.rank)})
	return true
}

func (c *LoopbackConveyor[T]) Pull() (payload T, rank int64, ok bool) {
	h := c.hub
	h.mu.Lock()
	defer h.mu.Unlock()

	q := h.inbox[c.rank]
	if len(q) == 0 {
		var zero T
		return zero, 0, false
	}
	msg := q[0]
	h.inbox[c.rank] = q[1:]
	return msg.payload, msg.source, true
}

func (c *LoopbackConveyor[T]) Free() {}
