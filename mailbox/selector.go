package mailbox

import "go.uber.org/atomic"

// Selector holds N independent mailboxes sharing a termination protocol
// (spec.md section 3, component I). Start initializes every mailbox's
// conveyor and launches its worker loop; Send(i, ...) delegates to
// mailbox i; Done(i) appends the done sentinel to mailbox i and, once
// its worker loop completes, forwards done to the next mailbox by index
// so that users only ever need to call Done on one endpoint.
type Selector[T any] struct {
	mailboxes []*Mailbox[T]
	loopEnd   atomic.Int32
}

// NewSelector constructs a Selector over n mailboxes, each built with
// the given buffer capacity (0 for DefaultCapacity), conveyor factory,
// and inbound message handler.
func NewSelector[T any](n int, capacity int, factory ConveyorFactory[T], handler Handler[T]) *Selector[T] {
	mbs := make([]*Mailbox[T], n)
	for i := range mbs {
		mbs[i] = NewMailbox[T](capacity, factory, handler)
	}
	return &Selector[T]{mailboxes: mbs}
}

// N returns the number of mailboxes in the selector.
func (s *Selector[T]) N() int {
	return len(s.mailboxes)
}

// Mailbox returns the i'th mailbox, for callers that need direct access
// (e.g. to observe WorkerLoopDone for the last one to finish).
func (s *Selector[T]) Mailbox(i int) *Mailbox[T] {
	return s.mailboxes[i]
}

// Start initializes every mailbox's conveyor and launches its worker
// loop goroutine.
func (s *Selector[T]) Start() {
	for _, mb := range s.mailboxes {
		mb.Start()
		mb.StartWorkerLoop()
	}
}

// Send delegates to mailbox mbID.
func (s *Selector[T]) Send(mbID int, payload T, rank int64) {
	s.mailboxes[mbID].Send(payload, rank)
}

// Done appends the done sentinel to mailbox mbID and registers a
// continuation: when that mailbox's worker loop completes, the shared
// completion counter is incremented, and if fewer than N mailboxes have
// completed, done is forwarded to mailbox (mbID+1) % N.
//
// The original selector.h computes the next index as (mb_id+1) % SIZE,
// where SIZE is the per-mailbox buffer capacity rather than N — a
// defect spec.md section 9 flags explicitly. This port uses % N, the
// actual mailbox count, so the chain always lands on a valid index
// regardless of buffer capacity.
func (s *Selector[T]) Done(mbID int) {
	mb := s.mailboxes[mbID]
	mb.Done()

	n := len(s.mailboxes)
	go func() {
		<-mb.WorkerLoopDone()
		if s.loopEnd.Inc() < int32(n) {
			next := (mbID + 1) % n
			s.Done(next)
		}
	}()
}

// NumCompleted returns a snapshot of how many mailbox worker loops have
// completed so far.
func (s *Selector[T]) NumCompleted() int32 {
	return s.loopEnd.Load()
}

// Wait blocks until every mailbox's worker loop has completed.
func (s *Selector[T]) Wait() {
	for _, mb := range s.mailboxes {
		<-mb.WorkerLoopDone()
	}
}
