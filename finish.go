package crt

import "go.uber.org/atomic"

// FinishScope is a nested termination barrier: the exact number of
// tasks spawned within it (transitively) that have not yet completed,
// plus one for each live child scope (spec.md section 3, component D).
// Lifetime is LIFO: created by startFinish, destroyed by a matching
// endFinish, nested strictly within the worker that created it.
type FinishScope struct {
	counter atomic.Int64
	parent  *FinishScope
}

// newFinishScope creates a scope nested under parent (nil for the root
// scope). If parent is non-nil its counter is incremented: the child is
// one outstanding unit of work from the parent's perspective.
func newFinishScope(parent *FinishScope) *FinishScope {
	f := &FinishScope{parent: parent}
	if parent != nil {
		parent.counter.Inc()
	}
	return f
}

// checkIn increments the scope's pending-task counter. Spawn calls this
// before enqueueing the task; this ordering (increment precedes
// enqueue) is what makes the counter race-free (spec.md section 4.D).
func (f *FinishScope) checkIn() {
	f.counter.Inc()
}

// checkOut decrements the scope's pending-task counter. A task's
// execution calls this on completion; decrements always follow
// completion.
func (f *FinishScope) checkOut() {
	f.counter.Dec()
}

// Pending returns the current value of the scope's pending-task
// counter — a snapshot, used by totalPendingLocalAsyncs.
func (f *FinishScope) Pending() int64 {
	return f.counter.Load()
}

// StartFinish creates a new scope nested under the calling worker's
// current scope and makes it current (spec.md section 4.D, "start").
func (w *Worker) StartFinish() {
	w.currentFinish = newFinishScope(w.currentFinish)
}

// Spawn increments the current scope's counter and pushes the task onto
// the calling worker's local deque, falling back to inline execution if
// the deque is full (spec.md section 4.A/4.D). This is the `spawn`
// entry point from spec.md section 6's public API.
func (w *Worker) Spawn(fn Func) {
	w.currentFinish.checkIn()
	task := newTask(fn, w.currentFinish, w.ID)
	if !w.localDeque.Push(task) {
		w.runtime.logger().Warn().Int("worker", w.ID).Msg("deque full, executing inline")
		w.execute(task)
		return
	}
	w.runtime.stats.IncrLocalPush(w.ID)
}

// SpawnAsyncAny behaves like Spawn, but additionally tracks the task
// against the origin worker's asyncAny pushed/stolen counters (spec.md
// section 6's spawn_async_any, surfaced through
// Runtime.TotalAsyncAnyAvailable).
func (w *Worker) SpawnAsyncAny(fn Func) {
	w.currentFinish.checkIn()
	task := newTask(fn, w.currentFinish, w.ID)
	task.asyncAny = true
	w.asyncPushed.Inc()
	if !w.localDeque.Push(task) {
		w.runtime.logger().Warn().Int("worker", w.ID).Msg("deque full, executing inline")
		w.execute(task)
		return
	}
	w.runtime.stats.IncrLocalPush(w.ID)
}

// SpawnComm behaves like Spawn but targets the dedicated communication
// deque (SPEC_FULL.md's supplemented spawn_comm feature); it is only
// valid on worker 0 when the runtime was configured with CommWorker.
func (w *Worker) SpawnComm(fn Func) {
	if w.commDeque == nil {
		panicContractViolation("spawn_comm called but no communication worker is configured")
	}
	w.currentFinish.checkIn()
	task := newTask(fn, w.currentFinish, w.ID)
	if !w.commDeque.Push(task) {
		w.runtime.logger().Warn().Msg("communication deque full, executing inline")
		w.execute(task)
		return
	}
	w.runtime.stats.IncrCommPush()
}

// EndFinish performs the helper-join spec.md section 4.D describes:
// while the current scope's counter is greater than zero, the calling
// worker keeps popping/stealing and executing other tasks (it never
// blocks on finish). Once the counter reaches zero it verifies that
// invariant, decrements the parent's counter (the child's one
// outstanding unit of work is now retired), and pops the scope stack.
func (w *Worker) EndFinish() {
	finish := w.currentFinish
	if finish.counter.Load() > 0 {
		w.helpFinish(finish)
	}
	if finish.counter.Load() != 0 {
		panicContractViolation("end_finish observed non-zero counter after helper loop: %d", finish.counter.Load())
	}
	if finish.parent != nil {
		finish.parent.checkOut()
	}
	w.currentFinish = finish.parent
}

// Finish runs fn inside a fresh, immediately-retired finish scope:
// StartFinish, fn(w), EndFinish (spec.md section 6's `finish(lambda)`).
func (w *Worker) Finish(fn func(w *Worker)) {
	w.StartFinish()
	fn(w)
	w.EndFinish()
}

// helpFinish is the helper-join loop. A worker configured with a
// dedicated communication deque pops exclusively from it — spec.md
// section 4.C: "only the master pops from it and the master never
// steals" — mirroring the original's master_worker_routine, which
// busy-loops solely on the comm deque. Every other worker pops locally,
// then steals within the place and up the tree, executing whatever is
// found, and repeats until the scope's counter reaches zero. Checking
// the communication deque here is what actually drains spawn_comm
// tasks on the master: worker 0 never runs workerLoop (it is the
// caller's own goroutine executing Init/Finish/Finalize directly), so
// this is its only service point for commDeque.
func (w *Worker) helpFinish(finish *FinishScope) {
	for finish.counter.Load() > 0 {
		if w.localDeque == nil && w.commDeque == nil {
			// A worker with no deque at all cannot pop, steal, or service
			// a comm queue, so it can never retire this scope's counter.
			// Stop spinning rather than loop forever; EndFinish's
			// post-loop check reports the leak.
			break
		}
		var task *Task
		var ok bool
		if w.commDeque != nil {
			task, ok = w.commDeque.Pop()
		} else {
			task, ok = w.localDeque.Pop()
			if !ok {
				task, ok = w.stealOnce()
			}
		}
		if ok {
			w.execute(task)
		}
	}
}
