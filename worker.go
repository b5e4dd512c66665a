package crt

import "go.uber.org/atomic"

// WorkerState is the state-machine value spec.md section 4.C assigns to
// each worker: {Idle, Popping, Stealing, Executing, Draining, Exiting}.
type WorkerState int

const (
	StateIdle WorkerState = iota
	StatePopping
	StateStealing
	StateExecuting
	StateDraining
	StateExiting
)

func (s WorkerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePopping:
		return "popping"
	case StateStealing:
		return "stealing"
	case StateExecuting:
		return "executing"
	case StateDraining:
		return "draining"
	case StateExiting:
		return "exiting"
	default:
		return "unknown"
	}
}

// Worker is the scheduling unit of spec.md section 3, component "Worker
// State", run as a plain goroutine: a numeric id, the place it is resident at,
// its current finish scope, and (for worker 0 only, when configured)
// the dedicated communication deque.
type Worker struct {
	ID            int
	place         *Place
	localDeque    *Deque
	commDeque     *Deque // non-nil only on worker 0 with Options.CommWorker
	currentFinish *FinishScope
	runtime       *Runtime
	state         atomic.Int32

	asyncPushed atomic.Int64
	asyncStolen atomic.Int64
}

func newWorker(id int, place *Place, runtime *Runtime) *Worker {
	return &Worker{
		ID:         id,
		place:      place,
		localDeque: NewDeque(runtime.opts.DequeSize),
		runtime:    runtime,
	}
}

// State returns the worker's current state-machine value.
func (w *Worker) State() WorkerState {
	return WorkerState(w.state.Load())
}

func (w *Worker) setState(s WorkerState) {
	w.state.Store(int32(s))
}

// IsMaster reports whether this worker is worker 0 — the caller that
// invoked Init (spec.md section 3: "it does not spawn itself").
func (w *Worker) IsMaster() bool {
	return w.ID == 0
}

// execute runs a task: it installs the task's finish scope as the
// worker's current scope, runs the closure, decrements that finish
// scope's counter, and drops the task (spec.md section 4.C/4.E).
func (w *Worker) execute(t *Task) {
	w.setState(StateExecuting)
	w.currentFinish = t.finish
	t.run(w)
	t.finish.checkOut()
	w.setState(StateIdle)
}

// stealOnce tries to steal one task, first from this worker's own
// place's siblings (starting at (self+1) mod N in worker-id order),
// then escalating to the parent place's siblings if the local place's
// deques are all empty — the only source of steal locality (spec.md
// section 4.B).
func (w *Worker) stealOnce() (*Task, bool) {
	w.setState(StateStealing)
	defer w.setState(StateIdle)

	for place := w.place; place != nil; place = place.Parent {
		if task, ok := w.stealWithin(place); ok {
			w.runtime.stats.IncrSteal(w.ID)
			return task, true
		}
		if place.Depth() > 0 {
			w.runtime.logger().Debug().Int("worker", w.ID).Int("place_depth", place.Depth()).Msg("steal escalating to parent place")
		}
	}
	return nil, false
}

// stealWithin scans place's resident workers (excluding w itself) in
// worker-id order starting from the sibling after w, per spec.md
// section 4.A's tie-break rule.
func (w *Worker) stealWithin(place *Place) (*Task, bool) {
	siblings := place.Workers
	n := len(siblings)
	if n == 0 {
		return nil, false
	}

	selfPos := -1
	for i, id := range siblings {
		if id == w.ID {
			selfPos = i
			break
		}
	}

	for offset := 1; offset <= n; offset++ {
		var idx int
		if selfPos >= 0 {
			idx = (selfPos + offset) % n
		} else {
			idx = offset % n
		}
		victimID := siblings[idx]
		if victimID == w.ID {
			continue
		}
		victim := w.runtime.workers[victimID]
		if task, ok := victim.localDeque.Steal(); ok {
			if task.asyncAny {
				victim.asyncStolen.Inc()
			}
			return task, true
		}
	}
	return nil, false
}

// workerLoop is the main scheduling loop a spawned OS thread (goroutine)
// runs: pop local; if none, steal within place then up the tree; if
// found, execute (spec.md section 4.C). Only workers 1..N-1 run this —
// worker 0 (the master) is the caller's own goroutine, driving
// Init/Finish/Finalize directly rather than looping here; its dedicated
// communication deque, when configured, is serviced by helpFinish
// instead (finish.go).
func (w *Worker) workerLoop() {
	for w.runtime.running.Load() {
		w.setState(StatePopping)
		task, ok := w.localDeque.Pop()

		if !ok {
			task, ok = w.stealOnce()
		}

		if ok {
			w.execute(task)
		}
	}

	w.drain()
}

// drain runs any tasks still resident in the worker's local deque after
// the runtime's done-flag has been cleared, so that in-flight work is
// not silently dropped on shutdown (spec.md section 4.C: "workers exit
// after draining their deques").
func (w *Worker) drain() {
	w.setState(StateDraining)
	for {
		task, ok := w.localDeque.Pop()
		if !ok {
			break
		}
		w.execute(task)
	}
	w.setState(StateExiting)
}
