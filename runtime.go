package crt

import (
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

// Runtime is the entrypoint handle spec.md section 4.J/component J
// describes: the replacement for hclib's global crt_context. It owns
// the worker list, the place tree, the shared stats counters, and the
// isolation map, and drives worker-thread lifecycle the way
// crt_entrypoint/crt_createWorkerThreads/crt_join_workers do.
type Runtime struct {
	opts      Options
	root      *Place
	workers   []*Worker
	stats     *Stats
	isolation *IsolationMap
	running   atomic.Bool
	group     *errgroup.Group
}

func (r *Runtime) logger() *zerolog.Logger {
	return &r.opts.Logger
}

// NumWorkers returns the number of workers in the runtime (spec.md
// section 6's num_workers()).
func (r *Runtime) NumWorkers() int {
	return len(r.workers)
}

// Worker returns the worker with the given id.
func (r *Runtime) Worker(id int) *Worker {
	return r.workers[id]
}

// Isolation returns the runtime's isolation map (spec.md component F).
func (r *Runtime) Isolation() *IsolationMap {
	return r.isolation
}

// Stats returns the runtime's shared statistics counters.
func (r *Runtime) Stats() *Stats {
	return r.stats
}

// TotalAsyncAnyAvailable returns a snapshot of asyncAny tasks pushed but
// not yet stolen, summed over every worker but the master (spec.md
// section 6; hcpp-runtime.cpp's totalAsyncAnyAvailable).
func (r *Runtime) TotalAsyncAnyAvailable() int64 {
	var total int64
	for i := 1; i < len(r.workers); i++ {
		w := r.workers[i]
		total += w.asyncPushed.Load() - w.asyncStolen.Load()
	}
	return total
}

// TotalPendingLocalAsyncs returns the calling worker's current finish
// scope's pending-task counter (spec.md section 6;
// hcpp-runtime.cpp's totalPendingLocalAsyncs, the `#if 1` branch it
// actually ships).
func (w *Worker) TotalPendingLocalAsyncs() int64 {
	return w.currentFinish.Pending()
}

// Init builds the runtime: allocates a root-only place tree (Init does
// not read opts.HPTFile; a caller that needs a non-default hierarchy
// builds the *Place tree itself and calls InitWithPlace), spawns NumWorkers-1 worker
// goroutines, installs the calling goroutine as worker 0, allocates the
// root finish scope, and starts a top-level finish the way
// crt_entrypoint does.
//
// It returns the Runtime handle and the master Worker (worker 0); the
// caller is the master and must eventually call Finalize.
func Init(opts Options) (*Runtime, *Worker) {
	if opts.NumWorkers <= 0 {
		panic(newConfigError("NumWorkers must be positive, got %d", opts.NumWorkers))
	}
	root := BuildRootPlace(opts.NumWorkers)
	return InitWithPlace(opts, root)
}

// InitWithPlace is Init, but takes an already-built place tree — the
// escape hatch for callers that resolved CRT_HPT_FILE into a hierarchy
// themselves (spec.md's Non-goals exclude HPT file parsing from this
// module).
func InitWithPlace(opts Options, root *Place) (*Runtime, *Worker) {
	if opts.Stats {
		displayRuntime(opts)
	}

	r := &Runtime{
		opts:      opts,
		root:      root,
		stats:     NewStats(opts.NumWorkers),
		isolation: NewIsolationMap(),
		group:     &errgroup.Group{},
	}
	r.running.Store(true)
	r.stats.Start()

	// Each worker is resident at the deepest place whose Workers list
	// names it; a worker no place lists is resident at root.
	home := make(map[int]*Place)
	var walk func(p *Place)
	walk = func(p *Place) {
		for _, id := range p.Workers {
			home[id] = p
		}
		for _, c := range p.Children {
			walk(c)
		}
	}
	walk(root)

	r.workers = make([]*Worker, opts.NumWorkers)
	for i := 0; i < opts.NumWorkers; i++ {
		place, ok := home[i]
		if !ok {
			place = root
		}
		r.workers[i] = newWorker(i, place, r)
	}
	if opts.CommWorker {
		r.workers[0].commDeque = NewDeque(opts.DequeSize)
	}

	master := r.workers[0]
	rootFinish := newFinishScope(nil)
	master.currentFinish = rootFinish

	for i := 1; i < opts.NumWorkers; i++ {
		w := r.workers[i]
		r.group.Go(func() error {
			w.workerLoop()
			return nil
		})
	}

	master.StartFinish()
	return r, master
}

// Finalize ends the top-level finish, clears the running flag so
// worker goroutines drain and exit, and waits for them to do so —
// end_finish/crt_join_workers/crt_cleanup's replacement.
func (r *Runtime) Finalize(master *Worker) {
	master.EndFinish()

	if r.opts.Stats {
		r.stats.WriteStatsLine()
	}

	r.running.Store(false)
	_ = r.group.Wait()
}
