package crt

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
)

type FinishTestSuite struct {
	suite.Suite
}

func TestFinishTestSuite(t *testing.T) {
	suite.Run(t, new(FinishTestSuite))
}

func (ts *FinishTestSuite) newRuntime(numWorkers int) (*Runtime, *Worker) {
	opts := DefaultOptions()
	opts.NumWorkers = numWorkers
	return Init(opts)
}

func (ts *FinishTestSuite) TestFinishWaitsForSpawnedTasks() {
	r, master := ts.newRuntime(4)
	defer r.Finalize(master)

	var mu sync.Mutex
	var count int

	master.Finish(func(w *Worker) {
		for i := 0; i < 100; i++ {
			w.Spawn(func(w *Worker) {
				mu.Lock()
				count++
				mu.Unlock()
			})
		}
	})

	ts.Equal(100, count)
}

func (ts *FinishTestSuite) TestNestedFinish() {
	r, master := ts.newRuntime(4)
	defer r.Finalize(master)

	var mu sync.Mutex
	var outer, inner int

	master.Finish(func(w *Worker) {
		w.Spawn(func(w *Worker) {
			outer++
			w.Finish(func(w *Worker) {
				for i := 0; i < 10; i++ {
					w.Spawn(func(w *Worker) {
						mu.Lock()
						inner++
						mu.Unlock()
					})
				}
			})
		})
	})

	ts.Equal(1, outer)
	ts.Equal(10, inner)
}

func (ts *FinishTestSuite) TestFinishScopeCounterReachesZero() {
	f := newFinishScope(nil)
	f.checkIn()
	f.checkIn()
	ts.Equal(int64(2), f.Pending())
	f.checkOut()
	f.checkOut()
	ts.Equal(int64(0), f.Pending())
}

func (ts *FinishTestSuite) TestEndFinishPanicsOnNonZeroCounter() {
	// A zero-value Worker has no localDeque and no commDeque, so
	// helpFinish can't pop, steal, or service anything on its behalf; it
	// bails out immediately instead of spinning forever, leaving the
	// leaked checkIn for EndFinish's own post-loop check to catch.
	w := &Worker{}
	w.currentFinish = newFinishScope(nil)
	w.currentFinish.checkIn() // leaked: nothing will ever check this back out

	ts.Panics(func() {
		w.EndFinish()
	})
}

func (ts *FinishTestSuite) TestSpawnAsyncAnyTracksAvailability() {
	r, master := ts.newRuntime(4)
	defer r.Finalize(master)

	master.Finish(func(w *Worker) {
		// Spawn from within an executing task: the asyncAny pushes are
		// attributed to whichever worker runs that task. If that is the
		// master they are not counted at all (TotalAsyncAnyAvailable only
		// sums workers other than worker 0).
		w.Spawn(func(w *Worker) {
			for i := 0; i < 5; i++ {
				w.SpawnAsyncAny(func(w *Worker) {})
			}
		})
	})

	// pushed-stolen only decrements on a steal, never on a local pop, so
	// asyncAny tasks that ran on their origin worker without ever being
	// stolen stay counted as "available" — a faithful mirror of
	// hcpp-runtime.cpp's own asyncAny_stolen bookkeeping, which tracks
	// steals only. The snapshot can therefore be anywhere from 0 (all
	// five stolen, or pushed by the master) to 5 (none stolen), never
	// negative or above 5.
	available := r.TotalAsyncAnyAvailable()
	ts.GreaterOrEqual(available, int64(0))
	ts.LessOrEqual(available, int64(5))
}
