package crt

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
)

type WorkerTestSuite struct {
	suite.Suite
}

func TestWorkerTestSuite(t *testing.T) {
	suite.Run(t, new(WorkerTestSuite))
}

func (ts *WorkerTestSuite) TestIsMaster() {
	opts := DefaultOptions()
	opts.NumWorkers = 3
	r, master := Init(opts)
	defer r.Finalize(master)

	ts.True(master.IsMaster())
	ts.False(r.Worker(1).IsMaster())
}

func (ts *WorkerTestSuite) TestStealingMovesWorkBetweenWorkers() {
	opts := DefaultOptions()
	opts.NumWorkers = 4
	r, master := Init(opts)
	defer r.Finalize(master)

	var mu sync.Mutex
	executedBy := make(map[int]int)

	master.Finish(func(w *Worker) {
		for i := 0; i < 200; i++ {
			w.Spawn(func(w *Worker) {
				mu.Lock()
				executedBy[w.ID]++
				mu.Unlock()
			})
		}
	})

	total := 0
	for _, n := range executedBy {
		total += n
	}
	ts.Equal(200, total)
	// With 200 tasks spread across 4 workers, steal-based work
	// distribution means more than just the master executed something.
	ts.Greater(len(executedBy), 1)
}

func (ts *WorkerTestSuite) TestWorkerStateTransitionsThroughExecute() {
	f := newFinishScope(nil)
	w := &Worker{runtime: &Runtime{stats: NewStats(1)}}
	ran := false
	task := newTask(func(w *Worker) { ran = true }, f, 0)
	f.checkIn()

	w.execute(task)

	ts.True(ran)
	ts.Equal(StateIdle, w.State())
	ts.Equal(int64(0), f.Pending())
}

func (ts *WorkerTestSuite) TestWorkerStateString() {
	ts.Equal("idle", StateIdle.String())
	ts.Equal("popping", StatePopping.String())
	ts.Equal("stealing", StateStealing.String())
	ts.Equal("executing", StateExecuting.String())
	ts.Equal("draining", StateDraining.String())
	ts.Equal("exiting", StateExiting.String())
}
