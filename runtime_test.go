package crt

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type RuntimeTestSuite struct {
	suite.Suite
}

func TestRuntimeTestSuite(t *testing.T) {
	suite.Run(t, new(RuntimeTestSuite))
}

func (ts *RuntimeTestSuite) TestInitRejectsNonPositiveWorkers() {
	opts := DefaultOptions()
	opts.NumWorkers = 0
	ts.Panics(func() {
		Init(opts)
	})
}

func (ts *RuntimeTestSuite) TestInitAndFinalizeLifecycle() {
	opts := DefaultOptions()
	opts.NumWorkers = 4

	r, master := Init(opts)
	ts.Equal(4, r.NumWorkers())
	ts.NotNil(r.Isolation())
	ts.NotNil(r.Stats())

	r.Finalize(master)
}

func (ts *RuntimeTestSuite) TestCommWorkerDequeOnlyOnMaster() {
	opts := DefaultOptions()
	opts.NumWorkers = 3
	opts.CommWorker = true

	r, master := Init(opts)
	defer r.Finalize(master)

	ts.NotNil(r.Worker(0) /* master */)
	// Only worker 0 gets a dedicated communication deque.
	w0 := r.Worker(0)
	ts.NotPanics(func() {
		w0.SpawnComm(func(w *Worker) {})
	})
	ts.Panics(func() {
		r.Worker(1).SpawnComm(func(w *Worker) {})
	})
}

func (ts *RuntimeTestSuite) TestSpawnCommWithoutCommWorkerPanics() {
	opts := DefaultOptions()
	opts.NumWorkers = 2
	opts.CommWorker = false

	r, master := Init(opts)
	defer r.Finalize(master)

	ts.Panics(func() {
		master.SpawnComm(func(w *Worker) {})
	})
}

func (ts *RuntimeTestSuite) TestTotalPendingLocalAsyncsReflectsCurrentScope() {
	opts := DefaultOptions()
	opts.NumWorkers = 2
	r, master := Init(opts)
	defer r.Finalize(master)

	block := make(chan struct{})
	master.StartFinish()
	master.Spawn(func(w *Worker) {
		<-block
	})

	ts.Equal(int64(1), master.TotalPendingLocalAsyncs())
	close(block)
	master.EndFinish()
	ts.Equal(int64(0), master.TotalPendingLocalAsyncs())
}
