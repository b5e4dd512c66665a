package crt

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type DequeTestSuite struct {
	suite.Suite
}

func TestDequeTestSuite(t *testing.T) {
	suite.Run(t, new(DequeTestSuite))
}

func (ts *DequeTestSuite) newTask(id int) *Task {
	return newTask(func(w *Worker) {}, newFinishScope(nil), id)
}

func (ts *DequeTestSuite) TestPushPopLIFO() {
	d := NewDeque(8)
	a, b, c := ts.newTask(1), ts.newTask(2), ts.newTask(3)

	ts.True(d.Push(a))
	ts.True(d.Push(b))
	ts.True(d.Push(c))
	ts.Equal(3, d.Size())

	got, ok := d.Pop()
	ts.True(ok)
	ts.Same(c, got)

	got, ok = d.Pop()
	ts.True(ok)
	ts.Same(b, got)

	got, ok = d.Pop()
	ts.True(ok)
	ts.Same(a, got)

	ts.True(d.IsEmpty())
}

func (ts *DequeTestSuite) TestStealFIFO() {
	d := NewDeque(8)
	a, b, c := ts.newTask(1), ts.newTask(2), ts.newTask(3)
	d.Push(a)
	d.Push(b)
	d.Push(c)

	got, ok := d.Steal()
	ts.True(ok)
	ts.Same(a, got)

	got, ok = d.Steal()
	ts.True(ok)
	ts.Same(b, got)

	ts.Equal(1, d.Size())
}

func (ts *DequeTestSuite) TestPopEmpty() {
	d := NewDeque(4)
	_, ok := d.Pop()
	ts.False(ok)
}

func (ts *DequeTestSuite) TestStealEmpty() {
	d := NewDeque(4)
	_, ok := d.Steal()
	ts.False(ok)
}

func (ts *DequeTestSuite) TestPushFullReturnsFalse() {
	d := NewDeque(2)
	ts.True(d.Push(ts.newTask(1)))
	ts.True(d.Push(ts.newTask(2)))
	ts.False(d.Push(ts.newTask(3)))
	ts.Equal(2, d.Capacity())
}

func (ts *DequeTestSuite) TestPopStealContendForLastTask() {
	d := NewDeque(4)
	task := ts.newTask(1)
	d.Push(task)

	popped, popOK := d.Pop()
	stolen, stealOK := d.Steal()

	// Exactly one of the two succeeds against the single task.
	ts.True(popOK != stealOK)
	if popOK {
		ts.Same(task, popped)
	} else {
		ts.Same(task, stolen)
	}
}
