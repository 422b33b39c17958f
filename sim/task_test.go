package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueue_Order(t *testing.T) {
	var q TaskQueue
	var order []string

	q.Push(5, NewTask(func() { order = append(order, "t5") }))
	q.Push(2, NewTask(func() { order = append(order, "t2") }))
	q.Push(2, NewTask(func() { order = append(order, "t2 second") }))
	require.Equal(t, 3, q.Len())
	assert.Equal(t, 2.0, q.Peek().Time())

	assert.Equal(t, 2, q.RunDue(4))
	assert.Equal(t, []string{"t2", "t2 second"}, order)

	assert.Equal(t, 1, q.RunDue(5))
	assert.Equal(t, []string{"t2", "t2 second", "t5"}, order)
	assert.Nil(t, q.Peek())
}

func TestTaskQueue_Cancelled(t *testing.T) {
	var q TaskQueue
	ran := false

	task := NewTask(func() { ran = true })
	q.Push(1, task)
	task.Cancel()

	assert.Zero(t, q.RunDue(10))
	assert.False(t, ran)
	assert.Zero(t, q.Len())
}

func TestTaskQueue_PeriodicCatchUp(t *testing.T) {
	var q TaskQueue
	var times []float64

	var task *Task
	task = NewPeriodicTask(func() { times = append(times, task.Time()) }, 1)
	q.Push(0, task)

	assert.Equal(t, 4, q.RunDue(3))
	assert.Equal(t, []float64{0, 1, 2, 3}, times)
	assert.Equal(t, 4.0, q.Peek().Time())
	assert.Equal(t, 1.0, task.Period())
}

func TestTaskQueue_CancelFromRun(t *testing.T) {
	var q TaskQueue
	runs := 0

	var task *Task
	task = NewPeriodicTask(func() {
		runs++
		task.Cancel()
	}, 1)
	q.Push(0, task)

	assert.Equal(t, 1, q.RunDue(10))
	assert.Equal(t, 1, runs)
	assert.Zero(t, q.Len())
}

func TestTaskQueue_Clear(t *testing.T) {
	var q TaskQueue
	q.Push(1, NewTask(func() {}))
	q.Push(2, NewTask(func() {}))

	q.Clear()
	assert.Zero(t, q.Len())
	assert.Zero(t, q.RunDue(10))
}

func TestTaskQueue_PeriodBelowTimeResolution(t *testing.T) {
	var q TaskQueue
	runs := 0

	// 1e-12 is below the float64 spacing at 1e6
	q.Push(1e6, NewPeriodicTask(func() { runs++ }, 1e-12))

	assert.Equal(t, 1, q.RunDue(1e6+1))
	assert.Equal(t, 1, runs)
	assert.Zero(t, q.Len())
}
