package sim

import "container/heap"

// Task is a callback executed by Physics once the simulation time reaches
// its execution time. A periodic task is rescheduled at time+period after
// each run until it is cancelled.
type Task struct {
	fn        func()
	period    float64
	time      float64
	seq       uint64
	cancelled bool
}

func NewTask(fn func()) *Task {
	return &Task{fn: fn}
}

// NewPeriodicTask creates a task repeating every period seconds. A
// non-positive period makes it a one-shot task, and so does a period too
// small to change its time once added to it.
func NewPeriodicTask(fn func(), period float64) *Task {
	return &Task{fn: fn, period: period}
}

// Cancel prevents any future run. A running task finishes its current run.
func (t *Task) Cancel() {
	t.cancelled = true
}

func (t *Task) Cancelled() bool {
	return t.cancelled
}

// Time returns the time the task is, or was last, scheduled at.
func (t *Task) Time() float64 {
	return t.time
}

func (t *Task) Period() float64 {
	return t.period
}

// taskHeap orders tasks by time, then by push order.
type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) { *h = append(*h, x.(*Task)) }

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// TaskQueue is a min-heap of tasks keyed by (time, push order).
type TaskQueue struct {
	tasks taskHeap
	seq   uint64
}

func (q *TaskQueue) Push(time float64, t *Task) {
	t.time = time
	t.seq = q.seq
	q.seq++
	heap.Push(&q.tasks, t)
}

func (q *TaskQueue) Len() int {
	return q.tasks.Len()
}

// Peek returns the next task to run, or nil.
func (q *TaskQueue) Peek() *Task {
	if len(q.tasks) == 0 {
		return nil
	}
	return q.tasks[0]
}

// RunDue runs every task scheduled at or before now, in order, and returns
// how many ran. Cancelled tasks are dropped. Periodic tasks are pushed back
// at their own time plus period, so they may run again in the same call.
func (q *TaskQueue) RunDue(now float64) int {
	ran := 0
	for len(q.tasks) > 0 && q.tasks[0].time <= now {
		t := heap.Pop(&q.tasks).(*Task)
		if t.cancelled {
			continue
		}

		t.fn()
		ran++

		if t.period > 0 && !t.cancelled {
			// A period lost in the rounding of time would run forever
			if next := t.time + t.period; next > t.time {
				q.Push(next, t)
			}
		}
	}
	return ran
}

// Clear drops every pending task.
func (q *TaskQueue) Clear() {
	clear(q.tasks)
	q.tasks = q.tasks[:0]
}
