package service

import (
	"sync/atomic"
	"time"
)

const (
	taskPending int32 = iota
	taskFired
	taskCancelled
)

// Task is a single delayed continuation that can be dropped before it runs
type Task struct {
	state atomic.Int32
	timer *time.Timer
	done  chan struct{}
}

// Schedule runs fn once after delay unless the task is cancelled first
func Schedule(delay time.Duration, fn func()) *Task {
	t := &Task{done: make(chan struct{})}
	t.timer = time.AfterFunc(delay, func() {
		if !t.state.CompareAndSwap(taskPending, taskFired) {
			return
		}
		defer close(t.done)
		fn()
	})
	return t
}

// Cancel drops the continuation. It returns false, and does nothing, when the
// task already fired or was already cancelled.
func (t *Task) Cancel() bool {
	if !t.state.CompareAndSwap(taskPending, taskCancelled) {
		return false
	}
	t.timer.Stop()
	close(t.done)
	return true
}

// Done is closed once the continuation has returned or the task was cancelled
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Fired reports whether the continuation ran (or is running)
func (t *Task) Fired() bool {
	return t.state.Load() == taskFired
}
