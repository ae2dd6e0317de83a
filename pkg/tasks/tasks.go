// Package tasks supervises the background goroutine that drives the kernel
// tick loop: at most one driver runs at a time, the previous one is stopped
// before a replacement starts, and each driver counts the ticks it has
// delivered so the monitor can report the cadence alongside the table.
package tasks

import (
	"sync"
	"sync/atomic"
)

// TaskManager runs at most one driver task at a time.
type TaskManager struct {
	mutex   sync.Mutex
	current *Task
}

// Task is a single supervised driver goroutine. The function passed to
// NewTask receives the Task so it can mark ticks and watch for the stop
// signal.
type Task struct {
	stop          chan struct{}
	notifyStopped chan struct{}
	ticks         uint64
}

// NoteTick records one delivered kernel tick.
func (t *Task) NoteTick() {
	atomic.AddUint64(&t.ticks, 1)
}

// Ticks returns how many ticks this task has delivered so far.
func (t *Task) Ticks() uint64 {
	return atomic.LoadUint64(&t.ticks)
}

// Stopped is closed-over by the driver loop's select: it fires once when
// the task is asked to stop.
func (t *Task) Stopped() <-chan struct{} {
	return t.stop
}

func NewTaskManager() *TaskManager {
	return &TaskManager{}
}

// NewTask stops the current driver, if any, and starts f in its place.
func (m *TaskManager) NewTask(f func(task *Task)) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.current != nil {
		m.current.stopAndWait()
	}

	task := &Task{
		// buffered so stopping a task whose loop already returned can't block
		stop:          make(chan struct{}, 1),
		notifyStopped: make(chan struct{}),
	}
	m.current = task

	go func() {
		f(task)
		task.notifyStopped <- struct{}{}
	}()

	return nil
}

func (t *Task) stopAndWait() {
	t.stop <- struct{}{}
	<-t.notifyStopped
}

// Ticks reports the current driver's delivered tick count, or zero when no
// driver is running.
func (m *TaskManager) Ticks() uint64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.current == nil {
		return 0
	}
	return m.current.Ticks()
}

// StopCurrentTask stops whatever driver is currently running, if any,
// without starting a replacement. Callers use this on shutdown, where
// NewTask's stop-the-previous behavior has no new task to hand off to.
func (m *TaskManager) StopCurrentTask() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.current != nil {
		m.current.stopAndWait()
		m.current = nil
	}
}
