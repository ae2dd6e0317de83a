package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTaskCountsTicks(t *testing.T) {
	m := NewTaskManager()

	started := make(chan struct{})
	err := m.NewTask(func(task *Task) {
		task.NoteTick()
		task.NoteTick()
		close(started)
		<-task.Stopped()
	})
	assert.NoError(t, err)

	<-started
	assert.Equal(t, uint64(2), m.Ticks())

	m.StopCurrentTask()
	assert.Equal(t, uint64(0), m.Ticks())
}

func TestNewTaskStopsThePreviousDriver(t *testing.T) {
	m := NewTaskManager()

	firstStopped := make(chan struct{})
	assert.NoError(t, m.NewTask(func(task *Task) {
		<-task.Stopped()
		close(firstStopped)
	}))

	assert.NoError(t, m.NewTask(func(task *Task) {
		<-task.Stopped()
	}))

	select {
	case <-firstStopped:
	case <-time.After(time.Second):
		t.Fatal("starting a new driver did not stop the previous one")
	}

	m.StopCurrentTask()
}

func TestStopCurrentTaskWithNoTaskIsANoop(t *testing.T) {
	m := NewTaskManager()
	m.StopCurrentTask()
	assert.Equal(t, uint64(0), m.Ticks())
}
