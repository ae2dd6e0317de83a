package hal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParkHartBlocksUntilWake(t *testing.T) {
	h := NewSimHAL()

	parked := make(chan struct{})
	go func() {
		h.ParkHart()
		close(parked)
	}()

	select {
	case <-parked:
		t.Fatal("ParkHart returned before Wake")
	case <-time.After(10 * time.Millisecond):
	}

	h.Wake()

	select {
	case <-parked:
	case <-time.After(time.Second):
		t.Fatal("ParkHart did not return after Wake")
	}
}

func TestWakeBeforeParkIsNotLost(t *testing.T) {
	h := NewSimHAL()

	h.Wake()

	done := make(chan struct{})
	go func() {
		h.ParkHart()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pre-armed wake did not release the park")
	}
}

func TestInterruptToggles(t *testing.T) {
	h := NewSimHAL()
	assert.False(t, h.InterruptsEnabled())

	h.EnableInterrupts()
	assert.True(t, h.InterruptsEnabled())

	// dispatching to user mode hands the interrupt-enable bit back to the
	// next trap entry
	h.SetUserMode()
	assert.True(t, h.UserMode())
	assert.False(t, h.InterruptsEnabled())
}
