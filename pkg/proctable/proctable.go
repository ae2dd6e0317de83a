// Package proctable implements the fixed-capacity process table and its
// slot bookkeeping. The table lock protects CurrProc, PIDCounter, NumProcs,
// IsIdle, and the set of Available slot states; each slot has its own lock
// protecting the slot's fields. Acquisition order when both are needed is
// table lock first, then slot lock, released in reverse.
package proctable

import (
	"errors"

	"github.com/sasha-s/go-deadlock"

	"github.com/riscvkern/riscvkern/pkg/trapframe"
)

// ErrTableFull is returned by callers that need to surface AllocProcess
// returning nil as an error value.
var ErrTableFull = errors.New("no free process slot")

// Process is a single process-table slot.
type Process struct {
	Lock deadlock.Mutex

	State   ProcState
	PID     uint32
	Parent  *Process // back-reference to the forking slot, or nil for root
	Name    string   // borrowed from the bundled-programs table
	Context trapframe.Frame
	Stack   []byte // exclusively-owned page of simulated physical memory

	// WakeupTime is the deadline in timer ticks; meaningful only while
	// State == Sleeping. Zero means no deadline: only an external
	// notification wakes the slot.
	WakeupTime uint64
}

// Table is the fixed-capacity process table plus global bookkeeping.
type Table struct {
	Lock deadlock.Mutex

	Slots []Process // length fixed at InitTable

	// CurrProc is the index of the slot most recently scheduled. -1 means
	// "never scheduled yet": the very first timer tick's interrupted
	// context is kernel boot code and must be discarded.
	CurrProc int

	// PIDCounter is the next pid to hand out; no recycling, 32-bit wrap is
	// a known limitation.
	PIDCounter uint32

	// NumProcs is the count of non-Available slots.
	NumProcs int

	// IsIdle is set when the scheduler last decided no process was
	// runnable; while set, no slot is Running.
	IsIdle bool
}

// MaxProcs returns the table's fixed slot capacity.
func (t *Table) MaxProcs() int {
	return len(t.Slots)
}

// InitTable initializes a table with maxProcs slots, all Available. Must be
// called exactly once at boot before interrupts are enabled.
func InitTable(maxProcs int) *Table {
	return &Table{
		Slots:      make([]Process, maxProcs),
		CurrProc:   -1,
		PIDCounter: 0,
		NumProcs:   0,
		IsIdle:     true,
	}
}

// AllocPID returns PIDCounter then increments it, under the table lock.
func (t *Table) AllocPID() uint32 {
	t.Lock.Lock()
	defer t.Lock.Unlock()

	pid := t.PIDCounter
	t.PIDCounter++
	return pid
}

// AllocProcess linearly searches for an Available slot other than CurrProc,
// transitions it to Ready, increments NumProcs, and returns it with its
// per-slot lock held. Returns nil if no slot is free. Excluding CurrProc
// from candidacy prevents reusing the currently-running slot as the child
// of its own fork.
func (t *Table) AllocProcess() *Process {
	t.Lock.Lock()
	defer t.Lock.Unlock()

	for i := range t.Slots {
		if i == t.CurrProc {
			continue
		}
		slot := &t.Slots[i]
		slot.Lock.Lock()
		if slot.State == Available {
			slot.State = Ready
			t.NumProcs++
			return slot
		}
		slot.Lock.Unlock()
	}
	return nil
}

// IndexOf returns the slot index of p within the table, or -1 if p does not
// belong to the table's backing array.
func (t *Table) IndexOf(p *Process) int {
	for i := range t.Slots {
		if &t.Slots[i] == p {
			return i
		}
	}
	return -1
}

// CurrentProc returns the slot at index CurrProc, or nil if the table is
// empty or nothing has been scheduled yet.
func (t *Table) CurrentProc() *Process {
	t.Lock.Lock()
	defer t.Lock.Unlock()

	if t.NumProcs == 0 {
		return nil
	}
	if t.CurrProc < 0 || t.CurrProc >= len(t.Slots) {
		return nil
	}
	return &t.Slots[t.CurrProc]
}
