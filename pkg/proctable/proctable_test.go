package proctable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitTable(t *testing.T) {
	table := InitTable(16)
	assert.Equal(t, -1, table.CurrProc)
	assert.Equal(t, true, table.IsIdle)
	assert.Equal(t, 0, table.NumProcs)
	assert.Equal(t, 16, table.MaxProcs())
	for i := range table.Slots {
		assert.Equal(t, Available, table.Slots[i].State)
	}
}

func TestAllocPIDMonotonic(t *testing.T) {
	table := InitTable(4)
	first := table.AllocPID()
	second := table.AllocPID()
	assert.Equal(t, uint32(0), first)
	assert.Equal(t, uint32(1), second)
}

func TestAllocProcessExcludesCurrProc(t *testing.T) {
	table := InitTable(2)
	table.CurrProc = 0

	slot := table.AllocProcess()
	assert.NotNil(t, slot)
	assert.Equal(t, 1, table.IndexOf(slot))
	assert.Equal(t, Ready, slot.State)
	assert.Equal(t, 1, table.NumProcs)
	slot.Lock.Unlock()
}

func TestAllocProcessReturnsNilWhenFull(t *testing.T) {
	table := InitTable(1)
	table.CurrProc = 0 // the only slot is excluded

	slot := table.AllocProcess()
	assert.Nil(t, slot)
}

func TestCurrentProcNilWhenEmpty(t *testing.T) {
	table := InitTable(4)
	assert.Nil(t, table.CurrentProc())
}

func TestCurrentProc(t *testing.T) {
	table := InitTable(4)
	slot := table.AllocProcess()
	slot.Lock.Unlock()
	table.CurrProc = table.IndexOf(slot)

	assert.Same(t, slot, table.CurrentProc())
}
