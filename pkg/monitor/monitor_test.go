package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/riscvkern/riscvkern/pkg/proctable"
)

func TestGetWindowDimensionsCoversAllPanels(t *testing.T) {
	dims := getWindowDimensions(80, 24)

	for _, window := range []string{"procs", "sysinfo", "ready", "console"} {
		assert.Contains(t, dims, window)
	}

	// procs starts at the top, console ends at the bottom edge
	assert.Equal(t, 0, dims["procs"].Y0)
	assert.Equal(t, 23, dims["console"].Y1)

	// the info row splits side by side between sysinfo and the ready graph
	assert.Equal(t, dims["sysinfo"].Y0, dims["ready"].Y0)
	assert.Less(t, dims["sysinfo"].X1, dims["ready"].X0)
}

func TestColorizeStateDoesNotPanicForAnyState(t *testing.T) {
	for _, s := range []proctable.ProcState{proctable.Available, proctable.Ready, proctable.Running, proctable.Sleeping} {
		assert.Contains(t, colorizeState(s), s.String())
	}
}

func TestReadyCountCountsOnlyReadySlots(t *testing.T) {
	table := proctable.InitTable(4)

	a := table.AllocProcess()
	a.State = proctable.Ready
	a.Lock.Unlock()

	b := table.AllocProcess()
	b.State = proctable.Running
	b.Lock.Unlock()

	assert.Equal(t, 1, readyCount(table))
}

func TestPushHistoryTrimsToLimit(t *testing.T) {
	history := []float64{1, 2, 3}
	history = pushHistory(history, 4, 3)
	assert.Equal(t, []float64{2, 3, 4}, history)
}

func TestPushHistoryGrowsUntilLimit(t *testing.T) {
	var history []float64
	history = pushHistory(history, 1, 5)
	history = pushHistory(history, 2, 5)
	assert.Equal(t, []float64{1, 2}, history)
}
