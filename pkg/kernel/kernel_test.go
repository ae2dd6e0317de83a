package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/riscvkern/riscvkern/pkg/config"
)

func testConfig() *config.UserConfig {
	cfg := config.GetDefaultConfig()
	cfg.Scheduler.MaxProcs = 4
	cfg.Memory.NumPages = 8
	return &cfg
}

func TestBootSeedsReadyProcesses(t *testing.T) {
	k := New(testConfig(), nil)

	err := k.Boot([]string{"init", "hello"})
	assert.NoError(t, err)
	assert.Equal(t, 2, k.Table.NumProcs)
}

func TestBootUnknownProgramIsSkipped(t *testing.T) {
	k := New(testConfig(), nil)

	err := k.Boot([]string{"does-not-exist"})
	assert.NoError(t, err)
	assert.Equal(t, 0, k.Table.NumProcs)
}

func TestStepDispatchesBootedProcess(t *testing.T) {
	k := New(testConfig(), nil)
	assert.NoError(t, k.Boot([]string{"init"}))

	k.Step()

	assert.False(t, k.Table.IsIdle)
	assert.Equal(t, 1, k.Table.NumProcs)
}

func TestStepIdlesWithNoProcesses(t *testing.T) {
	k := New(testConfig(), nil)

	k.Step()

	assert.True(t, k.Table.IsIdle)
}
