package config

import "fmt"

// Validate rejects configurations the process table and memory arena
// cannot honor.
func (config *UserConfig) Validate() error {
	if config.Scheduler.MaxProcs <= 0 {
		return fmt.Errorf("scheduler.maxProcs must be positive, got %d", config.Scheduler.MaxProcs)
	}
	if config.Memory.PageSize <= 0 {
		return fmt.Errorf("memory.pageSize must be positive, got %d", config.Memory.PageSize)
	}
	if config.Memory.NumPages < config.Scheduler.MaxProcs {
		return fmt.Errorf(
			"memory.numPages (%d) must be at least scheduler.maxProcs (%d): every live process owns one stack page",
			config.Memory.NumPages, config.Scheduler.MaxProcs,
		)
	}
	if config.Scheduler.TicksPerSecond == 0 {
		return fmt.Errorf("scheduler.ticksPerSecond must be positive")
	}
	return nil
}
