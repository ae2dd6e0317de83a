// Package config handles all the user-configuration for the kernel
// simulator. The fields here are all in PascalCase but in your actual
// config.yml they'll be in camelCase. You can view the current default
// config with `riscvkern --config`.
package config

import (
	"time"
)

// UserConfig holds all of the user-configurable options for the kernel.
type UserConfig struct {
	// Scheduler controls the dimensions of the process table and the
	// timer-tick cadence
	Scheduler SchedulerConfig `yaml:"scheduler,omitempty"`

	// Memory controls the simulated page allocator
	Memory MemoryConfig `yaml:"memory,omitempty"`

	// Monitor controls the live TUI dashboard
	Monitor MonitorConfig `yaml:"monitor,omitempty"`

	// Language is the locale used for translated strings, "auto" detects it
	// from the host OS
	Language string `yaml:"language,omitempty"`

	// Boot lists the bundled programs (pkg/programs) seeded as READY at boot
	Boot []string `yaml:"boot,omitempty"`
}

// SchedulerConfig sizes the process table and the timer cadence.
type SchedulerConfig struct {
	// MaxProcs is the fixed capacity of the process table
	MaxProcs int `yaml:"maxProcs,omitempty"`

	// TickInterval is the scheduler tick period, expressed as a duration
	// rather than a raw tick count because the tick source driving it here
	// is a real or virtual wall clock, not a hardware timer register
	TickInterval time.Duration `yaml:"tickInterval,omitempty"`

	// TicksPerSecond is the ticks-per-wall-clock-second used to convert
	// sleep(ms) deadlines
	TicksPerSecond uint64 `yaml:"ticksPerSecond,omitempty"`
}

// MemoryConfig controls the simulated physical page allocator.
type MemoryConfig struct {
	// PageSize is the page size in bytes
	PageSize int `yaml:"pageSize,omitempty"`

	// NumPages bounds the arena; must be >= MaxProcs since every live
	// process owns exactly one stack page
	NumPages int `yaml:"numPages,omitempty"`
}

// MonitorConfig controls the gocui-based live dashboard.
type MonitorConfig struct {
	// RedrawInterval throttles monitor redraws via boz/go-throttle
	RedrawInterval time.Duration `yaml:"redrawInterval,omitempty"`

	// HistoryLength bounds the ready-queue-length sparkline
	HistoryLength int `yaml:"historyLength,omitempty"`
}

// GetDefaultConfig returns the application default configuration. NOTE (to
// contributors, not users): do not default a boolean to true, because false
// is the boolean zero value and will be silently dropped by the yaml
// `omitempty` merge.
func GetDefaultConfig() UserConfig {
	return UserConfig{
		Scheduler: SchedulerConfig{
			MaxProcs:       16,
			TickInterval:   10 * time.Millisecond,
			TicksPerSecond: 10_000_000,
		},
		Memory: MemoryConfig{
			PageSize: 4096,
			NumPages: 64,
		},
		Monitor: MonitorConfig{
			RedrawInterval: 100 * time.Millisecond,
			HistoryLength:  60,
		},
		Language: "auto",
		Boot:     []string{"init"},
	}
}
