// Package kernel composes the process table, scheduler, lifecycle
// syscalls, page allocator, timer, and host-CPU abstraction into the single
// import surface a driving loop needs: one struct that owns every
// collaborator and exposes the handful of entry points a caller actually
// uses.
package kernel

import (
	"github.com/sirupsen/logrus"

	"github.com/riscvkern/riscvkern/pkg/config"
	"github.com/riscvkern/riscvkern/pkg/hal"
	"github.com/riscvkern/riscvkern/pkg/lifecycle"
	"github.com/riscvkern/riscvkern/pkg/memory"
	"github.com/riscvkern/riscvkern/pkg/proctable"
	"github.com/riscvkern/riscvkern/pkg/programs"
	"github.com/riscvkern/riscvkern/pkg/scheduler"
	"github.com/riscvkern/riscvkern/pkg/timer"
	"github.com/riscvkern/riscvkern/pkg/trapframe"
	"github.com/riscvkern/riscvkern/pkg/trapstub"
	"github.com/riscvkern/riscvkern/pkg/uart"
)

// Kernel is the assembled core: a process table, a single global trap
// frame, the scheduler that swaps contexts through it, the lifecycle
// syscalls that mutate the table, and the device stand-ins they depend on.
type Kernel struct {
	Table     *proctable.Table
	TrapFrame *trapframe.Frame
	Mem       *memory.Arena
	Clock     timer.Source
	HAL       hal.HAL
	UART      *uart.Device
	Scheduler *scheduler.Scheduler
	Lifecycle *lifecycle.Lifecycle

	Log *logrus.Entry
}

// New assembles a Kernel from validated user configuration. The clock
// source is always Real here; tests construct a Kernel by hand with a
// Virtual clock instead of going through New.
func New(cfg *config.UserConfig, log *logrus.Entry) *Kernel {
	table := proctable.InitTable(cfg.Scheduler.MaxProcs)
	frame := &trapframe.Frame{}
	mem := memory.NewArena(cfg.Memory.PageSize, cfg.Memory.NumPages)
	clock := timer.NewReal(cfg.Scheduler.TicksPerSecond)
	h := hal.NewSimHAL()
	device := uart.NewDevice(1000)

	tickTicks := uint64(cfg.Scheduler.TickInterval.Seconds() * float64(cfg.Scheduler.TicksPerSecond))
	if tickTicks == 0 {
		tickTicks = 1
	}

	sched := scheduler.New(table, frame, clock, h, log, tickTicks)
	lc := lifecycle.New(table, frame, mem, clock, sched, device, log, cfg.Scheduler.TicksPerSecond)

	return &Kernel{
		Table:     table,
		TrapFrame: frame,
		Mem:       mem,
		Clock:     clock,
		HAL:       h,
		UART:      device,
		Scheduler: sched,
		Lifecycle: lc,
		Log:       log,
	}
}

// Boot seeds the table with one ready process per name, allocating each
// its own stack page with SP == FP == page top. This is the same layout
// exec installs, which makes Boot the boot-time equivalent of exec'ing
// into each bundled program from a blank slot.
func (k *Kernel) Boot(names []string) error {
	for _, name := range names {
		prog, ok := programs.Find(name)
		if !ok {
			if k.Log != nil {
				k.Log.WithField("name", name).Warn("kernel: boot program not found")
			}
			continue
		}

		page, err := k.Mem.AllocatePage()
		if err != nil {
			return memory.ErrOutOfMemory
		}

		pid := k.Table.AllocPID()
		slot := k.Table.AllocProcess()
		if slot == nil {
			k.Mem.ReleasePage(page)
			return proctable.ErrTableFull
		}

		slot.PID = pid
		slot.Name = prog.Name
		slot.Stack = page

		base := memory.PageAddr(page)
		top := base + uint64(k.Mem.PageSize())
		slot.Context.PC = prog.EntryPoint
		slot.Context.Regs[trapframe.RegRA] = prog.EntryPoint
		slot.Context.Regs[trapframe.RegSP] = top
		slot.Context.Regs[trapframe.RegFP] = top

		slot.Lock.Unlock()
	}
	return nil
}

// Step runs one full trap cycle: trap entry, one scheduler tick, trap
// exit. The caller (the monitor's tick-driving goroutine, or a test) plays
// the timer-interrupt handler.
func (k *Kernel) Step() {
	trapstub.Enter(k.TrapFrame)
	k.Scheduler.Tick()
	trapstub.Exit(k.TrapFrame)
}
