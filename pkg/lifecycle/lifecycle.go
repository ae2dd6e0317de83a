// Package lifecycle implements the system calls that create, mutate, and
// retire process slots: fork, exec, exit, wait, sleep, plus the trivial
// getpid and sysinfo calls. They run in kernel context between trap entry
// and the scheduler call.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/riscvkern/riscvkern/pkg/log"
	"github.com/riscvkern/riscvkern/pkg/memory"
	"github.com/riscvkern/riscvkern/pkg/proctable"
	"github.com/riscvkern/riscvkern/pkg/programs"
	"github.com/riscvkern/riscvkern/pkg/scheduler"
	"github.com/riscvkern/riscvkern/pkg/timer"
	"github.com/riscvkern/riscvkern/pkg/trapframe"
	"github.com/riscvkern/riscvkern/pkg/uart"
)

// ErrKernelInvariant marks a CurrentProc() == nil observation inside
// fork/exec/exit/wait/sleep. Running kernel code with no current process is
// unreachable under normal operation, so it is treated as a fatal
// kernel-invariant violation rather than a recoverable failure. Lifecycle
// surfaces it through PanicHandler instead of calling runtime panic
// directly, so hosts decide how fatal "fatal" is.
var ErrKernelInvariant = errors.New("kernel invariant violated: current_proc() is nil")

// ErrCodeKernelInvariant is the code HasKernelErrorCode callers check for.
// There is only one kernel-invariant kind today, but the code indirection
// leaves room for a second fatal kind without changing the matching
// convention.
const ErrCodeKernelInvariant = iota

// KernelError carries ErrKernelInvariant's message together with a stack
// frame and a stable code, so a caller can match it structurally with
// HasKernelErrorCode. It does not unwrap to ErrKernelInvariant, so
// errors.Is against that sentinel reports false.
type KernelError struct {
	Message string
	Code    int
	frame   xerrors.Frame
}

// FormatError renders the code, message and captured frame.
func (ke KernelError) FormatError(p xerrors.Printer) error {
	p.Printf("%d %s", ke.Code, ke.Message)
	ke.frame.Format(p)
	return nil
}

// Format satisfies fmt.Formatter via xerrors.FormatError.
func (ke KernelError) Format(f fmt.State, c rune) {
	xerrors.FormatError(ke, f, c)
}

func (ke KernelError) Error() string {
	return fmt.Sprint(ke)
}

// HasKernelErrorCode reports whether err is a KernelError carrying code.
func HasKernelErrorCode(err error, code int) bool {
	var ke KernelError
	if xerrors.As(err, &ke) {
		return ke.Code == code
	}
	return false
}

// Lifecycle bundles the collaborators fork/exec/exit/wait/sleep act on: the
// table they mutate, the trap frame they read and write, the page
// allocator, the time source, and the scheduler they hand control back to.
type Lifecycle struct {
	Table     *proctable.Table
	TrapFrame *trapframe.Frame
	Mem       memory.Allocator
	Clock     timer.Source
	Sched     *scheduler.Scheduler
	Log       *logrus.Entry

	// UART is the console getpid/sysinfo dumps and lifecycle-transition
	// notices are written to. Nil is tolerated so tests that only care
	// about process-table effects don't need to construct one.
	UART *uart.Device

	// TicksPerSecond converts sleep's millisecond argument into ticks.
	TicksPerSecond uint64

	// PanicHandler is invoked on a kernel-invariant violation. If nil, the
	// violation is logged and the call returns -1 as if it were an
	// ordinary failure.
	PanicHandler func(err error)
}

// New constructs a Lifecycle over already-initialized collaborators. device
// may be nil (tests that don't care about console output).
func New(table *proctable.Table, frame *trapframe.Frame, mem memory.Allocator, clock timer.Source, sched *scheduler.Scheduler, device *uart.Device, log *logrus.Entry, ticksPerSecond uint64) *Lifecycle {
	return &Lifecycle{
		Table:          table,
		TrapFrame:      frame,
		Mem:            mem,
		Clock:          clock,
		Sched:          sched,
		UART:           device,
		Log:            log,
		TicksPerSecond: ticksPerSecond,
	}
}

// console writes a line to the UART device tagged with pid, a no-op if no
// device was supplied.
func (l *Lifecycle) console(pid uint32, format string, args ...interface{}) {
	if l.UART == nil {
		return
	}
	l.UART.WriteString(pid, fmt.Sprintf(format+"\n", args...))
}

func (l *Lifecycle) current() *proctable.Process {
	return l.Table.CurrentProc()
}

func (l *Lifecycle) invariantViolation() {
	kerr := KernelError{
		Message: ErrKernelInvariant.Error(),
		Code:    ErrCodeKernelInvariant,
		frame:   xerrors.Caller(1),
	}

	if l.Log != nil {
		log.WithTick(l.Log, l.Clock.Now()).Error(kerr.Error())
	}
	if l.PanicHandler != nil {
		l.PanicHandler(kerr)
	}
}

// Fork duplicates the caller into a fresh slot: same registers, same stack
// bytes, fresh pid. The child's stack pointer and frame pointer are moved to
// the same offsets within the child's own stack page; every other register
// is copied verbatim and stays valid because the stack contents were
// duplicated byte for byte. The child sees 0 in its return-value register,
// the parent sees the child's pid. Returns -1 when out of pages or slots.
func (l *Lifecycle) Fork() int64 {
	childPage, err := l.Mem.AllocatePage()
	if err != nil {
		if l.Log != nil {
			l.Log.WithError(err).Warn("lifecycle: fork out of memory")
		}
		return -1
	}

	parent := l.current()
	if parent == nil {
		l.Mem.ReleasePage(childPage)
		l.invariantViolation()
		return -1
	}

	parent.Lock.Lock()
	trapframe.Copy(&parent.Context, l.TrapFrame)
	parentSP := parent.Context.Regs[trapframe.RegSP]
	parentFP := parent.Context.Regs[trapframe.RegFP]
	parentStack := parent.Stack
	parentBase := memory.PageAddr(parentStack)
	parentPID := parent.PID
	parentName := parent.Name
	parent.Lock.Unlock()

	// The pid is drawn before the slot so the table lock is never taken
	// while a slot lock is held; a pid burned on a full table is harmless.
	// AllocProcess itself takes the table lock, so the parent lock is
	// dropped first as well. Safe: the parent is the caller and cannot
	// race against itself.
	childPID := l.Table.AllocPID()
	child := l.Table.AllocProcess()
	if child == nil {
		l.Mem.ReleasePage(childPage)
		return -1
	}

	child.PID = childPID
	child.Parent = parent
	child.Name = parentName
	trapframe.Copy(&child.Context, &parent.Context)
	l.Mem.CopyPage(childPage, parentStack)
	child.Stack = childPage

	childBase := memory.PageAddr(childPage)
	child.Context.Regs[trapframe.RegSP] = childBase + (parentSP - parentBase)
	child.Context.Regs[trapframe.RegFP] = childBase + (parentFP - parentBase)
	child.Context.Regs[trapframe.RegA0] = 0
	child.Lock.Unlock()

	l.TrapFrame.Regs[trapframe.RegA0] = uint64(childPID)

	if l.Log != nil {
		log.WithProc(l.Log, parentPID, proctable.Running).
			WithField("child", childPID).Debug("lifecycle: forked")
	}
	l.console(parentPID, "fork: child pid=%d", childPID)

	return int64(childPID)
}

// Exec replaces the caller's program image with a bundled program, reusing
// its slot and pid: fresh stack page, PC and RA at the program's entry
// point, SP and FP at the top of the new page.
func (l *Lifecycle) Exec(filename string, argv []string) int64 {
	if filename == "" {
		return -1
	}

	prog, ok := programs.Find(filename)
	if !ok {
		if l.Log != nil {
			l.Log.WithField("name", filename).Warn("lifecycle: exec unknown program")
		}
		return -1
	}

	newPage, err := l.Mem.AllocatePage()
	if err != nil {
		if l.Log != nil {
			l.Log.WithError(err).Warn("lifecycle: exec out of memory")
		}
		return -1
	}

	caller := l.current()
	if caller == nil {
		l.Mem.ReleasePage(newPage)
		l.invariantViolation()
		return -1
	}

	caller.Lock.Lock()
	oldPage := caller.Stack
	caller.Stack = newPage
	caller.Name = prog.Name
	callerPID := caller.PID

	base := memory.PageAddr(newPage)
	top := base + uint64(l.Mem.PageSize())

	caller.Context.PC = prog.EntryPoint
	caller.Context.Regs[trapframe.RegRA] = prog.EntryPoint
	caller.Context.Regs[trapframe.RegSP] = top
	caller.Context.Regs[trapframe.RegFP] = top
	// A1 would carry a pointer to the argument vector; the simulation has
	// no user address space to copy argv into, so both argument registers
	// carry the count.
	caller.Context.Regs[trapframe.RegA0] = uint64(len(argv))
	caller.Context.Regs[trapframe.RegA1] = uint64(len(argv))

	trapframe.Copy(l.TrapFrame, &caller.Context)
	caller.Lock.Unlock()

	l.Mem.ReleasePage(oldPage)

	if l.Log != nil {
		log.WithProc(l.Log, callerPID, proctable.Running).
			WithFields(logrus.Fields{"name": prog.Name, "argc": len(argv)}).Debug("lifecycle: exec")
	}
	l.console(callerPID, "exec: name=%s argc=%d", prog.Name, len(argv))

	return 0
}

// Exit releases the caller's stack, frees its slot, wakes any parent
// blocked in wait, and hands control to the scheduler. Never returns to the
// calling process.
func (l *Lifecycle) Exit() {
	caller := l.current()
	if caller == nil {
		l.invariantViolation()
		l.Sched.Tick()
		return
	}

	caller.Lock.Lock()
	page := caller.Stack
	parent := caller.Parent
	pid := caller.PID
	caller.State = proctable.Available
	caller.Stack = nil
	caller.Parent = nil
	caller.Lock.Unlock()

	l.Mem.ReleasePage(page)

	l.Table.Lock.Lock()
	l.Table.NumProcs--
	l.Table.Lock.Unlock()

	if parent != nil {
		parent.Lock.Lock()
		if parent.State == proctable.Sleeping {
			parent.State = proctable.Ready
		}
		parent.Lock.Unlock()
	}

	if l.Log != nil {
		log.WithProc(l.Log, pid, proctable.Available).Debug("lifecycle: exit")
	}
	l.console(pid, "exit: pid=%d", pid)
	if l.UART != nil {
		l.UART.Forget(pid)
	}

	l.Sched.Tick()
}

// Wait blocks until some other process marks the caller Ready again, which
// only happens via exit's parent notification. A caller with no live
// children would sleep forever, since nothing will ever notify it; that
// case returns -1 immediately instead of parking a hart that can never be
// woken.
func (l *Lifecycle) Wait() int64 {
	caller := l.current()
	if caller == nil {
		l.invariantViolation()
		return -1
	}

	if !l.hasLiveChild(caller) {
		return -1
	}

	caller.Lock.Lock()
	trapframe.Copy(&caller.Context, l.TrapFrame)
	caller.State = proctable.Sleeping
	caller.WakeupTime = 0
	caller.Lock.Unlock()

	l.Sched.Tick()
	return 0
}

func (l *Lifecycle) hasLiveChild(caller *proctable.Process) bool {
	l.Table.Lock.Lock()
	defer l.Table.Lock.Unlock()

	for i := range l.Table.Slots {
		slot := &l.Table.Slots[i]
		slot.Lock.Lock()
		isChild := slot.State != proctable.Available && slot.Parent == caller
		slot.Lock.Unlock()
		if isChild {
			return true
		}
	}
	return false
}

// Sleep parks the caller until the timer reaches now + ms milliseconds
// worth of ticks. The live trap frame is saved into the slot's context
// first so the eventual resume restores the instruction after the call.
func (l *Lifecycle) Sleep(ms uint64) int64 {
	caller := l.current()
	if caller == nil {
		l.invariantViolation()
		return -1
	}

	now := l.Clock.Now()
	wakeup := now + ms*(l.TicksPerSecond/1000)

	caller.Lock.Lock()
	trapframe.Copy(&caller.Context, l.TrapFrame)
	caller.State = proctable.Sleeping
	caller.WakeupTime = wakeup
	caller.Lock.Unlock()

	l.Sched.Tick()
	return 0
}

// Getpid returns the caller's pid, or the kernel-invariant failure value if
// called outside process context.
func (l *Lifecycle) Getpid() int64 {
	caller := l.current()
	if caller == nil {
		l.invariantViolation()
		return -1
	}
	l.console(caller.PID, "getpid: %d", caller.PID)
	return int64(caller.PID)
}

// Sysinfo reports total and free memory from the page allocator plus the
// live process count. The human-readable dump goes to the UART console
// tagged with the caller's pid, or pid 0 when invoked outside process
// context (the monitor's sysinfo panel, for instance).
func (l *Lifecycle) Sysinfo() (totalram, freeram uint64, procs int) {
	total, free := l.Mem.Stats()
	pageSize := uint64(l.Mem.PageSize())

	l.Table.Lock.Lock()
	procs = l.Table.NumProcs
	l.Table.Lock.Unlock()

	totalram = uint64(total) * pageSize
	freeram = uint64(free) * pageSize

	pid := uint32(0)
	if caller := l.current(); caller != nil {
		pid = caller.PID
	}
	l.console(pid, "sysinfo: totalram=%d freeram=%d procs=%d", totalram, freeram, procs)

	return totalram, freeram, procs
}
