// Package trapstub marks the boundary where trap entry/exit assembly would
// sit on real hardware. In this simulation there is no register file to
// marshal off the wire, so Enter and Exit are the documented seam: Enter is
// called once the "hardware" has already parked interrupted registers into
// the frame, Exit once the scheduler has installed the chosen process's
// context, right before control returns to user mode.
package trapstub

import "github.com/riscvkern/riscvkern/pkg/trapframe"

// Enter is a no-op in this simulation: the caller is expected to have
// already written the interrupted context into frame before calling it.
// It exists so call sites read the same way they would beside real trap
// assembly.
func Enter(frame *trapframe.Frame) {
	_ = frame
}

// Exit is a no-op in this simulation: by the time it is called, the
// scheduler has already copied the chosen process's context into frame.
// Real trap-exit assembly would reload every register from frame here and
// issue the return-from-trap instruction.
func Exit(frame *trapframe.Frame) {
	_ = frame
}
