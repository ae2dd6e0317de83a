// Package scheduler picks the next runnable slot on every timer tick,
// swaps trap-frame contents with that slot's saved context, and parks the
// hart when nothing is runnable.
package scheduler

import (
	"github.com/sirupsen/logrus"

	"github.com/riscvkern/riscvkern/pkg/hal"
	"github.com/riscvkern/riscvkern/pkg/log"
	"github.com/riscvkern/riscvkern/pkg/proctable"
	"github.com/riscvkern/riscvkern/pkg/timer"
	"github.com/riscvkern/riscvkern/pkg/trapframe"
)

// Scheduler ties together the process table, the global trap frame it swaps
// contexts through, a timer source, and the host-CPU abstraction.
type Scheduler struct {
	Table     *proctable.Table
	TrapFrame *trapframe.Frame
	Clock     timer.Source
	HAL       hal.HAL
	Log       *logrus.Entry

	// TickTicks is how many ticks ahead of now the idle path arms the next
	// timer fire for.
	TickTicks uint64
}

// New constructs a Scheduler over an already-initialized table.
func New(table *proctable.Table, frame *trapframe.Frame, clock timer.Source, h hal.HAL, log *logrus.Entry, tickTicks uint64) *Scheduler {
	return &Scheduler{Table: table, TrapFrame: frame, Clock: clock, HAL: h, Log: log, TickTicks: tickTicks}
}

// Tick is invoked from the timer-tick handler after the interrupted
// registers have been parked in the trap frame, and from lifecycle calls
// that give up the CPU (exit, wait, sleep).
func (s *Scheduler) Tick() {
	now := s.Clock.Now()

	s.Table.Lock.Lock()

	currProc := s.Table.CurrProc

	// A nil lastProc means the outgoing context in the trap frame belongs
	// to nobody and must be discarded: the first tick after boot, the tick
	// after an exit, and the tick that ends an idle stretch.
	var lastProc *proctable.Process
	if currProc >= 0 && !s.Table.IsIdle {
		candidate := &s.Table.Slots[currProc]
		if candidate.State != proctable.Available {
			lastProc = candidate
		}
	}

	if s.Table.NumProcs == 0 {
		// Reached at boot before anything is seeded, and again when the
		// last process exits. Either way the hart is idle from here on.
		s.Table.IsIdle = true
		s.Table.Lock.Unlock()
		return
	}

	chosenIdx, found := s.findReadyProc(currProc, now, lastProc != nil)
	if !found {
		s.Table.IsIdle = true
		s.Table.Lock.Unlock()

		if s.Log != nil {
			log.WithTick(s.Log, now).Debug("scheduler: no runnable process, parking hart")
		}

		s.Clock.ArmNext(now + s.TickTicks)
		s.HAL.EnableInterrupts()
		s.HAL.ParkHart()
		return
	}

	chosen := &s.Table.Slots[chosenIdx]

	// When lastProc.PID == chosen.PID no copy is needed: the same process
	// continues. Otherwise the outgoing slot is saved before the chosen slot
	// is locked, so two slot locks are never held at once.
	swap := lastProc == nil || lastProc.PID != chosen.PID
	if swap && lastProc != nil {
		lastProc.Lock.Lock()
		trapframe.Copy(&lastProc.Context, s.TrapFrame)
		// Only a preempted process goes back to the ready queue. A slot
		// that put itself to sleep (sleep/wait) already holds the state it
		// wants to wake from and must not be resurrected here.
		if lastProc.State == proctable.Running {
			lastProc.State = proctable.Ready
		}
		lastProc.Lock.Unlock()
	}

	chosen.Lock.Lock()
	chosen.State = proctable.Running
	if swap {
		trapframe.Copy(s.TrapFrame, &chosen.Context)
	}
	chosen.Lock.Unlock()
	s.Table.IsIdle = false
	s.Table.Lock.Unlock()

	if s.Log != nil {
		log.WithProc(log.WithTick(s.Log, now), chosen.PID, proctable.Running).
			WithField("slot", chosenIdx).Debug("scheduler: dispatching process")
	}

	s.HAL.SetUserMode()
}

// findReadyProc advances a round-robin cursor starting at
// (curr+1) mod MaxProcs and visits every slot at most once. A slot is
// acceptable if it is Ready, or if it is Sleeping with WakeupTime <= now (in
// which case it is retransitioned to Ready under its lock). The scan updates
// Table.CurrProc to the final cursor position regardless of outcome. Caller
// must hold Table.Lock.
//
// The wrap-around slot at index curr is additionally acceptable while still
// Running when haveLastProc is true: that is the lone process dispatched
// last tick, never demoted to Ready because the swap only demotes the
// outgoing slot when a different slot is chosen.
func (s *Scheduler) findReadyProc(curr int, now uint64, haveLastProc bool) (int, bool) {
	max := s.Table.MaxProcs()
	start := (curr + 1) % max

	for i := 0; i < max; i++ {
		idx := (start + i) % max
		slot := &s.Table.Slots[idx]

		slot.Lock.Lock()
		acceptable := slot.State == proctable.Ready
		// WakeupTime 0 marks a slot with no deadline at all (a parent
		// blocked in wait): only an external notification may wake it.
		if !acceptable && slot.State == proctable.Sleeping && slot.WakeupTime > 0 && slot.WakeupTime <= now {
			slot.State = proctable.Ready
			acceptable = true
		}
		if !acceptable && haveLastProc && idx == curr && slot.State == proctable.Running {
			acceptable = true
		}
		slot.Lock.Unlock()

		if acceptable {
			s.Table.CurrProc = idx
			return idx, true
		}
	}

	// Nothing acceptable: the cursor still advances to the last slot
	// visited, which is curr itself after a full wrap.
	s.Table.CurrProc = (start + max - 1) % max
	return 0, false
}
