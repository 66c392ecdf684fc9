/*
Copyright (c) 2021-2022 The jx86pc authors

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software
   in a product, an acknowledgment in the product documentation would be
   appreciated but is not required.
2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.
3. This notice may not be removed or altered from any source distribution.
*/

package cpu

import (
	"fmt"

	"github.com/ggeorg/jx86pc/emulator/memory"
	"github.com/ggeorg/jx86pc/emulator/processor"
	"github.com/ggeorg/jx86pc/emulator/scheduler"
)

// flushCycles advances the simulation clock to account for the cycles
// burned so far. The division remainder is carried into the next
// conversion so no time is lost. Setting the reschedule flag makes the
// run loop re-examine device events after the flush.
func (p *CPU) flushCycles() {
	t := int64(p.cycl)*scheduler.ClockRate + p.leftCycleFrags
	if p.clock != nil {
		p.clock.AdvanceTime(t / p.cyclesPerSecond)
	}
	p.cycl = 0
	p.leftCycleFrags = t % p.cyclesPerSecond
	p.reschedule.Store(true)
}

// checkInterrupt polls the interrupt controller and dispatches a
// pending interrupt. It returns false when interrupts are enabled and
// nothing was dispatched: the controller had nothing pending, or no
// controller is attached.
func (p *CPU) checkInterrupt() bool {
	if !p.intsEnabled {
		return true
	}
	if p.pic != nil {
		if intno := p.pic.GetPendingInterrupt(); intno >= 0 {
			p.halted = false
			p.altInt(intno & 0xFF)
			return true
		}
	}
	return false
}

// Exec runs the CPU until the scheduled time of the next event, the
// cycle budget for the timeslice runs out, or a reschedule is
// requested. Pending hardware interrupts are checked and handled at
// instruction boundaries.
func (p *CPU) Exec() (err error) {
	defer p.recoverInvalidOpcode(&err)

	// Clear the reschedule flag. This must happen before the call to
	// TimeToNextEvent.
	p.reschedule.Store(false)

	// Calculate the maximum number of cycles for this run.
	maxRunTime := p.clock.TimeToNextEvent()
	if maxRunTime > scheduler.ClockRate {
		maxRunTime = scheduler.ClockRate
	}
	maxRunCycl := int((maxRunTime*p.cyclesPerSecond - p.leftCycleFrags + scheduler.ClockRate - 1) / scheduler.ClockRate)

	// There may be a new hardware interrupt pending.
	maybePending := p.checkInterrupt()

	// Don't run while the CPU is halted.
	if p.halted {
		p.reschedule.Store(true)
	}

	// Special exec loop in case tracing is enabled.
	for p.trace != nil && p.cycl < maxRunCycl && !p.reschedule.Load() {
		if maybePending {
			maybePending = p.checkInterrupt()
		}
		p.step()
		p.trace()
	}

	for p.cycl < maxRunCycl && !p.reschedule.Load() {
		if maybePending {
			maybePending = p.checkInterrupt()
		}
		p.step()
	}

	if p.cycl > 0 {
		p.flushCycles()
	}
	return nil
}

// Step decodes and executes a single instruction. Hardware interrupts
// are not polled; they are the run loop's business.
func (p *CPU) Step() (err error) {
	defer p.recoverInvalidOpcode(&err)
	p.step()
	return nil
}

func (p *CPU) recoverInvalidOpcode(err *error) {
	switch e := recover().(type) {
	case nil:
	case *InvalidOpcodeError:
		*err = e
	default:
		panic(e)
	}
}

// Cycles returns the cycle count accumulated since the last flush.
func (p *CPU) Cycles() int {
	return p.cycl
}

// doHook lets an installed hook intercept interrupt handling. The hook
// may rewrite every register except CS and may redirect or suppress
// the vector.
func (p *CPU) doHook(h processor.InterruptHook, v int) int {
	p.flushCycles()
	oldcs := p.Seg[processor.SegCS]
	v = h.Intercept(v, &p.Registers)
	p.Seg[processor.SegCS] = oldcs
	p.Flags.Store(uint16(p.Flags))
	if v < -1 || v > 255 {
		panic(fmt.Sprintf("interrupt hook returned invalid vector number: %d", v))
	}
	return v
}

// intCall raises an interrupt from inside an instruction (software
// interrupt or exception). The pushed return address is the
// instruction's end; the target is taken through jumpip so the normal
// boundary logic applies.
func (p *CPU) intCall(v int) {
	if h := p.inthook[v]; h != nil {
		if v = p.doHook(h, v); v < 0 {
			return
		}
	}
	p.pushW(uint32(p.Flags.Load()))
	p.pushW(uint32(p.Seg[processor.SegCS]))
	p.pushW(p.nextip)
	p.Flags.Clear(flIF | flTF)
	p.intsEnabled = false
	// A real 8086 would also trap on the first instruction of the
	// handler, but we don't (and modern processors also don't).
	p.trapEnabled = false
	p.jumpip = int32(p.mem.LoadWord(memory.Pointer(4 * v)))
	p.Seg[processor.SegCS] = p.mem.LoadWord(memory.Pointer(4*v + 2))
	p.csbase = uint32(p.Seg[processor.SegCS]) << 4
	p.cycl += 51
}

// altInt raises an interrupt outside an instruction context (hardware
// interrupt or single-step trap); the current IP is the return
// address and is replaced directly.
func (p *CPU) altInt(v int) {
	if h := p.inthook[v]; h != nil {
		if v = p.doHook(h, v); v < 0 {
			return
		}
	}
	p.pushW(uint32(p.Flags.Load()))
	p.pushW(uint32(p.Seg[processor.SegCS]))
	p.pushW(uint32(p.IP))
	p.Flags.Clear(flIF | flTF)
	p.intsEnabled = false
	p.trapEnabled = false
	p.IP = p.mem.LoadWord(memory.Pointer(4 * v))
	p.Seg[processor.SegCS] = p.mem.LoadWord(memory.Pointer(4*v + 2))
	p.csbase = uint32(p.Seg[processor.SegCS]) << 4
	p.cycl += 51
}
