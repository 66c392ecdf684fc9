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

// Package cpu emulates an 8086/8088 CPU.
package cpu

import (
	"errors"
	"sync/atomic"

	"github.com/ggeorg/jx86pc/emulator/memory"
	"github.com/ggeorg/jx86pc/emulator/processor"
	"github.com/ggeorg/jx86pc/emulator/scheduler"
)

const (
	prfREPNZ = 0xF2
	prfREP   = 0xF3
)

// An InvalidOpcodeError is raised when the CPU runs into an undefined
// encoding. It carries a snapshot of the CPU state at the faulting
// instruction.
type InvalidOpcodeError struct {
	Msg   string
	State []byte
	Dump  string
}

func (e *InvalidOpcodeError) Error() string {
	return e.Msg + "\n" + e.Dump
}

type CPU struct {
	processor.Registers

	clock scheduler.Clock
	mem   *memory.Memory
	io    processor.IOPorts
	pic   processor.InterruptController

	inthook [256]processor.InterruptHook
	trace   func()

	// Transient state of the current instruction.
	csbase  uint32  // CS << 4
	nextip  uint32  // IP after the bytes fetched so far
	jumpip  int32   // -1, or the IP the instruction jumped to
	insnprf int     // -1, or the repeat prefix byte
	insnseg int     // -1, or the segment override register index
	insnreg int     // modRM reg field
	modrm   byte    // tentative modRM byte
	opr     operand // resolved r/m operand

	cycl          int  // local clock cycle counter
	halted        bool // halted until the next interrupt
	intsEnabled   bool // IF as sampled at the instruction boundary
	trapEnabled   bool // TF as sampled at the instruction boundary
	trapSkipFirst bool // skip first instruction after trap enable

	reschedule      atomic.Bool
	cyclesPerSecond int64
	leftCycleFrags  int64
}

// New constructs a CPU in the reset state.
func New(clock scheduler.Clock, mem *memory.Memory, io processor.IOPorts) *CPU {
	p := &CPU{
		clock:           clock,
		mem:             mem,
		io:              io,
		cyclesPerSecond: 4772700,
	}
	p.Reset()
	return p
}

// Reset places the CPU in its initial state.
func (p *CPU) Reset() {
	p.Registers.Reset()
	p.csbase = uint32(p.Seg[processor.SegCS]) << 4
	p.intsEnabled = p.GetBool(processor.InterruptEnable)
	p.trapEnabled = p.GetBool(processor.Trap)
	p.trapSkipFirst = false
	p.halted = false
	p.cycl = 0
	p.leftCycleFrags = 0
}

// SetInterruptController attaches the interrupt controller the CPU
// polls at instruction boundaries.
func (p *CPU) SetInterruptController(pic processor.InterruptController) {
	p.pic = pic
}

// SetCyclesPerSecond sets the emulated CPU clock rate in Hz (max 4 GHz).
func (p *CPU) SetCyclesPerSecond(cps int64) error {
	if cps <= 0 || cps > 4000000000 {
		return errors.New("invalid CPU clock rate")
	}
	p.cyclesPerSecond = cps
	p.leftCycleFrags = 0
	return nil
}

// CyclesPerSecond returns the emulated CPU clock rate in Hz.
func (p *CPU) CyclesPerSecond() int64 {
	return p.cyclesPerSecond
}

// SetInterruptHook installs h as the interceptor for vector v, or
// removes the interceptor when h is nil.
func (p *CPU) SetInterruptHook(h processor.InterruptHook, v int) {
	p.inthook[v] = h
}

// SetTraceHook installs a hook called after every instruction, or
// removes it when f is nil.
func (p *CPU) SetTraceHook(f func()) {
	p.trace = f
}

// Halted reports whether the CPU is halted until the next interrupt.
func (p *CPU) Halted() bool {
	return p.halted
}

// SetReschedule requests that the CPU return from its current
// timeslice. Safe to call from other goroutines.
func (p *CPU) SetReschedule() {
	p.reschedule.Store(true)
}

func (p *CPU) invalidOpcode(msg string) {
	panic(&InvalidOpcodeError{Msg: msg, State: p.StateData(), Dump: p.StateString()})
}

// Push word on the stack.
func (p *CPU) pushW(v uint32) {
	sp := p.GP[processor.RegSP] - 2
	p.GP[processor.RegSP] = sp
	p.mem.StoreWord(memory.NewPointer(p.Seg[processor.SegSS], sp), uint16(v))
}

// Pop word from the stack.
func (p *CPU) popW() uint32 {
	sp := p.GP[processor.RegSP]
	p.GP[processor.RegSP] = sp + 2
	return uint32(p.mem.LoadWord(memory.NewPointer(p.Seg[processor.SegSS], sp)))
}
