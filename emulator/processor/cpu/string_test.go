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
	"testing"

	"github.com/ggeorg/jx86pc/emulator/memory"
	"github.com/ggeorg/jx86pc/emulator/processor"
)

func TestRepMovsb(t *testing.T) {
	p, mem := testCPU(0xF3, 0xA4) // REP MOVSB
	p.GP[processor.RegSI] = 0x0100
	p.GP[processor.RegDI] = 0x0200
	p.GP[processor.RegCX] = 4
	p.Seg[processor.SegDS] = 0x1000
	p.Seg[processor.SegES] = 0x1000
	mem.LoadData(0x10100, []byte("TEST"))

	// The instruction re-executes itself once per element; each step
	// is a separate instruction boundary.
	for i := 0; i < 4; i++ {
		expect(t, p.Step(), nil)
	}

	expect(t, p.GP[processor.RegCX], uint16(0))
	expect(t, p.GP[processor.RegSI], uint16(0x0104))
	expect(t, p.GP[processor.RegDI], uint16(0x0204))
	expect(t, p.IP, uint16(0x102))
	for i, want := range []byte("TEST") {
		expect(t, mem.LoadByte(memory.Pointer(0x10200+i)), want)
	}
}

func TestRepMovsbZeroCountDoesNothing(t *testing.T) {
	p, mem := testCPU(0xF3, 0xA4)
	p.GP[processor.RegSI] = 0x0300
	p.GP[processor.RegDI] = 0x0200
	p.GP[processor.RegCX] = 0
	mem.StoreByte(0x0300, 0xAA)

	expect(t, p.Step(), nil)
	expect(t, p.GP[processor.RegSI], uint16(0x0300))
	expect(t, p.GP[processor.RegDI], uint16(0x0200))
	expect(t, mem.LoadByte(0x0200), byte(0))
	expect(t, p.IP, uint16(0x102))
}

func TestMovswRespectsDirectionFlag(t *testing.T) {
	p, mem := testCPU(0xA5) // MOVSW
	p.GP[processor.RegSI] = 0x0300
	p.GP[processor.RegDI] = 0x0200
	p.Flags.Set(flDF)
	mem.StoreWord(0x0300, 0x1234)

	expect(t, p.Step(), nil)
	expect(t, mem.LoadWord(0x0200), uint16(0x1234))
	expect(t, p.GP[processor.RegSI], uint16(0x02FE))
	expect(t, p.GP[processor.RegDI], uint16(0x01FE))
}

func TestRepeCmpsbStopsOnMismatch(t *testing.T) {
	p, mem := testCPU(0xF3, 0xA6) // REPE CMPSB
	p.GP[processor.RegSI] = 0x0300
	p.GP[processor.RegDI] = 0x0200
	p.GP[processor.RegCX] = 4
	mem.LoadData(0x0300, []byte("ABCD"))
	mem.LoadData(0x0200, []byte("ABXD"))

	for p.IP != 0x102 {
		expect(t, p.Step(), nil)
	}

	// Stops at the third element, where the strings differ.
	expect(t, p.GP[processor.RegCX], uint16(1))
	expect(t, p.GP[processor.RegSI], uint16(0x0303))
	expect(t, p.GetBool(flZF), false)
}

func TestRepneScasbFindsByte(t *testing.T) {
	p, mem := testCPU(0xF2, 0xAE) // REPNE SCASB
	p.GP[processor.RegDI] = 0x0200
	p.GP[processor.RegCX] = 8
	p.SetAL('X')
	mem.LoadData(0x0200, []byte("helXo"))

	for p.IP != 0x102 {
		expect(t, p.Step(), nil)
	}

	expect(t, p.GP[processor.RegDI], uint16(0x0204))
	expect(t, p.GP[processor.RegCX], uint16(4))
	expect(t, p.GetBool(flZF), true)
}

func TestRepStoswFillsMemory(t *testing.T) {
	p, mem := testCPU(0xF3, 0xAB) // REP STOSW
	p.GP[processor.RegDI] = 0x0300
	p.GP[processor.RegCX] = 3
	p.GP[processor.RegAX] = 0xABCD

	for p.IP != 0x102 {
		expect(t, p.Step(), nil)
	}
	for i := 0; i < 3; i++ {
		expect(t, mem.LoadWord(memory.Pointer(0x0300+2*i)), uint16(0xABCD))
	}
	expect(t, p.GP[processor.RegDI], uint16(0x0306))
}

func TestLodsbUsesOverride(t *testing.T) {
	p, mem := testCPU(0x26, 0xAC) // ES: LODSB
	p.Seg[processor.SegES] = 0x0100
	p.GP[processor.RegSI] = 0x0010
	mem.StoreByte(0x1010, 0x5A)

	expect(t, p.Step(), nil)
	expect(t, p.AL(), byte(0x5A))
	expect(t, p.GP[processor.RegSI], uint16(0x0011))
}

func TestRepLoopIsInterruptible(t *testing.T) {
	// An interrupt delivered between REP iterations must find IP
	// pointing back at the string instruction so the loop resumes.
	p, mem := testCPU(0xF3, 0xA4) // REP MOVSB
	p.GP[processor.RegSI] = 0x0300
	p.GP[processor.RegDI] = 0x0200
	p.GP[processor.RegCX] = 4
	mem.LoadData(0x0300, []byte("TEST"))

	expect(t, p.Step(), nil)
	expect(t, p.IP, uint16(0x100)) // mid-loop: points at the prefix
	expect(t, p.GP[processor.RegCX], uint16(3))

	mem.StoreWord(0x08*4, 0x2000)
	mem.StoreByte(0x2000, 0xCF) // IRET
	mem.StoreByte(0x102, 0xF4)  // HLT after the copy
	p.Flags.Set(flIF)
	p.intsEnabled = true
	p.SetInterruptController(&stubPIC{pending: 0x08})
	clock := &testClock{budget: 1000000}
	p.clock = clock

	expect(t, p.Exec(), nil)
	expect(t, p.GP[processor.RegCX], uint16(0))
	expect(t, p.GP[processor.RegDI], uint16(0x0204))
	for i, want := range []byte("TEST") {
		expect(t, mem.LoadByte(memory.Pointer(0x0200+i)), want)
	}
}
