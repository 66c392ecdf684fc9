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

	"github.com/ggeorg/jx86pc/emulator/processor"
)

// grp2 executes one shift/rotate on AL and returns the CPU.
func grp2(t *testing.T, al byte, cf bool, code ...byte) *CPU {
	t.Helper()
	p, _ := testCPU(code...)
	p.SetAL(al)
	p.SetBool(flCF, cf)
	expect(t, p.Step(), nil)
	return p
}

func TestShlShiftsIntoCarry(t *testing.T) {
	p := grp2(t, 0x81, false, 0xD0, 0xE0) // SHL AL,1
	expect(t, p.AL(), byte(0x02))
	expect(t, p.GetBool(flCF), true)
	// OF = CF XOR result sign.
	expect(t, p.GetBool(flOF), true)
}

func TestShrSetsOverflowFromSign(t *testing.T) {
	p := grp2(t, 0x81, false, 0xD0, 0xE8) // SHR AL,1
	expect(t, p.AL(), byte(0x40))
	expect(t, p.GetBool(flCF), true)
	expect(t, p.GetBool(flOF), true) // top two result bits differ
}

func TestSarKeepsSignAndClearsOverflow(t *testing.T) {
	p := grp2(t, 0x82, false, 0xD0, 0xF8) // SAR AL,1
	expect(t, p.AL(), byte(0xC1))
	expect(t, p.GetBool(flCF), false)
	expect(t, p.GetBool(flOF), false)
	expect(t, p.GetBool(flSF), true)
}

func TestRolRotatesThroughTopBit(t *testing.T) {
	p := grp2(t, 0x81, false, 0xD0, 0xC0) // ROL AL,1
	expect(t, p.AL(), byte(0x03))
	expect(t, p.GetBool(flCF), true)
}

func TestRorRotatesThroughBottomBit(t *testing.T) {
	p := grp2(t, 0x01, false, 0xD0, 0xC8) // ROR AL,1
	expect(t, p.AL(), byte(0x80))
	expect(t, p.GetBool(flCF), true)
}

func TestRclRotatesThroughCarry(t *testing.T) {
	p := grp2(t, 0x80, true, 0xD0, 0xD0) // RCL AL,1 with CF set
	expect(t, p.AL(), byte(0x01))
	expect(t, p.GetBool(flCF), true)
}

func TestRcrCountModuloNine(t *testing.T) {
	// Rotating a 9-bit quantity by 9 must be the identity.
	p, _ := testCPU(0xD2, 0xD8) // RCR AL,CL
	p.SetAL(0x5A)
	p.SetByteReg(processor.RegCX, 9)
	p.Flags.Set(flCF)
	expect(t, p.Step(), nil)
	expect(t, p.AL(), byte(0x5A))
	expect(t, p.GetBool(flCF), true)
}

func TestShiftCountZeroPreservesFlags(t *testing.T) {
	p, _ := testCPU(0xD2, 0xE0) // SHL AL,CL
	p.SetAL(0xFF)
	p.SetByteReg(processor.RegCX, 0)
	p.Flags.Set(flCF | flOF)
	expect(t, p.Step(), nil)
	expect(t, p.AL(), byte(0xFF))
	expect(t, p.GetBool(flCF), true)
	expect(t, p.GetBool(flOF), true)
}

func TestShlByClLargeCountClearsRegister(t *testing.T) {
	p, _ := testCPU(0xD2, 0xE0) // SHL AL,CL
	p.SetAL(0xFF)
	p.SetByteReg(processor.RegCX, 16)
	expect(t, p.Step(), nil)
	expect(t, p.AL(), byte(0x00))
	expect(t, p.GetBool(flCF), false)
	expect(t, p.GetBool(flZF), true)
}

func TestSarByClClampsAtWidth(t *testing.T) {
	p, _ := testCPU(0xD2, 0xF8) // SAR AL,CL
	p.SetAL(0x80)
	p.SetByteReg(processor.RegCX, 200)
	expect(t, p.Step(), nil)
	expect(t, p.AL(), byte(0xFF)) // sign fill
	expect(t, p.GetBool(flCF), true)
}

func TestShlWordIntoCarry(t *testing.T) {
	p, _ := testCPU(0xD1, 0xE0) // SHL AX,1
	p.GP[processor.RegAX] = 0x8000
	expect(t, p.Step(), nil)
	expect(t, p.GP[processor.RegAX], uint16(0))
	expect(t, p.GetBool(flCF), true)
	expect(t, p.GetBool(flZF), true)
}

func TestGrp2ChargesClCycles(t *testing.T) {
	p, _ := testCPU(0xD2, 0xE0) // SHL AL,CL
	p.SetByteReg(processor.RegCX, 4)
	expect(t, p.Step(), nil)
	// Base 2 plus 5+4n for a CL-counted shift.
	if p.Cycles() < 2+5+4*4 {
		t.Fatalf("cycle charge too low: %d", p.Cycles())
	}
}
