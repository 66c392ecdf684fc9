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

func TestEffectiveAddressForms(t *testing.T) {
	// MOV [BX+SI],AL / MOV [BP+DI+2],AL / MOV [0x0777],AL
	p, mem := testCPU(
		0x88, 0x00, // MOV [BX+SI],AL
		0x88, 0x43, 0x02, // MOV [BP+DI+2],AL
		0x88, 0x06, 0x77, 0x07, // MOV [0x0777],AL
	)
	p.SetAL(0xAB)
	p.GP[processor.RegBX] = 0x0200
	p.GP[processor.RegSI] = 0x0034
	p.GP[processor.RegBP] = 0x0300
	p.GP[processor.RegDI] = 0x0010
	p.Seg[processor.SegDS] = 0x0100
	p.Seg[processor.SegSS] = 0x0200

	expect(t, p.Step(), nil) // DS:[BX+SI] = 0x1000+0x234
	expect(t, mem.LoadByte(0x1234), byte(0xAB))

	expect(t, p.Step(), nil) // SS:[BP+DI+2] = 0x2000+0x312
	expect(t, mem.LoadByte(0x2312), byte(0xAB))

	expect(t, p.Step(), nil) // DS:[0x0777] = 0x1000+0x777
	expect(t, mem.LoadByte(0x1777), byte(0xAB))
}

func TestEffectiveAddressWraps(t *testing.T) {
	p, mem := testCPU(0x88, 0x47, 0x7F) // MOV [BX+0x7F],AL
	p.SetAL(0x55)
	p.GP[processor.RegBX] = 0xFFF0
	expect(t, p.Step(), nil)
	expect(t, mem.LoadByte(0x006F), byte(0x55)) // offset wraps to 0x006F
}

func TestSegmentOverrideStickiness(t *testing.T) {
	// ES:MOV [0x10],AL followed by a plain MOV [0x10],AL; the
	// override must affect exactly the first one.
	p, mem := testCPU(
		0x26, 0xA2, 0x10, 0x00, // ES: MOV [0x10],AL
		0xA2, 0x10, 0x00, // MOV [0x10],AL
	)
	p.SetAL(0x77)
	p.Seg[processor.SegES] = 0x0100
	p.Seg[processor.SegDS] = 0x0200

	expect(t, p.Step(), nil)
	expect(t, mem.LoadByte(0x1010), byte(0x77))
	expect(t, mem.LoadByte(0x2010), byte(0x00))

	expect(t, p.Step(), nil)
	expect(t, mem.LoadByte(0x2010), byte(0x77))
}

func TestSegmentOverrideOnBPDefaultsSS(t *testing.T) {
	p, mem := testCPU(
		0x88, 0x46, 0x00, // MOV [BP],AL       (SS default)
		0x3E, 0x88, 0x46, 0x00, // DS: MOV [BP],AL
	)
	p.SetAL(0x99)
	p.GP[processor.RegBP] = 0x0040
	p.Seg[processor.SegSS] = 0x0300
	p.Seg[processor.SegDS] = 0x0400

	expect(t, p.Step(), nil)
	expect(t, mem.LoadByte(0x3040), byte(0x99))

	expect(t, p.Step(), nil)
	expect(t, mem.LoadByte(0x4040), byte(0x99))
}

func TestXlatUsesOverride(t *testing.T) {
	p, mem := testCPU(0x26, 0xD7) // ES: XLAT
	p.Seg[processor.SegES] = 0x0100
	p.GP[processor.RegBX] = 0x0020
	p.SetAL(0x05)
	mem.StoreByte(0x1025, 0x42)
	expect(t, p.Step(), nil)
	expect(t, p.AL(), byte(0x42))
}

func TestLeaLoadsOffset(t *testing.T) {
	p, _ := testCPU(0x8D, 0x47, 0x10) // LEA AX,[BX+0x10]
	p.GP[processor.RegBX] = 0x1200
	expect(t, p.Step(), nil)
	expect(t, p.GP[processor.RegAX], uint16(0x1210))
}

func TestLesLoadsPointer(t *testing.T) {
	p, mem := testCPU(0xC4, 0x06, 0x00, 0x20) // LES AX,[0x2000]
	mem.StoreWord(0x2000, 0x1234)
	mem.StoreWord(0x2002, 0xABCD)
	expect(t, p.Step(), nil)
	expect(t, p.GP[processor.RegAX], uint16(0x1234))
	expect(t, p.Seg[processor.SegES], uint16(0xABCD))
}

func TestInvalidOpcodeCarriesState(t *testing.T) {
	p, _ := testCPU(0x0F)
	err := p.Step()
	ioe, ok := err.(*InvalidOpcodeError)
	if !ok {
		t.Fatalf("expected InvalidOpcodeError, got %v", err)
	}
	expect(t, len(ioe.State), 32)
	if ioe.Dump == "" {
		t.Fatal("missing state dump")
	}
}

func TestUndefinedGroupSubOpcode(t *testing.T) {
	p, _ := testCPU(0xF6, 0xC8) // Grp3 /1 is undefined
	if err := p.Step(); err == nil {
		t.Fatal("expected invalid opcode error")
	}
}

func TestGroup1SignExtendedImmediate(t *testing.T) {
	p, _ := testCPU(0x83, 0xC0, 0xFF) // ADD AX,-1
	p.GP[processor.RegAX] = 0x0005
	expect(t, p.Step(), nil)
	expect(t, p.GP[processor.RegAX], uint16(0x0004))
	expect(t, p.GetBool(flCF), true)
}

func TestOpcodeCacheIsPopulatedAndInvalidated(t *testing.T) {
	p, mem := testCPU(0x00, 0xD8) // ADD AL,BL
	p.SetAL(1)
	p.SetByteReg(processor.RegBX, 2)
	expect(t, p.Step(), nil)
	expect(t, p.AL(), byte(3))
	if mem.LoadOp(0x100) == nil {
		t.Fatal("ALU opcode was not memoized")
	}

	// Run the cached decode a second time.
	p.IP = 0x100
	expect(t, p.Step(), nil)
	expect(t, p.AL(), byte(5))

	// A write to the opcode byte must drop the slot.
	mem.StoreByte(0x100, 0x28) // SUB AL,BL
	if mem.LoadOp(0x100) != nil {
		t.Fatal("write did not invalidate cached operation")
	}
	p.IP = 0x100
	expect(t, p.Step(), nil)
	expect(t, p.AL(), byte(3))
}

func TestOpcodeCacheTransparency(t *testing.T) {
	code := []byte{
		0xB8, 0x34, 0x12, // MOV AX,0x1234
		0x01, 0xC3, // ADD BX,AX
		0x31, 0xD8, // XOR AX,BX
	}

	run := func(twice bool) (*CPU, uint16) {
		p, _ := testCPU(code...)
		rounds := 1
		if twice {
			rounds = 2
		}
		for i := 0; i < rounds; i++ {
			p.IP = 0x100
			p.GP[processor.RegBX] = 0
			for p.IP != 0x107 {
				expect(t, p.Step(), nil)
			}
		}
		return p, p.GP[processor.RegAX]
	}

	pa, a := run(false)
	pb, b := run(true)
	expect(t, a, b)
	expect(t, pa.Flags.Load(), pb.Flags.Load())
}

func TestSegmentLimitCrossing(t *testing.T) {
	p, mem := testCPU()
	mem.StoreByte(0xFFFF, 0xB8) // MOV AX,imm16 truncated by the limit
	p.IP = 0xFFFF
	if err := p.Step(); err == nil {
		t.Fatal("expected segment limit fault")
	}
}
