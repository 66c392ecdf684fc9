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
	"github.com/ggeorg/jx86pc/emulator/memory"
	"github.com/ggeorg/jx86pc/emulator/processor"
)

// operand is a resolved instruction operand: either a general register
// (byte half encoded in bit 2 of the index) or a segment:offset pair.
type operand struct {
	reg int8 // register index, or -1 for a memory operand
	seg int8 // segment register index for memory operands
	off uint16
}

func regOperand(r int) operand {
	return operand{reg: int8(r), seg: -1}
}

func (o operand) pointer(p *CPU) memory.Pointer {
	return memory.NewPointer(p.Seg[o.seg], o.off)
}

// Fetch immediate byte operand from the current instruction.
func (p *CPU) getImmByte() byte {
	v := p.mem.LoadByte(memory.Pointer(p.csbase + p.nextip))
	p.nextip++
	return v
}

// Fetch immediate word operand from the current instruction.
func (p *CPU) getImmWord() uint16 {
	v := p.mem.LoadWord(memory.Pointer(p.csbase + p.nextip))
	p.nextip += 2
	return v
}

// Fetch and decode the ModRM byte and resolve the r/m operand.
func (p *CPU) decodeModRM() {
	p.nextip++
	modrm := p.modrm
	mod := modrm & 0xC0
	rm := int(modrm & 7)
	p.insnreg = int(modrm>>3) & 7

	var off uint32
	switch mod {
	case 0x00:
	case 0x40:
		off = uint32(uint16(int16(int8(p.getImmByte()))))
		p.cycl += 4
	case 0x80:
		off = uint32(p.getImmWord())
		p.cycl += 4
	case 0xC0:
		p.opr = regOperand(rm)
		return
	}

	seg := processor.SegDS
	switch rm {
	case 0:
		off += uint32(p.GP[processor.RegBX] + p.GP[processor.RegSI])
		p.cycl += 7
	case 1:
		off += uint32(p.GP[processor.RegBX] + p.GP[processor.RegDI])
		p.cycl += 8
	case 2:
		off += uint32(p.GP[processor.RegBP] + p.GP[processor.RegSI])
		seg = processor.SegSS
		p.cycl += 8
	case 3:
		off += uint32(p.GP[processor.RegBP] + p.GP[processor.RegDI])
		seg = processor.SegSS
		p.cycl += 7
	case 4:
		off += uint32(p.GP[processor.RegSI])
		p.cycl += 5
	case 5:
		off += uint32(p.GP[processor.RegDI])
		p.cycl += 5
	case 6:
		if mod == 0 {
			off = uint32(p.getImmWord())
			p.cycl += 6
		} else {
			off += uint32(p.GP[processor.RegBP])
			seg = processor.SegSS
			p.cycl += 5
		}
	case 7:
		off += uint32(p.GP[processor.RegBX])
		p.cycl += 5
	}

	if p.insnseg == -1 {
		p.insnseg = seg
	}
	p.opr = operand{reg: -1, seg: int8(p.insnseg), off: uint16(off)}
}

// Fetch byte from the resolved operand.
func (p *CPU) loadByte() uint32 {
	if o := p.opr; o.reg >= 0 {
		return uint32(p.ByteReg(int(o.reg)))
	}
	p.cycl += 6
	return uint32(p.mem.LoadByte(p.opr.pointer(p)))
}

// Fetch word from the resolved operand.
func (p *CPU) loadWord() uint32 {
	if o := p.opr; o.reg >= 0 {
		return uint32(p.GP[o.reg&7])
	}
	p.cycl += 6
	return uint32(p.mem.LoadWord(p.opr.pointer(p)))
}

// Store byte to the resolved operand.
func (p *CPU) storeByte(v uint32) {
	if o := p.opr; o.reg >= 0 {
		p.SetByteReg(int(o.reg), byte(v))
		return
	}
	p.cycl += 7
	p.mem.StoreByte(p.opr.pointer(p), byte(v))
}

// Store word to the resolved operand.
func (p *CPU) storeWord(v uint32) {
	if o := p.opr; o.reg >= 0 {
		p.GP[o.reg&7] = uint16(v)
		return
	}
	p.cycl += 7
	p.mem.StoreWord(p.opr.pointer(p), uint16(v))
}

// parityLookup[b] is true iff b has an even number of one bits.
var parityLookup = [256]bool{
	true, false, false, true, false, true, true, false, false, true, true, false, true, false, false, true,
	false, true, true, false, true, false, false, true, true, false, false, true, false, true, true, false,
	false, true, true, false, true, false, false, true, true, false, false, true, false, true, true, false,
	true, false, false, true, false, true, true, false, false, true, true, false, true, false, false, true,
	false, true, true, false, true, false, false, true, true, false, false, true, false, true, true, false,
	true, false, false, true, false, true, true, false, false, true, true, false, true, false, false, true,
	true, false, false, true, false, true, true, false, false, true, true, false, true, false, false, true,
	false, true, true, false, true, false, false, true, true, false, false, true, false, true, true, false,
	false, true, true, false, true, false, false, true, true, false, false, true, false, true, true, false,
	true, false, false, true, false, true, true, false, false, true, true, false, true, false, false, true,
	true, false, false, true, false, true, true, false, false, true, true, false, true, false, false, true,
	false, true, true, false, true, false, false, true, true, false, false, true, false, true, true, false,
	true, false, false, true, false, true, true, false, false, true, true, false, true, false, false, true,
	false, true, true, false, true, false, false, true, true, false, false, true, false, true, true, false,
	false, true, true, false, true, false, false, true, true, false, false, true, false, true, true, false,
	true, false, false, true, false, true, true, false, false, true, true, false, true, false, false, true,
}
