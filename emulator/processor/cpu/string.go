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

// doString performs one primitive step of a string operation. Under a
// repeat prefix the instruction re-executes itself by jumping back to
// its own address, so hardware interrupts can preempt the loop between
// iterations.
func (p *CPU) doString(opcode byte) {
	si := p.GP[processor.RegSI]
	di := p.GP[processor.RegDI]
	if p.insnseg == -1 {
		p.insnseg = processor.SegDS
	}
	srcaddr := memory.NewPointer(p.Seg[p.insnseg], si)
	dstaddr := memory.NewPointer(p.Seg[processor.SegES], di)

	ptrinc := uint16(1) << (opcode & 1)
	if p.GetBool(flDF) {
		ptrinc = -ptrinc
	}

	count := p.GP[processor.RegCX]
	if count == 0 && p.insnprf != -1 {
		return
	}

	var srcinc, dstinc bool
	rep := true

	switch opcode {
	case 0xA4: // MOVSB
		p.mem.StoreByte(dstaddr, p.mem.LoadByte(srcaddr))
		srcinc, dstinc = true, true
		p.cycl += 18
	case 0xA5: // MOVSW
		p.mem.StoreWord(dstaddr, p.mem.LoadWord(srcaddr))
		srcinc, dstinc = true, true
		p.cycl += 18
	case 0xA6: // CMPSB
		x := uint32(p.mem.LoadByte(srcaddr))
		y := uint32(p.mem.LoadByte(dstaddr))
		p.fixFlagsAddB(x, y^0x80, x-y)
		srcinc, dstinc = true, true
		rep = p.repContinue(x == y)
		p.cycl += 22
	case 0xA7: // CMPSW
		x := uint32(p.mem.LoadWord(srcaddr))
		y := uint32(p.mem.LoadWord(dstaddr))
		p.fixFlagsAddW(x, y^0x8000, x-y)
		srcinc, dstinc = true, true
		rep = p.repContinue(x == y)
		p.cycl += 22
	case 0xAA: // STOSB
		p.mem.StoreByte(dstaddr, p.AL())
		dstinc = true
		p.cycl += 11
	case 0xAB: // STOSW
		p.mem.StoreWord(dstaddr, p.GP[processor.RegAX])
		dstinc = true
		p.cycl += 11
	case 0xAC: // LODSB
		p.SetAL(p.mem.LoadByte(srcaddr))
		srcinc = true
		p.cycl += 12
	case 0xAD: // LODSW
		p.GP[processor.RegAX] = p.mem.LoadWord(srcaddr)
		srcinc = true
		p.cycl += 12
	case 0xAE: // SCASB
		x := uint32(p.AL())
		y := uint32(p.mem.LoadByte(dstaddr))
		p.fixFlagsAddB(x, y^0x80, x-y)
		dstinc = true
		rep = p.repContinue(x == y)
		p.cycl += 15
	case 0xAF: // SCASW
		x := uint32(p.GP[processor.RegAX])
		y := uint32(p.mem.LoadWord(dstaddr))
		p.fixFlagsAddW(x, y^0x8000, x-y)
		dstinc = true
		rep = p.repContinue(x == y)
		p.cycl += 15
	}

	if srcinc {
		p.GP[processor.RegSI] = si + ptrinc
	}
	if dstinc {
		p.GP[processor.RegDI] = di + ptrinc
	}

	if p.insnprf != -1 {
		count--
		p.GP[processor.RegCX] = count
		if count != 0 && rep {
			p.jumpip = int32(p.IP)
		}
	}
}

// repContinue evaluates the repeat predicate of CMPS and SCAS:
// REP/REPE continues while elements are equal, REPNZ while they
// differ.
func (p *CPU) repContinue(equal bool) bool {
	if p.insnprf == prfREP {
		return equal
	}
	return !equal
}
