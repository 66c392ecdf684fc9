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
	"github.com/ggeorg/jx86pc/emulator/processor"
)

// Group 2: shift and rotate on byte.
//
// A count of zero affects nothing, not even the flags. RCL and RCR
// rotate through CF, so their period is 9 bits. SHL and SHR counts
// clamp at 24, SAR at the operand width. OF is architecturally defined
// only for single-bit operations; the choices below match observed
// 8086 behaviour.
func (p *CPU) doGrp2B(usecl bool) {
	count := uint32(1)
	p.cycl += 2
	if usecl {
		count = uint32(p.CL())
		p.cycl += 5 + 4*int(count)
	}
	p.decodeModRM()
	x := p.loadByte()
	if count == 0 {
		return
	}

	var y uint32
	switch p.insnreg {
	case 0: // ROL
		y = x<<(count&7) | x>>(8-count&7)
		p.SetBool(flCF, y&1 != 0)
	case 1: // ROR
		y = x>>(count&7) | x<<(8-count&7)
		p.SetBool(flCF, y&0x80 != 0)
	case 2: // RCL
		if count > 8 {
			count %= 9
			if count == 0 {
				y = x
				break
			}
		}
		y = x<<count | x>>(9-count)
		if p.Flags&flCF != 0 {
			y |= 1 << (count - 1)
		}
		p.SetBool(flCF, y&0x100 != 0)
	case 3: // RCR
		if count > 8 {
			count %= 9
			if count == 0 {
				y = x
				break
			}
		}
		y = x>>count | x<<(9-count)
		if p.Flags&flCF != 0 {
			y |= 1 << (8 - count)
		}
		p.SetBool(flCF, x>>(count-1)&1 != 0)
	case 4, 6: // SHL/SAL
		if count > 24 {
			count = 24
		}
		y = x << count
		p.SetBool(flCF, y&0x100 != 0)
		p.SetBool(flAF, y&0x10 != 0)
		p.fixFlagsB(y)
	case 5: // SHR
		if count > 24 {
			count = 24
		}
		y = x >> count
		p.SetBool(flCF, x>>(count-1)&1 != 0)
		p.Flags &^= flAF
		p.fixFlagsB(y)
	case 7: // SAR
		if count > 8 {
			count = 8
		}
		y = x
		if y&0x80 != 0 {
			y |= 0xFF00
		}
		p.SetBool(flCF, y>>(count-1)&1 != 0)
		y >>= count
		p.Flags &^= flAF
		p.fixFlagsB(y)
	}
	p.storeByte(y)
	p.fixOverflowGrp2(y&0x80 != 0, y>>6&1 != y>>7&1)
}

// Group 2: shift and rotate on word.
func (p *CPU) doGrp2W(usecl bool) {
	count := uint32(1)
	p.cycl += 2
	if usecl {
		count = uint32(p.CL())
		p.cycl += 5 + 4*int(count)
	}
	p.decodeModRM()
	x := p.loadWord()
	if count == 0 {
		return
	}

	var y uint32
	switch p.insnreg {
	case 0: // ROL
		y = x<<(count&15) | x>>(16-count&15)
		p.SetBool(flCF, y&1 != 0)
	case 1: // ROR
		y = x>>(count&15) | x<<(16-count&15)
		p.SetBool(flCF, y&0x8000 != 0)
	case 2: // RCL
		if count > 16 {
			count %= 17
			if count == 0 {
				y = x
				break
			}
		}
		y = x<<count | x>>(17-count)
		if p.Flags&flCF != 0 {
			y |= 1 << (count - 1)
		}
		p.SetBool(flCF, y&0x10000 != 0)
	case 3: // RCR
		if count > 16 {
			count %= 17
			if count == 0 {
				y = x
				break
			}
		}
		y = x>>count | x<<(17-count)
		if p.Flags&flCF != 0 {
			y |= 1 << (16 - count)
		}
		p.SetBool(flCF, x>>(count-1)&1 != 0)
	case 4, 6: // SHL/SAL
		if count > 24 {
			count = 24
		}
		y = x << count
		p.SetBool(flCF, y&0x10000 != 0)
		p.SetBool(flAF, y&0x10 != 0)
		p.fixFlagsW(y)
	case 5: // SHR
		if count > 24 {
			count = 24
		}
		y = x >> count
		p.SetBool(flCF, x>>(count-1)&1 != 0)
		p.Flags &^= flAF
		p.fixFlagsW(y)
	case 7: // SAR
		if count > 16 {
			count = 16
		}
		y = x
		if y&0x8000 != 0 {
			y |= 0xFFFF0000
		}
		p.SetBool(flCF, y>>(count-1)&1 != 0)
		y >>= count
		p.Flags &^= flAF
		p.fixFlagsW(y)
	}
	p.storeWord(y)
	p.fixOverflowGrp2(y&0x8000 != 0, y>>14&1 != y>>15&1)
}

// fixOverflowGrp2 applies the group 2 OF rule: zero after SAR, CF XOR
// the result's top bit after left operations, and the XOR of the two
// top result bits after right operations.
func (p *CPU) fixOverflowGrp2(msb, msbXor bool) {
	switch {
	case p.insnreg == 7:
		p.Flags.Clear(flOF)
	case p.insnreg&1 == 0:
		p.SetBool(flOF, p.GetBool(processor.Carry) != msb)
	default:
		p.SetBool(flOF, msbXor)
	}
}
