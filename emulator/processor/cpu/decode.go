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
)

// step decodes and executes one instruction. CPU exceptions and
// software interrupts are handled here; hardware interrupts are
// handled separately by the run loop.
//
// Reference: http://www.mathemainzel.info/files/x86asmref.html
func (p *CPU) step() {
	p.nextip = uint32(p.IP)
	p.jumpip = -1
	p.insnprf = -1
	p.insnseg = -1
	p.intsEnabled = p.GetBool(flIF)
	p.trapEnabled = p.GetBool(flTF) && !p.trapSkipFirst
	p.trapSkipFirst = false

	// Restart here after decoding a prefix byte.
	for {
		if p.nextip&0xFFFF0000 != 0 {
			p.invalidOpcode("instruction crossing segment limit")
		}

		addr := memory.Pointer((p.csbase + p.nextip) & memory.AddrMask)
		if op := p.mem.LoadOp(addr); op != nil {
			p.nextip++
			op()
			break
		}

		// Fetch the opcode together with a tentative ModRM byte.
		codeword := p.mem.LoadWord(addr)
		b := byte(codeword)
		p.modrm = byte(codeword >> 8)
		p.nextip++

		if !p.executeOp(b, addr) {
			break
		}
	}

	if p.nextip&0xFFFF0000 != 0 {
		p.invalidOpcode("instruction crossing segment limit")
	}

	if p.jumpip == -1 {
		p.IP = uint16(p.nextip)
	} else {
		p.IP = uint16(p.jumpip)
	}

	if p.trapEnabled {
		p.altInt(1)
	}
}

// executeOp runs a single opcode. It returns true when b was a prefix
// byte (or an instruction that must suppress the following boundary
// check), telling the caller to fetch again within the same
// instruction boundary.
func (p *CPU) executeOp(b byte, addr memory.Pointer) bool {
	if b < 0x40 && b&7 < 6 {
		// The general ALU family is the hottest part of the opcode
		// space; memoize the decode keyed by physical address.
		modrm := p.modrm
		op := func() {
			p.aluFamily(b, modrm)
		}
		p.mem.StoreOp(addr, op)
		op()
		return false
	}

	switch b {
	case 0x06: // PUSH ES
		p.pushW(uint32(p.Seg[processor.SegES]))
		p.cycl += 10
	case 0x07: // POP ES
		p.Seg[processor.SegES] = uint16(p.popW())
		p.cycl += 8
		p.insnprf, p.insnseg = -1, -1
	case 0x0E: // PUSH CS
		p.pushW(uint32(p.Seg[processor.SegCS]))
		p.cycl += 10
	case 0x16: // PUSH SS
		p.pushW(uint32(p.Seg[processor.SegSS]))
		p.cycl += 10
	case 0x17: // POP SS
		p.Seg[processor.SegSS] = uint16(p.popW())
		p.cycl += 8
		p.insnprf, p.insnseg = -1, -1
		// Block interrupts until after the next instruction so that
		// an SS:SP pair loads atomically.
		return true
	case 0x1E: // PUSH DS
		p.pushW(uint32(p.Seg[processor.SegDS]))
		p.cycl += 10
	case 0x1F: // POP DS
		p.Seg[processor.SegDS] = uint16(p.popW())
		p.cycl += 8
		p.insnprf, p.insnseg = -1, -1

	case 0x26: // ES: prefix
		p.insnseg = processor.SegES
		p.cycl += 2
		return true
	case 0x27: // DAA
		p.opDAA()
	case 0x2E: // CS: prefix
		p.insnseg = processor.SegCS
		p.cycl += 2
		return true
	case 0x2F: // DAS
		p.opDAS()
	case 0x36: // SS: prefix
		p.insnseg = processor.SegSS
		p.cycl += 2
		return true
	case 0x37: // AAA
		p.opAAA()
	case 0x3E: // DS: prefix
		p.insnseg = processor.SegDS
		p.cycl += 2
		return true
	case 0x3F: // AAS
		p.opAAS()

	case 0x40, 0x41, 0x42, 0x43, 0x44, 0x45, 0x46, 0x47: // INC Gv
		p.opr = regOperand(int(b & 7))
		p.opIncW()
	case 0x48, 0x49, 0x4A, 0x4B, 0x4C, 0x4D, 0x4E, 0x4F: // DEC Gv
		p.opr = regOperand(int(b & 7))
		p.opDecW()
	case 0x50, 0x51, 0x52, 0x53, 0x54, 0x55, 0x56, 0x57: // PUSH Gv
		if b&7 == processor.RegSP {
			// 8086 specific: PUSH SP stores the new SP value.
			p.pushW(uint32(p.GP[processor.RegSP] - 2))
		} else {
			p.pushW(uint32(p.GP[b&7]))
		}
		p.cycl += 11
	case 0x58, 0x59, 0x5A, 0x5B, 0x5C, 0x5D, 0x5E, 0x5F: // POP Gv
		p.GP[b&7] = uint16(p.popW())
		p.cycl += 8

	case 0x70, 0x71, 0x72, 0x73, 0x74, 0x75, 0x76, 0x77,
		0x78, 0x79, 0x7A, 0x7B, 0x7C, 0x7D, 0x7E, 0x7F: // Jcc Jb
		p.opJccB(int(b & 0x0F))

	case 0x80, 0x82: // Grp1 Eb,Ib
		p.decodeModRM()
		p.doGrp1B(uint32(p.getImmByte()))
	case 0x81: // Grp1 Ev,Iv
		p.decodeModRM()
		p.doGrp1W(uint32(p.getImmWord()))
	case 0x83: // Grp1 Ev,SignExtend(Ib)
		p.decodeModRM()
		p.doGrp1W(uint32(uint16(int16(int8(p.getImmByte())))))
	case 0x84: // TEST Eb,Gb
		p.decodeModRM()
		p.aluTestB(uint32(p.ByteReg(p.insnreg)))
		p.cycl += 6
	case 0x85: // TEST Ev,Gv
		p.decodeModRM()
		p.aluTestW(uint32(p.GP[p.insnreg]))
		p.cycl += 6
	case 0x86: // XCHG Gb,Eb
		p.decodeModRM()
		t := p.ByteReg(p.insnreg)
		p.SetByteReg(p.insnreg, byte(p.loadByte()))
		p.storeByte(uint32(t))
		p.cycl += 4
	case 0x87: // XCHG Gv,Ev
		p.decodeModRM()
		t := p.GP[p.insnreg]
		p.GP[p.insnreg] = uint16(p.loadWord())
		p.storeWord(uint32(t))
		p.cycl += 4
	case 0x88: // MOV Eb,Gb
		p.decodeModRM()
		p.storeByte(uint32(p.ByteReg(p.insnreg)))
		p.cycl += 2
	case 0x89: // MOV Ev,Gv
		p.decodeModRM()
		p.storeWord(uint32(p.GP[p.insnreg]))
		p.cycl += 2
	case 0x8A: // MOV Gb,Eb
		p.decodeModRM()
		p.SetByteReg(p.insnreg, byte(p.loadByte()))
		p.cycl += 2
	case 0x8B: // MOV Gv,Ev
		p.decodeModRM()
		p.GP[p.insnreg] = uint16(p.loadWord())
		p.cycl += 2
	case 0x8C: // MOV Ew,Sw
		p.decodeModRM()
		p.storeWord(uint32(p.Seg[p.insnreg&3]))
		p.cycl += 2
	case 0x8D: // LEA Gv,M
		p.decodeModRM()
		if p.opr.reg >= 0 {
			p.invalidOpcode("register operand not allowed")
		}
		p.GP[p.insnreg] = p.opr.off
		p.cycl += 2
	case 0x8E: // MOV Sw,Ew
		p.decodeModRM()
		sr := p.insnreg & 3
		p.Seg[sr] = uint16(p.loadWord())
		p.cycl += 2
		if sr == processor.SegCS {
			p.csbase = uint32(p.Seg[processor.SegCS]) << 4
		}
		if sr == processor.SegSS {
			p.insnprf, p.insnseg = -1, -1
			// Block interrupts after loading SS.
			return true
		}
	case 0x8F: // POP Ev
		p.decodeModRM()
		p.storeWord(p.popW())
		p.cycl += 8

	case 0x90, 0x91, 0x92, 0x93, 0x94, 0x95, 0x96, 0x97: // XCHG AX,Gv
		r := int(b & 7)
		p.GP[processor.RegAX], p.GP[r] = p.GP[r], p.GP[processor.RegAX]
		p.cycl += 3
	case 0x98: // CBW
		p.GP[processor.RegAX] = uint16(int16(int8(p.AL())))
		p.cycl += 2
	case 0x99: // CWD
		p.GP[processor.RegDX] = -(p.GP[processor.RegAX] >> 15)
		p.cycl += 5
	case 0x9A: // CALL Ap
		p.pushW(uint32(p.Seg[processor.SegCS]))
		p.pushW(p.nextip + 4)
		p.jumpip = int32(p.getImmWord())
		p.Seg[processor.SegCS] = p.getImmWord()
		p.csbase = uint32(p.Seg[processor.SegCS]) << 4
		p.cycl += 28
	case 0x9B: // WAIT
		p.cycl += 4
	case 0x9C: // PUSHF
		p.pushW(uint32(p.Flags.Load()))
		p.cycl += 10
	case 0x9D: // POPF
		// A real 8086 does not trap the instruction immediately after
		// the POPF that enabled TF, so we do the same thing (although
		// modern processors do trap the first instruction).
		p.trapSkipFirst = !p.GetBool(flTF)
		p.Flags.Store(uint16(p.popW()))
		p.cycl += 8
	case 0x9E: // SAHF
		p.Flags = processor.Flags(p.AH())&0x00D7 | p.Flags&0xFF00 | 0xF002
		p.cycl += 4
	case 0x9F: // LAHF
		p.SetAH(byte(p.Flags))
		p.cycl += 4

	case 0xA0: // MOV AL,Ob
		p.opr = p.moffsOperand()
		p.SetAL(byte(p.loadByte()))
		p.cycl += 2
	case 0xA1: // MOV AX,Ov
		p.opr = p.moffsOperand()
		p.GP[processor.RegAX] = uint16(p.loadWord())
		p.cycl += 2
	case 0xA2: // MOV Ob,AL
		p.opr = p.moffsOperand()
		p.storeByte(uint32(p.AL()))
		p.cycl += 2
	case 0xA3: // MOV Ov,AX
		p.opr = p.moffsOperand()
		p.storeWord(uint32(p.GP[processor.RegAX]))
		p.cycl += 2

	case 0xA4, 0xA5, 0xA6, 0xA7, 0xAA, 0xAB, 0xAC, 0xAD, 0xAE, 0xAF:
		p.doString(b)

	case 0xA8: // TEST AL,Ib
		p.opr = regOperand(processor.RegAX)
		p.aluTestB(uint32(p.getImmByte()))
		p.cycl += 4
	case 0xA9: // TEST AX,Iv
		p.opr = regOperand(processor.RegAX)
		p.aluTestW(uint32(p.getImmWord()))
		p.cycl += 4

	case 0xB0, 0xB1, 0xB2, 0xB3, 0xB4, 0xB5, 0xB6, 0xB7: // MOV Gb,Ib
		p.SetByteReg(int(b&7), p.getImmByte())
		p.cycl += 4
	case 0xB8, 0xB9, 0xBA, 0xBB, 0xBC, 0xBD, 0xBE, 0xBF: // MOV Gv,Iv
		p.GP[b&7] = p.getImmWord()
		p.cycl += 4

	case 0xC2: // RET Iw
		c := uint16(p.getImmWord())
		p.jumpip = int32(p.popW())
		p.GP[processor.RegSP] += c
		p.cycl += 16
	case 0xC3: // RET
		p.jumpip = int32(p.popW())
		p.cycl += 16
	case 0xC4: // LES Gv,Mp
		p.decodeModRM()
		if p.opr.reg >= 0 {
			p.invalidOpcode("register operand not allowed")
		}
		ptr := p.opr.pointer(p)
		p.GP[p.insnreg] = p.mem.LoadWord(ptr)
		p.Seg[processor.SegES] = p.mem.LoadWord(ptr + 2)
		p.cycl += 16
	case 0xC5: // LDS Gv,Mp
		p.decodeModRM()
		if p.opr.reg >= 0 {
			p.invalidOpcode("register operand not allowed")
		}
		ptr := p.opr.pointer(p)
		p.GP[p.insnreg] = p.mem.LoadWord(ptr)
		p.Seg[processor.SegDS] = p.mem.LoadWord(ptr + 2)
		p.cycl += 16
	case 0xC6: // MOV Eb,Ib
		p.decodeModRM()
		p.storeByte(uint32(p.getImmByte()))
		p.cycl += 3
	case 0xC7: // MOV Ev,Iv
		p.decodeModRM()
		p.storeWord(uint32(p.getImmWord()))
		p.cycl += 3
	case 0xCA: // RETF Iw
		c := uint16(p.getImmWord())
		p.jumpip = int32(p.popW())
		p.Seg[processor.SegCS] = uint16(p.popW())
		p.csbase = uint32(p.Seg[processor.SegCS]) << 4
		p.GP[processor.RegSP] += c
		p.cycl += 26
	case 0xCB: // RETF
		p.jumpip = int32(p.popW())
		p.Seg[processor.SegCS] = uint16(p.popW())
		p.csbase = uint32(p.Seg[processor.SegCS]) << 4
		p.cycl += 26
	case 0xCC: // INT 3
		p.intCall(3)
	case 0xCD: // INT Ib
		p.intCall(int(p.getImmByte()))
	case 0xCE: // INTO
		if p.GetBool(flOF) {
			p.intCall(4)
		}
		p.cycl += 4
	case 0xCF: // IRET
		p.jumpip = int32(p.popW())
		p.Seg[processor.SegCS] = uint16(p.popW())
		p.csbase = uint32(p.Seg[processor.SegCS]) << 4
		p.Flags.Store(uint16(p.popW()))
		p.cycl += 32

	case 0xD0: // Grp2 Eb,1
		p.doGrp2B(false)
	case 0xD1: // Grp2 Ev,1
		p.doGrp2W(false)
	case 0xD2: // Grp2 Eb,CL
		p.doGrp2B(true)
	case 0xD3: // Grp2 Ev,CL
		p.doGrp2W(true)
	case 0xD4: // AAM Ib
		p.opAAM()
	case 0xD5: // AAD Ib
		p.opAAD()
	case 0xD6: // SALC (undocumented)
		if p.GetBool(flCF) {
			p.SetAL(0xFF)
		} else {
			p.SetAL(0x00)
		}
		p.cycl += 4
	case 0xD7: // XLAT
		seg := p.insnseg
		if seg == -1 {
			seg = processor.SegDS
		}
		off := p.GP[processor.RegBX] + uint16(p.AL())
		p.SetAL(p.mem.LoadByte(memory.NewPointer(p.Seg[seg], off)))
		p.cycl += 11
	case 0xD8, 0xD9, 0xDA, 0xDB, 0xDC, 0xDD, 0xDE, 0xDF: // ESC
		// Coprocessor instructions parse their ModRM byte but are
		// otherwise ignored.
		p.decodeModRM()
		p.cycl += 2

	case 0xE0: // LOOPNZ Jb
		p.opLoop(!p.GetBool(flZF))
	case 0xE1: // LOOPZ Jb
		p.opLoop(p.GetBool(flZF))
	case 0xE2: // LOOP Jb
		p.opLoop(true)
	case 0xE3: // JCXZ Jb
		disp := int8(p.getImmByte())
		p.cycl += 6
		if p.GP[processor.RegCX] == 0 {
			p.jumpip = int32((p.nextip + uint32(uint16(int16(disp)))) & 0xFFFF)
			p.cycl += 12
		}
	case 0xE4: // IN AL,Ib
		p.flushCycles()
		p.SetAL(p.io.InB(uint16(p.getImmByte())))
		p.cycl += 10
	case 0xE5: // IN AX,Ib
		p.flushCycles()
		p.GP[processor.RegAX] = p.io.InW(uint16(p.getImmByte()))
		p.cycl += 10
	case 0xE6: // OUT Ib,AL
		p.flushCycles()
		p.io.OutB(uint16(p.getImmByte()), p.AL())
		p.cycl += 10
	case 0xE7: // OUT Ib,AX
		p.flushCycles()
		p.io.OutW(uint16(p.getImmByte()), p.GP[processor.RegAX])
		p.cycl += 10
	case 0xE8: // CALL Jv
		disp := p.getImmWord()
		p.pushW(p.nextip)
		p.jumpip = int32((p.nextip + uint32(disp)) & 0xFFFF)
		p.cycl += 19
	case 0xE9: // JMP Jv
		disp := p.getImmWord()
		p.jumpip = int32((p.nextip + uint32(disp)) & 0xFFFF)
		p.cycl += 15
	case 0xEA: // JMP Ap
		p.jumpip = int32(p.getImmWord())
		p.Seg[processor.SegCS] = p.getImmWord()
		p.csbase = uint32(p.Seg[processor.SegCS]) << 4
		p.cycl += 18
	case 0xEB: // JMP Jb
		disp := int8(p.getImmByte())
		p.jumpip = int32((p.nextip + uint32(uint16(int16(disp)))) & 0xFFFF)
		p.cycl += 15
	case 0xEC: // IN AL,DX
		p.flushCycles()
		p.SetAL(p.io.InB(p.GP[processor.RegDX]))
		p.cycl += 8
	case 0xED: // IN AX,DX
		p.flushCycles()
		p.GP[processor.RegAX] = p.io.InW(p.GP[processor.RegDX])
		p.cycl += 8
	case 0xEE: // OUT DX,AL
		p.flushCycles()
		p.io.OutB(p.GP[processor.RegDX], p.AL())
		p.cycl += 8
	case 0xEF: // OUT DX,AX
		p.flushCycles()
		p.io.OutW(p.GP[processor.RegDX], p.GP[processor.RegAX])
		p.cycl += 8

	case 0xF0: // LOCK prefix
		p.cycl += 2
		return true
	case 0xF2, 0xF3: // REPNZ/REP prefix
		p.insnprf = int(b)
		p.cycl += 2
		return true
	case 0xF4: // HLT
		p.halted = true
		p.reschedule.Store(true)
		p.cycl += 2
		// We don't trap after HLT instructions even though a real
		// 8086 would (modern processors don't).
		p.trapEnabled = false
	case 0xF5: // CMC
		p.Flags ^= flCF
		p.cycl += 2
	case 0xF6: // Grp3 Eb
		p.doGrp3B()
	case 0xF7: // Grp3 Ev
		p.doGrp3W()
	case 0xF8: // CLC
		p.Flags.Clear(flCF)
		p.cycl += 2
	case 0xF9: // STC
		p.Flags.Set(flCF)
		p.cycl += 2
	case 0xFA: // CLI
		// CLI disables interrupts immediately.
		p.Flags.Clear(flIF)
		p.intsEnabled = false
		p.cycl += 2
	case 0xFB: // STI
		// STI enables interrupts after the next instruction.
		p.Flags.Set(flIF)
		p.cycl += 2
	case 0xFC: // CLD
		p.Flags.Clear(flDF)
		p.cycl += 2
	case 0xFD: // STD
		p.Flags.Set(flDF)
		p.cycl += 2
	case 0xFE: // Grp4 Eb
		p.doGrp4()
	case 0xFF: // Grp5 Ev
		p.doGrp5()

	default:
		p.invalidOpcode(fmt.Sprintf("undefined opcode: 0x%02X", b))
	}
	return false
}

// aluFamily executes one of the regular ALU opcodes below 0x40. The
// low three opcode bits select the operand form, bits 3..5 select the
// operation.
func (p *CPU) aluFamily(b, modrm byte) {
	p.modrm = modrm

	var v uint32
	switch b & 7 {
	case 0: // Eb,Gb
		p.decodeModRM()
		v = uint32(p.ByteReg(p.insnreg))
		p.cycl += 3
	case 1: // Ev,Gv
		p.decodeModRM()
		v = uint32(p.GP[p.insnreg])
		p.cycl += 3
	case 2: // Gb,Eb
		p.decodeModRM()
		v = p.loadByte()
		p.opr = regOperand(p.insnreg)
		p.cycl += 3
	case 3: // Gv,Ev
		p.decodeModRM()
		v = p.loadWord()
		p.opr = regOperand(p.insnreg)
		p.cycl += 3
	case 4: // AL,Ib
		v = uint32(p.getImmByte())
		p.opr = regOperand(processor.RegAX)
		p.cycl += 4
	case 5: // AX,Iv
		v = uint32(p.getImmWord())
		p.opr = regOperand(processor.RegAX)
		p.cycl += 4
	}

	switch b & 0xF9 {
	case 0x00:
		p.aluAddB(v)
	case 0x01:
		p.aluAddW(v)
	case 0x08:
		p.aluOrB(v)
	case 0x09:
		p.aluOrW(v)
	case 0x10:
		p.aluAdcB(v)
	case 0x11:
		p.aluAdcW(v)
	case 0x18:
		p.aluSbbB(v)
	case 0x19:
		p.aluSbbW(v)
	case 0x20:
		p.aluAndB(v)
	case 0x21:
		p.aluAndW(v)
	case 0x28:
		p.aluSubB(v)
	case 0x29:
		p.aluSubW(v)
	case 0x30:
		p.aluXorB(v)
	case 0x31:
		p.aluXorW(v)
	case 0x38:
		p.aluCmpB(v)
	case 0x39:
		p.aluCmpW(v)
	}
}

// moffsOperand resolves the direct-address operand of the MOV
// accumulator forms, honoring a pending segment override.
func (p *CPU) moffsOperand() operand {
	if p.insnseg == -1 {
		p.insnseg = processor.SegDS
	}
	return operand{reg: -1, seg: int8(p.insnseg), off: p.getImmWord()}
}

// opJccB handles the conditional jumps; the low bit of cc negates the
// condition selected by the upper three bits.
func (p *CPU) opJccB(cc int) {
	disp := int8(p.getImmByte())
	var t bool
	switch cc >> 1 {
	case 0: // O
		t = p.GetBool(flOF)
	case 1: // B
		t = p.GetBool(flCF)
	case 2: // Z
		t = p.GetBool(flZF)
	case 3: // BE
		t = p.Flags&(flCF|flZF) != 0
	case 4: // S
		t = p.GetBool(flSF)
	case 5: // P
		t = p.GetBool(flPF)
	case 6: // L
		t = p.GetBool(flSF) != p.GetBool(flOF)
	case 7: // LE
		t = p.GetBool(flZF) || p.GetBool(flSF) != p.GetBool(flOF)
	}
	t = t != (cc&1 != 0)
	p.cycl += 4
	if t {
		p.jumpip = int32((p.nextip + uint32(uint16(int16(disp)))) & 0xFFFF)
		p.cycl += 12
	}
}

func (p *CPU) opLoop(cond bool) {
	disp := int8(p.getImmByte())
	c := p.GP[processor.RegCX] - 1
	p.GP[processor.RegCX] = c
	p.cycl += 5
	if c != 0 && cond {
		p.jumpip = int32((p.nextip + uint32(uint16(int16(disp)))) & 0xFFFF)
		p.cycl += 13
	}
}

// Decimal adjust after addition. The carry is also taken for AL above
// 0x9F with AF clear, which official documentation does not mention
// but real hardware does.
func (p *CPU) opDAA() {
	a := uint32(p.AL())
	x := a
	if a > 0x9F || (a > 0x99 && !p.GetBool(flAF)) || p.GetBool(flCF) {
		a += 0x60
		p.Flags.Set(flCF)
	}
	if a&0x0F > 9 || p.GetBool(flAF) {
		a += 6
		p.Flags.Set(flAF)
	}
	p.SetAL(byte(a))
	p.fixFlagsB(a)
	// Effect on OF is officially undefined.
	p.SetBool(flOF, a&0x80 > x&0x80)
	p.cycl += 4
}

// Decimal adjust after subtraction.
func (p *CPU) opDAS() {
	a := uint32(p.AL())
	x := a
	if a > 0x9F || (a > 0x99 && !p.GetBool(flAF)) || p.GetBool(flCF) {
		a -= 0x60
		p.Flags.Set(flCF)
	}
	if a&0x0F > 9 || p.GetBool(flAF) {
		a -= 6
		p.Flags.Set(flAF)
	}
	p.SetAL(byte(a))
	p.fixFlagsB(a)
	// Effect on OF is officially undefined.
	p.SetBool(flOF, a&0x80 < x&0x80)
	p.cycl += 4
}

// ASCII adjust after addition.
func (p *CPU) opAAA() {
	a := uint32(p.GP[processor.RegAX])
	if a&0x0F > 9 || p.GetBool(flAF) {
		a = (a+0x0100)&0xFF00 | (a+0x06)&0xFF
		p.Flags.Set(flAF | flCF)
	} else {
		p.Flags.Clear(flAF | flCF)
	}
	p.GP[processor.RegAX] = uint16(a) & 0xFF0F
	p.fixFlagsB(a)
	p.cycl += 8
}

// ASCII adjust after subtraction.
func (p *CPU) opAAS() {
	a := uint32(p.GP[processor.RegAX])
	if a&0x0F > 9 || p.GetBool(flAF) {
		a = (a-0x0100)&0xFF00 | (a-0x06)&0xFF
		p.Flags.Set(flAF | flCF)
	} else {
		p.Flags.Clear(flAF | flCF)
	}
	p.GP[processor.RegAX] = uint16(a) & 0xFF0F
	p.fixFlagsB(a)
	p.cycl += 8
}

// ASCII adjust after multiply; the immediate divisor is normally 10,
// and zero raises the divide exception.
func (p *CPU) opAAM() {
	d := uint32(p.getImmByte())
	a := uint32(p.AL())
	p.cycl += 83
	if d == 0 {
		p.intCall(0)
		return
	}
	a = (a/d)<<8 | a%d
	p.GP[processor.RegAX] = uint16(a)
	p.Flags &^= flCF | flOF | flAF // officially undocumented
	p.fixFlagsB(a)
}

// ASCII adjust before divide.
func (p *CPU) opAAD() {
	d := uint32(p.getImmByte())
	x := uint32(p.GP[processor.RegAX])
	v := (x >> 8) * d & 0xFF
	y := x&0xFF + v
	p.GP[processor.RegAX] = uint16(y) & 0xFF
	p.fixFlagsAddB(x, v, y)
	p.cycl += 60
}
