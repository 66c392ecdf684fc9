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
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ggeorg/jx86pc/emulator/memory"
	"github.com/ggeorg/jx86pc/emulator/processor"
)

// StateData returns a binary representation of the CPU state:
// 32 bytes of little-endian register values with the last four bytes
// reserved as zero.
func (p *CPU) StateData() []byte {
	buf := make([]byte, 32)
	put := binary.LittleEndian.PutUint16
	put(buf[0:], p.GP[processor.RegAX])
	put(buf[2:], p.GP[processor.RegBX])
	put(buf[4:], p.GP[processor.RegCX])
	put(buf[6:], p.GP[processor.RegDX])
	put(buf[8:], p.GP[processor.RegSI])
	put(buf[10:], p.GP[processor.RegDI])
	put(buf[12:], p.GP[processor.RegBP])
	put(buf[14:], p.GP[processor.RegSP])
	put(buf[16:], p.IP)
	put(buf[18:], p.Seg[processor.SegCS])
	put(buf[20:], p.Seg[processor.SegDS])
	put(buf[22:], p.Seg[processor.SegES])
	put(buf[24:], p.Seg[processor.SegSS])
	put(buf[26:], uint16(p.Flags))
	return buf
}

var flagGlyphs = [9]struct {
	mask  processor.Flags
	glyph byte
}{
	{flOF, 'O'},
	{flDF, 'D'},
	{flIF, 'I'},
	{flTF, 'T'},
	{flSF, 'S'},
	{flZF, 'Z'},
	{flAF, 'A'},
	{flPF, 'P'},
	{flCF, 'C'},
}

// StateString returns a multi-line description of the CPU state for
// diagnostics: registers, flags, the cycle counter and the code bytes
// around CS:IP with a cursor marking the decode position.
func (p *CPU) StateString() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, " AX=%04x  BX=%04x  CX=%04x  DX=%04x  SI=%04x  DI=%04x  BP=%04x  SP=%04x\n",
		p.GP[processor.RegAX], p.GP[processor.RegBX], p.GP[processor.RegCX], p.GP[processor.RegDX],
		p.GP[processor.RegSI], p.GP[processor.RegDI], p.GP[processor.RegBP], p.GP[processor.RegSP])
	fmt.Fprintf(&sb, " DS=%04x  ES=%04x  SS=%04x  flags=%04x (",
		p.Seg[processor.SegDS], p.Seg[processor.SegES], p.Seg[processor.SegSS], uint16(p.Flags))
	for _, f := range flagGlyphs {
		if p.Flags&f.mask != 0 {
			sb.WriteByte(f.glyph)
		} else {
			sb.WriteByte(' ')
		}
	}
	fmt.Fprintf(&sb, ")  cycl=%d\n", p.cycl)
	fmt.Fprintf(&sb, " CS:IP=%04x:%04x ", p.Seg[processor.SegCS], p.IP)
	for i := 0; i < 16; i++ {
		if uint32(p.IP)+uint32(i) == p.nextip {
			sb.WriteByte('|')
		} else {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x", p.mem.LoadByte(memory.Pointer(uint32(p.Seg[processor.SegCS])<<4+uint32(p.IP)+uint32(i))))
	}
	sb.WriteByte('\n')
	return sb.String()
}
