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

// Package pic emulates the Intel 8259 programmable interrupt
// controller, or at least the subset of it the IBM PC BIOS and DOS
// care about.
package pic

import (
	"github.com/ggeorg/jx86pc/emulator/ioports"
)

type Device struct {
	maskReg, requestReg, serviceReg,
	icwStep, readMode byte
	icw [5]byte
}

func (m *Device) Install(d *ioports.Dispatcher) error {
	return d.Register(m, 0x20, 0x21)
}

func (m *Device) Name() string {
	return "Programmable Interrupt Controller (Intel 8259)"
}

func (m *Device) Reset() {
	*m = Device{}
}

// GetPendingInterrupt returns the vector of the highest-priority
// unmasked request, or -1. A non-negative return moves the request
// into service, which is the whole INTR/INTA handshake.
func (m *Device) GetPendingInterrupt() int {
	has := m.requestReg & ^m.maskReg
	if has == 0 {
		return -1
	}
	for i := 0; i < 8; i++ {
		if has>>i&1 != 0 {
			m.requestReg ^= 1 << i
			m.serviceReg |= 1 << i
			return int(m.icw[2]) + i
		}
	}
	return -1
}

// IRQ raises interrupt request line n.
func (m *Device) IRQ(n int) {
	m.requestReg |= byte(1 << n)
}

func (m *Device) InB(port uint16) byte {
	switch port {
	case 0x20:
		if m.readMode == 0 {
			return m.requestReg
		}
		return m.serviceReg
	case 0x21:
		return m.maskReg
	}
	return 0
}

func (m *Device) OutB(port uint16, data byte) {
	switch port {
	case 0x20:
		if data&0x10 != 0 {
			// ICW1 restarts the init sequence.
			m.icwStep = 1
			m.maskReg = 0
			m.icw[m.icwStep] = data
			m.icwStep++
			return
		}
		if data&0x98 == 8 && data&2 != 0 {
			m.readMode = data & 2
		}
		if data&0x20 != 0 {
			// Non-specific EOI: retire the highest-priority request
			// in service.
			for i := 0; i < 8; i++ {
				if m.serviceReg>>i&1 != 0 {
					m.serviceReg ^= 1 << i
					return
				}
			}
		}
	case 0x21:
		if m.icwStep == 3 && m.icw[1]&2 != 0 {
			m.icwStep = 4
		}
		if m.icwStep < 5 {
			m.icw[m.icwStep] = data
			m.icwStep++
			return
		}
		m.maskReg = data
	}
}
