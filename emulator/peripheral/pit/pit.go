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

/*
Package pit emulates the Intel 8253 programmable interval timer.

References:

	https://wiki.osdev.org/Programmable_Interval_Timer
*/
package pit

import (
	"github.com/ggeorg/jx86pc/emulator/ioports"
	"github.com/ggeorg/jx86pc/emulator/processor"
	"github.com/ggeorg/jx86pc/emulator/scheduler"
)

// oscRate is the input clock of the 8253, in Hz.
const oscRate = 1193182

const (
	modeLatchCount = iota
	modeLowByte
	modeHighByte
	modeToggle
)

type pitChannel struct {
	enabled, toggle bool
	effective       uint32
	counter, data   uint16
	mode            byte
	loadedAt        int64
}

type Device struct {
	pic      processor.InterruptController
	sched    *scheduler.Scheduler
	irqTimer *scheduler.Timer
	channels [3]pitChannel
}

func (m *Device) Install(d *ioports.Dispatcher, sched *scheduler.Scheduler, pic processor.InterruptController) error {
	m.sched = sched
	m.pic = pic
	m.irqTimer = sched.NewTimer(m.fireIRQ0)
	return d.Register(m, 0x40, 0x43)
}

func (m *Device) Name() string {
	return "Programmable Interval Timer (Intel 8253)"
}

func (m *Device) Reset() {
	if m.irqTimer != nil {
		m.sched.Cancel(m.irqTimer)
	}
	m.channels = [3]pitChannel{}
}

// period returns the length of one full count cycle in scheduler
// ticks.
func (ch *pitChannel) period() int64 {
	return int64(ch.effective) * scheduler.ClockRate / oscRate
}

// current returns the present counter value, derived from the
// simulation time elapsed since the reload value was written.
func (ch *pitChannel) current(now int64) uint16 {
	if !ch.enabled || ch.effective == 0 {
		return ch.counter
	}
	elapsed := (now - ch.loadedAt) * oscRate / scheduler.ClockRate
	return uint16(int64(ch.effective) - elapsed%int64(ch.effective))
}

func (m *Device) fireIRQ0(now int64) {
	m.pic.IRQ(0)
	if ch := &m.channels[0]; ch.enabled {
		m.sched.Schedule(m.irqTimer, ch.period())
	}
}

func (m *Device) InB(port uint16) byte {
	if port == 0x43 {
		return 0
	}

	var ret uint16
	ch := &m.channels[port&3]
	counter := ch.current(m.sched.Now())

	if ch.mode == modeLatchCount || ch.mode == modeLowByte || (ch.mode == modeToggle && !ch.toggle) {
		ret = counter & 0xFF
	} else if ch.mode == modeHighByte || (ch.mode == modeToggle && ch.toggle) {
		ret = counter >> 8
	}

	if ch.mode == modeLatchCount || ch.mode == modeToggle {
		ch.toggle = !ch.toggle
	}
	return byte(ret)
}

func (m *Device) OutB(port uint16, data byte) {
	switch port {
	case 0x40, 0x41, 0x42:
		ch := &m.channels[port&3]
		ch.enabled = true
		data16 := uint16(data)

		if ch.mode == modeLowByte || (ch.mode == modeToggle && !ch.toggle) {
			ch.data = ch.data&0xFF00 | data16
		} else if ch.mode == modeHighByte || (ch.mode == modeToggle && ch.toggle) {
			ch.data = ch.data&0x00FF | data16<<8
		}

		if ch.data == 0 {
			ch.effective = 65536
		} else {
			ch.effective = uint32(ch.data)
		}

		if ch.mode == modeToggle {
			ch.toggle = !ch.toggle
		}

		ch.loadedAt = m.sched.Now()
		if port == 0x40 {
			// Channel 0 drives IRQ 0.
			m.sched.Schedule(m.irqTimer, ch.period())
		}
	case 0x43: // Mode/Command register.
		ch := &m.channels[data>>6&3]
		if ch.mode = data >> 4 & 3; ch.mode == modeToggle {
			ch.toggle = false
		}
	}
}
