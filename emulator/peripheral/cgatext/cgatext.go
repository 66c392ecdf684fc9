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

// Package cgatext renders the CGA text page in a terminal.
//
// The device watches the mapped region at 0xB8000 through the memory
// dirty bitmap and redraws only when the guest wrote to it. Clearing
// the dirty bits is this device's job, not the CPU's.
package cgatext

import (
	"github.com/gdamore/tcell"

	"github.com/ggeorg/jx86pc/emulator/ioports"
	"github.com/ggeorg/jx86pc/emulator/memory"
	"github.com/ggeorg/jx86pc/emulator/scheduler"
)

const (
	memoryBase = 0xB8000
	numColumns = 80
	numRows    = 25
	pageSize   = numColumns * numRows * 2
)

var cgaPalette = [16]tcell.Color{
	tcell.ColorBlack,
	tcell.ColorNavy,
	tcell.ColorGreen,
	tcell.ColorTeal,
	tcell.ColorMaroon,
	tcell.ColorPurple,
	tcell.ColorOlive,
	tcell.ColorSilver,
	tcell.ColorGray,
	tcell.ColorBlue,
	tcell.ColorLime,
	tcell.ColorAqua,
	tcell.ColorRed,
	tcell.ColorFuchsia,
	tcell.ColorYellow,
	tcell.ColorWhite,
}

type Device struct {
	mem    *memory.Memory
	sched  *scheduler.Scheduler
	screen tcell.Screen
	timer  *scheduler.Timer

	crtAddr     byte
	crtReg      [0x100]byte
	modeCtrlReg byte

	forceRedraw bool
	onQuit      func()
}

// Install claims the CGA I/O ports and starts the terminal screen.
// onQuit is called when the user closes the display.
func (m *Device) Install(d *ioports.Dispatcher, mem *memory.Memory, sched *scheduler.Scheduler, onQuit func()) error {
	m.mem = mem
	m.sched = sched
	m.onQuit = onQuit

	tcell.SetEncodingFallback(tcell.EncodingFallbackASCII)
	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := s.Init(); err != nil {
		return err
	}
	s.DisableMouse()
	s.Clear()
	m.screen = s
	m.forceRedraw = true

	go m.eventLoop()

	m.timer = sched.NewTimer(m.refresh)
	sched.Schedule(m.timer, scheduler.ClockRate/30)
	return d.Register(m, 0x3D0, 0x3DF)
}

func (m *Device) Name() string {
	return "CGA textmode compatible device"
}

func (m *Device) Reset() {
	m.modeCtrlReg = 1
	m.forceRedraw = true
}

func (m *Device) Close() error {
	m.screen.Fini()
	return nil
}

func (m *Device) eventLoop() {
	for {
		switch ev := m.screen.PollEvent().(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyCtrlC || ev.Key() == tcell.KeyF12 {
				m.onQuit()
				return
			}
		case *tcell.EventResize:
			m.screen.Sync()
			m.forceRedraw = true
		case nil:
			return
		}
	}
}

// refresh redraws the screen when the guest touched the text page,
// then rearms itself for the next frame.
func (m *Device) refresh(now int64) {
	if m.mem.ConsumeDirty(memoryBase, memoryBase+pageSize) || m.forceRedraw {
		m.forceRedraw = false
		m.redraw()
	}
	m.sched.Schedule(m.timer, scheduler.ClockRate/30)
}

func (m *Device) redraw() {
	for y := 0; y < numRows; y++ {
		for x := 0; x < numColumns; x++ {
			offset := memory.Pointer(memoryBase + y*numColumns*2 + x*2)
			ch := m.mem.LoadByte(offset)
			attr := m.mem.LoadByte(offset + 1)
			m.screen.SetCell(x, y, m.styleFromAttrib(attr), codePage437[ch])
		}
	}
	m.updateCursor()
	m.screen.Show()
}

func (m *Device) styleFromAttrib(attr byte) tcell.Style {
	blinkEnabled := m.modeCtrlReg&0x20 != 0
	return tcell.StyleDefault.
		Blink(blinkEnabled && attr&0x80 != 0).
		Background(cgaPalette[attr&0x70>>4]).
		Foreground(cgaPalette[attr&0xF])
}

func (m *Device) updateCursor() {
	pos := int(m.crtReg[0x0E])<<8 | int(m.crtReg[0x0F])
	if pos < numColumns*numRows {
		m.screen.ShowCursor(pos%numColumns, pos/numColumns)
	} else {
		m.screen.HideCursor()
	}
}

func (m *Device) InB(port uint16) byte {
	switch port {
	case 0x3D4:
		return m.crtAddr
	case 0x3D5:
		return m.crtReg[m.crtAddr]
	case 0x3D8:
		return m.modeCtrlReg
	case 0x3DA:
		// Report both retrace bits as set on every read.
		return 9
	}
	return 0
}

func (m *Device) OutB(port uint16, data byte) {
	switch port {
	case 0x3D4:
		m.crtAddr = data
	case 0x3D5:
		m.crtReg[m.crtAddr] = data
		if m.crtAddr == 0x0E || m.crtAddr == 0x0F {
			m.forceRedraw = true
		}
	case 0x3D8:
		m.modeCtrlReg = data
	}
}
