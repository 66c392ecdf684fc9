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

// Package emulator wires the CPU, memory, scheduler and peripherals
// into a machine and drives the run loop.
package emulator

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync/atomic"
	"time"

	"github.com/spf13/afero"

	"github.com/ggeorg/jx86pc/emulator/ioports"
	"github.com/ggeorg/jx86pc/emulator/memory"
	"github.com/ggeorg/jx86pc/emulator/peripheral/cgatext"
	"github.com/ggeorg/jx86pc/emulator/peripheral/pic"
	"github.com/ggeorg/jx86pc/emulator/peripheral/pit"
	"github.com/ggeorg/jx86pc/emulator/processor/cpu"
	"github.com/ggeorg/jx86pc/emulator/scheduler"
)

type Config struct {
	Fs   afero.Fs
	BIOS string // path of the BIOS image

	CyclesPerSecond int64
	Display         bool // render the CGA text page in the terminal
	Realtime        bool // pace simulation time against the wall clock
}

type Machine struct {
	Mem   *memory.Memory
	Sched *scheduler.Scheduler
	CPU   *cpu.CPU
	IO    *ioports.Dispatcher
	PIC   *pic.Device
	PIT   *pit.Device

	display *cgatext.Device
	cfg     Config
	stop    atomic.Bool
}

// New builds a machine and loads its BIOS into the ROM area so that
// the reset vector lands on the image's entry point.
func New(cfg Config) (*Machine, error) {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}

	m := &Machine{
		Mem:   memory.New(),
		Sched: scheduler.New(),
		IO:    ioports.NewDispatcher(),
		PIC:   &pic.Device{},
		PIT:   &pit.Device{},
		cfg:   cfg,
	}

	m.CPU = cpu.New(m.Sched, m.Mem, m.IO)
	m.CPU.SetInterruptController(m.PIC)

	if cfg.CyclesPerSecond != 0 {
		if err := m.CPU.SetCyclesPerSecond(cfg.CyclesPerSecond); err != nil {
			return nil, err
		}
	}

	if err := m.PIC.Install(m.IO); err != nil {
		return nil, err
	}
	if err := m.PIT.Install(m.IO, m.Sched, m.PIC); err != nil {
		return nil, err
	}

	if cfg.BIOS != "" {
		if err := m.loadBIOS(); err != nil {
			return nil, err
		}
	}

	if cfg.Display {
		m.display = &cgatext.Device{}
		if err := m.display.Install(m.IO, m.Mem, m.Sched, m.Stop); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Machine) loadBIOS() error {
	bios, err := afero.ReadFile(m.cfg.Fs, m.cfg.BIOS)
	if err != nil {
		return err
	}
	if len(bios) > 0x10000 {
		return fmt.Errorf("BIOS image too large: %d bytes", len(bios))
	}
	// Top align so the last bytes sit below the reset vector.
	m.Mem.LoadData(memory.Pointer(memory.Size-len(bios)), bios)
	return nil
}

// Stop requests that Run return after the current timeslice. Safe to
// call from other goroutines.
func (m *Machine) Stop() {
	m.stop.Store(true)
	m.CPU.SetReschedule()
}

// Close tears down the peripherals.
func (m *Machine) Close() error {
	if m.display != nil {
		return m.display.Close()
	}
	return nil
}

// Run alternates CPU timeslices with device event dispatch until the
// machine stops or the CPU faults.
func (m *Machine) Run() error {
	start := time.Now()
	base := m.Sched.Now()

	for !m.stop.Load() {
		if err := m.CPU.Exec(); err != nil {
			var ioe *cpu.InvalidOpcodeError
			if errors.As(err, &ioe) {
				log.Print("CPU fault: ", ioe.Msg)
			}
			return err
		}
		m.Sched.Dispatch()

		// A halted CPU burns no cycles, so nobody would advance the
		// clock towards the interrupt that ends the halt. Skip ahead
		// to the next device event instead.
		if m.CPU.Halted() {
			d := m.Sched.TimeToNextEvent()
			if d == math.MaxInt64 {
				return errors.New("CPU halted with no pending events")
			}
			m.Sched.AdvanceTime(d)
			m.Sched.Dispatch()
		}

		if m.cfg.Realtime {
			simulated := time.Duration(m.Sched.Now()-base) * time.Second / scheduler.ClockRate
			if ahead := simulated - time.Since(start); ahead > time.Millisecond {
				time.Sleep(ahead)
			}
		}
	}
	return nil
}
