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

package pic

import (
	"testing"

	"github.com/matryer/is"

	"github.com/ggeorg/jx86pc/emulator/ioports"
)

// initPIC runs the standard PC BIOS init sequence with vector base 8.
func initPIC(d *Device) {
	d.OutB(0x20, 0x13) // ICW1: init, single, ICW4 needed
	d.OutB(0x21, 0x08) // ICW2: vector offset 8
	d.OutB(0x21, 0x01) // ICW4: 8086 mode
	d.OutB(0x21, 0x00) // clear mask
}

func TestPendingInterruptAcknowledges(t *testing.T) {
	is := is.New(t)
	m := &Device{}
	initPIC(m)

	is.Equal(m.GetPendingInterrupt(), -1)

	m.IRQ(0)
	is.Equal(m.GetPendingInterrupt(), 8)
	// The read acknowledged the request.
	is.Equal(m.GetPendingInterrupt(), -1)
}

func TestPriorityOrder(t *testing.T) {
	is := is.New(t)
	m := &Device{}
	initPIC(m)

	m.IRQ(3)
	m.IRQ(1)
	is.Equal(m.GetPendingInterrupt(), 9)  // IRQ 1 wins
	is.Equal(m.GetPendingInterrupt(), 11) // then IRQ 3
}

func TestMaskBlocksRequest(t *testing.T) {
	is := is.New(t)
	m := &Device{}
	initPIC(m)

	m.OutB(0x21, 0x01) // mask IRQ 0
	m.IRQ(0)
	is.Equal(m.GetPendingInterrupt(), -1)

	m.OutB(0x21, 0x00) // unmask
	is.Equal(m.GetPendingInterrupt(), 8)
}

func TestEndOfInterruptClearsService(t *testing.T) {
	is := is.New(t)
	m := &Device{}
	initPIC(m)

	m.IRQ(0)
	is.Equal(m.GetPendingInterrupt(), 8)
	is.Equal(m.InB(0x20)&1, byte(0)) // request register drained

	m.OutB(0x20, 0x20) // EOI
	m.IRQ(0)
	is.Equal(m.GetPendingInterrupt(), 8)
}

func TestInstallClaimsPorts(t *testing.T) {
	is := is.New(t)
	m := &Device{}
	d := ioports.NewDispatcher()
	is.NoErr(m.Install(d))
	initPIC(m)

	d.OutB(0x21, 0xAA)
	is.Equal(d.InB(0x21), byte(0xAA)) // mask register readback
}
