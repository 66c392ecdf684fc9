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

// Package processor holds the register file and the interfaces through
// which the CPU core talks to the rest of the machine.
package processor

// InterruptController accumulates and serializes interrupt signals
// from devices and communicates them to the CPU.
type InterruptController interface {
	// GetPendingInterrupt returns a vector number, or -1 if no
	// interrupt is pending. A call with a non-negative return value
	// also serves as the acknowledgement of the interrupt, so the
	// complete INTR/INTA handshake is this single call.
	GetPendingInterrupt() int

	// IRQ raises interrupt request line n.
	IRQ(n int)
}

// IOPorts dispatches CPU port I/O to devices.
type IOPorts interface {
	InB(port uint16) byte
	OutB(port uint16, data byte)
	InW(port uint16) uint16
	OutW(port uint16, data uint16)
}

// Suppress may be returned from an InterruptHook to swallow the
// interrupt entirely.
const Suppress = -1

// An InterruptHook intercepts interrupt handling for one vector.
//
// The hook may modify any register except CS; CS is restored after the
// hook returns and the flags are renormalized. The return value is the
// vector to deliver on the emulated machine, or Suppress to skip
// delivery. Returning a value outside [-1, 255] is a protocol
// violation and panics.
type InterruptHook interface {
	Intercept(vector int, r *Registers) int
}

// InterruptHookFunc adapts a function to the InterruptHook interface.
type InterruptHookFunc func(vector int, r *Registers) int

func (f InterruptHookFunc) Intercept(vector int, r *Registers) int {
	return f(vector, r)
}
