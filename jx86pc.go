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

// jx86pc is an IBM PC/XT emulator.
package main

import (
	"github.com/alecthomas/kong"
	"github.com/spf13/afero"

	"github.com/ggeorg/jx86pc/emulator"
)

func main() {
	var cli struct {
		Run   runCmd   `cmd:"" default:"1" help:"Boot the machine"`
		GenFd genFdCmd `cmd:"" name:"gen-fd" help:"Create a blank 1.44MB floppy image"`
	}

	ctx := kong.Parse(&cli)
	ctx.FatalIfErrorf(ctx.Run())
}

type runCmd struct {
	BIOS     string  `name:"bios" type:"existingfile" required:"" help:"Path to the BIOS image"`
	MHz      float64 `name:"mhz" default:"4.7727" help:"Emulated CPU clock rate"`
	Text     bool    `name:"text" default:"true" help:"CGA textmode running in the terminal"`
	Realtime bool    `name:"realtime" default:"true" help:"Pace the simulation against the wall clock"`
}

func (r *runCmd) Run() error {
	m, err := emulator.New(emulator.Config{
		Fs:              afero.NewOsFs(),
		BIOS:            r.BIOS,
		CyclesPerSecond: int64(r.MHz * 1000000),
		Display:         r.Text,
		Realtime:        r.Realtime,
	})
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Run()
}

type genFdCmd struct {
	Path string `arg:"" help:"Path of the image to create"`
}

func (g *genFdCmd) Run() error {
	fs := afero.NewOsFs()
	fd, err := fs.Create(g.Path)
	if err != nil {
		return err
	}
	defer fd.Close()
	var buffer [0x168000]byte
	_, err = fd.Write(buffer[:])
	return err
}
