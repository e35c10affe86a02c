// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// it87dump prints the configuration registers of an ITE IT87 Super I/O chip.
//
// Synopsis:
//     it87dump [-2] [-4]
//
// Description:
//     For each configuration port, enter configuration mode, print the chip
//     ID and dump all registers of every active logical device. With no
//     port selected, both 0x2E and 0x4E are probed.
//
// Options:
//     -2: probe port 0x2E
//     -4: probe port 0x4E
//     -h: show help
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	flag "github.com/spf13/pflag"
	"github.com/u-root/it87/pkg/superio"
)

type cmd struct {
	stdout io.Writer
	open   func(port uint16) (*superio.Chip, error)
	root   func() error
}

func (c *cmd) run(args []string) error {
	f := flag.NewFlagSet("it87dump", flag.ContinueOnError)
	f.SetOutput(c.stdout)
	p2e := f.BoolP("port-2e", "2", false, "Probe port 0x2E")
	p4e := f.BoolP("port-4e", "4", false, "Probe port 0x4E")
	f.Usage = func() {
		fmt.Fprintf(c.stdout, "Usage: it87dump [-2] [-4]\n")
		f.PrintDefaults()
	}
	if err := f.Parse(args); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			f.Usage()
		}
		return err
	}

	if !*p2e && !*p4e {
		*p2e, *p4e = true, true
	}

	var ports []uint16
	if *p2e {
		ports = append(ports, superio.Port2E)
	}
	if *p4e {
		ports = append(ports, superio.Port4E)
	}

	if err := c.root(); err != nil {
		return err
	}

	// Acquire privilege for every port before touching any of them.
	chips := make([]*superio.Chip, 0, len(ports))
	for _, p := range ports {
		chip, err := c.open(p)
		if err != nil {
			return err
		}
		chip.Logf = func(format string, v ...interface{}) {
			fmt.Fprintf(c.stdout, format+"\n", v...)
		}
		chips = append(chips, chip)
	}

	for _, chip := range chips {
		if err := chip.DumpAll(c.stdout); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("it87dump: ")
	c := &cmd{
		stdout: os.Stdout,
		open:   superio.Open,
		root:   superio.RequireRoot,
	}
	if err := c.run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatal(err)
	}
}
