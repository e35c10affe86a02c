// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package superio

import (
	"errors"
	"fmt"
	"io"
)

// Active selects ldn and reports whether its activation bit is set.
func (c *Chip) Active(ldn uint8) (bool, error) {
	if err := c.Select(ldn); err != nil {
		return false, err
	}
	v, err := c.ReadReg(RegActivate)
	if err != nil {
		return false, err
	}
	return v&0x1 != 0, nil
}

// Dump selects ldn and reads all of its 256 registers in ascending order.
func (c *Chip) Dump(ldn uint8) ([256]uint8, error) {
	var regs [256]uint8
	if err := c.Select(ldn); err != nil {
		return regs, err
	}
	for i := range regs {
		v, err := c.ReadReg(uint8(i))
		if err != nil {
			return regs, err
		}
		regs[i] = v
	}
	return regs, nil
}

// FormatTable writes regs as a 16-column hex table.
func FormatTable(w io.Writer, ldn uint8, regs [256]uint8) {
	fmt.Fprintf(w, "\nDumping registers for LDN 0x%02X:\n", ldn)
	fmt.Fprintf(w, "Reg  00 01 02 03 04 05 06 07 08 09 0A 0B 0C 0D 0E 0F\n")
	fmt.Fprintf(w, "---------------------------------------------------\n")
	for i, v := range regs {
		if i%16 == 0 {
			fmt.Fprintf(w, "%02X: ", i)
		}
		fmt.Fprintf(w, "%02X ", v)
		if i%16 == 15 {
			fmt.Fprintf(w, "\n")
		}
	}
}

// DumpAll enters configuration mode, prints the chip ID and a register table
// for every active logical device, then leaves configuration mode.
//
// A chip that does not answer any unlock sequence is reported as a warning
// and dumped anyway: running against a port without a chip is expected.
func (c *Chip) DumpAll(w io.Writer) error {
	if _, err := c.Probe(); err != nil {
		if !errors.Is(err, ErrNoChip) {
			return err
		}
		fmt.Fprintf(w, "Warning: All known sequences failed\n")
	}

	id, err := c.ReadWord(RegChipID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Raw ID bytes: 0x%02X 0x%02X\n", id>>8, id&0xff)
	fmt.Fprintf(w, "Probing port 0x%X:\n", c.Port)
	fmt.Fprintf(w, "Chip ID: 0x%04X\n", id)

	for ldn := uint8(0); ldn <= MaxLDN; ldn++ {
		on, err := c.Active(ldn)
		if err != nil {
			return err
		}
		if !on {
			continue
		}
		regs, err := c.Dump(ldn)
		if err != nil {
			return err
		}
		FormatTable(w, ldn, regs)
	}

	return c.Exit()
}
