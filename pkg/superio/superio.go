// Copyright 2012-2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package superio talks to ITE IT87-series Super I/O chips through their
// index/data port pair.
//
// A register is accessed by writing its index to the index port (the base,
// 0x2E or 0x4E) and then reading or writing the data port (base+1). Registers
// are only reachable while the chip is in configuration mode, and registers
// from 0x30 up belong to whichever logical device was last selected. Neither
// precondition is checked: getting the order wrong silently hits a different
// register.
package superio

import (
	"errors"
	"fmt"

	"github.com/u-root/u-root/pkg/memio"
)

// Standard configuration ports.
const (
	Port2E uint16 = 0x2e
	Port4E uint16 = 0x4e
)

// Global configuration registers.
const (
	RegConfigControl = 0x02
	RegLDN           = 0x07
	RegChipID        = 0x20
	RegChipIDLow     = 0x21
	RegChipRev       = 0x22
	RegActivate      = 0x30
)

// MaxLDN is the highest logical device number probed.
const MaxLDN = 0x0f

var (
	// ErrNoChip means no unlock sequence got the chip to answer.
	ErrNoChip = errors.New("no Super I/O chip answered")
	// ErrPermission means the OS refused raw port access.
	ErrPermission = errors.New("failed to get I/O permission")
	// ErrNotRoot means the process is not running as root.
	ErrNotRoot = errors.New("this program must be run as root")
	// ErrUnsupported means port I/O is not available on this platform.
	ErrUnsupported = errors.New("port I/O is not supported on this platform")
)

// Chip is a Super I/O chip behind the index port Port.
type Chip struct {
	Port uint16
	In   func(uint16, memio.UintN) error
	Out  func(uint16, memio.UintN) error

	// Logf, if set, receives handshake progress messages.
	Logf func(format string, v ...interface{})
}

// Identity is what the chip reports about itself.
type Identity struct {
	ID       uint16
	Revision uint8
}

func (c *Chip) logf(format string, v ...interface{}) {
	if c.Logf != nil {
		c.Logf(format, v...)
	}
}

// DataPort returns the data port paired with the index port.
func (c *Chip) DataPort() uint16 {
	return c.Port + 1
}

// Outb writes v to port.
func (c *Chip) Outb(port uint16, v uint8) error {
	d := memio.Uint8(v)
	if err := c.Out(port, &d); err != nil {
		return fmt.Errorf("writing %#02x to port %#x: %w", v, port, err)
	}
	return nil
}

// Inb reads a byte from port.
func (c *Chip) Inb(port uint16) (uint8, error) {
	var d memio.Uint8
	if err := c.In(port, &d); err != nil {
		return 0, fmt.Errorf("reading port %#x: %w", port, err)
	}
	return uint8(d), nil
}

// ReadReg reads configuration register reg.
func (c *Chip) ReadReg(reg uint8) (uint8, error) {
	if err := c.Outb(c.Port, reg); err != nil {
		return 0, err
	}
	return c.Inb(c.DataPort())
}

// WriteReg writes v into configuration register reg.
func (c *Chip) WriteReg(reg, v uint8) error {
	if err := c.Outb(c.Port, reg); err != nil {
		return err
	}
	return c.Outb(c.DataPort(), v)
}

// ReadWord reads reg as the high byte and reg+1 as the low byte.
func (c *Chip) ReadWord(reg uint8) (uint16, error) {
	hi, err := c.ReadReg(reg)
	if err != nil {
		return 0, err
	}
	lo, err := c.ReadReg(reg + 1)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// Select makes ldn the target of subsequent accesses to registers 0x30 and
// above. It stays selected until the next Select.
func (c *Chip) Select(ldn uint8) error {
	return c.WriteReg(RegLDN, ldn)
}

// Identify reads the chip ID and revision. The chip must be in
// configuration mode.
func (c *Chip) Identify() (Identity, error) {
	id, err := c.ReadWord(RegChipID)
	if err != nil {
		return Identity{}, err
	}
	rev, err := c.ReadReg(RegChipRev)
	if err != nil {
		return Identity{}, err
	}
	return Identity{ID: id, Revision: rev & 0x0f}, nil
}
