// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package superiotest provides a simulated Super I/O chip for tests.
//
// The simulated chip answers on an index/data port pair. It enters
// configuration mode when the bytes written to the index port since the
// last data port access, minus the final register index, equal its key. It
// leaves configuration mode when bit 1 of register 0x02 is written. Outside
// configuration mode the data port reads 0xff.
package superiotest

import (
	"bytes"
	"fmt"

	"github.com/u-root/u-root/pkg/memio"
)

// Op is the direction of a port access.
type Op int

// Port access directions.
const (
	Out Op = iota
	In
)

func (o Op) String() string {
	if o == In {
		return "in"
	}
	return "out"
}

// Access is one port access, in the order it happened.
type Access struct {
	Op    Op
	Port  uint16
	Value uint8
}

func (a Access) String() string {
	return fmt.Sprintf("%s(%#x)=%#02x", a.Op, a.Port, a.Value)
}

// RegWrite is a data port write made in configuration mode.
type RegWrite struct {
	LDN   uint8
	Reg   uint8
	Value uint8
}

// Chip is a simulated chip. Registers below 0x30 are shared by all logical
// devices; the rest are per device.
type Chip struct {
	Base uint16
	Key  []uint8

	Global  [0x30]uint8
	Devices [256][256]uint8

	Accesses []Access
	Writes   []RegWrite

	entered bool
	ldn     uint8
	index   uint8
	pending []uint8
}

// New returns a chip at base that unlocks on key. With no key the chip
// never enters configuration mode, like an empty port.
func New(base uint16, key ...uint8) *Chip {
	return &Chip{Base: base, Key: key}
}

// SetID sets the chip ID and revision registers.
func (c *Chip) SetID(id uint16, rev uint8) {
	c.Global[0x20] = uint8(id >> 8)
	c.Global[0x21] = uint8(id)
	c.Global[0x22] = rev
}

// SetActive sets or clears the activation bit of ldn.
func (c *Chip) SetActive(ldn uint8, on bool) {
	if on {
		c.Devices[ldn][0x30] |= 1
	} else {
		c.Devices[ldn][0x30] &^= 1
	}
}

// Reg returns register reg as seen with ldn selected.
func (c *Chip) Reg(ldn, reg uint8) uint8 {
	if reg == 0x07 {
		return ldn
	}
	if reg < 0x30 {
		return c.Global[reg]
	}
	return c.Devices[ldn][reg]
}

// SetReg sets register reg as seen with ldn selected.
func (c *Chip) SetReg(ldn, reg, v uint8) {
	if reg < 0x30 {
		c.Global[reg] = v
		return
	}
	c.Devices[ldn][reg] = v
}

// Entered reports whether the chip is in configuration mode.
func (c *Chip) Entered() bool {
	return c.entered
}

// Selected returns the currently selected logical device.
func (c *Chip) Selected() uint8 {
	return c.ldn
}

// Reset forgets recorded accesses and writes.
func (c *Chip) Reset() {
	c.Accesses = nil
	c.Writes = nil
}

// WritesTo returns the recorded writes to reg of ldn.
func (c *Chip) WritesTo(ldn, reg uint8) []RegWrite {
	var w []RegWrite
	for _, r := range c.Writes {
		if r.LDN == ldn && r.Reg == reg {
			w = append(w, r)
		}
	}
	return w
}

func (c *Chip) checkKey() {
	if !c.entered && len(c.Key) > 0 && len(c.pending) > 0 && bytes.Equal(c.pending[:len(c.pending)-1], c.Key) {
		c.entered = true
	}
	c.pending = nil
}

// Out implements the memio.Out signature.
func (c *Chip) Out(port uint16, data memio.UintN) error {
	d, ok := data.(*memio.Uint8)
	if !ok {
		return fmt.Errorf("port %#x: only byte access is simulated, got %d bytes", port, data.Size())
	}
	v := uint8(*d)
	switch port {
	case c.Base:
		if !c.entered {
			c.pending = append(c.pending, v)
		}
		c.index = v
	case c.Base + 1:
		c.checkKey()
		if c.entered {
			c.Writes = append(c.Writes, RegWrite{LDN: c.ldn, Reg: c.index, Value: v})
			switch {
			case c.index == 0x07:
				c.ldn = v
			case c.index == 0x02 && v&0x02 != 0:
				c.entered = false
			default:
				c.SetReg(c.ldn, c.index, v)
			}
		}
	default:
		return fmt.Errorf("port %#x: no device", port)
	}
	c.Accesses = append(c.Accesses, Access{Op: Out, Port: port, Value: v})
	return nil
}

// In implements the memio.In signature.
func (c *Chip) In(port uint16, data memio.UintN) error {
	d, ok := data.(*memio.Uint8)
	if !ok {
		return fmt.Errorf("port %#x: only byte access is simulated, got %d bytes", port, data.Size())
	}
	var v uint8
	switch port {
	case c.Base:
		v = c.index
	case c.Base + 1:
		c.checkKey()
		v = 0xff
		if c.entered {
			v = c.Reg(c.ldn, c.index)
		}
	default:
		return fmt.Errorf("port %#x: no device", port)
	}
	*d = memio.Uint8(v)
	c.Accesses = append(c.Accesses, Access{Op: In, Port: port, Value: v})
	return nil
}
