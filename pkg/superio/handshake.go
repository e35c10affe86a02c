// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package superio

import (
	"fmt"
	"strings"
)

// Unlock key bytes.
const (
	keyITE    = 0x87
	keyITE2   = 0x01
	keyAlt    = 0x55
	keyAlt4E  = 0xaa
	keyExitCC = 0x02
)

// A Sequence is a byte string written to the index port to put the chip
// into configuration mode.
type Sequence struct {
	Name  string
	Bytes []uint8
}

func (s Sequence) String() string {
	b := make([]string, len(s.Bytes))
	for i, v := range s.Bytes {
		b[i] = fmt.Sprintf("0x%02x", v)
	}
	return strings.Join(b, ", ")
}

// ITEKey is the IT87 MB PnP key for the chip at port. Its last byte depends
// on which configuration port is used.
func ITEKey(port uint16) Sequence {
	last := uint8(keyAlt)
	if port != Port2E {
		last = keyAlt4E
	}
	return Sequence{
		Name:  "alternate sequence",
		Bytes: []uint8{keyITE, keyITE2, keyAlt, last},
	}
}

// Sequences returns the unlock sequences Probe tries, in order.
func Sequences(port uint16) []Sequence {
	return []Sequence{
		{Name: "standard ITE sequence", Bytes: []uint8{keyITE, keyITE}},
		ITEKey(port),
		{Name: "another alternate", Bytes: []uint8{keyAlt, keyAlt}},
	}
}

// Enter writes s to the index port. It does not check that the chip
// answered.
func (c *Chip) Enter(s Sequence) error {
	for _, b := range s.Bytes {
		if err := c.Outb(c.Port, b); err != nil {
			return err
		}
	}
	return nil
}

// Probe tries each of Sequences in order and returns the first one after
// which the chip ID register reads back as something other than 0xff.
// If none does, it returns ErrNoChip and leaves the chip in whatever state
// the last attempt put it in.
func (c *Chip) Probe() (Sequence, error) {
	for _, s := range Sequences(c.Port) {
		c.logf("Trying %s (%s)...", s.Name, s)
		if err := c.Enter(s); err != nil {
			return Sequence{}, err
		}
		v, err := c.ReadReg(RegChipID)
		if err != nil {
			return Sequence{}, err
		}
		if v != 0xff {
			c.logf("Success with %s!", s)
			return s, nil
		}
	}
	return Sequence{}, fmt.Errorf("port %#x: %w", c.Port, ErrNoChip)
}

// Exit leaves configuration mode.
func (c *Chip) Exit() error {
	return c.WriteReg(RegConfigControl, keyExitCC)
}
