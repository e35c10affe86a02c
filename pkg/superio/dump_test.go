// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package superio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/u-root/it87/pkg/superio/superiotest"
)

func TestActive(t *testing.T) {
	f, c := fakeChip(Port2E, 0x87, 0x87)
	f.SetActive(3, true)
	f.SetReg(5, RegActivate, 0xfe)
	if _, err := c.Probe(); err != nil {
		t.Fatal(err)
	}
	for _, tt := range []struct {
		ldn  uint8
		want bool
	}{
		{0, false},
		{3, true},
		{5, false},
	} {
		got, err := c.Active(tt.ldn)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("Active(%#x) = %v, want %v", tt.ldn, got, tt.want)
		}
	}
}

func TestDump(t *testing.T) {
	f, c := fakeChip(Port2E, 0x87, 0x87)
	for i := 0x30; i < 0x100; i++ {
		f.SetReg(7, uint8(i), uint8(i)^0x5a)
	}
	if _, err := c.Probe(); err != nil {
		t.Fatal(err)
	}
	f.Reset()

	regs, err := c.Dump(7)
	if err != nil {
		t.Fatal(err)
	}

	want := []superiotest.Access{out(0x2e, RegLDN), out(0x2f, 7)}
	for i := 0; i < 256; i++ {
		want = append(want, out(0x2e, uint8(i)), in(0x2f, f.Reg(7, uint8(i))))
	}
	if diff := cmp.Diff(want, f.Accesses); diff != "" {
		t.Errorf("port accesses (-want +got):\n%s", diff)
	}
	for i := 0x30; i < 0x100; i++ {
		if regs[i] != uint8(i)^0x5a {
			t.Errorf("reg %#x = %#x, want %#x", i, regs[i], uint8(i)^0x5a)
		}
	}
	if regs[RegLDN] != 7 {
		t.Errorf("LDN register = %#x, want 0x7", regs[RegLDN])
	}
}

func TestFormatTable(t *testing.T) {
	var regs [256]uint8
	for i := range regs {
		regs[i] = uint8(i)
	}
	var b bytes.Buffer
	FormatTable(&b, 0x0a, regs)

	lines := strings.Split(b.String(), "\n")
	// Blank line, title, header, rule, 16 rows, trailing newline.
	if len(lines) != 21 {
		t.Fatalf("got %d lines, want 21:\n%s", len(lines), b.String())
	}
	for i, want := range map[int]string{
		1:  "Dumping registers for LDN 0x0A:",
		2:  "Reg  00 01 02 03 04 05 06 07 08 09 0A 0B 0C 0D 0E 0F",
		4:  "00: 00 01 02 03 04 05 06 07 08 09 0A 0B 0C 0D 0E 0F ",
		19: "F0: F0 F1 F2 F3 F4 F5 F6 F7 F8 F9 FA FB FC FD FE FF ",
	} {
		if lines[i] != want {
			t.Errorf("line %d = %q, want %q", i, lines[i], want)
		}
	}
}

func TestDumpAll(t *testing.T) {
	for _, tt := range []struct {
		name   string
		key    []uint8
		active []uint8
		want   []string
		absent []string
	}{
		{
			name:   "two active devices",
			key:    []uint8{0x87, 0x87},
			active: []uint8{0x04, 0x07},
			want: []string{
				"Raw ID bytes: 0x87 0x86\n",
				"Probing port 0x2E:\n",
				"Chip ID: 0x8786\n",
				"Dumping registers for LDN 0x04:",
				"Dumping registers for LDN 0x07:",
			},
			absent: []string{"Warning", "LDN 0x00:", "LDN 0x05:"},
		},
		{
			// Nothing answers, so every activation register reads 0xff and
			// every device looks active.
			name: "no chip",
			want: []string{
				"Warning: All known sequences failed\n",
				"Raw ID bytes: 0xFF 0xFF\n",
				"Chip ID: 0xFFFF\n",
				"Dumping registers for LDN 0x00:",
				"Dumping registers for LDN 0x0F:",
				"30: FF FF FF FF FF FF FF FF FF FF FF FF FF FF FF FF \n",
			},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			f, c := fakeChip(Port2E, tt.key...)
			f.SetID(0x8786, 1)
			for _, ldn := range tt.active {
				f.SetActive(ldn, true)
			}
			var b bytes.Buffer
			if err := c.DumpAll(&b); err != nil {
				t.Fatal(err)
			}
			for _, s := range tt.want {
				if !strings.Contains(b.String(), s) {
					t.Errorf("output missing %q:\n%s", s, b.String())
				}
			}
			for _, s := range tt.absent {
				if strings.Contains(b.String(), s) {
					t.Errorf("output contains %q:\n%s", s, b.String())
				}
			}
			if f.Entered() {
				t.Errorf("chip left in configuration mode")
			}
		})
	}
}

func TestDumpAllSkipsInactive(t *testing.T) {
	f, c := fakeChip(Port2E, 0x87, 0x87)
	f.SetID(0x8786, 1)
	f.SetActive(2, true)
	var b bytes.Buffer
	if err := c.DumpAll(&b); err != nil {
		t.Fatal(err)
	}

	// Inactive devices are only selected and have 0x30 read; device 2 also
	// has all 256 registers read after a second select.
	reads := map[uint8]int{}
	var ldn uint8
	for i, a := range f.Accesses {
		if a.Op == superiotest.Out && a.Port == 0x2f && i > 0 && f.Accesses[i-1].Value == RegLDN {
			ldn = a.Value
		}
		if a.Op == superiotest.In && a.Port == 0x2f {
			reads[ldn]++
		}
	}
	for l := uint8(0); l <= MaxLDN; l++ {
		want := 1
		if l == 2 {
			want = 257
		}
		// The probe and the ID bytes are read before any select.
		if l == 0 {
			want += 3
		}
		if reads[l] != want {
			t.Errorf("LDN %#x: %d data reads, want %d", l, reads[l], want)
		}
	}
}
