// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package it87wdt drives the watchdog timer of ITE IT87 Super I/O chips.
package it87wdt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/u-root/it87/pkg/superio"
)

// Logical devices.
const (
	LDNEC   = 0x04
	LDNGPIO = 0x07
)

// Registers of the GPIO logical device.
const (
	RegCtrl   = 0x71
	RegCfg    = 0x72
	RegValLSB = 0x73
	RegValMSB = 0x74
)

// RegSCR1 is special control register 1 of the EC logical device.
const RegSCR1 = 0xfa

// RegCfg bits.
const (
	CfgTOV1    = 0x80 // timeout value is in seconds
	CfgKRST    = 0x40 // reset on timeout
	CfgTOVE    = 0x20
	CfgPWROK   = 0x10 // gate PWROK on timeout
	CfgIntMask = 0x0f
)

// SCR1PWRGD routes the watchdog to the power-good output.
const SCR1PWRGD = 0x20

// Timeout limits, in seconds.
const (
	MinTimeout     = 1
	MaxTimeout     = 65535
	DefaultTimeout = 60
)

// ErrTimeout is returned for a timeout outside MinTimeout..MaxTimeout.
var ErrTimeout = errors.New("invalid timeout value (1-65535)")

// Config is the watchdog configuration.
type Config struct {
	// Timeout in seconds.
	Timeout int
	// TestMode programs the timer without reset or PWROK gating.
	TestMode bool
}

// Validate checks the timeout range.
func (c Config) Validate() error {
	if c.Timeout < MinTimeout || c.Timeout > MaxTimeout {
		return fmt.Errorf("%w: %d", ErrTimeout, c.Timeout)
	}
	return nil
}

// Encode returns the values for RegCfg, RegValLSB and RegValMSB. Timeouts up
// to 255 are counted in seconds; longer ones are converted to whole minutes.
func Encode(timeout int, testMode bool) (cfg, lsb, msb uint8) {
	if !testMode {
		cfg = CfgKRST | CfgPWROK
	}
	if timeout <= 255 {
		cfg |= CfgTOV1
	} else {
		timeout /= 60
	}
	return cfg, uint8(timeout), uint8(timeout >> 8)
}

// Watchdog is the watchdog of the chip at Chip.Port.
//
// Unlike superio.Chip.Probe, the watchdog never checks that the chip
// answered the unlock key: every operation writes its registers whether or
// not an IT87 is there.
type Watchdog struct {
	Chip *superio.Chip
	Config

	// Sleep waits between keep-alive kicks. It returns early with a
	// non-nil error when ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

// New returns the watchdog of c.
func New(c *superio.Chip, cfg Config) *Watchdog {
	return &Watchdog{Chip: c, Config: cfg, Sleep: sleep}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (w *Watchdog) enter() error {
	return w.Chip.Enter(superio.ITEKey(w.Chip.Port))
}

// with enters configuration mode, selects ldn, runs f and exits
// configuration mode.
func (w *Watchdog) with(ldn uint8, f func() error) error {
	if err := w.enter(); err != nil {
		return err
	}
	err := w.Chip.Select(ldn)
	if err == nil {
		err = f()
	}
	if xerr := w.Chip.Exit(); err == nil {
		err = xerr
	}
	return err
}

// Identify reads the chip ID and revision.
func (w *Watchdog) Identify() (superio.Identity, error) {
	if err := w.enter(); err != nil {
		return superio.Identity{}, err
	}
	id, err := w.Chip.Identify()
	if xerr := w.Chip.Exit(); err == nil {
		err = xerr
	}
	return id, err
}

// Program arms the watchdog with the configured timeout. Programming an
// armed watchdog restarts its countdown.
func (w *Watchdog) Program() error {
	cfg, lsb, msb := Encode(w.Timeout, w.TestMode)
	return w.with(LDNGPIO, func() error {
		if err := w.Chip.WriteReg(RegCfg, cfg); err != nil {
			return err
		}
		if err := w.Chip.WriteReg(RegValLSB, lsb); err != nil {
			return err
		}
		return w.Chip.WriteReg(RegValMSB, msb)
	})
}

// Disable stops the countdown.
func (w *Watchdog) Disable() error {
	return w.with(LDNGPIO, func() error {
		if err := w.Chip.WriteReg(RegValLSB, 0); err != nil {
			return err
		}
		if err := w.Chip.WriteReg(RegValMSB, 0); err != nil {
			return err
		}
		return w.Chip.WriteReg(RegCfg, 0)
	})
}

// EnablePowerGood sets SCR1PWRGD in the EC's RegSCR1 unless it is already
// set. It reports whether it wrote the register.
func (w *Watchdog) EnablePowerGood() (bool, error) {
	var wrote bool
	err := w.with(LDNEC, func() error {
		v, err := w.Chip.ReadReg(RegSCR1)
		if err != nil {
			return err
		}
		if v&SCR1PWRGD != 0 {
			return nil
		}
		if err := w.Chip.WriteReg(RegSCR1, v|SCR1PWRGD); err != nil {
			return err
		}
		wrote = true
		return nil
	})
	return wrote, err
}

// Interval is the time between keep-alive kicks: half the timeout, and at
// least a second.
func (w *Watchdog) Interval() time.Duration {
	d := time.Duration(w.Timeout/2) * time.Second
	if d < time.Second {
		d = time.Second
	}
	return d
}

// KeepAlive kicks the watchdog every Interval until ctx is done, then
// disables it. Cancellation is only observed between kicks.
func (w *Watchdog) KeepAlive(ctx context.Context) error {
	s := w.Sleep
	if s == nil {
		s = sleep
	}
	for ctx.Err() == nil {
		if err := w.Program(); err != nil {
			if derr := w.Disable(); derr != nil {
				return fmt.Errorf("%v; disabling: %w", err, derr)
			}
			return err
		}
		if err := s(ctx, w.Interval()); err != nil {
			break
		}
	}
	return w.Disable()
}
