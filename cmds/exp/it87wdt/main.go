// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// it87wdt controls the watchdog timer of an ITE IT87 Super I/O chip.
//
// Synopsis:
//     it87wdt [-t SECONDS] [-T] [-p] [-k] [-s] [-i]
//
// Description:
//     Print the chip ID, then arm the watchdog. Unless it is kept alive
//     with -k or stopped with -s, the system resets when the timeout
//     expires. With -k the watchdog is kicked every half timeout until
//     SIGINT or SIGTERM, then disabled.
//
// Options:
//     -t: timeout in seconds, 1-65535 (default 60)
//     -T: test mode, no reset on timeout
//     -p: enable the power-good output
//     -k: keep the watchdog alive
//     -s: stop the watchdog
//     -i: show chip information only
//     -h: show help
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/u-root/it87/pkg/superio"
	"github.com/u-root/it87/pkg/superio/it87wdt"
)

type cmd struct {
	stdout io.Writer
	open   func(port uint16) (*superio.Chip, error)
	// notify returns a context cancelled on SIGINT or SIGTERM.
	notify func(ctx context.Context) (context.Context, context.CancelFunc)
	sleep  func(ctx context.Context, d time.Duration) error
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func (c *cmd) run(args []string) error {
	f := flag.NewFlagSet("it87wdt", flag.ContinueOnError)
	f.SetOutput(c.stdout)
	timeout := f.IntP("timeout", "t", it87wdt.DefaultTimeout, "Set timeout (1-65535 seconds)")
	test := f.BoolP("test", "T", false, "Enable test mode (no reboot)")
	pwrgd := f.BoolP("power-good", "p", false, "Enable power good output mode")
	keep := f.BoolP("keep-alive", "k", false, "Keep alive mode (continuously kick watchdog)")
	stop := f.BoolP("stop", "s", false, "Stop/disable watchdog")
	info := f.BoolP("info", "i", false, "Show chip information only")
	f.Usage = func() {
		fmt.Fprintf(c.stdout, "Usage: it87wdt [options]\nOptions:\n")
		f.PrintDefaults()
	}
	if err := f.Parse(args); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			f.Usage()
		}
		return err
	}

	cfg := it87wdt.Config{Timeout: *timeout, TestMode: *test}
	if err := cfg.Validate(); err != nil {
		return err
	}

	chip, err := c.open(superio.Port2E)
	if err != nil {
		return err
	}
	wd := it87wdt.New(chip, cfg)
	if c.sleep != nil {
		wd.Sleep = c.sleep
	}

	id, err := wd.Identify()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Found chip ID: 0x%04x, revision: 0x%02x\n", id.ID, id.Revision)
	if *info {
		return nil
	}

	ctx, cancel := c.notify(context.Background())
	defer cancel()

	if *pwrgd {
		if _, err := wd.EnablePowerGood(); err != nil {
			return err
		}
	}

	if !*stop {
		if err := wd.Program(); err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Watchdog configured with:\n")
		fmt.Fprintf(c.stdout, "- Timeout: %d seconds\n", cfg.Timeout)
		fmt.Fprintf(c.stdout, "- Test mode: %s\n", enabled(cfg.TestMode))
		fmt.Fprintf(c.stdout, "- Power good output: %s\n", enabled(*pwrgd))
		if !*keep {
			fmt.Fprintf(c.stdout, "Warning: System will reset after timeout unless watchdog is disabled!\n")
		}
	}

	switch {
	case *keep:
		fmt.Fprintf(c.stdout, "Keeping watchdog alive (Ctrl+C to stop)...\n")
		if err := wd.KeepAlive(ctx); err != nil {
			return err
		}
		if ctx.Err() != nil {
			fmt.Fprintf(c.stdout, "\nStopping watchdog...\n")
		}
		fmt.Fprintf(c.stdout, "Watchdog stopped.\n")
	case *stop:
		if err := wd.Disable(); err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Watchdog stopped.\n")
	}
	return nil
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("it87wdt: ")
	c := &cmd{
		stdout: os.Stdout,
		open:   superio.Open,
		notify: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		},
	}
	if err := c.run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatal(err)
	}
}
