// Copyright 2012-2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux && (amd64 || 386)
// +build linux
// +build amd64 386

package superio

import (
	"fmt"

	"github.com/u-root/u-root/pkg/memio"
	"golang.org/x/sys/unix"
)

// Iopl raises the I/O privilege level of the process to 3.
func Iopl() error {
	if err := unix.Iopl(3); err != nil {
		return fmt.Errorf("%w: %v", ErrPermission, err)
	}
	return nil
}

// RequireRoot returns ErrNotRoot unless the effective user is root.
func RequireRoot() error {
	if unix.Geteuid() != 0 {
		return ErrNotRoot
	}
	return nil
}

// Open acquires I/O privilege and returns the chip at port, accessed
// through memio.In and memio.Out.
func Open(port uint16) (*Chip, error) {
	if err := Iopl(); err != nil {
		return nil, err
	}
	return &Chip{
		Port: port,
		In:   memio.In,
		Out:  memio.Out,
	}, nil
}
