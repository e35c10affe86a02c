// Copyright 2024 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux || !(amd64 || 386)
// +build !linux !amd64,!386

package superio

// Iopl is not available on this platform.
func Iopl() error {
	return ErrUnsupported
}

// RequireRoot is not available on this platform.
func RequireRoot() error {
	return ErrUnsupported
}

// Open is not available on this platform.
func Open(port uint16) (*Chip, error) {
	return nil, ErrUnsupported
}
