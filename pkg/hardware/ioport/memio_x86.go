// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux && (amd64 || 386)
// +build linux
// +build amd64 386

package ioport

import (
	"github.com/u-root/u-root/pkg/memio"
)

// Memio issues inb/outb directly through u-root's memio arch accessors,
// which raise the I/O privilege level on first use.
type Memio struct {
	In  func(uint16, memio.UintN) error
	Out func(uint16, memio.UintN) error
}

func openMemio() (Port, error) {
	return &Memio{
		In:  memio.ArchIn,
		Out: memio.ArchOut,
	}, nil
}

func (m *Memio) In8(port uint16) (uint8, error) {
	var v memio.Uint8
	if err := m.In(port, &v); err != nil {
		return 0, err
	}
	return uint8(v), nil
}

func (m *Memio) Out8(port uint16, value uint8) error {
	v := memio.Uint8(value)
	return m.Out(port, &v)
}
