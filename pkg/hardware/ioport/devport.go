// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ioport

import (
	"fmt"
	"os"

	"github.com/u-root/u-root/pkg/memio"
)

// DevPortPath is the kernel's byte-addressed view of the I/O port space.
const DevPortPath = "/dev/port"

// DevPort accesses ports through /dev/port, where the file offset is the
// port number. Unlike memio.In and memio.Out the file stays open, so an
// access is a seek plus a one byte read or write.
type DevPort struct {
	p *memio.Port
}

func OpenDevPort(path string) (*DevPort, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &DevPort{p: memio.NewMemIOPort(f)}, nil
}

func (d *DevPort) In8(port uint16) (uint8, error) {
	var v memio.Uint8
	if err := d.p.Read(&v, int64(port)); err != nil {
		return 0, fmt.Errorf("inb %#04x: %w", port, err)
	}
	return uint8(v), nil
}

func (d *DevPort) Out8(port uint16, value uint8) error {
	v := memio.Uint8(value)
	if err := d.p.Write(&v, int64(port)); err != nil {
		return fmt.Errorf("outb %#02x, %#04x: %w", value, port, err)
	}
	return nil
}

func (d *DevPort) Close() error {
	return d.p.Close()
}
