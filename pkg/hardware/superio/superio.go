// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package superio drives the extended function configuration interface of
// Nuvoton/Winbond style Super-I/O bridges.
//
// The bridge sits behind an index/data port pair. Writing the unlock key
// twice to the index port enters extended function mode, after which
// logical devices can be selected and their configuration registers read
// or written. Writing the lock key leaves the mode.
//
// Every enter/operate/exit sequence is one exclusive claim on the port
// pair: other agents probing the same ports (hwmon drivers, other tools)
// would otherwise interleave index and data accesses.
package superio

import (
	"fmt"

	"github.com/u-root/nuvwdt/pkg/hardware/ioport"
	"github.com/u-root/nuvwdt/pkg/hardware/region"
	"github.com/u-root/nuvwdt/pkg/logger"
)

const (
	// Extended function enable key, written twice.
	EnterKey uint8 = 0x87
	// Extended function disable key.
	ExitKey uint8 = 0xaa

	// Logical device number register.
	RegLogicalDevice uint8 = 0x07
	// Chip ID, high and low byte.
	RegChipIDHigh uint8 = 0x20
	RegChipIDLow  uint8 = 0x21

	RegionName = "superio"
)

var log = logger.LogContainer.GetSimpleLogger()

// Bridge is a Super-I/O configuration port pair at Base (index) and
// Base+1 (data).
type Bridge struct {
	Port    ioport.Port
	Base    uint16
	Arbiter region.Arbiter
}

func (b *Bridge) indexPort() uint16 {
	return b.Base
}

func (b *Bridge) dataPort() uint16 {
	return b.Base + 1
}

func (b *Bridge) Range() region.Range {
	return region.Range{Name: RegionName, Start: b.Base, Len: 2}
}

// Enter claims the port pair and unlocks extended function mode. If the
// claim fails no port is touched and nothing needs releasing. On success
// the returned Session must be closed with Exit on every path.
func (b *Bridge) Enter() (*Session, error) {
	g, err := b.Arbiter.Claim(b.Range())
	if err != nil {
		log.Warnf("nuv:request IO base fail(wdt_io=%#x): %v", b.Base, err)
		return nil, err
	}
	s := &Session{b: b, g: g}
	for i := 0; i < 2; i++ {
		if err := b.Port.Out8(b.indexPort(), EnterKey); err != nil {
			g.Release()
			return nil, fmt.Errorf("enter extended mode at %#x: %w", b.Base, err)
		}
	}
	return s, nil
}

// Session is an open extended function mode sequence.
type Session struct {
	b    *Bridge
	g    *region.Guard
	done bool
}

// Write sets configuration register index to value.
func (s *Session) Write(index, value uint8) error {
	if s.done {
		return fmt.Errorf("superio %#x: session already exited", s.b.Base)
	}
	if err := s.b.Port.Out8(s.b.indexPort(), index); err != nil {
		return err
	}
	return s.b.Port.Out8(s.b.dataPort(), value)
}

// Read returns configuration register index.
func (s *Session) Read(index uint8) (uint8, error) {
	if s.done {
		return 0, fmt.Errorf("superio %#x: session already exited", s.b.Base)
	}
	if err := s.b.Port.Out8(s.b.indexPort(), index); err != nil {
		return 0, err
	}
	return s.b.Port.In8(s.b.dataPort())
}

// Read16 reads a big endian register pair, hi first.
func (s *Session) Read16(hi, lo uint8) (uint16, error) {
	h, err := s.Read(hi)
	if err != nil {
		return 0, err
	}
	l, err := s.Read(lo)
	if err != nil {
		return 0, err
	}
	return uint16(h)<<8 | uint16(l), nil
}

// Select makes logical device ld the target of subsequent register
// accesses.
func (s *Session) Select(ld uint8) error {
	return s.Write(RegLogicalDevice, ld)
}

// ChipID returns the raw 16 bit chip identifier.
func (s *Session) ChipID() (uint16, error) {
	return s.Read16(RegChipIDHigh, RegChipIDLow)
}

// Exit locks extended function mode and releases the claim. The claim is
// released even if the lock write fails. Calls after the first are no-ops.
func (s *Session) Exit() error {
	if s.done {
		return nil
	}
	s.done = true
	err := s.b.Port.Out8(s.b.indexPort(), ExitKey)
	if rerr := s.g.Release(); err == nil {
		err = rerr
	}
	return err
}
