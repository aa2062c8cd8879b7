// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nct6686

import (
	"fmt"

	"github.com/u-root/nuvwdt/pkg/hardware/ioport"
	"github.com/u-root/nuvwdt/pkg/hardware/region"
)

const ECRegionName = "nct6686EC"

// EC is the embedded controller register window: a page, address and data
// port at Base. Registers are 16 bit, the high byte selects the page.
//
// Every Read and Write claims the window for its duration, so accesses
// from other agents using the same arbiter never interleave.
type EC struct {
	Port    ioport.Port
	Base    uint16
	Arbiter region.Arbiter
}

func (e *EC) Range() region.Range {
	return region.Range{Name: ECRegionName, Start: e.Base, Len: EC_WINDOW_LEN}
}

func (e *EC) page() uint16 { return e.Base + PAGE_REG_OFFSET }
func (e *EC) addr() uint16 { return e.Base + ADDR_REG_OFFSET }
func (e *EC) data() uint16 { return e.Base + DATA_REG_OFFSET }

// setBank selects the page of reg. It is written every time, whatever the
// previous user of the window left selected.
func (e *EC) setBank(reg uint16) error {
	if err := e.Port.Out8(e.page(), PAGE_IDLE); err != nil {
		return err
	}
	return e.Port.Out8(e.page(), uint8(reg>>8))
}

// resetBank returns the page register to idle after a paged access.
func (e *EC) resetBank(reg uint16) error {
	if reg&0xff00 == 0 {
		return nil
	}
	return e.Port.Out8(e.page(), PAGE_IDLE)
}

func (e *EC) claim() (*region.Guard, error) {
	g, err := e.Arbiter.Claim(e.Range())
	if err != nil {
		log.Warnf("nuv:request ECSpace fail(base_addr=%#x): %v", e.Base, err)
		return nil, err
	}
	return g, nil
}

// Read returns EC register reg.
func (e *EC) Read(reg uint16) (uint8, error) {
	g, err := e.claim()
	if err != nil {
		return 0, err
	}
	defer g.Release()

	if err := e.setBank(reg); err != nil {
		return 0, fmt.Errorf("ec read %#03x: %w", reg, err)
	}
	if err := e.Port.Out8(e.addr(), uint8(reg)); err != nil {
		return 0, fmt.Errorf("ec read %#03x: %w", reg, err)
	}
	v, err := e.Port.In8(e.data())
	if err != nil {
		return 0, fmt.Errorf("ec read %#03x: %w", reg, err)
	}
	if err := e.resetBank(reg); err != nil {
		return 0, fmt.Errorf("ec read %#03x: %w", reg, err)
	}
	return v, nil
}

// Write sets EC register reg to v.
func (e *EC) Write(reg uint16, v uint8) error {
	g, err := e.claim()
	if err != nil {
		return err
	}
	defer g.Release()

	if err := e.setBank(reg); err != nil {
		return fmt.Errorf("ec write %#03x: %w", reg, err)
	}
	if err := e.Port.Out8(e.addr(), uint8(reg)); err != nil {
		return fmt.Errorf("ec write %#03x: %w", reg, err)
	}
	if err := e.Port.Out8(e.data(), v); err != nil {
		return fmt.Errorf("ec write %#03x: %w", reg, err)
	}
	if err := e.resetBank(reg); err != nil {
		return fmt.Errorf("ec write %#03x: %w", reg, err)
	}
	return nil
}

// ReadBlock reads n consecutive registers starting at reg. Each byte is
// its own claim.
func (e *EC) ReadBlock(reg uint16, n int) ([]byte, error) {
	b := make([]byte, n)
	for i := range b {
		v, err := e.Read(reg + uint16(i))
		if err != nil {
			return nil, err
		}
		b[i] = v
	}
	return b, nil
}

// update does a read-modify-write of reg. The two accesses are separate
// claims, like every other EC access in this package.
func (e *EC) update(reg uint16, f func(uint8) uint8) error {
	v, err := e.Read(reg)
	if err != nil {
		return err
	}
	return e.Write(reg, f(v))
}
