// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nct6686

import (
	"context"
	"sync"
	"time"

	"github.com/u-root/nuvwdt/pkg/hardware/superio"
)

// SimConfig describes the simulated chip.
type SimConfig struct {
	// Super-I/O base the chip answers on.
	Base     uint16
	ChipID   uint16
	ECBase   uint16
	Firmware string
}

// DefaultSimConfig is a nano board strapped to 0x2e.
var DefaultSimConfig = SimConfig{
	Base:     0x2e,
	ChipID:   0xd440,
	ECBase:   0x0295,
	Firmware: "M2ACT001",
}

// Simulator is an ioport.Port emulating the NCT6686D: the Super-I/O
// configuration ports and the EC register window with a counting
// watchdog. Ports it does not decode read as 0xff.
type Simulator struct {
	mu  sync.Mutex
	cfg SimConfig

	keys     int
	unlocked bool
	index    uint8
	ldn      uint8
	cr       map[[2]uint8]uint8

	page uint8
	addr uint8
	regs [1 << 16]uint8

	resets   int
	accesses int
}

func NewSimulator(c SimConfig) *Simulator {
	s := &Simulator{cfg: c, cr: map[[2]uint8]uint8{}, page: PAGE_IDLE}
	for i := 0; i < FWVER_LEN && i < len(c.Firmware); i++ {
		s.regs[FWVER_BASE+uint16(i)] = c.Firmware[i]
	}
	return s
}

func (s *Simulator) In8(port uint16) (uint8, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accesses++
	switch port {
	case s.cfg.Base:
		return s.index, nil
	case s.cfg.Base + 1:
		if !s.unlocked {
			return 0xff, nil
		}
		return s.readCR(s.index), nil
	case s.cfg.ECBase + PAGE_REG_OFFSET:
		return s.page, nil
	case s.cfg.ECBase + ADDR_REG_OFFSET:
		return s.addr, nil
	case s.cfg.ECBase + DATA_REG_OFFSET:
		return s.regs[uint16(s.page)<<8|uint16(s.addr)], nil
	}
	return 0xff, nil
}

func (s *Simulator) Out8(port uint16, v uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accesses++
	switch port {
	case s.cfg.Base:
		s.writeIndex(v)
	case s.cfg.Base + 1:
		if s.unlocked {
			s.writeCR(s.index, v)
		}
	case s.cfg.ECBase + PAGE_REG_OFFSET:
		s.page = v
	case s.cfg.ECBase + ADDR_REG_OFFSET:
		s.addr = v
	case s.cfg.ECBase + DATA_REG_OFFSET:
		s.regs[uint16(s.page)<<8|uint16(s.addr)] = v
	}
	return nil
}

func (s *Simulator) writeIndex(v uint8) {
	if !s.unlocked {
		if v == superio.EnterKey {
			s.keys++
			if s.keys == 2 {
				s.unlocked = true
				s.keys = 0
			}
		} else {
			s.keys = 0
		}
		return
	}
	if v == superio.ExitKey {
		s.unlocked = false
		return
	}
	s.index = v
}

func (s *Simulator) readCR(idx uint8) uint8 {
	switch {
	case idx == superio.RegLogicalDevice:
		return s.ldn
	case idx == superio.RegChipIDHigh:
		return uint8(s.cfg.ChipID >> 8)
	case idx == superio.RegChipIDLow:
		return uint8(s.cfg.ChipID)
	case s.ldn == LD_ECSPACE && idx == CR_ECBASE_HIGH:
		return uint8(s.cfg.ECBase >> 8)
	case s.ldn == LD_ECSPACE && idx == CR_ECBASE_LOW:
		return uint8(s.cfg.ECBase)
	}
	return s.cr[[2]uint8{s.ldn, idx}]
}

func (s *Simulator) writeCR(idx, v uint8) {
	switch idx {
	case superio.RegLogicalDevice:
		s.ldn = v
	case superio.RegChipIDHigh, superio.RegChipIDLow:
	default:
		s.cr[[2]uint8{s.ldn, idx}] = v
	}
}

// Reg returns EC register reg without going through the ports.
func (s *Simulator) Reg(reg uint16) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[reg]
}

// SetReg sets EC register reg without going through the ports.
func (s *Simulator) SetReg(reg uint16, v uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs[reg] = v
}

// Unlocked reports whether extended function mode is entered.
func (s *Simulator) Unlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unlocked
}

// Page returns the EC page register.
func (s *Simulator) Page() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Accesses counts port reads and writes.
func (s *Simulator) Accesses() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accesses
}

// Resets counts how many times the watchdog fired.
func (s *Simulator) Resets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}

// Tick advances the watchdog n seconds. When an enabled counter reaches
// zero the timer fires: trigger event 1 is recorded and the timer is
// disabled.
func (s *Simulator) Tick(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ; n > 0; n-- {
		if s.regs[WDT_CFG]&WDT_CFG_EN == 0 || s.regs[WDT_CNT] == 0 {
			return
		}
		s.regs[WDT_CNT]--
		if s.regs[WDT_CNT] == 0 {
			s.regs[WDT_STS] = s.regs[WDT_STS]&^WDT_STS_EVT_MSK | 1<<WDT_STS_EVT_POS
			s.regs[WDT_CFG] &^= WDT_CFG_EN
			s.resets++
			log.Warnf("simulated watchdog fired (reset %d)", s.resets)
		}
	}
}

// Run ticks the simulator once a second until ctx is done.
func (s *Simulator) Run(ctx context.Context) error {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.Tick(1)
		}
	}
}
