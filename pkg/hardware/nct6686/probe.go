// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package nct6686 supports the watchdog of the Nuvoton NCT6686D Super-I/O
// running the customized "nano" EC firmware.
//
// The chip is found through its Super-I/O configuration ports, which also
// tell where the embedded controller register window lives. The watchdog
// itself is three EC registers: configuration, counter and status.
package nct6686

import (
	"errors"
	"fmt"

	"github.com/u-root/nuvwdt/pkg/hardware/ioport"
	"github.com/u-root/nuvwdt/pkg/hardware/region"
	"github.com/u-root/nuvwdt/pkg/hardware/superio"
	"github.com/u-root/nuvwdt/pkg/logger"
	"go.uber.org/multierr"
)

// ErrNoDevice is returned when no supported chip answers.
var ErrNoDevice = errors.New("no such device")

// DefaultPorts are the Super-I/O bases tried, in order.
var DefaultPorts = []uint16{0x4e, 0x2e}

var log = logger.LogContainer.GetSimpleLogger()

// ProbeOpts controls discovery.
type ProbeOpts struct {
	// Ports are tried in order, first match wins. Empty means DefaultPorts.
	Ports []uint16
	// SkipFirmwareCheck accepts any NCT6686D without reading the tag.
	SkipFirmwareCheck bool
}

// Chip describes a discovered controller. It does not change after
// discovery.
type Chip struct {
	Variant Variant
	// ID is the raw chip ID including the stepping nibble.
	ID uint16
	// Port is the Super-I/O base the chip answered on.
	Port uint16
	// ECBase is the EC register window base.
	ECBase uint16
	// Firmware is the firmware tag, empty when the check was skipped.
	Firmware string
}

func (c *Chip) String() string {
	return fmt.Sprintf("%v (id %#04x, port %#x, ec_base %#x)", c.Variant, c.ID, c.Port, c.ECBase)
}

// EC returns the register window of c.
func (c *Chip) EC(p ioport.Port, arb region.Arbiter) *EC {
	return &EC{Port: p, Base: c.ECBase, Arbiter: arb}
}

func noDevice(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNoDevice, fmt.Sprintf(format, args...))
}

// readConfig reads chip identity and EC base inside an extended mode
// session.
func readConfig(s *superio.Session, base uint16) (*Chip, error) {
	id, err := s.ChipID()
	if err != nil {
		return nil, fmt.Errorf("read chip id at %#x: %w", base, err)
	}
	c := &Chip{ID: id, Port: base, Variant: MatchChip(id)}
	masked := id & CHIPID_MASK
	if c.Variant == Unrecognized {
		log.Errorf("Unsupported chip ID: %#x", masked)
		return nil, noDevice("chip id %#04x at %#x", masked, base)
	}
	log.Infof("Chip found: ChipID=%#X (with ID mask)", masked)

	if err := s.Select(LD_ECSPACE); err != nil {
		return nil, fmt.Errorf("select EC space at %#x: %w", base, err)
	}
	ecBase, err := s.Read16(CR_ECBASE_HIGH, CR_ECBASE_LOW)
	if err != nil {
		return nil, fmt.Errorf("read EC base at %#x: %w", base, err)
	}
	if ecBase == 0 || ecBase == 0xffff {
		log.Errorf("Wrong address for EC Space: CR60/61=%#x", ecBase)
		return nil, noDevice("invalid EC base %#04x", ecBase)
	}
	c.ECBase = ecBase
	return c, nil
}

// Discover looks for the chip at one Super-I/O base. The Super-I/O claim
// is fully released before the EC window is touched.
func Discover(p ioport.Port, arb region.Arbiter, base uint16, skipFirmwareCheck bool) (*Chip, error) {
	b := &superio.Bridge{Port: p, Base: base, Arbiter: arb}
	s, err := b.Enter()
	if err != nil {
		return nil, noDevice("superio %#x: %v", base, err)
	}
	log.Infof("Search port %#X...", base)

	c, err := readConfig(s, base)
	if xerr := s.Exit(); xerr != nil && err == nil {
		err = fmt.Errorf("exit extended mode at %#x: %w", base, xerr)
	}
	if err != nil {
		return nil, err
	}

	if skipFirmwareCheck {
		return c, nil
	}

	raw, err := c.EC(p, arb).ReadBlock(FWVER_BASE, FWVER_LEN)
	if err != nil {
		return nil, noDevice("read firmware tag: %v", err)
	}
	c.Firmware = FirmwareString(raw)
	c.Variant = Refine(c.Variant, c.Firmware)
	if c.Variant == Unrecognized {
		log.Errorf("Unsupported FW Ver: %q", c.Firmware)
		return nil, noDevice("firmware %q", c.Firmware)
	}
	return c, nil
}

// Probe runs Discover on each candidate base until one succeeds.
func Probe(p ioport.Port, arb region.Arbiter, o ProbeOpts) (*Chip, error) {
	ports := o.Ports
	if len(ports) == 0 {
		ports = DefaultPorts
	}
	var errs error
	for _, base := range ports {
		c, err := Discover(p, arb, base, o.SkipFirmwareCheck)
		if err == nil {
			return c, nil
		}
		log.Debugf("Probe %#x: %v", base, err)
		errs = multierr.Append(errs, fmt.Errorf("port %#x: %v", base, err))
	}
	return nil, fmt.Errorf("%w: %v", ErrNoDevice, errs)
}
