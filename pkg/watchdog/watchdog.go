// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package watchdog is a small watchdog device framework.
//
// Drivers implement Ops. Device layers the generic policy on top: timeout
// limits, nowayout, keepalive pings, and the active state of the timer.
// Drivers keep no policy of their own.
package watchdog

import (
	"errors"
	"fmt"
	"sync"

	"github.com/u-root/nuvwdt/pkg/logger"
)

// Option flags reported in Info, as defined by linux/watchdog.h.
const (
	OptionSetTimeout    uint32 = 0x0080
	OptionMagicClose    uint32 = 0x0100
	OptionPretimeout    uint32 = 0x0200
	OptionKeepalivePing uint32 = 0x8000
)

var (
	ErrInvalidTimeout = errors.New("invalid timeout")
	ErrNowayout       = errors.New("watchdog cannot be stopped (nowayout)")
	ErrNotSupported   = errors.New("operation not supported")
)

var log = logger.LogContainer.GetSimpleLogger()

// Info describes a watchdog driver.
type Info struct {
	Options         uint32
	FirmwareVersion uint32
	Identity        string
}

// Ops are the driver callbacks.
type Ops interface {
	// Start arms the timer with the current timeout.
	Start() error
	// Stop disarms the timer.
	Stop() error
	// SetTimeout records the timeout used by the next Start.
	SetTimeout(seconds uint) error
	// TimeLeft returns the seconds until the timer fires.
	TimeLeft() (uint, error)
}

// Config is used to create a Device.
type Config struct {
	Info       Info
	Ops        Ops
	Timeout    uint
	MinTimeout uint
	MaxTimeout uint
	Nowayout   bool
}

// Device serializes all access to a driver and applies the framework
// policy.
type Device struct {
	mu       sync.Mutex
	info     Info
	ops      Ops
	timeout  uint
	min, max uint
	nowayout bool
	active   bool
}

// New creates a Device. A Timeout outside [MinTimeout, MaxTimeout] is
// ignored with a warning and def is used instead.
func New(c Config, def uint) (*Device, error) {
	if c.Ops == nil {
		return nil, errors.New("watchdog: no driver ops")
	}
	if c.MinTimeout == 0 || c.MaxTimeout < c.MinTimeout {
		return nil, fmt.Errorf("watchdog: bad timeout limits [%d, %d]", c.MinTimeout, c.MaxTimeout)
	}
	d := &Device{
		info:     c.Info,
		ops:      c.Ops,
		min:      c.MinTimeout,
		max:      c.MaxTimeout,
		nowayout: c.Nowayout,
	}
	t := c.Timeout
	if !d.valid(t) {
		if t != 0 {
			log.Warnf("Specified timeout value %d out of range, using default %d", t, def)
		}
		t = def
	}
	if !d.valid(t) {
		return nil, fmt.Errorf("watchdog: default timeout %d: %w", t, ErrInvalidTimeout)
	}
	if err := d.ops.SetTimeout(t); err != nil {
		return nil, err
	}
	d.timeout = t
	return d, nil
}

func (d *Device) valid(t uint) bool {
	return t >= d.min && t <= d.max
}

func (d *Device) Info() Info {
	return d.info
}

func (d *Device) Nowayout() bool {
	return d.nowayout
}

// Active reports whether the timer was started through this device.
func (d *Device) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

func (d *Device) Timeout() uint {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timeout
}

// MarkRunning records that the hardware timer was found running at load,
// so it is pinged like one started through Start.
func (d *Device) MarkRunning() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = true
}

// Start arms the timer.
func (d *Device) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ops.Start(); err != nil {
		return err
	}
	d.active = true
	return nil
}

// Stop disarms the timer unless nowayout is set.
func (d *Device) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.nowayout && d.active {
		return ErrNowayout
	}
	if err := d.ops.Stop(); err != nil {
		return err
	}
	d.active = false
	return nil
}

// Ping restarts the countdown of an active timer. The driver has no ping
// callback, so this is a Start. Pinging an inactive timer does nothing.
func (d *Device) Ping() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ping()
}

func (d *Device) ping() error {
	if !d.active {
		return nil
	}
	return d.ops.Start()
}

// SetTimeout changes the timeout and returns the one in effect. An active
// timer is pinged so the new value takes effect immediately.
func (d *Device) SetTimeout(t uint) (uint, error) {
	if d.info.Options&OptionSetTimeout == 0 {
		return 0, ErrNotSupported
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.valid(t) {
		return d.timeout, fmt.Errorf("%d not in [%d, %d]: %w", t, d.min, d.max, ErrInvalidTimeout)
	}
	if err := d.ops.SetTimeout(t); err != nil {
		return d.timeout, err
	}
	d.timeout = t
	return d.timeout, d.ping()
}

// TimeLeft reads the remaining seconds from the driver.
func (d *Device) TimeLeft() (uint, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ops.TimeLeft()
}

// SetPretimeout fails unless the driver supports pretimeouts.
func (d *Device) SetPretimeout(t uint) error {
	if d.info.Options&OptionPretimeout == 0 {
		return ErrNotSupported
	}
	return fmt.Errorf("pretimeout %d: %w", t, ErrNotSupported)
}

// Pretimeout is always zero.
func (d *Device) Pretimeout() uint {
	return 0
}

// BootStatus reports why the system last rebooted. The driver does not
// interpret the trigger status, so this is always zero.
func (d *Device) BootStatus() uint32 {
	return 0
}

// Shutdown stops an active timer when the device goes away, unless
// nowayout is set.
func (d *Device) Shutdown() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return nil
	}
	if d.nowayout {
		log.Warnf("nowayout is set, watchdog keeps running with %ds timeout", d.timeout)
		return nil
	}
	if err := d.ops.Stop(); err != nil {
		return err
	}
	d.active = false
	return nil
}
