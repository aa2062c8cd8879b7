// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nct6686

import (
	"fmt"

	"github.com/u-root/nuvwdt/pkg/watchdog"
)

const (
	Identity       = "NUVOTON Watchdog"
	DefaultTimeout = 60
	MinTimeout     = 1
	MaxTimeout     = 255
)

// Options advertised by the driver.
const Options = watchdog.OptionSetTimeout | watchdog.OptionKeepalivePing | watchdog.OptionMagicClose

// Watchdog implements watchdog.Ops on the EC watchdog registers.
// It is not safe for concurrent use; watchdog.Device serializes calls.
type Watchdog struct {
	ec      *EC
	chip    *Chip
	timeout uint
}

var _ watchdog.Ops = &Watchdog{}

func NewWatchdog(ec *EC, chip *Chip) *Watchdog {
	return &Watchdog{ec: ec, chip: chip, timeout: DefaultTimeout}
}

func (w *Watchdog) Info() watchdog.Info {
	return watchdog.Info{Options: Options, Identity: Identity}
}

// Config returns the watchdog.Config for a Device driving w.
func (w *Watchdog) Config(timeout uint, nowayout bool) watchdog.Config {
	return watchdog.Config{
		Info:       w.Info(),
		Ops:        w,
		Timeout:    timeout,
		MinTimeout: MinTimeout,
		MaxTimeout: MaxTimeout,
		Nowayout:   nowayout,
	}
}

func trace(op string) {
	log.Debugf("nuv:%s()", op)
}

func (w *Watchdog) enable(en bool) error {
	return w.ec.update(WDT_CFG, func(v uint8) uint8 {
		if en {
			return v | WDT_CFG_ARM
		}
		return v &^ WDT_CFG_EN
	})
}

// setTime loads the counter and enables the timer, or disables it when
// seconds is zero.
func (w *Watchdog) setTime(seconds uint8) error {
	trace("wdt_set_time")
	if err := w.ec.Write(WDT_CNT, seconds); err != nil {
		return err
	}
	return w.enable(seconds != 0)
}

func (w *Watchdog) clearEvent() error {
	return w.ec.update(WDT_STS, func(v uint8) uint8 {
		return v &^ WDT_STS_EVT_MSK
	})
}

// Arm loads the counter with seconds and clears the trigger status.
func (w *Watchdog) Arm(seconds uint8) error {
	if err := w.setTime(seconds); err != nil {
		return err
	}
	return w.clearEvent()
}

// Start arms the timer with the stored timeout.
func (w *Watchdog) Start() error {
	trace("wdt_start")
	if w.timeout > MaxTimeout {
		return fmt.Errorf("timeout %d: %w", w.timeout, watchdog.ErrInvalidTimeout)
	}
	return w.Arm(uint8(w.timeout))
}

// Stop disables the timer. The trigger status is left alone.
func (w *Watchdog) Stop() error {
	trace("wdt_stop")
	return w.setTime(0)
}

// SetTimeout only records the value. It reaches the hardware on the next
// Start.
func (w *Watchdog) SetTimeout(seconds uint) error {
	trace("wdt_set_timeout")
	w.timeout = seconds
	return nil
}

// TimeLeft returns the counter register.
func (w *Watchdog) TimeLeft() (uint, error) {
	trace("wdt_get_time")
	v, err := w.ec.Read(WDT_CNT)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}

// InitHardware brings the timer into a known state at load. A timer left
// running by firmware is disabled when earlyDisable is set, otherwise its
// counter is reloaded with the stored timeout. The trigger status is
// always cleared. It reports whether the timer is left running.
func (w *Watchdog) InitHardware(earlyDisable bool) (bool, error) {
	if _, err := w.ec.Read(WDT_CNT); err != nil {
		return false, err
	}
	cfg, err := w.ec.Read(WDT_CFG)
	if err != nil {
		return false, err
	}
	running := cfg&WDT_CFG_EN != 0
	if running {
		if earlyDisable {
			log.Warnf("Stopping previously enabled watchdog until userland kicks in")
			if err := w.ec.Write(WDT_CFG, cfg&^WDT_CFG_EN); err != nil {
				return false, err
			}
			if err := w.ec.Write(WDT_CNT, 0); err != nil {
				return false, err
			}
			running = false
		} else {
			log.Infof("Watchdog already running. Resetting timeout to %d sec", w.timeout)
			if err := w.ec.Write(WDT_CNT, uint8(w.timeout)); err != nil {
				return running, err
			}
		}
	}
	return running, w.clearEvent()
}

// Status is a snapshot of the watchdog registers.
type Status struct {
	Config  uint8
	Counter uint8
	Status  uint8
}

func (s Status) Enabled() bool {
	return s.Config&WDT_CFG_EN != 0
}

// Event is the last trigger event recorded by the EC.
func (s Status) Event() uint8 {
	return (s.Status & WDT_STS_EVT_MSK) >> WDT_STS_EVT_POS
}

func (s Status) String() string {
	return fmt.Sprintf("cfg=%#02x cnt=%d sts=%#02x", s.Config, s.Counter, s.Status)
}

// ReadStatus reads the three watchdog registers.
func ReadStatus(ec *EC) (Status, error) {
	var s Status
	for _, r := range []struct {
		reg uint16
		v   *uint8
	}{
		{WDT_CFG, &s.Config},
		{WDT_CNT, &s.Counter},
		{WDT_STS, &s.Status},
	} {
		v, err := ec.Read(r.reg)
		if err != nil {
			return s, err
		}
		*r.v = v
	}
	return s, nil
}

func (w *Watchdog) Status() (Status, error) {
	return ReadStatus(w.ec)
}

func (w *Watchdog) Chip() *Chip {
	return w.chip
}
