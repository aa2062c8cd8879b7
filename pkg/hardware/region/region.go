// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package region arbitrates exclusive use of I/O port ranges.
//
// A claim never waits. If any port of the requested range is held, Claim
// fails with ErrBusy and the caller must not touch the hardware.
package region

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ErrBusy is returned when a range is already claimed by someone else.
var ErrBusy = errors.New("resource busy")

var busyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "nuvwdt",
	Subsystem: "region",
	Name:      "busy_total",
	Help:      "Number of port range claims rejected because the range was held",
}, []string{"region"})

func init() {
	prometheus.MustRegister(busyTotal)
}

// Range is a named span of I/O ports, [Start, Start+Len).
type Range struct {
	Name  string
	Start uint16
	Len   uint16
}

func (r Range) String() string {
	return fmt.Sprintf("%s[%#04x-%#04x]", r.Name, r.Start, uint32(r.Start)+uint32(r.Len)-1)
}

func (r Range) validate() error {
	if r.Len == 0 {
		return fmt.Errorf("empty port range %s", r.Name)
	}
	if uint32(r.Start)+uint32(r.Len) > 0x10000 {
		return fmt.Errorf("port range %s exceeds I/O space", r)
	}
	return nil
}

// Arbiter hands out exclusive claims on port ranges.
type Arbiter interface {
	Claim(r Range) (*Guard, error)
}

// Guard represents a held claim. Release may be called any number of
// times; only the first call releases.
type Guard struct {
	r       Range
	once    sync.Once
	release func() error
	err     error
}

func newGuard(r Range, release func() error) *Guard {
	return &Guard{r: r, release: release}
}

func (g *Guard) Range() Range {
	return g.r
}

func (g *Guard) Release() error {
	g.once.Do(func() {
		if g.release != nil {
			g.err = g.release()
		}
	})
	return g.err
}

func busy(r Range, detail string) error {
	busyTotal.WithLabelValues(r.Name).Inc()
	return fmt.Errorf("claim %s: %w (%s)", r, ErrBusy, detail)
}

// Chain claims the range from every arbiter in order. A failure releases
// whatever was already taken.
type Chain []Arbiter

func (c Chain) Claim(r Range) (*Guard, error) {
	held := make([]*Guard, 0, len(c))
	for _, a := range c {
		g, err := a.Claim(r)
		if err != nil {
			for i := len(held) - 1; i >= 0; i-- {
				held[i].Release()
			}
			return nil, err
		}
		held = append(held, g)
	}
	return newGuard(r, func() error {
		var first error
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Release(); err != nil && first == nil {
				first = err
			}
		}
		return first
	}), nil
}
