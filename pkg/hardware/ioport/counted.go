// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ioport

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	portReads = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nuvwdt",
		Subsystem: "ioport",
		Name:      "reads_total",
		Help:      "Number of byte reads issued to I/O ports",
	})
	portWrites = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nuvwdt",
		Subsystem: "ioport",
		Name:      "writes_total",
		Help:      "Number of byte writes issued to I/O ports",
	})
	portErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "nuvwdt",
		Subsystem: "ioport",
		Name:      "errors_total",
		Help:      "Number of I/O port accesses that returned an error",
	})
)

func init() {
	prometheus.MustRegister(portReads)
	prometheus.MustRegister(portWrites)
	prometheus.MustRegister(portErrors)
}

// Counted wraps a Port and counts every access.
type Counted struct {
	Port
}

func (c Counted) In8(port uint16) (uint8, error) {
	portReads.Inc()
	v, err := c.Port.In8(port)
	if err != nil {
		portErrors.Inc()
	}
	return v, err
}

func (c Counted) Out8(port uint16, value uint8) error {
	portWrites.Inc()
	err := c.Port.Out8(port, value)
	if err != nil {
		portErrors.Inc()
	}
	return err
}

func (c Counted) Close() error {
	return Close(c.Port)
}
