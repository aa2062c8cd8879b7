// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ioport provides byte-wide access to legacy x86 I/O ports.
//
// Everything above this package talks to hardware through the Port
// capability, so the Super-I/O and embedded controller protocols can be
// driven against real ports or against an in-memory simulation.
package ioport

import (
	"errors"
	"fmt"
)

// Port is the minimal capability needed to drive an indexed port protocol.
// Implementations must issue every access in call order; nothing may be
// cached, merged or reordered.
type Port interface {
	In8(port uint16) (uint8, error)
	Out8(port uint16, value uint8) error
}

// Closer is implemented by backends holding an OS resource.
type Closer interface {
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemio   = "memio"
	BackendDevPort = "devport"
)

var ErrUnsupported = errors.New("port I/O not supported on this platform")

// Open returns the named hardware backend.
func Open(backend string) (Port, error) {
	switch backend {
	case BackendMemio:
		return openMemio()
	case BackendDevPort:
		return OpenDevPort(DevPortPath)
	}
	return nil, fmt.Errorf("unknown port backend %q", backend)
}

// Close closes p if the backend holds resources.
func Close(p Port) error {
	if c, ok := p.(Closer); ok {
		return c.Close()
	}
	return nil
}
