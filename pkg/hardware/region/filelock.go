// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package region

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// DefaultLockDir holds one lock file per claimed port.
const DefaultLockDir = "/run/lock/nuvwdt"

// FileLock extends exclusion to other processes using flock(2) on one
// file per port. Locks belong to the open file, so two claims from the
// same process also exclude each other.
type FileLock struct {
	Dir string
}

func (f *FileLock) path(port uint16) string {
	return filepath.Join(f.Dir, fmt.Sprintf("ioport-%04x.lock", port))
}

func (f *FileLock) Claim(r Range) (*Guard, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(f.Dir, 0755); err != nil {
		return nil, fmt.Errorf("lock dir %s: %w", f.Dir, err)
	}
	files := make([]*os.File, 0, r.Len)
	unlock := func() error {
		var first error
		for i := len(files) - 1; i >= 0; i-- {
			if err := unix.Flock(int(files[i].Fd()), unix.LOCK_UN); err != nil && first == nil {
				first = err
			}
			files[i].Close()
		}
		return first
	}
	for i := uint32(0); i < uint32(r.Len); i++ {
		p := uint16(uint32(r.Start) + i)
		fl, err := os.OpenFile(f.path(p), os.O_RDWR|os.O_CREATE, 0644)
		if err != nil {
			unlock()
			return nil, fmt.Errorf("lock port %#04x: %w", p, err)
		}
		if err := unix.Flock(int(fl.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
			fl.Close()
			unlock()
			if errors.Is(err, unix.EWOULDBLOCK) {
				return nil, busy(r, fmt.Sprintf("port %#04x locked by another process", p))
			}
			return nil, fmt.Errorf("lock port %#04x: %w", p, err)
		}
		files = append(files, fl)
	}
	return newGuard(r, unlock), nil
}
