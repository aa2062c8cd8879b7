// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package region

import (
	"sync"
)

// Local arbitrates claims between goroutines of one process. Ports are
// tracked individually so overlapping ranges with different names still
// exclude each other.
type Local struct {
	mu     sync.Mutex
	owners map[uint16]string
}

func NewLocal() *Local {
	return &Local{owners: make(map[uint16]string)}
}

func (l *Local) Claim(r Range) (*Guard, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := uint32(0); i < uint32(r.Len); i++ {
		p := uint16(uint32(r.Start) + i)
		if owner, ok := l.owners[p]; ok {
			return nil, busy(r, "held by "+owner)
		}
	}
	for i := uint32(0); i < uint32(r.Len); i++ {
		l.owners[uint16(uint32(r.Start)+i)] = r.Name
	}
	return newGuard(r, func() error {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i := uint32(0); i < uint32(r.Len); i++ {
			delete(l.owners, uint16(uint32(r.Start)+i))
		}
		return nil
	}), nil
}

// Held reports whether port is currently claimed.
func (l *Local) Held(port uint16) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.owners[port]
	return ok
}
