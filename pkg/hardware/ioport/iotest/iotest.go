// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package iotest provides a port that checks accesses against an ordered
// list of expectations.
package iotest

import (
	"fmt"
	"testing"
)

type op struct {
	write bool
	port  uint16
	data  uint8
}

func (o op) String() string {
	t := "inb"
	if o.write {
		t = "outb"
	}
	return fmt.Sprintf("{%s %#04x = %#02x}", t, o.port, o.data)
}

// Port replays an ordered list of expected port accesses. Any access out
// of order is reported on the test.
type Port struct {
	t   testing.TB
	ops []op
}

func New(t testing.TB) *Port {
	return &Port{t: t}
}

func (f *Port) next(what string) (op, bool) {
	f.t.Helper()
	if len(f.ops) == 0 {
		f.t.Errorf("unexpected %s, no more operations expected", what)
		return op{}, false
	}
	o := f.ops[0]
	f.ops = f.ops[1:]
	return o, true
}

func (f *Port) In8(port uint16) (uint8, error) {
	f.t.Helper()
	o, ok := f.next(fmt.Sprintf("inb %#04x", port))
	if !ok {
		return 0, nil
	}
	if o.write || o.port != port {
		f.t.Errorf("Expected %v, got inb %#04x", o, port)
	}
	return o.data, nil
}

func (f *Port) Out8(port uint16, v uint8) error {
	f.t.Helper()
	o, ok := f.next(fmt.Sprintf("outb %#02x, %#04x", v, port))
	if !ok {
		return nil
	}
	if !o.write || o.port != port || o.data != v {
		f.t.Errorf("Expected %v, got outb %#02x to %#04x", o, v, port)
	}
	return nil
}

// ExpectOut queues an expected write of v to port.
func (f *Port) ExpectOut(port uint16, v uint8) {
	f.ops = append(f.ops, op{true, port, v})
}

// FakeIn queues an expected read of port, answered with v.
func (f *Port) FakeIn(port uint16, v uint8) {
	f.ops = append(f.ops, op{false, port, v})
}

// Pending is the number of expected accesses not performed yet.
func (f *Port) Pending() int {
	return len(f.ops)
}

// Done reports any expected accesses that were not performed.
func (f *Port) Done() {
	f.t.Helper()
	if len(f.ops) != 0 {
		f.t.Errorf("%d expected operations not performed, next %v", len(f.ops), f.ops[0])
	}
}
