// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package region

import (
	"errors"
	"testing"

	pt "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLocalClaim(t *testing.T) {
	l := NewLocal()
	sio := Range{Name: "superio", Start: 0x2e, Len: 2}
	g, err := l.Claim(sio)
	if err != nil {
		t.Fatalf("Claim(%v): %v", sio, err)
	}
	if !l.Held(0x2e) || !l.Held(0x2f) {
		t.Errorf("ports of %v not held after claim", sio)
	}

	before := pt.ToFloat64(busyTotal.WithLabelValues("superio"))
	if _, err := l.Claim(sio); !errors.Is(err, ErrBusy) {
		t.Errorf("second Claim(%v) = %v, want ErrBusy", sio, err)
	}
	if v := pt.ToFloat64(busyTotal.WithLabelValues("superio")); v != before+1 {
		t.Errorf("busy metric = %v, want %v", v, before+1)
	}

	// Different name, overlapping port.
	if _, err := l.Claim(Range{Name: "other", Start: 0x2f, Len: 1}); !errors.Is(err, ErrBusy) {
		t.Errorf("overlapping claim = %v, want ErrBusy", err)
	}
	// Disjoint range is fine.
	ec, err := l.Claim(Range{Name: "ec", Start: 0x295, Len: 3})
	if err != nil {
		t.Fatalf("disjoint claim: %v", err)
	}
	ec.Release()

	if err := g.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := g.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
	if l.Held(0x2e) {
		t.Errorf("port 0x2e still held after release")
	}
	g, err = l.Claim(sio)
	if err != nil {
		t.Fatalf("Claim after release: %v", err)
	}
	g.Release()
}

func TestLocalInvalidRange(t *testing.T) {
	l := NewLocal()
	for _, r := range []Range{
		{Name: "empty", Start: 0x2e},
		{Name: "wrap", Start: 0xffff, Len: 2},
	} {
		if _, err := l.Claim(r); err == nil || errors.Is(err, ErrBusy) {
			t.Errorf("Claim(%v) = %v, want validation error", r, err)
		}
	}
}

func TestFileLock(t *testing.T) {
	dir := t.TempDir()
	a := &FileLock{Dir: dir}
	b := &FileLock{Dir: dir}
	r := Range{Name: "ec", Start: 0x295, Len: 3}

	g, err := a.Claim(r)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if _, err := b.Claim(Range{Name: "ec", Start: 0x297, Len: 1}); !errors.Is(err, ErrBusy) {
		t.Errorf("overlapping file claim = %v, want ErrBusy", err)
	}
	if err := g.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	g, err = b.Claim(r)
	if err != nil {
		t.Fatalf("Claim after release: %v", err)
	}
	g.Release()
}

func TestChainReleasesOnFailure(t *testing.T) {
	first := NewLocal()
	second := NewLocal()
	r := Range{Name: "superio", Start: 0x4e, Len: 2}

	blocker, err := second.Claim(r)
	if err != nil {
		t.Fatal(err)
	}
	c := Chain{first, second}
	if _, err := c.Claim(r); !errors.Is(err, ErrBusy) {
		t.Fatalf("chain claim = %v, want ErrBusy", err)
	}
	if first.Held(0x4e) {
		t.Errorf("first arbiter still holds 0x4e after chain failure")
	}
	blocker.Release()

	g, err := c.Claim(r)
	if err != nil {
		t.Fatalf("chain claim: %v", err)
	}
	if !first.Held(0x4e) || !second.Held(0x4f) {
		t.Errorf("chain claim did not hold both arbiters")
	}
	g.Release()
	if first.Held(0x4e) || second.Held(0x4e) {
		t.Errorf("chain release left ports held")
	}
}
