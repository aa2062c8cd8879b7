// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hardware

import (
	"testing"

	"github.com/u-root/nuvwdt/config"
	"github.com/u-root/nuvwdt/pkg/hardware/nct6686"
)

func TestOpenSim(t *testing.T) {
	c := config.Default().Hardware
	c.Backend = config.BackendSim
	h, err := Open(c)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()
	if h.Sim == nil {
		t.Fatal("simulated backend has no simulator")
	}
	chip, err := nct6686.Probe(h.Port, h.Arbiter, nct6686.ProbeOpts{Ports: c.Ports})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if chip.Variant != nct6686.NanoVariant {
		t.Errorf("Variant = %v, want %v", chip.Variant, nct6686.NanoVariant)
	}
}

func TestOpenUnknown(t *testing.T) {
	if _, err := Open(config.Hardware{Backend: "isa"}); err == nil {
		t.Errorf("Open(isa) returned nil error")
	}
}
