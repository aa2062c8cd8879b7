// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nct6686

import (
	"errors"
	"testing"

	"github.com/u-root/nuvwdt/pkg/hardware/ioport/iotest"
	"github.com/u-root/nuvwdt/pkg/hardware/region"
)

const testECBase = 0x0295

func TestECReadPaged(t *testing.T) {
	fp := iotest.New(t)
	ec := &EC{Port: fp, Base: testECBase, Arbiter: region.NewLocal()}

	fp.ExpectOut(0x295, 0xff)
	fp.ExpectOut(0x295, 0x08)
	fp.ExpectOut(0x296, 0x28)
	fp.FakeIn(0x297, 0x03)
	fp.ExpectOut(0x295, 0xff)

	v, err := ec.Read(WDT_CFG)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v != 0x03 {
		t.Errorf("Read(WDT_CFG) = %#02x, want 0x03", v)
	}
	fp.Done()
}

func TestECWritePaged(t *testing.T) {
	fp := iotest.New(t)
	ec := &EC{Port: fp, Base: testECBase, Arbiter: region.NewLocal()}

	fp.ExpectOut(0x295, 0xff)
	fp.ExpectOut(0x295, 0x08)
	fp.ExpectOut(0x296, 0x29)
	fp.ExpectOut(0x297, 0x3c)
	fp.ExpectOut(0x295, 0xff)

	if err := ec.Write(WDT_CNT, 60); err != nil {
		t.Fatalf("Write: %v", err)
	}
	fp.Done()
}

func TestECPageZeroNoReset(t *testing.T) {
	fp := iotest.New(t)
	ec := &EC{Port: fp, Base: testECBase, Arbiter: region.NewLocal()}

	fp.ExpectOut(0x295, 0xff)
	fp.ExpectOut(0x295, 0x00)
	fp.ExpectOut(0x296, 0x10)
	fp.FakeIn(0x297, 0x42)

	if _, err := ec.Read(0x0010); err != nil {
		t.Fatalf("Read: %v", err)
	}
	fp.Done()
}

func TestECBusy(t *testing.T) {
	fp := iotest.New(t)
	arb := region.NewLocal()
	ec := &EC{Port: fp, Base: testECBase, Arbiter: arb}

	g, err := arb.Claim(region.Range{Name: "hwmon", Start: 0x296, Len: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Release()

	if _, err := ec.Read(WDT_CNT); !errors.Is(err, region.ErrBusy) {
		t.Errorf("Read with window held = %v, want ErrBusy", err)
	}
	if err := ec.Write(WDT_CNT, 1); !errors.Is(err, region.ErrBusy) {
		t.Errorf("Write with window held = %v, want ErrBusy", err)
	}
	// No port access may happen.
	fp.Done()
}

func TestECRoundTrip(t *testing.T) {
	sim := NewSimulator(DefaultSimConfig)
	arb := region.NewLocal()
	ec := &EC{Port: sim, Base: DefaultSimConfig.ECBase, Arbiter: arb}

	for _, reg := range []uint16{0x0012, 0x0828, 0x0829, 0x1234, 0xff00} {
		want := uint8(reg) ^ 0x5a
		if err := ec.Write(reg, want); err != nil {
			t.Fatalf("Write(%#04x): %v", reg, err)
		}
		got, err := ec.Read(reg)
		if err != nil {
			t.Fatalf("Read(%#04x): %v", reg, err)
		}
		if got != want {
			t.Errorf("Read(%#04x) = %#02x, want %#02x", reg, got, want)
		}
		if sim.Reg(reg) != want {
			t.Errorf("register %#04x = %#02x, want %#02x", reg, sim.Reg(reg), want)
		}
		if reg&0xff00 != 0 && sim.Page() != PAGE_IDLE {
			t.Errorf("page after access to %#04x = %#02x, want idle", reg, sim.Page())
		}
		if arb.Held(DefaultSimConfig.ECBase) {
			t.Errorf("EC window still claimed after access to %#04x", reg)
		}
	}
}

func TestECReadBlock(t *testing.T) {
	sim := NewSimulator(SimConfig{Base: 0x2e, ChipID: 0xd440, ECBase: 0x295, Firmware: "M2ACT\x00zz"})
	ec := &EC{Port: sim, Base: 0x295, Arbiter: region.NewLocal()}

	raw, err := ec.ReadBlock(FWVER_BASE, FWVER_LEN)
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if got := FirmwareString(raw); got != "M2ACT" {
		t.Errorf("FirmwareString = %q, want %q", got, "M2ACT")
	}
}

func TestSetBankIdempotent(t *testing.T) {
	sim := NewSimulator(DefaultSimConfig)
	ec := &EC{Port: sim, Base: DefaultSimConfig.ECBase, Arbiter: region.NewLocal()}
	sim.SetReg(WDT_CNT, 0x2a)

	for n := 1; n <= 2; n++ {
		for i := 0; i < n; i++ {
			if err := ec.setBank(WDT_CNT); err != nil {
				t.Fatal(err)
			}
		}
		if err := sim.Out8(ec.addr(), uint8(WDT_CNT&0xff)); err != nil {
			t.Fatal(err)
		}
		v, err := sim.In8(ec.data())
		if err != nil {
			t.Fatal(err)
		}
		if v != 0x2a {
			t.Errorf("setBank x%d then read = %#02x, want 0x2a", n, v)
		}
	}
}
