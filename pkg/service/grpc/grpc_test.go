// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grpc

import (
	"context"
	"net"
	"testing"

	pt "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/u-root/nuvwdt/config"
	"github.com/u-root/nuvwdt/pkg/hardware/nct6686"
	"github.com/u-root/nuvwdt/pkg/hardware/region"
	"github.com/u-root/nuvwdt/pkg/watchdog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type testServer struct {
	sim    *nct6686.Simulator
	arb    *region.Local
	ecBase uint16
	client *WatchdogClient
}

func startServer(t *testing.T, nowayout bool) *testServer {
	t.Helper()
	sim := nct6686.NewSimulator(nct6686.DefaultSimConfig)
	arb := region.NewLocal()
	chip, err := nct6686.Probe(sim, arb, nct6686.ProbeOpts{})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	w := nct6686.NewWatchdog(chip.EC(sim, arb), chip)
	dev, err := watchdog.New(w.Config(60, nowayout), nct6686.DefaultTimeout)
	if err != nil {
		t.Fatalf("watchdog.New: %v", err)
	}

	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	s := NewServer(l, dev, &config.Version{Version: "v1.0.0", GitHash: "abcdef"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- s.Serve(ctx) }()

	c, err := grpc.Dial(s.Addr().String(), grpc.WithInsecure())
	if err != nil {
		t.Fatalf("grpc.Dial: %v", err)
	}
	t.Cleanup(func() {
		c.Close()
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Serve: %v", err)
		}
	})
	return &testServer{sim: sim, arb: arb, ecBase: chip.ECBase, client: NewWatchdogClient(c)}
}

func wantCode(t *testing.T, what string, err error, code codes.Code) {
	t.Helper()
	if got := status.Code(err); got != code {
		t.Errorf("%s: code %v (%v), want %v", what, got, err, code)
	}
}

func TestGetSupport(t *testing.T) {
	ts := startServer(t, false)
	s, err := ts.client.GetSupport(context.Background())
	if err != nil {
		t.Fatalf("GetSupport: %v", err)
	}
	f := s.GetFields()
	if id := f["identity"].GetStringValue(); id != "NUVOTON Watchdog" {
		t.Errorf("identity = %q", id)
	}
	if opts := uint32(f["options"].GetNumberValue()); opts != 0x8180 {
		t.Errorf("options = %#x, want 0x8180", opts)
	}
}

func TestStartTimeLeftStop(t *testing.T) {
	ts := startServer(t, false)
	ctx := context.Background()
	c := ts.client

	if got, err := c.SetTimeout(ctx, 30); err != nil || got != 30 {
		t.Fatalf("SetTimeout(30) = %d, %v", got, err)
	}
	if got, err := c.GetTimeout(ctx); err != nil || got != 30 {
		t.Errorf("GetTimeout = %d, %v", got, err)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ts.sim.Tick(4)
	if got, err := c.GetTimeLeft(ctx); err != nil || got != 26 {
		t.Errorf("GetTimeLeft = %d, %v, want 26", got, err)
	}
	if err := c.Keepalive(ctx); err != nil {
		t.Fatalf("Keepalive: %v", err)
	}
	if got, _ := c.GetTimeLeft(ctx); got != 30 {
		t.Errorf("GetTimeLeft after keepalive = %d, want 30", got)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if ts.sim.Reg(nct6686.WDT_CFG)&nct6686.WDT_CFG_EN != 0 {
		t.Errorf("timer enabled after Stop")
	}
}

func TestErrorCodes(t *testing.T) {
	ts := startServer(t, true)
	ctx := context.Background()
	c := ts.client

	_, err := c.SetTimeout(ctx, 0)
	wantCode(t, "SetTimeout(0)", err, codes.InvalidArgument)
	_, err = c.SetTimeout(ctx, 256)
	wantCode(t, "SetTimeout(256)", err, codes.InvalidArgument)

	before := pt.ToFloat64(rpcErrors.WithLabelValues(codes.Unimplemented.String()))
	_, err = c.SetPretimeout(ctx, 10)
	wantCode(t, "SetPretimeout", err, codes.Unimplemented)
	if d := pt.ToFloat64(rpcErrors.WithLabelValues(codes.Unimplemented.String())) - before; d != 1 {
		t.Errorf("Unimplemented errors counted %v times, want 1", d)
	}
	if got, err := c.GetPretimeout(ctx); err != nil || got != 0 {
		t.Errorf("GetPretimeout = %d, %v", got, err)
	}
	if got, err := c.GetBootStatus(ctx); err != nil || got != 0 {
		t.Errorf("GetBootStatus = %d, %v", got, err)
	}

	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	wantCode(t, "Stop with nowayout", c.Stop(ctx), codes.FailedPrecondition)

	g, err := ts.arb.Claim(region.Range{Name: "hwmon", Start: ts.ecBase, Len: nct6686.EC_WINDOW_LEN})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Release()
	_, err = c.GetTimeLeft(ctx)
	wantCode(t, "GetTimeLeft while busy", err, codes.Unavailable)
	wantCode(t, "Keepalive while busy", c.Keepalive(ctx), codes.Unavailable)
}

func TestGetVersion(t *testing.T) {
	ts := startServer(t, false)
	s, err := ts.client.GetVersion(context.Background())
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	f := s.GetFields()
	if f["version"].GetStringValue() != "v1.0.0" || f["git_hash"].GetStringValue() != "abcdef" {
		t.Errorf("GetVersion = %v", s)
	}
}
