// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package keepalive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/u-root/nuvwdt/pkg/hardware/region"
)

type fakeTarget struct {
	mu      sync.Mutex
	busy    int
	err     error
	calls   int
	timeout uint
}

func (f *fakeTarget) Timeout() uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.timeout
}

func (f *fakeTarget) Ping() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.busy > 0 {
		f.busy--
		return fmt.Errorf("claim: %w", region.ErrBusy)
	}
	return f.err
}

func (f *fakeTarget) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestInterval(t *testing.T) {
	for timeout, want := range map[uint]time.Duration{
		60:  30 * time.Second,
		1:   time.Second,
		255: 127500 * time.Millisecond,
	} {
		if got := Interval(timeout); got != want {
			t.Errorf("Interval(%d) = %v, want %v", timeout, got, want)
		}
	}
}

func TestOnceRetriesBusy(t *testing.T) {
	clk := clock.NewFake()
	f := &fakeTarget{busy: 2, timeout: 20}
	p := New(f, clk)

	if err := p.Once(context.Background()); err != nil {
		t.Fatalf("Once: %v", err)
	}
	if f.Calls() != 3 {
		t.Errorf("calls = %d, want 3", f.Calls())
	}
	if !p.LastPing().Equal(clk.Now()) {
		t.Errorf("LastPing = %v, want %v", p.LastPing(), clk.Now())
	}
	clk.Add(7 * time.Second)
	if got := p.Since(); got != 7*time.Second {
		t.Errorf("Since = %v, want 7s", got)
	}
}

func TestOnceFatalNotRetried(t *testing.T) {
	boom := errors.New("boom")
	f := &fakeTarget{err: boom, timeout: 20}
	p := New(f, clock.NewFake())

	if err := p.Once(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Once = %v, want %v", err, boom)
	}
	if f.Calls() != 1 {
		t.Errorf("calls = %d, want 1", f.Calls())
	}
	if !p.LastPing().IsZero() || p.Since() != 0 {
		t.Errorf("failed ping recorded as success")
	}
}

func TestOnceBusyGivesUp(t *testing.T) {
	f := &fakeTarget{busy: 1 << 30, timeout: 1}
	p := New(f, clock.NewFake())
	p.interval = func(uint) time.Duration { return 100 * time.Millisecond }
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	err := p.Once(ctx)
	if !errors.Is(err, region.ErrBusy) {
		t.Errorf("Once = %v, want ErrBusy", err)
	}
	// Retries stop after half the interval, well before ctx expires.
	if d := time.Since(start); d > time.Second {
		t.Errorf("Once took %v, want about 50ms", d)
	}
	if n := f.Calls(); n < 2 || n > 20 {
		t.Errorf("calls = %d, want a few backed-off retries", n)
	}
}

func TestRun(t *testing.T) {
	f := &fakeTarget{timeout: 10}
	p := New(f, clock.New())
	p.interval = func(timeout uint) time.Duration { return time.Duration(timeout) * time.Millisecond }
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- p.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for f.Calls() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	// A shorter timeout shortens the interval.
	f.mu.Lock()
	f.timeout = 2
	f.mu.Unlock()
	n := f.Calls()
	for f.Calls() < n+5 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run = %v", err)
	}
	if f.Calls() < n+5 {
		t.Errorf("calls = %d, want at least %d", f.Calls(), n+5)
	}
}
