// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package keepalive pings a watchdog at half its timeout.
package keepalive

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmhodges/clock"
	"github.com/u-root/nuvwdt/pkg/hardware/region"
	"github.com/u-root/nuvwdt/pkg/logger"
	"github.com/u-root/nuvwdt/pkg/metric"
)

var (
	log = logger.LogContainer.GetSimpleLogger()

	pings = metric.Counter(metric.MetricOpts{
		Namespace: metric.Namespace,
		Subsystem: "keepalive",
		Name:      "pings_total",
	}, nil)
	failures = metric.Counter(metric.MetricOpts{
		Namespace: metric.Namespace,
		Subsystem: "keepalive",
		Name:      "failures_total",
	}, nil)
)

// Target is pinged by a Pinger.
type Target interface {
	Ping() error
	// Timeout is the current watchdog timeout in seconds.
	Timeout() uint
}

// Pinger keeps a Target alive. The interval follows the target timeout,
// so a timeout change takes effect at the next tick. A ping that finds
// the hardware busy is retried with backoff for up to half the interval;
// other errors are not retried.
type Pinger struct {
	target Target
	clk    clock.Clock
	// interval maps the target timeout to the ping interval.
	interval func(timeout uint) time.Duration

	mu   sync.Mutex
	last time.Time
}

func New(t Target, clk clock.Clock) *Pinger {
	return &Pinger{target: t, clk: clk, interval: Interval}
}

// Interval is the ping interval for a timeout: half of it, at least a
// second.
func Interval(timeout uint) time.Duration {
	d := time.Duration(timeout) * time.Second / 2
	if d < time.Second {
		d = time.Second
	}
	return d
}

func (p *Pinger) currentInterval() time.Duration {
	return p.interval(p.target.Timeout())
}

func (p *Pinger) retry(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = p.currentInterval() / 2
	b.Reset()
	return backoff.WithContext(b, ctx)
}

// Once pings the target, retrying while the hardware is busy.
func (p *Pinger) Once(ctx context.Context) error {
	op := func() error {
		err := p.target.Ping()
		if err == nil || errors.Is(err, region.ErrBusy) {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, d time.Duration) {
		log.Debugf("Keepalive busy, retrying in %v: %v", d, err)
	}
	if err := backoff.RetryNotify(op, p.retry(ctx), notify); err != nil {
		failures.Inc()
		return err
	}
	pings.Inc()
	p.mu.Lock()
	p.last = p.clk.Now()
	p.mu.Unlock()
	return nil
}

// Run pings until ctx is done. Failed pings are logged and counted, the
// next tick tries again.
func (p *Pinger) Run(ctx context.Context) error {
	d := p.currentInterval()
	log.Infof("Keepalive every %v", d)
	t := time.NewTicker(d)
	defer t.Stop()
	for {
		if err := p.Once(ctx); err != nil && ctx.Err() == nil {
			log.Warnf("Keepalive failed: %v", err)
		}
		if nd := p.currentInterval(); nd != d {
			log.Infof("Keepalive interval changed to %v", nd)
			d = nd
			t.Reset(d)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// LastPing is the time of the last successful ping, zero if none.
func (p *Pinger) LastPing() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Since is the time elapsed since the last successful ping.
func (p *Pinger) Since() time.Duration {
	last := p.LastPing()
	if last.IsZero() {
		return 0
	}
	return p.clk.Now().Sub(last)
}
