// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// wdtctl exercises a running nuvwdtd over gRPC.
//
// Usage:
//
//	wdtctl [flags] [simple|info|start|stop|timeleft|timeout SECONDS|keepalive]
//
// Without a command it runs the simple test: print support info and boot
// status, set the timeout to 45s, try a 10s pretimeout, then poll the
// time left once a second.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/jmhodges/clock"
	flag "github.com/spf13/pflag"
	"github.com/u-root/nuvwdt/pkg/keepalive"
	rpc "github.com/u-root/nuvwdt/pkg/service/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	addr       = flag.String("addr", "localhost:9371", "nuvwdtd gRPC address")
	count      = flag.Int("count", 0, "Number of time left polls, 0 polls forever")
	timeout    = flag.Uint32("timeout", 45, "Timeout set by the simple test")
	pretimeout = flag.Uint32("pretimeout", 10, "Pretimeout tried by the simple test")
)

type wdtClient interface {
	GetSupport(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetBootStatus(ctx context.Context, opts ...grpc.CallOption) (uint32, error)
	SetTimeout(ctx context.Context, seconds uint32, opts ...grpc.CallOption) (uint32, error)
	GetTimeout(ctx context.Context, opts ...grpc.CallOption) (uint32, error)
	SetPretimeout(ctx context.Context, seconds uint32, opts ...grpc.CallOption) (uint32, error)
	GetPretimeout(ctx context.Context, opts ...grpc.CallOption) (uint32, error)
	Start(ctx context.Context, opts ...grpc.CallOption) error
	Stop(ctx context.Context, opts ...grpc.CallOption) error
	Keepalive(ctx context.Context, opts ...grpc.CallOption) error
	GetTimeLeft(ctx context.Context, opts ...grpc.CallOption) (uint32, error)
}

type ctl struct {
	c     wdtClient
	out   io.Writer
	clk   clock.Clock
	polls int
}

func (t *ctl) info(ctx context.Context) error {
	s, err := t.c.GetSupport(ctx)
	if err != nil {
		return fmt.Errorf("GetSupport error '%v'", status.Convert(err).Message())
	}
	f := s.GetFields()
	fmt.Fprintf(t.out, "watchdog_info:\n")
	fmt.Fprintf(t.out, " identity:\t\t%s\n", f["identity"].GetStringValue())
	fmt.Fprintf(t.out, " firmware_version:\t%d\n", uint32(f["firmware_version"].GetNumberValue()))
	fmt.Fprintf(t.out, " options:\t\t%08x\n", uint32(f["options"].GetNumberValue()))
	return nil
}

func (t *ctl) simple(ctx context.Context, timeout, pretimeout uint32) error {
	if _, err := t.c.GetSupport(ctx); err != nil {
		return fmt.Errorf("GetSupport error '%v'", status.Convert(err).Message())
	}
	if flags, err := t.c.GetBootStatus(ctx); err != nil {
		fmt.Fprintf(t.out, "GetBootStatus error '%v'\n", status.Convert(err).Message())
	} else {
		cause := "Power-On-Reset"
		if flags != 0 {
			cause = "Watchdog"
		}
		fmt.Fprintf(t.out, "Last boot is caused by: %s.\n", cause)
	}

	if _, err := t.c.SetTimeout(ctx, timeout); err != nil {
		fmt.Fprintf(t.out, "SetTimeout error '%v'\n", status.Convert(err).Message())
	}
	if tg, err := t.c.GetTimeout(ctx); err != nil {
		fmt.Fprintf(t.out, "GetTimeout error '%v'\n", status.Convert(err).Message())
	} else {
		fmt.Fprintf(t.out, "The timeout was is %d seconds\n", tg)
	}

	if _, err := t.c.SetPretimeout(ctx, pretimeout); err != nil {
		fmt.Fprintf(t.out, "SetPretimeout error '%v'\n", status.Code(err))
	}
	if pg, err := t.c.GetPretimeout(ctx); err != nil {
		fmt.Fprintf(t.out, "GetPretimeout error '%v'\n", status.Code(err))
	} else {
		fmt.Fprintf(t.out, "The pretimeout was is %d seconds\n", pg)
	}

	if err := t.info(ctx); err != nil {
		return err
	}
	return t.timeleft(ctx)
}

// timeleft polls the time left once a second, t.polls times or until ctx
// is done when t.polls is 0.
func (t *ctl) timeleft(ctx context.Context) error {
	for i := 0; t.polls == 0 || i < t.polls; i++ {
		if i > 0 {
			t.clk.Sleep(time.Second)
		}
		if ctx.Err() != nil {
			return nil
		}
		left, err := t.c.GetTimeLeft(ctx)
		if err != nil {
			return fmt.Errorf("GetTimeLeft error '%v'", status.Convert(err).Message())
		}
		fmt.Fprintf(t.out, "The timeleft was is %d seconds\n", left)
	}
	return nil
}

// target adapts the client to keepalive.Target.
type target struct {
	ctx     context.Context
	c       wdtClient
	timeout uint
}

func (k *target) Ping() error {
	return k.c.Keepalive(k.ctx)
}

func (k *target) Timeout() uint {
	return k.timeout
}

func (t *ctl) keepalive(ctx context.Context) error {
	to, err := t.c.GetTimeout(ctx)
	if err != nil {
		return err
	}
	if err := t.c.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(t.out, "Watchdog started, pinging every %v\n", keepalive.Interval(uint(to)))
	return keepalive.New(&target{ctx: ctx, c: t.c, timeout: uint(to)}, t.clk).Run(ctx)
}

func (t *ctl) run(ctx context.Context, args []string) error {
	cmd := "simple"
	if len(args) > 0 {
		cmd = args[0]
	}
	switch cmd {
	case "simple":
		return t.simple(ctx, *timeout, *pretimeout)
	case "info":
		return t.info(ctx)
	case "start":
		return t.c.Start(ctx)
	case "stop":
		return t.c.Stop(ctx)
	case "timeleft":
		return t.timeleft(ctx)
	case "timeout":
		if len(args) < 2 {
			got, err := t.c.GetTimeout(ctx)
			fmt.Fprintf(t.out, "%d\n", got)
			return err
		}
		v, err := strconv.ParseUint(args[1], 0, 32)
		if err != nil {
			return err
		}
		got, err := t.c.SetTimeout(ctx, uint32(v))
		if err != nil {
			return err
		}
		fmt.Fprintf(t.out, "%d\n", got)
		return nil
	case "keepalive":
		return t.keepalive(ctx)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func main() {
	flag.Parse()

	conn, err := grpc.Dial(*addr, grpc.WithInsecure())
	if err != nil {
		fmt.Fprintf(os.Stderr, "watchdog: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	t := &ctl{c: rpc.NewWatchdogClient(conn), out: os.Stdout, clk: clock.New(), polls: *count}
	if err := t.run(ctx, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
