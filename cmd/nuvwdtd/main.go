// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// nuvwdtd drives the NCT6686D watchdog and serves it over gRPC.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"

	"github.com/jmhodges/clock"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"github.com/u-root/nuvwdt/config"
	"github.com/u-root/nuvwdt/pkg/hardware"
	"github.com/u-root/nuvwdt/pkg/hardware/nct6686"
	"github.com/u-root/nuvwdt/pkg/keepalive"
	"github.com/u-root/nuvwdt/pkg/logger"
	"github.com/u-root/nuvwdt/pkg/metric"
	"github.com/u-root/nuvwdt/pkg/network/web"
	rpc "github.com/u-root/nuvwdt/pkg/service/grpc"
	"github.com/u-root/nuvwdt/pkg/watchdog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

var log = logger.LogContainer.GetSimpleLogger()

type flags struct {
	set        *flag.FlagSet
	configFile string
	conf       config.Config
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{set: flag.NewFlagSet("nuvwdtd", flag.ContinueOnError)}
	d := config.DefaultConfig
	fs := f.set
	fs.StringVar(&f.configFile, "config", "", "YAML configuration file")
	fs.UintVar(&f.conf.Watchdog.Timeout, "timeout", d.Watchdog.Timeout, "Watchdog timeout in seconds. 1 <= timeout <= 255, otherwise the default is used")
	fs.BoolVar(&f.conf.Watchdog.Nowayout, "nowayout", d.Watchdog.Nowayout, "Watchdog cannot be stopped once started")
	fs.BoolVar(&f.conf.Watchdog.EarlyDisable, "early_disable", d.Watchdog.EarlyDisable, "Disable watchdog at boot time")
	fs.BoolVar(&f.conf.Watchdog.Debug, "debug", d.Watchdog.Debug, "Trace every watchdog operation")
	fs.BoolVar(&f.conf.Watchdog.SkipFirmwareCheck, "skip_chk_fwver", d.Watchdog.SkipFirmwareCheck, "Accept any NCT6686D firmware")
	fs.BoolVar(&f.conf.Watchdog.Keepalive, "keepalive", d.Watchdog.Keepalive, "Ping the watchdog from the daemon")
	fs.StringVar(&f.conf.Hardware.Backend, "backend", d.Hardware.Backend, "Port I/O backend: memio, devport or sim")
	fs.StringVar(&f.conf.Hardware.LockDir, "lock_dir", d.Hardware.LockDir, "Directory of the port lock files")
	fs.StringVar(&f.conf.Service.Listen, "listen", d.Service.Listen, "gRPC listen address")
	fs.StringVar(&f.conf.Service.Metrics, "metrics", d.Service.Metrics, "Metrics listen address, empty to disable")
	fs.StringVar(&f.conf.Log.File, "log_file", d.Log.File, "Also log JSON lines to this file")
	return f, fs.Parse(args)
}

// load reads the config file and applies the flags that were set on top.
func (f *flags) load(fs afero.Fs) (*config.Config, error) {
	c, err := config.Load(fs, f.configFile)
	if err != nil {
		return nil, err
	}
	f.set.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "timeout":
			c.Watchdog.Timeout = f.conf.Watchdog.Timeout
		case "nowayout":
			c.Watchdog.Nowayout = f.conf.Watchdog.Nowayout
		case "early_disable":
			c.Watchdog.EarlyDisable = f.conf.Watchdog.EarlyDisable
		case "debug":
			c.Watchdog.Debug = f.conf.Watchdog.Debug
		case "skip_chk_fwver":
			c.Watchdog.SkipFirmwareCheck = f.conf.Watchdog.SkipFirmwareCheck
		case "keepalive":
			c.Watchdog.Keepalive = f.conf.Watchdog.Keepalive
		case "backend":
			c.Hardware.Backend = f.conf.Hardware.Backend
		case "lock_dir":
			c.Hardware.LockDir = f.conf.Hardware.LockDir
		case "listen":
			c.Service.Listen = f.conf.Service.Listen
		case "metrics":
			c.Service.Metrics = f.conf.Service.Metrics
		case "log_file":
			c.Log.File = f.conf.Log.File
		}
	})
	return c, c.Validate()
}

func registerMetrics(dev *watchdog.Device, p *keepalive.Pinger, v config.Version) {
	metric.Counter(metric.MetricOpts{
		Namespace: metric.Namespace,
		Name:      "version",
	}, []string{fmt.Sprintf("version=%q", v.Version), fmt.Sprintf("hash=%q", v.GitHash)}).Set(1)
	metric.Gauge(metric.MetricOpts{
		Namespace: metric.Namespace,
		Subsystem: "watchdog",
		Name:      "active",
	}, nil, func() float64 {
		if dev.Active() {
			return 1
		}
		return 0
	})
	metric.Gauge(metric.MetricOpts{
		Namespace: metric.Namespace,
		Subsystem: "watchdog",
		Name:      "timeout_seconds",
	}, nil, func() float64 {
		return float64(dev.Timeout())
	})
	metric.Gauge(metric.MetricOpts{
		Namespace: metric.Namespace,
		Subsystem: "watchdog",
		Name:      "time_left_seconds",
	}, nil, func() float64 {
		t, err := dev.TimeLeft()
		if err != nil {
			return -1
		}
		return float64(t)
	})
	if p != nil {
		metric.Gauge(metric.MetricOpts{
			Namespace: metric.Namespace,
			Subsystem: "keepalive",
			Name:      "since_last_seconds",
		}, nil, func() float64 {
			return p.Since().Seconds()
		})
	}
}

// initDevice finds the chip and brings up the watchdog device. A timeout
// out of range falls back to the default, as a running timer left by
// firmware still needs a driver.
func initDevice(hw *hardware.Hardware, conf *config.Config) (*watchdog.Device, error) {
	log.Info("WDT driver init...")
	chip, err := nct6686.Probe(hw.Port, hw.Arbiter, nct6686.ProbeOpts{
		Ports:             conf.Hardware.Ports,
		SkipFirmwareCheck: conf.Watchdog.SkipFirmwareCheck,
	})
	if err != nil {
		return nil, err
	}
	log.Infof("WDT driver for %s(port:%#X Super I/O chip initialising, ec_base=%#X)", chip.Variant, chip.Port, chip.ECBase)

	w := nct6686.NewWatchdog(chip.EC(hw.Port, hw.Arbiter), chip)
	dev, err := watchdog.New(w.Config(conf.Watchdog.Timeout, conf.Watchdog.Nowayout), nct6686.DefaultTimeout)
	if err != nil {
		return nil, err
	}
	running, err := w.InitHardware(conf.Watchdog.EarlyDisable)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize watchdog: %w", err)
	}
	if running {
		dev.MarkRunning()
	}
	return dev, nil
}

func run(ctx context.Context, conf *config.Config) error {
	hw, err := hardware.Open(conf.Hardware)
	if err != nil {
		return fmt.Errorf("open port backend: %w", err)
	}
	defer hw.Close()

	dev, err := initDevice(hw, conf)
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Shutdown(); err != nil {
			log.Errorf("Stopping watchdog: %v", err)
		}
	}()
	log.Infof("initialized. timeout=%d sec (nowayout=%t)", dev.Timeout(), dev.Nowayout())

	var pinger *keepalive.Pinger
	if conf.Watchdog.Keepalive {
		pinger = keepalive.New(dev, clock.New())
	}
	registerMetrics(dev, pinger, conf.Version)

	l, err := net.Listen("tcp", conf.Service.Listen)
	if err != nil {
		return fmt.Errorf("could not listen: %v", err)
	}
	var ws *web.WebServer
	if conf.Service.Metrics != "" {
		ws = web.NewWebserver()
		metric.StartMetrics(ws.Mux)
		if err := ws.SetServer(conf.Service.Metrics); err != nil {
			l.Close()
			return fmt.Errorf("metrics: %v", err)
		}
	}
	rs := rpc.NewServer(l, dev, &conf.Version)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rs.Serve(ctx) })
	if ws != nil {
		g.Go(func() error { return ws.Serve(ctx) })
	}
	if pinger != nil {
		g.Go(func() error { return pinger.Run(ctx) })
	}
	if hw.Sim != nil {
		g.Go(func() error {
			hw.Sim.Run(ctx)
			return nil
		})
	}
	return g.Wait()
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	conf, err := f.load(afero.NewOsFs())
	if err != nil {
		log.Fatalf("Configuration: %v", err)
	}
	if err := logger.Configure(logger.Options{Debug: conf.Watchdog.Debug, File: conf.Log.File}); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	log.Infof("nuvwdtd %s (%s)", conf.Version.Version, conf.Version.GitHash)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	defer stop()
	if err := run(ctx, conf); err != nil {
		log.Errorf("%v", err)
		logger.Sync()
		os.Exit(1)
	}
}
