// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"
)

// Backends accepted in Hardware.Backend.
const (
	BackendMemio   = "memio"
	BackendDevPort = "devport"
	BackendSim     = "sim"
)

type Version struct {
	Version string
	GitHash string
}

// Watchdog holds the driver parameters.
type Watchdog struct {
	// Timeout in seconds, 1 to 255. Other values are replaced by the
	// chip default when the device is set up.
	Timeout  uint `yaml:"timeout"`
	Nowayout bool `yaml:"nowayout"`
	// EarlyDisable stops a timer left running by firmware until a client
	// starts it again.
	EarlyDisable bool `yaml:"early_disable"`
	Debug        bool `yaml:"debug"`
	// SkipFirmwareCheck accepts any NCT6686D without reading the
	// firmware tag.
	SkipFirmwareCheck bool `yaml:"skip_chk_fwver"`
	// Keepalive makes the daemon ping the timer itself.
	Keepalive bool `yaml:"keepalive"`
}

type Hardware struct {
	Backend string   `yaml:"backend"`
	Ports   []uint16 `yaml:"ports"`
	LockDir string   `yaml:"lock_dir"`
}

type Service struct {
	Listen  string `yaml:"listen"`
	Metrics string `yaml:"metrics"`
}

type Log struct {
	File string `yaml:"file"`
}

type Config struct {
	Watchdog Watchdog `yaml:"watchdog"`
	Hardware Hardware `yaml:"hardware"`
	Service  Service  `yaml:"service"`
	Log      Log      `yaml:"log"`
	Version  Version  `yaml:"-"`
}

var DefaultConfig = &Config{
	Watchdog: Watchdog{
		Timeout: 60,
	},

	Hardware: Hardware{
		Backend: BackendDevPort,
		// Probe order of the Super-I/O configuration port.
		Ports:   []uint16{0x4e, 0x2e},
		LockDir: "/run/lock/nuvwdt",
	},

	Service: Service{
		Listen: "localhost:9371",
		// Same port allocation as u-bmc metrics.
		Metrics: "[::]:9370",
	},

	Version: Version{
		Version: gitVersion,
		GitHash: gitHash,
	},
}

// Default returns a copy of DefaultConfig.
func Default() *Config {
	c := *DefaultConfig
	c.Hardware.Ports = append([]uint16(nil), DefaultConfig.Hardware.Ports...)
	return &c
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults.
func Load(fs afero.Fs, path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, c.Validate()
	}
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(b, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, c.Validate()
}

func (c *Config) Validate() error {
	var errs error
	if len(c.Hardware.Ports) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("hardware.ports is empty"))
	}
	switch c.Hardware.Backend {
	case BackendMemio, BackendDevPort, BackendSim:
	default:
		errs = multierr.Append(errs, fmt.Errorf("hardware.backend %q unknown", c.Hardware.Backend))
	}
	if c.Service.Listen == "" {
		errs = multierr.Append(errs, fmt.Errorf("service.listen is empty"))
	}
	return errs
}
