// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hardware opens the configured port backend and arbiter.
package hardware

import (
	"github.com/u-root/nuvwdt/config"
	"github.com/u-root/nuvwdt/pkg/hardware/ioport"
	"github.com/u-root/nuvwdt/pkg/hardware/nct6686"
	"github.com/u-root/nuvwdt/pkg/hardware/region"
	"github.com/u-root/nuvwdt/pkg/logger"
)

var log = logger.LogContainer.GetSimpleLogger()

// Hardware is an opened port backend plus the arbiter guarding it.
type Hardware struct {
	Port    ioport.Port
	Arbiter region.Arbiter
	// Sim is set for the simulated backend.
	Sim *nct6686.Simulator
}

// Open opens the backend named in c. Real backends are arbitrated both
// within the process and across processes through lock files in
// c.LockDir; the simulator only in-process.
func Open(c config.Hardware) (*Hardware, error) {
	if c.Backend == config.BackendSim {
		sim := nct6686.NewSimulator(nct6686.DefaultSimConfig)
		log.Warnf("Using simulated NCT6686D at %#x", nct6686.DefaultSimConfig.Base)
		return &Hardware{Port: ioport.Counted{Port: sim}, Arbiter: region.NewLocal(), Sim: sim}, nil
	}
	p, err := ioport.Open(c.Backend)
	if err != nil {
		return nil, err
	}
	return &Hardware{
		Port: ioport.Counted{Port: p},
		Arbiter: region.Chain{
			region.NewLocal(),
			&region.FileLock{Dir: c.LockDir},
		},
	}, nil
}

func (h *Hardware) Close() error {
	return ioport.Close(h.Port)
}
