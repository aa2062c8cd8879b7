// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// nctdump probes for the NCT6686D and dumps its watchdog registers and
// optionally a whole EC page. It takes the same port locks as nuvwdtd,
// so it fails with "resource busy" instead of interleaving with it.
package main

import (
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"
	"github.com/u-root/nuvwdt/config"
	"github.com/u-root/nuvwdt/pkg/hardware"
	"github.com/u-root/nuvwdt/pkg/hardware/nct6686"
)

var (
	backend = flag.String("backend", config.DefaultConfig.Hardware.Backend, "Port I/O backend: memio, devport or sim")
	lockDir = flag.String("lock_dir", config.DefaultConfig.Hardware.LockDir, "Directory of the port lock files")
	skipFW  = flag.Bool("skip_chk_fwver", false, "Accept any NCT6686D firmware")
	page    = flag.Int("page", -1, "EC page to dump, -1 for none")
)

func dumpPage(w io.Writer, ec *nct6686.EC, page uint8) error {
	b, err := ec.ReadBlock(uint16(page)<<8, 256)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "EC page %#02x:\n", page)
	fmt.Fprintf(w, "     00 01 02 03 04 05 06 07 08 09 0a 0b 0c 0d 0e 0f\n")
	for row := 0; row < 256; row += 16 {
		fmt.Fprintf(w, "%02x: ", row)
		for _, v := range b[row : row+16] {
			fmt.Fprintf(w, "%02x ", v)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func dump(w io.Writer, hw *hardware.Hardware, c config.Hardware, skip bool, page int) error {
	chip, err := nct6686.Probe(hw.Port, hw.Arbiter, nct6686.ProbeOpts{Ports: c.Ports, SkipFirmwareCheck: skip})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Chip:     %s\n", chip.Variant)
	fmt.Fprintf(w, "Chip ID:  %#04x\n", chip.ID)
	fmt.Fprintf(w, "Port:     %#x\n", chip.Port)
	fmt.Fprintf(w, "EC base:  %#04x\n", chip.ECBase)
	if chip.Firmware != "" {
		fmt.Fprintf(w, "Firmware: %s\n", chip.Firmware)
	}

	ec := chip.EC(hw.Port, hw.Arbiter)
	st, err := nct6686.ReadStatus(ec)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "WDT_CFG:  %#02x (enabled=%t)\n", st.Config, st.Enabled())
	fmt.Fprintf(w, "WDT_CNT:  %d\n", st.Counter)
	fmt.Fprintf(w, "WDT_STS:  %#02x (event=%d)\n", st.Status, st.Event())

	if page >= 0 {
		return dumpPage(w, ec, uint8(page))
	}
	return nil
}

func main() {
	flag.Parse()

	c := config.Default().Hardware
	c.Backend = *backend
	c.LockDir = *lockDir
	if *page > 0xff {
		fmt.Fprintf(os.Stderr, "page %d out of range\n", *page)
		os.Exit(2)
	}

	hw, err := hardware.Open(c)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer hw.Close()
	if err := dump(os.Stdout, hw, c, *skipFW, *page); err != nil {
		fmt.Fprintln(os.Stderr, err)
		hw.Close()
		os.Exit(1)
	}
}
