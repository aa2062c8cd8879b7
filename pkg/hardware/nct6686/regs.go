// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nct6686

const (
	// Super-I/O configuration space.
	LD_ECSPACE     uint8 = 0x0b
	CR_ECBASE_HIGH uint8 = 0x60
	CR_ECBASE_LOW  uint8 = 0x61

	CHIPID_MASK  uint16 = 0xfff0
	NCT6686DL_ID uint16 = 0xd440

	// EC window port offsets.
	PAGE_REG_OFFSET uint16 = 0
	ADDR_REG_OFFSET uint16 = 1
	DATA_REG_OFFSET uint16 = 2
	EC_WINDOW_LEN   uint16 = 3

	// Value of the page register when nobody is using the window.
	PAGE_IDLE uint8 = 0xff

	// Customized watchdog, EC page 8.
	WDT_CFG uint16 = 0x828
	WDT_CNT uint16 = 0x829
	WDT_STS uint16 = 0x82a

	// WDT_CFG bit 0 enables the timer. Arming writes both low bits.
	WDT_CFG_EN  uint8 = 1 << 0
	WDT_CFG_ARM uint8 = 0x3

	// WDT_STS bits[1:0] hold the last trigger event.
	WDT_STS_EVT_POS       = 0
	WDT_STS_EVT_MSK uint8 = 0x3 << WDT_STS_EVT_POS

	// Firmware version tag, EC page 6, 0x18-0x1f.
	FWVER_BASE uint16 = 0x618
	FWVER_LEN         = 8

	// Firmware tag prefix of the customized (nano) firmware.
	NANO_FW_SIGNATURE = "M2ACT"
)
