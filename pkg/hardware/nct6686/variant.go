// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nct6686

import (
	"bytes"
	"strings"
)

// Variant is the result of matching a chip ID and firmware tag.
type Variant int

const (
	Unrecognized Variant = iota
	// BaseFamily is any NCT6686D regardless of firmware.
	BaseFamily
	// NanoVariant is the NCT6686D running the customized M2ACT firmware.
	NanoVariant
)

var variantNames = map[Variant]string{
	Unrecognized: "unrecognized",
	BaseFamily:   "NCT6686D",
	NanoVariant:  "NCT6686D_NANO",
}

func (v Variant) String() string {
	if s, ok := variantNames[v]; ok {
		return s
	}
	return "unknown"
}

// MatchChip matches a chip ID. The low nibble is the stepping and is
// ignored.
func MatchChip(id uint16) Variant {
	if id&CHIPID_MASK == NCT6686DL_ID {
		return BaseFamily
	}
	return Unrecognized
}

// Refine narrows a base family match using the firmware tag. Only the
// nano firmware is supported; anything else is Unrecognized.
func Refine(v Variant, fw string) Variant {
	if v != BaseFamily {
		return Unrecognized
	}
	if strings.HasPrefix(fw, NANO_FW_SIGNATURE) {
		return NanoVariant
	}
	return Unrecognized
}

// Identify is MatchChip followed by Refine.
func Identify(id uint16, fw string) Variant {
	return Refine(MatchChip(id), fw)
}

// FirmwareString converts the raw tag to a string ending at the first NUL.
func FirmwareString(raw []byte) string {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return string(raw)
}
