// Copyright 2026 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux || !(amd64 || 386)
// +build !linux !amd64,!386

package ioport

func openMemio() (Port, error) {
	return nil, ErrUnsupported
}
