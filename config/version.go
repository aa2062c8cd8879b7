// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

// Set at link time with -ldflags "-X".
var (
	gitVersion = "dev"
	gitHash    = "unknown"
)
