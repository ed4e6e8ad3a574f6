// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package configuration - parse a Lua configuration file
//
// most of base Lua is available such as reading files to set key data
// and getenv to extract environment supplied items.  Values given on
// the command line appear in the global "arg" table.
//
// The file is watched while the daemon runs and the readiness
// thresholds are reloaded when it changes; other settings need a
// restart.
package configuration
