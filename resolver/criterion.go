// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package resolver

import (
	"strconv"
)

type kind int

const (
	latest kind = iota + 1
	atOrAfter
)

// Criterion - what to look up
type Criterion struct {
	kind kind
	time int64
}

// Latest - the newest entry
func Latest() Criterion {
	return Criterion{kind: latest}
}

// AtOrAfter - the first entry with time >= t
func AtOrAfter(t int64) Criterion {
	return Criterion{kind: atOrAfter, time: t}
}

// String - for %s
func (c Criterion) String() string {
	switch c.kind {
	case latest:
		return "latest"
	case atOrAfter:
		return "at-or-after:" + strconv.FormatInt(c.time, 10)
	default:
		return "*invalid*"
	}
}
