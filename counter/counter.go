// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package counter

import (
	"sync/atomic"
)

// Counter - type to denote a counter that can be safely updated from
// multiple goroutines, just a 64 bit unsigned integer
type Counter uint64

// Increment - add 1 to a counter, returns new value
func (ic *Counter) Increment() uint64 {
	return atomic.AddUint64((*uint64)(ic), 1)
}

// Decrement - subtract 1 from a counter, returns new value
func (ic *Counter) Decrement() uint64 {
	return atomic.AddUint64((*uint64)(ic), ^uint64(0))
}

// Add - add n to a counter, returns new value
func (ic *Counter) Add(n uint64) uint64 {
	return atomic.AddUint64((*uint64)(ic), n)
}

// Uint64 - returns current value
func (ic *Counter) Uint64() uint64 {
	return atomic.LoadUint64((*uint64)(ic))
}

// Store - overwrite the current value
func (ic *Counter) Store(n uint64) {
	atomic.StoreUint64((*uint64)(ic), n)
}

// SetMax - raise the counter to n if n is larger
//
// returns true if the value was changed
func (ic *Counter) SetMax(n uint64) bool {
	for {
		old := atomic.LoadUint64((*uint64)(ic))
		if n <= old {
			return false
		}
		if atomic.CompareAndSwapUint64((*uint64)(ic), old, n) {
			return true
		}
	}
}

// IsZero - check if zero
func (ic *Counter) IsZero() bool {
	return 0 == atomic.LoadUint64((*uint64)(ic))
}
