// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ratelimit

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/pricecache/fault"
)

// MaximumDelay - a request that would have to wait longer than this
// is refused and its reservation returned to the limiter
const MaximumDelay = 2 * time.Second

// Limit - limiting for a single request
func Limit(limiter *rate.Limiter) error {
	return wait(limiter, 1)
}

// LimitN - limiting for a request covering count items
func LimitN(limiter *rate.Limiter, count int, maximumCount int) error {
	// invalid count gets limited as a single request
	if count <= 0 || count > maximumCount {
		if err := wait(limiter, 1); nil != err {
			return err
		}
		return fault.ErrInvalidCount
	}
	return wait(limiter, count)
}

func wait(limiter *rate.Limiter, n int) error {
	now := time.Now()
	r := limiter.ReserveN(now, n)
	if !r.OK() {
		return fault.ErrRateLimiting
	}
	delay := r.DelayFrom(now)
	if delay > MaximumDelay {
		r.CancelAt(now)
		return fault.ErrRateLimiting
	}
	time.Sleep(delay)
	return nil
}
