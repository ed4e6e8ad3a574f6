// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ratelimit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/pricecache/fault"
	"github.com/bitmark-inc/pricecache/rpc/ratelimit"
)

func TestLimit(t *testing.T) {
	limiter := rate.NewLimiter(1000, 10)
	assert.Nil(t, ratelimit.Limit(limiter), "first request")

	zero := rate.NewLimiter(0, 0)
	assert.Equal(t, fault.ErrRateLimiting, ratelimit.Limit(zero), "no burst")
}

func TestLimitN(t *testing.T) {
	limiter := rate.NewLimiter(1000, 10)
	assert.Nil(t, ratelimit.LimitN(limiter, 5, 10), "within burst")
	assert.Equal(t, fault.ErrInvalidCount, ratelimit.LimitN(limiter, 0, 10), "zero count")
	assert.Equal(t, fault.ErrInvalidCount, ratelimit.LimitN(limiter, 11, 10), "over maximum")
	assert.Equal(t, fault.ErrRateLimiting, ratelimit.LimitN(limiter, 20, 50), "over burst")
}

func TestLimitRefusesLongWait(t *testing.T) {
	slow := rate.NewLimiter(0.1, 1)
	assert.Nil(t, ratelimit.Limit(slow), "burst token")

	start := time.Now()
	assert.Equal(t, fault.ErrRateLimiting, ratelimit.Limit(slow), "ten second wait")
	assert.True(t, time.Since(start) < ratelimit.MaximumDelay, "refusal slept")
}
