// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package readiness - health signal from staleness and slot lag
package readiness

import (
	"time"

	"github.com/bitmark-inc/pricecache/counter"
)

// defaults for thresholds
const (
	DefaultStalenessThreshold = 5 * time.Second
	DefaultMaxSlotLag         = 10
)

// Clock - source of the current time
type Clock func() time.Time

// State - a copy of the tracked values
type State struct {
	LatestObservedSlot  uint64    `json:"latestObservedSlot"`
	LatestCompletedSlot uint64    `json:"latestCompletedSlot"`
	LastCompletedTime   time.Time `json:"lastCompletedTime"`
	CompletedCount      uint64    `json:"completedCount"`
}

// Tracker - written by the ingestion pipeline, read by anyone
type Tracker struct {
	clock Clock

	observed       counter.Counter
	completed      counter.Counter
	completedTime  counter.Counter // unix nanoseconds
	completedCount counter.Counter

	staleness counter.Counter // nanoseconds
	maxLag    counter.Counter
}

// New - tracker with default thresholds, nil clock means time.Now
func New(clock Clock) *Tracker {
	if nil == clock {
		clock = time.Now
	}
	t := &Tracker{
		clock: clock,
	}
	t.SetThresholds(DefaultStalenessThreshold, DefaultMaxSlotLag)
	return t
}

// SetThresholds - replace the thresholds used by Ready
func (t *Tracker) SetThresholds(staleness time.Duration, maxSlotLag uint64) {
	t.staleness.Store(uint64(staleness))
	t.maxLag.Store(maxSlotLag)
}

// Thresholds - current values used by Ready
func (t *Tracker) Thresholds() (time.Duration, uint64) {
	return time.Duration(t.staleness.Uint64()), t.maxLag.Uint64()
}

// Observe - a slot has been seen, even if not yet processed
func (t *Tracker) Observe(slot uint64) {
	t.observed.SetMax(slot)
}

// Complete - a slot has been verified and committed
func (t *Tracker) Complete(slot uint64, at time.Time) {
	t.observed.SetMax(slot)
	t.completed.SetMax(slot)
	t.completedTime.SetMax(uint64(at.UnixNano()))
	t.completedCount.Increment()
}

// LatestCompleted - highest completed slot, false if none
func (t *Tracker) LatestCompleted() (uint64, bool) {
	if t.completedCount.IsZero() {
		return 0, false
	}
	return t.completed.Uint64(), true
}

// IsReady - both the staleness and the slot lag are within bounds
//
// always false until the first slot completes
func (t *Tracker) IsReady(stalenessThreshold time.Duration, maxSlotLag uint64) bool {
	if t.completedCount.IsZero() {
		return false
	}

	last := time.Unix(0, int64(t.completedTime.Uint64()))
	if t.clock().Sub(last) > stalenessThreshold {
		return false
	}

	completed := t.completed.Uint64()
	observed := t.observed.Uint64()
	if observed > completed && observed-completed > maxSlotLag {
		return false
	}
	return true
}

// Ready - IsReady with the configured thresholds
func (t *Tracker) Ready() bool {
	staleness, lag := t.Thresholds()
	return t.IsReady(staleness, lag)
}

// State - current values
func (t *Tracker) State() State {
	s := State{
		LatestObservedSlot:  t.observed.Uint64(),
		LatestCompletedSlot: t.completed.Uint64(),
		CompletedCount:      t.completedCount.Uint64(),
	}
	if 0 != s.CompletedCount {
		s.LastCompletedTime = time.Unix(0, int64(t.completedTime.Uint64()))
	}
	return s
}
