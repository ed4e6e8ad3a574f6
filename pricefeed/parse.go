// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pricefeed

import (
	"fmt"

	proto "github.com/gogo/protobuf/proto"

	"github.com/bitmark-inc/pricecache/fault"
)

// Batch - decoded and validated content of one slot
type Batch struct {
	Slot    uint64
	Time    int64     // explicit timestamp, else the latest publish time
	Records []*Record // decoded records in leaf order
	Items   [][]byte  // canonical record bytes, the accumulator leaves
}

// ParseBatch - decode the raw bytes received for a slot
//
// all failures are a *MalformedError matching fault.ErrMalformedBatch
// and, through errors.Is, the underlying cause
func ParseBatch(slot uint64, raw []byte) (*Batch, error) {
	m := &BatchMessage{}
	if err := proto.Unmarshal(raw, m); nil != err {
		return nil, malformed(err)
	}

	// zero means the publisher left the slot to the transport
	if 0 != m.Slot && slot != m.Slot {
		return nil, malformed(fault.ErrSlotMismatch)
	}
	if 0 == len(m.Records) {
		return nil, malformed(fault.ErrBatchEmpty)
	}

	batch := &Batch{
		Slot:    slot,
		Time:    m.Timestamp,
		Records: make([]*Record, len(m.Records)),
		Items:   m.Records,
	}

	seen := make(map[FeedID]struct{}, len(m.Records))
	latest := int64(0)
	for i, item := range m.Records {
		record, err := UnpackRecord(item)
		if nil != err {
			return nil, malformed(fmt.Errorf("record[%d]: %w", i, err))
		}
		if _, ok := seen[record.ID]; ok {
			return nil, malformed(fmt.Errorf("record[%d]: %w", i, fault.ErrDuplicateFeed))
		}
		seen[record.ID] = struct{}{}
		if record.PublishTime > latest {
			latest = record.PublishTime
		}
		batch.Records[i] = record
	}

	if 0 == batch.Time {
		batch.Time = latest
	}
	if batch.Time <= 0 {
		return nil, malformed(fault.ErrInvalidTime)
	}
	return batch, nil
}

// MalformedError - a batch rejected by ParseBatch
//
// matches fault.ErrMalformedBatch and unwraps to the cause
type MalformedError struct {
	Cause error
}

func (e *MalformedError) Error() string {
	return fault.ErrMalformedBatch.Error() + ": " + e.Cause.Error()
}

// Is - every malformed batch is fault.ErrMalformedBatch
func (e *MalformedError) Is(target error) bool {
	return fault.ErrMalformedBatch == target
}

// As - keeps the invalid class whatever the cause
func (e *MalformedError) As(target interface{}) bool {
	if p, ok := target.(*fault.InvalidError); ok {
		*p = fault.ErrMalformedBatch
		return true
	}
	return false
}

// Unwrap - the underlying cause
func (e *MalformedError) Unwrap() error {
	return e.Cause
}

func malformed(err error) error {
	return &MalformedError{Cause: err}
}
