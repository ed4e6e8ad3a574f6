// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package feed

import (
	"encoding/binary"

	"github.com/bitmark-inc/pricecache/fault"
	"github.com/bitmark-inc/pricecache/pricefeed"
)

const slotFrameLength = 8

// Frames - encode a slot message for sending
func Frames(slot uint64, raw []byte) [][]byte {
	s := make([]byte, slotFrameLength)
	binary.BigEndian.PutUint64(s, slot)
	return [][]byte{s, raw}
}

// Decode - convert received frames to a message
func Decode(frames [][]byte) (pricefeed.Message, error) {
	if 2 != len(frames) || slotFrameLength != len(frames[0]) || 0 == len(frames[1]) {
		return pricefeed.Message{}, fault.ErrInvalidFrame
	}
	return pricefeed.Message{
		Slot: binary.BigEndian.Uint64(frames[0]),
		Raw:  frames[1],
	}, nil
}
