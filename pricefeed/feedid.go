// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pricefeed

import (
	"encoding/hex"

	"github.com/bitmark-inc/pricecache/fault"
)

// FeedIDLength - bytes in a feed identifier
const FeedIDLength = 32

// FeedID - identifier of one price feed
type FeedID [FeedIDLength]byte

// String - hex form for %s
func (id FeedID) String() string {
	return hex.EncodeToString(id[:])
}

// GoString - for %#v
func (id FeedID) GoString() string {
	return "<feed:" + hex.EncodeToString(id[:]) + ">"
}

// MarshalText - convert feed id to hex text
func (id FeedID) MarshalText() ([]byte, error) {
	buffer := make([]byte, hex.EncodedLen(len(id)))
	hex.Encode(buffer, id[:])
	return buffer, nil
}

// UnmarshalText - convert hex text into a feed id
func (id *FeedID) UnmarshalText(s []byte) error {
	fid, err := FeedIDFromHex(string(s))
	if nil != err {
		return err
	}
	*id = fid
	return nil
}

// FeedIDFromHex - parse 64 hex characters, an optional 0x prefix is
// accepted
func FeedIDFromHex(s string) (FeedID, error) {
	id := FeedID{}
	if len(s) >= 2 && ("0x" == s[:2] || "0X" == s[:2]) {
		s = s[2:]
	}
	if hex.EncodedLen(FeedIDLength) != len(s) {
		return id, fault.ErrInvalidFeedID
	}
	if _, err := hex.Decode(id[:], []byte(s)); nil != err {
		return id, fault.ErrInvalidFeedID
	}
	return id, nil
}
