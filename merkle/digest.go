// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle

import (
	"bytes"
	"encoding/hex"

	"github.com/bitmark-inc/pricecache/fault"
)

// Digest - output of a Hasher
//
// the width depends on the hasher that produced it: 32 bytes for
// Keccak256 and 20 bytes for Keccak160
// represented as hex text for print and JSON encoding
type Digest []byte

// Equal - byte for byte comparison
func (digest Digest) Equal(other Digest) bool {
	return bytes.Equal(digest, other)
}

// convert a binary digest to hex string for use by the fmt package (for %s)
func (digest Digest) String() string {
	return hex.EncodeToString(digest)
}

// convert a binary digest to hex string for use by the fmt package (for %#v)
func (digest Digest) GoString() string {
	return "<digest:" + hex.EncodeToString(digest) + ">"
}

// MarshalText - convert digest to hex text
func (digest Digest) MarshalText() ([]byte, error) {
	size := hex.EncodedLen(len(digest))
	buffer := make([]byte, size)
	hex.Encode(buffer, digest)
	return buffer, nil
}

// UnmarshalText - convert hex text into a digest
func (digest *Digest) UnmarshalText(s []byte) error {
	buffer := make([]byte, hex.DecodedLen(len(s)))
	byteCount, err := hex.Decode(buffer, s)
	if nil != err {
		return err
	}
	*digest = buffer[:byteCount]
	return nil
}

// DigestFromBytes - convert and validate a byte slice for a given hasher
func DigestFromBytes(hasher Hasher, buffer []byte) (Digest, error) {
	if hasher.Size() != len(buffer) {
		return nil, fault.ErrWrongHasherForRoot
	}
	d := make(Digest, len(buffer))
	copy(d, buffer)
	return d, nil
}
