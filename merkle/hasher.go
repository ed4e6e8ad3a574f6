// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle

import (
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/pricecache/fault"
)

// names accepted by HasherByName
const (
	Keccak256Name = "keccak256"
	Keccak160Name = "keccak160"
)

// Hasher - fixed width hash over an ordered list of byte strings
//
// a tree is built, proven and verified with exactly one hasher; the
// digests of different hashers are never comparable
type Hasher interface {
	Hashv(parts ...[]byte) Digest
	Size() int
	Name() string
}

type keccak256 struct{}
type keccak160 struct{}

// Keccak256 - full 32 byte Keccak-256 digest of the concatenated parts
var Keccak256 Hasher = keccak256{}

// Keccak160 - the first 20 bytes of the Keccak-256 digest
//
// this trades collision resistance (80 bit birthday bound instead of
// 128 bit) for cheaper verification on cost constrained verifiers
var Keccak160 Hasher = keccak160{}

func (keccak256) Hashv(parts ...[]byte) Digest {
	return keccak(parts)
}

func (keccak256) Size() int    { return 32 }
func (keccak256) Name() string { return Keccak256Name }

func (keccak160) Hashv(parts ...[]byte) Digest {
	d := keccak(parts)
	return d[:20:20]
}

func (keccak160) Size() int    { return 20 }
func (keccak160) Name() string { return Keccak160Name }

func keccak(parts [][]byte) Digest {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// HasherByName - select a hasher from its configuration name
func HasherByName(name string) (Hasher, error) {
	switch strings.ToLower(name) {
	case Keccak256Name:
		return Keccak256, nil
	case Keccak160Name:
		return Keccak160, nil
	default:
		return nil, fault.ErrInvalidHasher
	}
}
