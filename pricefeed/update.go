// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pricefeed

import (
	"github.com/bitmark-inc/pricecache/fault"
	"github.com/bitmark-inc/pricecache/merkle"
)

// NewUpdate - bundle a record with its inclusion proof
func NewUpdate(item []byte, proof *merkle.Proof, slot uint64, time int64, tree *merkle.Tree) (*Update, error) {
	packed, err := proof.Pack()
	if nil != err {
		return nil, err
	}
	return &Update{
		Record: item,
		Proof:  packed,
		Slot:   slot,
		Root:   tree.Root(),
		Hasher: tree.Hasher().Name(),
		Time:   time,
	}, nil
}

// Verify - check the record against the root carried in the update
func (m *Update) Verify() error {
	hasher, err := merkle.HasherByName(m.Hasher)
	if nil != err {
		return err
	}
	root, err := merkle.DigestFromBytes(hasher, m.Root)
	if nil != err {
		return err
	}
	proof, err := merkle.UnpackProof(hasher, m.Proof)
	if nil != err {
		return err
	}
	if !proof.Verify(hasher, root, m.Record) {
		return fault.ErrProofVerificationFailed
	}
	return nil
}

// Decode - the price record carried by the update
func (m *Update) Decode() (*Record, error) {
	return UnpackRecord(m.Record)
}

// Path - the decoded inclusion proof
func (m *Update) Path() (*merkle.Proof, error) {
	hasher, err := merkle.HasherByName(m.Hasher)
	if nil != err {
		return nil, err
	}
	return merkle.UnpackProof(hasher, m.Proof)
}
