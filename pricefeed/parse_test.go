// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pricefeed_test

import (
	"errors"
	"testing"

	proto "github.com/gogo/protobuf/proto"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/pricecache/fault"
	"github.com/bitmark-inc/pricecache/merkle"
	"github.com/bitmark-inc/pricecache/pricefeed"
)

func TestParseBatch(t *testing.T) {
	records := []*pricefeed.Record{
		makeRecord(1, 1000),
		makeRecord(2, 1003),
		makeRecord(3, 998),
	}
	raw, err := pricefeed.PackBatch(42, 0, records)
	assert.Nil(t, err, "pack")

	batch, err := pricefeed.ParseBatch(42, raw)
	assert.Nil(t, err, "parse")
	assert.Equal(t, uint64(42), batch.Slot, "slot")
	assert.Equal(t, int64(1003), batch.Time, "time is latest publish time")
	assert.Equal(t, records, batch.Records, "records")
	for i, r := range records {
		assert.Equal(t, r.Pack(), batch.Items[i], "item %d", i)
	}

	// explicit timestamp wins
	raw, _ = pricefeed.PackBatch(43, 2000, records)
	batch, err = pricefeed.ParseBatch(43, raw)
	assert.Nil(t, err, "parse")
	assert.Equal(t, int64(2000), batch.Time, "explicit time")

	// slot left to the transport
	raw, _ = pricefeed.PackBatch(0, 0, records)
	batch, err = pricefeed.ParseBatch(44, raw)
	assert.Nil(t, err, "parse")
	assert.Equal(t, uint64(44), batch.Slot, "transport slot")
}

func TestParseBatchMalformed(t *testing.T) {
	good, _ := pricefeed.PackBatch(5, 0, []*pricefeed.Record{makeRecord(1, 10)})
	dup, _ := pricefeed.PackBatch(5, 0, []*pricefeed.Record{makeRecord(1, 10), makeRecord(1, 11)})
	empty, _ := pricefeed.PackBatch(5, 0, nil)
	unset := makeRecord(1, 0)
	unset.PrevPublishTime = 0
	noTime, _ := pricefeed.PackBatch(5, 0, []*pricefeed.Record{unset})
	short, _ := proto.Marshal(&pricefeed.BatchMessage{Slot: 5, Records: [][]byte{{0, 1, 2}}})

	tests := []struct {
		name  string
		slot  uint64
		raw   []byte
		cause error
	}{
		{"garbage", 5, []byte{0xff, 0xff, 0xff}, nil},
		{"slot mismatch", 6, good, fault.ErrSlotMismatch},
		{"empty", 5, empty, fault.ErrBatchEmpty},
		{"duplicate", 5, dup, fault.ErrDuplicateFeed},
		{"no time", 5, noTime, fault.ErrInvalidTime},
		{"short record", 5, short, fault.ErrInvalidPriceRecord},
	}

	for _, test := range tests {
		_, err := pricefeed.ParseBatch(test.slot, test.raw)
		assert.True(t, errors.Is(err, fault.ErrMalformedBatch), "%s: error: %v", test.name, err)
		assert.True(t, fault.IsErrInvalid(err), "%s: class", test.name)
		if nil != test.cause {
			assert.True(t, errors.Is(err, test.cause), "%s: cause: %v", test.name, err)
		}
		var m *pricefeed.MalformedError
		assert.True(t, errors.As(err, &m), "%s: type", test.name)
	}
}

func TestUpdateVerify(t *testing.T) {
	items := [][]byte{
		makeRecord(1, 10).Pack(),
		makeRecord(2, 11).Pack(),
		makeRecord(3, 12).Pack(),
	}

	for _, hasher := range []merkle.Hasher{merkle.Keccak256, merkle.Keccak160} {
		tree := merkle.NewTree(hasher, items)
		proof, ok := tree.ProveIndex(2)
		assert.True(t, ok, "prove")

		u, err := pricefeed.NewUpdate(items[2], proof, 9, 12, tree)
		assert.Nil(t, err, "new update")
		assert.Nil(t, u.Verify(), "%s: verify", hasher.Name())

		packed, err := u.Pack()
		assert.Nil(t, err, "pack")
		u2, err := pricefeed.UnpackUpdate(packed)
		assert.Nil(t, err, "unpack")
		assert.Equal(t, u, u2, "stored update")

		r, err := u2.Decode()
		assert.Nil(t, err, "decode")
		assert.Equal(t, byte(3), r.ID[0], "decoded id")

		u2.Record = items[1]
		assert.Equal(t, fault.ErrProofVerificationFailed, u2.Verify(), "%s: wrong record", hasher.Name())

		u2.Record = items[2]
		u2.Hasher = "sha1"
		assert.Equal(t, fault.ErrInvalidHasher, u2.Verify(), "unknown hasher")
	}
}
