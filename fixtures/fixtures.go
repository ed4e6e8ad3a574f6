// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fixtures - shared test setup and sample data
package fixtures

import (
	"fmt"
	"os"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/pricecache/pricefeed"
)

const (
	dir         = "testing"
	LogCategory = "testing"
)

// SetupTestLogger - file logger in a scratch directory
func SetupTestLogger() {
	removeFiles()
	_ = os.Mkdir(dir, 0700)

	logging := logger.Configuration{
		Directory: dir,
		File:      fmt.Sprintf("%s.log", LogCategory),
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "critical",
		},
	}

	// start logging
	_ = logger.Initialise(logging)
}

// TeardownTestLogger - stop logging and remove the scratch directory
func TeardownTestLogger() {
	logger.Finalise()
	removeFiles()
}

// Dir - scratch directory for other test files
func Dir() string {
	return dir
}

func removeFiles() {
	err := os.RemoveAll(dir)
	if nil != err {
		fmt.Println("remove dir with error: ", err)
	}
}

// FeedID - deterministic feed id for a small number
func FeedID(n byte) pricefeed.FeedID {
	id := pricefeed.FeedID{}
	id[0] = 0xfe
	id[31] = n
	return id
}

// Records - one record per feed 1..count, all published at time
func Records(count int, time int64) []*pricefeed.Record {
	records := make([]*pricefeed.Record, count)
	for i := 0; i < count; i += 1 {
		records[i] = &pricefeed.Record{
			ID:              FeedID(byte(i + 1)),
			Price:           int64(100000 + i),
			Confidence:      uint64(10 + i),
			Exponent:        -5,
			PublishTime:     time,
			PrevPublishTime: time - 1,
			EMAPrice:        int64(99000 + i),
			EMAConfidence:   uint64(12 + i),
		}
	}
	return records
}

// RawBatch - wire bytes of a batch of count records
func RawBatch(slot uint64, count int, time int64) []byte {
	raw, err := pricefeed.PackBatch(slot, 0, Records(count, time))
	if nil != err {
		panic(err)
	}
	return raw
}
