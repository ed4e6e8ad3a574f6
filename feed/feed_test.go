// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package feed_test

import (
	"os"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/pricecache/background"
	"github.com/bitmark-inc/pricecache/fault"
	"github.com/bitmark-inc/pricecache/feed"
	"github.com/bitmark-inc/pricecache/fixtures"
	"github.com/bitmark-inc/pricecache/pricefeed"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	result := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(result)
}

func TestFrames(t *testing.T) {
	raw := []byte{1, 2, 3}
	frames := feed.Frames(0x0102030405060708, raw)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, frames[0], "slot frame")

	m, err := feed.Decode(frames)
	assert.Nil(t, err, "decode")
	assert.Equal(t, pricefeed.Message{Slot: 0x0102030405060708, Raw: raw}, m, "message")

	for _, bad := range [][][]byte{
		nil,
		{{1, 2, 3}},
		{{1, 2, 3}, raw},
		{frames[0]},
		{frames[0], {}},
		{frames[0], raw, raw},
	} {
		_, err := feed.Decode(bad)
		assert.Equal(t, fault.ErrInvalidFrame, err, "frames: %x", bad)
	}
}

func TestNewMissing(t *testing.T) {
	_, err := feed.New(nil, feed.Config{})
	assert.Equal(t, fault.ErrMissingParameters, err, "no logger")

	_, err = feed.New(logger.New(fixtures.LogCategory), feed.Config{})
	assert.Equal(t, fault.ErrMissingParameters, err, "no connections")
}

func TestSubscribe(t *testing.T) {
	const endpoint = "inproc://feed-test"
	log := logger.New(fixtures.LogCategory)

	pub, err := feed.NewPublisher(log, endpoint, nil, nil)
	assert.Nil(t, err, "publisher")
	defer pub.Close()

	sbsc, err := feed.New(log, feed.Config{
		Connect: []feed.Connection{{Address: endpoint}},
	})
	assert.Nil(t, err, "subscriber")

	processes := background.Start(background.Processes{sbsc}, nil)

	raw := fixtures.RawBatch(7, 2, 100)
	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ticker.C:
			assert.Nil(t, pub.Publish(7, raw), "publish")
		case m := <-sbsc.Messages():
			assert.Equal(t, uint64(7), m.Slot, "slot")
			assert.Equal(t, raw, m.Raw, "raw")
			break loop
		case <-deadline:
			t.Fatal("nothing received")
		}
	}

	processes.Stop()

	// output is closed after stop
	for range sbsc.Messages() {
	}
	received, rejected := sbsc.Counts()
	assert.True(t, received >= 1, "received")
	assert.Equal(t, uint64(0), rejected, "rejected")
}

func TestSubscribeAfterReconnect(t *testing.T) {
	const endpoint = "inproc://feed-silence-test"
	log := logger.New(fixtures.LogCategory)

	pub, err := feed.NewPublisher(log, endpoint, nil, nil)
	assert.Nil(t, err, "publisher")
	defer pub.Close()

	sbsc, err := feed.New(log, feed.Config{
		Connect: []feed.Connection{{Address: endpoint}},
		Silence: 50 * time.Millisecond,
	})
	assert.Nil(t, err, "subscriber")

	processes := background.Start(background.Processes{sbsc}, nil)
	defer processes.Stop()

	// let at least one idle poll expire and reconnect
	time.Sleep(1500 * time.Millisecond)

	raw := fixtures.RawBatch(9, 1, 200)
	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			assert.Nil(t, pub.Publish(9, raw), "publish")
		case m := <-sbsc.Messages():
			assert.Equal(t, uint64(9), m.Slot, "slot")
			return
		case <-deadline:
			t.Fatal("nothing received after reconnect")
		}
	}
}
