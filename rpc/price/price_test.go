// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package price_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/pricecache/fault"
	"github.com/bitmark-inc/pricecache/fixtures"
	"github.com/bitmark-inc/pricecache/merkle"
	"github.com/bitmark-inc/pricecache/mocks"
	"github.com/bitmark-inc/pricecache/pricefeed"
	"github.com/bitmark-inc/pricecache/resolver"
	"github.com/bitmark-inc/pricecache/rpc/price"
)

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	result := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(result)
}

type observed struct {
	methods []string
	errors  int
}

func (o *observed) ObserveQuery(method string, err error, d time.Duration) {
	o.methods = append(o.methods, method)
	if nil != err {
		o.errors += 1
	}
}

func result(id pricefeed.FeedID, slot uint64) *resolver.Result {
	record := fixtures.Records(1, 100)[0]
	record.ID = id
	return &resolver.Result{
		Update: &pricefeed.Update{
			Record: record.Pack(),
			Slot:   slot,
			Hasher: merkle.Keccak256.Name(),
			Time:   record.PublishTime,
		},
		Record: record,
		Proof:  &merkle.Proof{},
		Slot:   slot,
		Root:   merkle.Digest{1, 2, 3},
		Source: resolver.FromCache,
	}
}

func TestLatest(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	r := mocks.NewMockResolver(ctl)
	o := &observed{}
	p := price.New(logger.New(fixtures.LogCategory), r, o, time.Second)

	id := fixtures.FeedID(1)
	r.EXPECT().GetLatest(gomock.Any(), id).Return(result(id, 9), nil).Times(1)

	var reply price.Reply
	err := p.Latest(&price.LatestArguments{ID: id.String()}, &reply)
	assert.Nil(t, err, "latest")
	assert.Equal(t, uint64(9), reply.Slot, "slot")
	assert.Equal(t, id, reply.Record.ID, "feed")
	assert.Equal(t, merkle.Keccak256.Name(), reply.Hasher, "hasher")
	assert.Equal(t, resolver.FromCache, reply.Source, "source")

	r.EXPECT().GetLatest(gomock.Any(), id).Return(nil, fault.ErrNotReady).Times(1)
	err = p.Latest(&price.LatestArguments{ID: id.String()}, &reply)
	assert.Equal(t, fault.ErrNotReady, err, "not ready")

	err = p.Latest(&price.LatestArguments{ID: "xyz"}, &reply)
	assert.Equal(t, fault.ErrInvalidFeedID, err, "bad id")

	assert.Equal(t, []string{"Price.Latest", "Price.Latest", "Price.Latest"}, o.methods, "observed")
	assert.Equal(t, 2, o.errors, "observed errors")
}

func TestAtOrAfter(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	r := mocks.NewMockResolver(ctl)
	p := price.New(logger.New(fixtures.LogCategory), r, nil, 0)

	id := fixtures.FeedID(2)
	r.EXPECT().GetAtOrAfter(gomock.Any(), id, int64(15)).Return(result(id, 4), nil).Times(1)
	r.EXPECT().GetAtOrAfter(gomock.Any(), id, int64(35)).Return(nil, fault.ErrNotFound).Times(1)

	var reply price.Reply
	err := p.AtOrAfter(&price.AtOrAfterArguments{ID: id.String(), Time: 15}, &reply)
	assert.Nil(t, err, "hit")
	assert.Equal(t, uint64(4), reply.Slot, "slot")

	err = p.AtOrAfter(&price.AtOrAfterArguments{ID: id.String(), Time: 35}, &reply)
	assert.Equal(t, fault.ErrNotFound, err, "miss")
}

func TestKeys(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	r := mocks.NewMockResolver(ctl)
	p := price.New(logger.New(fixtures.LogCategory), r, nil, 0)

	all := []pricefeed.FeedID{fixtures.FeedID(1), fixtures.FeedID(2), fixtures.FeedID(3)}
	r.EXPECT().ListKnownKeys().Return(all).AnyTimes()

	var reply price.KeysReply
	err := p.Keys(&price.KeysArguments{Count: 2}, &reply)
	assert.Nil(t, err, "first page")
	assert.Equal(t, all[:2], reply.Keys, "first keys")
	assert.Equal(t, all[1], *reply.Next, "next")

	reply = price.KeysReply{}
	err = p.Keys(&price.KeysArguments{Start: all[1].String(), Count: 2}, &reply)
	assert.Nil(t, err, "second page")
	assert.Equal(t, all[2:], reply.Keys, "second keys")
	assert.Nil(t, reply.Next, "no more")

	err = p.Keys(&price.KeysArguments{Count: 0}, &reply)
	assert.Equal(t, fault.ErrInvalidCount, err, "zero count")
}

func TestAtOrAfterFollowsCallerContext(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	r := mocks.NewMockResolver(ctl)
	p := price.New(logger.New(fixtures.LogCategory), r, nil, time.Minute)

	id := fixtures.FeedID(3)
	r.EXPECT().GetAtOrAfter(gomock.Any(), id, int64(1)).DoAndReturn(
		func(ctx context.Context, id pricefeed.FeedID, when int64) (*resolver.Result, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}).Times(1)

	ctx, cancel := context.WithCancel(context.Background())
	arguments := &price.AtOrAfterArguments{ID: id.String(), Time: 1}
	arguments.SetContext(ctx)
	cancel()

	var reply price.Reply
	err := p.AtOrAfter(arguments, &reply)
	assert.Equal(t, context.Canceled, err, "caller went away")
}
