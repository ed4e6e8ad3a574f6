// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package resolver_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/pricecache/fault"
	"github.com/bitmark-inc/pricecache/fixtures"
	"github.com/bitmark-inc/pricecache/mocks"
	"github.com/bitmark-inc/pricecache/pricefeed"
	"github.com/bitmark-inc/pricecache/resolver"
)

func TestLatestNotReady(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	source := mocks.NewMockSource(ctl)
	source.EXPECT().Request(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	e := setup(t, source, resolver.Config{})

	_, err := e.resolver.GetLatest(context.Background(), fixtures.FeedID(1))
	assert.Equal(t, fault.ErrNotReady, err, "no completed slots")
	assert.True(t, fault.IsErrNotReady(err), "class")
	assert.False(t, e.resolver.IsReady(), "not ready")
	assert.Equal(t, uint64(1), e.resolver.Counts().NotReady, "not ready count")
}

func TestLatest(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	source := mocks.NewMockSource(ctl)
	source.EXPECT().Request(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	e := setup(t, source, resolver.Config{})
	e.fill(t)

	assert.True(t, e.resolver.IsReady(), "ready")

	r, err := e.resolver.GetLatest(context.Background(), fixtures.FeedID(2))
	assert.Nil(t, err, "latest")
	assert.Equal(t, uint64(3), r.Slot, "latest slot")
	assert.Equal(t, int64(30), r.Record.PublishTime, "latest time")
	assert.Equal(t, resolver.FromCache, r.Source, "source")
	assert.True(t, r.Proof.Verify(merkleHasher(t, r.Update.Hasher), r.Root, r.Update.Record), "proof")

	info, _ := e.store.Snapshot().Batch(3)
	assert.Equal(t, info.Root, r.Root, "root of slot")

	// never escalates
	_, err = e.resolver.GetLatest(context.Background(), fixtures.FeedID(9))
	assert.Equal(t, fault.ErrNotFound, err, "unknown feed")
}

func TestAtOrAfterInWindow(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	source := mocks.NewMockSource(ctl)
	source.EXPECT().Request(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	e := setup(t, source, resolver.Config{})
	e.fill(t)

	r, err := e.resolver.GetAtOrAfter(context.Background(), fixtures.FeedID(1), 15)
	assert.Nil(t, err, "at or after 15")
	assert.Equal(t, int64(20), r.Record.PublishTime, "15 gives 20")
	assert.Equal(t, uint64(2), r.Slot, "slot")

	r, err = e.resolver.GetAtOrAfter(context.Background(), fixtures.FeedID(1), 10)
	assert.Nil(t, err, "at or after 10")
	assert.Equal(t, uint64(1), r.Slot, "window start")

	// inside the window but nothing later: never escalates
	_, err = e.resolver.GetAtOrAfter(context.Background(), fixtures.FeedID(1), 35)
	assert.Equal(t, fault.ErrNotFound, err, "35")

	_, err = e.resolver.GetAtOrAfter(context.Background(), fixtures.FeedID(7), 12)
	assert.Equal(t, fault.ErrNotFound, err, "unknown feed inside window")

	assert.Equal(t, uint64(2), e.resolver.Counts().Hits, "hits")
}

func TestAtOrAfterFallback(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	source := mocks.NewMockSource(ctl)
	u := historicalUpdate(t, 2, 7)
	source.EXPECT().Request(gomock.Any(), fixtures.FeedID(2), int64(5)).Return(u, true, nil).Times(1)

	e := setup(t, source, resolver.Config{})
	e.fill(t)

	r, err := e.resolver.GetAtOrAfter(context.Background(), fixtures.FeedID(2), 5)
	assert.Nil(t, err, "fallback")
	assert.Equal(t, resolver.FromHistorical, r.Source, "source")
	assert.Equal(t, uint64(900), r.Slot, "historical slot")
	assert.Equal(t, int64(7), r.Record.PublishTime, "historical time")

	// second request is answered from the result cache
	r, err = e.resolver.GetAtOrAfter(context.Background(), fixtures.FeedID(2), 5)
	assert.Nil(t, err, "cached")
	assert.Equal(t, uint64(900), r.Slot, "cached slot")

	c := e.resolver.Counts()
	assert.Equal(t, uint64(1), c.Fallbacks, "fallbacks")
	assert.Equal(t, uint64(1), c.FallbackCached, "cached")
}

func TestFallbackWhenEmpty(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	source := mocks.NewMockSource(ctl)
	source.EXPECT().Request(gomock.Any(), fixtures.FeedID(1), int64(100)).Return(nil, false, nil).Times(1)

	e := setup(t, source, resolver.Config{})

	_, err := e.resolver.GetAtOrAfter(context.Background(), fixtures.FeedID(1), 100)
	assert.Equal(t, fault.ErrNotFound, err, "historical has no data")
}

func TestFallbackDisabled(t *testing.T) {
	e := setup(t, nil, resolver.Config{})
	e.fill(t)

	_, err := e.resolver.GetAtOrAfter(context.Background(), fixtures.FeedID(1), 1)
	assert.Equal(t, fault.ErrNotFound, err, "no source")
}

func TestFallbackRetriesThenTimeout(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	source := mocks.NewMockSource(ctl)
	source.EXPECT().Request(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, false, fault.ErrUpstreamResponse).Times(3)

	e := setup(t, source, resolver.Config{
		MaxRetries:    2,
		RetryInterval: time.Millisecond,
	})
	e.fill(t)

	_, err := e.resolver.GetAtOrAfter(context.Background(), fixtures.FeedID(1), 1)
	assert.True(t, errors.Is(err, fault.ErrUpstreamTimeout), "error: %v", err)
	assert.True(t, fault.IsErrTimeout(err), "class")
	assert.Equal(t, uint64(1), e.resolver.Counts().FallbackErrors, "fallback errors")
}

func TestFallbackRecovers(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	source := mocks.NewMockSource(ctl)
	u := historicalUpdate(t, 1, 3)
	gomock.InOrder(
		source.EXPECT().Request(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, false, fault.ErrUpstreamResponse).Times(1),
		source.EXPECT().Request(gomock.Any(), gomock.Any(), gomock.Any()).Return(u, true, nil).Times(1),
	)

	e := setup(t, source, resolver.Config{RetryInterval: time.Millisecond})
	e.fill(t)

	r, err := e.resolver.GetAtOrAfter(context.Background(), fixtures.FeedID(1), 2)
	assert.Nil(t, err, "second attempt")
	assert.Equal(t, int64(3), r.Record.PublishTime, "time")
}

// a source that only returns when its context ends
func blockingSource(ctx context.Context, id pricefeed.FeedID, t int64) (*pricefeed.Update, bool, error) {
	<-ctx.Done()
	return nil, false, ctx.Err()
}

func TestFallbackTotalTimeout(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	source := mocks.NewMockSource(ctl)
	source.EXPECT().Request(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(blockingSource).AnyTimes()

	e := setup(t, source, resolver.Config{
		AttemptTimeout: 20 * time.Millisecond,
		TotalTimeout:   100 * time.Millisecond,
		MaxRetries:     1000,
		RetryInterval:  time.Millisecond,
	})
	e.fill(t)

	start := time.Now()
	_, err := e.resolver.GetAtOrAfter(context.Background(), fixtures.FeedID(1), 1)
	assert.True(t, errors.Is(err, fault.ErrUpstreamTimeout), "error: %v", err)
	assert.True(t, time.Since(start) < 2*time.Second, "bounded by total timeout")
}

func TestFallbackCallerCancel(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	source := mocks.NewMockSource(ctl)
	source.EXPECT().Request(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(blockingSource).AnyTimes()

	e := setup(t, source, resolver.Config{
		AttemptTimeout: time.Minute,
		TotalTimeout:   time.Minute,
	})
	e.fill(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := e.resolver.GetAtOrAfter(ctx, fixtures.FeedID(1), 1)
	assert.Equal(t, context.Canceled, err, "caller cancelled")
	assert.True(t, time.Since(start) < 5*time.Second, "released promptly")
}

func TestFallbackRejectsWrongFeed(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	source := mocks.NewMockSource(ctl)
	source.EXPECT().Request(gomock.Any(), gomock.Any(), gomock.Any()).Return(historicalUpdate(t, 3, 9), true, nil).Times(1)

	e := setup(t, source, resolver.Config{})
	e.fill(t)

	_, err := e.resolver.GetAtOrAfter(context.Background(), fixtures.FeedID(1), 1)
	assert.Equal(t, fault.ErrUpstreamResponse, err, "wrong feed")
}

func TestFallbackRejectsBadProof(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	u := historicalUpdate(t, 1, 9)
	u.Root = append([]byte{}, u.Root...)
	u.Root[0] ^= 0xff

	source := mocks.NewMockSource(ctl)
	source.EXPECT().Request(gomock.Any(), gomock.Any(), gomock.Any()).Return(u, true, nil).Times(1)

	e := setup(t, source, resolver.Config{})
	e.fill(t)

	_, err := e.resolver.GetAtOrAfter(context.Background(), fixtures.FeedID(1), 1)
	assert.Equal(t, fault.ErrProofVerificationFailed, err, "tampered root")
}

func TestListKnownKeys(t *testing.T) {
	e := setup(t, nil, resolver.Config{})
	assert.Equal(t, 0, len(e.resolver.ListKnownKeys()), "empty")

	e.fill(t)
	assert.Equal(t, []pricefeed.FeedID{
		fixtures.FeedID(1),
		fixtures.FeedID(2),
		fixtures.FeedID(3),
	}, e.resolver.ListKnownKeys(), "known feeds")
}

func TestCriterionString(t *testing.T) {
	assert.Equal(t, "latest", resolver.Latest().String(), "latest")
	assert.Equal(t, "at-or-after:15", resolver.AtOrAfter(15).String(), "at or after")
	assert.Equal(t, "*invalid*", resolver.Criterion{}.String(), "zero value")

	e := setup(t, nil, resolver.Config{})
	_, err := e.resolver.Resolve(context.Background(), fixtures.FeedID(1), resolver.Criterion{})
	assert.Equal(t, fault.ErrMissingParameters, err, "zero criterion")
}

func TestAtOrAfterBeforeWindowAfterEviction(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	// slot 1 at time 10 is evicted, the window starts at slot 2 time 20
	source := mocks.NewMockSource(ctl)
	source.EXPECT().Request(gomock.Any(), fixtures.FeedID(1), int64(5)).Return(historicalUpdate(t, 1, 10), true, nil).Times(1)
	source.EXPECT().Request(gomock.Any(), fixtures.FeedID(1), int64(19)).Return(historicalUpdate(t, 1, 19), true, nil).Times(1)

	e := setupWindow(t, source, resolver.Config{}, 2)
	e.fill(t)

	slot, start, ok := e.store.Snapshot().WindowStart()
	assert.True(t, ok, "window")
	assert.Equal(t, uint64(2), uint64(slot), "window slot")
	assert.Equal(t, int64(20), start, "window time")

	r, err := e.resolver.GetAtOrAfter(context.Background(), fixtures.FeedID(1), 5)
	assert.Nil(t, err, "before the window")
	assert.Equal(t, resolver.FromHistorical, r.Source, "cached later update must not answer")
	assert.Equal(t, int64(10), r.Record.PublishTime, "evicted time")

	r, err = e.resolver.GetAtOrAfter(context.Background(), fixtures.FeedID(1), 19)
	assert.Nil(t, err, "just before the window")
	assert.Equal(t, resolver.FromHistorical, r.Source, "source")

	r, err = e.resolver.GetAtOrAfter(context.Background(), fixtures.FeedID(1), 20)
	assert.Nil(t, err, "window start")
	assert.Equal(t, resolver.FromCache, r.Source, "source")
	assert.Equal(t, uint64(2), r.Slot, "slot")

	assert.Equal(t, uint64(2), e.resolver.Counts().Fallbacks, "fallbacks")
}

func TestAtOrAfterNegativeTime(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	source := mocks.NewMockSource(ctl)
	source.EXPECT().Request(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	e := setup(t, source, resolver.Config{})
	e.fill(t)

	_, err := e.resolver.GetAtOrAfter(context.Background(), fixtures.FeedID(1), -1)
	assert.Equal(t, fault.ErrInvalidTime, err, "negative time")
}

func TestFallbackRejectedIsNotRetried(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	source := mocks.NewMockSource(ctl)
	source.EXPECT().Request(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, false, fmt.Errorf("%w: status: 400", fault.ErrUpstreamRejected)).Times(1)

	e := setup(t, source, resolver.Config{
		MaxRetries:    3,
		RetryInterval: time.Millisecond,
	})
	e.fill(t)

	_, err := e.resolver.GetAtOrAfter(context.Background(), fixtures.FeedID(1), 1)
	assert.True(t, errors.Is(err, fault.ErrUpstreamRejected), "error: %v", err)
	assert.False(t, errors.Is(err, fault.ErrUpstreamTimeout), "not a timeout")
	assert.Equal(t, uint64(1), e.resolver.Counts().FallbackErrors, "fallback errors")
}
