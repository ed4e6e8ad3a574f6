// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package price

import (
	"bytes"
	"context"
	"time"

	"github.com/bitmark-inc/logger"
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/pricecache/merkle"
	"github.com/bitmark-inc/pricecache/pricefeed"
	"github.com/bitmark-inc/pricecache/resolver"
	"github.com/bitmark-inc/pricecache/rpc/ratelimit"
)

const (
	rateLimitPrice = 500
	rateBurstPrice = 200

	// limit for count
	maximumKeys = 1000

	DefaultTimeout = 15 * time.Second
)

// Resolver - the query side of the cache
type Resolver interface {
	GetLatest(context.Context, pricefeed.FeedID) (*resolver.Result, error)
	GetAtOrAfter(context.Context, pricefeed.FeedID, int64) (*resolver.Result, error)
	ListKnownKeys() []pricefeed.FeedID
}

// Observer - receives the duration of each query
type Observer interface {
	ObserveQuery(method string, err error, d time.Duration)
}

// Price - type for RPC calls
type Price struct {
	Log      *logger.L
	Limiter  *rate.Limiter
	Resolver Resolver
	Observer Observer
	Timeout  time.Duration
}

// New - create the Price RPC, observer may be nil
func New(log *logger.L, r Resolver, observer Observer, timeout time.Duration) *Price {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Price{
		Log:      log,
		Limiter:  rate.NewLimiter(rateLimitPrice, rateBurstPrice),
		Resolver: r,
		Observer: observer,
		Timeout:  timeout,
	}
}

// Reply - a verified update and its decoded record
type Reply struct {
	Record *pricefeed.Record `json:"record"`
	Update *pricefeed.Update `json:"update"`
	Proof  *merkle.Proof     `json:"proof"`
	Slot   uint64            `json:"slot"`
	Root   merkle.Digest     `json:"root"`
	Hasher string            `json:"hasher"`
	Source string            `json:"source"`
}

// ---

// LatestArguments - arguments for RPC
type LatestArguments struct {
	ID  string `json:"id"`
	ctx context.Context
}

// SetContext - bind the caller's request context
func (arguments *LatestArguments) SetContext(ctx context.Context) {
	arguments.ctx = ctx
}

// Latest - most recent update for a feed
func (price *Price) Latest(arguments *LatestArguments, reply *Reply) error {
	start := time.Now()
	err := price.latest(arguments, reply)
	price.observe("Price.Latest", err, start)
	return err
}

func (price *Price) latest(arguments *LatestArguments, reply *Reply) error {
	if err := ratelimit.Limit(price.Limiter); nil != err {
		return err
	}

	id, err := pricefeed.FeedIDFromHex(arguments.ID)
	if nil != err {
		return err
	}

	ctx, cancel := price.context(arguments.ctx)
	defer cancel()

	result, err := price.Resolver.GetLatest(ctx, id)
	if nil != err {
		price.Log.Debugf("latest: %s  error: %s", id, err)
		return err
	}
	fill(reply, result)
	return nil
}

// ---

// AtOrAfterArguments - arguments for RPC
type AtOrAfterArguments struct {
	ID   string `json:"id"`
	Time int64  `json:"time"`
	ctx  context.Context
}

// SetContext - bind the caller's request context
func (arguments *AtOrAfterArguments) SetContext(ctx context.Context) {
	arguments.ctx = ctx
}

// AtOrAfter - earliest update for a feed published at or after a time
func (price *Price) AtOrAfter(arguments *AtOrAfterArguments, reply *Reply) error {
	start := time.Now()
	err := price.atOrAfter(arguments, reply)
	price.observe("Price.AtOrAfter", err, start)
	return err
}

func (price *Price) atOrAfter(arguments *AtOrAfterArguments, reply *Reply) error {
	if err := ratelimit.Limit(price.Limiter); nil != err {
		return err
	}

	id, err := pricefeed.FeedIDFromHex(arguments.ID)
	if nil != err {
		return err
	}

	ctx, cancel := price.context(arguments.ctx)
	defer cancel()

	result, err := price.Resolver.GetAtOrAfter(ctx, id, arguments.Time)
	if nil != err {
		price.Log.Debugf("at or after: %s  time: %d  error: %s", id, arguments.Time, err)
		return err
	}
	fill(reply, result)
	return nil
}

// ---

// KeysArguments - arguments for RPC
//
// Start is exclusive, empty begins at the lowest key
type KeysArguments struct {
	Start string `json:"start"`
	Count int    `json:"count"`
}

// KeysReply - result from RPC
type KeysReply struct {
	Keys []pricefeed.FeedID `json:"keys"`
	Next *pricefeed.FeedID  `json:"next,omitempty"`
}

// Keys - page through the feeds currently held in the cache
func (price *Price) Keys(arguments *KeysArguments, reply *KeysReply) error {
	start := time.Now()
	err := price.keys(arguments, reply)
	price.observe("Price.Keys", err, start)
	return err
}

func (price *Price) keys(arguments *KeysArguments, reply *KeysReply) error {
	if err := ratelimit.LimitN(price.Limiter, arguments.Count, maximumKeys); nil != err {
		return err
	}

	from := pricefeed.FeedID{}
	exclusive := false
	if "" != arguments.Start {
		id, err := pricefeed.FeedIDFromHex(arguments.Start)
		if nil != err {
			return err
		}
		from = id
		exclusive = true
	}

	keys := make([]pricefeed.FeedID, 0, arguments.Count)
	for _, id := range price.Resolver.ListKnownKeys() {
		c := bytes.Compare(id[:], from[:])
		if c < 0 || exclusive && 0 == c {
			continue
		}
		if len(keys) == arguments.Count {
			next := keys[len(keys)-1]
			reply.Next = &next
			break
		}
		keys = append(keys, id)
	}
	reply.Keys = keys
	return nil
}

func (price *Price) observe(method string, err error, start time.Time) {
	if nil != price.Observer {
		price.Observer.ObserveQuery(method, err, time.Since(start))
	}
}

func fill(reply *Reply, result *resolver.Result) {
	reply.Record = result.Record
	reply.Update = result.Update
	reply.Proof = result.Proof
	reply.Slot = result.Slot
	reply.Root = result.Root
	reply.Hasher = result.Update.Hasher
	reply.Source = result.Source
}

// the caller's context, when the transport supplied one, bounded by
// the query timeout
func (price *Price) context(parent context.Context) (context.Context, context.CancelFunc) {
	if nil == parent {
		parent = context.Background()
	}
	return context.WithTimeout(parent, price.Timeout)
}
