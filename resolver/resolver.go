// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package resolver - answer price queries from the cache, falling
// back to a historical source for times before the cache window
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/cenkalti/backoff/v4"
	cache "github.com/patrickmn/go-cache"

	"github.com/bitmark-inc/pricecache/counter"
	"github.com/bitmark-inc/pricecache/fault"
	"github.com/bitmark-inc/pricecache/historical"
	"github.com/bitmark-inc/pricecache/merkle"
	"github.com/bitmark-inc/pricecache/pricefeed"
	"github.com/bitmark-inc/pricecache/readiness"
	"github.com/bitmark-inc/pricecache/store"
)

// defaults for fallback policy
const (
	DefaultAttemptTimeout = 2 * time.Second
	DefaultTotalTimeout   = 10 * time.Second
	DefaultMaxRetries     = 3
	DefaultRetryInterval  = 200 * time.Millisecond
	DefaultCacheTTL       = 10 * time.Minute
)

// sources of a result
const (
	FromCache      = "cache"
	FromHistorical = "historical"
)

// Config - collaborators and fallback policy
//
// zero durations and counts take the defaults
type Config struct {
	Store          *store.Store
	Tracker        *readiness.Tracker
	Source         historical.Source // nil disables the fallback
	AttemptTimeout time.Duration
	TotalTimeout   time.Duration
	MaxRetries     uint64
	RetryInterval  time.Duration
	CacheTTL       time.Duration
}

// Counts - totals since start
type Counts struct {
	Hits           uint64 `json:"hits"`
	Misses         uint64 `json:"misses"`
	NotReady       uint64 `json:"notReady"`
	Fallbacks      uint64 `json:"fallbacks"`
	FallbackCached uint64 `json:"fallbackCached"`
	FallbackErrors uint64 `json:"fallbackErrors"`
}

// Resolver - safe for concurrent use
type Resolver struct {
	log     *logger.L
	store   *store.Store
	tracker *readiness.Tracker
	source  historical.Source
	policy  Config
	results *cache.Cache

	hits           counter.Counter
	misses         counter.Counter
	notReady       counter.Counter
	fallbacks      counter.Counter
	fallbackCached counter.Counter
	fallbackErrors counter.Counter
}

// Result - a verified update
type Result struct {
	Update *pricefeed.Update
	Record *pricefeed.Record
	Proof  *merkle.Proof
	Slot   uint64
	Root   merkle.Digest
	Source string
}

// New - create a resolver
func New(log *logger.L, config Config) (*Resolver, error) {
	if nil == log || nil == config.Store || nil == config.Tracker {
		return nil, fault.ErrMissingParameters
	}
	if 0 == config.AttemptTimeout {
		config.AttemptTimeout = DefaultAttemptTimeout
	}
	if 0 == config.TotalTimeout {
		config.TotalTimeout = DefaultTotalTimeout
	}
	if 0 == config.MaxRetries {
		config.MaxRetries = DefaultMaxRetries
	}
	if 0 == config.RetryInterval {
		config.RetryInterval = DefaultRetryInterval
	}
	if 0 == config.CacheTTL {
		config.CacheTTL = DefaultCacheTTL
	}

	return &Resolver{
		log:     log,
		store:   config.Store,
		tracker: config.Tracker,
		source:  config.Source,
		policy:  config,
		results: cache.New(config.CacheTTL, 2*config.CacheTTL),
	}, nil
}

// Counts - current totals
func (r *Resolver) Counts() Counts {
	return Counts{
		Hits:           r.hits.Uint64(),
		Misses:         r.misses.Uint64(),
		NotReady:       r.notReady.Uint64(),
		Fallbacks:      r.fallbacks.Uint64(),
		FallbackCached: r.fallbackCached.Uint64(),
		FallbackErrors: r.fallbackErrors.Uint64(),
	}
}

// Resolve - look up a feed by criterion
//
//   Latest:        fault.ErrNotReady while not ready, fault.ErrNotFound on a miss
//   AtOrAfter(t):  t before the window start goes to the historical source,
//                  since older updates may have been evicted; inside the
//                  window a miss is fault.ErrNotFound
func (r *Resolver) Resolve(ctx context.Context, id pricefeed.FeedID, criterion Criterion) (*Result, error) {
	key := store.NewKey(store.NamespacePrice, id)
	view := r.store.Snapshot()

	switch criterion.kind {
	case latest:
		if !r.tracker.Ready() {
			r.notReady.Increment()
			return nil, fault.ErrNotReady
		}
		e, ok := view.GetLatest(key)
		if !ok {
			r.misses.Increment()
			return nil, fault.ErrNotFound
		}
		r.hits.Increment()
		return fromEntry(e)

	case atOrAfter:
		if criterion.time < 0 {
			return nil, fault.ErrInvalidTime
		}

		_, start, ok := view.WindowStart()
		if !ok || criterion.time < start {
			r.misses.Increment()
			return r.fallback(ctx, id, criterion.time)
		}

		e, ok := view.GetAtOrAfter(key, criterion.time)
		if !ok {
			r.misses.Increment()
			return nil, fault.ErrNotFound
		}
		r.hits.Increment()
		return fromEntry(e)

	default:
		return nil, fault.ErrMissingParameters
	}
}

// GetLatest - newest cached update for a feed
func (r *Resolver) GetLatest(ctx context.Context, id pricefeed.FeedID) (*Result, error) {
	return r.Resolve(ctx, id, Latest())
}

// GetAtOrAfter - first update for a feed published at or after t
func (r *Resolver) GetAtOrAfter(ctx context.Context, id pricefeed.FeedID, t int64) (*Result, error) {
	return r.Resolve(ctx, id, AtOrAfter(t))
}

// IsReady - the tracker's view with configured thresholds
func (r *Resolver) IsReady() bool {
	return r.tracker.Ready()
}

// ListKnownKeys - feeds with at least one cached update
func (r *Resolver) ListKnownKeys() []pricefeed.FeedID {
	keys := r.store.Snapshot().Keys(store.NamespacePrice)
	ids := make([]pricefeed.FeedID, len(keys))
	for i, k := range keys {
		ids[i] = k.ID()
	}
	return ids
}

// bounded, retried request to the historical source
func (r *Resolver) fallback(ctx context.Context, id pricefeed.FeedID, t int64) (*Result, error) {
	if nil == r.source {
		return nil, fault.ErrNotFound
	}

	cacheKey := fmt.Sprintf("%s:%d", id, t)
	if cached, ok := r.results.Get(cacheKey); ok {
		r.fallbackCached.Increment()
		return cached.(*Result), nil
	}

	r.fallbacks.Increment()

	totalCtx, cancel := context.WithTimeout(ctx, r.policy.TotalTimeout)
	defer cancel()

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.policy.RetryInterval
	exp.MaxElapsedTime = r.policy.TotalTimeout
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, r.policy.MaxRetries), totalCtx)

	var update *pricefeed.Update
	found := false
	attempt := 0

	operation := func() error {
		attempt += 1
		attemptCtx, cancelAttempt := context.WithTimeout(totalCtx, r.policy.AttemptTimeout)
		defer cancelAttempt()

		u, ok, err := r.source.Request(attemptCtx, id, t)
		if nil != err {
			r.log.Debugf("fallback: %s  time: %d  attempt: %d  error: %s", id, t, attempt, err)
			if fault.IsErrInvalid(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		update = u
		found = ok
		return nil
	}

	err := backoff.Retry(operation, policy)
	if nil != err {
		r.fallbackErrors.Increment()

		// caller gave up, not an upstream problem
		if nil != ctx.Err() {
			return nil, ctx.Err()
		}

		// the request itself was refused, retrying cannot help
		if fault.IsErrInvalid(err) {
			r.log.Warnf("fallback: %s  time: %d  rejected: %s", id, t, err)
			return nil, err
		}
		r.log.Warnf("fallback: %s  time: %d  failed after: %d attempts  error: %s", id, t, attempt, err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fault.ErrUpstreamTimeout
		}
		return nil, fmt.Errorf("%w: %s", fault.ErrUpstreamTimeout, err)
	}

	if !found || nil == update {
		return nil, fault.ErrNotFound
	}

	result, err := fromUpdate(update, FromHistorical)
	if nil != err {
		r.fallbackErrors.Increment()
		r.log.Errorf("fallback: %s  time: %d  invalid update: %s", id, t, err)
		return nil, err
	}
	if id != result.Record.ID || result.Record.PublishTime < t {
		r.fallbackErrors.Increment()
		return nil, fault.ErrUpstreamResponse
	}

	r.results.Set(cacheKey, result, cache.DefaultExpiration)
	return result, nil
}

func fromEntry(e store.Entry) (*Result, error) {
	u, err := pricefeed.UnpackUpdate(e.Value)
	if nil != err {
		return nil, err
	}
	return fromUpdate(u, FromCache)
}

// decode and check an update
func fromUpdate(u *pricefeed.Update, source string) (*Result, error) {
	if err := u.Verify(); nil != err {
		return nil, err
	}
	record, err := u.Decode()
	if nil != err {
		return nil, err
	}
	proof, err := u.Path()
	if nil != err {
		return nil, err
	}
	return &Result{
		Update: u,
		Record: record,
		Proof:  proof,
		Slot:   u.Slot,
		Root:   u.Root,
		Source: source,
	}, nil
}
