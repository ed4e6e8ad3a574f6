// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ingest - turn upstream batches into verified cache entries
//
// Each slot is parsed, an accumulator is built over its records, every
// record is proven and the proof checked against the root, and only
// then is the whole slot committed to the store in one step.  A bad
// batch is dropped and counted; it never stops the pipeline.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/pricecache/counter"
	"github.com/bitmark-inc/pricecache/fault"
	"github.com/bitmark-inc/pricecache/merkle"
	"github.com/bitmark-inc/pricecache/pricefeed"
	"github.com/bitmark-inc/pricecache/readiness"
	"github.com/bitmark-inc/pricecache/store"
)

// Archiver - optional durable copy of committed slots
type Archiver interface {
	Archive(slot uint64, updates []*pricefeed.Update) error
}

// Config - collaborators of a pipeline
type Config struct {
	Hasher  merkle.Hasher // default Keccak256
	Store   *store.Store
	Tracker *readiness.Tracker
	Archive Archiver        // may be nil
	Clock   readiness.Clock // default time.Now
}

// Counts - totals since start
type Counts struct {
	Ingested        uint64 `json:"ingested"`
	Duplicates      uint64 `json:"duplicates"`
	Stale           uint64 `json:"stale"`
	Malformed       uint64 `json:"malformed"`
	ProofFailures   uint64 `json:"proofFailures"`
	ArchiveFailures uint64 `json:"archiveFailures"`
}

// Pipeline - the single writer of the store
type Pipeline struct {
	sync.Mutex // one slot at a time

	log     *logger.L
	hasher  merkle.Hasher
	store   *store.Store
	tracker *readiness.Tracker
	archive Archiver
	clock   readiness.Clock
	done    *history

	ingested        counter.Counter
	duplicates      counter.Counter
	stale           counter.Counter
	malformed       counter.Counter
	proofFailures   counter.Counter
	archiveFailures counter.Counter
}

// New - create a pipeline
func New(log *logger.L, config Config) (*Pipeline, error) {
	if nil == log || nil == config.Store || nil == config.Tracker {
		return nil, fault.ErrMissingParameters
	}
	p := &Pipeline{
		log:     log,
		hasher:  config.Hasher,
		store:   config.Store,
		tracker: config.Tracker,
		archive: config.Archive,
		clock:   config.Clock,
		done:    newHistory(historyWindows * uint64(config.Store.SizeSlots())),
	}
	if nil == p.hasher {
		p.hasher = merkle.Keccak256
	}
	if nil == p.clock {
		p.clock = time.Now
	}
	return p, nil
}

// Hasher - the accumulator hash in use
func (p *Pipeline) Hasher() merkle.Hasher {
	return p.hasher
}

// Counts - current totals
func (p *Pipeline) Counts() Counts {
	return Counts{
		Ingested:        p.ingested.Uint64(),
		Duplicates:      p.duplicates.Uint64(),
		Stale:           p.stale.Uint64(),
		Malformed:       p.malformed.Uint64(),
		ProofFailures:   p.proofFailures.Uint64(),
		ArchiveFailures: p.archiveFailures.Uint64(),
	}
}

// Ingest - process one slot
//
// a slot that is in the store, or was completed and since evicted, is
// skipped and returns nil; any other slot older than the latest
// completed slot is dropped with fault.ErrSlotOutOfOrder
func (p *Pipeline) Ingest(ctx context.Context, slot uint64, raw []byte) error {
	p.Lock()
	defer p.Unlock()

	p.tracker.Observe(slot)

	if err := ctx.Err(); nil != err {
		return err
	}

	if _, ok := p.store.Snapshot().Batch(store.Slot(slot)); ok || p.done.contains(slot) {
		p.duplicates.Increment()
		p.log.Debugf("slot: %d  duplicate skipped", slot)
		return nil
	}
	if latest, ok := p.tracker.LatestCompleted(); ok && slot < latest {
		p.stale.Increment()
		p.log.Warnf("slot: %d  older than completed: %d  dropped", slot, latest)
		return fault.ErrSlotOutOfOrder
	}

	batch, err := pricefeed.ParseBatch(slot, raw)
	if nil != err {
		p.malformed.Increment()
		p.log.Errorf("slot: %d  parse error: %s", slot, err)
		return err
	}

	updates, entries, root, err := p.prove(batch)
	if nil != err {
		p.proofFailures.Increment()
		p.log.Errorf("slot: %d  error: %s", slot, err)
		return err
	}

	err = p.store.Commit(&store.Batch{
		Slot:    store.Slot(slot),
		Time:    batch.Time,
		Root:    root,
		Hasher:  p.hasher.Name(),
		Entries: entries,
	})
	if nil != err {
		if fault.IsErrProcess(err) {
			p.stale.Increment()
		}
		p.log.Errorf("slot: %d  commit error: %s", slot, err)
		return err
	}

	if nil != p.archive {
		if err := p.archive.Archive(slot, updates); nil != err {
			p.archiveFailures.Increment()
			p.log.Errorf("slot: %d  archive error: %s", slot, err)
		}
	}

	p.tracker.Complete(slot, p.clock())
	p.done.add(slot)
	p.ingested.Increment()

	p.log.Debugf("slot: %d  records: %d  root: %s", slot, len(entries), root)
	return nil
}

// build the accumulator and check every proof against its root
func (p *Pipeline) prove(batch *pricefeed.Batch) ([]*pricefeed.Update, []store.Entry, merkle.Digest, error) {

	tree := merkle.NewTree(p.hasher, batch.Items)
	root := tree.Root()

	updates := make([]*pricefeed.Update, len(batch.Items))
	entries := make([]store.Entry, len(batch.Items))

	for i, item := range batch.Items {
		proof, ok := tree.ProveIndex(i)
		if !ok || !proof.Verify(p.hasher, root, item) {
			return nil, nil, nil, fmt.Errorf("record[%d]: %w", i, fault.ErrProofVerificationFailed)
		}

		record := batch.Records[i]
		u, err := pricefeed.NewUpdate(item, proof, batch.Slot, record.PublishTime, tree)
		if nil != err {
			return nil, nil, nil, err
		}
		value, err := u.Pack()
		if nil != err {
			return nil, nil, nil, err
		}

		updates[i] = u
		entries[i] = store.Entry{
			Key:   store.NewKey(store.NamespacePrice, record.ID),
			Time:  record.PublishTime,
			Value: value,
		}
	}
	return updates, entries, root, nil
}

// Run - ingest messages until the source closes or ctx is cancelled
//
// batch errors are logged and counted only
func (p *Pipeline) Run(ctx context.Context, source <-chan pricefeed.Message) error {
	p.log.Info("starting…")
	for {
		select {
		case <-ctx.Done():
			p.log.Info("stopped")
			return ctx.Err()
		case m, ok := <-source:
			if !ok {
				p.log.Info("source closed")
				return nil
			}
			_ = p.Ingest(ctx, m.Slot, m.Raw)
		}
	}
}
