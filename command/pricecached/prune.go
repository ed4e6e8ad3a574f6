// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/pricecache/archive"
	"github.com/bitmark-inc/pricecache/readiness"
)

const pruneInterval = 5 * time.Minute

// drop archived slots that fall too far behind the latest completed slot
type pruner struct {
	log       *logger.L
	archive   *archive.Archive
	tracker   *readiness.Tracker
	keepSlots uint64
}

func newPruner(log *logger.L, a *archive.Archive, tracker *readiness.Tracker, keepSlots uint64) *pruner {
	return &pruner{
		log:       log,
		archive:   a,
		tracker:   tracker,
		keepSlots: keepSlots,
	}
}

func (p *pruner) Run(args interface{}, shutdown <-chan struct{}) {
	p.log.Infof("keeping: %d slots", p.keepSlots)
loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-time.After(pruneInterval):
			p.prune()
		}
	}
	p.log.Info("shutting down…")
}

func (p *pruner) prune() {
	latest, ok := p.tracker.LatestCompleted()
	if !ok || latest <= p.keepSlots {
		return
	}
	n, err := p.archive.Prune(latest - p.keepSlots)
	if nil != err {
		p.log.Errorf("prune error: %s", err)
		return
	}
	if n > 0 {
		p.log.Infof("pruned: %d slots below: %d", n, latest-p.keepSlots)
	}
}
