// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package historical

import (
	"context"

	"github.com/bitmark-inc/pricecache/pricefeed"
)

// Local - a source backed by this node's own archive
type Local struct {
	lookup Lookup
}

// NewLocal - wrap an archive as a source
func NewLocal(lookup Lookup) *Local {
	return &Local{
		lookup: lookup,
	}
}

// Request - Source interface
func (l *Local) Request(ctx context.Context, id pricefeed.FeedID, time int64) (*pricefeed.Update, bool, error) {
	if err := ctx.Err(); nil != err {
		return nil, false, err
	}
	return l.lookup.AtOrAfter(id, time)
}
