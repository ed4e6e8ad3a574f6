// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package historical - source of updates older than the cache window
//
// The client fetches from a remote node over HTTP; the server exposes
// a local archive with the same endpoint:
//
//   GET /v1/updates/<feed id hex>?time=<unix seconds>
//
//   200  JSON encoded pricefeed.Update
//   404  no update at or after the time
package historical

import (
	"context"

	"github.com/bitmark-inc/pricecache/pricefeed"
)

// UpdatesPath - prefix of the endpoint
const UpdatesPath = "/v1/updates/"

// Source - anything that can look up an update at or after a time
//
// the bool is false when the source has no such update
type Source interface {
	Request(ctx context.Context, id pricefeed.FeedID, time int64) (*pricefeed.Update, bool, error)
}
