// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package historical

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/pricecache/fault"
	"github.com/bitmark-inc/pricecache/pricefeed"
	"github.com/bitmark-inc/pricecache/util"
)

// Client - HTTP source
type Client struct {
	log    *logger.L
	url    string
	client *http.Client
}

// NewClient - create a client for a remote node
//
// progressTimeout bounds the wait for the response header once the
// request is sent, overall time limits come from the context
func NewClient(log *logger.L, url string, progressTimeout time.Duration) (*Client, error) {
	if nil == log || "" == url {
		return nil, fault.ErrMissingParameters
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   progressTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ResponseHeaderTimeout: progressTimeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
	return &Client{
		log: log,
		url: strings.TrimSuffix(url, "/"),
		client: &http.Client{
			Transport: transport,
		},
	}, nil
}

// Request - fetch the first update for id at or after time
func (c *Client) Request(ctx context.Context, id pricefeed.FeedID, time int64) (*pricefeed.Update, bool, error) {
	url := c.url + UpdatesPath + id.String() + "?time=" + strconv.FormatInt(time, 10)

	var reply pricefeed.Update
	status, err := util.FetchJSON(ctx, c.client, url, &reply)
	switch {
	case http.StatusNotFound == status:
		return nil, false, nil
	case nil != ctx.Err():
		return nil, false, ctx.Err()
	case nil != err && 0 == status:
		c.log.Debugf("request: %q  error: %s", url, err)
		return nil, false, err
	case nil != err && status >= 400 && status < 500:
		c.log.Warnf("request: %q  rejected: %s", url, err)
		return nil, false, fmt.Errorf("%w: %s", fault.ErrUpstreamRejected, err)
	case nil != err:
		c.log.Warnf("request: %q  error: %s", url, err)
		return nil, false, fmt.Errorf("%w: %s", fault.ErrUpstreamResponse, err)
	}
	return &reply, true, nil
}
