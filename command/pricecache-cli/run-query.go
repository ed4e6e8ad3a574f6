// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/pricecache/pricefeed"
)

func connect(m *metadata) (*client, error) {
	if m.verbose {
		fmt.Fprintf(m.e, "connect: %s\n", m.connect)
	}
	return newClient(m.connect, m.fingerprint, m.verbose, m.e)
}

func checkFeedID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if "" == s {
		return "", fmt.Errorf("feed id is required")
	}
	if _, err := pricefeed.FeedIDFromHex(s); nil != err {
		return "", err
	}
	return s, nil
}

// unix seconds or an RFC3339 time
func parseTime(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if "" == s {
		return 0, fmt.Errorf("time is required")
	}
	if n, err := strconv.ParseInt(s, 10, 64); nil == err {
		return n, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if nil != err {
		return 0, fmt.Errorf("time: %q is neither unix seconds nor RFC3339", s)
	}
	return t.Unix(), nil
}

func runLatest(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	id, err := checkFeedID(c.String("id"))
	if nil != err {
		return err
	}

	client, err := connect(m)
	if nil != err {
		return err
	}
	defer client.Close()

	reply, err := client.latest(id)
	if nil != err {
		return err
	}

	printJson(m.w, reply)
	return nil
}

func runAtOrAfter(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	id, err := checkFeedID(c.String("id"))
	if nil != err {
		return err
	}
	t, err := parseTime(c.String("time"))
	if nil != err {
		return err
	}

	client, err := connect(m)
	if nil != err {
		return err
	}
	defer client.Close()

	reply, err := client.atOrAfter(id, t)
	if nil != err {
		return err
	}

	printJson(m.w, reply)
	return nil
}

func runKeys(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	start := strings.TrimSpace(c.String("start"))
	if "" != start {
		if _, err := checkFeedID(start); nil != err {
			return err
		}
	}
	count := c.Int("count")
	if count <= 0 {
		return fmt.Errorf("count: %d must be positive", count)
	}

	client, err := connect(m)
	if nil != err {
		return err
	}
	defer client.Close()

	reply, err := client.keys(start, count)
	if nil != err {
		return err
	}

	printJson(m.w, reply)
	return nil
}

func runReady(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	client, err := connect(m)
	if nil != err {
		return err
	}
	defer client.Close()

	reply, err := client.ready()
	if nil != err {
		return err
	}

	printJson(m.w, reply)
	if !reply.Ready {
		return cli.NewExitError("not ready", 2)
	}
	return nil
}

func runInfo(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	client, err := connect(m)
	if nil != err {
		return err
	}
	defer client.Close()

	reply, err := client.info()
	if nil != err {
		return err
	}
	reply["_connection"] = m.connect

	printJson(m.w, reply)
	return nil
}
