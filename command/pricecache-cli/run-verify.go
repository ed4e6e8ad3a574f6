// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/pricecache/fault"
	"github.com/bitmark-inc/pricecache/merkle"
	"github.com/bitmark-inc/pricecache/pricefeed"
	"github.com/bitmark-inc/pricecache/rpc/price"
)

type verifyResult struct {
	Verified bool              `json:"verified"`
	Slot     uint64            `json:"slot"`
	Time     int64             `json:"time"`
	Root     merkle.Digest     `json:"root"`
	Hasher   string            `json:"hasher"`
	Record   *pricefeed.Record `json:"record"`
}

func runVerify(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	var in io.Reader = os.Stdin
	if file := c.String("file"); "" != file && "-" != file {
		f, err := os.Open(file)
		if nil != err {
			return err
		}
		defer f.Close()
		in = f
	}

	data, err := ioutil.ReadAll(in)
	if nil != err {
		return err
	}

	result, err := verify(data, c.String("root"))
	if nil != err {
		return err
	}

	printJson(m.w, result)
	return nil
}

// check a reply as printed by latest or at
func verify(data []byte, trustedRoot string) (*verifyResult, error) {

	var reply price.Reply
	if err := json.Unmarshal(data, &reply); nil != err {
		return nil, err
	}
	update := reply.Update
	if nil == update {
		return nil, fmt.Errorf("result has no update")
	}

	if err := update.Verify(); nil != err {
		return nil, err
	}

	if s := strings.TrimSpace(trustedRoot); "" != s {
		root, err := hex.DecodeString(s)
		if nil != err {
			return nil, err
		}
		if !bytes.Equal(root, update.Root) {
			return nil, fault.ErrProofVerificationFailed
		}
	}

	record, err := update.Decode()
	if nil != err {
		return nil, err
	}

	// the decoded record must be the one that was shown
	if nil != reply.Record && !bytes.Equal(reply.Record.Pack(), update.Record) {
		return nil, fault.ErrProofVerificationFailed
	}

	return &verifyResult{
		Verified: true,
		Slot:     update.Slot,
		Time:     update.Time,
		Root:     update.Root,
		Hasher:   update.Hasher,
		Record:   record,
	}, nil
}
