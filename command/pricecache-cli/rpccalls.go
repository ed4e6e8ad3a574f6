// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/pricecache/rpc/node"
	"github.com/bitmark-inc/pricecache/rpc/price"
)

const dialTimeout = 10 * time.Second

// client - JSON-RPC connection to a pricecached
type client struct {
	conn    net.Conn
	client  *rpc.Client
	verbose bool
	handle  io.Writer // if verbose is set output items here
}

// the node uses a self signed certificate, so trust comes from the
// fingerprint when one is given
func newClient(connect string, fingerprint string, verbose bool, handle io.Writer) (*client, error) {

	tlsConfig := &tls.Config{
		InsecureSkipVerify: true,
	}

	dialer := &net.Dialer{
		Timeout: dialTimeout,
	}
	conn, err := tls.DialWithDialer(dialer, "tcp", connect, tlsConfig)
	if err != nil {
		return nil, err
	}

	if "" != fingerprint {
		expected, err := hex.DecodeString(fingerprint)
		if nil != err {
			conn.Close()
			return nil, err
		}
		certificates := conn.ConnectionState().PeerCertificates
		if 0 == len(certificates) {
			conn.Close()
			return nil, fmt.Errorf("no certificate from: %s", connect)
		}
		actual := sha3.Sum256(certificates[0].Raw)
		if !bytes.Equal(expected, actual[:]) {
			conn.Close()
			return nil, fmt.Errorf("certificate fingerprint: %x does not match: %s", actual, fingerprint)
		}
	}

	r := &client{
		conn:    conn,
		client:  jsonrpc.NewClient(conn),
		verbose: verbose,
		handle:  handle,
	}
	return r, nil
}

func (c *client) Close() {
	c.client.Close()
	c.conn.Close()
}

func (c *client) latest(id string) (*price.Reply, error) {
	args := price.LatestArguments{
		ID: id,
	}
	c.printJson("Latest Request", args)

	var reply price.Reply
	if err := c.client.Call("Price.Latest", args, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

func (c *client) atOrAfter(id string, t int64) (*price.Reply, error) {
	args := price.AtOrAfterArguments{
		ID:   id,
		Time: t,
	}
	c.printJson("AtOrAfter Request", args)

	var reply price.Reply
	if err := c.client.Call("Price.AtOrAfter", args, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

func (c *client) keys(start string, count int) (*price.KeysReply, error) {
	args := price.KeysArguments{
		Start: start,
		Count: count,
	}
	c.printJson("Keys Request", args)

	var reply price.KeysReply
	if err := c.client.Call("Price.Keys", args, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

func (c *client) ready() (*node.ReadyReply, error) {
	var reply node.ReadyReply
	if err := c.client.Call("Node.Ready", node.ReadyArguments{}, &reply); nil != err {
		return nil, err
	}
	return &reply, nil
}

// any version of the node
func (c *client) info() (map[string]interface{}, error) {
	var reply map[string]interface{}
	if err := c.client.Call("Node.Info", node.InfoArguments{}, &reply); nil != err {
		return nil, err
	}
	return reply, nil
}

func (c *client) printJson(title string, message interface{}) {
	if !c.verbose {
		return
	}
	fmt.Fprintf(c.handle, "%s:\n", title)
	printJson(c.handle, message)
}
