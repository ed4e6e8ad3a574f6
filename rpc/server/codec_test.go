// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/rpc"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/pricecache/rpc/server"
)

type tag struct{}

type LookupArguments struct {
	Name string `json:"name"`
	ctx  context.Context
}

func (a *LookupArguments) SetContext(ctx context.Context) {
	a.ctx = ctx
}

type Lookup struct{}

func (*Lookup) Tag(arguments *LookupArguments, reply *string) error {
	if nil == arguments.ctx {
		*reply = "none"
		return nil
	}
	*reply = arguments.ctx.Value(tag{}).(string) + ":" + arguments.Name
	return nil
}

type bufferConnection struct {
	in  *strings.Reader
	out *bytes.Buffer
}

func (c *bufferConnection) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c *bufferConnection) Write(p []byte) (int, error) { return c.out.Write(p) }
func (c *bufferConnection) Close() error                { return nil }

func TestCodecPassesContext(t *testing.T) {
	s := rpc.NewServer()
	assert.Nil(t, s.Register(&Lookup{}), "register")

	conn := &bufferConnection{
		in:  strings.NewReader(`{"method":"Lookup.Tag","params":[{"name":"feed"}],"id":7}`),
		out: &bytes.Buffer{},
	}
	ctx := context.WithValue(context.Background(), tag{}, "request")
	assert.Nil(t, s.ServeRequest(server.NewCodec(ctx, conn)), "serve")

	var reply struct {
		ID     int     `json:"id"`
		Result string  `json:"result"`
		Error  *string `json:"error"`
	}
	assert.Nil(t, json.Unmarshal(conn.out.Bytes(), &reply), "decode")
	assert.Equal(t, 7, reply.ID, "id")
	assert.Nil(t, reply.Error, "error")
	assert.Equal(t, "request:feed", reply.Result, "context reached the arguments")
}
