// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server

import (
	"context"
	"io"
	"net/rpc"
	"net/rpc/jsonrpc"
)

// ContextSetter - arguments that accept the caller's context
type ContextSetter interface {
	SetContext(context.Context)
}

type contextCodec struct {
	rpc.ServerCodec
	ctx context.Context
}

// NewCodec - a JSON-RPC codec that hands ctx to every decoded
// argument implementing ContextSetter
func NewCodec(ctx context.Context, conn io.ReadWriteCloser) rpc.ServerCodec {
	return &contextCodec{
		ServerCodec: jsonrpc.NewServerCodec(conn),
		ctx:         ctx,
	}
}

func (c *contextCodec) ReadRequestBody(body interface{}) error {
	err := c.ServerCodec.ReadRequestBody(body)
	if nil != err {
		return err
	}
	if setter, ok := body.(ContextSetter); ok {
		setter.SetContext(c.ctx)
	}
	return nil
}
