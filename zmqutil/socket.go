// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package zmqutil - ZeroMQ helpers for the upstream feed
package zmqutil

import (
	"strings"
	"time"

	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/pricecache/fault"
)

const (
	heartbeatInterval = 15 * time.Second
	heartbeatTimeout  = 60 * time.Second
	heartbeatTTL      = 120 * time.Second
)

// NewSignalPair - return a pair of connected push/pull sockets
// for shutdown signalling
func NewSignalPair(signal string) (*zmq.Socket, *zmq.Socket, error) {

	// send half of signalling channel
	push, err := zmq.NewSocket(zmq.PUSH)
	if nil != err {
		return nil, nil, err
	}
	push.SetLinger(0)
	err = push.Bind(signal)
	if nil != err {
		push.Close()
		return nil, nil, err
	}

	// receive half of signalling channel
	pull, err := zmq.NewSocket(zmq.PULL)
	if nil != err {
		push.Close()
		return nil, nil, err
	}
	pull.SetLinger(0)
	err = pull.Connect(signal)
	if nil != err {
		push.Close()
		pull.Close()
		return nil, nil, err
	}

	return push, pull, nil
}

// NewServerSocket - create and bind a socket suitable for the server side
//
// a nil private key gives a plain (unencrypted) socket, otherwise
// StartAuthentication must already have admitted clients to zapDomain
func NewServerSocket(socketType zmq.Type, zapDomain string, privateKey []byte, publicKey []byte, endpoint string) (*zmq.Socket, error) {

	socket, err := zmq.NewSocket(socketType)
	if nil != err {
		return nil, err
	}

	if nil != privateKey {
		if len(privateKey) != privateKeySize || len(publicKey) != publicKeySize {
			socket.Close()
			return nil, fault.ErrInvalidPrivateKey
		}
		socket.SetCurveServer(1)
		socket.SetCurveSecretkey(string(privateKey))
		socket.SetZapDomain(zapDomain)
		socket.SetIdentity(string(publicKey)) // just use public key for identity
	}

	socket.SetLinger(0)
	socket.SetIpv6(IsIPv6(endpoint))

	// heartbeat
	socket.SetHeartbeatIvl(heartbeatInterval)
	socket.SetHeartbeatTimeout(heartbeatTimeout)
	socket.SetHeartbeatTtl(heartbeatTTL)

	err = socket.Bind(endpoint)
	if nil != err {
		socket.Close()
		return nil, err
	}
	return socket, nil
}

// IsIPv6 - true for a tcp endpoint with a bracketed address
func IsIPv6(endpoint string) bool {
	return strings.HasPrefix(endpoint, "tcp://[")
}
