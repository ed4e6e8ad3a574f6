// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package feed

import (
	"sync"

	"github.com/bitmark-inc/logger"
	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/pricecache/fault"
	"github.com/bitmark-inc/pricecache/zmqutil"
)

const zapDomain = "pricecache-feed"

// Publisher - the sending side of the feed, used by test upstreams
// and relays
type Publisher struct {
	sync.Mutex
	log    *logger.L
	socket *zmq.Socket
}

// NewPublisher - bind a PUB socket, nil keys give a plain socket
func NewPublisher(log *logger.L, endpoint string, privateKey []byte, publicKey []byte) (*Publisher, error) {
	if nil == log {
		return nil, fault.ErrMissingParameters
	}
	if nil != privateKey {
		if err := zmqutil.StartAuthentication(zapDomain); nil != err {
			return nil, err
		}
	}
	socket, err := zmqutil.NewServerSocket(zmq.PUB, zapDomain, privateKey, publicKey, endpoint)
	if nil != err {
		log.Errorf("bind: %q  error: %s", endpoint, err)
		return nil, err
	}
	log.Infof("bind: %q", endpoint)
	return &Publisher{
		log:    log,
		socket: socket,
	}, nil
}

// Publish - send one slot
func (pub *Publisher) Publish(slot uint64, raw []byte) error {
	pub.Lock()
	defer pub.Unlock()
	if nil == pub.socket {
		return fault.ErrNotConnected
	}
	frames := Frames(slot, raw)
	_, err := pub.socket.SendMessage(frames[0], frames[1])
	if nil != err {
		pub.log.Errorf("slot: %d  send error: %s", slot, err)
	}
	return err
}

// Close - release the socket
func (pub *Publisher) Close() error {
	pub.Lock()
	defer pub.Unlock()
	if nil == pub.socket {
		return nil
	}
	err := pub.socket.Close()
	pub.socket = nil
	return err
}
