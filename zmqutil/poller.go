// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqutil

import (
	"sync"
	"time"

	zmq "github.com/pebbe/zmq4"
)

// Poller - a zmq poller whose socket set may change between polls
//
// a reconnect removes and adds a socket, so the underlying zmq
// poller is only rebuilt at the next Poll
type Poller struct {
	sync.Mutex
	sockets map[*zmq.Socket]zmq.State
	poller  *zmq.Poller
	stale   bool
}

// NewPoller - create an empty poller
func NewPoller() *Poller {
	return &Poller{
		sockets: make(map[*zmq.Socket]zmq.State),
		poller:  zmq.NewPoller(),
	}
}

// Add - add a socket, a second add only changes the event mask
func (poller *Poller) Add(socket *zmq.Socket, events zmq.State) {
	poller.Lock()
	if current, ok := poller.sockets[socket]; !ok || current != events {
		poller.sockets[socket] = events
		poller.stale = true
	}
	poller.Unlock()
}

// Remove - remove a socket, unknown sockets are ignored
func (poller *Poller) Remove(socket *zmq.Socket) {
	poller.Lock()
	if _, ok := poller.sockets[socket]; ok {
		delete(poller.sockets, socket)
		poller.stale = true
	}
	poller.Unlock()
}

// Len - number of sockets polled
func (poller *Poller) Len() int {
	poller.Lock()
	defer poller.Unlock()
	return len(poller.sockets)
}

// Poll - wait for events, negative timeout waits forever
func (poller *Poller) Poll(timeout time.Duration) ([]zmq.Polled, error) {
	poller.Lock()
	if poller.stale {
		p := zmq.NewPoller()
		for s, events := range poller.sockets {
			p.Add(s, events)
		}
		poller.poller = p
		poller.stale = false
	}
	p := poller.poller
	poller.Unlock()
	return p.Poll(timeout)
}
