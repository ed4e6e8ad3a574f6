// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package feed

import (
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bitmark-inc/logger"
	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/pricecache/counter"
	"github.com/bitmark-inc/pricecache/fault"
	"github.com/bitmark-inc/pricecache/pricefeed"
	"github.com/bitmark-inc/pricecache/zmqutil"
)

const (
	subscriberSignal = "inproc://pricecache-feed-signal"
	defaultBuffer    = 16
	defaultSilence   = 60 * time.Second
	pollInterval     = time.Second
)

// each subscriber needs a distinct inproc name
var signalSequence uint64

// Connection - one upstream publisher
type Connection struct {
	Address   string `gluamapper:"address" json:"address"`
	PublicKey string `gluamapper:"public_key" json:"public_key"`
}

// Config - subscriber setup
//
// with no keys the connections are plain
type Config struct {
	PrivateKey []byte
	PublicKey  []byte
	Connect    []Connection
	Buffer     int
	Silence    time.Duration // reconnect a publisher quiet for this long
}

// Subscriber - receive slot messages from the upstream
type Subscriber struct {
	log      *logger.L
	push     *zmq.Socket
	pull     *zmq.Socket
	clients  []*zmqutil.Client
	out      chan pricefeed.Message
	done     chan struct{}
	received counter.Counter
	rejected counter.Counter
	silence  time.Duration
}

// New - create the sockets and connect to all publishers
func New(log *logger.L, config Config) (*Subscriber, error) {
	if nil == log {
		return nil, fault.ErrMissingParameters
	}
	if 0 == len(config.Connect) {
		return nil, fault.ErrMissingParameters
	}

	buffer := config.Buffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	silence := config.Silence
	if silence <= 0 {
		silence = defaultSilence
	}

	sbsc := &Subscriber{
		log:     log,
		clients: make([]*zmqutil.Client, len(config.Connect)),
		out:     make(chan pricefeed.Message, buffer),
		done:    make(chan struct{}),
		silence: silence,
	}

	log.Info("initialising…")

	signal := fmt.Sprintf("%s-%d", subscriberSignal, atomic.AddUint64(&signalSequence, 1))
	err := error(nil)
	sbsc.push, sbsc.pull, err = zmqutil.NewSignalPair(signal)
	if nil != err {
		return nil, err
	}

	for i, c := range config.Connect {
		serverPublicKey := []byte(nil)
		if nil != config.PrivateKey {
			serverPublicKey, err = hex.DecodeString(c.PublicKey)
			if nil != err {
				log.Errorf("client[%d]=public: %q  error: %v", i, c.PublicKey, err)
				goto fail
			}
		}

		client := (*zmqutil.Client)(nil)
		client, err = zmqutil.NewClient(zmq.SUB, config.PrivateKey, config.PublicKey, 0)
		if nil != err {
			log.Errorf("client[%d]=%q  error: %v", i, c.Address, err)
			goto fail
		}
		sbsc.clients[i] = client

		err = client.Connect(c.Address, serverPublicKey)
		if nil != err {
			log.Errorf("connect[%d]=%q  error: %v", i, c.Address, err)
			goto fail
		}
		log.Infof("public key: %x  at: %q", serverPublicKey, c.Address)
	}

	return sbsc, nil

	// error handling
fail:
	zmqutil.CloseClients(sbsc.clients)
	sbsc.push.Close()
	sbsc.pull.Close()
	return nil, err
}

// Messages - received slots, closed when the subscriber stops
func (sbsc *Subscriber) Messages() <-chan pricefeed.Message {
	return sbsc.out
}

// Counts - messages received and rejected as malformed
func (sbsc *Subscriber) Counts() (uint64, uint64) {
	return sbsc.received.Uint64(), sbsc.rejected.Uint64()
}

// Run - receive until shutdown
func (sbsc *Subscriber) Run(args interface{}, shutdown <-chan struct{}) {

	log := sbsc.log

	log.Info("starting…")

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		defer close(sbsc.out)

		poller := zmqutil.NewPoller()
		for _, c := range sbsc.clients {
			c.BeginPolling(poller, zmq.POLLIN)
		}
		poller.Add(sbsc.pull, zmq.POLLIN)
	loop:
		for {
			sockets, err := poller.Poll(pollInterval)
			if nil != err {
				if zmq.ETERM == zmq.AsErrno(err) {
					break loop
				}
				log.Errorf("poll error: %v", err)
				time.Sleep(10 * time.Millisecond)
				continue loop
			}
			for _, socket := range sockets {
				switch s := socket.Socket; s {
				case sbsc.pull:
					s.Recv(0)
					break loop
				default:
					client := zmqutil.ClientFromSocket(s)
					if nil == client {
						log.Errorf("unregistered socket: %v", s)
						continue
					}
					data, err := client.Receive(0)
					if nil != err {
						log.Errorf("receive error: %v", err)
						continue
					}
					if !sbsc.process(s, data) {
						break loop
					}
				}
			}
			sbsc.reconnectSilent()
		}
		sbsc.pull.Close()
		zmqutil.CloseClients(sbsc.clients)
	}()

	// wait for shutdown
	<-shutdown
	close(sbsc.done)
	sbsc.push.SendMessage("stop")
	<-finished
	sbsc.push.Close()
	log.Info("stopped")
}

// a publisher that sent nothing for the silence period is
// reconnected, the poller registration survives the reopen
func (sbsc *Subscriber) reconnectSilent() {
	for _, client := range sbsc.clients {
		if client.Age() < sbsc.silence {
			continue
		}
		sbsc.log.Warnf("reconnect: %s  silent: %s", client, client.Age())
		err := client.Reconnect()
		if nil != err {
			sbsc.log.Errorf("reconnect: %s  error: %s", client, err)
		}
	}
}

// decode and forward one message, false if stopping
func (sbsc *Subscriber) process(socket *zmq.Socket, data [][]byte) bool {
	log := sbsc.log

	message, err := Decode(data)
	if nil != err {
		sbsc.rejected.Increment()
		log.Warnf("from: %s  frames: %d  error: %s", zmqutil.ClientFromSocket(socket), len(data), err)
		return true
	}
	sbsc.received.Increment()
	log.Debugf("received slot: %d  bytes: %d", message.Slot, len(message.Raw))

	select {
	case sbsc.out <- message:
		return true
	case <-sbsc.done:
		return false
	}
}
