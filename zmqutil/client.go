// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqutil

import (
	"crypto/rand"
	"sync"
	"time"

	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/pricecache/fault"
)

// Client - one upstream connection
type Client struct {
	publicKey       []byte
	privateKey      []byte
	serverPublicKey []byte
	address         string
	socketType      zmq.Type
	socket          *zmq.Socket
	poller          *Poller
	events          zmq.State
	timeout         time.Duration
	timestamp       time.Time
}

const (
	publicKeySize  = 32
	privateKeySize = 32
	identifierSize = 32
)

type globalClientDataType struct {
	sync.Mutex
	clients map[*zmq.Socket]*Client
}

var globalClientData = globalClientDataType{
	clients: make(map[*zmq.Socket]*Client),
}

// NewClient - create a client socket usually of type zmq.SUB
//
// nil keys give a plain connection
func NewClient(socketType zmq.Type, privateKey []byte, publicKey []byte, timeout time.Duration) (*Client, error) {

	if nil != publicKey && len(publicKey) != publicKeySize {
		return nil, fault.ErrInvalidPublicKey
	}
	if nil != privateKey && len(privateKey) != privateKeySize {
		return nil, fault.ErrInvalidPrivateKey
	}
	if (nil == privateKey) != (nil == publicKey) {
		return nil, fault.ErrMissingParameters
	}

	client := &Client{
		socketType: socketType,
		timeout:    timeout,
		timestamp:  time.Now(),
	}
	if nil != privateKey {
		client.privateKey = append([]byte{}, privateKey...)
		client.publicKey = append([]byte{}, publicKey...)
	}
	return client, nil
}

// create a socket and connect to specific server with specifed key
func (client *Client) openSocket() error {

	socket, err := zmq.NewSocket(client.socketType)
	if nil != err {
		return err
	}

	// create a secure random identifier
	randomIdBytes := make([]byte, identifierSize)
	_, err = rand.Read(randomIdBytes)
	if nil != err {
		socket.Close()
		return err
	}

	// local identitity is a random value
	err = socket.SetIdentity(string(randomIdBytes))
	if nil != err {
		goto failure
	}

	if nil != client.privateKey {
		err = socket.SetCurveServer(0)
		if nil != err {
			goto failure
		}
		err = socket.SetCurvePublickey(string(client.publicKey))
		if nil != err {
			goto failure
		}
		err = socket.SetCurveSecretkey(string(client.privateKey))
		if nil != err {
			goto failure
		}
		err = socket.SetCurveServerkey(string(client.serverPublicKey))
		if nil != err {
			goto failure
		}
	}

	// zero => do not set timeout
	if 0 != client.timeout {
		err = socket.SetRcvtimeo(client.timeout)
		if nil != err {
			goto failure
		}
	}
	err = socket.SetLinger(0)
	if nil != err {
		goto failure
	}

	if zmq.SUB == client.socketType {
		// set subscription prefix - empty => receive everything
		err = socket.SetSubscribe("")
		if nil != err {
			goto failure
		}
	}

	// this need zmq 4.2
	err = socket.SetHeartbeatIvl(heartbeatInterval)
	if nil != err && zmq.ErrorNotImplemented42 != err {
		goto failure
	}
	err = socket.SetHeartbeatTimeout(heartbeatTimeout)
	if nil != err && zmq.ErrorNotImplemented42 != err {
		goto failure
	}
	err = socket.SetHeartbeatTtl(heartbeatTTL)
	if nil != err && zmq.ErrorNotImplemented42 != err {
		goto failure
	}

	// set IPv6 state before connect
	err = socket.SetIpv6(IsIPv6(client.address))
	if nil != err {
		goto failure
	}

	err = socket.Connect(client.address)
	if nil != err {
		goto failure
	}

	client.socket = socket

	globalClientData.Lock()
	globalClientData.clients[socket] = client
	globalClientData.Unlock()

	if nil != client.poller {
		client.poller.Add(client.socket, client.events)
	}
	return nil

failure:
	socket.Close()
	return err
}

// destroy the socket, but leave other connection info so can reconnect
// to the same endpoint again
func (client *Client) closeSocket() error {

	if nil == client.socket {
		return nil
	}

	if nil != client.poller {
		client.poller.Remove(client.socket)
	}

	if "" != client.address {
		client.socket.Disconnect(client.address)
	}

	globalClientData.Lock()
	delete(globalClientData.clients, client.socket)
	globalClientData.Unlock()

	err := client.socket.Close()
	client.socket = nil
	return err
}

// Connect - disconnect old address and connect to a new endpoint
//
// endpoint is a full ZeroMQ address e.g. "tcp://127.0.0.1:2140"
func (client *Client) Connect(endpoint string, serverPublicKey []byte) error {

	err := client.closeSocket()
	if nil != err {
		return err
	}
	client.address = ""

	if nil != client.privateKey {
		if len(serverPublicKey) != publicKeySize {
			return fault.ErrInvalidPublicKey
		}
		client.serverPublicKey = append([]byte{}, serverPublicKey...)
	}

	// small delay to allow any backgroud socket closing
	// and to restrict rate of reconnection
	time.Sleep(5 * time.Millisecond)

	client.address = endpoint
	client.timestamp = time.Now()

	return client.openSocket()
}

// IsConnected - check if connected to a node
func (client *Client) IsConnected() bool {
	return "" != client.address && nil != client.socket
}

// Reconnect - close and reopen the connection
func (client *Client) Reconnect() error {
	err := client.closeSocket()
	if nil != err {
		return err
	}
	client.timestamp = time.Now()
	return client.openSocket()
}

// Close - disconnect and close
func (client *Client) Close() error {
	return client.closeSocket()
}

// CloseClients - disconnect and close all
func CloseClients(clients []*Client) {
	for _, client := range clients {
		if nil != client {
			client.Close()
		}
	}
}

// Receive - read one multipart message
func (client *Client) Receive(flags zmq.Flag) ([][]byte, error) {
	if !client.IsConnected() {
		return nil, fault.ErrNotConnected
	}
	data, err := client.socket.RecvMessageBytes(flags)
	if nil == err {
		client.timestamp = time.Now()
	}
	return data, err
}

// BeginPolling - add client to a poller
func (client *Client) BeginPolling(poller *Poller, events zmq.State) *zmq.Socket {

	if nil != client.poller && nil != client.socket {
		client.poller.Remove(client.socket)
	}

	client.poller = poller
	client.events = events
	if nil != client.socket {
		poller.Add(client.socket, events)
	}
	return client.socket
}

// Age - time since last connect or successful receive
func (client *Client) Age() time.Duration {
	return time.Since(client.timestamp)
}

// to string
func (client Client) String() string {
	return client.address
}

// ClientFromSocket - find the client corresponding to a socket
func ClientFromSocket(socket *zmq.Socket) *Client {
	globalClientData.Lock()
	client := globalClientData.clients[socket]
	globalClientData.Unlock()
	return client
}
