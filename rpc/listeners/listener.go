// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package listeners

import (
	"net"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/pricecache/fault"
)

const (
	minConnectionCount = 1
	keepAlivePeriod    = 3 * time.Minute
)

// Listener - a started network service
type Listener interface {
	Serve() error
	Addresses() []string
	Close() error
}

type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (net.Conn, error) {
	tc, err := ln.AcceptTCP()
	if nil != err {
		return nil, err
	}
	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(keepAlivePeriod)
	return tc, nil
}

// convert "*:PORT" and check the IP, returning the network type and
// address for each entry
func parseListenAddress(addrs []string, log *logger.L) ([]string, []string, error) {
	network := make([]string, len(addrs))
	parsed := make([]string, len(addrs))
	for i, listen := range addrs {
		if "" == listen {
			return nil, nil, fault.ErrInvalidIPAddress
		}
		host := ""
		switch listen[0] {
		case '*':
			// change "*:PORT" to "[::]:PORT"
			// on the assumption that this will listen on tcp4 and tcp6
			parsed[i] = "[::]" + ":" + strings.Split(listen, ":")[1]
			host = "::"
			network[i] = "tcp"
		case '[':
			parsed[i] = listen
			host = strings.Split(listen[1:], "]:")[0]
			network[i] = "tcp6"
		default:
			parsed[i] = listen
			host = strings.Split(listen, ":")[0]
			network[i] = "tcp4"
		}

		if ip := net.ParseIP(host); nil == ip {
			err := fault.ErrInvalidIPAddress
			log.Errorf("listen: %q  error: %s", listen, err)
			return nil, nil, err
		}
	}

	return network, parsed, nil
}
