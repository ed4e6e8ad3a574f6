// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package listeners

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/pricecache/fault"
)

const (
	httpsLogName     = "http_rpc"
	readWriteTimeout = 10 * time.Second
	shutdownTimeout  = 5 * time.Second
)

// HTTPSConfiguration - configuration file data for HTTPS setup
//
// no certificate gives plain HTTP
type HTTPSConfiguration struct {
	MaximumConnections uint64              `gluamapper:"maximum_connections" json:"maximum_connections"`
	Listen             []string            `gluamapper:"listen" json:"listen"`
	Certificate        string              `gluamapper:"certificate" json:"certificate"`
	PrivateKey         string              `gluamapper:"private_key" json:"private_key"`
	Allow              map[string][]string `gluamapper:"allow" json:"allow"`
}

type httpsListener struct {
	sync.Mutex
	log             *logger.L
	ipType          []string
	listenIPAndPort []string
	tlsConfig       *tls.Config
	handler         http.Handler
	servers         []*http.Server
	addresses       []string
}

// NewHTTPS - serve a handler on all listen addresses, nil tlsConfig
// for plain HTTP
func NewHTTPS(
	configuration *HTTPSConfiguration,
	log *logger.L,
	tlsConfig *tls.Config,
	handler http.Handler,
) (Listener, error) {
	if 0 == len(configuration.Listen) {
		log.Infof("disable: %s", httpsLogName)
		return nil, nil
	}

	if configuration.MaximumConnections < minConnectionCount {
		log.Errorf("invalid %s maximum connection limit: %d", httpsLogName, configuration.MaximumConnections)
		return nil, fault.ErrMissingParameters
	}

	ipType, listen, err := parseListenAddress(configuration.Listen, log)
	if nil != err {
		return nil, err
	}

	if nil != tlsConfig {
		tlsConfig.NextProtos = []string{"http/1.1"}
	}

	return &httpsListener{
		log:             log,
		ipType:          ipType,
		listenIPAndPort: listen,
		tlsConfig:       tlsConfig,
		handler:         handler,
	}, nil
}

func (h *httpsListener) Serve() error {
	h.Lock()
	defer h.Unlock()

	for i, listen := range h.listenIPAndPort {
		ln, err := net.Listen(h.ipType[i], listen)
		if nil != err {
			h.log.Errorf("%s listen: %q  error: %s", httpsLogName, listen, err)
			return err
		}
		h.log.Infof("starting server: %s on: %q  TLS: %t", httpsLogName, ln.Addr(), nil != h.tlsConfig)

		l := net.Listener(tcpKeepAliveListener{ln.(*net.TCPListener)})
		if nil != h.tlsConfig {
			l = tls.NewListener(l, h.tlsConfig)
		}

		s := &http.Server{
			Handler:        h.handler,
			ReadTimeout:    readWriteTimeout,
			WriteTimeout:   readWriteTimeout,
			MaxHeaderBytes: 1 << 20,
		}
		h.servers = append(h.servers, s)
		h.addresses = append(h.addresses, ln.Addr().String())

		go func(address string) {
			err := s.Serve(l)
			if http.ErrServerClosed != err {
				h.log.Errorf("%s on: %q  error: %s", httpsLogName, address, err)
			}
		}(listen)
	}

	return nil
}

func (h *httpsListener) Addresses() []string {
	h.Lock()
	defer h.Unlock()
	return append([]string{}, h.addresses...)
}

func (h *httpsListener) Close() error {
	h.Lock()
	defer h.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := error(nil)
	for _, s := range h.servers {
		if e := s.Shutdown(ctx); nil != e {
			err = e
		}
	}
	h.servers = nil
	h.addresses = nil
	return err
}
