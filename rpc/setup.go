// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"crypto/tls"
	"net"
	"net/http"
	"strings"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/pricecache/counter"
	"github.com/bitmark-inc/pricecache/fault"
	"github.com/bitmark-inc/pricecache/historical"
	"github.com/bitmark-inc/pricecache/rpc/certificate"
	"github.com/bitmark-inc/pricecache/rpc/handler"
	"github.com/bitmark-inc/pricecache/rpc/listeners"
	"github.com/bitmark-inc/pricecache/rpc/server"
)

// paths served over HTTP
const (
	RPCPath     = "/rpc"
	ReadyPath   = "/ready"
	MetricsPath = "/metrics"
)

// names used in the allow table
const (
	allowMetrics = "metrics"
	allowUpdates = "updates"
)

// Dependencies - components behind the query surface
type Dependencies struct {
	server.Dependencies
	Metrics    http.Handler // may be nil
	Historical http.Handler // may be nil
}

// Server - all listeners of the query surface
type Server struct {
	log       *logger.L
	count     counter.Counter
	listeners []listeners.Listener
}

// New - validate configuration and create the listeners
func New(log *logger.L, rpcConfiguration *listeners.RPCConfiguration, httpsConfiguration *listeners.HTTPSConfiguration, version string, deps Dependencies) (*Server, error) {
	if nil == log || nil == deps.Resolver || nil == deps.Tracker || nil == deps.Store {
		return nil, fault.ErrMissingParameters
	}

	s := &Server{
		log: log,
	}

	rpcServer := server.Create(log, version, &s.count, deps.Dependencies)

	if 0 != len(rpcConfiguration.Listen) {
		tlsConfig, fingerprint, err := certificate.Load(log, "client_rpc", rpcConfiguration.Certificate, rpcConfiguration.PrivateKey)
		if nil != err {
			return nil, err
		}
		l, err := listeners.NewRPC(rpcConfiguration, log, &s.count, rpcServer, tlsConfig, fingerprint)
		if nil != err {
			return nil, err
		}
		s.listeners = append(s.listeners, l)
	} else {
		log.Info("disable: client_rpc")
	}

	tlsConfig := (*tls.Config)(nil)
	if "" != httpsConfiguration.Certificate {
		c, fingerprint, err := certificate.Load(log, "http_rpc", httpsConfiguration.Certificate, httpsConfiguration.PrivateKey)
		if nil != err {
			return nil, err
		}
		log.Infof("http_rpc: SHA3-256 fingerprint: %x", fingerprint)
		tlsConfig = c
	}

	allow, err := parseAllow(httpsConfiguration.Allow)
	if nil != err {
		log.Errorf("http_rpc allow error: %s", err)
		return nil, err
	}

	hdlr := handler.New(log, rpcServer, &s.count, httpsConfiguration.MaximumConnections, deps.Tracker.Ready)
	hdlr.SetAllow(allow)

	l, err := listeners.NewHTTPS(httpsConfiguration, log, tlsConfig, Mux(hdlr, deps))
	if nil != err {
		return nil, err
	}
	if nil != l {
		s.listeners = append(s.listeners, l)
	}

	return s, nil
}

// Mux - routes of the HTTP listener
func Mux(hdlr handler.Handler, deps Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc(RPCPath, hdlr.RPC)
	mux.HandleFunc(ReadyPath, hdlr.Ready)
	if nil != deps.Metrics {
		mux.Handle(MetricsPath, hdlr.Protect(allowMetrics, deps.Metrics))
	}
	if nil != deps.Historical {
		mux.Handle(historical.UpdatesPath, hdlr.Protect(allowUpdates, deps.Historical))
	}
	mux.HandleFunc("/", hdlr.Root)
	return mux
}

// create access control to match http.Request.RemoteAddr
func parseAllow(configuration map[string][]string) (map[string][]*net.IPNet, error) {
	local := make(map[string][]*net.IPNet)
	for path, addresses := range configuration {
		set := make([]*net.IPNet, len(addresses))
		local[path] = set
		for i, ip := range addresses {
			_, cidr, err := net.ParseCIDR(strings.Trim(ip, " "))
			if nil != err {
				return nil, err
			}
			set[i] = cidr
		}
	}
	return local, nil
}

// Serve - start all listeners
func (s *Server) Serve() error {
	for _, l := range s.listeners {
		if err := l.Serve(); nil != err {
			s.close()
			return err
		}
	}
	return nil
}

// Addresses - bound addresses of all listeners
func (s *Server) Addresses() []string {
	a := []string{}
	for _, l := range s.listeners {
		a = append(a, l.Addresses()...)
	}
	return a
}

// Run - wait for shutdown then close the listeners
func (s *Server) Run(args interface{}, shutdown <-chan struct{}) {
	<-shutdown
	s.log.Info("shutting down…")
	s.close()
	s.log.Info("finished")
}

func (s *Server) close() {
	for _, l := range s.listeners {
		if err := l.Close(); nil != err {
			s.log.Warnf("close error: %s", err)
		}
	}
}
