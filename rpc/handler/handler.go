// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package handler

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/rpc"
	"strings"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/pricecache/counter"
	"github.com/bitmark-inc/pricecache/rpc/server"
)

// Handler - HTTP endpoints of the query surface
type Handler interface {
	Root(http.ResponseWriter, *http.Request)
	RPC(http.ResponseWriter, *http.Request)
	Ready(http.ResponseWriter, *http.Request)
	Protect(string, http.Handler) http.Handler
	SetAllow(map[string][]*net.IPNet)
}

// InternalConnection - type to allow rpc system to interface to http request
type InternalConnection struct {
	in  io.Reader
	out io.Writer
}

func (c *InternalConnection) Read(p []byte) (n int, err error) {
	return c.in.Read(p)
}
func (c *InternalConnection) Write(d []byte) (n int, err error) {
	return c.out.Write(d)
}
func (c *InternalConnection) Close() error {
	return nil
}

// the argument passed to the handlers
type handler struct {
	log                *logger.L
	server             *rpc.Server
	count              *counter.Counter
	maximumConnections uint64
	ready              func() bool
	allow              map[string][]*net.IPNet
}

// New - create the handler, count is shared with the TCP listener
func New(log *logger.L, server *rpc.Server, count *counter.Counter, maximumConnections uint64, ready func() bool) Handler {
	return &handler{
		log:                log,
		server:             server,
		count:              count,
		maximumConnections: maximumConnections,
		ready:              ready,
		allow:              make(map[string][]*net.IPNet),
	}
}

// SetAllow - per path access lists, a path with no list is open
func (h *handler) SetAllow(allow map[string][]*net.IPNet) {
	h.allow = allow
}

// Root - this matches anything not matched and returns error
func (h *handler) Root(w http.ResponseWriter, r *http.Request) {
	sendNotFound(w)
}

// RPC - performs a call to any normal RPC
func (h *handler) RPC(w http.ResponseWriter, r *http.Request) {
	if http.MethodPost != r.Method {
		sendMethodNotAllowed(w)
		return
	}

	if h.count.Increment() > h.maximumConnections {
		h.count.Decrement()
		sendTooManyRequests(w)
		return
	}
	defer h.count.Decrement()

	serverCodec := server.NewCodec(r.Context(), &InternalConnection{in: r.Body, out: w})
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	err := h.server.ServeRequest(serverCodec)
	if nil != err {
		h.log.Debugf("rpc from: %s  error: %s", r.RemoteAddr, err)
		sendInternalServerError(w)
		return
	}
}

// Ready - health check, 200 when ready 503 otherwise
func (h *handler) Ready(w http.ResponseWriter, r *http.Request) {
	if http.MethodGet != r.Method && http.MethodHead != r.Method {
		sendMethodNotAllowed(w)
		return
	}

	type reply struct {
		Ready bool `json:"ready"`
	}

	ready := nil != h.ready && h.ready()
	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	send(w, reply{Ready: ready}, code)
}

// Protect - apply the access list for name to another handler
func (h *handler) Protect(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.allowed(name, r) {
			h.log.Warnf("deny access: %s  to: %q", r.RemoteAddr, name)
			sendForbidden(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) allowed(name string, r *http.Request) bool {
	networks, ok := h.allow[name]
	if !ok || 0 == len(networks) {
		return true
	}
	last := strings.LastIndex(r.RemoteAddr, ":")
	if last < 0 {
		return false
	}
	ip := net.ParseIP(strings.Trim(r.RemoteAddr[:last], "[]"))
	if nil == ip {
		return false
	}
	for _, n := range networks {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// send an JSON encoded reply
func send(w http.ResponseWriter, data interface{}, code int) {
	text, err := json.Marshal(data)
	if nil != err {
		sendInternalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	w.Write(text)
}

// selected errors as required above
func sendNotFound(w http.ResponseWriter) {
	sendError(w, "not found", http.StatusNotFound)
}
func sendMethodNotAllowed(w http.ResponseWriter) {
	sendError(w, "method not allowed", http.StatusMethodNotAllowed)
}
func sendForbidden(w http.ResponseWriter) {
	sendError(w, "forbidden", http.StatusForbidden)
}
func sendTooManyRequests(w http.ResponseWriter) {
	sendError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
}
func sendInternalServerError(w http.ResponseWriter) {
	sendError(w, "internal server error", http.StatusInternalServerError)
}

// to compose JSON error messages
type eType struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// output an error with a JSON body
func sendError(w http.ResponseWriter, message string, code int) {
	text, err := json.Marshal(eType{
		Code:  code,
		Error: message,
	})
	if nil != err {
		// manually composed error just incase JSON fails
		http.Error(w, `{"code":500,"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	w.Write(text)
}
