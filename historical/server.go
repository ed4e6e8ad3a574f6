// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package historical

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/pricecache/pricefeed"
)

// Lookup - the archive query used by the server
type Lookup interface {
	AtOrAfter(id pricefeed.FeedID, time int64) (*pricefeed.Update, bool, error)
}

// Server - HTTP handler for the updates endpoint
type Server struct {
	log    *logger.L
	lookup Lookup
}

// NewServer - handler serving from an archive
func NewServer(log *logger.L, lookup Lookup) *Server {
	return &Server{
		log:    log,
		lookup: lookup,
	}
}

// ServeHTTP - http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if http.MethodGet != r.Method {
		sendError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !strings.HasPrefix(r.URL.Path, UpdatesPath) {
		sendError(w, "not found", http.StatusNotFound)
		return
	}

	id, err := pricefeed.FeedIDFromHex(strings.TrimPrefix(r.URL.Path, UpdatesPath))
	if nil != err {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	time, err := strconv.ParseInt(r.URL.Query().Get("time"), 10, 64)
	if nil != err || time < 0 {
		sendError(w, "invalid time", http.StatusBadRequest)
		return
	}

	u, found, err := s.lookup.AtOrAfter(id, time)
	if nil != err {
		s.log.Errorf("lookup: %s  time: %d  error: %s", id, time, err)
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !found {
		sendError(w, "not found", http.StatusNotFound)
		return
	}

	s.log.Debugf("lookup: %s  time: %d  slot: %d", id, time, u.Slot)
	sendReply(w, u)
}

// send an JSON encoded reply
func sendReply(w http.ResponseWriter, data interface{}) {
	text, err := json.Marshal(data)
	if nil != err {
		sendError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	w.Write(text)
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
