// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqutil

import (
	"sync"

	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/pricecache/fault"
)

// the ZAP handler is process wide
var (
	oneTimeAuthStart sync.Once
	authStartError   error
)

// StartAuthentication - start the ZAP handler and admit curve clients
// to a domain
//
// only the binding side of a curve connection needs this; with no
// client keys any client that knows the server key is admitted
func StartAuthentication(domain string, clientKeys ...[]byte) error {

	oneTimeAuthStart.Do(func() {
		zmq.AuthSetVerbose(false)
		authStartError = zmq.AuthStart()
	})
	if nil != authStartError {
		return authStartError
	}

	if 0 == len(clientKeys) {
		zmq.AuthCurveAdd(domain, zmq.CURVE_ALLOW_ANY)
		return nil
	}
	for _, key := range clientKeys {
		if publicKeySize != len(key) {
			return fault.ErrInvalidPublicKey
		}
		zmq.AuthCurveAdd(domain, zmq.Z85encode(string(key)))
	}
	return nil
}
