// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/pricecache/fault"
)

func TestParseDefines(t *testing.T) {
	variables, err := parseDefines([]string{"feed=tcp://127.0.0.1:2135", " fallback =http://x?a=b", "empty="})
	assert.Nil(t, err, "wrong parse")
	assert.Equal(t, map[string]string{
		"feed":     "tcp://127.0.0.1:2135",
		"fallback": "http://x?a=b",
		"empty":    "",
	}, variables, "wrong variables")

	for _, bad := range []string{"novalue", "=value", " =value"} {
		_, err := parseDefines([]string{bad})
		assert.True(t, fault.IsErrInvalid(err), "accepted: %q", bad)
	}
}

func TestGetFilenameWithDirectory(t *testing.T) {
	assert.Equal(t, filepath.Join(".", rpcPrivateKeyFilename), getFilenameWithDirectory(nil, rpcPrivateKeyFilename), "wrong default")
	assert.Equal(t, filepath.Join("/tmp/keys", feedPublicKeyFilename), getFilenameWithDirectory([]string{"/tmp/keys", "10.0.0.1"}, feedPublicKeyFilename), "wrong directory")
}

func TestMakeSelfSignedCertificate(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, rpcCertificateKeyFilename)
	key := filepath.Join(dir, rpcPrivateKeyFilename)

	err := makeSelfSignedCertificate("test", cert, key, false, nil)
	assert.Nil(t, err, "wrong create")

	err = makeSelfSignedCertificate("test", cert, key, false, nil)
	assert.Equal(t, fault.ErrCertificateFileAlreadyExists, err, "overwrote certificate")
}
