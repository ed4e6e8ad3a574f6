// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util_test

import (
	"errors"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/pricecache/fault"
	"github.com/bitmark-inc/pricecache/util"
)

func TestEnsureAbsolute(t *testing.T) {
	assert.Equal(t, "/data/rpc.crt", util.EnsureAbsolute("/data", "rpc.crt"), "relative not joined")
	assert.Equal(t, "/data/log", util.EnsureAbsolute("/data/", "./x/../log"), "not cleaned")
	assert.Equal(t, "/etc/rpc.crt", util.EnsureAbsolute("/data", "/etc//rpc.crt"), "absolute changed")
}

func TestEnsureFileExists(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "exists")
	assert.False(t, util.EnsureFileExists(name), "missing file found")

	assert.Nil(t, ioutil.WriteFile(name, []byte("x"), 0600), "write")
	assert.True(t, util.EnsureFileExists(name), "file not found")
	assert.False(t, util.EnsureFileExists(dir), "directory taken as file")
}

func TestEnsureDirectory(t *testing.T) {
	dir := t.TempDir()
	assert.Nil(t, util.EnsureDirectory(dir), "existing directory")

	name := filepath.Join(dir, "plain")
	assert.Nil(t, ioutil.WriteFile(name, []byte("x"), 0600), "write")
	err := util.EnsureDirectory(name)
	assert.True(t, errors.Is(err, fault.ErrInvalidConfiguration), "file taken as directory")

	assert.NotNil(t, util.EnsureDirectory(filepath.Join(dir, "missing")), "missing directory")
}
