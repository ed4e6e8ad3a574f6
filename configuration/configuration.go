// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/pricecache/fault"
	"github.com/bitmark-inc/pricecache/feed"
	"github.com/bitmark-inc/pricecache/merkle"
	"github.com/bitmark-inc/pricecache/readiness"
	"github.com/bitmark-inc/pricecache/resolver"
	"github.com/bitmark-inc/pricecache/rpc/listeners"
	"github.com/bitmark-inc/pricecache/util"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	DefaultSizeSlots = 1600

	defaultFeedPublicKeyFile  = "feed.public"
	defaultFeedPrivateKeyFile = "feed.private"
	defaultKeyFile            = "rpc.key"
	defaultCertificateFile    = "rpc.crt"

	defaultArchiveDirectory = "data"
	defaultArchiveDatabase  = "archive.leveldb"

	defaultLogDirectory = "log"
	defaultLogFile      = "pricecached.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultRPCClients      = 10
	defaultProgressTimeout = 5 * time.Second
)

// LoglevelMap - to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "critical",
	}
)

// ReadinessType - when latest queries may be served
type ReadinessType struct {
	StalenessThreshold string `gluamapper:"staleness_threshold" json:"staleness_threshold"`
	MaxSlotLag         uint64 `gluamapper:"max_slot_lag" json:"max_slot_lag"`
}

// FeedType - upstream publishers, keys are optional
type FeedType struct {
	Connect    []feed.Connection `gluamapper:"connect" json:"connect"`
	PublicKey  string            `gluamapper:"public_key" json:"public_key"`
	PrivateKey string            `gluamapper:"private_key" json:"private_key"`
	Buffer     int               `gluamapper:"buffer" json:"buffer"`
	Silence    string            `gluamapper:"silence" json:"silence"`
}

// FallbackType - historical source for times before the window
//
// an empty URL disables the fallback
type FallbackType struct {
	URL             string `gluamapper:"url" json:"url"`
	AttemptTimeout  string `gluamapper:"attempt_timeout" json:"attempt_timeout"`
	TotalTimeout    string `gluamapper:"total_timeout" json:"total_timeout"`
	MaxRetries      uint64 `gluamapper:"max_retries" json:"max_retries"`
	RetryInterval   string `gluamapper:"retry_interval" json:"retry_interval"`
	ProgressTimeout string `gluamapper:"progress_timeout" json:"progress_timeout"`
	CacheTTL        string `gluamapper:"cache_ttl" json:"cache_ttl"`
}

// ArchiveType - durable copy of committed slots
//
// keep_slots of zero keeps everything
type ArchiveType struct {
	Enable    bool   `gluamapper:"enable" json:"enable"`
	Directory string `gluamapper:"directory" json:"directory"`
	Name      string `gluamapper:"name" json:"name"`
	KeepSlots uint64 `gluamapper:"keep_slots" json:"keep_slots"`
}

// Configuration - the whole file
type Configuration struct {
	DataDirectory string `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string `gluamapper:"pidfile" json:"pidfile"`
	SizeSlots     int    `gluamapper:"size_slots" json:"size_slots"`
	Hasher        string `gluamapper:"hasher" json:"hasher"`

	Readiness ReadinessType                `gluamapper:"readiness" json:"readiness"`
	Feed      FeedType                     `gluamapper:"feed" json:"feed"`
	Fallback  FallbackType                 `gluamapper:"fallback" json:"fallback"`
	Archive   ArchiveType                  `gluamapper:"archive" json:"archive"`
	ClientRPC listeners.RPCConfiguration   `gluamapper:"client_rpc" json:"client_rpc"`
	HttpsRPC  listeners.HTTPSConfiguration `gluamapper:"https_rpc" json:"https_rpc"`
	Logging   logger.Configuration         `gluamapper:"logging" json:"logging"`
}

func defaults() *Configuration {
	return &Configuration{
		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default
		SizeSlots:     DefaultSizeSlots,
		Hasher:        merkle.Keccak256Name,

		Readiness: ReadinessType{
			StalenessThreshold: readiness.DefaultStalenessThreshold.String(),
			MaxSlotLag:         readiness.DefaultMaxSlotLag,
		},

		Fallback: FallbackType{
			AttemptTimeout:  resolver.DefaultAttemptTimeout.String(),
			TotalTimeout:    resolver.DefaultTotalTimeout.String(),
			MaxRetries:      resolver.DefaultMaxRetries,
			RetryInterval:   resolver.DefaultRetryInterval.String(),
			ProgressTimeout: defaultProgressTimeout.String(),
			CacheTTL:        resolver.DefaultCacheTTL.String(),
		},

		Archive: ArchiveType{
			Directory: defaultArchiveDirectory,
			Name:      defaultArchiveDatabase,
		},

		ClientRPC: listeners.RPCConfiguration{
			MaximumConnections: defaultRPCClients,
			Certificate:        defaultCertificateFile,
			PrivateKey:         defaultKeyFile,
		},

		// default: share config with normal RPC
		HttpsRPC: listeners.HTTPSConfiguration{
			MaximumConnections: defaultRPCClients,
			Certificate:        defaultCertificateFile,
			PrivateKey:         defaultKeyFile,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}
}

// GetConfiguration - will read decode and verify the configuration
func GetConfiguration(configurationFileName string, variables map[string]string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := defaults()

	if err := ParseConfigurationFile(configurationFileName, options, variables); nil != err {
		return nil, err
	}

	if err := options.validate(); nil != err {
		return nil, err
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("%w: path: %q is not a valid directory", fault.ErrInvalidConfiguration, options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = filepath.Clean(options.DataDirectory)
	}

	// this directory must exist - i.e. must be created prior to running
	if err := util.EnsureDirectory(options.DataDirectory); nil != err {
		return nil, err
	}

	// force all relevant items to be absolute paths
	// if not, assign them to the data directory
	mustBeAbsolute := []*string{
		&options.Archive.Directory,
		&options.ClientRPC.Certificate,
		&options.ClientRPC.PrivateKey,
		&options.HttpsRPC.Certificate,
		&options.HttpsRPC.PrivateKey,
		&options.Logging.Directory,
	}
	for _, f := range mustBeAbsolute {
		*f = util.EnsureAbsolute(options.DataDirectory, *f)
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
		&options.Feed.PublicKey,
		&options.Feed.PrivateKey,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = util.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	// a plain HTTP listener when no certificate exists
	if !util.EnsureFileExists(options.HttpsRPC.Certificate) {
		options.HttpsRPC.Certificate = ""
		options.HttpsRPC.PrivateKey = ""
	}

	// fail if any of these are not simple file names i.e. must
	// not contain path seperator, then add the correct directory
	// prefix, file item is first and corresponding directory is
	// second (or nil if no prefix can be added)
	mustNotBePaths := [][2]*string{
		{&options.Archive.Name, &options.Archive.Directory},
		{&options.Logging.File, nil},
	}
	for _, f := range mustNotBePaths {
		switch filepath.Dir(*f[0]) {
		case "", ".":
			if nil != f[1] {
				*f[0] = util.EnsureAbsolute(*f[1], *f[0])
			}
		default:
			return nil, fmt.Errorf("%w: files: %q is not plain name", fault.ErrInvalidConfiguration, *f[0])
		}
	}

	// make absolute and create directories if they do not already exist
	for _, d := range []*string{
		&options.Archive.Directory,
		&options.Logging.Directory,
	} {
		*d = util.EnsureAbsolute(options.DataDirectory, *d)
		if err := os.MkdirAll(*d, 0700); nil != err {
			return nil, err
		}
	}

	// done
	return options, nil
}

// check values that do not depend on the file system
func (options *Configuration) validate() error {
	if options.SizeSlots <= 0 {
		return fault.ErrInvalidSizeSlots
	}
	if _, err := merkle.HasherByName(options.Hasher); nil != err {
		return fmt.Errorf("%w: hasher: %q", err, options.Hasher)
	}
	if _, _, err := options.Readiness.Thresholds(); nil != err {
		return err
	}
	if _, err := options.Fallback.Policy(); nil != err {
		return err
	}
	if _, err := options.Fallback.Progress(); nil != err {
		return err
	}
	if _, err := options.Feed.SilenceTimeout(); nil != err {
		return err
	}
	return nil
}

// Thresholds - the parsed readiness values
func (r ReadinessType) Thresholds() (time.Duration, uint64, error) {
	d, err := parseDuration("readiness.staleness_threshold", r.StalenessThreshold)
	if nil != err {
		return 0, 0, err
	}
	if d <= 0 {
		return 0, 0, fmt.Errorf("%w: readiness.staleness_threshold must be positive", fault.ErrInvalidConfiguration)
	}
	return d, r.MaxSlotLag, nil
}

// Policy - resolver settings, store and collaborators are left unset
func (f FallbackType) Policy() (resolver.Config, error) {
	config := resolver.Config{
		MaxRetries: f.MaxRetries,
	}
	for _, item := range []struct {
		name  string
		value string
		to    *time.Duration
	}{
		{"fallback.attempt_timeout", f.AttemptTimeout, &config.AttemptTimeout},
		{"fallback.total_timeout", f.TotalTimeout, &config.TotalTimeout},
		{"fallback.retry_interval", f.RetryInterval, &config.RetryInterval},
		{"fallback.cache_ttl", f.CacheTTL, &config.CacheTTL},
	} {
		d, err := parseDuration(item.name, item.value)
		if nil != err {
			return resolver.Config{}, err
		}
		*item.to = d
	}
	return config, nil
}

// Progress - the historical client response timeout
func (f FallbackType) Progress() (time.Duration, error) {
	return parseDuration("fallback.progress_timeout", f.ProgressTimeout)
}

// SilenceTimeout - quiet period before a publisher is reconnected, zero for the default
func (f FeedType) SilenceTimeout() (time.Duration, error) {
	return parseDuration("feed.silence", f.Silence)
}

func parseDuration(name string, value string) (time.Duration, error) {
	if "" == value {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if nil != err {
		return 0, fmt.Errorf("%w: %s: %s", fault.ErrInvalidConfiguration, name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s: negative", fault.ErrInvalidConfiguration, name)
	}
	return d, nil
}
