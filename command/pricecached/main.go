// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"
	"golang.org/x/sync/errgroup"

	"github.com/bitmark-inc/pricecache/archive"
	"github.com/bitmark-inc/pricecache/background"
	"github.com/bitmark-inc/pricecache/configuration"
	"github.com/bitmark-inc/pricecache/feed"
	"github.com/bitmark-inc/pricecache/historical"
	"github.com/bitmark-inc/pricecache/ingest"
	"github.com/bitmark-inc/pricecache/merkle"
	"github.com/bitmark-inc/pricecache/readiness"
	"github.com/bitmark-inc/pricecache/resolver"
	"github.com/bitmark-inc/pricecache/rpc"
	"github.com/bitmark-inc/pricecache/rpc/server"
	"github.com/bitmark-inc/pricecache/statistics"
	"github.com/bitmark-inc/pricecache/store"
	"github.com/bitmark-inc/pricecache/zmqutil"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
		{Long: "define", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'D'},
		{Long: "memory-stats", HasArg: getoptions.NO_ARGUMENT, Short: 'm'},
		{Long: "profile", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'p'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		processSetupCommand(program, []string{"version"})
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// these commands do not require the configuration and
	// process data needed for initial setup
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	variables, err := parseDefines(options["define"])
	if nil != err {
		exitwithstatus.Message("%s: define error: %s", program, err)
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	theConfiguration, err := configuration.GetConfiguration(configurationFile, variables)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// these commands require the configuration and
	// perform enquiries on the configuration
	if len(arguments) > 0 && processConfigCommand(arguments, theConfiguration) {
		return
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("theConfiguration: %v", theConfiguration)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	// start a profiling http server
	// this uses the default builtin HTTP handler
	// and is not associated with the query listeners
	if 1 == len(options["profile"]) {
		profile := options["profile"][0]
		go func() {
			log.Warnf("profile listener on: %s", profile)
			err := http.ListenAndServe(profile, nil)
			exitwithstatus.Message("profile error: %s", err)
		}()
	}

	// connection info
	log.Debugf("%s = %#v", "Feed", theConfiguration.Feed)
	log.Debugf("%s = %#v", "Fallback", theConfiguration.Fallback)
	log.Debugf("%s = %#v", "ClientRPC", theConfiguration.ClientRPC)
	log.Debugf("%s = %#v", "HttpsRPC", theConfiguration.HttpsRPC)

	hasher, err := merkle.HasherByName(theConfiguration.Hasher)
	if nil != err {
		log.Criticalf("hasher: %q  error: %s", theConfiguration.Hasher, err)
		exitwithstatus.Message("hasher: %q  error: %s", theConfiguration.Hasher, err)
	}
	log.Infof("hasher: %s  window: %d slots", hasher.Name(), theConfiguration.SizeSlots)

	// the time-indexed window
	theStore, err := store.New(theConfiguration.SizeSlots)
	if nil != err {
		log.Criticalf("store initialise error: %s", err)
		exitwithstatus.Message("store initialise error: %s", err)
	}

	tracker := readiness.New(nil)
	staleness, maxSlotLag, err := theConfiguration.Readiness.Thresholds()
	if nil != err {
		log.Criticalf("readiness error: %s", err)
		exitwithstatus.Message("readiness error: %s", err)
	}
	tracker.SetThresholds(staleness, maxSlotLag)

	// optional durable archive
	var theArchive *archive.Archive
	var archiver ingest.Archiver
	var historicalHandler http.Handler
	if theConfiguration.Archive.Enable {
		log.Infof("archive: %q", theConfiguration.Archive.Name)
		theArchive, err = archive.Open(logger.New("archive"), theConfiguration.Archive.Name, false)
		if nil != err {
			log.Criticalf("archive initialise error: %s", err)
			exitwithstatus.Message("archive initialise error: %s", err)
		}
		defer theArchive.Close()
		archiver = theArchive
		historicalHandler = historical.NewServer(logger.New("historical"), theArchive)
	}

	// these commands are allowed to access the archive
	if len(arguments) > 0 && processDataCommand(log, arguments, theArchive) {
		return
	}

	// fallback to an upstream historical service
	policy, err := theConfiguration.Fallback.Policy()
	if nil != err {
		log.Criticalf("fallback error: %s", err)
		exitwithstatus.Message("fallback error: %s", err)
	}
	policy.Store = theStore
	policy.Tracker = tracker
	if "" != theConfiguration.Fallback.URL {
		progress, err := theConfiguration.Fallback.Progress()
		if nil != err {
			exitwithstatus.Message("fallback error: %s", err)
		}
		client, err := historical.NewClient(logger.New("historical"), theConfiguration.Fallback.URL, progress)
		if nil != err {
			log.Criticalf("historical client error: %s", err)
			exitwithstatus.Message("historical client error: %s", err)
		}
		policy.Source = client
	} else if nil != theArchive {
		// answer from what was archived locally
		policy.Source = historical.NewLocal(theArchive)
	}

	theResolver, err := resolver.New(logger.New("resolver"), policy)
	if nil != err {
		log.Criticalf("resolver initialise error: %s", err)
		exitwithstatus.Message("resolver initialise error: %s", err)
	}

	pipeline, err := ingest.New(logger.New("ingest"), ingest.Config{
		Hasher:  hasher,
		Store:   theStore,
		Tracker: tracker,
		Archive: archiver,
	})
	if nil != err {
		log.Criticalf("ingest initialise error: %s", err)
		exitwithstatus.Message("ingest initialise error: %s", err)
	}

	stats, err := statistics.New(statistics.Sources{
		Pipeline: pipeline,
		Resolver: theResolver,
		Tracker:  tracker,
		Store:    theStore,
	})
	if nil != err {
		log.Criticalf("statistics initialise error: %s", err)
		exitwithstatus.Message("statistics initialise error: %s", err)
	}

	silence, err := theConfiguration.Feed.SilenceTimeout()
	if nil != err {
		log.Criticalf("feed silence error: %s", err)
		exitwithstatus.Message("feed silence error: %s", err)
	}
	feedConfig := feed.Config{
		Connect: theConfiguration.Feed.Connect,
		Buffer:  theConfiguration.Feed.Buffer,
		Silence: silence,
	}

	// feed keys are optional
	if "" != theConfiguration.Feed.PrivateKey {
		feedConfig.PrivateKey, feedConfig.PublicKey, err = readFeedKeys(theConfiguration.Feed.PrivateKey, theConfiguration.Feed.PublicKey)
		if nil != err {
			log.Criticalf("feed keys error: %s", err)
			exitwithstatus.Message("feed keys error: %s", err)
		}
	}

	subscriber, err := feed.New(logger.New("feed"), feedConfig)
	if nil != err {
		log.Criticalf("feed initialise error: %s", err)
		exitwithstatus.Message("feed initialise error: %s", err)
	}

	querySurface, err := rpc.New(
		logger.New("rpc"),
		&theConfiguration.ClientRPC,
		&theConfiguration.HttpsRPC,
		version,
		rpc.Dependencies{
			Dependencies: server.Dependencies{
				Resolver: theResolver,
				Tracker:  tracker,
				Store:    theStore,
				Pipeline: pipeline,
				Observer: stats,
			},
			Metrics:    stats.Handler(),
			Historical: historicalHandler,
		},
	)
	if nil != err {
		log.Criticalf("rpc initialise error: %s", err)
		exitwithstatus.Message("rpc initialise error: %s", err)
	}
	if err := querySurface.Serve(); nil != err {
		log.Criticalf("rpc serve error: %s", err)
		exitwithstatus.Message("rpc serve error: %s", err)
	}

	processes := background.Processes{
		subscriber,
		querySurface,
	}

	watcher, err := configuration.NewWatcher(logger.New("watcher"), configurationFile, variables, tracker, configuration.DefaultReloadDelay)
	if nil != err {
		log.Warnf("configuration will not be reloaded: %s", err)
	} else {
		processes = append(processes, watcher)
	}

	if nil != theArchive && theConfiguration.Archive.KeepSlots > 0 {
		processes = append(processes, newPruner(logger.New("pruner"), theArchive, tracker, theConfiguration.Archive.KeepSlots))
	}

	// if memory logging enabled
	if len(options["memory-stats"]) > 0 {
		processes = append(processes, &memstats{})
	}

	bg := background.Start(processes, nil)

	// the pipeline stops when the subscriber closes its channel
	// or the process group is stopped
	ctx, cancel := bg.Context()
	defer cancel()
	pipelineDone := make(chan struct{})
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		defer close(pipelineDone)
		return pipeline.Run(groupCtx, subscriber.Messages())
	})

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-ch:
		log.Infof("received signal: %v", sig)
		if 0 == len(options["quiet"]) {
			fmt.Printf("\nreceived signal: %v\n", sig)
			fmt.Printf("\nshutting down…\n")
		}
	case <-pipelineDone:
		log.Error("ingestion stopped unexpectedly")
	}

	log.Info("shutting down…")
	bg.Stop()

	if err := group.Wait(); nil != err && !errors.Is(err, context.Canceled) {
		log.Errorf("ingestion error: %s", err)
	}

	counts := pipeline.Counts()
	log.Infof("ingest: %+v", counts)
}

// read the tagged key files created by gen-feed-identity
func readFeedKeys(privateKeyFile string, publicKeyFile string) ([]byte, []byte, error) {
	data, err := ioutil.ReadFile(privateKeyFile)
	if nil != err {
		return nil, nil, err
	}
	privateKey, err := zmqutil.ReadPrivateKey(string(data))
	if nil != err {
		return nil, nil, err
	}
	data, err = ioutil.ReadFile(publicKeyFile)
	if nil != err {
		return nil, nil, err
	}
	publicKey, err := zmqutil.ReadPublicKey(string(data))
	if nil != err {
		return nil, nil, err
	}
	return privateKey, publicKey, nil
}
