// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/fsnotify/fsnotify"

	"github.com/bitmark-inc/pricecache/fault"
)

// DefaultReloadDelay - time to let an editor finish writing
const DefaultReloadDelay = 2 * time.Second

// ThresholdSetter - receives reloaded readiness values
type ThresholdSetter interface {
	SetThresholds(staleness time.Duration, maxSlotLag uint64)
}

// Watcher - reload the readiness section when the file changes
//
// only readiness thresholds are applied live, everything else
// requires a restart
type Watcher struct {
	log       *logger.L
	watcher   *fsnotify.Watcher
	fileName  string
	variables map[string]string
	target    ThresholdSetter
	delay     time.Duration
	change    chan struct{}
}

// NewWatcher - watch the directory containing fileName
func NewWatcher(log *logger.L, fileName string, variables map[string]string, target ThresholdSetter, delay time.Duration) (*Watcher, error) {
	if nil == log || nil == target {
		return nil, fault.ErrMissingParameters
	}

	filePath, err := filepath.Abs(filepath.Clean(fileName))
	if nil != err {
		return nil, err
	}
	if _, err := os.Stat(filePath); nil != err {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if nil != err {
		return nil, err
	}

	// editors often replace the file, so watch its directory
	err = watcher.Add(filepath.Dir(filePath))
	if nil != err {
		watcher.Close()
		return nil, err
	}

	return &Watcher{
		log:       log,
		watcher:   watcher,
		fileName:  filePath,
		variables: variables,
		target:    target,
		delay:     delay,
		change:    make(chan struct{}, 1),
	}, nil
}

// Run - background process
func (w *Watcher) Run(args interface{}, shutdown <-chan struct{}) {
	log := w.log
	log.Infof("watching: %s", w.fileName)

	defer w.watcher.Close()

	var reload <-chan time.Time

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case event, ok := <-w.watcher.Events:
			if !ok {
				break loop
			}
			if filepath.Base(event.Name) != filepath.Base(w.fileName) {
				continue loop
			}
			log.Debugf("file event: %v", event)
			if isRemove(event) {
				log.Warnf("configuration file: %s removed", w.fileName)
				continue loop
			}
			if isChange(event) && nil == reload {
				reload = time.After(w.delay)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				break loop
			}
			log.Errorf("watcher error: %s", err)

		case <-reload:
			reload = nil
			w.Reload()
		}
	}
	log.Info("shutting down…")
}

// Reload - parse the file and apply the readiness thresholds
func (w *Watcher) Reload() error {
	options := defaults()
	err := ParseConfigurationFile(w.fileName, options, w.variables)
	if nil != err {
		w.log.Errorf("failed to read configuration from: %s  error: %s", w.fileName, err)
		return err
	}

	staleness, maxSlotLag, err := options.Readiness.Thresholds()
	if nil != err {
		w.log.Errorf("rejected readiness configuration: %s", err)
		return err
	}

	w.log.Infof("readiness: staleness threshold: %s  max slot lag: %d", staleness, maxSlotLag)
	w.target.SetThresholds(staleness, maxSlotLag)

	select {
	case w.change <- struct{}{}:
	default:
	}
	return nil
}

// Changed - signalled after each successful reload
func (w *Watcher) Changed() <-chan struct{} {
	return w.change
}

func isRemove(event fsnotify.Event) bool {
	return event.Op&fsnotify.Remove == fsnotify.Remove || event.Op&fsnotify.Rename == fsnotify.Rename
}

func isChange(event fsnotify.Event) bool {
	return event.Op&fsnotify.Write == fsnotify.Write ||
		event.Op&fsnotify.Create == fsnotify.Create ||
		event.Op&fsnotify.Chmod == fsnotify.Chmod
}
