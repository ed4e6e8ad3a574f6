// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/pricecache/archive"
	"github.com/bitmark-inc/pricecache/configuration"
	"github.com/bitmark-inc/pricecache/fault"
	"github.com/bitmark-inc/pricecache/zmqutil"
)

const (
	feedPublicKeyFilename  = "feed.public"
	feedPrivateKeyFilename = "feed.private"

	rpcCertificateKeyFilename = "rpc.crt"
	rpcPrivateKeyFilename     = "rpc.key"

	defaultSlotCount = 20
)

// setup command handler
//
// commands that run to create key and certificate files these
// commands cannot access any internal database or states or the
// configuration file
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {
	case "gen-feed-identity", "feed":
		publicKeyFilename := getFilenameWithDirectory(arguments, feedPublicKeyFilename)
		privateKeyFilename := getFilenameWithDirectory(arguments, feedPrivateKeyFilename)
		err := zmqutil.MakeKeyPair(publicKeyFilename, privateKeyFilename)
		if nil != err {
			fmt.Printf("generate private key: %q and public key: %q error: %s\n", privateKeyFilename, publicKeyFilename, err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("generated private key: %q and public key: %q\n", privateKeyFilename, publicKeyFilename)

	case "gen-rpc-cert", "rpc":
		certificateFilename := getFilenameWithDirectory(arguments, rpcCertificateKeyFilename)
		privateKeyFilename := getFilenameWithDirectory(arguments, rpcPrivateKeyFilename)

		addresses := []string{}
		if len(arguments) >= 2 {
			for _, a := range arguments[1:] {
				if "" != a {
					addresses = append(addresses, a)
				}
			}
		}

		err := makeSelfSignedCertificate("rpc", certificateFilename, privateKeyFilename, 0 != len(addresses), addresses)
		if nil != err {
			fmt.Printf("generate RPC key: %q and certificate: %q error: %s\n", privateKeyFilename, certificateFilename, err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("generated RPC key: %q and certificate: %q\n", privateKeyFilename, certificateFilename)

	case "start", "run":
		return false // continue processing

	case "slots", "s", "header", "prune":
		return false // defer processing until archive is opened

	case "config-test", "cfg":
		return false

	case "version", "v":
		fmt.Printf("%s\n", version)
		return true

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}
		fmt.Printf("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE [--define=NAME=VALUE...] [[command|help] arguments...]\n", program)

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                       (h)      - display this message\n\n")
		fmt.Printf("  version                    (v)      - display version sting\n\n")

		fmt.Printf("  gen-feed-identity [DIR]    (feed)   - create private key in: %q\n", "DIR/"+feedPrivateKeyFilename)
		fmt.Printf("                                        and the public key in: %q\n", "DIR/"+feedPublicKeyFilename)
		fmt.Printf("\n")

		fmt.Printf("  gen-rpc-cert [DIR]         (rpc)    - create private key in:  %q\n", "DIR/"+rpcPrivateKeyFilename)
		fmt.Printf("                                        and the certificate in: %q\n", "DIR/"+rpcCertificateKeyFilename)
		fmt.Printf("\n")

		fmt.Printf("  gen-rpc-cert [DIR] [IPs...]         - create private key in:  %q\n", "DIR/"+rpcPrivateKeyFilename)
		fmt.Printf("                                        and the certificate in: %q\n", "DIR/"+rpcCertificateKeyFilename)
		fmt.Printf("\n")

		fmt.Printf("  start                      (run)    - just run the program, same as no arguments\n")
		fmt.Printf("                                        for convienience when passing script arguments\n")
		fmt.Printf("\n")

		fmt.Printf("  config-test                (cfg)    - just check the configuration file\n")
		fmt.Printf("\n")

		fmt.Printf("  slots [FROM [COUNT]]       (s)      - list archived slots\n")
		fmt.Printf("\n")

		fmt.Printf("  header SLOT                         - display an archived slot header as JSON\n")
		fmt.Printf("\n")

		fmt.Printf("  prune SLOT                          - delete archived slots below SLOT\n")
		fmt.Printf("\n")

		exitwithstatus.Exit(1)
	}

	// indicate processing complete and preform normal exit from main
	return true
}

// configuration file enquiry commands
// have configuration file read and decoded, but nothing else
func processConfigCommand(arguments []string, options *configuration.Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "config-test", "cfg":
		b, err := json.Marshal(options)
		if err != nil {
			exitwithstatus.Message("error: %s", err)
		}
		var out bytes.Buffer
		json.Indent(&out, b, "", "  ")
		out.WriteTo(os.Stdout)
		os.Stdout.WriteString("\n")

	default: // unknown commands fall through to data command
		return false
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// data command handler
// the archive is open so these commands can inspect or change it
func processDataCommand(log *logger.L, arguments []string, a *archive.Archive) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {

	case "start", "run":
		return false // continue processing

	case "slots", "s":
		if nil == a {
			exitwithstatus.Message("error: archive is not enabled")
		}
		from := uint64(0)
		count := defaultSlotCount
		if len(arguments) > 0 {
			from = parseSlot(arguments[0])
		}
		if len(arguments) > 1 {
			n, err := strconv.Atoi(arguments[1])
			if nil != err || n <= 0 {
				exitwithstatus.Message("error: invalid count: %q", arguments[1])
			}
			count = n
		}
		slots, err := a.Slots(from, count)
		if nil != err {
			exitwithstatus.Message("slots error: %s", err)
		}
		for _, slot := range slots {
			fmt.Printf("%d\n", slot)
		}

	case "header":
		if nil == a {
			exitwithstatus.Message("error: archive is not enabled")
		}
		if len(arguments) < 1 {
			exitwithstatus.Message("missing slot number argument")
		}
		slot := parseSlot(arguments[0])
		header, found, err := a.Header(slot)
		if nil != err {
			exitwithstatus.Message("header error: %s", err)
		}
		if !found {
			exitwithstatus.Message("slot: %d is not archived", slot)
		}
		s, err := json.MarshalIndent(header, "", "  ")
		if nil != err {
			exitwithstatus.Message("header JSON error: %s", err)
		}
		fmt.Printf("%s\n", s)

	case "prune":
		if nil == a {
			exitwithstatus.Message("error: archive is not enabled")
		}
		if len(arguments) < 1 {
			exitwithstatus.Message("missing slot number argument")
		}
		slot := parseSlot(arguments[0])
		n, err := a.Prune(slot)
		if nil != err {
			exitwithstatus.Message("prune error: %s", err)
		}
		log.Infof("pruned: %d slots below: %d", n, slot)
		fmt.Printf("pruned: %d slots\n", n)

	default:
		exitwithstatus.Message("error: no such command: %s", command)

	}

	// indicate processing complete and perform normal exit from main
	return true
}

func parseSlot(s string) uint64 {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if nil != err {
		exitwithstatus.Message("error in slot number: %s", err)
	}
	return n
}

// NAME=VALUE pairs made available to the configuration file as arg[NAME]
func parseDefines(defines []string) (map[string]string, error) {
	variables := make(map[string]string)
	for _, d := range defines {
		s := strings.SplitN(d, "=", 2)
		if 2 != len(s) || "" == strings.TrimSpace(s[0]) {
			return nil, fmt.Errorf("%w: %q", fault.ErrInvalidConfiguration, d)
		}
		variables[strings.TrimSpace(s[0])] = s[1]
	}
	return variables, nil
}

// get the working directory; if not set in the arguments
// it's set to the current directory
func getFilenameWithDirectory(arguments []string, name string) string {
	dir := "."
	if len(arguments) >= 1 {
		dir = arguments[0]
	}

	return filepath.Join(dir, name)
}
