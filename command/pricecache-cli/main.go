// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2021 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"
)

type metadata struct {
	connect     string
	fingerprint string
	verbose     bool
	e           io.Writer
	w           io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

func main() {
	app := newApp(os.Stdout, os.Stderr)

	err := app.Run(os.Args)
	if nil != err {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}

func newApp(w io.Writer, e io.Writer) *cli.App {

	app := cli.NewApp()
	app.Name = "pricecache-cli"
	app.Usage = "query a pricecached node"
	app.Version = version
	app.HideVersion = true

	app.Writer = w
	app.ErrWriter = e

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " verbose result",
		},
		cli.StringFlag{
			Name:   "connect, c",
			Value:  "127.0.0.1:2130",
			Usage:  " pricecached JSON-RPC `HOST:PORT`",
			EnvVar: "PRICECACHE_CONNECT",
		},
		cli.StringFlag{
			Name:   "fingerprint, f",
			Value:  "",
			Usage:  " expected SHA3-256 certificate `HEX` fingerprint",
			EnvVar: "PRICECACHE_FINGERPRINT",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "latest",
			Usage:     "latest verified update for a feed",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "id, i",
					Value: "",
					Usage: "*feed id `HEX`",
				},
			},
			Action: runLatest,
		},
		{
			Name:      "at",
			Usage:     "first update at or after a time",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "id, i",
					Value: "",
					Usage: "*feed id `HEX`",
				},
				cli.StringFlag{
					Name:  "time, t",
					Value: "",
					Usage: "*unix seconds or RFC3339 `TIME`",
				},
			},
			Action: runAtOrAfter,
		},
		{
			Name:      "keys",
			Usage:     "list feed ids in the window",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "start, s",
					Value: "",
					Usage: " first feed id `HEX`",
				},
				cli.IntFlag{
					Name:  "count, n",
					Value: 100,
					Usage: " maximum number of ids `COUNT`",
				},
			},
			Action: runKeys,
		},
		{
			Name:   "ready",
			Usage:  "readiness of the node",
			Action: runReady,
		},
		{
			Name:   "info",
			Usage:  "display node information",
			Action: runInfo,
		},
		{
			Name:      "verify",
			Usage:     "verify a saved latest/at result without connecting",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "file, F",
					Value: "-",
					Usage: " JSON result `FILE`, - for stdin",
				},
				cli.StringFlag{
					Name:  "root, r",
					Value: "",
					Usage: " trusted root `HEX` the update must match",
				},
			},
			Action: runVerify,
		},
		{
			Name:  "version",
			Usage: "display pricecache-cli version",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "%s\n", version)
				return nil
			},
		},
	}

	app.Before = func(c *cli.Context) error {
		c.App.Metadata["config"] = &metadata{
			connect:     c.GlobalString("connect"),
			fingerprint: c.GlobalString("fingerprint"),
			verbose:     c.GlobalBool("verbose"),
			e:           c.App.ErrWriter,
			w:           c.App.Writer,
		}
		return nil
	}

	return app
}
