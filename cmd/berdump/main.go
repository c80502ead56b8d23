// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command berdump prints the structure of BER or DER encoded data. No schema
// is needed: every value is shown with its tag and, for UNIVERSAL types, its
// decoded content. Values with other tags are shown as raw content octets and,
// if they are constructed, with their nested values.
//
// Usage:
//
//	berdump [options] [file ...]
//
// If no file is given or a file is "-", standard input is read. A file may
// contain several consecutive values.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"

	"codello.dev/asn1schema/ber"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newCommand(os.Stdin, os.Stdout, os.Stderr).Run(ctx, os.Args)
	stop()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
}

// newCommand returns the berdump command reading standard input from stdin
// and writing its output to stdout. Log messages are written to stderr.
func newCommand(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	cmd := cli.Command{
		Name:      "berdump",
		Usage:     "Print the structure of BER or DER encoded data.",
		UsageText: "berdump [options] [file ...]",
		Description: `The berdump command parses BER encoded values and prints them as a tree.

By default, the tree is written as indented text:

$ berdump cert.der
[UNIVERSAL 16]/c Sequence (3 elements)
  [UNIVERSAL 16]/c Sequence (8 elements)
  ...

The output can also be written as JSON or YAML:

$ berdump -f yaml cert.der`,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "output format, one of text, json or yaml",
			},
			&cli.BoolFlag{
				Name:  "hex",
				Usage: "the input is hexadecimal text, whitespace is ignored",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "reject BOOLEAN values other than 0x00 and 0xFF",
			},
			&cli.IntFlag{
				Name:  "max-depth",
				Value: ber.DefaultMaxDepth,
				Usage: "maximum nesting depth of values",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log debug messages to stderr",
			},
		},
	}

	cmd.Action = func(ctx context.Context, cmd *cli.Command) error {
		level := slog.LevelInfo
		if cmd.Bool("verbose") {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
			Level: level,
		}))

		format, ok := formats[cmd.String("format")]
		if !ok {
			return errors.Newf("unknown format %q", cmd.String("format"))
		}
		d := &dumper{
			parser: ber.Parser{
				StrictBooleans: cmd.Bool("strict"),
				MaxDepth:       cmd.Int("max-depth"),
			},
			hex:    cmd.Bool("hex"),
			format: format,
			stdin:  stdin,
			logger: logger,
		}

		files := cmd.Args().Slice()
		if len(files) == 0 {
			files = []string{"-"}
		}
		return d.run(ctx, stdout, files)
	}

	return &cmd
}
