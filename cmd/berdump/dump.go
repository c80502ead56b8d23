// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"codello.dev/asn1schema/ber"
)

// A dumper parses input files and formats the parsed values.
type dumper struct {
	parser ber.Parser
	hex    bool
	format formatFunc
	stdin  io.Reader
	logger *slog.Logger
}

// run dumps files concurrently. The output is written to w in the order of
// files once all files have been processed.
func (d *dumper) run(ctx context.Context, w io.Writer, files []string) error {
	outputs := make([]bytes.Buffer, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range files {
		g.Go(func() error {
			return d.dump(ctx, &outputs[i], name, len(files) > 1)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i := range outputs {
		if _, err := outputs[i].WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}

func (d *dumper) dump(ctx context.Context, w io.Writer, name string, multi bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := d.read(name)
	if err != nil {
		return err
	}

	var nodes []ber.Node
	for rest := data; len(rest) > 0; {
		n, r, err := d.parser.Parse(rest)
		if err != nil {
			return errors.Wrapf(err, "%s: offset %d", name, len(data)-len(rest))
		}
		nodes = append(nodes, n)
		rest = r
	}
	if len(nodes) == 0 {
		d.logger.Warn("no values found", "file", name)
	}
	d.logger.Debug("parsed input",
		"file", name,
		"bytes", len(data),
		"values", len(nodes),
	)
	return d.format(w, name, multi, nodes)
}

// read returns the binary content of the named file.
func (d *dumper) read(name string) ([]byte, error) {
	var data []byte
	var err error
	if name == "-" {
		data, err = io.ReadAll(d.stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, err
	}
	if !d.hex {
		return data, nil
	}
	data, err = hex.DecodeString(strings.Join(strings.Fields(string(data)), ""))
	if err != nil {
		return nil, errors.Wrapf(err, "%s", name)
	}
	return data, nil
}

//region Formats

// A formatFunc writes the values parsed from a file to w. multi indicates that
// the output of several files is concatenated.
type formatFunc func(w io.Writer, name string, multi bool, nodes []ber.Node) error

var formats = map[string]formatFunc{
	"text": formatText,
	"json": formatJSON,
	"yaml": formatYAML,
}

func formatText(w io.Writer, name string, multi bool, nodes []ber.Node) error {
	var b strings.Builder
	if multi {
		b.WriteString("==> " + name + " <==\n")
	}
	for _, n := range nodes {
		writeTree(&b, n, 0)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeTree(b *strings.Builder, n ber.Node, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.String())
	b.WriteByte('\n')
	for _, c := range n.Children {
		writeTree(b, c, depth+1)
	}
}

// fileDump is the JSON and YAML representation of a file.
type fileDump struct {
	File   string     `json:"file" yaml:"file"`
	Values []dumpNode `json:"values" yaml:"values"`
}

// dumpNode is the JSON and YAML representation of a value.
type dumpNode struct {
	Tag      string     `json:"tag" yaml:"tag"`
	Kind     string     `json:"kind" yaml:"kind"`
	Value    any        `json:"value,omitempty" yaml:"value,omitempty"`
	Children []dumpNode `json:"children,omitempty" yaml:"children,omitempty"`
}

func newFileDump(name string, nodes []ber.Node) fileDump {
	f := fileDump{File: name, Values: make([]dumpNode, len(nodes))}
	for i, n := range nodes {
		f.Values[i] = newDumpNode(n)
	}
	return f
}

func newDumpNode(n ber.Node) dumpNode {
	dn := dumpNode{Tag: n.Tag.String(), Kind: n.Kind.String()}
	switch n.Kind {
	case ber.KindBoolean:
		dn.Value = n.Bool
	case ber.KindInteger:
		dn.Value = "0"
		if n.Int != nil {
			dn.Value = n.Int.String()
		}
	case ber.KindBitString:
		dn.Value = n.Bits.String()
	case ber.KindOctetString:
		dn.Value = hex.EncodeToString(n.Bytes)
	case ber.KindObjectIdentifier:
		dn.Value = n.OID.String()
	case ber.KindReal:
		dn.Value = n.Real.String()
	case ber.KindString:
		dn.Kind = n.StringKind.String()
		dn.Value = n.Str
	case ber.KindTime:
		dn.Kind = n.TimeKind.String()
		dn.Value = n.Time.Format(time.RFC3339Nano)
	case ber.KindTagged:
		if len(n.Children) == 0 {
			dn.Value = hex.EncodeToString(n.Bytes)
		}
	}
	for _, c := range n.Children {
		dn.Children = append(dn.Children, newDumpNode(c))
	}
	return dn
}

func formatJSON(w io.Writer, name string, _ bool, nodes []ber.Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newFileDump(name, nodes))
}

func formatYAML(w io.Writer, name string, multi bool, nodes []ber.Node) error {
	if multi {
		if _, err := fmt.Fprintln(w, "---"); err != nil {
			return err
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newFileDump(name, nodes)); err != nil {
		return err
	}
	return enc.Close()
}

//endregion
