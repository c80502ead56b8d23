// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package der implements schema-driven encoding and decoding of values using
// the ASN.1 Distinguished Encoding Rules as specified in [Rec. ITU-T X.690].
//
// A [schema.Schema] describes the structure of the encoded data. Go values are
// connected to a schema in one of two ways: leaf values use their natural Go
// types (bool, integers, *big.Int, string, []byte, time.Time, ...) and
// structured values implement [Marshaler] and [Unmarshaler]. These interfaces
// give access to an [Encoder] or [Decoder] that exposes the fields of a
// SEQUENCE, the elements of a SEQUENCE OF or SET OF, or the alternative of a
// CHOICE. The schema drives the traversal. All tagging, defaults, versions and
// dynamic types are handled by this package.
//
// Decoding happens in two phases. The input is first parsed into a tree of
// [ber.Node] values. The tree is then resolved against the schema, which
// validates the structure, substitutes defaults and determines the schemas of
// dynamic fields. Only then the resolved values are passed to the Go
// values being decoded into. Parsing accepts BER restricted to definite,
// minimal forms. Encoding always produces DER with the exception of the order
// of SET OF elements, which is preserved unless [WithSortedSets] is used.
//
// [Rec. ITU-T X.690]: https://www.itu.int/rec/T-REC-X.690
package der

import (
	"log/slog"

	"codello.dev/asn1schema/ber"
	"codello.dev/asn1schema/schema"
)

// An Option configures an encoding or decoding operation.
type Option func(*options)

type options struct {
	logger         *slog.Logger
	sortSets       bool
	strictBooleans bool
	maxDepth       int
}

// WithLogger sets a logger that receives debug messages about the decisions
// made while resolving a schema. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithSortedSets causes the elements of SET OF values to be sorted by their
// encoding as required by DER. By default elements are encoded in the order
// given.
func WithSortedSets() Option {
	return func(o *options) {
		o.sortSets = true
	}
}

// WithStrictBooleans causes BOOLEAN values to be rejected during decoding
// unless their content is 0x00 or 0xFF.
func WithStrictBooleans() Option {
	return func(o *options) {
		o.strictBooleans = true
	}
}

// WithMaxDepth limits the nesting depth of values. The default is
// [ber.DefaultMaxDepth].
func WithMaxDepth(n int) Option {
	return func(o *options) {
		o.maxDepth = n
	}
}

func newOptions(opts []Option) *options {
	o := &options{maxDepth: ber.DefaultMaxDepth}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.maxDepth <= 0 {
		o.maxDepth = ber.DefaultMaxDepth
	}
	return o
}

// Unmarshal decodes the TLV at the start of b according to s and stores the
// result in the value pointed to by v. Bytes following the TLV are ignored.
//
// v must be a pointer to a supported leaf type, a pointer to an empty interface
// or implement [Unmarshaler].
func Unmarshal(b []byte, s *schema.Schema, v any, opts ...Option) error {
	o := newOptions(opts)
	p := ber.Parser{StrictBooleans: o.strictBooleans, MaxDepth: o.maxDepth}
	n, _, err := p.Parse(b)
	if err != nil {
		return &Error{Op: "decode", Err: corrupted(err)}
	}
	return unmarshalNode(n, s, v, o, &p)
}

// UnmarshalNode is like [Unmarshal] but decodes a node that has already been
// parsed.
func UnmarshalNode(n ber.Node, s *schema.Schema, v any, opts ...Option) error {
	o := newOptions(opts)
	return unmarshalNode(n, s, v, o, &ber.Parser{StrictBooleans: o.strictBooleans, MaxDepth: o.maxDepth})
}

func unmarshalNode(n ber.Node, s *schema.Schema, v any, o *options, p *ber.Parser) error {
	if err := s.Validate(); err != nil {
		return err
	}
	r := &resolver{opts: o, parser: p}
	val, err := r.resolve(s, n, nil, nil, 0)
	if err != nil {
		return err
	}
	return decodeValue(val, v)
}

// Marshal returns the DER encoding of v according to s.
//
// v must be a supported leaf value, a [ber.Node] or implement [Marshaler].
// If v is nil and s allows an absent value, Marshal returns nil.
func Marshal(s *schema.Schema, v any, opts ...Option) ([]byte, error) {
	n, ok, err := marshalNode(s, v, newOptions(opts))
	if err != nil || !ok {
		return nil, err
	}
	b, err := ber.Marshal(n)
	if err != nil {
		return nil, &Error{Op: "encode", Err: newErrorf(ErrBadValue, "%v", err)}
	}
	return b, nil
}

// MarshalNode is like [Marshal] but returns the encoded value as a node.
func MarshalNode(s *schema.Schema, v any, opts ...Option) (ber.Node, error) {
	n, ok, err := marshalNode(s, v, newOptions(opts))
	if err == nil && !ok {
		err = &Error{Op: "encode", Err: newErrorf(ErrValueNotFound, "no value for %v", s)}
	}
	return n, err
}

func marshalNode(s *schema.Schema, v any, o *options) (ber.Node, bool, error) {
	if err := s.Validate(); err != nil {
		return ber.Node{}, false, err
	}
	e := &encoder{opts: o}
	return e.encode(s, v, nil, nil, 0)
}
