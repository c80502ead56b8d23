// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package schema implements a declarative grammar for values encoded with the
// ASN.1 Basic and Distinguished Encoding Rules.
//
// A [Schema] describes the expected shape of a single TLV: its kind, the tags
// it may be encoded with, constraints on its value, a default value, and how it
// relates to sibling fields inside a SEQUENCE. Schemas are built with the
// constructor functions of this package and are immutable afterwards. A
// schema may be shared by any number of goroutines.
//
// # Tags
//
// Every schema except [Any], [Dynamic] and [Nothing] has a static set of tags
// that can appear at the start of its encoding. The set is computed by
// [Schema.PossibleTags] and drives the selection of CHOICE alternatives and the
// detection of absent fields. Implicit tagging replaces the tag of the inner
// schema. This is only possible if the inner schema has exactly one possible
// tag, otherwise the encoding could not be decoded again. Such schemas report
// [ErrAmbiguousImplicitTag].
//
// # Discriminants
//
// Inside a SEQUENCE one field may be marked as [Version] and one as [Type].
// The value of the version field decides which [Versioned] fields are
// expected. The value of the type field selects the schema of [Dynamic]
// fields. Both markers must precede the fields that depend on them.
package schema

import (
	"strconv"
	"strings"
	"sync"

	"codello.dev/asn1schema"
	"codello.dev/asn1schema/ber"
)

// Kind identifies the variant of a [Schema].
//
//go:generate stringer -type=Kind -trimprefix=Kind
type Kind uint8

// These are the schema kinds.
const (
	KindBoolean Kind = iota
	KindInteger
	KindReal
	KindNull
	KindBitString
	KindOctetString
	KindObjectIdentifier
	KindString
	KindTime
	KindSequence
	KindSequenceOf
	KindSetOf
	KindChoice
	KindImplicit
	KindExplicit
	KindOptional
	KindType
	KindVersion
	KindVersioned
	KindDynamic
	KindAny
	KindNothing
)

// IsLeaf reports whether k is one of the primitive kinds.
func (k Kind) IsLeaf() bool {
	return k <= KindTime
}

// Schema is a node of the schema grammar. Use the constructor functions of this
// package to create schemas. The zero value is not a valid schema.
type Schema struct {
	kind       Kind
	stringKind asn1schema.StringKind
	timeKind   asn1schema.TimeKind
	number     uint // tag number of implicit and explicit schemas
	inner      *Schema
	fields     []Field
	alts       []*Schema
	cases      []DynamicCase
	unknown    *Schema
	versions   VersionRange

	size    *Size
	allowed Constraint
	def     *ber.Node

	tagsOnce sync.Once
	tags     TagSet
	tagsErr  error

	validateOnce sync.Once
	validateErr  error
}

// Field is a named field of a SEQUENCE.
type Field struct {
	Name   string
	Schema *Schema
}

// F is shorthand for constructing a [Field].
func F(name string, s *Schema) Field {
	return Field{Name: name, Schema: s}
}

// DynamicCase maps a discriminant value to the schema used for a [Dynamic]
// field.
type DynamicCase struct {
	Value  ber.Node
	Schema *Schema
}

// Case is shorthand for constructing a [DynamicCase].
func Case(value ber.Node, s *Schema) DynamicCase {
	return DynamicCase{Value: value, Schema: s}
}

// An Option configures a leaf or collection schema.
type Option func(*Schema)

// WithDefault sets the default value of a schema. A field whose value equals
// its default is omitted when encoding and the default is substituted when the
// field is absent during decoding. The node is given in its natural form,
// without implicit or explicit tags.
func WithDefault(n ber.Node) Option {
	return func(s *Schema) {
		n = n.Natural()
		s.def = &n
	}
}

// WithAllowed restricts the values of a schema to those allowed by c.
func WithAllowed(c Constraint) Option {
	return func(s *Schema) {
		s.allowed = c
	}
}

// WithSize restricts the size of a schema. The size of a BIT STRING is its
// number of bits, the size of an OCTET STRING its number of bytes, the size of
// a character string its number of characters and the size of a collection
// its number of elements.
func WithSize(size Size) Option {
	return func(s *Schema) {
		s.size = &size
	}
}

func newSchema(k Kind, opts []Option) *Schema {
	s := &Schema{kind: k}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

//region Constructors

// Boolean returns a schema for BOOLEAN values.
func Boolean(opts ...Option) *Schema { return newSchema(KindBoolean, opts) }

// Integer returns a schema for INTEGER values.
func Integer(opts ...Option) *Schema { return newSchema(KindInteger, opts) }

// Real returns a schema for REAL values.
func Real(opts ...Option) *Schema { return newSchema(KindReal, opts) }

// Null returns a schema for NULL values.
func Null(opts ...Option) *Schema { return newSchema(KindNull, opts) }

// BitString returns a schema for BIT STRING values.
func BitString(opts ...Option) *Schema { return newSchema(KindBitString, opts) }

// OctetString returns a schema for OCTET STRING values.
func OctetString(opts ...Option) *Schema { return newSchema(KindOctetString, opts) }

// ObjectIdentifier returns a schema for OBJECT IDENTIFIER values.
func ObjectIdentifier(opts ...Option) *Schema { return newSchema(KindObjectIdentifier, opts) }

// String returns a schema for character strings of the given kind.
func String(kind asn1schema.StringKind, opts ...Option) *Schema {
	s := newSchema(KindString, opts)
	s.stringKind = kind
	return s
}

// Time returns a schema for time values of the given kind.
func Time(kind asn1schema.TimeKind, opts ...Option) *Schema {
	s := newSchema(KindTime, opts)
	s.timeKind = kind
	return s
}

// Sequence returns a schema for a SEQUENCE with the given fields. Fields are
// encoded in the order given.
func Sequence(fields ...Field) *Schema {
	return &Schema{kind: KindSequence, fields: fields}
}

// SequenceOf returns a schema for a SEQUENCE OF elem.
func SequenceOf(elem *Schema, opts ...Option) *Schema {
	s := newSchema(KindSequenceOf, opts)
	s.inner = elem
	return s
}

// SetOf returns a schema for a SET OF elem.
func SetOf(elem *Schema, opts ...Option) *Schema {
	s := newSchema(KindSetOf, opts)
	s.inner = elem
	return s
}

// Choice returns a schema that matches exactly one of alts. The alternatives
// are distinguished by their tags.
func Choice(alts ...*Schema) *Schema {
	return &Schema{kind: KindChoice, alts: alts}
}

// Implicit returns a schema that replaces the tag of s with the
// context-specific tag number n.
func Implicit(n uint, s *Schema) *Schema {
	return &Schema{kind: KindImplicit, number: n, inner: s}
}

// Explicit returns a schema that wraps s in a constructed encoding with the
// context-specific tag number n.
func Explicit(n uint, s *Schema) *Schema {
	return &Schema{kind: KindExplicit, number: n, inner: s}
}

// Optional marks a SEQUENCE field as optional.
func Optional(s *Schema) *Schema {
	return &Schema{kind: KindOptional, inner: s}
}

// Type marks a SEQUENCE field as the discriminant of the [Dynamic] fields
// following it.
func Type(s *Schema) *Schema {
	return &Schema{kind: KindType, inner: s}
}

// Version marks an INTEGER field of a SEQUENCE as the version of the
// SEQUENCE.
func Version(s *Schema) *Schema {
	return &Schema{kind: KindVersion, inner: s}
}

// Versioned marks a SEQUENCE field as expected only if the version of the
// SEQUENCE lies within r.
func Versioned(r VersionRange, s *Schema) *Schema {
	return &Schema{kind: KindVersioned, versions: r, inner: s}
}

// Dynamic returns a schema whose actual schema is selected by the value of the
// [Type] field of the enclosing SEQUENCE. If the value matches none of the
// cases, unknown is used instead. If unknown is nil, such a field is absent
// during decoding and an error during encoding.
func Dynamic(unknown *Schema, cases ...DynamicCase) *Schema {
	return &Schema{kind: KindDynamic, unknown: unknown, cases: cases}
}

// Any returns a schema that matches any single TLV.
func Any() *Schema {
	return &Schema{kind: KindAny}
}

// Nothing returns a schema that matches no TLV at all.
func Nothing() *Schema {
	return &Schema{kind: KindNothing}
}

//endregion

//region Accessors

// Kind returns the variant of s.
func (s *Schema) Kind() Kind { return s.kind }

// StringKind returns the string kind of a [KindString] schema.
func (s *Schema) StringKind() asn1schema.StringKind { return s.stringKind }

// TimeKind returns the time kind of a [KindTime] schema.
func (s *Schema) TimeKind() asn1schema.TimeKind { return s.timeKind }

// TagNumber returns the context-specific tag number of an implicit or explicit
// schema.
func (s *Schema) TagNumber() uint { return s.number }

// Inner returns the schema wrapped by s, or the element schema of a collection.
func (s *Schema) Inner() *Schema { return s.inner }

// Fields returns the fields of a SEQUENCE schema. The returned slice must not
// be modified.
func (s *Schema) Fields() []Field { return s.fields }

// Alternatives returns the alternatives of a CHOICE schema. The returned slice
// must not be modified.
func (s *Schema) Alternatives() []*Schema { return s.alts }

// Size returns the size constraint of s, if any.
func (s *Schema) Size() (Size, bool) {
	if s.size == nil {
		return Size{}, false
	}
	return *s.size, true
}

// Allowed returns the value constraint of s or nil.
func (s *Schema) Allowed() Constraint { return s.allowed }

// Versions returns the version range of a [KindVersioned] schema.
func (s *Schema) Versions() VersionRange { return s.versions }

// Cases returns the cases of a dynamic schema.
func (s *Schema) Cases() []DynamicCase { return s.cases }

// Unknown returns the schema used by a dynamic schema for values without a
// matching case.
func (s *Schema) Unknown() *Schema { return s.unknown }

// Resolve returns the schema a dynamic schema uses for the discriminant d. If
// no case matches, the unknown schema is returned, which may be nil.
func (s *Schema) Resolve(d ber.Node) *Schema {
	for _, c := range s.cases {
		if ber.Equal(c.Value.Natural(), d.Natural()) {
			return c.Schema
		}
	}
	return s.unknown
}

// Default returns the default value of s as it appears in an encoding,
// including any implicit or explicit tags between s and the schema carrying
// the default.
func (s *Schema) Default() (ber.Node, bool) {
	switch s.kind {
	case KindOptional, KindType, KindVersion, KindVersioned:
		return s.inner.Default()
	case KindImplicit:
		d, ok := s.inner.Default()
		if !ok {
			return d, false
		}
		return d.WithTag(asn1schema.ContextSpecific(s.number, false)), true
	case KindExplicit:
		d, ok := s.inner.Default()
		if !ok {
			return d, false
		}
		return ber.Tagged(asn1schema.ContextSpecific(s.number, true), d), true
	}
	if s.def == nil {
		return ber.Node{}, false
	}
	return *s.def, true
}

// Modifiers describes the markers of a SEQUENCE field.
type Modifiers struct {
	Optional  bool
	Type      bool
	Version   bool
	Versioned *VersionRange
}

// Unwrap removes the [Optional], [Type], [Version] and [Versioned] markers from
// s and returns the remaining schema together with the markers found.
func (s *Schema) Unwrap() (*Schema, Modifiers) {
	var m Modifiers
	for {
		switch s.kind {
		case KindOptional:
			m.Optional = true
		case KindType:
			m.Type = true
		case KindVersion:
			m.Version = true
		case KindVersioned:
			r := s.versions
			m.Versioned = &r
		default:
			return s, m
		}
		s = s.inner
	}
}

//endregion

// String returns a short ASN.1-like description of s.
func (s *Schema) String() string {
	var b strings.Builder
	s.writeString(&b)
	return b.String()
}

func (s *Schema) writeString(b *strings.Builder) {
	switch s.kind {
	case KindBoolean:
		b.WriteString("BOOLEAN")
	case KindInteger:
		b.WriteString("INTEGER")
	case KindReal:
		b.WriteString("REAL")
	case KindNull:
		b.WriteString("NULL")
	case KindBitString:
		b.WriteString("BIT STRING")
	case KindOctetString:
		b.WriteString("OCTET STRING")
	case KindObjectIdentifier:
		b.WriteString("OBJECT IDENTIFIER")
	case KindString:
		b.WriteString(s.stringKind.String())
		b.WriteString("String")
	case KindTime:
		if s.timeKind == asn1schema.TimeUTC {
			b.WriteString("UTCTime")
		} else {
			b.WriteString("GeneralizedTime")
		}
	case KindSequence:
		b.WriteString("SEQUENCE {")
		for i, f := range s.fields {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(" ")
			b.WriteString(f.Name)
			b.WriteString(" ")
			f.Schema.writeString(b)
		}
		b.WriteString(" }")
	case KindSequenceOf, KindSetOf:
		if s.kind == KindSequenceOf {
			b.WriteString("SEQUENCE OF ")
		} else {
			b.WriteString("SET OF ")
		}
		s.inner.writeString(b)
	case KindChoice:
		b.WriteString("CHOICE {")
		for i, a := range s.alts {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(" ")
			a.writeString(b)
		}
		b.WriteString(" }")
	case KindImplicit, KindExplicit:
		b.WriteString("[" + strconv.FormatUint(uint64(s.number), 10) + "] ")
		if s.kind == KindImplicit {
			b.WriteString("IMPLICIT ")
		} else {
			b.WriteString("EXPLICIT ")
		}
		s.inner.writeString(b)
	case KindOptional:
		s.inner.writeString(b)
		b.WriteString(" OPTIONAL")
	case KindType, KindVersion, KindVersioned:
		s.inner.writeString(b)
	case KindDynamic:
		b.WriteString("ANY DEFINED BY type")
	case KindAny:
		b.WriteString("ANY")
	case KindNothing:
		b.WriteString("NOTHING")
	}
	if s.def != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(s.def.String())
	}
}
