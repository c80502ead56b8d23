// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ber implements a generic tree of values encoded with the ASN.1 Basic
// Encoding Rules (BER). The Basic Encoding Rules are defined in
// [Rec. ITU-T X.690].
// See also “[A Layman's Guide to a Subset of ASN.1, BER, and DER]”.
//
// A [Node] represents a single decoded TLV. Values in the UNIVERSAL class are
// decoded into their natural representation. Values in any other class cannot
// be interpreted without a schema and are kept as [KindTagged] nodes that carry
// their undecoded content octets. Use [Parser.Reinterpret] to resolve such a
// node once its intended type is known.
//
// Nodes are always encoded using the definite-length form. The following
// limitations apply:
//
//   - Constructed encodings of string types and the indefinite-length form are
//     rejected during parsing.
//   - UNIVERSAL types not listed as a [Kind] are kept as [KindTagged] nodes.
//   - Decimal REAL values are encoded using the NR3 form octet. Binary REAL
//     encodings can be decoded but are never produced.
//
// [Rec. ITU-T X.690]: https://www.itu.int/rec/T-REC-X.690
// [A Layman's Guide to a Subset of ASN.1, BER, and DER]: http://luca.ntop.org/Teaching/Appunti/asn1.html
package ber

import (
	"bytes"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"codello.dev/asn1schema"
)

// Kind identifies the variant of a [Node].
//
//go:generate stringer -type=Kind -trimprefix=Kind
type Kind uint8

// These are the node kinds. Every kind except [KindTagged] corresponds to one or
// more UNIVERSAL tag numbers.
const (
	KindBoolean Kind = iota
	KindInteger
	KindBitString
	KindOctetString
	KindNull
	KindObjectIdentifier
	KindReal
	KindString
	KindTime
	KindSequence
	KindSet
	KindTagged
)

// Node is a single value of the generic BER tree. Depending on its Kind exactly
// one group of fields is populated:
//
//	KindBoolean           Bool
//	KindInteger           Int
//	KindBitString         Bits
//	KindOctetString       Bytes
//	KindNull              (none)
//	KindObjectIdentifier  OID
//	KindReal              Real
//	KindString            Str and StringKind
//	KindTime              Time and TimeKind
//	KindSequence, KindSet Children
//	KindTagged            Bytes (the raw content octets) and, if constructed
//	                      and the content is a series of TLVs, Children
//
// Tag is the tag the node is encoded with. For nodes created by the
// constructors in this package this is the natural UNIVERSAL tag of the kind.
// A zero Tag is treated as the natural tag of the kind.
type Node struct {
	Kind Kind
	Tag  asn1schema.Tag

	Bool       bool
	Int        *big.Int
	Bits       asn1schema.BitString
	Bytes      []byte
	OID        asn1schema.ObjectIdentifier
	Real       decimal.Decimal
	Str        string
	StringKind asn1schema.StringKind
	Time       time.Time
	TimeKind   asn1schema.TimeKind
	Children   []Node
}

//region Constructors

// Bool returns a BOOLEAN node.
func Bool(v bool) Node {
	return Node{Kind: KindBoolean, Tag: asn1schema.Universal(asn1schema.TagBoolean, false), Bool: v}
}

// Int returns an INTEGER node holding v.
func Int(v int64) Node {
	return BigInt(big.NewInt(v))
}

// BigInt returns an INTEGER node holding a copy of v.
func BigInt(v *big.Int) Node {
	return Node{Kind: KindInteger, Tag: asn1schema.Universal(asn1schema.TagInteger, false), Int: new(big.Int).Set(v)}
}

// Bits returns a BIT STRING node.
func Bits(v asn1schema.BitString) Node {
	return Node{Kind: KindBitString, Tag: asn1schema.Universal(asn1schema.TagBitString, false), Bits: v}
}

// Octets returns an OCTET STRING node.
func Octets(b []byte) Node {
	return Node{Kind: KindOctetString, Tag: asn1schema.Universal(asn1schema.TagOctetString, false), Bytes: b}
}

// Null returns a NULL node.
func Null() Node {
	return Node{Kind: KindNull, Tag: asn1schema.Universal(asn1schema.TagNull, false)}
}

// OID returns an OBJECT IDENTIFIER node.
func OID(arcs ...uint) Node {
	return Node{Kind: KindObjectIdentifier, Tag: asn1schema.Universal(asn1schema.TagOID, false), OID: arcs}
}

// Real returns a REAL node.
func Real(d decimal.Decimal) Node {
	return Node{Kind: KindReal, Tag: asn1schema.Universal(asn1schema.TagReal, false), Real: d}
}

// String returns a string node of the given kind.
func String(kind asn1schema.StringKind, s string) Node {
	return Node{Kind: KindString, Tag: asn1schema.Universal(kind.TagNumber(), false), Str: s, StringKind: kind}
}

// Time returns a time node of the given kind.
func Time(kind asn1schema.TimeKind, t time.Time) Node {
	return Node{Kind: KindTime, Tag: asn1schema.Universal(kind.TagNumber(), false), Time: t, TimeKind: kind}
}

// Sequence returns a SEQUENCE node with the given children.
func Sequence(children ...Node) Node {
	return Node{Kind: KindSequence, Tag: asn1schema.Universal(asn1schema.TagSequence, true), Children: children}
}

// Set returns a SET node with the given children. The children are encoded in
// the order given.
func Set(children ...Node) Node {
	return Node{Kind: KindSet, Tag: asn1schema.Universal(asn1schema.TagSet, true), Children: children}
}

// Tagged returns a constructed node with the given tag wrapping children. This
// is the shape of an explicitly tagged value.
func Tagged(tag asn1schema.Tag, children ...Node) Node {
	return Node{Kind: KindTagged, Tag: tag.WithConstructed(true), Children: children}
}

// Raw returns a primitive node with the given tag and content octets.
func Raw(tag asn1schema.Tag, content []byte) Node {
	return Node{Kind: KindTagged, Tag: tag.WithConstructed(false), Bytes: content}
}

//endregion

// NaturalTag returns the UNIVERSAL tag of n's kind. For [KindTagged] nodes the
// actual tag of n is returned.
func (n Node) NaturalTag() asn1schema.Tag {
	switch n.Kind {
	case KindBoolean:
		return asn1schema.Universal(asn1schema.TagBoolean, false)
	case KindInteger:
		return asn1schema.Universal(asn1schema.TagInteger, false)
	case KindBitString:
		return asn1schema.Universal(asn1schema.TagBitString, false)
	case KindOctetString:
		return asn1schema.Universal(asn1schema.TagOctetString, false)
	case KindNull:
		return asn1schema.Universal(asn1schema.TagNull, false)
	case KindObjectIdentifier:
		return asn1schema.Universal(asn1schema.TagOID, false)
	case KindReal:
		return asn1schema.Universal(asn1schema.TagReal, false)
	case KindString:
		return asn1schema.Universal(n.StringKind.TagNumber(), false)
	case KindTime:
		return asn1schema.Universal(n.TimeKind.TagNumber(), false)
	case KindSequence:
		return asn1schema.Universal(asn1schema.TagSequence, true)
	case KindSet:
		return asn1schema.Universal(asn1schema.TagSet, true)
	}
	return n.Tag
}

// Natural returns a copy of n that uses its natural tag.
func (n Node) Natural() Node {
	n.Tag = n.NaturalTag()
	return n
}

// WithTag returns a copy of n using tag t. The constructed flag of t is
// replaced by the flag of n's current tag.
func (n Node) WithTag(t asn1schema.Tag) Node {
	n.Tag = t.WithConstructed(n.tag().Constructed)
	return n
}

// tag returns the tag n is encoded with.
func (n Node) tag() asn1schema.Tag {
	if n.Tag == (asn1schema.Tag{}) {
		return n.NaturalTag()
	}
	return n.Tag
}

// Value returns the natural Go representation of n: bool, *big.Int,
// asn1schema.BitString, []byte, asn1schema.Null, asn1schema.ObjectIdentifier,
// decimal.Decimal, string, time.Time, or []any for sequences and sets. Tagged
// nodes are returned as-is.
func (n Node) Value() any {
	switch n.Kind {
	case KindBoolean:
		return n.Bool
	case KindInteger:
		if n.Int == nil {
			return new(big.Int)
		}
		return new(big.Int).Set(n.Int)
	case KindBitString:
		return n.Bits
	case KindOctetString:
		return bytes.Clone(n.Bytes)
	case KindNull:
		return asn1schema.Null{}
	case KindObjectIdentifier:
		return n.OID
	case KindReal:
		return n.Real
	case KindString:
		return n.Str
	case KindTime:
		return n.Time
	case KindSequence, KindSet:
		vs := make([]any, len(n.Children))
		for i, c := range n.Children {
			vs[i] = c.Value()
		}
		return vs
	}
	return n
}

// String returns a short human-readable representation of n. Children of
// constructed nodes are not included.
func (n Node) String() string {
	s := n.tag().String() + " " + n.Kind.String()
	switch n.Kind {
	case KindBoolean:
		return s + " " + strconv.FormatBool(n.Bool)
	case KindInteger:
		if n.Int == nil {
			return s + " 0"
		}
		return s + " " + n.Int.String()
	case KindBitString:
		return s + " '" + n.Bits.String() + "'B"
	case KindOctetString:
		return fmt.Sprintf("%s %X", s, n.Bytes)
	case KindObjectIdentifier:
		return s + " " + n.OID.String()
	case KindReal:
		return s + " " + n.Real.String()
	case KindString:
		return s + " " + n.StringKind.String() + " " + strconv.Quote(n.Str)
	case KindTime:
		return s + " " + n.TimeKind.String() + " " + n.Time.Format(time.RFC3339Nano)
	case KindSequence, KindSet:
		return s + " (" + strconv.Itoa(len(n.Children)) + " elements)"
	case KindTagged:
		if n.Tag.Constructed && (n.Bytes == nil || len(n.Children) > 0) {
			return s + " (" + strconv.Itoa(len(n.Children)) + " elements)"
		}
		return fmt.Sprintf("%s %X", s, n.Bytes)
	}
	return s
}

// Equal reports whether a and b have the same DER encoding. Nodes that cannot
// be encoded are never equal.
func Equal(a, b Node) bool {
	ab, err := Marshal(a)
	if err != nil {
		return false
	}
	bb, err := Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
