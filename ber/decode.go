// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"bytes"

	"github.com/cockroachdb/errors"

	"codello.dev/asn1schema"
	"codello.dev/asn1schema/tlv"
)

// DefaultMaxDepth is the maximum nesting depth of constructed encodings
// accepted by a [Parser] whose MaxDepth is zero.
const DefaultMaxDepth = 128

// ErrMaxDepth indicates that constructed encodings are nested deeper than
// permitted by a [Parser].
var ErrMaxDepth = errors.New("maximum nesting depth exceeded")

// A Parser converts BER-encoded bytes into a tree of [Node] values. The zero
// value is ready to use.
type Parser struct {
	// StrictBooleans causes BOOLEAN values to be rejected unless their content
	// octet is 0x00 or 0xFF. By default any non-zero octet is decoded as true.
	StrictBooleans bool

	// MaxDepth limits the nesting depth of constructed encodings. If MaxDepth
	// is zero, DefaultMaxDepth is used.
	MaxDepth int
}

// Parse parses the TLV at the beginning of b using the default [Parser]. See
// [Parser.Parse] for details.
func Parse(b []byte) (n Node, rest []byte, err error) {
	var p Parser
	return p.Parse(b)
}

// Parse parses exactly one TLV from the beginning of b and returns the bytes
// following it. Trailing bytes are not an error. All byte slices and strings in
// the returned node are copies and do not share memory with b.
//
// Malformed identifier or length octets are reported as a
// [tlv.SyntaxError], invalid content octets as a [SyntaxError].
func (p *Parser) Parse(b []byte) (n Node, rest []byte, err error) {
	return p.parse(b, 0)
}

func (p *Parser) parse(b []byte, depth int) (Node, []byte, error) {
	h, content, rest, err := tlv.Split(b)
	if err != nil {
		return Node{}, b, err
	}
	n, err := p.parseContent(h.Tag, content, depth)
	return n, rest, err
}

// parseContent interprets content as the content octets of a TLV with the
// given tag.
func (p *Parser) parseContent(tag asn1schema.Tag, content []byte, depth int) (n Node, err error) {
	maxDepth := p.MaxDepth
	if maxDepth == 0 {
		maxDepth = DefaultMaxDepth
	}
	if depth > maxDepth {
		return n, &SyntaxError{tag, ErrMaxDepth}
	}
	n.Tag = tag

	if tag.Class != asn1schema.ClassUniversal {
		n.Kind = KindTagged
		n.Bytes = bytes.Clone(content)
		if n.Bytes == nil {
			n.Bytes = []byte{}
		}
		if tag.Constructed {
			// The content of an unknown constructed encoding is not required
			// to be a series of TLVs. Children stays nil if it is not.
			n.Children, err = p.parseChildren(content, depth+1)
			if err != nil && !errors.Is(err, ErrMaxDepth) {
				n.Children, err = nil, nil
			}
		}
		return n, err
	}

	switch tag.Number {
	case asn1schema.TagSequence, asn1schema.TagSet:
		if !tag.Constructed {
			return n, &SyntaxError{tag, errors.New("primitive encoding of constructed type")}
		}
		n.Kind = KindSequence
		if tag.Number == asn1schema.TagSet {
			n.Kind = KindSet
		}
		n.Children, err = p.parseChildren(content, depth+1)
		return n, err
	}
	if tag.Constructed {
		return n, &SyntaxError{tag, errors.New("constructed encoding of primitive type")}
	}

	switch tag.Number {
	case asn1schema.TagBoolean:
		n.Kind = KindBoolean
		n.Bool, err = parseBoolean(content, p.StrictBooleans)
	case asn1schema.TagInteger:
		n.Kind = KindInteger
		n.Int, err = ParseInteger(content)
	case asn1schema.TagBitString:
		n.Kind = KindBitString
		n.Bits, err = parseBitString(content)
	case asn1schema.TagOctetString:
		n.Kind = KindOctetString
		n.Bytes = append([]byte{}, content...)
	case asn1schema.TagNull:
		n.Kind = KindNull
		if len(content) != 0 {
			err = errors.New("invalid NULL length")
		}
	case asn1schema.TagOID:
		n.Kind = KindObjectIdentifier
		n.OID, err = parseOID(content)
	case asn1schema.TagReal:
		n.Kind = KindReal
		n.Real, err = parseReal(content)
	case asn1schema.TagUTCTime, asn1schema.TagGeneralizedTime:
		n.Kind = KindTime
		n.TimeKind, _ = asn1schema.TimeKindFor(tag.Number)
		n.Time, err = parseTime(content, n.TimeKind)
	default:
		if kind, ok := asn1schema.StringKindFor(tag.Number); ok {
			n.Kind = KindString
			n.StringKind = kind
			n.Str, err = parseString(content, kind)
		} else {
			n.Kind = KindTagged
			n.Bytes = append([]byte{}, content...)
		}
	}
	if err != nil {
		return n, &SyntaxError{tag, err}
	}
	return n, nil
}

// parseChildren parses content as a concatenation of TLVs.
func (p *Parser) parseChildren(content []byte, depth int) ([]Node, error) {
	children := make([]Node, 0, 4)
	for len(content) > 0 {
		child, rest, err := p.parse(content, depth)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
		content = rest
	}
	return children, nil
}

// Reinterpret returns n as if it had been encoded with tag t. This resolves
// implicitly tagged values: a [KindTagged] node whose intended type is known
// can be reinterpreted with the UNIVERSAL tag of that type. The constructed
// flag of t must match the encoding of n.
//
// If t is not a UNIVERSAL tag, only the tag of n is replaced.
func (p *Parser) Reinterpret(n Node, t asn1schema.Tag) (Node, error) {
	if t.Constructed != n.tag().Constructed {
		return n, &SyntaxError{n.Tag, errors.Newf("cannot reinterpret as %v", t)}
	}
	if t.Class != asn1schema.ClassUniversal {
		n.Tag = t
		return n, nil
	}
	if n.Kind != KindTagged && n.NaturalTag() == t {
		n.Tag = t
		return n, nil
	}
	content := n.Bytes
	if n.Kind != KindTagged || content == nil {
		var err error
		if content, err = appendContent(nil, n); err != nil {
			return n, err
		}
	}
	return p.parseContent(t, content, 0)
}

// Reinterpret uses the default [Parser] to reinterpret n. See
// [Parser.Reinterpret] for details.
func Reinterpret(n Node, t asn1schema.Tag) (Node, error) {
	var p Parser
	return p.Reinterpret(n, t)
}
