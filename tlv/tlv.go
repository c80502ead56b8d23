// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tlv implements encoding and decoding of the identifier and length
// octets of the tag-length-value (TLV) format used by the Basic and
// Distinguished Encoding Rules as specified in [Rec. ITU-T X.690].
// See also “[A Layman's Guide to a Subset of ASN.1, BER, and DER]”.
//
// This package deals with the syntactic layer of TLV-encoding while other
// packages such as [codello.dev/asn1schema/ber] deal with the semantic layer of
// BER. All functions operate on in-memory buffers. Only the definite-length
// form is supported. The reserved indefinite-length marker is rejected.
//
// # Headers and Values
//
// In BER each value is encoded using a tag-length-value format. The tag and
// length (we call them a header) are represented by the [Header] type. The
// constructed flag is part of the [asn1schema.Tag]. Use [Split] to separate
// a single encoded TLV into its header, its content octets and the bytes that
// follow it.
//
// [Rec. ITU-T X.690]: https://www.itu.int/rec/T-REC-X.690
// [A Layman's Guide to a Subset of ASN.1, BER, and DER]: http://luca.ntop.org/Teaching/Appunti/asn1.html
package tlv

import (
	"strconv"

	"codello.dev/asn1schema"
	"codello.dev/asn1schema/internal/vlq"
)

// Header represents a TLV header. Length is the number of content octets
// following the header.
type Header struct {
	Tag    asn1schema.Tag
	Length int
}

// String returns a string representation of h.
func (h Header) String() string {
	s := h.Tag.String()
	if !h.Tag.Constructed {
		s += "/p"
	}
	s += ":" + strconv.Itoa(h.Length)
	return s
}

// Size returns the number of bytes needed to encode the TLV described by h,
// including the header itself.
func (h Header) Size() int {
	return headerSize(h) + h.Length
}

// headerSize computes the number of bytes required to encode h. The
// [AppendHeader] function will append this exact number of bytes.
func headerSize(h Header) int {
	l := 1 // class, constructed, tag
	if h.Tag.Number >= 31 {
		l += vlq.Len(h.Tag.Number)
	}
	l++ // length
	if h.Length < 128 {
		return l
	}
	for hl := h.Length; hl > 0; hl >>= 8 {
		l++
	}
	return l
}

// requireKeyedLiterals can be embedded in a struct to require keyed literals.
type requireKeyedLiterals struct{}

// nonComparable can be embedded in a struct to prevent comparability.
type nonComparable [0]func()
