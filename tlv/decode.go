// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlv

import (
	"math"

	"github.com/cockroachdb/errors"

	"codello.dev/asn1schema"
	"codello.dev/asn1schema/internal/vlq"
)

// DecodeTag parses the identifier octets at the beginning of b. It returns the
// tag and the number of bytes consumed. If the tag is truncated, uses a
// non-minimal high-tag-number form, or its number does not fit into a uint, the
// returned error wraps [ErrMalformedTag].
func DecodeTag(b []byte) (t asn1schema.Tag, n int, err error) {
	if len(b) == 0 {
		return t, 0, errors.Wrap(ErrMalformedTag, "missing identifier octet")
	}
	t = asn1schema.Tag{
		Class:       asn1schema.Class(b[0] >> 6),
		Constructed: b[0]&0x20 == 0x20,
		Number:      uint(b[0] & 0x1f),
	}
	if t.Number != 0x1f {
		return t, 1, nil
	}

	// If the bottom five bits are set, then the tag number is actually base 128
	// encoded afterward.
	num, l, err := vlq.Decode[uint](b[1:])
	if err != nil {
		return t, 0, errors.Mark(errors.Wrap(err, "high tag number"), ErrMalformedTag)
	}
	if num < 31 {
		return t, 0, errors.Wrapf(ErrMalformedTag, "high-tag-number form used for tag number %d", num)
	}
	t.Number = num
	return t, 1 + l, nil
}

// DecodeLength parses the length octets at the beginning of b. It returns the
// content length and the number of bytes consumed. The indefinite-length marker
// 0x80 and the reserved value 0xFF are rejected with an error wrapping
// [ErrMalformedLength], as are long-form lengths that are not minimally encoded
// or do not fit into an int.
func DecodeLength(b []byte) (length int, n int, err error) {
	if len(b) == 0 {
		return 0, 0, errors.Wrap(ErrMalformedLength, "missing length octet")
	}
	c := b[0]
	if c&0x80 == 0 {
		// The length is encoded in the bottom 7 bits.
		return int(c), 1, nil
	}
	k := int(c & 0x7f)
	switch {
	case k == 0:
		return 0, 0, errors.Wrap(ErrMalformedLength, "indefinite length")
	case k == 0x7f:
		return 0, 0, errors.Wrap(ErrMalformedLength, "reserved length")
	case len(b) < 1+k:
		return 0, 0, errors.Wrap(ErrMalformedLength, "truncated length")
	case b[1] == 0:
		return 0, 0, errors.Wrap(ErrMalformedLength, "length not minimally encoded")
	}
	for _, d := range b[1 : 1+k] {
		if length > (math.MaxInt-int(d))>>8 {
			return 0, 0, errors.Wrap(ErrMalformedLength, "length too large")
		}
		length = length<<8 | int(d)
	}
	if length < 128 {
		return 0, 0, errors.Wrap(ErrMalformedLength, "long form used for short length")
	}
	return length, 1 + k, nil
}

// ParseHeader parses the identifier and length octets at the beginning of b.
// It returns the header and the number of bytes consumed.
func ParseHeader(b []byte) (h Header, n int, err error) {
	h.Tag, n, err = DecodeTag(b)
	if err != nil {
		return h, 0, &SyntaxError{Err: err}
	}
	var l int
	h.Length, l, err = DecodeLength(b[n:])
	if err != nil {
		return h, 0, &SyntaxError{Err: err, ByteOffset: n, Tag: h.Tag}
	}
	return h, n + l, nil
}

// Split separates the TLV at the beginning of b into its header, its content
// octets and the remaining bytes after the TLV. The content and rest slices
// share memory with b. If b does not contain the complete content octets, the
// returned error wraps [ErrTruncated].
func Split(b []byte) (h Header, content, rest []byte, err error) {
	h, n, err := ParseHeader(b)
	if err != nil {
		return h, nil, b, err
	}
	if h.Length > len(b)-n {
		return h, nil, b, &SyntaxError{Err: errors.Wrapf(ErrTruncated, "need %d content bytes, have %d", h.Length, len(b)-n), ByteOffset: n, Tag: h.Tag}
	}
	return h, b[n : n+h.Length], b[n+h.Length:], nil
}
