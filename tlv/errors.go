// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlv

import (
	"strconv"

	"github.com/cockroachdb/errors"

	"codello.dev/asn1schema"
)

var (
	// ErrMalformedTag indicates invalid identifier octets.
	ErrMalformedTag = errors.New("malformed tag")
	// ErrMalformedLength indicates invalid length octets, including the
	// unsupported indefinite-length form.
	ErrMalformedLength = errors.New("malformed length")
	// ErrTruncated indicates that the content octets of a TLV extend past the
	// end of the input.
	ErrTruncated = errors.New("truncated data value")
)

// SyntaxError represents an error in the TLV encoding. The error value contains
// the location of the error relative to the start of the TLV being parsed.
type SyntaxError struct {
	requireKeyedLiterals
	nonComparable

	Err error // underlying error

	// ByteOffset is the location of the error relative to the start of the
	// TLV.
	ByteOffset int

	// Tag is the tag of the TLV containing the error, if it could be parsed.
	Tag asn1schema.Tag
}

func (e *SyntaxError) Unwrap() error { return e.Err }
func (e *SyntaxError) Error() string {
	b := []byte("tlv: syntax error")
	if e.ByteOffset > 0 {
		b = append(b, " in "...)
		b = append(b, e.Tag.String()...)
		b = strconv.AppendInt(append(b, " at offset "...), int64(e.ByteOffset), 10)
	}
	if e.Err != nil {
		b = append(b, ": "...)
		b = append(b, e.Err.Error()...)
	}
	return string(b)
}
