// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"strings"

	"codello.dev/asn1schema"
)

// A SyntaxError suggests that the encoded data is invalid. This can either
// indicate that the nesting of constructed encodings contains an error, or that
// the content octets of a primitive encoding could not be converted into a
// valid value.
//
// Errors in the identifier and length octets are reported as
// [codello.dev/asn1schema/tlv.SyntaxError].
type SyntaxError struct {
	Tag asn1schema.Tag // where the syntax error occurred
	Err error
}

func (e *SyntaxError) Error() string {
	var s strings.Builder
	s.WriteString("ber: syntax error")
	if e.Tag != (asn1schema.Tag{}) {
		s.WriteString(" decoding ")
		s.WriteString(e.Tag.String())
	}
	if e.Err != nil {
		s.WriteString(": ")
		s.WriteString(e.Err.Error())
	}
	return s.String()
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// A ValueError indicates that a [Node] cannot be encoded because its value is
// invalid for its kind, for example a string containing characters outside
// the repertoire of its [asn1schema.StringKind].
type ValueError struct {
	Kind Kind
	Err  error
}

func (e *ValueError) Error() string {
	var s strings.Builder
	s.WriteString("ber: invalid ")
	s.WriteString(e.Kind.String())
	s.WriteString(" value")
	if e.Err != nil {
		s.WriteString(": ")
		s.WriteString(e.Err.Error())
	}
	return s.String()
}

func (e *ValueError) Unwrap() error {
	return e.Err
}
