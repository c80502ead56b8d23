// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tlv

import (
	"codello.dev/asn1schema"
	"codello.dev/asn1schema/internal/vlq"
)

// AppendTag appends the identifier octets of t to b and returns the extended
// buffer. Tag numbers up to 30 are encoded in a single byte. Larger numbers
// use the high-tag-number form.
func AppendTag(b []byte, t asn1schema.Tag) []byte {
	c := byte(t.Class&0b11) << 6
	if t.Constructed {
		c |= 0x20
	}
	if t.Number < 31 {
		return append(b, c|byte(t.Number))
	}
	b = append(b, c|0x1f)
	return vlq.Append(b, t.Number)
}

// AppendLength appends the definite-form length octets for a content length
// of n to b and returns the extended buffer. Lengths up to 127 use the short
// form, larger lengths the long form with the minimal number of length bytes.
// AppendLength panics if n is negative.
func AppendLength(b []byte, n int) []byte {
	if n < 0 {
		panic("tlv: negative length")
	}
	if n < 128 {
		return append(b, byte(n))
	}
	k := 0
	for l := n; l > 0; l >>= 8 {
		k++
	}
	b = append(b, 0x80|byte(k))
	for ; k > 0; k-- {
		b = append(b, byte(n>>uint((k-1)*8)))
	}
	return b
}

// AppendHeader appends the identifier and length octets of h to b and returns
// the extended buffer.
func AppendHeader(b []byte, h Header) []byte {
	return AppendLength(AppendTag(b, h.Tag), h.Length)
}
