// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vlq implements [Variable-length quantity] encoding as used in BER
// for high tag numbers and object identifier components. A VLQ is essentially
// a base-128 representation of an unsigned integer with the addition of the
// eighth bit to mark continuation of bytes. VLQ is identical to [LEB128] except
// in endianness.
//
// [Variable-length quantity]: https://en.wikipedia.org/wiki/Variable-length_quantity
// [LEB128]: https://en.wikipedia.org/wiki/LEB128
package vlq

import (
	"math/bits"
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
)

var (
	// ErrTruncated indicates that the input ended before the final byte of a
	// VLQ.
	ErrTruncated = errors.New("vlq is truncated")
	// ErrNotMinimal indicates that a VLQ started with a 0x80 byte.
	ErrNotMinimal = errors.New("vlq is not minimally encoded")
	// ErrOverflow indicates that a VLQ does not fit into the target type.
	ErrOverflow = errors.New("vlq too large for target type")
)

// Decode parses a minimally encoded unsigned VLQ from the beginning of b and
// returns the value and the number of bytes consumed. The maximum allowed value
// is limited by the size of T.
func Decode[T constraints.Unsigned](b []byte) (ret T, n int, err error) {
	if len(b) == 0 {
		return 0, 0, ErrTruncated
	}
	if b[0] == 0x80 {
		return 0, 0, ErrNotMinimal
	}
	numBits := 0
	for n < len(b) {
		c := b[n]
		n++
		if numBits == 0 {
			numBits = bits.Len8(c & 0x7f)
		} else {
			numBits += 7
		}
		if numBits > int(unsafe.Sizeof(ret)*8) {
			return 0, n, ErrOverflow
		}
		ret = ret<<7 | T(c&0x7f)
		if c&0x80 == 0 {
			return ret, n, nil
		}
	}
	return 0, n, ErrTruncated
}

// Len returns the number of bytes needed to encode v as a VLQ.
func Len[T constraints.Unsigned](v T) int {
	if v == 0 {
		return 1
	}
	l := 0
	for i := v; i > 0; i >>= 7 {
		l++
	}
	return l
}

// Append appends the VLQ encoding of v to b and returns the extended buffer.
func Append[T constraints.Unsigned](b []byte, v T) []byte {
	for j := Len(v) - 1; j >= 0; j-- {
		c := byte(v>>(j*7)) & 0x7f
		if j > 0 {
			c |= 0x80
		}
		b = append(b, c)
	}
	return b
}
