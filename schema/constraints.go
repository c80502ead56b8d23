// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"codello.dev/asn1schema/ber"
)

//region Size

// Size is a constraint on the size of a value. See [WithSize] for the
// definition of size for the different kinds.
type Size struct {
	min, max int // max < 0 means unbounded
}

// Exact returns a size constraint that allows exactly n.
func Exact(n int) Size { return Size{n, n} }

// Min returns a size constraint that allows at least n.
func Min(n int) Size { return Size{n, -1} }

// Max returns a size constraint that allows at most n.
func Max(n int) Size { return Size{0, n} }

// Range returns a size constraint that allows sizes from lo to hi inclusive.
func Range(lo, hi int) Size { return Size{lo, hi} }

// Contains reports whether n satisfies s.
func (s Size) Contains(n int) bool {
	return n >= s.min && (s.max < 0 || n <= s.max)
}

// String returns the constraint in ASN.1 notation.
func (s Size) String() string {
	switch {
	case s.min == s.max:
		return "SIZE(" + strconv.Itoa(s.min) + ")"
	case s.max < 0:
		return "SIZE(" + strconv.Itoa(s.min) + "..MAX)"
	}
	return "SIZE(" + strconv.Itoa(s.min) + ".." + strconv.Itoa(s.max) + ")"
}

//endregion

//region Constraint

// A Constraint restricts the values of a leaf schema. Allows is called with the
// natural form of a decoded or to be encoded node.
type Constraint interface {
	Allows(n ber.Node) bool
	String() string
}

// IntRange returns a constraint that allows INTEGER values from lo to hi
// inclusive.
func IntRange(lo, hi int64) Constraint {
	return intRange{big.NewInt(lo), big.NewInt(hi)}
}

type intRange struct {
	lo, hi *big.Int
}

func (r intRange) Allows(n ber.Node) bool {
	if n.Kind != ber.KindInteger || n.Int == nil {
		return false
	}
	return n.Int.Cmp(r.lo) >= 0 && n.Int.Cmp(r.hi) <= 0
}

func (r intRange) String() string {
	return "(" + r.lo.String() + ".." + r.hi.String() + ")"
}

// OneOf returns a constraint that allows exactly the given values. Values are
// compared by their DER encoding.
func OneOf(values ...ber.Node) Constraint {
	vs := make(oneOf, len(values))
	for i, v := range values {
		vs[i] = v.Natural()
	}
	return vs
}

type oneOf []ber.Node

func (o oneOf) Allows(n ber.Node) bool {
	n = n.Natural()
	for _, v := range o {
		if ber.Equal(v, n) {
			return true
		}
	}
	return false
}

func (o oneOf) String() string {
	var b strings.Builder
	b.WriteString("(")
	for i, v := range o {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(v.String())
	}
	b.WriteString(")")
	return b.String()
}

//endregion

//region VersionRange

// VersionRange is a closed range of version numbers.
type VersionRange struct {
	Min, Max int64
}

// Since returns the range of all versions starting at v.
func Since(v int64) VersionRange {
	return VersionRange{v, math.MaxInt64}
}

// Only returns the range consisting of version v.
func Only(v int64) VersionRange {
	return VersionRange{v, v}
}

// Contains reports whether v lies within r.
func (r VersionRange) Contains(v int64) bool {
	return r.Min <= v && v <= r.Max
}

func (r VersionRange) String() string {
	if r.Max == math.MaxInt64 {
		return strconv.FormatInt(r.Min, 10) + "..."
	}
	return strconv.FormatInt(r.Min, 10) + "..." + strconv.FormatInt(r.Max, 10)
}

//endregion
