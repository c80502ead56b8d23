// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package der

import (
	"strconv"
	"strings"

	"codello.dev/asn1schema/ber"
)

// SchemaState holds the discriminants of a single SEQUENCE. A new state is
// created for every SEQUENCE being encoded or decoded.
type SchemaState struct {
	version      int64
	hasVersion   bool
	discriminant ber.Node
	hasType      bool
}

// Version returns the value of the version field of the SEQUENCE, if it has
// been processed.
func (s *SchemaState) Version() (int64, bool) {
	if s == nil {
		return 0, false
	}
	return s.version, s.hasVersion
}

// Discriminant returns the value of the type field of the SEQUENCE in its
// natural form, if it has been processed.
func (s *SchemaState) Discriminant() (ber.Node, bool) {
	if s == nil {
		return ber.Node{}, false
	}
	return s.discriminant, s.hasType
}

func (s *SchemaState) setVersion(n ber.Node) error {
	if n.Kind != ber.KindInteger || n.Int == nil {
		return newErrorf(ErrTypeMismatch, "version must be an INTEGER, got %v", n.Kind)
	}
	if !n.Int.IsInt64() {
		return newErrorf(ErrValueOutOfRange, "version %v", n.Int)
	}
	s.version = n.Int.Int64()
	s.hasVersion = true
	return nil
}

func (s *SchemaState) setDiscriminant(n ber.Node) {
	s.discriminant = n.Natural()
	s.hasType = true
}

// path identifies a value within a tree of values.
type path []string

func (p path) field(name string) path {
	return append(p[:len(p):len(p)], name)
}

func (p path) index(i int) path {
	return append(p[:len(p):len(p)], "["+strconv.Itoa(i)+"]")
}

func (p path) String() string {
	var b strings.Builder
	for i, e := range p {
		if i > 0 && !strings.HasPrefix(e, "[") {
			b.WriteByte('.')
		}
		b.WriteString(e)
	}
	return b.String()
}
