// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package der

import (
	"unicode/utf8"

	"codello.dev/asn1schema"
	"codello.dev/asn1schema/ber"
	"codello.dev/asn1schema/schema"
)

// value is a node that has been resolved against a schema.
type value struct {
	schema *schema.Schema // without tags and field markers
	tag    asn1schema.Tag // tag of the outermost encoding
	node   ber.Node       // natural form for leaves, as encoded otherwise
	path   path

	fields []fieldValue  // KindSequence
	state  *SchemaState  // KindSequence
	elems  []*value      // KindSequenceOf, KindSetOf
	alt    int           // KindChoice
	chosen *value        // KindChoice
}

type fieldValue struct {
	name  string
	value *value // nil if absent
}

// leaf returns the node of the alternative chosen by v.
func (v *value) leaf() ber.Node {
	for v.schema.Kind() == schema.KindChoice {
		v = v.chosen
	}
	return v.node
}

// resolver resolves parsed nodes against a schema.
type resolver struct {
	opts   *options
	parser *ber.Parser
}

func (r *resolver) errorf(p path, sentinel error, format string, args ...any) error {
	return &Error{Op: "decode", Path: p.String(), Err: newErrorf(sentinel, format, args...)}
}

// resolve resolves n against s. st is the state of the enclosing SEQUENCE, if
// any.
func (r *resolver) resolve(s *schema.Schema, n ber.Node, st *SchemaState, p path, depth int) (*value, error) {
	if depth > r.opts.maxDepth {
		return nil, r.errorf(p, ErrDataCorrupted, "maximum nesting depth exceeded")
	}
	if n.Tag == (asn1schema.Tag{}) {
		n = n.Natural()
	}
	tags, err := s.PossibleTags()
	if err != nil {
		return nil, err
	}
	if tags != nil && !tags.Contains(n.Tag) {
		return nil, r.errorf(p, ErrTypeMismatch, "unexpected tag %v, expected one of %v", n.Tag, tags)
	}

	switch s.Kind() {
	case schema.KindOptional, schema.KindType, schema.KindVersion, schema.KindVersioned:
		return r.resolve(s.Inner(), n, st, p, depth)
	case schema.KindImplicit:
		innerTags, err := s.Inner().PossibleTags()
		if err != nil {
			return nil, err
		}
		rn, err := r.parser.Reinterpret(n, innerTags[0])
		if err != nil {
			return nil, &Error{Op: "decode", Path: p.String(), Err: corrupted(err)}
		}
		v, err := r.resolve(s.Inner(), rn, st, p, depth)
		if err != nil {
			return nil, err
		}
		v.tag = n.Tag
		return v, nil
	case schema.KindExplicit:
		children, err := r.explicitChildren(n)
		if err != nil {
			return nil, r.errorf(p, ErrBadValue, "explicitly tagged content: %v", err)
		}
		if len(children) != 1 {
			return nil, r.errorf(p, ErrBadValue, "explicitly tagged value contains %d elements", len(children))
		}
		v, err := r.resolve(s.Inner(), children[0], st, p, depth+1)
		if err != nil {
			return nil, err
		}
		v.tag = n.Tag
		return v, nil
	case schema.KindChoice:
		return r.resolveChoice(s, n, st, p, depth)
	case schema.KindDynamic:
		target := dynamicTarget(s, st)
		if target == nil || target.Kind() == schema.KindNothing {
			d, _ := st.Discriminant()
			return nil, r.errorf(p, ErrBadValue, "unexpected value for type %v", d)
		}
		r.opts.logger.Debug("resolved dynamic type",
			"path", p.String(),
			"schema", target.String(),
		)
		return r.resolve(target, n, st, p, depth)
	case schema.KindSequence:
		return r.resolveSequence(s, n, p, depth)
	case schema.KindSequenceOf, schema.KindSetOf:
		v := &value{schema: s, tag: n.Tag, node: n, path: p, elems: make([]*value, len(n.Children))}
		for i, c := range n.Children {
			ev, err := r.resolve(s.Inner(), c, nil, p.index(i), depth+1)
			if err != nil {
				return nil, err
			}
			v.elems[i] = ev
		}
		if size, ok := s.Size(); ok && !size.Contains(len(v.elems)) {
			return nil, r.errorf(p, ErrValueOutOfRange, "%d elements violate %v", len(v.elems), size)
		}
		return v, nil
	case schema.KindAny:
		return &value{schema: s, tag: n.Tag, node: n, path: p}, nil
	case schema.KindNothing:
		return nil, r.errorf(p, ErrTypeMismatch, "unexpected value %v", n.Tag)
	}

	if !kindMatches(s, n) {
		return nil, r.errorf(p, ErrTypeMismatch, "cannot decode %v as %v", n.Kind, s.Kind())
	}
	if err := checkConstraints(s, n); err != nil {
		return nil, &Error{Op: "decode", Path: p.String(), Err: err}
	}
	return &value{schema: s, tag: n.Tag, node: n, path: p}, nil
}

// explicitChildren returns the values nested in the explicitly tagged node n.
// The content of n is parsed if the parser could not split it into TLVs.
func (r *resolver) explicitChildren(n ber.Node) ([]ber.Node, error) {
	if n.Children != nil || n.Bytes == nil {
		return n.Children, nil
	}
	var children []ber.Node
	for rest := n.Bytes; len(rest) > 0; {
		c, r2, err := r.parser.Parse(rest)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
		rest = r2
	}
	return children, nil
}

func (r *resolver) resolveChoice(s *schema.Schema, n ber.Node, st *SchemaState, p path, depth int) (*value, error) {
	idx := -1
	for i, alt := range s.Alternatives() {
		tags, _ := alt.PossibleTags()
		if tags.Contains(n.Tag) {
			idx = i
			break
		}
		if tags == nil && idx < 0 {
			idx = i
		}
	}
	if idx < 0 {
		return nil, r.errorf(p, ErrTypeMismatch, "no alternative matches %v", n.Tag)
	}
	r.opts.logger.Debug("selected alternative",
		"path", p.String(),
		"tag", n.Tag.String(),
		"index", idx,
	)
	cv, err := r.resolve(s.Alternatives()[idx], n, st, p, depth)
	if err != nil {
		return nil, err
	}
	return &value{schema: s, tag: n.Tag, node: n, path: p, alt: idx, chosen: cv}, nil
}

func (r *resolver) resolveSequence(s *schema.Schema, n ber.Node, p path, depth int) (*value, error) {
	st := &SchemaState{}
	v := &value{schema: s, tag: n.Tag, node: n, path: p, state: st, fields: make([]fieldValue, 0, len(s.Fields()))}
	children := n.Children
	for _, f := range s.Fields() {
		fp := p.field(f.Name)
		base, m := f.Schema.Unwrap()
		if m.Versioned != nil {
			ver, ok := st.Version()
			if !ok {
				return nil, r.errorf(fp, ErrValueNotFound, "no version for versioned field %q", f.Name)
			}
			if !m.Versioned.Contains(ver) {
				r.opts.logger.Debug("field absent in version",
					"path", fp.String(),
					"version", ver,
				)
				v.fields = append(v.fields, fieldValue{name: f.Name})
				continue
			}
		}
		tags, skip, optional, err := fieldTags(base, st)
		if err != nil {
			return nil, err
		}
		optional = optional || m.Optional

		var fv *value
		switch {
		case !skip && len(children) > 0 && (tags == nil || tags.Contains(tagOf(children[0]))):
			if fv, err = r.resolve(f.Schema, children[0], st, fp, depth+1); err != nil {
				return nil, err
			}
			children = children[1:]
		case skip:
			r.opts.logger.Debug("dynamic field absent", "path", fp.String())
		default:
			if d, ok := f.Schema.Default(); ok {
				r.opts.logger.Debug("substituted default", "path", fp.String())
				if fv, err = r.resolve(f.Schema, d, st, fp, depth+1); err != nil {
					return nil, err
				}
			} else if optional {
				r.opts.logger.Debug("optional field absent", "path", fp.String())
			} else {
				return nil, r.errorf(fp, ErrKeyNotFound, "missing field %q", f.Name)
			}
		}

		if fv != nil && m.Version {
			if err := st.setVersion(fv.leaf()); err != nil {
				return nil, &Error{Op: "decode", Path: fp.String(), Err: err}
			}
		}
		if fv != nil && m.Type {
			st.setDiscriminant(fv.leaf())
		}
		v.fields = append(v.fields, fieldValue{name: f.Name, value: fv})
	}
	if len(children) > 0 {
		return nil, r.errorf(p, ErrTypeMismatch, "unexpected %v after last field", tagOf(children[0]))
	}
	return v, nil
}

// fieldTags returns the tags that indicate the presence of a field with the
// given base schema. skip is true if the field cannot be present at all.
// optional reports whether a dynamic field resolved to an optional schema.
func fieldTags(base *schema.Schema, st *SchemaState) (tags schema.TagSet, skip, optional bool, err error) {
	switch base.Kind() {
	case schema.KindNothing:
		return nil, true, false, nil
	case schema.KindDynamic:
		target := dynamicTarget(base, st)
		if target == nil || target.Kind() == schema.KindNothing {
			return nil, true, false, nil
		}
		tags, err = target.PossibleTags()
		return tags, false, target.Kind() == schema.KindOptional, err
	}
	tags, err = base.PossibleTags()
	return tags, false, false, err
}

// dynamicTarget returns the schema selected by a dynamic schema s in state st.
// If st has no discriminant, the unknown schema of s is used.
func dynamicTarget(s *schema.Schema, st *SchemaState) *schema.Schema {
	d, ok := st.Discriminant()
	if !ok {
		return s.Unknown()
	}
	return s.Resolve(d)
}

// kindMatches reports whether n has the kind expected by the leaf schema s.
func kindMatches(s *schema.Schema, n ber.Node) bool {
	switch s.Kind() {
	case schema.KindBoolean:
		return n.Kind == ber.KindBoolean
	case schema.KindInteger:
		return n.Kind == ber.KindInteger
	case schema.KindReal:
		return n.Kind == ber.KindReal
	case schema.KindNull:
		return n.Kind == ber.KindNull
	case schema.KindBitString:
		return n.Kind == ber.KindBitString
	case schema.KindOctetString:
		return n.Kind == ber.KindOctetString
	case schema.KindObjectIdentifier:
		return n.Kind == ber.KindObjectIdentifier
	case schema.KindString:
		return n.Kind == ber.KindString && n.StringKind == s.StringKind()
	case schema.KindTime:
		return n.Kind == ber.KindTime && n.TimeKind == s.TimeKind()
	}
	return false
}

// checkConstraints validates the natural node n against the size and value
// constraints of the leaf schema s.
func checkConstraints(s *schema.Schema, n ber.Node) error {
	if size, ok := s.Size(); ok {
		var l int
		switch n.Kind {
		case ber.KindBitString:
			l = n.Bits.BitLength
		case ber.KindOctetString:
			l = len(n.Bytes)
		case ber.KindString:
			l = utf8.RuneCountInString(n.Str)
		}
		if !size.Contains(l) {
			return newErrorf(ErrValueOutOfRange, "size %d violates %v", l, size)
		}
	}
	if c := s.Allowed(); c != nil && !c.Allows(n) {
		return newErrorf(ErrDisallowedValue, "%v not in %v", n, c)
	}
	return nil
}

func tagOf(n ber.Node) asn1schema.Tag {
	if n.Tag == (asn1schema.Tag{}) {
		return n.NaturalTag()
	}
	return n.Tag
}
