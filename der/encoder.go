// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package der

import (
	"bytes"
	"maps"
	"reflect"
	"slices"

	"github.com/cockroachdb/errors"

	"codello.dev/asn1schema"
	"codello.dev/asn1schema/ber"
	"codello.dev/asn1schema/schema"
)

// Marshaler is implemented by types that can encode themselves according to a
// schema. MarshalASN1 uses the methods of e matching the kind of the schema:
// [Encoder.Field] for a SEQUENCE, [Encoder.Append] for a SEQUENCE OF or SET OF,
// [Encoder.Choose] for a CHOICE and [Encoder.Value] for any schema.
type Marshaler interface {
	MarshalASN1(e *Encoder) error
}

type encoderMode uint8

const (
	modeNone encoderMode = iota
	modeKeyed
	modeSequential
	modeChoice
	modeValue
)

// An Encoder collects the parts of a value from a [Marshaler]. The parts are
// encoded after MarshalASN1 returns. An Encoder is only valid during the call
// to MarshalASN1.
type Encoder struct {
	schema *schema.Schema
	path   path
	mode   encoderMode

	fields   map[string]any
	elems    []any
	alt      int
	altValue any
	value    any
}

// Path returns the location of the value being encoded.
func (e *Encoder) Path() string {
	return e.path.String()
}

// Schema returns the schema of the value being encoded without any tags or
// field markers.
func (e *Encoder) Schema() *schema.Schema {
	return e.schema
}

func (e *Encoder) setMode(m encoderMode) error {
	if e.mode != modeNone && e.mode != m {
		return &Error{Op: "encode", Path: e.Path(), Err: newErrorf(ErrBadValue, "mixed use of encoder methods")}
	}
	e.mode = m
	return nil
}

// Field sets the value of the field name of a SEQUENCE. A nil value marks the
// field as absent.
func (e *Encoder) Field(name string, v any) error {
	if e.schema.Kind() != schema.KindSequence {
		return &Error{Op: "encode", Path: e.Path(), Err: newErrorf(ErrTypeMismatch, "%v has no fields", e.schema.Kind())}
	}
	if !slices.ContainsFunc(e.schema.Fields(), func(f schema.Field) bool { return f.Name == name }) {
		return &Error{Op: "encode", Path: e.path.field(name).String(), Err: ErrKeyNotFound}
	}
	if err := e.setMode(modeKeyed); err != nil {
		return err
	}
	if e.fields == nil {
		e.fields = make(map[string]any, len(e.schema.Fields()))
	}
	e.fields[name] = v
	return nil
}

// Append adds an element to a SEQUENCE OF or SET OF.
func (e *Encoder) Append(v any) error {
	if k := e.schema.Kind(); k != schema.KindSequenceOf && k != schema.KindSetOf {
		return &Error{Op: "encode", Path: e.Path(), Err: newErrorf(ErrTypeMismatch, "%v has no elements", k)}
	}
	if err := e.setMode(modeSequential); err != nil {
		return err
	}
	e.elems = append(e.elems, v)
	return nil
}

// Choose selects the alternative i of a CHOICE with value v.
func (e *Encoder) Choose(i int, v any) error {
	if e.schema.Kind() != schema.KindChoice {
		return &Error{Op: "encode", Path: e.Path(), Err: newErrorf(ErrTypeMismatch, "%v is not a CHOICE", e.schema.Kind())}
	}
	if i < 0 || i >= len(e.schema.Alternatives()) {
		return &Error{Op: "encode", Path: e.Path(), Err: newErrorf(ErrBadValue, "no alternative %d", i)}
	}
	if err := e.setMode(modeChoice); err != nil {
		return err
	}
	e.alt, e.altValue = i, v
	return nil
}

// Value sets v as the value to be encoded in place of the [Marshaler]. v must
// not be the Marshaler that is currently being encoded.
func (e *Encoder) Value(v any) error {
	if err := e.setMode(modeValue); err != nil {
		return err
	}
	e.value = v
	return nil
}

// encoder converts Go values into nodes according to a schema.
type encoder struct {
	opts *options
}

func (e *encoder) errorf(p path, sentinel error, format string, args ...any) error {
	return &Error{Op: "encode", Path: p.String(), Err: newErrorf(sentinel, format, args...)}
}

// encode converts v into a node according to s. st is the state of the
// enclosing SEQUENCE, if any. ok is false if the value is absent.
func (e *encoder) encode(s *schema.Schema, v any, st *SchemaState, p path, depth int) (n ber.Node, ok bool, err error) {
	if depth > e.opts.maxDepth {
		return n, false, e.errorf(p, ErrBadValue, "maximum nesting depth exceeded")
	}
	switch s.Kind() {
	case schema.KindOptional:
		if isAbsent(v) {
			return n, false, nil
		}
		return e.encode(s.Inner(), v, st, p, depth)
	case schema.KindType, schema.KindVersion, schema.KindVersioned:
		return e.encode(s.Inner(), v, st, p, depth)
	case schema.KindImplicit:
		if n, ok, err = e.encode(s.Inner(), v, st, p, depth); err != nil || !ok {
			return n, ok, err
		}
		return n.WithTag(asn1schema.ContextSpecific(s.TagNumber(), false)), true, nil
	case schema.KindExplicit:
		if n, ok, err = e.encode(s.Inner(), v, st, p, depth+1); err != nil || !ok {
			return n, ok, err
		}
		return ber.Tagged(asn1schema.ContextSpecific(s.TagNumber(), true), n), true, nil
	case schema.KindNothing:
		if !isAbsent(v) {
			return n, false, e.errorf(p, ErrBadValue, "unexpected value of type %T", v)
		}
		return n, false, nil
	case schema.KindDynamic:
		target := dynamicTarget(s, st)
		if target == nil {
			d, _ := st.Discriminant()
			return n, false, &schema.Error{Path: p.String(), Err: errors.Wrapf(schema.ErrUnknownDynamicValue, "type %v", d)}
		}
		e.opts.logger.Debug("resolved dynamic type",
			"path", p.String(),
			"schema", target.String(),
		)
		return e.encode(target, v, st, p, depth)
	}

	if isNil(v) {
		return n, false, e.errorf(p, ErrValueNotFound, "no value for %v", s)
	}
	if m, ok := v.(Marshaler); ok {
		return e.marshal(s, m, st, p, depth)
	}
	if node, ok := v.(ber.Node); ok && !s.Kind().IsLeaf() && s.Kind() != schema.KindChoice {
		tags, _ := s.PossibleTags()
		if tags != nil && !tags.Contains(tagOf(node)) {
			return n, false, e.errorf(p, ErrTypeMismatch, "unexpected tag %v, expected one of %v", tagOf(node), tags)
		}
		return node, true, nil
	}

	switch s.Kind() {
	case schema.KindSequence:
		fields, ok := v.(map[string]any)
		if !ok {
			return n, false, e.errorf(p, ErrTypeMismatch, "cannot encode %T as SEQUENCE", v)
		}
		return e.encodeSequence(s, fields, p, depth)
	case schema.KindSequenceOf, schema.KindSetOf:
		elems, ok := elementsOf(v)
		if !ok {
			return n, false, e.errorf(p, ErrTypeMismatch, "cannot encode %T as %v", v, s.Kind())
		}
		return e.encodeCollection(s, elems, p, depth)
	case schema.KindChoice:
		if c, ok := v.(Choice); ok {
			return e.encodeAlternative(s, c.Index, c.Value, p, depth)
		}
		for i, alt := range s.Alternatives() {
			if n, ok, err = e.encode(alt, v, nil, p, depth+1); err == nil {
				e.opts.logger.Debug("selected alternative",
					"path", p.String(),
					"type", reflect.TypeOf(v).String(),
					"index", i,
				)
				return n, ok, nil
			}
		}
		return n, false, e.errorf(p, ErrTypeMismatch, "no alternative accepts %T", v)
	case schema.KindAny:
		if n, err = naturalNode(v); err != nil {
			return n, false, &Error{Op: "encode", Path: p.String(), Err: err}
		}
		return n, true, nil
	}

	if n, err = encodeLeaf(s, v); err == nil {
		err = checkConstraints(s, n)
	}
	if err != nil {
		return n, false, &Error{Op: "encode", Path: p.String(), Err: err}
	}
	return n, true, nil
}

// marshal encodes the parts collected from m.
func (e *encoder) marshal(s *schema.Schema, m Marshaler, st *SchemaState, p path, depth int) (ber.Node, bool, error) {
	enc := &Encoder{schema: s, path: p}
	if err := m.MarshalASN1(enc); err != nil {
		return ber.Node{}, false, wrapError("encode", p, err)
	}
	switch enc.mode {
	case modeValue:
		return e.encode(s, enc.value, st, p, depth+1)
	case modeChoice:
		return e.encodeAlternative(s, enc.alt, enc.altValue, p, depth)
	}
	switch s.Kind() {
	case schema.KindSequence:
		return e.encodeSequence(s, enc.fields, p, depth)
	case schema.KindSequenceOf, schema.KindSetOf:
		return e.encodeCollection(s, enc.elems, p, depth)
	}
	return ber.Node{}, false, e.errorf(p, ErrValueNotFound, "%T provided no value for %v", m, s)
}

func (e *encoder) encodeAlternative(s *schema.Schema, i int, v any, p path, depth int) (ber.Node, bool, error) {
	if s.Kind() != schema.KindChoice {
		return ber.Node{}, false, e.errorf(p, ErrTypeMismatch, "%v is not a CHOICE", s.Kind())
	}
	if i < 0 || i >= len(s.Alternatives()) {
		return ber.Node{}, false, e.errorf(p, ErrBadValue, "no alternative %d", i)
	}
	return e.encode(s.Alternatives()[i], v, nil, p, depth+1)
}

func (e *encoder) encodeSequence(s *schema.Schema, values map[string]any, p path, depth int) (ber.Node, bool, error) {
	fields := s.Fields()
	for _, k := range slices.Sorted(maps.Keys(values)) {
		if !slices.ContainsFunc(fields, func(f schema.Field) bool { return f.Name == k }) {
			return ber.Node{}, false, e.errorf(p.field(k), ErrKeyNotFound, "SEQUENCE has no field %q", k)
		}
	}
	st := &SchemaState{}
	nodes := make([]ber.Node, len(fields))
	present := make([]bool, len(fields))
	done := make([]bool, len(fields))

	// Discriminants are encoded first. The version may decide whether the
	// type field is present.
	encodeField := func(i int) error {
		f := fields[i]
		fp := p.field(f.Name)
		base, m := f.Schema.Unwrap()
		v := values[f.Name]
		done[i] = true

		if m.Versioned != nil {
			ver, ok := st.Version()
			if !ok {
				return e.errorf(fp, ErrValueNotFound, "no version for versioned field %q", f.Name)
			}
			if !m.Versioned.Contains(ver) {
				if !isAbsent(v) {
					return e.errorf(fp, ErrBadValue, "field is not defined in version %d", ver)
				}
				e.opts.logger.Debug("field absent in version",
					"path", fp.String(),
					"version", ver,
				)
				return nil
			}
		}

		def, hasDefault := f.Schema.Default()
		var n ber.Node
		var ok bool
		if isNil(v) {
			switch {
			case hasDefault:
				n, ok = def, false
			case m.Optional, base.Kind() == schema.KindNothing:
				return nil
			case base.Kind() == schema.KindDynamic:
				if t := dynamicTarget(base, st); t == nil || t.Kind() == schema.KindNothing || t.Kind() == schema.KindOptional {
					return nil
				}
				return e.errorf(fp, ErrValueNotFound, "missing field %q", f.Name)
			default:
				return e.errorf(fp, ErrValueNotFound, "missing field %q", f.Name)
			}
		} else {
			var err error
			if n, ok, err = e.encode(f.Schema, v, st, fp, depth+1); err != nil {
				return err
			}
			if !ok && !hasDefault {
				return nil
			}
			if !ok {
				n = def
			}
		}

		if m.Version {
			if err := st.setVersion(unwrapExplicit(n)); err != nil {
				return &Error{Op: "encode", Path: fp.String(), Err: err}
			}
		}
		if m.Type {
			st.setDiscriminant(unwrapExplicit(n))
		}
		if ok && hasDefault && ber.Equal(n, def) {
			e.opts.logger.Debug("omitted default value", "path", fp.String())
			ok = false
		}
		nodes[i], present[i] = n, ok
		return nil
	}

	for _, marker := range []func(schema.Modifiers) bool{
		func(m schema.Modifiers) bool { return m.Version },
		func(m schema.Modifiers) bool { return m.Type },
		func(schema.Modifiers) bool { return true },
	} {
		for i, f := range fields {
			if _, m := f.Schema.Unwrap(); !done[i] && marker(m) {
				if err := encodeField(i); err != nil {
					return ber.Node{}, false, err
				}
			}
		}
	}

	children := make([]ber.Node, 0, len(fields))
	for i := range fields {
		if present[i] {
			children = append(children, nodes[i])
		}
	}
	return ber.Sequence(children...), true, nil
}

func (e *encoder) encodeCollection(s *schema.Schema, elems []any, p path, depth int) (ber.Node, bool, error) {
	if size, ok := s.Size(); ok && !size.Contains(len(elems)) {
		return ber.Node{}, false, e.errorf(p, ErrValueOutOfRange, "%d elements violate %v", len(elems), size)
	}
	nodes := make([]ber.Node, len(elems))
	for i, v := range elems {
		n, ok, err := e.encode(s.Inner(), v, nil, p.index(i), depth+1)
		if err != nil {
			return ber.Node{}, false, err
		}
		if !ok {
			return ber.Node{}, false, e.errorf(p.index(i), ErrValueNotFound, "no value for element")
		}
		nodes[i] = n
	}
	if s.Kind() == schema.KindSequenceOf {
		return ber.Sequence(nodes...), true, nil
	}
	if e.opts.sortSets {
		if err := sortByEncoding(nodes); err != nil {
			return ber.Node{}, false, &Error{Op: "encode", Path: p.String(), Err: newErrorf(ErrBadValue, "%v", err)}
		}
	}
	return ber.Set(nodes...), true, nil
}

// sortByEncoding sorts nodes by their DER encoding.
func sortByEncoding(nodes []ber.Node) error {
	type encoded struct {
		node ber.Node
		der  []byte
	}
	es := make([]encoded, len(nodes))
	for i, n := range nodes {
		b, err := ber.Marshal(n)
		if err != nil {
			return err
		}
		es[i] = encoded{n, b}
	}
	slices.SortStableFunc(es, func(a, b encoded) int {
		return bytes.Compare(a.der, b.der)
	})
	for i := range es {
		nodes[i] = es[i].node
	}
	return nil
}

// unwrapExplicit removes explicit tags from an encoded node.
func unwrapExplicit(n ber.Node) ber.Node {
	for n.Kind == ber.KindTagged && n.Bytes == nil && len(n.Children) == 1 {
		n = n.Children[0]
	}
	return n.Natural()
}

// elementsOf returns the elements of a slice or array.
func elementsOf(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	s := make([]any, rv.Len())
	for i := range s {
		s[i] = rv.Index(i).Interface()
	}
	return s, true
}

// isNil reports whether v is nil or a nil pointer or map.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// isAbsent is like isNil but also treats nil slices as absent. A nil slice
// given for a required value encodes as empty.
func isAbsent(v any) bool {
	if isNil(v) {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Slice && rv.IsNil()
}
