// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package der

import (
	"codello.dev/asn1schema"
	"codello.dev/asn1schema/ber"
	"codello.dev/asn1schema/schema"
)

// Unmarshaler is implemented by types that can decode themselves from a value
// resolved against a schema. UnmarshalASN1 uses the methods of d matching the
// kind of the schema: [Decoder.Field] for a SEQUENCE, [Decoder.Next] for a
// SEQUENCE OF or SET OF, [Decoder.Alternative] for a CHOICE and
// [Decoder.Value] for any other schema.
type Unmarshaler interface {
	UnmarshalASN1(d *Decoder) error
}

// A Decoder gives an [Unmarshaler] access to a value that has been resolved
// against a schema. All constraints of the schema have been validated when the
// Decoder is created. A Decoder is only valid during the call to
// UnmarshalASN1.
type Decoder struct {
	v    *value
	next int
}

// Path returns the location of the value being decoded.
func (d *Decoder) Path() string {
	return d.v.path.String()
}

// Tag returns the tag the value was encoded with.
func (d *Decoder) Tag() asn1schema.Tag {
	return d.v.tag
}

// Node returns the value being decoded. For leaf values the node is returned
// in its natural form.
func (d *Decoder) Node() ber.Node {
	return d.v.node
}

// Schema returns the schema of the value being decoded without any tags or
// field markers.
func (d *Decoder) Schema() *schema.Schema {
	return d.v.schema
}

// State returns the discriminants of the SEQUENCE being decoded. It returns
// nil for other kinds of values.
func (d *Decoder) State() *SchemaState {
	return d.v.state
}

//region Keyed

func (d *Decoder) lookup(name string) (v *value, declared bool) {
	for _, f := range d.v.fields {
		if f.name == name {
			return f.value, true
		}
	}
	return nil, false
}

// Keys returns the names of the fields of a SEQUENCE that are present,
// including fields whose default value has been substituted.
func (d *Decoder) Keys() []string {
	keys := make([]string, 0, len(d.v.fields))
	for _, f := range d.v.fields {
		if f.value != nil {
			keys = append(keys, f.name)
		}
	}
	return keys
}

// Contains reports whether the SEQUENCE being decoded has a value for the
// field name.
func (d *Decoder) Contains(name string) bool {
	v, _ := d.lookup(name)
	return v != nil
}

// Field decodes the field name of a SEQUENCE into v. If the field is absent an
// error wrapping [ErrValueNotFound] is returned. Use [Decoder.FieldIfPresent]
// for optional fields.
func (d *Decoder) Field(name string, v any) error {
	ok, err := d.FieldIfPresent(name, v)
	if err == nil && !ok {
		err = &Error{Op: "decode", Path: d.v.path.field(name).String(), Err: ErrValueNotFound}
	}
	return err
}

// FieldIfPresent decodes the field name of a SEQUENCE into v if it is present.
// v is left unchanged if the field is absent.
func (d *Decoder) FieldIfPresent(name string, v any) (bool, error) {
	if d.v.schema.Kind() != schema.KindSequence {
		return false, &Error{Op: "decode", Path: d.Path(), Err: newErrorf(ErrTypeMismatch, "%v has no fields", d.v.schema.Kind())}
	}
	fv, declared := d.lookup(name)
	if !declared {
		return false, &Error{Op: "decode", Path: d.v.path.field(name).String(), Err: ErrKeyNotFound}
	}
	if fv == nil {
		return false, nil
	}
	return true, decodeValue(fv, v)
}

//endregion

//region Sequential

// Len returns the number of elements of a SEQUENCE OF or SET OF, or the number
// of present fields of a SEQUENCE.
func (d *Decoder) Len() int {
	if d.v.schema.Kind() == schema.KindSequence {
		return len(d.Keys())
	}
	return len(d.v.elems)
}

// More reports whether there are elements left that have not been decoded by
// [Decoder.Next].
func (d *Decoder) More() bool {
	return d.next < len(d.v.elems)
}

// Next decodes the next element of a SEQUENCE OF or SET OF into v.
func (d *Decoder) Next(v any) error {
	if !d.More() {
		return &Error{Op: "decode", Path: d.v.path.index(d.next).String(), Err: ErrValueNotFound}
	}
	ev := d.v.elems[d.next]
	d.next++
	return decodeValue(ev, v)
}

//endregion

// Alternative returns the index of the alternative of a CHOICE or -1 if the
// schema is not a CHOICE.
func (d *Decoder) Alternative() int {
	if d.v.schema.Kind() != schema.KindChoice {
		return -1
	}
	return d.v.alt
}

// Value decodes the value into v. For a CHOICE the chosen alternative is
// decoded. v must not be the [Unmarshaler] that is currently being decoded.
func (d *Decoder) Value(v any) error {
	return decodeValue(d.v, v)
}

// decodeValue stores v in target.
func decodeValue(v *value, target any) error {
	if v == nil {
		return &Error{Op: "decode", Err: ErrValueNotFound}
	}
	if u, ok := target.(Unmarshaler); ok {
		return wrapError("decode", v.path, u.UnmarshalASN1(&Decoder{v: v}))
	}
	switch t := target.(type) {
	case *any:
		*t = natural(v)
		return nil
	case *ber.Node:
		*t = v.node
		return nil
	case *Choice:
		if v.schema.Kind() != schema.KindChoice {
			return &Error{Op: "decode", Path: v.path.String(), Err: newErrorf(ErrTypeMismatch, "%v is not a CHOICE", v.schema.Kind())}
		}
		*t = Choice{Index: v.alt, Value: natural(v.chosen)}
		return nil
	case *map[string]any:
		if v.schema.Kind() == schema.KindSequence {
			*t = natural(v).(map[string]any)
			return nil
		}
	case *[]any:
		if k := v.schema.Kind(); k == schema.KindSequenceOf || k == schema.KindSetOf {
			*t = natural(v).([]any)
			return nil
		}
	}

	switch v.schema.Kind() {
	case schema.KindChoice:
		return decodeValue(v.chosen, target)
	case schema.KindSequence, schema.KindSequenceOf, schema.KindSetOf:
		return &Error{Op: "decode", Path: v.path.String(), Err: newErrorf(ErrTypeMismatch, "cannot decode %v into %T", v.schema.Kind(), target)}
	}
	if err := decodeLeaf(v.node, target); err != nil {
		return &Error{Op: "decode", Path: v.path.String(), Err: err}
	}
	return nil
}

// natural returns the natural Go representation of v: map[string]any for a
// SEQUENCE, []any for collections and the natural value of the node for
// leaves.
func natural(v *value) any {
	if v == nil {
		return nil
	}
	switch v.schema.Kind() {
	case schema.KindSequence:
		m := make(map[string]any, len(v.fields))
		for _, f := range v.fields {
			if f.value != nil {
				m[f.name] = natural(f.value)
			}
		}
		return m
	case schema.KindSequenceOf, schema.KindSetOf:
		s := make([]any, len(v.elems))
		for i, e := range v.elems {
			s[i] = natural(e)
		}
		return s
	case schema.KindChoice:
		return natural(v.chosen)
	}
	return v.node.Value()
}
