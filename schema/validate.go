// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

// Validate checks s and all schemas nested in it. It reports the first problem
// found as an [*Error]. The result is computed once and cached.
//
// Besides the errors reported by [Schema.PossibleTags] the following problems
// are detected:
//
//   - a [Dynamic] schema that is not a field of a SEQUENCE with a preceding
//     [Type] field ([ErrNoDynamicTypeDefined]),
//   - a [Versioned] field without a preceding [Version] field
//     ([ErrNoVersionDefined]),
//   - duplicate field names, multiple type or version fields, options that do
//     not apply to a kind and defaults that do not match their schema
//     ([ErrInvalidSchema]).
func (s *Schema) Validate() error {
	s.validateOnce.Do(func() {
		s.validateErr = s.validate("", false)
	})
	return s.validateErr
}

func (s *Schema) validate(path string, typed bool) error {
	if _, err := s.PossibleTags(); err != nil {
		if e, ok := err.(*Error); ok && e.Path == "" {
			return &Error{Path: path, Err: e.Err}
		}
		return err
	}
	if s.size != nil {
		switch s.kind {
		case KindBitString, KindOctetString, KindString, KindSequenceOf, KindSetOf:
		default:
			return newError(path, ErrInvalidSchema, "size constraint on %v", s.kind)
		}
		if s.size.min < 0 || (s.size.max >= 0 && s.size.max < s.size.min) {
			return newError(path, ErrInvalidSchema, "invalid %v", *s.size)
		}
	}
	if s.allowed != nil && !s.kind.IsLeaf() {
		return newError(path, ErrInvalidSchema, "value constraint on %v", s.kind)
	}
	if s.def != nil {
		if !s.kind.IsLeaf() && s.kind != KindSequenceOf && s.kind != KindSetOf {
			return newError(path, ErrInvalidSchema, "default value on %v", s.kind)
		}
		if tags, _ := s.PossibleTags(); !tags.Contains(s.def.Tag) {
			return newError(path, ErrInvalidSchema, "default value %v does not match %v", *s.def, s)
		}
	}

	switch s.kind {
	case KindSequence:
		return s.validateFields(path)
	case KindSequenceOf, KindSetOf:
		return s.inner.validate(join(path, "[]"), false)
	case KindChoice:
		if len(s.alts) == 0 {
			return newError(path, ErrInvalidSchema, "CHOICE without alternatives")
		}
		for _, alt := range s.alts {
			if alt.kind == KindNothing || alt.kind == KindOptional {
				return newError(path, ErrInvalidSchema, "%v alternative in CHOICE", alt.kind)
			}
			if err := alt.validate(path, false); err != nil {
				return err
			}
		}
	case KindImplicit, KindExplicit, KindOptional, KindType, KindVersion, KindVersioned:
		return s.inner.validate(path, typed)
	case KindDynamic:
		if !typed {
			return newError(path, ErrNoDynamicTypeDefined, "")
		}
		for _, c := range s.cases {
			if err := c.Schema.validate(path, false); err != nil {
				return err
			}
		}
		if s.unknown != nil {
			return s.unknown.validate(path, false)
		}
	}
	return nil
}

func (s *Schema) validateFields(path string) error {
	names := make(map[string]struct{}, len(s.fields))
	var hasType, hasVersion bool
	for _, f := range s.fields {
		p := join(path, f.Name)
		if _, ok := names[f.Name]; ok {
			return newError(p, ErrInvalidSchema, "duplicate field name")
		}
		names[f.Name] = struct{}{}

		base, m := f.Schema.Unwrap()
		if m.Versioned != nil && !hasVersion {
			return newError(p, ErrNoVersionDefined, "")
		}
		if m.Version {
			if hasVersion {
				return newError(p, ErrInvalidSchema, "multiple version fields")
			}
			if m.Versioned != nil {
				return newError(p, ErrInvalidSchema, "versioned version field")
			}
			if k := leafKind(base); k != KindInteger {
				return newError(p, ErrInvalidSchema, "version field of kind %v", k)
			}
		}
		if m.Type && hasType {
			return newError(p, ErrInvalidSchema, "multiple type fields")
		}
		if err := f.Schema.validate(p, hasType && !m.Type); err != nil {
			return err
		}
		hasType = hasType || m.Type
		hasVersion = hasVersion || m.Version
	}
	return nil
}

// leafKind returns the kind of s after removing any tags.
func leafKind(s *Schema) Kind {
	for s.kind == KindImplicit || s.kind == KindExplicit {
		s = s.inner
	}
	return s.kind
}

func join(path, elem string) string {
	if path == "" {
		return elem
	}
	if elem == "[]" {
		return path + elem
	}
	return path + "." + elem
}
