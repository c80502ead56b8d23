// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codello.dev/asn1schema"
	"codello.dev/asn1schema/ber"
)

func TestSchema_Validate(t *testing.T) {
	tests := map[string]*Schema{
		"Leaf":       Integer(WithAllowed(IntRange(0, 10)), WithDefault(ber.Int(3))),
		"SizedOf":    SequenceOf(Boolean(), WithSize(Max(3))),
		"SizedBits":  BitString(WithSize(Exact(8))),
		"SizedIA5":   String(asn1schema.StringIA5, WithSize(Range(1, 64))),
		"AnyInField": Sequence(F("a", Any()), F("b", Optional(Any()))),
		"Versioned": Sequence(
			F("version", Version(Integer(WithAllowed(IntRange(1, 2))))),
			F("v1", Versioned(Only(1), Boolean())),
			F("v2", Versioned(Only(2), Integer())),
		),
		"Dynamic": Sequence(
			F("type", Type(ObjectIdentifier())),
			F("value", Explicit(0, Dynamic(Nothing(),
				Case(ber.OID(1, 2, 3), Integer()),
				Case(ber.OID(1, 2, 4), Boolean()),
			))),
		),
		"ImplicitVersion": Sequence(
			F("version", Version(Explicit(0, Integer(WithDefault(ber.Int(0)))))),
			F("extra", Versioned(Since(2), Optional(Implicit(1, Boolean())))),
		),
		"Nested": SequenceOf(Sequence(F("a", Choice(Boolean(), Explicit(0, Any()))))),
	}
	for name, s := range tests {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, s.Validate())
		})
	}
}

func TestSchema_Validate_Error(t *testing.T) {
	tests := map[string]struct {
		schema *Schema
		want   error
		path   string
	}{
		"AmbiguousField": {
			Sequence(F("a", Boolean()), F("b", Implicit(1, Choice(Boolean(), Integer())))),
			ErrAmbiguousImplicitTag, "b",
		},
		"NoVersion": {
			Sequence(F("a", Versioned(Only(1), Boolean()))),
			ErrNoVersionDefined, "a",
		},
		"VersionAfterVersioned": {
			Sequence(F("a", Versioned(Only(1), Boolean())), F("v", Version(Integer()))),
			ErrNoVersionDefined, "a",
		},
		"NoType": {
			Sequence(F("a", Integer()), F("b", Dynamic(nil))),
			ErrNoDynamicTypeDefined, "b",
		},
		"TypeAfterDynamic": {
			Sequence(F("b", Dynamic(nil)), F("t", Type(Integer()))),
			ErrNoDynamicTypeDefined, "b",
		},
		"TopLevelDynamic": {
			Dynamic(Any()),
			ErrNoDynamicTypeDefined, "",
		},
		"DynamicInSequenceOf": {
			Sequence(F("t", Type(Integer())), F("list", SequenceOf(Dynamic(nil)))),
			ErrNoDynamicTypeDefined, "list[]",
		},
		"DuplicateTag": {
			Sequence(F("inner", Sequence(F("c", Choice(Boolean(), Boolean()))))),
			ErrDuplicateTag, "inner.c",
		},
		"DuplicateName": {
			Sequence(F("a", Boolean()), F("a", Integer())),
			ErrInvalidSchema, "a",
		},
		"VersionNotInteger": {
			Sequence(F("v", Version(Boolean()))),
			ErrInvalidSchema, "v",
		},
		"MultipleTypes": {
			Sequence(F("t1", Type(Integer())), F("t2", Type(Integer()))),
			ErrInvalidSchema, "t2",
		},
		"SizeOnInteger": {
			Integer(WithSize(Max(2))),
			ErrInvalidSchema, "",
		},
		"InvalidSize": {
			OctetString(WithSize(Range(4, 2))),
			ErrInvalidSchema, "",
		},
		"AllowedOnSequence": {
			Sequence(F("a", SequenceOf(Integer(WithAllowed(IntRange(0, 1))), WithAllowed(IntRange(0, 1))))),
			ErrInvalidSchema, "a",
		},
		"DefaultKindMismatch": {
			Boolean(WithDefault(ber.Int(1))),
			ErrInvalidSchema, "",
		},
		"EmptyChoice": {
			Choice(),
			ErrInvalidSchema, "",
		},
		"OptionalAlternative": {
			Choice(Optional(Boolean()), Integer()),
			ErrInvalidSchema, "",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := tc.schema.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			var schemaErr *Error
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, tc.path, schemaErr.Path)
		})
	}
}

func TestSchema_Validate_Cached(t *testing.T) {
	s := Sequence(F("a", Versioned(Only(1), Boolean())))
	err1 := s.Validate()
	err2 := s.Validate()
	require.Error(t, err1)
	assert.Same(t, err1, err2)
}
