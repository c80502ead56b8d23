// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package der

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"codello.dev/asn1schema"
	"codello.dev/asn1schema/ber"
	"codello.dev/asn1schema/schema"
)

type marshalFunc func(e *Encoder) error

func (f marshalFunc) MarshalASN1(e *Encoder) error {
	return f(e)
}

func TestMarshal_Error(t *testing.T) {
	negative := new(BigUInt)
	negative.SetInt64(-1)

	tests := map[string]struct {
		schema *schema.Schema
		value  any
		want   error
		path   string
	}{
		"MissingField": {
			schema.Sequence(schema.F("a", schema.Integer())),
			map[string]any{}, ErrValueNotFound, "a",
		},
		"UnknownField": {
			schema.Sequence(schema.F("a", schema.Integer())),
			marshalFunc(func(e *Encoder) error { return e.Field("b", 1) }), ErrKeyNotFound, "b",
		},
		"UndeclaredKey": {
			schema.Sequence(schema.F("a", schema.Integer())),
			map[string]any{"a": 1, "typo": 2}, ErrKeyNotFound, "typo",
		},
		"UndeclaredNestedKey": {
			schema.Sequence(schema.F("inner", schema.Sequence(schema.F("a", schema.Integer())))),
			map[string]any{"inner": map[string]any{"a": 1, "b": nil}}, ErrKeyNotFound, "inner.b",
		},
		"AbsentVersion": {
			optionalVersionSchema,
			map[string]any{"v1": true}, ErrValueNotFound, "v1",
		},
		"MixedMethods": {
			schema.Sequence(schema.F("a", schema.Integer())),
			marshalFunc(func(e *Encoder) error {
				if err := e.Field("a", 1); err != nil {
					return err
				}
				return e.Value(map[string]any{"a": 1})
			}),
			ErrBadValue, "",
		},
		"NoValue": {
			schema.Integer(),
			marshalFunc(func(*Encoder) error { return nil }), ErrValueNotFound, "",
		},
		"Nil":             {schema.Integer(), nil, ErrValueNotFound, ""},
		"WrongGoType":     {schema.Integer(), "1", ErrTypeMismatch, ""},
		"SequenceFromInt": {schema.Sequence(schema.F("a", schema.Integer())), 1, ErrTypeMismatch, ""},
		"InvalidOID":      {schema.ObjectIdentifier(), asn1schema.ObjectIdentifier{3, 1}, ErrBadValue, ""},
		"InvalidBits":     {schema.BitString(), asn1schema.BitString{Bytes: []byte{1}, BitLength: 9}, ErrBadValue, ""},
		"NotPrintable":    {schema.String(asn1schema.StringPrintable), "a@b", ErrBadValue, ""},
		"UTCTimeRange": {
			schema.Time(asn1schema.TimeUTC),
			time.Date(2050, 1, 1, 0, 0, 0, 0, time.UTC), ErrValueOutOfRange, "",
		},
		"Infinity":       {schema.Real(), math.Inf(1), ErrBadValue, ""},
		"NegativeBigUInt": {schema.Integer(), negative, ErrBadValue, ""},
		"Disallowed": {
			schema.Integer(schema.WithAllowed(schema.IntRange(0, 1))),
			5, ErrDisallowedValue, "",
		},
		"OneOf": {
			schema.String(asn1schema.StringIA5, schema.WithAllowed(schema.OneOf(
				ber.String(asn1schema.StringIA5, "a"),
				ber.String(asn1schema.StringIA5, "b"),
			))),
			"c", ErrDisallowedValue, "",
		},
		"OctetStringSize": {
			schema.OctetString(schema.WithSize(schema.Exact(2))),
			[]byte{1}, ErrValueOutOfRange, "",
		},
		"NoAlternative": {
			schema.Choice(schema.Boolean(), schema.Integer()),
			"x", ErrTypeMismatch, "",
		},
		"AlternativeIndex": {
			schema.Choice(schema.Boolean(), schema.Integer()),
			Choice{Index: 2, Value: 1}, ErrBadValue, "",
		},
		"ElementPath": {
			schema.Sequence(schema.F("list", schema.SequenceOf(schema.Integer()))),
			map[string]any{"list": []any{1, "x"}}, ErrTypeMismatch, "list[1]",
		},
		"NodeTag": {
			schema.Sequence(schema.F("a", schema.Integer())),
			ber.Int(1), ErrTypeMismatch, "",
		},
		"NodeKind":  {schema.Boolean(), ber.Int(1), ErrTypeMismatch, ""},
		"NothingSet": {schema.Sequence(schema.F("a", schema.Nothing())), map[string]any{"a": 1}, ErrBadValue, "a"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Marshal(tc.schema, tc.value)
			require.ErrorIs(t, err, tc.want)
			var derErr *Error
			require.ErrorAs(t, err, &derErr)
			assert.Equal(t, "encode", derErr.Op)
			assert.Equal(t, tc.path, derErr.Path)
		})
	}
}

func TestMarshal_Absent(t *testing.T) {
	data, err := Marshal(schema.Optional(schema.Integer()), nil)
	require.NoError(t, err)
	assert.Nil(t, data)

	_, err = MarshalNode(schema.Optional(schema.Integer()), nil)
	assert.ErrorIs(t, err, ErrValueNotFound)

	n, err := MarshalNode(schema.Explicit(0, schema.Boolean()), true)
	require.NoError(t, err)
	assert.True(t, ber.Equal(ber.Tagged(asn1schema.ContextSpecific(0, true), ber.Bool(true)), n))
}

func TestMarshal_NilSlice(t *testing.T) {
	tests := map[string]struct {
		schema *schema.Schema
		value  any
		want   []byte
	}{
		"OptionalSequenceOf": {
			schema.Sequence(schema.F("a", schema.Optional(schema.SequenceOf(schema.Integer())))),
			map[string]any{"a": []int(nil)},
			[]byte{0x30, 0x00},
		},
		"OptionalOctetString": {
			schema.Sequence(schema.F("a", schema.Optional(schema.OctetString()))),
			map[string]any{"a": []byte(nil)},
			[]byte{0x30, 0x00},
		},
		"EmptySequenceOf": {
			schema.Sequence(schema.F("a", schema.Optional(schema.SequenceOf(schema.Integer())))),
			map[string]any{"a": []int{}},
			[]byte{0x30, 0x02, 0x30, 0x00},
		},
		"RequiredSequenceOf": {
			schema.Sequence(schema.F("a", schema.SequenceOf(schema.Integer()))),
			map[string]any{"a": []int(nil)},
			[]byte{0x30, 0x02, 0x30, 0x00},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Marshal(tc.schema, tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMarshal_InvalidSchema(t *testing.T) {
	s := schema.Sequence(
		schema.F("a", schema.Integer()),
		schema.F("a", schema.Boolean()),
	)
	_, err := Marshal(s, map[string]any{"a": 1})
	require.ErrorIs(t, err, schema.ErrInvalidSchema)
	var schemaErr *schema.Error
	assert.ErrorAs(t, err, &schemaErr)

	var v any
	err = Unmarshal([]byte{0x30, 0x00}, s, &v)
	assert.ErrorIs(t, err, schema.ErrInvalidSchema)
}

func TestMarshal_SortedSets(t *testing.T) {
	s := schema.SetOf(schema.Integer())
	values := []int{3, 1, 2}

	data, err := Marshal(s, values)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x31, 0x09, 0x02, 0x01, 0x03, 0x02, 0x01, 0x01, 0x02, 0x01, 0x02}, data)

	data, err = Marshal(s, values, WithSortedSets())
	require.NoError(t, err)
	assert.Equal(t, []byte{0x31, 0x09, 0x02, 0x01, 0x01, 0x02, 0x01, 0x02, 0x02, 0x01, 0x03}, data)
	assert.Equal(t, []int{3, 1, 2}, values)
}

func TestEncoder_Choose(t *testing.T) {
	s := schema.Choice(schema.Boolean(), schema.Integer())

	data, err := Marshal(s, marshalFunc(func(e *Encoder) error {
		return e.Choose(1, 5)
	}))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x01, 0x05}, data)

	_, err = Marshal(s, marshalFunc(func(e *Encoder) error {
		return e.Choose(-1, 5)
	}))
	assert.ErrorIs(t, err, ErrBadValue)

	_, err = Marshal(schema.Integer(), marshalFunc(func(e *Encoder) error {
		return e.Choose(0, 5)
	}))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestEncoder_Value(t *testing.T) {
	var gotPath string
	s := schema.Sequence(schema.F("n", schema.Explicit(0, schema.Integer())))
	data, err := Marshal(s, map[string]any{"n": marshalFunc(func(e *Encoder) error {
		gotPath = e.Path()
		assert.Equal(t, schema.KindInteger, e.Schema().Kind())
		return e.Value(42)
	})})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x30, 0x05, 0xa0, 0x03, 0x02, 0x01, 0x2a}, data)
	assert.Equal(t, "n", gotPath)
}

func TestMarshal_ExplicitChoice(t *testing.T) {
	s := schema.Explicit(1, schema.Choice(schema.Boolean(), schema.Integer()))
	data, err := Marshal(s, true)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xa1, 0x03, 0x01, 0x01, 0xff}, data)
}

func TestMarshal_ImplicitDefault(t *testing.T) {
	s := schema.Sequence(
		schema.F("flag", schema.Implicit(0, schema.Boolean(schema.WithDefault(ber.Bool(true))))),
		schema.F("n", schema.Integer()),
	)
	data, err := Marshal(s, map[string]any{"flag": true, "n": 1})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x30, 0x03, 0x02, 0x01, 0x01}, data)

	data, err = Marshal(s, map[string]any{"flag": false, "n": 1})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x30, 0x06, 0x80, 0x01, 0x00, 0x02, 0x01, 0x01}, data)

	var got map[string]any
	require.NoError(t, Unmarshal([]byte{0x30, 0x03, 0x02, 0x01, 0x01}, s, &got))
	assert.Equal(t, true, got["flag"])
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Marshal(pairSchema, pair{B: 1}, WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "omitted default value")
	assert.Contains(t, buf.String(), "path=a")

	buf.Reset()
	var got map[string]any
	require.NoError(t, Unmarshal([]byte{0x30, 0x06, 0x02, 0x01, 0x01, 0x02, 0x01, 0x05}, dynamicSchema, &got, WithLogger(logger)))
	assert.Contains(t, buf.String(), "resolved dynamic type")
	assert.Contains(t, buf.String(), "path=value")
}

func TestConcurrentUse(t *testing.T) {
	s := schema.Sequence(
		schema.F("version", schema.Version(schema.Integer())),
		schema.F("items", schema.Versioned(schema.Since(1), schema.SetOf(schema.String(asn1schema.StringUTF8)))),
	)
	g, _ := errgroup.WithContext(context.Background())
	for i := range 16 {
		g.Go(func() error {
			data, err := Marshal(s, map[string]any{"version": i % 2, "items": []string{"b", "a"}}, WithSortedSets())
			if err != nil {
				if i%2 == 0 && assert.ErrorIs(t, err, ErrBadValue) {
					return nil
				}
				return err
			}
			var got map[string]any
			if err := Unmarshal(data, s, &got); err != nil {
				return err
			}
			assert.Equal(t, []any{"a", "b"}, got["items"])
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
