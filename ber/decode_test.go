// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"bytes"
	"math/big"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"codello.dev/asn1schema"
	"codello.dev/asn1schema/tlv"
)

// nodeComparer compares nodes by their kind, tag and encoding.
var nodeComparer = cmp.Comparer(func(a, b Node) bool {
	return a.Kind == b.Kind && a.tag() == b.tag() && Equal(a, b)
})

func TestParse(t *testing.T) {
	tests := map[string]struct {
		data []byte
		want Node
	}{
		"Boolean":     {[]byte{0x01, 0x01, 0xff}, Bool(true)},
		"LaxBoolean":  {[]byte{0x01, 0x01, 0x01}, Bool(true)},
		"IntEmpty":    {[]byte{0x02, 0x00}, Int(0)},
		"IntZeroByte": {[]byte{0x02, 0x01, 0x00}, Int(0)},
		"IntNegative": {[]byte{0x02, 0x02, 0xff, 0x7f}, Int(-129)},
		"BitString":   {[]byte{0x03, 0x02, 0x05, 0xA7}, Bits(asn1schema.BitString{Bytes: []byte{0xA0}, BitLength: 3})},
		"OID":         {[]byte{0x06, 0x03, 0x81, 0x34, 0x03}, OID(2, 100, 3)},
		"RealNR1":     {[]byte{0x09, 0x04, 0x01, ' ', '4', '2'}, Real(decimal.NewFromInt(42))},
		"Printable":   {[]byte{0x13, 0x02, 'H', 'i'}, String(asn1schema.StringPrintable, "Hi")},
		"BMP":         {[]byte{0x1e, 0x02, 0x00, 0xe9}, String(asn1schema.StringBMP, "é")},
		"UTCTime":     {append([]byte{0x17, 0x0d}, "491231235959Z"...), Time(asn1schema.TimeUTC, time.Date(2049, 12, 31, 23, 59, 59, 0, time.UTC))},
		"Sequence":    {[]byte{0x30, 0x06, 0x01, 0x01, 0x00, 0x05, 0x00}, Sequence(Bool(false), Null())},
		"Enumerated":  {[]byte{0x0a, 0x01, 0x02}, Raw(asn1schema.Universal(asn1schema.TagEnumerated, false), []byte{0x02})},
		"Context":     {[]byte{0x81, 0x01, 0xff}, Raw(asn1schema.ContextSpecific(1, false), []byte{0xff})},
		"Explicit":    {[]byte{0xa1, 0x03, 0x01, 0x01, 0xff}, Tagged(asn1schema.ContextSpecific(1, true), Bool(true))},
		"OpaqueConstructed": {
			[]byte{0xa1, 0x02, 0xff, 0xff},
			Node{Kind: KindTagged, Tag: asn1schema.ContextSpecific(1, true), Bytes: []byte{0xff, 0xff}},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, rest, err := Parse(tc.data)
			if err != nil {
				t.Fatalf("Parse(% X) error = %v", tc.data, err)
			}
			if len(rest) != 0 {
				t.Errorf("Parse(% X) rest = % X, want none", tc.data, rest)
			}
			if diff := cmp.Diff(tc.want, got, nodeComparer); diff != "" {
				t.Errorf("Parse(% X) mismatch (-want +got):\n%s", tc.data, diff)
			}
		})
	}
}

func TestParse_Children(t *testing.T) {
	data := []byte{0xa1, 0x03, 0x01, 0x01, 0xff}
	got, _, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(got.Children) != 1 || got.Children[0].Kind != KindBoolean || !got.Children[0].Bool {
		t.Errorf("Parse() children = %v, want [BOOLEAN true]", got.Children)
	}
	if !bytes.Equal(got.Bytes, data[2:]) {
		t.Errorf("Parse() raw content = % X, want % X", got.Bytes, data[2:])
	}
}

func TestParse_TrailingBytes(t *testing.T) {
	buf := []byte{0x00, 0x02, 0x01, 0x05, 0xde, 0xad}
	got, rest, err := Parse(buf[1:4])
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.Int.Int64() != 5 {
		t.Errorf("Parse() = %v, want 5", got)
	}
	if len(rest) != 0 {
		t.Errorf("Parse() rest = % X, want none", rest)
	}
	_, rest, err = Parse(buf[1:])
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !bytes.Equal(rest, []byte{0xde, 0xad}) {
		t.Errorf("Parse() rest = % X, want DE AD", rest)
	}
}

func TestParse_OwnedCopies(t *testing.T) {
	data := []byte{0x04, 0x02, 0x01, 0x02}
	got, _, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	data[2] = 0xff
	if got.Bytes[0] != 0x01 {
		t.Errorf("Parse() result shares memory with its input")
	}
}

func TestParse_Error(t *testing.T) {
	var syntaxErr *SyntaxError
	var tlvErr *tlv.SyntaxError
	tests := map[string]struct {
		data   []byte
		target any
	}{
		"BooleanLength":      {[]byte{0x01, 0x02, 0xff, 0xff}, &syntaxErr},
		"IntNonMinimal":      {[]byte{0x02, 0x02, 0x00, 0x01}, &syntaxErr},
		"NullContent":        {[]byte{0x05, 0x01, 0x00}, &syntaxErr},
		"EmptyOID":           {[]byte{0x06, 0x00}, &syntaxErr},
		"TruncatedOID":       {[]byte{0x06, 0x02, 0x2a, 0x86}, &syntaxErr},
		"BadUTF8":            {[]byte{0x0c, 0x01, 0xff}, &syntaxErr},
		"BadTime":            {append([]byte{0x17, 0x0b}, "2301020304Q"...), &syntaxErr},
		"NoZone":             {append([]byte{0x18, 0x0e}, "20230102030405"...), &syntaxErr},
		"PrimitiveSequence":  {[]byte{0x10, 0x00}, &syntaxErr},
		"ConstructedInteger": {[]byte{0x22, 0x00}, &syntaxErr},
		"Indefinite":         {[]byte{0x30, 0x80, 0x00, 0x00}, &tlvErr},
		"Truncated":          {[]byte{0x30, 0x05, 0x02, 0x01}, &tlvErr},
		"NestedTruncated":    {[]byte{0x30, 0x02, 0x02, 0x01}, &tlvErr},
		"InfiniteReal":       {[]byte{0x09, 0x01, 0x40}, &syntaxErr},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := Parse(tc.data)
			if err == nil {
				t.Fatalf("Parse(% X) error = nil, want error", tc.data)
			}
			if !errors.As(err, tc.target) {
				t.Errorf("Parse(% X) error = %v (%T), want %T", tc.data, err, err, tc.target)
			}
		})
	}
}

func TestParser_StrictBooleans(t *testing.T) {
	p := Parser{StrictBooleans: true}
	if _, _, err := p.Parse([]byte{0x01, 0x01, 0x01}); err == nil {
		t.Errorf("Parse(01 01 01) error = nil, want error")
	}
	n, _, err := p.Parse([]byte{0x01, 0x01, 0xff})
	if err != nil || !n.Bool {
		t.Errorf("Parse(01 01 FF) = %v, %v, want true, nil", n, err)
	}
}

func TestParser_MaxDepth(t *testing.T) {
	data := []byte{0x30, 0x06, 0x30, 0x04, 0x30, 0x02, 0x30, 0x00}
	p := Parser{MaxDepth: 2}
	if _, _, err := p.Parse(data); err == nil {
		t.Errorf("Parse() error = nil, want depth error")
	}
	p.MaxDepth = 3
	if _, _, err := p.Parse(data); err != nil {
		t.Errorf("Parse() error = %v, want nil", err)
	}

	// Context-specific content that fails to parse is kept as bytes, but
	// excessive nesting is still reported.
	tagged := []byte{0xa0, 0x06, 0xa0, 0x04, 0xa0, 0x02, 0xa0, 0x00}
	p.MaxDepth = 2
	if _, _, err := p.Parse(tagged); !errors.Is(err, ErrMaxDepth) {
		t.Errorf("Parse() error = %v, want %v", err, ErrMaxDepth)
	}
}

func TestReinterpret(t *testing.T) {
	tests := map[string]struct {
		node    Node
		tag     asn1schema.Tag
		want    Node
		wantErr bool
	}{
		"ImplicitBoolean": {
			Raw(asn1schema.ContextSpecific(1, false), []byte{0xff}),
			asn1schema.Universal(asn1schema.TagBoolean, false),
			Bool(true), false,
		},
		"ImplicitSequence": {
			Node{Kind: KindTagged, Tag: asn1schema.ContextSpecific(0, true), Bytes: []byte{0x02, 0x01, 0x05}},
			asn1schema.Universal(asn1schema.TagSequence, true),
			Sequence(Int(5)), false,
		},
		"ContextRetag": {
			Tagged(asn1schema.ContextSpecific(1, true), Int(1)),
			asn1schema.ContextSpecific(7, true),
			Tagged(asn1schema.ContextSpecific(7, true), Int(1)), false,
		},
		"ConcreteRetag": {
			Octets([]byte{0x01}),
			asn1schema.Universal(asn1schema.TagInteger, false),
			Int(1), false,
		},
		"FormMismatch": {
			Raw(asn1schema.ContextSpecific(1, false), []byte{0xff}),
			asn1schema.Universal(asn1schema.TagSequence, true),
			Node{}, true,
		},
		"InvalidContent": {
			Raw(asn1schema.ContextSpecific(1, false), []byte{0xff, 0xff}),
			asn1schema.Universal(asn1schema.TagBoolean, false),
			Node{}, true,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Reinterpret(tc.node, tc.tag)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Reinterpret() error = %v, wantErr %t", err, tc.wantErr)
			}
			if err != nil {
				return
			}
			if diff := cmp.Diff(tc.want, got, nodeComparer); diff != "" {
				t.Errorf("Reinterpret() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNode_Value(t *testing.T) {
	n := Sequence(Int(7), String(asn1schema.StringIA5, "x"), Null())
	want := []any{big.NewInt(7), "x", asn1schema.Null{}}
	got := n.Value()
	if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b *big.Int) bool { return a.Cmp(b) == 0 })); diff != "" {
		t.Errorf("Value() mismatch (-want +got):\n%s", diff)
	}
}

func TestNode_String(t *testing.T) {
	tests := map[string]struct {
		node Node
		want string
	}{
		"Integer":  {Int(-3), "[UNIVERSAL 2] Integer -3"},
		"Sequence": {Sequence(Null()), "[UNIVERSAL 16]/c Sequence (1 elements)"},
		"String":   {String(asn1schema.StringIA5, "a"), `[UNIVERSAL 22] String IA5 "a"`},
		"Raw":      {Raw(asn1schema.ContextSpecific(2, false), []byte{0xab}), "[2] Tagged AB"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tc.node.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}
