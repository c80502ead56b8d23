// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package der

import (
	"bytes"
	"math"
	"math/big"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"

	"codello.dev/asn1schema"
	"codello.dev/asn1schema/ber"
	"codello.dev/asn1schema/schema"
)

//region Decoding

// decodeLeaf stores the natural node n in target. Integers, booleans and
// strings can also be decoded from the content of OCTET STRING and BIT STRING
// values.
func decodeLeaf(n ber.Node, target any) error {
	switch t := target.(type) {
	case *bool:
		return decodeBool(n, t)
	case *int:
		return decodeSigned(n, t)
	case *int8:
		return decodeSigned(n, t)
	case *int16:
		return decodeSigned(n, t)
	case *int32:
		return decodeSigned(n, t)
	case *int64:
		return decodeSigned(n, t)
	case *uint:
		return decodeUnsigned(n, t)
	case *uint8:
		return decodeUnsigned(n, t)
	case *uint16:
		return decodeUnsigned(n, t)
	case *uint32:
		return decodeUnsigned(n, t)
	case *uint64:
		return decodeUnsigned(n, t)
	case *big.Int:
		i, err := intValue(n)
		if err != nil {
			return err
		}
		t.Set(i)
		return nil
	case *BigUInt:
		i, err := intValue(n)
		if err != nil {
			return err
		}
		if i.Sign() < 0 {
			return newErrorf(ErrBadValue, "negative value %v for unsigned integer", i)
		}
		t.Set(i)
		return nil
	case *decimal.Decimal:
		d, err := decimalValue(n)
		if err != nil {
			return err
		}
		*t = d
		return nil
	case *float64:
		d, err := decimalValue(n)
		if err != nil {
			return err
		}
		*t = d.InexactFloat64()
		return nil
	case *string:
		return decodeString(n, t)
	case *[]byte:
		switch n.Kind {
		case ber.KindOctetString:
			*t = bytes.Clone(n.Bytes)
			return nil
		case ber.KindBitString:
			*t = bytes.Clone(n.Bits.Bytes)
			return nil
		case ber.KindString:
			*t = []byte(n.Str)
			return nil
		}
	case *asn1schema.BitString:
		switch n.Kind {
		case ber.KindBitString:
			*t = n.Bits
			return nil
		case ber.KindOctetString:
			*t = asn1schema.BitString{Bytes: bytes.Clone(n.Bytes), BitLength: 8 * len(n.Bytes)}
			return nil
		}
	case *asn1schema.ObjectIdentifier:
		if n.Kind == ber.KindObjectIdentifier {
			*t = append(asn1schema.ObjectIdentifier(nil), n.OID...)
			return nil
		}
	case *asn1schema.Null:
		if n.Kind == ber.KindNull {
			return nil
		}
	case *time.Time:
		if n.Kind == ber.KindTime {
			*t = n.Time
			return nil
		}
	default:
		return newErrorf(ErrTypeMismatch, "unsupported type %T", target)
	}
	return newErrorf(ErrTypeMismatch, "cannot decode %v into %T", n.Kind, target)
}

// content returns the content octets of an OCTET STRING or a BIT STRING
// consisting of whole octets.
func content(n ber.Node) ([]byte, bool) {
	switch n.Kind {
	case ber.KindOctetString:
		return n.Bytes, true
	case ber.KindBitString:
		return n.Bits.Bytes, n.Bits.BitLength%8 == 0
	}
	return nil, false
}

func intValue(n ber.Node) (*big.Int, error) {
	if n.Kind == ber.KindInteger {
		if n.Int == nil {
			return new(big.Int), nil
		}
		return n.Int, nil
	}
	b, ok := content(n)
	if !ok {
		return nil, newErrorf(ErrTypeMismatch, "cannot decode %v as integer", n.Kind)
	}
	i, err := ber.ParseInteger(b)
	if err != nil {
		return nil, corrupted(err)
	}
	return i, nil
}

func decodeSigned[T constraints.Signed](n ber.Node, t *T) error {
	i, err := intValue(n)
	if err != nil {
		return err
	}
	if !i.IsInt64() {
		return newErrorf(ErrValueOutOfRange, "%v overflows %T", i, *t)
	}
	x := i.Int64()
	if int64(T(x)) != x {
		return newErrorf(ErrValueOutOfRange, "%v overflows %T", i, *t)
	}
	*t = T(x)
	return nil
}

func decodeUnsigned[T constraints.Unsigned](n ber.Node, t *T) error {
	i, err := intValue(n)
	if err != nil {
		return err
	}
	if i.Sign() < 0 {
		return newErrorf(ErrBadValue, "negative value %v for %T", i, *t)
	}
	if !i.IsUint64() {
		return newErrorf(ErrValueOutOfRange, "%v overflows %T", i, *t)
	}
	x := i.Uint64()
	if uint64(T(x)) != x {
		return newErrorf(ErrValueOutOfRange, "%v overflows %T", i, *t)
	}
	*t = T(x)
	return nil
}

func decodeBool(n ber.Node, t *bool) error {
	if n.Kind == ber.KindBoolean {
		*t = n.Bool
		return nil
	}
	b, ok := content(n)
	if !ok {
		return newErrorf(ErrTypeMismatch, "cannot decode %v as boolean", n.Kind)
	}
	if len(b) != 1 {
		return newErrorf(ErrDataCorrupted, "invalid boolean length %d", len(b))
	}
	*t = b[0] != 0
	return nil
}

func decodeString(n ber.Node, t *string) error {
	if n.Kind == ber.KindString {
		*t = n.Str
		return nil
	}
	b, ok := content(n)
	if !ok {
		return newErrorf(ErrTypeMismatch, "cannot decode %v as string", n.Kind)
	}
	if !utf8.Valid(b) {
		return newErrorf(ErrDataCorrupted, "invalid UTF-8")
	}
	*t = string(b)
	return nil
}

func decimalValue(n ber.Node) (decimal.Decimal, error) {
	switch n.Kind {
	case ber.KindReal:
		return n.Real, nil
	case ber.KindInteger:
		i, _ := intValue(n)
		return decimal.NewFromBigInt(i, 0), nil
	}
	return decimal.Zero, newErrorf(ErrTypeMismatch, "cannot decode %v as decimal", n.Kind)
}

//endregion

//region Encoding

// encodeLeaf converts v into a node of the leaf schema s.
func encodeLeaf(s *schema.Schema, v any) (ber.Node, error) {
	if n, ok := v.(ber.Node); ok {
		n = n.Natural()
		if !kindMatches(s, n) {
			return n, newErrorf(ErrTypeMismatch, "cannot encode %v as %v", n.Kind, s.Kind())
		}
		return n, nil
	}
	switch s.Kind() {
	case schema.KindBoolean:
		if b, ok := v.(bool); ok {
			return ber.Bool(b), nil
		}
	case schema.KindInteger:
		i, ok, err := bigIntOf(v)
		if err != nil {
			return ber.Node{}, err
		}
		if ok {
			return ber.BigInt(i), nil
		}
	case schema.KindReal:
		switch x := v.(type) {
		case decimal.Decimal:
			return ber.Real(x), nil
		case float64:
			if math.IsInf(x, 0) || math.IsNaN(x) {
				return ber.Node{}, newErrorf(ErrBadValue, "cannot encode %v", x)
			}
			return ber.Real(decimal.NewFromFloat(x)), nil
		}
		i, ok, err := bigIntOf(v)
		if err != nil {
			return ber.Node{}, err
		}
		if ok {
			return ber.Real(decimal.NewFromBigInt(i, 0)), nil
		}
	case schema.KindNull:
		if _, ok := v.(asn1schema.Null); ok {
			return ber.Null(), nil
		}
	case schema.KindBitString:
		switch x := v.(type) {
		case asn1schema.BitString:
			if !x.IsValid() {
				return ber.Node{}, newErrorf(ErrBadValue, "invalid bit string")
			}
			return ber.Bits(x), nil
		case []byte:
			return ber.Bits(asn1schema.BitString{Bytes: x, BitLength: 8 * len(x)}), nil
		}
	case schema.KindOctetString:
		switch x := v.(type) {
		case []byte:
			return ber.Octets(x), nil
		case string:
			return ber.Octets([]byte(x)), nil
		}
	case schema.KindObjectIdentifier:
		if x, ok := v.(asn1schema.ObjectIdentifier); ok {
			if !x.IsValid() {
				return ber.Node{}, newErrorf(ErrBadValue, "invalid object identifier %v", x)
			}
			return ber.OID(x...), nil
		}
	case schema.KindString:
		if x, ok := v.(string); ok {
			if !s.StringKind().IsValid(x) {
				return ber.Node{}, newErrorf(ErrBadValue, "%q contains characters not allowed in %v", x, s)
			}
			return ber.String(s.StringKind(), x), nil
		}
	case schema.KindTime:
		if x, ok := v.(time.Time); ok {
			if y := x.UTC().Year(); s.TimeKind() == asn1schema.TimeUTC && (y < 1950 || y >= 2050) {
				return ber.Node{}, newErrorf(ErrValueOutOfRange, "year %d cannot be encoded as UTCTime", y)
			} else if y < 0 || y > 9999 {
				return ber.Node{}, newErrorf(ErrValueOutOfRange, "year %d cannot be encoded as GeneralizedTime", y)
			}
			return ber.Time(s.TimeKind(), x), nil
		}
	}
	return ber.Node{}, newErrorf(ErrTypeMismatch, "cannot encode %T as %v", v, s)
}

// bigIntOf converts Go integer types into a big integer. ok is false if v is
// not an integer type.
func bigIntOf(v any) (i *big.Int, ok bool, err error) {
	switch x := v.(type) {
	case int:
		return signed(x), true, nil
	case int8:
		return signed(x), true, nil
	case int16:
		return signed(x), true, nil
	case int32:
		return signed(x), true, nil
	case int64:
		return signed(x), true, nil
	case uint:
		return unsigned(x), true, nil
	case uint8:
		return unsigned(x), true, nil
	case uint16:
		return unsigned(x), true, nil
	case uint32:
		return unsigned(x), true, nil
	case uint64:
		return unsigned(x), true, nil
	case *big.Int:
		return x, true, nil
	case big.Int:
		return &x, true, nil
	case *BigUInt:
		return x.unsigned()
	case BigUInt:
		return x.unsigned()
	}
	return nil, false, nil
}

func signed[T constraints.Signed](x T) *big.Int {
	return big.NewInt(int64(x))
}

func unsigned[T constraints.Unsigned](x T) *big.Int {
	return new(big.Int).SetUint64(uint64(x))
}

// naturalNode converts a Go value into a node of its natural kind. It is used
// for values of [schema.Any].
func naturalNode(v any) (ber.Node, error) {
	switch x := v.(type) {
	case ber.Node:
		return x, nil
	case bool:
		return ber.Bool(x), nil
	case string:
		return ber.String(asn1schema.StringUTF8, x), nil
	case []byte:
		return ber.Octets(x), nil
	case decimal.Decimal:
		return ber.Real(x), nil
	case asn1schema.BitString:
		return ber.Bits(x), nil
	case asn1schema.ObjectIdentifier:
		return ber.OID(x...), nil
	case asn1schema.Null:
		return ber.Null(), nil
	case time.Time:
		return ber.Time(asn1schema.TimeGeneralized, x), nil
	}
	i, ok, err := bigIntOf(v)
	if err != nil {
		return ber.Node{}, err
	}
	if !ok {
		return ber.Node{}, newErrorf(ErrTypeMismatch, "cannot encode %T", v)
	}
	return ber.BigInt(i), nil
}

//endregion
