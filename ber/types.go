// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"math/big"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"codello.dev/asn1schema"
	"codello.dev/asn1schema/internal/vlq"
)

var (
	bigOne  = big.NewInt(1)
	bigFive = big.NewInt(5)
)

//region [UNIVERSAL 1] BOOLEAN

func parseBoolean(content []byte, strict bool) (bool, error) {
	if len(content) != 1 {
		return false, errors.New("invalid BOOLEAN length")
	}
	if strict && content[0] != 0x00 && content[0] != 0xff {
		return false, errors.Newf("non-canonical BOOLEAN content %#02x", content[0])
	}
	return content[0] != 0x00, nil
}

func appendBoolean(b []byte, v bool) []byte {
	if v {
		return append(b, 0xff)
	}
	return append(b, 0x00)
}

//endregion

//region [UNIVERSAL 2] INTEGER

// appendInteger appends the minimal two's complement encoding of x. Zero is
// encoded as an empty content region.
func appendInteger(b []byte, x *big.Int) []byte {
	if x == nil || x.Sign() == 0 {
		return b
	}
	if x.Sign() > 0 {
		bs := x.Bytes()
		if bs[0]&0x80 != 0 {
			// We'll have to pad this with 0x00 in order to stop it
			// looking like a negative number.
			b = append(b, 0x00)
		}
		return append(b, bs...)
	}
	// A negative number has to be converted to two's-complement form. So we'll
	// invert and subtract 1. If the most-significant-bit isn't set then we'll
	// need to pad the beginning with 0xff in order to keep the number negative.
	nMinus1 := new(big.Int).Neg(x)
	nMinus1.Sub(nMinus1, bigOne)
	bs := nMinus1.Bytes()
	for i := range bs {
		bs[i] ^= 0xff
	}
	if len(bs) == 0 || bs[0]&0x80 == 0 {
		b = append(b, 0xff)
	}
	return append(b, bs...)
}

// ParseInteger decodes big-endian two's complement content octets. An empty
// content region decodes to zero. If the content is not minimally encoded an
// error is returned.
func ParseInteger(content []byte) (*big.Int, error) {
	i := new(big.Int)
	if len(content) == 0 {
		return i, nil
	}
	if len(content) > 1 && ((content[0] == 0x00 && content[1]&0x80 == 0x00) || (content[0] == 0xFF && content[1]&0x80 == 0x80)) {
		return nil, errors.New("integer not minimally-encoded")
	}
	if content[0]&0x80 == 0x80 {
		// negative integer, calculate 2s complement
		bs := make([]byte, len(content))
		for j := range content {
			bs[j] = ^content[j]
		}
		i.SetBytes(bs)
		i.Add(i, bigOne)
		return i.Neg(i), nil
	}
	return i.SetBytes(content), nil
}

//endregion

//region [UNIVERSAL 3] BIT STRING

func appendBitString(b []byte, s asn1schema.BitString) ([]byte, error) {
	if !s.IsValid() {
		return b, errors.New("bit length does not match number of bytes")
	}
	padding := byte((8 - s.BitLength%8) % 8)
	b = append(b, padding)
	if len(s.Bytes) == 0 {
		return b, nil
	}
	b = append(b, s.Bytes[:len(s.Bytes)-1]...)
	// zero out any padding bits
	return append(b, s.Bytes[len(s.Bytes)-1]&^byte(1<<padding-1)), nil
}

func parseBitString(content []byte) (asn1schema.BitString, error) {
	if len(content) == 0 {
		return asn1schema.BitString{}, errors.New("zero length BIT STRING")
	}
	padding := content[0]
	if padding > 7 || len(content) == 1 && padding > 0 {
		return asn1schema.BitString{}, errors.New("invalid padding bits in BIT STRING")
	}
	bs := asn1schema.BitString{
		Bytes:     append([]byte(nil), content[1:]...),
		BitLength: (len(content)-1)*8 - int(padding),
	}
	if len(bs.Bytes) > 0 {
		// zero out padding bits
		bs.Bytes[len(bs.Bytes)-1] &= ^byte(1<<padding - 1)
	}
	return bs, nil
}

//endregion

//region [UNIVERSAL 6] OBJECT IDENTIFIER

// appendOID appends the encoding of oid. The first two components of the OID
// are encoded into a single component. Subsequent components use a
// variable-length base128 encoding.
func appendOID(b []byte, oid asn1schema.ObjectIdentifier) ([]byte, error) {
	if !oid.IsValid() {
		return b, errors.Newf("invalid object identifier %s", oid)
	}
	b = vlq.Append(b, oid[0]*40+oid[1])
	for _, v := range oid[2:] {
		b = vlq.Append(b, v)
	}
	return b, nil
}

func parseOID(content []byte) (asn1schema.ObjectIdentifier, error) {
	if len(content) == 0 {
		return nil, errors.New("zero length OBJECT IDENTIFIER")
	}

	// The first varint is 40*value1 + value2:
	// According to this packing, value1 can take the values 0, 1 and 2 only.
	// When value1 = 0 or value1 = 1, then value2 is <= 39. When value1 = 2,
	// then there are no restrictions on value2.
	v, n, err := vlq.Decode[uint](content)
	if err != nil {
		return nil, err
	}
	content = content[n:]

	// In the worst case, we get two elements from the first byte (which is
	// encoded differently) and then every varint is a single byte long.
	s := make(asn1schema.ObjectIdentifier, 2, len(content)+2)
	if v < 80 {
		s[0] = v / 40
		s[1] = v % 40
	} else {
		s[0] = 2
		s[1] = v - 80
	}
	for len(content) > 0 {
		if v, n, err = vlq.Decode[uint](content); err != nil {
			return nil, err
		}
		s = append(s, v)
		content = content[n:]
	}
	return s, nil
}

//endregion

//region [UNIVERSAL 9] REAL

// Decimal number representations as defined in ISO 6093.
const (
	realNR1 = 0x01
	realNR2 = 0x02
	realNR3 = 0x03
)

// appendReal appends the decimal encoding of d. Zero is encoded as an empty
// content region. Other values use the NR3 form octet followed by the
// decimal digits of d including a decimal mark.
func appendReal(b []byte, d decimal.Decimal) []byte {
	if d.IsZero() {
		return b
	}
	b = append(b, realNR3)
	s := d.String()
	b = append(b, s...)
	if !strings.ContainsRune(s, '.') {
		b = append(b, ".0"...)
	}
	return b
}

func parseReal(content []byte) (decimal.Decimal, error) {
	if len(content) == 0 {
		return decimal.Zero, nil
	}
	b := content[0]
	switch {
	case b&0x80 != 0:
		return parseBinaryReal(b, content[1:])
	case b&0xC0 == 0x40:
		if len(content) != 1 {
			return decimal.Zero, errors.New("invalid special REAL value")
		}
		switch b {
		case 0x43: // minus zero
			return decimal.Zero, nil
		case 0x40, 0x41, 0x42:
			return decimal.Zero, errors.New("infinite and NaN REAL values are not supported")
		}
		return decimal.Zero, errors.New("invalid special REAL value")
	}
	nr := b & 0x3F
	if nr < realNR1 || nr > realNR3 {
		return decimal.Zero, errors.New("invalid decimal number representation")
	}
	s := strings.TrimLeft(string(content[1:]), " ")
	if !validateDecimalReal(s, nr) {
		return decimal.Zero, errors.Newf("invalid NR%d value %q", nr, s)
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "invalid decimal REAL")
	}
	return d, nil
}

// validateDecimalReal reports whether s is a valid number in the ISO 6093
// representation nr. Leading spaces must already have been removed.
func validateDecimalReal(s string, nr byte) bool {
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	digits := func(s string) (int, string) {
		i := 0
		for i < len(s) && '0' <= s[i] && s[i] <= '9' {
			i++
		}
		return i, s[i:]
	}
	n, s := digits(s)
	if nr == realNR1 {
		return n > 0 && s == ""
	}
	m := 0
	if len(s) > 0 && (s[0] == '.' || s[0] == ',') {
		m, s = digits(s[1:])
	} else if nr == realNR2 || n == 0 {
		return false
	}
	if n+m == 0 {
		return false
	}
	if nr == realNR2 {
		return s == ""
	}
	if len(s) == 0 || (s[0] != 'E' && s[0] != 'e') {
		// NR3 values must carry an exponent, but values written in the
		// NR2 form are accepted as well.
		return s == ""
	}
	s = s[1:]
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	n, s = digits(s)
	return n > 0 && s == ""
}

// parseBinaryReal parses the binary encoding of a REAL value. b is the first
// content octet, content the remaining octets. The value is converted exactly
// into a decimal.
//
// See Section 8.5 of Rec. ITU-T X.690, in particular Section 8.5.7.
func parseBinaryReal(b byte, content []byte) (decimal.Decimal, error) {
	negative := b&0x40 != 0 // bit 7 of b
	base := (b & 0x30) >> 4 // bit 6 and 5 of b
	// we keep the binary code of the base for simpler computations later on
	if base > 2 {
		return decimal.Zero, errors.New("invalid base")
	}
	f := int64(b&0x0C) >> 2 // bit 4 and 3 of b
	es := int(1 + (b & 0x03))
	if es >= 4 {
		if len(content) == 0 || content[0] == 0 {
			return decimal.Zero, errors.New("invalid exponent size")
		}
		es = int(content[0])
		content = content[1:]
	}
	if es > 4 {
		return decimal.Zero, errors.New("exponent too large")
	}
	if len(content) < es {
		return decimal.Zero, errors.New("truncated exponent")
	}
	var e int64
	for i, c := range content[:es] {
		e = e<<8 | int64(c)
		if i == 1 && (e&0xFF80 == 0xFF80 || e&0xFF80 == 0x0000) {
			return decimal.Zero, errors.New("non-minimal exponent")
		}
	}
	// Shift up and down in order to sign extend the exponent.
	e <<= 64 - es*8
	e >>= 64 - es*8
	content = content[es:]

	m := new(big.Int).SetBytes(content)
	if m.Sign() == 0 {
		return decimal.Zero, errors.New("zero mantissa")
	}
	// Scale the exponent to base 2 and apply the correction factor.
	e = e<<base + e*int64(base&0b01)
	e += f
	if e > 4096 || e < -4096 {
		return decimal.Zero, errors.New("exponent too large")
	}
	if negative {
		m.Neg(m)
	}
	if e >= 0 {
		return decimal.NewFromBigInt(m.Lsh(m, uint(e)), 0), nil
	}
	// m * 2^e = m * 5^-e * 10^e
	m.Mul(m, new(big.Int).Exp(bigFive, big.NewInt(-e), nil))
	return decimal.NewFromBigInt(m, int32(e)), nil
}

//endregion

//region Character Strings

func appendString(b []byte, kind asn1schema.StringKind, s string) ([]byte, error) {
	if !kind.IsValid(s) {
		return b, errors.Newf("%s contains invalid characters", kind)
	}
	switch kind {
	case asn1schema.StringUniversal:
		for _, r := range s {
			b = append(b, byte(r>>24), byte(r>>16), byte(r>>8), byte(r))
		}
		return b, nil
	case asn1schema.StringBMP:
		for _, r := range s {
			b = append(b, byte(r>>8), byte(r))
		}
		return b, nil
	}
	return append(b, s...), nil
}

func parseString(content []byte, kind asn1schema.StringKind) (string, error) {
	switch kind {
	case asn1schema.StringUniversal:
		// UTF-32
		if len(content)%4 != 0 {
			return "", errors.New("length of UniversalString is no multiple of 4")
		}
		var sb strings.Builder
		sb.Grow(len(content) / 4)
		for i := 0; i < len(content); i += 4 {
			x := rune(content[i])<<24 | rune(content[i+1])<<16 | rune(content[i+2])<<8 | rune(content[i+3])
			if !utf8.ValidRune(x) {
				return "", errors.New("UniversalString contains invalid characters")
			}
			sb.WriteRune(x)
		}
		return sb.String(), nil
	case asn1schema.StringBMP:
		// UTF-16 restricted to the Basic Multilingual Plane
		if len(content)%2 != 0 {
			return "", errors.New("length of BMPString is no multiple of 2")
		}
		u := make([]uint16, len(content)/2)
		for i := range u {
			u[i] = uint16(content[2*i])<<8 | uint16(content[2*i+1])
			if utf16.IsSurrogate(rune(u[i])) {
				return "", errors.New("BMPString contains surrogate code points")
			}
		}
		return string(utf16.Decode(u)), nil
	}
	s := string(content)
	if !kind.IsValid(s) {
		return "", errors.Newf("%s contains invalid characters", kind)
	}
	return s, nil
}

//endregion

//region [UNIVERSAL 23] UTCTime and [UNIVERSAL 24] GeneralizedTime

// appendTime appends the string representation of t. UTCTime uses the format
// YYMMDDhhmmss[.f]Z, GeneralizedTime uses YYYYMMDDhhmmss[.f]Z. Fractional
// seconds are written without trailing zeros and only if they are non-zero.
func appendTime(b []byte, kind asn1schema.TimeKind, t time.Time) ([]byte, error) {
	t = t.UTC()
	year := t.Year()
	if kind == asn1schema.TimeUTC {
		if year < 1950 || year >= 2050 {
			return b, errors.Newf("cannot represent year %d as UTCTime", year)
		}
		b = append(b, itoaN(year%100, 2)...)
	} else {
		if year < 0 || year > 9999 {
			return b, errors.Newf("cannot represent year %d as GeneralizedTime", year)
		}
		b = append(b, itoaN(year, 4)...)
	}
	b = append(b, itoaN(int(t.Month()), 2)...)
	b = append(b, itoaN(t.Day(), 2)...)
	b = append(b, itoaN(t.Hour(), 2)...)
	b = append(b, itoaN(t.Minute(), 2)...)
	b = append(b, itoaN(t.Second(), 2)...)
	if ns := t.Nanosecond(); ns > 0 {
		b = append(b, '.')
		b = append(b, strings.TrimRight(itoaN(ns, 9), "0")...)
	}
	return append(b, 'Z'), nil
}

// itoaN returns the base 10 string representation of the absolute value of i,
// truncated or zero padded to exactly n digits.
func itoaN[T ~int](i T, n int) string {
	if i < 0 {
		i = -i
	}
	bs := make([]byte, n)
	for ; n > 0; n-- {
		bs[n-1] = '0' + byte(i%10)
		i /= 10
	}
	return unsafe.String(unsafe.SliceData(bs), len(bs))
}

// atoiN parses exactly n decimal digits at the start of s. If s does not start
// with n digits, -1 is returned.
func atoiN[T ~int | ~int64](s string, n int) (i T) {
	if len(s) < n {
		return -1
	}
	for j := 0; j < n; j++ {
		if s[j] < '0' || '9' < s[j] {
			return -1
		}
		i = i*10 + T(s[j]-'0')
	}
	return i
}

// parseTime parses the content of a UTCTime or GeneralizedTime value. Both
// forms require a trailing Z. UTCTime values use a two-digit year where years
// up to 49 are mapped to 20YY and all others to 19YY.
func parseTime(content []byte, kind asn1schema.TimeKind) (time.Time, error) {
	s := string(content)
	var year int
	if kind == asn1schema.TimeUTC {
		// UTCTime only encodes times prior to 2050. See https://tools.ietf.org/html/rfc5280#section-4.1.2.5.1
		if year = atoiN[int](s, 2); year < 0 {
			return time.Time{}, errors.New("invalid UTCTime")
		} else if year <= 49 {
			year += 2000
		} else {
			year += 1900
		}
		s = s[2:]
	} else {
		if year = atoiN[int](s, 4); year < 0 {
			return time.Time{}, errors.New("invalid GeneralizedTime")
		}
		s = s[4:]
	}
	if len(s) < 6 {
		return time.Time{}, errors.Newf("invalid %s", kind)
	}
	month := atoiN[int](s, 2)
	day := atoiN[int](s[2:], 2)
	if month < 1 || day < 1 {
		return time.Time{}, errors.Newf("invalid %s date", kind)
	}
	hour := atoiN[time.Duration](s[4:], 2)
	if hour < 0 || 23 < hour {
		return time.Time{}, errors.Newf("invalid %s hour", kind)
	}
	s = s[6:]
	dur := hour * time.Hour
	unit := time.Hour // unit for fractional time
	if minute := atoiN[time.Duration](s, 2); minute >= 0 {
		if minute > 59 {
			return time.Time{}, errors.Newf("invalid %s minute", kind)
		}
		dur += minute * time.Minute
		unit = time.Minute
		s = s[2:]
	} else if kind == asn1schema.TimeUTC {
		return time.Time{}, errors.New("invalid UTCTime minute")
	}
	if second := atoiN[time.Duration](s, 2); second >= 0 {
		if second > 59 {
			return time.Time{}, errors.Newf("invalid %s second", kind)
		}
		dur += second * time.Second
		unit = time.Second
		s = s[2:]
	}
	if len(s) > 0 && (s[0] == '.' || s[0] == ',') {
		i := 1
		for ; i < len(s); i++ {
			if s[i] < '0' || '9' < s[i] {
				break
			}
			unit /= 10
			dur += time.Duration(s[i]-'0') * unit
		}
		if i == 1 {
			return time.Time{}, errors.Newf("invalid %s fraction", kind)
		}
		s = s[i:]
	}
	if s != "Z" {
		return time.Time{}, errors.Newf("invalid %s time zone %q", kind, s)
	}
	ret := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if ret.Year() != year || ret.Month() != time.Month(month) || ret.Day() != day {
		return time.Time{}, errors.Newf("invalid %s date", kind)
	}
	return ret.Add(dur), nil
}

//endregion
