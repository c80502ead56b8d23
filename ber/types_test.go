// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"codello.dev/asn1schema"
)

func TestParseInteger(t *testing.T) {
	tests := map[string]struct {
		data    []byte
		want    int64
		wantErr bool
	}{
		"Empty":           {[]byte{}, 0, false},
		"Zero":            {[]byte{0x00}, 0, false},
		"One":             {[]byte{0x01}, 1, false},
		"Padded":          {[]byte{0x00, 0x80}, 128, false},
		"MinusOne":        {[]byte{0xff}, -1, false},
		"Min16":           {[]byte{0x80, 0x00}, -32768, false},
		"LeadingZero":     {[]byte{0x00, 0x7f}, 0, true},
		"LeadingOnes":     {[]byte{0xff, 0x80}, 0, true},
		"LongLeadingZero": {[]byte{0x00, 0x00, 0x01}, 0, true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseInteger(tc.data)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseInteger(% X) error = %v, wantErr %t", tc.data, err, tc.wantErr)
			}
			if err == nil && got.Cmp(big.NewInt(tc.want)) != 0 {
				t.Errorf("ParseInteger(% X) = %v, want %d", tc.data, got, tc.want)
			}
		})
	}
}

func TestParseReal(t *testing.T) {
	tests := map[string]struct {
		data    []byte
		want    string
		wantErr bool
	}{
		"Zero":          {[]byte{}, "0", false},
		"MinusZero":     {[]byte{0x43}, "0", false},
		"NR1":           {[]byte{0x01, '-', '1', '7'}, "-17", false},
		"NR1Spaces":     {[]byte{0x01, ' ', ' ', '3'}, "3", false},
		"NR2":           {[]byte{0x02, '1', '2', '.', '5'}, "12.5", false},
		"NR2Comma":      {[]byte{0x02, '0', ',', '2', '5'}, "0.25", false},
		"NR2Leading":    {[]byte{0x02, '.', '5'}, "0.5", false},
		"NR3":           {[]byte{0x03, '1', '.', '5', 'E', '2'}, "150", false},
		"NR3Negative":   {[]byte{0x03, '2', '5', '.', 'E', '-', '1'}, "2.5", false},
		"BinaryInt":     {[]byte{0x80, 0x00, 0x03}, "3", false},
		"BinaryHalf":    {[]byte{0x80, 0xff, 0x03}, "1.5", false},
		"BinaryNeg":     {[]byte{0xC0, 0x01, 0x01}, "-2", false},
		"BinaryBase8":   {[]byte{0x90, 0x01, 0x01}, "8", false},
		"BinaryScaled":  {[]byte{0x84, 0x00, 0x01}, "2", false},
		"Infinity":      {[]byte{0x40}, "", true},
		"NegInfinity":   {[]byte{0x41}, "", true},
		"NaN":           {[]byte{0x42}, "", true},
		"SpecialLength": {[]byte{0x43, 0x00}, "", true},
		"NR1Fraction":   {[]byte{0x01, '1', '.', '5'}, "", true},
		"NR2Exponent":   {[]byte{0x02, '1', '.', '5', 'E', '1'}, "", true},
		"NR3NoDigits":   {[]byte{0x03, '.', 'E', '1'}, "", true},
		"BadForm":       {[]byte{0x04, '1'}, "", true},
		"ZeroMantissa":  {[]byte{0x80, 0x00}, "", true},
		"BadBase":       {[]byte{0xB0, 0x00, 0x01}, "", true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := parseReal(tc.data)
			if (err != nil) != tc.wantErr {
				t.Fatalf("parseReal(% X) error = %v, wantErr %t", tc.data, err, tc.wantErr)
			}
			if err != nil {
				return
			}
			if want := decimal.RequireFromString(tc.want); !got.Equal(want) {
				t.Errorf("parseReal(% X) = %v, want %v", tc.data, got, want)
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	tests := map[string]struct {
		kind    asn1schema.TimeKind
		data    string
		want    time.Time
		wantErr bool
	}{
		"UTC":              {asn1schema.TimeUTC, "910506164540Z", time.Date(1991, 5, 6, 16, 45, 40, 0, time.UTC), false},
		"UTCNoSeconds":     {asn1schema.TimeUTC, "9105061645Z", time.Date(1991, 5, 6, 16, 45, 0, 0, time.UTC), false},
		"UTC2049":          {asn1schema.TimeUTC, "490101000000Z", time.Date(2049, 1, 1, 0, 0, 0, 0, time.UTC), false},
		"UTC1950":          {asn1schema.TimeUTC, "500101000000Z", time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC), false},
		"UTCNoMinutes":     {asn1schema.TimeUTC, "91050616Z", time.Time{}, true},
		"UTCOffset":        {asn1schema.TimeUTC, "910506164540+0100", time.Time{}, true},
		"Generalized":      {asn1schema.TimeGeneralized, "19851106210627Z", time.Date(1985, 11, 6, 21, 6, 27, 0, time.UTC), false},
		"GeneralizedHour":  {asn1schema.TimeGeneralized, "1985110621Z", time.Date(1985, 11, 6, 21, 0, 0, 0, time.UTC), false},
		"FractionalSecond": {asn1schema.TimeGeneralized, "19851106210627.25Z", time.Date(1985, 11, 6, 21, 6, 27, 250_000_000, time.UTC), false},
		"FractionalMinute": {asn1schema.TimeGeneralized, "198511062106,5Z", time.Date(1985, 11, 6, 21, 6, 30, 0, time.UTC), false},
		"FractionalHour":   {asn1schema.TimeGeneralized, "1985110621.5Z", time.Date(1985, 11, 6, 21, 30, 0, 0, time.UTC), false},
		"LeapDay":          {asn1schema.TimeGeneralized, "20240229000000Z", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), false},
		"NoLeapDay":        {asn1schema.TimeGeneralized, "20230229000000Z", time.Time{}, true},
		"Month13":          {asn1schema.TimeGeneralized, "20231301000000Z", time.Time{}, true},
		"Hour24":           {asn1schema.TimeGeneralized, "20230101240000Z", time.Time{}, true},
		"Minute60":         {asn1schema.TimeGeneralized, "20230101006000Z", time.Time{}, true},
		"EmptyFraction":    {asn1schema.TimeGeneralized, "20230101000000.Z", time.Time{}, true},
		"NoZone":           {asn1schema.TimeGeneralized, "20230101000000", time.Time{}, true},
		"Short":            {asn1schema.TimeGeneralized, "2023", time.Time{}, true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := parseTime([]byte(tc.data), tc.kind)
			if (err != nil) != tc.wantErr {
				t.Fatalf("parseTime(%q) error = %v, wantErr %t", tc.data, err, tc.wantErr)
			}
			if err == nil && !got.Equal(tc.want) {
				t.Errorf("parseTime(%q) = %v, want %v", tc.data, got, tc.want)
			}
		})
	}
}

func TestParseString(t *testing.T) {
	tests := map[string]struct {
		kind    asn1schema.StringKind
		data    []byte
		want    string
		wantErr bool
	}{
		"UTF8":             {asn1schema.StringUTF8, []byte("grüß"), "grüß", false},
		"InvalidUTF8":      {asn1schema.StringUTF8, []byte{0xc3}, "", true},
		"Numeric":          {asn1schema.StringNumeric, []byte("12 34"), "12 34", false},
		"NumericLetter":    {asn1schema.StringNumeric, []byte("12a"), "", true},
		"Printable":        {asn1schema.StringPrintable, []byte("Test User 1"), "Test User 1", false},
		"PrintableAt":      {asn1schema.StringPrintable, []byte("a@b"), "", true},
		"IA5":              {asn1schema.StringIA5, []byte("a@b"), "a@b", false},
		"IA5High":          {asn1schema.StringIA5, []byte{0x80}, "", true},
		"Universal":        {asn1schema.StringUniversal, []byte{0x00, 0x01, 0xf6, 0x00}, "😀", false},
		"UniversalOdd":     {asn1schema.StringUniversal, []byte{0x00, 0x00, 0x41}, "", true},
		"UniversalInvalid": {asn1schema.StringUniversal, []byte{0x00, 0x11, 0x00, 0x00}, "", true},
		"BMP":              {asn1schema.StringBMP, []byte{0x00, 0x41, 0x20, 0xac}, "A€", false},
		"BMPSurrogate":     {asn1schema.StringBMP, []byte{0xd8, 0x3d, 0xde, 0x00}, "", true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := parseString(tc.data, tc.kind)
			if (err != nil) != tc.wantErr {
				t.Fatalf("parseString(% X) error = %v, wantErr %t", tc.data, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("parseString(% X) = %q, want %q", tc.data, got, tc.want)
			}
		})
	}
}

func TestAppendString_Invalid(t *testing.T) {
	if _, err := appendString(nil, asn1schema.StringBMP, "😀"); err == nil {
		t.Errorf("appendString(BMP, outside BMP) error = nil, want error")
	}
	if _, err := appendString(nil, asn1schema.StringVisible, "a\nb"); err == nil {
		t.Errorf("appendString(Visible, control) error = nil, want error")
	}
}
