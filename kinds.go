// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asn1schema

import (
	"unicode/utf8"
)

// StringKind identifies one of the ASN.1 character string types. All string
// kinds share the same structure. They differ only in their tag number and in
// the repertoire of characters they may contain.
//
// See also section 41 of Rec. ITU-T X.680.
//
//go:generate stringer -type=StringKind -trimprefix=String
type StringKind uint8

// These are the supported string kinds.
const (
	StringUTF8 StringKind = iota
	StringNumeric
	StringPrintable
	StringTeletex
	StringVideotex
	StringIA5
	StringGraphic
	StringVisible
	StringGeneral
	StringUniversal
	StringCharacter
	StringBMP
)

var stringTags = [...]uint{
	StringUTF8:      TagUTF8String,
	StringNumeric:   TagNumericString,
	StringPrintable: TagPrintableString,
	StringTeletex:   TagTeletexString,
	StringVideotex:  TagVideotexString,
	StringIA5:       TagIA5String,
	StringGraphic:   TagGraphicString,
	StringVisible:   TagVisibleString,
	StringGeneral:   TagGeneralString,
	StringUniversal: TagUniversalString,
	StringCharacter: TagCharacterString,
	StringBMP:       TagBMPString,
}

// TagNumber returns the universal tag number of k.
func (k StringKind) TagNumber() uint {
	if int(k) >= len(stringTags) {
		return 0
	}
	return stringTags[k]
}

// StringKindFor returns the string kind identified by the universal tag
// number n. If n does not identify a character string type, ok is false.
func StringKindFor(n uint) (k StringKind, ok bool) {
	for i, t := range stringTags {
		if t == n {
			return StringKind(i), true
		}
	}
	return 0, false
}

// IsValid reports whether s consists only of characters from the repertoire of
// k. Kinds whose repertoire escapes into other character sets (Teletex,
// Videotex, Graphic, General and CHARACTER STRING) accept any input.
func (k StringKind) IsValid(s string) bool {
	switch k {
	case StringUTF8, StringUniversal:
		return utf8.ValidString(s)
	case StringNumeric:
		for i := 0; i < len(s); i++ {
			if !isNumeric(s[i]) {
				return false
			}
		}
	case StringPrintable:
		for i := 0; i < len(s); i++ {
			if !isPrintable(s[i]) {
				return false
			}
		}
	case StringIA5:
		for i := 0; i < len(s); i++ {
			if s[i] >= utf8.RuneSelf {
				return false
			}
		}
	case StringVisible:
		for i := 0; i < len(s); i++ {
			if s[i] < ' ' || s[i] >= 0x7F {
				return false
			}
		}
	case StringBMP:
		if !utf8.ValidString(s) {
			return false
		}
		for _, r := range s {
			if r > 0xFFFF || (r >= 0xD800 && r < 0xE000) {
				return false
			}
		}
	}
	return true
}

// isNumeric reports whether b can appear in an ASN.1 NumericString.
func isNumeric(b byte) bool {
	return '0' <= b && b <= '9' || b == ' '
}

// isPrintable reports whether the given b is in the ASN.1 PrintableString set:
//
//	A-Z	// upper case letters
//	a-z	// lower case letters
//	0-9	// digits
//	 	// space
//	'	// apostrophe
//	()	// Parenthesis
//	+-/	// plus, hyphen, solidus
//	.,:	// fill stop, comma, colon
//	=	// equals sign
//	?	// question mark
func isPrintable(b byte) bool {
	return 'a' <= b && b <= 'z' ||
		'A' <= b && b <= 'Z' ||
		'0' <= b && b <= '9' ||
		'\'' <= b && b <= ')' ||
		'+' <= b && b <= '/' ||
		b == ' ' ||
		b == ':' ||
		b == '=' ||
		b == '?'
}

// TimeKind identifies one of the two ASN.1 useful time types.
//
//go:generate stringer -type=TimeKind -trimprefix=Time
type TimeKind uint8

const (
	// TimeUTC identifies the UTCTime type. It uses a two-digit year and can
	// only represent the years 1950 through 2049.
	TimeUTC TimeKind = iota
	// TimeGeneralized identifies the GeneralizedTime type. It uses a four-digit
	// year.
	TimeGeneralized
)

// TagNumber returns the universal tag number of k.
func (k TimeKind) TagNumber() uint {
	if k == TimeUTC {
		return TagUTCTime
	}
	return TagGeneralizedTime
}

// TimeKindFor returns the time kind identified by the universal tag number n.
func TimeKindFor(n uint) (TimeKind, bool) {
	switch n {
	case TagUTCTime:
		return TimeUTC, true
	case TagGeneralizedTime:
		return TimeGeneralized, true
	}
	return 0, false
}
