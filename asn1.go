// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asn1schema defines the tag model and the value types shared by the
// packages of the schema-driven DER codec. Encoding and decoding is
// implemented in subpackages:
//
//   - Package [codello.dev/asn1schema/tlv] encodes and decodes the identifier
//     and length octets of a single TLV.
//   - Package [codello.dev/asn1schema/ber] implements a generic tree of decoded
//     values that can be parsed and printed without a schema.
//   - Package [codello.dev/asn1schema/schema] implements a declarative grammar
//     describing the expected shape of encoded data.
//   - Package [codello.dev/asn1schema/der] walks values and schemas together
//     to produce or consume canonical bytes.
//
// # Mapping of ASN.1 Types to Go Types
//
// Many ASN.1 types map to predefined Go types. A BOOLEAN corresponds to a Go
// bool, an INTEGER corresponds to Go integer types and [math/big.Int]. OCTET
// STRING values are byte slices and all twelve character string types are Go
// strings. The [StringKind] of a string value determines its tag and character
// repertoire. UTCTime and GeneralizedTime values are [time.Time] values, their
// [TimeKind] determines the encoding. The types [BitString], [ObjectIdentifier]
// and [Null] defined in this package represent the corresponding ASN.1 types.
package asn1schema

import (
	"strconv"
	"strings"
)

// Tag constitutes an ASN.1 tag as it appears on the wire: its class, its
// number and whether the encoding using the tag is constructed. For details,
// see Section 8 of Rec. ITU-T X.680 and Section 8.1.2 of Rec. ITU-T X.690.
//
// Two tags are equal if their class, number and constructed flag all match.
type Tag struct {
	Class       Class
	Constructed bool
	Number      uint
}

// Class holds the class part of an ASN.1 tag. The class acts as a namespace for
// the tag number. A Class value is an unsigned 2-bit integer. Class values
// whose value exceeds 2 bits are invalid.
//
//go:generate stringer -type=Class -trimprefix=Class
type Class uint8

// IsValid reports whether c is a valid Class value.
func (c Class) IsValid() bool {
	return c <= 3
}

// Predefined [Class] constants. These are all the possible values that can be
// encoded in the [Class] type.
const (
	ClassUniversal Class = iota
	ClassApplication
	ClassContextSpecific
	ClassPrivate
)

// Universal returns the tag with the given number in the [ClassUniversal]
// namespace.
func Universal(number uint, constructed bool) Tag {
	return Tag{Class: ClassUniversal, Constructed: constructed, Number: number}
}

// ContextSpecific returns the tag with the given number in the
// [ClassContextSpecific] namespace.
func ContextSpecific(number uint, constructed bool) Tag {
	return Tag{Class: ClassContextSpecific, Constructed: constructed, Number: number}
}

// WithConstructed returns a copy of t with the constructed flag set to
// constructed.
func (t Tag) WithConstructed(constructed bool) Tag {
	t.Constructed = constructed
	return t
}

// String returns a string representation t in a format similar to the one used
// in ASN.1 notation. The tag number is enclosed by square brackets and prefixed
// with the class used. To avoid ambiguity the UNIVERSAL word is used for
// universal tags, although this is not valid ASN.1 syntax. Tags of constructed
// encodings carry a "/c" suffix.
func (t Tag) String() string {
	var s string
	if t.Class == ClassContextSpecific {
		s = "[" + strconv.FormatUint(uint64(t.Number), 10) + "]"
	} else {
		s = "[" + strings.ToUpper(t.Class.String()) + " " + strconv.FormatUint(uint64(t.Number), 10) + "]"
	}
	if t.Constructed {
		s += "/c"
	}
	return s
}

// These are the ASN.1 tag numbers in the [ClassUniversal] namespace that are
// understood by this module. These assignments are defined in Rec. ITU-T X.680,
// Section 8, Table 1.
const (
	TagBoolean          uint = 1
	TagInteger          uint = 2
	TagBitString        uint = 3
	TagOctetString      uint = 4
	TagNull             uint = 5
	TagOID              uint = 6
	TagReal             uint = 9
	TagEnumerated       uint = 10
	TagUTF8String       uint = 12
	TagSequence         uint = 16
	TagSet              uint = 17
	TagNumericString    uint = 18
	TagPrintableString  uint = 19
	TagTeletexString    uint = 20
	TagT61String             = TagTeletexString
	TagVideotexString   uint = 21
	TagIA5String        uint = 22
	TagUTCTime          uint = 23
	TagGeneralizedTime  uint = 24
	TagGraphicString    uint = 25
	TagVisibleString    uint = 26
	TagISO646String          = TagVisibleString
	TagGeneralString    uint = 27
	TagUniversalString  uint = 28
	TagCharacterString  uint = 29
	TagBMPString        uint = 30
)
