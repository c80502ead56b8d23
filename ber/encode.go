// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"github.com/cockroachdb/errors"

	"codello.dev/asn1schema/tlv"
)

// Marshal returns the DER encoding of n. Constructed nodes are encoded using
// the definite-length form. The children of [KindSet] nodes are encoded in the
// order given.
func Marshal(n Node) ([]byte, error) {
	return Append(nil, n)
}

// Append appends the DER encoding of n to b and returns the extended buffer.
// If n cannot be encoded, the returned error is a [ValueError].
func Append(b []byte, n Node) ([]byte, error) {
	content, err := appendContent(nil, n)
	if err != nil {
		return b, err
	}
	b = tlv.AppendHeader(b, tlv.Header{Tag: n.tag(), Length: len(content)})
	return append(b, content...), nil
}

// appendContent appends the content octets of n to b.
func appendContent(b []byte, n Node) (_ []byte, err error) {
	switch n.Kind {
	case KindBoolean:
		return appendBoolean(b, n.Bool), nil
	case KindInteger:
		return appendInteger(b, n.Int), nil
	case KindBitString:
		b, err = appendBitString(b, n.Bits)
	case KindOctetString:
		return append(b, n.Bytes...), nil
	case KindNull:
		return b, nil
	case KindObjectIdentifier:
		b, err = appendOID(b, n.OID)
	case KindReal:
		return appendReal(b, n.Real), nil
	case KindString:
		b, err = appendString(b, n.StringKind, n.Str)
	case KindTime:
		b, err = appendTime(b, n.TimeKind, n.Time)
	case KindSequence, KindSet:
		for _, c := range n.Children {
			if b, err = Append(b, c); err != nil {
				return b, err
			}
		}
		return b, nil
	case KindTagged:
		if n.Bytes != nil || !n.Tag.Constructed {
			return append(b, n.Bytes...), nil
		}
		for _, c := range n.Children {
			if b, err = Append(b, c); err != nil {
				return b, err
			}
		}
		return b, nil
	default:
		err = errors.Newf("unknown kind %d", n.Kind)
	}
	if err != nil {
		return b, &ValueError{Kind: n.Kind, Err: err}
	}
	return b, nil
}
