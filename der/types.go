// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package der

import (
	"math/big"
)

// Choice is the value of a CHOICE. Index is the index of the alternative in the
// schema. When decoding, Value holds the natural Go value of the alternative.
type Choice struct {
	Index int
	Value any
}

// BigUInt is an arbitrary precision unsigned integer. Encoding or decoding a
// negative value results in an error wrapping [ErrBadValue].
type BigUInt struct {
	big.Int
}

func (u *BigUInt) unsigned() (*big.Int, bool, error) {
	if u.Sign() < 0 {
		return nil, true, newErrorf(ErrBadValue, "negative value %v for unsigned integer", &u.Int)
	}
	return &u.Int, true, nil
}

// List is a SEQUENCE OF or SET OF values of type T. A pointer to T must be a
// valid target for [Decoder.Next].
type List[T any] []T

// MarshalASN1 appends the elements of l.
func (l List[T]) MarshalASN1(e *Encoder) error {
	for _, v := range l {
		if err := e.Append(v); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalASN1 decodes all elements into l.
func (l *List[T]) UnmarshalASN1(d *Decoder) error {
	*l = make(List[T], 0, d.Len())
	for d.More() {
		var v T
		if err := d.Next(&v); err != nil {
			return err
		}
		*l = append(*l, v)
	}
	return nil
}
