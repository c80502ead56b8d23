// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package der

import (
	"github.com/cockroachdb/errors"

	"codello.dev/asn1schema/schema"
)

// These errors indicate malformed data or values that do not fit a schema. They
// are returned wrapped in an [*Error]. Problems with a schema itself are
// reported as [*schema.Error].
var (
	// ErrTypeMismatch indicates a tag or Go type that cannot be used for the
	// requested kind.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrValueNotFound indicates an absent value where a value is required.
	ErrValueNotFound = errors.New("value not found")
	// ErrKeyNotFound indicates a required SEQUENCE field that is missing from
	// the input, or a field name that is not part of the schema.
	ErrKeyNotFound = errors.New("key not found")
	// ErrDataCorrupted indicates malformed bytes.
	ErrDataCorrupted = errors.New("data corrupted")
	// ErrValueOutOfRange indicates a violated size constraint or a value that
	// does not fit into its Go type.
	ErrValueOutOfRange = errors.New("value out of range")
	// ErrDisallowedValue indicates a value not allowed by the schema.
	ErrDisallowedValue = errors.New("disallowed value")
	// ErrBadValue indicates any other mismatch between a value and its schema.
	ErrBadValue = errors.New("bad value")
)

// Error describes a problem encoding or decoding a value. Path identifies the
// value within the top-level value.
type Error struct {
	Op   string // "encode" or "decode"
	Path string
	Err  error
}

func (e *Error) Error() string {
	s := "der: " + e.Op
	if e.Path != "" {
		s += " " + e.Path
	}
	return s + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError attaches op and p to err unless err already carries a location.
func wrapError(op string, p path, err error) error {
	if err == nil {
		return nil
	}
	var derErr *Error
	var schemaErr *schema.Error
	if errors.As(err, &derErr) || errors.As(err, &schemaErr) {
		return err
	}
	return &Error{Op: op, Path: p.String(), Err: err}
}

// corruptError marks a syntax error of the ber or tlv packages as
// [ErrDataCorrupted] while keeping the original error in the chain.
type corruptError struct {
	err error
}

func (e *corruptError) Error() string        { return e.err.Error() }
func (e *corruptError) Unwrap() error        { return e.err }
func (e *corruptError) Is(target error) bool { return target == ErrDataCorrupted }

func corrupted(err error) error {
	return &corruptError{err}
}

// newErrorf returns an error of the given kind with additional context.
func newErrorf(sentinel error, format string, args ...any) error {
	return errors.Wrapf(sentinel, format, args...)
}
