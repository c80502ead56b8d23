// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schema

import (
	"github.com/cockroachdb/errors"
)

// These errors indicate a problem with a schema itself rather than with the
// data being encoded or decoded. They are returned wrapped in an [*Error].
var (
	// ErrAmbiguousImplicitTag indicates an implicit tag over a schema that
	// does not have exactly one possible tag.
	ErrAmbiguousImplicitTag = errors.New("ambiguous implicit tag")
	// ErrNoVersionDefined indicates a versioned field in a SEQUENCE without a
	// preceding version field.
	ErrNoVersionDefined = errors.New("no version defined")
	// ErrNoDynamicTypeDefined indicates a dynamic field outside of a SEQUENCE
	// or in a SEQUENCE without a preceding type field.
	ErrNoDynamicTypeDefined = errors.New("no dynamic type defined")
	// ErrUnknownDynamicValue indicates that a dynamic field could not be
	// encoded because no case matches the type value and there is no schema
	// for unknown values.
	ErrUnknownDynamicValue = errors.New("unknown dynamic value")
	// ErrDuplicateTag indicates CHOICE alternatives that share a tag.
	ErrDuplicateTag = errors.New("duplicate tag")
	// ErrInvalidSchema indicates any other problem with a schema.
	ErrInvalidSchema = errors.New("invalid schema")
)

// Error is a schema error. Path identifies the location of the offending
// schema node relative to the schema being validated, using field names and
// element markers.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	s := "schema: "
	if e.Path != "" {
		s += e.Path + ": "
	}
	return s + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(path string, sentinel error, format string, args ...any) *Error {
	if format == "" {
		return &Error{Path: path, Err: sentinel}
	}
	return &Error{Path: path, Err: errors.Wrapf(sentinel, format, args...)}
}
