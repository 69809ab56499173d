// Copyright (C) 2026 murphyatwork
// This file is part of velocypack
//
// velocypack is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// velocypack is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with velocypack.  If not, see <https://www.gnu.org/licenses/>.

package vpack

import "fmt"

// ErrorKind classifies a vpack.Error without depending on string matching.
type ErrorKind uint8

const (
	ErrSyntax ErrorKind = iota
	ErrTypeMismatch
	ErrWrongContext
	ErrBadKey
	ErrNumberOutOfRange
	ErrDuplicateAttribute
	ErrUnsupportedType
	ErrUnsupportedKeyTag
	ErrOutOfMemory
	ErrOutOfBoundsIndex
)

func (k ErrorKind) String() string {
	switch k {
	case ErrSyntax:
		return "syntax"
	case ErrTypeMismatch:
		return "type mismatch"
	case ErrWrongContext:
		return "wrong context"
	case ErrBadKey:
		return "bad key"
	case ErrNumberOutOfRange:
		return "number out of range"
	case ErrDuplicateAttribute:
		return "duplicate attribute"
	case ErrUnsupportedType:
		return "unsupported type"
	case ErrUnsupportedKeyTag:
		return "unsupported key tag"
	case ErrOutOfMemory:
		return "out of memory"
	case ErrOutOfBoundsIndex:
		return "out of bounds index"
	}
	return "unknown"
}

// Error is the error type returned by every vpack operation. Offset is only
// meaningful for ErrSyntax and reports the byte position of the failure in
// the input being parsed.
type Error struct {
	Kind    ErrorKind
	Offset  int
	Message string
}

func (e *Error) Error() string {
	if e.Kind == ErrSyntax {
		return fmt.Sprintf("vpack: syntax error at offset %d: %s", e.Offset, e.Message)
	}
	return fmt.Sprintf("vpack: %s: %s", e.Kind, e.Message)
}

// Is reports whether target is an *Error with the same Kind, so callers can
// use errors.Is(err, vpack.ErrWrongContextSentinel) style checks via the
// sentinel values below.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

func newErr(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Sentinel errors, usable with errors.Is via the Error.Is method above.
var (
	ErrTypeMismatchSentinel      = &Error{Kind: ErrTypeMismatch}
	ErrWrongContextSentinel      = &Error{Kind: ErrWrongContext}
	ErrBadKeySentinel            = &Error{Kind: ErrBadKey}
	ErrNumberOutOfRangeSentinel  = &Error{Kind: ErrNumberOutOfRange}
	ErrDuplicateAttributeSentinel = &Error{Kind: ErrDuplicateAttribute}
	ErrUnsupportedTypeSentinel   = &Error{Kind: ErrUnsupportedType}
	ErrUnsupportedKeyTagSentinel = &Error{Kind: ErrUnsupportedKeyTag}
	ErrOutOfMemorySentinel       = &Error{Kind: ErrOutOfMemory}
	ErrOutOfBoundsIndexSentinel  = &Error{Kind: ErrOutOfBoundsIndex}
)
