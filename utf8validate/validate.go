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

// Package utf8validate exposes a single boolean UTF-8 validation
// predicate as a narrow, swappable seam. The core parser calls it once
// per decoded string literal, whatever its size, and never
// fabricates multi-byte sequences of its own; it validates on input only.
//
// A host that links a SIMD-accelerated validator (SSE4.2, AVX2, ...) can
// substitute it by assigning a different Validator value; this package
// ships only the portable scalar fallback.
package utf8validate

import "unicode/utf8"

// Validator reports whether b is well-formed UTF-8.
type Validator func(b []byte) bool

// Default is the scalar, allocation-free validator used unless a caller
// supplies its own.
var Default Validator = utf8.Valid
