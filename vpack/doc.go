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

// Package vpack implements VelocyPack, a compact, self-describing,
// schema-free binary encoding for structured values: the JSON value
// space plus dates, binary blobs, typed integers, and in-process
// external pointers.
//
// A value is a single byte region beginning with a one-byte type tag.
// Slice interprets such a region in place without decoding it; Builder
// assembles one incrementally. Neither type is safe for concurrent use;
// distinct Builders in distinct goroutines are independent.
package vpack
