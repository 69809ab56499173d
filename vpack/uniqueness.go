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

// checkAttributeUniqueness verifies that s, an object Slice, has no two
// entries sharing the same key, and recurses into any nested object or
// array values so a single top-level check covers the whole subtree.
func checkAttributeUniqueness(s Slice) error {
	if !s.IsObject() {
		return recurseUniqueness(s)
	}
	n, err := s.Length()
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		key, err := s.KeyAt(i)
		if err != nil {
			return err
		}
		size, err := key.ByteSize()
		if err != nil {
			return err
		}
		if err := key.need(size); err != nil {
			return err
		}
		// Keys are compared by their encoded bytes, tag included, so
		// translator-assigned integer keys are checked as well.
		raw := string(key.Bytes()[:size])
		if _, dup := seen[raw]; dup {
			name, _, _ := key.GetString()
			return newErr(ErrDuplicateAttribute, "duplicate attribute %q (key bytes % x)", name, raw)
		}
		seen[raw] = struct{}{}
	}
	for i := 0; i < n; i++ {
		value, err := s.ValueAt(i)
		if err != nil {
			return err
		}
		if err := recurseUniqueness(value); err != nil {
			return err
		}
	}
	return nil
}

func recurseUniqueness(s Slice) error {
	switch s.Type() {
	case KindObject:
		return checkAttributeUniqueness(s)
	case KindArray:
		n, err := s.Length()
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			elem, err := s.At(i)
			if err != nil {
				return err
			}
			if err := recurseUniqueness(elem); err != nil {
				return err
			}
		}
	}
	return nil
}
