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

// Order selects traversal order for VisitRecursive.
type Order int

const (
	PreOrder Order = iota
	PostOrder
)

// VisitFunc is called once per array element or object entry encountered
// during a walk. key is the Null Slice for array elements. Returning false
// prunes the subtree rooted at value (no further descent into it).
type VisitFunc func(key, value Slice) (bool, error)

var nullSlice = Slice{data: []byte{tagNull}}

// VisitRecursive walks s in the given order, invoking fn for every array
// element and object entry reachable from s (including s's own top-level
// entries, but not s itself).
func VisitRecursive(s Slice, order Order, fn VisitFunc) error {
	switch s.Type() {
	case KindArray:
		return visitArray(s, order, fn)
	case KindObject:
		return visitObject(s, order, fn)
	default:
		return nil
	}
}

func visitArray(s Slice, order Order, fn VisitFunc) error {
	n, err := s.Length()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		elem, err := s.At(i)
		if err != nil {
			return err
		}
		if order == PreOrder {
			cont, err := fn(nullSlice, elem)
			if err != nil {
				return err
			}
			if !cont {
				continue
			}
			if err := VisitRecursive(elem, order, fn); err != nil {
				return err
			}
		} else {
			if err := VisitRecursive(elem, order, fn); err != nil {
				return err
			}
			if _, err := fn(nullSlice, elem); err != nil {
				return err
			}
		}
	}
	return nil
}

func visitObject(s Slice, order Order, fn VisitFunc) error {
	n, err := s.Length()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		key, err := s.KeyAt(i)
		if err != nil {
			return err
		}
		value, err := s.ValueAt(i)
		if err != nil {
			return err
		}
		if order == PreOrder {
			cont, err := fn(key, value)
			if err != nil {
				return err
			}
			if !cont {
				continue
			}
			if err := VisitRecursive(value, order, fn); err != nil {
				return err
			}
		} else {
			if err := VisitRecursive(value, order, fn); err != nil {
				return err
			}
			if _, err := fn(key, value); err != nil {
				return err
			}
		}
	}
	return nil
}
