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

import "sort"

// keyBytes returns the raw UTF-8 bytes of the key at relative offset off
// inside the container starting at tos, or ok=false if the tag there is not
// a key-shaped string (e.g. a translator-assigned integer key, which is
// exempt from attribute sorting per the translator's documented carve-out).
func keyBytes(data []byte, tos, off int) (key []byte, ok bool, err error) {
	s := Slice{data: data[tos+off:]}
	tag := s.tag()
	switch {
	case isShortStringTag(tag):
		k := int(tag - tagShortStringBase)
		return data[tos+off+1 : tos+off+1+k], true, nil
	case tag == tagLongString:
		size, err := s.ByteSize()
		if err != nil {
			return nil, false, err
		}
		return data[tos+off+9 : tos+off+size], true, nil
	case isSmallIntTag(tag), isIntPosTag(tag), isIntNegTag(tag), isUIntTag(tag):
		// Translator-assigned compact key: not byte-comparable as a name.
		return nil, false, nil
	default:
		return nil, false, newErr(ErrUnsupportedKeyTag, "key has unsupported tag %s", errTagString(tag))
	}
}

// compareKeys implements memcmp-style ordering: byte-wise, with the
// shorter key ordered before an equal-prefix longer key.
func compareKeys(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// sortEntriesByKey stably reorders entries (key offsets relative to tos) by
// their key bytes. If any key is a translator-assigned integer, the whole
// container is left in layout order rather than erroring, since translator
// keys opt out of sorting by design.
func sortEntriesByKey(data []byte, tos int, entries []int) error {
	type keyed struct {
		off int
		key []byte
	}
	keys := make([]keyed, len(entries))
	for i, off := range entries {
		kb, ok, err := keyBytes(data, tos, off)
		if err != nil {
			return err
		}
		if !ok {
			// Translator key (or similarly unsortable) present: skip sort.
			return nil
		}
		keys[i] = keyed{off: off, key: kb}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return compareKeys(keys[i].key, keys[j].key) < 0
	})
	for i, k := range keys {
		entries[i] = k.off
	}
	return nil
}
