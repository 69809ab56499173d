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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompareKeysOrdersByByteThenLength(t *testing.T) {
	require.Equal(t, -1, compareKeys([]byte("a"), []byte("b")))
	require.Equal(t, 1, compareKeys([]byte("b"), []byte("a")))
	require.Equal(t, 0, compareKeys([]byte("same"), []byte("same")))
	require.Equal(t, -1, compareKeys([]byte("ab"), []byte("abc")))
	require.Equal(t, 1, compareKeys([]byte("abc"), []byte("ab")))
}

func TestSortEntriesByKeyOrdersObjectKeys(t *testing.T) {
	b := NewBuilder(Options{SortAttributeNames: true})
	require.NoError(t, b.OpenObject())
	for _, k := range []string{"charlie", "alice", "bob"} {
		require.NoError(t, b.Key(k))
		require.NoError(t, b.AddBool(true))
	}
	require.NoError(t, b.Close())
	s, err := b.Slice()
	require.NoError(t, err)

	var got []string
	n, err := s.Length()
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		key, err := s.KeyAt(i)
		require.NoError(t, err)
		name, _, err := key.GetString()
		require.NoError(t, err)
		got = append(got, name)
	}
	require.Equal(t, []string{"alice", "bob", "charlie"}, got)
}

func TestSortEntriesSkippedWhenTranslatorKeyPresent(t *testing.T) {
	tb := NewTranslatorBuilder()
	tb.Add("")
	tb.Add("z")
	tr := tb.Seal()

	b := NewBuilder(Options{SortAttributeNames: true, Translator: tr})
	require.NoError(t, b.OpenObject())
	require.NoError(t, b.Key("z")) // emitted as a compact integer key
	require.NoError(t, b.AddInt(1))
	require.NoError(t, b.Key("a")) // no translator entry, emitted as a literal string
	require.NoError(t, b.AddInt(2))
	require.NoError(t, b.Close())
	s, err := b.Slice()
	require.NoError(t, err)

	// usedTranslator opts the whole object out of sorting, so insertion
	// order survives: "z" (as a translated key) stays first.
	key0, err := s.KeyAt(0)
	require.NoError(t, err)
	require.True(t, key0.IsSmallInt())
}
