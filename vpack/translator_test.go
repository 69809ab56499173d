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

func TestTranslatorBuilderAssignsSequentialIDs(t *testing.T) {
	tb := NewTranslatorBuilder()
	idEmpty := tb.Add("")
	idName := tb.Add("name")
	idAge := tb.Add("age")
	require.Equal(t, uint64(0), idEmpty)
	require.Equal(t, uint64(1), idName)
	require.Equal(t, uint64(2), idAge)
}

func TestTranslatorBuilderAddIsIdempotent(t *testing.T) {
	tb := NewTranslatorBuilder()
	tb.Add("")
	first := tb.Add("name")
	second := tb.Add("name")
	require.Equal(t, first, second)
	require.Equal(t, 2, tb.Seal().Len())
}

func TestTranslatorLookupAndNameByID(t *testing.T) {
	tb := NewTranslatorBuilder()
	tb.Add("")
	id := tb.Add("name")
	tr := tb.Seal()

	gotID, ok := tr.Lookup("name")
	require.True(t, ok)
	require.Equal(t, id, gotID)

	_, ok = tr.Lookup("unknown")
	require.False(t, ok)

	name, ok := tr.NameByID(id)
	require.True(t, ok)
	require.Equal(t, "name", name)

	_, ok = tr.NameByID(999)
	require.False(t, ok)
}

func TestNilTranslatorIsSafe(t *testing.T) {
	var tr *Translator
	require.Equal(t, 0, tr.Len())
	_, ok := tr.Lookup("x")
	require.False(t, ok)
	_, ok = tr.NameByID(0)
	require.False(t, ok)
}

func TestTranslatorSealIsImmutableFromBuilder(t *testing.T) {
	tb := NewTranslatorBuilder()
	tb.Add("a")
	tr := tb.Seal()
	tb.Add("b")
	require.Equal(t, 1, tr.Len())
}
