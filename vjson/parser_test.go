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

package vjson

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/murphyatwork/velocypack/vpack"
)

func TestParseScalars(t *testing.T) {
	cases := []struct {
		in   string
		kind vpack.Kind
	}{
		{"null", vpack.KindNull},
		{"true", vpack.KindBool},
		{"false", vpack.KindBool},
		{"42", vpack.KindInt},
		{"-12345", vpack.KindInt},
		{"3.5", vpack.KindDouble},
		{`"hi"`, vpack.KindString},
	}
	for _, c := range cases {
		s, err := Parse([]byte(c.in), ParserOptions{})
		require.NoError(t, err, c.in)
		require.Equal(t, c.kind, s.Type(), c.in)
	}
}

func TestParseObjectAndArray(t *testing.T) {
	s, err := Parse([]byte(`{"a":1,"b":[1,2,3]}`), ParserOptions{})
	require.NoError(t, err)
	require.True(t, s.IsObject())
	n, err := s.Length()
	require.NoError(t, err)
	require.Equal(t, 2, n)

	key0, err := s.KeyAt(0)
	require.NoError(t, err)
	name0, _, err := key0.GetString()
	require.NoError(t, err)
	require.Equal(t, "a", name0)

	val1, err := s.ValueAt(1)
	require.NoError(t, err)
	require.True(t, val1.IsArray())
	arrLen, err := val1.Length()
	require.NoError(t, err)
	require.Equal(t, 3, arrLen)
}

func TestParseSortsAttributeNamesWhenRequested(t *testing.T) {
	s, err := Parse([]byte(`{"b":2,"a":1}`), ParserOptions{SortAttributeNames: true})
	require.NoError(t, err)
	key0, err := s.KeyAt(0)
	require.NoError(t, err)
	name0, _, err := key0.GetString()
	require.NoError(t, err)
	require.Equal(t, "a", name0)
}

func TestParseRejectsDuplicateAttributesWhenChecked(t *testing.T) {
	_, err := Parse([]byte(`{"a":1,"a":2}`), ParserOptions{CheckAttributeUniqueness: true})
	require.Error(t, err)
	var verr *vpack.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, vpack.ErrDuplicateAttribute, verr.Kind)
}

func TestParseStringEscapes(t *testing.T) {
	s, err := Parse([]byte(`"a\nb\tc\"d\\e"`), ParserOptions{})
	require.NoError(t, err)
	v, _, err := s.GetString()
	require.NoError(t, err)
	require.Equal(t, "a\nb\tc\"d\\e", v)
}

func TestParseUnicodeEscape(t *testing.T) {
	s, err := Parse([]byte("\"\\u00e9\""), ParserOptions{})
	require.NoError(t, err)
	v, _, err := s.GetString()
	require.NoError(t, err)
	require.Equal(t, "\u00e9", v)
}

func TestParseSurrogatePairEscape(t *testing.T) {
	s, err := Parse([]byte("\"\\ud83d\\ude00\""), ParserOptions{})
	require.NoError(t, err)
	v, _, err := s.GetString()
	require.NoError(t, err)
	require.Equal(t, "\U0001F600", v)
}

func TestParseLoneSurrogateEscapeBecomesReplacementChar(t *testing.T) {
	s, err := Parse([]byte("\"\\ud83d\""), ParserOptions{})
	require.NoError(t, err)
	v, _, err := s.GetString()
	require.NoError(t, err)
	require.Equal(t, "�", v)
}

func TestParseVerbatimUTF8Bytes(t *testing.T) {
	s, err := Parse([]byte(`"😀"`), ParserOptions{})
	require.NoError(t, err)
	v, _, err := s.GetString()
	require.NoError(t, err)
	require.Equal(t, "😀", v)
}

func TestParseNumberClassification(t *testing.T) {
	s, err := Parse([]byte("18446744073709551615"), ParserOptions{}) // max uint64
	require.NoError(t, err)
	require.True(t, s.IsUInt())

	s, err = Parse([]byte("9223372036854775807"), ParserOptions{}) // max int64
	require.NoError(t, err)
	require.True(t, s.IsInt())

	s, err = Parse([]byte("-9223372036854775808"), ParserOptions{}) // min int64
	require.NoError(t, err)
	require.True(t, s.IsInt())
	v, err := s.GetInt()
	require.NoError(t, err)
	require.Equal(t, int64(-9223372036854775808), v)

	s, err = Parse([]byte("1e40"), ParserOptions{}) // exponent form always parses as a double
	require.NoError(t, err)
	require.True(t, s.IsDouble())
}

func TestParseSyntaxErrorOffset(t *testing.T) {
	_, err := Parse([]byte("[1,2,,3]"), ParserOptions{})
	require.Error(t, err)
	var verr *vpack.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, vpack.ErrSyntax, verr.Kind)
	require.Equal(t, 5, verr.Offset)
}

func TestParseTrailingDataIsSyntaxError(t *testing.T) {
	_, err := Parse([]byte("1 2"), ParserOptions{})
	require.Error(t, err)
	var verr *vpack.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, vpack.ErrSyntax, verr.Kind)
}

func TestParseRejectsBareControlCharacterInString(t *testing.T) {
	_, err := Parse([]byte("\"a\tb\""), ParserOptions{})
	require.Error(t, err)
}

func TestParseWithAttributeTranslator(t *testing.T) {
	tb := vpack.NewTranslatorBuilder()
	tb.Add("")
	id := tb.Add("name")
	tr := tb.Seal()

	s, err := Parse([]byte(`{"name":"alice"}`), ParserOptions{AttributeTranslator: tr})
	require.NoError(t, err)
	key0, err := s.KeyAt(0)
	require.NoError(t, err)
	require.True(t, key0.IsSmallInt())
	gotID, err := key0.GetSmallInt()
	require.NoError(t, err)
	require.Equal(t, int8(id), gotID)
}
