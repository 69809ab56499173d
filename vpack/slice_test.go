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

func TestSliceScalarRoundTrips(t *testing.T) {
	data := sealedBytes(t, func(b *Builder) { require.NoError(t, b.AddBool(true)) })
	s := SliceFromBytes(data)
	require.True(t, s.IsBool())
	v, err := s.GetBool()
	require.NoError(t, err)
	require.True(t, v)

	data = sealedBytes(t, func(b *Builder) { require.NoError(t, b.AddDouble(2.5)) })
	s = SliceFromBytes(data)
	require.True(t, s.IsDouble())
	d, err := s.GetDouble()
	require.NoError(t, err)
	require.Equal(t, 2.5, d)

	data = sealedBytes(t, func(b *Builder) { require.NoError(t, b.AddInt(-12345)) })
	s = SliceFromBytes(data)
	require.True(t, s.IsInt())
	iv, err := s.GetInt()
	require.NoError(t, err)
	require.Equal(t, int64(-12345), iv)

	data = sealedBytes(t, func(b *Builder) { require.NoError(t, b.AddUInt(99999999999)) })
	s = SliceFromBytes(data)
	require.True(t, s.IsUInt())
	uv, err := s.GetUInt()
	require.NoError(t, err)
	require.Equal(t, uint64(99999999999), uv)

	data = sealedBytes(t, func(b *Builder) { require.NoError(t, b.AddUTCDate(1700000000123)) })
	s = SliceFromBytes(data)
	require.True(t, s.IsUTCDate())
	ts, err := s.GetUTCDate()
	require.NoError(t, err)
	require.Equal(t, int64(1700000000123), ts)

	data = sealedBytes(t, func(b *Builder) { require.NoError(t, b.AddExternal(0xdeadbeef)) })
	s = SliceFromBytes(data)
	require.True(t, s.IsExternal())
	ext, err := s.GetExternal()
	require.NoError(t, err)
	require.Equal(t, uintptr(0xdeadbeef), ext)
}

func TestSliceStringRoundTrip(t *testing.T) {
	short := sealedBytes(t, func(b *Builder) { require.NoError(t, b.AddString("hello")) })
	s := SliceFromBytes(short)
	require.True(t, s.IsString())
	str, n, err := s.GetString()
	require.NoError(t, err)
	require.Equal(t, "hello", str)
	require.Equal(t, 5, n)

	long := make([]byte, 200)
	for i := range long {
		long[i] = byte('a' + i%26)
	}
	data := sealedBytes(t, func(b *Builder) { require.NoError(t, b.AddString(string(long))) })
	s = SliceFromBytes(data)
	require.Equal(t, byte(tagLongString), data[0])
	str, n, err = s.GetString()
	require.NoError(t, err)
	require.Equal(t, string(long), str)
	require.Equal(t, len(long), n)
}

func TestSliceBinaryRoundTrip(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5}
	data := sealedBytes(t, func(b *Builder) { require.NoError(t, b.AddBinary(payload)) })
	s := SliceFromBytes(data)
	require.True(t, s.IsBinary())
	got, err := s.GetBinary()
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestSliceIDRoundTrip(t *testing.T) {
	data := sealedBytes(t, func(b *Builder) { require.NoError(t, b.AddID(7, "collection/key")) })
	s := SliceFromBytes(data)
	require.True(t, s.IsID())
	id, name, err := s.GetID()
	require.NoError(t, err)
	require.Equal(t, uint64(7), id)
	require.Equal(t, "collection/key", name)
}

func TestSliceNeedErrorsOnTruncation(t *testing.T) {
	s := SliceFromBytes([]byte{tagDouble, 1, 2, 3})
	_, err := s.GetDouble()
	require.Error(t, err)
	var verr *Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, ErrTypeMismatch, verr.Kind)
}

func TestSliceTypeMismatchErrors(t *testing.T) {
	s := SliceFromBytes([]byte{tagTrue})
	_, err := s.GetDouble()
	require.Error(t, err)
	_, err = s.GetInt()
	require.Error(t, err)
	_, _, err = s.GetString()
	require.Error(t, err)
}

func TestSliceByteSizeScalarWidths(t *testing.T) {
	data := sealedBytes(t, func(b *Builder) { require.NoError(t, b.AddNull()) })
	size, err := SliceFromBytes(data).ByteSize()
	require.NoError(t, err)
	require.Equal(t, 1, size)

	data = sealedBytes(t, func(b *Builder) { require.NoError(t, b.AddDouble(1.0)) })
	size, err = SliceFromBytes(data).ByteSize()
	require.NoError(t, err)
	require.Equal(t, 9, size)
}

func TestSliceOutOfBoundsIndex(t *testing.T) {
	data := sealedBytes(t, func(b *Builder) {
		require.NoError(t, b.OpenArray())
		require.NoError(t, b.AddInt(1))
		require.NoError(t, b.Close())
	})
	s := SliceFromBytes(data)
	_, err := s.At(5)
	require.Error(t, err)
	var verr *Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, ErrOutOfBoundsIndex, verr.Kind)
}
