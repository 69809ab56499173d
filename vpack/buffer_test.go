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

func TestByteBufferAppendAndData(t *testing.T) {
	b := NewByteBuffer()
	require.Equal(t, 0, b.Size())
	b.AppendByte('a')
	b.AppendBytes([]byte("bcd"))
	require.Equal(t, 4, b.Size())
	require.Equal(t, []byte("abcd"), b.Data())
}

func TestByteBufferReset(t *testing.T) {
	b := NewByteBuffer()
	b.AppendBytes([]byte("hello"))
	b.Reset()
	require.Equal(t, 0, b.Size())
	b.AppendByte('x')
	require.Equal(t, []byte("x"), b.Data())
}

func TestByteBufferTruncate(t *testing.T) {
	b := NewByteBuffer()
	b.AppendBytes([]byte("abcdef"))
	b.Truncate(3)
	require.Equal(t, []byte("abc"), b.Data())
}

func TestByteBufferAppendZerosReturnsOffset(t *testing.T) {
	b := NewByteBuffer()
	b.AppendByte('x')
	off := b.AppendZeros(4)
	require.Equal(t, 1, off)
	require.Equal(t, 5, b.Size())
	for _, v := range b.Data()[off:] {
		require.Equal(t, byte(0), v)
	}
}

func TestByteBufferGrowsPastInlineCapacity(t *testing.T) {
	b := NewByteBuffer()
	big := make([]byte, inlineCapacity*3)
	for i := range big {
		big[i] = byte(i)
	}
	b.AppendBytes(big)
	require.Equal(t, len(big), b.Size())
	require.Equal(t, big, b.Data())
}

func TestByteBufferReserveIsIdempotentWhenEnoughSpare(t *testing.T) {
	b := NewByteBuffer()
	b.Reserve(10)
	capBefore := cap(b.Data())
	b.Reserve(5)
	require.Equal(t, capBefore, cap(b.Data()))
}
