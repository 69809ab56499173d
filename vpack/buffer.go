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

// inlineCapacity is the small-object threshold below which a ByteBuffer
// avoids a heap allocation for its backing array.
const inlineCapacity = 160

// ByteBuffer is a growable byte arena used by Builder to accumulate a
// value's encoded bytes. It starts out backed by an inline array and
// switches to a heap slice once the value outgrows it, keeping
// small-object encoding allocation-free.
type ByteBuffer struct {
	inline [inlineCapacity]byte
	buf    []byte // buf[:len] is the live content; may alias inline[:]
}

// NewByteBuffer returns an empty ByteBuffer backed by its inline array.
func NewByteBuffer() *ByteBuffer {
	b := &ByteBuffer{}
	b.buf = b.inline[:0]
	return b
}

// Reset truncates the buffer to zero length without releasing capacity.
func (b *ByteBuffer) Reset() {
	b.buf = b.buf[:0]
}

// Size returns the number of live bytes.
func (b *ByteBuffer) Size() int { return len(b.buf) }

// Data returns the live byte region. The slice is invalidated by any
// subsequent mutating call on b.
func (b *ByteBuffer) Data() []byte { return b.buf }

// Reserve ensures at least additional bytes of spare capacity beyond the
// current length, growing geometrically (the runtime's append already does
// this; Reserve just forces it up front to avoid a mid-append copy during a
// tight loop of small appends).
func (b *ByteBuffer) Reserve(additional int) {
	need := len(b.buf) + additional
	if need <= cap(b.buf) {
		return
	}
	grown := make([]byte, len(b.buf), growCapacity(cap(b.buf), need))
	copy(grown, b.buf)
	b.buf = grown
}

// growCapacity picks a new capacity at least as large as need, growing the
// existing capacity by a 1.5x factor.
func growCapacity(have, need int) int {
	c := have
	if c == 0 {
		c = inlineCapacity
	}
	for c < need {
		c += c / 2 // x1.5 geometric growth
	}
	return c
}

// AppendByte appends a single byte.
func (b *ByteBuffer) AppendByte(v byte) {
	b.buf = append(b.buf, v)
}

// AppendBytes appends a byte slice.
func (b *ByteBuffer) AppendBytes(v []byte) {
	b.buf = append(b.buf, v...)
}

// AppendZeros appends n zero bytes, returning the offset at which they
// begin so the caller can patch them in place later.
func (b *ByteBuffer) AppendZeros(n int) int {
	start := len(b.buf)
	b.Reserve(n)
	b.buf = b.buf[:start+n]
	for i := start; i < start+n; i++ {
		b.buf[i] = 0
	}
	return start
}

// Truncate drops the buffer back to length n.
func (b *ByteBuffer) Truncate(n int) {
	b.buf = b.buf[:n]
}
