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
	"encoding/binary"
	"math"
)

// Options configures a Builder's encoding choices. The zero value is the
// conservative default: unsorted objects, no uniqueness check, no
// translator. Containers take the small form whenever Close's size
// thresholds allow it, whatever the options.
type Options struct {
	// BuildUnindexedArrays and BuildUnindexedObjects request the most
	// compact representation the close() thresholds allow (the behavior
	// Close already applies by default); they exist so a Parser or CLI
	// can plumb the --compact flag through without changing wire bytes
	// beyond what the small/large threshold already picks.
	BuildUnindexedArrays  bool
	BuildUnindexedObjects bool

	// SortAttributeNames, when true, orders each closed object's index
	// table by key bytes.
	SortAttributeNames bool

	// CheckAttributeUniqueness, when true, rejects a closed object (and
	// its nested objects) containing a repeated key.
	CheckAttributeUniqueness bool

	// Translator, if set, lets Key() emit a compact integer key in place
	// of a literal string for names the translator knows about.
	Translator *Translator
}

type frame struct {
	isObject       bool
	containerStart int
	entries        []int // array: one offset per entry; object: one offset per key
	expectKey      bool  // object only
	usedTranslator bool
}

// Builder incrementally assembles a single VPack value. It is writable
// while any container remains open on its stack, and sealed (Slice/Size
// become valid) once the stack empties after a root value has been
// written. Builder is not safe for concurrent use.
type Builder struct {
	buf         *ByteBuffer
	stack       []*frame
	rootWritten bool
	opts        Options
}

// NewBuilder returns an empty Builder with the given Options.
func NewBuilder(opts Options) *Builder {
	return &Builder{buf: NewByteBuffer(), opts: opts}
}

func (b *Builder) top() *frame {
	if len(b.stack) == 0 {
		return nil
	}
	return b.stack[len(b.stack)-1]
}

// beginValue validates that a new value (scalar or container) may start
// here, and returns the byte position it will start at.
func (b *Builder) beginValue() (int, error) {
	top := b.top()
	if top == nil {
		if b.rootWritten {
			return 0, newErr(ErrWrongContext, "builder already has a sealed root value")
		}
	} else if top.isObject && top.expectKey {
		return 0, newErr(ErrBadKey, "expected a key via Key(), not a value")
	}
	return b.buf.Size(), nil
}

// endValue records bookkeeping once a scalar value's bytes have been
// written at pos.
func (b *Builder) endValue(pos int) {
	top := b.top()
	if top == nil {
		b.rootWritten = true
		return
	}
	if top.isObject {
		top.expectKey = true
		return
	}
	top.entries = append(top.entries, pos-top.containerStart)
}

// Key declares the next entry of the currently open object. If a
// Translator is attached and knows name, the key is emitted as a compact
// integer; otherwise it is emitted as a literal string.
func (b *Builder) Key(name string) error {
	top := b.top()
	if top == nil || !top.isObject {
		return newErr(ErrWrongContext, "Key() outside an open object")
	}
	if !top.expectKey {
		return newErr(ErrWrongContext, "expected a value, not a key")
	}
	pos := b.buf.Size()
	if id, ok := b.opts.Translator.Lookup(name); ok {
		b.writeUnsignedScalar(id)
		top.usedTranslator = true
	} else {
		b.writeStringBytes(name)
	}
	top.entries = append(top.entries, pos-top.containerStart)
	top.expectKey = false
	return nil
}

// AddNull writes a Null value.
func (b *Builder) AddNull() error { return b.addScalar(func() { b.buf.AppendByte(tagNull) }) }

// AddBool writes a Bool value.
func (b *Builder) AddBool(v bool) error {
	return b.addScalar(func() {
		if v {
			b.buf.AppendByte(tagTrue)
		} else {
			b.buf.AppendByte(tagFalse)
		}
	})
}

// AddDouble writes a Double value. No canonicalization to SmallInt/Int is
// performed even if v holds an exact small integer.
func (b *Builder) AddDouble(v float64) error {
	return b.addScalar(func() {
		b.buf.AppendByte(tagDouble)
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
		b.buf.AppendBytes(tmp[:])
	})
}

// AddInt writes a signed integer, preferring SmallInt when v fits [-8..7].
func (b *Builder) AddInt(v int64) error {
	return b.addScalar(func() { b.writeSignedScalar(v) })
}

// AddUInt writes an unsigned integer, preferring SmallInt when v fits
// [0..7].
func (b *Builder) AddUInt(v uint64) error {
	return b.addScalar(func() { b.writeUnsignedScalar(v) })
}

// AddSmallInt writes v, which must be in [-8..7], directly as a SmallInt.
func (b *Builder) AddSmallInt(v int8) error {
	if !fitsSmallInt(int64(v)) {
		return newErr(ErrNumberOutOfRange, "smallint %d out of [-8..7]", v)
	}
	return b.addScalar(func() { b.buf.AppendByte(smallIntTag(int64(v))) })
}

// AddString writes a String value, choosing the short or long tag by
// length.
func (b *Builder) AddString(v string) error {
	return b.addScalar(func() { b.writeStringBytes(v) })
}

// AddBinary writes a Binary value with the minimal length-prefix width.
func (b *Builder) AddBinary(v []byte) error {
	return b.addScalar(func() {
		n := uintLength(uint64(len(v)))
		b.buf.AppendByte(tagBinaryBase + byte(n))
		appendUintLE(b.buf, uint64(len(v)), n)
		b.buf.AppendBytes(v)
	})
}

// AddUTCDate writes a UTCDate value holding ms milliseconds since epoch.
func (b *Builder) AddUTCDate(ms int64) error {
	return b.addScalar(func() {
		b.buf.AppendByte(tagUTCDate)
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(ms)^0x8000000000000000)
		b.buf.AppendBytes(tmp[:])
	})
}

// AddExternal writes an External value carrying an in-process handle. The
// encoded bytes are not meaningful outside this process.
func (b *Builder) AddExternal(handle uintptr) error {
	return b.addScalar(func() {
		b.buf.AppendByte(tagExternal)
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(handle))
		b.buf.AppendBytes(tmp[:])
	})
}

// AddID writes an ID value: a UInt length sub-value followed by a String
// payload sub-value.
func (b *Builder) AddID(id uint64, name string) error {
	return b.addScalar(func() {
		b.buf.AppendByte(tagID)
		b.writeForcedUInt(id)
		b.writeStringBytes(name)
	})
}

// AddArangoDBID writes the ArangoDB_id placeholder tag.
func (b *Builder) AddArangoDBID() error {
	return b.addScalar(func() { b.buf.AppendByte(tagArangoID) })
}

func (b *Builder) writeForcedUInt(v uint64) {
	n := uintLength(v)
	b.buf.AppendByte(tagUIntBase + byte(n))
	appendUintLE(b.buf, v, n)
}

func (b *Builder) addScalar(write func()) error {
	pos, err := b.beginValue()
	if err != nil {
		return err
	}
	write()
	b.endValue(pos)
	return nil
}

func (b *Builder) writeSignedScalar(v int64) {
	if fitsSmallInt(v) {
		b.buf.AppendByte(smallIntTag(v))
		return
	}
	if v >= 0 {
		n := uintLength(uint64(v))
		b.buf.AppendByte(tagIntPosBase + byte(n))
		appendUintLE(b.buf, uint64(v), n)
		return
	}
	mag := uint64(-v)
	n := uintLength(mag)
	b.buf.AppendByte(tagIntNegBase + byte(n))
	appendUintLE(b.buf, mag, n)
}

func (b *Builder) writeUnsignedScalar(v uint64) {
	if v <= 7 {
		b.buf.AppendByte(smallIntTag(int64(v)))
		return
	}
	n := uintLength(v)
	b.buf.AppendByte(tagUIntBase + byte(n))
	appendUintLE(b.buf, v, n)
}

func (b *Builder) writeStringBytes(v string) {
	k := len(v)
	if k <= 127 {
		b.buf.AppendByte(tagShortStringBase + byte(k))
		b.buf.AppendBytes([]byte(v))
		return
	}
	b.buf.AppendByte(tagLongString)
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(k))
	b.buf.AppendBytes(tmp[:])
	b.buf.AppendBytes([]byte(v))
}

func appendUintLE(buf *ByteBuffer, v uint64, n int) {
	var tmp [8]byte
	for i := 0; i < n; i++ {
		tmp[i] = byte(v)
		v >>= 8
	}
	buf.AppendBytes(tmp[:n])
}

// OpenArray begins an array. Entries are added with the Add* methods until
// Close is called.
func (b *Builder) OpenArray() error { return b.open(false) }

// OpenObject begins an object. Entries are added as Key/value pairs until
// Close is called.
func (b *Builder) OpenObject() error { return b.open(true) }

func (b *Builder) open(isObject bool) error {
	pos, err := b.beginValue()
	if err != nil {
		return err
	}
	if isObject {
		b.buf.AppendByte(tagObjectLarge)
	} else {
		b.buf.AppendByte(tagArrayLarge)
	}
	b.buf.AppendZeros(9) // 1-byte small-length slot + 8-byte long-length slot
	f := &frame{isObject: isObject, containerStart: pos, expectKey: isObject}
	b.stack = append(b.stack, f)
	return nil
}

// Close seals the innermost open container, choosing its final byte-length
// and index-table representation.
func (b *Builder) Close() error {
	top := b.top()
	if top == nil {
		return newErr(ErrWrongContext, "close with no open container")
	}
	if top.isObject && !top.expectKey {
		return newErr(ErrWrongContext, "object closed while awaiting a value")
	}

	tos := top.containerStart
	n := len(top.entries)
	data := b.buf.Data()
	payloadEnd := len(data)
	payloadBytes := payloadEnd - (tos + 10)

	// The tag's small/large form is the reader's only signal for the index
	// table's entry width, so it must track smallByteLength exactly: the
	// table is small iff the byte-length is, never decided independently.
	smallByteLength := false
	smallTable := false

	if n < 256 && (payloadBytes+1+2*n) < 256 {
		copy(data[tos+2:], data[tos+10:payloadEnd])
		b.buf.Truncate(payloadEnd - 8)
		for i := range top.entries {
			top.entries[i] -= 8
		}
		data = b.buf.Data()
		data[tos] = toSmallForm(data[tos])
		smallByteLength = true
		smallTable = true
	} else {
		data[tos] = toLargeForm(data[tos])
	}

	if top.isObject && b.opts.SortAttributeNames && n >= 2 && !top.usedTranslator {
		if err := sortEntriesByKey(b.buf.Data(), tos, top.entries); err != nil {
			return err
		}
	}

	// An empty container writes no index table at all: the zero byte left
	// behind by open()'s header reservation stands in for the count and is
	// overwritten by the byte-length below.
	if smallTable {
		for _, off := range top.entries {
			var tmp [2]byte
			binary.LittleEndian.PutUint16(tmp[:], uint16(off))
			b.buf.AppendBytes(tmp[:])
		}
		if n > 0 {
			b.buf.AppendByte(byte(n))
		}
	} else {
		for _, off := range top.entries {
			var tmp [8]byte
			binary.LittleEndian.PutUint64(tmp[:], uint64(off))
			b.buf.AppendBytes(tmp[:])
		}
		if n > 0 {
			var tmp [8]byte
			binary.LittleEndian.PutUint64(tmp[:], uint64(n))
			b.buf.AppendBytes(tmp[:])
		}
	}

	data = b.buf.Data()
	totalLen := len(data) - tos
	if smallByteLength {
		data[tos+1] = byte(totalLen)
	} else {
		data[tos+1] = 0
		binary.LittleEndian.PutUint64(data[tos+2:tos+10], uint64(totalLen))
	}

	if top.isObject && b.opts.CheckAttributeUniqueness {
		if err := checkAttributeUniqueness(SliceFromBytes(b.buf.Data()[tos:])); err != nil {
			return err
		}
	}

	b.stack = b.stack[:len(b.stack)-1]
	b.endValue(tos)
	return nil
}

func toSmallForm(tag byte) byte {
	switch tag {
	case tagArrayLarge:
		return tagArraySmall
	case tagObjectLarge:
		return tagObjectSmall
	}
	return tag
}

func toLargeForm(tag byte) byte {
	switch tag {
	case tagArraySmall:
		return tagArrayLarge
	case tagObjectSmall:
		return tagObjectLarge
	}
	return tag
}

// Slice returns a Slice over the sealed value. The stack must be empty.
func (b *Builder) Slice() (Slice, error) {
	if len(b.stack) != 0 || !b.rootWritten {
		return Slice{}, newErr(ErrWrongContext, "builder not sealed")
	}
	return SliceFromBytes(b.buf.Data()), nil
}

// Size returns the sealed value's byte length. The stack must be empty.
func (b *Builder) Size() (int, error) {
	if len(b.stack) != 0 || !b.rootWritten {
		return 0, newErr(ErrWrongContext, "builder not sealed")
	}
	return b.buf.Size(), nil
}

// Reset clears the Builder back to its initial empty state so it can be
// reused for another value.
func (b *Builder) Reset() {
	b.buf.Reset()
	b.stack = b.stack[:0]
	b.rootWritten = false
}
