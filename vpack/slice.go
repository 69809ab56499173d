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

// Slice is a zero-copy, read-only view over a byte region that begins with
// a VPack type tag. It borrows its backing array; it must not outlive any
// mutation of that array by a Builder.
type Slice struct {
	data []byte
}

// SliceFromBytes wraps data as a Slice. data need not be trimmed to the
// value's own ByteSize(); accessors never read past it.
func SliceFromBytes(data []byte) Slice { return Slice{data: data} }

// Bytes returns the raw bytes backing the Slice, unclipped.
func (s Slice) Bytes() []byte { return s.data }

func (s Slice) tag() byte {
	if len(s.data) == 0 {
		return tagNone
	}
	return s.data[0]
}

// Type reports the value's Kind by decoding its leading tag.
func (s Slice) Type() Kind { return kindOf(s.tag()) }

func (s Slice) IsNone() bool     { return s.Type() == KindNone }
func (s Slice) IsNull() bool     { return s.Type() == KindNull }
func (s Slice) IsBool() bool     { return s.Type() == KindBool }
func (s Slice) IsDouble() bool   { return s.Type() == KindDouble }
func (s Slice) IsArray() bool    { return s.Type() == KindArray }
func (s Slice) IsObject() bool   { return s.Type() == KindObject }
func (s Slice) IsExternal() bool { return s.Type() == KindExternal }
func (s Slice) IsID() bool       { return s.Type() == KindID }
func (s Slice) IsUTCDate() bool  { return s.Type() == KindUTCDate }
func (s Slice) IsInt() bool      { return s.Type() == KindInt }
func (s Slice) IsUInt() bool     { return s.Type() == KindUInt }
func (s Slice) IsSmallInt() bool { return s.Type() == KindSmallInt }
func (s Slice) IsString() bool   { return s.Type() == KindString }
func (s Slice) IsBinary() bool   { return s.Type() == KindBinary }
func (s Slice) IsArangoID() bool { return s.Type() == KindArangoID }

func (s Slice) need(n int) error {
	if len(s.data) < n {
		return newErr(ErrTypeMismatch, "truncated value: need %d bytes, have %d", n, len(s.data))
	}
	return nil
}

// ByteSize returns the total number of bytes this value occupies, tag
// through trailing index table (for compounds).
func (s Slice) ByteSize() (int, error) {
	tag := s.tag()
	switch {
	case tag == tagNone:
		return 1, nil
	case tag == tagNull, tag == tagFalse, tag == tagTrue:
		return 1, nil
	case tag == tagDouble:
		return 9, nil
	case tag == tagUTCDate:
		return 9, nil
	case tag == tagRawUInt:
		return 9, nil
	case tag == tagExternal:
		return 9, nil
	case tag == tagArangoID:
		return 1, nil
	case isArrayTag(tag), isObjectTag(tag):
		return s.compoundByteSize()
	case tag == tagID:
		return s.idByteSize()
	case tag == tagLongString:
		if err := s.need(9); err != nil {
			return 0, err
		}
		n := binary.LittleEndian.Uint64(s.data[1:9])
		return 9 + int(n), nil
	case isIntPosTag(tag):
		return 1 + int(tag-tagIntPosBase), nil
	case isIntNegTag(tag):
		return 1 + int(tag-tagIntNegBase), nil
	case isUIntTag(tag):
		return 1 + int(tag-tagUIntBase), nil
	case isSmallIntTag(tag):
		return 1, nil
	case isShortStringTag(tag):
		return 1 + int(tag-tagShortStringBase), nil
	case isBinaryTag(tag):
		n := int(tag - tagBinaryBase)
		if err := s.need(1 + n); err != nil {
			return 0, err
		}
		length := readUintLE(s.data[1 : 1+n])
		return 1 + n + int(length), nil
	}
	return 0, newErr(ErrTypeMismatch, "unrecognized tag %s", errTagString(tag))
}

func (s Slice) idByteSize() (int, error) {
	if err := s.need(2); err != nil {
		return 0, err
	}
	lenSlice := Slice{data: s.data[1:]}
	lenSize, err := lenSlice.ByteSize()
	if err != nil {
		return 0, err
	}
	if err := s.need(1 + lenSize + 1); err != nil {
		return 0, err
	}
	strSlice := Slice{data: s.data[1+lenSize:]}
	strSize, err := strSlice.ByteSize()
	if err != nil {
		return 0, err
	}
	return 1 + lenSize + strSize, nil
}

func (s Slice) compoundByteSize() (int, error) {
	tag := s.tag()
	if isSmallCompoundTag(tag) {
		if err := s.need(2); err != nil {
			return 0, err
		}
		return int(s.data[1]), nil
	}
	if err := s.need(10); err != nil {
		return 0, err
	}
	n := binary.LittleEndian.Uint64(s.data[2:10])
	return int(n), nil
}

func readUintLE(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// GetBool returns the boolean value of a Bool tag.
func (s Slice) GetBool() (bool, error) {
	switch s.tag() {
	case tagTrue:
		return true, nil
	case tagFalse:
		return false, nil
	}
	return false, newErr(ErrTypeMismatch, "not a bool: tag %s", errTagString(s.tag()))
}

// GetDouble returns the float64 value of a Double tag.
func (s Slice) GetDouble() (float64, error) {
	if s.tag() != tagDouble {
		return 0, newErr(ErrTypeMismatch, "not a double: tag %s", errTagString(s.tag()))
	}
	if err := s.need(9); err != nil {
		return 0, err
	}
	bits := binary.LittleEndian.Uint64(s.data[1:9])
	return math.Float64frombits(bits), nil
}

// GetInt returns the signed value of an Int tag (positive or negative
// magnitude variant).
func (s Slice) GetInt() (int64, error) {
	tag := s.tag()
	switch {
	case isIntPosTag(tag):
		n := int(tag - tagIntPosBase)
		if err := s.need(1 + n); err != nil {
			return 0, err
		}
		return int64(readUintLE(s.data[1 : 1+n])), nil
	case isIntNegTag(tag):
		n := int(tag - tagIntNegBase)
		if err := s.need(1 + n); err != nil {
			return 0, err
		}
		mag := readUintLE(s.data[1 : 1+n])
		return -int64(mag), nil
	}
	return 0, newErr(ErrTypeMismatch, "not an int: tag %s", errTagString(tag))
}

// GetUInt returns the unsigned value of a UInt tag.
func (s Slice) GetUInt() (uint64, error) {
	tag := s.tag()
	if tag == tagRawUInt {
		if err := s.need(9); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(s.data[1:9]), nil
	}
	if !isUIntTag(tag) {
		return 0, newErr(ErrTypeMismatch, "not a uint: tag %s", errTagString(tag))
	}
	n := int(tag - tagUIntBase)
	if err := s.need(1 + n); err != nil {
		return 0, err
	}
	return readUintLE(s.data[1 : 1+n]), nil
}

// GetSmallInt returns the value of a SmallInt tag, in [-8..7].
func (s Slice) GetSmallInt() (int8, error) {
	if !isSmallIntTag(s.tag()) {
		return 0, newErr(ErrTypeMismatch, "not a smallint: tag %s", errTagString(s.tag()))
	}
	return smallIntValue(s.tag()), nil
}

// GetUTCDate returns the millisecond timestamp encoded in a UTCDate tag.
// The payload's sign bit is flipped on the wire so raw byte comparison
// orders dates correctly; this undoes that flip.
func (s Slice) GetUTCDate() (int64, error) {
	if s.tag() != tagUTCDate {
		return 0, newErr(ErrTypeMismatch, "not a utc-date: tag %s", errTagString(s.tag()))
	}
	if err := s.need(9); err != nil {
		return 0, err
	}
	raw := binary.LittleEndian.Uint64(s.data[1:9])
	return int64(raw ^ 0x8000000000000000), nil
}

// GetExternal returns the opaque in-process handle carried by an External
// tag. It is not meaningful outside the process that produced it.
func (s Slice) GetExternal() (uintptr, error) {
	if s.tag() != tagExternal {
		return 0, newErr(ErrTypeMismatch, "not external: tag %s", errTagString(s.tag()))
	}
	if err := s.need(9); err != nil {
		return 0, err
	}
	return uintptr(binary.LittleEndian.Uint64(s.data[1:9])), nil
}

// GetString returns the decoded string payload and its byte length.
func (s Slice) GetString() (string, int, error) {
	tag := s.tag()
	switch {
	case isShortStringTag(tag):
		k := int(tag - tagShortStringBase)
		if err := s.need(1 + k); err != nil {
			return "", 0, err
		}
		return string(s.data[1 : 1+k]), k, nil
	case tag == tagLongString:
		if err := s.need(9); err != nil {
			return "", 0, err
		}
		n := int(binary.LittleEndian.Uint64(s.data[1:9]))
		if err := s.need(9 + n); err != nil {
			return "", 0, err
		}
		return string(s.data[9 : 9+n]), n, nil
	}
	return "", 0, newErr(ErrTypeMismatch, "not a string: tag %s", errTagString(tag))
}

// GetBinary returns the raw payload of a Binary tag.
func (s Slice) GetBinary() ([]byte, error) {
	tag := s.tag()
	if !isBinaryTag(tag) {
		return nil, newErr(ErrTypeMismatch, "not binary: tag %s", errTagString(tag))
	}
	n := int(tag - tagBinaryBase)
	if err := s.need(1 + n); err != nil {
		return nil, err
	}
	length := int(readUintLE(s.data[1 : 1+n]))
	if err := s.need(1 + n + length); err != nil {
		return nil, err
	}
	return s.data[1+n : 1+n+length], nil
}

// GetID returns the decoded (id, name) pair of an ID tag's UInt length and
// String payload sub-values.
func (s Slice) GetID() (uint64, string, error) {
	if s.tag() != tagID {
		return 0, "", newErr(ErrTypeMismatch, "not an id: tag %s", errTagString(s.tag()))
	}
	if err := s.need(2); err != nil {
		return 0, "", err
	}
	idSlice := Slice{data: s.data[1:]}
	id, err := idSlice.GetUInt()
	if err != nil {
		return 0, "", err
	}
	idSize, err := idSlice.ByteSize()
	if err != nil {
		return 0, "", err
	}
	nameSlice := Slice{data: s.data[1+idSize:]}
	name, _, err := nameSlice.GetString()
	if err != nil {
		return 0, "", err
	}
	return id, name, nil
}

// Length returns the number of entries in an array or object.
func (s Slice) Length() (int, error) {
	tag := s.tag()
	if !isCompoundTag(tag) {
		return 0, newErr(ErrTypeMismatch, "not a compound: tag %s", errTagString(tag))
	}
	byteLen, err := s.compoundByteSize()
	if err != nil {
		return 0, err
	}
	if err := s.need(byteLen); err != nil {
		return 0, err
	}
	if isSmallCompoundTag(tag) {
		// byteLen == 2 means the container is empty: there is no trailing
		// count byte, just the tag and the byte-length that overwrote it.
		if byteLen == 2 {
			return 0, nil
		}
		return int(s.data[byteLen-1]), nil
	}
	return int(binary.LittleEndian.Uint64(s.data[byteLen-8 : byteLen])), nil
}

func (s Slice) indexEntryOffset(i int) (int, error) {
	tag := s.tag()
	byteLen, err := s.compoundByteSize()
	if err != nil {
		return 0, err
	}
	if isSmallCompoundTag(tag) {
		n := 0
		if byteLen > 2 {
			n = int(s.data[byteLen-1])
		}
		if i < 0 || i >= n {
			return 0, newErr(ErrOutOfBoundsIndex, "index %d out of bounds (length %d)", i, n)
		}
		tableStart := byteLen - 1 - n*2
		off := int(binary.LittleEndian.Uint16(s.data[tableStart+i*2 : tableStart+i*2+2]))
		return off, nil
	}
	n := int(binary.LittleEndian.Uint64(s.data[byteLen-8 : byteLen]))
	if i < 0 || i >= n {
		return 0, newErr(ErrOutOfBoundsIndex, "index %d out of bounds (length %d)", i, n)
	}
	tableStart := byteLen - 8 - n*8
	off := int(binary.LittleEndian.Uint64(s.data[tableStart+i*8 : tableStart+i*8+8]))
	return off, nil
}

// At returns the i-th element of an array, or the i-th value of an object
// (by layout order, not key order), in O(1) via the index table.
func (s Slice) At(i int) (Slice, error) {
	tag := s.tag()
	off, err := s.indexEntryOffset(i)
	if err != nil {
		return Slice{}, err
	}
	if isArrayTag(tag) {
		return Slice{data: s.data[off:]}, nil
	}
	// Object: the index table points at the key; the value follows it.
	key := Slice{data: s.data[off:]}
	keySize, err := key.ByteSize()
	if err != nil {
		return Slice{}, err
	}
	return Slice{data: s.data[off+keySize:]}, nil
}

// KeyAt returns the i-th key of an object, by the index table's order
// (sorted, if the Builder sorted it; layout order otherwise).
func (s Slice) KeyAt(i int) (Slice, error) {
	if !isObjectTag(s.tag()) {
		return Slice{}, newErr(ErrTypeMismatch, "not an object: tag %s", errTagString(s.tag()))
	}
	off, err := s.indexEntryOffset(i)
	if err != nil {
		return Slice{}, err
	}
	return Slice{data: s.data[off:]}, nil
}

// ValueAt returns the i-th value of an object, matching KeyAt's order.
func (s Slice) ValueAt(i int) (Slice, error) {
	if !isObjectTag(s.tag()) {
		return Slice{}, newErr(ErrTypeMismatch, "not an object: tag %s", errTagString(s.tag()))
	}
	return s.At(i)
}
