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
	"fmt"
	"io"
	"strconv"

	"github.com/murphyatwork/velocypack/vpack"
)

// Strategy controls how the Dumper handles a tag with no JSON
// representation (None, Binary, BCD, UTCDate, ID, ArangoDB_id).
type Strategy int

const (
	// Suppress renders every non-JSON value as null, wherever it appears;
	// an object entry holding such a value is kept (as "key":null), not
	// omitted.
	Suppress Strategy = iota
	// Fail raises UnsupportedType instead.
	Fail
)

// ByteSink is the narrow write capability the Dumper needs: enough to
// stream JSON text out without depending on a concrete buffer type.
type ByteSink interface {
	AppendByte(b byte) error
	AppendBytes(b []byte) error
}

// writerSink adapts an io.Writer to ByteSink.
type writerSink struct{ w io.Writer }

// NewWriterSink wraps w as a ByteSink.
func NewWriterSink(w io.Writer) ByteSink { return &writerSink{w: w} }

func (s *writerSink) AppendByte(b byte) error {
	_, err := s.w.Write([]byte{b})
	return err
}

func (s *writerSink) AppendBytes(b []byte) error {
	_, err := s.w.Write(b)
	return err
}

// DumpOptions configures the Dumper.
type DumpOptions struct {
	Strategy Strategy
	// Translator, if set, resolves an integer object key back to its
	// original name.
	Translator *vpack.Translator
}

// Dump renders s as JSON text into sink.
func Dump(sink ByteSink, s vpack.Slice, opts DumpOptions) error {
	d := &dumper{sink: sink, opts: opts}
	return d.dumpValue(s)
}

type dumper struct {
	sink ByteSink
	opts DumpOptions
}

func (d *dumper) write(s string) error { return d.sink.AppendBytes([]byte(s)) }

func (d *dumper) dumpValue(s vpack.Slice) error {
	switch s.Type() {
	case vpack.KindNull:
		return d.write("null")
	case vpack.KindBool:
		v, err := s.GetBool()
		if err != nil {
			return err
		}
		if v {
			return d.write("true")
		}
		return d.write("false")
	case vpack.KindDouble:
		v, err := s.GetDouble()
		if err != nil {
			return err
		}
		return d.write(strconv.FormatFloat(v, 'g', -1, 64))
	case vpack.KindInt:
		v, err := s.GetInt()
		if err != nil {
			return err
		}
		return d.write(strconv.FormatInt(v, 10))
	case vpack.KindUInt:
		v, err := s.GetUInt()
		if err != nil {
			return err
		}
		return d.write(strconv.FormatUint(v, 10))
	case vpack.KindSmallInt:
		v, err := s.GetSmallInt()
		if err != nil {
			return err
		}
		return d.write(strconv.FormatInt(int64(v), 10))
	case vpack.KindString:
		v, _, err := s.GetString()
		if err != nil {
			return err
		}
		return d.dumpString(v)
	case vpack.KindArray:
		return d.dumpArray(s)
	case vpack.KindObject:
		return d.dumpObject(s)
	default:
		return d.dumpUnsupported(s)
	}
}

func (d *dumper) dumpUnsupported(s vpack.Slice) error {
	if d.opts.Strategy == Fail {
		return &vpack.Error{Kind: vpack.ErrUnsupportedType, Message: fmt.Sprintf("tag %s has no JSON representation", s.Type())}
	}
	return d.write("null")
}

func (d *dumper) dumpArray(s vpack.Slice) error {
	n, err := s.Length()
	if err != nil {
		return err
	}
	if err := d.sink.AppendByte('['); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if i > 0 {
			if err := d.sink.AppendByte(','); err != nil {
				return err
			}
		}
		elem, err := s.At(i)
		if err != nil {
			return err
		}
		if err := d.dumpValue(elem); err != nil {
			return err
		}
	}
	return d.sink.AppendByte(']')
}

func (d *dumper) dumpObject(s vpack.Slice) error {
	n, err := s.Length()
	if err != nil {
		return err
	}
	if err := d.sink.AppendByte('{'); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if i > 0 {
			if err := d.sink.AppendByte(','); err != nil {
				return err
			}
		}
		key, err := s.KeyAt(i)
		if err != nil {
			return err
		}
		name, err := d.resolveKeyName(key)
		if err != nil {
			return err
		}
		if err := d.dumpString(name); err != nil {
			return err
		}
		if err := d.sink.AppendByte(':'); err != nil {
			return err
		}
		value, err := s.ValueAt(i)
		if err != nil {
			return err
		}
		if err := d.dumpValue(value); err != nil {
			return err
		}
	}
	return d.sink.AppendByte('}')
}

func (d *dumper) resolveKeyName(key vpack.Slice) (string, error) {
	switch key.Type() {
	case vpack.KindString:
		name, _, err := key.GetString()
		return name, err
	case vpack.KindSmallInt, vpack.KindInt, vpack.KindUInt:
		var id uint64
		switch key.Type() {
		case vpack.KindSmallInt:
			v, err := key.GetSmallInt()
			if err != nil {
				return "", err
			}
			id = uint64(v)
		case vpack.KindInt:
			v, err := key.GetInt()
			if err != nil {
				return "", err
			}
			id = uint64(v)
		case vpack.KindUInt:
			v, err := key.GetUInt()
			if err != nil {
				return "", err
			}
			id = v
		}
		if name, ok := d.opts.Translator.NameByID(id); ok {
			return name, nil
		}
		if d.opts.Strategy == Fail {
			return "", &vpack.Error{Kind: vpack.ErrUnsupportedType, Message: "translator-keyed object entry has no known name"}
		}
		return strconv.FormatUint(id, 10), nil
	default:
		return "", &vpack.Error{Kind: vpack.ErrTypeMismatch, Message: "object key is not a recognized key tag"}
	}
}

// dumpString writes v as a double-quoted JSON string, escaping control
// characters, '"' and '\\'. Multi-byte UTF-8 sequences are copied verbatim;
// the caller is responsible for v's validity, as the parser guarantees.
func (d *dumper) dumpString(v string) error {
	if err := d.sink.AppendByte('"'); err != nil {
		return err
	}
	start := 0
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c >= 0x20 && c != '"' && c != '\\' {
			continue
		}
		if i > start {
			if err := d.sink.AppendBytes([]byte(v[start:i])); err != nil {
				return err
			}
		}
		if err := d.writeEscape(c); err != nil {
			return err
		}
		start = i + 1
	}
	if start < len(v) {
		if err := d.sink.AppendBytes([]byte(v[start:])); err != nil {
			return err
		}
	}
	return d.sink.AppendByte('"')
}

func (d *dumper) writeEscape(c byte) error {
	switch c {
	case '"':
		return d.write(`\"`)
	case '\\':
		return d.write(`\\`)
	case '\b':
		return d.write(`\b`)
	case '\f':
		return d.write(`\f`)
	case '\n':
		return d.write(`\n`)
	case '\r':
		return d.write(`\r`)
	case '\t':
		return d.write(`\t`)
	default:
		return d.write(fmt.Sprintf(`\u%04x`, c))
	}
}
