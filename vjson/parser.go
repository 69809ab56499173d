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

// Package vjson implements a recursive-descent JSON parser that drives a
// vpack.Builder, and a read-only Dumper that renders a vpack.Slice back to
// JSON text.
package vjson

import (
	"fmt"
	"math"
	"strconv"
	"unicode/utf16"

	"github.com/murphyatwork/velocypack/utf8validate"
	"github.com/murphyatwork/velocypack/vpack"
)

// ParserOptions configures both the Builder the parser drives and the
// parser's own input handling.
type ParserOptions struct {
	BuildUnindexedArrays     bool
	BuildUnindexedObjects    bool
	AttributeTranslator      *vpack.Translator
	SortAttributeNames       bool
	CheckAttributeUniqueness bool

	// Validate checks a decoded string's bytes are well-formed UTF-8.
	// Defaults to utf8validate.Default.
	Validate utf8validate.Validator
}

func (o ParserOptions) builderOptions() vpack.Options {
	return vpack.Options{
		BuildUnindexedArrays:     o.BuildUnindexedArrays,
		BuildUnindexedObjects:    o.BuildUnindexedObjects,
		SortAttributeNames:       o.SortAttributeNames,
		CheckAttributeUniqueness: o.CheckAttributeUniqueness,
		Translator:               o.AttributeTranslator,
	}
}

// Parse parses a single JSON value from data and returns the sealed VPack
// Slice the Builder produced.
func Parse(data []byte, opts ParserOptions) (vpack.Slice, error) {
	if opts.Validate == nil {
		opts.Validate = utf8validate.Default
	}
	b := vpack.NewBuilder(opts.builderOptions())
	p := &parser{data: data, b: b, validate: opts.Validate}
	p.skipWhitespace()
	if err := p.parseValue(); err != nil {
		return vpack.Slice{}, err
	}
	p.skipWhitespace()
	if p.pos != len(p.data) {
		return vpack.Slice{}, p.syntaxErr("trailing data after top-level value")
	}
	return b.Slice()
}

type parser struct {
	data     []byte
	pos      int
	b        *vpack.Builder
	validate utf8validate.Validator
}

func (p *parser) syntaxErr(format string, args ...interface{}) *vpack.Error {
	return &vpack.Error{Kind: vpack.ErrSyntax, Offset: p.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func (p *parser) skipWhitespace() {
	for p.pos < len(p.data) && p.isWhitespace(p.data[p.pos]) {
		p.pos++
	}
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.data) {
		return 0, false
	}
	return p.data[p.pos], true
}

func (p *parser) parseValue() error {
	c, ok := p.peek()
	if !ok {
		return p.syntaxErr("unexpected end of input, expected a value")
	}
	switch {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		s, err := p.parseStringLiteral()
		if err != nil {
			return err
		}
		return p.b.AddString(s)
	case c == 't':
		return p.expectLiteral("true", func() error { return p.b.AddBool(true) })
	case c == 'f':
		return p.expectLiteral("false", func() error { return p.b.AddBool(false) })
	case c == 'n':
		return p.expectLiteral("null", func() error { return p.b.AddNull() })
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return p.syntaxErr("unexpected character %q, expected a value", c)
	}
}

func (p *parser) expectLiteral(lit string, add func() error) error {
	if p.pos+len(lit) > len(p.data) || string(p.data[p.pos:p.pos+len(lit)]) != lit {
		return p.syntaxErr("invalid literal, expected %q", lit)
	}
	p.pos += len(lit)
	return add()
}

func (p *parser) parseObject() error {
	start := p.pos
	p.pos++ // '{'
	if err := p.b.OpenObject(); err != nil {
		return err
	}
	p.skipWhitespace()
	if c, ok := p.peek(); ok && c == '}' {
		p.pos++
		return p.b.Close()
	}
	for {
		p.skipWhitespace()
		c, ok := p.peek()
		if !ok {
			return p.syntaxErr("unterminated object starting at offset %d", start)
		}
		if c != '"' {
			return p.syntaxErr("expected a string key, got %q", c)
		}
		key, err := p.parseStringLiteral()
		if err != nil {
			return err
		}
		p.skipWhitespace()
		if c, ok := p.peek(); !ok || c != ':' {
			return p.syntaxErr("expected ':' after object key")
		}
		p.pos++
		p.skipWhitespace()
		if err := p.b.Key(key); err != nil {
			return err
		}
		if err := p.parseValue(); err != nil {
			return err
		}
		p.skipWhitespace()
		c, ok = p.peek()
		if !ok {
			return p.syntaxErr("unterminated object starting at offset %d", start)
		}
		switch c {
		case ',':
			p.pos++
			continue
		case '}':
			p.pos++
			return p.b.Close()
		default:
			return p.syntaxErr("expected ',' or '}', got %q", c)
		}
	}
}

func (p *parser) parseArray() error {
	start := p.pos
	p.pos++ // '['
	if err := p.b.OpenArray(); err != nil {
		return err
	}
	p.skipWhitespace()
	if c, ok := p.peek(); ok && c == ']' {
		p.pos++
		return p.b.Close()
	}
	for {
		p.skipWhitespace()
		if _, ok := p.peek(); !ok {
			return p.syntaxErr("unterminated array starting at offset %d", start)
		}
		if err := p.parseValue(); err != nil {
			return err
		}
		p.skipWhitespace()
		c, ok := p.peek()
		if !ok {
			return p.syntaxErr("unterminated array starting at offset %d", start)
		}
		switch c {
		case ',':
			p.pos++
			continue
		case ']':
			p.pos++
			return p.b.Close()
		default:
			return p.syntaxErr("expected ',' or ']', got %q", c)
		}
	}
}

func (p *parser) parseStringLiteral() (string, error) {
	start := p.pos
	p.pos++ // opening quote
	var out []byte
	for {
		if p.pos >= len(p.data) {
			return "", p.syntaxErr("unterminated string starting at offset %d", start)
		}
		c := p.data[p.pos]
		switch {
		case c == '"':
			p.pos++
			if !p.validate(out) {
				return "", p.syntaxErr("invalid UTF-8 in string literal")
			}
			return string(out), nil
		case c == '\\':
			p.pos++
			decoded, err := p.parseEscape()
			if err != nil {
				return "", err
			}
			out = append(out, decoded...)
		case c < 0x20:
			return "", p.syntaxErr("control character %#02x in string literal", c)
		default:
			out = append(out, c)
			p.pos++
		}
	}
}

func (p *parser) parseEscape() ([]byte, error) {
	if p.pos >= len(p.data) {
		return nil, p.syntaxErr("unterminated escape sequence")
	}
	c := p.data[p.pos]
	p.pos++
	switch c {
	case '"':
		return []byte{'"'}, nil
	case '\\':
		return []byte{'\\'}, nil
	case '/':
		return []byte{'/'}, nil
	case 'b':
		return []byte{'\b'}, nil
	case 'f':
		return []byte{'\f'}, nil
	case 'n':
		return []byte{'\n'}, nil
	case 'r':
		return []byte{'\r'}, nil
	case 't':
		return []byte{'\t'}, nil
	case 'u':
		r1, err := p.parseHex4()
		if err != nil {
			return nil, err
		}
		if utf16.IsSurrogate(rune(r1)) {
			if p.pos+1 < len(p.data) && p.data[p.pos] == '\\' && p.data[p.pos+1] == 'u' {
				save := p.pos
				p.pos += 2
				r2, err := p.parseHex4()
				if err != nil {
					p.pos = save
				} else {
					combined := utf16.DecodeRune(rune(r1), rune(r2))
					if combined != unicodeReplacementChar {
						return []byte(string(combined)), nil
					}
					p.pos = save
				}
			}
			return []byte(string(rune(0xFFFD))), nil
		}
		return []byte(string(rune(r1))), nil
	default:
		return nil, p.syntaxErr("invalid escape character %q", c)
	}
}

const unicodeReplacementChar = rune(0xFFFD)

func (p *parser) parseHex4() (uint16, error) {
	if p.pos+4 > len(p.data) {
		return 0, p.syntaxErr("truncated \\u escape")
	}
	v, err := strconv.ParseUint(string(p.data[p.pos:p.pos+4]), 16, 16)
	if err != nil {
		return 0, p.syntaxErr("invalid \\u escape")
	}
	p.pos += 4
	return uint16(v), nil
}

func (p *parser) parseNumber() error {
	start := p.pos
	negative := false
	if p.data[p.pos] == '-' {
		negative = true
		p.pos++
	}
	digitsStart := p.pos
	for p.pos < len(p.data) && isDigit(p.data[p.pos]) {
		p.pos++
	}
	if p.pos == digitsStart {
		return p.syntaxErr("invalid number literal")
	}
	isFloat := false
	if p.pos < len(p.data) && p.data[p.pos] == '.' {
		isFloat = true
		p.pos++
		fracStart := p.pos
		for p.pos < len(p.data) && isDigit(p.data[p.pos]) {
			p.pos++
		}
		if p.pos == fracStart {
			return p.syntaxErr("invalid number literal: missing fractional digits")
		}
	}
	if p.pos < len(p.data) && (p.data[p.pos] == 'e' || p.data[p.pos] == 'E') {
		isFloat = true
		p.pos++
		if p.pos < len(p.data) && (p.data[p.pos] == '+' || p.data[p.pos] == '-') {
			p.pos++
		}
		expStart := p.pos
		for p.pos < len(p.data) && isDigit(p.data[p.pos]) {
			p.pos++
		}
		if p.pos == expStart {
			return p.syntaxErr("invalid number literal: missing exponent digits")
		}
	}
	literal := string(p.data[start:p.pos])
	if isFloat {
		f, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return p.syntaxErr("invalid number literal %q", literal)
		}
		return p.b.AddDouble(f)
	}

	magnitudeLiteral := literal
	if negative {
		magnitudeLiteral = literal[1:]
	}
	magnitude, err := strconv.ParseUint(magnitudeLiteral, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(literal, 64)
		if ferr != nil {
			return p.syntaxErr("number literal %q out of range", literal)
		}
		return p.b.AddDouble(f)
	}
	if negative {
		v, ok := negateMagnitude(magnitude)
		if !ok {
			f, _ := strconv.ParseFloat(literal, 64)
			return p.b.AddDouble(f)
		}
		return p.b.AddInt(v)
	}
	if magnitude <= math.MaxInt64 {
		return p.b.AddInt(int64(magnitude))
	}
	return p.b.AddUInt(magnitude)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// negateMagnitude returns -mag as an int64 without overflowing, or ok=false
// if mag exceeds the int64 negative range (|MinInt64| = 1<<63).
func negateMagnitude(mag uint64) (int64, bool) {
	if mag == 0 {
		return 0, true
	}
	if mag-1 > uint64(math.MaxInt64) {
		return 0, false
	}
	return -int64(mag-1) - 1, true
}
