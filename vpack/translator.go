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

// Translator is a frozen name<->id dictionary the Builder consults when
// emitting object keys, letting a repeated attribute name collapse to a
// compact integer key instead of a literal string. It is immutable once
// Seal()ed and safe for concurrent read-only use by many Builders and
// Parsers.
type Translator struct {
	names []string          // id i (0-based) -> name
	ids   map[string]uint64 // name -> id
}

// TranslatorBuilder accumulates name assignments before sealing them into
// an immutable Translator. It is not safe for concurrent use.
type TranslatorBuilder struct {
	names []string
	ids   map[string]uint64
}

// NewTranslatorBuilder returns an empty TranslatorBuilder.
func NewTranslatorBuilder() *TranslatorBuilder {
	return &TranslatorBuilder{ids: make(map[string]uint64)}
}

// Add assigns the next available id to name, returning that id. Adding the
// same name twice returns its existing id.
func (b *TranslatorBuilder) Add(name string) uint64 {
	if id, ok := b.ids[name]; ok {
		return id
	}
	id := uint64(len(b.names))
	b.names = append(b.names, name)
	b.ids[name] = id
	return id
}

// Seal freezes the accumulated assignments into a Translator.
func (b *TranslatorBuilder) Seal() *Translator {
	names := make([]string, len(b.names))
	copy(names, b.names)
	ids := make(map[string]uint64, len(b.ids))
	for k, v := range b.ids {
		ids[k] = v
	}
	return &Translator{names: names, ids: ids}
}

// Lookup resolves a literal key name to its compact id, if the translator
// carries one for it.
func (t *Translator) Lookup(name string) (id uint64, ok bool) {
	if t == nil {
		return 0, false
	}
	id, ok = t.ids[name]
	return id, ok
}

// NameByID resolves a compact id back to its literal key name, if known.
func (t *Translator) NameByID(id uint64) (name string, ok bool) {
	if t == nil || id >= uint64(len(t.names)) {
		return "", false
	}
	return t.names[id], true
}

// Len reports the number of distinct names the translator carries.
func (t *Translator) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}
