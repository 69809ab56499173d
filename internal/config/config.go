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

// Package config provides the small file-based persistence the CLI front
// ends need: loading/saving arbitrary JSON-shaped values, and the
// attribute-translation dictionary's side-file format.
package config

import (
	"encoding/json"
	"io"
	"os"
)

// NewFormattedJSONEncoder returns a json.Encoder configured for
// pretty-printed, non-HTML-escaped output.
func NewFormattedJSONEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc
}

// LoadJSON decodes the JSON file at path into v.
func LoadJSON(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(v)
}

// SaveJSON writes v to path as JSON, pretty-printed if pretty is set.
func SaveJSON(path string, v interface{}, pretty bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if pretty {
		return NewFormattedJSONEncoder(f).Encode(v)
	}
	return json.NewEncoder(f).Encode(v)
}

// TranslatorDict is the on-disk form of an attribute-translation
// dictionary: Names[i] is the name assigned id i (0-based).
type TranslatorDict struct {
	Names []string `json:"names"`
}
