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

// json-to-vpack converts a JSON document to its VelocyPack encoding.
//
// Usage:
//
//	json-to-vpack [OPTIONS] INFILE [OUTFILE]
//
// INFILE of "-" reads from stdin; an omitted OUTFILE writes to stdout.
// --compress pre-scans the input for attribute names repeated at least
// twice and at least two bytes long, and has the parser emit those keys
// as compact integer IDs instead of literal strings; id 0 is reserved,
// so assigned IDs run 1..N. --dict writes the resulting name->id
// assignment to a side file so a later vpack-dump -dict invocation can
// resolve the compacted keys back to their original names.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/murphyatwork/velocypack/internal/config"
	"github.com/murphyatwork/velocypack/vjson"
	"github.com/murphyatwork/velocypack/vpack"
)

var (
	compact    = flag.Bool("compact", true, "emit small-variant compact containers where feasible")
	noCompact  = flag.Bool("no-compact", false, "disable compact container emission")
	compress   = flag.Bool("compress", false, "build and attach an attribute-name translator")
	noCompress = flag.Bool("no-compress", false, "disable attribute-name translation")
	dictPath   = flag.String("dict", "", "path to write the translator's name->id dictionary (requires --compress)")
)

func main() {
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(os.Stderr, "usage: json-to-vpack [OPTIONS] INFILE [OUTFILE]")
		os.Exit(1)
	}

	useCompact := *compact && !*noCompact
	useCompress := *compress && !*noCompress

	data, err := readInput(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "json-to-vpack: %v\n", err)
		os.Exit(1)
	}

	var translator *vpack.Translator
	if useCompress {
		translator, err = buildTranslator(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "json-to-vpack: %v\n", err)
			os.Exit(1)
		}
		if translator != nil && *dictPath != "" {
			dict := config.TranslatorDict{Names: make([]string, translator.Len())}
			for id := range dict.Names {
				name, _ := translator.NameByID(uint64(id))
				dict.Names[id] = name
			}
			if err := config.SaveJSON(*dictPath, dict, true); err != nil {
				fmt.Fprintf(os.Stderr, "json-to-vpack: writing dict: %v\n", err)
				os.Exit(1)
			}
		}
	}

	slice, err := vjson.Parse(data, vjson.ParserOptions{
		BuildUnindexedArrays:     useCompact,
		BuildUnindexedObjects:    useCompact,
		AttributeTranslator:      translator,
		SortAttributeNames:       true,
		CheckAttributeUniqueness: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "json-to-vpack: %v\n", err)
		os.Exit(1)
	}

	if err := writeOutput(args, slice.Bytes()); err != nil {
		fmt.Fprintf(os.Stderr, "json-to-vpack: %v\n", err)
		os.Exit(1)
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(args []string, data []byte) error {
	if len(args) < 2 || args[1] == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(args[1], data, 0o644)
}

// buildTranslator scans data for object keys repeated at least twice, at
// least two bytes long, and assigns them ids 1..N ordered by descending
// frequency (ties broken by name) so the most space is reclaimed first.
func buildTranslator(data []byte) (*vpack.Translator, error) {
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	counts := map[string]int{}
	countKeys(generic, counts)

	type candidate struct {
		name  string
		count int
	}
	var candidates []candidate
	for name, count := range counts {
		if count >= 2 {
			candidates = append(candidates, candidate{name, count})
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count > candidates[j].count
		}
		return candidates[i].name < candidates[j].name
	})

	tb := vpack.NewTranslatorBuilder()
	tb.Add("") // id 0 reserved
	for _, c := range candidates {
		tb.Add(c.name)
	}
	return tb.Seal(), nil
}

func countKeys(v interface{}, counts map[string]int) {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			if len(k) >= 2 {
				counts[k]++
			}
			countKeys(val, counts)
		}
	case []interface{}:
		for _, e := range t {
			countKeys(e, counts)
		}
	}
}
