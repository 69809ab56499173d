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

// vpack-dump renders a VelocyPack-encoded file as JSON text, the reverse
// direction of json-to-vpack. It exists so the Dumper has an exercised CLI
// entry point, mirroring how msgpacktool exercises the msgpack<->JSON
// transcoder in both directions.
//
// Usage:
//
//	vpack-dump [-fail-on-unsupported] [-dict FILE] INFILE [OUTFILE]
//
// -dict loads the name->id dictionary written by json-to-vpack -dict, so
// object keys that were compacted to integer ids on the way in are
// resolved back to their original names on the way out.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/murphyatwork/velocypack/internal/config"
	"github.com/murphyatwork/velocypack/vjson"
	"github.com/murphyatwork/velocypack/vpack"
)

var (
	failOnUnsupported = flag.Bool("fail-on-unsupported", false, "fail instead of emitting null for non-JSON tags")
	dictPath          = flag.String("dict", "", "path to the name->id dictionary written by json-to-vpack -dict")
)

func main() {
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(os.Stderr, "usage: vpack-dump [OPTIONS] INFILE [OUTFILE]")
		os.Exit(1)
	}

	data, err := readInput(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "vpack-dump: %v\n", err)
		os.Exit(1)
	}

	strategy := vjson.Suppress
	if *failOnUnsupported {
		strategy = vjson.Fail
	}

	var translator *vpack.Translator
	if *dictPath != "" {
		translator, err = loadTranslator(*dictPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "vpack-dump: loading dict: %v\n", err)
			os.Exit(1)
		}
	}

	var buf bytes.Buffer
	sink := vjson.NewWriterSink(&buf)
	opts := vjson.DumpOptions{Strategy: strategy, Translator: translator}
	if err := vjson.Dump(sink, vpack.SliceFromBytes(data), opts); err != nil {
		fmt.Fprintf(os.Stderr, "vpack-dump: %v\n", err)
		os.Exit(1)
	}

	if err := writeOutput(args, buf.Bytes()); err != nil {
		fmt.Fprintf(os.Stderr, "vpack-dump: %v\n", err)
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

// loadTranslator rebuilds a Translator from a dictionary side file,
// reassigning ids in the same 0-based, order-of-appearance fashion the
// original TranslatorBuilder used, so ids line up with the encoded file.
func loadTranslator(path string) (*vpack.Translator, error) {
	var dict config.TranslatorDict
	if err := config.LoadJSON(path, &dict); err != nil {
		return nil, err
	}
	tb := vpack.NewTranslatorBuilder()
	for _, name := range dict.Names {
		tb.Add(name)
	}
	return tb.Seal(), nil
}
