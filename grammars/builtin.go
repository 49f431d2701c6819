package grammars

import (
	"embed"
	"fmt"
	"sync"

	"github.com/odvcencio/sitter/gotreesitter"
)

//go:embed builtin/*.yaml
var builtinTables embed.FS

// builtinLoader loads an embedded table file on first use. The tables are
// part of the binary, so a load failure is a build defect and panics.
func builtinLoader(file string) func() *gotreesitter.Language {
	return sync.OnceValue(func() *gotreesitter.Language {
		f, err := builtinTables.Open("builtin/" + file)
		if err != nil {
			panic(fmt.Sprintf("grammars: open %s: %v", file, err))
		}
		defer f.Close()
		lang, err := LoadLanguageYAML(f)
		if err != nil {
			panic(fmt.Sprintf("grammars: load %s: %v", file, err))
		}
		return lang
	})
}

func init() {
	Register(LangEntry{
		Name:        "arithmetic",
		Extensions:  []string{".arith"},
		Shebangs:    []string{"#!/usr/bin/env arith"},
		Language:    builtinLoader("arithmetic.yaml"),
		Description: `sums of numbers, "1 + 22 + 3"`,
	})
	Register(LangEntry{
		Name:        "sum",
		Extensions:  []string{".sum"},
		Language:    builtinLoader("sum.yaml"),
		Description: "ambiguous E -> E + E; forks on every operator",
	})
	Register(LangEntry{
		Name:        "ambiguous",
		Extensions:  []string{".amb"},
		Language:    builtinLoader("ambiguous.yaml"),
		Description: "one token, two reductions picked by dynamic precedence",
	})
	Register(LangEntry{
		Name:        "depends_on_column",
		Extensions:  []string{".col"},
		Language:    builtinLoader("depends_on_column.yaml"),
		Description: "external scanner tokens named by column parity",
	})
	Register(LangEntry{
		Name:        "column_stub",
		Language:    builtinLoader("column_stub.yaml"),
		Description: "column scanner that never consumes input",
	})
}
