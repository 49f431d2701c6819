package grammars

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/sitter/gotreesitter"
)

const tinyTables = `
name: tiny
symbol_count: 3
token_count: 2
state_count: 3
symbol_names: [EOF, x, start]
symbol_metadata:
  - {name: EOF}
  - {name: x, visible: true, named: true}
  - {name: start, visible: true, named: true}
parse_actions:
  - {}
  - actions: [{type: shift, state: 1}]
  - actions: [{type: reduce, symbol: 2, child_count: 1}]
  - actions: [{type: shift, state: 2}]
  - actions: [{type: accept}]
parse_table:
  - [0, 1, 3]
  - [2, 0, 0]
  - [4, 0, 0]
lex_modes: [{lex_state: 0}, {lex_state: 0}, {lex_state: 0}]
lex_states:
  - default: -1
    eof: -1
    transitions: [{lo: 120, hi: 120, next: 1}]
  - {accept_token: 1, default: -1, eof: -1}
`

func TestLoadLanguageYAML(t *testing.T) {
	lang, err := LoadLanguageYAML(strings.NewReader(tinyTables))
	require.NoError(t, err)
	assert.Equal(t, "tiny", lang.Name)
	assert.Equal(t, gotreesitter.ParseActionReduce, lang.ParseActions[2].Actions[0].Type)
	assert.Equal(t, -1, lang.LexStates[1].Default)

	tree := gotreesitter.NewParser(lang).Parse([]byte("x"))
	assert.Equal(t, "(start (x))", tree.String())
}

func TestLoadLanguageYAMLSchemaErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown key":      strings.Replace(tinyTables, "name: tiny", "name: tiny\ncolour: blue", 1),
		"missing required": strings.Replace(tinyTables, "state_count: 3\n", "", 1),
		"bad action type":  strings.Replace(tinyTables, "type: accept", "type: goto", 1),
		"reduce no symbol": strings.Replace(tinyTables, "{type: reduce, symbol: 2, child_count: 1}", "{type: reduce, child_count: 1}", 1),
		"negative count":   strings.Replace(tinyTables, "token_count: 2", "token_count: -2", 1),
		"lex state no eof": strings.Replace(tinyTables, "{accept_token: 1, default: -1, eof: -1}", "{accept_token: 1, default: -1}", 1),
		"symbol too large": strings.Replace(tinyTables, "symbol: 2,", "symbol: 70000,", 1),
		"names not list":   strings.Replace(tinyTables, "symbol_names: [EOF, x, start]", "symbol_names: EOF", 1),
		"quoted count":     strings.Replace(tinyTables, "token_count: 2", `token_count: "2"`, 1),
		"fractional state": strings.Replace(tinyTables, "{type: shift, state: 1}", "{type: shift, state: 1.5}", 1),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadLanguageYAML(strings.NewReader(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSchema), "err = %v", err)
		})
	}
}

func TestLoadLanguageYAMLValidatesTables(t *testing.T) {
	doc := strings.Replace(tinyTables, "[2, 0, 0]", "[9, 0, 0]", 1)
	_, err := LoadLanguageYAML(strings.NewReader(doc))
	require.Error(t, err)
	assert.ErrorIs(t, err, gotreesitter.ErrInvalidLanguage)
	assert.NotErrorIs(t, err, ErrSchema)
}

func TestLoadLanguageYAMLUnknownScanner(t *testing.T) {
	doc := "scanner: heredoc\n" + tinyTables
	_, err := LoadLanguageYAML(strings.NewReader(doc))
	assert.ErrorIs(t, err, ErrUnknownScanner)
}

func TestLoadLanguageYAMLSyntaxError(t *testing.T) {
	_, err := LoadLanguageYAML(strings.NewReader("name: [unclosed"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSchema)
}

// ignoreScanner compares scanners by their registered name.
var ignoreScanner = cmp.Comparer(func(a, b gotreesitter.ExternalScanner) bool {
	an, _ := a.(NamedScanner)
	bn, _ := b.(NamedScanner)
	if an == nil || bn == nil {
		return a == nil && b == nil
	}
	return an.Name() == bn.Name()
})

func TestCBORRoundTrip(t *testing.T) {
	for _, entry := range AllLanguages() {
		t.Run(entry.Name, func(t *testing.T) {
			lang := entry.Language()
			data, err := EncodeLanguageCBOR(lang, ScannerName(lang))
			require.NoError(t, err)

			back, err := DecodeLanguageCBOR(data)
			require.NoError(t, err)
			if diff := cmp.Diff(lang, back, cmpopts.EquateEmpty(), ignoreScanner); diff != "" {
				t.Errorf("CBOR round trip (-want +got):\n%s", diff)
			}

			again, err := EncodeLanguageCBOR(back, ScannerName(back))
			require.NoError(t, err)
			assert.True(t, bytes.Equal(data, again), "canonical encoding is not stable")
		})
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	for _, entry := range AllLanguages() {
		t.Run(entry.Name, func(t *testing.T) {
			lang := entry.Language()
			var buf bytes.Buffer
			require.NoError(t, EncodeLanguageYAML(&buf, lang, ScannerName(lang)))

			back, err := LoadLanguageYAML(&buf)
			require.NoError(t, err)
			if diff := cmp.Diff(lang, back, cmpopts.EquateEmpty(), ignoreScanner); diff != "" {
				t.Errorf("YAML round trip (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeLanguageCBORErrors(t *testing.T) {
	_, err := DecodeLanguageCBOR([]byte{0xff, 0x00})
	assert.Error(t, err)

	empty, err := EncodeLanguageCBOR(nil, "")
	require.NoError(t, err)
	_, err = DecodeLanguageCBOR(empty)
	assert.ErrorIs(t, err, gotreesitter.ErrNoLanguage)

	lang, err := LoadLanguageYAML(strings.NewReader(tinyTables))
	require.NoError(t, err)
	lang.StateCount = 7
	data, err := EncodeLanguageCBOR(lang, "")
	require.NoError(t, err)
	_, err = DecodeLanguageCBOR(data)
	assert.ErrorIs(t, err, gotreesitter.ErrInvalidLanguage)
}

func TestScannerRegistry(t *testing.T) {
	assert.Equal(t, []string{"column_parity", "column_stub"}, ScannerNames())

	s, err := NewScanner("column_parity")
	require.NoError(t, err)
	assert.IsType(t, ColumnParityScanner{}, s)

	_, err = NewScanner("nope")
	assert.ErrorIs(t, err, ErrUnknownScanner)
}

func TestColumnParityScanner(t *testing.T) {
	entry, err := Lookup("depends_on_column")
	require.NoError(t, err)
	src := []byte("abc\nde")
	tree := gotreesitter.NewParser(entry.Language()).Parse(src)
	require.False(t, tree.RootNode().HasError(), tree.String())

	var got []string
	tree.RootNode().Walk(func(n *gotreesitter.Node) bool {
		if n.ChildCount() == 0 {
			got = append(got, n.Text(src)+":"+n.Type(nil))
		}
		return true
	})
	assert.Equal(t, []string{
		"a:even_column", "b:odd_column", "c:even_column", "\n:odd_column",
		"d:even_column", "e:odd_column",
	}, got)
}
