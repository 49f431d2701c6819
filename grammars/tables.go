package grammars

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/odvcencio/sitter/gotreesitter"
)

// ErrSchema is wrapped by loader errors for documents that do not match
// the table schema.
var ErrSchema = errors.New("grammars: table document does not match schema")

//go:embed language.schema.json
var languageSchemaJSON []byte

const languageSchemaURL = "language.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func languageSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(languageSchemaURL, bytes.NewReader(languageSchemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = compiler.Compile(languageSchemaURL)
	})
	return schema, schemaErr
}

// tableDocument is the on-disk form of a Language. The scanner is named,
// not serialized, and resolved through the scanner registry.
type tableDocument struct {
	Scanner string `yaml:"scanner,omitempty"`

	gotreesitter.Language `yaml:",inline"`
}

// cborDocument keeps the scanner name beside the tables. Key 0 is free
// because Language numbers its own keys from 1.
type cborDocument struct {
	Scanner  string                 `cbor:"0,keyasint,omitempty"`
	Language *gotreesitter.Language `cbor:"1,keyasint"`
}

// LoadLanguageYAML reads a YAML table document, checks it against the
// table schema, decodes it and validates the resulting tables.
func LoadLanguageYAML(r io.Reader) (*gotreesitter.Language, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read tables: %w", err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse tables: %w", err)
	}
	if err := validateDocument(raw); err != nil {
		return nil, err
	}

	var doc tableDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}
	return finishLanguage(doc.Scanner, &doc.Language)
}

// validateDocument runs the schema over a decoded YAML value. The value is
// round-tripped through JSON so numbers reach the validator as json.Number.
func validateDocument(raw any) error {
	sch, err := languageSchema()
	if err != nil {
		return fmt.Errorf("compile table schema: %w", err)
	}
	js, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(js))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return nil
}

// EncodeLanguageYAML writes lang as a YAML table document. scanner names
// the registered external scanner, or is empty.
func EncodeLanguageYAML(w io.Writer, lang *gotreesitter.Language, scanner string) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tableDocument{Scanner: scanner, Language: *lang}); err != nil {
		return fmt.Errorf("encode tables: %w", err)
	}
	return enc.Close()
}

// EncodeLanguageCBOR encodes lang with canonical CBOR, so equal tables
// always produce equal bytes.
func EncodeLanguageCBOR(lang *gotreesitter.Language, scanner string) ([]byte, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("create CBOR encoder: %w", err)
	}
	data, err := encMode.Marshal(cborDocument{Scanner: scanner, Language: lang})
	if err != nil {
		return nil, fmt.Errorf("encode tables: %w", err)
	}
	return data, nil
}

// DecodeLanguageCBOR decodes tables written by EncodeLanguageCBOR and
// validates them.
func DecodeLanguageCBOR(data []byte) (*gotreesitter.Language, error) {
	var doc cborDocument
	if err := cbor.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}
	if doc.Language == nil {
		return nil, fmt.Errorf("decode tables: %w", gotreesitter.ErrNoLanguage)
	}
	return finishLanguage(doc.Scanner, doc.Language)
}

// ScannerName returns the registered name of lang's external scanner, or
// "" when it has none or the scanner does not name itself.
func ScannerName(lang *gotreesitter.Language) string {
	if n, ok := lang.ExternalScanner.(NamedScanner); ok {
		return n.Name()
	}
	return ""
}

func finishLanguage(scanner string, lang *gotreesitter.Language) (*gotreesitter.Language, error) {
	if scanner != "" {
		s, err := NewScanner(scanner)
		if err != nil {
			return nil, fmt.Errorf("language %s: %w", lang.Name, err)
		}
		lang.ExternalScanner = s
	}
	if err := lang.Validate(); err != nil {
		return nil, err
	}
	return lang, nil
}
