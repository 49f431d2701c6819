package grammars

import (
	"sort"

	"github.com/odvcencio/sitter/gotreesitter"
)

// ParseBackend describes how a language's tokens are produced.
type ParseBackend string

const (
	ParseBackendUnsupported ParseBackend = "unsupported"
	ParseBackendDFA         ParseBackend = "dfa"
	ParseBackendExternal    ParseBackend = "dfa+external"
)

// ParseSupport summarizes parser support status for one registered language.
type ParseSupport struct {
	Name                    string
	LanguageVersion         uint32
	VersionCompatible       bool
	TablesValid             bool
	Backend                 ParseBackend
	Reason                  string
	HasDFALexer             bool
	HasKeywordLexer         bool
	RequiresExternalScanner bool
	HasExternalScanner      bool
	ScannerConsumesInput    bool
	Scanner                 string
	States                  uint32
	Symbols                 uint32
}

// EvaluateParseSupport reports whether a language can be parsed with its
// DFA lexer, and its external scanner when the tables need one.
func EvaluateParseSupport(entry LangEntry, lang *gotreesitter.Language) ParseSupport {
	report := ParseSupport{
		Name:                    entry.Name,
		LanguageVersion:         lang.Version,
		VersionCompatible:       lang.CompatibleWithRuntime(),
		HasDFALexer:             len(lang.LexStates) > 0,
		HasKeywordLexer:         len(lang.KeywordLexStates) > 0,
		RequiresExternalScanner: lang.ExternalTokenCount > 0,
		HasExternalScanner:      lang.ExternalScanner != nil,
		Scanner:                 ScannerName(lang),
		States:                  lang.StateCount,
		Symbols:                 lang.SymbolCount,
		Backend:                 ParseBackendUnsupported,
	}

	if !report.VersionCompatible {
		report.Reason = "language version is incompatible with runtime"
		return report
	}

	if err := lang.Validate(); err != nil {
		report.Reason = err.Error()
		return report
	}
	report.TablesValid = true

	if !report.HasDFALexer {
		report.Reason = "missing DFA lexer tables (LexStates)"
		return report
	}

	if report.RequiresExternalScanner {
		if !report.HasExternalScanner {
			report.Reason = "requires external scanner, but none is registered"
			return report
		}
		report.Backend = ParseBackendExternal
		report.Reason = "dfa lexer with external scanner"
		report.ScannerConsumesInput = scannerConsumesInput(lang)
		if !report.ScannerConsumesInput {
			report.Reason += "; scanner returns empty tokens"
		}
		return report
	}

	report.Backend = ParseBackendDFA
	report.Reason = "dfa lexer"
	return report
}

// scannerCheckInput is scanned once with every external token valid.
const scannerCheckInput = "ab\n cd"

// scannerConsumesInput runs lang's scanner at the start of
// scannerCheckInput. It reports false only when the scanner claims a token
// that covers no bytes, which the parser rejects.
func scannerConsumesInput(lang *gotreesitter.Language) bool {
	valid := make([]bool, lang.ExternalTokenCount)
	for i := range valid {
		valid[i] = true
	}
	payload := lang.ExternalScanner.Create()
	defer lang.ExternalScanner.Destroy(payload)

	lx := gotreesitter.NewExternalLexer([]byte(scannerCheckInput))
	if !gotreesitter.RunExternalScanner(lang, payload, lx, valid) {
		return true
	}
	tok, ok := lx.Token()
	return ok && tok.EndByte > tok.StartByte
}

// AuditParseSupport evaluates parse support for all registered languages.
func AuditParseSupport() []ParseSupport {
	entries := AllLanguages()
	reports := make([]ParseSupport, 0, len(entries))
	for _, entry := range entries {
		lang := entry.Language()
		reports = append(reports, EvaluateParseSupport(entry, lang))
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Name < reports[j].Name
	})
	return reports
}
