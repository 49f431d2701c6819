// Package gotreesitter implements a pure Go incremental GLR parsing runtime
// in the style of tree-sitter.
//
// This file defines the compiled tables a grammar is loaded into. Tables are
// produced by a grammar compiler, loaded once, and shared read-only by every
// Parser and Tree that references them.
package gotreesitter

import "fmt"

// Symbol is a grammar symbol ID (terminal or nonterminal).
type Symbol uint16

// StateID is a parser state index.
type StateID uint16

// FieldID is a named field index.
type FieldID uint16

const (
	// EOFSymbol is the symbol of the end-of-input token.
	EOFSymbol Symbol = 0
	// ErrorSymbol is the well-known symbol of error nodes and error tokens.
	ErrorSymbol Symbol = 65535
)

// Runtime compatibility window for generated tables. Hand-built languages
// leave Version at zero, which always matches.
const (
	LanguageVersion              = 14
	MinCompatibleLanguageVersion = 13
)

// ParseActionType identifies the kind of parse action.
type ParseActionType uint8

const (
	ParseActionShift ParseActionType = iota
	ParseActionReduce
	ParseActionAccept
	ParseActionRecover
)

func (t ParseActionType) String() string {
	switch t {
	case ParseActionShift:
		return "shift"
	case ParseActionReduce:
		return "reduce"
	case ParseActionAccept:
		return "accept"
	case ParseActionRecover:
		return "recover"
	default:
		return "unknown"
	}
}

// MarshalText encodes the action type by name for table files.
func (t ParseActionType) MarshalText() ([]byte, error) {
	if t > ParseActionRecover {
		return nil, fmt.Errorf("gotreesitter: unknown parse action type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (t *ParseActionType) UnmarshalText(text []byte) error {
	for k := ParseActionShift; k <= ParseActionRecover; k++ {
		if string(text) == k.String() {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("gotreesitter: unknown parse action type %q", text)
}

// ParseAction is a single parser action from the parse table.
type ParseAction struct {
	Type              ParseActionType `yaml:"type" cbor:"1,keyasint"`
	State             StateID         `yaml:"state,omitempty" cbor:"2,keyasint,omitempty"`             // target state (shift/recover)
	Symbol            Symbol          `yaml:"symbol,omitempty" cbor:"3,keyasint,omitempty"`            // reduced symbol (reduce)
	ChildCount        uint8           `yaml:"child_count,omitempty" cbor:"4,keyasint,omitempty"`       // children consumed (reduce)
	DynamicPrecedence int16           `yaml:"dynamic_precedence,omitempty" cbor:"5,keyasint,omitempty"` // precedence (reduce)
	ProductionID      uint16          `yaml:"production_id,omitempty" cbor:"6,keyasint,omitempty"`     // which production (reduce)
	Extra             bool            `yaml:"extra,omitempty" cbor:"7,keyasint,omitempty"`             // is this an extra token (shift)
	Repetition        bool            `yaml:"repetition,omitempty" cbor:"8,keyasint,omitempty"`        // is this a repetition (shift)
}

// ParseActionEntry is a group of actions for a (state, symbol) pair. More
// than one action marks a conflict the parser explores by forking.
type ParseActionEntry struct {
	Reusable bool          `yaml:"reusable,omitempty" cbor:"1,keyasint,omitempty"`
	Actions  []ParseAction `yaml:"actions,omitempty" cbor:"2,keyasint,omitempty"`
}

// LexState is one state in the table-driven lexer DFA.
type LexState struct {
	AcceptToken Symbol          `yaml:"accept_token,omitempty" cbor:"1,keyasint,omitempty"` // 0 if this state doesn't accept
	Skip        bool            `yaml:"skip,omitempty" cbor:"2,keyasint,omitempty"`         // true if accepted chars are whitespace
	Transitions []LexTransition `yaml:"transitions,omitempty" cbor:"3,keyasint,omitempty"`
	Default     int             `yaml:"default" cbor:"4,keyasint"` // default next state (-1 if none)
	EOF         int             `yaml:"eof" cbor:"5,keyasint"`     // state on EOF (-1 if none)
}

// LexTransition maps a character range to a next state.
type LexTransition struct {
	Lo        rune `yaml:"lo" cbor:"1,keyasint"` // inclusive character range
	Hi        rune `yaml:"hi" cbor:"2,keyasint"`
	NextState int  `yaml:"next" cbor:"3,keyasint"`
}

// LexMode maps a parser state to its lexer configuration.
type LexMode struct {
	LexState         uint16 `yaml:"lex_state" cbor:"1,keyasint"`
	ExternalLexState uint16 `yaml:"external_lex_state,omitempty" cbor:"2,keyasint,omitempty"`
}

// SymbolMetadata holds display information about a symbol.
type SymbolMetadata struct {
	Name      string `yaml:"name" cbor:"1,keyasint"`
	Visible   bool   `yaml:"visible,omitempty" cbor:"2,keyasint,omitempty"`
	Named     bool   `yaml:"named,omitempty" cbor:"3,keyasint,omitempty"`
	Supertype bool   `yaml:"supertype,omitempty" cbor:"4,keyasint,omitempty"`
}

// FieldMapEntry maps a child index to a field name.
type FieldMapEntry struct {
	FieldID    FieldID `yaml:"field" cbor:"1,keyasint"`
	ChildIndex uint8   `yaml:"child_index" cbor:"2,keyasint"`
	Inherited  bool    `yaml:"inherited,omitempty" cbor:"3,keyasint,omitempty"`
}

// ExternalScanner is the plugin interface for language-specific scanners
// that handle context-sensitive tokens the DFA cannot express (indentation,
// heredocs, column-sensitive tokens).
//
// The payload returned by Create is owned by the scanner. Serialize writes
// the payload's state into buf and returns the number of bytes written;
// Deserialize restores it. Scan reports whether it recognized a token, which
// it names with lexer.SetResultSymbol using the external token index.
type ExternalScanner interface {
	Create() any
	Destroy(payload any)
	Serialize(payload any, buf []byte) int
	Deserialize(payload any, buf []byte)
	Scan(payload any, lexer *ExternalLexer, validSymbols []bool) bool
}

// Language holds all data needed to parse a specific language.
// It mirrors tree-sitter's TSLanguage C struct, translated into
// idiomatic Go types with slice-based tables instead of raw pointers.
// A Language must not be modified once a Parser uses it.
type Language struct {
	Name    string `yaml:"name" cbor:"1,keyasint"`
	Version uint32 `yaml:"version,omitempty" cbor:"2,keyasint,omitempty"`

	// Counts
	SymbolCount        uint32 `yaml:"symbol_count" cbor:"3,keyasint"`
	TokenCount         uint32 `yaml:"token_count" cbor:"4,keyasint"`
	ExternalTokenCount uint32 `yaml:"external_token_count,omitempty" cbor:"5,keyasint,omitempty"`
	StateCount         uint32 `yaml:"state_count" cbor:"6,keyasint"`
	LargeStateCount    uint32 `yaml:"large_state_count,omitempty" cbor:"7,keyasint,omitempty"`
	FieldCount         uint32 `yaml:"field_count,omitempty" cbor:"8,keyasint,omitempty"`
	ProductionIDCount  uint32 `yaml:"production_id_count,omitempty" cbor:"9,keyasint,omitempty"`

	// Symbol metadata
	SymbolNames    []string         `yaml:"symbol_names" cbor:"10,keyasint"`
	SymbolMetadata []SymbolMetadata `yaml:"symbol_metadata" cbor:"11,keyasint"`
	FieldNames     []string         `yaml:"field_names,omitempty" cbor:"12,keyasint,omitempty"` // index 0 is ""

	// Parse tables
	ParseTable         [][]uint16         `yaml:"parse_table,omitempty" cbor:"13,keyasint,omitempty"`           // dense: [state][symbol] -> action index
	SmallParseTable    []uint16           `yaml:"small_parse_table,omitempty" cbor:"14,keyasint,omitempty"`     // compressed sparse table
	SmallParseTableMap []uint32           `yaml:"small_parse_table_map,omitempty" cbor:"15,keyasint,omitempty"` // state -> offset into SmallParseTable
	ParseActions       []ParseActionEntry `yaml:"parse_actions" cbor:"16,keyasint"`

	// Lex tables
	LexModes            []LexMode  `yaml:"lex_modes" cbor:"17,keyasint"`
	LexStates           []LexState `yaml:"lex_states" cbor:"18,keyasint"`                                // main lexer DFA
	KeywordLexStates    []LexState `yaml:"keyword_lex_states,omitempty" cbor:"19,keyasint,omitempty"`    // keyword lexer DFA (optional)
	KeywordCaptureToken Symbol     `yaml:"keyword_capture_token,omitempty" cbor:"20,keyasint,omitempty"`

	// Field mapping
	FieldMapSlices  [][2]uint16     `yaml:"field_map_slices,omitempty" cbor:"21,keyasint,omitempty"` // [production_id] -> (index, length)
	FieldMapEntries []FieldMapEntry `yaml:"field_map_entries,omitempty" cbor:"22,keyasint,omitempty"`

	// Alias sequences
	AliasSequences [][]Symbol `yaml:"alias_sequences,omitempty" cbor:"23,keyasint,omitempty"` // [production_id][child_index] -> alias symbol

	// Primary state IDs (for table dedup)
	PrimaryStateIDs []StateID `yaml:"primary_state_ids,omitempty" cbor:"24,keyasint,omitempty"`

	// External tokens. ExternalSymbols maps an external token index to its
	// grammar symbol; ExternalScannerStates[LexMode.ExternalLexState] lists
	// which external tokens are valid. Row 0 enables nothing.
	ExternalSymbols       []Symbol `yaml:"external_symbols,omitempty" cbor:"25,keyasint,omitempty"`
	ExternalScannerStates [][]bool `yaml:"external_scanner_states,omitempty" cbor:"26,keyasint,omitempty"`

	// External scanner (nil if not needed)
	ExternalScanner ExternalScanner `yaml:"-" cbor:"-"`

	// InitialState is the parser's start state. In tree-sitter grammars
	// this is always 1 (state 0 is reserved for error recovery). For
	// hand-built grammars it defaults to 0.
	InitialState StateID `yaml:"initial_state,omitempty" cbor:"27,keyasint,omitempty"`
}

// CompatibleWithRuntime reports whether the table version is one this
// runtime can read.
func (l *Language) CompatibleWithRuntime() bool {
	if l.Version == 0 {
		return true
	}
	return l.Version >= MinCompatibleLanguageVersion && l.Version <= LanguageVersion
}

// SymbolName returns the name of sym, or "" if it is out of range.
func (l *Language) SymbolName(sym Symbol) string {
	if sym == ErrorSymbol {
		return "ERROR"
	}
	if int(sym) < len(l.SymbolNames) {
		return l.SymbolNames[sym]
	}
	return ""
}

// SymbolByName returns the first symbol with the given name.
func (l *Language) SymbolByName(name string) (Symbol, bool) {
	for i, n := range l.SymbolNames {
		if n == name {
			return Symbol(i), true
		}
	}
	return 0, false
}

// TokenSymbolsByName returns every terminal symbol with the given name, in
// symbol order.
func (l *Language) TokenSymbolsByName(name string) []Symbol {
	var out []Symbol
	for i, n := range l.SymbolNames {
		if uint32(i) >= l.TokenCount {
			break
		}
		if n == name {
			out = append(out, Symbol(i))
		}
	}
	return out
}

// FieldByName resolves a field name to its ID. Field 0 is never a match.
func (l *Language) FieldByName(name string) (FieldID, bool) {
	for i := 1; i < len(l.FieldNames); i++ {
		if l.FieldNames[i] == name {
			return FieldID(i), true
		}
	}
	return 0, false
}

// FieldName returns the name of a field ID, or "".
func (l *Language) FieldName(id FieldID) string {
	if id == 0 || int(id) >= len(l.FieldNames) {
		return ""
	}
	return l.FieldNames[id]
}

func (l *Language) metadata(sym Symbol) SymbolMetadata {
	if sym == ErrorSymbol {
		return SymbolMetadata{Name: "ERROR", Visible: true, Named: true}
	}
	if int(sym) < len(l.SymbolMetadata) {
		return l.SymbolMetadata[sym]
	}
	return SymbolMetadata{}
}

// isTerminal reports whether sym is a token. TokenCount includes the
// external tokens.
func (l *Language) isTerminal(sym Symbol) bool {
	return sym == ErrorSymbol || uint32(sym) < l.TokenCount
}

// actionEntry looks up the action group for (state, sym). It reads the dense
// table for large states and the compressed table for the rest.
func (l *Language) actionEntry(state StateID, sym Symbol) *ParseActionEntry {
	idx, ok := l.tableValue(state, sym)
	if !ok || int(idx) >= len(l.ParseActions) {
		return nil
	}
	return &l.ParseActions[idx]
}

// actions returns the actions for (state, sym), or nil.
func (l *Language) actions(state StateID, sym Symbol) []ParseAction {
	if sym == ErrorSymbol {
		return nil
	}
	e := l.actionEntry(state, sym)
	if e == nil {
		return nil
	}
	return e.Actions
}

func (l *Language) tableValue(state StateID, sym Symbol) (uint16, bool) {
	if int(state) < len(l.ParseTable) {
		row := l.ParseTable[state]
		if int(sym) < len(row) {
			return row[sym], true
		}
		return 0, false
	}
	// Compressed layout, per state: group count, then for each group the
	// action index, the symbol count and the symbols sharing that index.
	small := int(state) - len(l.ParseTable)
	if small < 0 || small >= len(l.SmallParseTableMap) {
		return 0, false
	}
	i := int(l.SmallParseTableMap[small])
	if i >= len(l.SmallParseTable) {
		return 0, false
	}
	groups := int(l.SmallParseTable[i])
	i++
	for g := 0; g < groups; g++ {
		if i+1 >= len(l.SmallParseTable) {
			return 0, false
		}
		value := l.SmallParseTable[i]
		count := int(l.SmallParseTable[i+1])
		i += 2
		for j := 0; j < count && i+j < len(l.SmallParseTable); j++ {
			if Symbol(l.SmallParseTable[i+j]) == sym {
				return value, true
			}
		}
		i += count
	}
	return 0, false
}

// nextState returns the state reached by shifting sym in state: the target
// of a terminal's shift action, or the goto of a nonterminal. Zero with false
// means there is no such transition.
func (l *Language) nextState(state StateID, sym Symbol) (StateID, bool) {
	for _, act := range l.actions(state, sym) {
		if act.Type == ParseActionShift {
			if act.Extra {
				return state, true
			}
			return act.State, true
		}
	}
	return 0, false
}

func (l *Language) lexMode(state StateID) LexMode {
	if int(state) < len(l.LexModes) {
		return l.LexModes[state]
	}
	return LexMode{}
}

// enabledExternalTokens returns the valid-symbol set for an external lex
// state, or nil when no external token is enabled.
func (l *Language) enabledExternalTokens(externalLexState uint16) []bool {
	if externalLexState == 0 || int(externalLexState) >= len(l.ExternalScannerStates) {
		return nil
	}
	row := l.ExternalScannerStates[externalLexState]
	for _, ok := range row {
		if ok {
			return row
		}
	}
	return nil
}

// externalSymbol maps an external token index to its grammar symbol.
func (l *Language) externalSymbol(index Symbol) (Symbol, bool) {
	if int(index) < len(l.ExternalSymbols) {
		return l.ExternalSymbols[index], true
	}
	return 0, false
}

// fieldMap returns the field entries of a production.
func (l *Language) fieldMap(productionID uint16) []FieldMapEntry {
	if int(productionID) >= len(l.FieldMapSlices) {
		return nil
	}
	s := l.FieldMapSlices[productionID]
	start, end := int(s[0]), int(s[0])+int(s[1])
	if start > len(l.FieldMapEntries) || end > len(l.FieldMapEntries) {
		return nil
	}
	return l.FieldMapEntries[start:end]
}

// alias returns the alias of a production's structural child, or 0.
func (l *Language) alias(productionID uint16, childIndex int) Symbol {
	if int(productionID) >= len(l.AliasSequences) {
		return 0
	}
	seq := l.AliasSequences[productionID]
	if childIndex < 0 || childIndex >= len(seq) {
		return 0
	}
	return seq[childIndex]
}
