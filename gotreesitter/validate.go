package gotreesitter

import "fmt"

// Validate checks that the tables are consistent with each other: every
// table index in range, every action targeting a real state or symbol. A
// Language that passes cannot make the parser index out of bounds. Tables
// loaded from files should be validated before use.
func (l *Language) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidLanguage, l.Name, fmt.Sprintf(format, args...))
	}

	if int(l.SymbolCount) != len(l.SymbolNames) {
		return bad("symbol_count is %d but %d names are given", l.SymbolCount, len(l.SymbolNames))
	}
	if int(l.SymbolCount) != len(l.SymbolMetadata) {
		return bad("symbol_count is %d but %d metadata entries are given", l.SymbolCount, len(l.SymbolMetadata))
	}
	if l.TokenCount == 0 || l.TokenCount > l.SymbolCount {
		return bad("token_count %d out of range", l.TokenCount)
	}
	if l.ExternalTokenCount > l.TokenCount {
		return bad("external_token_count %d exceeds token_count %d", l.ExternalTokenCount, l.TokenCount)
	}
	if int(l.StateCount) != len(l.LexModes) {
		return bad("state_count is %d but %d lex modes are given", l.StateCount, len(l.LexModes))
	}
	if n := len(l.ParseTable) + len(l.SmallParseTableMap); n != int(l.StateCount) {
		return bad("state_count is %d but the parse tables cover %d states", l.StateCount, n)
	}
	if int(l.InitialState) >= int(l.StateCount) {
		return bad("initial_state %d out of range", l.InitialState)
	}
	if len(l.FieldNames) > 0 && l.FieldNames[0] != "" {
		return bad("field 0 must be unnamed")
	}

	for state, row := range l.ParseTable {
		if len(row) > int(l.SymbolCount) {
			return bad("parse table row %d has %d columns", state, len(row))
		}
		for sym, idx := range row {
			if int(idx) >= len(l.ParseActions) {
				return bad("state %d symbol %d: action index %d out of range", state, sym, idx)
			}
		}
	}
	for i, off := range l.SmallParseTableMap {
		if int(off) >= len(l.SmallParseTable) {
			return bad("small parse table offset %d of state %d out of range", off, len(l.ParseTable)+i)
		}
	}

	for i, entry := range l.ParseActions {
		for _, act := range entry.Actions {
			switch act.Type {
			case ParseActionShift, ParseActionRecover:
				if !act.Extra && uint32(act.State) >= l.StateCount {
					return bad("action %d: target state %d out of range", i, act.State)
				}
			case ParseActionReduce:
				if uint32(act.Symbol) >= l.SymbolCount || l.isTerminal(act.Symbol) {
					return bad("action %d: reduces to %d, which is not a nonterminal", i, act.Symbol)
				}
				if act.ProductionID > 0 && l.ProductionIDCount > 0 && uint32(act.ProductionID) >= l.ProductionIDCount {
					return bad("action %d: production %d out of range", i, act.ProductionID)
				}
			case ParseActionAccept:
			default:
				return bad("action %d: unknown type %d", i, act.Type)
			}
		}
	}

	if err := validateLexStates(l.LexStates, l.SymbolCount); err != nil {
		return bad("lex states: %v", err)
	}
	if err := validateLexStates(l.KeywordLexStates, l.SymbolCount); err != nil {
		return bad("keyword lex states: %v", err)
	}
	if l.KeywordCaptureToken != 0 && !l.isTerminal(l.KeywordCaptureToken) {
		return bad("keyword_capture_token %d is not a token", l.KeywordCaptureToken)
	}
	for state, mode := range l.LexModes {
		if int(mode.LexState) >= len(l.LexStates) {
			return bad("state %d: lex state %d out of range", state, mode.LexState)
		}
		if mode.ExternalLexState != 0 && int(mode.ExternalLexState) >= len(l.ExternalScannerStates) {
			return bad("state %d: external lex state %d out of range", state, mode.ExternalLexState)
		}
	}

	if len(l.ExternalSymbols) != int(l.ExternalTokenCount) {
		return bad("external_token_count is %d but %d external symbols are given", l.ExternalTokenCount, len(l.ExternalSymbols))
	}
	for i, sym := range l.ExternalSymbols {
		if !l.isTerminal(sym) {
			return bad("external token %d maps to %d, which is not a token", i, sym)
		}
	}
	for i, row := range l.ExternalScannerStates {
		if len(row) != int(l.ExternalTokenCount) {
			return bad("external scanner state %d has %d entries, want %d", i, len(row), l.ExternalTokenCount)
		}
	}

	for i, s := range l.FieldMapSlices {
		if int(s[0])+int(s[1]) > len(l.FieldMapEntries) {
			return bad("field map slice %d out of range", i)
		}
	}
	for i, e := range l.FieldMapEntries {
		if int(e.FieldID) >= len(l.FieldNames) || e.FieldID == 0 {
			return bad("field map entry %d: field %d out of range", i, e.FieldID)
		}
	}
	for i, seq := range l.AliasSequences {
		for j, sym := range seq {
			if sym != 0 && uint32(sym) >= l.SymbolCount {
				return bad("alias %d/%d: symbol %d out of range", i, j, sym)
			}
		}
	}
	return nil
}

func validateLexStates(states []LexState, symbolCount uint32) error {
	inRange := func(next int) bool { return next >= -1 && next < len(states) }
	for i, st := range states {
		if uint32(st.AcceptToken) >= symbolCount {
			return fmt.Errorf("state %d accepts symbol %d", i, st.AcceptToken)
		}
		if !inRange(st.Default) || !inRange(st.EOF) {
			return fmt.Errorf("state %d: default or eof transition out of range", i)
		}
		for _, tr := range st.Transitions {
			if tr.Lo > tr.Hi || tr.NextState < 0 || tr.NextState >= len(states) {
				return fmt.Errorf("state %d: bad transition [%q, %q] -> %d", i, tr.Lo, tr.Hi, tr.NextState)
			}
		}
	}
	return nil
}
