package gotreesitter

import (
	"errors"
	"testing"
)

// TestParseActionTypeConstants verifies the iota-generated constants, which
// compiled tables store as raw numbers.
func TestParseActionTypeConstants(t *testing.T) {
	if ParseActionShift != 0 {
		t.Errorf("ParseActionShift = %d, want 0", ParseActionShift)
	}
	if ParseActionReduce != 1 {
		t.Errorf("ParseActionReduce = %d, want 1", ParseActionReduce)
	}
	if ParseActionAccept != 2 {
		t.Errorf("ParseActionAccept = %d, want 2", ParseActionAccept)
	}
	if ParseActionRecover != 3 {
		t.Errorf("ParseActionRecover = %d, want 3", ParseActionRecover)
	}
	if got := ParseActionReduce.String(); got != "reduce" {
		t.Errorf("ParseActionReduce.String() = %q", got)
	}
	if got := ParseActionType(9).String(); got != "unknown" {
		t.Errorf("ParseActionType(9).String() = %q", got)
	}
}

// buildCompressedLanguage stores the arithmetic table with states 0-1 dense
// and 2-4 in the compressed layout.
func buildCompressedLanguage() *Language {
	lang := buildArithmeticLanguage()
	lang.LargeStateCount = 2
	lang.ParseTable = lang.ParseTable[:2]
	lang.SmallParseTable = []uint16{
		// state 2: accept on EOF, shift on '+'
		2, 5, 1, 0, 4, 1, 2,
		// state 3: shift on NUMBER
		1, 6, 1, 1,
		// state 4: reduce on EOF, NUMBER and '+'
		1, 7, 3, 0, 1, 2,
	}
	lang.SmallParseTableMap = []uint32{0, 7, 11}
	return lang
}

func TestCompressedParseTable(t *testing.T) {
	dense := buildArithmeticLanguage()
	small := buildCompressedLanguage()
	for state := StateID(0); state < 5; state++ {
		for sym := Symbol(0); sym < 4; sym++ {
			want := dense.actions(state, sym)
			got := small.actions(state, sym)
			if len(want) != len(got) {
				t.Fatalf("state %d symbol %d: %v, want %v", state, sym, got, want)
			}
			for i := range want {
				if want[i] != got[i] {
					t.Errorf("state %d symbol %d: %v, want %v", state, sym, got, want)
				}
			}
		}
	}
	if got := small.actions(9, 1); got != nil {
		t.Errorf("actions past the last state = %v", got)
	}

	tree := NewParser(small).Parse([]byte("1+2+3"))
	if tree.RootNode().HasError() {
		t.Fatalf("unexpected error with compressed table: %s", tree)
	}
	want := NewParser(dense).Parse([]byte("1+2+3")).String()
	if got := tree.String(); got != want {
		t.Errorf("compressed table parse = %s, want %s", got, want)
	}
}

func TestNextState(t *testing.T) {
	lang := buildArithmeticLanguage()
	if next, ok := lang.nextState(0, 1); !ok || next != 1 {
		t.Errorf("nextState(0, NUMBER) = %d, %v", next, ok)
	}
	if next, ok := lang.nextState(0, 3); !ok || next != 2 {
		t.Errorf("goto(0, expression) = %d, %v", next, ok)
	}
	if _, ok := lang.nextState(1, 1); ok {
		t.Error("a reduce action is not a transition")
	}

	lang.ParseActions = append(lang.ParseActions, ParseActionEntry{
		Actions: []ParseAction{{Type: ParseActionShift, Extra: true}},
	})
	lang.ParseTable[3][2] = uint16(len(lang.ParseActions) - 1)
	if next, ok := lang.nextState(3, 2); !ok || next != 3 {
		t.Errorf("extra shift should stay in state 3, got %d, %v", next, ok)
	}
}

func TestActionsForErrorSymbol(t *testing.T) {
	lang := buildArithmeticLanguage()
	if lang.actions(0, ErrorSymbol) != nil {
		t.Error("the error symbol never has actions")
	}
	if lang.actionEntry(0, 99) != nil {
		t.Error("out of range symbol should have no entry")
	}
}

func TestSymbolLookups(t *testing.T) {
	lang := buildArithmeticLanguage()
	if got := lang.SymbolName(ErrorSymbol); got != "ERROR" {
		t.Errorf("SymbolName(ErrorSymbol) = %q", got)
	}
	if got := lang.SymbolName(42); got != "" {
		t.Errorf("SymbolName(42) = %q, want empty", got)
	}
	if sym, ok := lang.SymbolByName("expression"); !ok || sym != 3 {
		t.Errorf("SymbolByName(expression) = %d, %v", sym, ok)
	}
	if !lang.isTerminal(2) || lang.isTerminal(3) || !lang.isTerminal(ErrorSymbol) {
		t.Error("isTerminal misclassifies symbols")
	}
	if md := lang.metadata(ErrorSymbol); !md.Visible || !md.Named {
		t.Errorf("ERROR metadata = %+v, want visible and named", md)
	}
}

func TestFieldLookups(t *testing.T) {
	lang := buildFieldLanguage()
	if id, ok := lang.FieldByName("right"); !ok || id != 3 {
		t.Errorf("FieldByName(right) = %d, %v", id, ok)
	}
	if _, ok := lang.FieldByName(""); ok {
		t.Error("the empty field name must not resolve")
	}
	if got := lang.FieldName(2); got != "operator" {
		t.Errorf("FieldName(2) = %q", got)
	}
	if got := lang.FieldName(0); got != "" {
		t.Errorf("FieldName(0) = %q, want empty", got)
	}
	if got := lang.fieldMap(1); len(got) != 3 || got[2].FieldID != 3 {
		t.Errorf("fieldMap(1) = %v", got)
	}
	if got := lang.fieldMap(7); got != nil {
		t.Errorf("fieldMap(7) = %v, want nil", got)
	}
	if got := lang.alias(0, 0); got != 4 {
		t.Errorf("alias(0, 0) = %d, want 4", got)
	}
	if got := lang.alias(1, 0); got != 0 {
		t.Errorf("alias(1, 0) = %d, want 0", got)
	}
}

func TestLexModesAndExternalStates(t *testing.T) {
	lang := buildColumnLanguage(columnScanner{})
	if got := lang.lexMode(2); got.ExternalLexState != 1 {
		t.Errorf("lexMode(2) = %+v", got)
	}
	if got := lang.lexMode(99); got != (LexMode{}) {
		t.Errorf("lexMode past the last state = %+v", got)
	}
	if got := lang.enabledExternalTokens(0); got != nil {
		t.Errorf("external lex state 0 enables %v", got)
	}
	if got := lang.enabledExternalTokens(1); len(got) != 2 || !got[0] || !got[1] {
		t.Errorf("enabledExternalTokens(1) = %v", got)
	}
	lang.ExternalScannerStates = append(lang.ExternalScannerStates, []bool{false, false})
	if got := lang.enabledExternalTokens(2); got != nil {
		t.Errorf("a row enabling nothing = %v, want nil", got)
	}
	if sym, ok := lang.externalSymbol(1); !ok || sym != 2 {
		t.Errorf("externalSymbol(1) = %d, %v", sym, ok)
	}
	if _, ok := lang.externalSymbol(5); ok {
		t.Error("externalSymbol(5) should not resolve")
	}
}

func TestCompatibleWithRuntime(t *testing.T) {
	for _, tc := range []struct {
		version uint32
		want    bool
	}{
		{0, true},
		{MinCompatibleLanguageVersion - 1, false},
		{MinCompatibleLanguageVersion, true},
		{LanguageVersion, true},
		{LanguageVersion + 1, false},
	} {
		lang := &Language{Version: tc.version}
		if got := lang.CompatibleWithRuntime(); got != tc.want {
			t.Errorf("version %d: CompatibleWithRuntime = %v, want %v", tc.version, got, tc.want)
		}
	}
}

// countingScanner records its lifecycle and serializes a counter of the
// tokens it produced.
type countingScanner struct {
	created, destroyed int
}

type counterPayload struct{ n byte }

func (s *countingScanner) Create() any {
	s.created++
	return &counterPayload{}
}

func (s *countingScanner) Destroy(any) { s.destroyed++ }

func (s *countingScanner) Serialize(payload any, buf []byte) int {
	buf[0] = payload.(*counterPayload).n
	return 1
}

func (s *countingScanner) Deserialize(payload any, buf []byte) {
	p := payload.(*counterPayload)
	p.n = 0
	if len(buf) > 0 {
		p.n = buf[0]
	}
}

func (s *countingScanner) Scan(payload any, lx *ExternalLexer, valid []bool) bool {
	if lx.EOF() {
		return false
	}
	p := payload.(*counterPayload)
	p.n++
	lx.Advance(false)
	lx.SetResultSymbol(Symbol(p.n % 2))
	return true
}

// TestExternalScannerSession checks that one payload serves a whole parse
// and that every external token carries the state after it.
func TestExternalScannerSession(t *testing.T) {
	scanner := &countingScanner{}
	lang := buildColumnLanguage(scanner)
	tree := NewParser(lang).Parse([]byte("abc"))
	if tree.RootNode().HasError() {
		t.Fatalf("unexpected error: %s", tree)
	}
	if scanner.created != 1 || scanner.destroyed != 1 {
		t.Errorf("created %d, destroyed %d; want one payload per parse", scanner.created, scanner.destroyed)
	}

	// Tokens alternate odd, even, odd as the counter goes 1, 2, 3.
	want := []string{"odd", "even", "odd"}
	got := leafTypes(tree)
	if len(got) != len(want) {
		t.Fatalf("leaves = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("leaves = %v, want %v", got, want)
		}
	}

	var states []byte
	var visit func(s *subtree)
	visit = func(s *subtree) {
		if s.isLeaf() && s.has(flagHasExternalTokens) {
			states = append(states, s.externalState...)
		}
		for _, c := range s.children {
			visit(c)
		}
	}
	visit(tree.root)
	if string(states) != "\x01\x02\x03" {
		t.Errorf("serialized states = %v, want [1 2 3]", states)
	}
}

func TestParseActionFields(t *testing.T) {
	reduce := ParseAction{
		Type:              ParseActionReduce,
		Symbol:            10,
		ChildCount:        3,
		DynamicPrecedence: -5,
		ProductionID:      7,
	}
	lang := &Language{
		ParseTable:   [][]uint16{{0, 1}},
		ParseActions: []ParseActionEntry{{}, {Actions: []ParseAction{reduce}}},
	}
	got := lang.actions(0, 1)
	if len(got) != 1 || got[0] != reduce {
		t.Fatalf("actions(0, 1) = %v, want [%v]", got, reduce)
	}
	if lang.actions(0, 0) != nil {
		t.Error("entry 0 should have no actions")
	}
}

func TestValidateBuiltLanguages(t *testing.T) {
	for _, lang := range []*Language{
		buildArithmeticLanguage(),
		buildKeywordLanguage(),
		buildAmbiguousLanguage(),
		buildSumLanguage(),
		buildFieldLanguage(),
		buildCompressedLanguage(),
		buildColumnLanguage(columnScanner{}),
	} {
		if err := lang.Validate(); err != nil {
			t.Errorf("%s: %v", lang.Name, err)
		}
	}
}

func TestValidateRejectsBrokenTables(t *testing.T) {
	for name, breakIt := range map[string]func(*Language){
		"symbol names":   func(l *Language) { l.SymbolNames = l.SymbolNames[:2] },
		"lex modes":      func(l *Language) { l.LexModes = l.LexModes[:1] },
		"action index":   func(l *Language) { l.ParseTable[0][1] = 99 },
		"shift target":   func(l *Language) { l.ParseActions[1].Actions[0].State = 40 },
		"reduce token":   func(l *Language) { l.ParseActions[2].Actions[0].Symbol = 1 },
		"lex transition": func(l *Language) { l.LexStates[0].Transitions[0].NextState = 12 },
		"lex accept":     func(l *Language) { l.LexStates[1].AcceptToken = 30 },
		"field zero":     func(l *Language) { l.FieldNames = []string{"x"} },
		"initial state":  func(l *Language) { l.InitialState = 5 },
		"external count": func(l *Language) { l.ExternalTokenCount = 1 },
	} {
		lang := buildArithmeticLanguage()
		breakIt(lang)
		err := lang.Validate()
		if !errors.Is(err, ErrInvalidLanguage) {
			t.Errorf("%s: Validate() = %v, want ErrInvalidLanguage", name, err)
		}
	}
}

func TestParseActionTypeText(t *testing.T) {
	for _, k := range []ParseActionType{ParseActionShift, ParseActionReduce, ParseActionAccept, ParseActionRecover} {
		text, err := k.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", k, err)
		}
		var back ParseActionType
		if err := back.UnmarshalText(text); err != nil || back != k {
			t.Errorf("round trip of %s gave %d, %v", text, back, err)
		}
	}
	if _, err := ParseActionType(9).MarshalText(); err == nil {
		t.Error("MarshalText accepted an unknown type")
	}
	var k ParseActionType
	if err := k.UnmarshalText([]byte("goto")); err == nil {
		t.Error("UnmarshalText accepted an unknown name")
	}
}
