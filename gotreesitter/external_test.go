package gotreesitter

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// columnScanner emits one token per rune: "even" when the rune starts at an
// even column, "odd" otherwise.
type columnScanner struct{}

func (columnScanner) Create() any               { return nil }
func (columnScanner) Destroy(any)               {}
func (columnScanner) Serialize(any, []byte) int { return 0 }
func (columnScanner) Deserialize(any, []byte)   {}
func (columnScanner) Scan(_ any, lx *ExternalLexer, valid []bool) bool {
	if lx.EOF() {
		return false
	}
	col := lx.GetColumn()
	lx.Advance(false)
	lx.MarkEnd()
	if col%2 == 0 {
		lx.SetResultSymbol(0)
	} else {
		lx.SetResultSymbol(1)
	}
	return true
}

// stuckScanner claims a token without consuming anything.
type stuckScanner struct{ columnScanner }

func (stuckScanner) Scan(_ any, lx *ExternalLexer, valid []bool) bool {
	lx.SetResultSymbol(0)
	return true
}

// buildColumnLanguage is document -> X | document X where X is an external
// "even" or "odd" token.
func buildColumnLanguage(scanner ExternalScanner) *Language {
	mode := LexMode{LexState: 0, ExternalLexState: 1}
	return &Language{
		Name:               "depends_on_column",
		SymbolCount:        4,
		TokenCount:         3,
		ExternalTokenCount: 2,
		StateCount:         4,
		ProductionIDCount:  2,
		SymbolNames:        []string{"EOF", "even", "odd", "document"},
		SymbolMetadata: []SymbolMetadata{
			{Name: "EOF"},
			{Name: "even", Visible: true, Named: true},
			{Name: "odd", Visible: true, Named: true},
			{Name: "document", Visible: true, Named: true},
		},
		ParseActions: []ParseActionEntry{
			{},
			{Reusable: true, Actions: []ParseAction{{Type: ParseActionShift, State: 1}}},
			{Reusable: true, Actions: []ParseAction{{Type: ParseActionReduce, Symbol: 3, ChildCount: 1}}},
			{Reusable: true, Actions: []ParseAction{{Type: ParseActionShift, State: 2}}},
			{Reusable: true, Actions: []ParseAction{{Type: ParseActionShift, State: 3}}},
			{Reusable: true, Actions: []ParseAction{{Type: ParseActionAccept}}},
			{Reusable: true, Actions: []ParseAction{{Type: ParseActionReduce, Symbol: 3, ChildCount: 2, ProductionID: 1}}},
		},
		ParseTable: [][]uint16{
			{0, 1, 1, 3},
			{2, 2, 2, 0},
			{5, 4, 4, 0},
			{6, 6, 6, 0},
		},
		LexModes:              []LexMode{mode, mode, mode, mode},
		LexStates:             []LexState{{Default: -1, EOF: -1}},
		ExternalSymbols:       []Symbol{1, 2},
		ExternalScannerStates: [][]bool{{false, false}, {true, true}},
		ExternalScanner:       scanner,
	}
}

func leafTypes(tree *Tree) []string {
	var out []string
	tree.RootNode().Walk(func(n *Node) bool {
		if n.ChildCount() == 0 {
			out = append(out, n.Type(nil))
		}
		return true
	})
	return out
}

func TestExternalScannerTokens(t *testing.T) {
	tree := NewParser(buildColumnLanguage(columnScanner{})).Parse([]byte("abcdef"))
	if tree.RootNode().HasError() {
		t.Fatalf("unexpected error: %s", tree)
	}
	want := []string{"even", "odd", "even", "odd", "even", "odd"}
	if diff := cmp.Diff(want, leafTypes(tree)); diff != "" {
		t.Errorf("leaf types (-want +got):\n%s", diff)
	}
}

func TestExternalScannerColumnsResetPerRow(t *testing.T) {
	tree := NewParser(buildColumnLanguage(columnScanner{})).Parse([]byte("ab\ncd"))
	want := []string{"even", "odd", "even", "even", "odd"}
	if diff := cmp.Diff(want, leafTypes(tree)); diff != "" {
		t.Errorf("leaf types (-want +got):\n%s", diff)
	}
}

func TestDependsOnColumnReparse(t *testing.T) {
	parser := NewParser(buildColumnLanguage(columnScanner{}))
	src := []byte("abcdef")
	tree := parser.Parse(src)

	// Inserting one rune at the start of the row flips the parity of every
	// later token on it, even though none of them overlap the edit.
	newSrc, edit := replaceEdit(src, 0, 0, "x")
	incremental := parser.ParseIncremental(newSrc, tree.Edit(edit))
	scratch := parser.Parse(newSrc)
	if diff := cmp.Diff(describeTree(scratch), describeTree(incremental)); diff != "" {
		t.Fatalf("incremental differs from scratch (-scratch +incremental):\n%s", diff)
	}
	want := []string{"even", "odd", "even", "odd", "even", "odd", "even"}
	if diff := cmp.Diff(want, leafTypes(incremental)); diff != "" {
		t.Errorf("leaf types (-want +got):\n%s", diff)
	}
}

func TestDependsOnColumnKeepsLaterRows(t *testing.T) {
	parser := NewParser(buildColumnLanguage(columnScanner{}))
	src := []byte("ab\ncd")
	tree := parser.Parse(src)

	newSrc, edit := replaceEdit(src, 0, 0, "x")
	incremental := parser.ParseIncremental(newSrc, tree.Edit(edit))
	scratch := parser.Parse(newSrc)
	if diff := cmp.Diff(describeTree(scratch), describeTree(incremental)); diff != "" {
		t.Fatalf("incremental differs from scratch (-scratch +incremental):\n%s", diff)
	}
	if incremental.Stats().ReusedSubtrees == 0 {
		t.Error("tokens on the row after the edit should be reused")
	}
}

func TestDependsOnColumnEditAcrossRows(t *testing.T) {
	parser := NewParser(buildColumnLanguage(columnScanner{}))
	for _, tc := range []struct {
		name       string
		src        string
		start, end int
		text       string
	}{
		// "b" moves from column 0 to column 1 of the row the edit ended on.
		{"insert before row end", "aaa\n\nb", 4, 5, "\nb"},
		{"join rows", "ba\n\na", 1, 4, "ba"},
		{"split row", "abcd", 1, 1, "x\nyz"},
		{"delete newline", "ab\ncd", 2, 3, ""},
		{"delete two rows", "a\nb\ncde", 0, 4, "x"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			src := []byte(tc.src)
			tree := parser.Parse(src)
			newSrc, edit := replaceEdit(src, tc.start, tc.end, tc.text)
			incremental := parser.ParseIncremental(newSrc, tree.Edit(edit))
			scratch := parser.Parse(newSrc)
			if diff := cmp.Diff(describeTree(scratch), describeTree(incremental)); diff != "" {
				t.Fatalf("%q -> %q: incremental differs from scratch (-scratch +incremental):\n%s",
					tc.src, newSrc, diff)
			}
		})
	}
}

func TestDependsOnColumnEveryEdit(t *testing.T) {
	parser := NewParser(buildColumnLanguage(columnScanner{}))
	for _, src := range []string{"ab\ncd", "aaa\n\nb", "ba\n\na", "a\nbc\n"} {
		tree := parser.Parse([]byte(src))
		for start := 0; start <= len(src); start++ {
			for end := start; end <= len(src); end++ {
				for _, text := range []string{"", "x", "\n", "y\nz"} {
					newSrc, edit := replaceEdit([]byte(src), start, end, text)
					if len(newSrc) == 0 {
						continue
					}
					incremental := parser.ParseIncremental(newSrc, tree.Edit(edit))
					scratch := parser.Parse(newSrc)
					if diff := cmp.Diff(describeTree(scratch), describeTree(incremental)); diff != "" {
						t.Fatalf("%q [%d, %d) -> %q gives %q: incremental differs from scratch (-scratch +incremental):\n%s",
							src, start, end, text, newSrc, diff)
					}
				}
			}
		}
	}
}

func TestExternalScannerZeroLengthToken(t *testing.T) {
	src := "abc"
	done := make(chan *Tree, 1)
	go func() {
		done <- NewParser(buildColumnLanguage(stuckScanner{})).Parse([]byte(src))
	}()

	var tree *Tree
	select {
	case tree = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("parse did not terminate")
	}

	if !tree.HasDiagnostic(ScannerContractViolation) {
		t.Errorf("diagnostics = %v, want a ScannerContractViolation", tree.Diagnostics())
	}
	root := tree.RootNode()
	if !root.IsError() {
		t.Errorf("root = %s, want ERROR", root.Type(nil))
	}
	if root.StartByte() != 0 || root.EndByte() != uint32(len(src)) {
		t.Errorf("root spans [%d, %d), want [0, %d)", root.StartByte(), root.EndByte(), len(src))
	}
	for _, d := range tree.Diagnostics() {
		if d.Kind == ScannerContractViolation && !strings.Contains(d.Message, "without consuming input") {
			t.Errorf("unexpected message %q", d.Message)
		}
	}
}

func TestExternalLexerStandalone(t *testing.T) {
	lx := NewExternalLexer([]byte(" ab"))
	if lx.Lookahead() != ' ' {
		t.Fatalf("Lookahead = %q, want ' '", lx.Lookahead())
	}
	lx.Advance(true)
	if got := lx.GetColumn(); got != 1 {
		t.Errorf("GetColumn = %d, want 1", got)
	}
	lx.Advance(false)
	lx.MarkEnd()
	lx.Advance(false)
	lx.SetResultSymbol(1)

	tok, ok := lx.Token()
	if !ok {
		t.Fatal("expected a token")
	}
	if tok.Text != "a" || tok.StartByte != 1 || tok.EndByte != 2 || !tok.External {
		t.Errorf("token = %+v, want external \"a\" at [1, 2)", tok)
	}
	if !lx.EOF() {
		t.Error("cursor should be at EOF")
	}
	if got := lx.lookaheadBytes(tok.EndByte); got != 1 {
		t.Errorf("lookaheadBytes = %d, want 1", got)
	}
}

func TestRunExternalScanner(t *testing.T) {
	lang := buildColumnLanguage(columnScanner{})
	lx := NewExternalLexer([]byte("z"))
	if !RunExternalScanner(lang, nil, lx, []bool{true, true}) {
		t.Fatal("scanner did not match")
	}
	tok, _ := lx.Token()
	if tok.Symbol != 0 || tok.Text != "z" {
		t.Errorf("token = %+v", tok)
	}
	if RunExternalScanner(buildArithmeticLanguage(), nil, lx, nil) {
		t.Error("a language without a scanner matched")
	}
}

func TestExternalScannerStateEqual(t *testing.T) {
	a := ExternalScannerState{Data: []byte{1, 2}}
	if !a.Equal(ExternalScannerState{Data: []byte{1, 2}}) {
		t.Error("equal states compared unequal")
	}
	if a.Equal(ExternalScannerState{}) {
		t.Error("different states compared equal")
	}
	if !(ExternalScannerState{}).Equal(ExternalScannerState{Data: []byte{}}) {
		t.Error("nil and empty states should be equal")
	}
}
