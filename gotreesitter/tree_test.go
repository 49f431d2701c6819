package gotreesitter

import (
	"strings"
	"testing"

	"golang.org/x/sync/errgroup"
)

// buildFieldLanguage is the arithmetic grammar with fields on the binary
// production and the single-number expression's child aliased to "literal".
func buildFieldLanguage() *Language {
	lang := buildArithmeticLanguage()
	lang.Name = "arithmetic_fields"
	lang.SymbolCount = 5
	lang.SymbolNames = append(lang.SymbolNames, "literal")
	lang.SymbolMetadata = append(lang.SymbolMetadata, SymbolMetadata{Name: "literal", Visible: true, Named: true})
	lang.FieldCount = 3
	lang.FieldNames = []string{"", "left", "operator", "right"}
	lang.FieldMapSlices = [][2]uint16{{0, 0}, {0, 3}}
	lang.FieldMapEntries = []FieldMapEntry{
		{FieldID: 1, ChildIndex: 0},
		{FieldID: 2, ChildIndex: 1},
		{FieldID: 3, ChildIndex: 2},
	}
	lang.AliasSequences = [][]Symbol{{4}, nil}
	return lang
}

func TestTreeSExpressionWithFields(t *testing.T) {
	tree := NewParser(buildFieldLanguage()).Parse([]byte("1+2"))
	want := "(expression left: (expression (literal)) right: (NUMBER))"
	if got := tree.String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
}

func TestNodeFields(t *testing.T) {
	src := []byte("12 + 3")
	tree := NewParser(buildFieldLanguage()).Parse(src)
	root := tree.RootNode()

	right := root.ChildByFieldName("right", nil)
	if right == nil || right.Text(src) != "3" {
		t.Fatalf("right = %v", right)
	}
	if right.FieldName() != "right" {
		t.Errorf("FieldName = %q, want right", right.FieldName())
	}
	if op := root.Child(1); op.FieldName() != "operator" || op.IsNamed() {
		t.Errorf("operator child: field %q named %v", op.FieldName(), op.IsNamed())
	}
	if root.ChildByFieldName("nope", nil) != nil {
		t.Error("unknown field resolved to a child")
	}
	if root.FieldName() != "" {
		t.Errorf("root FieldName = %q", root.FieldName())
	}
}

func TestNodeAlias(t *testing.T) {
	tree := NewParser(buildFieldLanguage()).Parse([]byte("7"))
	lit := tree.RootNode().Child(0)
	if lit == nil {
		t.Fatal("missing aliased child")
	}
	if lit.Type(nil) != "literal" || lit.Symbol() != 4 {
		t.Errorf("aliased child: type %q symbol %d", lit.Type(nil), lit.Symbol())
	}
	if lit.GrammarSymbol() != 1 {
		t.Errorf("GrammarSymbol = %d, want NUMBER (1)", lit.GrammarSymbol())
	}
}

func TestNodeNavigation(t *testing.T) {
	src := []byte("1+2")
	tree := NewParser(buildArithmeticLanguage()).Parse(src)
	root := tree.RootNode()

	left, plus, right := root.Child(0), root.Child(1), root.Child(2)
	if root.Child(3) != nil || root.Child(-1) != nil {
		t.Error("out of range Child should be nil")
	}
	if left.NextSibling().Type(nil) != "+" || plus.PrevSibling().Type(nil) != "expression" {
		t.Error("sibling links are wrong")
	}
	if left.PrevSibling() != nil || right.NextSibling() != nil || root.NextSibling() != nil {
		t.Error("edge siblings should be nil")
	}
	if got := left.NextNamedSibling(); got == nil || got.Text(src) != "2" {
		t.Errorf("NextNamedSibling skipped to %v", got)
	}
	if root.NamedChildCount() != 2 {
		t.Errorf("NamedChildCount = %d, want 2", root.NamedChildCount())
	}
	if got := root.NamedChild(1); got == nil || got.Type(nil) != "NUMBER" {
		t.Errorf("NamedChild(1) = %v", got)
	}
	if root.NamedChild(2) != nil {
		t.Error("NamedChild past the end should be nil")
	}
	if right.Parent().Parent() != nil || right.Tree() != tree {
		t.Error("parent chain or tree link is wrong")
	}
	if !root.Child(0).SameSubtree(left) || left.SameSubtree(right) || left.SameSubtree(nil) {
		t.Error("SameSubtree is wrong")
	}
}

func TestNodePositionsAcrossLines(t *testing.T) {
	src := []byte("1 +\n 22")
	tree := NewParser(buildArithmeticLanguage()).Parse(src)
	num := tree.RootNode().Child(2)
	if num.Text(src) != "22" {
		t.Fatalf("third child text = %q", num.Text(src))
	}
	if num.StartPoint() != (Point{Row: 1, Column: 1}) || num.EndPoint() != (Point{Row: 1, Column: 3}) {
		t.Errorf("points = %v-%v, want {1 1}-{1 3}", num.StartPoint(), num.EndPoint())
	}
	r := num.Range()
	if r.StartByte != 5 || r.EndByte != 7 || r.StartPoint != num.StartPoint() {
		t.Errorf("Range = %+v", r)
	}
	if root := tree.RootNode(); root.EndPoint() != (Point{Row: 1, Column: 3}) {
		t.Errorf("root EndPoint = %v", root.EndPoint())
	}
}

func TestDescendantForRange(t *testing.T) {
	src := []byte("1+2+3")
	tree := NewParser(buildArithmeticLanguage()).Parse(src)
	root := tree.RootNode()

	for _, tc := range []struct {
		start, end uint32
		typ, text  string
	}{
		{0, 1, "NUMBER", "1"},
		{2, 3, "NUMBER", "2"},
		{0, 3, "expression", "1+2"},
		{1, 4, "expression", "1+2+3"},
		{0, 5, "expression", "1+2+3"},
	} {
		n := root.DescendantForByteRange(tc.start, tc.end)
		if n.Type(nil) != tc.typ || n.Text(src) != tc.text {
			t.Errorf("[%d, %d]: got %s %q, want %s %q", tc.start, tc.end, n.Type(nil), n.Text(src), tc.typ, tc.text)
		}
	}

	n := root.DescendantForPointRange(Point{Column: 4}, Point{Column: 5})
	if n.Text(src) != "3" {
		t.Errorf("DescendantForPointRange = %q, want %q", n.Text(src), "3")
	}
}

func TestNodeTextOutOfRange(t *testing.T) {
	tree := NewParser(buildArithmeticLanguage()).Parse([]byte("1+2"))
	if got := tree.RootNode().Text([]byte("1")); got != "" {
		t.Errorf("Text with short source = %q, want empty", got)
	}
}

func TestTreeAccessors(t *testing.T) {
	lang := buildArithmeticLanguage()
	src := []byte("1+")
	tree := NewParser(lang).Parse(src)
	if tree.Language() != lang {
		t.Error("Language() mismatch")
	}
	if string(tree.Source()) != "1+" {
		t.Errorf("Source() = %q", tree.Source())
	}
	diags := tree.Diagnostics()
	if len(diags) == 0 {
		t.Fatal("expected a diagnostic for truncated input")
	}
	if s := diags[0].String(); !strings.HasPrefix(s, "SyntacticError at 0:2") {
		t.Errorf("diagnostic = %q", s)
	}
	if tree.HasDiagnostic(LexicalError) {
		t.Error("no lexical error expected")
	}

	var empty *Tree
	if empty.RootNode() != nil {
		t.Error("nil tree should have no root")
	}
	if got := (&Tree{}).String(); got != "()" {
		t.Errorf("empty tree String() = %q", got)
	}
	if got := ErrorKind(42).String(); got != "ErrorKind(42)" {
		t.Errorf("ErrorKind(42).String() = %q", got)
	}
}

func TestTreeConcurrentReaders(t *testing.T) {
	src := []byte(strings.Repeat("1+", 200) + "1")
	tree := NewParser(buildFieldLanguage()).Parse(src)
	want := tree.String()

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			if got := tree.String(); got != want {
				t.Errorf("concurrent String() differs")
			}
			count := 0
			tree.RootNode().Walk(func(n *Node) bool {
				count++
				return true
			})
			// 201 expressions, 201 numbers and 200 operators.
			if count != 602 {
				t.Errorf("walk visited %d nodes, want 602", count)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
