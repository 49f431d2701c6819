package gotreesitter

// Range is a span of source text.
type Range struct {
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
}

// Tree holds a complete syntax tree along with its source text and language.
// A Tree is immutable: Edit returns a new Tree that shares every subtree the
// edit did not touch. Trees are safe for concurrent readers.
type Tree struct {
	root        *subtree
	source      []byte
	language    *Language
	diagnostics []Diagnostic
	stats       ParseStats
	edited      bool
}

func newTree(root *subtree, source []byte, lang *Language) *Tree {
	return &Tree{root: root, source: source, language: lang}
}

// RootNode returns the tree's root node, or nil for an empty tree.
func (t *Tree) RootNode() *Node {
	if t == nil || t.root == nil {
		return nil
	}
	return &Node{sub: t.root, tree: t}
}

// Source returns the text this tree was parsed from. Trees produced by Edit
// return nil: their positions describe text the tree has not seen.
func (t *Tree) Source() []byte {
	if t.edited {
		return nil
	}
	return t.source
}

// Language returns the language used to parse this tree.
func (t *Tree) Language() *Language { return t.language }

// Diagnostics returns the problems recorded while parsing, in the order they
// were found.
func (t *Tree) Diagnostics() []Diagnostic { return t.diagnostics }

// Stats reports what the parse that produced this tree did.
func (t *Tree) Stats() ParseStats { return t.stats }

// HasDiagnostic reports whether any diagnostic of kind k was recorded.
func (t *Tree) HasDiagnostic(k ErrorKind) bool {
	for _, d := range t.diagnostics {
		if d.Kind == k {
			return true
		}
	}
	return false
}

// String returns the root node's s-expression.
func (t *Tree) String() string {
	root := t.RootNode()
	if root == nil {
		return "()"
	}
	return root.String()
}
