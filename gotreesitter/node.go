package gotreesitter

import "sort"

// Node is a syntax tree node as seen by readers: a subtree plus the absolute
// position and visible parent it was reached from. Nodes are cheap views and
// are created on demand; two Nodes for the same position compare equal with
// SameSubtree.
//
// Hidden nonterminals are looked through: their visible descendants appear
// as direct children. Hidden leaves such as the end-of-input token are not
// children at all.
type Node struct {
	sub    *subtree
	offset Length // where the node's padding begins
	parent *Node
	index  int // position among the parent's visible children
	field  FieldID
	tree   *Tree
}

// Symbol returns the node's symbol, after aliasing.
func (n *Node) Symbol() Symbol { return n.sub.displaySymbol() }

// GrammarSymbol returns the symbol the grammar produced, ignoring aliases.
func (n *Node) GrammarSymbol() Symbol { return n.sub.symbol }

// IsNamed reports whether this is a named node (as opposed to anonymous syntax like punctuation).
func (n *Node) IsNamed() bool { return n.sub.has(flagNamed) }

// IsMissing reports whether this node was inserted by error recovery.
func (n *Node) IsMissing() bool { return n.sub.has(flagMissing) }

// IsError reports whether this is an ERROR node or an unlexable token.
func (n *Node) IsError() bool { return n.sub.symbol == ErrorSymbol }

// IsExtra reports whether the node is an extra, such as a comment, or a
// region skipped by error recovery.
func (n *Node) IsExtra() bool { return n.sub.has(flagExtra) }

// HasError reports whether this node or any descendant contains a parse error.
func (n *Node) HasError() bool { return n.sub.has(flagHasError) }

// HasChanges reports whether an edit touched this node since it was parsed.
func (n *Node) HasChanges() bool { return n.sub.has(flagHasChanges) }

// StartByte returns the byte offset where this node begins.
func (n *Node) StartByte() uint32 { return n.offset.Bytes + n.sub.padding.Bytes }

// EndByte returns the byte offset where this node ends (exclusive).
func (n *Node) EndByte() uint32 { return n.StartByte() + n.sub.size.Bytes }

// StartPoint returns the row/column position where this node begins.
func (n *Node) StartPoint() Point { return n.start().Extent }

// EndPoint returns the row/column position where this node ends.
func (n *Node) EndPoint() Point { return lengthAdd(n.start(), n.sub.size).Extent }

func (n *Node) start() Length { return lengthAdd(n.offset, n.sub.padding) }

// Range returns the full span of this node as a Range.
func (n *Node) Range() Range {
	start := n.start()
	end := lengthAdd(start, n.sub.size)
	return Range{
		StartByte:  start.Bytes,
		EndByte:    end.Bytes,
		StartPoint: start.Extent,
		EndPoint:   end.Extent,
	}
}

// Tree returns the tree this node belongs to.
func (n *Node) Tree() *Tree { return n.tree }

// Parent returns this node's parent, or nil if it is the root.
func (n *Node) Parent() *Node { return n.parent }

// FieldName returns the name of the field this node fills in its parent, or
// "".
func (n *Node) FieldName() string {
	if n.field == 0 || n.tree == nil {
		return ""
	}
	return n.tree.language.FieldName(n.field)
}

// eachChild calls fn for every visible child in order until fn returns
// false.
func (n *Node) eachChild(fn func(c *Node) bool) {
	idx := 0
	var walk func(s *subtree, offset Length, field FieldID) bool
	walk = func(s *subtree, offset Length, field FieldID) bool {
		for i, c := range s.children {
			f := field
			if i < len(s.fieldIDs) && s.fieldIDs[i] != 0 {
				f = s.fieldIDs[i]
			}
			if c.has(flagVisible) {
				child := &Node{sub: c, offset: offset, parent: n, index: idx, field: f, tree: n.tree}
				idx++
				if !fn(child) {
					return false
				}
			} else if len(c.children) > 0 {
				if !walk(c, offset, f) {
					return false
				}
			}
			offset = lengthAdd(offset, c.totalSize())
		}
		return true
	}
	walk(n.sub, n.offset, 0)
}

// ChildCount returns the number of children (both named and anonymous).
func (n *Node) ChildCount() int { return n.sub.visibleChildCount() }

// Child returns the i-th child, or nil if i is out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 {
		return nil
	}
	var out *Node
	n.eachChild(func(c *Node) bool {
		if c.index == i {
			out = c
			return false
		}
		return true
	})
	return out
}

// Children returns a slice of all children.
func (n *Node) Children() []*Node {
	var out []*Node
	n.eachChild(func(c *Node) bool {
		out = append(out, c)
		return true
	})
	return out
}

// NamedChildCount returns the number of named children.
func (n *Node) NamedChildCount() int {
	count := 0
	n.eachChild(func(c *Node) bool {
		if c.IsNamed() {
			count++
		}
		return true
	})
	return count
}

// NamedChild returns the i-th named child (skipping anonymous children),
// or nil if i is out of range.
func (n *Node) NamedChild(i int) *Node {
	count := 0
	var out *Node
	n.eachChild(func(c *Node) bool {
		if !c.IsNamed() {
			return true
		}
		if count == i {
			out = c
			return false
		}
		count++
		return true
	})
	return out
}

// ChildByFieldName returns the first child assigned to the given field name,
// or nil if no child has that field. A nil lang means the tree's language.
func (n *Node) ChildByFieldName(name string, lang *Language) *Node {
	if lang == nil && n.tree != nil {
		lang = n.tree.language
	}
	if lang == nil {
		return nil
	}
	fid, ok := lang.FieldByName(name)
	if !ok {
		return nil
	}
	var out *Node
	n.eachChild(func(c *Node) bool {
		if c.field == fid {
			out = c
			return false
		}
		return true
	})
	return out
}

// NextSibling returns the next visible sibling, or nil.
func (n *Node) NextSibling() *Node {
	if n.parent == nil {
		return nil
	}
	return n.parent.Child(n.index + 1)
}

// PrevSibling returns the previous visible sibling, or nil.
func (n *Node) PrevSibling() *Node {
	if n.parent == nil || n.index == 0 {
		return nil
	}
	return n.parent.Child(n.index - 1)
}

// NextNamedSibling returns the next named sibling, or nil.
func (n *Node) NextNamedSibling() *Node {
	for s := n.NextSibling(); s != nil; s = s.NextSibling() {
		if s.IsNamed() {
			return s
		}
	}
	return nil
}

// Text returns the source text covered by this node.
func (n *Node) Text(source []byte) string {
	start, end := n.StartByte(), n.EndByte()
	if int(end) > len(source) || start > end {
		return ""
	}
	return string(source[start:end])
}

// Type returns the node's type name. A nil lang means the tree's language.
func (n *Node) Type(lang *Language) string {
	if lang == nil && n.tree != nil {
		lang = n.tree.language
	}
	if lang == nil {
		return ""
	}
	return lang.SymbolName(n.Symbol())
}

// SameSubtree reports whether n and other are the same shared subtree. After
// an incremental reparse, nodes that were reused from the old tree are the
// same subtree as their old counterparts; that is what lets callers find
// what changed without comparing contents.
func (n *Node) SameSubtree(other *Node) bool {
	return n != nil && other != nil && n.sub == other.sub
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	n.eachChild(func(c *Node) bool {
		c.Walk(fn)
		return true
	})
}

// DescendantForByteRange returns the smallest node spanning [start, end].
func (n *Node) DescendantForByteRange(start, end uint32) *Node {
	return n.descend(func(c *Node) bool { return c.EndByte() >= end },
		func(c *Node) bool { return c.StartByte() <= start })
}

// DescendantForPointRange returns the smallest node spanning [start, end].
func (n *Node) DescendantForPointRange(start, end Point) *Node {
	return n.descend(func(c *Node) bool { return !c.EndPoint().Less(end) },
		func(c *Node) bool { return !start.Less(c.StartPoint()) })
}

// descend walks down from n while some child contains the range. Children
// are ordered and disjoint, so the candidate is found by binary search: the
// first child that ends at or after the range end.
func (n *Node) descend(endsAfter, startsBefore func(*Node) bool) *Node {
	cur := n
	for {
		children := cur.Children()
		i := sort.Search(len(children), func(i int) bool { return endsAfter(children[i]) })
		if i >= len(children) || !startsBefore(children[i]) {
			return cur
		}
		cur = children[i]
	}
}
