package gotreesitter

import (
	"strconv"
	"strings"
)

// String returns the node as an s-expression of its named descendants, in
// the format tree-sitter's test corpora use:
//
//	(expression left: (number) right: (number))
//
// Anonymous nodes are omitted unless recovery inserted them, in which case
// they appear as (MISSING "+").
func (n *Node) String() string {
	var b strings.Builder
	n.writeSExp(&b, true)
	return b.String()
}

func (n *Node) writeSExp(b *strings.Builder, isRoot bool) {
	lang := n.tree.language
	printed := isRoot || n.IsNamed() || n.IsMissing()
	if printed {
		if !isRoot {
			b.WriteByte(' ')
			if name := n.FieldName(); name != "" {
				b.WriteString(name)
				b.WriteString(": ")
			}
		}
		b.WriteByte('(')
		if n.IsMissing() {
			b.WriteString("MISSING ")
			if n.IsNamed() {
				b.WriteString(lang.SymbolName(n.Symbol()))
			} else {
				b.WriteString(strconv.Quote(lang.SymbolName(n.Symbol())))
			}
		} else {
			b.WriteString(n.Type(lang))
		}
	}
	n.eachChild(func(c *Node) bool {
		c.writeSExp(b, false)
		return true
	})
	if printed {
		b.WriteByte(')')
	}
}
