package gotreesitter

// Error costs. A stack version's cost is the sum of the costs of the trees
// on it; recovery strategies compete on these numbers.
const (
	errorCostPerRecovery    = 500
	errorCostPerMissingTree = 110
	errorCostPerSkippedTree = 100
	errorCostPerSkippedLine = 30
	errorCostPerSkippedChar = 1
)

type subtreeFlags uint16

const (
	flagNamed subtreeFlags = 1 << iota
	flagVisible
	flagExtra
	flagMissing
	flagError // error leaf or ERROR node
	flagHasError
	flagHasChanges
	flagDependsOnColumn
	flagHasExternalTokens
	flagFragile
	flagKeyword
	flagNonterminal
)

// subtree is an immutable syntax tree node. Positions are relative: padding
// is the whitespace between the previous sibling's end and this node's
// content, size is the content itself. Subtrees are shared between tree
// versions and must never be modified after construction; edits copy.
type subtree struct {
	symbol Symbol
	alias  Symbol // display symbol, 0 if none
	flags  subtreeFlags

	padding Length
	size    Length

	children     []*subtree
	fieldIDs     []FieldID // parallel to children, 0 = no field
	productionID uint16

	// parseState is the state a leaf was lexed in; reuse needs the same
	// lex mode.
	parseState     StateID
	lookaheadBytes uint32

	errorCost         uint32
	dynamicPrecedence int32
	nodeCount         uint32

	// externalState is the scanner state after an external leaf.
	externalState []byte
}

func (s *subtree) has(f subtreeFlags) bool { return s.flags&f != 0 }

func (s *subtree) totalSize() Length { return lengthAdd(s.padding, s.size) }

// isLeaf reports whether s is a token. Empty productions build childless
// nonterminals, which are not leaves.
func (s *subtree) isLeaf() bool { return !s.has(flagNonterminal) }

func (s *subtree) displaySymbol() Symbol {
	if s.alias != 0 {
		return s.alias
	}
	return s.symbol
}

func symbolFlags(lang *Language, sym Symbol) subtreeFlags {
	if sym == EOFSymbol {
		return 0
	}
	md := lang.metadata(sym)
	var f subtreeFlags
	if md.Named {
		f |= flagNamed
	}
	if md.Visible {
		f |= flagVisible
	}
	return f
}

func newLeaf(lang *Language, sym Symbol, padding, size Length, lookahead uint32, state StateID) *subtree {
	s := &subtree{
		symbol:         sym,
		flags:          symbolFlags(lang, sym),
		padding:        padding,
		size:           size,
		parseState:     state,
		lookaheadBytes: lookahead,
		nodeCount:      1,
	}
	if sym == ErrorSymbol {
		// Error leaves are anonymous; the ERROR node wrapping them is named.
		s.flags = flagVisible | flagError | flagHasError
		s.errorCost = errorCostPerRecovery +
			errorCostPerSkippedChar*size.Bytes +
			errorCostPerSkippedLine*size.Extent.Row
	}
	return s
}

func newMissingLeaf(lang *Language, sym Symbol, padding Length, state StateID) *subtree {
	s := newLeaf(lang, sym, padding, Length{}, 0, state)
	s.flags |= flagMissing | flagHasError
	s.errorCost = errorCostPerMissingTree + errorCostPerRecovery
	return s
}

// newNode builds a parent from children, computing its span, error summary
// and dynamic precedence. The children slice is owned by the new node.
func newNode(lang *Language, sym Symbol, children []*subtree, productionID uint16, dynPrec int16) *subtree {
	s := &subtree{
		symbol:            sym,
		flags:             symbolFlags(lang, sym) | flagNonterminal,
		children:          children,
		productionID:      productionID,
		dynamicPrecedence: int32(dynPrec),
	}
	if sym == ErrorSymbol {
		s.flags |= flagError | flagHasError
	}
	s.summarize(lang)
	return s
}

func newErrorNode(lang *Language, children []*subtree) *subtree {
	return newNode(lang, ErrorSymbol, children, 0, 0)
}

// summarize derives every computed field from the children.
func (s *subtree) summarize(lang *Language) {
	s.padding, s.size = Length{}, Length{}
	s.lookaheadBytes = 0
	s.errorCost = 0
	s.nodeCount = 1
	var lookaheadEnd uint32
	var total Length
	isError := s.symbol == ErrorSymbol
	structural := 0
	for i, c := range s.children {
		if i == 0 {
			s.padding = c.padding
			total = c.totalSize()
		} else {
			total = lengthAdd(total, c.totalSize())
		}
		if end := total.Bytes + c.lookaheadBytes; end > lookaheadEnd {
			lookaheadEnd = end
		}
		s.errorCost += c.errorCost
		s.nodeCount += c.nodeCount
		s.dynamicPrecedence += c.dynamicPrecedence
		if c.has(flagHasError) {
			s.flags |= flagHasError
		}
		if c.has(flagDependsOnColumn) {
			s.flags |= flagDependsOnColumn
		}
		if c.has(flagHasExternalTokens) {
			s.flags |= flagHasExternalTokens
		}
		if isError && !c.has(flagExtra) && !(c.has(flagError) && len(c.children) == 0) {
			if c.has(flagVisible) {
				s.errorCost += errorCostPerSkippedTree
			} else if len(c.children) > 0 {
				s.errorCost += errorCostPerSkippedTree * uint32(c.visibleChildCount())
			}
		}
		if !c.has(flagExtra) {
			if lang != nil {
				if a := lang.alias(s.productionID, structural); a != 0 && c.alias != a {
					cp := *c
					cp.alias = a
					cp.flags = cp.flags&^(flagNamed|flagVisible) | symbolFlags(lang, a)
					s.children[i] = &cp
				}
			}
			structural++
		}
	}
	if len(s.children) > 0 {
		s.size = lengthSub(total, s.padding)
	}
	if lookaheadEnd > total.Bytes {
		s.lookaheadBytes = lookaheadEnd - total.Bytes
	}
	if isError {
		s.errorCost += errorCostPerRecovery +
			errorCostPerSkippedChar*s.size.Bytes +
			errorCostPerSkippedLine*s.size.Extent.Row
	}
	if lang != nil && s.productionID < uint16(len(lang.FieldMapSlices)) {
		s.assignFields(lang)
	}
}

func (s *subtree) assignFields(lang *Language) {
	entries := lang.fieldMap(s.productionID)
	if len(entries) == 0 {
		return
	}
	s.fieldIDs = make([]FieldID, len(s.children))
	structural := 0
	for i, c := range s.children {
		if c.has(flagExtra) {
			continue
		}
		for _, e := range entries {
			if !e.Inherited && int(e.ChildIndex) == structural {
				s.fieldIDs[i] = e.FieldID
			}
		}
		structural++
	}
}

// visibleChildCount counts children a reader sees, looking through hidden
// nonterminals.
func (s *subtree) visibleChildCount() int {
	n := 0
	for _, c := range s.children {
		if c.has(flagVisible) {
			n++
		} else if len(c.children) > 0 {
			n += c.visibleChildCount()
		}
	}
	return n
}

// withFlags returns a shallow copy of s with extra flags set.
func (s *subtree) withFlags(f subtreeFlags) *subtree {
	if s.flags&f == f {
		return s
	}
	cp := *s
	cp.flags |= f
	return &cp
}

// withPadding returns a copy of s whose padding is replaced. Used when a
// leaf that absorbed leading whitespace becomes the first child elsewhere.
func (s *subtree) withPadding(p Length) *subtree {
	if s.padding == p {
		return s
	}
	cp := *s
	cp.padding = p
	return &cp
}

func (s *subtree) firstLeaf() *subtree {
	for len(s.children) > 0 {
		s = s.children[0]
	}
	return s
}

// lastExternalToken returns the last external leaf inside s, or nil.
func (s *subtree) lastExternalToken() *subtree {
	if !s.has(flagHasExternalTokens) {
		return nil
	}
	for len(s.children) > 0 {
		var next *subtree
		for i := len(s.children) - 1; i >= 0; i-- {
			if s.children[i].has(flagHasExternalTokens) {
				next = s.children[i]
				break
			}
		}
		if next == nil {
			return nil
		}
		s = next
	}
	return s
}

func externalStateOf(s *subtree) []byte {
	if s == nil {
		return nil
	}
	return s.externalState
}
