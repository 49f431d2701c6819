package gotreesitter

import "fmt"

type versionStatus struct {
	cost              uint32
	nodeCount         uint32
	dynamicPrecedence int32
	inError           bool
}

type versionComparison uint8

const (
	versionsEqual versionComparison = iota
	takeLeft
	preferLeft
	preferRight
	takeRight
)

func (ps *parseSession) status(v int) versionStatus {
	s := ps.stack
	return versionStatus{
		cost:              s.errorCost(v),
		nodeCount:         s.nodeCountSinceError(v),
		dynamicPrecedence: s.dynamicPrecedence(v),
		inError:           s.isPaused(v) || s.heads[v].inError,
	}
}

// compareVersions decides whether one version makes the other pointless
// (take) or merely ranks ahead of it (prefer). A cheaper version takes over
// once the cost gap, weighted by how far it got since its last error,
// exceeds MaxCostDifference.
func compareVersions(a, b versionStatus) versionComparison {
	if !a.inError && b.inError {
		if a.cost < b.cost {
			return takeLeft
		}
		return preferLeft
	}
	if a.inError && !b.inError {
		if b.cost < a.cost {
			return takeRight
		}
		return preferRight
	}
	if a.cost < b.cost {
		if uint64(b.cost-a.cost)*uint64(1+a.nodeCount) > MaxCostDifference {
			return takeLeft
		}
		return preferLeft
	}
	if b.cost < a.cost {
		if uint64(a.cost-b.cost)*uint64(1+b.nodeCount) > MaxCostDifference {
			return takeRight
		}
		return preferRight
	}
	if a.dynamicPrecedence > b.dynamicPrecedence {
		return preferLeft
	}
	if b.dynamicPrecedence > a.dynamicPrecedence {
		return preferRight
	}
	return versionsEqual
}

// selectTree reports whether right should replace left as the result of an
// ambiguity: lower error cost wins, then higher dynamic precedence, then a
// fixed structural order so the choice never depends on exploration order.
func selectTree(left, right *subtree) bool {
	if left == nil {
		return true
	}
	if right == nil {
		return false
	}
	if right.errorCost < left.errorCost {
		return true
	}
	if left.errorCost < right.errorCost {
		return false
	}
	if right.dynamicPrecedence > left.dynamicPrecedence {
		return true
	}
	if left.dynamicPrecedence > right.dynamicPrecedence {
		return false
	}
	if left.errorCost > 0 {
		return true
	}
	return compareSubtrees(left, right) > 0
}

func compareSubtrees(a, b *subtree) int {
	switch {
	case a.symbol < b.symbol:
		return -1
	case a.symbol > b.symbol:
		return 1
	case len(a.children) < len(b.children):
		return -1
	case len(a.children) > len(b.children):
		return 1
	}
	for i := range a.children {
		if c := compareSubtrees(a.children[i], b.children[i]); c != 0 {
			return c
		}
	}
	return 0
}

// handleError starts recovery for paused version v, which failed on
// lookahead. Each applicable strategy becomes its own version and the
// versions compete on cost:
//
//   - insert one MISSING token after which lookahead is valid,
//   - pop back to a state that accepts lookahead, wrapping the popped trees
//     in an ERROR node,
//   - skip lookahead into an ERROR node, joining an ERROR just skipped into.
//
// At end of input nothing can be skipped, so v instead finishes with an
// ERROR root holding everything parsed.
func (ps *parseSession) handleError(v int, lookahead *subtree) {
	s := ps.stack
	ps.recoveries++
	ps.stats.Recoveries++
	pos := s.position(v)
	start := lengthAdd(pos, lookahead.padding)
	end := lengthAdd(start, lookahead.size)
	if !lookahead.has(flagError) {
		what := "end of input"
		if lookahead.symbol != EOFSymbol {
			what = fmt.Sprintf("%q", ps.lang.SymbolName(lookahead.symbol))
		}
		ps.diagnose(SyntacticError, Range{
			StartByte: start.Bytes, EndByte: end.Bytes,
			StartPoint: start.Extent, EndPoint: end.Extent,
		}, fmt.Sprintf("unexpected %s in state %d", what, s.state(v)))
	}
	if ps.recoveries > ps.cfg.recoveryBudget {
		ps.finished = ps.finalizeBest(ResourceExhausted, "recovery budget exhausted")
		return
	}

	h := &s.heads[v]
	if h.recoverAt != pos.Bytes+1 {
		h.recoverAt = pos.Bytes + 1
		h.recoverCount = 0
	}
	attempts := h.recoverCount
	h.recoverCount++
	skippedJustBefore := h.cleanShifts == 0 && h.inError
	h.inError = true
	h.cleanShifts = 0
	state := s.state(v)
	lexable := !lookahead.has(flagError)

	if lexable && attempts == 0 {
		ps.recoverWithMissing(v, state, lookahead)
	}
	if lexable && attempts < 2 {
		ps.recoverToPreviousState(v, lookahead)
	}

	if lookahead.symbol == EOFSymbol && !lookahead.has(flagError) {
		ps.trace("recover_eof", "version", v)
		s.push(v, newErrorNode(ps.lang, nil), false, state)
		ps.accept(v, lookahead)
		return
	}
	ps.skipToken(v, state, lookahead, skippedJustBefore)
}

func (ps *parseSession) recoverWithMissing(v int, state StateID, lookahead *subtree) {
	s := ps.stack
	for sym := Symbol(1); uint32(sym) < ps.lang.TokenCount; sym++ {
		next, ok := ps.lang.nextState(state, sym)
		if !ok || next == state {
			continue
		}
		if len(ps.lang.actions(next, lookahead.symbol)) == 0 {
			continue
		}
		nv := s.copyVersion(v)
		if nv < 0 {
			return
		}
		s.push(nv, newMissingLeaf(ps.lang, sym, Length{}, state), false, next)
		ps.trace("recover_with_missing", "version", nv, "symbol", ps.lang.SymbolName(sym), "state", next)
		return
	}
}

func (ps *parseSession) recoverToPreviousState(v int, lookahead *subtree) {
	s := ps.stack
	node := s.heads[v].node
	var popped []*subtree
	for depth := 1; depth <= maxPopBackDepth && len(node.links) > 0; depth++ {
		l := node.links[0]
		popped = append(popped, l.subtree)
		node = l.node
		if len(ps.lang.actions(node.state, lookahead.symbol)) == 0 {
			continue
		}
		nv := s.addVersion(v, node)
		if nv < 0 {
			return
		}
		trees := make([]*subtree, len(popped))
		for i, t := range popped {
			trees[len(popped)-1-i] = t
		}
		errNode := newErrorNode(ps.lang, trees)
		errNode.flags |= flagExtra
		s.push(nv, errNode, false, node.state)
		ps.trace("recover_to_previous", "version", nv, "state", node.state, "depth", depth)
		return
	}
}

func (ps *parseSession) skipToken(v int, state StateID, lookahead *subtree, joinPrevious bool) {
	s := ps.stack
	h := &s.heads[v]
	children := []*subtree{lookahead}
	if joinPrevious && len(h.node.links) == 1 {
		top := h.node.links[0].subtree
		if top.symbol == ErrorSymbol && top.has(flagExtra) && !top.isLeaf() {
			children = append(append([]*subtree(nil), top.children...), lookahead)
			h.node = h.node.links[0].node
		}
	}
	errNode := newErrorNode(ps.lang, children)
	errNode.flags |= flagExtra
	s.push(v, errNode, false, state)
	ps.trace("skip_token", "version", v, "symbol", ps.symbolName(lookahead), "skipped", len(children))
}

// finalizeBest turns the cheapest live version into a finished tree without
// accepting, records why and stops every version.
func (ps *parseSession) finalizeBest(kind ErrorKind, msg string) *subtree {
	s := ps.stack
	best := -1
	for i := 0; i < s.versionCount(); i++ {
		if s.isHalted(i) {
			continue
		}
		if best < 0 || s.errorCost(i) < s.errorCost(best) {
			best = i
		}
	}
	node := ps.deadNode
	if best >= 0 {
		node = s.heads[best].node
	}
	var pos Length
	if node != nil {
		pos = node.position
	}
	ps.diagnose(kind, Range{StartByte: pos.Bytes, EndByte: pos.Bytes, StartPoint: pos.Extent, EndPoint: pos.Extent}, msg)
	if ps.finished != nil && kind != CancellationRequested {
		for i := range s.heads {
			s.halt(i)
		}
		return ps.finished
	}
	root := ps.finalizeNode(node)
	for i := range s.heads {
		s.halt(i)
	}
	return root
}

// finalizeNode wraps the trees below n, the unparsed rest of the input and
// the end-of-input token in an ERROR root, so the root still spans the
// whole input.
func (ps *parseSession) finalizeNode(n *stackNode) *subtree {
	trees := nodeTrees(n)
	var pos Length
	if n != nil {
		pos = n.position
	}
	all := ps.text.all()
	end := Length{Bytes: uint32(len(all)), Extent: ps.text.point}
	if pos.Bytes < end.Bytes {
		rest := newLeaf(ps.lang, ErrorSymbol, Length{}, lengthSub(end, pos), 0, 0)
		trees = append(trees, rest)
	}
	trees = append(trees, newLeaf(ps.lang, EOFSymbol, Length{}, Length{}, 0, 0))
	return newErrorNode(ps.lang, trees)
}
