package gotreesitter

// The parse stack is a graph-structured stack: every version (head) points
// at a node, nodes link back to their predecessors, and versions that fork
// share everything below the fork. Merging two versions adds the second
// head's links to the first head's node, so one node can be reached by
// several paths; pop enumerates all of them.

const (
	maxLinkCount     = 8
	maxIteratorCount = 64
)

type stackLink struct {
	node    *stackNode
	subtree *subtree
	// reused marks a nonterminal shifted whole from the old tree. It can be
	// broken down again if the parse fails right after it.
	reused bool
}

type stackNode struct {
	state             StateID
	position          Length
	links             []stackLink
	errorCost         uint32
	dynamicPrecedence int32
	nodeCount         uint32
}

type headStatus uint8

const (
	headActive headStatus = iota
	headPaused
	headHalted
)

type stackHead struct {
	node   *stackNode
	status headStatus
	// lookahead is the token that made a paused head fail.
	lookahead *subtree
	// lastExternal is the most recent external token on this version; its
	// serialized state is what the scanner resumes from.
	lastExternal *subtree

	nodeCountAtLastError uint32
	// inError is set by recovery and cleared after enough clean shifts.
	inError     bool
	cleanShifts int
	// recoverAt is one past the byte position of this version's latest
	// recovery, and recoverCount how many recoveries happened there. They
	// stop recovery from cycling without consuming input.
	recoverAt    uint32
	recoverCount int
}

// stackSlice is the result of popping down to one base node: every path of
// subtrees that leads there, and the version whose head is the base node.
type stackSlice struct {
	version int
	node    *stackNode
	paths   [][]*subtree
}

type stack struct {
	heads    []stackHead
	maxHeads int
	// protect is a version that pruning must not touch while the parser is
	// working on it.
	protect int
	stats   *ParseStats
	onPrune func()
}

func newStack(initial StateID, maxHeads int, stats *ParseStats) *stack {
	s := &stack{
		heads:    []stackHead{{node: &stackNode{state: initial}}},
		maxHeads: maxHeads,
		protect:  -1,
		stats:    stats,
	}
	s.observe()
	return s
}

func (s *stack) versionCount() int { return len(s.heads) }

func (s *stack) liveCount() int {
	n := 0
	for i := range s.heads {
		if s.heads[i].status != headHalted {
			n++
		}
	}
	return n
}

func (s *stack) observe() {
	if s.stats == nil {
		return
	}
	if n := s.liveCount(); n > s.stats.MaxHeads {
		s.stats.MaxHeads = n
	}
}

func (s *stack) state(v int) StateID          { return s.heads[v].node.state }
func (s *stack) position(v int) Length        { return s.heads[v].node.position }
func (s *stack) isActive(v int) bool          { return s.heads[v].status == headActive }
func (s *stack) isPaused(v int) bool          { return s.heads[v].status == headPaused }
func (s *stack) isHalted(v int) bool          { return s.heads[v].status == headHalted }
func (s *stack) lastExternal(v int) *subtree { return s.heads[v].lastExternal }

// errorCost is the version's cost for comparisons. A paused version has
// already failed, so it carries the price of a recovery.
func (s *stack) errorCost(v int) uint32 {
	h := &s.heads[v]
	cost := h.node.errorCost
	if h.status == headPaused {
		cost += errorCostPerRecovery
	}
	return cost
}

func (s *stack) nodeCountSinceError(v int) uint32 {
	h := &s.heads[v]
	if h.node.nodeCount < h.nodeCountAtLastError {
		return 0
	}
	return h.node.nodeCount - h.nodeCountAtLastError
}

func (s *stack) dynamicPrecedence(v int) int32 { return s.heads[v].node.dynamicPrecedence }

func newStackNode(prev *stackNode, t *subtree, reused bool, state StateID) *stackNode {
	return &stackNode{
		state:             state,
		position:          lengthAdd(prev.position, t.totalSize()),
		links:             []stackLink{{node: prev, subtree: t, reused: reused}},
		errorCost:         prev.errorCost + t.errorCost,
		dynamicPrecedence: prev.dynamicPrecedence + t.dynamicPrecedence,
		nodeCount:         prev.nodeCount + t.nodeCount,
	}
}

// push shifts t onto version v, moving it to state.
func (s *stack) push(v int, t *subtree, reused bool, state StateID) {
	h := &s.heads[v]
	h.node = newStackNode(h.node, t, reused, state)
	if ext := t.lastExternalToken(); ext != nil {
		h.lastExternal = ext
	}
}

// addVersion creates a version headed by node that inherits orig's scanner
// and recovery state. The live version count never exceeds maxHeads: when
// full, the costliest other version is halted to make room, or the new
// version is refused (-1) if it would be the costliest.
func (s *stack) addVersion(orig int, node *stackNode) int {
	src := s.heads[orig]
	h := stackHead{
		node:                 node,
		lastExternal:         src.lastExternal,
		nodeCountAtLastError: src.nodeCountAtLastError,
		inError:              src.inError,
		cleanShifts:          src.cleanShifts,
		recoverAt:            src.recoverAt,
		recoverCount:         src.recoverCount,
	}
	if s.maxHeads > 0 && s.liveCount() >= s.maxHeads {
		worst := -1
		for i := range s.heads {
			if i == orig || i == s.protect || s.heads[i].status == headHalted {
				continue
			}
			if worst < 0 || s.errorCost(i) > s.errorCost(worst) {
				worst = i
			}
		}
		if worst < 0 || s.errorCost(worst) <= node.errorCost {
			s.prune()
			return -1
		}
		s.halt(worst)
		s.prune()
	}
	s.heads = append(s.heads, h)
	s.observe()
	return len(s.heads) - 1
}

func (s *stack) prune() {
	if s.stats != nil {
		s.stats.PrunedHeads++
	}
	if s.onPrune != nil {
		s.onPrune()
	}
}

// copyVersion forks v. Both versions share all history.
func (s *stack) copyVersion(v int) int {
	nv := s.addVersion(v, s.heads[v].node)
	if nv >= 0 && s.stats != nil {
		s.stats.Forks++
	}
	return nv
}

func (s *stack) halt(v int) {
	s.heads[v].status = headHalted
	s.heads[v].lookahead = nil
}

func (s *stack) pause(v int, lookahead *subtree) {
	h := &s.heads[v]
	h.status = headPaused
	h.lookahead = lookahead
	h.nodeCountAtLastError = h.node.nodeCount
}

func (s *stack) resume(v int) *subtree {
	h := &s.heads[v]
	la := h.lookahead
	h.status = headActive
	h.lookahead = nil
	return la
}

// renumber moves version src into slot dst and halts the old src slot.
// Slots are never erased mid-round so version indices stay stable.
func (s *stack) renumber(src, dst int) {
	if src == dst {
		return
	}
	s.heads[dst] = s.heads[src]
	s.heads[src] = stackHead{node: s.heads[dst].node, status: headHalted}
}

func (s *stack) swap(i, j int) { s.heads[i], s.heads[j] = s.heads[j], s.heads[i] }

func (s *stack) remove(v int) {
	s.heads = append(s.heads[:v], s.heads[v+1:]...)
}

// removeHalted drops halted versions, renumbering the rest.
func (s *stack) removeHalted() {
	out := s.heads[:0]
	for _, h := range s.heads {
		if h.status != headHalted {
			out = append(out, h)
		}
	}
	for i := len(out); i < len(s.heads); i++ {
		s.heads[i] = stackHead{}
	}
	s.heads = out
}

func (s *stack) canMerge(a, b int) bool {
	ha, hb := &s.heads[a], &s.heads[b]
	return ha.status == headActive && hb.status == headActive &&
		ha.node.state == hb.node.state &&
		ha.node.position.Bytes == hb.node.position.Bytes &&
		ha.node.errorCost == hb.node.errorCost &&
		ExternalScannerState{externalStateOf(ha.lastExternal)}.Equal(ExternalScannerState{externalStateOf(hb.lastExternal)})
}

// merge folds version b into a when they are interchangeable from here on.
// a's node gains b's links, so later pops see both histories. b is halted.
func (s *stack) merge(a, b int) bool {
	if !s.canMerge(a, b) {
		return false
	}
	ha, hb := &s.heads[a], &s.heads[b]
	if ha.node != hb.node {
		for _, l := range hb.node.links {
			ha.node.addLink(l)
		}
	}
	s.halt(b)
	if s.stats != nil {
		s.stats.Merges++
	}
	return true
}

func subtreesEquivalent(a, b *subtree) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.symbol != b.symbol {
		return false
	}
	if a.errorCost > 0 && b.errorCost > 0 {
		return true
	}
	return a.padding.Bytes == b.padding.Bytes &&
		a.size.Bytes == b.size.Bytes &&
		len(a.children) == len(b.children) &&
		a.has(flagExtra) == b.has(flagExtra) &&
		ExternalScannerState{a.externalState}.Equal(ExternalScannerState{b.externalState})
}

func (n *stackNode) addLink(l stackLink) {
	if l.node == n {
		return
	}
	for i := range n.links {
		existing := &n.links[i]
		if !subtreesEquivalent(existing.subtree, l.subtree) {
			continue
		}
		// Two links between the same pair of nodes: keep the one with the
		// higher dynamic precedence.
		if existing.node == l.node {
			if l.subtree.dynamicPrecedence > existing.subtree.dynamicPrecedence {
				existing.subtree = l.subtree
				n.dynamicPrecedence = l.node.dynamicPrecedence + l.subtree.dynamicPrecedence
			}
			return
		}
		// Equivalent subtrees over mergeable predecessors: merge those.
		if existing.node.state == l.node.state &&
			existing.node.position.Bytes == l.node.position.Bytes &&
			existing.node.errorCost == l.node.errorCost {
			for _, ll := range l.node.links {
				existing.node.addLink(ll)
			}
			if dp := l.node.dynamicPrecedence + l.subtree.dynamicPrecedence; dp > n.dynamicPrecedence {
				n.dynamicPrecedence = dp
			}
			return
		}
	}
	if len(n.links) >= maxLinkCount {
		return
	}
	n.links = append(n.links, l)
	if dp := l.node.dynamicPrecedence + l.subtree.dynamicPrecedence; dp > n.dynamicPrecedence {
		n.dynamicPrecedence = dp
	}
}

type stackIterator struct {
	node  *stackNode
	trees []*subtree // most recent first
	count int
}

// pop removes count non-extra subtrees from version v along every path. The
// version itself is left in place; each distinct base node becomes a new
// version. When inPlace is set, the first base node reuses v's slot instead.
func (s *stack) pop(v, count int, inPlace bool) []stackSlice {
	return s.iterate(v, count, false, inPlace)
}

// popAll returns every path from v's head to the bottom of the stack.
func (s *stack) popAll(v int) []stackSlice {
	return s.iterate(v, 0, true, true)
}

func (s *stack) iterate(v, goal int, all, inPlace bool) []stackSlice {
	iters := []stackIterator{{node: s.heads[v].node}}
	var slices []stackSlice
	byNode := make(map[*stackNode]int) // base node -> index in slices
	usedSlot := false

	addPath := func(node *stackNode, trees []*subtree) {
		path := make([]*subtree, len(trees))
		for i, t := range trees {
			path[len(trees)-1-i] = t
		}
		if idx, ok := byNode[node]; ok {
			slices[idx].paths = append(slices[idx].paths, path)
			return
		}
		version := -1
		if inPlace && !usedSlot {
			usedSlot = true
			version = v
		} else {
			version = s.addVersion(v, node)
			if version >= 0 && s.stats != nil {
				s.stats.Forks++
			}
		}
		byNode[node] = len(slices)
		slices = append(slices, stackSlice{version: version, node: node, paths: [][]*subtree{path}})
	}

	for len(iters) > 0 {
		var next []stackIterator
		for _, it := range iters {
			if !all && it.count == goal {
				addPath(it.node, it.trees)
				continue
			}
			if len(it.node.links) == 0 {
				if all {
					addPath(it.node, it.trees)
				}
				continue
			}
			for _, l := range it.node.links {
				if len(next) >= maxIteratorCount {
					break
				}
				trees := append(it.trees[:len(it.trees):len(it.trees)], l.subtree)
				nit := stackIterator{node: l.node, trees: trees, count: it.count}
				if !l.subtree.has(flagExtra) {
					nit.count++
				}
				next = append(next, nit)
			}
		}
		iters = next
	}

	// The in-place slot keeps v's scanner and recovery state; only its node
	// moves.
	out := slices[:0]
	for _, sl := range slices {
		if inPlace && sl.version == v {
			s.heads[v].node = sl.node
		}
		if sl.version >= 0 {
			out = append(out, sl)
		}
	}
	return out
}

// topReused reports whether v's most recent push is a reused nonterminal
// and returns its link.
func (s *stack) topReused(v int) (stackLink, bool) {
	n := s.heads[v].node
	if len(n.links) != 1 {
		return stackLink{}, false
	}
	l := n.links[0]
	if !l.reused || l.subtree.isLeaf() {
		return stackLink{}, false
	}
	return l, true
}

// nodeTrees returns the subtrees on the first path below n, bottom first.
// Used when a version has to be turned into a tree without accepting.
func nodeTrees(n *stackNode) []*subtree {
	var out []*subtree
	for ; n != nil && len(n.links) > 0; n = n.links[0].node {
		out = append(out, n.links[0].subtree)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
