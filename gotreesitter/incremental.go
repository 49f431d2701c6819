package gotreesitter

import "bytes"

// reuseCandidate is a clean subtree of the previous tree together with the
// external scanner state in effect just before it.
type reuseCandidate struct {
	tree         *subtree
	prevExternal []byte
}

// reuseIndex groups clean subtrees from a previous tree by the byte where
// their padding starts, in the edited tree's coordinates. Candidates at the
// same position are ordered outermost first.
type reuseIndex struct {
	byStart map[uint32][]reuseCandidate
	offsets []uint32
	entries []reuseCandidate
}

func (idx *reuseIndex) candidates(start uint32) []reuseCandidate {
	if idx == nil {
		return nil
	}
	if idx.offsets != nil {
		i := int(start)
		if i+1 >= len(idx.offsets) {
			return nil
		}
		return idx.entries[idx.offsets[i]:idx.offsets[i+1]]
	}
	return idx.byStart[start]
}

// buildReuseIndex indexes the subtrees of an edited tree that may be shifted
// whole by the next parse. Subtrees touched by an edit, containing errors,
// built under ambiguity, or empty are left out, as is the root.
func buildReuseIndex(oldTree *Tree) *reuseIndex {
	if oldTree == nil || oldTree.root == nil {
		return nil
	}
	root := oldTree.root
	var (
		gathered []reuseCandidate
		starts   []uint32
		prevExt  *subtree
	)
	var walk func(s *subtree, start Length, isRoot bool)
	walk = func(s *subtree, start Length, isRoot bool) {
		if !isRoot && reusable(s) {
			gathered = append(gathered, reuseCandidate{tree: s, prevExternal: externalStateOf(prevExt)})
			starts = append(starts, start.Bytes)
		}
		if s.isLeaf() {
			if s.has(flagHasExternalTokens) {
				prevExt = s
			}
			return
		}
		pos := start
		for _, c := range s.children {
			walk(c, pos, false)
			pos = lengthAdd(pos, c.totalSize())
		}
	}
	walk(root, Length{}, true)
	if len(gathered) == 0 {
		return nil
	}

	sourceLen := root.totalSize().Bytes
	// Dense packed buckets avoid map hashing for common editor-size files.
	const denseThreshold = 256 * 1024
	if sourceLen <= denseThreshold {
		bucketCount := int(sourceLen) + 1
		counts := make([]uint32, bucketCount)
		for _, start := range starts {
			counts[start]++
		}
		offsets := make([]uint32, bucketCount+1)
		for i := 0; i < bucketCount; i++ {
			offsets[i+1] = offsets[i] + counts[i]
		}
		entries := make([]reuseCandidate, len(gathered))
		copy(counts, offsets[:bucketCount])
		for i, c := range gathered {
			start := starts[i]
			entries[counts[start]] = c
			counts[start]++
		}
		return &reuseIndex{offsets: offsets, entries: entries}
	}

	byStart := make(map[uint32][]reuseCandidate, len(gathered)/2+1)
	for i, c := range gathered {
		byStart[starts[i]] = append(byStart[starts[i]], c)
	}
	return &reuseIndex{byStart: byStart}
}

func reusable(s *subtree) bool {
	return !s.has(flagHasChanges) && !s.has(flagHasError) && !s.has(flagFragile) &&
		!s.has(flagMissing) && s.size.Bytes > 0 && s.symbol != EOFSymbol
}

// reuseNode returns the largest indexed subtree starting at v's position
// that the parse table accepts unchanged in state, or nil.
func (ps *parseSession) reuseNode(v int, state StateID) *subtree {
	s := ps.stack
	pos := s.position(v).Bytes
	cands := ps.reuse.candidates(pos)
	if len(cands) == 0 {
		return nil
	}
	ext := externalStateOf(s.lastExternal(v))
	mode := ps.lang.lexMode(state)
	for _, c := range cands {
		t := c.tree
		if !bytes.Equal(c.prevExternal, ext) {
			continue
		}
		first := t.firstLeaf()
		if first.isLeaf() && ps.lang.lexMode(first.parseState) != mode {
			continue
		}
		if t.isLeaf() {
			entry := ps.lang.actionEntry(state, t.symbol)
			if entry == nil || !entry.Reusable || len(entry.Actions) == 0 {
				continue
			}
		} else {
			if t.has(flagExtra) {
				continue
			}
			if _, ok := ps.lang.nextState(state, t.symbol); !ok {
				continue
			}
			if first.isLeaf() {
				entry := ps.lang.actionEntry(state, first.symbol)
				if entry == nil || !entry.Reusable || len(entry.Actions) == 0 {
					continue
				}
			}
		}
		ps.trace("reuse_node", "version", v, "symbol", ps.symbolName(t), "pos", pos, "bytes", t.size.Bytes)
		return t
	}
	return nil
}
