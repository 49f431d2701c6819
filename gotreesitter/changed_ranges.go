package gotreesitter

// ChangedRanges returns the ranges of newTree whose syntactic structure
// differs from oldTree, in ascending order with adjacent ranges joined.
// oldTree must be the edited tree newTree was parsed from, so both use the
// same coordinates. Subtrees shared by pointer at the same position are
// unchanged without being visited.
func ChangedRanges(oldTree, newTree *Tree) []Range {
	if newTree == nil || newTree.root == nil {
		return nil
	}
	var out []Range
	var oldRoot *subtree
	if oldTree != nil {
		oldRoot = oldTree.root
	}
	diffSubtrees(oldRoot, newTree.root, Length{}, Length{}, &out)
	return out
}

func diffSubtrees(a, b *subtree, aPos, bPos Length, out *[]Range) {
	if a == b && aPos.Bytes == bPos.Bytes {
		return
	}
	if a != nil && b != nil && !a.isLeaf() && !b.isLeaf() &&
		a.displaySymbol() == b.displaySymbol() && len(a.children) == len(b.children) &&
		a.padding.Bytes+aPos.Bytes == b.padding.Bytes+bPos.Bytes {
		for i := range a.children {
			diffSubtrees(a.children[i], b.children[i], aPos, bPos, out)
			aPos = lengthAdd(aPos, a.children[i].totalSize())
			bPos = lengthAdd(bPos, b.children[i].totalSize())
		}
		return
	}
	if a != nil && b != nil && a.isLeaf() && b.isLeaf() && a.displaySymbol() == b.displaySymbol() &&
		a.flags&^leafNoise == b.flags&^leafNoise && lengthAdd(aPos, a.padding) == lengthAdd(bPos, b.padding) && a.size == b.size {
		return
	}
	if b == nil {
		return
	}
	start := lengthAdd(bPos, b.padding)
	end := lengthAdd(start, b.size)
	if a != nil {
		if as := lengthAdd(aPos, a.padding); as.Bytes < start.Bytes {
			start = as
		}
	}
	appendRange(out, Range{StartByte: start.Bytes, EndByte: end.Bytes, StartPoint: start.Extent, EndPoint: end.Extent})
}

// leafNoise are flags that differ between equal tokens of an edited and a
// reparsed tree.
const leafNoise = flagHasChanges | flagFragile

func appendRange(out *[]Range, r Range) {
	if n := len(*out); n > 0 {
		last := &(*out)[n-1]
		if r.StartByte <= last.EndByte {
			if r.EndByte > last.EndByte {
				last.EndByte = r.EndByte
				last.EndPoint = r.EndPoint
			}
			return
		}
	}
	*out = append(*out, r)
}
