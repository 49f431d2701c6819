package gotreesitter

// InputEdit describes a single edit to the source text. It tells the parser
// what byte range was replaced and what the new range looks like, so the
// incremental parser can skip unchanged subtrees.
type InputEdit struct {
	StartByte   uint32
	OldEndByte  uint32
	NewEndByte  uint32
	StartPoint  Point
	OldEndPoint Point
	NewEndPoint Point
}

// editSpan is an InputEdit expressed relative to some subtree's padding
// start.
type editSpan struct {
	start, oldEnd, newEnd Length
}

// Edit returns a copy of the tree adjusted for edit. Only the nodes on the
// path to the edit are copied; every later node moves with its relative
// padding. Copied nodes are marked as changed, and so are nodes whose
// lexer lookahead reached into the edit, plus column-dependent tokens
// that follow the edit on the row it ended on. Pass the result to ParseIncremental.
func (t *Tree) Edit(edit InputEdit) *Tree {
	if t == nil {
		return nil
	}
	out := *t
	out.edited = true
	out.diagnostics = nil
	out.stats = ParseStats{}
	if t.root != nil {
		out.root = editSubtree(t.root, editSpan{
			start:  Length{Bytes: edit.StartByte, Extent: edit.StartPoint},
			oldEnd: Length{Bytes: edit.OldEndByte, Extent: edit.OldEndPoint},
			newEnd: Length{Bytes: edit.NewEndByte, Extent: edit.NewEndPoint},
		})
	}
	return &out
}

// editSubtree returns s adjusted for e, or s itself when e cannot affect it.
func editSubtree(s *subtree, e editSpan) *subtree {
	isNoop := e.oldEnd.Bytes == e.start.Bytes && e.newEnd.Bytes == e.start.Bytes
	isPureInsertion := e.oldEnd.Bytes == e.start.Bytes

	padding, size := s.padding, s.size
	total := lengthAdd(padding, size)
	endByte := total.Bytes + s.lookaheadBytes
	if e.start.Bytes > endByte || (isNoop && e.start.Bytes == endByte) {
		return s
	}

	switch {
	case e.oldEnd.Bytes <= padding.Bytes:
		// Entirely inside the padding: shift without resizing.
		padding = lengthAdd(e.newEnd, lengthSub(padding, e.oldEnd))
	case e.start.Bytes < padding.Bytes:
		// Starts in the padding and reaches the content: shrink.
		size = lengthSaturatingSub(size, lengthSub(e.oldEnd, padding))
		padding = e.newEnd
	case e.start.Bytes < total.Bytes || (e.start.Bytes == total.Bytes && isPureInsertion):
		size = lengthAdd(lengthSub(e.newEnd, padding), lengthSaturatingSub(total, e.oldEnd))
	}

	out := *s
	out.padding = padding
	out.size = size
	out.flags |= flagHasChanges
	if len(s.children) == 0 {
		return &out
	}

	dependsOnColumn := s.has(flagDependsOnColumn)
	children := make([]*subtree, len(s.children))
	copy(children, s.children)
	var childLeft, childRight Length
	for i, c := range s.children {
		childSize := c.totalSize()
		childLeft = childRight
		childRight = lengthAdd(childLeft, childSize)

		if childRight.Bytes+c.lookaheadBytes < e.start.Bytes {
			continue
		}
		// Stop at the first child past the edit, unless column-dependent
		// tokens may follow on the row the edit ended on. Their columns
		// move with the new end point.
		pastEdit := childLeft.Bytes > e.oldEnd.Bytes ||
			(childLeft.Bytes == e.oldEnd.Bytes && childSize.Bytes > 0 && i > 0)
		if pastEdit && (!dependsOnColumn || childLeft.Extent.Row > e.oldEnd.Extent.Row) {
			break
		}

		childEdit := editSpan{
			start:  lengthSaturatingSub(e.start, childLeft),
			oldEnd: lengthSaturatingSub(e.oldEnd, childLeft),
			newEnd: lengthSaturatingSub(e.newEnd, childLeft),
		}
		// Inserted text belongs to the first child touching the edit; later
		// children only shrink.
		if childRight.Bytes > e.start.Bytes || (childRight.Bytes == e.start.Bytes && isPureInsertion) {
			e.newEnd = e.start
		}
		children[i] = editSubtree(c, childEdit)
	}
	out.children = children
	return &out
}
