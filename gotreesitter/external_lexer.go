package gotreesitter

// ExternalLexer is the scanner-facing lexer API used by external scanners.
// It mirrors the essential tree-sitter scanner API: lookahead, advance,
// mark_end, get_column and result_symbol.
type ExternalLexer struct {
	text *textBuffer

	startPos int
	pos      int
	endPos   int

	startPoint Point
	point      Point
	endPoint   Point

	resultSymbol Symbol
	hasResult    bool
	markedEnd    bool

	didGetColumn bool
	lookaheadEnd int
}

func newExternalLexer(text *textBuffer, start Length) *ExternalLexer {
	pos := int(start.Bytes)
	return &ExternalLexer{
		text:         text,
		startPos:     pos,
		pos:          pos,
		endPos:       pos,
		startPoint:   start.Extent,
		point:        start.Extent,
		endPoint:     start.Extent,
		lookaheadEnd: pos,
	}
}

// Lookahead returns the current rune or 0 at EOF.
func (l *ExternalLexer) Lookahead() rune {
	r, _, ok := l.text.runeAt(l.pos)
	if l.pos+1 > l.lookaheadEnd {
		l.lookaheadEnd = l.pos + 1
	}
	if !ok {
		return 0
	}
	return r
}

// EOF reports whether the cursor is at the end of input.
func (l *ExternalLexer) EOF() bool {
	return l.text.eofAt(l.pos)
}

// Advance consumes one rune. When skip is true, consumed bytes are excluded
// from the token span (scanner whitespace skipping behavior).
func (l *ExternalLexer) Advance(skip bool) {
	r, size, ok := l.text.runeAt(l.pos)
	if !ok {
		return
	}
	l.pos += size
	if l.pos > l.lookaheadEnd {
		l.lookaheadEnd = l.pos
	}
	if r == '\n' {
		l.point.Row++
		l.point.Column = 0
	} else {
		l.point.Column++
	}

	if skip {
		l.startPos = l.pos
		l.startPoint = l.point
		l.endPos = l.pos
		l.endPoint = l.point
	}
}

// MarkEnd marks the current scanner position as the token end.
func (l *ExternalLexer) MarkEnd() {
	l.endPos = l.pos
	l.endPoint = l.point
	l.markedEnd = true
}

// SetResultSymbol sets the external token index to emit when Scan returns
// true.
func (l *ExternalLexer) SetResultSymbol(sym Symbol) {
	l.resultSymbol = sym
	l.hasResult = true
}

// GetColumn returns the current column (0-based) at the scanner cursor.
// Tokens whose scanner asked for the column are re-lexed whenever an edit
// lands earlier on the same row.
func (l *ExternalLexer) GetColumn() uint32 {
	l.didGetColumn = true
	return l.point.Column
}

// token returns the scanned token. When the scanner never called MarkEnd the
// token ends at the cursor, as in tree-sitter.
func (l *ExternalLexer) token() (Token, bool) {
	if !l.hasResult {
		return Token{}, false
	}
	endPos, endPoint := l.endPos, l.endPoint
	if !l.markedEnd {
		endPos, endPoint = l.pos, l.point
	}
	if endPos < l.startPos {
		return Token{}, false
	}

	return Token{
		Symbol:     l.resultSymbol,
		Text:       string(l.text.slice(uint32(l.startPos), uint32(endPos))),
		StartByte:  uint32(l.startPos),
		EndByte:    uint32(endPos),
		StartPoint: l.startPoint,
		EndPoint:   endPoint,
		External:   true,
	}, true
}

func (l *ExternalLexer) lookaheadBytes(end uint32) uint32 {
	if l.lookaheadEnd <= int(end) {
		return 0
	}
	return uint32(l.lookaheadEnd) - end
}
