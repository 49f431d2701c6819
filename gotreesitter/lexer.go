package gotreesitter

import "unsafe"

// Token is a lexed token with position info.
type Token struct {
	Symbol     Symbol
	Text       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
	// External is set for tokens produced by an ExternalScanner.
	External bool
}

// IsError reports whether the token covers text no lexer rule matched.
func (t Token) IsError() bool { return t.Symbol == ErrorSymbol }

func (t Token) size() Length {
	return lengthFromPoints(t.StartByte, t.EndByte, t.StartPoint, t.EndPoint)
}

func bytesToStringNoCopy(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// Lexer tokenizes source text using a table-driven DFA.
//
// The lexer only moves forward. Callers that need to lex from an earlier
// position, such as a parser resuming another stack version, must Reset it.
type Lexer struct {
	states []LexState
	text   *textBuffer
	pos    int
	point  Point

	// lookaheadEnd is the furthest byte the last Next call inspected.
	lookaheadEnd int
}

// NewLexer creates a new Lexer that will tokenize source using the given
// DFA state table.
func NewLexer(states []LexState, source []byte) *Lexer {
	return newLexer(states, newBytesBuffer(source))
}

func newLexer(states []LexState, text *textBuffer) *Lexer {
	return &Lexer{states: states, text: text}
}

// Position returns the lexer's current position.
func (l *Lexer) Position() Length {
	return Length{Bytes: uint32(l.pos), Extent: l.point}
}

// Reset moves the lexer to pos. This is the only way to move backwards.
func (l *Lexer) Reset(pos Length) {
	l.pos = int(pos.Bytes)
	l.point = pos.Extent
	l.lookaheadEnd = l.pos
}

// LookaheadBytes returns how many bytes past the end of the last token the
// lexer had to inspect to decide where it ended.
func (l *Lexer) LookaheadBytes() uint32 {
	if l.lookaheadEnd <= l.pos {
		return 0
	}
	return uint32(l.lookaheadEnd - l.pos)
}

// Next lexes the next token starting from the given lex state index.
// It automatically skips tokens from states where Skip=true (whitespace).
// Text that no rule matches comes back as a single ErrorSymbol token.
// Returns a zero-Symbol token with StartByte==EndByte at EOF.
func (l *Lexer) Next(startState uint16) Token {
	l.lookaheadEnd = l.pos
	for {
		if l.text.eofAt(l.pos) || int(startState) >= len(l.states) {
			return l.eofToken()
		}

		tokenStart := l.pos
		tok, ok := l.scan(startState, l.pos, l.point)
		if ok {
			if tok.Symbol == 0 {
				// Skip token (whitespace). Verify the lexer actually
				// advanced past the skipped content to prevent an
				// infinite loop on zero-width skip matches.
				if l.pos <= tokenStart {
					return l.errorToken(startState)
				}
				continue
			}
			if tok.EndByte == tok.StartByte {
				return l.errorToken(startState)
			}
			return tok
		}
		return l.errorToken(startState)
	}
}

func (l *Lexer) eofToken() Token {
	return Token{
		StartByte:  uint32(l.pos),
		EndByte:    uint32(l.pos),
		StartPoint: l.point,
		EndPoint:   l.point,
	}
}

// errorToken consumes runes until the DFA can match again (or EOF) and
// returns them as one error token.
func (l *Lexer) errorToken(startState uint16) Token {
	start, startPoint := l.pos, l.point
	l.skipOneRune()
	for !l.text.eofAt(l.pos) {
		savePos, savePoint, saveLook := l.pos, l.point, l.lookaheadEnd
		_, ok := l.scan(startState, l.pos, l.point)
		l.pos, l.point, l.lookaheadEnd = savePos, savePoint, saveLook
		if ok {
			break
		}
		l.skipOneRune()
	}
	return Token{
		Symbol:     ErrorSymbol,
		Text:       string(l.text.slice(uint32(start), uint32(l.pos))),
		StartByte:  uint32(start),
		EndByte:    uint32(l.pos),
		StartPoint: startPoint,
		EndPoint:   l.point,
	}
}

// scan runs the DFA from the given start state and position. It returns
// a token and true if an accepting state was reached, or false if not.
// On a skip (whitespace) match, it returns a zero-Symbol token and true.
func (l *Lexer) scan(startState uint16, startPos int, startPoint Point) (Token, bool) {
	states := l.states
	curState := int(startState)
	scanPos := startPos
	scanPoint := startPoint

	// Track the last accepting state.
	acceptPos := -1
	acceptPoint := startPoint
	acceptSymbol := Symbol(0)
	acceptSkip := false

	// Check if the start state itself is accepting.
	st := &states[curState]
	if st.AcceptToken > 0 || st.Skip {
		acceptPos = scanPos
		acceptSymbol = st.AcceptToken
		acceptSkip = st.Skip
	}

	// Walk the DFA.
	for {
		r, size, ok := l.text.runeAt(scanPos)
		if scanPos+1 > l.lookaheadEnd {
			l.lookaheadEnd = scanPos + 1
		}
		st = &states[curState]
		if !ok {
			if st.EOF >= 0 && st.EOF < len(states) && st.EOF != curState {
				ns := &states[st.EOF]
				if ns.AcceptToken > 0 || ns.Skip {
					acceptPos = scanPos
					acceptPoint = scanPoint
					acceptSymbol = ns.AcceptToken
					acceptSkip = ns.Skip
				}
			}
			break
		}

		nextState := -1
		for i := range st.Transitions {
			tr := &st.Transitions[i]
			if r >= tr.Lo && r <= tr.Hi {
				nextState = tr.NextState
				break
			}
		}
		if nextState < 0 && st.Default >= 0 {
			nextState = st.Default
		}
		if nextState < 0 || nextState >= len(states) {
			break
		}

		// Advance scan position and track row/column.
		scanPos += size
		if r == '\n' {
			scanPoint.Row++
			scanPoint.Column = 0
		} else {
			scanPoint.Column++
		}

		curState = nextState
		ns := &states[curState]
		if ns.AcceptToken > 0 || ns.Skip {
			acceptPos = scanPos
			acceptPoint = scanPoint
			acceptSymbol = ns.AcceptToken
			acceptSkip = ns.Skip
		}
	}

	if acceptPos < 0 {
		return Token{}, false
	}

	// Rewind (or advance) to the accept position.
	l.pos = acceptPos
	l.point = acceptPoint

	if acceptSkip {
		// Return a zero-Symbol token to signal "skip".
		return Token{
			StartByte:  uint32(startPos),
			EndByte:    uint32(acceptPos),
			StartPoint: startPoint,
			EndPoint:   acceptPoint,
		}, true
	}

	return Token{
		Symbol:     acceptSymbol,
		Text:       bytesToStringNoCopy(l.text.slice(uint32(startPos), uint32(acceptPos))),
		StartByte:  uint32(startPos),
		EndByte:    uint32(acceptPos),
		StartPoint: startPoint,
		EndPoint:   acceptPoint,
	}, true
}

// skipOneRune advances the lexer position by one rune, updating row/column.
func (l *Lexer) skipOneRune() {
	r, size, ok := l.text.runeAt(l.pos)
	if !ok {
		return
	}
	l.pos += size
	if r == '\n' {
		l.point.Row++
		l.point.Column = 0
	} else {
		l.point.Column++
	}
	if l.pos > l.lookaheadEnd {
		l.lookaheadEnd = l.pos
	}
}

// lexKeyword runs the keyword DFA over exactly the text of tok and returns
// the keyword symbol it accepts, if any.
func lexKeyword(states []LexState, tok Token) (Symbol, bool) {
	if len(states) == 0 || tok.Text == "" {
		return 0, false
	}
	kw := &Lexer{states: states, text: newBytesBuffer([]byte(tok.Text))}
	got, ok := kw.scan(0, 0, Point{})
	if !ok || got.Symbol == 0 || int(got.EndByte) != len(tok.Text) {
		return 0, false
	}
	return got.Symbol, true
}
