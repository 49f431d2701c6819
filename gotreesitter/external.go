package gotreesitter

import "bytes"

// serializationBufferSize bounds what a scanner may serialize.
const serializationBufferSize = 1024

// ExternalScannerState holds serialized state for an external scanner. It
// is captured after every external token, so each stack version can resume
// scanning from its own last external token.
type ExternalScannerState struct {
	Data []byte
}

// Equal reports whether two states hold the same bytes.
func (s ExternalScannerState) Equal(o ExternalScannerState) bool {
	return bytes.Equal(s.Data, o.Data)
}

// RunExternalScanner invokes the language's external scanner if present.
// Returns true if the scanner produced a token, false otherwise.
func RunExternalScanner(lang *Language, payload any, lexer *ExternalLexer, validSymbols []bool) bool {
	if lang.ExternalScanner == nil {
		return false
	}
	return lang.ExternalScanner.Scan(payload, lexer, validSymbols)
}

// NewExternalLexer returns a scanner cursor over source starting at offset
// zero. It lets scanners be exercised without a parser.
func NewExternalLexer(source []byte) *ExternalLexer {
	return newExternalLexer(newBytesBuffer(source), Length{})
}

// Token returns the token the scanner produced, mirroring what the parser
// would build after a successful Scan.
func (l *ExternalLexer) Token() (Token, bool) { return l.token() }

type externalScanStatus uint8

const (
	externalNoToken externalScanStatus = iota
	externalToken
	// externalZeroLength means Scan returned true without covering any
	// bytes: a scanner contract violation.
	externalZeroLength
)

type externalScanResult struct {
	status          externalScanStatus
	token           Token
	state           []byte
	lookaheadBytes  uint32
	dependsOnColumn bool
}

// scannerSession owns one scanner payload for the duration of a parse.
type scannerSession struct {
	lang    *Language
	scanner ExternalScanner
	payload any
	buf     [serializationBufferSize]byte
}

func newScannerSession(lang *Language) *scannerSession {
	if lang.ExternalScanner == nil || lang.ExternalTokenCount == 0 {
		return nil
	}
	return &scannerSession{
		lang:    lang,
		scanner: lang.ExternalScanner,
		payload: lang.ExternalScanner.Create(),
	}
}

func (s *scannerSession) close() {
	if s == nil {
		return
	}
	s.scanner.Destroy(s.payload)
	s.payload = nil
}

// scan restores the given state, runs the scanner at start and maps the
// produced external token index to its grammar symbol.
func (s *scannerSession) scan(text *textBuffer, start Length, valid []bool, state []byte) externalScanResult {
	s.scanner.Deserialize(s.payload, state)
	lx := newExternalLexer(text, start)
	if !s.scanner.Scan(s.payload, lx, valid) {
		return externalScanResult{status: externalNoToken}
	}
	tok, ok := lx.token()
	if !ok {
		return externalScanResult{status: externalNoToken}
	}
	sym, ok := s.lang.externalSymbol(tok.Symbol)
	if !ok || int(tok.Symbol) >= len(valid) || !valid[tok.Symbol] {
		// A token the state does not accept is treated as no match so the
		// DFA still gets its turn.
		return externalScanResult{status: externalNoToken}
	}
	tok.Symbol = sym
	res := externalScanResult{
		token:           tok,
		lookaheadBytes:  lx.lookaheadBytes(tok.EndByte),
		dependsOnColumn: lx.didGetColumn,
	}
	if tok.EndByte == tok.StartByte {
		res.status = externalZeroLength
		return res
	}
	res.status = externalToken
	res.state = s.serialize()
	return res
}

func (s *scannerSession) serialize() []byte {
	n := s.scanner.Serialize(s.payload, s.buf[:])
	if n <= 0 {
		return nil
	}
	if n > len(s.buf) {
		n = len(s.buf)
	}
	out := make([]byte, n)
	copy(out, s.buf[:n])
	return out
}
