package gotreesitter

import (
	"context"
	"fmt"
	"log/slog"
	"math"
)

// Parser is a GLR parser that reads parse tables from a Language and
// produces a syntax tree. This is the core of the tree-sitter runtime.
//
// When the table offers several actions for a token the parser forks the
// stack and explores every alternative in lockstep, merging versions that
// converge. Malformed input never fails a parse: errors become ERROR and
// MISSING nodes plus diagnostics on the Tree.
//
// A Parser holds only configuration; each parse builds its own state, so one
// Parser may serve concurrent parses.
type Parser struct {
	language *Language
	cfg      parserConfig
}

// NewParser creates a new Parser for the given language.
func NewParser(lang *Language, opts ...ParserOption) *Parser {
	cfg := defaultParserConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Parser{language: lang, cfg: cfg}
}

// Language returns the parser's language.
func (p *Parser) Language() *Language { return p.language }

// Parse tokenizes and parses source, returning a syntax tree. It returns nil
// only if the parser has no usable language.
func (p *Parser) Parse(source []byte) *Tree {
	tree, _ := p.ParseContext(context.Background(), source, nil)
	return tree
}

// ParseIncremental parses source reusing the unchanged parts of oldTree.
// oldTree must have been adjusted with Tree.Edit for every change between
// its text and source.
func (p *Parser) ParseIncremental(source []byte, oldTree *Tree) *Tree {
	tree, _ := p.ParseContext(context.Background(), source, oldTree)
	return tree
}

// ParseContext is Parse with cancellation and optional reuse of an edited
// oldTree. When ctx ends, or the cancellation flag is set, it returns the
// partial tree built so far together with ErrParseCancelled.
func (p *Parser) ParseContext(ctx context.Context, source []byte, oldTree *Tree) (*Tree, error) {
	return p.parse(ctx, newBytesBuffer(source), oldTree)
}

// ParseInput parses text read on demand from input.
func (p *Parser) ParseInput(ctx context.Context, input Input, oldTree *Tree) (*Tree, error) {
	return p.parse(ctx, newTextBuffer(input), oldTree)
}

func (p *Parser) parse(ctx context.Context, text *textBuffer, oldTree *Tree) (*Tree, error) {
	if p.language == nil {
		return nil, ErrNoLanguage
	}
	if !p.language.CompatibleWithRuntime() {
		return nil, fmt.Errorf("%w: %s has version %d, runtime reads %d-%d", ErrIncompatibleLanguage,
			p.language.Name, p.language.Version, MinCompatibleLanguageVersion, LanguageVersion)
	}
	ps := newParseSession(ctx, p.language, p.cfg, text)
	defer ps.scanner.close()
	if oldTree != nil && oldTree.language == p.language {
		ps.reuse = buildReuseIndex(oldTree)
	}
	root, err := ps.run()
	tree := newTree(root, text.all(), p.language)
	tree.diagnostics = ps.diagnostics
	tree.stats = ps.stats
	return tree, err
}

type lexKey struct {
	pos      uint32
	state    StateID
	external string
}

type lexEntry struct {
	leaf      *subtree
	violation bool
}

type diagKey struct {
	kind ErrorKind
	pos  uint32
}

// parseSession is the state of one parse.
type parseSession struct {
	ctx     context.Context
	lang    *Language
	cfg     parserConfig
	log     *slog.Logger
	text    *textBuffer
	lexer   *Lexer
	scanner *scannerSession
	stack   *stack
	reuse   *reuseIndex

	lexCache    map[lexKey]lexEntry
	lexCachePos uint32

	finished    *subtree
	acceptCount int
	// deadNode is the head of the last version killed outright; if nothing
	// accepts, the tree is built from it.
	deadNode *stackNode

	diagnostics []Diagnostic
	diagSeen    map[diagKey]bool
	stats       ParseStats
	recoveries  int
	steps       int
}

func newParseSession(ctx context.Context, lang *Language, cfg parserConfig, text *textBuffer) *parseSession {
	ps := &parseSession{
		ctx:      ctx,
		lang:     lang,
		cfg:      cfg,
		log:      cfg.logger,
		text:     text,
		lexer:    newLexer(lang.LexStates, text),
		scanner:  newScannerSession(lang),
		lexCache: make(map[lexKey]lexEntry),
		diagSeen: make(map[diagKey]bool),
	}
	ps.stack = newStack(lang.InitialState, cfg.maxStackHeads, &ps.stats)
	ps.stack.onPrune = func() {
		if ps.diagSeen[diagKey{kind: ResourceExhausted}] {
			return
		}
		ps.diagSeen[diagKey{kind: ResourceExhausted}] = true
		ps.diagnostics = append(ps.diagnostics, Diagnostic{
			Kind:    ResourceExhausted,
			Message: fmt.Sprintf("more than %d stack versions; pruned the costliest", cfg.maxStackHeads),
		})
	}
	return ps
}

func (ps *parseSession) trace(msg string, args ...any) {
	if ps.log != nil {
		ps.log.Debug(msg, args...)
	}
}

func (ps *parseSession) symbolName(s *subtree) string {
	return ps.lang.SymbolName(s.symbol)
}

func (ps *parseSession) diagnose(kind ErrorKind, r Range, msg string) {
	key := diagKey{kind: kind, pos: r.StartByte}
	if ps.diagSeen[key] {
		return
	}
	ps.diagSeen[key] = true
	ps.diagnostics = append(ps.diagnostics, Diagnostic{Kind: kind, Range: r, Message: msg})
}

func (ps *parseSession) cancelled() bool {
	if ps.cfg.cancel != nil && ps.cfg.cancel.Load() {
		return true
	}
	return ps.ctx != nil && ps.ctx.Err() != nil
}

// stepLimit grows with the text read so far, so streamed input is bounded
// the same way as a byte slice.
func (ps *parseSession) stepLimit() int {
	return (len(ps.text.data)+1)*stepsPerByte*ps.cfg.maxStackHeads + ps.cfg.recoveryBudget
}

// run advances every version to its next shift per round, then condenses the
// stack, until no version is left or a finished tree beats all of them.
func (ps *parseSession) run() (*subtree, error) {
	s := ps.stack
	var lastPosition uint32
	for {
		if ps.cancelled() {
			ps.trace("cancelled", "rounds", ps.stats.Rounds)
			root := ps.finalizeBest(CancellationRequested, "parse cancelled")
			return root, ErrParseCancelled
		}
		ps.stats.Rounds++
		for v := 0; v < s.versionCount(); v++ {
			allowReuse := s.liveCount() == 1
			for s.isActive(v) {
				ps.steps++
				if ps.steps > ps.stepLimit() {
					return ps.finalizeBest(ResourceExhausted, "step budget exhausted"), nil
				}
				ps.advance(v, allowReuse)
				pos := s.position(v).Bytes
				if pos > lastPosition || (v > 0 && pos == lastPosition) {
					lastPosition = pos
					break
				}
			}
		}

		minCost := ps.condense()
		if ps.finished != nil && ps.finished.errorCost < minCost {
			break
		}
		if s.versionCount() == 0 {
			break
		}
	}
	if ps.finished == nil {
		ps.finished = ps.finalizeNode(ps.deadNode)
	}
	return ps.finished, nil
}

// advance moves version v forward until it shifts a token, accepts, fails or
// dies.
func (ps *parseSession) advance(v int, allowReuse bool) {
	s := ps.stack
	s.protect = v
	defer func() { s.protect = -1 }()

	state := s.state(v)
	var lookahead *subtree
	reused := false
	if allowReuse && ps.reuse != nil {
		lookahead = ps.reuseNode(v, state)
		reused = lookahead != nil
	}
	if lookahead == nil {
		var ok bool
		if lookahead, ok = ps.lex(v, state); !ok {
			ps.kill(v)
			return
		}
	}

	for {
		actions := ps.lang.actions(state, lookahead.symbol)

		if len(actions) == 0 && lookahead.has(flagKeyword) && ps.lang.KeywordCaptureToken != 0 {
			if len(ps.lang.actions(state, ps.lang.KeywordCaptureToken)) > 0 {
				word := *lookahead
				word.symbol = ps.lang.KeywordCaptureToken
				word.flags = word.flags&^(flagKeyword|flagNamed|flagVisible) | symbolFlags(ps.lang, word.symbol)
				lookahead = &word
				continue
			}
		}
		if len(actions) == 0 && reused && !lookahead.isLeaf() {
			if len(lookahead.children) > 0 {
				ps.trace("breakdown_lookahead", "version", v, "symbol", ps.symbolName(lookahead))
				lookahead = lookahead.children[0]
				continue
			}
			reused = false
			var ok bool
			if lookahead, ok = ps.lex(v, state); !ok {
				ps.kill(v)
				return
			}
			continue
		}

		var shift *ParseAction
		var reduces []ParseAction
		accept := false
		for i := range actions {
			switch actions[i].Type {
			case ParseActionShift:
				if !actions[i].Repetition {
					shift = &actions[i]
				}
			case ParseActionReduce:
				reduces = append(reduces, actions[i])
			case ParseActionAccept:
				accept = true
			}
		}

		lastReduction := -1
		for i, r := range reduces {
			inPlace := shift == nil && !accept && i == len(reduces)-1
			if rv := ps.reduce(v, r, len(actions) > 1, inPlace); rv >= 0 {
				lastReduction = rv
			}
		}
		if s.isHalted(v) {
			return
		}
		if accept {
			ps.accept(v, lookahead)
			return
		}
		if shift != nil {
			next := shift.State
			if shift.Extra {
				next = state
			}
			ps.shift(v, next, lookahead, shift.Extra, reused)
			return
		}
		if lastReduction >= 0 {
			s.renumber(lastReduction, v)
			state = s.state(v)
			continue
		}

		if ps.breakdownTop(v) {
			state = s.state(v)
			reused = false
			var ok bool
			if lookahead, ok = ps.lex(v, state); !ok {
				ps.kill(v)
				return
			}
			continue
		}

		ps.trace("detect_error", "version", v, "state", state, "lookahead", ps.symbolName(lookahead))
		s.pause(v, lookahead)
		return
	}
}

func (ps *parseSession) shift(v int, state StateID, lookahead *subtree, extra, reused bool) {
	s := ps.stack
	if extra && lookahead.isLeaf() {
		lookahead = lookahead.withFlags(flagExtra)
	}
	s.push(v, lookahead, !lookahead.isLeaf(), state)
	h := &s.heads[v]
	if !extra {
		h.cleanShifts++
		if h.inError && h.cleanShifts >= ps.cfg.recoveryLookahead {
			h.inError = false
		}
	}
	if reused {
		ps.stats.ReusedSubtrees++
		ps.stats.ReusedBytes += lookahead.size.Bytes
	}
	if ps.log != nil {
		ps.trace("shift", "version", v, "state", state, "symbol", ps.symbolName(lookahead),
			"extra", extra, "reused", reused)
	}
}

// reduce pops the action's children from v and pushes the new parent onto
// each resulting version. It returns a version that received the parent, or
// -1.
func (ps *parseSession) reduce(v int, act ParseAction, fragile, inPlace bool) int {
	s := ps.stack
	live := s.liveCount()
	slices := s.pop(v, int(act.ChildCount), inPlace)
	result := -1
	for _, sl := range slices {
		var parent *subtree
		var trailing []*subtree
		for _, path := range sl.paths {
			children, extras := splitTrailingExtras(path)
			cand := newNode(ps.lang, act.Symbol, children, act.ProductionID, act.DynamicPrecedence)
			if parent == nil || selectTree(parent, cand) {
				parent, trailing = cand, extras
			}
		}
		next, ok := ps.lang.nextState(sl.node.state, act.Symbol)
		if !ok {
			ps.trace("reduce_no_goto", "version", sl.version, "symbol", ps.lang.SymbolName(act.Symbol))
			ps.deadNode = s.heads[sl.version].node
			s.halt(sl.version)
			continue
		}
		if fragile || len(slices) > 1 || len(sl.paths) > 1 || live > 1 {
			parent.flags |= flagFragile
		}
		s.push(sl.version, parent, false, next)
		for _, e := range trailing {
			s.push(sl.version, e, false, next)
		}
		if ps.log != nil {
			ps.trace("reduce", "version", sl.version, "symbol", ps.lang.SymbolName(act.Symbol),
				"child_count", act.ChildCount, "state", next)
		}

		for j := 0; j < sl.version; j++ {
			if (j == v && !inPlace) || s.isHalted(j) {
				continue
			}
			if s.merge(j, sl.version) {
				ps.trace("merge", "version", sl.version, "into", j)
				break
			}
		}
		if s.isHalted(sl.version) {
			continue
		}
		if result < 0 || sl.version == v {
			result = sl.version
		}
	}
	return result
}

// splitTrailingExtras separates extras at the end of a popped path; they
// belong after the new parent, not inside it.
func splitTrailingExtras(path []*subtree) (children, extras []*subtree) {
	end := len(path)
	for end > 0 && path[end-1].has(flagExtra) {
		end--
	}
	children = make([]*subtree, end)
	copy(children, path[:end])
	return children, path[end:]
}

// accept shifts the end-of-input token and turns every path of v into a
// candidate root, keeping the best across all accepting versions.
func (ps *parseSession) accept(v int, eof *subtree) {
	s := ps.stack
	s.push(v, eof, false, s.state(v))
	for _, sl := range s.popAll(v) {
		for _, path := range sl.paths {
			root := ps.rootFromTrees(path)
			if ps.finished == nil || selectTree(ps.finished, root) {
				ps.finished = root
			}
		}
	}
	ps.acceptCount++
	ps.trace("accept", "version", v, "error_cost", ps.finished.errorCost)
	s.halt(v)
}

// rootFromTrees makes the last non-extra tree the root and splices the
// trees around it (leading extras, recovered regions, trailing extras and
// the end-of-input token) into its children.
func (ps *parseSession) rootFromTrees(trees []*subtree) *subtree {
	for j := len(trees) - 1; j >= 0; j-- {
		t := trees[j]
		if t.has(flagExtra) || t.isLeaf() {
			continue
		}
		children := make([]*subtree, 0, len(trees)-1+len(t.children))
		children = append(children, trees[:j]...)
		children = append(children, t.children...)
		children = append(children, trees[j+1:]...)
		var own int32 = t.dynamicPrecedence
		for _, c := range t.children {
			own -= c.dynamicPrecedence
		}
		root := newNode(ps.lang, t.symbol, children, t.productionID, 0)
		root.dynamicPrecedence += own
		return root
	}
	return newErrorNode(ps.lang, append([]*subtree(nil), trees...))
}

// condense drops halted and clearly worse versions, merges equivalent ones,
// orders the rest from most to least promising, and starts recovery on the
// best paused version if no version can make progress without it. It
// returns the lowest cost of any remaining version.
func (ps *parseSession) condense() uint32 {
	s := ps.stack
	s.removeHalted()
	for i := 0; i < s.versionCount(); i++ {
		si := ps.status(i)
		for j := 0; j < i; j++ {
			sj := ps.status(j)
			switch compareVersions(sj, si) {
			case takeLeft:
				s.remove(i)
				i--
				j = i
			case preferLeft, versionsEqual:
				if s.merge(j, i) {
					s.remove(i)
					i--
					j = i
				}
			case preferRight:
				if s.merge(j, i) {
					s.remove(i)
					i--
					j = i
				} else {
					s.swap(i, j)
					si = ps.status(i)
				}
			case takeRight:
				s.remove(j)
				i--
				j--
			}
		}
	}
	for s.versionCount() > ps.cfg.maxStackHeads {
		s.remove(ps.cfg.maxStackHeads)
		ps.stack.prune()
	}

	hasUnpaused := false
	for i := 0; i < s.versionCount(); i++ {
		if !s.isPaused(i) {
			hasUnpaused = true
			continue
		}
		if !hasUnpaused && ps.acceptCount < ps.cfg.maxStackHeads {
			lookahead := s.resume(i)
			ps.handleError(i, lookahead)
			hasUnpaused = true
			continue
		}
		s.remove(i)
		i--
	}

	minCost := uint32(math.MaxUint32)
	for i := 0; i < s.versionCount(); i++ {
		if s.isHalted(i) {
			continue
		}
		if c := s.errorCost(i); c < minCost {
			minCost = c
		}
	}
	return minCost
}

// lex produces the next token for version v in state. External scanning
// goes first when the state enables external tokens. ok is false when the
// scanner broke its contract; the version must die.
func (ps *parseSession) lex(v int, state StateID) (leaf *subtree, ok bool) {
	s := ps.stack
	pos := s.position(v)
	prevState := externalStateOf(s.lastExternal(v))
	key := lexKey{pos: pos.Bytes, state: state, external: string(prevState)}
	if pos.Bytes > ps.lexCachePos {
		clear(ps.lexCache)
		ps.lexCachePos = pos.Bytes
	}
	if e, hit := ps.lexCache[key]; hit {
		return e.leaf, !e.violation
	}

	mode := ps.lang.lexMode(state)
	if valid := ps.lang.enabledExternalTokens(mode.ExternalLexState); valid != nil && ps.scanner != nil {
		res := ps.scanner.scan(ps.text, pos, valid, prevState)
		switch res.status {
		case externalZeroLength:
			ps.diagnose(ScannerContractViolation, tokenRange(res.token),
				fmt.Sprintf("external scanner returned %s without consuming input", ps.lang.SymbolName(res.token.Symbol)))
			ps.trace("scanner_contract_violation", "version", v, "symbol", ps.lang.SymbolName(res.token.Symbol), "pos", pos.Bytes)
			ps.lexCache[key] = lexEntry{violation: true}
			return nil, false
		case externalToken:
			leaf = ps.leafFromToken(res.token, pos, res.lookaheadBytes, state)
			leaf.externalState = res.state
			leaf.flags |= flagHasExternalTokens
			if res.dependsOnColumn {
				leaf.flags |= flagDependsOnColumn
			}
			ps.trace("lex_external", "symbol", ps.symbolName(leaf), "start", res.token.StartByte, "end", res.token.EndByte)
		}
	}

	if leaf == nil {
		ps.lexer.Reset(pos)
		tok := ps.lexer.Next(mode.LexState)
		leaf = ps.leafFromToken(tok, pos, ps.lexer.LookaheadBytes(), state)
		if tok.IsError() {
			ps.diagnose(LexicalError, tokenRange(tok), fmt.Sprintf("unexpected %q", tok.Text))
		} else if kw := ps.lang.KeywordCaptureToken; kw != 0 && tok.Symbol == kw && len(ps.lang.KeywordLexStates) > 0 {
			if sym, found := lexKeyword(ps.lang.KeywordLexStates, tok); found && len(ps.lang.actions(state, sym)) > 0 {
				leaf.symbol = sym
				leaf.flags = symbolFlags(ps.lang, sym) | flagKeyword
			}
		}
		ps.trace("lex_internal", "symbol", ps.symbolName(leaf), "start", tok.StartByte, "end", tok.EndByte)
	}
	ps.lexCache[key] = lexEntry{leaf: leaf}
	return leaf, true
}

func (ps *parseSession) leafFromToken(tok Token, pos Length, lookahead uint32, state StateID) *subtree {
	start := Length{Bytes: tok.StartByte, Extent: tok.StartPoint}
	padding := lengthSaturatingSub(start, pos)
	return newLeaf(ps.lang, tok.Symbol, padding, tok.size(), lookahead, state)
}

func tokenRange(t Token) Range {
	return Range{StartByte: t.StartByte, EndByte: t.EndByte, StartPoint: t.StartPoint, EndPoint: t.EndPoint}
}

// kill drops v after a scanner contract violation.
func (ps *parseSession) kill(v int) {
	ps.deadNode = ps.stack.heads[v].node
	ps.stack.halt(v)
}

// breakdownTop replaces a reused nonterminal on top of v with its children,
// so the tokens inside it can be parsed afresh.
func (ps *parseSession) breakdownTop(v int) bool {
	s := ps.stack
	did := false
	for {
		l, ok := s.topReused(v)
		if !ok {
			return did
		}
		did = true
		s.heads[v].node = l.node
		state := l.node.state
		for _, c := range l.subtree.children {
			if !c.has(flagExtra) {
				if next, ok := ps.lang.nextState(state, c.symbol); ok {
					state = next
				}
			}
			s.push(v, c, !c.isLeaf(), state)
		}
		ps.trace("breakdown_top_of_stack", "version", v, "symbol", ps.symbolName(l.subtree))
	}
}
