// Package lexer turns ObjectQuel source text into a stream of tokens with a
// one-token lookahead. It follows the hand-rolled, incremental scanning
// style of a recursive-descent toolchain: characters are consumed lazily,
// token-by-token, rather than materialized into a whole-source slice up
// front, so that a later `/pattern/flags` regex literal can be re-scanned
// from raw source once the parser recognizes the context requires one.
package lexer

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/quellabs/objectquel/objerr"
	"github.com/quellabs/objectquel/token"
)

// bufTok pairs a produced token with the scanner state that existed right
// before it was scanned, so Save/Restore can rewind to any buffered token's
// start position without re-lexing everything that came before it.
type bufTok struct {
	tok    token.Token
	before token.LexerState
}

// Lexer produces tokens from ObjectQuel source text on demand.
type Lexer struct {
	ctx context.Context
	src string

	pos         int
	prevPos     int
	prevPrevPos int
	line        uint32

	queue []bufTok
}

// New creates a Lexer over source and primes the current token plus one
// token of lookahead, per the component B contract.
func New(ctx context.Context, source string) (*Lexer, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	l := &Lexer{ctx: ctx, src: source, line: 1}
	if err := l.fill(1); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Lexer) state() token.LexerState {
	return token.LexerState{Pos: l.pos, PrevPos: l.prevPos, PrevPrevPos: l.prevPrevPos, Line: l.line}
}

// fill ensures the lookahead queue holds at least n+1 tokens (indices 0..n).
func (l *Lexer) fill(n int) error {
	for len(l.queue) <= n {
		if err := l.ctx.Err(); err != nil {
			return objerr.Canceled(err)
		}
		before := l.state()
		tok, err := l.scan()
		if err != nil {
			return err
		}
		l.queue = append(l.queue, bufTok{tok: tok, before: before})
	}
	return nil
}

// Current returns the current (already-scanned) token.
func (l *Lexer) Current() token.Token {
	_ = l.fill(0)
	return l.queue[0].tok
}

// Peek returns the kind of the token after the current one, without
// consuming anything.
func (l *Lexer) Peek() token.Kind {
	if err := l.fill(1); err != nil {
		return token.EOF
	}
	return l.queue[1].tok.Kind
}

// PeekNext returns the kind of the token two ahead of current.
func (l *Lexer) PeekNext() token.Kind {
	if err := l.fill(2); err != nil {
		return token.EOF
	}
	return l.queue[2].tok.Kind
}

// Advance unconditionally consumes and returns the current token.
func (l *Lexer) Advance() (token.Token, error) {
	if err := l.fill(0); err != nil {
		return token.Token{}, err
	}
	t := l.queue[0].tok
	l.queue = l.queue[1:]
	if err := l.fill(0); err != nil {
		return token.Token{}, err
	}
	return t, nil
}

// Match consumes and returns the current token if it has the given kind,
// otherwise it fails with LexerError Unexpected.
func (l *Lexer) Match(kind token.Kind) (token.Token, error) {
	cur := l.Current()
	if cur.Kind != kind {
		return token.Token{}, objerr.NewLexError(objerr.LexUnexpected, cur.Line,
			"expected %s, got %s", kind, cur.Kind)
	}
	return l.Advance()
}

// OptionalMatch consumes and returns the current token if it has the given
// kind. It never errors; ok is false when the kind does not match.
func (l *Lexer) OptionalMatch(kind token.Kind) (token.Token, bool) {
	if l.Current().Kind != kind {
		return token.Token{}, false
	}
	t, _ := l.Advance()
	return t, true
}

// Tokenize runs a Lexer over source to completion and returns every token
// produced, including the trailing EOF. It never switches into regex mode
// (FetchRegex is only reachable from the parser, which knows when a '/'
// starts a pattern rather than a division), so a `/pattern/flags` literal
// is reported as its constituent Slash/Ident/... tokens. It exists for the
// `objectquelc tokens` debugging command, not for parsing.
func Tokenize(ctx context.Context, source string) ([]token.Token, error) {
	l, err := New(ctx, source)
	if err != nil {
		return nil, err
	}
	var tokens []token.Token
	for {
		tok, err := l.Advance()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			return tokens, nil
		}
	}
}

// Save captures the lexer cursor at the start of the current token.
func (l *Lexer) Save() token.LexerState {
	if err := l.fill(0); err != nil {
		return l.state()
	}
	return l.queue[0].before
}

// Restore rewinds the lexer to a previously saved cursor and re-primes the
// lookahead window.
func (l *Lexer) Restore(s token.LexerState) error {
	l.pos = s.Pos
	l.prevPos = s.PrevPos
	l.prevPrevPos = s.PrevPrevPos
	l.line = s.Line
	l.queue = l.queue[:0]
	return l.fill(1)
}

// FetchRegex switches the lexer into regex-literal mode. It must be called
// while Current() is a Slash token; it rewinds to that slash's start
// position and re-scans the raw source as a `/pattern/flags` literal,
// leaving the lexer primed on the token that follows the closing flags.
func (l *Lexer) FetchRegex() (pattern, flags string, err error) {
	cur := l.Current()
	if cur.Kind != token.Slash {
		return "", "", objerr.NewLexError(objerr.LexUnexpected, cur.Line, "FetchRegex called without a pending '/'")
	}
	start := l.Save()
	l.pos, l.prevPos, l.prevPrevPos, l.line = start.Pos, start.PrevPos, start.PrevPrevPos, start.Line
	l.queue = l.queue[:0]

	// skip whitespace up to the opening '/', then the '/' itself
	for l.pos < len(l.src) && l.src[l.pos] != '/' {
		if l.src[l.pos] == '\n' {
			l.line++
		}
		l.pos++
	}
	l.pos++
	var b strings.Builder
	line := l.line
	for {
		if l.pos >= len(l.src) {
			return "", "", objerr.NewLexError(objerr.LexUnexpectedEOF, line, "unexpected end of data in regex literal")
		}
		c := l.src[l.pos]
		if c == '\n' {
			return "", "", objerr.NewLexError(objerr.LexUnterminatedRegex, line, "unterminated regex literal")
		}
		if c == '\\' && l.pos+1 < len(l.src) {
			b.WriteByte(c)
			b.WriteByte(l.src[l.pos+1])
			l.pos += 2
			continue
		}
		if c == '/' {
			l.pos++
			break
		}
		b.WriteByte(c)
		l.pos++
	}
	flagStart := l.pos
	for l.pos < len(l.src) && isAlpha(l.src[l.pos]) {
		l.pos++
	}
	flags = l.src[flagStart:l.pos]
	l.prevPrevPos = l.prevPos
	l.prevPos = start.Pos
	if err := l.fill(1); err != nil {
		return "", "", err
	}
	return b.String(), flags, nil
}

// ---- raw scanning ----

func (l *Lexer) scan() (token.Token, error) {
	for {
		if l.pos >= len(l.src) {
			return token.Token{Kind: token.EOF, Line: l.line}, nil
		}
		b := l.src[l.pos]
		switch {
		case b == '\n':
			l.pos++
			l.line++
			continue
		case b == '\r':
			l.pos++
			continue
		case b == ' ' || b == '\t':
			l.pos++
			continue
		default:
			return l.scanToken()
		}
	}
}

func (l *Lexer) markStart() {
	l.prevPrevPos = l.prevPos
	l.prevPos = l.pos
}

func (l *Lexer) scanToken() (token.Token, error) {
	l.markStart()
	line := l.line
	b := l.src[l.pos]

	switch {
	case isDigit(b):
		return l.scanNumber(line, false)
	case b == '-' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]):
		l.pos++
		return l.scanNumber(line, true)
	case b == '"':
		return l.scanString(line, '"')
	case b == '\'':
		return l.scanString(line, '\'')
	case b == '@':
		return l.scanDirectiveOrParam(line, token.CompilerDirective)
	case b == ':':
		if l.pos+1 < len(l.src) && isNameChar(l.src[l.pos+1]) {
			return l.scanDirectiveOrParam(line, token.Parameter)
		}
		l.pos++
		return token.Token{Kind: token.Colon, Line: line}, nil
	case isAlpha(b):
		return l.scanIdentOrKeyword(line)
	default:
		return l.scanOperator(line)
	}
}

func (l *Lexer) scanNumber(line uint32, negative bool) (token.Token, error) {
	start := l.pos
	if negative {
		start--
	}
	dots := 0
	for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '.') {
		if l.src[l.pos] == '.' {
			dots++
			if dots > 1 {
				return token.Token{}, objerr.NewLexError(objerr.LexMalformedFloat, line, "malformed float literal")
			}
		}
		l.pos++
	}
	raw := l.src[start:l.pos]
	if dots == 0 {
		v, err := parseInt(raw)
		if err != nil {
			return token.Token{}, objerr.NewLexError(objerr.LexMalformedFloat, line, "malformed integer literal %q", raw)
		}
		return token.Token{Kind: token.Number, Value: token.IntPayload(v), Line: line}, nil
	}
	v, err := parseFloat(raw)
	if err != nil {
		return token.Token{}, objerr.NewLexError(objerr.LexMalformedFloat, line, "malformed float literal %q", raw)
	}
	return token.Token{Kind: token.Number, Value: token.FloatPayload(v), Line: line}, nil
}

func (l *Lexer) scanString(line uint32, quote byte) (token.Token, error) {
	l.pos++ // opening quote
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return token.Token{}, objerr.NewLexError(objerr.LexUnexpectedEOF, line, "unexpected end of data in string literal")
		}
		c := l.src[l.pos]
		if c == '\n' {
			return token.Token{}, objerr.NewLexError(objerr.LexUnterminatedString, line, "unterminated string literal")
		}
		if c == quote {
			l.pos++
			break
		}
		if c == '\\' {
			if l.pos+1 >= len(l.src) {
				return token.Token{}, objerr.NewLexError(objerr.LexUnexpectedEOF, line, "unexpected end of data in string literal")
			}
			esc := l.src[l.pos+1]
			if quote == '"' {
				decoded, ok := decodeDoubleEscape(esc)
				if !ok {
					return token.Token{}, objerr.NewLexError(objerr.LexInvalidEscape, line, "invalid escape sequence \\%c", esc)
				}
				b.WriteByte(decoded)
				l.pos += 2
				continue
			}
			// single-quoted: only \\ and \' are escapes; anything else
			// passes through literally, backslash included.
			if esc == '\\' || esc == '\'' {
				b.WriteByte(esc)
				l.pos += 2
				continue
			}
			b.WriteByte(c)
			l.pos++
			continue
		}
		if c >= 0x80 {
			_, size := utf8.DecodeRuneInString(l.src[l.pos:])
			b.WriteString(l.src[l.pos : l.pos+size])
			l.pos += size
			continue
		}
		b.WriteByte(c)
		l.pos++
	}
	return token.Token{
		Kind:   token.String,
		Value:  token.StringPayload(b.String()),
		Line:   line,
		Extras: token.Extras{QuoteChar: quote},
	}, nil
}

func decodeDoubleEscape(c byte) (byte, bool) {
	switch c {
	case 'a':
		return '\a', true
	case 'b':
		return '\b', true
	case 'f':
		return '\f', true
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	case 'v':
		return '\v', true
	case '"':
		return '"', true
	case '\\':
		return '\\', true
	case '\'':
		return '\'', true
	}
	return 0, false
}

func (l *Lexer) scanDirectiveOrParam(line uint32, kind token.Kind) (token.Token, error) {
	l.pos++ // '@' or ':'
	start := l.pos
	for l.pos < len(l.src) && isNameChar(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == start {
		return token.Token{}, objerr.NewLexError(objerr.LexUnexpected, line, "expected name after '%s'", l.src[start-1:start])
	}
	return token.Token{Kind: kind, Value: token.IdentPayload(l.src[start:l.pos]), Line: line}, nil
}

func (l *Lexer) scanIdentOrKeyword(line uint32) (token.Token, error) {
	start := l.pos
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	raw := l.src[start:l.pos]
	lower := strings.ToLower(raw)
	if kw, ok := token.Keywords[lower]; ok {
		switch kw {
		case token.True:
			return token.Token{Kind: token.True, Line: line}, nil
		case token.False:
			return token.Token{Kind: token.False, Line: line}, nil
		case token.Null:
			return token.Token{Kind: token.Null, Line: line}, nil
		default:
			return token.Token{Kind: kw, Value: token.IdentPayload(raw), Line: line}, nil
		}
	}
	return token.Token{Kind: token.Ident, Value: token.IdentPayload(raw), Line: line}, nil
}

func (l *Lexer) scanOperator(line uint32) (token.Token, error) {
	b := l.src[l.pos]
	two := func(next byte, kind token.Kind) (token.Token, bool) {
		if l.pos+1 < len(l.src) && l.src[l.pos+1] == next {
			l.pos += 2
			return token.Token{Kind: kind, Line: line}, true
		}
		return token.Token{}, false
	}
	switch b {
	case '=':
		if t, ok := two('=', token.Eq); ok {
			return t, nil
		}
		l.pos++
		return token.Token{Kind: token.Assign, Line: line}, nil
	case '!':
		if t, ok := two('=', token.Neq); ok {
			return t, nil
		}
		l.pos++
		return token.Token{Kind: token.Bang, Line: line}, nil
	case '<':
		if t, ok := two('>', token.Neq); ok {
			return t, nil
		}
		if t, ok := two('=', token.Lte); ok {
			return t, nil
		}
		if t, ok := two('<', token.ShL); ok {
			return t, nil
		}
		l.pos++
		return token.Token{Kind: token.Lt, Line: line}, nil
	case '>':
		if t, ok := two('=', token.Gte); ok {
			return t, nil
		}
		if t, ok := two('>', token.ShR); ok {
			return t, nil
		}
		l.pos++
		return token.Token{Kind: token.Gt, Line: line}, nil
	case '-':
		if t, ok := two('>', token.Arrow); ok {
			return t, nil
		}
		l.pos++
		return token.Token{Kind: token.Minus, Line: line}, nil
	case '.':
		l.pos++
		return token.Token{Kind: token.Dot, Line: line}, nil
	case ',':
		l.pos++
		return token.Token{Kind: token.Comma, Line: line}, nil
	case '(':
		l.pos++
		return token.Token{Kind: token.LParen, Line: line}, nil
	case ')':
		l.pos++
		return token.Token{Kind: token.RParen, Line: line}, nil
	case '+':
		l.pos++
		return token.Token{Kind: token.Plus, Line: line}, nil
	case '*':
		l.pos++
		return token.Token{Kind: token.Star, Line: line}, nil
	case '/':
		l.pos++
		return token.Token{Kind: token.Slash, Line: line}, nil
	case '%':
		l.pos++
		return token.Token{Kind: token.Percent, Line: line}, nil
	case '#':
		l.pos++
		return token.Token{Kind: token.Hash, Line: line}, nil
	case '&':
		l.pos++
		return token.Token{Kind: token.Ampersand, Line: line}, nil
	case '^':
		l.pos++
		return token.Token{Kind: token.Caret, Line: line}, nil
	case '?':
		l.pos++
		return token.Token{Kind: token.Question, Line: line}, nil
	case ';':
		l.pos++
		return token.Token{Kind: token.Semicolon, Line: line}, nil
	case '`':
		l.pos++
		return token.Token{Kind: token.Backtick, Line: line}, nil
	default:
		// Unknown character: non-fatal, yields an Illegal token so the
		// parser can decide whether the position actually matters.
		_, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if size == 0 {
			size = 1
		}
		l.pos += size
		return token.Token{Kind: token.Illegal, Line: line}, nil
	}
}

// ---- character classes ----

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isNameChar(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '_'
}
func isIdentCont(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '_'
}
