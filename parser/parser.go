// Package parser implements a hand-rolled recursive-descent parser for
// ObjectQuel's retrieve statements. It follows a strict one-token
// lookahead discipline on top of the lexer and produces a single
// *ast.Retrieve per source document.
package parser

import (
	"context"

	"github.com/quellabs/objectquel/ast"
	"github.com/quellabs/objectquel/lexer"
	"github.com/quellabs/objectquel/objerr"
	"github.com/quellabs/objectquel/token"
)

// Parser converts a token stream into an ast.Retrieve.
type Parser struct {
	ctx context.Context
	lex *lexer.Lexer
}

// New creates a Parser over source. ctx, if non-nil, is checked for
// cancellation between top-level productions (directives, ranges, and the
// retrieve statement itself).
func New(ctx context.Context, source string) (*Parser, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	l, err := lexer.New(ctx, source)
	if err != nil {
		return nil, objerr.WrapLexAsParse(err)
	}
	return &Parser{ctx: ctx, lex: l}, nil
}

// Parse parses exactly one retrieve statement, preceded by any directives
// and range declarations. A second `retrieve` keyword in the same source
// is rejected with ParseMultipleQueries.
func Parse(ctx context.Context, source string) (*ast.Retrieve, error) {
	p, err := New(ctx, source)
	if err != nil {
		return nil, err
	}
	return p.Parse()
}

func (p *Parser) Parse() (*ast.Retrieve, error) {
	directives := map[string]ast.DirectiveValue{}
	for p.cur().Kind == token.CompilerDirective {
		if err := p.checkCanceled(); err != nil {
			return nil, err
		}
		name, val, err := p.parseDirective()
		if err != nil {
			return nil, err
		}
		directives[name] = val
	}

	var ranges []ast.Range
	for p.cur().Kind == token.Range {
		if err := p.checkCanceled(); err != nil {
			return nil, err
		}
		rg, err := p.parseRange()
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, rg)
	}

	if err := p.checkCanceled(); err != nil {
		return nil, err
	}
	if p.cur().Kind != token.Retrieve {
		return nil, p.expected("retrieve")
	}
	retrieve, err := p.parseRetrieve()
	if err != nil {
		return nil, err
	}
	retrieve.Directives = directives
	retrieve.Ranges = ranges

	if p.cur().Kind == token.Retrieve {
		return nil, objerr.NewParseError(objerr.ParseMultipleQueries, p.cur().Line,
			"multiple retrieve statements in a single source")
	}
	if p.cur().Kind != token.EOF {
		return nil, p.expected("end of input")
	}
	return retrieve, nil
}

// ---- token helpers --------------------------------------------------------

func (p *Parser) cur() token.Token { return p.lex.Current() }
func (p *Parser) line() uint32     { return p.cur().Line }

func (p *Parser) checkCanceled() error {
	if err := p.ctx.Err(); err != nil {
		return objerr.Canceled(err)
	}
	return nil
}

func (p *Parser) advance() (token.Token, error) {
	t, err := p.lex.Advance()
	if err != nil {
		return token.Token{}, objerr.WrapLexAsParse(err)
	}
	return t, nil
}

func (p *Parser) match(kind token.Kind) (token.Token, error) {
	t, err := p.lex.Match(kind)
	if err != nil {
		return token.Token{}, objerr.WrapLexAsParse(err)
	}
	return t, nil
}

func (p *Parser) optionalMatch(kind token.Kind) (token.Token, bool) {
	return p.lex.OptionalMatch(kind)
}

func (p *Parser) expected(what string) error {
	c := p.cur()
	return objerr.NewParseError(objerr.ParseExpectedButFound, c.Line, "expected %s, found %s", what, c.Kind)
}

func (p *Parser) unexpected() error {
	c := p.cur()
	return objerr.NewParseError(objerr.ParseUnexpectedToken, c.Line, "unexpected token %s", c)
}

// isWord reports whether the current token is an identifier spelled word,
// case-insensitively. It is used for the single contextual keyword this
// grammar needs ("as" in alias position; see DESIGN.md).
func (p *Parser) isWord(word string) bool {
	c := p.cur()
	return c.Kind == token.Ident && eqFold(c.Value.Str, word)
}

func eqFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// ---- directives -----------------------------------------------------------

func (p *Parser) parseDirective() (string, ast.DirectiveValue, error) {
	nameTok, err := p.match(token.CompilerDirective)
	if err != nil {
		return "", ast.DirectiveValue{}, err
	}
	p.optionalMatch(token.Assign)

	switch p.cur().Kind {
	case token.True:
		p.advance()
		return nameTok.Value.Str, ast.DirectiveValue{Kind: ast.DirectiveBool, Bool: true}, nil
	case token.False:
		p.advance()
		return nameTok.Value.Str, ast.DirectiveValue{Kind: ast.DirectiveBool, Bool: false}, nil
	case token.Number:
		t, _ := p.advance()
		n := numberPayloadToFloat(t)
		return nameTok.Value.Str, ast.DirectiveValue{Kind: ast.DirectiveNumber, Number: n}, nil
	case token.Ident:
		t, _ := p.advance()
		return nameTok.Value.Str, ast.DirectiveValue{Kind: ast.DirectiveIdent, Ident: t.Value.Str}, nil
	default:
		return "", ast.DirectiveValue{}, p.expected("directive value")
	}
}

func numberPayloadToFloat(t token.Token) float64 {
	if t.Value.Kind == token.PayloadFloat {
		return t.Value.Float
	}
	return float64(t.Value.Int)
}

// ---- ranges -----------------------------------------------------------

func (p *Parser) parseRange() (ast.Range, error) {
	line := p.line()
	if _, err := p.match(token.Range); err != nil {
		return nil, err
	}
	if _, err := p.match(token.Of); err != nil {
		return nil, err
	}
	nameTok, err := p.match(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.match(token.Is); err != nil {
		return nil, err
	}

	var rg ast.Range
	if p.cur().Kind == token.JSONSource {
		p.advance()
		if _, err := p.match(token.LParen); err != nil {
			return nil, err
		}
		exprs, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		if _, err := p.match(token.RParen); err != nil {
			return nil, err
		}
		rg = &ast.RangeJSON{Name: nameTok.Value.Str, SourceExpr: exprs, LineNo: line}
	} else {
		entityTok, err := p.match(token.Ident)
		if err != nil {
			return nil, err
		}
		rg = &ast.RangeDatabase{Name: nameTok.Value.Str, EntityName: entityTok.Value.Str, LineNo: line}
	}

	if _, ok := p.optionalMatch(token.Via); ok {
		joinExpr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		db, ok := rg.(*ast.RangeDatabase)
		if !ok {
			return nil, objerr.NewParseError(objerr.ParseUnexpectedToken, line, "via clause is only valid on a database range")
		}
		db.JoinProperty = joinExpr
	}
	return rg, nil
}

// ---- retrieve ---------------------------------------------------------

func (p *Parser) parseRetrieve() (*ast.Retrieve, error) {
	line := p.line()
	if _, err := p.match(token.Retrieve); err != nil {
		return nil, err
	}
	_, unique := p.optionalMatch(token.Unique)
	if _, err := p.match(token.LParen); err != nil {
		return nil, err
	}
	values, err := p.parseValueList()
	if err != nil {
		return nil, err
	}
	if _, err := p.match(token.RParen); err != nil {
		return nil, err
	}

	r := &ast.Retrieve{Unique: unique, Values: values, LineNo: line}

	if _, ok := p.optionalMatch(token.Where); ok {
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		r.Conditions = cond
	}

	if _, ok := p.optionalMatch(token.Sort); ok {
		if _, err := p.match(token.By); err != nil {
			return nil, err
		}
		sort, err := p.parseSortList()
		if err != nil {
			return nil, err
		}
		r.Sort = sort
	}

	if _, ok := p.optionalMatch(token.Window); ok {
		winTok, err := p.match(token.Number)
		if err != nil {
			return nil, err
		}
		win := uint32(winTok.Value.Int)
		if _, err := p.match(token.Using); err != nil {
			return nil, err
		}
		if _, err := p.match(token.WindowSize); err != nil {
			return nil, err
		}
		sizeTok, err := p.match(token.Number)
		if err != nil {
			return nil, err
		}
		size := uint32(sizeTok.Value.Int)
		r.Window = &win
		r.WindowSize = &size
	}

	return r, nil
}

func (p *Parser) parseValueList() ([]*ast.Alias, error) {
	var values []*ast.Alias
	a, err := p.parseAlias(0)
	if err != nil {
		return nil, err
	}
	values = append(values, a)
	for {
		if _, ok := p.optionalMatch(token.Comma); !ok {
			break
		}
		a, err := p.parseAlias(len(values))
		if err != nil {
			return nil, err
		}
		values = append(values, a)
	}
	return values, nil
}

// parseAlias accepts both alias forms present in the source corpus: the
// grammar's `name = expr` and the worked example's `expr as name` (see
// DESIGN.md). index is used to synthesize a name when neither form
// supplies one.
func (p *Parser) parseAlias(index int) (*ast.Alias, error) {
	line := p.line()
	if p.cur().Kind == token.Ident && p.lex.Peek() == token.Assign {
		nameTok, _ := p.advance()
		p.advance() // '='
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Alias{Name: nameTok.Value.Str, Expression: expr, VisibleInResult: true, LineNo: line}, nil
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	name := ""
	if p.isWord("as") {
		p.advance()
		nameTok, err := p.match(token.Ident)
		if err != nil {
			return nil, err
		}
		name = nameTok.Value.Str
	} else {
		name = defaultAliasName(expr, index)
	}
	return &ast.Alias{Name: name, Expression: expr, VisibleInResult: true, LineNo: line}, nil
}

func defaultAliasName(expr ast.Expr, index int) string {
	switch e := expr.(type) {
	case *ast.Identifier:
		if e.Next == nil {
			return e.Name
		}
		return e.Last().Name
	case *ast.MethodCall:
		return e.Name
	default:
		return synthName(index)
	}
}

func synthName(index int) string {
	return "col" + itoa(index+1)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func (p *Parser) parseSortList() ([]ast.SortItem, error) {
	var items []ast.SortItem
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		desc := false
		if _, ok := p.optionalMatch(token.Desc); ok {
			desc = true
		} else {
			p.optionalMatch(token.Asc)
		}
		items = append(items, ast.SortItem{Expr: expr, Desc: desc})
		if _, ok := p.optionalMatch(token.Comma); !ok {
			break
		}
	}
	return items, nil
}

// ---- expressions --------------------------------------------------------

func (p *Parser) parseExpr() (ast.Expr, error) { return p.parseOr() }

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.optionalMatch(token.Or); !ok {
			return left, nil
		}
		line := p.line()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOperator{Op: ast.OpOr, Left: left, Right: right, LineNo: line}
	}
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		if _, ok := p.optionalMatch(token.And); !ok {
			return left, nil
		}
		line := p.line()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOperator{Op: ast.OpAnd, Left: left, Right: right, LineNo: line}
	}
}

func (p *Parser) parseNot() (ast.Expr, error) {
	if _, ok := p.optionalMatch(token.Not); ok {
		line := p.line()
		inner, err := p.parseCmp()
		if err != nil {
			return nil, err
		}
		return &ast.Not{Expr: inner, LineNo: line}, nil
	}
	return p.parseCmp()
}

func (p *Parser) parseCmp() (ast.Expr, error) {
	left, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	line := p.line()
	switch p.cur().Kind {
	case token.Assign, token.Eq:
		p.advance()
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOperator{Op: ast.OpEq, Left: left, Right: right, LineNo: line}, nil
	case token.Neq:
		p.advance()
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOperator{Op: ast.OpNeq, Left: left, Right: right, LineNo: line}, nil
	case token.Lt:
		p.advance()
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOperator{Op: ast.OpLt, Left: left, Right: right, LineNo: line}, nil
	case token.Lte:
		p.advance()
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOperator{Op: ast.OpLe, Left: left, Right: right, LineNo: line}, nil
	case token.Gt:
		p.advance()
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOperator{Op: ast.OpGt, Left: left, Right: right, LineNo: line}, nil
	case token.Gte:
		p.advance()
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOperator{Op: ast.OpGe, Left: left, Right: right, LineNo: line}, nil
	case token.Is:
		p.advance()
		_, notted := p.optionalMatch(token.Not)
		if _, err := p.match(token.Null); err != nil {
			return nil, err
		}
		op := ast.OpEq
		if notted {
			op = ast.OpNeq
		}
		return &ast.BinaryOperator{Op: op, Left: left, Right: &ast.Null{LineNo: line}, LineNo: line}, nil
	case token.In:
		p.advance()
		if _, err := p.match(token.LParen); err != nil {
			return nil, err
		}
		params, err := p.parseInParams()
		if err != nil {
			return nil, err
		}
		if _, err := p.match(token.RParen); err != nil {
			return nil, err
		}
		ident, ok := left.(*ast.Identifier)
		if !ok {
			return nil, objerr.NewParseError(objerr.ParseUnexpectedToken, line, "left side of 'in' must be an identifier")
		}
		return &ast.In{Identifier: ident, Parameters: params, LineNo: line}, nil
	default:
		return left, nil
	}
}

func (p *Parser) parseInParams() ([]ast.Expr, error) {
	var params []ast.Expr
	for {
		e, err := p.parseInParam()
		if err != nil {
			return nil, err
		}
		params = append(params, e)
		if _, ok := p.optionalMatch(token.Comma); !ok {
			break
		}
	}
	return params, nil
}

func (p *Parser) parseInParam() (ast.Expr, error) {
	line := p.line()
	switch p.cur().Kind {
	case token.Parameter:
		t, _ := p.advance()
		return &ast.Parameter{Name: t.Value.Str, LineNo: line}, nil
	case token.Number:
		t, _ := p.advance()
		return numberFromToken(t), nil
	case token.String:
		t, _ := p.advance()
		return &ast.StringLit{Value: t.Value.Str, Quote: t.Extras.QuoteChar, LineNo: line}, nil
	default:
		return nil, p.expected("number, string, or parameter")
	}
}

func (p *Parser) parseAdd() (ast.Expr, error) {
	left, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for {
		line := p.line()
		switch p.cur().Kind {
		case token.Plus:
			p.advance()
			right, err := p.parseMul()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryOperator{Op: ast.OpPlus, Left: left, Right: right, LineNo: line}
		case token.Minus:
			p.advance()
			right, err := p.parseMul()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryOperator{Op: ast.OpMinus, Left: left, Right: right, LineNo: line}
		default:
			return left, nil
		}
	}
}

func (p *Parser) parseMul() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		line := p.line()
		var op ast.BinaryOp
		switch p.cur().Kind {
		case token.Star:
			op = ast.OpMul
		case token.Slash:
			op = ast.OpDiv
		case token.Percent:
			op = ast.OpMod
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOperator{Op: op, Left: left, Right: right, LineNo: line}
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if _, ok := p.optionalMatch(token.Minus); ok {
		line := p.line()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if n, ok := inner.(*ast.Number); ok {
			negated := *n
			if negated.Kind == ast.NumberInt {
				negated.Int = -negated.Int
			} else {
				negated.Float = -negated.Float
			}
			return &negated, nil
		}
		// No dedicated unary-minus node exists in the node catalogue; fold
		// into 0 - expr, matching how the lexer only special-cases a minus
		// glued to a digit.
		return &ast.BinaryOperator{Op: ast.OpMinus, Left: ast.IntLit(0, line), Right: inner, LineNo: line}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	t := p.cur()
	line := t.Line
	switch t.Kind {
	case token.Number:
		p.advance()
		return numberFromToken(t), nil
	case token.String:
		p.advance()
		return &ast.StringLit{Value: t.Value.Str, Quote: t.Extras.QuoteChar, LineNo: line}, nil
	case token.True:
		p.advance()
		return &ast.Bool{Value: true, LineNo: line}, nil
	case token.False:
		p.advance()
		return &ast.Bool{Value: false, LineNo: line}, nil
	case token.Null:
		p.advance()
		return &ast.Null{LineNo: line}, nil
	case token.Parameter:
		p.advance()
		return &ast.Parameter{Name: t.Value.Str, LineNo: line}, nil
	case token.Exists:
		p.advance()
		if _, err := p.match(token.LParen); err != nil {
			return nil, err
		}
		id, err := p.parseIdentifierChain()
		if err != nil {
			return nil, err
		}
		if _, err := p.match(token.RParen); err != nil {
			return nil, err
		}
		return &ast.Exists{EntityIdentifier: id, LineNo: line}, nil
	case token.Slash:
		pattern, flags, err := p.lex.FetchRegex()
		if err != nil {
			return nil, objerr.WrapLexAsParse(err)
		}
		return &ast.RegexLiteral{Pattern: pattern, Flags: flags, LineNo: line}, nil
	case token.LParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.match(token.RParen); err != nil {
			return nil, err
		}
		return e, nil
	case token.Ident:
		id, err := p.parseIdentifierChain()
		if err != nil {
			return nil, err
		}
		if p.cur().Kind == token.LParen {
			p.advance()
			var args []ast.Expr
			if p.cur().Kind != token.RParen {
				args, err = p.parseExprList()
				if err != nil {
					return nil, err
				}
			}
			if _, err := p.match(token.RParen); err != nil {
				return nil, err
			}
			receiver, name := splitMethodCall(id)
			return &ast.MethodCall{Receiver: receiver, Name: name, Args: args, LineNo: line}, nil
		}
		return id, nil
	default:
		return nil, p.unexpected()
	}
}

func (p *Parser) parseIdentifierChain() (*ast.Identifier, error) {
	firstTok, err := p.match(token.Ident)
	if err != nil {
		return nil, err
	}
	head := &ast.Identifier{Name: firstTok.Value.Str, LineNo: firstTok.Line}
	node := head
	for {
		if _, ok := p.optionalMatch(token.Dot); !ok {
			break
		}
		segTok, err := p.match(token.Ident)
		if err != nil {
			return nil, err
		}
		next := &ast.Identifier{Name: segTok.Value.Str, LineNo: segTok.Line}
		node.Next = next
		node = next
	}
	return head, nil
}

// splitMethodCall separates a parsed dotted chain into the method's
// receiver (everything before the last segment) and its name (the last
// segment). A chain with no dots has no receiver.
func splitMethodCall(id *ast.Identifier) (*ast.Identifier, string) {
	if id.Next == nil {
		return nil, id.Name
	}
	prev := id
	for prev.Next.Next != nil {
		prev = prev.Next
	}
	name := prev.Next.Name
	prev.Next = nil
	return id, name
}

func (p *Parser) parseExprList() ([]ast.Expr, error) {
	var exprs []ast.Expr
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	exprs = append(exprs, e)
	for {
		if _, ok := p.optionalMatch(token.Comma); !ok {
			break
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

func numberFromToken(t token.Token) *ast.Number {
	if t.Value.Kind == token.PayloadFloat {
		return ast.FloatLit(t.Value.Float, t.Line)
	}
	return ast.IntLit(t.Value.Int, t.Line)
}
