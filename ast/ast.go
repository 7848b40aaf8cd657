// Package ast defines the ObjectQuel abstract syntax tree: ranges, the
// retrieve statement, and the expression tree that appears in via-clauses,
// WHERE conditions, sort lists, and value aliases.
//
// Nodes are plain mutable structs rather than a closed sum type behind an
// interface hierarchy with virtual dispatch; the semantic pipeline mutates
// nodes in place (§4.5 of the compiler design), which is far more natural
// against addressable struct fields than against an immutable tree rebuilt
// on every pass. Range bindings on Identifier are plain pointers into the
// owning Retrieve's Ranges slice, not owned references, so cloning a
// Retrieve must rebind them explicitly (see Retrieve.Clone).
package ast

import "fmt"

// Node is implemented by every AST type. Line reports the source line the
// node originated on, used for diagnostics.
type Node interface {
	Line() uint32
	Visit(v Visitor)
}

// Expr is implemented by every node that can appear where a value is
// expected: conditions, via-clauses, alias expressions, sort keys, method
// call receivers and arguments.
type Expr interface {
	Node
	Clone() Expr
	exprNode()
}

// Range is implemented by RangeDatabase and RangeJSON.
type Range interface {
	Node
	RangeName() string
	IsRequired() bool
	SetRequired(bool)
	Clone() Range
	rangeNode()
}

// BinaryOp enumerates the operators carried by BinaryOperator nodes.
type BinaryOp uint8

const (
	OpAnd BinaryOp = iota
	OpOr
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpPlus
	OpMinus
	OpMul
	OpDiv
	OpMod
	OpShL
	OpShR
)

var binaryOpNames = map[BinaryOp]string{
	OpAnd: "and", OpOr: "or", OpEq: "=", OpNeq: "!=",
	OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpPlus: "+", OpMinus: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
	OpShL: "<<", OpShR: ">>",
}

func (op BinaryOp) String() string {
	if s, ok := binaryOpNames[op]; ok {
		return s
	}
	return fmt.Sprintf("BinaryOp(%d)", uint8(op))
}

// IsLogical reports whether op combines boolean subexpressions (And/Or) as
// opposed to comparing or computing over scalar ones.
func (op BinaryOp) IsLogical() bool { return op == OpAnd || op == OpOr }

// Visitor receives one callback per concrete node kind. Accept methods
// dispatch a single level; a Visitor implementation that wants to descend
// into children calls Visit on them itself. This mirrors the source's
// trait-object visitor (design notes §9) without forcing every pass to
// implement every method — most passes instead walk the tree directly
// with a type switch, which this package supports equally via Walk.
type Visitor interface {
	VisitRangeDatabase(*RangeDatabase)
	VisitRangeJSON(*RangeJSON)
	VisitRetrieve(*Retrieve)
	VisitAlias(*Alias)
	VisitIdentifier(*Identifier)
	VisitBinaryOperator(*BinaryOperator)
	VisitNot(*Not)
	VisitNumber(*Number)
	VisitStringLit(*StringLit)
	VisitBool(*Bool)
	VisitNull(*Null)
	VisitParameter(*Parameter)
	VisitIn(*In)
	VisitExists(*Exists)
	VisitMethodCall(*MethodCall)
	VisitRegexLiteral(*RegexLiteral)
}

// BaseVisitor implements Visitor with no-op methods so callers can embed it
// and override only the methods they care about.
type BaseVisitor struct{}

func (BaseVisitor) VisitRangeDatabase(*RangeDatabase)   {}
func (BaseVisitor) VisitRangeJSON(*RangeJSON)           {}
func (BaseVisitor) VisitRetrieve(*Retrieve)             {}
func (BaseVisitor) VisitAlias(*Alias)                   {}
func (BaseVisitor) VisitIdentifier(*Identifier)         {}
func (BaseVisitor) VisitBinaryOperator(*BinaryOperator) {}
func (BaseVisitor) VisitNot(*Not)                       {}
func (BaseVisitor) VisitNumber(*Number)                 {}
func (BaseVisitor) VisitStringLit(*StringLit)           {}
func (BaseVisitor) VisitBool(*Bool)                     {}
func (BaseVisitor) VisitNull(*Null)                     {}
func (BaseVisitor) VisitParameter(*Parameter)           {}
func (BaseVisitor) VisitIn(*In)                         {}
func (BaseVisitor) VisitExists(*Exists)                 {}
func (BaseVisitor) VisitMethodCall(*MethodCall)         {}
func (BaseVisitor) VisitRegexLiteral(*RegexLiteral)     {}

// ---- Ranges --------------------------------------------------------------

// RangeDatabase binds a local name to a database-backed entity, optionally
// joined onto the rest of the query via JoinProperty.
type RangeDatabase struct {
	Name         string
	EntityName   string
	JoinProperty Expr // nil for a FROM-root range
	Required     bool
	LineNo       uint32
}

func (r *RangeDatabase) Line() uint32        { return r.LineNo }
func (r *RangeDatabase) RangeName() string   { return r.Name }
func (r *RangeDatabase) IsRequired() bool    { return r.Required }
func (r *RangeDatabase) SetRequired(v bool)  { r.Required = v }
func (r *RangeDatabase) Visit(v Visitor)     { v.VisitRangeDatabase(r) }
func (*RangeDatabase) rangeNode()            {}

func (r *RangeDatabase) Clone() Range {
	cp := *r
	if r.JoinProperty != nil {
		cp.JoinProperty = r.JoinProperty.Clone()
	}
	return &cp
}

// RangeJSON binds a local name to a range sourced from a JSON expression
// rather than a table (json_source(...) in the grammar).
type RangeJSON struct {
	Name       string
	SourceExpr []Expr
	Required   bool
	LineNo     uint32
}

func (r *RangeJSON) Line() uint32       { return r.LineNo }
func (r *RangeJSON) RangeName() string  { return r.Name }
func (r *RangeJSON) IsRequired() bool   { return r.Required }
func (r *RangeJSON) SetRequired(v bool) { r.Required = v }
func (r *RangeJSON) Visit(v Visitor)    { v.VisitRangeJSON(r) }
func (*RangeJSON) rangeNode()           {}

func (r *RangeJSON) Clone() Range {
	cp := *r
	cp.SourceExpr = make([]Expr, len(r.SourceExpr))
	for i, e := range r.SourceExpr {
		cp.SourceExpr[i] = e.Clone()
	}
	return &cp
}

// ---- Directives -----------------------------------------------------------

// DirectiveKind identifies the type of value carried by a compiler
// directive.
type DirectiveKind uint8

const (
	DirectiveBool DirectiveKind = iota
	DirectiveNumber
	DirectiveIdent
)

// DirectiveValue is the typed value of a `@Name = value` directive.
type DirectiveValue struct {
	Kind   DirectiveKind
	Bool   bool
	Number float64
	Ident  string
}

// ---- Retrieve ---------------------------------------------------------

// SortItem pairs a sort key expression with its direction.
type SortItem struct {
	Expr Expr
	Desc bool
}

func (s SortItem) Clone() SortItem {
	return SortItem{Expr: s.Expr.Clone(), Desc: s.Desc}
}

// Retrieve is the single top-level statement produced by the parser.
type Retrieve struct {
	Directives             map[string]DirectiveValue
	Ranges                 []Range
	Macros                 map[string]Expr
	Values                 []*Alias
	Conditions             Expr // nil if there is no WHERE clause
	Sort                   []SortItem
	Window                 *uint32
	WindowSize             *uint32
	Unique                 bool
	SortInApplicationLogic bool
	FullQueryResultCount   *uint64
	LineNo                 uint32
}

func (r *Retrieve) Line() uint32     { return r.LineNo }
func (r *Retrieve) Visit(v Visitor)  { v.VisitRetrieve(r) }

// RangeByName returns the range with the given name, or nil.
func (r *Retrieve) RangeByName(name string) Range {
	for _, rg := range r.Ranges {
		if rg.RangeName() == name {
			return rg
		}
	}
	return nil
}

// Clone returns a structurally independent deep copy of the statement,
// including rebinding every Identifier's resolved Range pointer to the
// corresponding range in the clone rather than the original (ranges are
// referenced, not owned, so a naive per-node Clone would leave identifiers
// pointing at the source tree's ranges).
func (r *Retrieve) Clone() *Retrieve {
	cp := &Retrieve{
		Unique:                 r.Unique,
		SortInApplicationLogic: r.SortInApplicationLogic,
		LineNo:                 r.LineNo,
	}
	if r.Directives != nil {
		cp.Directives = make(map[string]DirectiveValue, len(r.Directives))
		for k, v := range r.Directives {
			cp.Directives[k] = v
		}
	}
	rangeMap := make(map[string]Range, len(r.Ranges))
	cp.Ranges = make([]Range, len(r.Ranges))
	for i, rg := range r.Ranges {
		cloned := rg.Clone()
		cp.Ranges[i] = cloned
		rangeMap[rg.RangeName()] = cloned
	}
	if r.Macros != nil {
		cp.Macros = make(map[string]Expr, len(r.Macros))
		for k, v := range r.Macros {
			cp.Macros[k] = v.Clone()
		}
	}
	cp.Values = make([]*Alias, len(r.Values))
	for i, a := range r.Values {
		cp.Values[i] = a.Clone()
	}
	if r.Conditions != nil {
		cp.Conditions = r.Conditions.Clone()
	}
	cp.Sort = make([]SortItem, len(r.Sort))
	for i, s := range r.Sort {
		cp.Sort[i] = s.Clone()
	}
	if r.Window != nil {
		w := *r.Window
		cp.Window = &w
	}
	if r.WindowSize != nil {
		w := *r.WindowSize
		cp.WindowSize = &w
	}
	if r.FullQueryResultCount != nil {
		c := *r.FullQueryResultCount
		cp.FullQueryResultCount = &c
	}
	rebindRanges(cp, rangeMap)
	return cp
}

func rebindRanges(r *Retrieve, rangeMap map[string]Range) {
	rebind := func(n Node) bool {
		if id, ok := n.(*Identifier); ok && id.Range != nil {
			if rg, ok := rangeMap[id.Range.RangeName()]; ok {
				id.Range = rg
			}
		}
		return true
	}
	for _, rg := range r.Ranges {
		if db, ok := rg.(*RangeDatabase); ok && db.JoinProperty != nil {
			Walk(db.JoinProperty, rebind)
		}
	}
	for _, e := range r.Macros {
		Walk(e, rebind)
	}
	for _, a := range r.Values {
		Walk(a.Expression, rebind)
	}
	if r.Conditions != nil {
		Walk(r.Conditions, rebind)
	}
	for _, s := range r.Sort {
		Walk(s.Expr, rebind)
	}
}

// ---- Alias ------------------------------------------------------------

// Alias names a value contributed to Retrieve.Values. AliasPattern is set
// by the semantic pipeline (pass 14) when Expression denotes a whole
// entity rather than a single property.
type Alias struct {
	Name            string
	Expression      Expr
	AliasPattern    *string
	VisibleInResult bool
	LineNo          uint32
}

func (a *Alias) Line() uint32    { return a.LineNo }
func (a *Alias) Visit(v Visitor) { v.VisitAlias(a) }

func (a *Alias) Clone() *Alias {
	cp := *a
	cp.Expression = a.Expression.Clone()
	if a.AliasPattern != nil {
		p := *a.AliasPattern
		cp.AliasPattern = &p
	}
	return &cp
}

// ---- Identifier ---------------------------------------------------------

// Identifier is a dotted property chain, e.g. `p.category.name`. Only the
// head of the chain ever carries a resolved Range; Next nodes are plain
// property-name links.
type Identifier struct {
	Name   string
	Next   *Identifier
	Range  Range // resolved by the semantic pipeline, nil before that
	LineNo uint32
}

func (id *Identifier) Line() uint32    { return id.LineNo }
func (id *Identifier) Visit(v Visitor) { v.VisitIdentifier(id) }
func (*Identifier) exprNode()          {}

func (id *Identifier) Clone() Expr {
	cp := &Identifier{Name: id.Name, Range: id.Range, LineNo: id.LineNo}
	if id.Next != nil {
		cp.Next = id.Next.Clone().(*Identifier)
	}
	return cp
}

// Tail returns the dotted property path after the head, e.g. ["category",
// "name"] for `p.category.name`.
func (id *Identifier) Tail() []string {
	var parts []string
	for n := id.Next; n != nil; n = n.Next {
		parts = append(parts, n.Name)
	}
	return parts
}

// Last returns the final segment of the chain (the property actually
// referenced), or the head's own name if the chain has no tail.
func (id *Identifier) Last() *Identifier {
	n := id
	for n.Next != nil {
		n = n.Next
	}
	return n
}

func (id *Identifier) String() string {
	s := id.Name
	for n := id.Next; n != nil; n = n.Next {
		s += "." + n.Name
	}
	return s
}

// ---- BinaryOperator / Not -------------------------------------------------

// BinaryOperator is both a logical connective (And/Or) and a scalar
// comparison or arithmetic operator; the source's Expression node is
// represented by this same type with a non-logical Op.
type BinaryOperator struct {
	Op     BinaryOp
	Left   Expr
	Right  Expr
	LineNo uint32
}

func (b *BinaryOperator) Line() uint32    { return b.LineNo }
func (b *BinaryOperator) Visit(v Visitor) { v.VisitBinaryOperator(b) }
func (*BinaryOperator) exprNode()         {}

func (b *BinaryOperator) Clone() Expr {
	return &BinaryOperator{Op: b.Op, Left: b.Left.Clone(), Right: b.Right.Clone(), LineNo: b.LineNo}
}

// Not is the grammar's unary `not` prefix. It is not part of the source
// AST's node catalogue but is required to represent notExpr faithfully;
// §9's open questions permit implementer discretion on node shape as long
// as the stated invariants hold.
type Not struct {
	Expr   Expr
	LineNo uint32
}

func (n *Not) Line() uint32    { return n.LineNo }
func (n *Not) Visit(v Visitor) { v.VisitNot(n) }
func (*Not) exprNode()         {}

func (n *Not) Clone() Expr { return &Not{Expr: n.Expr.Clone(), LineNo: n.LineNo} }

// ---- Literals -----------------------------------------------------------

// NumberKind selects which field of Number is meaningful.
type NumberKind uint8

const (
	NumberInt NumberKind = iota
	NumberFloat
)

type Number struct {
	Kind   NumberKind
	Int    int64
	Float  float64
	LineNo uint32
}

func (n *Number) Line() uint32    { return n.LineNo }
func (n *Number) Visit(v Visitor) { v.VisitNumber(n) }
func (*Number) exprNode()         {}
func (n *Number) Clone() Expr     { cp := *n; return &cp }

func IntLit(v int64, line uint32) *Number   { return &Number{Kind: NumberInt, Int: v, LineNo: line} }
func FloatLit(v float64, line uint32) *Number { return &Number{Kind: NumberFloat, Float: v, LineNo: line} }

type StringLit struct {
	Value  string
	Quote  byte
	LineNo uint32
}

func (s *StringLit) Line() uint32    { return s.LineNo }
func (s *StringLit) Visit(v Visitor) { v.VisitStringLit(s) }
func (*StringLit) exprNode()         {}
func (s *StringLit) Clone() Expr     { cp := *s; return &cp }

type Bool struct {
	Value  bool
	LineNo uint32
}

func (b *Bool) Line() uint32    { return b.LineNo }
func (b *Bool) Visit(v Visitor) { v.VisitBool(b) }
func (*Bool) exprNode()         {}
func (b *Bool) Clone() Expr     { cp := *b; return &cp }

type Null struct {
	LineNo uint32
}

func (n *Null) Line() uint32    { return n.LineNo }
func (n *Null) Visit(v Visitor) { v.VisitNull(n) }
func (*Null) exprNode()         {}
func (n *Null) Clone() Expr     { cp := *n; return &cp }

type Parameter struct {
	Name   string
	LineNo uint32
}

func (p *Parameter) Line() uint32    { return p.LineNo }
func (p *Parameter) Visit(v Visitor) { v.VisitParameter(p) }
func (*Parameter) exprNode()         {}
func (p *Parameter) Clone() Expr     { cp := *p; return &cp }

type RegexLiteral struct {
	Pattern string
	Flags   string
	LineNo  uint32
}

func (r *RegexLiteral) Line() uint32    { return r.LineNo }
func (r *RegexLiteral) Visit(v Visitor) { v.VisitRegexLiteral(r) }
func (*RegexLiteral) exprNode()         {}
func (r *RegexLiteral) Clone() Expr     { cp := *r; return &cp }

// ---- In / Exists / MethodCall --------------------------------------------

// In represents `identifier in (params...)`. Each parameter is a Number,
// StringLit, or Parameter as parsed; the pagination rewriter replaces the
// whole list in place with new Parameters bound to the windowed keys.
type In struct {
	Identifier *Identifier
	Parameters []Expr
	LineNo     uint32
}

func (i *In) Line() uint32    { return i.LineNo }
func (i *In) Visit(v Visitor) { v.VisitIn(i) }
func (*In) exprNode()         {}

func (i *In) Clone() Expr {
	cp := &In{Identifier: i.Identifier.Clone().(*Identifier), LineNo: i.LineNo}
	cp.Parameters = make([]Expr, len(i.Parameters))
	for idx, p := range i.Parameters {
		cp.Parameters[idx] = p.Clone()
	}
	return cp
}

// Exists represents `exists(entity)`. It never survives the semantic
// pipeline (invariant 6): each occurrence forces its range's Required flag
// and is erased from the condition tree.
type Exists struct {
	EntityIdentifier *Identifier
	LineNo           uint32
}

func (e *Exists) Line() uint32    { return e.LineNo }
func (e *Exists) Visit(v Visitor) { v.VisitExists(e) }
func (*Exists) exprNode()         {}

func (e *Exists) Clone() Expr {
	return &Exists{EntityIdentifier: e.EntityIdentifier.Clone().(*Identifier), LineNo: e.LineNo}
}

// MethodCall represents `receiver.name(args...)`. Its presence in a sort
// expression is one of the two triggers for SortInApplicationLogic.
type MethodCall struct {
	Receiver *Identifier
	Name     string
	Args     []Expr
	LineNo   uint32
}

func (m *MethodCall) Line() uint32    { return m.LineNo }
func (m *MethodCall) Visit(v Visitor) { v.VisitMethodCall(m) }
func (*MethodCall) exprNode()         {}

func (m *MethodCall) Clone() Expr {
	cp := &MethodCall{Name: m.Name, LineNo: m.LineNo}
	if m.Receiver != nil {
		cp.Receiver = m.Receiver.Clone().(*Identifier)
	}
	cp.Args = make([]Expr, len(m.Args))
	for i, a := range m.Args {
		cp.Args[i] = a.Clone()
	}
	return cp
}

// ---- Walk -----------------------------------------------------------------

// Walk performs a pre-order traversal of n and its children, invoking fn on
// each node. fn returns false to stop descending into that node's children
// (traversal of siblings continues). Walk is the workhorse most semantic
// passes use for read-only scans (method-call detection, identifier
// collection); passes that need to rewrite the tree generally do so with an
// explicit type switch instead, since Walk does not support replacing a
// child in place.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch t := n.(type) {
	case *RangeDatabase:
		if t.JoinProperty != nil {
			Walk(t.JoinProperty, fn)
		}
	case *RangeJSON:
		for _, e := range t.SourceExpr {
			Walk(e, fn)
		}
	case *Retrieve:
		for _, rg := range t.Ranges {
			Walk(rg, fn)
		}
		for _, e := range t.Macros {
			Walk(e, fn)
		}
		for _, a := range t.Values {
			Walk(a, fn)
		}
		if t.Conditions != nil {
			Walk(t.Conditions, fn)
		}
		for _, s := range t.Sort {
			Walk(s.Expr, fn)
		}
	case *Alias:
		Walk(t.Expression, fn)
	case *Identifier:
		if t.Next != nil {
			Walk(t.Next, fn)
		}
	case *BinaryOperator:
		Walk(t.Left, fn)
		Walk(t.Right, fn)
	case *Not:
		Walk(t.Expr, fn)
	case *In:
		Walk(t.Identifier, fn)
		for _, p := range t.Parameters {
			Walk(p, fn)
		}
	case *Exists:
		Walk(t.EntityIdentifier, fn)
	case *MethodCall:
		if t.Receiver != nil {
			Walk(t.Receiver, fn)
		}
		for _, a := range t.Args {
			Walk(a, fn)
		}
	}
}

// Transform rewrites e and its children post-order: children are
// transformed first, children are written back into the (mutated) node,
// then fn is called on the node itself and its return value becomes the
// new subtree. This is the primitive semantic passes use to replace
// identifiers with macro bodies, erase Exists nodes, and similar
// tree-rewrites that Walk's read-only traversal cannot express.
func Transform(e Expr, fn func(Expr) Expr) Expr {
	if e == nil {
		return nil
	}
	switch t := e.(type) {
	case *BinaryOperator:
		t.Left = Transform(t.Left, fn)
		t.Right = Transform(t.Right, fn)
	case *Not:
		t.Expr = Transform(t.Expr, fn)
	case *In:
		for i, p := range t.Parameters {
			t.Parameters[i] = Transform(p, fn)
		}
	case *MethodCall:
		for i, a := range t.Args {
			t.Args[i] = Transform(a, fn)
		}
	}
	return fn(e)
}

// ContainsMethodCall reports whether the subtree rooted at e contains a
// MethodCall node, one of the two triggers for sort-in-application-logic
// (spec invariant 7).
func ContainsMethodCall(e Expr) bool {
	found := false
	Walk(e, func(n Node) bool {
		if _, ok := n.(*MethodCall); ok {
			found = true
		}
		return !found
	})
	return found
}

// ---- Equal ----------------------------------------------------------------

// Equal reports whether two nodes are structurally identical, ignoring
// resolved Range pointers' identity (ranges are compared by name, since an
// equal-but-cloned tree binds to a different Range value). It can compare
// a Retrieve before and after re-running semantic passes on it; no package
// in this module calls it.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *RangeDatabase:
		y, ok := b.(*RangeDatabase)
		return ok && x.Name == y.Name && x.EntityName == y.EntityName &&
			x.Required == y.Required && Equal(exprOrNil(x.JoinProperty), exprOrNil(y.JoinProperty))
	case *RangeJSON:
		y, ok := b.(*RangeJSON)
		if !ok || x.Name != y.Name || x.Required != y.Required || len(x.SourceExpr) != len(y.SourceExpr) {
			return false
		}
		for i := range x.SourceExpr {
			if !Equal(x.SourceExpr[i], y.SourceExpr[i]) {
				return false
			}
		}
		return true
	case *Retrieve:
		y, ok := b.(*Retrieve)
		if !ok || x.Unique != y.Unique || x.SortInApplicationLogic != y.SortInApplicationLogic {
			return false
		}
		if len(x.Ranges) != len(y.Ranges) || len(x.Values) != len(y.Values) || len(x.Sort) != len(y.Sort) {
			return false
		}
		for i := range x.Ranges {
			if !Equal(x.Ranges[i], y.Ranges[i]) {
				return false
			}
		}
		for i := range x.Values {
			if !Equal(x.Values[i], y.Values[i]) {
				return false
			}
		}
		for i := range x.Sort {
			if x.Sort[i].Desc != y.Sort[i].Desc || !Equal(x.Sort[i].Expr, y.Sort[i].Expr) {
				return false
			}
		}
		return Equal(exprOrNil(x.Conditions), exprOrNil(y.Conditions))
	case *Alias:
		y, ok := b.(*Alias)
		if !ok || x.Name != y.Name || x.VisibleInResult != y.VisibleInResult {
			return false
		}
		if (x.AliasPattern == nil) != (y.AliasPattern == nil) {
			return false
		}
		if x.AliasPattern != nil && *x.AliasPattern != *y.AliasPattern {
			return false
		}
		return Equal(x.Expression, y.Expression)
	case *Identifier:
		y, ok := b.(*Identifier)
		if !ok || x.Name != y.Name {
			return false
		}
		xRange, yRange := "", ""
		if x.Range != nil {
			xRange = x.Range.RangeName()
		}
		if y.Range != nil {
			yRange = y.Range.RangeName()
		}
		if xRange != yRange {
			return false
		}
		return Equal(identOrNil(x.Next), identOrNil(y.Next))
	case *BinaryOperator:
		y, ok := b.(*BinaryOperator)
		return ok && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *Not:
		y, ok := b.(*Not)
		return ok && Equal(x.Expr, y.Expr)
	case *Number:
		y, ok := b.(*Number)
		return ok && x.Kind == y.Kind && x.Int == y.Int && x.Float == y.Float
	case *StringLit:
		y, ok := b.(*StringLit)
		return ok && x.Value == y.Value && x.Quote == y.Quote
	case *Bool:
		y, ok := b.(*Bool)
		return ok && x.Value == y.Value
	case *Null:
		_, ok := b.(*Null)
		return ok
	case *Parameter:
		y, ok := b.(*Parameter)
		return ok && x.Name == y.Name
	case *In:
		y, ok := b.(*In)
		if !ok || len(x.Parameters) != len(y.Parameters) || !Equal(x.Identifier, y.Identifier) {
			return false
		}
		for i := range x.Parameters {
			if !Equal(x.Parameters[i], y.Parameters[i]) {
				return false
			}
		}
		return true
	case *Exists:
		y, ok := b.(*Exists)
		return ok && Equal(x.EntityIdentifier, y.EntityIdentifier)
	case *MethodCall:
		y, ok := b.(*MethodCall)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		if !Equal(identOrNil(x.Receiver), identOrNil(y.Receiver)) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *RegexLiteral:
		y, ok := b.(*RegexLiteral)
		return ok && x.Pattern == y.Pattern && x.Flags == y.Flags
	default:
		return false
	}
}

// exprOrNil/identOrNil let Equal compare possibly-nil typed pointers
// (a nil *BinaryOperator stored in an Expr interface is not == nil) by
// routing through Node's nil check uniformly.
func exprOrNil(e Expr) Node {
	if e == nil {
		return nil
	}
	return e
}

func identOrNil(id *Identifier) Node {
	if id == nil {
		return nil
	}
	return id
}
