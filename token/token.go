// Package token defines the value types shared by the ObjectQuel lexer and
// parser: token kinds, the dynamically typed token payload, and the saved
// lexer cursor used for backtracking.
package token

import (
	"fmt"
	"io"
)

// Kind identifies the lexical class of a Token.
type Kind uint16

const (
	Illegal Kind = iota
	EOF

	// Literals and dynamic values.
	Ident
	Number
	String
	True
	False
	Null
	Parameter         // :name
	CompilerDirective // @name
	Regex             // /pattern/flags, fetched out-of-band via Lexer.FetchRegex

	// Punctuation.
	Dot
	Comma
	LParen
	RParen
	Assign // =
	Gt
	Lt
	Plus
	Minus
	Star
	Slash
	Percent
	Hash
	Ampersand
	Caret
	Bang
	Question
	Colon
	Semicolon
	Backtick

	// Two-character operators.
	Eq     // ==
	Neq    // != or <>
	Gte    // >=
	Lte    // <=
	ShL    // <<
	ShR    // >>
	Arrow  // ->

	// Keywords.
	Retrieve
	Where
	And
	Or
	Range
	Of
	Is
	In
	Via
	Unique
	Sort
	By
	Not
	Asc
	Desc
	Window
	Using
	WindowSize
	JSONSource
	Exists
)

var names = map[Kind]string{
	Illegal: "ILLEGAL", EOF: "EOF",
	Ident: "IDENT", Number: "NUMBER", String: "STRING",
	True: "true", False: "false", Null: "null",
	Parameter: "PARAMETER", CompilerDirective: "DIRECTIVE", Regex: "REGEX",
	Dot: ".", Comma: ",", LParen: "(", RParen: ")", Assign: "=", Gt: ">", Lt: "<",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%", Hash: "#",
	Ampersand: "&", Caret: "^", Bang: "!", Question: "?", Colon: ":", Semicolon: ";",
	Backtick: "`",
	Eq:       "==", Neq: "!=", Gte: ">=", Lte: "<=", ShL: "<<", ShR: ">>", Arrow: "->",
	Retrieve: "retrieve", Where: "where", And: "and", Or: "or", Range: "range",
	Of: "of", Is: "is", In: "in", Via: "via", Unique: "unique", Sort: "sort",
	By: "by", Not: "not", Asc: "asc", Desc: "desc", Window: "window",
	Using: "using", WindowSize: "window_size", JSONSource: "json_source",
	Exists: "exists",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint16(k))
}

// Keywords maps the lower-cased spelling of every reserved word to its Kind.
// Keyword matching is case-insensitive at the lexer.
var Keywords = map[string]Kind{
	"retrieve": Retrieve, "where": Where, "and": And, "or": Or,
	"range": Range, "of": Of, "is": Is, "in": In, "via": Via,
	"unique": Unique, "sort": Sort, "by": By, "not": Not,
	"asc": Asc, "desc": Desc, "window": Window, "using": Using,
	"window_size": WindowSize, "json_source": JSONSource, "exists": Exists,
	"true": True, "false": False, "null": Null,
}

// PayloadKind identifies which field of Payload carries a token's value.
type PayloadKind uint8

const (
	PayloadNone PayloadKind = iota
	PayloadInt
	PayloadFloat
	PayloadString
	PayloadIdent
)

// Payload is a small dynamically-typed value carried by literal and
// identifier tokens. Exactly one field is meaningful, selected by Kind.
type Payload struct {
	Kind  PayloadKind
	Int   int64
	Float float64
	Str   string
}

func IntPayload(v int64) Payload    { return Payload{Kind: PayloadInt, Int: v} }
func FloatPayload(v float64) Payload { return Payload{Kind: PayloadFloat, Float: v} }
func StringPayload(v string) Payload { return Payload{Kind: PayloadString, Str: v} }
func IdentPayload(v string) Payload  { return Payload{Kind: PayloadIdent, Str: v} }

// Extras carries rarely-needed token metadata that would otherwise bloat
// every Token. Today it holds only the quote character of string literals.
type Extras struct {
	QuoteChar byte // '\'' or '"', zero if not a string token
}

// Token is a single lexical unit. Value is ephemeral: tokens are owned by
// the lexer that produced them and should be copied (they are value types)
// rather than retained across lexer mutation.
type Token struct {
	Kind   Kind
	Value  Payload
	Line   uint32
	Extras Extras
}

func (t Token) String() string {
	switch t.Value.Kind {
	case PayloadString, PayloadIdent:
		return fmt.Sprintf("%s(%q)", t.Kind, t.Value.Str)
	case PayloadInt:
		return fmt.Sprintf("%s(%d)", t.Kind, t.Value.Int)
	case PayloadFloat:
		return fmt.Sprintf("%s(%g)", t.Kind, t.Value.Float)
	default:
		return t.Kind.String()
	}
}

// LexerState is a saved lexer cursor, returned by Lexer.Save and accepted by
// Lexer.Restore to backtrack (used by regex-literal scanning and by any
// parser-level speculative lookahead).
type LexerState struct {
	Pos         int // byte offset of the next unread byte
	PrevPos     int // byte offset where the current token started
	PrevPrevPos int // byte offset where the token before that started
	Line        uint32
}

// Dump writes one line per token to w, in the form "<line>: <token>",
// for the `objectquelc tokens` debugging command.
func Dump(w io.Writer, tokens []Token) error {
	for _, t := range tokens {
		if _, err := fmt.Fprintf(w, "%4d: %s\n", t.Line, t); err != nil {
			return err
		}
	}
	return nil
}
