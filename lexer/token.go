package lexer

// Kind identifies the lexical category of a Token.
type Kind int

const (
	EOF Kind = iota
	Ident

	// Literals.
	IntLiteral
	DecimalLiteral
	StringLiteral

	// Punctuation.
	Dot
	Comma
	LParen
	RParen

	// SQL operators.
	Eq
	Neq
	Lt
	Lte
	Gt
	Gte
	Plus
	Minus
	Star
	Slash

	// Keywords (case-insensitive, spec §4.1).
	Load
	Table
	Stream
	Open
	As
	For
	Read
	Write
	With
	Select
	From
	Join
	On
	Where
	Group
	By
	Having
	Into
	Map
	To
	Sync
	Abort
	And
	Or
	Not
	Null
	OrderKw
)

var keywords = map[string]Kind{
	"load": Load, "table": Table, "stream": Stream, "open": Open,
	"as": As, "for": For, "read": Read, "write": Write, "with": With,
	"select": Select, "from": From, "join": Join, "on": On, "where": Where,
	"group": Group, "by": By, "having": Having, "into": Into, "map": Map,
	"to": To, "sync": Sync, "abort": Abort, "and": And, "or": Or, "not": Not,
	"null": Null, "order": OrderKw,
}

var kindNames = map[Kind]string{
	EOF: "EOF", Ident: "identifier", IntLiteral: "integer literal",
	DecimalLiteral: "decimal literal", StringLiteral: "string literal",
	Dot: ".", Comma: ",", LParen: "(", RParen: ")",
	Eq: "=", Neq: "<>", Lt: "<", Lte: "<=", Gt: ">", Gte: ">=",
	Plus: "+", Minus: "-", Star: "*", Slash: "/",
	Load: "load", Table: "table", Stream: "stream", Open: "open", As: "as",
	For: "for", Read: "read", Write: "write", With: "with", Select: "select",
	From: "from", Join: "join", On: "on", Where: "where", Group: "group",
	By: "by", Having: "having", Into: "into", Map: "map", To: "to",
	Sync: "sync", Abort: "abort", And: "and", Or: "or", Not: "not",
	Null: "null", OrderKw: "order",
}

// String returns the human-readable name of k, used in parser diagnostics.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Token is one lexical unit: its kind, the exact source text, and its
// 1-based source position.
type Token struct {
	Kind   Kind
	Lexeme string
	Line   int
	Col    int
}
