package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is implemented by every SQL expression-tree node: column refs,
// literals, function calls, and the comparison/boolean operators WHERE
// and HAVING are built from.
type Expr interface {
	expr()
	String() string
}

// ColumnRef is a (possibly alias-qualified) column reference, e.g. "u.id"
// or a bare "id".
type ColumnRef struct {
	Qualifier string
	Name      string
}

func (ColumnRef) expr() {}
func (c ColumnRef) String() string {
	if c.Qualifier == "" {
		return c.Name
	}
	return c.Qualifier + "." + c.Name
}

// LiteralKind distinguishes the literal forms the grammar accepts.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitDecimal
	LitString
	LitNull
)

// Literal is a constant value: integer, decimal, quoted string, or NULL.
type Literal struct {
	Kind  LiteralKind
	Value string
}

func (Literal) expr() {}
func (l Literal) String() string {
	switch l.Kind {
	case LitString:
		return "'" + strings.ReplaceAll(l.Value, "'", "''") + "'"
	case LitNull:
		return "NULL"
	default:
		return l.Value
	}
}

// IntValue parses an integer literal's value.
func (l Literal) IntValue() (int64, error) { return strconv.ParseInt(l.Value, 10, 64) }

// FloatValue parses a decimal literal's value.
func (l Literal) FloatValue() (float64, error) { return strconv.ParseFloat(l.Value, 64) }

// FuncKind enumerates the aggregate functions the grammar recognizes
// (spec §3: Max, Min, Sum, Count, Avg).
type FuncKind int

const (
	FuncMax FuncKind = iota
	FuncMin
	FuncSum
	FuncCount
	FuncAvg
)

var funcNames = map[string]FuncKind{
	"max": FuncMax, "min": FuncMin, "sum": FuncSum, "count": FuncCount, "avg": FuncAvg,
}

// LookupFunc resolves a case-insensitive function name to a FuncKind.
func LookupFunc(name string) (FuncKind, bool) {
	k, ok := funcNames[strings.ToLower(name)]
	return k, ok
}

func (k FuncKind) String() string {
	for name, kk := range funcNames {
		if kk == k {
			return name
		}
	}
	return "unknown"
}

// FuncCall is an aggregate function call. Star is true only for
// count(*) (spec §4.2: "`*` in `count(*)` only").
type FuncCall struct {
	Kind FuncKind
	Arg  Expr // nil when Star is true
	Star bool
}

func (FuncCall) expr() {}
func (f FuncCall) String() string {
	if f.Star {
		return f.Kind.String() + "(*)"
	}
	return fmt.Sprintf("%s(%s)", f.Kind.String(), f.Arg.String())
}

// BinOp enumerates comparison/arithmetic/boolean binary operators.
type BinOp int

const (
	OpEq BinOp = iota
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpAnd
	OpOr
)

var binOpNames = map[BinOp]string{
	OpEq: "=", OpNeq: "<>", OpLt: "<", OpLte: "<=", OpGt: ">", OpGte: ">=",
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpAnd: "AND", OpOr: "OR",
}

func (o BinOp) String() string { return binOpNames[o] }

// BinaryExpr is a two-operand expression: comparison, arithmetic, or
// AND/OR.
type BinaryExpr struct {
	Op    BinOp
	Left  Expr
	Right Expr
}

func (BinaryExpr) expr() {}
func (b BinaryExpr) String() string {
	return fmt.Sprintf("%s %s %s", b.Left.String(), b.Op.String(), b.Right.String())
}

// NotExpr negates a boolean sub-expression.
type NotExpr struct {
	Operand Expr
}

func (NotExpr) expr() {}
func (n NotExpr) String() string { return "NOT " + n.Operand.String() }

// ParenExpr preserves explicit parenthesization for round-tripping.
type ParenExpr struct {
	Inner Expr
}

func (ParenExpr) expr() {}
func (p ParenExpr) String() string { return "(" + p.Inner.String() + ")" }
