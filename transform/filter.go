package transform

import (
	"github.com/carlodf/pansql/ast"
	"github.com/carlodf/pansql/diag"
	"github.com/carlodf/pansql/ir"
	"github.com/carlodf/pansql/sema"
	"github.com/carlodf/pansql/types"
)

// compileFilter lowers a WHERE predicate into ir.FilterExpr, re-resolving
// column references against the select's FROM/JOIN aliases with the same
// sema.ResolveColumn helper pass 2 uses (spec §4.4: "Filter ... compiled
// as a predicate expression tree").
func compileFilter(e ast.Expr, res *sema.SelectResolution) (*ir.FilterExpr, error) {
	return compilePredicate(e, res, nil)
}

// compileHaving lowers a HAVING predicate the same way, except operands
// may additionally reference an aggregate function directly (e.g.
// `count(*) > 5`), matched against the already-built aggregator list by
// (Func, ArgColumn).
func compileHaving(e ast.Expr, res *sema.SelectResolution, aggs []ir.Aggregator) (*ir.FilterExpr, error) {
	return compilePredicate(e, res, aggs)
}

func compilePredicate(e ast.Expr, res *sema.SelectResolution, aggs []ir.Aggregator) (*ir.FilterExpr, error) {
	switch n := e.(type) {
	case ast.ParenExpr:
		return compilePredicate(n.Inner, res, aggs)

	case ast.NotExpr:
		inner, err := compilePredicate(n.Operand, res, aggs)
		if err != nil {
			return nil, err
		}
		return &ir.FilterExpr{Op: ir.FilterNot, Children: []*ir.FilterExpr{inner}}, nil

	case ast.BinaryExpr:
		switch n.Op {
		case ast.OpAnd, ast.OpOr:
			left, err := compilePredicate(n.Left, res, aggs)
			if err != nil {
				return nil, err
			}
			right, err := compilePredicate(n.Right, res, aggs)
			if err != nil {
				return nil, err
			}
			op := ir.FilterAnd
			if n.Op == ast.OpOr {
				op = ir.FilterOr
			}
			return &ir.FilterExpr{Op: op, Children: []*ir.FilterExpr{left, right}}, nil

		case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
			left, err := compileOperand(n.Left, res, aggs)
			if err != nil {
				return nil, err
			}
			right, err := compileOperand(n.Right, res, aggs)
			if err != nil {
				return nil, err
			}
			return &ir.FilterExpr{Op: comparisonOp(n.Op), Left: left, Right: right}, nil

		default:
			return nil, diag.NewTypeError("", "arithmetic expression is not a valid filter predicate")
		}

	default:
		return nil, diag.NewTypeError("", "unsupported predicate expression")
	}
}

func comparisonOp(op ast.BinOp) ir.FilterOp {
	switch op {
	case ast.OpEq:
		return ir.FilterEq
	case ast.OpNeq:
		return ir.FilterNeq
	case ast.OpLt:
		return ir.FilterLt
	case ast.OpLte:
		return ir.FilterLte
	case ast.OpGt:
		return ir.FilterGt
	default:
		return ir.FilterGte
	}
}

func compileOperand(e ast.Expr, res *sema.SelectResolution, aggs []ir.Aggregator) (*ir.FilterOperand, error) {
	switch n := e.(type) {
	case ast.ColumnRef:
		stream, idx, fromJoin, err := sema.ResolveColumn(n, res.FromAlias, res.FromStream, res.JoinAlias, res.JoinStream)
		if err != nil {
			return nil, err
		}
		kind := ir.OperandReaderColumn
		if fromJoin {
			kind = ir.OperandJoinColumn
		}
		return &ir.FilterOperand{Kind: kind, Column: idx, Type: stream.Fields[idx].Type}, nil

	case ast.Literal:
		return &ir.FilterOperand{Kind: ir.OperandLiteral, Type: literalOperandType(n), Literal: n.String()}, nil

	case ast.FuncCall:
		for _, a := range aggs {
			if a.Func == funcKind(n.Kind) && (n.Star || a.ArgColumn == argColumn(n, res)) {
				return &ir.FilterOperand{Kind: ir.OperandAggregatorOutput, Aggregator: a.Index, Type: a.ResultType}, nil
			}
		}
		return nil, diag.NewResolveError(n.String(), "HAVING references an aggregate not present in the GROUP BY list")

	default:
		return nil, diag.NewTypeError("", "unsupported filter operand")
	}
}

// argColumn resolves a non-star aggregate argument's column ordinal for
// matching against an already-built Aggregator; -1 on any failure
// (count(*) operands never reach here since Star short-circuits above).
func argColumn(n ast.FuncCall, res *sema.SelectResolution) int {
	colRef, ok := n.Arg.(ast.ColumnRef)
	if !ok {
		return -1
	}
	_, idx, _, err := sema.ResolveColumn(colRef, res.FromAlias, res.FromStream, res.JoinAlias, res.JoinStream)
	if err != nil {
		return -1
	}
	return idx
}

func literalOperandType(l ast.Literal) types.FieldType {
	switch l.Kind {
	case ast.LitInt:
		return types.FieldType{Tag: types.TagInt64}
	case ast.LitDecimal:
		return types.FieldType{Tag: types.TagDecimal}
	case ast.LitString:
		return types.FieldType{Tag: types.TagVarChar}
	default:
		return types.FieldType{Tag: types.TagVarChar, Nullable: true}
	}
}
