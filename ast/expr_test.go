package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carlodf/pansql/ast"
)

func TestExprString(t *testing.T) {
	tests := []struct {
		name string
		e    ast.Expr
		want string
	}{
		{
			name: "column ref qualified",
			e:    ast.ColumnRef{Qualifier: "u", Name: "id"},
			want: "u.id",
		},
		{
			name: "column ref bare",
			e:    ast.ColumnRef{Name: "id"},
			want: "id",
		},
		{
			name: "string literal escapes quote",
			e:    ast.Literal{Kind: ast.LitString, Value: "it's"},
			want: "'it''s'",
		},
		{
			name: "null literal",
			e:    ast.Literal{Kind: ast.LitNull},
			want: "NULL",
		},
		{
			name: "comparison",
			e: ast.BinaryExpr{
				Op:    ast.OpEq,
				Left:  ast.ColumnRef{Qualifier: "p", Name: "Vendor"},
				Right: ast.Literal{Kind: ast.LitInt, Value: "1"},
			},
			want: "p.Vendor = 1",
		},
		{
			name: "and/or with not",
			e: ast.BinaryExpr{
				Op:   ast.OpAnd,
				Left: ast.NotExpr{Operand: ast.ColumnRef{Name: "active"}},
				Right: ast.BinaryExpr{
					Op:    ast.OpGt,
					Left:  ast.ColumnRef{Name: "count"},
					Right: ast.Literal{Kind: ast.LitInt, Value: "5"},
				},
			},
			want: "NOT active AND count > 5",
		},
		{
			name: "count star",
			e:    ast.FuncCall{Kind: ast.FuncCount, Star: true},
			want: "count(*)",
		},
		{
			name: "max of column",
			e:    ast.FuncCall{Kind: ast.FuncMax, Arg: ast.ColumnRef{Qualifier: "p", Name: "Price"}},
			want: "max(p.Price)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.e.String())
		})
	}
}

func TestLookupFunc(t *testing.T) {
	k, ok := ast.LookupFunc("COUNT")
	assert.True(t, ok)
	assert.Equal(t, ast.FuncCount, k)

	_, ok = ast.LookupFunc("median")
	assert.False(t, ok)
}

func TestDeclKindAndDirectionString(t *testing.T) {
	assert.Equal(t, "table", ast.KindTable.String())
	assert.Equal(t, "stream", ast.KindStream.String())
	assert.Equal(t, "write", ast.DirWrite.String())
	assert.Equal(t, "read", ast.DirRead.String())
}
