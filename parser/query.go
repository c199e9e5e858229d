package parser

import (
	"github.com/carlodf/pansql/ast"
	"github.com/carlodf/pansql/diag"
	"github.com/carlodf/pansql/lexer"
)

// select <items> from <Table> [alias] [join ...] [where ...]
//   [group by ...] [having ...] [order by ...] into <Name>
func (p *Parser) parseSelectStmt() (ast.Statement, error) {
	start := p.advance() // 'select'
	q := &ast.Query{ID: p.id(), Pos_: pos(start)}

	items, err := p.parseSelectList()
	if err != nil {
		return nil, err
	}
	q.Columns = items

	if _, err := p.expect(lexer.From); err != nil {
		return nil, err
	}
	from, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}
	q.From = from

	if p.at(lexer.Join) {
		join, err := p.parseJoin()
		if err != nil {
			return nil, err
		}
		q.Join = join
	}

	if p.at(lexer.Where) {
		p.advance()
		w, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		q.Where = w
	}

	if p.at(lexer.Group) {
		p.advance()
		if _, err := p.expect(lexer.By); err != nil {
			return nil, err
		}
		cols, err := p.parseIdentList()
		if err != nil {
			return nil, err
		}
		q.GroupBy = cols
	}

	if p.at(lexer.Having) {
		p.advance()
		h, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		q.Having = h
	}

	if p.at(lexer.OrderKw) {
		p.advance()
		if _, err := p.expect(lexer.By); err != nil {
			return nil, err
		}
		cols, err := p.parseIdentList()
		if err != nil {
			return nil, err
		}
		q.OrderBy = cols
	}

	if _, err := p.expect(lexer.Into); err != nil {
		return nil, err
	}
	into, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}

	return &ast.SelectStmt{ID: p.id(), Pos_: pos(start), Query: q, Into: into.Lexeme}, nil
}

func (p *Parser) parseSelectList() ([]ast.SelectItem, error) {
	var items []ast.SelectItem
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.at(lexer.Comma) {
			p.advance()
			continue
		}
		break
	}
	return items, nil
}

func (p *Parser) parseSelectItem() (ast.SelectItem, error) {
	e, err := p.parseScalarOrFunc()
	if err != nil {
		return ast.SelectItem{}, err
	}
	item := ast.SelectItem{Expr: e}
	if p.at(lexer.As) {
		p.advance()
		alias, err := p.expect(lexer.Ident)
		if err != nil {
			return ast.SelectItem{}, err
		}
		item.Alias = alias.Lexeme
	} else if p.at(lexer.Ident) {
		// Bare trailing alias: `p.Vendor VendorID`.
		alias := p.advance()
		item.Alias = alias.Lexeme
	}
	return item, nil
}

// parseScalarOrFunc parses a column reference, literal, or an aggregate
// function call — the only expression forms legal in a select list, and
// the operands parseTerm reads inside WHERE/HAVING predicates.
func (p *Parser) parseScalarOrFunc() (ast.Expr, error) {
	if p.at(lexer.Ident) {
		if kind, ok := ast.LookupFunc(p.cur().Lexeme); ok && p.peekIs(1, lexer.LParen) {
			return p.parseFuncCall(kind)
		}
	}
	return p.parseAtom()
}

func (p *Parser) peekIs(offset int, k lexer.Kind) bool {
	idx := p.pos + offset
	if idx >= len(p.toks) {
		return false
	}
	return p.toks[idx].Kind == k
}

func (p *Parser) parseFuncCall(kind ast.FuncKind) (ast.Expr, error) {
	p.advance() // function name
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	if p.at(lexer.Star) {
		if kind != ast.FuncCount {
			return nil, diag.NewParseError(p.cur().Line, p.cur().Col, "column", "* (only count(*) is allowed)")
		}
		p.advance()
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		return ast.FuncCall{Kind: kind, Star: true}, nil
	}
	arg, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	return ast.FuncCall{Kind: kind, Arg: arg}, nil
}

func (p *Parser) parseAtom() (ast.Expr, error) {
	switch p.cur().Kind {
	case lexer.Ident:
		t := p.advance()
		qualifier, name := splitQualified(t.Lexeme)
		return ast.ColumnRef{Qualifier: qualifier, Name: name}, nil
	case lexer.Null:
		p.advance()
		return ast.Literal{Kind: ast.LitNull}, nil
	case lexer.StringLiteral:
		t := p.advance()
		return ast.Literal{Kind: ast.LitString, Value: t.Lexeme}, nil
	case lexer.IntLiteral:
		t := p.advance()
		return ast.Literal{Kind: ast.LitInt, Value: t.Lexeme}, nil
	case lexer.DecimalLiteral:
		t := p.advance()
		return ast.Literal{Kind: ast.LitDecimal, Value: t.Lexeme}, nil
	default:
		return nil, diag.NewParseError(p.cur().Line, p.cur().Col, "an expression", describe(p.cur()))
	}
}

func (p *Parser) parseTableRef() (ast.TableRef, error) {
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return ast.TableRef{}, err
	}
	ref := ast.TableRef{Name: name.Lexeme}
	if p.at(lexer.Ident) {
		alias := p.advance()
		ref.Alias = alias.Lexeme
	}
	return ref, nil
}

func (p *Parser) parseJoin() (*ast.JoinClause, error) {
	p.advance() // 'join'
	table, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	alias, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.On); err != nil {
		return nil, err
	}
	left, err := p.parseColumnRef()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Eq); err != nil {
		return nil, err
	}
	right, err := p.parseColumnRef()
	if err != nil {
		return nil, err
	}
	return &ast.JoinClause{Table: table.Lexeme, Alias: alias.Lexeme, LeftCol: left, RightCol: right}, nil
}

func (p *Parser) parseColumnRef() (ast.ColumnRef, error) {
	t, err := p.expect(lexer.Ident)
	if err != nil {
		return ast.ColumnRef{}, err
	}
	qualifier, name := splitQualified(t.Lexeme)
	return ast.ColumnRef{Qualifier: qualifier, Name: name}, nil
}

func (p *Parser) parseIdentList() ([]string, error) {
	var cols []string
	for {
		t, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		cols = append(cols, t.Lexeme)
		if p.at(lexer.Comma) {
			p.advance()
			continue
		}
		break
	}
	return cols, nil
}

// parseExpr parses a boolean predicate: OR-level, then AND-level, then
// NOT/comparison atoms (spec §4.2: "AND/OR/NOT").
func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.Or) {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: ast.OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.And) {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: ast.OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expr, error) {
	if p.at(lexer.Not) {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return ast.NotExpr{Operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	if p.at(lexer.LParen) {
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		return ast.ParenExpr{Inner: inner}, nil
	}
	left, err := p.parseArith()
	if err != nil {
		return nil, err
	}
	op, ok := comparisonOp(p.cur().Kind)
	if !ok {
		return left, nil
	}
	p.advance()
	right, err := p.parseArith()
	if err != nil {
		return nil, err
	}
	return ast.BinaryExpr{Op: op, Left: left, Right: right}, nil
}

func comparisonOp(k lexer.Kind) (ast.BinOp, bool) {
	switch k {
	case lexer.Eq:
		return ast.OpEq, true
	case lexer.Neq:
		return ast.OpNeq, true
	case lexer.Lt:
		return ast.OpLt, true
	case lexer.Lte:
		return ast.OpLte, true
	case lexer.Gt:
		return ast.OpGt, true
	case lexer.Gte:
		return ast.OpGte, true
	default:
		return 0, false
	}
}

func (p *Parser) parseArith() (ast.Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.Plus) || p.at(lexer.Minus) {
		op := ast.OpAdd
		if p.at(lexer.Minus) {
			op = ast.OpSub
		}
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseTerm() (ast.Expr, error) {
	left, err := p.parseScalarOrFunc()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.Star) || p.at(lexer.Slash) {
		op := ast.OpMul
		if p.at(lexer.Slash) {
			op = ast.OpDiv
		}
		p.advance()
		right, err := p.parseScalarOrFunc()
		if err != nil {
			return nil, err
		}
		left = ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}
