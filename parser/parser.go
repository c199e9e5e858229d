// Package parser implements the PanSQL recursive-descent parser (spec
// §4.2): a sequence of top-level statements, each either a DSL statement
// (load/table/stream/open/select/map/sync/abort) or a SQL query embedded
// in a select.
package parser

import (
	"strings"

	"github.com/carlodf/pansql/ast"
	"github.com/carlodf/pansql/diag"
	"github.com/carlodf/pansql/lexer"
)

// Parser consumes a pre-lexed token stream and builds a Script.
type Parser struct {
	toks   []lexer.Token
	pos    int
	nextID ast.NodeID
}

// Parse tokenizes src and parses it into a Script.
func Parse(src string) (*ast.Script, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	return p.parseScript()
}

func (p *Parser) id() ast.NodeID {
	p.nextID++
	return p.nextID
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) at(k lexer.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k lexer.Kind) (lexer.Token, error) {
	if !p.at(k) {
		return lexer.Token{}, diag.NewParseError(p.cur().Line, p.cur().Col, k.String(), describe(p.cur()))
	}
	return p.advance(), nil
}

func describe(t lexer.Token) string {
	if t.Kind == lexer.EOF {
		return "EOF"
	}
	return t.Kind.String() + " '" + t.Lexeme + "'"
}

func pos(t lexer.Token) ast.Pos { return ast.Pos{Line: t.Line, Col: t.Col} }

func splitQualified(ident string) (qualifier, name string) {
	if i := strings.LastIndexByte(ident, '.'); i >= 0 {
		return ident[:i], ident[i+1:]
	}
	return "", ident
}

func (p *Parser) parseScript() (*ast.Script, error) {
	script := &ast.Script{}
	for !p.at(lexer.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		script.Statements = append(script.Statements, stmt)
	}
	return script, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.cur().Kind {
	case lexer.Load:
		return p.parseLoad()
	case lexer.Table, lexer.Stream:
		return p.parseDecl()
	case lexer.Open:
		return p.parseOpen()
	case lexer.Select:
		return p.parseSelectStmt()
	case lexer.Map:
		return p.parseMap()
	case lexer.Sync:
		return p.parseSync()
	case lexer.Abort:
		return p.parseAbort()
	default:
		return nil, diag.NewParseError(p.cur().Line, p.cur().Col, "a statement", describe(p.cur()))
	}
}

// load <'path'> as <Name>
func (p *Parser) parseLoad() (ast.Statement, error) {
	start := p.advance() // 'load'
	path, err := p.expect(lexer.StringLiteral)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.As); err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	return &ast.LoadStmt{ID: p.id(), Pos_: pos(start), Name: name.Lexeme, DictPath: path.Lexeme}, nil
}

// (table|stream) <Name> for <Dict.Stream>
func (p *Parser) parseDecl() (ast.Statement, error) {
	start := p.advance()
	kind := ast.KindStream
	if start.Kind == lexer.Table {
		kind = ast.KindTable
	}
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.For); err != nil {
		return nil, err
	}
	ref, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	dict, stream := splitQualified(ref.Lexeme)
	if dict == "" {
		return nil, diag.NewParseError(ref.Line, ref.Col, "Dict.Stream", ref.Lexeme)
	}
	return &ast.DeclStmt{
		ID: p.id(), Pos_: pos(start), Name: name.Lexeme, Kind: kind,
		Ref: ast.DictRef{Dict: dict, Stream: stream},
	}, nil
}

// open <Name> as <Connector> for (read|write) <Dict.Stream> with <'connstring'>
func (p *Parser) parseOpen() (ast.Statement, error) {
	start := p.advance()
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.As); err != nil {
		return nil, err
	}
	connector, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.For); err != nil {
		return nil, err
	}
	var dir ast.Direction
	switch p.cur().Kind {
	case lexer.Read:
		dir = ast.DirRead
		p.advance()
	case lexer.Write:
		dir = ast.DirWrite
		p.advance()
	default:
		return nil, diag.NewParseError(p.cur().Line, p.cur().Col, "read or write", describe(p.cur()))
	}
	ref, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	dict, stream := splitQualified(ref.Lexeme)
	if dict == "" {
		return nil, diag.NewParseError(ref.Line, ref.Col, "Dict.Stream", ref.Lexeme)
	}
	if _, err := p.expect(lexer.With); err != nil {
		return nil, err
	}
	conn, err := p.expect(lexer.StringLiteral)
	if err != nil {
		return nil, err
	}
	return &ast.OpenStmt{
		ID: p.id(), Pos_: pos(start), Name: name.Lexeme, Connector: connector.Lexeme,
		Direction: dir, Ref: ast.DictRef{Dict: dict, Stream: stream}, ConnString: conn.Lexeme,
	}, nil
}

// map <Src> to <Dst> [with ( Dst=Src, ... )]
func (p *Parser) parseMap() (ast.Statement, error) {
	start := p.advance()
	src, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.To); err != nil {
		return nil, err
	}
	dst, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	stmt := &ast.MapStmt{ID: p.id(), Pos_: pos(start), Src: src.Lexeme, Dst: dst.Lexeme}
	if p.at(lexer.With) {
		p.advance()
		if _, err := p.expect(lexer.LParen); err != nil {
			return nil, err
		}
		for {
			dstField, err := p.expect(lexer.Ident)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.Eq); err != nil {
				return nil, err
			}
			srcField, err := p.expect(lexer.Ident)
			if err != nil {
				return nil, err
			}
			stmt.FieldMap = append(stmt.FieldMap, ast.FieldMapping{Dst: dstField.Lexeme, Src: srcField.Lexeme})
			if p.at(lexer.Comma) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// sync <Reader> to <Writer>
func (p *Parser) parseSync() (ast.Statement, error) {
	start := p.advance()
	reader, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.To); err != nil {
		return nil, err
	}
	writer, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	return &ast.SyncStmt{ID: p.id(), Pos_: pos(start), Reader: reader.Lexeme, Writer: writer.Lexeme}, nil
}

// abort <'message'>
func (p *Parser) parseAbort() (ast.Statement, error) {
	start := p.advance()
	msg, err := p.expect(lexer.StringLiteral)
	if err != nil {
		return nil, err
	}
	return &ast.AbortStmt{ID: p.id(), Pos_: pos(start), Message: msg.Lexeme}, nil
}
