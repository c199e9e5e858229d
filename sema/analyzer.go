// Package sema implements the PanSQL semantic analyzer (spec §4.3): the
// seven ordered passes that turn a parsed Script into a frozen symbol
// table plus per-select resolutions, ready for the transformation
// builder. Passes consume the AST read-only; resolved annotations live
// in the side tables below, each recording the *ast.SelectStmt it
// annotates, rather than on the tree itself.
package sema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/carlodf/pansql/ast"
	"github.com/carlodf/pansql/dict"
	"github.com/carlodf/pansql/diag"
	"github.com/carlodf/pansql/types"
)

// Loader resolves a Load statement's path to a parsed Dictionary. The
// dictionary file format itself is an external collaborator (spec §1);
// the analyzer only consumes the result.
type Loader func(path string) (*dict.Dictionary, error)

// ColumnAnnotation is the resolved shape of one select-list item (spec
// §4.3 pass 2: "annotated with (ordinalInReader, FieldType)").
type ColumnAnnotation struct {
	OutputName  string
	Type        types.FieldType
	IsLiteral   bool
	Literal     ast.Literal
	FromJoin    bool
	SourceIdx   int // ordinal in the owning stream's Fields, -1 if not applicable
	IsAggregate bool
	AggFunc     ast.FuncKind
	AggArgIdx   int // ordinal of the aggregate argument column, -1 for count(*)
}

// SelectResolution is the frozen per-select side table pass 2 through 7
// build up.
type SelectResolution struct {
	Stmt  *ast.SelectStmt
	Query *ast.Query

	FromAlias  string
	FromStream *dict.StreamDefinition
	FromKind   ast.DeclKind
	FromDict   *dict.Dictionary

	JoinAlias  string
	JoinStream *dict.StreamDefinition
	JoinKind   ast.DeclKind // DeclKind of the JOIN target, validated by checkJoin

	IntoName   string
	IntoStream *dict.StreamDefinition
	IntoDict   *dict.Dictionary

	Columns        []ColumnAnnotation
	HasAggregation bool
	GroupByIdx     []int // FROM-row ordinals named in GROUP BY
}

// Program is the output of a completed analysis: the frozen symbol
// table, one SelectResolution per select statement (in script order),
// and any non-fatal warnings.
type Program struct {
	Symbols  *SymbolTable
	Selects  []*SelectResolution
	Result   Result
	Consumed map[string]bool
}

// Analyzer runs the seven passes over a single Script.
type Analyzer struct {
	load Loader
}

// NewAnalyzer returns an Analyzer that uses load to resolve Load
// statements.
func NewAnalyzer(load Loader) *Analyzer {
	return &Analyzer{load: load}
}

// Analyze runs passes 1-7 over script in order, aborting on the first
// fatal diagnostic (spec §4.1: "compiler aborts on the first fatal").
func (a *Analyzer) Analyze(script *ast.Script) (*Program, error) {
	p := &Program{
		Symbols:  NewSymbolTable(),
		Consumed: make(map[string]bool),
	}

	// Pass 1: resolve declarations.
	if err := a.resolveDeclarations(script, p.Symbols); err != nil {
		return nil, err
	}

	for _, stmt := range script.Statements {
		sel, ok := stmt.(*ast.SelectStmt)
		if !ok {
			continue
		}

		// Pass 2: resolve selects.
		res, err := a.resolveSelect(sel, p.Symbols)
		if err != nil {
			return nil, err
		}

		// Pass 3: single-use check. Only Stream-kind inputs are subject
		// to the rule; Table inputs may be joined against repeatedly.
		if res.FromKind == ast.KindStream {
			if p.Consumed[res.Query.From.Name] {
				return nil, diag.NewStructuralError(fmt.Sprintf("The stream '%s' has already been processed", res.Query.From.Name))
			}
			p.Consumed[res.Query.From.Name] = true
		}

		// Pass 4: join check.
		if err := checkJoin(res); err != nil {
			return nil, err
		}

		// Pass 5: ordering check.
		if len(res.Query.OrderBy) > 0 && res.FromKind == ast.KindStream {
			return nil, diag.NewStructuralError("ORDER BY is not supported for queries involving a STREAM input")
		}

		// Pass 6: projection check.
		if err := a.resolveColumns(sel, res); err != nil {
			return nil, err
		}
		if err := checkProjection(res); err != nil {
			return nil, err
		}

		p.Selects = append(p.Selects, res)
	}

	// Pass 7: map check.
	if err := checkMaps(script, p.Symbols); err != nil {
		return nil, err
	}

	return p, nil
}

// resolveDeclarations is pass 1: Load/Decl/Open populate the symbol
// table; redeclaration of any name is fatal.
func (a *Analyzer) resolveDeclarations(script *ast.Script, syms *SymbolTable) error {
	dicts := make(map[string]*dict.Dictionary)

	for _, stmt := range script.Statements {
		switch s := stmt.(type) {
		case *ast.LoadStmt:
			d, err := a.load(s.DictPath)
			if err != nil {
				return diag.NewIOError(s.DictPath, "failed to load dictionary", err)
			}
			if !syms.Declare(s.Name, &Symbol{Kind: SymDict, Name: s.Name, DictName: d.Name, Dict: d}) {
				return diag.NewResolveError(s.Name, "dictionary name already declared")
			}
			dicts[s.Name] = d

		case *ast.DeclStmt:
			d, ok := dicts[s.Ref.Dict]
			if !ok {
				return diag.NewResolveError(s.Ref.Dict, "dictionary not loaded")
			}
			stream, ok := d.Lookup("", s.Ref.Stream)
			if !ok {
				stream, ok = lookupByName(d, s.Ref.Stream)
			}
			if !ok {
				return diag.NewResolveError(s.Ref.Dict+"."+s.Ref.Stream, "unknown stream in dictionary")
			}
			kind := SymStreamVar
			if s.Kind == ast.KindTable {
				kind = SymTableVar
			}
			sym := &Symbol{Kind: kind, Name: s.Name, DictName: s.Ref.Dict, Dict: d, Stream: stream, DeclKind: s.Kind}
			if !syms.Declare(s.Name, sym) {
				return diag.NewResolveError(s.Name, "name already declared")
			}

		case *ast.OpenStmt:
			d, ok := dicts[s.Ref.Dict]
			if !ok {
				return diag.NewResolveError(s.Ref.Dict, "dictionary not loaded")
			}
			stream, ok := d.Lookup("", s.Ref.Stream)
			if !ok {
				stream, ok = lookupByName(d, s.Ref.Stream)
			}
			if !ok {
				return diag.NewResolveError(s.Ref.Dict+"."+s.Ref.Stream, "unknown stream in dictionary")
			}
			kind := SymReader
			if s.Direction == ast.DirWrite {
				kind = SymWriter
			}
			sym := &Symbol{
				Kind: kind, Name: s.Name, DictName: s.Ref.Dict, Dict: d, Stream: stream,
				Direction: s.Direction, Connector: s.Connector, ConnString: s.ConnString,
			}
			if !syms.Declare(s.Name, sym) {
				return diag.NewResolveError(s.Name, "name already declared")
			}
		}
	}
	return nil
}

// lookupByName falls back to a schema-less name match (most fixture
// dictionaries only populate one schema).
func lookupByName(d *dict.Dictionary, name string) (*dict.StreamDefinition, bool) {
	matches := d.ByName(name)
	if len(matches) == 0 {
		return nil, false
	}
	return matches[0], true
}

// resolveSelect is pass 2's FROM/JOIN/INTO half: bind the query's table
// references against the symbol table.
func (a *Analyzer) resolveSelect(sel *ast.SelectStmt, syms *SymbolTable) (*SelectResolution, error) {
	q := sel.Query
	fromSym, ok := syms.Lookup(q.From.Name)
	if !ok {
		return nil, diag.NewResolveError(q.From.Name, "unknown table or stream")
	}
	if fromSym.Kind != SymStreamVar && fromSym.Kind != SymTableVar {
		return nil, diag.NewResolveError(q.From.Name, "FROM must reference a declared table or stream")
	}
	fromAlias := q.From.Alias
	if fromAlias == "" {
		fromAlias = q.From.Name
	}

	res := &SelectResolution{
		Stmt: sel, Query: q,
		FromAlias: fromAlias, FromStream: fromSym.Stream, FromKind: fromSym.DeclKind, FromDict: fromSym.Dict,
	}

	if q.Join != nil {
		joinSym, ok := syms.Lookup(q.Join.Table)
		if !ok {
			return nil, diag.NewResolveError(q.Join.Table, "unknown table or stream")
		}
		if joinSym.Kind != SymStreamVar && joinSym.Kind != SymTableVar {
			return nil, diag.NewResolveError(q.Join.Table, "JOIN must reference a declared table or stream")
		}
		res.JoinAlias = q.Join.Alias
		res.JoinStream = joinSym.Stream
		res.JoinKind = joinSym.DeclKind // validated by pass 4 (checkJoin)
	}

	intoSym, ok := syms.Lookup(sel.Into)
	if !ok {
		return nil, diag.NewResolveError(sel.Into, "unknown destination table or stream")
	}
	res.IntoName = sel.Into
	res.IntoStream = intoSym.Stream
	res.IntoDict = intoSym.Dict

	return res, nil
}

func checkJoin(res *SelectResolution) error {
	if res.Query.Join == nil {
		return nil
	}
	if res.JoinKind != ast.KindTable {
		return diag.NewStructuralError(fmt.Sprintf("JOIN target %q must be a declared TABLE", res.Query.Join.Table))
	}
	jc := res.Query.Join
	var keyCol string
	switch {
	case jc.RightCol.Qualifier == res.JoinAlias:
		keyCol = jc.RightCol.Name
	case jc.LeftCol.Qualifier == res.JoinAlias:
		keyCol = jc.LeftCol.Name
	default:
		return diag.NewStructuralError(fmt.Sprintf("JOIN ON clause does not reference alias %q", res.JoinAlias))
	}
	if !res.JoinStream.IsPrimaryKey(keyCol) {
		return diag.NewStructuralError(fmt.Sprintf("JOIN equality key %q is not a unique/primary key of %q", keyCol, res.Query.Join.Table))
	}
	return nil
}

// resolveColumns finishes pass 2/6: resolve each select item's
// expression and annotate it with its source slot and FieldType.
func (a *Analyzer) resolveColumns(sel *ast.SelectStmt, res *SelectResolution) error {
	q := sel.Query
	res.Columns = make([]ColumnAnnotation, len(q.Columns))

	for i, item := range q.Columns {
		ann, err := a.resolveOneColumn(item, res)
		if err != nil {
			return err
		}
		if ann.IsAggregate {
			res.HasAggregation = true
		}
		res.Columns[i] = ann
	}

	for _, g := range q.GroupBy {
		idx := res.FromStream.FieldIndex(g)
		if idx < 0 {
			return diag.NewResolveError(g, "unknown GROUP BY field on "+res.FromStream.Name)
		}
		res.GroupByIdx = append(res.GroupByIdx, idx)
		res.HasAggregation = true
	}
	return nil
}

func (a *Analyzer) resolveOneColumn(item ast.SelectItem, res *SelectResolution) (ColumnAnnotation, error) {
	switch e := item.Expr.(type) {
	case ast.Literal:
		ft := literalType(e)
		name := item.Alias
		return ColumnAnnotation{OutputName: name, Type: ft, IsLiteral: true, Literal: e, SourceIdx: -1, AggArgIdx: -1}, nil

	case ast.ColumnRef:
		stream, idx, fromJoin, err := ResolveColumn(e, res.FromAlias, res.FromStream, res.JoinAlias, res.JoinStream)
		if err != nil {
			return ColumnAnnotation{}, err
		}
		name := item.Alias
		if name == "" {
			name = e.Name
		}
		ft := stream.Fields[idx].Type
		return ColumnAnnotation{OutputName: name, Type: ft, FromJoin: fromJoin, SourceIdx: idx, AggArgIdx: -1}, nil

	case ast.FuncCall:
		name := item.Alias
		if name == "" {
			name = e.Kind.String()
		}
		ann := ColumnAnnotation{OutputName: name, IsAggregate: true, AggFunc: e.Kind, SourceIdx: -1, AggArgIdx: -1}
		if e.Star {
			ann.Type = types.FieldType{Tag: types.TagInt64}
			return ann, nil
		}
		colRef, ok := e.Arg.(ast.ColumnRef)
		if !ok {
			return ColumnAnnotation{}, diag.NewResolveError(e.String(), "aggregate argument must be a column reference")
		}
		_, idx, fromJoin, err := ResolveColumn(colRef, res.FromAlias, res.FromStream, res.JoinAlias, res.JoinStream)
		if err != nil {
			return ColumnAnnotation{}, err
		}
		ann.AggArgIdx = idx
		ann.FromJoin = fromJoin
		var argType types.FieldType
		if fromJoin {
			argType = res.JoinStream.Fields[idx].Type
		} else {
			argType = res.FromStream.Fields[idx].Type
		}
		ann.Type = aggregateResultType(e.Kind, argType)
		return ann, nil

	default:
		return ColumnAnnotation{}, diag.NewResolveError(item.Expr.String(), "unsupported select-list expression")
	}
}

func literalType(l ast.Literal) types.FieldType {
	switch l.Kind {
	case ast.LitInt:
		return types.FieldType{Tag: types.TagInt64}
	case ast.LitDecimal:
		return types.FieldType{Tag: types.TagDecimal}
	case ast.LitString:
		return types.FieldType{Tag: types.TagVarChar}
	default: // LitNull: assignable to any nullable destination
		return types.FieldType{Tag: types.TagVarChar, Nullable: true}
	}
}

func aggregateResultType(fn ast.FuncKind, arg types.FieldType) types.FieldType {
	switch fn {
	case ast.FuncCount:
		return types.FieldType{Tag: types.TagInt64}
	case ast.FuncAvg:
		return types.FieldType{Tag: types.TagDecimal}
	default: // Max, Min, Sum preserve the argument's tag
		return types.FieldType{Tag: arg.Tag, Nullable: arg.Nullable}
	}
}

// checkProjection is pass 6: validate the resolved column list against
// the destination StreamDefinition (arity is not required to match;
// every destination field not covered must be nullable).
func checkProjection(res *SelectResolution) error {
	covered := make(map[string]bool, len(res.Columns))
	for _, c := range res.Columns {
		if c.OutputName == "" {
			return diag.NewTypeError(res.IntoStream.Name, "projected column has no name; provide an alias")
		}
		if covered[strings.ToLower(c.OutputName)] {
			return diag.NewTypeError(res.IntoStream.Name, "duplicate projected column "+c.OutputName)
		}
		covered[strings.ToLower(c.OutputName)] = true

		var dstField dict.FieldDefinition
		ok := false
		for _, f := range res.IntoStream.Fields {
			if strings.EqualFold(f.Name, c.OutputName) {
				dstField, ok = f, true
				break
			}
		}
		if !ok {
			return diag.NewResolveError(c.OutputName, "unknown field on "+res.IntoStream.Name)
		}
		if !c.Type.AssignableTo(dstField.Type) {
			return diag.NewTypeError(res.IntoStream.Name, fmt.Sprintf("field %q: %s is not assignable to %s", c.OutputName, c.Type.Tag, dstField.Type.Tag))
		}
	}

	var missing []string
	for _, f := range res.IntoStream.Fields {
		if f.Type.Nullable {
			continue
		}
		if !covered[strings.ToLower(f.Name)] {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return diag.NewTypeError(res.IntoStream.Name, fmt.Sprintf("The following field(s) on %s are not nullable, but are not assigned a value: %s", res.IntoStream.Name, strings.Join(missing, ", ")))
	}
	return nil
}

// checkMaps is pass 7: field rename sets target declared fields; left
// side is destination, right side is source. Duplicate map or unknown
// field is fatal.
func checkMaps(script *ast.Script, syms *SymbolTable) error {
	seen := make(map[string]bool)
	for _, stmt := range script.Statements {
		m, ok := stmt.(*ast.MapStmt)
		if !ok {
			continue
		}
		key := strings.ToLower(m.Src) + "->" + strings.ToLower(m.Dst)
		if seen[key] {
			return diag.NewStructuralError(fmt.Sprintf("duplicate map from %q to %q", m.Src, m.Dst))
		}
		seen[key] = true

		srcSym, ok := syms.Lookup(m.Src)
		if !ok {
			return diag.NewResolveError(m.Src, "unknown map source")
		}
		dstSym, ok := syms.Lookup(m.Dst)
		if !ok {
			return diag.NewResolveError(m.Dst, "unknown map destination")
		}

		dstFields := make(map[string]bool)
		for _, fm := range m.FieldMap {
			k := strings.ToLower(fm.Dst)
			if dstFields[k] {
				return diag.NewStructuralError(fmt.Sprintf("duplicate field map target %q in map %s -> %s", fm.Dst, m.Src, m.Dst))
			}
			dstFields[k] = true
			if _, ok := dstSym.Stream.Field(fm.Dst); !ok {
				return diag.NewResolveError(fm.Dst, "unknown field on "+dstSym.Stream.Name)
			}
			if _, ok := srcSym.Stream.Field(fm.Src); !ok {
				return diag.NewResolveError(fm.Src, "unknown field on "+srcSym.Stream.Name)
			}
		}
	}
	return nil
}
