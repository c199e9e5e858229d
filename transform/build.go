// Package transform implements the PanSQL Transformation Builder (spec
// §4.4): it lowers each resolved `select` into one or more ir.TransformerIR
// values — a bootstrap load for every Table-declared input seen for the
// first time, followed by the select's own projection/filter/join/
// aggregation transformer.
package transform

import (
	"github.com/carlodf/pansql/ast"
	"github.com/carlodf/pansql/diag"
	"github.com/carlodf/pansql/ir"
	"github.com/carlodf/pansql/sema"
)

// Builder lowers SelectResolutions into TransformerIR, naming every
// transformer from its ir.Counter and bootstrapping each Table-declared
// source at most once.
type Builder struct {
	counter      *ir.Counter
	bootstrapped map[string]bool
}

// NewBuilder returns a Builder driven by counter.
func NewBuilder(counter *ir.Counter) *Builder {
	return &Builder{counter: counter, bootstrapped: make(map[string]bool)}
}

// Build lowers one resolved select into its transformer(s), in emission
// order: bootstraps first (FROM side, then JOIN side), then the select's
// own transformer.
func (b *Builder) Build(res *sema.SelectResolution) ([]ir.TransformerIR, error) {
	var out []ir.TransformerIR

	if res.FromKind == ast.KindTable && !b.bootstrapped[res.Query.From.Name] {
		out = append(out, b.bootstrap(res.Query.From.Name))
		b.bootstrapped[res.Query.From.Name] = true
	}
	if res.Query.Join != nil && !b.bootstrapped[res.Query.Join.Table] {
		out = append(out, b.bootstrap(res.Query.Join.Table))
		b.bootstrapped[res.Query.Join.Table] = true
	}

	main, err := b.buildMain(res)
	if err != nil {
		return nil, err
	}
	out = append(out, main)
	return out, nil
}

func (b *Builder) bootstrap(varName string) ir.TransformerIR {
	return ir.TransformerIR{Name: b.counter.Next("Transformer"), FromVar: varName, Bootstrap: true}
}

func (b *Builder) buildMain(res *sema.SelectResolution) (ir.TransformerIR, error) {
	t := ir.TransformerIR{
		Name:       b.counter.Next("Transformer"),
		FromVar:    res.Query.From.Name,
		IntoStream: res.IntoStream.Name,
	}

	if res.Query.Join != nil {
		jd, err := b.buildJoin(res)
		if err != nil {
			return ir.TransformerIR{}, err
		}
		t.Join = jd
	}

	if res.Query.Where != nil {
		f, err := compileFilter(res.Query.Where, res)
		if err != nil {
			return ir.TransformerIR{}, err
		}
		t.Filter = f
	}

	if res.HasAggregation {
		plan, err := b.buildAggregation(res)
		if err != nil {
			return ir.TransformerIR{}, err
		}
		t.Aggregate = plan
	}

	t.Slots = b.buildSlots(res, t.Aggregate)
	return t, nil
}

func (b *Builder) buildJoin(res *sema.SelectResolution) (*ir.JoinDescriptor, error) {
	jc := res.Query.Join
	var probeCol string
	switch {
	case jc.LeftCol.Qualifier == res.FromAlias || jc.LeftCol.Qualifier == "":
		probeCol = jc.LeftCol.Name
	case jc.RightCol.Qualifier == res.FromAlias || jc.RightCol.Qualifier == "":
		probeCol = jc.RightCol.Name
	default:
		return nil, diag.NewStructuralError("JOIN ON clause does not reference the FROM alias")
	}
	idx := res.FromStream.FieldIndex(probeCol)
	if idx < 0 {
		return nil, diag.NewResolveError(probeCol, "unknown field on "+res.FromStream.Name)
	}

	var keyField string
	switch {
	case jc.RightCol.Qualifier == res.JoinAlias:
		keyField = jc.RightCol.Name
	default:
		keyField = jc.LeftCol.Name
	}
	keyDef, ok := res.JoinStream.Field(keyField)
	if !ok {
		return nil, diag.NewResolveError(keyField, "unknown field on "+res.JoinStream.Name)
	}

	return &ir.JoinDescriptor{
		TableVar:    jc.Table,
		ProbeColumn: idx,
		KeyField:    keyField,
		KeyType:     keyDef.Type,
	}, nil
}

func (b *Builder) buildAggregation(res *sema.SelectResolution) (*ir.AggregationPlan, error) {
	plan := &ir.AggregationPlan{GroupByColumns: res.GroupByIdx}

	idx := 0
	for _, col := range res.Columns {
		if !col.IsAggregate {
			continue
		}
		plan.Aggregators = append(plan.Aggregators, ir.Aggregator{
			Index:      idx,
			Func:       funcKind(col.AggFunc),
			ArgColumn:  col.AggArgIdx,
			ResultType: col.Type,
		})
		idx++
	}

	if res.Query.Having != nil {
		h, err := compileHaving(res.Query.Having, res, plan.Aggregators)
		if err != nil {
			return nil, err
		}
		plan.Having = h
	}
	return plan, nil
}

func funcKind(k ast.FuncKind) ir.AggregatorFunc {
	switch k {
	case ast.FuncMax:
		return ir.AggMax
	case ast.FuncMin:
		return ir.AggMin
	case ast.FuncSum:
		return ir.AggSum
	case ast.FuncAvg:
		return ir.AggAvg
	default:
		return ir.AggCount
	}
}

// buildSlots lowers the select list into projection slots, left to
// right (spec §4.4: "Projection slots — left-to-right over the select
// list"). Aggregator-backed columns are assigned their aggregator's
// declaration-order index as they're encountered.
func (b *Builder) buildSlots(res *sema.SelectResolution, plan *ir.AggregationPlan) []ir.Slot {
	slots := make([]ir.Slot, len(res.Columns))
	aggIdx := 0
	for i, col := range res.Columns {
		switch {
		case col.IsLiteral:
			slots[i] = ir.Slot{Name: col.OutputName, Type: col.Type, Kind: literalSlotKind(col.Literal), Source: -1, Literal: col.Literal.String()}
		case col.IsAggregate:
			slots[i] = ir.Slot{Name: col.OutputName, Type: col.Type, Kind: ir.SlotAggregatorOutput, Source: aggIdx}
			aggIdx++
		case col.FromJoin:
			slots[i] = ir.Slot{Name: col.OutputName, Type: col.Type, Kind: ir.SlotJoinColumn, Source: col.SourceIdx}
		default:
			slots[i] = ir.Slot{Name: col.OutputName, Type: col.Type, Kind: ir.SlotReaderColumn, Source: col.SourceIdx}
		}
	}
	return slots
}

func literalSlotKind(l ast.Literal) ir.SlotKind {
	if l.Kind == ast.LitNull {
		return ir.SlotNull
	}
	return ir.SlotConstLiteral
}
