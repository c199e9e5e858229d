package emit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dave/jennifer/jen"

	"github.com/carlodf/pansql/dict"
	"github.com/carlodf/pansql/ir"
	"github.com/carlodf/pansql/types"
)

// runtimePkg is the import path the emitted program's Transformer/Reader/
// Writer/Row vocabulary comes from. It ships alongside this compiler as a
// small support library, the way velox's generated code imports its own
// "runtime" subpackage (compiler/gen/generate.go's GenRuntime).
const runtimePkg = "github.com/carlodf/pansql/runtime"

// Generator renders a ProgramIR into Go source and its accompanying
// manifests. It mirrors the teacher's JenniferGenerator: a small
// builder-configured struct whose Generate method walks a fixed IR and
// streams files to outDir (compiler/gen/generate.go).
type Generator struct {
	outDir  string
	pkg     string
	program *ir.ProgramIR
	input   *dict.Dictionary
	output  *dict.Dictionary
}

// NewGenerator returns a Generator for program, writing package pkg's
// source into outDir.
func NewGenerator(program *ir.ProgramIR, input, output *dict.Dictionary, outDir, pkg string) *Generator {
	return &Generator{outDir: outDir, pkg: pkg, program: program, input: input, output: output}
}

// Generate renders program.go, the project manifest, and the connectors
// manifest into g.outDir.
func (g *Generator) Generate() error {
	f, err := g.renderProgram()
	if err != nil {
		return err
	}
	if err := g.writeFile(f, "program.go"); err != nil {
		return err
	}
	if err := g.writeManifests(); err != nil {
		return err
	}
	return nil
}

// newFile mirrors the teacher's newFile: a fresh jen.File stamped with a
// generated-code header (compiler/gen/generate.go's newFile).
func (g *Generator) newFile() *jen.File {
	f := jen.NewFile(g.pkg)
	f.HeaderComment("Code generated by pansqlc. DO NOT EDIT.")
	return f
}

// writeFile renders f to outDir/filename, creating outDir if needed
// (compiler/gen/generate.go's writeFile, minus the subdir parameter: the
// emitter here always writes a flat package directory).
func (g *Generator) writeFile(f *jen.File, filename string) error {
	if err := os.MkdirAll(g.outDir, 0o755); err != nil {
		return fmt.Errorf("emit: mkdir %s: %w", g.outDir, err)
	}
	out, err := os.Create(filepath.Join(g.outDir, filename))
	if err != nil {
		return fmt.Errorf("emit: create %s: %w", filename, err)
	}
	defer out.Close()
	if err := f.Render(out); err != nil {
		return fmt.Errorf("emit: render %s: %w", filename, err)
	}
	return nil
}

// renderProgram builds program.go: the dictionary blobs, one method per
// TransformerIR, the map/open registrations, and a main() that wires
// readers through transformers to writers.
func (g *Generator) renderProgram() (*jen.File, error) {
	f := g.newFile()

	inBlob, err := g.input.Compress()
	if err != nil {
		return nil, fmt.Errorf("emit: compress input dictionary: %w", err)
	}
	outBlob, err := g.output.Compress()
	if err != nil {
		return nil, fmt.Errorf("emit: compress output dictionary: %w", err)
	}
	f.Const().Defs(
		jen.Id("inputDictionary").Op("=").Lit(inBlob),
		jen.Id("outputDictionary").Op("=").Lit(outBlob),
	)

	progType := exportedName(g.program.ScriptName) + "Program"

	f.Type().Id(progType).Struct(
		jen.Id("rt").Op("*").Qual(runtimePkg, "Runtime"),
	)

	for _, tr := range g.program.Transformers {
		f.Add(g.renderTransformer(progType, tr))
	}

	f.Add(g.renderMain(progType))

	return f, nil
}

// renderTransformer emits one Transformer__N method. A Bootstrap
// transformer only loads its FromVar table; a real transformer reads
// rows, applies Join/Filter/Aggregate, and writes Slots into IntoStream
// (spec §4.4, §4.7).
func (g *Generator) renderTransformer(progType string, tr ir.TransformerIR) jen.Code {
	recv := jen.Id("p").Op("*").Id(progType)
	sig := jen.Params(jen.Id("row").Op("*").Qual(runtimePkg, "Row")).Error()

	if tr.Bootstrap {
		body := jen.Return(jen.Id("p").Dot("rt").Dot("LoadTable").Call(jen.Lit(tr.FromVar), jen.Id("row")))
		return transformerComment(tr, "bootstraps "+tr.FromVar+" into its in-memory table for later joins").
			Add(jen.Func().Add(recv).Id(tr.Name).Add(sig).Block(body))
	}

	var stmts []jen.Code
	if tr.Join != nil {
		stmts = append(stmts, jen.List(jen.Id("joined"), jen.Id("ok")).Op(":=").Id("p").Dot("rt").Dot("ProbeUnique").Call(
			jen.Lit(tr.Join.TableVar), valueOfAccessor("row", tr.Join.KeyType, tr.Join.ProbeColumn),
		))
		stmts = append(stmts, jen.If(jen.Op("!").Id("ok")).Block(jen.Return(jen.Nil())))
	}
	if tr.Filter != nil {
		stmts = append(stmts, jen.If(jen.Op("!").Add(renderFilter(tr.Filter))).Block(jen.Return(jen.Nil())))
	}
	if tr.Aggregate != nil {
		stmts = append(stmts, jen.Return(jen.Id("p").Dot("rt").Dot("Accumulate").Call(
			jen.Lit(tr.Name), jen.Id("row"), renderAggregationPlan(tr.Aggregate),
		)))
	} else {
		stmts = append(stmts, jen.Return(jen.Id("p").Dot("rt").Dot("Emit").Call(
			jen.Lit(tr.IntoStream), renderSlots(tr.Slots),
		)))
	}

	return transformerComment(tr, "lowered from a select targeting "+tr.IntoStream).
		Add(jen.Func().Add(recv).Id(tr.Name).Add(sig).Block(stmts...))
}

func transformerComment(tr ir.TransformerIR, text string) *jen.Statement {
	return jen.Comment(tr.Name + " " + text).Line()
}

func renderSlots(slots []ir.Slot) jen.Code {
	items := make([]jen.Code, 0, len(slots))
	for _, s := range slots {
		items = append(items, renderSlot(s))
	}
	return jen.Index().Qual(runtimePkg, "Value").Values(items...)
}

func renderSlot(s ir.Slot) jen.Code {
	switch s.Kind {
	case ir.SlotReaderColumn:
		return valueOfAccessor("row", s.Type, s.Source)
	case ir.SlotJoinColumn:
		return valueOfAccessor("joined", s.Type, s.Source)
	case ir.SlotConstLiteral:
		return jen.Qual(runtimePkg, "Literal").Call(jen.Lit(s.Literal))
	case ir.SlotNull:
		return jen.Qual(runtimePkg, "Null").Call()
	case ir.SlotAggregatorOutput:
		return jen.Id("agg").Dot("Out").Call(jen.Lit(s.Source))
	default:
		return jen.Qual(runtimePkg, "Null").Call()
	}
}

// valueOfAccessor renders `runtime.ValueOf(<recv>.<accessor>(col))`, the
// typed reader-accessor call a ReaderColumn/JoinColumn slot or operand
// picks by field tag (spec §4.4: "the appropriate reader accessor").
func valueOfAccessor(recv string, t types.FieldType, col int) jen.Code {
	return jen.Qual(runtimePkg, "ValueOf").Call(jen.Id(recv).Dot(accessor(t)).Call(jen.Lit(col)))
}

func renderAggregationPlan(plan *ir.AggregationPlan) jen.Code {
	groupBy := make([]jen.Code, 0, len(plan.GroupByColumns))
	for _, c := range plan.GroupByColumns {
		groupBy = append(groupBy, jen.Lit(c))
	}
	aggs := make([]jen.Code, 0, len(plan.Aggregators))
	for _, a := range plan.Aggregators {
		aggs = append(aggs, jen.Qual(runtimePkg, "AggSpec").Values(jen.Dict{
			jen.Id("Func"):      jen.Lit(aggFuncName(a.Func)),
			jen.Id("ArgColumn"): jen.Lit(a.ArgColumn),
		}))
	}
	return jen.Qual(runtimePkg, "AggregationPlan").Values(jen.Dict{
		jen.Id("GroupBy"):    jen.Index().Int().Values(groupBy...),
		jen.Id("Aggregators"): jen.Index().Qual(runtimePkg, "AggSpec").Values(aggs...),
	})
}

func aggFuncName(f ir.AggregatorFunc) string {
	switch f {
	case ir.AggMax:
		return "max"
	case ir.AggMin:
		return "min"
	case ir.AggSum:
		return "sum"
	case ir.AggCount:
		return "count"
	case ir.AggAvg:
		return "avg"
	default:
		return "unknown"
	}
}

func renderFilter(e *ir.FilterExpr) jen.Code {
	switch e.Op {
	case ir.FilterAnd, ir.FilterOr:
		parts := make([]jen.Code, 0, len(e.Children))
		for _, c := range e.Children {
			parts = append(parts, jen.Parens(renderFilter(c)))
		}
		op := " && "
		if e.Op == ir.FilterOr {
			op = " || "
		}
		return joinBool(parts, op)
	case ir.FilterNot:
		return jen.Op("!").Parens(renderFilter(e.Children[0]))
	default:
		return jen.Qual(runtimePkg, "Compare").Call(
			jen.Lit(comparisonOpName(e.Op)), renderOperand(e.Left), renderOperand(e.Right),
		)
	}
}

func joinBool(parts []jen.Code, op string) jen.Code {
	if len(parts) == 0 {
		return jen.Lit(true)
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out = jen.Add(out).Op(op).Add(p)
	}
	return out
}

func comparisonOpName(op ir.FilterOp) string {
	switch op {
	case ir.FilterEq:
		return "eq"
	case ir.FilterNeq:
		return "neq"
	case ir.FilterLt:
		return "lt"
	case ir.FilterLte:
		return "lte"
	case ir.FilterGt:
		return "gt"
	case ir.FilterGte:
		return "gte"
	default:
		return "eq"
	}
}

func renderOperand(op *ir.FilterOperand) jen.Code {
	switch op.Kind {
	case ir.OperandReaderColumn:
		return valueOfAccessor("row", op.Type, op.Column)
	case ir.OperandJoinColumn:
		return valueOfAccessor("joined", op.Type, op.Column)
	case ir.OperandAggregatorOutput:
		return jen.Id("agg").Dot("Out").Call(jen.Lit(op.Aggregator))
	default:
		return jen.Qual(runtimePkg, "Literal").Call(jen.Lit(op.Literal))
	}
}

// renderFinalize builds the closure RegisterFinalize attaches to an
// aggregating transformer: walk its finished GROUP BY buckets in
// deterministic order, drop any that fail HAVING, and Emit the rest. It
// reuses renderFilter/renderSlots unchanged by binding the same "row" and
// "agg" names a live row's Transformer__N method uses, since a Group's
// synthetic Row and AggResult answer the identical accessor calls.
func renderFinalize(tr ir.TransformerIR) jen.Code {
	loopBody := []jen.Code{
		jen.Id("row").Op(":=").Id("grp").Dot("Row").Call(),
		jen.Id("agg").Op(":=").Id("grp").Dot("Agg").Call(),
	}
	if tr.Aggregate.Having != nil {
		loopBody = append(loopBody, jen.If(jen.Op("!").Add(renderFilter(tr.Aggregate.Having))).Block(jen.Continue()))
	}
	loopBody = append(loopBody, jen.If(
		jen.Id("err").Op(":=").Id("p").Dot("rt").Dot("Emit").Call(jen.Lit(tr.IntoStream), renderSlots(tr.Slots)),
		jen.Id("err").Op("!=").Nil(),
	).Block(jen.Return(jen.Id("err"))))

	body := []jen.Code{
		jen.For(jen.List(jen.Id("_"), jen.Id("grp")).Op(":=").Range().Id("p").Dot("rt").Dot("Groups").Call(jen.Lit(tr.Name))).Block(loopBody...),
		jen.Return(jen.Nil()),
	}
	return jen.Func().Params().Error().Block(body...)
}

// renderMain builds a main() that opens every endpoint, registers every
// map, and wires each SyncEdge's reader through the program's
// transformers to its writer (spec §4.6, §4.7).
func (g *Generator) renderMain(progType string) jen.Code {
	var body []jen.Code
	body = append(body, jen.Id("rt").Op(":=").Qual(runtimePkg, "New").Call(jen.Id("inputDictionary"), jen.Id("outputDictionary")))
	body = append(body, jen.Id("p").Op(":=").Op("&").Id(progType).Values(jen.Dict{jen.Id("rt"): jen.Id("rt")}))

	for _, o := range g.program.Opens {
		varName := readerVar(o.Name)
		method := "OpenReader"
		if o.IsWriter {
			varName = writerVar(o.Name)
			method = "OpenWriter"
		}
		body = append(body, jen.List(jen.Id(varName), jen.Id("err")).Op(":=").Id("rt").Dot(method).Call(
			jen.Lit(o.Connector), jen.Lit(o.ConnString), jen.Lit(o.StreamName),
		))
		body = append(body, jen.If(jen.Id("err").Op("!=").Nil()).Block(jen.Qual("log", "Fatal").Call(jen.Id("err"))))
	}

	for _, m := range g.program.Maps {
		fieldMap := jen.Dict{}
		for dst, src := range m.FieldMap {
			fieldMap[jen.Lit(dst)] = jen.Lit(src)
		}
		body = append(body, jen.Id("rt").Dot("RegisterMap").Call(jen.Lit(m.Src), jen.Lit(m.Dst), jen.Map(jen.String()).String().Values(fieldMap)))
	}

	for _, w := range g.program.Warnings {
		body = append(body, jen.Qual("log", "Println").Call(jen.Lit("pansql: "+w)))
	}

	for _, tr := range g.program.Transformers {
		if tr.Bootstrap {
			continue
		}
		body = append(body, jen.Id("rt").Dot("RegisterTransformer").Call(jen.Lit(tr.Name), jen.Id("p").Dot(tr.Name)))
	}
	for _, tr := range g.program.Transformers {
		if !tr.Bootstrap {
			continue
		}
		body = append(body, jen.Id("rt").Dot("RegisterTransformer").Call(jen.Lit(tr.Name), jen.Id("p").Dot(tr.Name)))
	}

	for _, tr := range g.program.Transformers {
		if tr.Bootstrap || tr.Aggregate == nil {
			continue
		}
		body = append(body, jen.Id("rt").Dot("RegisterFinalize").Call(jen.Lit(tr.Name), renderFinalize(tr)))
	}

	for _, s := range g.program.Syncs {
		body = append(body, jen.If(
			jen.Id("err").Op(":=").Id("rt").Dot("Sync").Call(jen.Id(readerVar(s.Reader)), jen.Id(writerVar(s.Writer))),
			jen.Id("err").Op("!=").Nil(),
		).Block(jen.Qual("log", "Fatal").Call(jen.Id("err"))))
	}

	return jen.Line().Func().Id("main").Params().Block(body...)
}
