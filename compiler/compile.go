// Package compiler wires the parser, semantic analyzer, transformation
// builder, linker, and emitter into the single-script and multi-script
// compile entry points the CLI calls (spec §6): parse, analyze, lower
// every select into IR, link maps, and render program.go plus its
// manifests.
package compiler

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/carlodf/pansql/ast"
	"github.com/carlodf/pansql/dict"
	"github.com/carlodf/pansql/diag"
	"github.com/carlodf/pansql/emit"
	"github.com/carlodf/pansql/ir"
	"github.com/carlodf/pansql/link"
	"github.com/carlodf/pansql/parser"
	"github.com/carlodf/pansql/sema"
	"github.com/carlodf/pansql/transform"
)

// Script is one PanSQL source file and the name its emitted program is
// filed under.
type Script struct {
	Name   string
	Source string
}

// Options configures a Compile/CompileFiles call: how Load statements
// resolve a dictionary path, the input/output dictionaries the emitted
// program embeds, and the Go package/output directory its source lands
// in.
type Options struct {
	Load       sema.Loader
	InputDict  *dict.Dictionary
	OutputDict *dict.Dictionary
	OutDir     string
	Package    string
}

// Compile runs the full pipeline over a single script: parse, analyze,
// lower every select, link maps, and emit program.go plus its manifests
// into opts.OutDir. A fresh ir.Counter numbers the script's transformers,
// so output is byte-stable across repeated runs of the same script (spec
// §9 Design Notes). Every error it returns is a *diag.CompilerError
// wrapping the typed diagnostic that caused the abort.
func Compile(script Script, opts Options) error {
	if err := mustNotNil(opts); err != nil {
		return diag.NewCompilerError(script.Name, err)
	}

	tree, err := parser.Parse(script.Source)
	if err != nil {
		return diag.NewCompilerError(script.Name, fmt.Errorf("parse: %w", err))
	}

	analyzer := sema.NewAnalyzer(opts.Load)
	prog, err := analyzer.Analyze(tree)
	if err != nil {
		return diag.NewCompilerError(script.Name, fmt.Errorf("analyze: %w", err))
	}

	counter := &ir.Counter{}
	builder := transform.NewBuilder(counter)

	var transformers []ir.TransformerIR
	for _, res := range prog.Selects {
		trs, err := builder.Build(res)
		if err != nil {
			return diag.NewCompilerError(script.Name, fmt.Errorf("lower: %w", err))
		}
		transformers = append(transformers, trs...)
	}

	maps, warnings := link.Link(prog.Symbols, tree, prog.Selects, opts.InputDict, opts.OutputDict)

	program := &ir.ProgramIR{
		ScriptName:   script.Name,
		Transformers: transformers,
		Opens:        collectOpens(tree, prog.Symbols),
		Maps:         maps,
		Syncs:        collectSyncs(tree),
		Warnings:     warnings,
	}

	gen := emit.NewGenerator(program, opts.InputDict, opts.OutputDict, opts.OutDir, opts.Package)
	if err := gen.Generate(); err != nil {
		return diag.NewCompilerError(script.Name, fmt.Errorf("emit: %w", err))
	}
	return nil
}

// CompileFiles runs Compile over every script concurrently, the way the
// teacher's JenniferGenerator fans its per-entity file writes out across
// an errgroup (compiler/gen/generate.go's Generate). Each script is
// independent: its own parse, its own IR counter, its own output
// directory under opts.OutDir/<name>. A failing script does not cancel
// the others: every started Compile runs to completion, and the first
// error is returned.
func CompileFiles(ctx context.Context, scripts []Script, opts Options, workers int) error {
	errg, _ := errgroup.WithContext(ctx)
	if workers > 0 {
		errg.SetLimit(workers)
	}
	for _, s := range scripts {
		s := s
		errg.Go(func() error {
			scriptOpts := opts
			scriptOpts.OutDir = opts.OutDir + "/" + s.Name
			return Compile(s, scriptOpts)
		})
	}
	return errg.Wait()
}

// collectOpens walks the script's Open statements, pulling the resolved
// connector/stream details back out of the symbol table pass 1 already
// populated.
func collectOpens(script *ast.Script, syms *sema.SymbolTable) []ir.OpenEntry {
	var out []ir.OpenEntry
	for _, stmt := range script.Statements {
		o, ok := stmt.(*ast.OpenStmt)
		if !ok {
			continue
		}
		sym, ok := syms.Lookup(o.Name)
		if !ok {
			continue
		}
		streamName := o.Ref.Stream
		if sym.Stream != nil {
			streamName = sym.Stream.Name
		}
		out = append(out, ir.OpenEntry{
			Name:       o.Name,
			Connector:  o.Connector,
			IsWriter:   o.Direction == ast.DirWrite,
			DictName:   o.Ref.Dict,
			StreamName: streamName,
			ConnString: o.ConnString,
		})
	}
	return out
}

// collectSyncs walks the script's Sync statements in source order.
func collectSyncs(script *ast.Script) []ir.SyncEdge {
	var out []ir.SyncEdge
	for _, stmt := range script.Statements {
		s, ok := stmt.(*ast.SyncStmt)
		if !ok {
			continue
		}
		out = append(out, ir.SyncEdge{Reader: s.Reader, Writer: s.Writer})
	}
	return out
}

// mustNotNil guards against a programmer error (missing Options field)
// surfacing as a nil-pointer panic deep inside the emitter instead of a
// clear structural diagnostic.
func mustNotNil(opts Options) error {
	if opts.InputDict == nil || opts.OutputDict == nil {
		return diag.NewStructuralError("compiler: Options.InputDict and OutputDict are required")
	}
	if opts.Load == nil {
		return diag.NewStructuralError("compiler: Options.Load is required")
	}
	return nil
}
