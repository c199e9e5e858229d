// Package link implements the PanSQL Linker & Auto-mapper (spec §4.5)
// and the Multi-Script Network Pass (spec §4.6): whole-program concerns
// the per-script sema/transform passes never see.
package link

import (
	"fmt"
	"sort"

	"github.com/carlodf/pansql/ast"
	"github.com/carlodf/pansql/dict"
	"github.com/carlodf/pansql/ir"
	"github.com/carlodf/pansql/sema"
)

// CollectMaps gathers explicit `map` statements and select-implied maps
// (`from X into Y` implies `X.stream -> Y.stream`), explicit maps taking
// precedence over an implied map for the same source (spec §4.5).
func CollectMaps(script *ast.Script, selects []*sema.SelectResolution) []ir.MapEntry {
	var out []ir.MapEntry
	seen := make(map[string]bool)

	for _, stmt := range script.Statements {
		m, ok := stmt.(*ast.MapStmt)
		if !ok {
			continue
		}
		var fieldMap map[string]string
		if len(m.FieldMap) > 0 {
			fieldMap = make(map[string]string, len(m.FieldMap))
			for _, fm := range m.FieldMap {
				fieldMap[fm.Dst] = fm.Src
			}
		}
		out = append(out, ir.MapEntry{Src: m.Src, Dst: m.Dst, FieldMap: fieldMap})
		seen[m.Src] = true
	}

	for _, res := range selects {
		if seen[res.Query.From.Name] {
			continue
		}
		out = append(out, ir.MapEntry{Src: res.Query.From.Name, Dst: res.IntoName})
		seen[res.Query.From.Name] = true
	}
	return out
}

// AutoMap implements the auto-mapper half of §4.5: every input-dictionary
// stream not already handled, and not backing a Table-declared variable
// in this script, is matched by name against the output dictionary. A
// field-compatible match becomes an identity pass-through; otherwise a
// warning is returned instead of a fatal.
func AutoMap(syms *sema.SymbolTable, handled map[string]bool, inputDict, outputDict *dict.Dictionary) (entries []ir.MapEntry, warnings []string) {
	tableStreams := make(map[string]bool)
	for _, name := range syms.Names() {
		sym, ok := syms.Lookup(name)
		if ok && sym.Kind == sema.SymTableVar && sym.Stream != nil {
			tableStreams[sym.Stream.Name] = true
		}
	}

	byName := make(map[string]*dict.StreamDefinition)
	var names []string
	for _, s := range inputDict.Streams {
		if _, ok := byName[s.Name]; !ok {
			names = append(names, s.Name)
		}
		byName[s.Name] = s
	}
	sort.Strings(names)

	for _, name := range names {
		if handled[name] || tableStreams[name] {
			continue
		}

		candidates := outputDict.ByName(name)
		if len(candidates) == 0 {
			warnings = append(warnings, fmt.Sprintf("no auto-map target found for input stream %q", name))
			continue
		}
		dst := candidates[0]
		src := byName[name]
		if !fieldsCompatible(src, dst) {
			warnings = append(warnings, fmt.Sprintf("auto-map candidate %q is not field-compatible with output stream %q", name, dst.Name))
			continue
		}
		entries = append(entries, ir.MapEntry{Src: name, Dst: dst.Name, AutoMapped: true})
	}
	return entries, warnings
}

// fieldsCompatible reports whether every non-nullable destination field
// has an assignable same-named source field (an identity pass-through
// requires no explicit field renaming, spec §4.5).
func fieldsCompatible(src, dst *dict.StreamDefinition) bool {
	for _, df := range dst.Fields {
		sf, ok := src.Field(df.Name)
		if !ok {
			if !df.Type.Nullable {
				return false
			}
			continue
		}
		if !sf.Type.AssignableTo(df.Type) {
			return false
		}
	}
	return true
}

// Link runs the full linker pass: collect explicit/implied maps, then
// auto-map whatever input streams remain, returning the ordered
// registration list the emitter renders plus any warnings.
func Link(syms *sema.SymbolTable, script *ast.Script, selects []*sema.SelectResolution, inputDict, outputDict *dict.Dictionary) ([]ir.MapEntry, []string) {
	explicit := CollectMaps(script, selects)
	handled := make(map[string]bool, len(explicit))
	for _, e := range explicit {
		handled[e.Src] = true
	}
	auto, warnings := AutoMap(syms, handled, inputDict, outputDict)
	return append(explicit, auto...), warnings
}
