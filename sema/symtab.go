package sema

import (
	"strings"

	"github.com/carlodf/pansql/ast"
	"github.com/carlodf/pansql/dict"
)

// SymbolKind enumerates what a bound identifier refers to.
type SymbolKind int

const (
	SymDict SymbolKind = iota
	SymStreamVar
	SymTableVar
	SymReader
	SymWriter
)

// Symbol is a resolved binding: name -> (kind, origin dictionary, stream).
type Symbol struct {
	Kind       SymbolKind
	Name       string
	DictName   string
	Dict       *dict.Dictionary
	Stream     *dict.StreamDefinition
	DeclKind   ast.DeclKind // meaningful for SymStreamVar/SymTableVar
	Direction  ast.Direction // meaningful for SymReader/SymWriter
	Connector  string
	ConnString string
}

// SymbolTable maps bound identifiers to their resolved Symbol. Top-level
// identifiers are case-insensitive (spec §9 Open Question); lookups fold
// to lower-case internally while Symbol.Name preserves the source
// spelling.
type SymbolTable struct {
	entries map[string]*Symbol
}

// NewSymbolTable returns an empty SymbolTable.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{entries: make(map[string]*Symbol)}
}

func foldKey(name string) string { return strings.ToLower(name) }

// Lookup resolves name, folding case.
func (t *SymbolTable) Lookup(name string) (*Symbol, bool) {
	s, ok := t.entries[foldKey(name)]
	return s, ok
}

// Declare binds name to sym. It returns false if name is already bound
// (the caller turns this into a duplicate-declaration fatal error).
func (t *SymbolTable) Declare(name string, sym *Symbol) bool {
	k := foldKey(name)
	if _, exists := t.entries[k]; exists {
		return false
	}
	t.entries[k] = sym
	return true
}

// Names returns every bound identifier, in no particular order.
func (t *SymbolTable) Names() []string {
	out := make([]string, 0, len(t.entries))
	for _, s := range t.entries {
		out = append(out, s.Name)
	}
	return out
}
