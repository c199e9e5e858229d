// Package ir defines the Transformer IR and Program IR (spec §3, §4.4):
// pre-resolved, codegen-ready data the emitter walks without ever
// touching the AST or symbol table again. Each field here already
// carries what the emitter needs to pick an accessor/constructor — the
// same shape the teacher's compiler/gen package keeps for entity fields.
package ir

import (
	"fmt"

	"github.com/carlodf/pansql/types"
)

// Counter is a monotonically increasing sequence for numbered
// identifiers of the form prefix__N. compiler.Compile gives one fresh
// Counter to transform.Builder, which names `Transformer__N` from it;
// link.Resolve takes a Counter for its `filename__N` handoff names. The
// emitter does not use a Counter: reader/writer locals are named after
// their Open statements, and aggregators are addressed by index.
type Counter struct{ n int }

// Next returns the next name in the prefix__N sequence.
func (c *Counter) Next(prefix string) string {
	c.n++
	return fmt.Sprintf("%s__%d", prefix, c.n)
}

// SlotKind distinguishes where a projection slot's value comes from.
type SlotKind int

const (
	SlotReaderColumn SlotKind = iota
	SlotJoinColumn
	SlotConstLiteral
	SlotNull
	SlotAggregatorOutput
)

// Slot is one output-row position: (name, type, source).
type Slot struct {
	Name   string
	Type   types.FieldType
	Kind   SlotKind
	Source int // reader/join column ordinal, or aggregator index; -1 if n/a
	// Literal carries the constant's rendered value when Kind is
	// SlotConstLiteral (e.g. "10", "'x'"); unused otherwise.
	Literal string
}

// FilterOp mirrors ast.BinOp for the subset the transformer evaluates at
// runtime (comparisons plus AND/OR/NOT composition).
type FilterOp int

const (
	FilterEq FilterOp = iota
	FilterNeq
	FilterLt
	FilterLte
	FilterGt
	FilterGte
	FilterAnd
	FilterOr
	FilterNot
)

// FilterOperandKind distinguishes a filter leaf's value source.
type FilterOperandKind int

const (
	OperandReaderColumn FilterOperandKind = iota
	OperandJoinColumn
	OperandLiteral
	OperandAggregatorOutput
)

// FilterOperand is a leaf value in a filter expression tree.
type FilterOperand struct {
	Kind       FilterOperandKind
	Column     int // reader/join ordinal, when Kind is *Column
	Aggregator int // aggregator index, when Kind is OperandAggregatorOutput
	Type       types.FieldType
	Literal    string // rendered literal value, when Kind is OperandLiteral
}

// FilterExpr is the predicate tree compiled from a WHERE/HAVING clause.
// A node is either a leaf comparison (Left/Right/Op set, Children nil)
// or a boolean combinator (Op is FilterAnd/FilterOr/FilterNot, Children
// set).
type FilterExpr struct {
	Op       FilterOp
	Left     *FilterOperand
	Right    *FilterOperand
	Children []*FilterExpr
}

// JoinDescriptor is a pre-built unique-index probe: for each input row,
// look up the joined table by ProbeColumn; miss skips the row (inner
// join, the grammar's only policy — spec §9 Open Question).
type JoinDescriptor struct {
	TableVar    string
	ProbeColumn int // ordinal on the FROM side
	KeyField    string
	KeyType     types.FieldType
}

// AggregatorFunc mirrors ast.FuncKind for the aggregate this Aggregator
// computes.
type AggregatorFunc int

const (
	AggMax AggregatorFunc = iota
	AggMin
	AggSum
	AggCount
	AggAvg
)

// Aggregator is one aggregate function over the grouped stream,
// numbered in declaration order (spec §4.4: "aggregators are numbered
// in declaration order").
type Aggregator struct {
	Index     int
	Func      AggregatorFunc
	ArgColumn int // ordinal of the argument column; -1 for count(*)
	ArgType   types.FieldType
	ResultType types.FieldType
}

// AggregationPlan describes a GROUP BY over zero or more Aggregators,
// plus the optional post-aggregation HAVING filter.
type AggregationPlan struct {
	GroupByColumns []int // ordinals on the FROM side
	Aggregators    []Aggregator
	Having         *FilterExpr
}

// TransformerIR is one lowered `select` (spec §4.4). Name is the
// monotonically-numbered identifier the emitter assigns
// (`Transformer__N`).
type TransformerIR struct {
	Name string

	FromVar string

	// Bootstrap marks a transformer that only loads FromVar's rows into
	// its in-memory table for later join access; it yields no output
	// rows and every field below but FromVar/Name is unused (spec §4.4:
	// "Table-declared inputs produce a bootstrap transformer").
	Bootstrap bool

	Join       *JoinDescriptor
	Filter     *FilterExpr
	Aggregate  *AggregationPlan
	Slots      []Slot
	IntoStream string
}

// OpenEntry is a resolved reader/writer endpoint, ready for the
// project/connectors manifests.
type OpenEntry struct {
	Name       string
	Connector  string
	IsWriter   bool
	DictName   string
	StreamName string
	ConnString string
}

// MapEntry is a resolved stream-rename registration (explicit Map
// statement, select-implied map, or linker auto-map).
type MapEntry struct {
	Src        string
	Dst        string
	FieldMap   map[string]string // Dst field -> Src field, empty if identity
	AutoMapped bool
}

// SyncEdge connects a named reader to a named writer.
type SyncEdge struct {
	Reader string
	Writer string
}

// ProgramIR is the whole-script output the emitter renders: every
// transformer, open endpoint, map registration, and sync edge, plus the
// dictionaries to embed.
type ProgramIR struct {
	ScriptName   string
	Transformers []TransformerIR
	Opens        []OpenEntry
	Maps         []MapEntry
	Syncs        []SyncEdge
	Warnings     []string
}
