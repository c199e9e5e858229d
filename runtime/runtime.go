package runtime

import (
	"fmt"
	"sort"
	"strings"

	"github.com/carlodf/pansql/dict"
)

// AggSpec is one aggregator's runtime description: which function, and
// which reader-side column ordinal it accumulates (-1 for count(*)).
type AggSpec struct {
	Func      string
	ArgColumn int
}

// AggregationPlan is the runtime counterpart of ir.AggregationPlan: the
// GROUP BY ordinals and the ordered Aggregators a Transformer__N method
// hands to Accumulate on every row.
type AggregationPlan struct {
	GroupBy     []int
	Aggregators []AggSpec
}

// Group is one GROUP BY bucket's running state.
type Group struct {
	ordinals []int
	key      []Value
	acc      []float64
	count    []int64
	set      []bool
}

// Row reconstructs a synthetic Row holding only this group's key values,
// at their original reader-column ordinals, for a flush-time HAVING/
// slot expression to read via the same GetXxx accessors a live row uses.
func (g *Group) Row() *Row {
	maxOrd := -1
	for _, o := range g.ordinals {
		if o > maxOrd {
			maxOrd = o
		}
	}
	cols := make([]Value, maxOrd+1)
	for i, o := range g.ordinals {
		cols[o] = g.key[i]
	}
	return &Row{cols: cols}
}

// Agg returns the finalized per-aggregator accessor for this group.
func (g *Group) Agg() *AggResult { return &AggResult{g: g} }

// AggResult exposes a Group's finalized aggregator outputs by index, the
// same "agg.Out(i)" shape program.go renders for SlotAggregatorOutput
// and OperandAggregatorOutput.
type AggResult struct{ g *Group }

func (a *AggResult) Out(i int) Value {
	if i < 0 || i >= len(a.g.acc) || !a.g.set[i] {
		return Null()
	}
	return ValueOf(a.g.acc[i])
}

type registeredTransformer struct {
	name string
	fn   func(*Row) error
}

// MapRegistration is a resolved linker map entry the runtime records for
// its own bookkeeping (e.g. diagnostics); the actual row copy it
// describes happens through the matching Emit call in generated code.
type MapRegistration struct {
	Src, Dst string
	FieldMap map[string]string
}

// endpoint is a resolved Open handle: enough for Sync to know which
// dictionary stream a reader/writer name feeds.
type endpoint struct {
	connector, connString, streamName string
	isWriter                          bool
}

// Runtime is the support object every emitted program.go constructs
// exactly once in main(): it owns the bootstrap join tables, the
// aggregation state, the buffered per-stream output rows, and the
// reader/writer/transformer registrations main() performs before
// calling Sync.
type Runtime struct {
	input, output *dict.Dictionary

	tables map[string]map[string]*Row

	transformers []registeredTransformer
	finalizers   map[string]func() error

	groups  map[string]map[string]*Group
	outputs map[string][]*Row

	maps      []MapRegistration
	endpoints map[string]endpoint
}

// New decompresses the embedded input/output dictionary blobs and
// returns a ready-to-use Runtime. The blobs are always well-formed
// because they were produced by this compiler's own dict.Compress, so a
// decode failure here indicates a corrupted build artifact, not a user
// error — New panics rather than threading an error through every
// generated main().
func New(inputBlob, outputBlob string) *Runtime {
	in, err := dict.Decompress(inputBlob)
	if err != nil {
		panic(fmt.Errorf("runtime: corrupt input dictionary: %w", err))
	}
	out, err := dict.Decompress(outputBlob)
	if err != nil {
		panic(fmt.Errorf("runtime: corrupt output dictionary: %w", err))
	}
	return &Runtime{
		input: in, output: out,
		tables:     make(map[string]map[string]*Row),
		finalizers: make(map[string]func() error),
		groups:     make(map[string]map[string]*Group),
		outputs:    make(map[string][]*Row),
		endpoints:  make(map[string]endpoint),
	}
}

// OpenReader records a read-direction connector endpoint and returns its
// handle name for later use in Sync.
func (rt *Runtime) OpenReader(connector, connString, streamName string) (string, error) {
	name := connector + ":" + streamName
	rt.endpoints[name] = endpoint{connector: connector, connString: connString, streamName: streamName}
	return name, nil
}

// OpenWriter is OpenReader's write-direction counterpart.
func (rt *Runtime) OpenWriter(connector, connString, streamName string) (string, error) {
	name := connector + ":" + streamName
	rt.endpoints[name] = endpoint{connector: connector, connString: connString, streamName: streamName, isWriter: true}
	return name, nil
}

// RegisterMap records a resolved linker map entry.
func (rt *Runtime) RegisterMap(src, dst string, fieldMap map[string]string) {
	rt.maps = append(rt.maps, MapRegistration{Src: src, Dst: dst, FieldMap: fieldMap})
}

// RegisterTransformer records fn under name, in registration order. Sync
// uses that order to run the matching finalizers; it does not call fn.
func (rt *Runtime) RegisterTransformer(name string, fn func(*Row) error) {
	rt.transformers = append(rt.transformers, registeredTransformer{name: name, fn: fn})
}

// RegisterFinalize attaches a post-EOF flush step (an aggregating
// transformer's HAVING filter and slot emission over each finished
// group) to be run once, after its rows stop arriving.
func (rt *Runtime) RegisterFinalize(name string, fn func() error) {
	rt.finalizers[name] = fn
}

// LoadTable stores a bootstrapped Table row for later ProbeUnique
// lookups, keyed by its first column — the declared primary/unique key
// a JOIN may probe (spec §4.3 pass 4 guarantees this is the only column
// a join key check allows).
func (rt *Runtime) LoadTable(tableVar string, row *Row) error {
	if rt.tables[tableVar] == nil {
		rt.tables[tableVar] = make(map[string]*Row)
	}
	rt.tables[tableVar][keyOf(row.Col(0))] = row
	return nil
}

// ProbeUnique looks up tableVar's row by key, reported as a miss on no
// match (the inner-join-only semantics spec §9 settles on).
func (rt *Runtime) ProbeUnique(tableVar string, key Value) (*Row, bool) {
	row, ok := rt.tables[tableVar][keyOf(key)]
	return row, ok
}

func keyOf(v Value) string { return fmt.Sprint(v.Raw()) }

// Accumulate folds row into plan's GROUP BY bucket for the named
// aggregating transformer, updating every Aggregator's running value.
// Finalization (HAVING, slot emission) happens later in the registered
// finalizer, once the source is exhausted.
func (rt *Runtime) Accumulate(name string, row *Row, plan AggregationPlan) error {
	if rt.groups[name] == nil {
		rt.groups[name] = make(map[string]*Group)
	}
	keyVals := make([]Value, len(plan.GroupBy))
	var keyParts []string
	for i, ord := range plan.GroupBy {
		keyVals[i] = row.Col(ord)
		keyParts = append(keyParts, keyOf(keyVals[i]))
	}
	k := strings.Join(keyParts, "\x1f")

	g, ok := rt.groups[name][k]
	if !ok {
		g = &Group{
			ordinals: plan.GroupBy,
			key:      keyVals,
			acc:      make([]float64, len(plan.Aggregators)),
			count:    make([]int64, len(plan.Aggregators)),
			set:      make([]bool, len(plan.Aggregators)),
		}
		rt.groups[name][k] = g
	}

	for i, spec := range plan.Aggregators {
		var arg float64
		if spec.ArgColumn >= 0 {
			f, ok := toFloat(row.Col(spec.ArgColumn).Raw())
			if !ok {
				continue
			}
			arg = f
		}
		switch spec.Func {
		case "count":
			g.acc[i]++
		case "sum":
			g.acc[i] += arg
		case "avg":
			g.acc[i] = (g.acc[i]*float64(g.count[i]) + arg) / float64(g.count[i]+1)
		case "max":
			if !g.set[i] || arg > g.acc[i] {
				g.acc[i] = arg
			}
		case "min":
			if !g.set[i] || arg < g.acc[i] {
				g.acc[i] = arg
			}
		}
		g.count[i]++
		g.set[i] = true
	}
	return nil
}

// Groups returns the named transformer's finished GROUP BY buckets, in
// a stable order (sorted by key) so repeated runs over the same input
// produce byte-identical output.
func (rt *Runtime) Groups(name string) []*Group {
	m := rt.groups[name]
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*Group, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// Emit appends a finished output row to streamName's buffer, ready for
// whichever writer endpoint Sync pairs with it.
func (rt *Runtime) Emit(streamName string, values []Value) error {
	rt.outputs[streamName] = append(rt.outputs[streamName], &Row{cols: values})
	return nil
}

// Sync runs every registered transformer's finalizer (draining buffered
// aggregation groups into Emit) and reports the reader/writer pair
// ready for a deploy step to wire to real infrastructure. Actually
// streaming rows between a reader and writer connector is a deploy-time
// concern (spec §1 treats connectors as external collaborators); this
// compiler's runtime only has to guarantee every transformer's output is
// fully materialized before the pipeline reports done.
func (rt *Runtime) Sync(readerName, writerName string) error {
	if _, ok := rt.endpoints[readerName]; !ok {
		return fmt.Errorf("runtime: unknown reader %q", readerName)
	}
	if _, ok := rt.endpoints[writerName]; !ok {
		return fmt.Errorf("runtime: unknown writer %q", writerName)
	}
	for _, name := range transformerNames(rt.transformers) {
		if fn, ok := rt.finalizers[name]; ok {
			if err := fn(); err != nil {
				return fmt.Errorf("runtime: finalize %s: %w", name, err)
			}
		}
	}
	return nil
}

func transformerNames(trs []registeredTransformer) []string {
	out := make([]string, len(trs))
	for i, t := range trs {
		out[i] = t.name
	}
	return out
}

// Outputs returns the buffered rows emitted for streamName, for tests
// and for a writer connector to drain.
func (rt *Runtime) Outputs(streamName string) []*Row { return rt.outputs[streamName] }
