// Package runtime is the small support library emitted PanSQL programs
// import: Row/Value column access, the in-memory join-table and
// aggregation state a Transformer__N method reads and writes, and the
// reader/writer/sync plumbing a generated main() calls (spec §4.7, §4.4).
// It ships with the compiler the way velox's "runtime" subpackage ships
// with its generated clients (compiler/gen/generate.go's GenRuntime).
package runtime

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a type-erased column value moving through a transformer. A
// literal operand (from a WHERE/HAVING comparison) carries its rendered
// source text instead of a parsed Go value until it is compared against
// a concrete column, matching the deferred-typing the compiler's filter
// IR already uses (ir.FilterOperand.Literal).
type Value struct {
	raw     any
	literal string
	isLit   bool
}

// ValueOf wraps a concrete Go value read from a data source.
func ValueOf(v any) Value { return Value{raw: v} }

// Null returns the NULL sentinel value.
func Null() Value { return Value{raw: nil} }

// Literal wraps a WHERE/HAVING clause's rendered literal text, typed
// lazily against whatever it's compared to in Compare.
func Literal(text string) Value { return Value{literal: text, isLit: true} }

// IsNull reports whether v holds SQL NULL.
func (v Value) IsNull() bool { return !v.isLit && v.raw == nil }

// Raw returns the underlying Go value. A literal is returned as a
// float64 when its text parses as a number, otherwise as its text with
// surrounding quotes trimmed.
func (v Value) Raw() any {
	if !v.isLit {
		return v.raw
	}
	if f, err := strconv.ParseFloat(v.literal, 64); err == nil {
		return f
	}
	return strings.Trim(v.literal, "'\"")
}

// Compare evaluates one of the comparison ops the filter IR emits
// ("eq", "neq", "lt", "lte", "gt", "gte") between two Values, coercing a
// literal operand to the other side's concrete type first.
func Compare(op string, a, b Value) bool {
	av, bv := coerce(a, b), coerce(b, a)
	cmp := compareRaw(av, bv)
	switch op {
	case "eq":
		return cmp == 0
	case "neq":
		return cmp != 0
	case "lt":
		return cmp < 0
	case "lte":
		return cmp <= 0
	case "gt":
		return cmp > 0
	case "gte":
		return cmp >= 0
	default:
		return false
	}
}

// coerce resolves a literal operand against the other operand's concrete
// type so "p.Vendor = 1" compares an int32 column to an int32, not a
// float64 parsed in isolation.
func coerce(v, other Value) any {
	if !v.isLit {
		return v.raw
	}
	switch other.raw.(type) {
	case string:
		return strings.Trim(v.literal, "'\"")
	case int8, int16, int32, int64, uint8, uint16, uint32, uint64:
		n, _ := strconv.ParseInt(strings.TrimSpace(v.literal), 10, 64)
		return n
	default:
		return v.Raw()
	}
}

func compareRaw(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	return strings.Compare(as, bs)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
