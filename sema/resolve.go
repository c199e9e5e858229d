package sema

import (
	"github.com/carlodf/pansql/ast"
	"github.com/carlodf/pansql/dict"
	"github.com/carlodf/pansql/diag"
)

// ResolveColumn resolves a column reference against the query's FROM
// and (optional) JOIN streams by alias, returning the owning stream, its
// field ordinal, and whether the match came from the joined table. It is
// shared by the projection-check pass here and by the transformation
// builder, which re-resolves WHERE/HAVING column references using the
// same alias rules (spec §4.4).
func ResolveColumn(ref ast.ColumnRef, fromAlias string, fromStream *dict.StreamDefinition, joinAlias string, joinStream *dict.StreamDefinition) (stream *dict.StreamDefinition, fieldIdx int, fromJoin bool, err error) {
	switch ref.Qualifier {
	case "", fromAlias:
		idx := fromStream.FieldIndex(ref.Name)
		if idx < 0 {
			return nil, -1, false, diag.NewResolveError(ref.String(), "unknown field on "+fromStream.Name)
		}
		return fromStream, idx, false, nil
	case joinAlias:
		if joinStream == nil {
			return nil, -1, false, diag.NewResolveError(ref.String(), "no JOIN is in scope")
		}
		idx := joinStream.FieldIndex(ref.Name)
		if idx < 0 {
			return nil, -1, false, diag.NewResolveError(ref.String(), "unknown field on "+joinStream.Name)
		}
		return joinStream, idx, true, nil
	default:
		return nil, -1, false, diag.NewResolveError(ref.String(), "unknown table alias '"+ref.Qualifier+"'")
	}
}
