// Package emit implements the PanSQL Emitter (spec §4.7): rendering a
// ProgramIR into Go program source plus the project and connectors
// manifests a build consumes alongside it.
package emit

import (
	"github.com/go-openapi/inflect"

	"github.com/carlodf/pansql/types"
)

// exportedName turns a PanSQL identifier (stream/field/transformer name)
// into an exported Go identifier, the way the teacher's generated code
// always title-cases dictionary-derived names before using them as
// struct/field/method identifiers.
func exportedName(name string) string {
	return inflect.Camelize(inflect.Underscore(name))
}

// readerVar names the local reader variable the emitted main() wires up
// for a given Open endpoint.
func readerVar(openName string) string {
	return inflect.CamelizeDownFirst(openName) + "Reader"
}

// writerVar is readerVar's counterpart for write-direction endpoints.
func writerVar(openName string) string {
	return inflect.CamelizeDownFirst(openName) + "Writer"
}

// accessor is the reader method a transformer calls to pull a typed
// value out of an in-flight row (spec §4.7: "the appropriate reader
// accessor (GetInt32, GetString, ...)").
func accessor(t types.FieldType) string {
	name := "Get" + t.Tag.String()
	if t.Nullable {
		return name + "Null"
	}
	return name
}
