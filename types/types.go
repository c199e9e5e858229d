// Package types implements the PanSQL FieldType model (spec §3): a fixed
// TypeTag enumeration plus the assignability matrix used by the semantic
// analyzer's projection check and by the linker's auto-map validation.
package types

import "ariga.io/atlas/sql/schema"

// TypeTag ranges over the fixed enumeration of field kinds spec.md §3
// describes: ints, floats, decimals, temporal, text variants, binary
// variants, JSON, XML, and GUID.
type TypeTag int

const (
	TagInvalid TypeTag = iota

	TagInt8
	TagInt16
	TagInt32
	TagInt64
	TagUint8
	TagUint16
	TagUint32
	TagUint64

	TagFloat32
	TagFloat64
	TagDecimal

	TagDate
	TagDateTime
	TagTimestamp

	TagChar
	TagVarChar
	TagText

	TagBinary
	TagVarBinary
	TagBlob

	TagJSON
	TagXML
	TagGUID
)

var tagNames = map[TypeTag]string{
	TagInt8: "Int8", TagInt16: "Int16", TagInt32: "Int32", TagInt64: "Int64",
	TagUint8: "Uint8", TagUint16: "Uint16", TagUint32: "Uint32", TagUint64: "Uint64",
	TagFloat32: "Float32", TagFloat64: "Float64", TagDecimal: "Decimal",
	TagDate: "Date", TagDateTime: "DateTime", TagTimestamp: "Timestamp",
	TagChar: "Char", TagVarChar: "VarChar", TagText: "Text",
	TagBinary: "Binary", TagVarBinary: "VarBinary", TagBlob: "Blob",
	TagJSON: "JSON", TagXML: "XML", TagGUID: "GUID",
}

// String returns the canonical tag name, used in diagnostics and in the
// emitter's GetXxx accessor names.
func (t TypeTag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return "Invalid"
}

func (t TypeTag) isInteger() bool {
	switch t {
	case TagInt8, TagInt16, TagInt32, TagInt64, TagUint8, TagUint16, TagUint32, TagUint64:
		return true
	}
	return false
}

func (t TypeTag) isFloat() bool {
	return t == TagFloat32 || t == TagFloat64 || t == TagDecimal
}

func (t TypeTag) isTemporal() bool {
	return t == TagDate || t == TagDateTime || t == TagTimestamp
}

func (t TypeTag) isText() bool {
	return t == TagChar || t == TagVarChar || t == TagText
}

func (t TypeTag) isBinary() bool {
	return t == TagBinary || t == TagVarBinary || t == TagBlob
}

// TypeInfo carries tag-specific metadata: decimal precision/scale, a
// text/binary max length, or enum members. Only the fields relevant to a
// given Tag are populated.
type TypeInfo struct {
	Precision int
	Scale     int
	MaxLength int
	Enum      []string
}

// FieldType is (TypeTag, nullable, collection, typeInfo) per spec §3.
type FieldType struct {
	Tag        TypeTag
	Nullable   bool
	Collection bool
	Info       TypeInfo
}

// compatibleTags is the fixed TagTag-to-TagTag compatibility matrix. A
// source tag may assign into any destination tag listed for it (including
// itself, always implicit).
var compatibleTags = map[TypeTag]map[TypeTag]bool{
	TagInt8:    widen(TagInt8, TagInt16, TagInt32, TagInt64, TagFloat32, TagFloat64, TagDecimal),
	TagInt16:   widen(TagInt16, TagInt32, TagInt64, TagFloat32, TagFloat64, TagDecimal),
	TagInt32:   widen(TagInt32, TagInt64, TagFloat64, TagDecimal),
	TagInt64:   widen(TagInt64, TagDecimal),
	TagUint8:   widen(TagUint8, TagUint16, TagUint32, TagUint64, TagInt16, TagInt32, TagInt64, TagFloat32, TagFloat64, TagDecimal),
	TagUint16:  widen(TagUint16, TagUint32, TagUint64, TagInt32, TagInt64, TagFloat64, TagDecimal),
	TagUint32:  widen(TagUint32, TagUint64, TagInt64, TagDecimal),
	TagUint64:  widen(TagUint64, TagDecimal),
	TagFloat32: widen(TagFloat32, TagFloat64, TagDecimal),
	TagFloat64: widen(TagFloat64, TagDecimal),
	TagDecimal: widen(TagDecimal),
	TagDate:      widen(TagDate, TagDateTime, TagTimestamp),
	TagDateTime:  widen(TagDateTime, TagTimestamp),
	TagTimestamp: widen(TagTimestamp),
	TagChar:    widen(TagChar, TagVarChar, TagText),
	TagVarChar: widen(TagVarChar, TagText),
	TagText:    widen(TagText),
	TagBinary:    widen(TagBinary, TagVarBinary, TagBlob),
	TagVarBinary: widen(TagVarBinary, TagBlob),
	TagBlob:      widen(TagBlob),
	TagJSON: widen(TagJSON, TagText),
	TagXML:  widen(TagXML, TagText),
	TagGUID: widen(TagGUID, TagVarChar, TagText),
}

func widen(self TypeTag, wider ...TypeTag) map[TypeTag]bool {
	m := map[TypeTag]bool{self: true}
	for _, t := range wider {
		m[t] = true
	}
	return m
}

// AssignableTo reports whether a source field of type src may be written
// into a destination field of type dst: the tags must be compatible by the
// fixed matrix, and either the source is non-nullable or the destination
// is nullable (spec §3).
func (src FieldType) AssignableTo(dst FieldType) bool {
	if src.Collection != dst.Collection {
		return false
	}
	if src.Nullable && !dst.Nullable {
		return false
	}
	row, ok := compatibleTags[src.Tag]
	if !ok {
		return src.Tag == dst.Tag
	}
	return row[dst.Tag]
}

// Atlas returns the ariga.io/atlas/sql/schema representation of t's
// physical type. The connectors manifest does not use it.
func (t FieldType) Atlas() schema.Type {
	switch {
	case t.Tag.isInteger():
		return &schema.IntegerType{
			T:        "integer",
			Unsigned: t.Tag == TagUint8 || t.Tag == TagUint16 || t.Tag == TagUint32 || t.Tag == TagUint64,
		}
	case t.Tag == TagDecimal:
		return &schema.DecimalType{T: "decimal", Precision: t.Info.Precision, Scale: t.Info.Scale}
	case t.Tag.isFloat():
		return &schema.FloatType{T: "float"}
	case t.Tag.isTemporal():
		return &schema.TimeType{T: "timestamp"}
	case t.Tag.isText():
		return &schema.StringType{T: "varchar", Size: t.Info.MaxLength}
	case t.Tag.isBinary():
		return &schema.BinaryType{T: "varbinary"}
	case t.Tag == TagJSON:
		return &schema.JSONType{T: "json"}
	case t.Tag == TagGUID:
		return &schema.StringType{T: "uuid", Size: 36}
	default:
		return &schema.StringType{T: "text"}
	}
}
