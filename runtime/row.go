package runtime

import "time"

// Row is one in-flight record a Transformer__N method receives: a fixed
// ordinal vector of column values, indexed the way the compiler's Slot/
// FilterOperand column ordinals already are.
type Row struct {
	cols []Value
}

// NewRow wraps already-typed column values into a Row.
func NewRow(cols ...Value) *Row { return &Row{cols: cols} }

// Col returns the raw, untyped Value at ordinal i. The runtime reads
// table keys (LoadTable) and GROUP BY keys and aggregate arguments
// (Accumulate) through it; emitted code uses the typed accessors.
func (r *Row) Col(i int) Value { return r.cols[i] }

func get[T any](r *Row, i int) T {
	v, _ := r.cols[i].raw.(T)
	return v
}

func getPtr[T any](r *Row, i int) *T {
	if r.cols[i].IsNull() {
		return nil
	}
	v := get[T](r, i)
	return &v
}

// The GetXxx/GetXxxNull pairs below are the typed reader accessors a
// ReaderColumn slot's emitted call picks by TypeTag (spec §4.4: "the
// appropriate reader accessor (GetInt32, GetString, …)").
func (r *Row) GetInt8(i int) int8    { return get[int8](r, i) }
func (r *Row) GetInt8Null(i int) *int8 { return getPtr[int8](r, i) }

func (r *Row) GetInt16(i int) int16      { return get[int16](r, i) }
func (r *Row) GetInt16Null(i int) *int16 { return getPtr[int16](r, i) }

func (r *Row) GetInt32(i int) int32      { return get[int32](r, i) }
func (r *Row) GetInt32Null(i int) *int32 { return getPtr[int32](r, i) }

func (r *Row) GetInt64(i int) int64      { return get[int64](r, i) }
func (r *Row) GetInt64Null(i int) *int64 { return getPtr[int64](r, i) }

func (r *Row) GetUint8(i int) uint8      { return get[uint8](r, i) }
func (r *Row) GetUint8Null(i int) *uint8 { return getPtr[uint8](r, i) }

func (r *Row) GetUint16(i int) uint16      { return get[uint16](r, i) }
func (r *Row) GetUint16Null(i int) *uint16 { return getPtr[uint16](r, i) }

func (r *Row) GetUint32(i int) uint32      { return get[uint32](r, i) }
func (r *Row) GetUint32Null(i int) *uint32 { return getPtr[uint32](r, i) }

func (r *Row) GetUint64(i int) uint64      { return get[uint64](r, i) }
func (r *Row) GetUint64Null(i int) *uint64 { return getPtr[uint64](r, i) }

func (r *Row) GetFloat32(i int) float32      { return get[float32](r, i) }
func (r *Row) GetFloat32Null(i int) *float32 { return getPtr[float32](r, i) }

func (r *Row) GetFloat64(i int) float64      { return get[float64](r, i) }
func (r *Row) GetFloat64Null(i int) *float64 { return getPtr[float64](r, i) }

func (r *Row) GetDecimal(i int) float64      { return get[float64](r, i) }
func (r *Row) GetDecimalNull(i int) *float64 { return getPtr[float64](r, i) }

func (r *Row) GetChar(i int) string      { return get[string](r, i) }
func (r *Row) GetCharNull(i int) *string { return getPtr[string](r, i) }

func (r *Row) GetVarChar(i int) string      { return get[string](r, i) }
func (r *Row) GetVarCharNull(i int) *string { return getPtr[string](r, i) }

func (r *Row) GetText(i int) string      { return get[string](r, i) }
func (r *Row) GetTextNull(i int) *string { return getPtr[string](r, i) }

func (r *Row) GetXML(i int) string      { return get[string](r, i) }
func (r *Row) GetXMLNull(i int) *string { return getPtr[string](r, i) }

func (r *Row) GetGUID(i int) string      { return get[string](r, i) }
func (r *Row) GetGUIDNull(i int) *string { return getPtr[string](r, i) }

func (r *Row) GetDate(i int) time.Time          { return get[time.Time](r, i) }
func (r *Row) GetDateNull(i int) *time.Time     { return getPtr[time.Time](r, i) }
func (r *Row) GetDateTime(i int) time.Time      { return get[time.Time](r, i) }
func (r *Row) GetDateTimeNull(i int) *time.Time { return getPtr[time.Time](r, i) }
func (r *Row) GetTimestamp(i int) time.Time      { return get[time.Time](r, i) }
func (r *Row) GetTimestampNull(i int) *time.Time { return getPtr[time.Time](r, i) }

func (r *Row) GetBinary(i int) []byte        { return get[[]byte](r, i) }
func (r *Row) GetBinaryNull(i int) []byte    { return get[[]byte](r, i) }
func (r *Row) GetVarBinary(i int) []byte     { return get[[]byte](r, i) }
func (r *Row) GetVarBinaryNull(i int) []byte { return get[[]byte](r, i) }
func (r *Row) GetBlob(i int) []byte          { return get[[]byte](r, i) }
func (r *Row) GetBlobNull(i int) []byte      { return get[[]byte](r, i) }
func (r *Row) GetJSON(i int) []byte          { return get[[]byte](r, i) }
func (r *Row) GetJSONNull(i int) []byte      { return get[[]byte](r, i) }
