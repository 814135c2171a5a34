package kernel_test

import (
	"github.com/coldyne/colquery"
)

// testBatch and the typed array fixtures below are minimal, in-memory
// ArrowArray/RecordBatch implementations used only by this package's
// tests; colquery never constructs these itself (they belong to the
// storage layer in the real system).

type testBatch struct {
	n       int
	columns []colquery.ArrowArray
	schema  *colquery.ColumnSchema
}

func (b *testBatch) Len() int                       { return b.n }
func (b *testBatch) Column(i int) colquery.ArrowArray { return b.columns[i] }
func (b *testBatch) NumColumns() int                { return len(b.columns) }
func (b *testBatch) Schema() *colquery.ColumnSchema  { return b.schema }

func newBatch(n int, columns ...colquery.ArrowArray) *testBatch {
	names := make([]string, len(columns))
	for i := range names {
		names[i] = ""
	}
	return &testBatch{n: n, columns: columns, schema: colquery.NewColumnSchema(names)}
}

func validityBytes(nullAt map[int]bool, n int) []byte {
	if len(nullAt) == 0 {
		return nil
	}
	out := make([]byte, (n+7)/8)
	for i := 0; i < n; i++ {
		if !nullAt[i] {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

type int32Array struct {
	values   []int32
	validity []byte
	nulls    int
}

func newInt32Array(values []int32, nullAt map[int]bool) *int32Array {
	return &int32Array{values: values, validity: validityBytes(nullAt, len(values)), nulls: len(nullAt)}
}

func (a *int32Array) Type() colquery.ArrayType    { return colquery.Int32Array }
func (a *int32Array) Len() int                    { return len(a.values) }
func (a *int32Array) NullCount() int              { return a.nulls }
func (a *int32Array) NullBitmapBytes() []byte     { return a.validity }
func (a *int32Array) Values() []int32             { return a.values }
func (a *int32Array) IsNull(i int) bool {
	if a.validity == nil {
		return false
	}
	return a.validity[i/8]&(1<<uint(i%8)) == 0
}

type int64Array struct {
	values   []int64
	validity []byte
	nulls    int
}

func newInt64Array(values []int64, nullAt map[int]bool) *int64Array {
	return &int64Array{values: values, validity: validityBytes(nullAt, len(values)), nulls: len(nullAt)}
}

func (a *int64Array) Type() colquery.ArrayType { return colquery.Int64Array }
func (a *int64Array) Len() int                 { return len(a.values) }
func (a *int64Array) NullCount() int           { return a.nulls }
func (a *int64Array) NullBitmapBytes() []byte  { return a.validity }
func (a *int64Array) Values() []int64          { return a.values }
func (a *int64Array) IsNull(i int) bool {
	if a.validity == nil {
		return false
	}
	return a.validity[i/8]&(1<<uint(i%8)) == 0
}

type float64Array struct {
	values   []float64
	validity []byte
	nulls    int
}

func newFloat64Array(values []float64, nullAt map[int]bool) *float64Array {
	return &float64Array{values: values, validity: validityBytes(nullAt, len(values)), nulls: len(nullAt)}
}

func (a *float64Array) Type() colquery.ArrayType { return colquery.Float64Array }
func (a *float64Array) Len() int                 { return len(a.values) }
func (a *float64Array) NullCount() int           { return a.nulls }
func (a *float64Array) NullBitmapBytes() []byte  { return a.validity }
func (a *float64Array) Values() []float64        { return a.values }
func (a *float64Array) IsNull(i int) bool {
	if a.validity == nil {
		return false
	}
	return a.validity[i/8]&(1<<uint(i%8)) == 0
}

type decimalArray struct {
	values   []colquery.Decimal128
	scale    int32
	validity []byte
	nulls    int
}

func newDecimalArray(values []colquery.Decimal128, scale int32, nullAt map[int]bool) *decimalArray {
	return &decimalArray{values: values, scale: scale, validity: validityBytes(nullAt, len(values)), nulls: len(nullAt)}
}

func (a *decimalArray) Type() colquery.ArrayType         { return colquery.Decimal128Array }
func (a *decimalArray) Len() int                         { return len(a.values) }
func (a *decimalArray) NullCount() int                   { return a.nulls }
func (a *decimalArray) NullBitmapBytes() []byte          { return a.validity }
func (a *decimalArray) Values() []colquery.Decimal128     { return a.values }
func (a *decimalArray) Scale() int32                     { return a.scale }
func (a *decimalArray) IsNull(i int) bool {
	if a.validity == nil {
		return false
	}
	return a.validity[i/8]&(1<<uint(i%8)) == 0
}

type boolArray struct {
	bits     []byte
	n        int
	validity []byte
	nulls    int
}

func newBoolArray(values []bool, nullAt map[int]bool) *boolArray {
	bits := make([]byte, (len(values)+7)/8)
	for i, v := range values {
		if v {
			bits[i/8] |= 1 << uint(i%8)
		}
	}
	return &boolArray{bits: bits, n: len(values), validity: validityBytes(nullAt, len(values)), nulls: len(nullAt)}
}

func (a *boolArray) Type() colquery.ArrayType   { return colquery.BooleanArray }
func (a *boolArray) Len() int                   { return a.n }
func (a *boolArray) NullCount() int             { return a.nulls }
func (a *boolArray) NullBitmapBytes() []byte    { return a.validity }
func (a *boolArray) Bits() []byte               { return a.bits }
func (a *boolArray) IsNull(i int) bool {
	if a.validity == nil {
		return false
	}
	return a.validity[i/8]&(1<<uint(i%8)) == 0
}

type stringArray struct {
	values   []string
	validity []byte
	nulls    int
}

func newStringArray(values []string, nullAt map[int]bool) *stringArray {
	return &stringArray{values: values, validity: validityBytes(nullAt, len(values)), nulls: len(nullAt)}
}

func (a *stringArray) Type() colquery.ArrayType { return colquery.StringArray }
func (a *stringArray) Len() int                 { return len(a.values) }
func (a *stringArray) NullCount() int           { return a.nulls }
func (a *stringArray) NullBitmapBytes() []byte  { return a.validity }
func (a *stringArray) Value(i int) string {
	if a.IsNull(i) {
		return ""
	}
	return a.values[i]
}
func (a *stringArray) IsNull(i int) bool {
	if a.validity == nil {
		return false
	}
	return a.validity[i/8]&(1<<uint(i%8)) == 0
}

// dictArray is a dictionary-encoded column: integer indices into a
// shared stringArray dictionary.
type dictArray struct {
	indices  []int32
	dict     *stringArray
	validity []byte
	nulls    int
}

func newDictArray(indices []int32, dict *stringArray, nullAt map[int]bool) *dictArray {
	return &dictArray{indices: indices, dict: dict, validity: validityBytes(nullAt, len(indices)), nulls: len(nullAt)}
}

func (a *dictArray) Type() colquery.ArrayType     { return colquery.DictionaryArray }
func (a *dictArray) Len() int                     { return len(a.indices) }
func (a *dictArray) NullCount() int               { return a.nulls }
func (a *dictArray) NullBitmapBytes() []byte      { return a.validity }
func (a *dictArray) IndexAt(i int) int            { return int(a.indices[i]) }
func (a *dictArray) Dictionary() colquery.ArrowArray { return a.dict }
func (a *dictArray) IsNull(i int) bool {
	if a.validity == nil {
		return false
	}
	return a.validity[i/8]&(1<<uint(i%8)) == 0
}
