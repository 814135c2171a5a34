package agg_test

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

func (b *testBatch) Len() int                        { return b.n }
func (b *testBatch) Column(i int) colquery.ArrowArray { return b.columns[i] }
func (b *testBatch) NumColumns() int                 { return len(b.columns) }
func (b *testBatch) Schema() *colquery.ColumnSchema   { return b.schema }

func newBatch(n int, names []string, columns ...colquery.ArrowArray) *testBatch {
	return &testBatch{n: n, columns: columns, schema: colquery.NewColumnSchema(names)}
}

type int32Array struct {
	values []int32
}

func newInt32Array(values []int32) *int32Array { return &int32Array{values: values} }

func (a *int32Array) Type() colquery.ArrayType { return colquery.Int32Array }
func (a *int32Array) Len() int                 { return len(a.values) }
func (a *int32Array) NullCount() int           { return 0 }
func (a *int32Array) NullBitmapBytes() []byte  { return nil }
func (a *int32Array) Values() []int32          { return a.values }
func (a *int32Array) IsNull(int) bool          { return false }

type float64Array struct {
	values []float64
}

func newFloat64Array(values []float64) *float64Array { return &float64Array{values: values} }

func (a *float64Array) Type() colquery.ArrayType { return colquery.Float64Array }
func (a *float64Array) Len() int                 { return len(a.values) }
func (a *float64Array) NullCount() int           { return 0 }
func (a *float64Array) NullBitmapBytes() []byte  { return nil }
func (a *float64Array) Values() []float64        { return a.values }
func (a *float64Array) IsNull(int) bool          { return false }

type decimalArray struct {
	values []colquery.Decimal128
	scale  int32
}

func newDecimalArray(values []colquery.Decimal128, scale int32) *decimalArray {
	return &decimalArray{values: values, scale: scale}
}

func (a *decimalArray) Type() colquery.ArrayType     { return colquery.Decimal128Array }
func (a *decimalArray) Len() int                     { return len(a.values) }
func (a *decimalArray) NullCount() int               { return 0 }
func (a *decimalArray) NullBitmapBytes() []byte      { return nil }
func (a *decimalArray) Values() []colquery.Decimal128 { return a.values }
func (a *decimalArray) Scale() int32                 { return a.scale }
func (a *decimalArray) IsNull(int) bool              { return false }

type stringArray struct {
	values []string
}

func newStringArray(values []string) *stringArray { return &stringArray{values: values} }

func (a *stringArray) Type() colquery.ArrayType { return colquery.StringArray }
func (a *stringArray) Len() int                 { return len(a.values) }
func (a *stringArray) NullCount() int           { return 0 }
func (a *stringArray) NullBitmapBytes() []byte  { return nil }
func (a *stringArray) Value(i int) string       { return a.values[i] }
func (a *stringArray) IsNull(int) bool          { return false }

// dictArray is a dictionary-encoded column: integer indices into a
// shared stringArray dictionary.
type dictArray struct {
	indices []int32
	dict    *stringArray
}

func newDictArray(indices []int32, dict *stringArray) *dictArray {
	return &dictArray{indices: indices, dict: dict}
}

func (a *dictArray) Type() colquery.ArrayType        { return colquery.DictionaryArray }
func (a *dictArray) Len() int                        { return len(a.indices) }
func (a *dictArray) NullCount() int                  { return 0 }
func (a *dictArray) NullBitmapBytes() []byte         { return nil }
func (a *dictArray) IndexAt(i int) int               { return int(a.indices[i]) }
func (a *dictArray) Dictionary() colquery.ArrowArray { return a.dict }
func (a *dictArray) IsNull(int) bool                 { return false }
