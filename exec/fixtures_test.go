package exec_test

import (
	"github.com/coldyne/colquery"
)

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

type boolArray struct {
	bits []byte
	n    int
}

func newBoolArray(values []bool) *boolArray {
	bits := make([]byte, (len(values)+7)/8)
	for i, v := range values {
		if v {
			bits[i/8] |= 1 << uint(i%8)
		}
	}
	return &boolArray{bits: bits, n: len(values)}
}

func (a *boolArray) Type() colquery.ArrayType { return colquery.BooleanArray }
func (a *boolArray) Len() int                 { return a.n }
func (a *boolArray) NullCount() int           { return 0 }
func (a *boolArray) NullBitmapBytes() []byte  { return nil }
func (a *boolArray) Bits() []byte             { return a.bits }
func (a *boolArray) IsNull(int) bool          { return false }
