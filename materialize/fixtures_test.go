package materialize_test

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
