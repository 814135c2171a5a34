// Package materialize projects a selection (a slice of row indices)
// back into ordinary Go row values, and renders a QueryPlan as a
// human-readable Explain report. It sits outside the core engine
// (spec §6 treats materialization as an external collaborator) — the
// executor and aggregation kernels never call into this package, only
// callers that want row objects or a plan dump do.
package materialize

import (
	"fmt"

	"github.com/coldyne/colquery"
)

// Row is one materialized record: column name to Go value.
type Row map[string]any

// Rows projects indices into batch into a slice of Row, reading every
// column in schema order. A row whose column is null materializes as
// a nil entry.
func Rows(batch colquery.RecordBatch, indices []int) []Row {
	schema := batch.Schema()
	n := schema.Len()
	rows := make([]Row, len(indices))
	for r, idx := range indices {
		row := make(Row, n)
		for c := 0; c < n; c++ {
			row[schema.Name(c)] = columnValue(batch.Column(c), idx)
		}
		rows[r] = row
	}
	return rows
}

// columnValue reads one cell, decoding dictionary columns through
// their dictionary the same way agg.readGroupKey does for group keys.
func columnValue(arr colquery.ArrowArray, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case colquery.Int32Valued:
		return a.Values()[i]
	case colquery.Int64Valued:
		return a.Values()[i]
	case colquery.Float32Valued:
		return a.Values()[i]
	case colquery.Float64Valued:
		return a.Values()[i]
	case colquery.Decimal128Valued:
		return a.Values()[i]
	case colquery.StringValued:
		return a.Value(i)
	case colquery.BooleanValued:
		return bitAt(a.Bits(), i)
	case colquery.DictionaryValued:
		dict := a.Dictionary()
		if sv, ok := dict.(colquery.StringValued); ok {
			return sv.Value(a.IndexAt(i))
		}
		return a.IndexAt(i)
	default:
		return fmt.Sprintf("<unsupported column type %v>", arr.Type())
	}
}

func bitAt(bits []byte, i int) bool {
	byteIdx, bitIdx := i/8, uint(i%8)
	if byteIdx >= len(bits) {
		return false
	}
	return bits[byteIdx]&(1<<bitIdx) != 0
}

// RowsToList materializes a dense enumerable result (the []int form
// exec.Execute returns for ShapeEnumerable) into row objects.
func RowsToList(batch colquery.RecordBatch, indices []int) []Row {
	return Rows(batch, indices)
}
