package colbatch

import "github.com/coldyne/colquery"

// Batch is a concrete colquery.RecordBatch: named columns of equal
// length over a fixed row count.
type Batch struct {
	n       int
	columns []colquery.ArrowArray
	schema  *colquery.ColumnSchema
}

// NewBatch builds a Batch from parallel names/columns slices. All
// columns must report the same Len(), which becomes the batch's row
// count; NewBatch panics if they disagree, since a length mismatch
// means the caller built columns inconsistently.
func NewBatch(names []string, columns ...colquery.ArrowArray) *Batch {
	n := 0
	if len(columns) > 0 {
		n = columns[0].Len()
	}
	for i, c := range columns {
		if c.Len() != n {
			panic("colbatch: column length mismatch at index " + names[i])
		}
	}
	return &Batch{n: n, columns: columns, schema: colquery.NewColumnSchema(names)}
}

func (b *Batch) Len() int                        { return b.n }
func (b *Batch) Column(i int) colquery.ArrowArray { return b.columns[i] }
func (b *Batch) NumColumns() int                 { return len(b.columns) }
func (b *Batch) Schema() *colquery.ColumnSchema   { return b.schema }
