package kernel

import (
	"fmt"

	"github.com/coldyne/colquery"
	"github.com/coldyne/colquery/bitmap"
)

// IsNull tests whether a column's row is null (positive=true) or not
// null (positive=false).
type IsNull struct {
	column   int
	positive bool
}

// NewIsNull builds an IsNull against a resolved column index.
func NewIsNull(column int, positive bool) *IsNull {
	return &IsNull{column: column, positive: positive}
}

func (p *IsNull) ColumnIndex() int { return p.column }

func (p *IsNull) String() string {
	if p.positive {
		return fmt.Sprintf("col[%d] IS NULL", p.column)
	}
	return fmt.Sprintf("col[%d] IS NOT NULL", p.column)
}

func (p *IsNull) Evaluate(batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, maxRow int) {
	p.EvaluateRange(batch, sel, 0, clampRange(maxRow, batch.Len()))
}

// EvaluateRange checks each row of [start, end) for null in lanes of 8
// via applyLanes. A column with no nulls needs no per-row check: IS
// NULL clears the whole range and IS NOT NULL leaves it unchanged.
func (p *IsNull) EvaluateRange(batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, start, end int) {
	arr := batch.Column(p.column)
	if arr.NullCount() == 0 {
		if p.positive {
			sel.ClearRange(start, end)
		}
		return
	}
	if !p.positive {
		applyLanes(sel, start, end, 8, func(i int) bool { return !arr.IsNull(i) })
		return
	}
	applyLanes(sel, start, end, 8, func(i int) bool { return arr.IsNull(i) })
}

func (p *IsNull) EvaluateSingle(batch colquery.RecordBatch, row int) bool {
	arr := batch.Column(p.column)
	return arr.IsNull(row) == p.positive
}

func (p *IsNull) MayContainMatches(stats colquery.ZoneChunkStats) bool {
	if p.positive {
		// Some chunk statistics don't track partial-null chunks beyond
		// all_null; conservatively assume a null may be present unless
		// the chunk reports every row valid, which Min/Max existing and
		// AllNull false doesn't by itself guarantee. Always scan.
		return true
	}
	return !stats.AllNull
}
