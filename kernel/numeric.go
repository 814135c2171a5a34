package kernel

import (
	"fmt"

	"github.com/coldyne/colquery"
	"github.com/coldyne/colquery/bitmap"
)

// Int32Cmp compares an Int32Array (or, by scalar widening, an
// Int64Array) column against a constant. It is the vectorized
// (lane-of-8) numeric kernel.
type Int32Cmp struct {
	column int
	op     CompareOp
	value  int32
}

// NewInt32Cmp builds an Int32Cmp against a resolved column index.
func NewInt32Cmp(column int, op CompareOp, value int32) *Int32Cmp {
	return &Int32Cmp{column: column, op: op, value: value}
}

func (p *Int32Cmp) ColumnIndex() int { return p.column }

func (p *Int32Cmp) String() string {
	return fmt.Sprintf("col[%d] %s %d", p.column, p.op, p.value)
}

func (p *Int32Cmp) Evaluate(batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, maxRow int) {
	p.EvaluateRange(batch, sel, 0, clampRange(maxRow, batch.Len()))
}

func (p *Int32Cmp) EvaluateRange(batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, start, end int) {
	arr := batch.Column(p.column)
	prefilterNulls(arr, sel)
	base, negate := normalizeOp(p.op)

	switch a := arr.(type) {
	case colquery.Int32Valued:
		values := a.Values()
		applyLanes(sel, start, end, 8, func(i int) bool {
			return compareOrdered(values[i], p.value, base, negate)
		})
	case colquery.Int64Valued:
		// Scalar-widened sibling type: the predicate variant is fixed
		// by the analyzer to the column's declared width family, but
		// Int64 columns reuse this kernel's comparison logic without
		// the 8-lane vectorization (no and_mask_8 packing benefit for
		// a type this kernel wasn't specialized for).
		values := a.Values()
		wide := int64(p.value)
		for i := start; i < end; i++ {
			if !compareOrdered(values[i], wide, base, negate) {
				sel.Clear(i)
			}
		}
	default:
		panic(fmt.Sprintf("kernel: Int32Cmp applied to unsupported array type %v", arr.Type()))
	}
}

func (p *Int32Cmp) EvaluateSingle(batch colquery.RecordBatch, row int) bool {
	arr := batch.Column(p.column)
	if arr.IsNull(row) {
		return false
	}
	base, negate := normalizeOp(p.op)
	switch a := arr.(type) {
	case colquery.Int32Valued:
		return compareOrdered(a.Values()[row], p.value, base, negate)
	case colquery.Int64Valued:
		return compareOrdered(a.Values()[row], int64(p.value), base, negate)
	default:
		panic(fmt.Sprintf("kernel: Int32Cmp applied to unsupported array type %v", arr.Type()))
	}
}

func (p *Int32Cmp) MayContainMatches(stats colquery.ZoneChunkStats) bool {
	return mayContainMatchesOrdered(stats, p.op, int64(p.value), func(v any) (int64, bool) {
		return asInt64(v)
	})
}

func (p *Int32Cmp) Op() CompareOp { return p.op }

func (p *Int32Cmp) EstimateSelectivity(min, max any) (float64, bool) {
	return estimateOrderedSelectivity(p.op, int64(p.value), min, max, asInt64)
}

// DoubleCmp compares a Float64Array (or, by scalar widening, a
// Float32Array) column against a constant. It is the vectorized
// (lane-of-4) numeric kernel.
type DoubleCmp struct {
	column int
	op     CompareOp
	value  float64
}

// NewDoubleCmp builds a DoubleCmp against a resolved column index.
func NewDoubleCmp(column int, op CompareOp, value float64) *DoubleCmp {
	return &DoubleCmp{column: column, op: op, value: value}
}

func (p *DoubleCmp) ColumnIndex() int { return p.column }

func (p *DoubleCmp) String() string {
	return fmt.Sprintf("col[%d] %s %g", p.column, p.op, p.value)
}

func (p *DoubleCmp) Evaluate(batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, maxRow int) {
	p.EvaluateRange(batch, sel, 0, clampRange(maxRow, batch.Len()))
}

func (p *DoubleCmp) EvaluateRange(batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, start, end int) {
	arr := batch.Column(p.column)
	prefilterNulls(arr, sel)
	base, negate := normalizeOp(p.op)

	switch a := arr.(type) {
	case colquery.Float64Valued:
		values := a.Values()
		applyLanes(sel, start, end, 4, func(i int) bool {
			return compareOrdered(values[i], p.value, base, negate)
		})
	case colquery.Float32Valued:
		values := a.Values()
		narrow := float32(p.value)
		for i := start; i < end; i++ {
			if !compareOrdered(values[i], narrow, base, negate) {
				sel.Clear(i)
			}
		}
	default:
		panic(fmt.Sprintf("kernel: DoubleCmp applied to unsupported array type %v", arr.Type()))
	}
}

func (p *DoubleCmp) EvaluateSingle(batch colquery.RecordBatch, row int) bool {
	arr := batch.Column(p.column)
	if arr.IsNull(row) {
		return false
	}
	base, negate := normalizeOp(p.op)
	switch a := arr.(type) {
	case colquery.Float64Valued:
		return compareOrdered(a.Values()[row], p.value, base, negate)
	case colquery.Float32Valued:
		return compareOrdered(a.Values()[row], float32(p.value), base, negate)
	default:
		panic(fmt.Sprintf("kernel: DoubleCmp applied to unsupported array type %v", arr.Type()))
	}
}

func (p *DoubleCmp) MayContainMatches(stats colquery.ZoneChunkStats) bool {
	return mayContainMatchesOrdered(stats, p.op, p.value, asFloat64)
}

func (p *DoubleCmp) Op() CompareOp { return p.op }

func (p *DoubleCmp) EstimateSelectivity(min, max any) (float64, bool) {
	return estimateOrderedSelectivity(p.op, p.value, min, max, asFloat64)
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

// mayContainMatchesOrdered is the shared zone-map pruning rule for any
// totally-ordered numeric kernel (§4.3): col < v may contain matches
// iff min < v; = requires min <= v <= max; != is never prunable.
func mayContainMatchesOrdered[T int64 | float64](stats colquery.ZoneChunkStats, op CompareOp, value T, coerce func(any) (T, bool)) bool {
	if stats.AllNull {
		return false
	}
	min, okMin := coerce(stats.Min)
	max, okMax := coerce(stats.Max)
	if !okMin || !okMax {
		return true
	}
	switch op {
	case Eq:
		return min <= value && value <= max
	case Ne:
		return true
	case Lt:
		return min < value
	case Le:
		return min <= value
	case Gt:
		return max > value
	case Ge:
		return max >= value
	default:
		return true
	}
}
