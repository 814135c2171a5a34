package kernel

import (
	"fmt"
	"math/big"
	"time"

	"github.com/coldyne/colquery"
	"github.com/coldyne/colquery/bitmap"
)

func decimalToBigFloat(d colquery.Decimal128) *big.Float {
	return new(big.Float).SetInt(d.BigInt())
}

// DecimalCmp compares a Decimal128Array column against a constant.
// Decimal and timestamp columns use scalar (non-vectorized) kernels
// per §4.3 — only the null-prefilter optimization carries over.
type DecimalCmp struct {
	column int
	op     CompareOp
	value  colquery.Decimal128
}

// NewDecimalCmp builds a DecimalCmp against a resolved column index.
// value must already be scaled to match the column's declared scale.
func NewDecimalCmp(column int, op CompareOp, value colquery.Decimal128) *DecimalCmp {
	return &DecimalCmp{column: column, op: op, value: value}
}

func (p *DecimalCmp) ColumnIndex() int { return p.column }

func (p *DecimalCmp) String() string {
	return fmt.Sprintf("col[%d] %s decimal(hi=%d,lo=%d)", p.column, p.op, p.value.Hi, p.value.Lo)
}

func (p *DecimalCmp) evaluate(values []colquery.Decimal128, row int) bool {
	base, negate := normalizeOp(p.op)
	cmp := values[row].Compare(p.value)
	var result bool
	switch base {
	case baseEq:
		result = cmp == 0
	case baseLt:
		result = cmp < 0
	case baseGt:
		result = cmp > 0
	}
	if negate {
		return !result
	}
	return result
}

func (p *DecimalCmp) Evaluate(batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, maxRow int) {
	p.EvaluateRange(batch, sel, 0, clampRange(maxRow, batch.Len()))
}

func (p *DecimalCmp) EvaluateRange(batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, start, end int) {
	arr, ok := batch.Column(p.column).(colquery.Decimal128Valued)
	if !ok {
		panic(fmt.Sprintf("kernel: DecimalCmp applied to non-decimal column %d", p.column))
	}
	prefilterNulls(arr, sel)
	values := arr.Values()
	for i := start; i < end; i++ {
		if !p.evaluate(values, i) {
			sel.Clear(i)
		}
	}
}

func (p *DecimalCmp) EvaluateSingle(batch colquery.RecordBatch, row int) bool {
	arr, ok := batch.Column(p.column).(colquery.Decimal128Valued)
	if !ok {
		panic(fmt.Sprintf("kernel: DecimalCmp applied to non-decimal column %d", p.column))
	}
	if arr.IsNull(row) {
		return false
	}
	return p.evaluate(arr.Values(), row)
}

func (p *DecimalCmp) MayContainMatches(stats colquery.ZoneChunkStats) bool {
	if stats.AllNull {
		return false
	}
	min, okMin := stats.Min.(colquery.Decimal128)
	max, okMax := stats.Max.(colquery.Decimal128)
	if !okMin || !okMax {
		return true
	}
	switch p.op {
	case Eq:
		return min.Compare(p.value) <= 0 && p.value.Compare(max) <= 0
	case Ne:
		return true
	case Lt:
		return min.Compare(p.value) < 0
	case Le:
		return min.Compare(p.value) <= 0
	case Gt:
		return max.Compare(p.value) > 0
	case Ge:
		return max.Compare(p.value) >= 0
	default:
		return true
	}
}

func (p *DecimalCmp) Op() CompareOp { return p.op }

// EstimateSelectivity positions the predicate's constant within
// [min, max] using an approximate big.Float conversion of each
// Decimal128 — sufficient for the reordering heuristic, which only
// needs a rough fraction, not exact decimal arithmetic.
func (p *DecimalCmp) EstimateSelectivity(min, max any) (float64, bool) {
	switch p.op {
	case Eq:
		return 0.01, true
	case Ne:
		return 0.9, true
	}
	loDec, okLo := min.(colquery.Decimal128)
	hiDec, okHi := max.(colquery.Decimal128)
	if !okLo || !okHi {
		return 0.5, false
	}
	lo, hi, v := decimalToBigFloat(loDec), decimalToBigFloat(hiDec), decimalToBigFloat(p.value)
	span := new(big.Float).Sub(hi, lo)
	if span.Sign() <= 0 {
		return 0.5, false
	}
	clamp := func(f float64) float64 {
		if f < 0.01 {
			return 0.01
		}
		if f > 0.99 {
			return 0.99
		}
		return f
	}
	switch p.op {
	case Lt, Le:
		frac, _ := new(big.Float).Quo(new(big.Float).Sub(v, lo), span).Float64()
		return clamp(frac), true
	case Gt, Ge:
		frac, _ := new(big.Float).Quo(new(big.Float).Sub(hi, v), span).Float64()
		return clamp(frac), true
	default:
		return 0.5, false
	}
}

// TimestampCmp compares a TimestampArray column (stored as Unix
// nanoseconds) against a constant instant. The sum type in §3 does not
// enumerate a dedicated timestamp variant, but §4.3 discusses
// timestamp scalar kernels alongside decimal; this kernel fills that
// gap the same way DecimalCmp does, reusing the ordered zone-map rule.
type TimestampCmp struct {
	column int
	op     CompareOp
	value  int64
}

// NewTimestampCmp builds a TimestampCmp from a resolved column index
// and a comparison instant.
func NewTimestampCmp(column int, op CompareOp, value time.Time) *TimestampCmp {
	return &TimestampCmp{column: column, op: op, value: value.UnixNano()}
}

func (p *TimestampCmp) ColumnIndex() int { return p.column }

func (p *TimestampCmp) String() string {
	return fmt.Sprintf("col[%d] %s %s", p.column, p.op, time.Unix(0, p.value).UTC().Format(time.RFC3339Nano))
}

func (p *TimestampCmp) Evaluate(batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, maxRow int) {
	p.EvaluateRange(batch, sel, 0, clampRange(maxRow, batch.Len()))
}

func (p *TimestampCmp) EvaluateRange(batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, start, end int) {
	arr, ok := batch.Column(p.column).(colquery.Int64Valued)
	if !ok {
		panic(fmt.Sprintf("kernel: TimestampCmp applied to non-timestamp column %d", p.column))
	}
	prefilterNulls(arr, sel)
	base, negate := normalizeOp(p.op)
	values := arr.Values()
	for i := start; i < end; i++ {
		if !compareOrdered(values[i], p.value, base, negate) {
			sel.Clear(i)
		}
	}
}

func (p *TimestampCmp) EvaluateSingle(batch colquery.RecordBatch, row int) bool {
	arr, ok := batch.Column(p.column).(colquery.Int64Valued)
	if !ok {
		panic(fmt.Sprintf("kernel: TimestampCmp applied to non-timestamp column %d", p.column))
	}
	if arr.IsNull(row) {
		return false
	}
	base, negate := normalizeOp(p.op)
	return compareOrdered(arr.Values()[row], p.value, base, negate)
}

func (p *TimestampCmp) MayContainMatches(stats colquery.ZoneChunkStats) bool {
	return mayContainMatchesOrdered(stats, p.op, p.value, asInt64)
}

func (p *TimestampCmp) Op() CompareOp { return p.op }

func (p *TimestampCmp) EstimateSelectivity(min, max any) (float64, bool) {
	return estimateOrderedSelectivity(p.op, p.value, min, max, asInt64)
}
