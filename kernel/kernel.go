// Package kernel implements the per-type vectorized predicate
// evaluators described in the engine's predicate-kernel component: one
// kernel per ColumnPredicate variant, each exposing full-range,
// sub-range, and single-row evaluation plus a conservative zone-map
// pruning check.
package kernel

import (
	"fmt"

	"github.com/coldyne/colquery"
	"github.com/coldyne/colquery/bitmap"
)

// CompareOp enumerates the six comparison operators a predicate may
// carry.
type CompareOp int

const (
	Eq CompareOp = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

func (op CompareOp) String() string {
	switch op {
	case Eq:
		return "="
	case Ne:
		return "!="
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// baseOp is one of the three comparisons every ordered CompareOp
// reduces to, per the "resolve once, outside the loop" kernel
// contract: every one of the six comparisons is representable as a
// (base, negate) pair, e.g. <= is ~Gt, >= is ~Lt, != is ~Eq.
type baseOp int

const (
	baseEq baseOp = iota
	baseLt
	baseGt
)

// normalizeOp resolves op into a base comparison plus a negation flag,
// done once per predicate evaluation rather than per row.
func normalizeOp(op CompareOp) (base baseOp, negate bool) {
	switch op {
	case Eq:
		return baseEq, false
	case Ne:
		return baseEq, true
	case Lt:
		return baseLt, false
	case Ge:
		return baseLt, true
	case Gt:
		return baseGt, false
	case Le:
		return baseGt, true
	default:
		panic(fmt.Sprintf("kernel: unknown CompareOp %d", int(op)))
	}
}

func compareOrdered[T ~int32 | ~int64 | ~float32 | ~float64](a, b T, base baseOp, negate bool) bool {
	var result bool
	switch base {
	case baseEq:
		result = a == b
	case baseLt:
		result = a < b
	case baseGt:
		result = a > b
	}
	if negate {
		return !result
	}
	return result
}

// Predicate is the common contract every ColumnPredicate kernel
// satisfies: evaluation over a full batch, a sub-range, and a single
// row, plus zone-map-informed pruning.
type Predicate interface {
	// ColumnIndex returns the resolved column this predicate reads.
	ColumnIndex() int
	// String renders the predicate for Explain output.
	String() string
	// Evaluate ANDs this predicate's result into sel for every row in
	// [0, maxRow).
	Evaluate(batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, maxRow int)
	// EvaluateRange is Evaluate restricted to [start, end).
	EvaluateRange(batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, start, end int)
	// EvaluateSingle evaluates the predicate for exactly row i, without
	// a selection bitmap; used by the fused execution paths.
	EvaluateSingle(batch colquery.RecordBatch, row int) bool
	// MayContainMatches is a conservative zone-map pruning check: false
	// means the chunk is guaranteed to contribute no selected rows.
	MayContainMatches(stats colquery.ZoneChunkStats) bool
}

// OrderedPredicate is implemented by every totally-ordered comparison
// kernel (Int32Cmp, DoubleCmp, DecimalCmp, TimestampCmp). The zonemap
// package uses it for selectivity estimation and predicate reordering
// without needing to type-switch on every concrete kernel type.
type OrderedPredicate interface {
	Predicate
	Op() CompareOp
	// EstimateSelectivity returns a conservative [0.01, 0.99] estimate
	// of how many rows satisfy this predicate, given the column's
	// cached global min/max, or ok=false if min/max could not be
	// interpreted as this predicate's value type.
	EstimateSelectivity(min, max any) (estimate float64, ok bool)
}

// estimateOrderedSelectivity implements §4.6's rule: position the
// constant within [min, max], clamped to [0.01, 0.99]; equality is
// conservatively 0.01, not-equal is 0.9.
func estimateOrderedSelectivity[T int64 | float64](op CompareOp, value T, min, max any, coerce func(any) (T, bool)) (float64, bool) {
	switch op {
	case Eq:
		return 0.01, true
	case Ne:
		return 0.9, true
	}
	lo, okLo := coerce(min)
	hi, okHi := coerce(max)
	if !okLo || !okHi || hi <= lo {
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
	span := float64(hi - lo)
	switch op {
	case Lt, Le:
		return clamp(float64(value-lo) / span), true
	case Gt, Ge:
		return clamp(float64(hi-value) / span), true
	default:
		return 0.5, false
	}
}

// applyLanes evaluates test(i) for every row in [start, end) and ANDs
// the results into sel, using lane-wide masked writes where alignment
// allows and a scalar loop for the unaligned head and tail. lane must
// be 8 or 4, matching SelectionBitmap's and_mask_8/and_mask_4.
func applyLanes(sel *bitmap.SelectionBitmap, start, end, lane int, test func(i int) bool) {
	i := start
	for i < end && i%lane != 0 {
		if !test(i) {
			sel.Clear(i)
		}
		i++
	}
	for i+lane <= end {
		var mask uint8
		for k := 0; k < lane; k++ {
			if test(i + k) {
				mask |= 1 << uint(k)
			}
		}
		if lane == 8 {
			sel.AndMask8(i, mask)
		} else {
			sel.AndMask4(i, mask)
		}
		i += lane
	}
	for i < end {
		if !test(i) {
			sel.Clear(i)
		}
		i++
	}
}

// prefilterNulls bulk-ANDs sel with arr's validity bitmap when arr has
// any nulls, reporting whether it did so. Rows cleared this way stay
// cleared through any subsequent AND, so a kernel that calls this does
// not need a per-row null check afterward.
func prefilterNulls(arr colquery.ArrowArray, sel *bitmap.SelectionBitmap) bool {
	if arr.NullCount() == 0 {
		return false
	}
	sel.AndWithArrowValidity(arr.NullBitmapBytes())
	return true
}

func clampRange(maxRow int, batchLen int) int {
	if maxRow < 0 || maxRow > batchLen {
		return batchLen
	}
	return maxRow
}
