// Package agg implements the simple, fused, and grouped aggregation
// kernels of §4.5: associative Sum/Avg/Min/Max accumulators driven by
// block-based bitmap iteration, a fused value+predicate walk that
// skips materializing a selection bitmap, and a grouped accumulator
// keyed by a dictionary-coded group column.
package agg

import (
	"fmt"
	"math/big"

	"github.com/coldyne/colquery"
	"github.com/coldyne/colquery/bitmap"
)

// NumericOp names a simple aggregate function over a single column.
type NumericOp int

const (
	SumOp NumericOp = iota
	AvgOp
	MinOp
	MaxOp
)

func (op NumericOp) String() string {
	switch op {
	case SumOp:
		return "sum"
	case AvgOp:
		return "avg"
	case MinOp:
		return "min"
	case MaxOp:
		return "max"
	default:
		return fmt.Sprintf("numericop(%d)", int(op))
	}
}

// Compute runs a simple aggregate over the rows selected by sel,
// dispatching on the column's concrete accessor interface. If
// nullsPreApplied is true the selection is assumed to already exclude
// null rows (via AndWithArrowValidity) and the per-row null check is
// skipped; otherwise every row is checked with arr.IsNull.
//
// Sum on an empty selection returns the zero value of the result type.
// Avg/Min/Max on an empty selection return colquery.ErrEmptySequence.
func Compute(op NumericOp, batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, columnIndex int, nullsPreApplied bool) (any, error) {
	arr := batch.Column(columnIndex)
	skipNullCheck := nullsPreApplied || arr.NullCount() == 0

	switch a := arr.(type) {
	case colquery.Int32Valued:
		return computeIntegral(op, a.Values(), arr, sel, skipNullCheck, func(v int64) any { return v })
	case colquery.Int64Valued:
		return computeIntegral(op, a.Values(), arr, sel, skipNullCheck, func(v int64) any { return v })
	case colquery.Float32Valued:
		return computeFloat(op, a.Values(), arr, sel, skipNullCheck, func(v float64) any { return v })
	case colquery.Float64Valued:
		return computeFloat(op, a.Values(), arr, sel, skipNullCheck, func(v float64) any { return v })
	case colquery.Decimal128Valued:
		return computeDecimal(op, a.Values(), arr, sel, skipNullCheck)
	default:
		return nil, fmt.Errorf("agg: column %d has no numeric accessor (type %v)", columnIndex, arr.Type())
	}
}

// computeIntegral runs Sum/Avg/Min/Max over an integer-valued column
// widened to int64 (the associative accumulator type per §4.5), for
// any T ~int32|~int64 source slice.
func computeIntegral[T ~int32 | ~int64](op NumericOp, values []T, arr colquery.ArrowArray, sel *bitmap.SelectionBitmap, skipNullCheck bool, wrap func(int64) any) (any, error) {
	var sum int64
	var count int64
	var min, max int64
	hasValue := false

	it := sel.Iterator()
	for {
		i, ok := it.Next()
		if !ok {
			break
		}
		if !skipNullCheck && arr.IsNull(i) {
			continue
		}
		v := int64(values[i])
		sum += v
		count++
		if !hasValue || v < min {
			min = v
		}
		if !hasValue || v > max {
			max = v
		}
		hasValue = true
	}

	switch op {
	case SumOp:
		return wrap(sum), nil
	case AvgOp:
		if !hasValue {
			return nil, colquery.ErrEmptySequence
		}
		return float64(sum) / float64(count), nil
	case MinOp:
		if !hasValue {
			return nil, colquery.ErrEmptySequence
		}
		return wrap(min), nil
	case MaxOp:
		if !hasValue {
			return nil, colquery.ErrEmptySequence
		}
		return wrap(max), nil
	default:
		return nil, fmt.Errorf("agg: unsupported numeric op %v", op)
	}
}

// computeFloat is computeIntegral's floating-point analog, widened to
// float64 for accumulation regardless of the source column's width.
func computeFloat[T ~float32 | ~float64](op NumericOp, values []T, arr colquery.ArrowArray, sel *bitmap.SelectionBitmap, skipNullCheck bool, wrap func(float64) any) (any, error) {
	var sum float64
	var count int64
	var min, max float64
	hasValue := false

	it := sel.Iterator()
	for {
		i, ok := it.Next()
		if !ok {
			break
		}
		if !skipNullCheck && arr.IsNull(i) {
			continue
		}
		v := float64(values[i])
		sum += v
		count++
		if !hasValue || v < min {
			min = v
		}
		if !hasValue || v > max {
			max = v
		}
		hasValue = true
	}

	switch op {
	case SumOp:
		return wrap(sum), nil
	case AvgOp:
		if !hasValue {
			return nil, colquery.ErrEmptySequence
		}
		return sum / float64(count), nil
	case MinOp:
		if !hasValue {
			return nil, colquery.ErrEmptySequence
		}
		return wrap(min), nil
	case MaxOp:
		if !hasValue {
			return nil, colquery.ErrEmptySequence
		}
		return wrap(max), nil
	default:
		return nil, fmt.Errorf("agg: unsupported numeric op %v", op)
	}
}

// computeDecimal is the bespoke Decimal128 path: Sum accumulates via
// Decimal128.Add (128-bit two's-complement addition), Avg divides the
// accumulated big.Int sum by count as a float64 (the declared scale is
// the caller's concern when formatting the result), and Min/Max use
// Decimal128.Compare.
func computeDecimal(op NumericOp, values []colquery.Decimal128, arr colquery.ArrowArray, sel *bitmap.SelectionBitmap, skipNullCheck bool) (any, error) {
	sum := colquery.Decimal128{}
	var count int64
	var min, max colquery.Decimal128
	hasValue := false

	it := sel.Iterator()
	for {
		i, ok := it.Next()
		if !ok {
			break
		}
		if !skipNullCheck && arr.IsNull(i) {
			continue
		}
		v := values[i]
		sum = sum.Add(v)
		count++
		if !hasValue || v.Compare(min) < 0 {
			min = v
		}
		if !hasValue || v.Compare(max) > 0 {
			max = v
		}
		hasValue = true
	}

	switch op {
	case SumOp:
		return sum, nil
	case AvgOp:
		if !hasValue {
			return nil, colquery.ErrEmptySequence
		}
		return decimalAvgFloat(sum, count), nil
	case MinOp:
		if !hasValue {
			return nil, colquery.ErrEmptySequence
		}
		return min, nil
	case MaxOp:
		if !hasValue {
			return nil, colquery.ErrEmptySequence
		}
		return max, nil
	default:
		return nil, fmt.Errorf("agg: unsupported numeric op %v", op)
	}
}

// decimalAvgFloat divides an accumulated Decimal128 sum by count,
// converting through big.Float since the quotient is not in general a
// 128-bit decimal. The result is in the column's unscaled units; the
// column's scale is not applied here.
func decimalAvgFloat(sum colquery.Decimal128, count int64) float64 {
	sumFloat, _ := new(big.Float).SetInt(sum.BigInt()).Float64()
	return sumFloat / float64(count)
}
