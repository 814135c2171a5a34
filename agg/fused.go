package agg

import (
	"fmt"

	"github.com/coldyne/colquery"
	"github.com/coldyne/colquery/kernel"
)

// Fused runs a single simple aggregate over the rows matching pred,
// walking the value column and the predicate's backing column in
// lockstep via EvaluateSingle — no selection bitmap is allocated. This
// is the fast path for a plan with exactly one aggregate, predicates,
// and no grouping or pagination (§4.5's fused aggregate kernel).
func Fused(op NumericOp, batch colquery.RecordBatch, pred kernel.Predicate, columnIndex int, maxRow int) (any, error) {
	arr := batch.Column(columnIndex)
	end := maxRow
	if end > batch.Len() {
		end = batch.Len()
	}

	switch a := arr.(type) {
	case colquery.Int32Valued:
		values := a.Values()
		return fusedIntegral(op, values, arr, pred, batch, end)
	case colquery.Int64Valued:
		values := a.Values()
		return fusedIntegral(op, values, arr, pred, batch, end)
	case colquery.Float32Valued:
		values := a.Values()
		return fusedFloat(op, values, arr, pred, batch, end)
	case colquery.Float64Valued:
		values := a.Values()
		return fusedFloat(op, values, arr, pred, batch, end)
	case colquery.Decimal128Valued:
		values := a.Values()
		return fusedDecimal(op, values, arr, pred, batch, end)
	default:
		return nil, fmt.Errorf("agg: column %d has no numeric accessor (type %v)", columnIndex, arr.Type())
	}
}

func fusedIntegral[T ~int32 | ~int64](op NumericOp, values []T, arr colquery.ArrowArray, pred kernel.Predicate, batch colquery.RecordBatch, end int) (any, error) {
	var sum int64
	var count int64
	var min, max int64
	hasValue := false

	for i := 0; i < end; i++ {
		if arr.IsNull(i) || !pred.EvaluateSingle(batch, i) {
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

	return reduceIntegral(op, sum, count, min, max, hasValue)
}

func fusedFloat[T ~float32 | ~float64](op NumericOp, values []T, arr colquery.ArrowArray, pred kernel.Predicate, batch colquery.RecordBatch, end int) (any, error) {
	var sum float64
	var count int64
	var min, max float64
	hasValue := false

	for i := 0; i < end; i++ {
		if arr.IsNull(i) || !pred.EvaluateSingle(batch, i) {
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
		return sum, nil
	case AvgOp:
		if !hasValue {
			return nil, colquery.ErrEmptySequence
		}
		return sum / float64(count), nil
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

func fusedDecimal(op NumericOp, values []colquery.Decimal128, arr colquery.ArrowArray, pred kernel.Predicate, batch colquery.RecordBatch, end int) (any, error) {
	sum := colquery.Decimal128{}
	var count int64
	var min, max colquery.Decimal128
	hasValue := false

	for i := 0; i < end; i++ {
		if arr.IsNull(i) || !pred.EvaluateSingle(batch, i) {
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

func reduceIntegral(op NumericOp, sum, count, min, max int64, hasValue bool) (any, error) {
	switch op {
	case SumOp:
		return sum, nil
	case AvgOp:
		if !hasValue {
			return nil, colquery.ErrEmptySequence
		}
		return float64(sum) / float64(count), nil
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
