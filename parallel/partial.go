package parallel

import (
	"fmt"
	"math/big"

	"github.com/coldyne/colquery"
	"github.com/coldyne/colquery/agg"
	"github.com/coldyne/colquery/bitmap"
)

// numericKind tags which of partial's three accumulator lanes is
// active, mirroring agg's internal columnKind but kept local since
// agg does not export its own.
type numericKind int

const (
	kindInt64 numericKind = iota
	kindFloat64
	kindDecimal
)

// partial is one range's associative aggregate accumulator: two
// partials combine by summing counts/sums and taking the
// element-wise min/max, independent of how the row range was split.
type partial struct {
	kind             numericKind
	sumI, minI, maxI int64
	sumF, minF, maxF float64
	sumD, minD, maxD colquery.Decimal128
	count            int64
	hasValue         bool
}

func combine(a, b partial) partial {
	if !a.hasValue {
		return b
	}
	if !b.hasValue {
		return a
	}
	out := a
	out.count += b.count
	switch a.kind {
	case kindFloat64:
		out.sumF += b.sumF
		if b.minF < out.minF {
			out.minF = b.minF
		}
		if b.maxF > out.maxF {
			out.maxF = b.maxF
		}
	case kindDecimal:
		out.sumD = out.sumD.Add(b.sumD)
		if b.minD.Compare(out.minD) < 0 {
			out.minD = b.minD
		}
		if b.maxD.Compare(out.maxD) > 0 {
			out.maxD = b.maxD
		}
	default:
		out.sumI += b.sumI
		if b.minI < out.minI {
			out.minI = b.minI
		}
		if b.maxI > out.maxI {
			out.maxI = b.maxI
		}
	}
	return out
}

func reduce(op agg.NumericOp, p partial) (any, error) {
	switch op {
	case agg.SumOp:
		switch p.kind {
		case kindFloat64:
			return p.sumF, nil
		case kindDecimal:
			return p.sumD, nil
		default:
			return p.sumI, nil
		}
	case agg.AvgOp:
		if !p.hasValue {
			return nil, colquery.ErrEmptySequence
		}
		switch p.kind {
		case kindFloat64:
			return p.sumF / float64(p.count), nil
		case kindDecimal:
			// Same unscaled float64 average agg.Compute returns for decimals.
			sum, _ := new(big.Float).SetInt(p.sumD.BigInt()).Float64()
			return sum / float64(p.count), nil
		default:
			return float64(p.sumI) / float64(p.count), nil
		}
	case agg.MinOp:
		if !p.hasValue {
			return nil, colquery.ErrEmptySequence
		}
		switch p.kind {
		case kindFloat64:
			return p.minF, nil
		case kindDecimal:
			return p.minD, nil
		default:
			return p.minI, nil
		}
	case agg.MaxOp:
		if !p.hasValue {
			return nil, colquery.ErrEmptySequence
		}
		switch p.kind {
		case kindFloat64:
			return p.maxF, nil
		case kindDecimal:
			return p.maxD, nil
		default:
			return p.maxI, nil
		}
	default:
		return nil, fmt.Errorf("parallel: unsupported numeric op %v", op)
	}
}

// numericReader resolves a column to a per-row reader function plus
// the backing array (needed for null checks), mirroring the dispatch
// agg.Compute performs internally.
func numericReader(batch colquery.RecordBatch, columnIndex int) (func(i int) partial, colquery.ArrowArray, error) {
	arr := batch.Column(columnIndex)
	switch a := arr.(type) {
	case colquery.Int32Valued:
		vals := a.Values()
		return func(i int) partial {
			v := int64(vals[i])
			return partial{kind: kindInt64, sumI: v, minI: v, maxI: v, count: 1, hasValue: true}
		}, arr, nil
	case colquery.Int64Valued:
		vals := a.Values()
		return func(i int) partial {
			v := vals[i]
			return partial{kind: kindInt64, sumI: v, minI: v, maxI: v, count: 1, hasValue: true}
		}, arr, nil
	case colquery.Float32Valued:
		vals := a.Values()
		return func(i int) partial {
			v := float64(vals[i])
			return partial{kind: kindFloat64, sumF: v, minF: v, maxF: v, count: 1, hasValue: true}
		}, arr, nil
	case colquery.Float64Valued:
		vals := a.Values()
		return func(i int) partial {
			v := vals[i]
			return partial{kind: kindFloat64, sumF: v, minF: v, maxF: v, count: 1, hasValue: true}
		}, arr, nil
	case colquery.Decimal128Valued:
		vals := a.Values()
		return func(i int) partial {
			v := vals[i]
			return partial{kind: kindDecimal, sumD: v, minD: v, maxD: v, count: 1, hasValue: true}
		}, arr, nil
	default:
		return nil, nil, fmt.Errorf("parallel: column %d has no numeric accessor (type %v)", columnIndex, arr.Type())
	}
}

// computePartial folds reader over every selected row in [lo, hi),
// skipping null rows when the array carries a validity bitmap.
func computePartial(reader func(i int) partial, arr colquery.ArrowArray, sel *bitmap.SelectionBitmap, lo, hi int) partial {
	var acc partial
	skipNullCheck := arr.NullCount() == 0
	for i := lo; i < hi; i++ {
		if !sel.Get(i) {
			continue
		}
		if !skipNullCheck && arr.IsNull(i) {
			continue
		}
		acc = combine(acc, reader(i))
	}
	return acc
}
