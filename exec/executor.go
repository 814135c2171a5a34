// Package exec chooses and runs one of the four execution paths over
// a resolved plan.QueryPlan (§4.4): streaming short-circuit for
// existence/single-element shapes, the fused aggregate kernel for a
// lone simple aggregate, sparse index collection for highly selective
// predicates, and the dense selection bitmap as the general fallback.
package exec

import (
	"time"

	"github.com/coldyne/colquery"
	"github.com/coldyne/colquery/agg"
	"github.com/coldyne/colquery/bitmap"
	"github.com/coldyne/colquery/kernel"
	"github.com/coldyne/colquery/plan"
)

// Options carries the result-shape-specific inputs Execute needs
// beyond the plan itself: which column a scalar aggregate reads, and
// the group-by/grouped-aggregate descriptors for grouped shapes.
type Options struct {
	ValueColumn     string
	GroupKeyColumn  string
	KeyPropertyName string
	Descriptors     []plan.AggregationDescriptor

	// ChunkSize is the streaming short-circuit path's sweep
	// granularity. Zero selects the default of 16384.
	ChunkSize int
	// SparseSelectivityThreshold gates the sparse-indices path. Zero
	// selects the default of 0.05.
	SparseSelectivityThreshold float64

	Pool      *bitmap.Pool
	Annotator Annotator

	// StrictMode mirrors colquery.Config.StrictMode: when true (the
	// Options zero value's effective default, via strictMode()),
	// Execute rejects a plan the analyzer could not fully optimize with
	// UnsupportedExpressionError. Set to false only by a caller that
	// also implements the lenient-mode row-by-row fallback described in
	// §6 — Execute itself has no row-by-row interpreter to fall back
	// to, since the user-facing lambda it would re-run is external.
	StrictMode *bool
}

const (
	defaultChunkSize       = 16384
	defaultSparseThreshold = 0.05
)

func (o Options) chunkSize() int {
	if o.ChunkSize > 0 {
		return o.ChunkSize
	}
	return defaultChunkSize
}

func (o Options) sparseThreshold() float64 {
	if o.SparseSelectivityThreshold > 0 {
		return o.SparseSelectivityThreshold
	}
	return defaultSparseThreshold
}

func (o Options) strictMode() bool {
	if o.StrictMode == nil {
		return true
	}
	return *o.StrictMode
}

func (o Options) annotator() Annotator {
	if o.Annotator == nil {
		return noopAnnotator{}
	}
	return o.Annotator
}

// Execute runs qp against batch for the requested shape, choosing a
// path per §4.4, and returns a shape-appropriate Go value:
//   - ShapeEnumerable: []int (selected row indices, paginated)
//   - ShapeFirst/FirstOrDefault/Single/SingleOrDefault: int (the matching
//     row index; -1 for the OrDefault shapes when nothing matches)
//   - ShapeAny/ShapeAll: bool
//   - ShapeCount: int, ShapeLongCount: int64
//   - ShapeSum/Avg/Min/Max: any (delegates to agg.Compute's result type)
//   - ShapeGrouped/ShapeToDictionary: *agg.GroupedResult
func Execute(batch colquery.RecordBatch, qp *plan.QueryPlan, shape ResultShape, opts Options) (any, error) {
	ann := opts.annotator()
	start := time.Now()
	defer emit(ann, EventQueryComplete, start, map[string]any{"shape": shape.String()})

	if !qp.IsFullyOptimized && opts.strictMode() {
		return nil, &colquery.UnsupportedExpressionError{Reason: qp.UnsupportedReason}
	}

	if shape == ShapeGrouped || shape == ShapeToDictionary {
		return executeGrouped(batch, qp, shape, opts)
	}

	if shape == ShapeSum || shape == ShapeAvg || shape == ShapeMin || shape == ShapeMax {
		if canFuse(qp) {
			return executeFused(batch, qp, shape, opts)
		}
	}

	if shape.isStreamingEligible() && qp.Skip == nil && len(qp.Predicates) > 0 {
		return executeStreaming(batch, qp, shape, opts)
	}

	if shape == ShapeEnumerable && len(qp.Predicates) > 0 && qp.EstimatedSelectivity < opts.sparseThreshold() {
		return executeSparse(batch, qp, opts), nil
	}

	return executeDense(batch, qp, shape, opts)
}

// executeSparse implements §4.4 item 3: for highly selective plans,
// collect matching row indices directly by scalar scan instead of
// materializing a bitmap, stopping early once skip+take indices have
// been collected for a paginated enumeration.
func executeSparse(batch colquery.RecordBatch, qp *plan.QueryPlan, opts Options) []int {
	emit(opts.annotator(), EventPathChosen, time.Now(), map[string]any{"path": "sparse"})
	pred := conjoin(qp.Predicates)
	end := qp.MaxRowToEvaluate(batch.Len())
	if end < 0 {
		end = batch.Len()
	}
	start := qp.StartRowToEvaluate()

	limit := -1
	if qp.TakeAfterPredicates != nil {
		limit = *qp.TakeAfterPredicates
		if qp.Skip != nil {
			limit += *qp.Skip
		}
	}

	indices := make([]int, 0)
	for i := start; i < end; i++ {
		if pred.EvaluateSingle(batch, i) {
			indices = append(indices, i)
			if limit >= 0 && len(indices) >= limit {
				break
			}
		}
	}
	if qp.PaginationBeforePredicates {
		return applyOuterOnly(indices, qp)
	}
	return applyPagination(indices, qp)
}

// canFuse reports whether the fused aggregate path of §4.4's item 2
// applies: exactly one simple aggregate, at least one predicate, and
// no grouping or pagination.
func canFuse(qp *plan.QueryPlan) bool {
	return qp.SimpleAggregate != nil &&
		len(qp.Predicates) > 0 &&
		qp.GroupByColumn == "" &&
		qp.Skip == nil && qp.TakeBeforePredicates == nil && qp.TakeAfterPredicates == nil
}

func conjoin(predicates []kernel.Predicate) kernel.Predicate {
	if len(predicates) == 1 {
		return predicates[0]
	}
	return kernel.NewAnd(predicates...)
}

func numericOpOf(op plan.AggOp) agg.NumericOp {
	switch op {
	case plan.Avg:
		return agg.AvgOp
	case plan.Min:
		return agg.MinOp
	case plan.Max:
		return agg.MaxOp
	default:
		return agg.SumOp
	}
}

func executeFused(batch colquery.RecordBatch, qp *plan.QueryPlan, shape ResultShape, opts Options) (any, error) {
	emit(opts.annotator(), EventPathChosen, time.Now(), map[string]any{"path": "fused"})
	ci, ok := batch.Schema().IndexOf(qp.SimpleAggregate.ColumnName)
	if !ok {
		return nil, &colquery.ColumnNotFoundError{Name: qp.SimpleAggregate.ColumnName}
	}
	pred := conjoin(qp.Predicates)
	maxRow := qp.MaxRowToEvaluate(batch.Len())
	if maxRow < 0 {
		maxRow = batch.Len()
	}
	result, err := agg.Fused(numericOpOf(shapeToAggOp(shape)), batch, pred, ci, maxRow)
	emit(opts.annotator(), EventAggregateDone, time.Now(), map[string]any{"op": shape.String(), "result": result})
	return result, err
}

func shapeToAggOp(shape ResultShape) plan.AggOp {
	switch shape {
	case ShapeAvg:
		return plan.Avg
	case ShapeMin:
		return plan.Min
	case ShapeMax:
		return plan.Max
	default:
		return plan.Sum
	}
}

func executeGrouped(batch colquery.RecordBatch, qp *plan.QueryPlan, shape ResultShape, opts Options) (any, error) {
	emit(opts.annotator(), EventPathChosen, time.Now(), map[string]any{"path": "grouped"})
	sel, err := buildBitmap(batch, qp, opts)
	if err != nil {
		return nil, err
	}
	defer sel.Release()

	ci, ok := batch.Schema().IndexOf(opts.GroupKeyColumn)
	if !ok {
		return nil, &colquery.ColumnNotFoundError{Name: opts.GroupKeyColumn}
	}
	descriptors := opts.Descriptors
	if shape == ShapeToDictionary && qp.ToDictionaryValueAggregation != nil {
		descriptors = []plan.AggregationDescriptor{*qp.ToDictionaryValueAggregation}
	}
	return agg.Group(batch, sel, ci, opts.KeyPropertyName, descriptors)
}

// executeStreaming implements §4.4's streaming short-circuit path: a
// chunked, early-exiting scan for Any/First(OrDefault)/Single(OrDefault).
func executeStreaming(batch colquery.RecordBatch, qp *plan.QueryPlan, shape ResultShape, opts Options) (any, error) {
	emit(opts.annotator(), EventPathChosen, time.Now(), map[string]any{"path": "streaming"})
	pred := conjoin(qp.Predicates)
	end := qp.MaxRowToEvaluate(batch.Len())
	if end < 0 {
		end = batch.Len()
	}
	chunk := opts.chunkSize()

	sel := newChunkBitmap(opts.Pool, end)
	defer sel.Release()

	matches := make([]int, 0, 2)
	for lo := 0; lo < end; lo += chunk {
		hi := lo + chunk
		if hi > end {
			hi = end
		}
		pred.EvaluateRange(batch, sel, lo, hi)
		it := sel.Iterator()
		for {
			i, ok := it.Next()
			if !ok {
				break
			}
			if i < lo || i >= hi {
				continue
			}
			matches = append(matches, i)
			if shape == ShapeAny || shape == ShapeFirst || shape == ShapeFirstOrDefault {
				return shapeScalarResult(shape, matches)
			}
			if len(matches) >= 2 {
				return shapeScalarResult(shape, matches)
			}
		}
	}
	return shapeScalarResult(shape, matches)
}

func shapeScalarResult(shape ResultShape, matches []int) (any, error) {
	switch shape {
	case ShapeAny:
		return len(matches) > 0, nil
	case ShapeFirst:
		if len(matches) == 0 {
			return nil, colquery.ErrEmptySequence
		}
		return matches[0], nil
	case ShapeFirstOrDefault:
		if len(matches) == 0 {
			return -1, nil
		}
		return matches[0], nil
	case ShapeSingle:
		if len(matches) == 0 {
			return nil, colquery.ErrEmptySequence
		}
		if len(matches) > 1 {
			return nil, colquery.ErrMultipleElements
		}
		return matches[0], nil
	case ShapeSingleOrDefault:
		if len(matches) == 0 {
			return -1, nil
		}
		if len(matches) > 1 {
			return nil, colquery.ErrMultipleElements
		}
		return matches[0], nil
	default:
		return nil, &colquery.UnsupportedResultShapeError{Shape: shape.String()}
	}
}

// newChunkBitmap allocates a full-length bitmap starting all-ones:
// kernel predicates only clear bits, so EvaluateRange needs every bit
// of the evaluated range set beforehand. The caller restricts
// iteration to [lo, hi).
func newChunkBitmap(pool *bitmap.Pool, n int) *bitmap.SelectionBitmap {
	return bitmap.NewAllOnes(pool, n)
}

// buildBitmap constructs the dense selection bitmap per §4.4 item 4:
// pagination-before-predicates seeds only [start_row, end_row), else
// all bits start set, then every predicate is applied in order.
func buildBitmap(batch colquery.RecordBatch, qp *plan.QueryPlan, opts Options) (*bitmap.SelectionBitmap, error) {
	n := batch.Len()
	var sel *bitmap.SelectionBitmap
	if qp.PaginationBeforePredicates {
		end := qp.MaxRowToEvaluate(n)
		start := qp.StartRowToEvaluate()
		sel = bitmap.NewAllZeros(opts.Pool, n)
		for i := start; i < end; i++ {
			sel.Set(i)
		}
	} else {
		sel = bitmap.NewAllOnes(opts.Pool, n)
	}

	maxRow := qp.MaxRowToEvaluate(n)
	if maxRow < 0 {
		maxRow = n
	}
	for _, p := range qp.Predicates {
		p.Evaluate(batch, sel, maxRow)
	}
	return sel, nil
}

// executeDense is §4.4's default path: build the dense bitmap, then
// dispatch on result shape.
func executeDense(batch colquery.RecordBatch, qp *plan.QueryPlan, shape ResultShape, opts Options) (any, error) {
	emit(opts.annotator(), EventPathChosen, time.Now(), map[string]any{"path": "dense"})
	sel, err := buildBitmap(batch, qp, opts)
	if err != nil {
		return nil, err
	}
	defer sel.Release()

	emit(opts.annotator(), EventPredicateEval, time.Now(), map[string]any{
		"selected": sel.Popcount(), "total": sel.Len(),
	})

	switch shape {
	case ShapeEnumerable:
		return enumerate(sel, qp), nil
	case ShapeFirst, ShapeFirstOrDefault, ShapeSingle, ShapeSingleOrDefault:
		return singleElement(sel, qp, shape)
	case ShapeCount:
		return countResult(sel, qp), nil
	case ShapeLongCount:
		return int64(countResult(sel, qp)), nil
	case ShapeAny:
		return sel.Any(), nil
	case ShapeAll:
		return sel.All(), nil
	case ShapeSum, ShapeAvg, ShapeMin, ShapeMax:
		ci, ok := batch.Schema().IndexOf(opts.ValueColumn)
		if !ok {
			return nil, &colquery.ColumnNotFoundError{Name: opts.ValueColumn}
		}
		result, err := agg.Compute(numericOpOf(shapeToAggOp(shape)), batch, sel, ci, false)
		emit(opts.annotator(), EventAggregateDone, time.Now(), map[string]any{"op": shape.String(), "result": result})
		return result, err
	default:
		return nil, &colquery.UnsupportedResultShapeError{Shape: shape.String()}
	}
}

// enumerate materializes selected indices and applies pagination
// (§4.4's apply_pagination): outer skip/take always applies; inner
// pagination, if already baked into the bitmap via
// pagination_before_predicates, is not reapplied.
func enumerate(sel *bitmap.SelectionBitmap, qp *plan.QueryPlan) []int {
	indices := sel.Indices()
	if qp.PaginationBeforePredicates {
		return applyOuterOnly(indices, qp)
	}
	return applyPagination(indices, qp)
}

func applyPagination(indices []int, qp *plan.QueryPlan) []int {
	if qp.Skip != nil {
		skip := *qp.Skip
		if skip >= len(indices) {
			return nil
		}
		indices = indices[skip:]
	}
	if qp.TakeAfterPredicates != nil && *qp.TakeAfterPredicates < len(indices) {
		indices = indices[:*qp.TakeAfterPredicates]
	}
	return indices
}

func applyOuterOnly(indices []int, qp *plan.QueryPlan) []int {
	if qp.TakeAfterPredicates != nil && *qp.TakeAfterPredicates < len(indices) {
		indices = indices[:*qp.TakeAfterPredicates]
	}
	return indices
}

func singleElement(sel *bitmap.SelectionBitmap, qp *plan.QueryPlan, shape ResultShape) (any, error) {
	indices := enumerate(sel, qp)
	return shapeScalarResult(shape, indices)
}

func countResult(sel *bitmap.SelectionBitmap, qp *plan.QueryPlan) int {
	total := sel.Popcount()
	skip := 0
	if qp.Skip != nil {
		skip = *qp.Skip
	}
	total -= skip
	if total < 0 {
		total = 0
	}
	if qp.TakeAfterPredicates != nil && *qp.TakeAfterPredicates < total {
		total = *qp.TakeAfterPredicates
	}
	return total
}
