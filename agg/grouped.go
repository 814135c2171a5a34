package agg

import (
	"fmt"

	"github.com/coldyne/colquery"
	"github.com/coldyne/colquery/bitmap"
	"github.com/coldyne/colquery/plan"
)

// columnKind tags which of a slotAccum's three accumulator lanes
// (widened-integer, widened-float, Decimal128) is active, decided by
// the first row observed for that slot's column.
type columnKind int

const (
	kindInt64 columnKind = iota
	kindFloat64
	kindDecimal
)

// numericValue is a column value read generically across the integer,
// float, and decimal families, tagged with which field is populated.
type numericValue struct {
	kind columnKind
	i    int64
	f    float64
	d    colquery.Decimal128
}

func readNumericColumn(batch colquery.RecordBatch, columnIndex int) (func(i int) numericValue, error) {
	arr := batch.Column(columnIndex)
	switch a := arr.(type) {
	case colquery.Int32Valued:
		vals := a.Values()
		return func(i int) numericValue { return numericValue{kind: kindInt64, i: int64(vals[i])} }, nil
	case colquery.Int64Valued:
		vals := a.Values()
		return func(i int) numericValue { return numericValue{kind: kindInt64, i: vals[i]} }, nil
	case colquery.Float32Valued:
		vals := a.Values()
		return func(i int) numericValue { return numericValue{kind: kindFloat64, f: float64(vals[i])} }, nil
	case colquery.Float64Valued:
		vals := a.Values()
		return func(i int) numericValue { return numericValue{kind: kindFloat64, f: vals[i]} }, nil
	case colquery.Decimal128Valued:
		vals := a.Values()
		return func(i int) numericValue { return numericValue{kind: kindDecimal, d: vals[i]} }, nil
	default:
		return nil, fmt.Errorf("agg: column %d has no numeric accessor (type %v)", columnIndex, arr.Type())
	}
}

// readGroupKey resolves a group-by column to a function producing a
// comparable Go value per row, suitable as a map key. Dictionary
// columns decode through their dictionary so the key is the logical
// value (e.g. the decoded string), not the raw dictionary index.
func readGroupKey(batch colquery.RecordBatch, columnIndex int) (func(i int) any, error) {
	arr := batch.Column(columnIndex)
	switch a := arr.(type) {
	case colquery.DictionaryValued:
		if sv, ok := a.Dictionary().(colquery.StringValued); ok {
			return func(i int) any { return sv.Value(a.IndexAt(i)) }, nil
		}
		return func(i int) any { return a.IndexAt(i) }, nil
	case colquery.StringValued:
		return func(i int) any { return a.Value(i) }, nil
	case colquery.Int32Valued:
		vals := a.Values()
		return func(i int) any { return int64(vals[i]) }, nil
	case colquery.Int64Valued:
		vals := a.Values()
		return func(i int) any { return vals[i] }, nil
	case colquery.BooleanValued:
		bits := a.Bits()
		return func(i int) any { return groupBitSet(bits, i) }, nil
	default:
		return nil, fmt.Errorf("agg: column %d cannot be used as a group key (type %v)", columnIndex, arr.Type())
	}
}

func groupBitSet(bits []byte, i int) bool {
	byteIdx, bitIdx := i/8, uint(i%8)
	if byteIdx >= len(bits) {
		return false
	}
	return bits[byteIdx]&(1<<bitIdx) != 0
}

// slotAccum is one AggregationDescriptor's running accumulator within
// a single group.
type slotAccum struct {
	op             plan.AggOp
	kind           columnKind
	sumI, minI, maxI int64
	sumF, minF, maxF float64
	sumD, minD, maxD colquery.Decimal128
	count          int64
	hasValue       bool
}

func (s *slotAccum) update(v numericValue) {
	s.kind = v.kind
	switch v.kind {
	case kindInt64:
		s.sumI += v.i
		if !s.hasValue || v.i < s.minI {
			s.minI = v.i
		}
		if !s.hasValue || v.i > s.maxI {
			s.maxI = v.i
		}
	case kindFloat64:
		s.sumF += v.f
		if !s.hasValue || v.f < s.minF {
			s.minF = v.f
		}
		if !s.hasValue || v.f > s.maxF {
			s.maxF = v.f
		}
	case kindDecimal:
		s.sumD = s.sumD.Add(v.d)
		if !s.hasValue || v.d.Compare(s.minD) < 0 {
			s.minD = v.d
		}
		if !s.hasValue || v.d.Compare(s.maxD) > 0 {
			s.maxD = v.d
		}
	}
	s.count++
	s.hasValue = true
}

func (s *slotAccum) result() (any, error) {
	switch s.op {
	case plan.Count:
		return int(s.count), nil
	case plan.LongCount:
		return s.count, nil
	case plan.Sum:
		switch s.kind {
		case kindFloat64:
			return s.sumF, nil
		case kindDecimal:
			return s.sumD, nil
		default:
			return s.sumI, nil
		}
	case plan.Avg:
		if !s.hasValue {
			return nil, colquery.ErrEmptySequence
		}
		switch s.kind {
		case kindFloat64:
			return s.sumF / float64(s.count), nil
		case kindDecimal:
			return decimalAvgFloat(s.sumD, s.count), nil
		default:
			return float64(s.sumI) / float64(s.count), nil
		}
	case plan.Min:
		if !s.hasValue {
			return nil, colquery.ErrEmptySequence
		}
		switch s.kind {
		case kindFloat64:
			return s.minF, nil
		case kindDecimal:
			return s.minD, nil
		default:
			return s.minI, nil
		}
	case plan.Max:
		if !s.hasValue {
			return nil, colquery.ErrEmptySequence
		}
		switch s.kind {
		case kindFloat64:
			return s.maxF, nil
		case kindDecimal:
			return s.maxD, nil
		default:
			return s.maxI, nil
		}
	default:
		return nil, fmt.Errorf("agg: unsupported aggregation op %v", s.op)
	}
}

// GroupedResult holds a grouped aggregation's output in first-seen
// group-key order, per §4.5 step 3.
type GroupedResult struct {
	Order   []any
	Records []map[string]any
}

// AsDictionary shapes a single-value-aggregation GroupedResult into a
// key -> value map, per §4.5 step 4's "map keyed by group key" shape.
// Callers (ToDictionary) must have built descriptors with exactly one
// aggregation.
func (r *GroupedResult) AsDictionary(valuePropertyName string) map[any]any {
	out := make(map[any]any, len(r.Order))
	for i, key := range r.Order {
		out[key] = r.Records[i][valuePropertyName]
	}
	return out
}

// Group runs the grouped aggregator of §4.5: one hash-map accumulator
// slot per descriptor, built while iterating the selection's set
// indices once in ascending order, then materialized as a list of
// records in first-seen group order.
func Group(batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, keyColumnIndex int, keyPropertyName string, descriptors []plan.AggregationDescriptor) (*GroupedResult, error) {
	keyFn, err := readGroupKey(batch, keyColumnIndex)
	if err != nil {
		return nil, err
	}

	readers := make([]func(i int) numericValue, len(descriptors))
	for idx, d := range descriptors {
		if d.Op == plan.Count || d.Op == plan.LongCount {
			continue
		}
		ci, ok := batch.Schema().IndexOf(d.ColumnName)
		if !ok {
			return nil, &colquery.ColumnNotFoundError{Name: d.ColumnName}
		}
		rf, err := readNumericColumn(batch, ci)
		if err != nil {
			return nil, err
		}
		readers[idx] = rf
	}

	type group struct {
		key   any
		slots []*slotAccum
	}
	order := make([]any, 0)
	groups := make(map[any]*group)

	it := sel.Iterator()
	for {
		i, ok := it.Next()
		if !ok {
			break
		}
		key := keyFn(i)
		g, exists := groups[key]
		if !exists {
			slots := make([]*slotAccum, len(descriptors))
			for idx, d := range descriptors {
				slots[idx] = &slotAccum{op: d.Op}
			}
			g = &group{key: key, slots: slots}
			groups[key] = g
			order = append(order, key)
		}
		for idx, d := range descriptors {
			if d.Op == plan.Count || d.Op == plan.LongCount {
				g.slots[idx].count++
				g.slots[idx].hasValue = true
				continue
			}
			g.slots[idx].update(readers[idx](i))
		}
	}

	result := &GroupedResult{Order: order, Records: make([]map[string]any, len(order))}
	for gi, key := range order {
		g := groups[key]
		rec := map[string]any{keyPropertyName: key}
		for idx, d := range descriptors {
			val, err := g.slots[idx].result()
			if err != nil {
				return nil, err
			}
			rec[d.ResultPropertyName] = val
		}
		result.Records[gi] = rec
	}
	return result, nil
}
