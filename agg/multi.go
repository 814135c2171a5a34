package agg

import (
	"github.com/coldyne/colquery"
	"github.com/coldyne/colquery/bitmap"
	"github.com/coldyne/colquery/plan"
)

// Multi runs several AggregationDescriptors over the whole selection
// in a single pass, assembling them into one result record keyed by
// each descriptor's declared property name — §4.5's multi-aggregate
// executor, the ungrouped (single implicit group) case of Group.
func Multi(batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, descriptors []plan.AggregationDescriptor) (map[string]any, error) {
	readers := make([]func(i int) numericValue, len(descriptors))
	slots := make([]*slotAccum, len(descriptors))
	for idx, d := range descriptors {
		slots[idx] = &slotAccum{op: d.Op}
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

	it := sel.Iterator()
	for {
		i, ok := it.Next()
		if !ok {
			break
		}
		for idx, d := range descriptors {
			if d.Op == plan.Count || d.Op == plan.LongCount {
				slots[idx].count++
				slots[idx].hasValue = true
				continue
			}
			slots[idx].update(readers[idx](i))
		}
	}

	record := make(map[string]any, len(descriptors))
	for idx, d := range descriptors {
		val, err := slots[idx].result()
		if err != nil {
			return nil, err
		}
		record[d.ResultPropertyName] = val
	}
	return record, nil
}
