package kernel

import (
	"strings"

	"github.com/coldyne/colquery"
	"github.com/coldyne/colquery/bitmap"
)

// And evaluates each child predicate in order against the same
// selection bitmap. The analyzer decomposes filter lambdas into a flat
// ordered list before execution (see plan.Analyze); the executor's
// streaming, fused and sparse paths wrap that list in an And whenever
// it holds more than one predicate.
type And struct {
	children []Predicate
}

// NewAnd builds an And over already-resolved child predicates.
func NewAnd(children ...Predicate) *And {
	return &And{children: children}
}

// ColumnIndex returns the first child's column, for callers that need
// a representative index (e.g. selectivity bucketing); And predicates
// spanning multiple columns should be consulted via Children instead.
func (p *And) ColumnIndex() int {
	if len(p.children) == 0 {
		return -1
	}
	return p.children[0].ColumnIndex()
}

// Children exposes the conjuncts in evaluation order.
func (p *And) Children() []Predicate { return p.children }

func (p *And) String() string {
	parts := make([]string, len(p.children))
	for i, c := range p.children {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " AND ") + ")"
}

func (p *And) Evaluate(batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, maxRow int) {
	for _, c := range p.children {
		c.Evaluate(batch, sel, maxRow)
	}
}

func (p *And) EvaluateRange(batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, start, end int) {
	for _, c := range p.children {
		c.EvaluateRange(batch, sel, start, end)
	}
}

func (p *And) EvaluateSingle(batch colquery.RecordBatch, row int) bool {
	for _, c := range p.children {
		if !c.EvaluateSingle(batch, row) {
			return false
		}
	}
	return true
}

func (p *And) MayContainMatches(stats colquery.ZoneChunkStats) bool {
	for _, c := range p.children {
		if !c.MayContainMatches(stats) {
			return false
		}
	}
	return true
}
