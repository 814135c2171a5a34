package plan

import (
	"fmt"
	"math"

	"github.com/coldyne/colquery"
	"github.com/coldyne/colquery/kernel"
)

// Analyzer translates a lowered Expr tree into a QueryPlan against a
// fixed ColumnSchema. It never throws on unsupported constructs (see
// §4.1's failure contract); it records the reason on the plan instead.
type Analyzer struct {
	Schema *colquery.ColumnSchema
}

// NewAnalyzer builds an Analyzer bound to a batch's schema.
func NewAnalyzer(schema *colquery.ColumnSchema) *Analyzer {
	return &Analyzer{Schema: schema}
}

// walkState threads the outside-in walk's running plan and the
// seen_predicate flag used to classify pagination as inner or outer.
type walkState struct {
	plan          *QueryPlan
	seenPredicate bool
}

// Analyze walks expr outermost-first (root to leaves) and produces a
// QueryPlan. It is the Analyzer's only entry point; callers normally
// reach it through AnalyzeCached rather than directly.
func (a *Analyzer) Analyze(expr Expr) *QueryPlan {
	st := &walkState{plan: &QueryPlan{IsFullyOptimized: true}}
	a.walk(expr, st)
	st.plan.EstimatedSelectivity = estimateSelectivity(len(st.plan.Predicates))
	return st.plan
}

func (a *Analyzer) markUnsupported(st *walkState, reason string) {
	if !st.plan.IsFullyOptimized {
		return
	}
	st.plan.IsFullyOptimized = false
	st.plan.UnsupportedReason = reason
}

func (a *Analyzer) walk(expr Expr, st *walkState) {
	switch e := expr.(type) {
	case nil:
		return
	case SourceExpr:
		return
	case TerminalExpr:
		a.walk(e.Source, st)
	case FilterExpr:
		st.seenPredicate = true
		preds, ok, reason := a.resolveLambda(e.Lambda)
		if !ok {
			a.markUnsupported(st, reason)
			return
		}
		st.plan.Predicates = append(st.plan.Predicates, preds...)
		a.walk(e.Source, st)
	case LimitExpr:
		n := e.N
		if st.seenPredicate {
			st.plan.TakeBeforePredicates = &n
			st.plan.PaginationBeforePredicates = true
		} else {
			st.plan.TakeAfterPredicates = &n
		}
		a.walk(e.Source, st)
	case OffsetExpr:
		n := e.N
		st.plan.Skip = &n
		if st.seenPredicate {
			st.plan.PaginationBeforePredicates = true
		}
		a.walk(e.Source, st)
	case GroupByExpr:
		st.plan.GroupByColumn = e.KeyColumn
		st.plan.GroupByKeyType = e.KeyType
		a.walk(e.Source, st)
	case ProjectExpr:
		if e.Grouped != nil {
			st.plan.KeyPropertyName = e.Grouped.KeyPropertyName
			st.plan.Aggregations = e.Grouped.Aggregations
		}
		a.walk(e.Source, st)
	case AggregateExpr:
		st.plan.SimpleAggregate = &SimpleAggregate{Op: e.Op, ColumnName: e.Column}
		a.walk(e.Source, st)
	case ToDictionaryExpr:
		st.plan.IsToDictionaryQuery = true
		agg := e.ValueAggregation
		st.plan.ToDictionaryValueAggregation = &agg
		a.walk(e.Source, st)
	default:
		a.markUnsupported(st, fmt.Sprintf("plan: unsupported expression node %T", expr))
	}
}

// resolveLambda decomposes a LambdaNode into a flat, ordered list of
// resolved kernel predicates. An AndNode flattens one level (the
// analyzer's job is to hand the executor an already-flat conjunction);
// nested AndNodes flatten recursively.
func (a *Analyzer) resolveLambda(node LambdaNode) ([]kernel.Predicate, bool, string) {
	switch n := node.(type) {
	case AndNode:
		var out []kernel.Predicate
		for _, child := range n.Children {
			preds, ok, reason := a.resolveLambda(child)
			if !ok {
				return nil, false, reason
			}
			out = append(out, preds...)
		}
		return out, true, ""
	case Unsupported:
		return nil, false, n.Reason
	default:
		p, ok, reason := a.resolveSingle(node)
		if !ok {
			return nil, false, reason
		}
		return []kernel.Predicate{p}, true, ""
	}
}

func (a *Analyzer) resolveSingle(node LambdaNode) (kernel.Predicate, bool, string) {
	switch n := node.(type) {
	case IntCompare:
		idx, ok := a.Schema.IndexOf(n.Column)
		if !ok {
			return nil, false, fmt.Sprintf("unknown column %q", n.Column)
		}
		return kernel.NewInt32Cmp(idx, n.Op, n.Value), true, ""
	case FloatCompare:
		idx, ok := a.Schema.IndexOf(n.Column)
		if !ok {
			return nil, false, fmt.Sprintf("unknown column %q", n.Column)
		}
		return kernel.NewDoubleCmp(idx, n.Op, n.Value), true, ""
	case DecimalCompare:
		idx, ok := a.Schema.IndexOf(n.Column)
		if !ok {
			return nil, false, fmt.Sprintf("unknown column %q", n.Column)
		}
		return kernel.NewDecimalCmp(idx, n.Op, n.Value), true, ""
	case TimestampCompare:
		idx, ok := a.Schema.IndexOf(n.Column)
		if !ok {
			return nil, false, fmt.Sprintf("unknown column %q", n.Column)
		}
		return kernel.NewTimestampCmp(idx, n.Op, n.Value), true, ""
	case StringEquals:
		idx, ok := a.Schema.IndexOf(n.Column)
		if !ok {
			return nil, false, fmt.Sprintf("unknown column %q", n.Column)
		}
		return kernel.NewStringEq(idx, n.Value, n.Negate, n.CaseSensitive), true, ""
	case StringMethodCall:
		idx, ok := a.Schema.IndexOf(n.Column)
		if !ok {
			return nil, false, fmt.Sprintf("unknown column %q", n.Column)
		}
		return kernel.NewStringOp(idx, n.Pattern, n.Kind, n.CaseSensitive), true, ""
	case BoolCheck:
		idx, ok := a.Schema.IndexOf(n.Column)
		if !ok {
			return nil, false, fmt.Sprintf("unknown column %q", n.Column)
		}
		return kernel.NewBooleanIs(idx, n.Expected), true, ""
	case NullCheck:
		idx, ok := a.Schema.IndexOf(n.Column)
		if !ok {
			return nil, false, fmt.Sprintf("unknown column %q", n.Column)
		}
		return kernel.NewIsNull(idx, n.Positive), true, ""
	default:
		return nil, false, fmt.Sprintf("plan: unsupported lambda node %T", node)
	}
}

// estimateSelectivity is the analyzer's baseline heuristic (§4.1):
// 1.0 with no predicates, else max(0.01, 0.3^k) for k predicates. Zone
// maps refine individual predicate estimates separately (see package
// zonemap); this baseline is what a plan starts with before any zone
// map is consulted.
func estimateSelectivity(k int) float64 {
	if k == 0 {
		return 1.0
	}
	return math.Max(0.01, math.Pow(0.3, float64(k)))
}
