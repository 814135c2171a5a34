// Package plan implements the expression analyzer and structural plan
// cache: translating a lowered user expression tree into a QueryPlan
// of resolved kernel.Predicate values, and caching that translation
// keyed by expression shape.
package plan

import (
	"time"

	"github.com/coldyne/colquery"
	"github.com/coldyne/colquery/kernel"
)

// AggOp enumerates the aggregate operators usable both as a
// SimpleAggregate (Sum/Avg/Min/Max) and inside an AggregationDescriptor
// (which adds Count/LongCount).
type AggOp int

const (
	Sum AggOp = iota
	Avg
	Min
	Max
	Count
	LongCount
)

func (op AggOp) String() string {
	switch op {
	case Sum:
		return "Sum"
	case Avg:
		return "Avg"
	case Min:
		return "Min"
	case Max:
		return "Max"
	case Count:
		return "Count"
	case LongCount:
		return "LongCount"
	default:
		return "Unknown"
	}
}

// SimpleAggregate is a single scalar aggregate over one column.
type SimpleAggregate struct {
	Op         AggOp
	ColumnName string
	ResultType string
}

// AggregationDescriptor is one slot of a grouped or multi-aggregate
// projection. ColumnName is empty for Count/LongCount, which read no
// column.
type AggregationDescriptor struct {
	Op                 AggOp
	ColumnName         string
	ResultPropertyName string
}

// QueryPlan is the analyzer's output: a resolved predicate list, in
// the order the analyzer's walk meets the predicates (no selectivity
// reordering is applied), plus pagination and aggregate/group-by
// classification, exactly the contract in §3.
type QueryPlan struct {
	Predicates            []kernel.Predicate
	IsFullyOptimized      bool
	UnsupportedReason     string
	EstimatedSelectivity  float64

	Skip                       *int
	TakeBeforePredicates       *int
	TakeAfterPredicates        *int
	PaginationBeforePredicates bool

	SimpleAggregate *SimpleAggregate

	GroupByColumn   string
	GroupByKeyType  string
	KeyPropertyName string
	Aggregations    []AggregationDescriptor

	IsToDictionaryQuery          bool
	ToDictionaryValueAggregation *AggregationDescriptor
}

// MaxRowToEvaluate derives the kernel-facing row cap implied by inner
// pagination: when pagination_before_predicates is set, kernels must
// not read past end_row = skip + take_before_predicates (both
// defaulting to 0/unbounded). Returns -1 when there is no cap.
func (p *QueryPlan) MaxRowToEvaluate(batchLen int) int {
	if !p.PaginationBeforePredicates {
		return -1
	}
	skip := 0
	if p.Skip != nil {
		skip = *p.Skip
	}
	if p.TakeBeforePredicates == nil {
		return batchLen
	}
	end := skip + *p.TakeBeforePredicates
	if end > batchLen {
		end = batchLen
	}
	return end
}

// StartRowToEvaluate is the inner skip offset kernels must not
// evaluate before, when pagination_before_predicates is set.
func (p *QueryPlan) StartRowToEvaluate() int {
	if !p.PaginationBeforePredicates || p.Skip == nil {
		return 0
	}
	return *p.Skip
}

// Expr is the lowered expression tree node the Analyzer walks,
// outermost (root, the last-applied operation) first. The user-facing
// fluent query surface is responsible for producing this tree; plan
// only consumes it.
type Expr interface {
	exprNode()
}

// SourceExpr is the tree's leaf: the record batch itself.
type SourceExpr struct{}

func (SourceExpr) exprNode() {}

// FilterExpr applies a decomposed lambda predicate to its source.
type FilterExpr struct {
	Source Expr
	Lambda LambdaNode
}

func (FilterExpr) exprNode() {}

// ProjectExpr is either a plain projection (Grouped == nil) or, when
// Grouped is set, the grouped-aggregate projection that must follow a
// GroupByExpr.
type ProjectExpr struct {
	Source  Expr
	Grouped *GroupedProjection
}

func (ProjectExpr) exprNode() {}

// GroupedProjection describes an object-constructor projection whose
// members are either the group key or an aggregate call on the group.
type GroupedProjection struct {
	KeyPropertyName string
	Aggregations    []AggregationDescriptor
}

// LimitExpr is Take(n).
type LimitExpr struct {
	Source Expr
	N      int
}

func (LimitExpr) exprNode() {}

// OffsetExpr is Skip(n).
type OffsetExpr struct {
	Source Expr
	N      int
}

func (OffsetExpr) exprNode() {}

// GroupByExpr groups by a simple column reference.
type GroupByExpr struct {
	Source     Expr
	KeyColumn  string
	KeyType    string
}

func (GroupByExpr) exprNode() {}

// AggregateExpr is a terminal simple aggregate (Sum/Avg/Min/Max) over
// a column reference, optionally widened.
type AggregateExpr struct {
	Source Expr
	Op     AggOp
	Column string
}

func (AggregateExpr) exprNode() {}

// ToDictionaryExpr recognizes the GroupBy(...).ToDictionary(g => g.Key,
// g => <single aggregate>) specialization of grouped projection.
type ToDictionaryExpr struct {
	Source          Expr
	ValueAggregation AggregationDescriptor
}

func (ToDictionaryExpr) exprNode() {}

// TerminalExpr wraps a root result operation (First, Single, Any, All,
// Count, ToList, ...) that carries no further plan-shaping data beyond
// its source; the ResultShape it implies is decided by the executor,
// not the analyzer.
type TerminalExpr struct {
	Source Expr
	Kind   string
}

func (TerminalExpr) exprNode() {}

// LambdaNode is the decomposed filter-lambda tree: a conjunction of
// per-column comparisons, mirroring kernel.Predicate's sum type but
// addressing columns by name (the analyzer resolves names to indices
// exactly once, at analysis time).
type LambdaNode interface {
	lambdaNode()
}

// IntCompare compares an int32/int64 column against a constant.
type IntCompare struct {
	Column string
	Op     kernel.CompareOp
	Value  int32
}

func (IntCompare) lambdaNode() {}

// FloatCompare compares a float32/float64 column against a constant.
type FloatCompare struct {
	Column string
	Op     kernel.CompareOp
	Value  float64
}

func (FloatCompare) lambdaNode() {}

// DecimalCompare compares a Decimal128 column against a constant.
type DecimalCompare struct {
	Column string
	Op     kernel.CompareOp
	Value  colquery.Decimal128
}

func (DecimalCompare) lambdaNode() {}

// TimestampCompare compares a Timestamp column against a constant.
type TimestampCompare struct {
	Column string
	Op     kernel.CompareOp
	Value  time.Time
}

func (TimestampCompare) lambdaNode() {}

// StringEquals is `col == v` / `col != v` / `col.Equals(v)`.
type StringEquals struct {
	Column        string
	Value         string
	Negate        bool
	CaseSensitive bool
}

func (StringEquals) lambdaNode() {}

// StringMethodCall is Contains/StartsWith/EndsWith.
type StringMethodCall struct {
	Column        string
	Pattern       string
	Kind          kernel.StringOpKind
	CaseSensitive bool
}

func (StringMethodCall) lambdaNode() {}

// BoolCheck is `col == true` / `col == false`.
type BoolCheck struct {
	Column   string
	Expected bool
}

func (BoolCheck) lambdaNode() {}

// NullCheck is `col == null` / `col != null`.
type NullCheck struct {
	Column   string
	Positive bool
}

func (NullCheck) lambdaNode() {}

// AndNode is a conjunction of sub-lambdas (`&&`).
type AndNode struct {
	Children []LambdaNode
}

func (AndNode) lambdaNode() {}

// Unsupported marks a lambda fragment the analyzer could not
// decompose: `||`, modulo, arithmetic, method calls on non-column
// values, or references to captured state.
type Unsupported struct {
	Reason string
}

func (Unsupported) lambdaNode() {}
