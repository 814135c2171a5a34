package plan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldyne/colquery"
	"github.com/coldyne/colquery/kernel"
	"github.com/coldyne/colquery/plan"
)

func schema(names ...string) *colquery.ColumnSchema {
	return colquery.NewColumnSchema(names)
}

func TestAnalyzeDenseRangeFilterAndSum(t *testing.T) {
	s := schema("salary")
	expr := plan.AggregateExpr{
		Op:     plan.Sum,
		Column: "salary",
		Source: plan.FilterExpr{
			Source: plan.SourceExpr{},
			Lambda: plan.IntCompare{Column: "salary", Op: kernel.Gt, Value: 35},
		},
	}

	p := plan.NewAnalyzer(s).Analyze(expr)
	require.True(t, p.IsFullyOptimized)
	require.Len(t, p.Predicates, 1)
	require.NotNil(t, p.SimpleAggregate)
	assert.Equal(t, plan.Sum, p.SimpleAggregate.Op)
	assert.Equal(t, "salary", p.SimpleAggregate.ColumnName)
	assert.InDelta(t, 0.3, p.EstimatedSelectivity, 1e-9)
}

func TestAnalyzePaginationBeforePredicates(t *testing.T) {
	s := schema("active")
	// Take(100) -> Where(active==true) -> ToList()
	expr := plan.TerminalExpr{
		Kind: "ToList",
		Source: plan.FilterExpr{
			Lambda: plan.BoolCheck{Column: "active", Expected: true},
			Source: plan.LimitExpr{N: 100, Source: plan.SourceExpr{}},
		},
	}

	p := plan.NewAnalyzer(s).Analyze(expr)
	require.True(t, p.IsFullyOptimized)
	require.True(t, p.PaginationBeforePredicates)
	require.NotNil(t, p.TakeBeforePredicates)
	assert.Equal(t, 100, *p.TakeBeforePredicates)
	assert.Equal(t, 0, p.MaxRowToEvaluate(1000)-100)
}

func TestAnalyzePaginationAfterPredicates(t *testing.T) {
	s := schema("active")
	// Where(active==true) -> Skip(10) -> Take(5) -> ToList()
	expr := plan.TerminalExpr{
		Kind: "ToList",
		Source: plan.LimitExpr{
			N: 5,
			Source: plan.OffsetExpr{
				N: 10,
				Source: plan.FilterExpr{
					Lambda: plan.BoolCheck{Column: "active", Expected: true},
					Source: plan.SourceExpr{},
				},
			},
		},
	}

	p := plan.NewAnalyzer(s).Analyze(expr)
	require.True(t, p.IsFullyOptimized)
	assert.False(t, p.PaginationBeforePredicates)
	require.NotNil(t, p.Skip)
	assert.Equal(t, 10, *p.Skip)
	require.NotNil(t, p.TakeAfterPredicates)
	assert.Equal(t, 5, *p.TakeAfterPredicates)
}

func TestAnalyzeUnsupportedLambdaSetsReason(t *testing.T) {
	s := schema("salary")
	expr := plan.FilterExpr{
		Source: plan.SourceExpr{},
		Lambda: plan.Unsupported{Reason: "arithmetic expression not supported"},
	}

	p := plan.NewAnalyzer(s).Analyze(expr)
	assert.False(t, p.IsFullyOptimized)
	assert.Equal(t, "arithmetic expression not supported", p.UnsupportedReason)
	assert.Empty(t, p.Predicates)
}

func TestAnalyzeUnknownColumnIsUnsupported(t *testing.T) {
	s := schema("salary")
	expr := plan.FilterExpr{
		Source: plan.SourceExpr{},
		Lambda: plan.IntCompare{Column: "nope", Op: kernel.Eq, Value: 1},
	}
	p := plan.NewAnalyzer(s).Analyze(expr)
	assert.False(t, p.IsFullyOptimized)
	assert.Contains(t, p.UnsupportedReason, "nope")
}

func TestAnalyzeGroupByAggregate(t *testing.T) {
	s := schema("dept", "salary")
	expr := plan.ProjectExpr{
		Source: plan.GroupByExpr{KeyColumn: "dept", KeyType: "string", Source: plan.SourceExpr{}},
		Grouped: &plan.GroupedProjection{
			KeyPropertyName: "Key",
			Aggregations: []plan.AggregationDescriptor{
				{Op: plan.Sum, ColumnName: "salary", ResultPropertyName: "Total"},
			},
		},
	}

	p := plan.NewAnalyzer(s).Analyze(expr)
	require.True(t, p.IsFullyOptimized)
	assert.Equal(t, "dept", p.GroupByColumn)
	require.Len(t, p.Aggregations, 1)
	assert.Equal(t, "Total", p.Aggregations[0].ResultPropertyName)
}

func TestAnalyzeToDictionary(t *testing.T) {
	s := schema("dept")
	expr := plan.ToDictionaryExpr{
		Source:           plan.GroupByExpr{KeyColumn: "dept", KeyType: "string", Source: plan.SourceExpr{}},
		ValueAggregation: plan.AggregationDescriptor{Op: plan.Count, ResultPropertyName: "Value"},
	}

	p := plan.NewAnalyzer(s).Analyze(expr)
	require.True(t, p.IsFullyOptimized)
	assert.True(t, p.IsToDictionaryQuery)
	require.NotNil(t, p.ToDictionaryValueAggregation)
	assert.Equal(t, plan.Count, p.ToDictionaryValueAggregation.Op)
}

func TestAnalyzeAndFlattensConjunction(t *testing.T) {
	s := schema("salary")
	expr := plan.FilterExpr{
		Source: plan.SourceExpr{},
		Lambda: plan.AndNode{Children: []plan.LambdaNode{
			plan.IntCompare{Column: "salary", Op: kernel.Ge, Value: 20},
			plan.IntCompare{Column: "salary", Op: kernel.Le, Value: 40},
		}},
	}
	p := plan.NewAnalyzer(s).Analyze(expr)
	require.True(t, p.IsFullyOptimized)
	require.Len(t, p.Predicates, 2)
	assert.InDelta(t, 0.09, p.EstimatedSelectivity, 1e-9)
}
