package plan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldyne/colquery/kernel"
	"github.com/coldyne/colquery/plan"
)

func TestCacheHitOnIdenticalShape(t *testing.T) {
	s := schema("salary")
	a := plan.NewAnalyzer(s)
	c, err := plan.NewCache(100)
	require.NoError(t, err)

	newExpr := func() plan.Expr {
		return plan.FilterExpr{
			Source: plan.SourceExpr{},
			Lambda: plan.IntCompare{Column: "salary", Op: kernel.Gt, Value: 35},
		}
	}

	p1 := plan.AnalyzeCached(c, a, newExpr())
	p2 := plan.AnalyzeCached(c, a, newExpr())
	assert.Same(t, p1, p2)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Hits)
}

func TestCacheMissOnDifferentConstant(t *testing.T) {
	s := schema("salary")
	a := plan.NewAnalyzer(s)
	c, err := plan.NewCache(100)
	require.NoError(t, err)

	p1 := plan.AnalyzeCached(c, a, plan.FilterExpr{
		Source: plan.SourceExpr{},
		Lambda: plan.IntCompare{Column: "salary", Op: kernel.Gt, Value: 35},
	})
	p2 := plan.AnalyzeCached(c, a, plan.FilterExpr{
		Source: plan.SourceExpr{},
		Lambda: plan.IntCompare{Column: "salary", Op: kernel.Gt, Value: 99},
	})
	assert.NotSame(t, p1, p2)

	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.Misses)
}

func TestCacheClearDropsEntries(t *testing.T) {
	s := schema("salary")
	a := plan.NewAnalyzer(s)
	c, err := plan.NewCache(100)
	require.NoError(t, err)

	plan.AnalyzeCached(c, a, plan.FilterExpr{
		Source: plan.SourceExpr{},
		Lambda: plan.IntCompare{Column: "salary", Op: kernel.Eq, Value: 1},
	})
	c.Clear()
	_, ok := c.TryGet(plan.FilterExpr{
		Source: plan.SourceExpr{},
		Lambda: plan.IntCompare{Column: "salary", Op: kernel.Eq, Value: 1},
	})
	assert.False(t, ok)
}
