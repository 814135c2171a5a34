package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldyne/colquery"
	"github.com/coldyne/colquery/exec"
	"github.com/coldyne/colquery/plan"
)

func TestParseQueryWhereTakeSum(t *testing.T) {
	schema := colquery.NewColumnSchema([]string{"salary", "active"})
	q, err := parseQuery("where salary > 50000 | take 10 | sum salary", schema)
	require.NoError(t, err)
	assert.Equal(t, exec.ShapeSum, q.shape)
	assert.Equal(t, "salary", q.aggColumn)

	agg, ok := q.expr.(plan.AggregateExpr)
	require.True(t, ok)
	limit, ok := agg.Source.(plan.LimitExpr)
	require.True(t, ok)
	assert.Equal(t, 10, limit.N)
	filter, ok := limit.Source.(plan.FilterExpr)
	require.True(t, ok)
	cmp, ok := filter.Lambda.(plan.IntCompare)
	require.True(t, ok)
	assert.Equal(t, "salary", cmp.Column)
}

func TestParseQueryBoolWhere(t *testing.T) {
	schema := colquery.NewColumnSchema([]string{"active"})
	q, err := parseQuery("where active = true", schema)
	require.NoError(t, err)
	filter := q.expr.(plan.FilterExpr)
	check, ok := filter.Lambda.(plan.BoolCheck)
	require.True(t, ok)
	assert.True(t, check.Expected)
}

func TestParseQueryUnknownColumn(t *testing.T) {
	schema := colquery.NewColumnSchema([]string{"salary"})
	_, err := parseQuery("where nope > 1", schema)
	assert.Error(t, err)
}

func TestParseQueryDefaultsToList(t *testing.T) {
	schema := colquery.NewColumnSchema([]string{"salary"})
	q, err := parseQuery("", schema)
	require.NoError(t, err)
	assert.Equal(t, exec.ShapeEnumerable, q.shape)
}
