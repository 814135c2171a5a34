package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldyne/colquery"
	"github.com/coldyne/colquery/bitmap"
	"github.com/coldyne/colquery/kernel"
)

func selectedIndices(t *testing.T, sel *bitmap.SelectionBitmap) []int {
	t.Helper()
	return sel.Indices()
}

func TestInt32CmpScenario(t *testing.T) {
	// Mirrors the spec's dense-range-filter scenario: salary > 35.
	values := []int32{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	batch := newBatch(10, newInt32Array(values, nil))
	sel := bitmap.NewAllOnes(nil, 10)
	defer sel.Release()

	p := kernel.NewInt32Cmp(0, kernel.Gt, 35)
	p.Evaluate(batch, sel, -1)

	assert.Equal(t, []int{3, 4, 5, 6, 7, 8, 9}, selectedIndices(t, sel))
}

func TestInt32CmpVectorLaneBoundaries(t *testing.T) {
	// Exercise a width that spans several 8-lanes plus a partial tail.
	n := 37
	values := make([]int32, n)
	for i := range values {
		values[i] = int32(i)
	}
	batch := newBatch(n, newInt32Array(values, nil))
	sel := bitmap.NewAllOnes(nil, n)
	defer sel.Release()

	p := kernel.NewInt32Cmp(0, kernel.Ge, 20)
	p.EvaluateRange(batch, sel, 5, n)

	for i := 0; i < n; i++ {
		// Rows before start are outside the range and stay selected.
		want := i < 5 || values[i] >= 20
		assert.Equalf(t, want, sel.Get(i), "row %d", i)
	}
}

func TestInt32CmpNullPrefilter(t *testing.T) {
	values := []int32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	nulls := map[int]bool{2: true, 7: true}
	batch := newBatch(10, newInt32Array(values, nulls))
	sel := bitmap.NewAllOnes(nil, 10)
	defer sel.Release()

	p := kernel.NewInt32Cmp(0, kernel.Ge, 0)
	p.Evaluate(batch, sel, -1)

	assert.False(t, sel.Get(2))
	assert.False(t, sel.Get(7))
	assert.Equal(t, 8, sel.Popcount())
}

func TestInt32CmpWidenedInt64(t *testing.T) {
	batch := newBatch(4, newInt64Array([]int64{1, 2, 3, 4}, nil))
	sel := bitmap.NewAllOnes(nil, 4)
	defer sel.Release()

	p := kernel.NewInt32Cmp(0, kernel.Eq, 3)
	p.Evaluate(batch, sel, -1)
	assert.Equal(t, []int{2}, selectedIndices(t, sel))
}

func TestDoubleCmpVectorized(t *testing.T) {
	values := []float64{1.5, 2.5, 3.5, 4.5, 5.5, 6.5, 7.5, 8.5, 9.5}
	batch := newBatch(len(values), newFloat64Array(values, nil))
	sel := bitmap.NewAllOnes(nil, len(values))
	defer sel.Release()

	p := kernel.NewDoubleCmp(0, kernel.Lt, 5.0)
	p.Evaluate(batch, sel, -1)
	assert.Equal(t, []int{0, 1, 2, 3}, selectedIndices(t, sel))
}

func TestDecimalCmp(t *testing.T) {
	values := []colquery.Decimal128{{Lo: 100}, {Lo: 200}, {Lo: 300}}
	batch := newBatch(3, newDecimalArray(values, 2, nil))
	sel := bitmap.NewAllOnes(nil, 3)
	defer sel.Release()

	p := kernel.NewDecimalCmp(0, kernel.Gt, colquery.Decimal128{Lo: 150})
	p.Evaluate(batch, sel, -1)
	assert.Equal(t, []int{1, 2}, selectedIndices(t, sel))

	stats := colquery.ZoneChunkStats{Min: colquery.Decimal128{Lo: 100}, Max: colquery.Decimal128{Lo: 300}}
	assert.True(t, p.MayContainMatches(stats))
	farStats := colquery.ZoneChunkStats{Min: colquery.Decimal128{Lo: 0}, Max: colquery.Decimal128{Lo: 10}}
	assert.False(t, p.MayContainMatches(farStats))
}

func TestBooleanIs(t *testing.T) {
	values := []bool{true, false, true, false, true, false, true, false, true, false}
	batch := newBatch(len(values), newBoolArray(values, nil))

	sel := bitmap.NewAllOnes(nil, len(values))
	defer sel.Release()
	kernel.NewBooleanIs(0, true).Evaluate(batch, sel, -1)
	assert.Equal(t, []int{0, 2, 4, 6, 8}, selectedIndices(t, sel))

	selFalse := bitmap.NewAllOnes(nil, len(values))
	defer selFalse.Release()
	kernel.NewBooleanIs(0, false).Evaluate(batch, selFalse, -1)
	assert.Equal(t, []int{1, 3, 5, 7, 9}, selectedIndices(t, selFalse))
}

func TestBooleanIsWithNulls(t *testing.T) {
	values := []bool{true, true, true}
	nulls := map[int]bool{1: true}
	batch := newBatch(3, newBoolArray(values, nulls))
	sel := bitmap.NewAllOnes(nil, 3)
	defer sel.Release()

	kernel.NewBooleanIs(0, true).Evaluate(batch, sel, -1)
	assert.Equal(t, []int{0, 2}, selectedIndices(t, sel))
}

func TestStringEqDirect(t *testing.T) {
	values := []string{"alice", "bob", "ALICE", "carol"}
	batch := newBatch(len(values), newStringArray(values, nil))

	sel := bitmap.NewAllOnes(nil, len(values))
	defer sel.Release()
	kernel.NewStringEq(0, "alice", false, true).Evaluate(batch, sel, -1)
	assert.Equal(t, []int{0}, selectedIndices(t, sel))

	selCI := bitmap.NewAllOnes(nil, len(values))
	defer selCI.Release()
	kernel.NewStringEq(0, "alice", false, false).Evaluate(batch, selCI, -1)
	assert.Equal(t, []int{0, 2}, selectedIndices(t, selCI))
}

func TestStringEqDictionaryFastPath(t *testing.T) {
	dict := newStringArray([]string{"A", "B"}, nil)
	indices := []int32{0, 1, 0, 1, 0}
	batch := newBatch(5, newDictArray(indices, dict, nil))
	sel := bitmap.NewAllOnes(nil, 5)
	defer sel.Release()

	kernel.NewStringEq(0, "A", false, true).Evaluate(batch, sel, -1)
	assert.Equal(t, []int{0, 2, 4}, selectedIndices(t, sel))
}

func TestStringOpContains(t *testing.T) {
	values := []string{"foobar", "foo", "bar", "FOOBAR"}
	batch := newBatch(len(values), newStringArray(values, nil))
	sel := bitmap.NewAllOnes(nil, len(values))
	defer sel.Release()

	kernel.NewStringOp(0, "foo", kernel.Contains, true).Evaluate(batch, sel, -1)
	assert.Equal(t, []int{0, 1}, selectedIndices(t, sel))
}

func TestIsNullPositiveAndNegative(t *testing.T) {
	values := []int32{1, 2, 3, 4}
	nulls := map[int]bool{1: true, 3: true}
	batch := newBatch(4, newInt32Array(values, nulls))

	selNull := bitmap.NewAllOnes(nil, 4)
	defer selNull.Release()
	kernel.NewIsNull(0, true).Evaluate(batch, selNull, -1)
	assert.Equal(t, []int{1, 3}, selectedIndices(t, selNull))

	selNotNull := bitmap.NewAllOnes(nil, 4)
	defer selNotNull.Release()
	kernel.NewIsNull(0, false).Evaluate(batch, selNotNull, -1)
	assert.Equal(t, []int{0, 2}, selectedIndices(t, selNotNull))
}

func TestIsNullNoValidityBitmap(t *testing.T) {
	batch := newBatch(4, newInt32Array([]int32{1, 2, 3, 4}, nil))

	selNull := bitmap.NewAllOnes(nil, 4)
	defer selNull.Release()
	kernel.NewIsNull(0, true).Evaluate(batch, selNull, -1)
	assert.Equal(t, 0, selNull.Popcount())

	selNotNull := bitmap.NewAllOnes(nil, 4)
	defer selNotNull.Release()
	kernel.NewIsNull(0, false).Evaluate(batch, selNotNull, -1)
	assert.Equal(t, 4, selNotNull.Popcount())
}

func TestAndConjunction(t *testing.T) {
	values := []int32{10, 20, 30, 40, 50}
	batch := newBatch(5, newInt32Array(values, nil))
	sel := bitmap.NewAllOnes(nil, 5)
	defer sel.Release()

	and := kernel.NewAnd(
		kernel.NewInt32Cmp(0, kernel.Ge, 20),
		kernel.NewInt32Cmp(0, kernel.Le, 40),
	)
	and.Evaluate(batch, sel, -1)
	assert.Equal(t, []int{1, 2, 3}, selectedIndices(t, sel))

	require.True(t, and.EvaluateSingle(batch, 2))
	require.False(t, and.EvaluateSingle(batch, 0))
}

func TestEvaluateSingleMatchesBulk(t *testing.T) {
	values := []int32{5, 15, 25, 35}
	batch := newBatch(4, newInt32Array(values, nil))
	p := kernel.NewInt32Cmp(0, kernel.Gt, 10)

	sel := bitmap.NewAllOnes(nil, 4)
	defer sel.Release()
	p.Evaluate(batch, sel, -1)

	for i := 0; i < 4; i++ {
		assert.Equal(t, sel.Get(i), p.EvaluateSingle(batch, i))
	}
}

func TestZoneMapPruningOrdered(t *testing.T) {
	p := kernel.NewInt32Cmp(0, kernel.Lt, 10)
	assert.True(t, p.MayContainMatches(colquery.ZoneChunkStats{Min: int32(5), Max: int32(20)}))
	assert.False(t, p.MayContainMatches(colquery.ZoneChunkStats{Min: int32(10), Max: int32(20)}))
	assert.False(t, p.MayContainMatches(colquery.ZoneChunkStats{AllNull: true}))

	eq := kernel.NewInt32Cmp(0, kernel.Eq, 15)
	assert.True(t, eq.MayContainMatches(colquery.ZoneChunkStats{Min: int32(10), Max: int32(20)}))
	assert.False(t, eq.MayContainMatches(colquery.ZoneChunkStats{Min: int32(20), Max: int32(30)}))

	ne := kernel.NewInt32Cmp(0, kernel.Ne, 15)
	assert.True(t, ne.MayContainMatches(colquery.ZoneChunkStats{Min: int32(15), Max: int32(15)}))
}
