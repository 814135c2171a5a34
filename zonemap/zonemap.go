// Package zonemap implements the zone-map consumer: chunk pruning via
// a predicate's MayContainMatches check, and the selectivity-driven
// predicate reordering described in §4.6. Zone-map construction itself
// is an external collaborator's concern; this package only consumes
// colquery.ZoneMap.
package zonemap

import (
	"sort"

	"github.com/coldyne/colquery"
	"github.com/coldyne/colquery/kernel"
)

// PrunableChunks returns, for a column and predicate, the indices of
// chunks that must still be scanned — chunks for which
// MayContainMatches conservatively returns false are omitted.
// Everything is kept when the zone map has no statistics for this
// predicate's column.
func PrunableChunks(zm colquery.ZoneMap, columnIndex int, pred kernel.Predicate) []int {
	n := zm.NumChunks(columnIndex)
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		stats, ok := zm.Chunk(columnIndex, i)
		if !ok || pred.MayContainMatches(stats) {
			out = append(out, i)
		}
	}
	return out
}

// PruneRanges applies the same per-chunk check as PrunableChunks and
// clears each pruned chunk's row range from sel directly, per §4.3's "pruned chunks are
// removed from work... by a clear_range on the bitmap" option.
func PruneRanges(zm colquery.ZoneMap, columnIndex int, pred kernel.Predicate, sel bitmapClearer) {
	chunkSize := zm.ChunkSize()
	n := zm.NumChunks(columnIndex)
	for i := 0; i < n; i++ {
		stats, ok := zm.Chunk(columnIndex, i)
		if ok && !pred.MayContainMatches(stats) {
			lo, hi := i*chunkSize, (i+1)*chunkSize
			sel.ClearRange(lo, hi)
		}
	}
}

// bitmapClearer is the minimal surface PruneRanges needs from
// bitmap.SelectionBitmap, kept narrow to avoid an import cycle concern
// and to document exactly what zone-map pruning touches.
type bitmapClearer interface {
	ClearRange(lo, hi int)
}

// EstimateSelectivity computes the §4.6 fast selectivity estimate for
// a single predicate using the zone map's cached global min/max:
// equality is conservatively 0.01, not-equal is 0.9, range predicates
// are positioned within [min, max] and clamped to [0.01, 0.99].
// Predicates that don't implement kernel.OrderedPredicate (string,
// boolean, is-null, and conjunctions) default to 0.5 — the zone map
// has no signal for them.
func EstimateSelectivity(zm colquery.ZoneMap, pred kernel.Predicate) float64 {
	ordered, ok := pred.(kernel.OrderedPredicate)
	if !ok {
		return 0.5
	}
	min, max, ok := zm.GlobalMinMax(pred.ColumnIndex())
	if !ok {
		return 0.5
	}
	estimate, ok := ordered.EstimateSelectivity(min, max)
	if !ok {
		return 0.5
	}
	return estimate
}

// Reorder implements §4.6's predicate reordering: with fewer than two
// predicates there is nothing to reorder. Otherwise compute each
// predicate's selectivity estimate; if the spread (max - min) across
// estimates is below 0.20, leave the order alone (the overhead of
// reordering is not worth it for a marginal signal). Otherwise return
// a new, ascending-by-estimate ordering (most selective first) without
// mutating the input slice. If predicates are already sorted ascending
// by estimate, the original slice is returned unchanged (no allocation).
func Reorder(zm colquery.ZoneMap, predicates []kernel.Predicate) []kernel.Predicate {
	if len(predicates) < 2 {
		return predicates
	}

	estimates := make([]float64, len(predicates))
	minEst, maxEst := 1.0, 0.0
	for i, p := range predicates {
		estimates[i] = EstimateSelectivity(zm, p)
		if estimates[i] < minEst {
			minEst = estimates[i]
		}
		if estimates[i] > maxEst {
			maxEst = estimates[i]
		}
	}
	if maxEst-minEst < 0.20 {
		return predicates
	}

	if sort.SliceIsSorted(predicates, func(i, j int) bool { return estimates[i] < estimates[j] }) {
		return predicates
	}

	type indexed struct {
		pred kernel.Predicate
		est  float64
	}
	reordered := make([]indexed, len(predicates))
	for i, p := range predicates {
		reordered[i] = indexed{pred: p, est: estimates[i]}
	}
	sort.SliceStable(reordered, func(i, j int) bool { return reordered[i].est < reordered[j].est })

	out := make([]kernel.Predicate, len(reordered))
	for i, r := range reordered {
		out[i] = r.pred
	}
	return out
}
