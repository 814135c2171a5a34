// Package parallel implements the range-partitioned worker pool of
// §4.7: predicate evaluation and aggregation are split across
// contiguous, 64-row-aligned row ranges and run concurrently, with
// aggregation partials combined through an associative reducer.
// Parallelism only engages once a batch exceeds a row threshold;
// smaller batches run single-threaded to avoid goroutine overhead.
package parallel

import (
	"runtime"
	"sync"

	"github.com/coldyne/colquery"
	"github.com/coldyne/colquery/agg"
	"github.com/coldyne/colquery/bitmap"
	"github.com/coldyne/colquery/kernel"
)

const (
	defaultChunkSize = 16384
	defaultThreshold = 32000
)

// Scheduler bounds worker concurrency and row-range granularity.
type Scheduler struct {
	workerCount int
	chunkSize   int
	threshold   int
}

// NewScheduler builds a Scheduler. workerCount <= 0 selects
// runtime.NumCPU(); chunkSize <= 0 selects 16384; threshold <= 0
// selects 32000 (the row count below which work runs single-threaded).
func NewScheduler(workerCount, chunkSize, threshold int) *Scheduler {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	return &Scheduler{workerCount: workerCount, chunkSize: chunkSize, threshold: threshold}
}

// NewSchedulerFromConfig builds a Scheduler from the engine's
// top-level ParallelConfig, applying the same threshold default as
// NewScheduler (Config carries no threshold knob since §4.7 treats it
// as an internal tuning constant, not a deployment-facing setting).
func NewSchedulerFromConfig(cfg colquery.ParallelConfig) *Scheduler {
	return NewScheduler(cfg.MaxWorkers, cfg.ChunkSize, 0)
}

// Range is a half-open row range [Lo, Hi) assigned to one worker.
type Range struct {
	Lo, Hi int
}

// Partition splits [0, n) into contiguous ranges whose boundaries
// (other than the final one) are multiples of 64, so that concurrent
// workers never write to the same SelectionBitmap word.
func (s *Scheduler) Partition(n int) []Range {
	chunk := s.chunkSize - (s.chunkSize % 64)
	if chunk <= 0 {
		chunk = 64
	}
	ranges := make([]Range, 0, (n+chunk-1)/chunk)
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		ranges = append(ranges, Range{Lo: lo, Hi: hi})
	}
	return ranges
}

// runRanges runs fn over each of ranges concurrently, bounded to
// s.workerCount in flight, and waits for all to complete. fn receives
// each range's position in the slice so callers can write into a
// preallocated per-range results slice without synchronization.
func (s *Scheduler) runRanges(ranges []Range, fn func(idx int, r Range)) {
	sem := make(chan struct{}, s.workerCount)
	var wg sync.WaitGroup
	for i, r := range ranges {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, r Range) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i, r)
		}(i, r)
	}
	wg.Wait()
}

// EvaluatePredicate evaluates pred over [0, n) into sel, partitioning
// across workers once n exceeds the configured threshold. Below the
// threshold it runs single-threaded — the same result, with no
// goroutine overhead.
func (s *Scheduler) EvaluatePredicate(batch colquery.RecordBatch, pred kernel.Predicate, sel *bitmap.SelectionBitmap, n int) {
	if n < s.threshold {
		pred.EvaluateRange(batch, sel, 0, n)
		return
	}
	ranges := s.Partition(n)
	s.runRanges(ranges, func(_ int, r Range) {
		pred.EvaluateRange(batch, sel, r.Lo, r.Hi)
	})
}

// Aggregate runs a simple aggregate (§4.5) over sel's selected rows in
// [0, n), computing per-range partials in parallel above the
// threshold and combining them with an associative reducer. Below the
// threshold it delegates directly to agg.Compute.
func Aggregate(s *Scheduler, op agg.NumericOp, batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, columnIndex, n int) (any, error) {
	if n < s.threshold {
		return agg.Compute(op, batch, sel, columnIndex, false)
	}

	ranges := s.Partition(n)
	partials := make([]partial, len(ranges))
	reader, arr, err := numericReader(batch, columnIndex)
	if err != nil {
		return nil, err
	}

	s.runRanges(ranges, func(idx int, r Range) {
		partials[idx] = computePartial(reader, arr, sel, r.Lo, r.Hi)
	})

	combined := partials[0]
	for _, p := range partials[1:] {
		combined = combine(combined, p)
	}
	return reduce(op, combined)
}
