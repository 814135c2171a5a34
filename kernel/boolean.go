package kernel

import (
	"fmt"

	"github.com/coldyne/colquery"
	"github.com/coldyne/colquery/bitmap"
)

// BooleanIs tests a BooleanArray column against an expected value.
// Per §4.3 this is a pure bulk-AND kernel with no per-row loop: AND
// with the validity bitmap, then AND with the packed value bitmap (or
// its complement for expected=false).
type BooleanIs struct {
	column   int
	expected bool
}

// NewBooleanIs builds a BooleanIs against a resolved column index.
func NewBooleanIs(column int, expected bool) *BooleanIs {
	return &BooleanIs{column: column, expected: expected}
}

func (p *BooleanIs) ColumnIndex() int { return p.column }

func (p *BooleanIs) String() string {
	return fmt.Sprintf("col[%d] == %t", p.column, p.expected)
}

func (p *BooleanIs) valueArray(batch colquery.RecordBatch) colquery.BooleanValued {
	arr, ok := batch.Column(p.column).(colquery.BooleanValued)
	if !ok {
		panic(fmt.Sprintf("kernel: BooleanIs applied to non-boolean column %d", p.column))
	}
	return arr
}

// Evaluate performs the bulk-AND form of §4.3: AND with validity, then
// AND with the packed value bitmap (or its complement), byte-aligned,
// no per-row loop for any full 8-row group.
func (p *BooleanIs) Evaluate(batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, maxRow int) {
	arr := p.valueArray(batch)
	prefilterNulls(arr, sel)
	bits := arr.Bits()
	end := clampRange(maxRow, batch.Len())
	for base := 0; base < end; base += 8 {
		var byt byte
		if base/8 < len(bits) {
			byt = bits[base/8]
		}
		mask := byt
		if !p.expected {
			mask = ^byt
		}
		if base+8 <= end {
			sel.AndMask8(base, mask)
			continue
		}
		for i := base; i < end; i++ {
			if (mask>>uint(i-base))&1 == 0 {
				sel.Clear(i)
			}
		}
	}
}

func (p *BooleanIs) EvaluateRange(batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, start, end int) {
	arr := p.valueArray(batch)
	prefilterNulls(arr, sel)
	bits := arr.Bits()
	applyLanes(sel, start, end, 8, func(i int) bool {
		return bitSet(bits, i) == p.expected
	})
}

func bitSet(bits []byte, i int) bool {
	byteIdx, bitIdx := i/8, uint(i%8)
	if byteIdx >= len(bits) {
		return false
	}
	return bits[byteIdx]&(1<<bitIdx) != 0
}

func (p *BooleanIs) EvaluateSingle(batch colquery.RecordBatch, row int) bool {
	arr := p.valueArray(batch)
	if arr.IsNull(row) {
		return false
	}
	return bitSet(arr.Bits(), row) == p.expected
}

func (p *BooleanIs) MayContainMatches(stats colquery.ZoneChunkStats) bool {
	if stats.AllNull {
		return false
	}
	// Boolean chunks carry no min/max in the zone map; a chunk might
	// always contain the expected value.
	return true
}
