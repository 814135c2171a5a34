package bitmap

import (
	"fmt"
	"math/bits"

	"github.com/klauspost/cpuid/v2"
)

// HardwarePopcount reports whether the running CPU has a native
// population-count instruction. math/bits.OnesCount64 already lowers
// to that instruction on amd64/arm64 when the Go compiler recognizes
// it is safe to do so; this is exposed only so callers can report
// which path is in effect, per §4.2's "uses
// hardware POPCNT when available".
func HardwarePopcount() bool {
	return cpuid.CPU.Has(cpuid.POPCNT)
}

// SelectionBitmap is a packed bit-per-row vector, one bit per row of a
// RecordBatch, stored as 64-bit words. It is scoped to a single query
// execution: its backing buffer is rented from a Pool on creation and
// must be returned with Release on every exit path, including error
// paths — the caller should `defer sel.Release()` immediately after
// construction.
//
// Invariant: bits at positions >= N within the last word are always
// zero, maintained after every mutating method.
type SelectionBitmap struct {
	words []uint64
	n     int
	pool  *Pool
}

func blockCount(n int) int {
	return (n + 63) / 64
}

// NewAllOnes creates a bitmap of length n with every bit set to 1.
func NewAllOnes(pool *Pool, n int) *SelectionBitmap {
	b := newBitmap(pool, n)
	for i := range b.words {
		b.words[i] = ^uint64(0)
	}
	b.maskTail()
	return b
}

// NewAllZeros creates a bitmap of length n with every bit set to 0.
func NewAllZeros(pool *Pool, n int) *SelectionBitmap {
	return newBitmap(pool, n)
}

func newBitmap(pool *Pool, n int) *SelectionBitmap {
	if pool == nil {
		pool = defaultPool
	}
	return &SelectionBitmap{
		words: pool.rent(blockCount(n)),
		n:     n,
		pool:  pool,
	}
}

// Release returns the backing word buffer to its pool. After Release,
// the SelectionBitmap must not be used again.
func (b *SelectionBitmap) Release() {
	if b == nil || b.words == nil {
		return
	}
	b.pool.release(b.words)
	b.words = nil
}

// Len returns N, the number of logical rows this bitmap covers.
func (b *SelectionBitmap) Len() int { return b.n }

// Words exposes the raw backing buffer for worker code that partitions
// work by word-disjoint ranges and cannot hold a borrow of the
// SelectionBitmap value itself (e.g. across goroutines in the parallel
// scheduler). Callers must respect word-disjointness: writes sharing a
// word require external synchronization.
func (b *SelectionBitmap) Words() []uint64 { return b.words }

func (b *SelectionBitmap) tailMask() uint64 {
	rem := b.n % 64
	if rem == 0 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(rem)) - 1
}

func (b *SelectionBitmap) maskTail() {
	if len(b.words) == 0 {
		return
	}
	b.words[len(b.words)-1] &= b.tailMask()
}

// Get reports whether row i is selected.
func (b *SelectionBitmap) Get(i int) bool {
	return b.words[i>>6]&(uint64(1)<<uint(i&63)) != 0
}

// Set marks row i as selected.
func (b *SelectionBitmap) Set(i int) {
	b.words[i>>6] |= uint64(1) << uint(i&63)
}

// Clear marks row i as not selected.
func (b *SelectionBitmap) Clear(i int) {
	b.words[i>>6] &^= uint64(1) << uint(i&63)
}

// AndMask8 ANDs the 8 consecutive bits starting at the 8-aligned
// offset i with the bits of m (bit k of m corresponds to row i+k),
// preserving every bit outside [i, i+8).
func (b *SelectionBitmap) AndMask8(i int, m uint8) {
	andMaskWords(b.words, i, uint64(m), 8)
}

// AndMask4 is AndMask8's 4-bit analog: i must be 4-aligned.
func (b *SelectionBitmap) AndMask4(i int, m uint8) {
	andMaskWords(b.words, i, uint64(m&0x0F), 4)
}

// andMaskWords is the static, raw-buffer form of AndMask8/AndMask4 for
// worker code holding only a word-range borrow.
func andMaskWords(words []uint64, i int, m uint64, width uint) {
	wordIdx := i >> 6
	bitOff := uint(i & 63)
	rangeMask := ((uint64(1) << width) - 1) << bitOff
	expanded := (m << bitOff) & rangeMask
	words[wordIdx] &= expanded | ^rangeMask
}

// AndWithArrowValidity bulk-ANDs the selection with an Arrow-format
// validity bitmap (LSB-first, 8 rows per byte), 64 rows per word.
// Bytes beyond len(validity) are treated as all-valid (identity).
func (b *SelectionBitmap) AndWithArrowValidity(validity []byte) {
	if validity == nil {
		return
	}
	for w := range b.words {
		byteOff := w * 8
		var word uint64
		for k := 0; k < 8; k++ {
			idx := byteOff + k
			var vb byte = 0xFF
			if idx < len(validity) {
				vb = validity[idx]
			}
			word |= uint64(vb) << uint(8*k)
		}
		b.words[w] &= word
	}
	b.maskTail()
}

// AndWithArrowValidityComplement ANDs the selection with the bitwise
// complement of an Arrow-format validity bitmap, restricted to the
// first `length` rows; rows at or beyond length are left untouched
// (the complement behaves as identity there).
func (b *SelectionBitmap) AndWithArrowValidityComplement(validity []byte, length int) {
	totalBytes := (b.n + 7) / 8
	for byteIdx := 0; byteIdx < totalBytes; byteIdx++ {
		rowBase := byteIdx * 8
		if rowBase >= b.n {
			break
		}
		var vb byte
		if byteIdx < len(validity) {
			vb = validity[byteIdx]
		}
		cb := ^vb
		if rowBase+8 > length {
			for bit := 0; bit < 8; bit++ {
				if rowBase+bit >= length {
					cb |= 1 << uint(bit)
				}
			}
		}
		b.AndMask8(rowBase, cb)
	}
}

// ClearRange clears bits in [lo, hi), using whole-word stores in the
// interior and partial-word masks at the edges.
func (b *SelectionBitmap) ClearRange(lo, hi int) {
	clearRangeWords(b.words, b.n, lo, hi)
}

// clearRangeWords is ClearRange's static, raw-buffer form.
func clearRangeWords(words []uint64, n, lo, hi int) {
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	if lo >= hi {
		return
	}

	startWord := lo >> 6
	endWord := (hi - 1) >> 6

	if startWord == endWord {
		clearPartialWord(words, startWord, uint(lo&63), uint((hi-1)&63)+1)
		return
	}

	clearPartialWord(words, startWord, uint(lo&63), 64)
	for w := startWord + 1; w < endWord; w++ {
		words[w] = 0
	}
	clearPartialWord(words, endWord, 0, uint((hi-1)&63)+1)
}

func clearPartialWord(words []uint64, w int, fromBit, toBit uint) {
	if fromBit >= toBit {
		return
	}
	var mask uint64
	if toBit-fromBit >= 64 {
		mask = ^uint64(0)
	} else {
		mask = ((uint64(1) << (toBit - fromBit)) - 1) << fromBit
	}
	words[w] &^= mask
}

func (b *SelectionBitmap) mustSameLength(other *SelectionBitmap) {
	if b.n != other.n {
		panic(fmt.Sprintf("bitmap: length mismatch: %d vs %d", b.n, other.n))
	}
}

// And ANDs other into b in place.
func (b *SelectionBitmap) And(other *SelectionBitmap) {
	b.mustSameLength(other)
	for i := range b.words {
		b.words[i] &= other.words[i]
	}
}

// Or ORs other into b in place.
func (b *SelectionBitmap) Or(other *SelectionBitmap) {
	b.mustSameLength(other)
	for i := range b.words {
		b.words[i] |= other.words[i]
	}
}

// AndNot clears, in b, every bit also set in other.
func (b *SelectionBitmap) AndNot(other *SelectionBitmap) {
	b.mustSameLength(other)
	for i := range b.words {
		b.words[i] &^= other.words[i]
	}
}

// Not complements every bit in place, re-masking the tail.
func (b *SelectionBitmap) Not() {
	for i := range b.words {
		b.words[i] = ^b.words[i]
	}
	b.maskTail()
}

// Popcount returns the number of selected rows.
func (b *SelectionBitmap) Popcount() int {
	total := 0
	for _, w := range b.words {
		total += bits.OnesCount64(w)
	}
	return total
}

// PopcountRange returns the number of selected rows in [lo, hi).
func (b *SelectionBitmap) PopcountRange(lo, hi int) int {
	return popcountRangeWords(b.words, b.n, lo, hi)
}

func popcountRangeWords(words []uint64, n, lo, hi int) int {
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	if lo >= hi {
		return 0
	}
	total := 0
	startWord, endWord := lo>>6, (hi-1)>>6
	for w := startWord; w <= endWord; w++ {
		word := words[w]
		wordLo, wordHi := w*64, w*64+64
		if lo > wordLo {
			word &^= (uint64(1) << uint(lo-wordLo)) - 1
		}
		if hi < wordHi {
			word &= (uint64(1) << uint(hi-wordLo)) - 1
		}
		total += bits.OnesCount64(word)
	}
	return total
}

// Any reports whether any bit is set.
func (b *SelectionBitmap) Any() bool {
	for _, w := range b.words {
		if w != 0 {
			return true
		}
	}
	return false
}

// All reports whether every one of the N logical bits is set.
func (b *SelectionBitmap) All() bool {
	if len(b.words) == 0 {
		return true
	}
	for i := 0; i < len(b.words)-1; i++ {
		if b.words[i] != ^uint64(0) {
			return false
		}
	}
	return b.words[len(b.words)-1] == b.tailMask()
}

// Equal reports whether b and other select exactly the same rows.
func (b *SelectionBitmap) Equal(other *SelectionBitmap) bool {
	if b.n != other.n {
		return false
	}
	for i := range b.words {
		if b.words[i] != other.words[i] {
			return false
		}
	}
	return true
}

// Iterator yields the indices of set bits in strictly increasing
// order, scanning words and using trailing-zero-count within each
// non-zero word.
type Iterator struct {
	words   []uint64
	wordIdx int
	cur     uint64
}

// Iterator returns an ascending iterator over this bitmap's set bits.
func (b *SelectionBitmap) Iterator() *Iterator {
	it := &Iterator{words: b.words}
	if len(b.words) > 0 {
		it.cur = b.words[0]
	}
	return it
}

// Next returns the next set index, or ok=false when exhausted.
func (it *Iterator) Next() (int, bool) {
	for it.cur == 0 {
		it.wordIdx++
		if it.wordIdx >= len(it.words) {
			return 0, false
		}
		it.cur = it.words[it.wordIdx]
	}
	tz := bits.TrailingZeros64(it.cur)
	idx := it.wordIdx*64 + tz
	it.cur &= it.cur - 1
	return idx, true
}

// Indices materializes every set index into a slice, ascending.
func (b *SelectionBitmap) Indices() []int {
	out := make([]int, 0, b.Popcount())
	it := b.Iterator()
	for {
		idx, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, idx)
	}
	return out
}
