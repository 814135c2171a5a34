package bitmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionBitmapBasics(t *testing.T) {
	t.Run("AllOnesAllZeros", func(t *testing.T) {
		ones := NewAllOnes(nil, 10)
		defer ones.Release()
		assert.True(t, ones.All())
		assert.Equal(t, 10, ones.Popcount())

		zeros := NewAllZeros(nil, 10)
		defer zeros.Release()
		assert.False(t, zeros.Any())
		assert.Equal(t, 0, zeros.Popcount())
	})

	t.Run("TailBitsStayZero", func(t *testing.T) {
		// N not a multiple of 64: bits 70..127 of the second word must
		// stay zero through every mutating op.
		b := NewAllOnes(nil, 70)
		defer b.Release()
		require.Equal(t, 70, b.Popcount())
		assert.False(t, b.Get(70))

		b.Not()
		assert.Equal(t, 0, b.Popcount())
		b.Not()
		assert.Equal(t, 70, b.Popcount())
	})

	t.Run("GetSetClear", func(t *testing.T) {
		b := NewAllZeros(nil, 128)
		defer b.Release()
		b.Set(5)
		b.Set(64)
		b.Set(127)
		assert.True(t, b.Get(5))
		assert.True(t, b.Get(64))
		assert.True(t, b.Get(127))
		assert.False(t, b.Get(6))
		assert.Equal(t, 3, b.Popcount())

		b.Clear(64)
		assert.False(t, b.Get(64))
		assert.Equal(t, 2, b.Popcount())
	})
}

func TestSelectionBitmapBulkOps(t *testing.T) {
	t.Run("AndOrNotAndNot", func(t *testing.T) {
		a := NewAllZeros(nil, 8)
		defer a.Release()
		b := NewAllZeros(nil, 8)
		defer b.Release()

		for _, i := range []int{0, 1, 2, 3} {
			a.Set(i)
		}
		for _, i := range []int{2, 3, 4, 5} {
			b.Set(i)
		}

		and := NewAllZeros(nil, 8)
		defer and.Release()
		and.Or(a)
		and.And(b)
		assert.Equal(t, []int{2, 3}, and.Indices())

		or := NewAllZeros(nil, 8)
		defer or.Release()
		or.Or(a)
		or.Or(b)
		assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, or.Indices())

		andNot := NewAllZeros(nil, 8)
		defer andNot.Release()
		andNot.Or(a)
		andNot.AndNot(b)
		assert.Equal(t, []int{0, 1}, andNot.Indices())
	})

	t.Run("SelfOpsAreIdempotent", func(t *testing.T) {
		b := NewAllZeros(nil, 37)
		defer b.Release()
		for _, i := range []int{0, 10, 36} {
			b.Set(i)
		}
		snapshot := NewAllZeros(nil, 37)
		defer snapshot.Release()
		snapshot.Or(b)

		b.And(snapshot)
		assert.True(t, b.Equal(snapshot))

		b.Or(snapshot)
		assert.True(t, b.Equal(snapshot))

		b.Not()
		b.Not()
		assert.True(t, b.Equal(snapshot))
	})
}

func TestAndMask(t *testing.T) {
	t.Run("AndMask8PreservesOutsideBits", func(t *testing.T) {
		b := NewAllOnes(nil, 64)
		defer b.Release()
		// Clear bits 8..15 except bit 9 and 12.
		b.AndMask8(8, 0b00010010)
		for i := 0; i < 64; i++ {
			want := true
			if i >= 8 && i < 16 {
				want = i == 9 || i == 12
			}
			assert.Equalf(t, want, b.Get(i), "bit %d", i)
		}
	})

	t.Run("AndMask4", func(t *testing.T) {
		b := NewAllOnes(nil, 16)
		defer b.Release()
		b.AndMask4(4, 0b0101)
		assert.True(t, b.Get(4))
		assert.False(t, b.Get(5))
		assert.True(t, b.Get(6))
		assert.False(t, b.Get(7))
		// outside the 4-bit range is untouched
		assert.True(t, b.Get(0))
		assert.True(t, b.Get(8))
	})
}

func TestClearRange(t *testing.T) {
	t.Run("InteriorAndEdges", func(t *testing.T) {
		b := NewAllOnes(nil, 200)
		defer b.Release()
		b.ClearRange(10, 130)
		for i := 0; i < 200; i++ {
			want := i < 10 || i >= 130
			assert.Equalf(t, want, b.Get(i), "bit %d", i)
		}
	})

	t.Run("SingleWordRange", func(t *testing.T) {
		b := NewAllOnes(nil, 64)
		defer b.Release()
		b.ClearRange(3, 5)
		assert.True(t, b.Get(2))
		assert.False(t, b.Get(3))
		assert.False(t, b.Get(4))
		assert.True(t, b.Get(5))
	})

	t.Run("EmptyRange", func(t *testing.T) {
		b := NewAllOnes(nil, 64)
		defer b.Release()
		b.ClearRange(5, 5)
		assert.Equal(t, 64, b.Popcount())
	})
}

func TestArrowValidityInterop(t *testing.T) {
	t.Run("AndWithArrowValidity", func(t *testing.T) {
		b := NewAllOnes(nil, 10)
		defer b.Release()
		// validity bit=1 valid; LSB-first bit2=0, bit6=0 are null.
		validity := []byte{0b10111011}
		b.AndWithArrowValidity(validity)
		for i := 0; i < 10; i++ {
			want := i != 2 && i != 6
			assert.Equalf(t, want, b.Get(i), "bit %d", i)
		}
	})

	t.Run("ComplementRestrictedToLength", func(t *testing.T) {
		b := NewAllOnes(nil, 16)
		defer b.Release()
		validity := []byte{0b00000100} // row 2 valid, rest null, rows 8-15 beyond validity slice
		b.AndWithArrowValidityComplement(validity, 8)
		// within length: selected iff NOT valid (complement), so only row2 excluded
		for i := 0; i < 8; i++ {
			want := i != 2
			assert.Equalf(t, want, b.Get(i), "bit %d", i)
		}
		// beyond length: untouched (still all ones)
		for i := 8; i < 16; i++ {
			assert.Truef(t, b.Get(i), "bit %d", i)
		}
	})
}

func TestIteratorOrderedAndPopcountConsistent(t *testing.T) {
	b := NewAllZeros(nil, 200)
	defer b.Release()
	want := []int{0, 1, 63, 64, 65, 127, 128, 199}
	for _, i := range want {
		b.Set(i)
	}
	assert.Equal(t, want, b.Indices())
	assert.Equal(t, len(want), b.Popcount())
	assert.Equal(t, len(want), b.PopcountRange(0, 200))
	assert.Equal(t, 3, b.PopcountRange(0, 64))
}

func TestPoolReuse(t *testing.T) {
	pool := NewPool()
	b1 := NewAllOnes(pool, 1000)
	b1.Release()
	b2 := NewAllZeros(pool, 1000)
	defer b2.Release()
	// b2 must start from zero even though the rented buffer may be the
	// same backing array b1 used.
	assert.Equal(t, 0, b2.Popcount())
}
