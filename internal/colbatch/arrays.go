// Package colbatch is a minimal, in-memory RecordBatch/ArrowArray
// implementation: plain Go slices plus an Arrow-format validity
// bitmap, used by the CLI and by package tests that need a concrete
// batch rather than the colquery contracts alone. The storage layer
// proper (decoding from Parquet, memory-mapped Arrow IPC, and so on)
// is an external collaborator colquery never assumes; this package is
// the simplest thing that satisfies those contracts.
package colbatch

import "github.com/coldyne/colquery"

// validity is an Arrow-format bitmap: one bit per row, LSB-first,
// bit=1 meaning valid. A nil validity means every row is valid.
type validity []byte

func newValidity(n int) validity {
	return make(validity, (n+7)/8)
}

func (v validity) isNull(i int) bool {
	if v == nil {
		return false
	}
	return v[i/8]&(1<<uint(i%8)) == 0
}

func (v validity) setValid(i int) {
	if v == nil {
		return
	}
	v[i/8] |= 1 << uint(i%8)
}

func (v validity) nullCount(n int) int {
	if v == nil {
		return 0
	}
	count := 0
	for i := 0; i < n; i++ {
		if v.isNull(i) {
			count++
		}
	}
	return count
}

// Int32Array is a concrete colquery.Int32Valued implementation.
type Int32Array struct {
	values []int32
	valid  validity
}

// NewInt32Array builds an Int32Array with no nulls.
func NewInt32Array(values []int32) *Int32Array {
	return &Int32Array{values: values}
}

// NewInt32ArrayWithNulls builds an Int32Array; a false entry in
// validMask marks the row at the same index null.
func NewInt32ArrayWithNulls(values []int32, validMask []bool) *Int32Array {
	v := newValidity(len(values))
	for i, ok := range validMask {
		if ok {
			v.setValid(i)
		}
	}
	return &Int32Array{values: values, valid: v}
}

func (a *Int32Array) Type() colquery.ArrayType { return colquery.Int32Array }
func (a *Int32Array) Len() int                 { return len(a.values) }
func (a *Int32Array) NullCount() int           { return a.valid.nullCount(len(a.values)) }
func (a *Int32Array) IsNull(i int) bool        { return a.valid.isNull(i) }
func (a *Int32Array) NullBitmapBytes() []byte  { return a.valid }
func (a *Int32Array) Values() []int32          { return a.values }

// Int64Array is a concrete colquery.Int64Valued implementation, also
// used for TimestampArray columns (Unix nanoseconds).
type Int64Array struct {
	values    []int64
	valid     validity
	timestamp bool
}

func NewInt64Array(values []int64) *Int64Array { return &Int64Array{values: values} }

func NewTimestampArray(values []int64) *Int64Array {
	return &Int64Array{values: values, timestamp: true}
}

func NewInt64ArrayWithNulls(values []int64, validMask []bool) *Int64Array {
	v := newValidity(len(values))
	for i, ok := range validMask {
		if ok {
			v.setValid(i)
		}
	}
	return &Int64Array{values: values, valid: v}
}

func (a *Int64Array) Type() colquery.ArrayType {
	if a.timestamp {
		return colquery.TimestampArray
	}
	return colquery.Int64Array
}
func (a *Int64Array) Len() int                { return len(a.values) }
func (a *Int64Array) NullCount() int          { return a.valid.nullCount(len(a.values)) }
func (a *Int64Array) IsNull(i int) bool       { return a.valid.isNull(i) }
func (a *Int64Array) NullBitmapBytes() []byte { return a.valid }
func (a *Int64Array) Values() []int64         { return a.values }

// Float32Array is a concrete colquery.Float32Valued implementation.
type Float32Array struct {
	values []float32
	valid  validity
}

func NewFloat32Array(values []float32) *Float32Array { return &Float32Array{values: values} }

func (a *Float32Array) Type() colquery.ArrayType { return colquery.Float32Array }
func (a *Float32Array) Len() int                 { return len(a.values) }
func (a *Float32Array) NullCount() int           { return a.valid.nullCount(len(a.values)) }
func (a *Float32Array) IsNull(i int) bool        { return a.valid.isNull(i) }
func (a *Float32Array) NullBitmapBytes() []byte  { return a.valid }
func (a *Float32Array) Values() []float32        { return a.values }

// Float64Array is a concrete colquery.Float64Valued implementation.
type Float64Array struct {
	values []float64
	valid  validity
}

func NewFloat64Array(values []float64) *Float64Array { return &Float64Array{values: values} }

func NewFloat64ArrayWithNulls(values []float64, validMask []bool) *Float64Array {
	v := newValidity(len(values))
	for i, ok := range validMask {
		if ok {
			v.setValid(i)
		}
	}
	return &Float64Array{values: values, valid: v}
}

func (a *Float64Array) Type() colquery.ArrayType { return colquery.Float64Array }
func (a *Float64Array) Len() int                 { return len(a.values) }
func (a *Float64Array) NullCount() int           { return a.valid.nullCount(len(a.values)) }
func (a *Float64Array) IsNull(i int) bool        { return a.valid.isNull(i) }
func (a *Float64Array) NullBitmapBytes() []byte  { return a.valid }
func (a *Float64Array) Values() []float64        { return a.values }

// Decimal128Array is a concrete colquery.Decimal128Valued implementation.
type Decimal128Array struct {
	values []colquery.Decimal128
	scale  int32
	valid  validity
}

func NewDecimal128Array(values []colquery.Decimal128, scale int32) *Decimal128Array {
	return &Decimal128Array{values: values, scale: scale}
}

func (a *Decimal128Array) Type() colquery.ArrayType        { return colquery.Decimal128Array }
func (a *Decimal128Array) Len() int                        { return len(a.values) }
func (a *Decimal128Array) NullCount() int                  { return a.valid.nullCount(len(a.values)) }
func (a *Decimal128Array) IsNull(i int) bool                { return a.valid.isNull(i) }
func (a *Decimal128Array) NullBitmapBytes() []byte          { return a.valid }
func (a *Decimal128Array) Values() []colquery.Decimal128    { return a.values }
func (a *Decimal128Array) Scale() int32                     { return a.scale }

// BooleanArray is a concrete colquery.BooleanValued implementation:
// one bit per row, packed the same way as a validity bitmap.
type BooleanArray struct {
	bits  []byte
	n     int
	valid validity
}

func NewBooleanArray(values []bool) *BooleanArray {
	bits := make([]byte, (len(values)+7)/8)
	for i, v := range values {
		if v {
			bits[i/8] |= 1 << uint(i%8)
		}
	}
	return &BooleanArray{bits: bits, n: len(values)}
}

func (a *BooleanArray) Type() colquery.ArrayType { return colquery.BooleanArray }
func (a *BooleanArray) Len() int                 { return a.n }
func (a *BooleanArray) NullCount() int           { return a.valid.nullCount(a.n) }
func (a *BooleanArray) IsNull(i int) bool        { return a.valid.isNull(i) }
func (a *BooleanArray) NullBitmapBytes() []byte  { return a.valid }
func (a *BooleanArray) Bits() []byte             { return a.bits }

// StringArray is a concrete colquery.StringValued implementation: a
// plain slice of Go strings, one per row.
type StringArray struct {
	values []string
	valid  validity
}

func NewStringArray(values []string) *StringArray { return &StringArray{values: values} }

func (a *StringArray) Type() colquery.ArrayType { return colquery.StringArray }
func (a *StringArray) Len() int                 { return len(a.values) }
func (a *StringArray) NullCount() int           { return a.valid.nullCount(len(a.values)) }
func (a *StringArray) IsNull(i int) bool        { return a.valid.isNull(i) }
func (a *StringArray) NullBitmapBytes() []byte  { return a.valid }
func (a *StringArray) Value(i int) string       { return a.values[i] }

// DictionaryArray is a concrete colquery.DictionaryValued
// implementation: integer indices into a shared dictionary array.
type DictionaryArray struct {
	indices []int32
	dict    colquery.ArrowArray
	valid   validity
}

func NewDictionaryArray(indices []int32, dict colquery.ArrowArray) *DictionaryArray {
	return &DictionaryArray{indices: indices, dict: dict}
}

func (a *DictionaryArray) Type() colquery.ArrayType        { return colquery.DictionaryArray }
func (a *DictionaryArray) Len() int                        { return len(a.indices) }
func (a *DictionaryArray) NullCount() int                  { return a.valid.nullCount(len(a.indices)) }
func (a *DictionaryArray) IsNull(i int) bool                { return a.valid.isNull(i) }
func (a *DictionaryArray) NullBitmapBytes() []byte          { return a.valid }
func (a *DictionaryArray) IndexAt(i int) int                { return int(a.indices[i]) }
func (a *DictionaryArray) Dictionary() colquery.ArrowArray  { return a.dict }
