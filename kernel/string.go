package kernel

import (
	"fmt"
	"strings"

	"github.com/coldyne/colquery"
	"github.com/coldyne/colquery/bitmap"
)

// StringOpKind enumerates the substring tests StringOp supports.
type StringOpKind int

const (
	Contains StringOpKind = iota
	StartsWith
	EndsWith
)

func (k StringOpKind) String() string {
	switch k {
	case Contains:
		return "Contains"
	case StartsWith:
		return "StartsWith"
	case EndsWith:
		return "EndsWith"
	default:
		return fmt.Sprintf("stringop(%d)", int(k))
	}
}

// stringMatcher is the shared predicate test both string kernels
// implement, letting them share the dictionary-fast-path scaffolding.
type stringMatcher interface {
	columnIndex() int
	matches(s string) bool
}

// StringEq tests column string-equality (or inequality) against a
// constant, with optional case folding.
type StringEq struct {
	column        int
	value         string
	negate        bool
	caseSensitive bool
}

// NewStringEq builds a StringEq against a resolved column index.
func NewStringEq(column int, value string, negate, caseSensitive bool) *StringEq {
	return &StringEq{column: column, value: value, negate: negate, caseSensitive: caseSensitive}
}

func (p *StringEq) columnIndex() int  { return p.column }
func (p *StringEq) ColumnIndex() int  { return p.column }
func (p *StringEq) matches(s string) bool {
	var eq bool
	if p.caseSensitive {
		eq = s == p.value
	} else {
		eq = strings.EqualFold(s, p.value)
	}
	if p.negate {
		return !eq
	}
	return eq
}

func (p *StringEq) String() string {
	op := "=="
	if p.negate {
		op = "!="
	}
	return fmt.Sprintf("col[%d] %s %q", p.column, op, p.value)
}

func (p *StringEq) Evaluate(batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, maxRow int) {
	evaluateStringPredicate(p, batch, sel, 0, clampRange(maxRow, batch.Len()))
}
func (p *StringEq) EvaluateRange(batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, start, end int) {
	evaluateStringPredicate(p, batch, sel, start, end)
}
func (p *StringEq) EvaluateSingle(batch colquery.RecordBatch, row int) bool {
	return evaluateStringSingle(p, batch, row)
}
func (p *StringEq) MayContainMatches(stats colquery.ZoneChunkStats) bool {
	if stats.AllNull {
		return false
	}
	// String zone maps are not modeled by the reordering heuristic
	// either (see zonemap package); no pruning signal here beyond nulls.
	return true
}

// StringOp tests a substring relationship (contains/starts/ends)
// against a constant, with optional case folding.
type StringOp struct {
	column        int
	pattern       string
	kind          StringOpKind
	caseSensitive bool
}

// NewStringOp builds a StringOp against a resolved column index.
func NewStringOp(column int, pattern string, kind StringOpKind, caseSensitive bool) *StringOp {
	return &StringOp{column: column, pattern: pattern, kind: kind, caseSensitive: caseSensitive}
}

func (p *StringOp) columnIndex() int { return p.column }
func (p *StringOp) ColumnIndex() int { return p.column }
func (p *StringOp) matches(s string) bool {
	haystack, needle := s, p.pattern
	if !p.caseSensitive {
		haystack, needle = strings.ToLower(haystack), strings.ToLower(needle)
	}
	switch p.kind {
	case Contains:
		return strings.Contains(haystack, needle)
	case StartsWith:
		return strings.HasPrefix(haystack, needle)
	case EndsWith:
		return strings.HasSuffix(haystack, needle)
	default:
		panic(fmt.Sprintf("kernel: unknown StringOpKind %d", int(p.kind)))
	}
}

func (p *StringOp) String() string {
	return fmt.Sprintf("col[%d].%s(%q)", p.column, p.kind, p.pattern)
}

func (p *StringOp) Evaluate(batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, maxRow int) {
	evaluateStringPredicate(p, batch, sel, 0, clampRange(maxRow, batch.Len()))
}
func (p *StringOp) EvaluateRange(batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, start, end int) {
	evaluateStringPredicate(p, batch, sel, start, end)
}
func (p *StringOp) EvaluateSingle(batch colquery.RecordBatch, row int) bool {
	return evaluateStringSingle(p, batch, row)
}
func (p *StringOp) MayContainMatches(stats colquery.ZoneChunkStats) bool {
	return !stats.AllNull
}

// evaluateStringPredicate dispatches to the dictionary fast path when
// the column is dictionary-encoded, else a direct scalar sweep.
func evaluateStringPredicate(m stringMatcher, batch colquery.RecordBatch, sel *bitmap.SelectionBitmap, start, end int) {
	arr := batch.Column(m.columnIndex())
	if dict, ok := arr.(colquery.DictionaryValued); ok {
		evaluateDictionaryString(m, dict, sel, start, end)
		return
	}
	strs, ok := arr.(colquery.StringValued)
	if !ok {
		panic(fmt.Sprintf("kernel: string predicate applied to non-string column %d", m.columnIndex()))
	}
	prefilterNulls(arr, sel)
	for i := start; i < end; i++ {
		if arr.IsNull(i) {
			sel.Clear(i)
			continue
		}
		if !m.matches(strs.Value(i)) {
			sel.Clear(i)
		}
	}
}

// evaluateDictionaryString evaluates the predicate once per unique
// dictionary entry into a scratch boolean vector, then sweeps rows
// ANDing selection[i] &= scratch[dict_index[i]] — converting O(rows)
// string comparisons into O(unique values).
func evaluateDictionaryString(m stringMatcher, dict colquery.DictionaryValued, sel *bitmap.SelectionBitmap, start, end int) {
	values, ok := dict.Dictionary().(colquery.StringValued)
	if !ok {
		panic(fmt.Sprintf("kernel: string predicate applied to non-string dictionary on column %d", m.columnIndex()))
	}
	n := values.Len()
	scratch := make([]bool, n)
	for k := 0; k < n; k++ {
		if values.IsNull(k) {
			scratch[k] = false
			continue
		}
		scratch[k] = m.matches(values.Value(k))
	}
	prefilterNulls(dict, sel)
	for i := start; i < end; i++ {
		if dict.IsNull(i) {
			sel.Clear(i)
			continue
		}
		idx := dict.IndexAt(i)
		if idx < 0 || idx >= len(scratch) || !scratch[idx] {
			sel.Clear(i)
		}
	}
}

func evaluateStringSingle(m stringMatcher, batch colquery.RecordBatch, row int) bool {
	arr := batch.Column(m.columnIndex())
	if arr.IsNull(row) {
		return false
	}
	if dict, ok := arr.(colquery.DictionaryValued); ok {
		values, ok := dict.Dictionary().(colquery.StringValued)
		if !ok {
			panic(fmt.Sprintf("kernel: string predicate applied to non-string dictionary on column %d", m.columnIndex()))
		}
		idx := dict.IndexAt(row)
		if values.IsNull(idx) {
			return false
		}
		return m.matches(values.Value(idx))
	}
	strs, ok := arr.(colquery.StringValued)
	if !ok {
		panic(fmt.Sprintf("kernel: string predicate applied to non-string column %d", m.columnIndex()))
	}
	return m.matches(strs.Value(row))
}
