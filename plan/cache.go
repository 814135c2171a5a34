package plan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto"
)

// Cache is the structural QueryPlanCache (§4.8/§4.1): keyed by a
// structural fingerprint of the expression tree (node kinds, method
// names, and literal constants — not object identity), backed by
// ristretto's W-TinyLFU admission policy for bounded-size eviction
// with documented, non-bespoke behavior in place of a hand-rolled LRU.
type Cache struct {
	store      *ristretto.Cache
	maxEntries int
}

// NewCache builds a Cache bounded to roughly maxEntries plans.
func NewCache(maxEntries int) (*Cache, error) {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64(maxEntries) * 10,
		MaxCost:     int64(maxEntries),
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("plan: building cache: %w", err)
	}
	return &Cache{store: store, maxEntries: maxEntries}, nil
}

// TryGet returns the cached plan for expr's structural shape, if any.
func (c *Cache) TryGet(expr Expr) (*QueryPlan, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.store.Get(fingerprint(expr))
	if !ok {
		return nil, false
	}
	return v.(*QueryPlan), true
}

// Insert caches plan under expr's structural shape.
func (c *Cache) Insert(expr Expr, p *QueryPlan) {
	if c == nil || p == nil {
		return
	}
	c.store.Set(fingerprint(expr), p, 1)
	c.store.Wait()
}

// Clear empties the cache and resets hit/miss counters.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.store.Clear()
}

// CacheStats reports the documented hit/miss/size counters.
type CacheStats struct {
	Hits   uint64
	Misses uint64
	Size   int64
}

// Stats returns the cache's running hit/miss counters and its current
// size, read from ristretto's metrics.
func (c *Cache) Stats() CacheStats {
	if c == nil || c.store.Metrics == nil {
		return CacheStats{}
	}
	m := c.store.Metrics
	size := int64(m.KeysAdded()) - int64(m.KeysEvicted())
	if size < 0 {
		size = 0
	}
	return CacheStats{Hits: m.Hits(), Misses: m.Misses(), Size: size}
}

// AnalyzeCached is the composed entry point: try the cache, and on a
// miss, analyze with a and insert the result before returning it.
func AnalyzeCached(c *Cache, a *Analyzer, expr Expr) *QueryPlan {
	if p, ok := c.TryGet(expr); ok {
		return p
	}
	p := a.Analyze(expr)
	c.Insert(expr, p)
	return p
}

// fingerprint computes a structural hash of expr: node kinds, literal
// constants, and member-access/method names, normalized so that two
// independently-constructed but shape-identical expressions hash
// equally.
func fingerprint(expr Expr) uint64 {
	var b strings.Builder
	writeExprFingerprint(&b, expr)
	return xxhash.Sum64String(b.String())
}

func writeExprFingerprint(b *strings.Builder, expr Expr) {
	switch e := expr.(type) {
	case nil:
		b.WriteString("nil;")
	case SourceExpr:
		b.WriteString("Source;")
	case TerminalExpr:
		b.WriteString("Terminal:")
		b.WriteString(e.Kind)
		b.WriteByte(';')
		writeExprFingerprint(b, e.Source)
	case FilterExpr:
		b.WriteString("Filter:")
		writeLambdaFingerprint(b, e.Lambda)
		b.WriteByte(';')
		writeExprFingerprint(b, e.Source)
	case LimitExpr:
		fmt.Fprintf(b, "Limit:%d;", e.N)
		writeExprFingerprint(b, e.Source)
	case OffsetExpr:
		fmt.Fprintf(b, "Offset:%d;", e.N)
		writeExprFingerprint(b, e.Source)
	case GroupByExpr:
		fmt.Fprintf(b, "GroupBy:%s:%s;", e.KeyColumn, e.KeyType)
		writeExprFingerprint(b, e.Source)
	case ProjectExpr:
		b.WriteString("Project:")
		if e.Grouped != nil {
			b.WriteString(e.Grouped.KeyPropertyName)
			for _, agg := range e.Grouped.Aggregations {
				fmt.Fprintf(b, ":%s(%s)->%s", agg.Op, agg.ColumnName, agg.ResultPropertyName)
			}
		}
		b.WriteByte(';')
		writeExprFingerprint(b, e.Source)
	case AggregateExpr:
		fmt.Fprintf(b, "Aggregate:%s(%s);", e.Op, e.Column)
		writeExprFingerprint(b, e.Source)
	case ToDictionaryExpr:
		agg := e.ValueAggregation
		fmt.Fprintf(b, "ToDictionary:%s(%s)->%s;", agg.Op, agg.ColumnName, agg.ResultPropertyName)
		writeExprFingerprint(b, e.Source)
	default:
		fmt.Fprintf(b, "Unknown:%T;", expr)
	}
}

func writeLambdaFingerprint(b *strings.Builder, node LambdaNode) {
	switch n := node.(type) {
	case nil:
		b.WriteString("nil")
	case AndNode:
		b.WriteString("And(")
		for i, child := range n.Children {
			if i > 0 {
				b.WriteByte(',')
			}
			writeLambdaFingerprint(b, child)
		}
		b.WriteByte(')')
	case IntCompare:
		fmt.Fprintf(b, "IntCmp(%s,%s,%d)", n.Column, n.Op, n.Value)
	case FloatCompare:
		fmt.Fprintf(b, "FloatCmp(%s,%s,%s)", n.Column, n.Op, strconv.FormatFloat(n.Value, 'g', -1, 64))
	case DecimalCompare:
		fmt.Fprintf(b, "DecimalCmp(%s,%s,%d:%d)", n.Column, n.Op, n.Value.Hi, n.Value.Lo)
	case TimestampCompare:
		fmt.Fprintf(b, "TimestampCmp(%s,%s,%d)", n.Column, n.Op, n.Value.UnixNano())
	case StringEquals:
		fmt.Fprintf(b, "StringEq(%s,%q,%t,%t)", n.Column, n.Value, n.Negate, n.CaseSensitive)
	case StringMethodCall:
		fmt.Fprintf(b, "StringOp(%s,%s,%q,%t)", n.Column, n.Kind, n.Pattern, n.CaseSensitive)
	case BoolCheck:
		fmt.Fprintf(b, "BoolIs(%s,%t)", n.Column, n.Expected)
	case NullCheck:
		fmt.Fprintf(b, "IsNull(%s,%t)", n.Column, n.Positive)
	case Unsupported:
		fmt.Fprintf(b, "Unsupported(%s)", n.Reason)
	default:
		fmt.Fprintf(b, "Unknown(%T)", node)
	}
}
