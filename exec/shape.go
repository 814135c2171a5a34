package exec

// ResultShape names the terminal operation requested by the query
// surface, driving both path selection (§4.4) and how the selection
// bitmap (or sparse index list) is turned into a result.
type ResultShape int

const (
	ShapeEnumerable ResultShape = iota
	ShapeFirst
	ShapeFirstOrDefault
	ShapeSingle
	ShapeSingleOrDefault
	ShapeAny
	ShapeAll
	ShapeCount
	ShapeLongCount
	ShapeSum
	ShapeAvg
	ShapeMin
	ShapeMax
	ShapeGrouped
	ShapeToDictionary
)

func (s ResultShape) String() string {
	switch s {
	case ShapeEnumerable:
		return "Enumerable"
	case ShapeFirst:
		return "First"
	case ShapeFirstOrDefault:
		return "FirstOrDefault"
	case ShapeSingle:
		return "Single"
	case ShapeSingleOrDefault:
		return "SingleOrDefault"
	case ShapeAny:
		return "Any"
	case ShapeAll:
		return "All"
	case ShapeCount:
		return "Count"
	case ShapeLongCount:
		return "LongCount"
	case ShapeSum:
		return "Sum"
	case ShapeAvg:
		return "Avg"
	case ShapeMin:
		return "Min"
	case ShapeMax:
		return "Max"
	case ShapeGrouped:
		return "Grouped"
	case ShapeToDictionary:
		return "ToDictionary"
	default:
		return "Unknown"
	}
}

// isSingleElement reports whether a shape returns at most one scalar
// row selected from the matching set (§4.4's "single element" path).
func (s ResultShape) isSingleElement() bool {
	switch s {
	case ShapeFirst, ShapeFirstOrDefault, ShapeSingle, ShapeSingleOrDefault:
		return true
	default:
		return false
	}
}

// allowsOrDefault reports whether an empty match set returns -1 (no
// row index) instead of colquery.ErrEmptySequence.
func (s ResultShape) allowsOrDefault() bool {
	return s == ShapeFirstOrDefault || s == ShapeSingleOrDefault
}

// isStreamingEligible reports whether a shape qualifies for the
// streaming short-circuit path of §4.4 (Any/First/Single family).
func (s ResultShape) isStreamingEligible() bool {
	switch s {
	case ShapeAny, ShapeFirst, ShapeFirstOrDefault, ShapeSingle, ShapeSingleOrDefault:
		return true
	default:
		return false
	}
}
