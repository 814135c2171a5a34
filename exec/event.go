package exec

import (
	"fmt"
	"time"

	"github.com/fatih/color"
)

// Event names follow the hierarchical dotted-path convention the rest
// of this codebase's tracing uses: "query/..." for lifecycle,
// "path/..." for the executor's path selection, "aggregate/..." for
// aggregation kernels.
const (
	EventQueryInvoked    = "query/invoked"
	EventPlanAnalyzed    = "query/plan.analyzed"
	EventPathChosen      = "path/chosen"
	EventPredicateEval   = "path/predicate.evaluated"
	EventAggregateDone   = "aggregate/done"
	EventQueryComplete   = "query/completed"
)

// Event is a single annotation emitted during query execution: which
// stage ran, how long it took, and stage-specific data.
type Event struct {
	Name    string
	Start   time.Time
	End     time.Time
	Latency time.Duration
	Data    map[string]any
}

// Annotator receives Events as they occur. Emit is never called on a
// nil Annotator: when Options.Annotator is nil the executor substitutes
// a no-op annotator.
type Annotator interface {
	Emit(Event)
}

// AnnotatorFunc adapts a plain function to an Annotator.
type AnnotatorFunc func(Event)

func (f AnnotatorFunc) Emit(e Event) { f(e) }

// noopAnnotator discards every event; Execute falls back to this when
// no Annotator is configured so call sites never need a nil check.
type noopAnnotator struct{}

func (noopAnnotator) Emit(Event) {}

// ColorAnnotator renders events as a human-readable trace, with ANSI
// color when writer supports it, the same texture as a terminal query
// tracer: a colored glyph per event family plus latency and counts.
type ColorAnnotator struct {
	write func(string)
}

// NewColorAnnotator builds a ColorAnnotator that prints through write.
func NewColorAnnotator(write func(string)) *ColorAnnotator {
	return &ColorAnnotator{write: write}
}

func (a *ColorAnnotator) Emit(e Event) {
	if a == nil || a.write == nil {
		return
	}
	latency := fmt.Sprintf("[%6s]", e.Latency.Round(time.Microsecond))
	switch e.Name {
	case EventPathChosen:
		a.write(fmt.Sprintf("%s %s path=%v", latency, color.YellowString("==="), e.Data["path"]))
	case EventPredicateEval:
		a.write(fmt.Sprintf("%s %s selected=%v/%v", latency, color.CyanString("pred"), e.Data["selected"], e.Data["total"]))
	case EventAggregateDone:
		a.write(fmt.Sprintf("%s %s %v = %v", latency, color.GreenString("agg"), e.Data["op"], e.Data["result"]))
	case EventQueryComplete:
		a.write(fmt.Sprintf("%s %s done", latency, color.GreenString("===")))
	default:
		a.write(fmt.Sprintf("%s %s", latency, e.Name))
	}
}

func emit(a Annotator, name string, start time.Time, data map[string]any) {
	if a == nil {
		return
	}
	end := time.Now()
	a.Emit(Event{Name: name, Start: start, End: end, Latency: end.Sub(start), Data: data})
}
