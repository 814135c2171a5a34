package materialize

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/coldyne/colquery/plan"
)

// PredicateExplain is one predicate's entry in an ExplainReport, in
// the order the executor actually evaluates it (the plan's predicate
// order).
type PredicateExplain struct {
	Order int
	Text  string
}

// ExplainReport is a structured view of a QueryPlan's shape: what it
// would do, not what it did. Pair it with exec.Event if you also want
// what the executor actually chose at run time.
type ExplainReport struct {
	Predicates      []PredicateExplain
	Selectivity     float64
	FullyOptimized  bool
	UnsupportedWhy  string
	Pagination      string
	Skip            int
	Take            int
	Aggregate       string
	GroupByColumn   string
	ToDictionary    bool
}

// Explain summarizes a QueryPlan for human inspection. It never
// touches the batch or the bitmap — it describes the plan the
// analyzer produced, independent of which of the four execution paths
// ends up running it.
func Explain(qp *plan.QueryPlan) ExplainReport {
	r := ExplainReport{
		Selectivity:    qp.EstimatedSelectivity,
		FullyOptimized: qp.IsFullyOptimized,
		UnsupportedWhy: qp.UnsupportedReason,
		ToDictionary:   qp.IsToDictionaryQuery,
		GroupByColumn:  qp.GroupByColumn,
	}

	for i, p := range qp.Predicates {
		r.Predicates = append(r.Predicates, PredicateExplain{Order: i, Text: p.String()})
	}

	if qp.PaginationBeforePredicates {
		r.Pagination = "before predicates"
	} else {
		r.Pagination = "after predicates"
	}
	if qp.Skip != nil {
		r.Skip = *qp.Skip
	}
	if qp.TakeBeforePredicates != nil {
		r.Take = *qp.TakeBeforePredicates
	} else if qp.TakeAfterPredicates != nil {
		r.Take = *qp.TakeAfterPredicates
	}

	switch {
	case qp.SimpleAggregate != nil:
		r.Aggregate = qp.SimpleAggregate.Op.String() + "(" + qp.SimpleAggregate.ColumnName + ")"
	case qp.ToDictionaryValueAggregation != nil:
		r.Aggregate = qp.ToDictionaryValueAggregation.Op.String() + "(" + qp.ToDictionaryValueAggregation.ColumnName + ")"
	case len(qp.Aggregations) > 0:
		parts := make([]string, len(qp.Aggregations))
		for i, a := range qp.Aggregations {
			parts[i] = a.Op.String() + "(" + a.ColumnName + ")"
		}
		r.Aggregate = strings.Join(parts, ", ")
	}

	return r
}

// String renders the report as a markdown table, grounded on the same
// tablewriter/markdown-renderer combination the teacher uses for
// relation dumps.
func (r ExplainReport) String() string {
	var sb strings.Builder

	sb.WriteString("## Plan\n\n")
	table := tablewriter.NewTable(&sb,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"field", "value"})
	table.Append([]string{"fully_optimized", boolString(r.FullyOptimized)})
	if !r.FullyOptimized {
		table.Append([]string{"unsupported_reason", r.UnsupportedWhy})
	}
	table.Append([]string{"estimated_selectivity", humanize.Ftoa(r.Selectivity)})
	table.Append([]string{"pagination", r.Pagination})
	table.Append([]string{"skip", humanize.Comma(int64(r.Skip))})
	table.Append([]string{"take", humanize.Comma(int64(r.Take))})
	if r.Aggregate != "" {
		table.Append([]string{"aggregate", r.Aggregate})
	}
	if r.GroupByColumn != "" {
		table.Append([]string{"group_by", r.GroupByColumn})
	}
	if r.ToDictionary {
		table.Append([]string{"to_dictionary", "true"})
	}
	table.Render()

	if len(r.Predicates) > 0 {
		sb.WriteString("\n## Predicates (evaluation order)\n\n")
		ptable := tablewriter.NewTable(&sb,
			tablewriter.WithRenderer(renderer.NewMarkdown()),
			tablewriter.WithHeaderAutoFormat(tw.Off),
		)
		ptable.Header([]string{"#", "predicate"})
		for _, p := range r.Predicates {
			ptable.Append([]string{humanize.Comma(int64(p.Order)), p.Text})
		}
		ptable.Render()
	}

	return sb.String()
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// FormatRows renders materialized rows as a markdown table with
// columns in the order given, truncating long cell values the same
// way the teacher's TableFormatter does.
func FormatRows(columns []string, rows []Row, maxWidth int) string {
	if len(rows) == 0 {
		return "_No rows_"
	}
	if maxWidth <= 0 {
		maxWidth = 50
	}

	var sb strings.Builder
	table := tablewriter.NewTable(&sb,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(columns)
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = truncate(formatCell(row[col]), maxWidth)
		}
		table.Append(cells)
	}
	table.Render()
	sb.WriteString("\n_" + humanize.Comma(int64(len(rows))) + " rows_\n")
	return sb.String()
}

func truncate(s string, maxWidth int) string {
	if len(s) <= maxWidth {
		return s
	}
	return s[:maxWidth-3] + "..."
}

func formatCell(v any) string {
	if v == nil {
		return "nil"
	}
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return boolString(x)
	case int64:
		return humanize.Comma(x)
	case int32:
		return humanize.Comma(int64(x))
	case float64:
		return humanize.Ftoa(x)
	case float32:
		return humanize.Ftoa(float64(x))
	default:
		return fmt.Sprintf("%v", x)
	}
}
