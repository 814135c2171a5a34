// Command colquery loads a record batch (CSV file or a synthetic
// demo dataset) and runs a small pipe-separated query DSL against it
// through the plan analyzer and executor, printing the result as a
// markdown table. Grounded on cmd/datalog's stdlib-flag,
// log.Fatalf-on-setup-error CLI shape.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/coldyne/colquery"
	"github.com/coldyne/colquery/exec"
	"github.com/coldyne/colquery/internal/colbatch"
	"github.com/coldyne/colquery/kernel"
	"github.com/coldyne/colquery/materialize"
	"github.com/coldyne/colquery/plan"
)

func main() {
	var csvPath string
	var query string
	var explainPlan bool
	var syntheticRows int
	var seed int64

	flag.StringVar(&csvPath, "csv", "", "load a batch from a CSV file (default: synthetic demo data)")
	flag.StringVar(&query, "query", "", "pipe-separated query, e.g. \"where salary > 50000 | take 10\"")
	flag.BoolVar(&explainPlan, "explain", false, "print the analyzed plan alongside results")
	flag.IntVar(&syntheticRows, "rows", 1000, "row count for the synthetic demo dataset")
	flag.Int64Var(&seed, "seed", 42, "RNG seed for the synthetic demo dataset")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "An embedded columnar query engine CLI.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -query \"where active = true | where salary > 60000 | take 5\"\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -csv employees.csv -query \"sum salary\" -explain\n", os.Args[0])
	}
	flag.Parse()

	var batch colquery.RecordBatch
	if csvPath != "" {
		f, err := os.Open(csvPath)
		if err != nil {
			log.Fatalf("colquery: failed to open %s: %v", csvPath, err)
		}
		defer f.Close()
		b, err := colbatch.LoadCSV(f)
		if err != nil {
			log.Fatalf("colquery: failed to load CSV: %v", err)
		}
		batch = b
	} else {
		batch = colbatch.Synthetic(syntheticRows, seed)
	}

	if query == "" {
		query = "take 10"
	}

	q, err := parseQuery(query, batch.Schema())
	if err != nil {
		log.Fatalf("colquery: invalid query: %v", err)
	}

	analyzer := plan.NewAnalyzer(batch.Schema())
	qp := analyzer.Analyze(q.expr)

	if explainPlan {
		fmt.Println(materialize.Explain(qp).String())
	}

	start := time.Now()
	result, err := exec.Execute(batch, qp, q.shape, exec.Options{ValueColumn: q.aggColumn})
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "colquery: execution error: %v\n", err)
		os.Exit(1)
	}

	printResult(batch, q.shape, result)
	fmt.Printf("\n_(%.3fms)_\n", float64(elapsed.Microseconds())/1000.0)
}

func printResult(batch colquery.RecordBatch, shape exec.ResultShape, result any) {
	if shape == exec.ShapeEnumerable {
		indices := result.([]int)
		rows := materialize.Rows(batch, indices)
		fmt.Print(materialize.FormatRows(colbatch.ColumnNames(batch), rows, 40))
		return
	}
	fmt.Printf("%v\n", result)
}

// query is a parsed DSL pipeline: a built Expr tree plus the terminal
// shape and, for scalar aggregates, which column they read.
type query struct {
	expr      plan.Expr
	shape     exec.ResultShape
	aggColumn string
}

// parseQuery builds a query from a "clause | clause | ..." string.
// Supported clauses: "where COL OP VALUE", "take N", "skip N", and a
// single terminal clause ("sum COL", "avg COL", "min COL", "max COL",
// "count", "any", "first", "list"). The terminal defaults to "list"
// if none is given.
func parseQuery(s string, schema *colquery.ColumnSchema) (query, error) {
	q := query{expr: plan.SourceExpr{}, shape: exec.ShapeEnumerable}
	clauses := strings.Split(s, "|")

	for _, raw := range clauses {
		tokens := strings.Fields(strings.TrimSpace(raw))
		if len(tokens) == 0 {
			continue
		}
		verb := strings.ToLower(tokens[0])
		args := tokens[1:]

		switch verb {
		case "where":
			lambda, err := parseWhere(args, schema)
			if err != nil {
				return query{}, err
			}
			q.expr = plan.FilterExpr{Source: q.expr, Lambda: lambda}
		case "take":
			n, err := requireInt(args, "take")
			if err != nil {
				return query{}, err
			}
			q.expr = plan.LimitExpr{Source: q.expr, N: n}
		case "skip":
			n, err := requireInt(args, "skip")
			if err != nil {
				return query{}, err
			}
			q.expr = plan.OffsetExpr{Source: q.expr, N: n}
		case "sum", "avg", "min", "max":
			if len(args) != 1 {
				return query{}, fmt.Errorf("%s requires exactly one column", verb)
			}
			op := map[string]plan.AggOp{"sum": plan.Sum, "avg": plan.Avg, "min": plan.Min, "max": plan.Max}[verb]
			q.expr = plan.AggregateExpr{Source: q.expr, Op: op, Column: args[0]}
			q.shape = map[string]exec.ResultShape{"sum": exec.ShapeSum, "avg": exec.ShapeAvg, "min": exec.ShapeMin, "max": exec.ShapeMax}[verb]
			q.aggColumn = args[0]
		case "count":
			q.shape = exec.ShapeCount
		case "any":
			q.shape = exec.ShapeAny
		case "all":
			q.shape = exec.ShapeAll
		case "first":
			q.shape = exec.ShapeFirst
		case "list":
			q.shape = exec.ShapeEnumerable
		default:
			return query{}, fmt.Errorf("unknown clause %q", verb)
		}
	}
	return q, nil
}

func requireInt(args []string, verb string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%s requires exactly one integer argument", verb)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", verb, args[0])
	}
	return n, nil
}

func parseWhere(args []string, schema *colquery.ColumnSchema) (plan.LambdaNode, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("where requires COLUMN OP VALUE, got %v", args)
	}
	column, opText, valueText := args[0], args[1], args[2]
	if _, ok := schema.IndexOf(column); !ok {
		return nil, fmt.Errorf("unknown column %q", column)
	}

	if opText == "=" && (valueText == "true" || valueText == "false") {
		return plan.BoolCheck{Column: column, Expected: valueText == "true"}, nil
	}

	op, err := parseOp(opText)
	if err != nil {
		return nil, err
	}

	if i, err := strconv.ParseInt(valueText, 10, 32); err == nil {
		return plan.IntCompare{Column: column, Op: op, Value: int32(i)}, nil
	}
	if f, err := strconv.ParseFloat(valueText, 64); err == nil {
		return plan.FloatCompare{Column: column, Op: op, Value: f}, nil
	}
	if op != kernel.Eq && op != kernel.Ne {
		return nil, fmt.Errorf("string column %q only supports = and !=", column)
	}
	return plan.StringEquals{Column: column, Value: valueText, Negate: op == kernel.Ne, CaseSensitive: true}, nil
}

func parseOp(s string) (kernel.CompareOp, error) {
	switch s {
	case "=", "==":
		return kernel.Eq, nil
	case "!=", "<>":
		return kernel.Ne, nil
	case "<":
		return kernel.Lt, nil
	case "<=":
		return kernel.Le, nil
	case ">":
		return kernel.Gt, nil
	case ">=":
		return kernel.Ge, nil
	default:
		return 0, fmt.Errorf("unknown operator %q", s)
	}
}
