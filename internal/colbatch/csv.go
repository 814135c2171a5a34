package colbatch

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/coldyne/colquery"
)

// LoadCSV reads a CSV file (first row = header) into a Batch, sniffing
// each column's type from all of its non-empty values: integers become
// Int32Array, decimals become Float64Array, everything else stays
// StringArray. Empty cells are skipped while sniffing and read as 0 in
// a numeric column.
func LoadCSV(r io.Reader) (*Batch, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("colbatch: reading CSV header: %w", err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("colbatch: reading CSV row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, row)
	}

	built := make([]colquery.ArrowArray, len(header))
	for c := range header {
		built[c] = inferColumn(rows, c)
	}

	names := append([]string(nil), header...)
	return NewBatch(names, built...), nil
}

type columnKind int

const (
	kindInt columnKind = iota
	kindFloat
	kindString
)

func sniffKind(rows [][]string, col int) columnKind {
	kind := kindInt
	for _, row := range rows {
		if col >= len(row) || row[col] == "" {
			continue
		}
		if _, err := strconv.ParseInt(row[col], 10, 32); err == nil {
			continue
		}
		if _, err := strconv.ParseFloat(row[col], 64); err == nil {
			if kind == kindInt {
				kind = kindFloat
			}
			continue
		}
		return kindString
	}
	return kind
}

func inferColumn(rows [][]string, col int) colquery.ArrowArray {
	switch sniffKind(rows, col) {
	case kindInt:
		values := make([]int32, len(rows))
		for i, row := range rows {
			if col < len(row) && row[col] != "" {
				v, _ := strconv.ParseInt(row[col], 10, 32)
				values[i] = int32(v)
			}
		}
		return NewInt32Array(values)
	case kindFloat:
		values := make([]float64, len(rows))
		for i, row := range rows {
			if col < len(row) && row[col] != "" {
				v, _ := strconv.ParseFloat(row[col], 64)
				values[i] = v
			}
		}
		return NewFloat64Array(values)
	default:
		values := make([]string, len(rows))
		for i, row := range rows {
			if col < len(row) {
				values[i] = row[col]
			}
		}
		return NewStringArray(values)
	}
}
