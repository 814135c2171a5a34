package colbatch

import (
	"math/rand"

	"github.com/coldyne/colquery"
)

// Synthetic builds a deterministic employee/department/salary batch
// for CLI demos and smoke tests, echoing the company/employee/
// department dataset shape the teacher's examples use, but stored
// column-wise instead of as entity/attribute/value facts. seed fixes
// the RNG so repeated runs produce the same batch.
func Synthetic(rows int, seed int64) *Batch {
	rng := rand.New(rand.NewSource(seed))

	depts := []string{"engineering", "sales", "hr", "finance"}
	dict := NewStringArray(depts)

	ids := make([]int32, rows)
	deptIdx := make([]int32, rows)
	salary := make([]int32, rows)
	active := make([]bool, rows)

	for i := 0; i < rows; i++ {
		ids[i] = int32(i)
		deptIdx[i] = int32(rng.Intn(len(depts)))
		salary[i] = int32(40000 + rng.Intn(120000))
		active[i] = rng.Float64() < 0.85
	}

	return NewBatch(
		[]string{"id", "dept", "salary", "active"},
		NewInt32Array(ids),
		NewDictionaryArray(deptIdx, dict),
		NewInt32Array(salary),
		NewBooleanArray(active),
	)
}

// ColumnNames returns the column names of a batch in schema order,
// used by callers (the CLI, materialize.FormatRows) that need the
// projection order rather than just a name->index map.
func ColumnNames(batch colquery.RecordBatch) []string {
	schema := batch.Schema()
	names := make([]string, schema.Len())
	for i := range names {
		names[i] = schema.Name(i)
	}
	return names
}
