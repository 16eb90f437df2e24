package persistence

// Row is a single result record keyed by column name.
type Row map[string]any

// Result holds the outcome of a read query. Columns preserves the order the
// engine reported them in; each Row carries one value per column.
type Result struct {
	Columns []string
	Rows    []Row
}

// Len reports the number of rows in the result.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}
