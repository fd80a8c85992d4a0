package domain

// ColumnSchema is one column of a dataset or CSV file, with the store's
// sniffed type.
type ColumnSchema struct {
	Name string
	Type string
}

// RowSet is the result of a dataset scan: ordered column names plus one
// value slice per record. Row order is whatever the store's scan produced
// and carries no guarantee across queries.
type RowSet struct {
	Columns  []string
	Rows     [][]interface{}
	RowCount int
}

// Maps converts the positional rows into column-name keyed mappings,
// preserving row order.
func (r RowSet) Maps() []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(r.Rows))
	for _, row := range r.Rows {
		m := make(map[string]interface{}, len(r.Columns))
		for i, col := range r.Columns {
			if i < len(row) {
				m[col] = row[i]
			}
		}
		out = append(out, m)
	}
	return out
}

// Slice returns the subrange [offset, offset+limit) of the rows as a new
// RowSet sharing the same columns. Out-of-range bounds clamp to the row
// count.
func (r RowSet) Slice(offset, limit int) RowSet {
	if offset < 0 {
		offset = 0
	}
	if offset > len(r.Rows) {
		offset = len(r.Rows)
	}
	end := offset + limit
	if limit <= 0 || end > len(r.Rows) {
		end = len(r.Rows)
	}
	rows := r.Rows[offset:end]
	return RowSet{Columns: r.Columns, Rows: rows, RowCount: len(rows)}
}
