package models

// Row is a single record keyed by column name. Snapshot rows and built
// dimension rows share this shape.
type Row map[string]interface{}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an in-memory working table produced by a single run.
type Table struct {
	Name    string
	Key     string   // natural key column, unique within Rows
	Columns []string // output column order
	Rows    []Row
}

// NewTable creates an empty table with a fixed column order.
func NewTable(name, key string, columns []string) *Table {
	return &Table{
		Name:    name,
		Key:     key,
		Columns: columns,
		Rows:    []Row{},
	}
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// KeyValues returns the natural key of every row, in row order.
func (t *Table) KeyValues() []interface{} {
	if t == nil {
		return nil
	}
	keys := make([]interface{}, 0, len(t.Rows))
	for _, r := range t.Rows {
		keys = append(keys, r[t.Key])
	}
	return keys
}
