package types

// SchemaColumn describes one column of a source or destination entity.
type SchemaColumn struct {
	Name     string `json:"name" yaml:"name" msgpack:"name"`
	Type     string `json:"type" yaml:"type" msgpack:"type"`
	Nullable bool   `json:"nullable,omitempty" yaml:"nullable,omitempty" msgpack:"nullable,omitempty"`
}

// SchemaTable is an entity name with its ordered columns.
type SchemaTable struct {
	Name    string
	Columns []SchemaColumn
}

// Sample is a slice of rows read from a source entity. Columns keeps the
// source order and declared types; rows are keyed by column name.
type Sample struct {
	Columns []SchemaColumn
	Rows    []map[string]interface{}
}

// ColumnNames returns the column names in order.
func (s *Sample) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Values returns the values of one column in row order. Missing keys yield nil.
func (s *Sample) Values(column string) []interface{} {
	out := make([]interface{}, len(s.Rows))
	for i, row := range s.Rows {
		out[i] = row[column]
	}
	return out
}

// Column looks up a column by name.
func (s *Sample) Column(name string) (SchemaColumn, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return SchemaColumn{}, false
}
