// Package export captures generated tables in memory instead of writing them
// to the destination, and saves the capture as JSON, CSV or SQLite files.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/maksimowich/fake-data-generator/internal/database"
	"github.com/maksimowich/fake-data-generator/internal/database/sqlite"
	"github.com/maksimowich/fake-data-generator/internal/profile"
	"github.com/maksimowich/fake-data-generator/internal/types"
)

// Table is one captured destination.
type Table struct {
	Name    string
	Columns []types.SchemaColumn
	Rows    [][]interface{}
}

// ExportData is the JSON document written by the json format.
type ExportData struct {
	Timestamp string                              `json:"timestamp"`
	Version   string                              `json:"version"`
	Comment   string                              `json:"comment"`
	Tables    map[string][]map[string]interface{} `json:"tables"`
}

// Capture reads samples and external references through the wrapped
// adapter but keeps every destination in memory. References to captured
// tables are served from the captured rows.
type Capture struct {
	database.Adapter

	tables map[string]*Table
	order  []string
	rand   *rand.Rand
}

func NewCapture(adapter database.Adapter) *Capture {
	return &Capture{
		Adapter: adapter,
		tables:  make(map[string]*Table),
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NativeNested keeps structured values as maps so JSON output nests them.
func (c *Capture) NativeNested() bool {
	return true
}

// Tables returns the captured tables in creation order.
func (c *Capture) Tables() []*Table {
	out := make([]*Table, len(c.order))
	for i, name := range c.order {
		out[i] = c.tables[name]
	}
	return out
}

func (c *Capture) table(name string, recreate bool) *Table {
	t, ok := c.tables[name]
	if !ok {
		t = &Table{Name: name}
		c.tables[name] = t
		c.order = append(c.order, name)
	} else if recreate {
		t.Columns, t.Rows = nil, nil
	}
	return t
}

func (c *Capture) CreateLike(ctx context.Context, source, dest string, include []string, recreate bool) error {
	sample, err := c.Adapter.ReadSample(ctx, source, include, 1)
	if err != nil {
		return fmt.Errorf("failed to read columns of %s: %w", source, err)
	}
	return c.CreateFromSchema(ctx, dest, sample.Columns, recreate)
}

func (c *Capture) CreateFromSchema(ctx context.Context, dest string, columns []types.SchemaColumn, recreate bool) error {
	t := c.table(dest, recreate)
	if len(t.Columns) == 0 {
		t.Columns = columns
	}
	return nil
}

func (c *Capture) AppendBatch(ctx context.Context, dest string, columns []string, rows [][]interface{}) error {
	t, ok := c.tables[dest]
	if !ok {
		return fmt.Errorf("table %s was not created", dest)
	}
	if len(t.Columns) != len(columns) {
		t.Columns = make([]types.SchemaColumn, len(columns))
		for i, name := range columns {
			t.Columns[i] = types.SchemaColumn{Name: name}
		}
	}
	t.Rows = append(t.Rows, rows...)
	return nil
}

func (c *Capture) FetchReference(ctx context.Context, table, column string, n int) ([]interface{}, error) {
	t, ok := c.tables[table]
	if !ok {
		return c.Adapter.FetchReference(ctx, table, column, n)
	}
	idx := -1
	for i, col := range t.Columns {
		if col.Name == column {
			idx = i
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("column %s not found in %s", column, table)
	}

	values := make([]interface{}, 0, len(t.Rows))
	for _, row := range t.Rows {
		if row[idx] != nil {
			values = append(values, row[idx])
		}
	}
	c.rand.Shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })
	if len(values) > n {
		values = values[:n]
	}
	return values, nil
}

// Write saves the capture under exportPath and returns the created path.
func (c *Capture) Write(ctx context.Context, exportPath, format string) (string, error) {
	if err := os.MkdirAll(exportPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")

	switch format {
	case "csv":
		return c.exportToCSV(filepath.Join(exportPath, fmt.Sprintf("export_%s_csv", timestamp)))
	case "sqlite":
		return c.exportToSQLite(ctx, filepath.Join(exportPath, fmt.Sprintf("export_%s.db", timestamp)))
	case "json", "":
		return c.exportToJSON(filepath.Join(exportPath, fmt.Sprintf("export_%s.json", timestamp)))
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
}

func (c *Capture) exportToJSON(filePath string) (string, error) {
	data := ExportData{
		Timestamp: time.Now().Format(profile.TimestampLayout),
		Version:   "1.0",
		Comment:   "Synthetic data export",
		Tables:    make(map[string][]map[string]interface{}, len(c.tables)),
	}
	for _, t := range c.Tables() {
		rows := make([]map[string]interface{}, len(t.Rows))
		for i, row := range t.Rows {
			m := make(map[string]interface{}, len(t.Columns))
			for j, col := range t.Columns {
				m[col.Name] = row[j]
			}
			rows[i] = m
		}
		data.Tables[t.Name] = rows
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal data: %w", err)
	}
	if err := os.WriteFile(filePath, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return filePath, nil
}

func (c *Capture) exportToCSV(dirPath string) (string, error) {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create CSV directory: %w", err)
	}

	for _, t := range c.Tables() {
		filePath := filepath.Join(dirPath, t.Name+".csv")
		file, err := os.Create(filePath)
		if err != nil {
			return "", fmt.Errorf("failed to create CSV file for %s: %w", t.Name, err)
		}

		writer := csv.NewWriter(file)
		headers := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			headers[i] = col.Name
		}
		writer.Write(headers)
		for _, row := range t.Rows {
			values := make([]string, len(row))
			for i, v := range row {
				values[i] = profile.ToString(v)
			}
			writer.Write(values)
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			file.Close()
			return "", fmt.Errorf("failed to write CSV file for %s: %w", t.Name, err)
		}
		file.Close()
	}

	return dirPath, nil
}

func (c *Capture) exportToSQLite(ctx context.Context, filePath string) (string, error) {
	db := sqlite.New()
	if err := db.Connect(ctx, filePath); err != nil {
		return "", fmt.Errorf("failed to create SQLite database: %w", err)
	}
	defer db.Close()

	for _, t := range c.Tables() {
		if err := db.CreateFromSchema(ctx, t.Name, t.Columns, true); err != nil {
			return "", err
		}
		names := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			names[i] = col.Name
		}
		rows := make([][]interface{}, len(t.Rows))
		for i, row := range t.Rows {
			rows[i] = make([]interface{}, len(row))
			for j, v := range row {
				switch v.(type) {
				case map[string]interface{}, []interface{}:
					rows[i][j] = profile.ToString(v)
				default:
					rows[i][j] = v
				}
			}
		}
		for start := 0; start < len(rows); start += 100 {
			end := start + 100
			if end > len(rows) {
				end = len(rows)
			}
			if err := db.AppendBatch(ctx, t.Name, names, rows[start:end]); err != nil {
				return "", err
			}
		}
	}

	return filePath, nil
}
