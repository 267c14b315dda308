package common

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/maksimowich/fake-data-generator/internal/profile"
	"github.com/maksimowich/fake-data-generator/internal/types"
)

// validIdentifier validates SQL identifiers (table/column names) to prevent SQL injection
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type QueryResult struct {
	Columns []string
	Rows    []map[string]interface{}
}

func ValidateIdentifier(name string) error {
	if !validIdentifier.MatchString(name) {
		return fmt.Errorf("invalid identifier: %q", name)
	}
	return nil
}

// ValidateTableName accepts a bare or schema-qualified name.
func ValidateTableName(name string) error {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return fmt.Errorf("invalid table name: %q", name)
	}
	for _, p := range parts {
		if !validIdentifier.MatchString(p) {
			return fmt.Errorf("invalid table name: %q", name)
		}
	}
	return nil
}

// SplitTableName separates an optional schema prefix.
func SplitTableName(name string) (schema, table string) {
	if i := strings.Index(name, "."); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// FilterColumns keeps the included columns in their declared order. An
// empty include list keeps everything.
func FilterColumns(columns []types.SchemaColumn, include []string) ([]types.SchemaColumn, error) {
	if len(include) == 0 {
		return columns, nil
	}
	byName := make(map[string]bool, len(columns))
	for _, c := range columns {
		byName[c.Name] = true
	}
	wanted := make(map[string]bool, len(include))
	for _, name := range include {
		if !byName[name] {
			return nil, fmt.Errorf("column %s not found", name)
		}
		wanted[name] = true
	}
	out := make([]types.SchemaColumn, 0, len(include))
	for _, c := range columns {
		if wanted[c.Name] {
			out = append(out, c)
		}
	}
	return out, nil
}

// ScanRows reads every row into a map keyed by column name, turning byte
// slices into strings.
func ScanRows(rows *sql.Rows) (*QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	results := []map[string]interface{}{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range columns {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &QueryResult{Columns: columns, Rows: results}, nil
}

// MapColumnType looks the base type name up in typeMap. Length and scale
// arguments are kept for types that take them; unknown types pass through
// and an empty type becomes fallback.
func MapColumnType(typeMap map[string]string, declared, fallback string) string {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		return fallback
	}
	lower := strings.ToLower(declared)
	base, args := lower, ""
	if i := strings.Index(lower, "("); i >= 0 {
		base = strings.TrimSpace(lower[:i])
		if j := strings.LastIndex(declared, ")"); j > i {
			args = declared[i : j+1]
		}
	}
	mapped, ok := typeMap[base]
	if !ok {
		return declared
	}
	switch mapped {
	case "VARCHAR", "CHAR", "DECIMAL", "NUMERIC":
		return mapped + args
	}
	return mapped
}

// InferTextType names the narrowest type every non-empty string value of a
// column parses as. Rows holding only non-string values give text.
func InferTextType(rows []map[string]interface{}, column string) string {
	allInt, allFloat, allTime, allDate, allJSON, seen := true, true, true, true, true, false
	for _, row := range rows {
		s, ok := row[column].(string)
		if !ok {
			continue
		}
		seen = true
		s = strings.TrimSpace(s)
		if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			allInt = false
		}
		if _, err := profile.ToFloat(s); err != nil {
			allFloat = false
		}
		if t, err := profile.ToTime(s); err != nil {
			allTime, allDate = false, false
		} else if len(s) > len(profile.DateLayout) || t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 {
			allDate = false
		}
		if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
			allJSON = false
		}
	}
	switch {
	case !seen:
		return "text"
	case allInt:
		return "bigint"
	case allFloat:
		return "double"
	case allDate:
		return "date"
	case allTime:
		return "timestamp"
	case allJSON:
		return "json"
	}
	return "text"
}
