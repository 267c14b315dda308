package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/maksimowich/fake-data-generator/internal/database/common"
	"github.com/maksimowich/fake-data-generator/internal/types"
)

var typeMap = map[string]string{
	"character varying": "VARCHAR", "varchar": "VARCHAR", "string": "TEXT",
	"character": "CHAR", "char": "CHAR", "text": "TEXT", "longtext": "TEXT", "mediumtext": "TEXT",
	"integer": "INTEGER", "int": "INTEGER", "int4": "INTEGER", "bigint": "BIGINT", "int8": "BIGINT",
	"smallint": "SMALLINT", "int2": "SMALLINT", "tinyint": "SMALLINT", "boolean": "BOOLEAN", "bool": "BOOLEAN",
	"serial": "INTEGER", "bigserial": "BIGINT",
	"timestamp with time zone": "TIMESTAMP WITH TIME ZONE", "timestamptz": "TIMESTAMP WITH TIME ZONE",
	"timestamp without time zone": "TIMESTAMP", "timestamp": "TIMESTAMP", "datetime": "TIMESTAMP",
	"date": "DATE", "time": "TIME", "numeric": "NUMERIC", "decimal": "NUMERIC",
	"real": "REAL", "float4": "REAL", "float": "DOUBLE PRECISION", "double": "DOUBLE PRECISION",
	"double precision": "DOUBLE PRECISION", "float8": "DOUBLE PRECISION",
	"uuid": "UUID", "json": "JSON", "jsonb": "JSONB", "object": "JSONB",
}

type Dialect struct{}

// New returns an adapter for PostgreSQL through the pgx database/sql driver.
func New() *common.Adapter {
	return common.New(Dialect{})
}

func (Dialect) DriverName() string { return "pgx" }

func (Dialect) DSN(url string) string { return url }

func (Dialect) Configure(db *sql.DB) {
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)
}

func (Dialect) Placeholder() squirrel.PlaceholderFormat { return squirrel.Dollar }

func (Dialect) QuoteIdentifier(name string) string { return pq.QuoteIdentifier(name) }

func (Dialect) RandomOrder() string { return "RANDOM()" }

func (Dialect) MapColumnType(declared string) string {
	return common.MapColumnType(typeMap, declared, "TEXT")
}

func (Dialect) Columns(ctx context.Context, db *sql.DB, table string) ([]types.SchemaColumn, error) {
	schema, name := common.SplitTableName(table)
	query := `
		SELECT column_name, data_type, udt_name, is_nullable,
			character_maximum_length, numeric_precision, numeric_scale
		FROM information_schema.columns
		WHERE table_name = $1 AND table_schema = COALESCE(NULLIF($2, ''), current_schema())
		ORDER BY ordinal_position`

	rows, err := db.QueryContext(ctx, query, name, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []types.SchemaColumn
	for rows.Next() {
		var column types.SchemaColumn
		var dataType, udtName, nullable string
		var charMaxLength, numericPrecision, numericScale sql.NullInt64

		if err := rows.Scan(&column.Name, &dataType, &udtName, &nullable, &charMaxLength, &numericPrecision, &numericScale); err != nil {
			return nil, err
		}
		column.Type = formatType(dataType, udtName, charMaxLength, numericPrecision, numericScale)
		column.Nullable = nullable == "YES"
		columns = append(columns, column)
	}
	return columns, rows.Err()
}

func formatType(dataType, udtName string, charMaxLength, numericPrecision, numericScale sql.NullInt64) string {
	switch strings.ToLower(dataType) {
	case "numeric":
		if numericPrecision.Valid && numericScale.Valid {
			return fmt.Sprintf("numeric(%d,%d)", numericPrecision.Int64, numericScale.Int64)
		}
		return "numeric"
	case "character varying":
		if charMaxLength.Valid {
			return fmt.Sprintf("varchar(%d)", charMaxLength.Int64)
		}
		return "varchar"
	case "user-defined", "array":
		return udtName
	}
	return dataType
}
