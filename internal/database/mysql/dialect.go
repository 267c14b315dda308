package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/go-sql-driver/mysql"
	"github.com/maksimowich/fake-data-generator/internal/database/common"
	"github.com/maksimowich/fake-data-generator/internal/types"
)

var typeMap = map[string]string{
	"varchar": "VARCHAR", "character varying": "VARCHAR", "char": "CHAR", "string": "TEXT",
	"text": "TEXT", "longtext": "LONGTEXT", "mediumtext": "MEDIUMTEXT", "tinytext": "TEXT",
	"int": "INT", "integer": "INT", "int4": "INT", "bigint": "BIGINT", "int8": "BIGINT",
	"smallint": "SMALLINT", "int2": "SMALLINT", "tinyint": "TINYINT", "serial": "INT", "bigserial": "BIGINT",
	"boolean": "BOOLEAN", "bool": "BOOLEAN",
	"datetime": "DATETIME", "timestamp": "DATETIME", "timestamptz": "DATETIME",
	"timestamp without time zone": "DATETIME", "timestamp with time zone": "DATETIME",
	"date": "DATE", "time": "TIME",
	"decimal": "DECIMAL", "numeric": "DECIMAL", "float": "DOUBLE", "double": "DOUBLE",
	"double precision": "DOUBLE", "real": "DOUBLE", "float8": "DOUBLE", "float4": "FLOAT",
	"json": "JSON", "jsonb": "JSON", "object": "JSON", "uuid": "CHAR(36)",
	"blob": "BLOB", "binary": "BINARY", "varbinary": "VARBINARY",
}

type Dialect struct{}

func New() *common.Adapter {
	return common.New(Dialect{})
}

func (Dialect) DriverName() string { return "mysql" }

// DSN converts a mysql:// URL into the driver's DSN form and enables
// time.Time scanning.
func (Dialect) DSN(url string) string {
	dsn := url
	if strings.HasPrefix(url, "mysql://") {
		dsn = strings.TrimPrefix(url, "mysql://")

		atIndex := strings.LastIndex(dsn, "@")
		if atIndex > 0 {
			credentials := dsn[:atIndex]
			remainder := dsn[atIndex+1:]

			slashIndex := strings.Index(remainder, "/")
			if slashIndex > 0 {
				hostPort := remainder[:slashIndex]
				dbAndParams := remainder[slashIndex+1:]

				dbAndParams = strings.ReplaceAll(dbAndParams, "ssl-mode=REQUIRED", "tls=skip-verify")
				dbAndParams = strings.ReplaceAll(dbAndParams, "ssl-mode=DISABLED", "tls=false")
				dbAndParams = strings.ReplaceAll(dbAndParams, "sslmode=require", "tls=skip-verify")
				dbAndParams = strings.ReplaceAll(dbAndParams, "sslmode=disable", "tls=false")

				dsn = fmt.Sprintf("%s@tcp(%s)/%s", credentials, hostPort, dbAndParams)
			}
		}
	}

	if !strings.Contains(dsn, "parseTime=") {
		if strings.Contains(dsn, "?") {
			dsn += "&parseTime=true"
		} else {
			dsn += "?parseTime=true"
		}
	}
	return dsn
}

func (Dialect) Configure(db *sql.DB) {
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(0)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)
}

func (Dialect) Placeholder() squirrel.PlaceholderFormat { return squirrel.Question }

func (Dialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (Dialect) RandomOrder() string { return "RAND()" }

func (Dialect) MapColumnType(declared string) string {
	return common.MapColumnType(typeMap, declared, "TEXT")
}

func (Dialect) Columns(ctx context.Context, db *sql.DB, table string) ([]types.SchemaColumn, error) {
	schema, name := common.SplitTableName(table)
	query := `
		SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE
		FROM information_schema.COLUMNS
		WHERE TABLE_NAME = ? AND TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
		ORDER BY ORDINAL_POSITION`

	rows, err := db.QueryContext(ctx, query, name, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []types.SchemaColumn
	for rows.Next() {
		var column types.SchemaColumn
		var nullable string
		if err := rows.Scan(&column.Name, &column.Type, &nullable); err != nil {
			return nil, err
		}
		column.Nullable = nullable == "YES"
		columns = append(columns, column)
	}
	return columns, rows.Err()
}
