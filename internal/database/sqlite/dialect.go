package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/maksimowich/fake-data-generator/internal/database/common"
	"github.com/maksimowich/fake-data-generator/internal/types"
	_ "github.com/mattn/go-sqlite3"
)

var typeMap = map[string]string{
	"varchar": "TEXT", "text": "TEXT", "char": "TEXT", "character varying": "TEXT", "string": "TEXT",
	"int": "INTEGER", "integer": "INTEGER", "bigint": "INTEGER", "smallint": "INTEGER", "tinyint": "INTEGER",
	"serial": "INTEGER", "bigserial": "INTEGER",
	"real": "REAL", "double": "REAL", "double precision": "REAL", "float": "REAL",
	"blob": "BLOB", "numeric": "NUMERIC", "decimal": "NUMERIC",
	"boolean": "INTEGER", "bool": "INTEGER",
	"json": "TEXT", "jsonb": "TEXT", "object": "TEXT", "uuid": "TEXT",
}

type Dialect struct{}

func New() *common.Adapter {
	return common.New(Dialect{})
}

func (Dialect) DriverName() string { return "sqlite3" }

func (Dialect) DSN(url string) string {
	dbPath := strings.TrimPrefix(url, "sqlite://")
	if !strings.Contains(dbPath, "?") {
		dbPath += "?cache=shared&_journal_mode=WAL"
	}
	return dbPath
}

func (Dialect) Configure(db *sql.DB) {
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(5 * time.Minute)
}

func (Dialect) Placeholder() squirrel.PlaceholderFormat { return squirrel.Question }

func (Dialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (Dialect) RandomOrder() string { return "RANDOM()" }

// MapColumnType keeps declared names SQLite understands so that the
// declared type read back still says date, timestamp or decimal(p,s).
func (Dialect) MapColumnType(declared string) string {
	return common.MapColumnType(typeMap, declared, "TEXT")
}

func (Dialect) Columns(ctx context.Context, db *sql.DB, table string) ([]types.SchemaColumn, error) {
	_, name := common.SplitTableName(table)
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(\"%s\")", name))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []types.SchemaColumn
	for rows.Next() {
		var cid int
		var column types.SchemaColumn
		var notNull int
		var defaultValue sql.NullString
		var pk int

		if err := rows.Scan(&cid, &column.Name, &column.Type, &notNull, &defaultValue, &pk); err != nil {
			return nil, err
		}
		column.Nullable = notNull == 0
		columns = append(columns, column)
	}
	return columns, rows.Err()
}
