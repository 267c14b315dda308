package common

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/maksimowich/fake-data-generator/internal/types"
)

// Dialect holds what differs between SQL engines.
type Dialect interface {
	DriverName() string
	// DSN turns a configured URL into a driver data source name.
	DSN(url string) string
	Configure(db *sql.DB)
	Placeholder() squirrel.PlaceholderFormat
	QuoteIdentifier(name string) string
	// RandomOrder is an ORDER BY expression yielding a random permutation.
	RandomOrder() string
	Columns(ctx context.Context, db *sql.DB, table string) ([]types.SchemaColumn, error)
	// MapColumnType turns a declared type, possibly from another engine,
	// into one this engine accepts.
	MapColumnType(declared string) string
}

// Adapter implements sampling, destination creation, batch inserts and
// reference lookups over database/sql for any Dialect.
type Adapter struct {
	db      *sql.DB
	dialect Dialect
	qb      squirrel.StatementBuilderType
}

func New(d Dialect) *Adapter {
	return &Adapter{
		dialect: d,
		qb:      squirrel.StatementBuilder.PlaceholderFormat(d.Placeholder()),
	}
}

// NewWithDB wraps an open handle.
func NewWithDB(db *sql.DB, d Dialect) *Adapter {
	a := New(d)
	a.db = db
	return a
}

func (a *Adapter) Connect(ctx context.Context, url string) error {
	db, err := sql.Open(a.dialect.DriverName(), a.dialect.DSN(url))
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", a.dialect.DriverName(), err)
	}
	a.dialect.Configure(db)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping %s: %w", a.dialect.DriverName(), err)
	}
	a.db = db
	return nil
}

func (a *Adapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *Adapter) Ping(ctx context.Context) error {
	if a.db == nil {
		return fmt.Errorf("database not connected")
	}
	return a.db.PingContext(ctx)
}

func (a *Adapter) quote(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = a.dialect.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

func (a *Adapter) quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = a.quote(n)
	}
	return out
}

func (a *Adapter) schema(ctx context.Context, table string, include []string) ([]types.SchemaColumn, error) {
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}
	columns, err := a.dialect.Columns(ctx, a.db, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found or has no columns", table)
	}
	columns, err = FilterColumns(columns, include)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", table, err)
	}
	for _, c := range columns {
		if err := ValidateIdentifier(c.Name); err != nil {
			return nil, fmt.Errorf("table %s: %w", table, err)
		}
	}
	return columns, nil
}

func (a *Adapter) ReadSample(ctx context.Context, source string, include []string, size int) (*types.Sample, error) {
	columns, err := a.schema(ctx, source, include)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	q := a.qb.Select(a.quoteAll(names)...).From(a.quote(source))
	if size > 0 {
		q = q.OrderBy(a.dialect.RandomOrder()).Limit(uint64(size))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sample query: %w", err)
	}

	result, err := a.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read sample of %s: %w", source, err)
	}
	return &types.Sample{Columns: columns, Rows: result.Rows}, nil
}

func (a *Adapter) CreateLike(ctx context.Context, source, dest string, include []string, recreate bool) error {
	columns, err := a.schema(ctx, source, include)
	if err != nil {
		return err
	}
	return a.CreateFromSchema(ctx, dest, columns, recreate)
}

func (a *Adapter) CreateFromSchema(ctx context.Context, dest string, columns []types.SchemaColumn, recreate bool) error {
	if err := ValidateTableName(dest); err != nil {
		return err
	}
	if recreate {
		if _, err := a.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+a.quote(dest)); err != nil {
			return fmt.Errorf("failed to drop %s: %w", dest, err)
		}
	}

	defs := make([]string, len(columns))
	for i, c := range columns {
		if err := ValidateIdentifier(c.Name); err != nil {
			return err
		}
		defs[i] = a.quote(c.Name) + " " + a.dialect.MapColumnType(c.Type)
	}
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", a.quote(dest), strings.Join(defs, ", "))
	if _, err := a.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	return nil
}

func (a *Adapter) AppendBatch(ctx context.Context, dest string, columns []string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	if err := ValidateTableName(dest); err != nil {
		return err
	}
	for _, c := range columns {
		if err := ValidateIdentifier(c); err != nil {
			return err
		}
	}

	q := a.qb.Insert(a.quote(dest)).Columns(a.quoteAll(columns)...)
	for _, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("row has %d values, %d columns expected", len(row), len(columns))
		}
		q = q.Values(row...)
	}
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}
	if _, err := a.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert batch into %s: %w", dest, err)
	}
	return nil
}

func (a *Adapter) FetchReference(ctx context.Context, table, column string, n int) ([]interface{}, error) {
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}
	if err := ValidateIdentifier(column); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}

	query, args, err := a.qb.Select(a.quote(column)).
		From(a.quote(table)).
		OrderBy(a.dialect.RandomOrder()).
		Limit(uint64(n)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build reference query: %w", err)
	}

	result, err := a.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s.%s: %w", table, column, err)
	}
	values := make([]interface{}, len(result.Rows))
	for i, row := range result.Rows {
		values[i] = row[column]
	}
	return values, nil
}

func (a *Adapter) query(ctx context.Context, query string, args ...interface{}) (*QueryResult, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()
	return ScanRows(rows)
}
