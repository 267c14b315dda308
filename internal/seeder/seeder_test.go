package seeder

import (
	"context"
	"fmt"
	"testing"

	"github.com/maksimowich/fake-data-generator/internal/config"
	"github.com/maksimowich/fake-data-generator/internal/profile"
	"github.com/maksimowich/fake-data-generator/internal/reference"
	"github.com/maksimowich/fake-data-generator/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTable struct {
	columns []types.SchemaColumn
	rows    [][]interface{}
}

func (t *fakeTable) index(column string) int {
	for i, c := range t.columns {
		if c.Name == column {
			return i
		}
	}
	return -1
}

// memoryAdapter keeps tables in memory and records every call.
type memoryAdapter struct {
	tables  map[string]*fakeTable
	calls   []string
	appends map[string][]int
}

func newMemoryAdapter() *memoryAdapter {
	return &memoryAdapter{tables: map[string]*fakeTable{}, appends: map[string][]int{}}
}

func (m *memoryAdapter) addTable(name string, columns []types.SchemaColumn, rows ...[]interface{}) {
	m.tables[name] = &fakeTable{columns: columns, rows: rows}
}

func (m *memoryAdapter) Connect(ctx context.Context, url string) error { return nil }
func (m *memoryAdapter) Close() error                                  { return nil }
func (m *memoryAdapter) Ping(ctx context.Context) error                { return nil }

func (m *memoryAdapter) ReadSample(ctx context.Context, source string, include []string, size int) (*types.Sample, error) {
	m.calls = append(m.calls, "sample "+source)
	t, ok := m.tables[source]
	if !ok {
		return nil, fmt.Errorf("table %s not found", source)
	}
	rows := make([]map[string]interface{}, len(t.rows))
	for i, r := range t.rows {
		row := map[string]interface{}{}
		for j, c := range t.columns {
			row[c.Name] = r[j]
		}
		rows[i] = row
	}
	return &types.Sample{Columns: t.columns, Rows: rows}, nil
}

func (m *memoryAdapter) CreateLike(ctx context.Context, source, dest string, include []string, recreate bool) error {
	m.calls = append(m.calls, "create "+dest)
	src, ok := m.tables[source]
	if !ok {
		return fmt.Errorf("table %s not found", source)
	}
	if _, exists := m.tables[dest]; !exists || recreate {
		m.tables[dest] = &fakeTable{columns: src.columns}
	}
	return nil
}

func (m *memoryAdapter) CreateFromSchema(ctx context.Context, dest string, columns []types.SchemaColumn, recreate bool) error {
	m.calls = append(m.calls, "create "+dest)
	if _, exists := m.tables[dest]; !exists || recreate {
		m.tables[dest] = &fakeTable{columns: columns}
	}
	return nil
}

func (m *memoryAdapter) AppendBatch(ctx context.Context, dest string, columns []string, rows [][]interface{}) error {
	t, ok := m.tables[dest]
	if !ok {
		return fmt.Errorf("table %s not found", dest)
	}
	m.appends[dest] = append(m.appends[dest], len(rows))
	for _, r := range rows {
		full := make([]interface{}, len(t.columns))
		for j, name := range columns {
			full[t.index(name)] = r[j]
		}
		t.rows = append(t.rows, full)
	}
	return nil
}

func (m *memoryAdapter) FetchReference(ctx context.Context, table, column string, n int) ([]interface{}, error) {
	t, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("table %s not found", table)
	}
	idx := t.index(column)
	if idx < 0 {
		return nil, fmt.Errorf("column %s not found", column)
	}
	var values []interface{}
	for _, r := range t.rows {
		if len(values) == n {
			break
		}
		values = append(values, r[idx])
	}
	return values, nil
}

func testConfig() SeedConfig {
	return SeedConfig{Batch: 100, Seed: 42}
}

func idRows(n int) [][]interface{} {
	rows := make([][]interface{}, n)
	for i := range rows {
		rows[i] = []interface{}{int64(i + 1)}
	}
	return rows
}

func fkEntity(dest, source, ref string) config.Entity {
	e := config.Entity{Source: source, Destination: dest, OutputSize: 10}
	if ref != "" {
		e.Columns = []profile.Hints{{Name: "parent_id", ForeignKey: &profile.ForeignKeyRef{Table: ref, Column: "id"}}}
	}
	return e
}

func TestBuildInsertionOrder(t *testing.T) {
	a := fkEntity("a", "src", "")
	b := fkEntity("b", "src", "a")
	c := fkEntity("c", "src", "b")

	for _, input := range [][]config.Entity{{a, b, c}, {c, b, a}, {b, c, a}, {c, a, b}} {
		g, err := NewDependencyGraph(input)
		require.NoError(t, err)
		order, err := g.BuildInsertionOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, g.GetOrder())
		assert.Len(t, order, 3)
	}
}

func TestBuildInsertionOrderKeepsInputOrder(t *testing.T) {
	g, err := NewDependencyGraph([]config.Entity{
		fkEntity("z", "src", ""),
		fkEntity("y", "src", "external_table"),
		fkEntity("x", "src", ""),
	})
	require.NoError(t, err)
	_, err = g.BuildInsertionOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "y", "x"}, g.GetOrder())
}

func TestNestedReferenceAddsEdge(t *testing.T) {
	doc := config.Entity{Source: "src", Destination: "doc", OutputSize: 1, Columns: []profile.Hints{{
		Name:   "meta",
		Fields: []profile.Hints{{Name: "owner", ForeignKey: &profile.ForeignKeyRef{Table: "users", Column: "id"}}},
	}}}
	g, err := NewDependencyGraph([]config.Entity{doc, fkEntity("users", "src", "")})
	require.NoError(t, err)
	_, err = g.BuildInsertionOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "doc"}, g.GetOrder())
}

func TestCyclicDependency(t *testing.T) {
	tests := []struct {
		name     string
		entities []config.Entity
		want     []string
	}{
		{"mutual", []config.Entity{fkEntity("a", "src", "b"), fkEntity("b", "src", "a")}, []string{"a", "b"}},
		{"self", []config.Entity{fkEntity("root", "src", ""), fkEntity("tree", "src", "tree")}, []string{"tree"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewDependencyGraph(tt.entities)
			require.NoError(t, err)
			_, err = g.BuildInsertionOrder()
			require.ErrorIs(t, err, ErrCyclicDependency)
			var cerr *CyclicDependencyError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.want, cerr.Entities)
			assert.True(t, IsCyclicDependency(err))
		})
	}
}

func TestDuplicateDestination(t *testing.T) {
	_, err := NewDependencyGraph([]config.Entity{fkEntity("a", "src", ""), fkEntity("a", "other", "")})
	assert.ErrorContains(t, err, "duplicate destination: a")
}

func TestSeedCycleWritesNothing(t *testing.T) {
	m := newMemoryAdapter()
	m.addTable("src", []types.SchemaColumn{{Name: "id", Type: "bigint"}, {Name: "parent_id", Type: "bigint"}})

	s := NewSeeder(m, testConfig(), nil, nil)
	_, err := s.Seed(context.Background(), []config.Entity{fkEntity("a", "src", "b"), fkEntity("b", "src", "a")})
	require.True(t, IsCyclicDependency(err))
	assert.Empty(t, m.calls)
	assert.Empty(t, m.appends)
}

func TestSeedBatchSizes(t *testing.T) {
	m := newMemoryAdapter()
	m.addTable("users", []types.SchemaColumn{{Name: "id", Type: "bigint"}}, idRows(20)...)

	s := NewSeeder(m, testConfig(), nil, nil)
	results, err := s.Seed(context.Background(), []config.Entity{{
		Source:      "users",
		Destination: "users_fake",
		OutputSize:  250,
		Columns:     []profile.Hints{{Name: "id", Identifier: true}},
	}})
	require.NoError(t, err)

	assert.Equal(t, []int{100, 100, 50}, m.appends["users_fake"])
	require.Len(t, results, 1)
	assert.Equal(t, 250, results[0].Rows)
	assert.Empty(t, results[0].ColumnErrors)

	rows := m.tables["users_fake"].rows
	require.Len(t, rows, 250)
	assert.Equal(t, int64(1), rows[0][0])
	assert.Equal(t, int64(250), rows[249][0])
}

func TestSeedResolvesReferences(t *testing.T) {
	m := newMemoryAdapter()
	m.addTable("users", []types.SchemaColumn{{Name: "id", Type: "bigint"}}, idRows(20)...)
	orderRows := make([][]interface{}, 20)
	for i := range orderRows {
		orderRows[i] = []interface{}{int64(i + 1), int64(1), "paid"}
	}
	m.addTable("orders", []types.SchemaColumn{
		{Name: "id", Type: "bigint"},
		{Name: "user_id", Type: "bigint"},
		{Name: "status", Type: "text"},
	}, orderRows...)

	cfg := testConfig()
	cfg.Batch = 7
	s := NewSeeder(m, cfg, nil, nil)
	results, err := s.Seed(context.Background(), []config.Entity{
		{
			Source:      "orders",
			Destination: "orders_fake",
			OutputSize:  30,
			Columns: []profile.Hints{
				{Name: "id", Identifier: true},
				{Name: "user_id", ForeignKey: &profile.ForeignKeyRef{Table: "users_fake", Column: "id"}},
			},
		},
		{
			Source:      "users",
			Destination: "users_fake",
			OutputSize:  5,
			Columns:     []profile.Hints{{Name: "id", Identifier: true}},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "users_fake", results[0].Entity)
	assert.Equal(t, "orders_fake", results[1].Entity)

	assert.Equal(t, []int{7, 7, 7, 7, 2}, m.appends["orders_fake"])
	userIDs := []interface{}{int64(1), int64(2), int64(3), int64(4), int64(5)}
	for _, row := range m.tables["orders_fake"].rows {
		assert.Contains(t, userIDs, row[1])
		assert.Equal(t, "paid", row[2])
	}
}

func TestSeedDegradesFailingColumn(t *testing.T) {
	newAdapter := func() *memoryAdapter {
		m := newMemoryAdapter()
		m.addTable("items", []types.SchemaColumn{
			{Name: "id", Type: "bigint"},
			{Name: "owner", Type: "bigint"},
			{Name: "qty", Type: "int"},
		},
			[]interface{}{int64(1), int64(1), "many"},
			[]interface{}{int64(2), int64(1), "few"},
		)
		return m
	}
	entity := config.Entity{
		Source:      "items",
		Destination: "items_fake",
		OutputSize:  3,
		Columns: []profile.Hints{
			{Name: "id", Identifier: true},
			{Name: "owner", ForeignKey: &profile.ForeignKeyRef{Table: "ghosts", Column: "id"}},
		},
	}

	m := newAdapter()
	results, err := NewSeeder(m, testConfig(), nil, nil).Seed(context.Background(), []config.Entity{entity})
	require.NoError(t, err)
	require.Len(t, results[0].ColumnErrors, 2)
	assert.True(t, profile.IsSchemaInference(results[0].ColumnErrors[0]))
	assert.True(t, reference.IsReferenceUnavailable(results[0].ColumnErrors[1]))
	for _, row := range m.tables["items_fake"].rows {
		assert.Nil(t, row[1])
		assert.Nil(t, row[2])
	}
	assert.Len(t, m.tables["items_fake"].rows, 3)

	cfg := testConfig()
	cfg.Strict = true
	m = newAdapter()
	_, err = NewSeeder(m, cfg, nil, nil).Seed(context.Background(), []config.Entity{entity})
	require.Error(t, err)
	assert.True(t, profile.IsSchemaInference(err))
	assert.Empty(t, m.appends)
}

func TestProfileRoundTrip(t *testing.T) {
	m := newMemoryAdapter()
	rows := make([][]interface{}, 40)
	for i := range rows {
		status := "new"
		if i%4 == 0 {
			status = "closed"
		}
		rows[i] = []interface{}{int64(i + 1), status}
	}
	m.addTable("tickets", []types.SchemaColumn{{Name: "id", Type: "bigint"}, {Name: "status", Type: "varchar(10)"}}, rows...)

	format, err := profile.ParseFormat("yaml")
	require.NoError(t, err)
	store := profile.NewFileStore(t.TempDir(), format)
	s := NewSeeder(m, testConfig(), store, nil)

	entity := config.Entity{
		Source:      "tickets",
		Destination: "tickets_fake",
		OutputSize:  25,
		Columns:     []profile.Hints{{Name: "id", Identifier: true}},
	}
	doc, err := s.SaveProfile(context.Background(), entity)
	require.NoError(t, err)
	assert.Equal(t, "tickets_fake", doc.Entity)
	require.Len(t, doc.Columns, 2)
	assert.Equal(t, "categorical", doc.Columns[1].Type)

	m.calls = nil
	result, err := s.SeedFromProfile(context.Background(), config.Entity{
		Destination: "tickets_fake",
		OutputSize:  25,
		Columns:     []profile.Hints{{Name: "status", Values: []interface{}{"archived"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 25, result.Rows)
	assert.Equal(t, []string{"create tickets_fake"}, m.calls)

	table := m.tables["tickets_fake"]
	assert.Equal(t, "varchar(10)", table.columns[1].Type)
	for i, row := range table.rows {
		assert.Equal(t, int64(i+1), row[0])
		assert.Equal(t, "archived", row[1])
	}
}

func TestSeedFromProfileKeepsStoredCategories(t *testing.T) {
	m := newMemoryAdapter()
	format, err := profile.ParseFormat("msgpack")
	require.NoError(t, err)
	store := profile.NewFileStore(t.TempDir(), format)

	status, err := profile.NewCategorical("status", "text", []interface{}{"a", "b"}, []float64{0.5, 0.5})
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), profile.NewDocument("stored", []*profile.ColumnProfile{status})))

	s := NewSeeder(m, testConfig(), store, nil)
	results, err := s.Seed(context.Background(), []config.Entity{{Destination: "out", Profile: "stored", OutputSize: 50}})
	require.NoError(t, err)
	assert.Equal(t, 50, results[0].Rows)
	for _, row := range m.tables["out"].rows {
		assert.Contains(t, []interface{}{"a", "b"}, row[0])
	}
}

func TestSeedOrdersStoredReferences(t *testing.T) {
	m := newMemoryAdapter()
	m.addTable("users", []types.SchemaColumn{{Name: "id", Type: "bigint"}}, idRows(20)...)
	format, err := profile.ParseFormat("json")
	require.NoError(t, err)
	store := profile.NewFileStore(t.TempDir(), format)

	userID := profile.NewForeignKey("user_id", "bigint", profile.ForeignKeyRef{Table: "users_fake", Column: "id"})
	require.NoError(t, store.Save(context.Background(), profile.NewDocument("orders_fake", []*profile.ColumnProfile{userID})))

	s := NewSeeder(m, testConfig(), store, nil)
	results, err := s.Seed(context.Background(), []config.Entity{
		{Destination: "orders_fake", OutputSize: 12},
		{
			Source:      "users",
			Destination: "users_fake",
			OutputSize:  5,
			Columns:     []profile.Hints{{Name: "id", Identifier: true}},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "users_fake", results[0].Entity)
	assert.Equal(t, "orders_fake", results[1].Entity)
	assert.Empty(t, results[1].ColumnErrors)

	userIDs := []interface{}{int64(1), int64(2), int64(3), int64(4), int64(5)}
	rows := m.tables["orders_fake"].rows
	require.Len(t, rows, 12)
	for _, row := range rows {
		assert.Contains(t, userIDs, row[0])
	}
}

func TestSeedStoredReferenceCycle(t *testing.T) {
	m := newMemoryAdapter()
	format, err := profile.ParseFormat("yaml")
	require.NoError(t, err)
	store := profile.NewFileStore(t.TempDir(), format)

	nested := profile.NewStructured("meta", "jsonb", []*profile.ColumnProfile{
		profile.NewForeignKey("owner", "", profile.ForeignKeyRef{Table: "b", Column: "id"}),
	})
	require.NoError(t, store.Save(context.Background(), profile.NewDocument("a", []*profile.ColumnProfile{nested})))
	require.NoError(t, store.Save(context.Background(), profile.NewDocument("b", []*profile.ColumnProfile{
		profile.NewForeignKey("a_id", "bigint", profile.ForeignKeyRef{Table: "a", Column: "id"}),
	})))

	s := NewSeeder(m, testConfig(), store, nil)
	_, err = s.Seed(context.Background(), []config.Entity{
		{Destination: "a", OutputSize: 5},
		{Destination: "b", OutputSize: 5},
	})
	require.True(t, IsCyclicDependency(err))
	var cerr *CyclicDependencyError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{"a", "b"}, cerr.Entities)
	assert.Empty(t, m.calls)
}

func TestAddReferencesUnknownEntity(t *testing.T) {
	g, err := NewDependencyGraph([]config.Entity{fkEntity("a", "src", "")})
	require.NoError(t, err)
	assert.ErrorContains(t, g.AddReferences("missing", []string{"a"}), "unknown entity: missing")
}

func TestIsValidIdentifier(t *testing.T) {
	assert.True(t, isValidIdentifier("users"))
	assert.True(t, isValidIdentifier("public.users"))
	assert.False(t, isValidIdentifier("users; DROP TABLE x"))
	assert.False(t, isValidIdentifier("a.b.c"))

	_, err := NewSeeder(newMemoryAdapter(), testConfig(), nil, nil).Seed(context.Background(),
		[]config.Entity{{Source: "x", Destination: "bad name", OutputSize: 1}})
	assert.ErrorContains(t, err, "invalid destination name")
}
