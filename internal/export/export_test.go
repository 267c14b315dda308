package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/maksimowich/fake-data-generator/internal/database"
	"github.com/maksimowich/fake-data-generator/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sourceAdapter answers reads; writes must never reach it.
type sourceAdapter struct {
	database.Adapter
	fetched []string
}

func (s *sourceAdapter) ReadSample(ctx context.Context, source string, include []string, size int) (*types.Sample, error) {
	return &types.Sample{Columns: []types.SchemaColumn{{Name: "id", Type: "bigint"}, {Name: "meta", Type: "json"}}}, nil
}

func (s *sourceAdapter) FetchReference(ctx context.Context, table, column string, n int) ([]interface{}, error) {
	s.fetched = append(s.fetched, table)
	return []interface{}{"external"}, nil
}

func newCapture(t *testing.T) (*Capture, *sourceAdapter) {
	t.Helper()
	src := &sourceAdapter{}
	c := NewCapture(src)
	ctx := context.Background()
	require.NoError(t, c.CreateLike(ctx, "docs", "docs_fake", nil, false))
	require.NoError(t, c.AppendBatch(ctx, "docs_fake", []string{"id", "meta"}, [][]interface{}{
		{int64(1), map[string]interface{}{"a": "x"}},
		{int64(2), nil},
	}))
	return c, src
}

func TestCaptureKeepsRows(t *testing.T) {
	c, _ := newCapture(t)
	tables := c.Tables()
	require.Len(t, tables, 1)
	assert.Equal(t, "docs_fake", tables[0].Name)
	assert.Equal(t, "bigint", tables[0].Columns[0].Type)
	assert.Len(t, tables[0].Rows, 2)
	assert.True(t, c.NativeNested())

	assert.ErrorContains(t, c.AppendBatch(context.Background(), "missing", []string{"id"}, [][]interface{}{{1}}), "not created")
}

func TestCaptureFetchReference(t *testing.T) {
	c, src := newCapture(t)
	ctx := context.Background()

	values, err := c.FetchReference(ctx, "docs_fake", "id", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []interface{}{int64(1), int64(2)}, values)
	assert.Empty(t, src.fetched)

	values, err = c.FetchReference(ctx, "users", "id", 10)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"external"}, values)
	assert.Equal(t, []string{"users"}, src.fetched)

	_, err = c.FetchReference(ctx, "docs_fake", "nope", 1)
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	c, _ := newCapture(t)
	path, err := c.Write(context.Background(), t.TempDir(), "json")
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var data ExportData
	require.NoError(t, json.Unmarshal(raw, &data))
	require.Len(t, data.Tables["docs_fake"], 2)
	assert.Equal(t, map[string]interface{}{"a": "x"}, data.Tables["docs_fake"][0]["meta"])
	assert.Nil(t, data.Tables["docs_fake"][1]["meta"])
}

func TestWriteCSV(t *testing.T) {
	c, _ := newCapture(t)
	dir, err := c.Write(context.Background(), t.TempDir(), "csv")
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "docs_fake.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id,meta\n1,\"{\"\"a\"\":\"\"x\"\"}\"\n2,\n", string(raw))

	_, err = c.Write(context.Background(), t.TempDir(), "xml")
	assert.ErrorContains(t, err, "unsupported export format")
}
