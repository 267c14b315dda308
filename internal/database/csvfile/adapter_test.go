package csvfile

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/maksimowich/fake-data-generator/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdapter(t *testing.T, comma rune, label string) *Adapter {
	t.Helper()
	a, err := New(comma, label)
	require.NoError(t, err)
	require.NoError(t, a.Connect(context.Background(), t.TempDir()))
	a.SetRand(rand.New(rand.NewSource(1)))
	return a
}

func TestNewUnknownEncoding(t *testing.T) {
	_, err := New(',', "klingon-8")
	assert.ErrorContains(t, err, "klingon-8")
}

func TestConnectRequiresDirectory(t *testing.T) {
	a, err := New(',', "")
	require.NoError(t, err)
	assert.Error(t, a.Connect(context.Background(), filepath.Join(t.TempDir(), "missing")))
	assert.Error(t, a.Ping(context.Background()))
}

func TestRoundTripWindows1251(t *testing.T) {
	ctx := context.Background()
	a := newAdapter(t, ';', "windows-1251")

	columns := []types.SchemaColumn{{Name: "id"}, {Name: "name"}, {Name: "price"}, {Name: "born"}, {Name: "seen"}}
	require.NoError(t, a.CreateFromSchema(ctx, "people", columns, false))
	require.NoError(t, a.AppendBatch(ctx, "people", []string{"id", "name", "price", "born", "seen"}, [][]interface{}{
		{int64(1), "Ёжик", 10.5, time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)},
		{int64(2), "Пётр", 3.25, time.Date(1985, 7, 9, 0, 0, 0, 0, time.UTC), nil},
	}))

	raw, err := os.ReadFile(filepath.Join(a.dir, "people.csv"))
	require.NoError(t, err)
	assert.False(t, utf8.Valid(raw))

	sample, err := a.ReadSample(ctx, "people", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "price", "born", "seen"}, sample.ColumnNames())
	require.Len(t, sample.Rows, 2)
	assert.Equal(t, "Ёжик", sample.Rows[0]["name"])
	assert.Equal(t, "1990-01-02", sample.Rows[0]["born"])
	assert.Nil(t, sample.Rows[1]["seen"])

	typesByName := map[string]string{}
	for _, c := range sample.Columns {
		typesByName[c.Name] = c.Type
	}
	assert.Equal(t, map[string]string{
		"id":    "bigint",
		"name":  "text",
		"price": "double",
		"born":  "date",
		"seen":  "timestamp",
	}, typesByName)
}

func TestReadSampleIncludeAndSize(t *testing.T) {
	ctx := context.Background()
	a := newAdapter(t, ',', "utf-8")
	require.NoError(t, os.WriteFile(filepath.Join(a.dir, "items.csv"),
		[]byte("\uFEFFsku,qty,meta\nA1,1,\"{\"\"a\"\":1}\"\nB2,2,\"{\"\"a\"\":2}\"\nC3,3,\"{\"\"a\"\":3}\"\n"), 0644))

	sample, err := a.ReadSample(ctx, "items", []string{"meta", "sku"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"sku", "meta"}, sample.ColumnNames())
	assert.Equal(t, "json", sample.Columns[1].Type)
	assert.Len(t, sample.Rows, 2)

	_, err = a.ReadSample(ctx, "items", []string{"price"}, 0)
	assert.ErrorContains(t, err, "column price not found")

	_, err = a.ReadSample(ctx, "../etc", nil, 0)
	assert.Error(t, err)
}

func TestCreateLikeKeepsExistingFile(t *testing.T) {
	ctx := context.Background()
	a := newAdapter(t, ',', "")
	require.NoError(t, os.WriteFile(filepath.Join(a.dir, "src.csv"), []byte("a,b,c\n1,2,3\n"), 0644))

	require.NoError(t, a.CreateLike(ctx, "src", "dst", []string{"c", "a"}, false))
	require.NoError(t, a.AppendBatch(ctx, "dst", []string{"a", "c"}, [][]interface{}{{int64(7), "x"}}))
	require.NoError(t, a.CreateLike(ctx, "src", "dst", []string{"c", "a"}, false))

	data, err := os.ReadFile(filepath.Join(a.dir, "dst.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a,c\n7,x\n", string(data))

	require.NoError(t, a.CreateLike(ctx, "src", "dst", nil, true))
	data, err = os.ReadFile(filepath.Join(a.dir, "dst.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a,b,c\n", string(data))
}

func TestFetchReference(t *testing.T) {
	ctx := context.Background()
	a := newAdapter(t, ',', "")
	require.NoError(t, os.WriteFile(filepath.Join(a.dir, "users.csv"), []byte("id,name\n1,a\n2,b\n,c\n3,d\n"), 0644))

	values, err := a.FetchReference(ctx, "users", "id", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []interface{}{"1", "2", "3"}, values)

	values, err = a.FetchReference(ctx, "users", "id", 2)
	require.NoError(t, err)
	assert.Len(t, values, 2)

	_, err = a.FetchReference(ctx, "users", "email", 2)
	assert.ErrorContains(t, err, "column email not found")
}
