// Package csvfile stores entities as delimited text files in one directory,
// one file per entity named <entity>.csv with a header row.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/maksimowich/fake-data-generator/internal/database/common"
	"github.com/maksimowich/fake-data-generator/internal/profile"
	"github.com/maksimowich/fake-data-generator/internal/types"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

type Adapter struct {
	dir      string
	comma    rune
	encoding encoding.Encoding
	rand     *rand.Rand
}

// New creates an adapter for the given delimiter and WHATWG encoding label.
func New(comma rune, label string) (*Adapter, error) {
	if comma == 0 {
		comma = ','
	}
	enc := encoding.Encoding(unicode.UTF8)
	if label != "" {
		var err error
		enc, err = htmlindex.Get(label)
		if err != nil {
			return nil, fmt.Errorf("unsupported csv encoding %q: %w", label, err)
		}
	}
	return &Adapter{
		comma:    comma,
		encoding: enc,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Connect takes the directory holding the files.
func (a *Adapter) Connect(ctx context.Context, url string) error {
	dir := strings.TrimPrefix(url, "file://")
	if dir == "" {
		dir = "."
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to open csv directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	a.dir = dir
	return nil
}

func (a *Adapter) Close() error {
	return nil
}

func (a *Adapter) Ping(ctx context.Context) error {
	if a.dir == "" {
		return fmt.Errorf("csv directory not set")
	}
	return nil
}

// SetRand replaces the source used for sampling.
func (a *Adapter) SetRand(r *rand.Rand) {
	a.rand = r
}

func (a *Adapter) path(entity string) (string, error) {
	if err := common.ValidateIdentifier(entity); err != nil {
		return "", err
	}
	return filepath.Join(a.dir, entity+".csv"), nil
}

func (a *Adapter) read(entity string) ([]string, [][]string, error) {
	path, err := a.path(entity)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(a.encoding.NewDecoder().Reader(f))
	r.Comma = a.comma
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%s has no header", path)
		}
		return nil, nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return header, records, nil
}

func (a *Adapter) ReadSample(ctx context.Context, source string, include []string, size int) (*types.Sample, error) {
	header, records, err := a.read(source)
	if err != nil {
		return nil, err
	}

	if size > 0 && size < len(records) {
		a.rand.Shuffle(len(records), func(i, j int) { records[i], records[j] = records[j], records[i] })
		records = records[:size]
	}

	rows := make([]map[string]interface{}, len(records))
	for i, rec := range records {
		row := make(map[string]interface{}, len(header))
		for j, name := range header {
			if j < len(rec) && rec[j] != "" {
				row[name] = rec[j]
			} else {
				row[name] = nil
			}
		}
		rows[i] = row
	}

	columns := make([]types.SchemaColumn, len(header))
	for j, name := range header {
		columns[j] = types.SchemaColumn{Name: name, Type: common.InferTextType(rows, name), Nullable: true}
	}
	columns, err = common.FilterColumns(columns, include)
	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", source, err)
	}
	return &types.Sample{Columns: columns, Rows: rows}, nil
}

func (a *Adapter) CreateLike(ctx context.Context, source, dest string, include []string, recreate bool) error {
	header, _, err := a.read(source)
	if err != nil {
		return err
	}
	columns := make([]types.SchemaColumn, len(header))
	for i, name := range header {
		columns[i] = types.SchemaColumn{Name: name}
	}
	columns, err = common.FilterColumns(columns, include)
	if err != nil {
		return fmt.Errorf("entity %s: %w", source, err)
	}
	return a.CreateFromSchema(ctx, dest, columns, recreate)
}

// CreateFromSchema writes the header row. An existing file is kept unless
// recreate is set.
func (a *Adapter) CreateFromSchema(ctx context.Context, dest string, columns []types.SchemaColumn, recreate bool) error {
	path, err := a.path(dest)
	if err != nil {
		return err
	}
	if !recreate {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
	}

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Name
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := a.write(f, [][]string{header}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (a *Adapter) AppendBatch(ctx context.Context, dest string, columns []string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	path, err := a.path(dest)
	if err != nil {
		return err
	}

	records := make([][]string, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("row has %d values, %d columns expected", len(row), len(columns))
		}
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = profile.ToString(profile.Normalize(v))
		}
		records[i] = rec
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := a.write(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (a *Adapter) write(w io.Writer, records [][]string) error {
	enc := a.encoding.NewEncoder().Writer(w)
	cw := csv.NewWriter(enc)
	cw.Comma = a.comma
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func (a *Adapter) FetchReference(ctx context.Context, table, column string, n int) ([]interface{}, error) {
	if n <= 0 {
		return nil, nil
	}
	header, records, err := a.read(table)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, name := range header {
		if name == column {
			idx = i
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("column %s not found in %s", column, table)
	}

	values := make([]interface{}, 0, len(records))
	for _, rec := range records {
		if idx < len(rec) && rec[idx] != "" {
			values = append(values, rec[idx])
		}
	}
	a.rand.Shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })
	if len(values) > n {
		values = values[:n]
	}
	return values, nil
}
