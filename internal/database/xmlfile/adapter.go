// Package xmlfile stores entities as XML documents in one directory, one
// file per entity named <entity>.xml. The children of the root element are
// records and the children of a record are its columns. Nested elements
// become nested values and repeated siblings become lists.
package xmlfile

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/maksimowich/fake-data-generator/internal/database/common"
	"github.com/maksimowich/fake-data-generator/internal/profile"
	"github.com/maksimowich/fake-data-generator/internal/types"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	defaultRoot   = "rows"
	defaultRecord = "row"
)

// tailSize bounds the bytes read back when looking for the closing root tag.
const tailSize = 512

type Adapter struct {
	dir  string
	tags map[string]string
	rand *rand.Rand
}

func New() *Adapter {
	return &Adapter{
		tags: make(map[string]string),
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Connect takes the directory holding the files.
func (a *Adapter) Connect(ctx context.Context, url string) error {
	dir := strings.TrimPrefix(url, "file://")
	if dir == "" {
		dir = "."
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to open xml directory: %w", err)
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
		return fmt.Errorf("xml directory not set")
	}
	return nil
}

// SetRand replaces the source used for sampling.
func (a *Adapter) SetRand(r *rand.Rand) {
	a.rand = r
}

// NativeNested reports that nested values are written as child elements.
func (a *Adapter) NativeNested() bool {
	return true
}

func (a *Adapter) path(entity string) (string, error) {
	if err := common.ValidateTableName(entity); err != nil {
		return "", err
	}
	return filepath.Join(a.dir, entity+".xml"), nil
}

// element is a generic XML element tree.
type element struct {
	XMLName  xml.Name
	Content  string    `xml:",chardata"`
	Children []element `xml:",any"`
}

// document is a parsed entity file.
type document struct {
	root    string
	record  string
	columns []string
	rows    []map[string]interface{}
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported xml encoding %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

func (a *Adapter) read(entity string) (*document, error) {
	path, err := a.path(entity)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	dec.CharsetReader = charsetReader
	var root element
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	doc := &document{root: root.XMLName.Local, record: defaultRecord}
	seen := make(map[string]bool)
	for i, rec := range root.Children {
		if i == 0 {
			doc.record = rec.XMLName.Local
		}
		row := children(rec)
		for _, child := range rec.Children {
			if name := child.XMLName.Local; !seen[name] {
				seen[name] = true
				doc.columns = append(doc.columns, name)
			}
		}
		doc.rows = append(doc.rows, row)
	}
	for _, row := range doc.rows {
		for _, name := range doc.columns {
			if _, ok := row[name]; !ok {
				row[name] = nil
			}
		}
	}
	return doc, nil
}

// children groups the child elements of e by tag. Repeated tags give lists.
func children(e element) map[string]interface{} {
	counts := make(map[string]int, len(e.Children))
	for _, child := range e.Children {
		counts[child.XMLName.Local]++
	}
	out := make(map[string]interface{}, len(counts))
	for _, child := range e.Children {
		name := child.XMLName.Local
		if counts[name] > 1 {
			list, _ := out[name].([]interface{})
			out[name] = append(list, value(child))
		} else {
			out[name] = value(child)
		}
	}
	return out
}

func value(e element) interface{} {
	if len(e.Children) > 0 {
		return children(e)
	}
	text := strings.TrimSpace(e.Content)
	if text == "" {
		return nil
	}
	return text
}

func (a *Adapter) ReadSample(ctx context.Context, source string, include []string, size int) (*types.Sample, error) {
	doc, err := a.read(source)
	if err != nil {
		return nil, err
	}

	rows := doc.rows
	if size > 0 && size < len(rows) {
		a.rand.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		rows = rows[:size]
	}

	columns := make([]types.SchemaColumn, len(doc.columns))
	for j, name := range doc.columns {
		columns[j] = types.SchemaColumn{Name: name, Type: columnType(rows, name), Nullable: true}
	}
	columns, err = common.FilterColumns(columns, include)
	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", source, err)
	}
	return &types.Sample{Columns: columns, Rows: rows}, nil
}

// columnType gives nested columns the json type and infers the rest from
// their text.
func columnType(rows []map[string]interface{}, column string) string {
	for _, row := range rows {
		switch row[column].(type) {
		case map[string]interface{}, []interface{}:
			return "json"
		}
	}
	return common.InferTextType(rows, column)
}

// CreateLike creates the destination with the root and record tags of the
// source document.
func (a *Adapter) CreateLike(ctx context.Context, source, dest string, include []string, recreate bool) error {
	doc, err := a.read(source)
	if err != nil {
		return err
	}
	columns := make([]types.SchemaColumn, len(doc.columns))
	for i, name := range doc.columns {
		columns[i] = types.SchemaColumn{Name: name}
	}
	if _, err := common.FilterColumns(columns, include); err != nil {
		return fmt.Errorf("entity %s: %w", source, err)
	}
	return a.create(dest, doc.root, doc.record, recreate)
}

// CreateFromSchema writes an empty document. An existing file is kept
// unless recreate is set.
func (a *Adapter) CreateFromSchema(ctx context.Context, dest string, columns []types.SchemaColumn, recreate bool) error {
	return a.create(dest, defaultRoot, defaultRecord, recreate)
}

func (a *Adapter) create(dest, root, record string, recreate bool) error {
	path, err := a.path(dest)
	if err != nil {
		return err
	}
	if !recreate {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	fmt.Fprintf(&buf, "<%s>\n</%s>\n", root, root)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	a.tags[dest] = record
	return nil
}

// recordTag returns the tag of the first record in an existing file.
func (a *Adapter) recordTag(dest, path string) (string, error) {
	if tag, ok := a.tags[dest]; ok {
		return tag, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	dec.CharsetReader = charsetReader
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return defaultRecord, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", path, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 1 {
				return t.Name.Local, nil
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
}

// AppendBatch writes the rows as records before the closing root tag.
// Null values are left out.
func (a *Adapter) AppendBatch(ctx context.Context, dest string, columns []string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	path, err := a.path(dest)
	if err != nil {
		return err
	}
	record, err := a.recordTag(dest, path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("  ", "  ")
	for _, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("row has %d values, %d columns expected", len(row), len(columns))
		}
		start := xml.StartElement{Name: xml.Name{Local: record}}
		if err := enc.EncodeToken(start); err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
		for j, name := range columns {
			if err := encodeValue(enc, name, row[j]); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(start.End()); err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
	}
	if err := enc.Flush(); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	buf.WriteString("\n")

	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := insertBeforeClose(f, buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}
	return f.Close()
}

func encodeValue(enc *xml.Encoder, name string, v interface{}) error {
	switch val := v.(type) {
	case nil:
		return nil
	case []interface{}:
		for _, item := range val {
			if err := encodeValue(enc, name, item); err != nil {
				return err
			}
		}
		return nil
	}

	start := xml.StartElement{Name: xml.Name{Local: name}}
	if err := enc.EncodeToken(start); err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if m, ok := v.(map[string]interface{}); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := encodeValue(enc, k, m[k]); err != nil {
				return err
			}
		}
	} else if err := enc.EncodeToken(xml.CharData(profile.ToString(profile.Normalize(v)))); err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return nil
}

// insertBeforeClose writes data in front of the last closing tag of f.
func insertBeforeClose(f *os.File, data []byte) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	offset := info.Size() - tailSize
	if offset < 0 {
		offset = 0
	}
	tail := make([]byte, info.Size()-offset)
	if _, err := f.ReadAt(tail, offset); err != nil && err != io.EOF {
		return err
	}
	idx := bytes.LastIndex(tail, []byte("</"))
	if idx < 0 {
		return fmt.Errorf("closing root tag not found")
	}
	closing := append([]byte(nil), tail[idx:]...)

	if _, err := f.WriteAt(append(data, closing...), offset+int64(idx)); err != nil {
		return err
	}
	return nil
}

func (a *Adapter) FetchReference(ctx context.Context, table, column string, n int) ([]interface{}, error) {
	if n <= 0 {
		return nil, nil
	}
	doc, err := a.read(table)
	if err != nil {
		return nil, err
	}
	found := false
	for _, name := range doc.columns {
		if name == column {
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("column %s not found in %s", column, table)
	}

	values := make([]interface{}, 0, len(doc.rows))
	for _, row := range doc.rows {
		if s, ok := row[column].(string); ok {
			values = append(values, s)
		}
	}
	a.rand.Shuffle(len(values), func(i, j int) { values[i], values[j] = values[j], values[i] })
	if len(values) > n {
		values = values[:n]
	}
	return values, nil
}
