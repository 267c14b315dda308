package database

import (
	"context"

	"github.com/maksimowich/fake-data-generator/internal/types"
)

// SampleReader reads rows of a source entity. A size of zero or less reads
// the whole source; otherwise at most size randomly chosen rows are returned.
type SampleReader interface {
	ReadSample(ctx context.Context, source string, include []string, size int) (*types.Sample, error)
}

// BatchWriter creates destination entities and appends generated rows.
type BatchWriter interface {
	CreateLike(ctx context.Context, source, dest string, include []string, recreate bool) error
	CreateFromSchema(ctx context.Context, dest string, columns []types.SchemaColumn, recreate bool) error
	AppendBatch(ctx context.Context, dest string, columns []string, rows [][]interface{}) error
}

// ReferenceProvider returns up to n values of a column in random order.
type ReferenceProvider interface {
	FetchReference(ctx context.Context, table, column string, n int) ([]interface{}, error)
}

type Adapter interface {
	Connect(ctx context.Context, url string) error
	Close() error
	Ping(ctx context.Context) error

	SampleReader
	BatchWriter
	ReferenceProvider
}

// NestedWriter is implemented by adapters that store nested values natively
// instead of as JSON text.
type NestedWriter interface {
	NativeNested() bool
}
