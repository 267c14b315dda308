package mongodb

import (
	"context"
	"fmt"
	"strings"

	"github.com/maksimowich/fake-data-generator/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Adapter treats collections as entities and top-level document fields as
// columns. Nested documents are read and written as plain maps.
type Adapter struct {
	client   *mongo.Client
	database *mongo.Database
	dbName   string
	logger   *zap.Logger
}

func New(logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{logger: logger}
}

func (a *Adapter) Connect(ctx context.Context, url string) error {
	clientOpts := options.Client().ApplyURI(url)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	a.client = client
	a.dbName = extractDBName(url, clientOpts)
	a.database = client.Database(a.dbName)
	a.logger.Debug("connected to MongoDB", zap.String("database", a.dbName))

	return nil
}

func extractDBName(url string, opts *options.ClientOptions) string {
	parts := strings.Split(url, "/")
	if len(parts) > 3 {
		dbPart := parts[len(parts)-1]
		if idx := strings.Index(dbPart, "?"); idx >= 0 {
			dbPart = dbPart[:idx]
		}
		if dbPart != "" && dbPart != "admin" {
			return dbPart
		}
	}

	if opts != nil && opts.Auth != nil && opts.Auth.AuthSource != "" && opts.Auth.AuthSource != "admin" {
		return opts.Auth.AuthSource
	}

	return "test"
}

func (a *Adapter) Close() error {
	if a.client != nil {
		return a.client.Disconnect(context.Background())
	}
	return nil
}

func (a *Adapter) Ping(ctx context.Context) error {
	if a.client == nil {
		return fmt.Errorf("database not connected")
	}
	return a.client.Ping(ctx, nil)
}

// NativeNested reports that nested values are stored as documents.
func (a *Adapter) NativeNested() bool {
	return true
}

func (a *Adapter) collection(name string) (*mongo.Collection, error) {
	if a.database == nil {
		return nil, fmt.Errorf("database not connected")
	}
	if name == "" || strings.ContainsAny(name, "$\x00") {
		return nil, fmt.Errorf("invalid collection name: %q", name)
	}
	return a.database.Collection(name), nil
}

func (a *Adapter) aggregate(ctx context.Context, name string, pipeline mongo.Pipeline) ([]bson.D, error) {
	coll, err := a.collection(name)
	if err != nil {
		return nil, err
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", name, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents of %s: %w", name, err)
	}
	return docs, nil
}

func (a *Adapter) ReadSample(ctx context.Context, source string, include []string, size int) (*types.Sample, error) {
	docs, err := a.aggregate(ctx, source, samplePipeline(size, include))
	if err != nil {
		return nil, err
	}
	sample := documentsToSample(docs, include)
	a.logger.Debug("sampled collection",
		zap.String("collection", source),
		zap.Int("documents", len(sample.Rows)),
		zap.Int("fields", len(sample.Columns)))
	return sample, nil
}

// CreateLike only honours recreate: collections need no declared schema.
func (a *Adapter) CreateLike(ctx context.Context, source, dest string, include []string, recreate bool) error {
	return a.CreateFromSchema(ctx, dest, nil, recreate)
}

func (a *Adapter) CreateFromSchema(ctx context.Context, dest string, columns []types.SchemaColumn, recreate bool) error {
	coll, err := a.collection(dest)
	if err != nil {
		return err
	}
	if recreate {
		if err := coll.Drop(ctx); err != nil {
			return fmt.Errorf("failed to drop collection %s: %w", dest, err)
		}
	}
	return nil
}

func (a *Adapter) AppendBatch(ctx context.Context, dest string, columns []string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	coll, err := a.collection(dest)
	if err != nil {
		return err
	}
	docs := make([]interface{}, len(rows))
	for i, row := range rows {
		doc, err := toDocument(columns, row)
		if err != nil {
			return err
		}
		docs[i] = doc
	}
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert documents into %s: %w", dest, err)
	}
	return nil
}

func (a *Adapter) FetchReference(ctx context.Context, table, column string, n int) ([]interface{}, error) {
	if n <= 0 {
		return nil, nil
	}
	docs, err := a.aggregate(ctx, table, referencePipeline(column, n))
	if err != nil {
		return nil, err
	}
	values := make([]interface{}, 0, len(docs))
	for _, doc := range docs {
		values = append(values, convertBSONValue(lookup(doc, column)))
	}
	return values, nil
}
