package profile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
)

// Store saves and loads entity profiles.
type Store interface {
	Save(ctx context.Context, doc *Document) error
	Load(ctx context.Context, entity string) (*Document, error)
}

// FileStore keeps one file per entity in a directory.
type FileStore struct {
	Dir    string
	Format Format
}

func NewFileStore(dir string, format Format) *FileStore {
	return &FileStore{Dir: dir, Format: format}
}

// Path returns the file used for an entity.
func (s *FileStore) Path(entity string) string {
	return filepath.Join(s.Dir, entity+s.Format.Ext())
}

func (s *FileStore) Save(ctx context.Context, doc *Document) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create profile directory %s: %w", s.Dir, err)
	}
	data, err := Marshal(doc, s.Format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.Path(doc.Entity), data, 0644); err != nil {
		return fmt.Errorf("failed to write profile %s: %w", s.Path(doc.Entity), err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, entity string) (*Document, error) {
	return LoadFile(s.Path(entity))
}

// LoadFile reads a profile file, choosing the codec by extension.
func LoadFile(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, path)
		}
		return nil, fmt.Errorf("failed to open profile %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f, format)
}

// RedisStore keeps profiles as JSON values under "<prefix>:<entity>".
type RedisStore struct {
	Client redis.Cmdable
	Prefix string
}

func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "fakegen:profile"
	}
	return &RedisStore{Client: client, Prefix: prefix}
}

// NewRedisStoreFromURL connects to Redis and verifies the connection.
func NewRedisStoreFromURL(ctx context.Context, url, prefix string) (*RedisStore, func() error, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStore(client, prefix), client.Close, nil
}

func (s *RedisStore) Key(entity string) string {
	return s.Prefix + ":" + entity
}

func (s *RedisStore) Save(ctx context.Context, doc *Document) error {
	data, err := Marshal(doc, FormatJSON)
	if err != nil {
		return err
	}
	if err := s.Client.Set(ctx, s.Key(doc.Entity), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store profile %s: %w", doc.Entity, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, entity string) (*Document, error) {
	data, err := s.Client.Get(ctx, s.Key(entity)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, s.Key(entity))
		}
		return nil, fmt.Errorf("failed to read profile %s: %w", entity, err)
	}
	return Unmarshal(data, FormatJSON)
}
