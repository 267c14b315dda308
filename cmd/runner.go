package cmd

import (
	"context"
	"fmt"

	"github.com/maksimowich/fake-data-generator/internal/config"
	"github.com/maksimowich/fake-data-generator/internal/database"
	"github.com/maksimowich/fake-data-generator/internal/profile"
	"github.com/maksimowich/fake-data-generator/internal/seeder"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	batchSize int
	seed      int64
	strict    bool
	recreate  bool
)

func addGenerationFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&batchSize, "batch", 0, "Rows per insert batch (overrides generation.batch_size)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed for reproducible output")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on the first column error instead of emitting nulls")
	cmd.Flags().BoolVar(&recreate, "recreate", false, "Drop destinations before generating")
}

// runner holds everything a command needs for one run.
type runner struct {
	cfg     *config.Config
	logger  *zap.Logger
	adapter database.Adapter
	seeder  *seeder.Seeder
	closers []func() error
}

func newRunner(ctx context.Context, cmd *cobra.Command) (*runner, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlagOverrides(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	r := &runner{cfg: cfg, logger: logger}

	dbURL, err := cfg.GetDatabaseURL()
	if err != nil {
		r.Close()
		return nil, err
	}
	adapter, err := database.NewAdapter(cfg.Database.Provider, database.Options{
		CSVDelimiter: []rune(cfg.CSV.Delimiter)[0],
		CSVEncoding:  cfg.CSV.Encoding,
		Logger:       logger,
	})
	if err != nil {
		r.Close()
		return nil, err
	}
	if err := adapter.Connect(ctx, dbURL); err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	r.adapter = adapter
	r.closers = append(r.closers, adapter.Close)

	store, err := r.openStore(ctx)
	if err != nil {
		r.Close()
		return nil, err
	}

	seedConfig, err := seeder.NewSeedConfig(cfg)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.seeder = seeder.NewSeeder(adapter, seedConfig, store, logger)
	return r, nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Lookup("batch") == nil {
		return
	}
	if flags.Changed("batch") {
		cfg.Generation.BatchSize = batchSize
	}
	if flags.Changed("seed") {
		cfg.Generation.Seed = seed
	}
	if flags.Changed("strict") {
		cfg.Generation.Strict = strict
	}
	if flags.Changed("recreate") {
		cfg.Generation.Recreate = recreate
	}
}

func (r *runner) openStore(ctx context.Context) (profile.Store, error) {
	format, err := profile.ParseFormat(r.cfg.Profiles.Format)
	if err != nil {
		return nil, err
	}
	if r.cfg.Profiles.Store != "redis" {
		if err := r.cfg.EnsureDirectories(); err != nil {
			return nil, err
		}
		return profile.NewFileStore(r.cfg.Profiles.Dir, format), nil
	}

	redisURL, err := r.cfg.GetRedisURL()
	if err != nil {
		return nil, err
	}
	store, closeFn, err := profile.NewRedisStoreFromURL(ctx, redisURL, r.cfg.Profiles.RedisPrefix)
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, closeFn)
	return store, nil
}

// entities returns the configured entities, or only the named one.
func (r *runner) entities(name string) ([]config.Entity, error) {
	if name == "" {
		if len(r.cfg.Entities) == 0 {
			return nil, fmt.Errorf("no entities configured in %s", config.FileName)
		}
		return r.cfg.Entities, nil
	}
	e, ok := r.cfg.Entity(name)
	if !ok {
		return nil, fmt.Errorf("entity %s not found in config", name)
	}
	return []config.Entity{e}, nil
}

func (r *runner) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.logger.Sync()
}
