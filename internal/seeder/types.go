package seeder

import (
	"fmt"
	"time"

	"github.com/maksimowich/fake-data-generator/internal/config"
)

type SeedConfig struct {
	Batch              int            // Rows requested per producer call
	Strict             bool           // Fail the entity on the first column error
	Recreate           bool           // Drop destinations before creating them
	Threshold          float64        // Categorical distinct-ratio threshold
	GridSize           int            // Density grid points
	MaxIDAttempts      int            // Identifier draws per value
	MaxReferenceRounds int            // Foreign key fetch rounds per request
	Location           *time.Location // Zone of current-moment timestamps
	Seed               int64          // 0 seeds from the clock
}

// NewSeedConfig reads the generation settings of a loaded configuration.
func NewSeedConfig(cfg *config.Config) (SeedConfig, error) {
	loc, err := cfg.Location()
	if err != nil {
		return SeedConfig{}, fmt.Errorf("failed to load generation settings: %w", err)
	}
	g := cfg.Generation
	return SeedConfig{
		Batch:              g.BatchSize,
		Strict:             g.Strict,
		Recreate:           g.Recreate,
		Threshold:          g.CategoricalThreshold,
		GridSize:           g.GridSize,
		MaxIDAttempts:      g.MaxIDAttempts,
		MaxReferenceRounds: g.MaxReferenceRounds,
		Location:           loc,
		Seed:               g.Seed,
	}, nil
}

// Result summarises one generated entity.
type Result struct {
	Entity string
	Rows   int
	// ColumnErrors lists the columns that were emitted as nulls.
	ColumnErrors []error
}
