package seeder

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/maksimowich/fake-data-generator/internal/config"
	"github.com/maksimowich/fake-data-generator/internal/database"
	"github.com/maksimowich/fake-data-generator/internal/generator"
	"github.com/maksimowich/fake-data-generator/internal/profile"
	"github.com/maksimowich/fake-data-generator/internal/reference"
	"github.com/maksimowich/fake-data-generator/internal/types"
	"go.uber.org/zap"
)

// validIdentifier validates SQL identifiers (table/column names) to prevent SQL injection
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const defaultBatchSize = 100

type Seeder struct {
	Adapter database.Adapter
	Config  SeedConfig
	Logger  *zap.Logger
	Store   profile.Store

	rand *rand.Rand
}

func NewSeeder(adapter database.Adapter, cfg SeedConfig, store profile.Store, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{Adapter: adapter, Config: cfg, Logger: logger, Store: store}
}

// isValidIdentifier checks a bare or schema-qualified entity name.
func isValidIdentifier(name string) bool {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return false
	}
	for _, p := range parts {
		if !validIdentifier.MatchString(p) {
			return false
		}
	}
	return true
}

func (s *Seeder) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Seeder) random() *rand.Rand {
	if s.rand == nil {
		seed := s.Config.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		s.rand = rand.New(rand.NewSource(seed))
	}
	return s.rand
}

func (s *Seeder) profiler() *profile.Profiler {
	return profile.NewProfiler(s.Config.Threshold, s.Config.GridSize, s.logger())
}

func (s *Seeder) env() generator.Env {
	env := generator.Env{
		Rand:          s.random(),
		Resolver:      reference.NewResolver(s.Adapter, s.Config.MaxReferenceRounds, s.logger()),
		Location:      s.Config.Location,
		MaxIDAttempts: s.Config.MaxIDAttempts,
		Logger:        s.logger(),
	}
	if nw, ok := s.Adapter.(database.NestedWriter); ok {
		env.RawStructured = nw.NativeNested()
	}
	return env
}

// Seed generates every entity in dependency order. Entities with a profile
// name and no source are generated from the persisted profile.
func (s *Seeder) Seed(ctx context.Context, entities []config.Entity) ([]Result, error) {
	color.Cyan("🌱 Starting data generation...")

	for _, e := range entities {
		if !isValidIdentifier(e.Destination) {
			return nil, fmt.Errorf("invalid destination name: %s", e.Destination)
		}
	}

	graph, err := NewDependencyGraph(entities)
	if err != nil {
		return nil, fmt.Errorf("failed to build dependency graph: %w", err)
	}

	stored := make(map[string][]*profile.ColumnProfile)
	for _, e := range entities {
		if e.Source != "" {
			continue
		}
		profiles, err := s.loadProfiles(ctx, e)
		if err != nil {
			return nil, err
		}
		stored[e.Destination] = profiles
		if err := graph.AddReferences(e.Destination, profileReferences(profiles)); err != nil {
			return nil, fmt.Errorf("failed to build dependency graph: %w", err)
		}
	}

	order, err := graph.BuildInsertionOrder()
	if err != nil {
		return nil, fmt.Errorf("failed to build generation order: %w", err)
	}

	color.Green("📊 Found %d entities", len(order))
	color.Cyan("📋 Generation order: %s", strings.Join(graph.GetOrder(), " → "))
	fmt.Println()

	results := make([]Result, 0, len(order))
	for _, e := range order {
		var result *Result
		if e.Source == "" {
			result, err = s.seedProfiles(ctx, e, stored[e.Destination])
		} else {
			result, err = s.seedEntity(ctx, e)
		}
		if err != nil {
			return results, fmt.Errorf("failed to generate %s: %w", e.Destination, err)
		}
		results = append(results, *result)
	}

	color.Green("\n✅ Data generation completed successfully!")
	return results, nil
}

func (s *Seeder) seedEntity(ctx context.Context, e config.Entity) (*Result, error) {
	color.Cyan("  🔍 Sampling %s...", e.Source)
	profiles, columnErrors, err := s.profileEntity(ctx, e)
	if err != nil {
		return nil, err
	}

	if err := s.Adapter.CreateLike(ctx, e.Source, e.Destination, e.Include, s.Config.Recreate); err != nil {
		return nil, fmt.Errorf("failed to create destination: %w", err)
	}

	result, err := s.generate(ctx, e, profiles)
	if err != nil {
		return nil, err
	}
	result.ColumnErrors = append(columnErrors, result.ColumnErrors...)
	return result, nil
}

// Profile samples the source of an entity and profiles each column.
// Columns that cannot be profiled become null columns unless strict.
func (s *Seeder) Profile(ctx context.Context, e config.Entity) ([]*profile.ColumnProfile, error) {
	profiles, _, err := s.profileEntity(ctx, e)
	return profiles, err
}

func (s *Seeder) profileEntity(ctx context.Context, e config.Entity) ([]*profile.ColumnProfile, []error, error) {
	if e.Source == "" {
		return nil, nil, fmt.Errorf("entity %s has no source to sample", e.Destination)
	}

	sample, err := s.Adapter.ReadSample(ctx, e.Source, e.Include, e.SampleSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sample: %w", err)
	}

	profiler := s.profiler()
	profiles := make([]*profile.ColumnProfile, 0, len(sample.Columns))
	var columnErrors []error
	for _, c := range sample.Columns {
		p, err := profiler.Build(c.Name, c.Type, sample.Values(c.Name), profile.Lookup(e.Columns, c.Name))
		if err != nil {
			if s.Config.Strict {
				return nil, nil, fmt.Errorf("failed to profile column %s: %w", c.Name, err)
			}
			s.degrade(c.Name, err)
			columnErrors = append(columnErrors, &generator.ColumnError{Column: c.Name, Err: err})
			p = profile.NewNull(c.Name, c.Type)
		}
		profiles = append(profiles, p)
	}
	s.logger().Info("entity profiled",
		zap.String("entity", e.Destination),
		zap.Int("sample", len(sample.Rows)),
		zap.Int("columns", len(profiles)),
	)
	return profiles, columnErrors, nil
}

// SaveProfile profiles an entity and persists the result under its
// destination name.
func (s *Seeder) SaveProfile(ctx context.Context, e config.Entity) (*profile.Document, error) {
	if s.Store == nil {
		return nil, fmt.Errorf("no profile store configured")
	}
	profiles, err := s.Profile(ctx, e)
	if err != nil {
		return nil, err
	}
	doc := profile.NewDocument(e.Destination, profiles)
	if err := s.Store.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save profile of %s: %w", e.Destination, err)
	}
	return doc, nil
}

// SeedFromProfile generates an entity from a persisted profile without
// sampling. Explicit column overrides replace the stored parameters.
func (s *Seeder) SeedFromProfile(ctx context.Context, e config.Entity) (*Result, error) {
	profiles, err := s.loadProfiles(ctx, e)
	if err != nil {
		return nil, err
	}
	return s.seedProfiles(ctx, e, profiles)
}

// loadProfiles reads the persisted profile of an entity and applies its
// column overrides.
func (s *Seeder) loadProfiles(ctx context.Context, e config.Entity) ([]*profile.ColumnProfile, error) {
	if s.Store == nil {
		return nil, fmt.Errorf("no profile store configured")
	}
	name := e.Profile
	if name == "" {
		name = e.Destination
	}
	color.Cyan("  📂 Loading profile %s...", name)

	doc, err := s.Store.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", name, err)
	}
	stored, err := doc.Profiles()
	if err != nil {
		return nil, fmt.Errorf("failed to decode profile %s: %w", name, err)
	}
	return s.applyOverrides(e, stored)
}

func (s *Seeder) seedProfiles(ctx context.Context, e config.Entity, profiles []*profile.ColumnProfile) (*Result, error) {
	columns := make([]types.SchemaColumn, len(profiles))
	for i, p := range profiles {
		columns[i] = types.SchemaColumn{Name: p.Name(), Type: p.DataType(), Nullable: true}
	}
	if err := s.Adapter.CreateFromSchema(ctx, e.Destination, columns, s.Config.Recreate); err != nil {
		return nil, fmt.Errorf("failed to create destination: %w", err)
	}
	return s.generate(ctx, e, profiles)
}

func (s *Seeder) applyOverrides(e config.Entity, stored []*profile.ColumnProfile) ([]*profile.ColumnProfile, error) {
	included := make(map[string]bool, len(e.Include))
	for _, name := range e.Include {
		included[name] = true
	}

	profiler := s.profiler()
	profiles := make([]*profile.ColumnProfile, 0, len(stored))
	for _, p := range stored {
		if len(included) > 0 && !included[p.Name()] {
			continue
		}
		hints := profile.Lookup(e.Columns, p.Name())
		if explicit(hints) {
			overridden, err := profiler.Build(p.Name(), p.DataType(), nil, hints)
			if err != nil {
				return nil, fmt.Errorf("failed to apply overrides to column %s: %w", p.Name(), err)
			}
			p = overridden
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// explicit reports whether hints fully define a column without sample data.
func explicit(h profile.Hints) bool {
	return h.ForeignKey != nil || h.CopyOf != "" || h.Faker != "" || len(h.Values) > 0 ||
		h.CurrentMoment || h.Pattern != ""
}

// generate builds the producers of an entity and appends output_size rows
// in batches.
func (s *Seeder) generate(ctx context.Context, e config.Entity, profiles []*profile.ColumnProfile) (*Result, error) {
	color.Cyan("  📝 Generating %s (%d rows)...", e.Destination, e.OutputSize)

	env := s.env()
	result := &Result{Entity: e.Destination}
	columns := make([]generator.Column, 0, len(profiles))
	for _, p := range profiles {
		producer, err := generator.New(p, env)
		if err != nil {
			if s.Config.Strict {
				return nil, fmt.Errorf("failed to build generator for column %s: %w", p.Name(), err)
			}
			s.degrade(p.Name(), err)
			result.ColumnErrors = append(result.ColumnErrors, &generator.ColumnError{Column: p.Name(), Err: err})
			producer, _ = generator.New(profile.NewNull(p.Name(), p.DataType()), env)
		}
		columns = append(columns, generator.Column{Name: p.Name(), Producer: producer})
	}

	batch, err := generator.NewBatch(columns, s.Config.Strict, s.logger())
	if err != nil {
		return nil, fmt.Errorf("invalid column set: %w", err)
	}

	batchSize := s.Config.Batch
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	for result.Rows < e.OutputSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := batchSize
		if remaining := e.OutputSize - result.Rows; remaining < n {
			n = remaining
		}

		rows, err := batch.Next(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("failed to generate batch: %w", err)
		}
		if err := s.Adapter.AppendBatch(ctx, e.Destination, batch.Columns(), rows); err != nil {
			return nil, fmt.Errorf("failed to insert batch: %w", err)
		}
		result.Rows += n
		s.logger().Debug("batch written",
			zap.String("entity", e.Destination),
			zap.Int("rows", n),
			zap.Int("total", result.Rows),
		)
	}

	for _, cerr := range batch.Failed() {
		color.Yellow("  ⚠️  Column %s emitted as nulls: %v", cerr.Column, cerr.Err)
		result.ColumnErrors = append(result.ColumnErrors, cerr)
	}
	color.Green("  ✅ %s generated (%d rows)", e.Destination, result.Rows)
	return result, nil
}

func (s *Seeder) degrade(column string, err error) {
	color.Yellow("  ⚠️  Column %s emitted as nulls: %v", column, err)
	s.logger().Warn("column degraded to nulls", zap.String("column", column), zap.Error(err))
}
