// Package generator turns frozen column profiles into value producers that
// can be asked for any number of values, any number of times.
package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/maksimowich/fake-data-generator/internal/density"
	"github.com/maksimowich/fake-data-generator/internal/pattern"
	"github.com/maksimowich/fake-data-generator/internal/profile"
	"go.uber.org/zap"
)

// DefaultMaxIDAttempts bounds identifier draws per requested value.
const DefaultMaxIDAttempts = 100

// Producer yields exactly n values per call. Only identifier producers keep
// state between calls.
type Producer interface {
	Produce(ctx context.Context, n int) ([]interface{}, error)
}

// Resolver supplies foreign key values from a referenced entity.
type Resolver interface {
	Resolve(ctx context.Context, ref profile.ForeignKeyRef, n int) ([]interface{}, error)
}

// Env carries what producers need besides their profile.
type Env struct {
	Rand          *rand.Rand
	Resolver      Resolver
	Location      *time.Location
	MaxIDAttempts int
	// RawStructured makes structured columns emit maps instead of JSON text.
	RawStructured bool
	Now           func() time.Time
	Logger        *zap.Logger
}

func (e Env) withDefaults() Env {
	if e.Rand == nil {
		e.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.Location == nil {
		e.Location = time.UTC
	}
	if e.MaxIDAttempts <= 0 {
		e.MaxIDAttempts = DefaultMaxIDAttempts
	}
	if e.Now == nil {
		e.Now = time.Now
	}
	if e.Logger == nil {
		e.Logger = zap.NewNop()
	}
	return e
}

// New builds the producer for a profile.
func New(p *profile.ColumnProfile, env Env) (Producer, error) {
	env = env.withDefaults()

	switch p.Kind() {
	case profile.KindNull:
		return nullProducer{}, nil
	case profile.KindCategorical:
		return newCategorical(p, env)
	case profile.KindInteger, profile.KindDecimal:
		if p.Identifier() {
			return &sequenceProducer{}, nil
		}
		return newNumeric(p, env)
	case profile.KindDate:
		return &dateProducer{params: p.Date(), r: env.Rand}, nil
	case profile.KindTimestamp:
		return &timestampProducer{params: p.Timestamp(), r: env.Rand, loc: env.Location, now: env.Now}, nil
	case profile.KindString:
		return newText(p, env)
	case profile.KindForeignKey:
		if env.Resolver == nil {
			return nil, fmt.Errorf("column %s references %s.%s but no reference provider is configured",
				p.Name(), p.ForeignKey().Table, p.ForeignKey().Column)
		}
		return &foreignKeyProducer{ref: p.ForeignKey(), resolver: env.Resolver}, nil
	case profile.KindStructured:
		return newStructured(p, env)
	}
	return nil, fmt.Errorf("column %s has unsupported kind %s", p.Name(), p.Kind())
}

type nullProducer struct{}

func (nullProducer) Produce(_ context.Context, n int) ([]interface{}, error) {
	return make([]interface{}, n), nil
}

type categoricalProducer struct {
	values  []interface{}
	weights *density.Weighted
	r       *rand.Rand
}

func newCategorical(p *profile.ColumnProfile, env Env) (Producer, error) {
	c := p.Categorical()
	w, err := density.NewWeighted(c.Probabilities)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", p.Name(), err)
	}
	return &categoricalProducer{values: c.Values, weights: w, r: env.Rand}, nil
}

func (c *categoricalProducer) Produce(_ context.Context, n int) ([]interface{}, error) {
	out := make([]interface{}, n)
	for i := range out {
		out[i] = c.values[c.weights.Pick(c.r)]
	}
	return out, nil
}

type numericProducer struct {
	grid       *density.Grid
	integer    bool
	scale      *int
	precisions []int
	r          *rand.Rand
}

func newNumeric(p *profile.ColumnProfile, env Env) (Producer, error) {
	n := p.Numeric()
	grid, err := density.NewGrid(n.Grid, n.Probabilities)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", p.Name(), err)
	}
	return &numericProducer{
		grid:       grid,
		integer:    p.Kind() == profile.KindInteger,
		scale:      n.Scale,
		precisions: n.Precisions,
		r:          env.Rand,
	}, nil
}

func (g *numericProducer) Produce(_ context.Context, n int) ([]interface{}, error) {
	out := make([]interface{}, n)
	for i := range out {
		v := g.grid.Sample(g.r)
		switch {
		case g.integer:
			out[i] = int64(v)
		case g.scale != nil:
			out[i] = density.Round(v, *g.scale)
		case len(g.precisions) > 0:
			out[i] = density.Round(v, g.precisions[g.r.Intn(len(g.precisions))])
		default:
			out[i] = v
		}
	}
	return out, nil
}

// sequenceProducer emits 1, 2, 3, ... continuing across calls.
type sequenceProducer struct {
	next int64
}

func (s *sequenceProducer) Produce(_ context.Context, n int) ([]interface{}, error) {
	out := make([]interface{}, n)
	for i := range out {
		s.next++
		out[i] = s.next
	}
	return out, nil
}

type foreignKeyProducer struct {
	ref      profile.ForeignKeyRef
	resolver Resolver
}

func (f *foreignKeyProducer) Produce(ctx context.Context, n int) ([]interface{}, error) {
	return f.resolver.Resolve(ctx, f.ref, n)
}

// uniqueProducer draws pattern strings and rejects repeats across the run.
type uniqueProducer struct {
	column      string
	pattern     pattern.Pattern
	seen        map[string]struct{}
	requested   int
	maxAttempts int
	r           *rand.Rand
}

func (u *uniqueProducer) Produce(_ context.Context, n int) ([]interface{}, error) {
	u.requested += n
	if u.pattern.Space() < float64(u.requested) {
		return nil, &PatternExhaustionError{
			Column:    u.column,
			Pattern:   u.pattern.String(),
			Requested: u.requested,
			Space:     u.pattern.Space(),
		}
	}

	limit := n*u.maxAttempts + 1000
	out := make([]interface{}, 0, n)
	for attempts := 0; len(out) < n; attempts++ {
		if attempts >= limit {
			return nil, &PatternExhaustionError{
				Column:    u.column,
				Pattern:   u.pattern.String(),
				Requested: u.requested,
				Space:     u.pattern.Space(),
				Attempts:  attempts,
			}
		}
		s := u.pattern.Generate(u.r)
		if _, dup := u.seen[s]; dup {
			continue
		}
		u.seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}
