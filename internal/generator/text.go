package generator

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/maksimowich/fake-data-generator/internal/pattern"
	"github.com/maksimowich/fake-data-generator/internal/profile"
)

func newText(p *profile.ColumnProfile, env Env) (Producer, error) {
	params := p.Text()

	switch {
	case params.CopyOf != "":
		return &copyProducer{source: params.CopyOf}, nil
	case params.Faker != "":
		fn, ok := fakers[params.Faker]
		if !ok {
			return nil, fmt.Errorf("column %s: unknown faker %q (available: %v)", p.Name(), params.Faker, FakerNames())
		}
		return &fakerProducer{fn: fn, faker: &faker{rand: env.Rand}}, nil
	}

	pat, err := pattern.Parse(params.Pattern)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", p.Name(), err)
	}
	if params.Identifier {
		return &uniqueProducer{
			column:      p.Name(),
			pattern:     pat,
			seen:        make(map[string]struct{}),
			maxAttempts: env.MaxIDAttempts,
			r:           env.Rand,
		}, nil
	}
	return &patternProducer{pattern: pat, r: env.Rand}, nil
}

type patternProducer struct {
	pattern pattern.Pattern
	r       *rand.Rand
}

func (g *patternProducer) Produce(_ context.Context, n int) ([]interface{}, error) {
	out := make([]interface{}, n)
	for i := range out {
		out[i] = g.pattern.Generate(g.r)
	}
	return out, nil
}

type fakerProducer struct {
	fn    fakerFunc
	faker *faker
}

func (g *fakerProducer) Produce(_ context.Context, n int) ([]interface{}, error) {
	out := make([]interface{}, n)
	for i := range out {
		out[i] = g.fn(g.faker)
	}
	return out, nil
}

// copyProducer mirrors the text form of another column of the same batch.
// It is filled in by the batch assembler.
type copyProducer struct {
	source string
}

func (c *copyProducer) Produce(_ context.Context, _ int) ([]interface{}, error) {
	return nil, fmt.Errorf("copy of %s can only be produced together with its source column", c.source)
}

func (c *copyProducer) copy(source []interface{}) []interface{} {
	out := make([]interface{}, len(source))
	for i, v := range source {
		if v != nil {
			out[i] = profile.ToString(v)
		}
	}
	return out
}
