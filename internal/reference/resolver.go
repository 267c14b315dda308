// Package reference fills foreign key columns with values drawn from the
// referenced column of another entity.
package reference

import (
	"context"
	"fmt"

	"github.com/maksimowich/fake-data-generator/internal/profile"
	"go.uber.org/zap"
)

// DefaultMaxRounds bounds the fetches made for one request.
const DefaultMaxRounds = 100

// Provider fetches up to n values of a column, in random order, possibly
// returning fewer.
type Provider interface {
	FetchReference(ctx context.Context, table, column string, n int) ([]interface{}, error)
}

// Resolver accumulates referenced values until a request is satisfied.
type Resolver struct {
	Provider  Provider
	MaxRounds int
	Logger    *zap.Logger
}

// NewResolver creates a resolver over a provider.
func NewResolver(provider Provider, maxRounds int, logger *zap.Logger) *Resolver {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{Provider: provider, MaxRounds: maxRounds, Logger: logger}
}

// Resolve returns exactly n values of ref. Values may repeat when the
// referenced column holds fewer than n rows.
func (r *Resolver) Resolve(ctx context.Context, ref profile.ForeignKeyRef, n int) ([]interface{}, error) {
	maxRounds := r.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	acc := make([]interface{}, 0, n)
	for round := 1; len(acc) < n; round++ {
		if round > maxRounds {
			return nil, &ReferenceUnavailableError{
				Table:  ref.Table,
				Column: ref.Column,
				Reason: fmt.Sprintf("gave up after %d rounds with %d of %d values", maxRounds, len(acc), n),
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		values, err := r.Provider.FetchReference(ctx, ref.Table, ref.Column, n-len(acc))
		if err != nil {
			return nil, &ReferenceUnavailableError{Table: ref.Table, Column: ref.Column, Reason: "fetch failed", Err: err}
		}
		if len(values) == 0 {
			return nil, &ReferenceUnavailableError{Table: ref.Table, Column: ref.Column, Reason: "referenced column is empty"}
		}
		if len(values) > n-len(acc) {
			values = values[:n-len(acc)]
		}
		acc = append(acc, values...)
		logger.Debug("reference values fetched",
			zap.String("table", ref.Table),
			zap.String("column", ref.Column),
			zap.Int("round", round),
			zap.Int("have", len(acc)),
			zap.Int("want", n))
	}
	return acc, nil
}
