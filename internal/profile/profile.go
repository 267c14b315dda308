// Package profile turns column samples into frozen column profiles and
// persists them so generation can run without re-sampling the source.
package profile

import (
	"fmt"
	"time"

	"github.com/maksimowich/fake-data-generator/internal/density"
	"github.com/maksimowich/fake-data-generator/internal/pattern"
)

// CategoricalParams is an empirical distribution over distinct values.
type CategoricalParams struct {
	Values        []interface{}
	Probabilities []float64
}

// NumericParams is a density grid plus output precision.
type NumericParams struct {
	Grid          []float64
	Probabilities []float64
	// Scale is the declared decimal scale, or nil when it is unknown.
	Scale *int
	// Precisions are the observed digits after the decimal point, used
	// when Scale is nil.
	Precisions []int
	Identifier bool
}

type DateParams struct {
	Start     time.Time
	RangeDays int
}

type TimestampParams struct {
	Start         time.Time
	RangeSeconds  float64
	DateOnly      bool
	CurrentMoment bool
}

// StringParams holds exactly one of Pattern, CopyOf or Faker.
type StringParams struct {
	Pattern    string
	CopyOf     string
	Faker      string
	Identifier bool
}

// ColumnProfile is the immutable description of one column. Only the
// parameter block matching Kind is populated.
type ColumnProfile struct {
	name     string
	dataType string
	kind     Kind

	categorical *CategoricalParams
	numeric     *NumericParams
	date        *DateParams
	timestamp   *TimestampParams
	str         *StringParams
	foreignKey  *ForeignKeyRef
	fields      []*ColumnProfile
}

func (p *ColumnProfile) Name() string     { return p.name }
func (p *ColumnProfile) DataType() string { return p.dataType }
func (p *ColumnProfile) Kind() Kind       { return p.kind }

// Categorical returns the categorical parameters. The slices must not be modified.
func (p *ColumnProfile) Categorical() CategoricalParams {
	if p.categorical == nil {
		return CategoricalParams{}
	}
	return *p.categorical
}

// Numeric returns the integer or decimal parameters.
func (p *ColumnProfile) Numeric() NumericParams {
	if p.numeric == nil {
		return NumericParams{}
	}
	return *p.numeric
}

func (p *ColumnProfile) Date() DateParams {
	if p.date == nil {
		return DateParams{}
	}
	return *p.date
}

func (p *ColumnProfile) Timestamp() TimestampParams {
	if p.timestamp == nil {
		return TimestampParams{}
	}
	return *p.timestamp
}

// Text returns the free-form string parameters.
func (p *ColumnProfile) Text() StringParams {
	if p.str == nil {
		return StringParams{}
	}
	return *p.str
}

func (p *ColumnProfile) ForeignKey() ForeignKeyRef {
	if p.foreignKey == nil {
		return ForeignKeyRef{}
	}
	return *p.foreignKey
}

// Fields returns the sub-profiles of a structured column, named by key path.
func (p *ColumnProfile) Fields() []*ColumnProfile {
	return append([]*ColumnProfile(nil), p.fields...)
}

// Identifier reports whether the column must produce distinct values.
func (p *ColumnProfile) Identifier() bool {
	switch p.kind {
	case KindInteger, KindDecimal:
		return p.numeric.Identifier
	case KindString:
		return p.str.Identifier
	}
	return false
}

// NewNull builds a profile that always emits nulls.
func NewNull(name, dataType string) *ColumnProfile {
	return &ColumnProfile{name: name, dataType: dataType, kind: KindNull}
}

// NewCategorical builds a categorical profile. Probabilities are normalised;
// when none are given every value is equally likely.
func NewCategorical(name, dataType string, values []interface{}, probabilities []float64) (*ColumnProfile, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("categorical column %s has no values", name)
	}
	if len(probabilities) == 0 {
		probabilities = make([]float64, len(values))
		for i := range probabilities {
			probabilities[i] = 1
		}
	}
	if len(values) != len(probabilities) {
		return nil, fmt.Errorf("categorical column %s has %d values but %d probabilities", name, len(values), len(probabilities))
	}
	w, err := density.NewWeighted(probabilities)
	if err != nil {
		return nil, fmt.Errorf("categorical column %s: %w", name, err)
	}
	return &ColumnProfile{
		name:     name,
		dataType: dataType,
		kind:     KindCategorical,
		categorical: &CategoricalParams{
			Values:        append([]interface{}(nil), values...),
			Probabilities: w.Probabilities(),
		},
	}, nil
}

// NewNumeric builds an integer or decimal profile from a density grid.
func NewNumeric(name, dataType string, kind Kind, params NumericParams) (*ColumnProfile, error) {
	if kind != KindInteger && kind != KindDecimal {
		return nil, fmt.Errorf("numeric column %s cannot have kind %s", name, kind)
	}
	if !params.Identifier {
		grid, err := density.NewGrid(params.Grid, params.Probabilities)
		if err != nil {
			return nil, fmt.Errorf("numeric column %s: %w", name, err)
		}
		params.Probabilities = grid.Probabilities
	}
	return &ColumnProfile{name: name, dataType: dataType, kind: kind, numeric: &params}, nil
}

func NewDate(name, dataType string, params DateParams) *ColumnProfile {
	return &ColumnProfile{name: name, dataType: dataType, kind: KindDate, date: &params}
}

func NewTimestamp(name, dataType string, params TimestampParams) *ColumnProfile {
	return &ColumnProfile{name: name, dataType: dataType, kind: KindTimestamp, timestamp: &params}
}

// NewString builds a free-form string profile. A pattern must parse.
func NewString(name, dataType string, params StringParams) (*ColumnProfile, error) {
	set := 0
	for _, s := range []string{params.Pattern, params.CopyOf, params.Faker} {
		if s != "" {
			set++
		}
	}
	if set > 1 {
		return nil, fmt.Errorf("string column %s sets more than one of pattern, copy_of and faker", name)
	}
	if params.Pattern != "" {
		if _, err := pattern.Parse(params.Pattern); err != nil {
			return nil, fmt.Errorf("string column %s: %w", name, err)
		}
	}
	return &ColumnProfile{name: name, dataType: dataType, kind: KindString, str: &params}, nil
}

func NewForeignKey(name, dataType string, ref ForeignKeyRef) *ColumnProfile {
	return &ColumnProfile{name: name, dataType: dataType, kind: KindForeignKey, foreignKey: &ref}
}

// NewStructured builds a nested column from per-path sub-profiles.
func NewStructured(name, dataType string, fields []*ColumnProfile) *ColumnProfile {
	return &ColumnProfile{
		name:     name,
		dataType: dataType,
		kind:     KindStructured,
		fields:   append([]*ColumnProfile(nil), fields...),
	}
}
