package profile

import (
	"fmt"
	"time"
)

// Document is the persisted form of every column profile of one entity.
type Document struct {
	Entity  string   `json:"entity" yaml:"entity" msgpack:"entity"`
	Columns []Record `json:"columns" yaml:"columns" msgpack:"columns"`
}

// Record is the persisted form of one column profile.
type Record struct {
	Name     string `json:"name" yaml:"name" msgpack:"name"`
	DataType string `json:"data_type" yaml:"data_type" msgpack:"data_type"`
	Type     string `json:"type" yaml:"type" msgpack:"type"`

	Values        []interface{} `json:"values,omitempty" yaml:"values,omitempty" msgpack:"values,omitempty"`
	Probabilities []float64     `json:"probabilities,omitempty" yaml:"probabilities,omitempty" msgpack:"probabilities,omitempty"`
	// TimeValues marks temporal categories of a column whose declared type
	// does not say so.
	TimeValues bool `json:"time_values,omitempty" yaml:"time_values,omitempty" msgpack:"time_values,omitempty"`

	Grid       []float64 `json:"grid,omitempty" yaml:"grid,omitempty" msgpack:"grid,omitempty"`
	Precision  *int      `json:"precision,omitempty" yaml:"precision,omitempty" msgpack:"precision,omitempty"`
	Precisions []int     `json:"precisions,omitempty" yaml:"precisions,omitempty" msgpack:"precisions,omitempty"`
	Identifier bool      `json:"identifier,omitempty" yaml:"identifier,omitempty" msgpack:"identifier,omitempty"`

	StartDate   string `json:"start_date,omitempty" yaml:"start_date,omitempty" msgpack:"start_date,omitempty"`
	RangeInDays int    `json:"range_in_days,omitempty" yaml:"range_in_days,omitempty" msgpack:"range_in_days,omitempty"`

	StartTimestamp    string  `json:"start_timestamp,omitempty" yaml:"start_timestamp,omitempty" msgpack:"start_timestamp,omitempty"`
	RangeInSec        float64 `json:"range_in_sec,omitempty" yaml:"range_in_sec,omitempty" msgpack:"range_in_sec,omitempty"`
	DateOnlyFlag      bool    `json:"date_only_flag,omitempty" yaml:"date_only_flag,omitempty" msgpack:"date_only_flag,omitempty"`
	CurrentMomentFlag bool    `json:"current_moment_flag,omitempty" yaml:"current_moment_flag,omitempty" msgpack:"current_moment_flag,omitempty"`

	CommonPattern string `json:"common_pattern,omitempty" yaml:"common_pattern,omitempty" msgpack:"common_pattern,omitempty"`
	CopyOf        string `json:"copy_of,omitempty" yaml:"copy_of,omitempty" msgpack:"copy_of,omitempty"`
	Faker         string `json:"faker,omitempty" yaml:"faker,omitempty" msgpack:"faker,omitempty"`

	RefTable  string `json:"ref_table,omitempty" yaml:"ref_table,omitempty" msgpack:"ref_table,omitempty"`
	RefColumn string `json:"ref_column,omitempty" yaml:"ref_column,omitempty" msgpack:"ref_column,omitempty"`

	Fields []Record `json:"fields,omitempty" yaml:"fields,omitempty" msgpack:"fields,omitempty"`
}

// NewDocument captures the profiles of one entity in column order.
func NewDocument(entity string, profiles []*ColumnProfile) *Document {
	doc := &Document{Entity: entity, Columns: make([]Record, len(profiles))}
	for i, p := range profiles {
		doc.Columns[i] = ToRecord(p)
	}
	return doc
}

// Profiles rebuilds the column profiles in column order.
func (d *Document) Profiles() ([]*ColumnProfile, error) {
	out := make([]*ColumnProfile, len(d.Columns))
	for i, r := range d.Columns {
		p, err := FromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", d.Entity, err)
		}
		out[i] = p
	}
	return out, nil
}

// ToRecord converts a profile to its persisted form. Temporal categories are
// written with the fixed date and timestamp layouts.
func ToRecord(p *ColumnProfile) Record {
	r := Record{Name: p.Name(), DataType: p.DataType(), Type: p.Kind().String()}

	switch p.Kind() {
	case KindCategorical:
		c := p.Categorical()
		r.Values = make([]interface{}, len(c.Values))
		for i, v := range c.Values {
			if t, ok := v.(time.Time); ok {
				v = formatTime(t, p.DataType())
				r.TimeValues = !declaresTime(p.DataType())
			}
			r.Values[i] = v
		}
		r.Probabilities = c.Probabilities
	case KindInteger, KindDecimal:
		n := p.Numeric()
		r.Grid = n.Grid
		r.Probabilities = n.Probabilities
		r.Precision = n.Scale
		r.Precisions = n.Precisions
		r.Identifier = n.Identifier
	case KindDate:
		d := p.Date()
		r.StartDate = d.Start.Format(DateLayout)
		r.RangeInDays = d.RangeDays
	case KindTimestamp:
		ts := p.Timestamp()
		if !ts.Start.IsZero() {
			r.StartTimestamp = ts.Start.Format(TimestampLayout)
		}
		r.RangeInSec = ts.RangeSeconds
		r.DateOnlyFlag = ts.DateOnly
		r.CurrentMomentFlag = ts.CurrentMoment
	case KindString:
		s := p.Text()
		r.CommonPattern = s.Pattern
		r.CopyOf = s.CopyOf
		r.Faker = s.Faker
		r.Identifier = s.Identifier
	case KindForeignKey:
		ref := p.ForeignKey()
		r.RefTable = ref.Table
		r.RefColumn = ref.Column
	case KindStructured:
		for _, f := range p.Fields() {
			r.Fields = append(r.Fields, ToRecord(f))
		}
	}
	return r
}

// FromRecord rebuilds a profile from its persisted form without re-fitting.
func FromRecord(r Record) (*ColumnProfile, error) {
	kind, err := ParseKind(r.Type)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", r.Name, err)
	}

	switch kind {
	case KindNull:
		return NewNull(r.Name, r.DataType), nil
	case KindCategorical:
		values, err := decodeCategories(r)
		if err != nil {
			return nil, err
		}
		return NewCategorical(r.Name, r.DataType, values, r.Probabilities)
	case KindInteger, KindDecimal:
		return NewNumeric(r.Name, r.DataType, kind, NumericParams{
			Grid:          r.Grid,
			Probabilities: r.Probabilities,
			Scale:         r.Precision,
			Precisions:    r.Precisions,
			Identifier:    r.Identifier,
		})
	case KindDate:
		start, err := time.Parse(DateLayout, r.StartDate)
		if err != nil {
			return nil, &SchemaInferenceError{Column: r.Name, DataType: r.DataType, Reason: err.Error()}
		}
		return NewDate(r.Name, r.DataType, DateParams{Start: start, RangeDays: r.RangeInDays}), nil
	case KindTimestamp:
		var start time.Time
		if r.StartTimestamp != "" {
			if start, err = ToTime(r.StartTimestamp); err != nil {
				return nil, &SchemaInferenceError{Column: r.Name, DataType: r.DataType, Reason: err.Error()}
			}
		}
		return NewTimestamp(r.Name, r.DataType, TimestampParams{
			Start:         start,
			RangeSeconds:  r.RangeInSec,
			DateOnly:      r.DateOnlyFlag,
			CurrentMoment: r.CurrentMomentFlag,
		}), nil
	case KindString:
		return NewString(r.Name, r.DataType, StringParams{
			Pattern:    r.CommonPattern,
			CopyOf:     r.CopyOf,
			Faker:      r.Faker,
			Identifier: r.Identifier,
		})
	case KindForeignKey:
		if r.RefTable == "" || r.RefColumn == "" {
			return nil, fmt.Errorf("column %s: foreign key without ref_table and ref_column", r.Name)
		}
		return NewForeignKey(r.Name, r.DataType, ForeignKeyRef{Table: r.RefTable, Column: r.RefColumn}), nil
	case KindStructured:
		fields := make([]*ColumnProfile, len(r.Fields))
		for i, f := range r.Fields {
			if fields[i], err = FromRecord(f); err != nil {
				return nil, fmt.Errorf("column %s: %w", r.Name, err)
			}
		}
		return NewStructured(r.Name, r.DataType, fields), nil
	}
	return nil, fmt.Errorf("column %s: unsupported kind %s", r.Name, kind)
}

func declaresTime(dataType string) bool {
	dt, err := ParseDataType(dataType)
	return err == nil && (dt.Family == FamilyDate || dt.Family == FamilyTimestamp)
}

func formatTime(t time.Time, dataType string) string {
	if dt, err := ParseDataType(dataType); err == nil && dt.Family == FamilyDate {
		return t.Format(DateLayout)
	}
	return t.Format(TimestampLayout)
}

// decodeCategories restores category values decoded by a generic codec to the
// representation of the declared family.
func decodeCategories(r Record) ([]interface{}, error) {
	values := NormalizeAll(r.Values)
	dt, err := ParseDataType(r.DataType)
	if err != nil {
		return nil, err
	}
	family := dt.Family
	switch {
	case r.TimeValues && family != FamilyDate:
		family = FamilyTimestamp
	case family == FamilyUnknown:
		family = detectFamily(nonNullOf(values))
	}
	if family == FamilyJSON {
		family = FamilyString
	}
	out, err := coerce(family, values)
	if err != nil {
		return nil, &SchemaInferenceError{Column: r.Name, DataType: r.DataType, Reason: err.Error()}
	}
	return out, nil
}

func nonNullOf(values []interface{}) []interface{} {
	out := make([]interface{}, 0, len(values))
	for _, v := range values {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}
