package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/maksimowich/fake-data-generator/internal/density"
	"github.com/maksimowich/fake-data-generator/internal/pattern"
	"go.uber.org/zap"
)

// DefaultCategoricalThreshold is the distinct-to-count ratio below which a
// column is treated as categorical.
const DefaultCategoricalThreshold = 0.2

// Profiler classifies column samples and fits their parameters.
type Profiler struct {
	Threshold float64
	GridSize  int
	Logger    *zap.Logger
}

// NewProfiler returns a profiler with the given categorical threshold and
// density grid size. Zero values fall back to the defaults.
func NewProfiler(threshold float64, gridSize int, logger *zap.Logger) *Profiler {
	if threshold <= 0 {
		threshold = DefaultCategoricalThreshold
	}
	if gridSize <= 1 {
		gridSize = density.DefaultGridSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiler{Threshold: threshold, GridSize: gridSize, Logger: logger}
}

// Build profiles one column. Explicit hints are applied before any
// inference; a foreign key hint bypasses statistical modelling entirely.
func (p *Profiler) Build(name, dataType string, values []interface{}, hints Hints) (*ColumnProfile, error) {
	prof, err := p.build(name, dataType, values, hints)
	if err != nil {
		return nil, err
	}
	p.logger().Info("column profiled",
		zap.String("column", name),
		zap.String("kind", prof.Kind().String()),
		zap.Int("sample", len(values)),
	)
	return prof, nil
}

func (p *Profiler) build(name, dataType string, values []interface{}, hints Hints) (*ColumnProfile, error) {
	if hints.Type != "" {
		dataType = hints.Type
	}

	switch {
	case hints.ForeignKey != nil:
		return NewForeignKey(name, dataType, *hints.ForeignKey), nil
	case hints.CopyOf != "":
		return NewString(name, dataType, StringParams{CopyOf: hints.CopyOf})
	case hints.Faker != "":
		return NewString(name, dataType, StringParams{Faker: hints.Faker})
	case len(hints.Values) > 0:
		return NewCategorical(name, dataType, NormalizeAll(hints.Values), hints.Probabilities)
	case hints.CurrentMoment:
		return NewTimestamp(name, dataType, TimestampParams{CurrentMoment: true, DateOnly: hints.DateOnly}), nil
	}

	dt, err := ParseDataType(dataType)
	if err != nil {
		var sie *SchemaInferenceError
		if errors.As(err, &sie) {
			sie.Column = name
		}
		return nil, err
	}

	values = NormalizeAll(values)
	if dt.Family == FamilyJSON {
		values = decodeJSONText(values)
	}
	nonNull := make([]interface{}, 0, len(values))
	for _, v := range values {
		if v != nil {
			nonNull = append(nonNull, v)
		}
	}

	if len(nonNull) == 0 {
		if hints.Pattern != "" {
			return NewString(name, dataType, StringParams{Pattern: hints.Pattern, Identifier: hints.Identifier})
		}
		return NewNull(name, dataType), nil
	}

	if objects, ok := asObjects(nonNull); ok {
		return p.buildStructured(name, dataType, objects, hints)
	}

	family := dt.Family
	if family == FamilyUnknown || family == FamilyJSON {
		family = detectFamily(nonNull)
	}
	if values, err = coerce(family, values); err != nil {
		return nil, &SchemaInferenceError{Column: name, DataType: dataType, Reason: err.Error()}
	}
	nonNull, _ = coerce(family, nonNull)

	if hints.Pattern != "" {
		return NewString(name, dataType, StringParams{Pattern: hints.Pattern, Identifier: hints.Identifier})
	}

	if hints.Identifier {
		if family.numeric() {
			kind := KindInteger
			if family == FamilyDecimal {
				kind = KindDecimal
			}
			return NewNumeric(name, dataType, kind, NumericParams{Identifier: true})
		}
		return NewString(name, dataType, StringParams{
			Pattern:    pattern.Extract(stringsOf(nonNull)).String(),
			Identifier: true,
		})
	}

	if family == FamilyBoolean || (dt.Family != FamilyDecimal && (hints.Categorical || p.isCategorical(nonNull))) {
		return p.buildCategorical(name, dataType, values)
	}

	switch family {
	case FamilyInteger:
		return p.buildNumeric(name, dataType, KindInteger, dt, nonNull)
	case FamilyDecimal:
		return p.buildNumeric(name, dataType, KindDecimal, dt, nonNull)
	case FamilyDate:
		return p.buildDate(name, dataType, nonNull)
	case FamilyTimestamp:
		return p.buildTimestamp(name, dataType, nonNull, hints)
	default:
		return NewString(name, dataType, StringParams{Pattern: pattern.Extract(stringsOf(nonNull)).String()})
	}
}

func (p *Profiler) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

func (p *Profiler) threshold() float64 {
	if p.Threshold <= 0 {
		return DefaultCategoricalThreshold
	}
	return p.Threshold
}

func (p *Profiler) isCategorical(nonNull []interface{}) bool {
	distinct := make(map[string]struct{})
	for _, v := range nonNull {
		distinct[valueKey(v)] = struct{}{}
	}
	if len(distinct) <= 1 {
		return true
	}
	return float64(len(distinct))/float64(len(nonNull)) < p.threshold()
}

// buildCategorical counts every value including nulls. Values are ordered by
// descending frequency, ties by first appearance.
func (p *Profiler) buildCategorical(name, dataType string, values []interface{}) (*ColumnProfile, error) {
	type bucket struct {
		value interface{}
		count int
	}
	index := make(map[string]*bucket)
	var buckets []*bucket
	for _, v := range values {
		k := valueKey(v)
		b, ok := index[k]
		if !ok {
			b = &bucket{value: v}
			index[k] = b
			buckets = append(buckets, b)
		}
		b.count++
	}
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].count > buckets[j].count })

	out := make([]interface{}, len(buckets))
	probs := make([]float64, len(buckets))
	for i, b := range buckets {
		out[i] = b.value
		probs[i] = float64(b.count) / float64(len(values))
	}
	return NewCategorical(name, dataType, out, probs)
}

func (p *Profiler) buildNumeric(name, dataType string, kind Kind, dt DataType, nonNull []interface{}) (*ColumnProfile, error) {
	floats := make([]float64, len(nonNull))
	for i, v := range nonNull {
		f, err := ToFloat(v)
		if err != nil {
			return nil, &SchemaInferenceError{Column: name, DataType: dataType, Reason: err.Error()}
		}
		floats[i] = f
	}

	grid, err := density.Fit(floats, p.GridSize)
	if err != nil {
		if errors.Is(err, density.ErrDistributionFit) {
			p.logger().Warn("no density for numeric column, emitting nulls", zap.String("column", name), zap.Error(err))
			return NewNull(name, dataType), nil
		}
		return nil, err
	}

	params := NumericParams{Grid: grid.Points, Probabilities: grid.Probabilities}
	if kind == KindDecimal {
		if dt.HasScale {
			scale := dt.Scale
			params.Scale = &scale
		} else {
			params.Precisions = make([]int, len(floats))
			for i, f := range floats {
				params.Precisions[i] = density.Precision(f)
			}
		}
	}
	return NewNumeric(name, dataType, kind, params)
}

func (p *Profiler) buildDate(name, dataType string, nonNull []interface{}) (*ColumnProfile, error) {
	lo, hi, err := timeBounds(name, dataType, nonNull)
	if err != nil {
		return nil, err
	}
	days := daysBetween(lo, hi)
	if len(nonNull) < 2 || days <= 0 {
		p.logger().Warn("degenerate date range, emitting nulls", zap.String("column", name))
		return NewNull(name, dataType), nil
	}
	return NewDate(name, dataType, DateParams{Start: truncateDay(lo), RangeDays: days}), nil
}

func (p *Profiler) buildTimestamp(name, dataType string, nonNull []interface{}, hints Hints) (*ColumnProfile, error) {
	lo, hi, err := timeBounds(name, dataType, nonNull)
	if err != nil {
		return nil, err
	}
	seconds := hi.Sub(lo).Seconds()
	if len(nonNull) < 2 || seconds <= 0 {
		p.logger().Warn("degenerate timestamp range, emitting nulls", zap.String("column", name))
		return NewNull(name, dataType), nil
	}

	dateOnly := hints.DateOnly
	if !dateOnly {
		dateOnly = true
		for _, v := range nonNull {
			if t, _ := ToTime(v); !isMidnight(t) {
				dateOnly = false
				break
			}
		}
	}
	return NewTimestamp(name, dataType, TimestampParams{
		Start:        lo.Truncate(time.Second),
		RangeSeconds: seconds,
		DateOnly:     dateOnly,
	}), nil
}

func (p *Profiler) buildStructured(name, dataType string, objects []map[string]interface{}, hints Hints) (*ColumnProfile, error) {
	series := Flatten(objects)
	fields := make([]*ColumnProfile, 0, len(series))
	for _, s := range series {
		key := s.Key()
		field, err := p.Build(key, "", s.Values, hints.Field(key))
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return NewStructured(name, dataType, fields), nil
}

func timeBounds(name, dataType string, nonNull []interface{}) (time.Time, time.Time, error) {
	var lo, hi time.Time
	for i, v := range nonNull {
		t, err := ToTime(v)
		if err != nil {
			return lo, hi, &SchemaInferenceError{Column: name, DataType: dataType, Reason: err.Error()}
		}
		if i == 0 || t.Before(lo) {
			lo = t
		}
		if i == 0 || t.After(hi) {
			hi = t
		}
	}
	return lo, hi, nil
}

// detectFamily infers a family from the values when none is declared.
func detectFamily(nonNull []interface{}) Family {
	allInt, allNumeric, allTime, allBool := true, true, true, true
	for _, v := range nonNull {
		switch v.(type) {
		case int64:
			allTime, allBool = false, false
		case float64:
			allInt, allTime, allBool = false, false, false
		case time.Time:
			allInt, allNumeric, allBool = false, false, false
		case bool:
			allInt, allNumeric, allTime = false, false, false
		default:
			return FamilyString
		}
	}
	switch {
	case allInt:
		return FamilyInteger
	case allNumeric:
		return FamilyDecimal
	case allTime:
		return FamilyTimestamp
	case allBool:
		return FamilyBoolean
	}
	return FamilyString
}

func asObjects(nonNull []interface{}) ([]map[string]interface{}, bool) {
	if !isNested(nonNull[0]) {
		return nil, false
	}
	objects := make([]map[string]interface{}, 0, len(nonNull))
	for _, v := range nonNull {
		obj, ok := v.(map[string]interface{})
		if !ok {
			return nil, false
		}
		objects = append(objects, obj)
	}
	return objects, true
}

// decodeJSONText parses JSON object text so it can be profiled as a nested
// column. Values that are not JSON objects are kept as they are.
func decodeJSONText(values []interface{}) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
		s, ok := v.(string)
		if !ok {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(s))
		dec.UseNumber()
		var obj map[string]interface{}
		if err := dec.Decode(&obj); err == nil && obj != nil {
			out[i] = Normalize(obj)
		}
	}
	return out
}

func stringsOf(values []interface{}) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = ToString(v)
	}
	return out
}

// coerce converts text values to the representation of a declared family.
func coerce(family Family, values []interface{}) ([]interface{}, error) {
	var convert func(interface{}) (interface{}, error)
	switch family {
	case FamilyInteger:
		convert = func(v interface{}) (interface{}, error) { return ToInt(v) }
	case FamilyDecimal:
		convert = func(v interface{}) (interface{}, error) { return ToFloat(v) }
	case FamilyDate, FamilyTimestamp:
		convert = func(v interface{}) (interface{}, error) { return ToTime(v) }
	case FamilyBoolean:
		convert = func(v interface{}) (interface{}, error) {
			switch val := v.(type) {
			case bool:
				return val, nil
			case int64:
				return val != 0, nil
			case string:
				return strconv.ParseBool(strings.TrimSpace(val))
			}
			return nil, fmt.Errorf("not a boolean: %v (%T)", v, v)
		}
	default:
		return values, nil
	}

	out := make([]interface{}, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		c, err := convert(v)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}
