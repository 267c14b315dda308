package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ints(vs ...int) []interface{} {
	out := make([]interface{}, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func seq(n int) []interface{} {
	out := make([]interface{}, n)
	for i := range out {
		out[i] = i * 3
	}
	return out
}

func TestBuildCategoricalByRatio(t *testing.T) {
	p := NewProfiler(0, 0, nil)
	values := make([]interface{}, 0, 20)
	for i := 0; i < 20; i++ {
		values = append(values, []string{"red", "green", "red", "blue"}[i%4])
	}
	values = append(values, nil)

	prof, err := p.Build("color", "varchar(10)", values, Hints{})
	require.NoError(t, err)
	require.Equal(t, KindCategorical, prof.Kind())

	c := prof.Categorical()
	assert.Equal(t, []interface{}{"red", "green", "blue", nil}, c.Values)
	assert.InDelta(t, 10.0/21, c.Probabilities[0], 1e-9)
	assert.InDelta(t, 1.0/21, c.Probabilities[3], 1e-9)
}

func TestBuildSingleValueIsCategorical(t *testing.T) {
	p := NewProfiler(0, 0, nil)
	prof, err := p.Build("status", "text", []interface{}{"X", "X", "X"}, Hints{})
	require.NoError(t, err)
	assert.Equal(t, KindCategorical, prof.Kind())
	assert.Equal(t, []interface{}{"X"}, prof.Categorical().Values)
}

func TestBuildDecimalNeverCategorical(t *testing.T) {
	p := NewProfiler(0, 100, nil)
	prof, err := p.Build("price", "decimal(10,2)", []interface{}{"1.50", "1.50", "2.25", "1.50", "3.10"}, Hints{})
	require.NoError(t, err)
	require.Equal(t, KindDecimal, prof.Kind())
	n := prof.Numeric()
	require.NotNil(t, n.Scale)
	assert.Equal(t, 2, *n.Scale)
	assert.Len(t, n.Grid, 100)
}

func TestBuildUntypedFloatsCanBeCategorical(t *testing.T) {
	p := NewProfiler(0, 0, nil)
	values := make([]interface{}, 0, 20)
	for i := 0; i < 20; i++ {
		values = append(values, []float64{0.5, 1.5}[i%2])
	}

	prof, err := p.Build("rate", "", values, Hints{})
	require.NoError(t, err)
	require.Equal(t, KindCategorical, prof.Kind())
	assert.Equal(t, []interface{}{0.5, 1.5}, prof.Categorical().Values)

	prof, err = p.Build("rate", "double", values, Hints{})
	require.NoError(t, err)
	assert.Equal(t, KindDecimal, prof.Kind())
}

func TestBuildDecimalObservedPrecisions(t *testing.T) {
	p := NewProfiler(0, 50, nil)
	prof, err := p.Build("ratio", "float", []interface{}{0.5, 1.25, 3.125, 2.0}, Hints{})
	require.NoError(t, err)
	n := prof.Numeric()
	assert.Nil(t, n.Scale)
	assert.Equal(t, []int{1, 2, 3, 0}, n.Precisions)
}

func TestBuildInteger(t *testing.T) {
	p := NewProfiler(0, 0, nil)
	prof, err := p.Build("amount", "bigint", seq(50), Hints{})
	require.NoError(t, err)
	require.Equal(t, KindInteger, prof.Kind())
	assert.Equal(t, 0.0, prof.Numeric().Grid[0])
	assert.Equal(t, 147.0, prof.Numeric().Grid[len(prof.Numeric().Grid)-1])
}

func TestBuildIdentifierHintWins(t *testing.T) {
	p := NewProfiler(0, 0, nil)
	prof, err := p.Build("id", "int", ints(1, 1, 1, 1), Hints{Identifier: true})
	require.NoError(t, err)
	assert.Equal(t, KindInteger, prof.Kind())
	assert.True(t, prof.Identifier())

	prof, err = p.Build("code", "varchar", []interface{}{"AB1", "CD2"}, Hints{Identifier: true})
	require.NoError(t, err)
	assert.Equal(t, KindString, prof.Kind())
	assert.Equal(t, "[A-Z][A-Z][0-9]", prof.Text().Pattern)
	assert.True(t, prof.Identifier())
}

func TestBuildForeignKeySkipsModelling(t *testing.T) {
	p := NewProfiler(0, 0, nil)
	prof, err := p.Build("user_id", "decimal(a,b)", nil, Hints{ForeignKey: &ForeignKeyRef{Table: "users", Column: "id"}})
	require.NoError(t, err)
	assert.Equal(t, KindForeignKey, prof.Kind())
	assert.Equal(t, ForeignKeyRef{Table: "users", Column: "id"}, prof.ForeignKey())
}

func TestBuildAllNull(t *testing.T) {
	p := NewProfiler(0, 0, nil)
	prof, err := p.Build("empty", "int", []interface{}{nil, nil}, Hints{})
	require.NoError(t, err)
	assert.Equal(t, KindNull, prof.Kind())
}

func TestBuildSchemaInferenceError(t *testing.T) {
	p := NewProfiler(0, 0, nil)
	_, err := p.Build("price", "decimal(10,", ints(1, 2), Hints{})
	require.Error(t, err)
	assert.True(t, IsSchemaInference(err))

	var sie *SchemaInferenceError
	require.ErrorAs(t, err, &sie)
	assert.Equal(t, "price", sie.Column)

	values := append(seq(30), "not a number")
	_, err = p.Build("n", "int", values, Hints{})
	assert.True(t, IsSchemaInference(err))
}

func TestBuildDate(t *testing.T) {
	p := NewProfiler(0, 0, nil)
	values := make([]interface{}, 0, 30)
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		values = append(values, start.AddDate(0, 0, i*2))
	}
	prof, err := p.Build("birth", "date", values, Hints{})
	require.NoError(t, err)
	require.Equal(t, KindDate, prof.Kind())
	assert.Equal(t, start, prof.Date().Start)
	assert.Equal(t, 58, prof.Date().RangeDays)
}

func TestBuildDegenerateDateIsNull(t *testing.T) {
	p := NewProfiler(0.01, 0, nil)
	prof, err := p.Build("d", "date", []interface{}{"2024-01-01"}, Hints{})
	require.NoError(t, err)
	// one distinct value is categorical before any range is fitted
	assert.Equal(t, KindCategorical, prof.Kind())

	prof, err = p.buildDate("d", "date", []interface{}{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, KindNull, prof.Kind())
}

func TestBuildTimestampDateOnly(t *testing.T) {
	p := NewProfiler(0, 0, nil)
	values := make([]interface{}, 0, 20)
	start := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		values = append(values, start.AddDate(0, 0, i).Format("2006-01-02 15:04:05"))
	}
	prof, err := p.Build("created", "timestamp", values, Hints{})
	require.NoError(t, err)
	require.Equal(t, KindTimestamp, prof.Kind())
	ts := prof.Timestamp()
	assert.True(t, ts.DateOnly)
	assert.Equal(t, start, ts.Start)
	assert.Equal(t, float64(19*24*3600), ts.RangeSeconds)

	values[3] = start.Add(90 * time.Minute)
	prof, err = p.Build("created", "timestamp", values, Hints{})
	require.NoError(t, err)
	assert.False(t, prof.Timestamp().DateOnly)
}

func TestBuildCurrentMomentHint(t *testing.T) {
	p := NewProfiler(0, 0, nil)
	prof, err := p.Build("load_dttm", "timestamp", []interface{}{"2020-01-01 10:00:00"}, Hints{CurrentMoment: true})
	require.NoError(t, err)
	assert.Equal(t, KindTimestamp, prof.Kind())
	assert.True(t, prof.Timestamp().CurrentMoment)
}

func TestBuildStringPattern(t *testing.T) {
	p := NewProfiler(0, 0, nil)
	prof, err := p.Build("phone", "varchar(20)", []interface{}{"123", "32314", "131"}, Hints{})
	require.NoError(t, err)
	require.Equal(t, KindString, prof.Kind())
	assert.Equal(t, "[0-9][0-9][0-9][0-9][0-9]", prof.Text().Pattern)

	prof, err = p.Build("phone", "varchar(20)", []interface{}{"123", "456"}, Hints{Pattern: "[7-9][0-9]"})
	require.NoError(t, err)
	assert.Equal(t, "[7-9][0-9]", prof.Text().Pattern)
}

func TestBuildExplicitValues(t *testing.T) {
	p := NewProfiler(0, 0, nil)
	prof, err := p.Build("flag", "int", nil, Hints{Values: []interface{}{1, 2}, Probabilities: []float64{3, 1}})
	require.NoError(t, err)
	c := prof.Categorical()
	assert.Equal(t, []interface{}{int64(1), int64(2)}, c.Values)
	assert.Equal(t, []float64{0.75, 0.25}, c.Probabilities)
}

func TestBuildStructured(t *testing.T) {
	p := NewProfiler(0, 0, nil)
	values := []interface{}{
		`{"user": {"name": "ann", "age": 30}, "tags": ["a"]}`,
		`{"user": {"name": "bob", "age": 41}}`,
		nil,
	}
	prof, err := p.Build("payload", "jsonb", values, Hints{
		Fields: []Hints{{Name: "user->name", Faker: "first_name"}},
	})
	require.NoError(t, err)
	require.Equal(t, KindStructured, prof.Kind())

	fields := prof.Fields()
	require.Len(t, fields, 3)
	assert.Equal(t, "tags", fields[0].Name())
	assert.Equal(t, "user->age", fields[1].Name())
	assert.Equal(t, "user->name", fields[2].Name())
	assert.Equal(t, "first_name", fields[2].Text().Faker)
}
