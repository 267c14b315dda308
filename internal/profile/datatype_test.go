package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataType(t *testing.T) {
	tests := []struct {
		raw      string
		family   Family
		scale    int
		hasScale bool
	}{
		{"int", FamilyInteger, 0, false},
		{"BIGINT", FamilyInteger, 0, false},
		{"UInt64", FamilyInteger, 0, false},
		{"serial", FamilyInteger, 0, false},
		{"decimal(10,2)", FamilyDecimal, 2, true},
		{"numeric(12)", FamilyDecimal, 0, true},
		{"decimal", FamilyDecimal, 0, false},
		{"double precision", FamilyDecimal, 0, false},
		{"date", FamilyDate, 0, false},
		{"timestamp with time zone", FamilyTimestamp, 0, false},
		{"DateTime64(3)", FamilyTimestamp, 0, false},
		{"Nullable(Decimal(18, 4))", FamilyDecimal, 4, true},
		{"boolean", FamilyBoolean, 0, false},
		{"jsonb", FamilyJSON, 0, false},
		{"varchar(255)", FamilyString, 0, false},
		{"point", FamilyString, 0, false},
		{"interval", FamilyString, 0, false},
		{"", FamilyUnknown, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			dt, err := ParseDataType(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.family, dt.Family)
			assert.Equal(t, tt.scale, dt.Scale)
			assert.Equal(t, tt.hasScale, dt.HasScale)
		})
	}
}

func TestParseDataTypeErrors(t *testing.T) {
	for _, raw := range []string{"decimal(a,b)", "decimal(10,", "decimal(1,2,3)", "(10)"} {
		_, err := ParseDataType(raw)
		assert.True(t, IsSchemaInference(err), raw)
	}
}

func TestFlatten(t *testing.T) {
	objects := []map[string]interface{}{
		{"a": map[string]interface{}{"b": int64(1), "c": "x"}, "d": true},
		{"a": map[string]interface{}{"b": int64(2)}},
		{"e": []interface{}{"q"}},
	}
	series := Flatten(objects)
	require.Len(t, series, 4)

	assert.Equal(t, "a->b", series[0].Key())
	assert.Equal(t, []interface{}{int64(1), int64(2)}, series[0].Values)
	assert.Equal(t, "a->c", series[1].Key())
	assert.Equal(t, []interface{}{"x"}, series[1].Values)
	assert.Equal(t, "d", series[2].Key())
	assert.Equal(t, "e", series[3].Key())
}

func TestSetPath(t *testing.T) {
	obj := make(map[string]interface{})
	SetPath(obj, SplitPath("a->b"), 1)
	SetPath(obj, SplitPath("a->c"), 2)
	SetPath(obj, []string{"d"}, 3)
	assert.Equal(t, map[string]interface{}{
		"a": map[string]interface{}{"b": 1, "c": 2},
		"d": 3,
	}, obj)
}
