package pattern

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"digits of varying length", []string{"123", "32314", "131"}, "[0-9][0-9][0-9][0-9][0-9]"},
		{"mixed classes keep first-seen order", []string{"abc", "a0c", "xyz"}, "[a-z][a-z0-9][a-z]"},
		{"hyphen literal", []string{"1234-2314", "1234-2314", "1234-2314"}, "[0-9][0-9][0-9][0-9][-][0-9][0-9][0-9][0-9]"},
		{"cyrillic", []string{"Жук", "abc"}, "[А-Яa-z][а-яa-z][а-яa-z]"},
		{"escaped literals", []string{"a]", "a^", "a-"}, `[a-z][\]\^\-]`},
		{"empty input", nil, ""},
		{"empty strings", []string{"", ""}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.values).String())
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, values := range [][]string{
		{"123", "32314", "131"},
		{"abc", "a0c", "xyz"},
		{"1234-2314"},
		{"Жук-1", "a[b]\\"},
		{"A-", "-A"},
	} {
		p := Extract(values)
		parsed, err := Parse(p.String())
		require.NoError(t, err)
		assert.Equal(t, p.String(), parsed.String())
		assert.Equal(t, p.Space(), parsed.Space())
	}
}

func TestParseHandWritten(t *testing.T) {
	p, err := Parse("ID-[0-9][0-9]")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Len())
	assert.Equal(t, float64(100), p.Space())
	assert.True(t, p.Match("ID-42"))
	assert.False(t, p.Match("ID-4"))
	assert.False(t, p.Match("XD-42"))
}

func TestParseErrors(t *testing.T) {
	for _, s := range []string{"[0-9", "[]", "abc]", `[a\`, "[9-0]"} {
		_, err := Parse(s)
		assert.Error(t, err, s)
	}
}

func TestGenerateMatchesPattern(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	p := Extract([]string{"AB-12", "Cd-34", "ЖЖ-99"})
	for i := 0; i < 500; i++ {
		s := p.Generate(r)
		require.True(t, p.Match(s), "generated %q does not match %s", s, p)
	}
}

func TestGenerateEmptyPattern(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	assert.Equal(t, "", Pattern{}.Generate(r))
	assert.True(t, Pattern{}.IsEmpty())
}

func TestSpace(t *testing.T) {
	assert.Equal(t, float64(10*26), Extract([]string{"1a", "2", "3b"}).Space())
	assert.Equal(t, float64(36*36), Extract([]string{"1a", "a1"}).Space())
	assert.Equal(t, float64(1), Extract([]string{"---"}).Space())
}
