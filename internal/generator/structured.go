package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/maksimowich/fake-data-generator/internal/profile"
)

// structuredProducer generates every key-path sub-series of a nested column
// and reassembles one object per row following the sorted key paths.
type structuredProducer struct {
	column string
	fields []Column
	paths  [][]string
	order  []int
	raw    bool
}

func newStructured(p *profile.ColumnProfile, env Env) (Producer, error) {
	fields := p.Fields()
	s := &structuredProducer{
		column: p.Name(),
		fields: make([]Column, len(fields)),
		paths:  make([][]string, len(fields)),
		order:  make([]int, len(fields)),
		raw:    env.RawStructured,
	}
	for i, f := range fields {
		producer, err := New(f, env)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", p.Name(), err)
		}
		s.fields[i] = Column{Name: f.Name(), Producer: producer}
		s.paths[i] = profile.SplitPath(f.Name())
		s.order[i] = i
	}
	if err := checkCopies(s.fields); err != nil {
		return nil, fmt.Errorf("column %s: %w", p.Name(), err)
	}
	sort.Slice(s.order, func(a, b int) bool {
		return strings.Join(s.paths[s.order[a]], "\x00") < strings.Join(s.paths[s.order[b]], "\x00")
	})
	return s, nil
}

func (s *structuredProducer) Produce(ctx context.Context, n int) ([]interface{}, error) {
	values, err := produceColumns(ctx, s.fields, n, func(i int, err error) error {
		return fmt.Errorf("field %s: %w", s.fields[i].Name, err)
	})
	if err != nil {
		return nil, err
	}

	out := make([]interface{}, n)
	for r := range out {
		obj := make(map[string]interface{})
		for _, i := range s.order {
			profile.SetPath(obj, s.paths[i], values[i][r])
		}
		if s.raw {
			out[r] = obj
			continue
		}
		text, err := marshalObject(obj)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", s.column, err)
		}
		out[r] = text
	}
	return out, nil
}

// marshalObject renders JSON keeping non-ASCII text and HTML characters as is.
func marshalObject(obj map[string]interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(obj); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
