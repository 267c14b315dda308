package generator

import (
	"context"
	"math/rand"
	"time"

	"github.com/maksimowich/fake-data-generator/internal/profile"
)

// dateProducer adds a uniform whole-day offset in [0, range] to the start
// date. A zero range emits nulls.
type dateProducer struct {
	params profile.DateParams
	r      *rand.Rand
}

func (d *dateProducer) Produce(_ context.Context, n int) ([]interface{}, error) {
	out := make([]interface{}, n)
	if d.params.RangeDays <= 0 {
		return out, nil
	}
	for i := range out {
		out[i] = d.params.Start.AddDate(0, 0, d.r.Intn(d.params.RangeDays+1))
	}
	return out, nil
}

// timestampProducer adds a uniform real offset in [0, range] seconds,
// truncated to whole seconds. In current-moment mode it ignores the range
// and emits the present time in the configured zone.
type timestampProducer struct {
	params profile.TimestampParams
	r      *rand.Rand
	loc    *time.Location
	now    func() time.Time
}

func (t *timestampProducer) Produce(_ context.Context, n int) ([]interface{}, error) {
	out := make([]interface{}, n)
	if t.params.CurrentMoment {
		now := t.now().In(t.loc).Truncate(time.Second)
		if t.params.DateOnly {
			now = midnight(now)
		}
		for i := range out {
			out[i] = now
		}
		return out, nil
	}
	if t.params.RangeSeconds <= 0 {
		return out, nil
	}
	for i := range out {
		offset := time.Duration(int64(t.r.Float64()*t.params.RangeSeconds)) * time.Second
		v := t.params.Start.Add(offset)
		if t.params.DateOnly {
			v = midnight(v)
		}
		out[i] = v
	}
	return out, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
