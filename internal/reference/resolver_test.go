package reference

import (
	"context"
	"errors"
	"testing"

	"github.com/maksimowich/fake-data-generator/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	perRound int
	err      error
	requests []int
}

func (f *fakeProvider) FetchReference(_ context.Context, table, column string, n int) ([]interface{}, error) {
	f.requests = append(f.requests, n)
	if f.err != nil {
		return nil, f.err
	}
	size := n
	if f.perRound < size {
		size = f.perRound
	}
	out := make([]interface{}, size)
	for i := range out {
		out[i] = int64(i + 1)
	}
	return out, nil
}

var users = profile.ForeignKeyRef{Table: "users", Column: "id"}

func TestResolveAccumulates(t *testing.T) {
	provider := &fakeProvider{perRound: 3}
	values, err := NewResolver(provider, 0, nil).Resolve(context.Background(), users, 7)
	require.NoError(t, err)
	assert.Len(t, values, 7)
	assert.Equal(t, []int{7, 4, 1}, provider.requests)
	assert.Equal(t, []interface{}{int64(1), int64(2), int64(3), int64(1), int64(2), int64(3), int64(1)}, values)
}

func TestResolveEmptyReference(t *testing.T) {
	provider := &fakeProvider{perRound: 0}
	_, err := NewResolver(provider, 5, nil).Resolve(context.Background(), users, 2)
	assert.True(t, IsReferenceUnavailable(err))
	assert.Equal(t, []int{2}, provider.requests)
}

func TestResolveRoundLimit(t *testing.T) {
	provider := &fakeProvider{perRound: 1}
	_, err := NewResolver(provider, 3, nil).Resolve(context.Background(), users, 10)
	var rerr *ReferenceUnavailableError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "users", rerr.Table)
	assert.Contains(t, rerr.Reason, "3 rounds")
	assert.Len(t, provider.requests, 3)
}

func TestResolveProviderError(t *testing.T) {
	cause := errors.New("no such table")
	_, err := NewResolver(&fakeProvider{err: cause}, 0, nil).Resolve(context.Background(), users, 1)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrReferenceUnavailable)
}

func TestResolveZero(t *testing.T) {
	provider := &fakeProvider{perRound: 1}
	values, err := NewResolver(provider, 0, nil).Resolve(context.Background(), users, 0)
	require.NoError(t, err)
	assert.Empty(t, values)
	assert.Empty(t, provider.requests)
}
