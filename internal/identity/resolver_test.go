package identity

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/diamond-entries/internal/cache"
	"github.com/JakeFAU/diamond-entries/internal/entries"
)

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) Search(ctx context.Context, q Query) ([]Candidate, error) {
	args := m.Called(ctx, q)
	candidates, _ := args.Get(0).([]Candidate)
	return candidates, args.Error(1)
}

func newStore(t *testing.T) *cache.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))
	s, err := cache.Load(path)
	require.NoError(t, err)
	return s
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	q := Query{FirstName: "Femke", LastName: "Bol"}
	s := &mockSearcher{}
	s.On("Search", mock.Anything, q).Return([]Candidate{
		{ID: "14593938", BirthDate: "23 FEB 2000", Country: "NED", FamilyName: "BOL"},
	}, nil).Once()

	res, err := NewRegistry(s, MatchOptions{}, nil).Resolve(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, Result{ID: "14593938", Country: "NED", Reason: ReasonName}, res)
	s.AssertExpectations(t)
}

func TestRegistryResolveSearchError(t *testing.T) {
	t.Parallel()

	s := &mockSearcher{}
	s.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("down"))
	_, err := NewRegistry(s, MatchOptions{}, nil).Resolve(context.Background(), Query{FirstName: "A", LastName: "B"})
	require.Error(t, err)
}

func TestCachedSkipsRegistryOnHit(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	store.SetIdentity(entries.MeetOslo, "Karsten Warholm", cache.Identity{ID: "14424921", Nat: entries.Str("NOR")})

	s := &mockSearcher{}
	c := NewCached(NewRegistry(s, MatchOptions{}, nil), store)
	res, err := c.Resolve(context.Background(), entries.MeetOslo, Query{FirstName: "Karsten", LastName: "Warholm"})
	require.NoError(t, err)
	assert.Equal(t, "14424921", res.ID)
	assert.Equal(t, "NOR", res.Country)
	s.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestCachedRemembersMisses(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	s := &mockSearcher{}
	s.On("Search", mock.Anything, mock.Anything).Return([]Candidate{}, nil).Once()
	c := NewCached(NewRegistry(s, MatchOptions{}, nil), store)

	q := Query{FirstName: "Unknown", LastName: "Runner"}
	res, err := c.Resolve(context.Background(), entries.MeetParis, q)
	require.NoError(t, err)
	assert.False(t, res.Found())

	// Second lookup is served from the cache, including the miss.
	res, err = c.Resolve(context.Background(), entries.MeetParis, q)
	require.NoError(t, err)
	assert.False(t, res.Found())
	assert.Equal(t, ReasonCached, res.Reason)
	s.AssertNumberOfCalls(t, "Search", 1)

	id, ok := store.Identity(entries.MeetParis, "Unknown Runner")
	require.True(t, ok)
	assert.Empty(t, id.ID)
	assert.Nil(t, id.Nat)
	assert.True(t, store.Dirty())
}
