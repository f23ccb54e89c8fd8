package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BartekS5/snapetl/internal/snapshot"
	"github.com/BartekS5/snapetl/pkg/logger"
	"github.com/BartekS5/snapetl/pkg/models"
)

const (
	run1 = "2024-11-20 10:00:00.000000"
	run2 = "2024-11-21 10:00:00.000000"
	run3 = "2024-11-22 10:00:00.000000"
)

func seedAddresses(t *testing.T) *snapshot.DirStore {
	t.Helper()
	ctx := context.Background()
	store := snapshot.NewDirStore(t.TempDir())
	require.NoError(t, store.Put(ctx, "address", run1, []models.Row{
		{"address_id": 1, "city": "Leeds"},
		{"address_id": 2, "city": "York"},
		{"address_id": 3, "city": "Hull"},
	}))
	require.NoError(t, store.Put(ctx, "address", run2, []models.Row{
		{"address_id": 2, "city": "Bradford"},
		{"address_id": 2, "city": "Wakefield"},
	}))
	require.NoError(t, store.Put(ctx, "address", run3, []models.Row{
		{"address_id": 1, "city": "Sheffield"},
	}))
	return store
}

func TestResolveLatest_PrefersNewerFile(t *testing.T) {
	r := New(logger.NewTest(), seedAddresses(t))

	res, err := r.ResolveLatest(context.Background(), "address", []interface{}{1, 3})
	require.NoError(t, err)

	got := res.Lookup(1)
	require.Equal(t, Found, got.Status)
	assert.Equal(t, "Sheffield", got.Row["city"])
	assert.Equal(t, Version{RunTimestamp: run3, Seq: 0}, got.Version)

	got = res.Lookup(3)
	require.Equal(t, Found, got.Status)
	assert.Equal(t, "Hull", got.Row["city"])
}

func TestResolveLatest_PrefersLastRowWithinRun(t *testing.T) {
	r := New(logger.NewTest(), seedAddresses(t))

	res, err := r.ResolveLatest(context.Background(), "address", []interface{}{2})
	require.NoError(t, err)

	got := res.Lookup(2)
	require.Equal(t, Found, got.Status)
	assert.Equal(t, "Wakefield", got.Row["city"])
	assert.Equal(t, Version{RunTimestamp: run2, Seq: 1}, got.Version)
}

func TestResolveLatest_MissingKeysAreAbsent(t *testing.T) {
	r := New(logger.NewTest(), seedAddresses(t))

	res, err := r.ResolveLatest(context.Background(), "address", []interface{}{1, 99, nil})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Len())
	assert.Equal(t, NotFound, res.Lookup(99).Status)
	assert.Nil(t, res.Lookup(99).Row)
	assert.NotContains(t, res.found, "99")
}

func TestResolveLatest_EveryKnownKeyIsFound(t *testing.T) {
	r := New(logger.NewTest(), seedAddresses(t))

	res, err := r.ResolveLatest(context.Background(), "address", []interface{}{3, 2, 1, 3, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Len())
	for _, k := range []interface{}{1, 2, 3} {
		assert.Equal(t, Found, res.Lookup(k).Status, "key %v", k)
	}
}

func TestResolveLatest_Idempotent(t *testing.T) {
	r := New(logger.NewTest(), seedAddresses(t))
	keys := []interface{}{1, 2, 3, 4}

	first, err := r.ResolveLatest(context.Background(), "address", keys)
	require.NoError(t, err)
	second, err := r.ResolveLatest(context.Background(), "address", keys)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveLatest_KeyTypesAreNormalised(t *testing.T) {
	r := New(logger.NewTest(), seedAddresses(t))

	res, err := r.ResolveLatest(context.Background(), "address", []interface{}{float64(1), "3"})
	require.NoError(t, err)
	assert.Equal(t, Found, res.Lookup(int64(1)).Status)
	assert.Equal(t, Found, res.Lookup(3).Status)
}

func TestResolveLatest_EmptyHistory(t *testing.T) {
	r := New(logger.NewTest(), snapshot.NewDirStore(t.TempDir()))

	res, err := r.ResolveLatest(context.Background(), "department", []interface{}{1})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
}

type countingStore struct {
	snapshot.Store
	fetched []string
}

func (c *countingStore) Fetch(ctx context.Context, ref snapshot.ObjectRef) ([]models.Row, error) {
	c.fetched = append(c.fetched, ref.RunTimestamp)
	return c.Store.Fetch(ctx, ref)
}

func TestResolveLatest_StopsOnceAllKeysFound(t *testing.T) {
	store := &countingStore{Store: seedAddresses(t)}
	r := New(logger.NewTest(), store)

	_, err := r.ResolveLatest(context.Background(), "address", []interface{}{1})
	require.NoError(t, err)
	assert.Equal(t, []string{run3}, store.fetched)

	store.fetched = nil
	_, err = r.ResolveLatest(context.Background(), "address", []interface{}{1, 3})
	require.NoError(t, err)
	assert.Equal(t, []string{run3, run2, run1}, store.fetched)
}

func TestResolveLatest_NoKeysReadsNothing(t *testing.T) {
	store := &countingStore{Store: seedAddresses(t)}
	r := New(logger.NewTest(), store)

	res, err := r.ResolveLatest(context.Background(), "address", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	assert.Empty(t, store.fetched)
}

type failingStore struct {
	snapshot.Store
}

func (failingStore) Fetch(context.Context, snapshot.ObjectRef) ([]models.Row, error) {
	return nil, errors.New("connection reset")
}

func TestResolveLatest_PropagatesStoreErrors(t *testing.T) {
	r := New(logger.NewTest(), failingStore{Store: seedAddresses(t)})

	_, err := r.ResolveLatest(context.Background(), "address", []interface{}{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestVersionLess(t *testing.T) {
	assert.True(t, Version{RunTimestamp: run1, Seq: 9}.Less(Version{RunTimestamp: run2, Seq: 0}))
	assert.True(t, Version{RunTimestamp: run2, Seq: 0}.Less(Version{RunTimestamp: run2, Seq: 1}))
	assert.False(t, Version{RunTimestamp: run2, Seq: 1}.Less(Version{RunTimestamp: run2, Seq: 1}))
}

func TestWalkHistory_NewestFirst(t *testing.T) {
	var seen []Version
	err := WalkHistory(context.Background(), seedAddresses(t), "address", func(v Version, _ models.Row) bool {
		seen = append(seen, v)
		return true
	})
	require.NoError(t, err)
	require.Len(t, seen, 6)
	for i := 1; i < len(seen); i++ {
		assert.True(t, seen[i].Less(seen[i-1]), "history must be strictly newest first at %d", i)
	}
}
