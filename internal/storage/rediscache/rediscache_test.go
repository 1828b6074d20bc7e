package rediscache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/katalog-toko/internal/domain/category"
)

// --- Mock implementations ---

type mockStore struct {
	list    []category.Category
	listErr error
	calls   int
}

func (m *mockStore) List(_ context.Context) ([]category.Category, error) {
	m.calls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.list, nil
}

func (m *mockStore) Upsert(_ context.Context, c category.Category) (*category.Category, error) {
	m.list = append(m.list, c)
	return &c, nil
}

// --- Helpers ---

func setup(t *testing.T, store *mockStore) (*Categories, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCategories(store, client, time.Minute), mr
}

// --- Tests ---

func TestCategories_ReadThrough(t *testing.T) {
	store := &mockStore{list: []category.Category{
		{ID: "1", Name: "AKSESORIS", CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "2", Name: "GIP", Description: "Produk GIP"},
	}}
	c, mr := setup(t, store)
	ctx := context.Background()

	first, err := c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 2)
	assert.True(t, mr.Exists(categoriesKey))

	second, err := c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
	require.Len(t, second, 2)
	assert.Equal(t, "AKSESORIS", second[0].Name)
	assert.Equal(t, "Produk GIP", second[1].Description)
	assert.True(t, first[0].CreatedAt.Equal(second[0].CreatedAt))
}

func TestCategories_Expiry(t *testing.T) {
	store := &mockStore{list: []category.Category{{ID: "1", Name: "GIP"}}}
	c, mr := setup(t, store)
	ctx := context.Background()

	_, err := c.List(ctx)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	_, err = c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestCategories_UpsertInvalidates(t *testing.T) {
	store := &mockStore{}
	c, mr := setup(t, store)
	ctx := context.Background()

	_, err := c.List(ctx)
	require.NoError(t, err)
	require.True(t, mr.Exists(categoriesKey))

	_, err = c.Upsert(ctx, category.Category{Name: "BEAUTICA"})
	require.NoError(t, err)
	assert.False(t, mr.Exists(categoriesKey))

	list, err := c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCategories_RedisDownFallsThrough(t *testing.T) {
	store := &mockStore{list: []category.Category{{ID: "1", Name: "GIP"}}}
	c, mr := setup(t, store)
	mr.Close()

	list, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCategories_StoreError(t *testing.T) {
	store := &mockStore{listErr: errors.New("db down")}
	c, mr := setup(t, store)

	_, err := c.List(context.Background())
	require.Error(t, err)
	assert.False(t, mr.Exists(categoriesKey))
}

func TestCategories_MalformedEntry(t *testing.T) {
	store := &mockStore{list: []category.Category{{ID: "1", Name: "GIP"}}}
	c, mr := setup(t, store)
	require.NoError(t, mr.Set(categoriesKey, "not json"))

	list, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, store.calls)
}
