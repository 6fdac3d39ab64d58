package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/jdginv/internal/domain"
)

func TestItemStoreCreate(t *testing.T) {
	items := NewItemStore(newTestDocumentStore(t))
	ctx := context.Background()

	item, err := items.Create(ctx, domain.Fields{Name: "Rice", Date: "2024-01-01", Price: "50"})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "Rice", item.Name)

	got, err := items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item, got)
}

func TestItemStoreList(t *testing.T) {
	items := NewItemStore(newTestDocumentStore(t))
	ctx := context.Background()

	_, err := items.Create(ctx, domain.Fields{Name: "Rice", Date: "d1", Price: "50"})
	require.NoError(t, err)
	_, err = items.Create(ctx, domain.Fields{Name: "Beans", Date: "d2", Price: "20"})
	require.NoError(t, err)

	list, err := items.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Insertion order, not alphabetical.
	assert.Equal(t, "Rice", list[0].Name)
	assert.Equal(t, "Beans", list[1].Name)
}

func TestItemStoreUpdate(t *testing.T) {
	items := NewItemStore(newTestDocumentStore(t))
	ctx := context.Background()

	item, err := items.Create(ctx, domain.Fields{Name: "Rice", Date: "2024-01-01", Price: "50"})
	require.NoError(t, err)

	require.NoError(t, items.Update(ctx, item.ID, domain.Fields{Name: "Rice", Date: "2024-01-02", Price: "60"}))

	got, err := items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", got.Date)
	assert.Equal(t, "60", got.Price)
}

func TestItemStoreUpdate_NotFound(t *testing.T) {
	items := NewItemStore(newTestDocumentStore(t))

	err := items.Update(context.Background(), "missing", domain.Fields{Name: "a", Date: "b", Price: "c"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestItemStoreDelete(t *testing.T) {
	items := NewItemStore(newTestDocumentStore(t))
	ctx := context.Background()

	item, err := items.Create(ctx, domain.Fields{Name: "Rice", Date: "d", Price: "1"})
	require.NoError(t, err)

	require.NoError(t, items.Delete(ctx, item.ID))

	got, err := items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, items.Delete(ctx, item.ID), ErrNotFound)
}

func TestItemStoreDeleteAll(t *testing.T) {
	items := NewItemStore(newTestDocumentStore(t))
	ctx := context.Background()

	for _, name := range []string{"Ice cream", "Frozen peas"} {
		_, err := items.Create(ctx, domain.Fields{Name: name, Date: "d", Price: "1"})
		require.NoError(t, err)
	}

	require.NoError(t, items.DeleteAll(ctx))

	list, err := items.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestItemStoreWatch(t *testing.T) {
	items := NewItemStore(newTestDocumentStore(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := items.Watch(ctx)
	require.NoError(t, err)
	assert.Empty(t, next(t, ch))

	created, err := items.Create(ctx, domain.Fields{Name: "Milk", Date: "d", Price: "3"})
	require.NoError(t, err)

	snap := next(t, ch)
	require.Len(t, snap, 1)
	assert.Equal(t, *created, snap[0])
}
