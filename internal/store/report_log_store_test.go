package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/jdginv/internal/domain"
)

func TestReportLogStoreAppendAndListNewestFirst(t *testing.T) {
	log := NewReportLogStore(newTestDocumentStore(t))
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	first, err := log.Append(ctx, domain.LogEntry{Action: domain.ActionAdd, ItemID: "i1", Name: "Rice", User: "admin", Timestamp: base})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	_, err = log.Append(ctx, domain.LogEntry{Action: domain.ActionUpdate, ItemID: "i1", Name: "Rice", User: "admin", Timestamp: base.Add(time.Hour)})
	require.NoError(t, err)

	entries, err := log.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ActionUpdate, entries[0].Action)
	assert.Equal(t, domain.ActionAdd, entries[1].Action)
	assert.Equal(t, first.ID, entries[1].ID)
	assert.True(t, base.Equal(entries[1].Timestamp))
}

func TestReportLogStoreWatch(t *testing.T) {
	log := NewReportLogStore(newTestDocumentStore(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := log.Watch(ctx)
	require.NoError(t, err)
	assert.Empty(t, next(t, ch))

	_, err = log.Append(ctx, domain.LogEntry{Action: domain.ActionAdd, ItemID: "i1", Timestamp: time.Now()})
	require.NoError(t, err)

	snap := next(t, ch)
	require.Len(t, snap, 1)
	assert.Equal(t, "i1", snap[0].ItemID)
}
