package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()

	id, s := r.Start("admin")
	require.NotEmpty(t, id)
	assert.Equal(t, PageHome, s.Page)

	s = r.Dispatch(id, Navigate{Page: PageReports}, SetSearch{Text: "rice"})
	assert.Equal(t, PageReports, s.Page)

	got, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, s, got)

	r.End(id)
	_, ok = r.Get(id)
	assert.False(t, ok)
	assert.Equal(t, Initial(), r.Dispatch(id, Navigate{Page: PageHome}))
	assert.Equal(t, 0, r.Len())
}

func TestRegistryConcurrentDispatch(t *testing.T) {
	r := NewRegistry()
	id, _ := r.Start("admin")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Dispatch(id, Navigate{Page: PageInventory})
		}()
	}
	wg.Wait()

	s, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, PageInventory, s.Page)
}

func TestRegistrySweepDropsOldSessions(t *testing.T) {
	r := NewRegistry()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	old, _ := r.Start("admin")
	now = now.Add(2 * time.Hour)
	fresh, _ := r.Start("admin")
	now = now.Add(30 * time.Minute)

	assert.Equal(t, 1, r.Sweep(time.Hour))
	_, ok := r.Get(old)
	assert.False(t, ok)
	_, ok = r.Get(fresh)
	assert.True(t, ok)

	assert.Equal(t, 0, r.Sweep(time.Hour))
	assert.Equal(t, 1, r.Len())
}
