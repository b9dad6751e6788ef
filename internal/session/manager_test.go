package session

import (
	"context"
	"testing"
	"time"

	"postsmanager/internal/models"
	"postsmanager/internal/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
}

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager(10, time.Minute)

	s := m.Create("search=love")
	require.NotEmpty(t, s.ID)
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, "love", got.State().SearchQuery)

	require.NoError(t, m.Delete(s.ID))
	_, err = m.Get(s.ID)
	assert.Equal(t, 404, models.StatusFor(err))
	assert.Equal(t, 404, models.StatusFor(m.Delete(s.ID)))
}

func TestManager_DeleteAbandonsInFlightReads(t *testing.T) {
	m := NewManager(10, time.Minute)
	s := m.Create("")

	view := make(chan PostsView)
	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		view <- s.Posts(context.Background(), readerFunc(func(context.Context, query.Plan, string) (query.Result, error) {
			close(started)
			<-release
			return query.Result{Total: 3}, nil
		}))
	}()
	<-started
	require.NoError(t, m.Delete(s.ID))
	close(release)

	assert.True(t, (<-view).Stale)
}

func TestManager_EvictsLeastRecentlyUsed(t *testing.T) {
	m := NewManager(2, time.Minute)
	first := m.Create("")
	second := m.Create("")

	_, err := m.Get(first.ID)
	require.NoError(t, err)
	m.Create("")

	_, err = m.Get(second.ID)
	assert.Error(t, err, "second was least recently used")
	_, err = m.Get(first.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, m.Len())
}

func TestManager_IdleExpiry(t *testing.T) {
	m := NewManager(10, 50*time.Millisecond)
	s := m.Create("")

	assert.Eventually(t, s.closed, 2*time.Second, 10*time.Millisecond)
	_, err := m.Get(s.ID)
	assert.Error(t, err)
}

func TestManager_Purge(t *testing.T) {
	m := NewManager(0, 0)
	a := m.Create("")
	m.Create("")
	m.Purge()
	assert.Zero(t, m.Len())
	assert.True(t, a.closed())
}
