package dashboard

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/dashsync/model"
)

func TestStoreMergePublishes(t *testing.T) {
	s := NewStore()
	ch, cancel := s.Subscribe(8)
	defer cancel()

	s.merge(model.Ranking{Points: 10}, "sess-1", s.generation())

	v := <-ch
	require.NotNil(t, v.Snapshot.Ranking)
	assert.Equal(t, 10, v.Snapshot.Ranking.Points)
	assert.Equal(t, "sess-1", v.Snapshot.SessionKey)
}

func TestStoreDropOldestForSlowSubscribers(t *testing.T) {
	s := NewStore()
	ch, cancel := s.Subscribe(1)
	defer cancel()

	s.merge(model.Ranking{Points: 1}, "sess", s.generation())
	s.merge(model.Ranking{Points: 2}, "sess", s.generation())
	s.merge(model.Ranking{Points: 3}, "sess", s.generation())

	// The single-slot buffer should hold the newest view.
	v := <-ch
	assert.Equal(t, 3, v.Snapshot.Ranking.Points)
}

func TestStoreCycleFlags(t *testing.T) {
	s := NewStore()

	s.beginCycle(false)
	v := s.View()
	assert.True(t, v.Loading)
	assert.False(t, v.Refreshing)

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	s.completeCycle(now, s.generation())
	v = s.View()
	assert.False(t, v.Loading)
	assert.Equal(t, now, v.LastFetchTime)
	assert.Equal(t, now, v.Snapshot.LastUpdated)
	assert.Zero(t, v.RetryCount)

	s.beginCycle(true)
	v = s.View()
	assert.True(t, v.Refreshing)
	assert.False(t, v.Loading)
}

func TestStoreFailSurfacesError(t *testing.T) {
	s := NewStore()
	s.beginCycle(false)
	s.fail(errors.New("boom"), 2, s.generation())

	v := s.View()
	require.Error(t, v.Err)
	assert.False(t, v.Loading)
	assert.Equal(t, 2, v.RetryCount)

	// The next cycle clears the error.
	s.beginCycle(true)
	assert.NoError(t, s.View().Err)
}

func TestStoreApplyLocalKeepsSessionKey(t *testing.T) {
	s := NewStore()
	s.merge(model.Ranking{Points: 1}, "sess-1", s.generation())
	s.applyLocal(model.TaskList{Items: []model.TaskItem{{ID: "t1"}}})

	v := s.View()
	assert.Equal(t, "sess-1", v.Snapshot.SessionKey)
	require.NotNil(t, v.Snapshot.Tasks)
}

func TestStoreResetDiscardsEverything(t *testing.T) {
	s := NewStore()
	s.merge(model.Ranking{Points: 1}, "sess-1", s.generation())
	s.fail(errors.New("boom"), 1, s.generation())
	s.reset()

	v := s.View()
	assert.Nil(t, v.Snapshot.Ranking)
	assert.NoError(t, v.Err)
	assert.Zero(t, v.RetryCount)
}

func TestStoreMergeDropsStaleGeneration(t *testing.T) {
	s := NewStore()
	old := s.generation()
	s.merge(model.Ranking{Points: 1}, "sess-old", old)

	// reset supersedes the generation; the old session's writes must bounce.
	s.reset()
	s.merge(model.Ranking{Points: 99}, "sess-old", old)
	assert.Nil(t, s.View().Snapshot.Ranking)

	s.completeCycle(time.Now(), old)
	assert.True(t, s.View().LastFetchTime.IsZero())

	s.fail(errors.New("boom"), 2, old)
	assert.NoError(t, s.View().Err)
	assert.Zero(t, s.View().RetryCount)

	s.merge(model.Ranking{Points: 2}, "sess-new", s.generation())
	assert.Equal(t, 2, s.View().Snapshot.Ranking.Points)
}

func TestStoreNextGenerationSupersedes(t *testing.T) {
	s := NewStore()
	old := s.generation()
	next := s.nextGeneration()
	assert.Greater(t, next, old)
	assert.Equal(t, next, s.generation())

	s.merge(model.Ranking{Points: 1}, "sess-old", old)
	assert.Nil(t, s.View().Snapshot.Ranking)
}

func TestStoreViewIsACopy(t *testing.T) {
	s := NewStore()
	s.merge(model.Ranking{Points: 1}, "sess", s.generation())

	v := s.View()
	v.Snapshot.Ranking.Points = 99

	assert.Equal(t, 1, s.View().Snapshot.Ranking.Points)
}

func TestSubscribeCancelCloses(t *testing.T) {
	s := NewStore()
	ch, cancel := s.Subscribe(1)
	cancel()
	_, open := <-ch
	assert.False(t, open)
	// A second cancel is a no-op.
	cancel()
}
