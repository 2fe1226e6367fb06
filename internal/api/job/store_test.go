package job

import (
	"errors"
	"testing"
	"time"

	"github.com/newthinker/chartwise/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore(100, time.Hour)

	job := store.Create("analysis")
	require.NotEmpty(t, job.ID)
	assert.Equal(t, StatusPending, job.Status)

	retrieved, err := store.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, retrieved.ID)
	assert.Equal(t, "analysis", retrieved.Type)
}

func TestStore_Update(t *testing.T) {
	store := NewStore(100, time.Hour)
	job := store.Create("analysis")

	err := store.Update(job.ID, func(j *Job) {
		j.Status = StatusRunning
		j.Progress = 50
	})
	require.NoError(t, err)

	retrieved, _ := store.Get(job.ID)
	assert.Equal(t, StatusRunning, retrieved.Status)
	assert.Equal(t, 50, retrieved.Progress)
}

func TestStore_GetReturnsCopy(t *testing.T) {
	store := NewStore(10, time.Hour)
	job := store.Create("analysis")

	got, _ := store.Get(job.ID)
	got.Status = StatusFailed

	again, _ := store.Get(job.ID)
	assert.Equal(t, StatusPending, again.Status)
}

func TestStore_MaxSize(t *testing.T) {
	store := NewStore(2, time.Hour)

	job1 := store.Create("analysis")
	store.Create("analysis")
	store.Create("analysis") // evicts job1

	_, err := store.Get(job1.ID)
	assert.True(t, errors.Is(err, core.ErrJobNotFound))
	assert.Len(t, store.List(), 2)
}

func TestStore_NotFound(t *testing.T) {
	store := NewStore(100, time.Hour)

	_, err := store.Get("nonexistent")
	assert.True(t, errors.Is(err, core.ErrJobNotFound))
	assert.Error(t, store.Update("nonexistent", func(*Job) {}))
}

func TestStore_FinishedJobsExpire(t *testing.T) {
	store := NewStore(10, time.Minute)
	clock := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	done := store.Create("analysis")
	running := store.Create("analysis")
	require.NoError(t, store.Update(done.ID, func(j *Job) { j.Status = StatusComplete }))
	require.NoError(t, store.Update(running.ID, func(j *Job) { j.Status = StatusRunning }))

	clock = clock.Add(2 * time.Minute)

	_, err := store.Get(done.ID)
	assert.Error(t, err)
	_, err = store.Get(running.ID)
	assert.NoError(t, err)

	store.Create("analysis")
	assert.Len(t, store.List(), 2)
}

func TestStore_ListNewestFirst(t *testing.T) {
	store := NewStore(100, time.Hour)
	clock := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	first := store.Create("analysis")
	clock = clock.Add(time.Second)
	second := store.Create("analysis")

	jobs := store.List()
	require.Len(t, jobs, 2)
	assert.Equal(t, second.ID, jobs[0].ID)
	assert.Equal(t, first.ID, jobs[1].ID)
}
