package jobstore

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judgecluster/judgecluster/pkg/models"
)

func setupTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStoreWithClient(client, 24*time.Hour), mr
}

func TestRedisStorePutAndGet(t *testing.T) {
	store, mr := setupTestStore(t)
	defer mr.Close()
	defer store.Close() //nolint:errcheck

	job := &models.Job{
		ID:        "job-1",
		Language:  models.LanguageCpp,
		Phase:     models.PhaseCompleted,
		Results:   []models.TestCaseResult{{TestID: "a", Verdict: models.VerdictPassed}},
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.Put(job))

	got, ok := store.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, job.Phase, got.Phase)
	require.Len(t, got.Results, 1)
	assert.Equal(t, models.VerdictPassed, got.Results[0].Verdict)
}

func TestRedisStoreGetMissing(t *testing.T) {
	store, mr := setupTestStore(t)
	defer mr.Close()
	defer store.Close() //nolint:errcheck

	_, ok := store.Get("ghost")
	assert.False(t, ok)
}

func TestMemoryStorePutAndGet(t *testing.T) {
	store := NewMemoryStore()
	job := &models.Job{ID: "job-2", Phase: models.PhaseExecuting}
	require.NoError(t, store.Put(job))

	got, ok := store.Get("job-2")
	require.True(t, ok)
	assert.Equal(t, models.PhaseExecuting, got.Phase)

	_, ok = store.Get("ghost")
	assert.False(t, ok)
}
