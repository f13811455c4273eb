package jobstore

import (
	"sync"

	"github.com/judgecluster/judgecluster/pkg/models"
)

// MemoryStore is a process-local cache, adapted from the teacher's
// internal/storage/memory/store.go. Not suitable for a multi-instance
// master; use Store backed by Redis for that.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]models.Job
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]models.Job)}
}

func (s *MemoryStore) Put(job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	return nil
}

func (s *MemoryStore) Get(jobID string) (*models.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, false
	}
	return &job, true
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
