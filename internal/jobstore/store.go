// Package jobstore is an optional read-through cache fronting the Job
// Controller's status lookups (spec.md §6 auxiliary concerns). It is
// not the system of record: jobs live and transition in
// internal/jobcontroller's in-memory map for the lifetime of the
// process; this cache only spares a hot /status/{job_id} poller from
// repeatedly taking the controller's per-job lock, and optionally
// survives a master restart within its TTL when backed by Redis.
package jobstore

import "github.com/judgecluster/judgecluster/pkg/models"

// Store caches job snapshots for status lookups.
type Store interface {
	Put(job *models.Job) error
	Get(jobID string) (*models.Job, bool)
	Close() error
}
