package jobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/judgecluster/judgecluster/pkg/models"
)

// RedisStore caches job snapshots in Redis hashes, adapted from the
// teacher's internal/storage/redis/store.go (same hash-per-key shape,
// generalized from a compile-only job record to the full Job type,
// with Results JSON-encoded into one hash field the way the teacher
// encodes its request payload).
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
	ttl    time.Duration
}

// RedisConfig is the subset of connection settings a jobstore needs.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MaxRetries   int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	JobTTL       time.Duration
}

// NewRedisStore dials Redis and verifies connectivity with a ping.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MaxRetries:   cfg.MaxRetries,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	ttl := cfg.JobTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &RedisStore{client: client, ctx: ctx, ttl: ttl}, nil
}

// NewRedisStoreWithClient wraps an already-constructed client, letting
// tests point it at a miniredis instance.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ctx: context.Background(), ttl: ttl}
}

func (s *RedisStore) Put(job *models.Job) error {
	key := s.jobKey(job.ID)

	resultsJSON, err := json.Marshal(job.Results)
	if err != nil {
		return fmt.Errorf("serialize job results: %w", err)
	}

	completedAt := ""
	if job.CompletedAt != nil {
		completedAt = job.CompletedAt.Format(time.RFC3339Nano)
	}

	fields := map[string]interface{}{
		"id":              job.ID,
		"language":        string(job.Language),
		"phase":           string(job.Phase),
		"results":         string(resultsJSON),
		"compiler_output": job.CompilerOutput,
		"system_error":    job.SystemError,
		"created_at":      job.CreatedAt.Format(time.RFC3339Nano),
		"completed_at":    completedAt,
	}

	if err := s.client.HSet(s.ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("store job %s: %w", job.ID, err)
	}
	return s.client.Expire(s.ctx, key, s.ttl).Err()
}

func (s *RedisStore) Get(jobID string) (*models.Job, bool) {
	key := s.jobKey(jobID)

	fields, err := s.client.HGetAll(s.ctx, key).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}

	job := &models.Job{
		ID:             fields["id"],
		Language:       models.Language(fields["language"]),
		Phase:          models.Phase(fields["phase"]),
		CompilerOutput: fields["compiler_output"],
		SystemError:    fields["system_error"],
	}

	if err := json.Unmarshal([]byte(fields["results"]), &job.Results); err != nil {
		return nil, false
	}
	if createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"]); err == nil {
		job.CreatedAt = createdAt
	}
	if fields["completed_at"] != "" {
		if completedAt, err := time.Parse(time.RFC3339Nano, fields["completed_at"]); err == nil {
			job.CompletedAt = &completedAt
		}
	}

	return job, true
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) jobKey(jobID string) string {
	return "judgecluster:job:" + jobID
}

var _ Store = (*RedisStore)(nil)
