package jobstore

import "github.com/judgecluster/judgecluster/internal/logging"

// New builds a Redis-backed store when enabled, falling back to an
// in-memory cache otherwise, mirroring the teacher's
// internal/storage/factory.go::NewJobStore selection.
func New(enabled bool, cfg RedisConfig) (Store, error) {
	log := logging.WithComponent("jobstore")

	if enabled {
		log.Info().Str("addr", cfg.Addr).Msg("initializing redis job cache")
		store, err := NewRedisStore(cfg)
		if err != nil {
			return nil, err
		}
		log.Info().Dur("ttl", cfg.JobTTL).Msg("redis job cache initialized")
		return store, nil
	}

	log.Info().Msg("using in-memory job cache")
	return NewMemoryStore(), nil
}
