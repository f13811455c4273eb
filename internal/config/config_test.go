package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMasterConfigDefaults(t *testing.T) {
	cfg := LoadMasterConfig()
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 50051, cfg.GRPCPort)
	assert.False(t, cfg.RedisEnabled)
}

func TestLoadMasterConfigEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")
	t.Setenv("REDIS_JOB_TTL_HOURS", "48")

	cfg := LoadMasterConfig()
	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, 48*60*60*1e9, float64(cfg.Redis.JobTTL))
}

func TestLoadWorkerConfigDefaults(t *testing.T) {
	cfg := LoadWorkerConfig()
	assert.Equal(t, "127.0.0.1:50051", cfg.MasterAddr)
	assert.Equal(t, "docker", cfg.Backend)
}

func TestLoadWorkerConfigEnvOverrides(t *testing.T) {
	t.Setenv("MASTER_ADDR", "master.internal:50051")
	t.Setenv("WORKER_TAGS", "can_compile,gpu")
	t.Setenv("WORKER_BACKEND", "kubernetes")

	cfg := LoadWorkerConfig()
	assert.Equal(t, "master.internal:50051", cfg.MasterAddr)
	require.Len(t, cfg.Tags, 2)
	assert.Equal(t, []string{"can_compile", "gpu"}, cfg.Tags)
	assert.Equal(t, "kubernetes", cfg.Backend)
}

func TestSplitCSVIgnoresEmptySegments(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitCSV("a,,b,"))
	assert.Nil(t, splitCSV(""))
}
