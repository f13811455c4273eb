// Package config loads master and worker configuration from environment
// variables, adapted from the teacher's internal/config/config.go and
// cmd/api/main.go::loadConfig.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/judgecluster/judgecluster/internal/jobstore"
)

// MasterConfig holds everything cmd/master needs to start.
type MasterConfig struct {
	HTTPPort       int
	GRPCPort       int
	Environment    string
	RateLimit      bool
	Redis          jobstore.RedisConfig
	RedisEnabled   bool
	LanguageTable  string
	WatchLanguages bool
}

// WorkerConfig holds everything cmd/worker needs to start.
type WorkerConfig struct {
	MasterAddr     string
	WorkerID       string
	Tags           []string
	CPUCores       uint32
	TotalRAMMB     uint64
	Backend        string // "docker" or "kubernetes"
	K8sNamespace   string
	LanguageTable  string
	WatchLanguages bool
	HealthPort     int
}

// DefaultMasterConfig mirrors the teacher's DefaultConfig defaults,
// adapted to this cluster's ports and knobs.
func DefaultMasterConfig() *MasterConfig {
	return &MasterConfig{
		HTTPPort:    8080,
		GRPCPort:    50051,
		Environment: "development",
		RateLimit:   true,
		Redis: jobstore.RedisConfig{
			Addr:         "localhost:6379",
			DB:           0,
			PoolSize:     20,
			MaxRetries:   3,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			JobTTL:       24 * time.Hour,
		},
		RedisEnabled:  false,
		LanguageTable: "configs/languages.yaml",
	}
}

// DefaultWorkerConfig mirrors original_source/worker/src/main.rs's
// DEFAULT_MASTER_ADDR and its "connect to Docker" default backend.
func DefaultWorkerConfig() *WorkerConfig {
	return &WorkerConfig{
		MasterAddr:    "127.0.0.1:50051",
		Backend:       "docker",
		K8sNamespace:  "default",
		LanguageTable: "configs/languages.yaml",
		HealthPort:    9090,
	}
}

// LoadMasterConfig reads MasterConfig from the environment, falling
// back to DefaultMasterConfig for anything unset.
func LoadMasterConfig() *MasterConfig {
	cfg := DefaultMasterConfig()

	if port := os.Getenv("HTTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.HTTPPort = p
		}
	}
	if port := os.Getenv("GRPC_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.GRPCPort = p
		}
	}
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		cfg.Environment = env
	}
	if rl := os.Getenv("RATE_LIMIT_ENABLED"); rl != "" {
		cfg.RateLimit = rl == "true"
	}

	if enabled := os.Getenv("REDIS_ENABLED"); enabled == "true" {
		cfg.RedisEnabled = true
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if d, err := strconv.Atoi(db); err == nil {
			cfg.Redis.DB = d
		}
	}
	if poolSize := os.Getenv("REDIS_POOL_SIZE"); poolSize != "" {
		if p, err := strconv.Atoi(poolSize); err == nil {
			cfg.Redis.PoolSize = p
		}
	}
	if ttl := os.Getenv("REDIS_JOB_TTL_HOURS"); ttl != "" {
		if hours, err := strconv.Atoi(ttl); err == nil {
			cfg.Redis.JobTTL = time.Duration(hours) * time.Hour
		}
	}

	if path := os.Getenv("LANGUAGE_TABLE_PATH"); path != "" {
		cfg.LanguageTable = path
	}
	if watch := os.Getenv("WATCH_LANGUAGE_TABLE"); watch == "true" {
		cfg.WatchLanguages = true
	}

	return cfg
}

// LoadWorkerConfig reads WorkerConfig from the environment, mirroring
// original_source/worker/src/main.rs's MASTER_ADDR override.
func LoadWorkerConfig() *WorkerConfig {
	cfg := DefaultWorkerConfig()

	if addr := os.Getenv("MASTER_ADDR"); addr != "" {
		cfg.MasterAddr = addr
	}
	if id := os.Getenv("WORKER_ID"); id != "" {
		cfg.WorkerID = id
	}
	if tags := os.Getenv("WORKER_TAGS"); tags != "" {
		cfg.Tags = splitCSV(tags)
	}
	if cores := os.Getenv("WORKER_CPU_CORES"); cores != "" {
		if c, err := strconv.ParseUint(cores, 10, 32); err == nil {
			cfg.CPUCores = uint32(c)
		}
	}
	if ram := os.Getenv("WORKER_TOTAL_RAM_MB"); ram != "" {
		if r, err := strconv.ParseUint(ram, 10, 64); err == nil {
			cfg.TotalRAMMB = r
		}
	}
	if backend := os.Getenv("WORKER_BACKEND"); backend != "" {
		cfg.Backend = backend
	}
	if ns := os.Getenv("K8S_NAMESPACE"); ns != "" {
		cfg.K8sNamespace = ns
	}
	if path := os.Getenv("LANGUAGE_TABLE_PATH"); path != "" {
		cfg.LanguageTable = path
	}
	if watch := os.Getenv("WATCH_LANGUAGE_TABLE"); watch == "true" {
		cfg.WatchLanguages = true
	}
	if port := os.Getenv("HEALTH_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.HealthPort = p
		}
	}

	return cfg
}

func splitCSV(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
