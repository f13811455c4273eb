// Command worker runs one judge cluster worker node: it connects to
// the master, registers, heartbeats, and executes whatever compile or
// execute-batch tasks the master dispatches. Adapted from
// original_source/worker/src/main.rs.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"

	"github.com/judgecluster/judgecluster/internal/config"
	"github.com/judgecluster/judgecluster/internal/langtable"
	"github.com/judgecluster/judgecluster/internal/logging"
	"github.com/judgecluster/judgecluster/internal/sandbox"
	"github.com/judgecluster/judgecluster/internal/wire"
	"github.com/judgecluster/judgecluster/internal/workeragent"
)

func main() {
	encoding.RegisterCodec(wire.Codec{})

	cfg := config.LoadWorkerConfig()
	logging.Init(logging.Config{Level: logging.InfoLevel})
	log := logging.WithComponent("worker")

	table := loadLanguageTable(cfg, log)

	runtime, err := buildRuntime(cfg, table)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize sandbox runtime")
	}
	defer func() {
		if err := runtime.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing sandbox runtime")
		}
	}()
	log.Info().Str("backend", cfg.Backend).Msg("sandbox runtime ready")

	agent := workeragent.New(workeragent.Config{
		WorkerID:   cfg.WorkerID,
		CPUCores:   cfg.CPUCores,
		TotalRAMMB: cfg.TotalRAMMB,
		Tags:       cfg.Tags,
	}, runtime)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for ctx.Err() == nil {
		if err := runSession(ctx, cfg, agent, log); err != nil {
			log.Warn().Err(err).Msg("session ended, reconnecting in 2s")
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
				return
			}
		}
	}
}

// runSession dials the master, opens one Session, and blocks until the
// stream breaks or ctx is cancelled.
func runSession(ctx context.Context, cfg *config.WorkerConfig, agent *workeragent.Agent, log zerolog.Logger) error {
	conn, err := grpc.NewClient(cfg.MasterAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(wire.Codec{})),
	)
	if err != nil {
		return fmt.Errorf("dial master: %w", err)
	}
	defer conn.Close() //nolint:errcheck

	client := wire.NewWorkerServiceClient(conn)
	stream, err := client.Session(ctx)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	log.Info().Str("master_addr", cfg.MasterAddr).Msg("connected to master")
	return agent.Run(ctx, stream)
}

func loadLanguageTable(cfg *config.WorkerConfig, log zerolog.Logger) langtable.Lookuper {
	if cfg.WatchLanguages {
		if watcher, err := langtable.Watch(cfg.LanguageTable); err == nil {
			log.Info().Str("path", cfg.LanguageTable).Msg("watching language table for changes")
			return watcher
		}
		log.Warn().Str("path", cfg.LanguageTable).Msg("failed to watch language table, falling back")
	}

	table, err := langtable.LoadFile(cfg.LanguageTable)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.LanguageTable).Msg("failed to load language table, using defaults")
		return langtable.Default()
	}
	return table
}

func buildRuntime(cfg *config.WorkerConfig, table langtable.Lookuper) (sandbox.Runtime, error) {
	switch cfg.Backend {
	case "kubernetes":
		return sandbox.NewKubernetesRuntime(cfg.K8sNamespace, table)
	default:
		return sandbox.NewDockerRuntime(table)
	}
}
