// Command master runs the judge cluster's coordinator: the worker
// session gRPC server and the client-facing HTTP API, adapted from
// the teacher's cmd/api/main.go.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"github.com/judgecluster/judgecluster/internal/config"
	"github.com/judgecluster/judgecluster/internal/grpcserver"
	"github.com/judgecluster/judgecluster/internal/jobcontroller"
	"github.com/judgecluster/judgecluster/internal/jobstore"
	"github.com/judgecluster/judgecluster/internal/logging"
	"github.com/judgecluster/judgecluster/internal/masterapi"
	"github.com/judgecluster/judgecluster/internal/registry"
	"github.com/judgecluster/judgecluster/internal/wire"
)

func main() {
	encoding.RegisterCodec(wire.Codec{})

	cfg := config.LoadMasterConfig()
	logging.Init(logging.Config{Level: logging.InfoLevel, JSONOutput: cfg.Environment == "production"})
	log := logging.WithComponent("master")

	log.Info().Str("environment", cfg.Environment).Int("http_port", cfg.HTTPPort).Int("grpc_port", cfg.GRPCPort).Msg("starting master node")

	cache, err := jobstore.New(cfg.RedisEnabled, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize job cache")
	}
	defer func() {
		if err := cache.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing job cache")
		}
	}()

	reg := registry.New()
	jobs := jobcontroller.New(reg)

	grpcServer := grpc.NewServer(grpc.ForceServerCodec(wire.Codec{}))
	wire.RegisterWorkerServiceServer(grpcServer, grpcserver.New(reg, jobs))

	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to listen for worker connections")
	}
	go func() {
		log.Info().Str("addr", grpcListener.Addr().String()).Msg("listening for worker connections")
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Error().Err(err).Msg("grpc server stopped")
		}
	}()

	api := masterapi.New(jobs, reg, cache)
	echoServer := masterapi.NewEchoServer(api, cfg.RateLimit)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		log.Info().Str("addr", addr).Msg("listening for client requests")
		if err := echoServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down master node")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := echoServer.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown error")
	}
	grpcServer.GracefulStop()

	log.Info().Msg("master node stopped")
}
