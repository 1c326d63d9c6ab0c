/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carverauto/devicewatch/pkg/config"
	"github.com/carverauto/devicewatch/pkg/core"
	"github.com/carverauto/devicewatch/pkg/core/api"
	"github.com/carverauto/devicewatch/pkg/kv"
	"github.com/carverauto/devicewatch/pkg/lifecycle"
	"github.com/carverauto/devicewatch/pkg/logger"
	"github.com/carverauto/devicewatch/pkg/models"
	"github.com/carverauto/devicewatch/pkg/natsutil"
	"github.com/carverauto/devicewatch/pkg/registry"
	"github.com/carverauto/devicewatch/pkg/scan"
	"github.com/carverauto/devicewatch/pkg/sweeper"
	"github.com/carverauto/devicewatch/pkg/version"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/devicewatch/devicewatch.json", "Path to devicewatch config file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("devicewatch"))
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Step 1: Load config over the built-in defaults
	cfg := core.DefaultServiceConfig()
	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg = core.NormalizeConfig(cfg)

	// Step 2: Create logger from loaded config
	mainLogger, err := lifecycle.CreateComponentLogger(ctx, "devicewatch", cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := lifecycle.ShutdownLogger(shutdownCtx); err != nil {
			log.Printf("Failed to shutdown logger: %v", err)
		}
	}()

	mainLogger.Info().
		Str("version", version.GetVersion()).
		Str("build", version.GetBuildID()).
		Str("listen_addr", cfg.ListenAddr).
		Msg("Starting devicewatch")

	// Step 3: Restore the registry
	store, closeStore, err := newDocumentStore(ctx, cfg, mainLogger)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := registry.NewDeviceRegistry(store, mainLogger)
	if err := reg.Load(ctx); err != nil {
		return fmt.Errorf("failed to load device registry: %w", err)
	}

	// Step 4: Wire the monitor and the API
	prober := scan.NewICMPProber(time.Duration(cfg.ProbeTimeout), mainLogger, scan.WithPrivileged(cfg.ICMP.Privileged))

	sw := sweeper.NewDeviceSweeper(reg, prober, mainLogger,
		sweeper.WithInterval(time.Duration(cfg.SweepInterval)),
		sweeper.WithConcurrency(cfg.SweepConcurrency))
	sw.Prime(reg.List(), time.Now())

	if cfg.Events.Enabled {
		publisher, nc, err := natsutil.ConnectWithEventPublisher(ctx, cfg.Events, mainLogger)
		if err != nil {
			return fmt.Errorf("failed to set up event publisher: %w", err)
		}
		defer nc.Close()

		events, unsubscribe := sw.Subscribe()
		defer unsubscribe()

		go publisher.Run(ctx, events)

		mainLogger.Info().
			Str("stream", cfg.Events.Stream).
			Str("subject", cfg.Events.Subject).
			Msg("Publishing device state events")
	}

	svc := core.NewDeviceService(reg, sw, mainLogger)
	server := api.NewAPIServer(cfg.CORS, api.WithDeviceService(svc), api.WithLogger(mainLogger))

	errCh := make(chan error, 2)

	go func() {
		if err := sw.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("sweeper: %w", err)
		}
	}()

	go func() {
		if err := server.Start(cfg.ListenAddr); err != nil {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	var runErr error

	select {
	case <-ctx.Done():
		mainLogger.Info().Msg("Shutdown signal received")
	case runErr = <-errCh:
		mainLogger.Error().Err(runErr).Msg("Component failed, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		mainLogger.Warn().Err(err).Msg("API server shutdown incomplete")
	}

	if err := sw.Stop(); err != nil {
		mainLogger.Warn().Err(err).Msg("Sweeper shutdown incomplete")
	}

	return runErr
}

func newDocumentStore(ctx context.Context, cfg *models.ServiceConfig, log logger.Logger) (registry.DocumentStore, func(), error) {
	switch cfg.Storage.Type {
	case models.StorageNATS:
		opts, err := natsutil.SecureOptions(cfg.Storage.TLS)
		if err != nil {
			return nil, nil, err
		}

		natsStore, err := kv.NewNatsStore(ctx, cfg.Storage.NatsURL, cfg.Storage.Bucket, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect device store: %w", err)
		}

		log.Info().
			Str("url", cfg.Storage.NatsURL).
			Str("bucket", cfg.Storage.Bucket).
			Str("key", cfg.Storage.Key).
			Msg("Using NATS KV device store")

		return registry.NewKVDocumentStore(natsStore, cfg.Storage.Key), func() {
			if err := natsStore.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close NATS connection")
			}
		}, nil
	default:
		log.Info().Str("path", cfg.Storage.Path).Msg("Using file device store")

		return registry.NewFileDocumentStore(cfg.Storage.Path), func() {}, nil
	}
}
