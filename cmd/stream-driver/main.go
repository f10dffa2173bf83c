package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/mrkt-indexer/internal/adapter"
	"github.com/feral-file/mrkt-indexer/internal/api/server"
	"github.com/feral-file/mrkt-indexer/internal/app"
	"github.com/feral-file/mrkt-indexer/internal/config"
	"github.com/feral-file/mrkt-indexer/internal/decoder"
	"github.com/feral-file/mrkt-indexer/internal/logger"
	"github.com/feral-file/mrkt-indexer/internal/stream"
)

var (
	configPath = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "", "Path to .env file")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadStreamDriverConfig(*configPath, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	if err := app.InitLogger(cfg.BaseConfig, "stream-driver"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting Stream Driver")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	core, err := app.NewCore(ctx, app.Options{
		Base:     cfg.BaseConfig,
		Database: cfg.Database,
		Chain:    cfg.Chain,
		Metadata: cfg.Metadata,
		Registry: cfg.Registry,
		NATS:     cfg.NATS,
	})
	if err != nil {
		logger.Fatal("Failed to initialize indexer", zap.Error(err))
	}
	defer core.Close()

	driver := stream.New(
		stream.Config{
			WebSocketURL:        cfg.Chain.WebSocketURL,
			MarketplaceContract: cfg.Chain.MarketplaceContract,
			ReconnectInitial:    cfg.Stream.ReconnectInitial,
			ReconnectMax:        cfg.Stream.ReconnectMax,
			PingInterval:        cfg.Stream.PingInterval,
			ReadTimeout:         cfg.Stream.ReadTimeout,
		},
		adapter.NewWSDialer(cfg.Chain.RequestTimeout),
		decoder.New(core.Base64, core.JSON),
		core.Chain,
		core.Classifier,
		core.Consumer,
		core.Store,
		core.Clock,
	)

	readTimeout, writeTimeout, idleTimeout := app.ServerTimeouts(cfg.Server)
	opsServer := server.New(server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, core.Store, server.Check{
		Name: "stream",
		Ready: func(context.Context) error {
			switch state := driver.State(); state {
			case stream.StateSubscribed, stream.StateReceiving:
				return nil
			default:
				return fmt.Errorf("stream is %s", state)
			}
		},
	})

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 2)

	go func() {
		if err := opsServer.Start(); err != nil {
			errCh <- err
		}
	}()
	go server.RunSystemMetrics(ctx, 15*time.Second)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := driver.Run(ctx); err != nil {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error(err, zap.String("component", "stream-driver"))
	}
	cancel()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logger.Warn("Stream driver did not stop in time")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(err)
	}

	logger.Info("Stream Driver stopped")
}
