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

	"github.com/feral-file/mrkt-indexer/internal/api/server"
	"github.com/feral-file/mrkt-indexer/internal/app"
	"github.com/feral-file/mrkt-indexer/internal/config"
	"github.com/feral-file/mrkt-indexer/internal/logger"
	"github.com/feral-file/mrkt-indexer/internal/scanner"
)

var (
	configPath = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "", "Path to .env file")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadBlockScannerConfig(*configPath, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	if err := app.InitLogger(cfg.BaseConfig, "block-scanner"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting Block Scanner")

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

	blockScanner := scanner.New(
		scanner.Config{
			StartHeight:        cfg.Scanner.StartHeight,
			SafetyLag:          cfg.Scanner.SafetyLag,
			PollInterval:       cfg.Scanner.PollInterval,
			BatchSize:          cfg.Scanner.BatchSize,
			PrefetchWorkers:    cfg.Scanner.PrefetchWorkers,
			IncludeMarketplace: cfg.Scanner.IncludeMarketplace,
		},
		core.Chain,
		core.Blocks,
		core.Cursor,
		core.Classifier,
		core.Consumer,
		core.Clock,
	)
	defer blockScanner.Close()

	readTimeout, writeTimeout, idleTimeout := app.ServerTimeouts(cfg.Server)
	opsServer := server.New(server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, core.Store, server.Check{
		Name: "chain",
		Ready: func(ctx context.Context) error {
			_, err := core.Blocks.Head(ctx)
			return err
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
		if err := blockScanner.Run(ctx); err != nil {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error(err, zap.String("component", "block-scanner"))
	}
	cancel()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		logger.Warn("Block scanner did not stop in time")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(err)
	}

	logger.Info("Block Scanner stopped")
}
