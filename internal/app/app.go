// Package app wires the components shared by the indexer binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/feral-file/mrkt-indexer/internal/adapter"
	"github.com/feral-file/mrkt-indexer/internal/block"
	"github.com/feral-file/mrkt-indexer/internal/chain"
	"github.com/feral-file/mrkt-indexer/internal/classifier"
	"github.com/feral-file/mrkt-indexer/internal/config"
	"github.com/feral-file/mrkt-indexer/internal/ingest"
	"github.com/feral-file/mrkt-indexer/internal/ledger"
	"github.com/feral-file/mrkt-indexer/internal/logger"
	"github.com/feral-file/mrkt-indexer/internal/marketplace"
	"github.com/feral-file/mrkt-indexer/internal/materializer"
	"github.com/feral-file/mrkt-indexer/internal/messaging"
	"github.com/feral-file/mrkt-indexer/internal/metadata"
	"github.com/feral-file/mrkt-indexer/internal/providers/jetstream"
	"github.com/feral-file/mrkt-indexer/internal/registry"
	"github.com/feral-file/mrkt-indexer/internal/store"
)

// Options selects the parts of the core a binary needs
type Options struct {
	Base     config.BaseConfig
	Database config.DatabaseConfig
	Chain    config.ChainConfig
	Metadata config.MetadataConfig
	Registry config.RegistryConfig
	// NATS is optional; an empty url disables publishing
	NATS config.NATSConfig
}

// Core holds the components shared by the drivers and the admin tool
type Core struct {
	DB           *gorm.DB
	Store        store.Store
	Cursor       store.CursorStore
	Clock        adapter.Clock
	JSON         adapter.JSON
	Base64       adapter.Base64
	Chain        chain.Client
	Blocks       block.Provider
	Registry     registry.CollectionRegistry
	Classifier   *classifier.Classifier
	Materializer materializer.Materializer
	Machine      marketplace.Machine
	Ledger       ledger.Ledger
	Publisher    messaging.Publisher
	Consumer     ingest.Consumer
}

// InitLogger initializes the global logger from the base config
func InitLogger(base config.BaseConfig, service string) error {
	cfg := logger.Config{
		Debug:     base.Debug,
		SentryDSN: base.SentryDSN,
		Tags:      map[string]string{"service": service},
	}
	if base.LogFile.Path != "" {
		cfg.File = &logger.FileConfig{
			Path:       base.LogFile.Path,
			MaxSizeMB:  base.LogFile.MaxSizeMB,
			MaxBackups: base.LogFile.MaxBackups,
			MaxAgeDays: base.LogFile.MaxAgeDays,
			Compress:   base.LogFile.Compress,
		}
	}
	return logger.Initialize(cfg)
}

// NewCore connects to the database and builds the shared components
func NewCore(ctx context.Context, opts Options) (*Core, error) {
	db, err := store.Open(ctx, opts.Database, opts.Base.Debug)
	if err != nil {
		return nil, err
	}

	c := &Core{
		DB:     db,
		Store:  store.NewStore(db),
		Cursor: store.NewCursorStore(db),
		Clock:  adapter.NewClock(),
		JSON:   adapter.NewJSON(),
		Base64: adapter.NewBase64(),
	}

	c.Chain = chain.NewClient(
		chain.Config{
			RPCURL:  opts.Chain.RPCURL,
			RESTURL: opts.Chain.RESTURL,
			APIKey:  opts.Chain.APIKey,
		},
		adapter.NewHTTPClient(opts.Chain.RequestTimeout),
		c.JSON,
		c.Base64,
	)
	c.Blocks = block.NewProvider(c.Chain, block.Config{
		TTL:         opts.Chain.BlockHeadTTL,
		StaleWindow: opts.Chain.BlockHeadStaleWindow,
	}, c.Clock)

	var seeds []string
	if opts.Registry.SeedPath != "" {
		seeds, err = registry.NewSeedLoader(adapter.NewFileSystem(), c.JSON).Load(opts.Registry.SeedPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load collection seeds: %w", err)
		}
	}
	c.Registry = registry.NewCollectionRegistry(c.Store, c.Clock, registry.Config{
		RefreshInterval: opts.Registry.RefreshInterval,
		Seeds:           seeds,
	})
	c.Classifier = classifier.New(opts.Chain.MarketplaceContract, c.Registry)

	resolver := metadata.NewResolver(
		adapter.NewHTTPClient(opts.Metadata.Timeout),
		c.JSON,
		c.Base64,
		metadata.Config{
			IPFSGateway:       opts.Metadata.IPFSGateway,
			RequestsPerSecond: opts.Metadata.RequestsPerSecond,
			Burst:             opts.Metadata.Burst,
		},
	)
	c.Materializer = materializer.New(c.Store, c.Chain, resolver, c.Registry)
	c.Machine = marketplace.New(c.Store, c.Materializer, c.JSON)
	c.Ledger = ledger.New(c.Store, adapter.NewJCS(c.JSON), c.Clock)

	if opts.NATS.URL != "" {
		c.Publisher, err = jetstream.NewPublisher(jetstream.Config{
			URL:            opts.NATS.URL,
			StreamName:     opts.NATS.StreamName,
			MaxReconnects:  opts.NATS.MaxReconnects,
			ReconnectWait:  opts.NATS.ReconnectWait,
			ConnectionName: opts.NATS.ConnectionName,
		}, adapter.NewNatsJetStream(), c.JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to create publisher: %w", err)
		}
		logger.InfoCtx(ctx, "Publishing applied events", zap.String("stream", opts.NATS.StreamName))
	}

	c.Consumer = ingest.New(c.Machine, c.Ledger, c.Publisher, c.Clock)
	return c, nil
}

// Close releases the publisher and the database
func (c *Core) Close() {
	if c.Publisher != nil {
		c.Publisher.Close()
	}
	if err := store.Close(c.DB); err != nil {
		logger.Error(fmt.Errorf("failed to close database: %w", err))
	}
}

// ServerTimeouts converts the second based server config
func ServerTimeouts(cfg config.ServerConfig) (time.Duration, time.Duration, time.Duration) {
	return time.Duration(cfg.ReadTimeout) * time.Second,
		time.Duration(cfg.WriteTimeout) * time.Second,
		time.Duration(cfg.IdleTimeout) * time.Second
}
