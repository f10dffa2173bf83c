package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/mrkt-indexer/internal/adapter"
	"github.com/feral-file/mrkt-indexer/internal/domain"
	"github.com/feral-file/mrkt-indexer/internal/logger"
)

// CollectionRegistry tracks the cw721 contracts whose lifecycle events are indexed
//
//go:generate mockgen -source=registry.go -destination=../mocks/collection_registry.go -package=mocks -mock_names=CollectionRegistry=MockCollectionRegistry,CollectionSource=MockCollectionSource,SeedLoader=MockSeedLoader
type CollectionRegistry interface {
	// IsAllowed reports whether events of the contract should be applied
	IsAllowed(ctx context.Context, address string) bool

	// Add allows a contract immediately, without waiting for the next refresh
	Add(address string)

	// Refresh reloads the allow-list from the store
	Refresh(ctx context.Context) error

	// Addresses returns a snapshot of the allowed contracts
	Addresses() []string
}

// CollectionSource lists the collections known to the store
type CollectionSource interface {
	ListCollectionAddresses(ctx context.Context) ([]string, error)
}

// SeedData represents the structure of the seed JSON file
type SeedData struct {
	Collections []string `json:"collections"`
}

// SeedLoader defines the interface for loading seed collections from files
type SeedLoader interface {
	// Load loads the seed collections from a JSON file
	Load(filePath string) ([]string, error)
}

type seedLoader struct {
	fs   adapter.FileSystem
	json adapter.JSON
}

// NewSeedLoader creates a new SeedLoader with injected dependencies
func NewSeedLoader(fs adapter.FileSystem, json adapter.JSON) SeedLoader {
	return &seedLoader{
		fs:   fs,
		json: json,
	}
}

// Load loads the seed collections from a JSON file
func (l *seedLoader) Load(filePath string) ([]string, error) {
	data, err := l.fs.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedData
	if err := l.json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed JSON: %w", err)
	}

	return domain.NormalizeAddresses(seed.Collections), nil
}

// Config holds the registry settings
type Config struct {
	RefreshInterval time.Duration
	Seeds           []string
}

type collectionRegistry struct {
	source CollectionSource
	clock  adapter.Clock
	config Config

	mu       sync.RWMutex
	seeds    map[string]bool
	known    map[string]bool
	loadedAt time.Time
}

// NewCollectionRegistry creates a store-backed allow-list.
// Seed addresses stay allowed across refreshes.
func NewCollectionRegistry(source CollectionSource, clock adapter.Clock, config Config) CollectionRegistry {
	seeds := make(map[string]bool, len(config.Seeds))
	for _, address := range config.Seeds {
		seeds[domain.NormalizeAddress(address)] = true
	}

	return &collectionRegistry{
		source: source,
		clock:  clock,
		config: config,
		seeds:  seeds,
		known:  make(map[string]bool),
	}
}

// IsAllowed reports whether events of the contract should be applied.
// An expired list is refreshed first; a failed refresh keeps serving the previous list.
func (r *collectionRegistry) IsAllowed(ctx context.Context, address string) bool {
	address = domain.NormalizeAddress(address)
	if address == "" {
		return false
	}

	if r.expired() {
		if err := r.Refresh(ctx); err != nil {
			logger.WarnCtx(ctx, "Failed to refresh collection registry, serving cached list", zap.Error(err))
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.seeds[address] || r.known[address]
}

// Add allows a contract immediately
func (r *collectionRegistry) Add(address string) {
	address = domain.NormalizeAddress(address)
	if address == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.known[address] = true
}

// Refresh reloads the allow-list from the store
func (r *collectionRegistry) Refresh(ctx context.Context) error {
	addresses, err := r.source.ListCollectionAddresses(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	known := make(map[string]bool, len(addresses))
	for _, address := range addresses {
		known[domain.NormalizeAddress(address)] = true
	}

	r.mu.Lock()
	r.known = known
	r.loadedAt = r.clock.Now()
	r.mu.Unlock()

	logger.DebugCtx(ctx, "Refreshed collection registry", zap.Int("collections", len(known)))
	return nil
}

// Addresses returns a snapshot of the allowed contracts
func (r *collectionRegistry) Addresses() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	addresses := make([]string, 0, len(r.seeds)+len(r.known))
	for address := range r.seeds {
		addresses = append(addresses, address)
	}
	for address := range r.known {
		if !r.seeds[address] {
			addresses = append(addresses, address)
		}
	}
	return addresses
}

func (r *collectionRegistry) expired() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.loadedAt.IsZero() {
		return true
	}
	return r.clock.Since(r.loadedAt) >= r.config.RefreshInterval
}
