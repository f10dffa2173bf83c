package block

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/mrkt-indexer/internal/adapter"
	"github.com/feral-file/mrkt-indexer/internal/logger"
)

// Head is the cached chain head
type Head struct {
	Height    uint64
	FetchedAt time.Time
}

type cachedTime struct {
	Time     time.Time
	CachedAt time.Time
}

// Provider provides cached access to the chain head and to block times.
// The scanner asks for the head on every loop iteration and for the time of
// every block it applies, so both are served from memory whenever possible.
//
//go:generate mockgen -source=block.go -destination=../mocks/block_provider.go -package=mocks -mock_names=Provider=MockBlockProvider,Fetcher=MockBlockFetcher
type Provider interface {
	// Head returns the latest block height, potentially from cache
	Head(ctx context.Context) (uint64, error)

	// BlockTime returns the header time of a block, potentially from cache
	BlockTime(ctx context.Context, height uint64) (time.Time, error)
}

// Fetcher fetches block information from the chain RPC
type Fetcher interface {
	// LatestHeight fetches the latest block height
	LatestHeight(ctx context.Context) (uint64, error)

	// BlockTime fetches the header time of a block
	BlockTime(ctx context.Context, height uint64) (time.Time, error)
}

// Config holds configuration for the Provider
type Config struct {
	// TTL is how long to cache the head
	TTL time.Duration

	// StaleWindow is how long a cached head may still be served when fetching fails
	StaleWindow time.Duration

	// MaxCachedTimes bounds the block time cache; the lowest heights are evicted first.
	// Block times never change once committed, so entries do not expire.
	MaxCachedTimes int
}

const defaultMaxCachedTimes = 1024

type provider struct {
	fetcher Fetcher
	config  Config
	clock   adapter.Clock

	mu    sync.RWMutex
	head  *Head
	times map[uint64]cachedTime
}

// NewProvider creates a new Provider with caching
func NewProvider(fetcher Fetcher, config Config, clock adapter.Clock) Provider {
	if config.MaxCachedTimes <= 0 {
		config.MaxCachedTimes = defaultMaxCachedTimes
	}
	return &provider{
		fetcher: fetcher,
		config:  config,
		clock:   clock,
		times:   make(map[uint64]cachedTime),
	}
}

// Head returns the latest block height, using cache if valid
func (p *provider) Head(ctx context.Context) (uint64, error) {
	p.mu.RLock()
	cached := p.head
	p.mu.RUnlock()

	now := p.clock.Now()

	if cached != nil && now.Sub(cached.FetchedAt) < p.config.TTL {
		logger.DebugCtx(ctx, "Using cached chain head", zap.Uint64("height", cached.Height))
		return cached.Height, nil
	}

	height, err := p.fetcher.LatestHeight(ctx)
	if err != nil {
		if cached != nil && now.Sub(cached.FetchedAt) < p.config.StaleWindow {
			logger.WarnCtx(ctx, "Using stale chain head", zap.Uint64("height", cached.Height), zap.Error(err))
			return cached.Height, nil
		}
		return 0, fmt.Errorf("failed to fetch chain head and no valid cache available: %w", err)
	}

	p.mu.Lock()
	// A lagging RPC node must not move the head backwards
	if p.head == nil || height >= p.head.Height {
		p.head = &Head{Height: height, FetchedAt: now}
	} else {
		p.head.FetchedAt = now
		height = p.head.Height
	}
	p.mu.Unlock()

	return height, nil
}

// BlockTime returns the header time of a block, using cache if present
func (p *provider) BlockTime(ctx context.Context, height uint64) (time.Time, error) {
	p.mu.RLock()
	cached, ok := p.times[height]
	p.mu.RUnlock()

	if ok {
		return cached.Time, nil
	}

	blockTime, err := p.fetcher.BlockTime(ctx, height)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch time of block %d: %w", height, err)
	}

	p.mu.Lock()
	p.times[height] = cachedTime{Time: blockTime, CachedAt: p.clock.Now()}
	p.evictLocked()
	p.mu.Unlock()

	return blockTime, nil
}

// evictLocked drops the lowest heights until the cache fits
func (p *provider) evictLocked() {
	overflow := len(p.times) - p.config.MaxCachedTimes
	if overflow <= 0 {
		return
	}

	heights := make([]uint64, 0, len(p.times))
	for height := range p.times {
		heights = append(heights, height)
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })

	for _, height := range heights[:overflow] {
		delete(p.times, height)
	}
}
