// Package importer backfills the tokens of a collection that were minted before it was indexed.
package importer

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/feral-file/mrkt-indexer/internal/chain"
	"github.com/feral-file/mrkt-indexer/internal/domain"
	"github.com/feral-file/mrkt-indexer/internal/logger"
	"github.com/feral-file/mrkt-indexer/internal/materializer"
)

const (
	DEFAULT_PAGE_SIZE = 30
	DEFAULT_WORKERS   = 8
)

// Config holds the importer settings
type Config struct {
	// PageSize is the all_tokens page limit
	PageSize int
	// Workers bounds concurrent token materializations
	Workers int
}

// Summary reports the outcome of an import
type Summary struct {
	Address  string
	Expected uint64
	Imported uint64
	Failed   uint64
}

// Progress is called after every page
type Progress func(done, expected uint64)

// Importer backfills collections
type Importer struct {
	config       Config
	chain        chain.Client
	materializer materializer.Materializer
}

// New creates an importer
func New(cfg Config, chainClient chain.Client, m materializer.Materializer) *Importer {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DEFAULT_PAGE_SIZE
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DEFAULT_WORKERS
	}
	return &Importer{
		config:       cfg,
		chain:        chainClient,
		materializer: m,
	}
}

// Import materializes the collection and every token it reports through all_tokens.
// Tokens that fail are counted and logged; the import continues with the next token.
func (i *Importer) Import(ctx context.Context, address string, progress Progress) (*Summary, error) {
	address = domain.NormalizeAddress(address)
	if _, err := i.materializer.EnsureCollection(ctx, address); err != nil {
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}

	expected, err := i.chain.NumTokens(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to query num_tokens: %w", err)
	}

	summary := &Summary{Address: address, Expected: expected}
	var imported, failed atomic.Uint64

	pool := pond.NewPool(i.config.Workers, pond.WithContext(ctx))
	defer pool.StopAndWait()

	startAfter := ""
	for {
		tokenIDs, err := i.chain.AllTokens(ctx, address, startAfter, i.config.PageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to query all_tokens after %q: %w", startAfter, err)
		}
		if len(tokenIDs) == 0 {
			break
		}

		group := pool.NewGroup()
		for _, tokenID := range tokenIDs {
			id := tokenID
			group.Submit(func() {
				if _, err := i.materializer.EnsureNft(ctx, address, id); err != nil {
					failed.Add(1)
					logger.WarnCtx(ctx, "Failed to import token",
						zap.String("address", address),
						zap.String("token_id", id),
						zap.Error(err))
					return
				}
				imported.Add(1)
			})
		}
		if err := group.Wait(); err != nil {
			return nil, fmt.Errorf("failed to import page after %q: %w", startAfter, err)
		}

		if progress != nil {
			progress(imported.Load()+failed.Load(), expected)
		}

		if len(tokenIDs) < i.config.PageSize {
			break
		}
		startAfter = tokenIDs[len(tokenIDs)-1]
	}

	summary.Imported = imported.Load()
	summary.Failed = failed.Load()

	logger.InfoCtx(ctx, "Imported collection",
		zap.String("address", address),
		zap.Uint64("expected", summary.Expected),
		zap.Uint64("imported", summary.Imported),
		zap.Uint64("failed", summary.Failed))

	return summary, nil
}
