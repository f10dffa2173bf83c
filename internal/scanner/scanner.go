package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/feral-file/mrkt-indexer/internal/adapter"
	"github.com/feral-file/mrkt-indexer/internal/block"
	"github.com/feral-file/mrkt-indexer/internal/chain"
	"github.com/feral-file/mrkt-indexer/internal/classifier"
	"github.com/feral-file/mrkt-indexer/internal/domain"
	"github.com/feral-file/mrkt-indexer/internal/ingest"
	"github.com/feral-file/mrkt-indexer/internal/logger"
	"github.com/feral-file/mrkt-indexer/internal/metrics"
	"github.com/feral-file/mrkt-indexer/internal/store"
)

// CheckpointKey is the key_value_store row holding the next height to scan.
// Every height below it was fully applied.
const CheckpointKey = "current_height"

const (
	DEFAULT_SAFETY_LAG       = 10
	DEFAULT_POLL_INTERVAL    = 100 * time.Millisecond
	DEFAULT_BATCH_SIZE       = 20
	DEFAULT_PREFETCH_WORKERS = 4
)

// ErrHeightIncomplete is returned when a height had events that failed transiently
var ErrHeightIncomplete = errors.New("height has transient failures")

// Config holds the configuration for the scanner
type Config struct {
	// StartHeight seeds an absent checkpoint instead of the chain head
	StartHeight uint64
	// SafetyLag keeps the scanner this many blocks behind the head
	SafetyLag uint64
	// PollInterval is the wait after a range failed or the scanner caught up
	PollInterval time.Duration
	// BatchSize bounds the heights prefetched per range
	BatchSize int
	// PrefetchWorkers bounds the concurrent block fetches
	PrefetchWorkers int
	// IncludeMarketplace reconciles marketplace events the stream may have missed
	IncludeMarketplace bool
}

// Scanner walks finalized blocks in height order and feeds their events to the ingest consumer
//
//go:generate mockgen -source=scanner.go -destination=../mocks/scanner.go -package=mocks -mock_names=Scanner=MockScanner
type Scanner interface {
	// Run scans until ctx is cancelled
	Run(ctx context.Context) error

	// ScanRange processes the next range of heights and reports how many were applied
	ScanRange(ctx context.Context) (int, error)

	// Rescan processes one height without touching the checkpoint
	Rescan(ctx context.Context, height uint64) error

	// Close releases the prefetch pool
	Close()
}

// fetchedBlock is a prefetched height
type fetchedBlock struct {
	height uint64
	date   time.Time
	txs    []chain.Tx
}

type scanner struct {
	config     Config
	chain      chain.Client
	blocks     block.Provider
	cursor     store.CursorStore
	classifier *classifier.Classifier
	consumer   ingest.Consumer
	clock      adapter.Clock
	pool       pond.ResultPool[*fetchedBlock]
}

// New creates a scanner
func New(
	cfg Config,
	chainClient chain.Client,
	blocks block.Provider,
	cursor store.CursorStore,
	classifier *classifier.Classifier,
	consumer ingest.Consumer,
	clock adapter.Clock,
) Scanner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DEFAULT_POLL_INTERVAL
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DEFAULT_BATCH_SIZE
	}
	if cfg.PrefetchWorkers <= 0 {
		cfg.PrefetchWorkers = DEFAULT_PREFETCH_WORKERS
	}

	return &scanner{
		config:     cfg,
		chain:      chainClient,
		blocks:     blocks,
		cursor:     cursor,
		classifier: classifier,
		consumer:   consumer,
		clock:      clock,
		pool: pond.NewResultPool[*fetchedBlock](
			cfg.PrefetchWorkers,
			pond.WithQueueSize(cfg.BatchSize),
		),
	}
}

// Run scans until ctx is cancelled
func (s *scanner) Run(ctx context.Context) error {
	// The checkpoint is seeded by the first successful ScanRange
	logger.InfoCtx(ctx, "Block scanner started",
		zap.Uint64("start_height", s.config.StartHeight),
		zap.Uint64("safety_lag", s.config.SafetyLag),
		zap.Bool("include_marketplace", s.config.IncludeMarketplace))

	for {
		applied, err := s.ScanRange(ctx)
		if ctx.Err() != nil {
			logger.InfoCtx(ctx, "Block scanner stopped")
			return nil
		}
		if err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("failed to scan range: %w", err))
		}

		if err != nil || applied == 0 {
			select {
			case <-ctx.Done():
				logger.InfoCtx(ctx, "Block scanner stopped")
				return nil
			case <-s.clock.After(s.config.PollInterval):
			}
		}
	}
}

// initCheckpoint seeds an absent checkpoint with the start height or the chain head
func (s *scanner) initCheckpoint(ctx context.Context) (uint64, error) {
	current, found, err := s.cursor.GetCheckpoint(ctx, CheckpointKey)
	if err != nil {
		return 0, err
	}
	if found {
		return current, nil
	}

	height := s.config.StartHeight
	if height == 0 {
		head, err := s.blocks.Head(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to get chain head: %w", err)
		}
		height = head
	}

	stored, err := s.cursor.InitCheckpoint(ctx, CheckpointKey, height)
	if err != nil {
		return 0, err
	}
	logger.InfoCtx(ctx, "Initialized checkpoint", zap.Uint64("height", stored))
	return stored, nil
}

// target is the highest height that is safe to apply.
// The checkpoint holds the next height, so a lag of at least one keeps it at or below head.
func (s *scanner) target(head uint64) (uint64, bool) {
	lag := s.config.SafetyLag
	if lag == 0 {
		lag = 1
	}
	if head < lag {
		return 0, false
	}
	return head - lag, true
}

// ScanRange processes the heights from the checkpoint up to the safe target, bounded by the batch size.
// Heights are prefetched concurrently and applied strictly in order; the checkpoint moves past a height
// only once none of its events failed transiently.
func (s *scanner) ScanRange(ctx context.Context) (int, error) {
	current, err := s.initCheckpoint(ctx)
	if err != nil {
		return 0, err
	}
	metrics.ScannerCheckpointSet(current)

	head, err := s.blocks.Head(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get chain head: %w", err)
	}
	target, ok := s.target(head)
	if !ok || current > target {
		return 0, nil
	}
	metrics.ScannerTargetSet(target)

	end := current + uint64(s.config.BatchSize) - 1
	if end > target {
		end = target
	}

	tasks := make([]pond.Result[*fetchedBlock], 0, end-current+1)
	for height := current; height <= end; height++ {
		h := height
		tasks = append(tasks, s.pool.SubmitErr(func() (*fetchedBlock, error) {
			return s.fetch(ctx, h)
		}))
	}

	applied := 0
	for i, task := range tasks {
		fetched, err := task.Wait()
		if err != nil {
			s.drain(tasks[i+1:])
			return applied, err
		}

		if err := s.apply(ctx, fetched); err != nil {
			s.drain(tasks[i+1:])
			return applied, err
		}

		// The checkpoint holds the next height to scan
		if _, err := s.cursor.AdvanceCheckpoint(ctx, CheckpointKey, fetched.height+1); err != nil {
			s.drain(tasks[i+1:])
			return applied, err
		}
		metrics.ScannerCheckpointSet(fetched.height + 1)
		metrics.BlocksScannedInc()
		applied++
	}

	return applied, nil
}

// drain waits for abandoned prefetches so none outlives the range
func (s *scanner) drain(tasks []pond.Result[*fetchedBlock]) {
	for _, task := range tasks {
		_, _ = task.Wait()
	}
}

// Rescan processes one height without touching the checkpoint
func (s *scanner) Rescan(ctx context.Context, height uint64) error {
	fetched, err := s.fetch(ctx, height)
	if err != nil {
		return err
	}
	return s.apply(ctx, fetched)
}

func (s *scanner) fetch(ctx context.Context, height uint64) (*fetchedBlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txs, err := s.chain.SearchTxs(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("failed to search txs at height %d: %w", height, err)
	}

	fetched := &fetchedBlock{height: height, txs: txs}
	if len(txs) == 0 {
		return fetched, nil
	}

	date, err := s.blocks.BlockTime(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("failed to get block time at height %d: %w", height, err)
	}
	fetched.date = date

	return fetched, nil
}

// apply submits the events of a height in block order.
// Every event is attempted; the height is incomplete when any of them failed transiently.
func (s *scanner) apply(ctx context.Context, fetched *fetchedBlock) error {
	transient := 0
	for _, tx := range fetched.txs {
		for _, cls := range s.classifier.Filter(ctx, tx.Events, s.config.IncludeMarketplace, true) {
			result := s.consumer.Submit(ctx, ingest.Envelope{
				Source:         domain.SourceScanner,
				Height:         fetched.height,
				TxHash:         tx.Hash,
				Date:           fetched.date,
				Classification: cls,
			})
			if result.Status == domain.StatusTransient {
				transient++
			}
		}
	}

	if transient > 0 {
		return fmt.Errorf("%w: %d events at height %d", ErrHeightIncomplete, transient, fetched.height)
	}
	return nil
}

// Close releases the prefetch pool
func (s *scanner) Close() {
	s.pool.StopAndWait()
}
