package ingest

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/mrkt-indexer/internal/adapter"
	"github.com/feral-file/mrkt-indexer/internal/classifier"
	"github.com/feral-file/mrkt-indexer/internal/domain"
	"github.com/feral-file/mrkt-indexer/internal/ledger"
	"github.com/feral-file/mrkt-indexer/internal/logger"
	"github.com/feral-file/mrkt-indexer/internal/marketplace"
	"github.com/feral-file/mrkt-indexer/internal/messaging"
	"github.com/feral-file/mrkt-indexer/internal/metrics"
	"github.com/feral-file/mrkt-indexer/internal/store"
)

// Envelope is one classified event handed over by a driver
type Envelope struct {
	Source         domain.Source
	Height         uint64
	TxHash         string
	Date           time.Time
	Classification classifier.Classification
}

// Consumer is the single entry point both drivers feed events through
//
//go:generate mockgen -source=consumer.go -destination=../mocks/consumer.go -package=mocks -mock_names=Consumer=MockConsumer
type Consumer interface {
	// Submit applies an event at most once across drivers and records the outcome
	Submit(ctx context.Context, envelope Envelope) domain.Result
}

const lockStripes = 64

type consumer struct {
	machine   marketplace.Machine
	ledger    ledger.Ledger
	publisher messaging.Publisher
	clock     adapter.Clock
	locks     [lockStripes]sync.Mutex
}

// New creates a consumer. publisher may be nil.
func New(machine marketplace.Machine, ledger ledger.Ledger, publisher messaging.Publisher, clock adapter.Clock) Consumer {
	return &consumer{
		machine:   machine,
		ledger:    ledger,
		publisher: publisher,
		clock:     clock,
	}
}

// lock serializes work on one dedup key within the process
func (c *consumer) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	mu := &c.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// Submit applies an event at most once across drivers and records the outcome.
// Successes are claimed in the same commit as their effects, permanent failures
// are recorded best-effort and transient failures leave no trace so a retry is clean.
func (c *consumer) Submit(ctx context.Context, envelope Envelope) domain.Result {
	start := c.clock.Now()
	cls := envelope.Classification
	fields := logger.TxFields(string(envelope.Source), envelope.TxHash, cls.Action.String(), envelope.Height)

	result := c.submit(ctx, envelope)

	status := string(result.Status)
	if result.Duplicate {
		status = "duplicate"
	}
	metrics.EventInc(string(envelope.Source), cls.Action.String(), status)
	metrics.EventDuration(string(envelope.Source), c.clock.Since(start))

	switch result.Status {
	case domain.StatusPermanent:
		logger.WarnCtx(ctx, "Event failed permanently", append(fields, zap.Error(result.Err))...)
	case domain.StatusTransient:
		logger.ErrorCtx(ctx, fmt.Errorf("failed to apply event: %w", result.Err), fields...)
	default:
		if result.Duplicate {
			logger.DebugCtx(ctx, "Skipped duplicate event", fields...)
		} else {
			logger.InfoCtx(ctx, "Applied event", fields...)
		}
	}

	return result
}

func (c *consumer) submit(ctx context.Context, envelope Envelope) domain.Result {
	cls := envelope.Classification

	key, err := c.ledger.DedupKey(envelope.TxHash, cls.Action, cls.Event.Attributes)
	if err != nil {
		return domain.Transient(err)
	}

	unlock := c.lock(key)
	defer unlock()

	seen, err := c.ledger.Seen(ctx, key)
	if err != nil {
		return domain.Transient(fmt.Errorf("failed to check ledger: %w", err))
	}
	if seen {
		return domain.DuplicateResult()
	}

	entry := ledger.Entry{
		TxHash:   envelope.TxHash,
		Action:   cls.Action,
		DedupKey: key,
		Source:   envelope.Source,
		Height:   envelope.Height,
	}

	result := c.machine.Apply(ctx, marketplace.Input{
		Action: cls.Action,
		Event:  cls.Event,
		TxHash: envelope.TxHash,
		Date:   envelope.Date,
		Claim: func(ctx context.Context, tx store.Store) (bool, error) {
			return c.ledger.Claim(ctx, tx, entry)
		},
	})

	switch {
	case result.Status == domain.StatusPermanent:
		entry.Failure = true
		entry.Message = result.Message()
		if cls.Kind == domain.ActionKindCw721 {
			c.ledger.RecordCw721Failure(ctx, entry)
		} else {
			c.ledger.Record(ctx, entry)
		}
	case result.OK() && !result.Duplicate:
		c.publish(ctx, envelope, key)
	}

	return result
}

func (c *consumer) publish(ctx context.Context, envelope Envelope, key string) {
	if c.publisher == nil {
		return
	}

	cls := envelope.Classification
	event := &domain.AppliedEvent{
		Source:          envelope.Source,
		Kind:            cls.Kind,
		Action:          cls.Action,
		TxHash:          envelope.TxHash,
		Height:          envelope.Height,
		Date:            envelope.Date.UTC(),
		ContractAddress: cls.Event.ContractAddress(),
		Attributes:      cls.Event.Attributes,
		DedupKey:        key,
	}

	if err := c.publisher.PublishEvent(ctx, event); err != nil {
		metrics.PublishFailureInc()
		logger.ErrorCtx(ctx, fmt.Errorf("failed to publish applied event: %w", err),
			logger.TxFields(string(envelope.Source), envelope.TxHash, cls.Action.String(), envelope.Height)...)
	}
}
