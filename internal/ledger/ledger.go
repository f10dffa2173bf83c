package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/feral-file/mrkt-indexer/internal/adapter"
	"github.com/feral-file/mrkt-indexer/internal/domain"
	"github.com/feral-file/mrkt-indexer/internal/logger"
	"github.com/feral-file/mrkt-indexer/internal/metrics"
	"github.com/feral-file/mrkt-indexer/internal/store"
	"github.com/feral-file/mrkt-indexer/internal/store/schema"
)

// Entry is one ledger row to write
type Entry struct {
	TxHash   string
	Action   domain.Action
	DedupKey string
	Source   domain.Source
	Height   uint64
	// Failure rows carry the error message
	Failure bool
	Message string
}

// Ledger records every processed or failed event and gates replays.
// Writes through Record are best-effort; Seen and Claim are authoritative.
//
//go:generate mockgen -source=ledger.go -destination=../mocks/ledger.go -package=mocks -mock_names=Ledger=MockLedger
type Ledger interface {
	// DedupKey identifies one logical event: txHash|action|hex(sha256(jcs(attributes by key)))
	DedupKey(txHash string, action domain.Action, attributes []domain.Attribute) (string, error)

	// Claim writes the success row of an event on tx, returning false when the key was already claimed
	Claim(ctx context.Context, tx store.Store, entry Entry) (bool, error)

	// Record writes a stream tx row. Errors are logged and swallowed.
	Record(ctx context.Context, entry Entry)

	// RecordCw721Failure writes a failed token lifecycle event. Errors are logged and swallowed.
	RecordCw721Failure(ctx context.Context, entry Entry)

	// Seen reports whether an event with the dedup key was already applied
	Seen(ctx context.Context, dedupKey string) (bool, error)

	// FindByTxHash returns the latest row of a transaction, optionally filtered by failure flag
	FindByTxHash(ctx context.Context, txHash string, isFailure *bool) (*schema.StreamTx, error)
}

type ledger struct {
	store store.Store
	jcs   adapter.JCS
	clock adapter.Clock
}

// New creates a ledger on the store
func New(store store.Store, jcs adapter.JCS, clock adapter.Clock) Ledger {
	return &ledger{
		store: store,
		jcs:   jcs,
		clock: clock,
	}
}

// DedupKey identifies one logical event: txHash|action|hex(sha256(jcs(attributes by key))).
// Attributes are grouped into a key to values object, so the hash does not depend on the order
// the node reported them in. Repeated keys keep their values in event order.
func (l *ledger) DedupKey(txHash string, action domain.Action, attributes []domain.Attribute) (string, error) {
	byKey := make(map[string][]string, len(attributes))
	for _, attr := range attributes {
		byKey[attr.Key] = append(byKey[attr.Key], attr.Value)
	}

	canonical, err := l.jcs.Canonicalize(byKey)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize attributes: %w", err)
	}

	hash := sha256.Sum256(canonical)
	return fmt.Sprintf("%s|%s|%s", txHash, action, hex.EncodeToString(hash[:])), nil
}

func (l *ledger) newID() string {
	return ulid.MustNewDefault(l.clock.Now()).String()
}

func (l *ledger) streamTx(entry Entry) *schema.StreamTx {
	return &schema.StreamTx{
		ID:        l.newID(),
		TxHash:    entry.TxHash,
		Action:    entry.Action.String(),
		DedupKey:  entry.DedupKey,
		Source:    entry.Source,
		Height:    entry.Height,
		IsFailure: entry.Failure,
		Message:   entry.Message,
	}
}

// Claim writes the success row of an event on tx, returning false when the key was already claimed
func (l *ledger) Claim(ctx context.Context, tx store.Store, entry Entry) (bool, error) {
	entry.Failure = false
	return tx.ClaimStreamTx(ctx, l.streamTx(entry))
}

// Record writes a stream tx row. Errors are logged and swallowed.
func (l *ledger) Record(ctx context.Context, entry Entry) {
	if err := l.store.CreateStreamTx(ctx, l.streamTx(entry)); err != nil {
		metrics.LedgerWriteFailureInc("stream_txs")
		logger.ErrorCtx(ctx, fmt.Errorf("failed to record stream tx: %w", err),
			logger.TxFields(string(entry.Source), entry.TxHash, entry.Action.String(), entry.Height)...)
	}
}

// RecordCw721Failure writes a failed token lifecycle event. Errors are logged and swallowed.
func (l *ledger) RecordCw721Failure(ctx context.Context, entry Entry) {
	row := &schema.Cwr721FailureTx{
		ID:      l.newID(),
		TxHash:  entry.TxHash,
		Action:  entry.Action.String(),
		Height:  entry.Height,
		Message: entry.Message,
	}
	if err := l.store.CreateCwr721FailureTx(ctx, row); err != nil {
		metrics.LedgerWriteFailureInc("cwr721_failure_txs")
		logger.ErrorCtx(ctx, fmt.Errorf("failed to record cw721 failure: %w", err),
			append(logger.TxFields(string(entry.Source), entry.TxHash, entry.Action.String(), entry.Height),
				zap.String("message", entry.Message))...)
	}
}

// Seen reports whether an event with the dedup key was already applied
func (l *ledger) Seen(ctx context.Context, dedupKey string) (bool, error) {
	return l.store.HasSuccessfulStreamTx(ctx, dedupKey)
}

// FindByTxHash returns the latest row of a transaction, optionally filtered by failure flag
func (l *ledger) FindByTxHash(ctx context.Context, txHash string, isFailure *bool) (*schema.StreamTx, error) {
	return l.store.FindStreamTxByTxHash(ctx, txHash, isFailure)
}
