package marketplace

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/feral-file/mrkt-indexer/internal/adapter"
	"github.com/feral-file/mrkt-indexer/internal/domain"
	"github.com/feral-file/mrkt-indexer/internal/logger"
	"github.com/feral-file/mrkt-indexer/internal/materializer"
	"github.com/feral-file/mrkt-indexer/internal/store"
)

// ClaimFunc marks an event as applied inside the commit of its effects.
// It returns false when another writer already claimed the event.
type ClaimFunc func(ctx context.Context, tx store.Store) (bool, error)

// Input is one classified event to apply
type Input struct {
	Action domain.Action
	Event  domain.ContractEvent
	TxHash string
	// Date is the block time of the transaction
	Date time.Time
	// Claim is optional
	Claim ClaimFunc
}

// Machine applies marketplace and token lifecycle events to the store
//
//go:generate mockgen -source=machine.go -destination=../mocks/marketplace.go -package=mocks -mock_names=Machine=MockMachine
type Machine interface {
	// Apply runs the handler of the event's action and reports the outcome
	Apply(ctx context.Context, in Input) domain.Result
}

// handler returns false when the event turned out to be already applied
type handler func(ctx context.Context, in Input) (bool, error)

type machine struct {
	store        store.Store
	materializer materializer.Materializer
	json         adapter.JSON
	handlers     map[domain.Action]handler
}

// New creates a state machine over the given store
func New(store store.Store, materializer materializer.Materializer, json adapter.JSON) Machine {
	m := &machine{
		store:        store,
		materializer: materializer,
		json:         json,
	}

	m.handlers = map[domain.Action]handler{
		domain.ActionStartSale:             m.startSale,
		domain.ActionAcceptOffer:           m.acceptOffer,
		domain.ActionAcceptSale:            m.acceptSale,
		domain.ActionCancelSale:            m.cancelSale,
		domain.ActionMakeCollectionOffer:   m.makeOffer,
		domain.ActionCancelCollectionOffer: m.cancelOffer,
		domain.ActionFixedSell:             m.fixedSell,
		domain.ActionBidding:               m.bidding,
		domain.ActionEditSale:              m.editSale,
		domain.ActionCancelPropose:         m.cancelPropose,
		domain.ActionMint:                  m.mint,
		domain.ActionTransferNft:           m.transferNft,
		domain.ActionSendNft:               m.sendNft,
	}

	return m
}

// Apply runs the handler of the event's action and reports the outcome
func (m *machine) Apply(ctx context.Context, in Input) domain.Result {
	h, ok := m.handlers[in.Action]
	if !ok {
		return domain.Permanent(domain.NewPermanentError(nil, "unsupported action %s: %s", in.Action, in.TxHash))
	}

	applied, err := h(ctx, in)
	if err != nil {
		if errors.Is(err, store.ErrOfferExhausted) {
			// another writer filled the offer after it was resolved; a retry resolves again
			return domain.Transient(fmt.Errorf("%w: %w", domain.ErrTransient, err))
		}
		return domain.ResultFromError(err)
	}

	if !applied {
		logger.DebugCtx(ctx, "Event already applied",
			zap.String("action", in.Action.String()),
			zap.String("tx_hash", in.TxHash))
		return domain.DuplicateResult()
	}

	logger.DebugCtx(ctx, "Done handle event",
		zap.String("action", in.Action.String()),
		zap.String("tx_hash", in.TxHash))
	return domain.Success()
}

// errClaimed rolls back a commit whose event was claimed by another writer
var errClaimed = errors.New("event already claimed")

// commit claims the event and runs fn in one database transaction
func (m *machine) commit(ctx context.Context, in Input, fn func(tx store.Store) (bool, error)) (bool, error) {
	applied := false
	err := m.store.Transaction(ctx, func(tx store.Store) error {
		if in.Claim != nil {
			claimed, err := in.Claim(ctx, tx)
			if err != nil {
				return err
			}
			if !claimed {
				return errClaimed
			}
		}

		var err error
		applied, err = fn(tx)
		return err
	})
	if errors.Is(err, errClaimed) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return applied, nil
}

// chainError marks client errors from the chain endpoints as permanent.
// A 4xx answer to a smart query means the contract or token cannot serve it,
// unless it reports a rate limit or a timeout.
func chainError(err error, in Input) error {
	var statusErr *adapter.StatusError
	if errors.As(err, &statusErr) &&
		statusErr.StatusCode >= http.StatusBadRequest &&
		statusErr.StatusCode < http.StatusInternalServerError &&
		!domain.IsRetryable(err) {
		return domain.NewPermanentError(err, "failed to materialize %s: %s: %s", in.Action, in.TxHash, err.Error())
	}
	return err
}
