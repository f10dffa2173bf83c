package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/feral-file/mrkt-indexer/internal/adapter"
	"github.com/feral-file/mrkt-indexer/internal/chain"
	"github.com/feral-file/mrkt-indexer/internal/classifier"
	"github.com/feral-file/mrkt-indexer/internal/decoder"
	"github.com/feral-file/mrkt-indexer/internal/domain"
	"github.com/feral-file/mrkt-indexer/internal/ingest"
	"github.com/feral-file/mrkt-indexer/internal/logger"
	"github.com/feral-file/mrkt-indexer/internal/metrics"
	"github.com/feral-file/mrkt-indexer/internal/store"
	"github.com/feral-file/mrkt-indexer/internal/store/schema"
)

// State is the connection state of the stream driver
type State string

const (
	StateConnecting   State = "connecting"
	StateSubscribed   State = "subscribed"
	StateReceiving    State = "receiving"
	StateError        State = "error"
	StateClosed       State = "closed"
	StateReconnecting State = "reconnecting"
)

var states = []string{
	string(StateConnecting),
	string(StateSubscribed),
	string(StateReceiving),
	string(StateError),
	string(StateClosed),
	string(StateReconnecting),
}

const (
	DEFAULT_RECONNECT_INITIAL = time.Second
	DEFAULT_RECONNECT_MAX     = 30 * time.Second
	DEFAULT_PING_INTERVAL     = 30 * time.Second
	DEFAULT_READ_TIMEOUT      = 90 * time.Second
	WRITE_TIMEOUT             = 10 * time.Second
)

// Config holds the configuration for the stream driver
type Config struct {
	WebSocketURL        string
	MarketplaceContract string
	ReconnectInitial    time.Duration
	ReconnectMax        time.Duration
	PingInterval        time.Duration
	ReadTimeout         time.Duration
}

// Driver subscribes to marketplace transactions over the chain websocket and
// feeds their events to the ingest consumer
//
//go:generate mockgen -source=driver.go -destination=../mocks/stream_driver.go -package=mocks -mock_names=Driver=MockStreamDriver
type Driver interface {
	// Run keeps the subscription alive until ctx is cancelled
	Run(ctx context.Context) error

	// State returns the current connection state
	State() State
}

type subscribeParams struct {
	Query string `json:"query"`
}

type subscribeRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	ID      string          `json:"id"`
	Params  subscribeParams `json:"params"`
}

type driver struct {
	config     Config
	dialer     adapter.WSDialer
	decoder    *decoder.Decoder
	chain      chain.Client
	classifier *classifier.Classifier
	consumer   ingest.Consumer
	store      store.Store
	clock      adapter.Clock

	mu    sync.RWMutex
	state State
}

// New creates a stream driver
func New(
	cfg Config,
	dialer adapter.WSDialer,
	decoder *decoder.Decoder,
	chainClient chain.Client,
	classifier *classifier.Classifier,
	consumer ingest.Consumer,
	st store.Store,
	clock adapter.Clock,
) Driver {
	if cfg.ReconnectInitial <= 0 {
		cfg.ReconnectInitial = DEFAULT_RECONNECT_INITIAL
	}
	if cfg.ReconnectMax <= 0 {
		cfg.ReconnectMax = DEFAULT_RECONNECT_MAX
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DEFAULT_PING_INTERVAL
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DEFAULT_READ_TIMEOUT
	}

	return &driver{
		config:     cfg,
		dialer:     dialer,
		decoder:    decoder,
		chain:      chainClient,
		classifier: classifier,
		consumer:   consumer,
		store:      st,
		clock:      clock,
		state:      StateClosed,
	}
}

// Query returns the subscription query for transactions of a marketplace contract
func Query(marketplaceContract string) string {
	return fmt.Sprintf("tm.event = 'Tx' AND wasm._contract_address='%s'", marketplaceContract)
}

// State returns the current connection state
func (d *driver) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

func (d *driver) setState(state State) {
	d.mu.Lock()
	d.state = state
	d.mu.Unlock()
	metrics.StreamStateSet(string(state), states)
}

// Run keeps the subscription alive until ctx is cancelled.
// Every dropped session is followed by a reconnect after an exponential backoff
// that is reset once a session delivered messages.
func (d *driver) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.config.ReconnectInitial
	bo.MaxInterval = d.config.ReconnectMax
	bo.MaxElapsedTime = 0
	bo.Reset()

	for {
		d.setState(StateConnecting)
		received, err := d.session(ctx)
		if ctx.Err() != nil {
			d.setState(StateClosed)
			logger.InfoCtx(ctx, "Stream driver stopped")
			return nil
		}

		if received {
			bo.Reset()
		}

		wait := bo.NextBackOff()
		d.setState(StateReconnecting)
		metrics.StreamReconnectInc()
		logger.WarnCtx(ctx, "Stream session ended, reconnecting",
			zap.Error(err),
			zap.Duration("backoff", wait))

		select {
		case <-ctx.Done():
			d.setState(StateClosed)
			logger.InfoCtx(ctx, "Stream driver stopped")
			return nil
		case <-d.clock.After(wait):
		}
	}
}

// session runs one websocket connection until it fails or ctx is cancelled.
// It reports whether any message was received.
func (d *driver) session(ctx context.Context) (bool, error) {
	conn, err := d.dialer.Dial(ctx, d.config.WebSocketURL)
	if err != nil {
		d.setState(StateError)
		return false, err
	}
	defer func() {
		_ = conn.Close()
	}()

	// Unblock the pending read on cancellation
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	if err := d.subscribe(conn); err != nil {
		d.setState(StateError)
		return false, err
	}
	d.setState(StateSubscribed)
	logger.InfoCtx(ctx, "Subscribed to marketplace transactions",
		zap.String("url", d.config.WebSocketURL),
		zap.String("contract", d.config.MarketplaceContract))

	if err := conn.SetReadDeadline(d.clock.Now().Add(d.config.ReadTimeout)); err != nil {
		d.setState(StateError)
		return false, fmt.Errorf("failed to set read deadline: %w", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(d.clock.Now().Add(d.config.ReadTimeout))
	})
	go d.ping(ctx, conn, done)

	received := false
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return received, nil
			}
			d.setState(StateError)
			return received, fmt.Errorf("failed to read stream message: %w", err)
		}

		if !received {
			received = true
			d.setState(StateReceiving)
		}
		metrics.StreamMessageInc()

		txs, err := d.decoder.ParseStreamMessage(data)
		if err != nil {
			if errors.Is(err, domain.ErrSubscriptionFailed) {
				d.setState(StateError)
				return received, err
			}
			logger.WarnCtx(ctx, "Skipped undecodable stream message", zap.Error(err))
			continue
		}

		for _, tx := range txs {
			d.handleTx(ctx, tx)
		}
	}
}

func (d *driver) subscribe(conn adapter.WSConn) error {
	req := subscribeRequest{
		JSONRPC: "2.0",
		Method:  "subscribe",
		ID:      uuid.New().String(),
		Params: subscribeParams{
			Query: Query(d.config.MarketplaceContract),
		},
	}
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("failed to send subscribe request: %w", err)
	}
	return nil
}

func (d *driver) ping(ctx context.Context, conn adapter.WSConn, done <-chan struct{}) {
	ticker := time.NewTicker(d.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			deadline := d.clock.Now().Add(WRITE_TIMEOUT)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				logger.WarnCtx(ctx, "Failed to ping stream", zap.Error(err))
				return
			}
		}
	}
}

// handleTx records the transaction trace row and submits its marketplace events.
// Stream events carry no block time, so the receive time is used as their date.
func (d *driver) handleTx(ctx context.Context, tx domain.TxEvents) {
	date := d.clock.Now().UTC()

	if tx.Incomplete {
		events, err := d.resolveEvents(ctx, tx)
		if err != nil {
			// The scanner applies the transaction once its height is scanned
			logger.WarnCtx(ctx, "Failed to resolve flattened transaction, leaving it to the scanner",
				zap.String("tx_hash", tx.TxHash),
				zap.Uint64("height", tx.Height),
				zap.Error(err))
			tx.Events = nil
		} else {
			tx.Events = events
		}
	}

	var classified []classifier.Classification
	for _, ev := range tx.Events {
		if cls, ok := d.classifier.Marketplace(ev); ok {
			classified = append(classified, cls)
		}
	}

	block := &schema.Block{
		Height: tx.Height,
		TxHash: tx.TxHash,
		Sender: tx.Sender,
		Date:   date,
	}
	if len(classified) > 0 {
		block.Action = classified[0].Action.String()
	}
	if err := d.store.CreateBlock(ctx, block); err != nil {
		metrics.LedgerWriteFailureInc("blocks")
		logger.ErrorCtx(ctx, fmt.Errorf("failed to record block: %w", err),
			zap.String("tx_hash", tx.TxHash),
			zap.Uint64("height", tx.Height))
	}

	for _, cls := range classified {
		// Transient failures are dropped here; the scanner reconciles them
		d.consumer.Submit(ctx, ingest.Envelope{
			Source:         domain.SourceStream,
			Height:         tx.Height,
			TxHash:         tx.TxHash,
			Date:           date,
			Classification: cls,
		})
	}
}

// resolveEvents reads the events of a transaction from tx_search when the flattened
// message could not be split into events
func (d *driver) resolveEvents(ctx context.Context, tx domain.TxEvents) ([]domain.ContractEvent, error) {
	if tx.Height == 0 {
		return nil, fmt.Errorf("flattened transaction %s has no height", tx.TxHash)
	}

	txs, err := d.chain.SearchTxs(ctx, tx.Height)
	if err != nil {
		return nil, err
	}
	for _, found := range txs {
		if strings.EqualFold(found.Hash, tx.TxHash) {
			return found.Events, nil
		}
	}
	return nil, fmt.Errorf("transaction %s not found at height %d", tx.TxHash, tx.Height)
}
