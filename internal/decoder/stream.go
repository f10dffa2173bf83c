package decoder

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/feral-file/mrkt-indexer/internal/domain"
)

const (
	eventKeyTxHash   = "tx.hash"
	eventKeyTxHeight = "tx.height"
	eventKeySender   = "message.sender"
	eventKeyAction   = domain.EventTypeWasm + "." + domain.AttributeAction
)

// StreamMessage is a JSON-RPC message received on a CometBFT websocket subscription
type StreamMessage struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      string        `json:"id"`
	Result  *StreamResult `json:"result"`
	Error   *RPCError     `json:"error"`
}

// RPCError is a JSON-RPC error object
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s %s", e.Code, e.Message, e.Data)
}

// StreamResult carries the flattened event map and the nested tx result
type StreamResult struct {
	Query  string              `json:"query"`
	Data   *StreamData         `json:"data"`
	Events map[string][]string `json:"events"`
}

// StreamData is the typed payload of a subscription event
type StreamData struct {
	Type  string `json:"type"`
	Value struct {
		TxResult *StreamTxResult `json:"TxResult"`
	} `json:"value"`
}

// StreamTxResult is the nested transaction result
type StreamTxResult struct {
	Height string `json:"height"`
	Result struct {
		Events []RawEvent `json:"events"`
	} `json:"result"`
}

// ParseStreamMessage decodes a websocket message into the wasm events of its transaction.
// Subscription acknowledgements carry an empty result and yield no transactions.
func (d *Decoder) ParseStreamMessage(data []byte) ([]domain.TxEvents, error) {
	var msg StreamMessage
	if err := d.json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stream message: %w", err)
	}
	if msg.Error != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSubscriptionFailed, msg.Error.Error())
	}
	if msg.Result == nil || (msg.Result.Data == nil && len(msg.Result.Events) == 0) {
		return nil, nil
	}

	tx := domain.TxEvents{
		TxHash: firstValue(msg.Result.Events, eventKeyTxHash),
		Sender: firstValue(msg.Result.Events, eventKeySender),
	}
	if height := firstValue(msg.Result.Events, eventKeyTxHeight); height != "" {
		h, err := strconv.ParseUint(height, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse tx height %q: %w", height, err)
		}
		tx.Height = h
	}

	// The nested shape keeps attribute grouping intact and wins when present
	if msg.Result.Data != nil && msg.Result.Data.Value.TxResult != nil {
		txResult := msg.Result.Data.Value.TxResult
		if tx.Height == 0 && txResult.Height != "" {
			h, err := strconv.ParseUint(txResult.Height, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse tx result height %q: %w", txResult.Height, err)
			}
			tx.Height = h
		}

		events, err := d.WasmEvents(txResult.Result.Events, EncodingAuto)
		if err != nil {
			return nil, err
		}
		tx.Events = events
	} else {
		var complete bool
		tx.Events, complete = FlattenedWasmEvents(msg.Result.Events)
		tx.Incomplete = !complete
	}

	if tx.TxHash == "" {
		return nil, fmt.Errorf("stream message without %s", eventKeyTxHash)
	}

	return []domain.TxEvents{tx}, nil
}

// FlattenedWasmEvents rebuilds one wasm event per `wasm.action` entry of a flattened event map.
// A key listed once per action is split by index. With a single action every value of every key
// belongs to it. With several actions, a key listed any other number of times cannot be assigned
// to its event; such keys are left out and complete is false.
func FlattenedWasmEvents(events map[string][]string) (result []domain.ContractEvent, complete bool) {
	actions := events[eventKeyAction]
	if len(actions) == 0 {
		return nil, true
	}

	prefix := domain.EventTypeWasm + "."
	keys := make([]string, 0, len(events))
	for key := range events {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	complete = true
	result = make([]domain.ContractEvent, len(actions))
	for i := range result {
		result[i].Type = domain.EventTypeWasm
	}

	for _, key := range keys {
		values := events[key]
		attrKey := strings.TrimPrefix(key, prefix)
		switch {
		case len(actions) == 1:
			for _, value := range values {
				result[0].Attributes = append(result[0].Attributes, domain.Attribute{Key: attrKey, Value: value})
			}
		case len(values) == len(actions):
			for i, value := range values {
				result[i].Attributes = append(result[i].Attributes, domain.Attribute{Key: attrKey, Value: value})
			}
		case len(values) > 0:
			complete = false
		}
	}

	return result, complete
}

func firstValue(events map[string][]string, key string) string {
	if values := events[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}
