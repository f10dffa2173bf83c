package domain

import "time"

// Attribute is one decoded key/value pair of a contract event
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ContractEvent is a wasm event with UTF-8 decoded attributes
type ContractEvent struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

// Find returns the value of the first attribute with the given key
func (e ContractEvent) Find(key string) (string, bool) {
	for _, attr := range e.Attributes {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

// Get returns the value of the first attribute with the given key, or "" when absent
func (e ContractEvent) Get(key string) string {
	value, _ := e.Find(key)
	return value
}

// ContractAddress returns the emitting contract address
func (e ContractEvent) ContractAddress() string {
	return e.Get(AttributeContractAddress)
}

// Action returns the `action` attribute
func (e ContractEvent) Action() (Action, bool) {
	value, ok := e.Find(AttributeAction)
	if !ok {
		return "", false
	}
	return Action(value), true
}

// Missing returns the first key that is absent or empty in the event
func (e ContractEvent) Missing(keys ...string) (string, bool) {
	for _, key := range keys {
		if value, ok := e.Find(key); !ok || value == "" {
			return key, true
		}
	}
	return "", false
}

const (
	// EventTypeWasm is the event type emitted by CosmWasm contracts
	EventTypeWasm = "wasm"

	AttributeAction          = "action"
	AttributeContractAddress = "_contract_address"
)

// AppliedEvent is the notification published after an event changed marketplace state
type AppliedEvent struct {
	Source          Source      `json:"source"`
	Kind            ActionKind  `json:"kind"`
	Action          Action      `json:"action"`
	TxHash          string      `json:"tx_hash"`
	Height          uint64      `json:"height"`
	Date            time.Time   `json:"date"`
	ContractAddress string      `json:"contract_address"`
	Attributes      []Attribute `json:"attributes"`
	// DedupKey identifies the logical event across both ingestion paths
	DedupKey string `json:"dedup_key"`
}
