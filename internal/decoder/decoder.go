package decoder

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/feral-file/mrkt-indexer/internal/adapter"
	"github.com/feral-file/mrkt-indexer/internal/domain"
)

// Encoding describes how raw attribute keys and values are encoded on the wire
type Encoding string

const (
	// EncodingPlain attributes are UTF-8 strings (CometBFT >= 0.37)
	EncodingPlain Encoding = "plain"
	// EncodingBase64 attributes are base64-encoded (Tendermint <= 0.34)
	EncodingBase64 Encoding = "base64"
	// EncodingAuto decodes an attribute only when it is unambiguously base64
	EncodingAuto Encoding = "auto"
)

// RawAttribute is an attribute as returned by the chain RPC
type RawAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Index bool   `json:"index,omitempty"`
}

// RawEvent is an ABCI event as returned by the chain RPC
type RawEvent struct {
	Type       string         `json:"type"`
	Attributes []RawAttribute `json:"attributes"`
}

// Decoder normalizes raw ABCI events into domain contract events
type Decoder struct {
	base64 adapter.Base64
	json   adapter.JSON
}

// New creates a decoder
func New(base64 adapter.Base64, json adapter.JSON) *Decoder {
	return &Decoder{base64: base64, json: json}
}

// DecodeEvent decodes the attributes of a raw event
func (d *Decoder) DecodeEvent(raw RawEvent, enc Encoding) (domain.ContractEvent, error) {
	event := domain.ContractEvent{
		Type:       raw.Type,
		Attributes: make([]domain.Attribute, 0, len(raw.Attributes)),
	}

	for _, attr := range raw.Attributes {
		key, value, err := d.decodeAttribute(attr, enc)
		if err != nil {
			return domain.ContractEvent{}, fmt.Errorf("failed to decode attribute %q of %s event: %w", attr.Key, raw.Type, err)
		}
		event.Attributes = append(event.Attributes, domain.Attribute{Key: key, Value: value})
	}

	return event, nil
}

// WasmEvents keeps the wasm events of a transaction and decodes them.
// Events that fail to decode are returned as an error; the caller decides whether to skip the transaction.
func (d *Decoder) WasmEvents(events []RawEvent, enc Encoding) ([]domain.ContractEvent, error) {
	var decoded []domain.ContractEvent
	for _, raw := range events {
		if raw.Type != domain.EventTypeWasm {
			continue
		}
		event, err := d.DecodeEvent(raw, enc)
		if err != nil {
			return nil, err
		}
		decoded = append(decoded, event)
	}
	return decoded, nil
}

func (d *Decoder) decodeAttribute(attr RawAttribute, enc Encoding) (string, string, error) {
	switch enc {
	case EncodingPlain:
		return attr.Key, attr.Value, nil
	case EncodingBase64:
		key, err := d.decodeString(attr.Key)
		if err != nil {
			return "", "", err
		}
		value, err := d.decodeString(attr.Value)
		if err != nil {
			return "", "", err
		}
		return key, value, nil
	case EncodingAuto, "":
		key, keyErr := d.decodeString(attr.Key)
		value, valueErr := d.decodeString(attr.Value)
		if keyErr != nil || valueErr != nil || !isPrintable(key) {
			return attr.Key, attr.Value, nil
		}
		return key, value, nil
	default:
		return "", "", fmt.Errorf("unknown encoding: %s", enc)
	}
}

func (d *Decoder) decodeString(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	data, err := d.base64.Decode(s)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("decoded value is not valid UTF-8")
	}
	return string(data), nil
}

// isPrintable reports whether a decoded key looks like an attribute name
func isPrintable(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
