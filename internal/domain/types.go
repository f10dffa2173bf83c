package domain

import (
	"strings"
	"time"
)

// Source identifies the ingestion path an event came through
type Source string

const (
	SourceStream  Source = "stream"
	SourceScanner Source = "scanner"
	SourceManual  Source = "manual"
)

// SaleType is the listing kind
type SaleType string

const (
	SaleTypeFixed   SaleType = "fixed"
	SaleTypeAuction SaleType = "auction"
)

// IsValidSaleType checks if a sale type is one the marketplace contract emits
func IsValidSaleType(saleType SaleType) bool {
	return saleType == SaleTypeFixed || saleType == SaleTypeAuction
}

// EventKind is the kind of an NFT activity row
type EventKind string

const (
	EventKindList        EventKind = "list"
	EventKindDelist      EventKind = "delist"
	EventKindSale        EventKind = "sale"
	EventKindMakeOffer   EventKind = "make_offer"
	EventKindCancelOffer EventKind = "cancel_offer"
)

// OfferStatus is the lifecycle status of a collection offer
type OfferStatus string

const (
	OfferStatusPending OfferStatus = "pending"
	OfferStatusDone    OfferStatus = "done"
)

// TimeWindow is the start/end payload carried by `duration` and `duration_type` attributes
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// TxEvents groups the decoded wasm events of one transaction
type TxEvents struct {
	TxHash string
	Height uint64
	Sender string
	Events []ContractEvent
	// Incomplete is set when attributes could not be assigned to their events,
	// so Events must not be applied as they are
	Incomplete bool
}

// NormalizeAddress trims whitespace from a bech32 address.
// Bech32 addresses are case-insensitive but canonically lowercase.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// NormalizeAddresses normalizes a list of addresses
func NormalizeAddresses(addresses []string) []string {
	normalized := make([]string, 0, len(addresses))
	for _, address := range addresses {
		normalized = append(normalized, NormalizeAddress(address))
	}
	return normalized
}
