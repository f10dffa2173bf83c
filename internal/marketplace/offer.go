package marketplace

import (
	"github.com/shopspring/decimal"

	"github.com/feral-file/mrkt-indexer/internal/domain"
	"github.com/feral-file/mrkt-indexer/internal/store/schema"
)

// OfferKind tags the variant of an Offer
type OfferKind string

const (
	OfferKindNft        OfferKind = "nft"
	OfferKindCollection OfferKind = "collection"
)

// Offer is either a single nft offer or a collection offer competing for one accept_offer
type Offer struct {
	Kind  OfferKind
	ID    int64
	Buyer string
	Price decimal.Decimal
	Denom string
}

// NftOffer wraps an nft offer row, returning nil for nil
func NftOffer(o *schema.NftOffer) *Offer {
	if o == nil {
		return nil
	}
	return &Offer{
		Kind:  OfferKindNft,
		ID:    o.ID,
		Buyer: o.BuyerAddress,
		Price: o.Price,
		Denom: o.Denom,
	}
}

// CollectionOffer wraps a collection offer row.
// Offers that can no longer be filled are not candidates and yield nil.
func CollectionOffer(o *schema.CollectionOffer) *Offer {
	if o == nil || !o.Fillable() {
		return nil
	}
	return &Offer{
		Kind:  OfferKindCollection,
		ID:    o.ID,
		Buyer: o.BuyerAddress,
		Price: o.Price,
		Denom: o.Denom,
	}
}

// ResolveOffer picks the offer an accept_offer fills.
// The collection offer wins only when strictly higher; ties go to the nft offer.
func ResolveOffer(nft, collection *Offer) (Offer, bool) {
	switch {
	case nft != nil && collection != nil:
		if collection.Price.GreaterThan(nft.Price) {
			return *collection, true
		}
		return *nft, true
	case nft != nil:
		return *nft, true
	case collection != nil:
		return *collection, true
	default:
		return Offer{}, false
	}
}

// denomOrDefault returns the offer denom, falling back to usei
func (o Offer) denomOrDefault() string {
	if o.Denom == "" {
		return domain.DEFAULT_DENOM
	}
	return o.Denom
}
