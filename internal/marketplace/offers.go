package marketplace

import (
	"context"

	"github.com/feral-file/mrkt-indexer/internal/domain"
	"github.com/feral-file/mrkt-indexer/internal/store"
	"github.com/feral-file/mrkt-indexer/internal/store/schema"
)

// acceptOffer fills the best standing offer on an nft.
// Any live listing of the nft is consumed without a delist activity.
func (m *machine) acceptOffer(ctx context.Context, in Input) (bool, error) {
	if err := requireAttributes(in, attrCw721Address, attrTokenID, attrBuyer, attrSeller, attrPrice); err != nil {
		return false, err
	}

	price, err := parseDecimal(in, attrPrice)
	if err != nil {
		return false, err
	}

	address := domain.NormalizeAddress(in.Event.Get(attrCw721Address))
	buyer := in.Event.Get(attrBuyer)
	seller := in.Event.Get(attrSeller)

	nft, err := m.materializer.EnsureNft(ctx, address, in.Event.Get(attrTokenID))
	if err != nil {
		return false, chainError(err, in)
	}

	return m.commit(ctx, in, func(tx store.Store) (bool, error) {
		nftOffer, err := tx.FindHighestNftOffer(ctx, nft.ID, seller)
		if err != nil {
			return false, err
		}
		collectionOffer, err := tx.FindHighestCollectionOffer(ctx, address, seller)
		if err != nil {
			return false, err
		}

		offer, ok := ResolveOffer(NftOffer(nftOffer), CollectionOffer(collectionOffer))
		if !ok {
			return false, domain.NewPermanentError(domain.ErrOfferNotFound,
				"Not found collection_offer or nft_offer when handle accept_offer: %s", in.TxHash)
		}

		settle := store.SettleSaleInput{
			Transaction: newTransaction(in, address, buyer, seller, price),
			Activity: newActivity(in, activityParams{
				nftID:  nft.ID,
				kind:   domain.EventKindSale,
				price:  price,
				denom:  offer.denomOrDefault(),
				buyer:  buyer,
				seller: seller,
			}),
		}

		switch offer.Kind {
		case OfferKindNft:
			settle.NftOfferID = &offer.ID
		case OfferKindCollection:
			settle.CollectionOfferID = &offer.ID
		}

		listing, err := tx.GetListingByNftID(ctx, nft.ID)
		if err != nil {
			return false, err
		}
		if listing != nil {
			settle.ListingID = &listing.ID
		}

		err = tx.SettleSale(ctx, settle)
		return err == nil, err
	})
}

// makeOffer creates a single nft offer with its "make_offer" activity when the event
// names a token, and a collection offer otherwise
func (m *machine) makeOffer(ctx context.Context, in Input) (bool, error) {
	if err := requireAttributes(in, attrCw721Address, attrBuyer, attrQuantity, attrDuration, attrPrice, attrDenom); err != nil {
		return false, err
	}

	price, err := parseDecimal(in, attrPrice)
	if err != nil {
		return false, err
	}
	window, err := m.parseWindow(in, attrDuration)
	if err != nil {
		return false, err
	}

	address := domain.NormalizeAddress(in.Event.Get(attrCw721Address))
	buyer := in.Event.Get(attrBuyer)
	denom := in.Event.Get(attrDenom)
	tokenID := in.Event.Get(attrTokenID)

	if _, err := m.materializer.EnsureCollection(ctx, address); err != nil {
		return false, chainError(err, in)
	}

	if tokenID != "" {
		nft, err := m.materializer.EnsureNft(ctx, address, tokenID)
		if err != nil {
			return false, chainError(err, in)
		}

		return m.commit(ctx, in, func(tx store.Store) (bool, error) {
			return tx.CreateNftOfferWithActivity(ctx,
				&schema.NftOffer{
					NftID:        nft.ID,
					BuyerAddress: buyer,
					Price:        price,
					Denom:        denom,
					StartDate:    window.Start,
					EndDate:      window.End,
					TxHash:       in.TxHash,
					CreatedDate:  in.Date.UTC(),
				},
				newActivity(in, activityParams{
					nftID: nft.ID,
					kind:  domain.EventKindMakeOffer,
					price: price,
					denom: denom,
					buyer: buyer,
				}))
		})
	}

	quantity, err := parseQuantity(in)
	if err != nil {
		return false, err
	}

	return m.commit(ctx, in, func(tx store.Store) (bool, error) {
		return tx.CreateCollectionOffer(ctx, &schema.CollectionOffer{
			CollectionAddress: address,
			BuyerAddress:      buyer,
			Price:             price,
			Denom:             denom,
			Quantity:          quantity,
			Status:            domain.OfferStatusPending,
			StartDate:         window.Start,
			EndDate:           window.End,
			TxHash:            in.TxHash,
			CreatedDate:       in.Date.UTC(),
		})
	})
}

// cancelOffer withdraws a buyer's offer at the given price.
// A single nft offer must exist; a missing collection offer is not an error.
func (m *machine) cancelOffer(ctx context.Context, in Input) (bool, error) {
	if err := requireAttributes(in, attrCw721Address, attrBuyer, attrPrice); err != nil {
		return false, err
	}

	price, err := parseDecimal(in, attrPrice)
	if err != nil {
		return false, err
	}

	address := domain.NormalizeAddress(in.Event.Get(attrCw721Address))
	buyer := in.Event.Get(attrBuyer)
	tokenID := in.Event.Get(attrTokenID)

	if tokenID != "" {
		return m.commit(ctx, in, func(tx store.Store) (bool, error) {
			notFound := domain.NewPermanentError(domain.ErrOfferNotFound,
				"Not found nft_offer when cancel_nft_offer: %s", in.TxHash)

			nft, err := tx.GetNft(ctx, address, tokenID)
			if err != nil {
				return false, err
			}
			if nft == nil {
				return false, notFound
			}

			offer, err := tx.GetNftOfferByBuyer(ctx, nft.ID, buyer)
			if err != nil {
				return false, err
			}
			if offer == nil || !offer.Price.Equal(price) {
				return false, notFound
			}

			err = tx.DeleteNftOfferWithActivity(ctx, offer.ID, newActivity(in, activityParams{
				nftID: nft.ID,
				kind:  domain.EventKindCancelOffer,
				price: offer.Price,
				denom: offer.Denom,
				buyer: buyer,
			}))
			return err == nil, err
		})
	}

	return m.commit(ctx, in, func(tx store.Store) (bool, error) {
		offer, err := tx.GetCollectionOfferByBuyer(ctx, address, buyer)
		if err != nil {
			return false, err
		}
		if offer == nil || !offer.Price.Equal(price) {
			return true, nil
		}

		err = tx.DeleteCollectionOffer(ctx, offer.ID)
		return err == nil, err
	})
}
