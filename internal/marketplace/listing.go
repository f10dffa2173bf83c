package marketplace

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/feral-file/mrkt-indexer/internal/domain"
	"github.com/feral-file/mrkt-indexer/internal/store"
	"github.com/feral-file/mrkt-indexer/internal/store/schema"
)

// liveListing loads the nft and its listing inside a commit.
// A missing nft or listing is a permanent failure of the event.
func liveListing(ctx context.Context, tx store.Store, in Input) (*schema.Nft, *schema.Listing, error) {
	address := domain.NormalizeAddress(in.Event.Get(attrCw721Address))
	tokenID := in.Event.Get(attrTokenID)

	nft, err := tx.GetNft(ctx, address, tokenID)
	if err != nil {
		return nil, nil, err
	}
	if nft == nil {
		return nil, nil, listingNotFound(in)
	}

	listing, err := tx.GetListingByNftID(ctx, nft.ID)
	if err != nil {
		return nil, nil, err
	}
	if listing == nil {
		return nil, nil, listingNotFound(in)
	}

	return nft, listing, nil
}

func listingNotFound(in Input) error {
	return domain.NewPermanentError(domain.ErrListingNotFound, "Not found listing when %s: %s", in.Action, in.TxHash)
}

type activityParams struct {
	nftID    int64
	kind     domain.EventKind
	price    decimal.Decimal
	denom    string
	buyer    string
	seller   string
	metadata []byte
}

func newActivity(in Input, p activityParams) *schema.NftActivity {
	metadata := p.metadata
	if metadata == nil {
		metadata = []byte(`{}`)
	}
	return &schema.NftActivity{
		NftID:         p.nftID,
		EventKind:     p.kind,
		Price:         p.price,
		Denom:         p.denom,
		BuyerAddress:  p.buyer,
		SellerAddress: p.seller,
		Metadata:      datatypes.JSON(metadata),
		TxHash:        in.TxHash,
		Date:          in.Date.UTC(),
	}
}

func newTransaction(in Input, collection, buyer, seller string, volume decimal.Decimal) *schema.Transaction {
	return &schema.Transaction{
		CollectionAddress: collection,
		BuyerAddress:      buyer,
		SellerAddress:     seller,
		Volume:            volume,
		TxHash:            in.TxHash,
		Date:              in.Date.UTC(),
	}
}

// startSale creates a listing and its "list" activity
func (m *machine) startSale(ctx context.Context, in Input) (bool, error) {
	if err := requireAttributes(in, attrCw721Address, attrTokenID, attrInitialPrice, attrSaleType, attrSeller, attrDenom); err != nil {
		return false, err
	}

	address := domain.NormalizeAddress(in.Event.Get(attrCw721Address))
	tokenID := in.Event.Get(attrTokenID)
	seller := in.Event.Get(attrSeller)
	denom := in.Event.Get(attrDenom)

	saleType := domain.SaleType(in.Event.Get(attrSaleType))
	if !domain.IsValidSaleType(saleType) {
		return false, domain.NewPermanentError(domain.ErrInvalidAttribute,
			"invalid %s in %s: %s: %q", attrSaleType, in.Action, in.TxHash, saleType)
	}

	price, err := parseDecimal(in, attrInitialPrice)
	if err != nil {
		return false, err
	}
	minBidIncrement, err := parseOptionalDecimal(in, attrMinBidIncrementPercent)
	if err != nil {
		return false, err
	}

	var startDate, endDate *time.Time
	if saleType == domain.SaleTypeAuction && in.Event.Get(attrDurationType) != "" {
		window, err := m.parseWindow(in, attrDurationType)
		if err != nil {
			return false, err
		}
		startDate, endDate = &window.Start, &window.End
	}

	nft, err := m.materializer.EnsureNft(ctx, address, tokenID)
	if err != nil {
		return false, chainError(err, in)
	}

	listing := &schema.Listing{
		NftID:             nft.ID,
		CollectionAddress: address,
		SellerAddress:     seller,
		Price:             price,
		Denom:             denom,
		SaleType:          saleType,
		StartDate:         startDate,
		EndDate:           endDate,
		TxHash:            in.TxHash,
		CreatedDate:       in.Date.UTC(),
	}
	if minBidIncrement != nil {
		listing.MinBidIncrementPercent = decimal.NewNullDecimal(*minBidIncrement)
	}

	return m.commit(ctx, in, func(tx store.Store) (bool, error) {
		return tx.CreateListingWithActivity(ctx, store.CreateListingInput{
			Listing: listing,
			Activity: newActivity(in, activityParams{
				nftID:  nft.ID,
				kind:   domain.EventKindList,
				price:  price,
				denom:  denom,
				seller: seller,
			}),
		})
	})
}

// editSale updates the price or bid increment of a listing; absent fields stay unchanged
func (m *machine) editSale(ctx context.Context, in Input) (bool, error) {
	if err := requireAttributes(in, attrCw721Address, attrTokenID); err != nil {
		return false, err
	}

	price, err := parseOptionalDecimal(in, attrInitialPrice)
	if err != nil {
		return false, err
	}
	minBidIncrement, err := parseOptionalDecimal(in, attrMinBidIncrementPercent)
	if err != nil {
		return false, err
	}

	return m.commit(ctx, in, func(tx store.Store) (bool, error) {
		_, listing, err := liveListing(ctx, tx, in)
		if err != nil {
			return false, err
		}

		err = tx.UpdateListing(ctx, store.UpdateListingInput{
			ListingID:              listing.ID,
			Price:                  price,
			MinBidIncrementPercent: minBidIncrement,
		})
		return err == nil, err
	})
}

// cancelSale deletes a listing with its biddings and records a "delist" activity
func (m *machine) cancelSale(ctx context.Context, in Input) (bool, error) {
	if err := requireAttributes(in, attrCw721Address, attrTokenID, attrSeller); err != nil {
		return false, err
	}

	return m.commit(ctx, in, func(tx store.Store) (bool, error) {
		nft, listing, err := liveListing(ctx, tx, in)
		if err != nil {
			return false, err
		}

		err = tx.DeleteListingWithActivity(ctx, listing.ID, newActivity(in, activityParams{
			nftID:  nft.ID,
			kind:   domain.EventKindDelist,
			price:  listing.Price,
			denom:  listing.Denom,
			seller: in.Event.Get(attrSeller),
		}))
		return err == nil, err
	})
}

// acceptSale settles an auction: the listing is consumed and a sale is recorded.
// Without a price attribute the listing price is the volume.
func (m *machine) acceptSale(ctx context.Context, in Input) (bool, error) {
	if err := requireAttributes(in, attrCw721Address, attrTokenID, attrBuyer, attrSeller); err != nil {
		return false, err
	}

	price, err := parseOptionalDecimal(in, attrPrice)
	if err != nil {
		return false, err
	}

	return m.settleListing(ctx, in, price, nil)
}

// fixedSell settles a fixed price listing
func (m *machine) fixedSell(ctx context.Context, in Input) (bool, error) {
	if err := requireAttributes(in, attrCw721Address, attrBuyer, attrSeller, attrTokenID, attrPrice); err != nil {
		return false, err
	}

	price, err := parseDecimal(in, attrPrice)
	if err != nil {
		return false, err
	}

	fields := map[string]interface{}{}
	if messages, ok := in.Event.Find(attrMessages); ok {
		fields[attrMessages] = messages
	}
	metadata, err := m.activityMetadata(fields)
	if err != nil {
		return false, err
	}

	return m.settleListing(ctx, in, &price, metadata)
}

func (m *machine) settleListing(ctx context.Context, in Input, price *decimal.Decimal, metadata []byte) (bool, error) {
	address := domain.NormalizeAddress(in.Event.Get(attrCw721Address))
	buyer := in.Event.Get(attrBuyer)
	seller := in.Event.Get(attrSeller)

	return m.commit(ctx, in, func(tx store.Store) (bool, error) {
		nft, listing, err := liveListing(ctx, tx, in)
		if err != nil {
			return false, err
		}

		volume := listing.Price
		if price != nil {
			volume = *price
		}

		err = tx.SettleSale(ctx, store.SettleSaleInput{
			ListingID:   &listing.ID,
			Transaction: newTransaction(in, address, buyer, seller, volume),
			Activity: newActivity(in, activityParams{
				nftID:    nft.ID,
				kind:     domain.EventKindSale,
				price:    volume,
				denom:    listing.Denom,
				buyer:    buyer,
				seller:   seller,
				metadata: metadata,
			}),
		})
		return err == nil, err
	})
}

// bidding records an auction bid against a live listing and its transaction.
// The listing stays live.
func (m *machine) bidding(ctx context.Context, in Input) (bool, error) {
	if err := requireAttributes(in, attrCw721Address, attrBuyer, attrTokenID, attrPrice); err != nil {
		return false, err
	}

	price, err := parseDecimal(in, attrPrice)
	if err != nil {
		return false, err
	}

	address := domain.NormalizeAddress(in.Event.Get(attrCw721Address))
	buyer := in.Event.Get(attrBuyer)

	return m.commit(ctx, in, func(tx store.Store) (bool, error) {
		_, listing, err := liveListing(ctx, tx, in)
		if err != nil {
			return false, err
		}

		err = tx.CreateBiddingWithTransaction(ctx,
			&schema.Bidding{
				ListingID:    listing.ID,
				BuyerAddress: buyer,
				Price:        price,
				TxHash:       in.TxHash,
				CreatedDate:  in.Date.UTC(),
			},
			newTransaction(in, address, buyer, listing.SellerAddress, price))
		return err == nil, err
	})
}

// cancelPropose withdraws the biddings of a buyer from a live listing
func (m *machine) cancelPropose(ctx context.Context, in Input) (bool, error) {
	if err := requireAttributes(in, attrCw721Address, attrTokenID, attrBuyer); err != nil {
		return false, err
	}

	return m.commit(ctx, in, func(tx store.Store) (bool, error) {
		_, listing, err := liveListing(ctx, tx, in)
		if err != nil {
			return false, err
		}

		_, err = tx.DeleteBiddings(ctx, listing.ID, in.Event.Get(attrBuyer))
		return err == nil, err
	})
}
