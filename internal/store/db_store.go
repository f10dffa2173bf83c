package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/mrkt-indexer/internal/domain"
	"github.com/feral-file/mrkt-indexer/internal/store/schema"
)

type dbStore struct {
	*cursorStore
	db *gorm.DB
}

// NewStore creates a new store on a postgres or sqlite connection
func NewStore(db *gorm.DB) Store {
	return &dbStore{cursorStore: &cursorStore{db: db}, db: db}
}

// Transaction runs fn against a store bound to a single database transaction
func (s *dbStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Ping checks the database connection
func (s *dbStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// first loads a single row into dest, returning false when nothing matches
func first(query *gorm.DB, dest interface{}) (bool, error) {
	err := query.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetCollectionByAddress retrieves a collection by its contract address
func (s *dbStore) GetCollectionByAddress(ctx context.Context, address string) (*schema.Collection, error) {
	var collection schema.Collection
	found, err := first(s.db.WithContext(ctx).Where("address = ?", address), &collection)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &collection, nil
}

// CreateCollection inserts a collection, returning false when the address already exists
func (s *dbStore) CreateCollection(ctx context.Context, collection *schema.Collection) (bool, error) {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}},
			DoNothing: true,
		}).
		Create(collection)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create collection: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListCollectionAddresses returns the addresses of every known collection
func (s *dbStore) ListCollectionAddresses(ctx context.Context) ([]string, error) {
	var addresses []string
	if err := s.db.WithContext(ctx).
		Model(&schema.Collection{}).
		Order("address ASC").
		Pluck("address", &addresses).Error; err != nil {
		return nil, fmt.Errorf("failed to list collection addresses: %w", err)
	}
	return addresses, nil
}

// SetCollectionRoyalty records the royalty of a collection unless one is already known
func (s *dbStore) SetCollectionRoyalty(ctx context.Context, address string, royalty decimal.Decimal) error {
	err := s.db.WithContext(ctx).
		Model(&schema.Collection{}).
		Where("address = ? AND royalty_percentage IS NULL", address).
		Update("royalty_percentage", decimal.NewNullDecimal(royalty)).Error
	if err != nil {
		return fmt.Errorf("failed to set collection royalty: %w", err)
	}
	return nil
}

// GetNft retrieves an nft by its contract address and token id
func (s *dbStore) GetNft(ctx context.Context, tokenAddress, tokenID string) (*schema.Nft, error) {
	var nft schema.Nft
	found, err := first(s.db.WithContext(ctx).
		Where("token_address = ? AND token_id = ?", tokenAddress, tokenID), &nft)
	if err != nil {
		return nil, fmt.Errorf("failed to get nft: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &nft, nil
}

// GetNftTraits retrieves the traits of an nft
func (s *dbStore) GetNftTraits(ctx context.Context, nftID int64) ([]schema.NftTrait, error) {
	var traits []schema.NftTrait
	if err := s.db.WithContext(ctx).
		Where("nft_id = ?", nftID).
		Order("id ASC").
		Find(&traits).Error; err != nil {
		return nil, fmt.Errorf("failed to get nft traits: %w", err)
	}
	return traits, nil
}

// CreateNft inserts an nft with its traits, returning false when it already exists.
// When the nft already exists, nft is reloaded with the stored row.
func (s *dbStore) CreateNft(ctx context.Context, nft *schema.Nft, traits []schema.NftTrait) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "token_address"}, {Name: "token_id"}},
				DoNothing: true,
			}).
			Create(nft)
		if result.Error != nil {
			return fmt.Errorf("failed to create nft: %w", result.Error)
		}

		if result.RowsAffected == 0 {
			if err := tx.Where("token_address = ? AND token_id = ?", nft.TokenAddress, nft.TokenID).
				First(nft).Error; err != nil {
				return fmt.Errorf("failed to get existing nft: %w", err)
			}
			return nil
		}
		created = true

		if len(traits) == 0 {
			return nil
		}
		for i := range traits {
			traits[i].NftID = nft.ID
		}
		if err := tx.Omit(clause.Associations).Create(&traits).Error; err != nil {
			return fmt.Errorf("failed to create nft traits: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// UpdateNftOwner sets the owner of an nft, returning false when the nft is unknown
func (s *dbStore) UpdateNftOwner(ctx context.Context, tokenAddress, tokenID, owner string) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&schema.Nft{}).
		Where("token_address = ? AND token_id = ?", tokenAddress, tokenID).
		Update("owner_address", owner)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update nft owner: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetListingByNftID retrieves the live listing of an nft
func (s *dbStore) GetListingByNftID(ctx context.Context, nftID int64) (*schema.Listing, error) {
	var listing schema.Listing
	found, err := first(s.db.WithContext(ctx).Where("nft_id = ?", nftID), &listing)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &listing, nil
}

// CreateListingWithActivity inserts a listing and its "list" activity in one transaction
func (s *dbStore) CreateListingWithActivity(ctx context.Context, input CreateListingInput) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "nft_id"}},
				DoNothing: true,
			}).
			Create(input.Listing)
		if result.Error != nil {
			return fmt.Errorf("failed to create listing: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}
		created = true

		if err := tx.Create(input.Activity).Error; err != nil {
			return fmt.Errorf("failed to create nft activity: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// UpdateListing updates the fields of a listing that are set in the input
func (s *dbStore) UpdateListing(ctx context.Context, input UpdateListingInput) error {
	updates := map[string]interface{}{}
	if input.Price != nil {
		updates["price"] = *input.Price
	}
	if input.MinBidIncrementPercent != nil {
		updates["min_bid_increment_percent"] = *input.MinBidIncrementPercent
	}
	if len(updates) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).
		Model(&schema.Listing{}).
		Where("id = ?", input.ListingID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}
	return nil
}

// deleteListing removes a listing and its biddings.
// Biddings are deleted explicitly so dialects without enforced foreign keys behave the same.
func deleteListing(tx *gorm.DB, listingID int64) error {
	if err := tx.Where("listing_id = ?", listingID).Delete(&schema.Bidding{}).Error; err != nil {
		return fmt.Errorf("failed to delete biddings: %w", err)
	}
	if err := tx.Where("id = ?", listingID).Delete(&schema.Listing{}).Error; err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	return nil
}

// DeleteListingWithActivity deletes a listing and its biddings and records an activity
func (s *dbStore) DeleteListingWithActivity(ctx context.Context, listingID int64, activity *schema.NftActivity) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteListing(tx, listingID); err != nil {
			return err
		}
		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("failed to create nft activity: %w", err)
		}
		return nil
	})
}

// SettleSale records a sale and removes the state it consumed in one transaction
func (s *dbStore) SettleSale(ctx context.Context, input SettleSaleInput) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.ListingID != nil {
			if err := deleteListing(tx, *input.ListingID); err != nil {
				return err
			}
		}

		if input.NftOfferID != nil {
			if err := tx.Where("id = ?", *input.NftOfferID).Delete(&schema.NftOffer{}).Error; err != nil {
				return fmt.Errorf("failed to delete nft offer: %w", err)
			}
		}

		if input.CollectionOfferID != nil {
			if err := fillCollectionOffer(tx, *input.CollectionOfferID); err != nil {
				return err
			}
		}

		if err := tx.Create(input.Transaction).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		if err := tx.Create(input.Activity).Error; err != nil {
			return fmt.Errorf("failed to create nft activity: %w", err)
		}
		return nil
	})
}

// fillCollectionOffer advances a collection offer by one fill.
// The increment is guarded by current_quantity < quantity; reaching quantity marks
// the offer done and removes it.
func fillCollectionOffer(tx *gorm.DB, offerID int64) error {
	result := tx.Model(&schema.CollectionOffer{}).
		Where("id = ? AND current_quantity < quantity AND status = ?", offerID, domain.OfferStatusPending).
		Update("current_quantity", gorm.Expr("current_quantity + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to fill collection offer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrOfferExhausted
	}

	var offer schema.CollectionOffer
	if err := tx.Where("id = ?", offerID).First(&offer).Error; err != nil {
		return fmt.Errorf("failed to get collection offer: %w", err)
	}
	if offer.CurrentQuantity < offer.Quantity {
		return nil
	}

	if err := tx.Model(&schema.CollectionOffer{}).
		Where("id = ?", offerID).
		Update("status", domain.OfferStatusDone).Error; err != nil {
		return fmt.Errorf("failed to complete collection offer: %w", err)
	}
	if err := tx.Where("id = ?", offerID).Delete(&schema.CollectionOffer{}).Error; err != nil {
		return fmt.Errorf("failed to delete collection offer: %w", err)
	}
	return nil
}

// GetNftOfferByBuyer retrieves the offer of a buyer on an nft
func (s *dbStore) GetNftOfferByBuyer(ctx context.Context, nftID int64, buyer string) (*schema.NftOffer, error) {
	var offer schema.NftOffer
	found, err := first(s.db.WithContext(ctx).
		Where("nft_id = ? AND buyer_address = ?", nftID, buyer), &offer)
	if err != nil {
		return nil, fmt.Errorf("failed to get nft offer: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &offer, nil
}

// FindHighestNftOffer returns the highest priced offer on an nft, excluding the given buyer.
// Prices are compared as decimals in Go since sqlite has no exact numeric ordering.
func (s *dbStore) FindHighestNftOffer(ctx context.Context, nftID int64, excludeBuyer string) (*schema.NftOffer, error) {
	var offers []schema.NftOffer
	if err := s.db.WithContext(ctx).
		Where("nft_id = ? AND buyer_address <> ?", nftID, excludeBuyer).
		Order("id ASC").
		Find(&offers).Error; err != nil {
		return nil, fmt.Errorf("failed to find nft offers: %w", err)
	}

	var highest *schema.NftOffer
	for i := range offers {
		if highest == nil || offers[i].Price.GreaterThan(highest.Price) {
			highest = &offers[i]
		}
	}
	return highest, nil
}

// CreateNftOfferWithActivity inserts an nft offer and its "make_offer" activity
func (s *dbStore) CreateNftOfferWithActivity(ctx context.Context, offer *schema.NftOffer, activity *schema.NftActivity) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "nft_id"}, {Name: "buyer_address"}},
				DoNothing: true,
			}).
			Create(offer)
		if result.Error != nil {
			return fmt.Errorf("failed to create nft offer: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}
		created = true

		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("failed to create nft activity: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// DeleteNftOfferWithActivity deletes an nft offer and records its "cancel_offer" activity
func (s *dbStore) DeleteNftOfferWithActivity(ctx context.Context, offerID int64, activity *schema.NftActivity) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", offerID).Delete(&schema.NftOffer{}).Error; err != nil {
			return fmt.Errorf("failed to delete nft offer: %w", err)
		}
		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("failed to create nft activity: %w", err)
		}
		return nil
	})
}

// GetCollectionOfferByBuyer retrieves the offer of a buyer on a collection
func (s *dbStore) GetCollectionOfferByBuyer(ctx context.Context, collectionAddress, buyer string) (*schema.CollectionOffer, error) {
	var offer schema.CollectionOffer
	found, err := first(s.db.WithContext(ctx).
		Where("collection_address = ? AND buyer_address = ?", collectionAddress, buyer), &offer)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection offer: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &offer, nil
}

// FindHighestCollectionOffer returns the highest priced fillable offer on a collection, excluding the given buyer
func (s *dbStore) FindHighestCollectionOffer(ctx context.Context, collectionAddress, excludeBuyer string) (*schema.CollectionOffer, error) {
	var offers []schema.CollectionOffer
	if err := s.db.WithContext(ctx).
		Where("collection_address = ? AND buyer_address <> ?", collectionAddress, excludeBuyer).
		Where("status = ? AND current_quantity < quantity", domain.OfferStatusPending).
		Order("id ASC").
		Find(&offers).Error; err != nil {
		return nil, fmt.Errorf("failed to find collection offers: %w", err)
	}

	var highest *schema.CollectionOffer
	for i := range offers {
		if highest == nil || offers[i].Price.GreaterThan(highest.Price) {
			highest = &offers[i]
		}
	}
	return highest, nil
}

// CreateCollectionOffer inserts a collection offer, returning false when the buyer already has one
func (s *dbStore) CreateCollectionOffer(ctx context.Context, offer *schema.CollectionOffer) (bool, error) {
	if offer.Status == "" {
		offer.Status = domain.OfferStatusPending
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection_address"}, {Name: "buyer_address"}},
			DoNothing: true,
		}).
		Create(offer)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create collection offer: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DeleteCollectionOffer deletes a collection offer by id
func (s *dbStore) DeleteCollectionOffer(ctx context.Context, offerID int64) error {
	if err := s.db.WithContext(ctx).Where("id = ?", offerID).Delete(&schema.CollectionOffer{}).Error; err != nil {
		return fmt.Errorf("failed to delete collection offer: %w", err)
	}
	return nil
}

// ListBiddings returns the biddings of a listing
func (s *dbStore) ListBiddings(ctx context.Context, listingID int64) ([]schema.Bidding, error) {
	var biddings []schema.Bidding
	if err := s.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("id ASC").
		Find(&biddings).Error; err != nil {
		return nil, fmt.Errorf("failed to list biddings: %w", err)
	}
	return biddings, nil
}

// CreateBiddingWithTransaction records a bid and its transaction in one transaction.
// A second bid of the same buyer on the same listing replaces the price of the first.
func (s *dbStore) CreateBiddingWithTransaction(ctx context.Context, bidding *schema.Bidding, transaction *schema.Transaction) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "listing_id"}, {Name: "buyer_address"}},
				DoUpdates: clause.AssignmentColumns([]string{"price", "tx_hash", "created_date"}),
			}).
			Create(bidding).Error; err != nil {
			return fmt.Errorf("failed to upsert bidding: %w", err)
		}
		if err := tx.Create(transaction).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		return nil
	})
}

// DeleteBiddings deletes the biddings of a buyer on a listing
func (s *dbStore) DeleteBiddings(ctx context.Context, listingID int64, buyer string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("listing_id = ? AND buyer_address = ?", listingID, buyer).
		Delete(&schema.Bidding{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete biddings: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ListTransactions returns the transactions of a collection, oldest first
func (s *dbStore) ListTransactions(ctx context.Context, collectionAddress string) ([]schema.Transaction, error) {
	var transactions []schema.Transaction
	if err := s.db.WithContext(ctx).
		Where("collection_address = ?", collectionAddress).
		Order("id ASC").
		Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

// ListActivities returns the activities of an nft, oldest first
func (s *dbStore) ListActivities(ctx context.Context, nftID int64) ([]schema.NftActivity, error) {
	var activities []schema.NftActivity
	if err := s.db.WithContext(ctx).
		Where("nft_id = ?", nftID).
		Order("id ASC").
		Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("failed to list nft activities: %w", err)
	}
	return activities, nil
}

// ClaimStreamTx inserts a success ledger row, returning false when its key was already claimed
func (s *dbStore) ClaimStreamTx(ctx context.Context, row *schema.StreamTx) (bool, error) {
	row.IsFailure = false
	row.SuccessKey = &row.DedupKey
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "success_key"}},
			DoNothing: true,
		}).
		Create(row)
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim stream tx: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// CreateStreamTx inserts a ledger row
func (s *dbStore) CreateStreamTx(ctx context.Context, row *schema.StreamTx) error {
	if row.IsFailure {
		row.SuccessKey = nil
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to create stream tx: %w", err)
	}
	return nil
}

// CreateCwr721FailureTx inserts a cw721 failure ledger row
func (s *dbStore) CreateCwr721FailureTx(ctx context.Context, row *schema.Cwr721FailureTx) error {
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to create cwr721 failure tx: %w", err)
	}
	return nil
}

// HasSuccessfulStreamTx reports whether a success row exists for the dedup key
func (s *dbStore) HasSuccessfulStreamTx(ctx context.Context, dedupKey string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&schema.StreamTx{}).
		Where("success_key = ?", dedupKey).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check stream tx: %w", err)
	}
	return count > 0, nil
}

// FindStreamTxByTxHash returns the latest ledger row of a transaction, optionally filtered by failure flag
func (s *dbStore) FindStreamTxByTxHash(ctx context.Context, txHash string, isFailure *bool) (*schema.StreamTx, error) {
	query := s.db.WithContext(ctx).Where("tx_hash = ?", txHash)
	if isFailure != nil {
		query = query.Where("is_failure = ?", *isFailure)
	}

	var row schema.StreamTx
	// ULIDs sort by creation time
	found, err := first(query.Order("id DESC"), &row)
	if err != nil {
		return nil, fmt.Errorf("failed to find stream tx: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &row, nil
}

// ListStreamTxFailures returns the most recent failure rows
func (s *dbStore) ListStreamTxFailures(ctx context.Context, limit int) ([]schema.StreamTx, error) {
	var rows []schema.StreamTx
	if err := s.db.WithContext(ctx).
		Where("is_failure = ?", true).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list stream tx failures: %w", err)
	}
	return rows, nil
}

// ListCwr721Failures returns the most recent cw721 failure rows
func (s *dbStore) ListCwr721Failures(ctx context.Context, limit int) ([]schema.Cwr721FailureTx, error) {
	var rows []schema.Cwr721FailureTx
	if err := s.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list cwr721 failures: %w", err)
	}
	return rows, nil
}

// CreateBlock inserts a stream tracing row
func (s *dbStore) CreateBlock(ctx context.Context, block *schema.Block) error {
	if err := s.db.WithContext(ctx).Create(block).Error; err != nil {
		return fmt.Errorf("failed to create block: %w", err)
	}
	return nil
}

// GetCollectionStats computes the supply, floor and volume rollup of a collection
func (s *dbStore) GetCollectionStats(ctx context.Context, address string, now time.Time) (*CollectionStats, error) {
	stats := CollectionStats{Address: address}
	db := s.db.WithContext(ctx)

	if err := db.Model(&schema.Nft{}).
		Where("token_address = ?", address).
		Count(&stats.Supply).Error; err != nil {
		return nil, fmt.Errorf("failed to count nfts: %w", err)
	}

	if err := db.Model(&schema.Nft{}).
		Where("token_address = ? AND owner_address <> ''", address).
		Distinct("owner_address").
		Count(&stats.Owners).Error; err != nil {
		return nil, fmt.Errorf("failed to count owners: %w", err)
	}

	var prices []decimal.Decimal
	if err := db.Model(&schema.Listing{}).
		Where("collection_address = ?", address).
		Pluck("price", &prices).Error; err != nil {
		return nil, fmt.Errorf("failed to get listing prices: %w", err)
	}
	stats.Listed = int64(len(prices))
	for _, price := range prices {
		if !stats.FloorPrice.Valid || price.LessThan(stats.FloorPrice.Decimal) {
			stats.FloorPrice = decimal.NewNullDecimal(price)
		}
	}

	var volumes []volumeRow
	if err := db.Model(&schema.Transaction{}).
		Select("volume", "date").
		Where("collection_address = ?", address).
		Find(&volumes).Error; err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	now = now.UTC()
	stats.Sales = int64(len(volumes))
	for _, v := range volumes {
		stats.Volume = stats.Volume.Add(v.Volume)
		age := now.Sub(v.Date)
		if age <= 7*24*time.Hour {
			stats.Volume7d = stats.Volume7d.Add(v.Volume)
		}
		if age <= 24*time.Hour {
			stats.Volume24h = stats.Volume24h.Add(v.Volume)
		}
		if age <= time.Hour {
			stats.Volume1h = stats.Volume1h.Add(v.Volume)
		}
	}

	return &stats, nil
}

type volumeRow struct {
	Volume decimal.Decimal
	Date   time.Time
}
