package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feral-file/mrkt-indexer/internal/store/schema"
)

// ErrOfferExhausted is returned when a collection offer has no fills left at commit time
var ErrOfferExhausted = errors.New("collection offer has no remaining quantity")

// Store defines the interface for database operations
type Store interface {
	CursorStore

	// Transaction runs fn against a store bound to a single database transaction.
	// Nested calls use savepoints.
	Transaction(ctx context.Context, fn func(tx Store) error) error
	// Ping checks the database connection
	Ping(ctx context.Context) error

	// GetCollectionByAddress retrieves a collection by its contract address
	GetCollectionByAddress(ctx context.Context, address string) (*schema.Collection, error)
	// CreateCollection inserts a collection, returning false when the address already exists
	CreateCollection(ctx context.Context, collection *schema.Collection) (bool, error)
	// SetCollectionRoyalty records the royalty of a collection unless one is already known
	SetCollectionRoyalty(ctx context.Context, address string, royalty decimal.Decimal) error
	// ListCollectionAddresses returns the addresses of every known collection
	ListCollectionAddresses(ctx context.Context) ([]string, error)
	// GetCollectionStats computes the supply, floor and volume rollup of a collection
	GetCollectionStats(ctx context.Context, address string, now time.Time) (*CollectionStats, error)

	// GetNft retrieves an nft by its contract address and token id
	GetNft(ctx context.Context, tokenAddress, tokenID string) (*schema.Nft, error)
	// GetNftTraits retrieves the traits of an nft
	GetNftTraits(ctx context.Context, nftID int64) ([]schema.NftTrait, error)
	// CreateNft inserts an nft with its traits, returning false when it already exists
	CreateNft(ctx context.Context, nft *schema.Nft, traits []schema.NftTrait) (bool, error)
	// UpdateNftOwner sets the owner of an nft, returning false when the nft is unknown
	UpdateNftOwner(ctx context.Context, tokenAddress, tokenID, owner string) (bool, error)

	// GetListingByNftID retrieves the live listing of an nft
	GetListingByNftID(ctx context.Context, nftID int64) (*schema.Listing, error)
	// CreateListingWithActivity inserts a listing and its "list" activity in one transaction.
	// Returns false without writing the activity when the nft is already listed.
	CreateListingWithActivity(ctx context.Context, input CreateListingInput) (bool, error)
	// UpdateListing updates the fields of a listing that are set in the input
	UpdateListing(ctx context.Context, input UpdateListingInput) error
	// DeleteListingWithActivity deletes a listing and its biddings and records an activity
	DeleteListingWithActivity(ctx context.Context, listingID int64, activity *schema.NftActivity) error
	// SettleSale records a sale and removes the state it consumed in one transaction
	SettleSale(ctx context.Context, input SettleSaleInput) error

	// GetNftOfferByBuyer retrieves the offer of a buyer on an nft
	GetNftOfferByBuyer(ctx context.Context, nftID int64, buyer string) (*schema.NftOffer, error)
	// FindHighestNftOffer returns the highest priced offer on an nft, excluding the given buyer
	FindHighestNftOffer(ctx context.Context, nftID int64, excludeBuyer string) (*schema.NftOffer, error)
	// CreateNftOfferWithActivity inserts an nft offer and its "make_offer" activity.
	// Returns false when the buyer already has an offer on the nft.
	CreateNftOfferWithActivity(ctx context.Context, offer *schema.NftOffer, activity *schema.NftActivity) (bool, error)
	// DeleteNftOfferWithActivity deletes an nft offer and records its "cancel_offer" activity
	DeleteNftOfferWithActivity(ctx context.Context, offerID int64, activity *schema.NftActivity) error

	// GetCollectionOfferByBuyer retrieves the offer of a buyer on a collection
	GetCollectionOfferByBuyer(ctx context.Context, collectionAddress, buyer string) (*schema.CollectionOffer, error)
	// FindHighestCollectionOffer returns the highest priced fillable offer on a collection, excluding the given buyer
	FindHighestCollectionOffer(ctx context.Context, collectionAddress, excludeBuyer string) (*schema.CollectionOffer, error)
	// CreateCollectionOffer inserts a collection offer, returning false when the buyer already has one
	CreateCollectionOffer(ctx context.Context, offer *schema.CollectionOffer) (bool, error)
	// DeleteCollectionOffer deletes a collection offer by id
	DeleteCollectionOffer(ctx context.Context, offerID int64) error

	// ListBiddings returns the biddings of a listing
	ListBiddings(ctx context.Context, listingID int64) ([]schema.Bidding, error)
	// CreateBiddingWithTransaction records a bid and its transaction in one transaction
	CreateBiddingWithTransaction(ctx context.Context, bidding *schema.Bidding, transaction *schema.Transaction) error
	// DeleteBiddings deletes the biddings of a buyer on a listing
	DeleteBiddings(ctx context.Context, listingID int64, buyer string) (int64, error)

	// ListTransactions returns the transactions of a collection, oldest first
	ListTransactions(ctx context.Context, collectionAddress string) ([]schema.Transaction, error)
	// ListActivities returns the activities of an nft, oldest first
	ListActivities(ctx context.Context, nftID int64) ([]schema.NftActivity, error)

	// ClaimStreamTx inserts a success ledger row, returning false when its key was already claimed
	ClaimStreamTx(ctx context.Context, row *schema.StreamTx) (bool, error)
	// CreateStreamTx inserts a ledger row
	CreateStreamTx(ctx context.Context, row *schema.StreamTx) error
	// CreateCwr721FailureTx inserts a cw721 failure ledger row
	CreateCwr721FailureTx(ctx context.Context, row *schema.Cwr721FailureTx) error
	// HasSuccessfulStreamTx reports whether a success row exists for the dedup key
	HasSuccessfulStreamTx(ctx context.Context, dedupKey string) (bool, error)
	// FindStreamTxByTxHash returns the latest ledger row of a transaction, optionally filtered by failure flag
	FindStreamTxByTxHash(ctx context.Context, txHash string, isFailure *bool) (*schema.StreamTx, error)
	// ListStreamTxFailures returns the most recent failure rows
	ListStreamTxFailures(ctx context.Context, limit int) ([]schema.StreamTx, error)
	// ListCwr721Failures returns the most recent cw721 failure rows
	ListCwr721Failures(ctx context.Context, limit int) ([]schema.Cwr721FailureTx, error)
	// CreateBlock inserts a stream tracing row
	CreateBlock(ctx context.Context, block *schema.Block) error
}

// CreateListingInput represents the data of a start_sale
type CreateListingInput struct {
	Listing  *schema.Listing
	Activity *schema.NftActivity
}

// UpdateListingInput represents an edit_sale; nil fields stay unchanged
type UpdateListingInput struct {
	ListingID              int64
	Price                  *decimal.Decimal
	MinBidIncrementPercent *decimal.Decimal
}

// SettleSaleInput represents a settled sale.
// At most one of NftOfferID and CollectionOfferID is set.
type SettleSaleInput struct {
	// ListingID is the live listing to delete, if any
	ListingID *int64
	// NftOfferID is the accepted nft offer to delete
	NftOfferID *int64
	// CollectionOfferID is the collection offer to advance by one fill
	CollectionOfferID *int64
	Transaction       *schema.Transaction
	Activity          *schema.NftActivity
}

// CollectionStats is the rollup of one collection
type CollectionStats struct {
	Address    string
	Supply     int64
	Owners     int64
	Listed     int64
	FloorPrice decimal.NullDecimal
	Volume     decimal.Decimal
	Volume1h   decimal.Decimal
	Volume24h  decimal.Decimal
	Volume7d   decimal.Decimal
	Sales      int64
}
