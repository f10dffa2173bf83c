package schema

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/feral-file/mrkt-indexer/internal/domain"
)

// Listing represents the listings table - the live sell order of an Nft.
// At most one row exists per Nft.
type Listing struct {
	ID                int64           `gorm:"column:id;primaryKey;autoIncrement"`
	NftID             int64           `gorm:"column:nft_id;not null;uniqueIndex"`
	CollectionAddress string          `gorm:"column:collection_address;not null;type:text;index"`
	SellerAddress     string          `gorm:"column:seller_address;not null;type:text"`
	Price             decimal.Decimal `gorm:"column:price;not null;type:numeric"`
	Denom             string          `gorm:"column:denom;not null;type:text"`
	SaleType          domain.SaleType `gorm:"column:sale_type;not null;type:text"`
	// StartDate and EndDate are only set for auctions carrying a duration
	StartDate              *time.Time          `gorm:"column:start_date"`
	EndDate                *time.Time          `gorm:"column:end_date"`
	MinBidIncrementPercent decimal.NullDecimal `gorm:"column:min_bid_increment_percent;type:numeric"`
	TxHash                 string              `gorm:"column:tx_hash;not null;type:text"`
	CreatedDate            time.Time           `gorm:"column:created_date;not null"`

	// Associations
	Nft *Nft `gorm:"foreignKey:NftID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Listing model
func (Listing) TableName() string {
	return "listings"
}

// Bidding represents the biddings table - an auction bid against a live Listing
type Bidding struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement"`
	ListingID    int64           `gorm:"column:listing_id;not null;uniqueIndex:idx_biddings_listing_buyer,priority:1"`
	BuyerAddress string          `gorm:"column:buyer_address;not null;type:text;uniqueIndex:idx_biddings_listing_buyer,priority:2"`
	Price        decimal.Decimal `gorm:"column:price;not null;type:numeric"`
	TxHash       string          `gorm:"column:tx_hash;not null;type:text"`
	CreatedDate  time.Time       `gorm:"column:created_date;not null"`

	// Associations
	Listing *Listing `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Bidding model
func (Bidding) TableName() string {
	return "biddings"
}
