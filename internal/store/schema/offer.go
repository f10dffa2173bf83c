package schema

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/feral-file/mrkt-indexer/internal/domain"
)

// NftOffer represents the nft_offers table - a buyer's standing bid on one Nft
type NftOffer struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement"`
	NftID        int64           `gorm:"column:nft_id;not null;uniqueIndex:idx_nft_offers_nft_buyer,priority:1"`
	BuyerAddress string          `gorm:"column:buyer_address;not null;type:text;uniqueIndex:idx_nft_offers_nft_buyer,priority:2"`
	Price        decimal.Decimal `gorm:"column:price;not null;type:numeric"`
	Denom        string          `gorm:"column:denom;not null;type:text"`
	StartDate    time.Time       `gorm:"column:start_date;not null"`
	EndDate      time.Time       `gorm:"column:end_date;not null"`
	TxHash       string          `gorm:"column:tx_hash;not null;type:text"`
	CreatedDate  time.Time       `gorm:"column:created_date;not null"`

	// Associations
	Nft *Nft `gorm:"foreignKey:NftID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the NftOffer model
func (NftOffer) TableName() string {
	return "nft_offers"
}

// CollectionOffer represents the collection_offers table - a standing bid fillable
// against any token of a collection up to Quantity times
type CollectionOffer struct {
	ID                int64           `gorm:"column:id;primaryKey;autoIncrement"`
	CollectionAddress string          `gorm:"column:collection_address;not null;type:text;uniqueIndex:idx_collection_offers_collection_buyer,priority:1"`
	BuyerAddress      string          `gorm:"column:buyer_address;not null;type:text;uniqueIndex:idx_collection_offers_collection_buyer,priority:2"`
	Price             decimal.Decimal `gorm:"column:price;not null;type:numeric"`
	Denom             string          `gorm:"column:denom;not null;type:text"`
	Quantity          int64           `gorm:"column:quantity;not null"`
	// CurrentQuantity counts fills so far and never exceeds Quantity
	CurrentQuantity int64              `gorm:"column:current_quantity;not null;default:0"`
	Status          domain.OfferStatus `gorm:"column:status;not null;type:text;default:'pending'"`
	StartDate       time.Time          `gorm:"column:start_date;not null"`
	EndDate         time.Time          `gorm:"column:end_date;not null"`
	TxHash          string             `gorm:"column:tx_hash;not null;type:text"`
	CreatedDate     time.Time          `gorm:"column:created_date;not null"`
}

// TableName specifies the table name for the CollectionOffer model
func (CollectionOffer) TableName() string {
	return "collection_offers"
}

// Fillable reports whether the offer can still be accepted
func (o CollectionOffer) Fillable() bool {
	return o.Status != domain.OfferStatusDone && o.CurrentQuantity < o.Quantity
}
