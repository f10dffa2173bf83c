package schema

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/feral-file/mrkt-indexer/internal/domain"
)

// Transaction represents the transactions table - settled volume, append-only
type Transaction struct {
	ID                int64           `gorm:"column:id;primaryKey;autoIncrement"`
	CollectionAddress string          `gorm:"column:collection_address;not null;type:text;index:idx_transactions_collection_date,priority:1"`
	BuyerAddress      string          `gorm:"column:buyer_address;not null;type:text"`
	SellerAddress     string          `gorm:"column:seller_address;not null;type:text"`
	Volume            decimal.Decimal `gorm:"column:volume;not null;type:numeric"`
	TxHash            string          `gorm:"column:tx_hash;not null;type:text;index"`
	Date              time.Time       `gorm:"column:date;not null;index:idx_transactions_collection_date,priority:2"`
}

// TableName specifies the table name for the Transaction model
func (Transaction) TableName() string {
	return "transactions"
}

// NftActivity represents the nft_activities table - the audit trail of an Nft, append-only
type NftActivity struct {
	ID            int64            `gorm:"column:id;primaryKey;autoIncrement"`
	NftID         int64            `gorm:"column:nft_id;not null;index"`
	EventKind     domain.EventKind `gorm:"column:event_kind;not null;type:text"`
	Price         decimal.Decimal  `gorm:"column:price;not null;type:numeric"`
	Denom         string           `gorm:"column:denom;not null;type:text"`
	BuyerAddress  string           `gorm:"column:buyer_address;not null;type:text;default:''"`
	SellerAddress string           `gorm:"column:seller_address;not null;type:text;default:''"`
	// Metadata holds free-form event data, e.g. fixed_sell messages
	Metadata datatypes.JSON `gorm:"column:metadata"`
	TxHash   string         `gorm:"column:tx_hash;not null;type:text;index"`
	Date     time.Time      `gorm:"column:date;not null"`
}

// TableName specifies the table name for the NftActivity model
func (NftActivity) TableName() string {
	return "nft_activities"
}
