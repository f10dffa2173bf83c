package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Collection represents the collections table - one row per cw721 contract seen by the indexer
type Collection struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Address is the cw721 contract address (normalized to lowercase)
	Address string `gorm:"column:address;not null;uniqueIndex;type:text"`
	// Name is the contract name reported by contract_info
	Name string `gorm:"column:name;not null;type:text"`
	// Symbol is the contract symbol reported by contract_info
	Symbol string `gorm:"column:symbol;not null;type:text"`
	// RoyaltyPercentage is captured from nft_info.extension on first materialization
	RoyaltyPercentage decimal.NullDecimal `gorm:"column:royalty_percentage;type:numeric"`
	CreatedAt         time.Time           `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;not null;autoUpdateTime"`
}

// TableName specifies the table name for the Collection model
func (Collection) TableName() string {
	return "collections"
}
