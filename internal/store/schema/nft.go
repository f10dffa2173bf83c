package schema

import (
	"time"
)

// Nft represents the nfts table - a single token of a collection
type Nft struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// TokenAddress is the collection contract address
	TokenAddress string `gorm:"column:token_address;not null;type:text;uniqueIndex:idx_nfts_token_address_token_id,priority:1"`
	// TokenID is the token identifier within the contract
	TokenID string `gorm:"column:token_id;not null;type:text;uniqueIndex:idx_nfts_token_address_token_id,priority:2"`
	// OwnerAddress is the current owner, empty until mint/transfer/owner_of says otherwise
	OwnerAddress string `gorm:"column:owner_address;not null;type:text;default:'';index"`
	Name         string `gorm:"column:name;not null;type:text;default:''"`
	Image        string `gorm:"column:image;not null;type:text;default:''"`
	Description  string `gorm:"column:description;not null;type:text;default:''"`
	TokenURI     string `gorm:"column:token_uri;not null;type:text;default:''"`
	ExternalURL  string `gorm:"column:external_url;not null;type:text;default:''"`
	CreatedAt    time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

// TableName specifies the table name for the Nft model
func (Nft) TableName() string {
	return "nfts"
}

// NftTrait represents the nft_traits table - metadata attributes of an Nft
type NftTrait struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	NftID       int64  `gorm:"column:nft_id;not null;index"`
	Attribute   string `gorm:"column:attribute;not null;type:text"`
	Value       string `gorm:"column:value;not null;type:text"`
	DisplayType string `gorm:"column:display_type;not null;type:text;default:''"`

	// Associations
	Nft *Nft `gorm:"foreignKey:NftID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the NftTrait model
func (NftTrait) TableName() string {
	return "nft_traits"
}
