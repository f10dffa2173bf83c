package schema

import "time"

// KeyValueStore represents the key_value_store table.
// The scanner keeps its checkpoint here under "current_height", as a decimal string.
type KeyValueStore struct {
	// Key names the entry
	Key string `gorm:"column:key;primaryKey;type:text"`
	// Value is the stored value; checkpoints compare numerically after parsing
	Value     string    `gorm:"column:value;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for the KeyValueStore model
func (KeyValueStore) TableName() string {
	return "key_value_store"
}
