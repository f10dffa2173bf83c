package schema

import (
	"time"

	"github.com/feral-file/mrkt-indexer/internal/domain"
)

// StreamTx represents the stream_txs table - one ledger row per processed or failed
// marketplace action. Rows are never updated.
type StreamTx struct {
	// ID is a ULID
	ID       string `gorm:"column:id;primaryKey;type:text"`
	TxHash   string `gorm:"column:tx_hash;not null;type:text;index"`
	Action   string `gorm:"column:action;not null;type:text"`
	DedupKey string `gorm:"column:dedup_key;not null;type:text;index"`
	// SuccessKey equals DedupKey on success rows and is NULL on failures,
	// so only one success per key can ever be stored.
	SuccessKey *string       `gorm:"column:success_key;type:text;uniqueIndex"`
	Source     domain.Source `gorm:"column:source;not null;type:text"`
	Height     uint64        `gorm:"column:height;not null;default:0"`
	IsFailure  bool          `gorm:"column:is_failure;not null;default:false"`
	Message    string        `gorm:"column:message;not null;type:text;default:''"`
	CreatedAt  time.Time     `gorm:"column:created_at;not null;autoCreateTime"`
}

// TableName specifies the table name for the StreamTx model
func (StreamTx) TableName() string {
	return "stream_txs"
}

// Cwr721FailureTx represents the cwr721_failure_txs table - failed token lifecycle events
type Cwr721FailureTx struct {
	ID        string    `gorm:"column:id;primaryKey;type:text"`
	TxHash    string    `gorm:"column:tx_hash;not null;type:text;index"`
	Action    string    `gorm:"column:action;not null;type:text"`
	Height    uint64    `gorm:"column:height;not null;default:0"`
	Message   string    `gorm:"column:message;not null;type:text;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

// TableName specifies the table name for the Cwr721FailureTx model
func (Cwr721FailureTx) TableName() string {
	return "cwr721_failure_txs"
}

// Block represents the blocks table - a trace row per transaction received from the stream
type Block struct {
	ID     int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Height uint64    `gorm:"column:height;not null;index"`
	TxHash string    `gorm:"column:tx_hash;not null;type:text"`
	Sender string    `gorm:"column:sender;not null;type:text;default:''"`
	Action string    `gorm:"column:action;not null;type:text;default:''"`
	Date   time.Time `gorm:"column:date;not null"`
}

// TableName specifies the table name for the Block model
func (Block) TableName() string {
	return "blocks"
}
