package logger

import (
	"go.uber.org/zap"
)

// TxFields returns the fields attached to every per-transaction log line
func TxFields(source string, txHash string, action string, height uint64) []zap.Field {
	return []zap.Field{
		zap.String("source", source),
		zap.String("tx_hash", txHash),
		zap.String("action", action),
		zap.Uint64("height", height),
	}
}
