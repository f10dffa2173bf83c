package messaging

import (
	"context"

	"github.com/feral-file/mrkt-indexer/internal/domain"
)

// Publisher defines the interface for publishing applied events to the message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishEvent publishes an applied marketplace or token event
	PublishEvent(ctx context.Context, event *domain.AppliedEvent) error
	// Close closes the connection
	Close()
}
