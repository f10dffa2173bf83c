package classifier

import (
	"context"

	"github.com/feral-file/mrkt-indexer/internal/domain"
	"github.com/feral-file/mrkt-indexer/internal/registry"
)

// Classification is a contract event with its recognised action
type Classification struct {
	Action domain.Action
	Kind   domain.ActionKind
	Event  domain.ContractEvent
}

// actionKinds indexes the marketplace and token lifecycle action sets
var actionKinds = func() map[domain.Action]domain.ActionKind {
	kinds := make(map[domain.Action]domain.ActionKind)
	for _, action := range domain.MarketplaceActions() {
		kinds[action] = domain.ActionKindMarketplace
	}
	for _, action := range domain.Cw721Actions() {
		kinds[action] = domain.ActionKindCw721
	}
	return kinds
}()

// Classify extracts the action of an event.
// Events without an action, or with an action outside both sets, are skipped.
func Classify(ev domain.ContractEvent) (Classification, bool) {
	action, ok := ev.Action()
	if !ok {
		return Classification{}, false
	}

	kind, ok := actionKinds[action]
	if !ok {
		return Classification{}, false
	}

	return Classification{
		Action: action,
		Kind:   kind,
		Event:  ev,
	}, true
}

// Classifier filters classified events down to the contracts this indexer follows
type Classifier struct {
	marketplaceContract string
	registry            registry.CollectionRegistry
}

// New creates a classifier. An empty marketplace contract accepts marketplace
// actions from any emitter, which suits streams already filtered by their query.
func New(marketplaceContract string, registry registry.CollectionRegistry) *Classifier {
	return &Classifier{
		marketplaceContract: domain.NormalizeAddress(marketplaceContract),
		registry:            registry,
	}
}

// Marketplace returns the classification of a marketplace event emitted by the marketplace contract
func (c *Classifier) Marketplace(ev domain.ContractEvent) (Classification, bool) {
	classification, ok := Classify(ev)
	if !ok || classification.Kind != domain.ActionKindMarketplace {
		return Classification{}, false
	}

	if c.marketplaceContract != "" && domain.NormalizeAddress(ev.ContractAddress()) != c.marketplaceContract {
		return Classification{}, false
	}

	return classification, true
}

// Cw721 returns the classification of a token lifecycle event emitted by an allow-listed collection
func (c *Classifier) Cw721(ctx context.Context, ev domain.ContractEvent) (Classification, bool) {
	if ev.Type != domain.EventTypeWasm {
		return Classification{}, false
	}

	classification, ok := Classify(ev)
	if !ok || classification.Kind != domain.ActionKindCw721 {
		return Classification{}, false
	}

	if c.registry == nil || !c.registry.IsAllowed(ctx, ev.ContractAddress()) {
		return Classification{}, false
	}

	return classification, true
}

// Filter classifies the events of one transaction, keeping marketplace events
// and, when withCw721 is set, lifecycle events of allow-listed collections
func (c *Classifier) Filter(ctx context.Context, events []domain.ContractEvent, withMarketplace, withCw721 bool) []Classification {
	var classified []Classification
	for _, ev := range events {
		if withMarketplace {
			if classification, ok := c.Marketplace(ev); ok {
				classified = append(classified, classification)
				continue
			}
		}
		if withCw721 {
			if classification, ok := c.Cw721(ctx, ev); ok {
				classified = append(classified, classification)
			}
		}
	}
	return classified
}
