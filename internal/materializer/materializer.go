package materializer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/feral-file/mrkt-indexer/internal/chain"
	"github.com/feral-file/mrkt-indexer/internal/logger"
	"github.com/feral-file/mrkt-indexer/internal/metadata"
	"github.com/feral-file/mrkt-indexer/internal/metrics"
	"github.com/feral-file/mrkt-indexer/internal/registry"
	"github.com/feral-file/mrkt-indexer/internal/store"
	"github.com/feral-file/mrkt-indexer/internal/store/schema"
)

// Materializer lazily creates the collections and nfts that events refer to
//
//go:generate mockgen -source=materializer.go -destination=../mocks/materializer.go -package=mocks -mock_names=Materializer=MockMaterializer
type Materializer interface {
	// EnsureCollection returns the collection, creating it from contract_info when unknown
	EnsureCollection(ctx context.Context, address string) (*schema.Collection, error)

	// EnsureNft returns the nft, creating it and its collection when unknown
	EnsureNft(ctx context.Context, address, tokenID string) (*schema.Nft, error)
}

type materializer struct {
	store    store.Store
	chain    chain.Client
	resolver metadata.Resolver
	registry registry.CollectionRegistry
	group    singleflight.Group
}

// New creates a materializer. registry may be nil.
func New(store store.Store, chain chain.Client, resolver metadata.Resolver, registry registry.CollectionRegistry) Materializer {
	return &materializer{
		store:    store,
		chain:    chain,
		resolver: resolver,
		registry: registry,
	}
}

// EnsureCollection returns the collection, creating it from contract_info when unknown
func (m *materializer) EnsureCollection(ctx context.Context, address string) (*schema.Collection, error) {
	v, err, _ := m.group.Do("collection:"+address, func() (interface{}, error) {
		return m.ensureCollection(ctx, address)
	})
	if err != nil {
		return nil, err
	}
	return v.(*schema.Collection), nil
}

func (m *materializer) ensureCollection(ctx context.Context, address string) (*schema.Collection, error) {
	collection, err := m.store.GetCollectionByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if collection != nil {
		return collection, nil
	}

	info, err := m.chain.ContractInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to query contract_info of %s: %w", address, err)
	}

	created, err := m.store.CreateCollection(ctx, &schema.Collection{
		Address: address,
		Name:    info.Name,
		Symbol:  info.Symbol,
	})
	if err != nil {
		return nil, err
	}
	if created {
		logger.InfoCtx(ctx, "Created collection", zap.String("address", address), zap.String("name", info.Name))
		if m.registry != nil {
			m.registry.Add(address)
		}
	}

	// Read back so a concurrent creator's row is returned
	collection, err = m.store.GetCollectionByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, fmt.Errorf("collection %s vanished after create", address)
	}
	return collection, nil
}

// EnsureNft returns the nft, creating it and its collection when unknown.
// Metadata and owner lookups are best-effort; an nft is created with empty
// descriptive fields rather than blocking the event that refers to it.
func (m *materializer) EnsureNft(ctx context.Context, address, tokenID string) (*schema.Nft, error) {
	v, err, _ := m.group.Do("nft:"+address+"/"+tokenID, func() (interface{}, error) {
		return m.ensureNft(ctx, address, tokenID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*schema.Nft), nil
}

func (m *materializer) ensureNft(ctx context.Context, address, tokenID string) (*schema.Nft, error) {
	nft, err := m.store.GetNft(ctx, address, tokenID)
	if err != nil {
		return nil, err
	}
	if nft != nil {
		return nft, nil
	}

	collection, err := m.EnsureCollection(ctx, address)
	if err != nil {
		return nil, err
	}

	info, err := m.chain.NftInfo(ctx, address, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nft_info of %s/%s: %w", address, tokenID, err)
	}

	if info.Extension.RoyaltyPercentage != nil && !collection.RoyaltyPercentage.Valid {
		if err := m.store.SetCollectionRoyalty(ctx, address, *info.Extension.RoyaltyPercentage); err != nil {
			logger.WarnCtx(ctx, "Failed to record collection royalty", zap.String("address", address), zap.Error(err))
		}
	}

	nft = &schema.Nft{
		TokenAddress: address,
		TokenID:      tokenID,
		TokenURI:     info.TokenURI,
	}

	var traits []schema.NftTrait
	if info.TokenURI != "" {
		md, err := m.resolver.Resolve(ctx, info.TokenURI)
		if err != nil {
			metrics.MetadataFailureInc()
			logger.WarnCtx(ctx, "Failed to resolve nft metadata",
				zap.String("address", address),
				zap.String("tokenID", tokenID),
				zap.String("tokenURI", info.TokenURI),
				zap.Error(err))
		} else {
			nft.Name = md.Name
			nft.Image = md.Image
			nft.Description = md.Description
			nft.ExternalURL = md.ExternalURL
			for _, trait := range md.Traits {
				traits = append(traits, schema.NftTrait{
					Attribute:   trait.Attribute,
					Value:       trait.Value,
					DisplayType: trait.DisplayType,
				})
			}
		}
	}

	owner, err := m.chain.OwnerOf(ctx, address, tokenID)
	if err != nil {
		logger.WarnCtx(ctx, "Failed to query nft owner",
			zap.String("address", address),
			zap.String("tokenID", tokenID),
			zap.Error(err))
	} else {
		nft.OwnerAddress = owner
	}

	created, err := m.store.CreateNft(ctx, nft, traits)
	if err != nil {
		return nil, err
	}
	if created {
		logger.DebugCtx(ctx, "Created nft", zap.String("address", address), zap.String("tokenID", tokenID))
	}

	return nft, nil
}
