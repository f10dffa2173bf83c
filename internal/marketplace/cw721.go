package marketplace

import (
	"context"

	"github.com/feral-file/mrkt-indexer/internal/domain"
	"github.com/feral-file/mrkt-indexer/internal/store"
)

// mint materializes a freshly minted token and records its owner
func (m *machine) mint(ctx context.Context, in Input) (bool, error) {
	if err := requireAttributes(in, domain.AttributeContractAddress, attrTokenID, attrOwner); err != nil {
		return false, err
	}
	return m.ensureAndSetOwner(ctx, in, in.Event.Get(attrOwner))
}

// transferNft materializes the token when unknown and moves it to the recipient
func (m *machine) transferNft(ctx context.Context, in Input) (bool, error) {
	if err := requireAttributes(in, domain.AttributeContractAddress, attrTokenID, attrRecipient); err != nil {
		return false, err
	}
	return m.ensureAndSetOwner(ctx, in, in.Event.Get(attrRecipient))
}

func (m *machine) ensureAndSetOwner(ctx context.Context, in Input, owner string) (bool, error) {
	address := domain.NormalizeAddress(in.Event.ContractAddress())
	tokenID := in.Event.Get(attrTokenID)

	if _, err := m.materializer.EnsureNft(ctx, address, tokenID); err != nil {
		return false, chainError(err, in)
	}

	return m.commit(ctx, in, func(tx store.Store) (bool, error) {
		if _, err := tx.UpdateNftOwner(ctx, address, tokenID, owner); err != nil {
			return false, err
		}
		return true, nil
	})
}

// sendNft moves a known token to the recipient contract. Unknown tokens are not materialized.
func (m *machine) sendNft(ctx context.Context, in Input) (bool, error) {
	if err := requireAttributes(in, domain.AttributeContractAddress, attrTokenID, attrRecipient); err != nil {
		return false, err
	}

	address := domain.NormalizeAddress(in.Event.ContractAddress())
	tokenID := in.Event.Get(attrTokenID)

	return m.commit(ctx, in, func(tx store.Store) (bool, error) {
		updated, err := tx.UpdateNftOwner(ctx, address, tokenID, in.Event.Get(attrRecipient))
		if err != nil {
			return false, err
		}
		if !updated {
			return false, domain.NewPermanentError(nil, "Not found nft when send_nft: %s", in.TxHash)
		}
		return true, nil
	})
}
