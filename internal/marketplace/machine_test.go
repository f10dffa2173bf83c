package marketplace_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/mrkt-indexer/internal/adapter"
	"github.com/feral-file/mrkt-indexer/internal/chain"
	"github.com/feral-file/mrkt-indexer/internal/domain"
	"github.com/feral-file/mrkt-indexer/internal/logger"
	"github.com/feral-file/mrkt-indexer/internal/marketplace"
	"github.com/feral-file/mrkt-indexer/internal/materializer"
	"github.com/feral-file/mrkt-indexer/internal/mocks"
	"github.com/feral-file/mrkt-indexer/internal/store"
	"github.com/feral-file/mrkt-indexer/internal/store/schema"
	"github.com/feral-file/mrkt-indexer/internal/store/storetest"
)

const (
	collectionAddr = "sei1collection"
	sellerAddr     = "sei1seller"
	buyerAddr      = "sei1buyer"
	otherBuyerAddr = "sei1otherbuyer"
)

var blockDate = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type testMachineMocks struct {
	ctrl    *gomock.Controller
	store   store.Store
	chain   *mocks.MockChainClient
	machine marketplace.Machine
}

func setupTest(t *testing.T) *testMachineMocks {
	ctrl := gomock.NewController(t)

	tm := &testMachineMocks{
		ctrl:  ctrl,
		store: storetest.NewStore(t),
		chain: mocks.NewMockChainClient(ctrl),
	}

	resolver := mocks.NewMockMetadataResolver(ctrl)
	m := materializer.New(tm.store, tm.chain, resolver, nil)
	tm.machine = marketplace.New(tm.store, m, adapter.NewJSON())
	return tm
}

func tearDownTest(tm *testMachineMocks) {
	tm.ctrl.Finish()
}

// expectChain answers every contract query of a collection without a token uri
func (tm *testMachineMocks) expectChain() {
	tm.chain.EXPECT().
		ContractInfo(gomock.Any(), gomock.Any()).
		Return(&chain.ContractInfo{Name: "Sei Punks", Symbol: "PUNK"}, nil).
		AnyTimes()
	tm.chain.EXPECT().
		NftInfo(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&chain.NftInfo{}, nil).
		AnyTimes()
	tm.chain.EXPECT().
		OwnerOf(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(sellerAddr, nil).
		AnyTimes()
}

func event(pairs ...string) domain.ContractEvent {
	ev := domain.ContractEvent{Type: domain.EventTypeWasm}
	for i := 0; i+1 < len(pairs); i += 2 {
		ev.Attributes = append(ev.Attributes, domain.Attribute{Key: pairs[i], Value: pairs[i+1]})
	}
	return ev
}

func (tm *testMachineMocks) apply(t *testing.T, action domain.Action, txHash string, pairs ...string) domain.Result {
	t.Helper()
	return tm.machine.Apply(context.Background(), marketplace.Input{
		Action: action,
		Event:  event(append([]string{"action", action.String()}, pairs...)...),
		TxHash: txHash,
		Date:   blockDate,
	})
}

func (tm *testMachineMocks) startSale(t *testing.T, tokenID, price string, saleType domain.SaleType) {
	t.Helper()
	result := tm.apply(t, domain.ActionStartSale, "tx-start-"+tokenID,
		"cw721_address", collectionAddr,
		"token_id", tokenID,
		"initial_price", price,
		"sale_type", string(saleType),
		"seller", sellerAddr,
		"denom", "usei")
	require.True(t, result.OK(), result.Message())
}

func (tm *testMachineMocks) nft(t *testing.T, tokenID string) *schema.Nft {
	t.Helper()
	nft, err := tm.store.GetNft(context.Background(), collectionAddr, tokenID)
	require.NoError(t, err)
	require.NotNil(t, nft)
	return nft
}

func (tm *testMachineMocks) listing(t *testing.T, tokenID string) *schema.Listing {
	t.Helper()
	listing, err := tm.store.GetListingByNftID(context.Background(), tm.nft(t, tokenID).ID)
	require.NoError(t, err)
	return listing
}

func (tm *testMachineMocks) activities(t *testing.T, tokenID string) []schema.NftActivity {
	t.Helper()
	activities, err := tm.store.ListActivities(context.Background(), tm.nft(t, tokenID).ID)
	require.NoError(t, err)
	return activities
}

func (tm *testMachineMocks) transactions(t *testing.T) []schema.Transaction {
	t.Helper()
	transactions, err := tm.store.ListTransactions(context.Background(), collectionAddr)
	require.NoError(t, err)
	return transactions
}

func claimWith(key string) marketplace.ClaimFunc {
	return func(ctx context.Context, tx store.Store) (bool, error) {
		return tx.ClaimStreamTx(ctx, &schema.StreamTx{
			ID:       uuid.NewString(),
			TxHash:   "tx",
			Action:   "start_sale",
			DedupKey: key,
			Source:   domain.SourceStream,
		})
	}
}

func TestStartSale(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)
	tm.expectChain()

	tm.startSale(t, "1", "10", domain.SaleTypeFixed)

	listing := tm.listing(t, "1")
	require.NotNil(t, listing)
	assert.True(t, listing.Price.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, domain.SaleTypeFixed, listing.SaleType)
	assert.Equal(t, sellerAddr, listing.SellerAddress)
	assert.Equal(t, collectionAddr, listing.CollectionAddress)
	assert.Nil(t, listing.StartDate)
	assert.Nil(t, listing.EndDate)

	activities := tm.activities(t, "1")
	require.Len(t, activities, 1)
	assert.Equal(t, domain.EventKindList, activities[0].EventKind)
	assert.Equal(t, "usei", activities[0].Denom)
	assert.True(t, activities[0].Date.Equal(blockDate))

	// materialized with the owner reported by the chain
	assert.Equal(t, sellerAddr, tm.nft(t, "1").OwnerAddress)
}

func TestStartSale_Auction(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)
	tm.expectChain()

	result := tm.apply(t, domain.ActionStartSale, "tx-auction",
		"cw721_address", collectionAddr,
		"token_id", "7",
		"initial_price", "2.5",
		"sale_type", "auction",
		"seller", sellerAddr,
		"denom", "usei",
		"duration_type", `{"start":1714564800,"end":"1714651200"}`,
		"min_bid_increment_percent", "5")
	require.True(t, result.OK(), result.Message())

	listing := tm.listing(t, "7")
	require.NotNil(t, listing)
	require.NotNil(t, listing.StartDate)
	require.NotNil(t, listing.EndDate)
	assert.Equal(t, int64(1714564800), listing.StartDate.Unix())
	assert.Equal(t, int64(1714651200), listing.EndDate.Unix())
	assert.True(t, listing.MinBidIncrementPercent.Valid)
	assert.True(t, listing.MinBidIncrementPercent.Decimal.Equal(decimal.NewFromInt(5)))
	assert.True(t, listing.Price.Equal(decimal.RequireFromString("2.5")))
}

func TestStartSale_AlreadyListed(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)
	tm.expectChain()

	tm.startSale(t, "1", "10", domain.SaleTypeFixed)

	result := tm.apply(t, domain.ActionStartSale, "tx-start-again",
		"cw721_address", collectionAddr,
		"token_id", "1",
		"initial_price", "12",
		"sale_type", "fixed",
		"seller", sellerAddr,
		"denom", "usei")
	assert.True(t, result.OK())
	assert.True(t, result.Duplicate)

	assert.True(t, tm.listing(t, "1").Price.Equal(decimal.NewFromInt(10)))
	assert.Len(t, tm.activities(t, "1"), 1)
}

func TestStartSale_InvalidEvents(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		wantMsg string
		wantErr error
	}{
		{
			name:    "missing seller",
			pairs:   []string{"cw721_address", collectionAddr, "token_id", "1", "initial_price", "10", "sale_type", "fixed", "denom", "usei"},
			wantMsg: "missing event attribute in start_sale: tx-bad",
			wantErr: domain.ErrMissingAttribute,
		},
		{
			name:    "empty token id",
			pairs:   []string{"cw721_address", collectionAddr, "token_id", "", "initial_price", "10", "sale_type", "fixed", "seller", sellerAddr, "denom", "usei"},
			wantMsg: "missing event attribute in start_sale: tx-bad",
			wantErr: domain.ErrMissingAttribute,
		},
		{
			name:    "unknown sale type",
			pairs:   []string{"cw721_address", collectionAddr, "token_id", "1", "initial_price", "10", "sale_type", "dutch", "seller", sellerAddr, "denom", "usei"},
			wantErr: domain.ErrInvalidAttribute,
		},
		{
			name:    "malformed price",
			pairs:   []string{"cw721_address", collectionAddr, "token_id", "1", "initial_price", "ten", "sale_type", "fixed", "seller", sellerAddr, "denom", "usei"},
			wantErr: domain.ErrInvalidAttribute,
		},
		{
			name:    "malformed duration",
			pairs:   []string{"cw721_address", collectionAddr, "token_id", "1", "initial_price", "10", "sale_type", "auction", "seller", sellerAddr, "denom", "usei", "duration_type", "{"},
			wantErr: domain.ErrInvalidAttribute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTest(t)
			defer tearDownTest(tm)

			result := tm.apply(t, domain.ActionStartSale, "tx-bad", tt.pairs...)
			assert.Equal(t, domain.StatusPermanent, result.Status)
			assert.ErrorIs(t, result.Err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.EqualError(t, result.Err, tt.wantMsg)
			}
		})
	}
}

func TestFixedSell_SettlesListing(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)
	tm.expectChain()

	tm.startSale(t, "1", "10", domain.SaleTypeFixed)

	result := tm.apply(t, domain.ActionFixedSell, "tx-fixed",
		"cw721_address", collectionAddr,
		"token_id", "1",
		"buyer", buyerAddr,
		"seller", sellerAddr,
		"price", "10",
		"messages", "gm")
	require.True(t, result.OK(), result.Message())

	transactions := tm.transactions(t)
	require.Len(t, transactions, 1)
	assert.True(t, transactions[0].Volume.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, buyerAddr, transactions[0].BuyerAddress)
	assert.Equal(t, sellerAddr, transactions[0].SellerAddress)

	activities := tm.activities(t, "1")
	require.Len(t, activities, 2)
	sale := activities[1]
	assert.Equal(t, domain.EventKindSale, sale.EventKind)
	assert.Equal(t, "usei", sale.Denom)
	assert.JSONEq(t, `{"messages":"gm"}`, string(sale.Metadata))

	assert.Nil(t, tm.listing(t, "1"))
}

func TestAcceptSale(t *testing.T) {
	t.Run("price defaults to the listing price", func(t *testing.T) {
		tm := setupTest(t)
		defer tearDownTest(tm)
		tm.expectChain()

		tm.startSale(t, "1", "42", domain.SaleTypeAuction)

		result := tm.apply(t, domain.ActionAcceptSale, "tx-accept",
			"cw721_address", collectionAddr,
			"token_id", "1",
			"buyer", buyerAddr,
			"seller", sellerAddr)
		require.True(t, result.OK(), result.Message())

		transactions := tm.transactions(t)
		require.Len(t, transactions, 1)
		assert.True(t, transactions[0].Volume.Equal(decimal.NewFromInt(42)))
		assert.Nil(t, tm.listing(t, "1"))
	})

	t.Run("explicit price", func(t *testing.T) {
		tm := setupTest(t)
		defer tearDownTest(tm)
		tm.expectChain()

		tm.startSale(t, "1", "42", domain.SaleTypeAuction)

		result := tm.apply(t, domain.ActionAcceptSale, "tx-accept",
			"cw721_address", collectionAddr,
			"token_id", "1",
			"buyer", buyerAddr,
			"seller", sellerAddr,
			"price", "50")
		require.True(t, result.OK(), result.Message())

		transactions := tm.transactions(t)
		require.Len(t, transactions, 1)
		assert.True(t, transactions[0].Volume.Equal(decimal.NewFromInt(50)))
	})
}

func TestListingDeletion_RemovesBiddings(t *testing.T) {
	tests := []struct {
		name   string
		action domain.Action
		pairs  []string
	}{
		{
			name:   "cancel_sale",
			action: domain.ActionCancelSale,
			pairs:  []string{"cw721_address", collectionAddr, "token_id", "1", "seller", sellerAddr},
		},
		{
			name:   "accept_sale",
			action: domain.ActionAcceptSale,
			pairs:  []string{"cw721_address", collectionAddr, "token_id", "1", "buyer", buyerAddr, "seller", sellerAddr, "price", "30"},
		},
		{
			name:   "fixed_sell",
			action: domain.ActionFixedSell,
			pairs:  []string{"cw721_address", collectionAddr, "token_id", "1", "buyer", buyerAddr, "seller", sellerAddr, "price", "30"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTest(t)
			defer tearDownTest(tm)
			tm.expectChain()

			tm.startSale(t, "1", "10", domain.SaleTypeAuction)
			listing := tm.listing(t, "1")
			require.NotNil(t, listing)

			for i, buyer := range []string{buyerAddr, otherBuyerAddr} {
				result := tm.apply(t, domain.ActionBidding, "tx-bid-"+buyer,
					"cw721_address", collectionAddr,
					"token_id", "1",
					"buyer", buyer,
					"price", decimal.NewFromInt(int64(20+i)).String())
				require.True(t, result.OK(), result.Message())
			}

			biddings, err := tm.store.ListBiddings(context.Background(), listing.ID)
			require.NoError(t, err)
			require.Len(t, biddings, 2)

			result := tm.apply(t, tt.action, "tx-end", tt.pairs...)
			require.True(t, result.OK(), result.Message())

			assert.Nil(t, tm.listing(t, "1"))
			biddings, err = tm.store.ListBiddings(context.Background(), listing.ID)
			require.NoError(t, err)
			assert.Empty(t, biddings)
		})
	}
}

func TestCancelSale_RecordsDelist(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)
	tm.expectChain()

	tm.startSale(t, "1", "10", domain.SaleTypeFixed)

	result := tm.apply(t, domain.ActionCancelSale, "tx-cancel",
		"cw721_address", collectionAddr,
		"token_id", "1",
		"seller", sellerAddr)
	require.True(t, result.OK(), result.Message())

	activities := tm.activities(t, "1")
	require.Len(t, activities, 2)
	assert.Equal(t, domain.EventKindDelist, activities[1].EventKind)
	assert.True(t, activities[1].Price.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "usei", activities[1].Denom)
	assert.Equal(t, sellerAddr, activities[1].SellerAddress)
	assert.Empty(t, tm.transactions(t))
}

func TestBidding(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)
	tm.expectChain()

	tm.startSale(t, "1", "10", domain.SaleTypeAuction)
	listing := tm.listing(t, "1")

	bid := func(txHash, buyer, price string) domain.Result {
		return tm.apply(t, domain.ActionBidding, txHash,
			"cw721_address", collectionAddr,
			"token_id", "1",
			"buyer", buyer,
			"price", price)
	}

	require.True(t, bid("tx-bid-1", buyerAddr, "11").OK())
	require.True(t, bid("tx-bid-2", buyerAddr, "15").OK())
	require.True(t, bid("tx-bid-3", otherBuyerAddr, "16").OK())

	// a rebid replaces the price of the earlier bid
	biddings, err := tm.store.ListBiddings(context.Background(), listing.ID)
	require.NoError(t, err)
	require.Len(t, biddings, 2)
	assert.Equal(t, buyerAddr, biddings[0].BuyerAddress)
	assert.True(t, biddings[0].Price.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, "tx-bid-2", biddings[0].TxHash)

	// every bid is a transaction against the listing seller; the listing stays live
	transactions := tm.transactions(t)
	require.Len(t, transactions, 3)
	for _, tx := range transactions {
		assert.Equal(t, sellerAddr, tx.SellerAddress)
	}
	assert.NotNil(t, tm.listing(t, "1"))

	result := tm.apply(t, domain.ActionCancelPropose, "tx-withdraw",
		"cw721_address", collectionAddr,
		"token_id", "1",
		"buyer", buyerAddr)
	require.True(t, result.OK(), result.Message())

	biddings, err = tm.store.ListBiddings(context.Background(), listing.ID)
	require.NoError(t, err)
	require.Len(t, biddings, 1)
	assert.Equal(t, otherBuyerAddr, biddings[0].BuyerAddress)
}

func TestEditSale(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)
	tm.expectChain()

	tm.startSale(t, "1", "10", domain.SaleTypeAuction)

	result := tm.apply(t, domain.ActionEditSale, "tx-edit-1",
		"cw721_address", collectionAddr,
		"token_id", "1",
		"min_bid_increment_percent", "3")
	require.True(t, result.OK(), result.Message())

	listing := tm.listing(t, "1")
	assert.True(t, listing.Price.Equal(decimal.NewFromInt(10)))
	assert.True(t, listing.MinBidIncrementPercent.Decimal.Equal(decimal.NewFromInt(3)))

	result = tm.apply(t, domain.ActionEditSale, "tx-edit-2",
		"cw721_address", collectionAddr,
		"token_id", "1",
		"initial_price", "12")
	require.True(t, result.OK(), result.Message())

	listing = tm.listing(t, "1")
	assert.True(t, listing.Price.Equal(decimal.NewFromInt(12)))
	assert.True(t, listing.MinBidIncrementPercent.Decimal.Equal(decimal.NewFromInt(3)))
}

func TestListingActions_WithoutListing(t *testing.T) {
	tests := []struct {
		action domain.Action
		pairs  []string
	}{
		{domain.ActionCancelSale, []string{"cw721_address", collectionAddr, "token_id", "9", "seller", sellerAddr}},
		{domain.ActionAcceptSale, []string{"cw721_address", collectionAddr, "token_id", "9", "buyer", buyerAddr, "seller", sellerAddr}},
		{domain.ActionFixedSell, []string{"cw721_address", collectionAddr, "token_id", "9", "buyer", buyerAddr, "seller", sellerAddr, "price", "1"}},
		{domain.ActionBidding, []string{"cw721_address", collectionAddr, "token_id", "9", "buyer", buyerAddr, "price", "1"}},
		{domain.ActionEditSale, []string{"cw721_address", collectionAddr, "token_id", "9", "initial_price", "1"}},
		{domain.ActionCancelPropose, []string{"cw721_address", collectionAddr, "token_id", "9", "buyer", buyerAddr}},
	}

	for _, tt := range tests {
		t.Run(tt.action.String(), func(t *testing.T) {
			tm := setupTest(t)
			defer tearDownTest(tm)

			result := tm.apply(t, tt.action, "tx-missing", tt.pairs...)
			assert.Equal(t, domain.StatusPermanent, result.Status)
			assert.ErrorIs(t, result.Err, domain.ErrListingNotFound)
			assert.EqualError(t, result.Err, "Not found listing when "+tt.action.String()+": tx-missing")
		})
	}
}

func (tm *testMachineMocks) makeOffer(t *testing.T, txHash, buyer, price, quantity, tokenID string) {
	t.Helper()
	pairs := []string{
		"cw721_address", collectionAddr,
		"buyer", buyer,
		"quantity", quantity,
		"duration", `{"start":1714564800,"end":1717243200}`,
		"price", price,
		"denom", "usei",
	}
	if tokenID != "" {
		pairs = append(pairs, "token_id", tokenID)
	}
	result := tm.apply(t, domain.ActionMakeCollectionOffer, txHash, pairs...)
	require.True(t, result.OK(), result.Message())
}

func (tm *testMachineMocks) acceptOffer(t *testing.T, txHash, tokenID, buyer, price string) domain.Result {
	t.Helper()
	return tm.apply(t, domain.ActionAcceptOffer, txHash,
		"cw721_address", collectionAddr,
		"token_id", tokenID,
		"buyer", buyer,
		"seller", sellerAddr,
		"price", price)
}

func TestMakeOffer(t *testing.T) {
	t.Run("single nft offer", func(t *testing.T) {
		tm := setupTest(t)
		defer tearDownTest(tm)
		tm.expectChain()

		tm.makeOffer(t, "tx-offer", buyerAddr, "5", "1", "3")

		nft := tm.nft(t, "3")
		offer, err := tm.store.GetNftOfferByBuyer(context.Background(), nft.ID, buyerAddr)
		require.NoError(t, err)
		require.NotNil(t, offer)
		assert.True(t, offer.Price.Equal(decimal.NewFromInt(5)))
		assert.Equal(t, int64(1714564800), offer.StartDate.Unix())
		assert.Equal(t, int64(1717243200), offer.EndDate.Unix())

		activities := tm.activities(t, "3")
		require.Len(t, activities, 1)
		assert.Equal(t, domain.EventKindMakeOffer, activities[0].EventKind)
		assert.Equal(t, buyerAddr, activities[0].BuyerAddress)
	})

	t.Run("collection offer", func(t *testing.T) {
		tm := setupTest(t)
		defer tearDownTest(tm)
		tm.expectChain()

		tm.makeOffer(t, "tx-offer", buyerAddr, "5", "2", "")

		collection, err := tm.store.GetCollectionByAddress(context.Background(), collectionAddr)
		require.NoError(t, err)
		require.NotNil(t, collection)
		assert.Equal(t, "Sei Punks", collection.Name)

		offer, err := tm.store.GetCollectionOfferByBuyer(context.Background(), collectionAddr, buyerAddr)
		require.NoError(t, err)
		require.NotNil(t, offer)
		assert.Equal(t, int64(2), offer.Quantity)
		assert.Equal(t, int64(0), offer.CurrentQuantity)
		assert.Equal(t, domain.OfferStatusPending, offer.Status)
	})

	t.Run("second offer of a buyer is a no-op", func(t *testing.T) {
		tm := setupTest(t)
		defer tearDownTest(tm)
		tm.expectChain()

		tm.makeOffer(t, "tx-offer-1", buyerAddr, "5", "2", "")

		result := tm.apply(t, domain.ActionMakeCollectionOffer, "tx-offer-2",
			"cw721_address", collectionAddr,
			"buyer", buyerAddr,
			"quantity", "9",
			"duration", `{"start":1,"end":2}`,
			"price", "8",
			"denom", "usei")
		assert.True(t, result.OK())
		assert.True(t, result.Duplicate)
	})

	t.Run("non positive quantity", func(t *testing.T) {
		tm := setupTest(t)
		defer tearDownTest(tm)
		tm.expectChain()

		result := tm.apply(t, domain.ActionMakeCollectionOffer, "tx-offer",
			"cw721_address", collectionAddr,
			"buyer", buyerAddr,
			"quantity", "0",
			"duration", `{"start":1,"end":2}`,
			"price", "8",
			"denom", "usei")
		assert.Equal(t, domain.StatusPermanent, result.Status)
		assert.ErrorIs(t, result.Err, domain.ErrInvalidAttribute)
	})
}

func TestAcceptOffer_CollectionOfferWinsWhenHigher(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)
	tm.expectChain()

	tm.makeOffer(t, "tx-nft-offer", buyerAddr, "100", "1", "1")
	tm.makeOffer(t, "tx-coll-offer", otherBuyerAddr, "150", "3", "")

	result := tm.acceptOffer(t, "tx-accept", "1", otherBuyerAddr, "150")
	require.True(t, result.OK(), result.Message())

	collectionOffer, err := tm.store.GetCollectionOfferByBuyer(context.Background(), collectionAddr, otherBuyerAddr)
	require.NoError(t, err)
	require.NotNil(t, collectionOffer)
	assert.Equal(t, int64(1), collectionOffer.CurrentQuantity)

	nftOffer, err := tm.store.GetNftOfferByBuyer(context.Background(), tm.nft(t, "1").ID, buyerAddr)
	require.NoError(t, err)
	require.NotNil(t, nftOffer, "nft offer must stay untouched")
	assert.True(t, nftOffer.Price.Equal(decimal.NewFromInt(100)))

	transactions := tm.transactions(t)
	require.Len(t, transactions, 1)
	assert.True(t, transactions[0].Volume.Equal(decimal.NewFromInt(150)))
}

func TestAcceptOffer_TieGoesToNftOffer(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)
	tm.expectChain()

	tm.makeOffer(t, "tx-nft-offer", buyerAddr, "100", "1", "1")
	tm.makeOffer(t, "tx-coll-offer", otherBuyerAddr, "100", "3", "")

	result := tm.acceptOffer(t, "tx-accept", "1", buyerAddr, "100")
	require.True(t, result.OK(), result.Message())

	nftOffer, err := tm.store.GetNftOfferByBuyer(context.Background(), tm.nft(t, "1").ID, buyerAddr)
	require.NoError(t, err)
	assert.Nil(t, nftOffer)

	collectionOffer, err := tm.store.GetCollectionOfferByBuyer(context.Background(), collectionAddr, otherBuyerAddr)
	require.NoError(t, err)
	require.NotNil(t, collectionOffer)
	assert.Equal(t, int64(0), collectionOffer.CurrentQuantity)
}

func TestAcceptOffer_CollectionOfferFilledTwice(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)
	tm.expectChain()

	tm.makeOffer(t, "tx-coll-offer", buyerAddr, "5", "2", "")

	result := tm.acceptOffer(t, "tx-accept-1", "1", buyerAddr, "5")
	require.True(t, result.OK(), result.Message())

	offer, err := tm.store.GetCollectionOfferByBuyer(context.Background(), collectionAddr, buyerAddr)
	require.NoError(t, err)
	require.NotNil(t, offer)
	assert.Equal(t, int64(1), offer.CurrentQuantity)
	assert.Equal(t, domain.OfferStatusPending, offer.Status)

	result = tm.acceptOffer(t, "tx-accept-2", "2", buyerAddr, "5")
	require.True(t, result.OK(), result.Message())

	offer, err = tm.store.GetCollectionOfferByBuyer(context.Background(), collectionAddr, buyerAddr)
	require.NoError(t, err)
	assert.Nil(t, offer)

	// the exhausted offer is no longer selectable
	result = tm.acceptOffer(t, "tx-accept-3", "3", buyerAddr, "5")
	assert.Equal(t, domain.StatusPermanent, result.Status)
	assert.ErrorIs(t, result.Err, domain.ErrOfferNotFound)
	assert.EqualError(t, result.Err, "Not found collection_offer or nft_offer when handle accept_offer: tx-accept-3")

	assert.Len(t, tm.transactions(t), 2)
}

func TestAcceptOffer_ConsumesListingWithoutDelist(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)
	tm.expectChain()

	tm.startSale(t, "1", "200", domain.SaleTypeFixed)
	tm.makeOffer(t, "tx-nft-offer", buyerAddr, "100", "1", "1")

	result := tm.acceptOffer(t, "tx-accept", "1", buyerAddr, "100")
	require.True(t, result.OK(), result.Message())

	assert.Nil(t, tm.listing(t, "1"))

	var kinds []domain.EventKind
	for _, activity := range tm.activities(t, "1") {
		kinds = append(kinds, activity.EventKind)
	}
	assert.Equal(t, []domain.EventKind{domain.EventKindList, domain.EventKindMakeOffer, domain.EventKindSale}, kinds)
}

func TestAcceptOffer_ExcludesSellerOffers(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)
	tm.expectChain()

	tm.makeOffer(t, "tx-own-offer", sellerAddr, "100", "1", "1")

	result := tm.acceptOffer(t, "tx-accept", "1", buyerAddr, "100")
	assert.Equal(t, domain.StatusPermanent, result.Status)
	assert.ErrorIs(t, result.Err, domain.ErrOfferNotFound)
}

func TestCancelOffer(t *testing.T) {
	t.Run("single nft offer", func(t *testing.T) {
		tm := setupTest(t)
		defer tearDownTest(tm)
		tm.expectChain()

		tm.makeOffer(t, "tx-offer", buyerAddr, "5", "1", "1")

		result := tm.apply(t, domain.ActionCancelCollectionOffer, "tx-cancel",
			"cw721_address", collectionAddr,
			"token_id", "1",
			"buyer", buyerAddr,
			"price", "5.0")
		require.True(t, result.OK(), result.Message())

		offer, err := tm.store.GetNftOfferByBuyer(context.Background(), tm.nft(t, "1").ID, buyerAddr)
		require.NoError(t, err)
		assert.Nil(t, offer)

		activities := tm.activities(t, "1")
		require.Len(t, activities, 2)
		assert.Equal(t, domain.EventKindCancelOffer, activities[1].EventKind)
		assert.True(t, activities[1].Price.Equal(decimal.NewFromInt(5)))
	})

	t.Run("single nft offer at another price", func(t *testing.T) {
		tm := setupTest(t)
		defer tearDownTest(tm)
		tm.expectChain()

		tm.makeOffer(t, "tx-offer", buyerAddr, "5", "1", "1")

		result := tm.apply(t, domain.ActionCancelCollectionOffer, "tx-cancel",
			"cw721_address", collectionAddr,
			"token_id", "1",
			"buyer", buyerAddr,
			"price", "6")
		assert.Equal(t, domain.StatusPermanent, result.Status)
		assert.EqualError(t, result.Err, "Not found nft_offer when cancel_nft_offer: tx-cancel")
	})

	t.Run("collection offer", func(t *testing.T) {
		tm := setupTest(t)
		defer tearDownTest(tm)
		tm.expectChain()

		tm.makeOffer(t, "tx-offer", buyerAddr, "5", "2", "")

		result := tm.apply(t, domain.ActionCancelCollectionOffer, "tx-cancel",
			"cw721_address", collectionAddr,
			"buyer", buyerAddr,
			"price", "5")
		require.True(t, result.OK(), result.Message())

		offer, err := tm.store.GetCollectionOfferByBuyer(context.Background(), collectionAddr, buyerAddr)
		require.NoError(t, err)
		assert.Nil(t, offer)
	})

	t.Run("missing collection offer is not an error", func(t *testing.T) {
		tm := setupTest(t)
		defer tearDownTest(tm)

		result := tm.apply(t, domain.ActionCancelCollectionOffer, "tx-cancel",
			"cw721_address", collectionAddr,
			"buyer", buyerAddr,
			"price", "5")
		assert.True(t, result.OK(), result.Message())
	})
}

func TestApply_Claim(t *testing.T) {
	t.Run("replay with the same key is a duplicate", func(t *testing.T) {
		tm := setupTest(t)
		defer tearDownTest(tm)
		tm.expectChain()

		in := marketplace.Input{
			Action: domain.ActionStartSale,
			Event: event("action", "start_sale",
				"cw721_address", collectionAddr,
				"token_id", "1",
				"initial_price", "10",
				"sale_type", "fixed",
				"seller", sellerAddr,
				"denom", "usei"),
			TxHash: "tx-start",
			Date:   blockDate,
			Claim:  claimWith("key-1"),
		}

		first := tm.machine.Apply(context.Background(), in)
		require.True(t, first.OK(), first.Message())
		assert.False(t, first.Duplicate)

		// the listing is gone, so only the claim stops a second listing
		result := tm.apply(t, domain.ActionCancelSale, "tx-cancel",
			"cw721_address", collectionAddr, "token_id", "1", "seller", sellerAddr)
		require.True(t, result.OK(), result.Message())

		replay := tm.machine.Apply(context.Background(), in)
		assert.True(t, replay.OK())
		assert.True(t, replay.Duplicate)

		assert.Nil(t, tm.listing(t, "1"))
		assert.Len(t, tm.activities(t, "1"), 2)
	})

	t.Run("claim is rolled back with a failed handler", func(t *testing.T) {
		tm := setupTest(t)
		defer tearDownTest(tm)

		result := tm.machine.Apply(context.Background(), marketplace.Input{
			Action: domain.ActionCancelSale,
			Event:  event("cw721_address", collectionAddr, "token_id", "1", "seller", sellerAddr),
			TxHash: "tx-cancel",
			Date:   blockDate,
			Claim:  claimWith("key-2"),
		})
		assert.Equal(t, domain.StatusPermanent, result.Status)

		seen, err := tm.store.HasSuccessfulStreamTx(context.Background(), "key-2")
		require.NoError(t, err)
		assert.False(t, seen)
	})

	t.Run("claim failure is transient", func(t *testing.T) {
		tm := setupTest(t)
		defer tearDownTest(tm)

		result := tm.machine.Apply(context.Background(), marketplace.Input{
			Action: domain.ActionCancelPropose,
			Event:  event("cw721_address", collectionAddr, "token_id", "1", "buyer", buyerAddr),
			TxHash: "tx",
			Date:   blockDate,
			Claim: func(ctx context.Context, tx store.Store) (bool, error) {
				return false, errors.New("connection reset by peer")
			},
		})
		assert.Equal(t, domain.StatusTransient, result.Status)
	})
}

func TestCw721Actions(t *testing.T) {
	t.Run("mint materializes and sets the owner", func(t *testing.T) {
		tm := setupTest(t)
		defer tearDownTest(tm)
		tm.expectChain()

		result := tm.apply(t, domain.ActionMint, "tx-mint",
			"_contract_address", collectionAddr,
			"token_id", "1",
			"owner", "sei1minter")
		require.True(t, result.OK(), result.Message())
		assert.Equal(t, "sei1minter", tm.nft(t, "1").OwnerAddress)
	})

	t.Run("transfer_nft moves to the recipient", func(t *testing.T) {
		tm := setupTest(t)
		defer tearDownTest(tm)
		tm.expectChain()

		result := tm.apply(t, domain.ActionTransferNft, "tx-transfer",
			"_contract_address", collectionAddr,
			"token_id", "1",
			"recipient", buyerAddr)
		require.True(t, result.OK(), result.Message())
		assert.Equal(t, buyerAddr, tm.nft(t, "1").OwnerAddress)
	})

	t.Run("send_nft updates a known nft", func(t *testing.T) {
		tm := setupTest(t)
		defer tearDownTest(tm)
		tm.expectChain()

		tm.startSale(t, "1", "10", domain.SaleTypeFixed)

		result := tm.apply(t, domain.ActionSendNft, "tx-send",
			"_contract_address", collectionAddr,
			"token_id", "1",
			"recipient", "sei1escrow")
		require.True(t, result.OK(), result.Message())
		assert.Equal(t, "sei1escrow", tm.nft(t, "1").OwnerAddress)
	})

	t.Run("send_nft does not materialize", func(t *testing.T) {
		tm := setupTest(t)
		defer tearDownTest(tm)

		result := tm.apply(t, domain.ActionSendNft, "tx-send",
			"_contract_address", collectionAddr,
			"token_id", "1",
			"recipient", "sei1escrow")
		assert.Equal(t, domain.StatusPermanent, result.Status)
		assert.EqualError(t, result.Err, "Not found nft when send_nft: tx-send")
	})

	t.Run("missing owner", func(t *testing.T) {
		tm := setupTest(t)
		defer tearDownTest(tm)

		result := tm.apply(t, domain.ActionMint, "tx-mint",
			"_contract_address", collectionAddr,
			"token_id", "1")
		assert.Equal(t, domain.StatusPermanent, result.Status)
		assert.EqualError(t, result.Err, "missing event attribute in mint: tx-mint")
	})
}

func TestApply_ChainErrors(t *testing.T) {
	t.Run("unreachable chain is transient", func(t *testing.T) {
		tm := setupTest(t)
		defer tearDownTest(tm)

		tm.chain.EXPECT().
			ContractInfo(gomock.Any(), collectionAddr).
			Return(nil, errors.New("dial tcp: connection refused"))

		result := tm.apply(t, domain.ActionMint, "tx-mint",
			"_contract_address", collectionAddr,
			"token_id", "1",
			"owner", "sei1minter")
		assert.Equal(t, domain.StatusTransient, result.Status)
	})

	t.Run("client error from the contract is permanent", func(t *testing.T) {
		tm := setupTest(t)
		defer tearDownTest(tm)

		tm.chain.EXPECT().
			ContractInfo(gomock.Any(), collectionAddr).
			Return(nil, &adapter.StatusError{StatusCode: 400, Body: "not a cw721"})

		result := tm.apply(t, domain.ActionMint, "tx-mint",
			"_contract_address", collectionAddr,
			"token_id", "1",
			"owner", "sei1minter")
		assert.Equal(t, domain.StatusPermanent, result.Status)
	})

	for _, statusErr := range []*adapter.StatusError{
		{StatusCode: 429, Body: "slow down"},
		{StatusCode: 408, Body: "request timeout"},
	} {
		t.Run(fmt.Sprintf("client error %d is transient", statusErr.StatusCode), func(t *testing.T) {
			tm := setupTest(t)
			defer tearDownTest(tm)

			tm.chain.EXPECT().
				ContractInfo(gomock.Any(), collectionAddr).
				Return(nil, statusErr)

			result := tm.apply(t, domain.ActionMint, "tx-mint",
				"_contract_address", collectionAddr,
				"token_id", "1",
				"owner", "sei1minter")
			assert.Equal(t, domain.StatusTransient, result.Status)
		})
	}
}

func TestApply_UnsupportedAction(t *testing.T) {
	tm := setupTest(t)
	defer tearDownTest(tm)

	result := tm.apply(t, domain.Action("approve"), "tx")
	assert.Equal(t, domain.StatusPermanent, result.Status)
}
