package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/feral-file/mrkt-indexer/internal/domain"
	"github.com/feral-file/mrkt-indexer/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

var testDate = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func buildTestCollection(address string) *schema.Collection {
	return &schema.Collection{
		Address: address,
		Name:    "Collection " + address,
		Symbol:  "COL",
	}
}

// createTestNft creates the collection if needed and an nft with one trait
func createTestNft(t *testing.T, store Store, address, tokenID, owner string) *schema.Nft {
	ctx := context.Background()

	_, err := store.CreateCollection(ctx, buildTestCollection(address))
	require.NoError(t, err)

	nft := &schema.Nft{
		TokenAddress: address,
		TokenID:      tokenID,
		OwnerAddress: owner,
		Name:         fmt.Sprintf("Token #%s", tokenID),
		TokenURI:     "ipfs://token/" + tokenID,
	}
	_, err = store.CreateNft(ctx, nft, []schema.NftTrait{{Attribute: "color", Value: "red"}})
	require.NoError(t, err)
	require.NotZero(t, nft.ID)
	return nft
}

func buildTestListing(nft *schema.Nft, seller string, price int64) *schema.Listing {
	return &schema.Listing{
		NftID:             nft.ID,
		CollectionAddress: nft.TokenAddress,
		SellerAddress:     seller,
		Price:             decimal.NewFromInt(price),
		Denom:             domain.DEFAULT_DENOM,
		SaleType:          domain.SaleTypeFixed,
		TxHash:            "tx-list-" + nft.TokenID,
		CreatedDate:       testDate,
	}
}

func buildTestActivity(nftID int64, kind domain.EventKind, price int64, txHash string) *schema.NftActivity {
	return &schema.NftActivity{
		NftID:     nftID,
		EventKind: kind,
		Price:     decimal.NewFromInt(price),
		Denom:     domain.DEFAULT_DENOM,
		Metadata:  datatypes.JSON(`{}`),
		TxHash:    txHash,
		Date:      testDate,
	}
}

func buildTestTransaction(collection, buyer, seller string, volume int64, txHash string, date time.Time) *schema.Transaction {
	return &schema.Transaction{
		CollectionAddress: collection,
		BuyerAddress:      buyer,
		SellerAddress:     seller,
		Volume:            decimal.NewFromInt(volume),
		TxHash:            txHash,
		Date:              date,
	}
}

func buildTestCollectionOffer(collection, buyer string, price, quantity int64) *schema.CollectionOffer {
	return &schema.CollectionOffer{
		CollectionAddress: collection,
		BuyerAddress:      buyer,
		Price:             decimal.NewFromInt(price),
		Denom:             domain.DEFAULT_DENOM,
		Quantity:          quantity,
		StartDate:         testDate,
		EndDate:           testDate.Add(24 * time.Hour),
		TxHash:            "tx-offer-" + buyer,
		CreatedDate:       testDate,
	}
}

func buildTestNftOffer(nftID int64, buyer string, price int64) *schema.NftOffer {
	return &schema.NftOffer{
		NftID:        nftID,
		BuyerAddress: buyer,
		Price:        decimal.NewFromInt(price),
		Denom:        domain.DEFAULT_DENOM,
		StartDate:    testDate,
		EndDate:      testDate.Add(24 * time.Hour),
		TxHash:       "tx-nft-offer-" + buyer,
		CreatedDate:  testDate,
	}
}

func int64Ptr(v int64) *int64 {
	return &v
}

// =============================================================================
// Tests
// =============================================================================

func testCollections(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("create and get collection", func(t *testing.T) {
		created, err := store.CreateCollection(ctx, buildTestCollection("sei1collection"))
		require.NoError(t, err)
		assert.True(t, created)

		collection, err := store.GetCollectionByAddress(ctx, "sei1collection")
		require.NoError(t, err)
		require.NotNil(t, collection)
		assert.Equal(t, "COL", collection.Symbol)
		assert.False(t, collection.RoyaltyPercentage.Valid)
	})

	t.Run("duplicate create is a no-op", func(t *testing.T) {
		created, err := store.CreateCollection(ctx, buildTestCollection("sei1dup"))
		require.NoError(t, err)
		assert.True(t, created)

		created, err = store.CreateCollection(ctx, buildTestCollection("sei1dup"))
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("get unknown collection returns nil", func(t *testing.T) {
		collection, err := store.GetCollectionByAddress(ctx, "sei1unknown")
		require.NoError(t, err)
		assert.Nil(t, collection)
	})

	t.Run("royalty is set once", func(t *testing.T) {
		require.NoError(t, store.SetCollectionRoyalty(ctx, "sei1collection", decimal.RequireFromString("5")))
		require.NoError(t, store.SetCollectionRoyalty(ctx, "sei1collection", decimal.RequireFromString("7.5")))

		collection, err := store.GetCollectionByAddress(ctx, "sei1collection")
		require.NoError(t, err)
		require.True(t, collection.RoyaltyPercentage.Valid)
		assert.True(t, decimal.RequireFromString("5").Equal(collection.RoyaltyPercentage.Decimal))
	})

	t.Run("list addresses", func(t *testing.T) {
		addresses, err := store.ListCollectionAddresses(ctx)
		require.NoError(t, err)
		assert.Contains(t, addresses, "sei1collection")
		assert.Contains(t, addresses, "sei1dup")
	})
}

func testNfts(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("create nft with traits", func(t *testing.T) {
		nft := createTestNft(t, store, "sei1nfts", "1", "sei1owner")

		traits, err := store.GetNftTraits(ctx, nft.ID)
		require.NoError(t, err)
		require.Len(t, traits, 1)
		assert.Equal(t, "color", traits[0].Attribute)
		assert.Equal(t, "red", traits[0].Value)
	})

	t.Run("duplicate create reloads the stored row", func(t *testing.T) {
		existing := createTestNft(t, store, "sei1nfts", "2", "sei1owner")

		nft := &schema.Nft{TokenAddress: "sei1nfts", TokenID: "2", Name: "other"}
		created, err := store.CreateNft(ctx, nft, []schema.NftTrait{{Attribute: "size", Value: "xl"}})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, existing.ID, nft.ID)
		assert.Equal(t, "Token #2", nft.Name)

		traits, err := store.GetNftTraits(ctx, nft.ID)
		require.NoError(t, err)
		assert.Len(t, traits, 1)
	})

	t.Run("update owner", func(t *testing.T) {
		createTestNft(t, store, "sei1nfts", "3", "sei1owner")

		updated, err := store.UpdateNftOwner(ctx, "sei1nfts", "3", "sei1recipient")
		require.NoError(t, err)
		assert.True(t, updated)

		nft, err := store.GetNft(ctx, "sei1nfts", "3")
		require.NoError(t, err)
		assert.Equal(t, "sei1recipient", nft.OwnerAddress)
	})

	t.Run("update owner of unknown nft", func(t *testing.T) {
		updated, err := store.UpdateNftOwner(ctx, "sei1nfts", "404", "sei1recipient")
		require.NoError(t, err)
		assert.False(t, updated)
	})
}

func testListings(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("one live listing per nft", func(t *testing.T) {
		nft := createTestNft(t, store, "sei1listings", "1", "sei1seller")

		created, err := store.CreateListingWithActivity(ctx, CreateListingInput{
			Listing:  buildTestListing(nft, "sei1seller", 10),
			Activity: buildTestActivity(nft.ID, domain.EventKindList, 10, "tx-list-1"),
		})
		require.NoError(t, err)
		assert.True(t, created)

		created, err = store.CreateListingWithActivity(ctx, CreateListingInput{
			Listing:  buildTestListing(nft, "sei1seller", 20),
			Activity: buildTestActivity(nft.ID, domain.EventKindList, 20, "tx-list-2"),
		})
		require.NoError(t, err)
		assert.False(t, created)

		listing, err := store.GetListingByNftID(ctx, nft.ID)
		require.NoError(t, err)
		require.NotNil(t, listing)
		assert.True(t, decimal.NewFromInt(10).Equal(listing.Price))

		activities, err := store.ListActivities(ctx, nft.ID)
		require.NoError(t, err)
		assert.Len(t, activities, 1)
	})

	t.Run("update only set fields", func(t *testing.T) {
		nft := createTestNft(t, store, "sei1listings", "2", "sei1seller")
		listing := buildTestListing(nft, "sei1seller", 10)
		listing.MinBidIncrementPercent = decimal.NewNullDecimal(decimal.NewFromInt(5))
		_, err := store.CreateListingWithActivity(ctx, CreateListingInput{
			Listing:  listing,
			Activity: buildTestActivity(nft.ID, domain.EventKindList, 10, "tx-list"),
		})
		require.NoError(t, err)

		price := decimal.NewFromInt(42)
		require.NoError(t, store.UpdateListing(ctx, UpdateListingInput{ListingID: listing.ID, Price: &price}))

		updated, err := store.GetListingByNftID(ctx, nft.ID)
		require.NoError(t, err)
		assert.True(t, price.Equal(updated.Price))
		require.True(t, updated.MinBidIncrementPercent.Valid)
		assert.True(t, decimal.NewFromInt(5).Equal(updated.MinBidIncrementPercent.Decimal))

		// Nothing to update
		require.NoError(t, store.UpdateListing(ctx, UpdateListingInput{ListingID: listing.ID}))
	})

	t.Run("delete listing removes its biddings", func(t *testing.T) {
		nft := createTestNft(t, store, "sei1listings", "3", "sei1seller")
		listing := buildTestListing(nft, "sei1seller", 10)
		_, err := store.CreateListingWithActivity(ctx, CreateListingInput{
			Listing:  listing,
			Activity: buildTestActivity(nft.ID, domain.EventKindList, 10, "tx-list"),
		})
		require.NoError(t, err)

		for _, buyer := range []string{"sei1b1", "sei1b2"} {
			err := store.CreateBiddingWithTransaction(ctx,
				&schema.Bidding{ListingID: listing.ID, BuyerAddress: buyer, Price: decimal.NewFromInt(11), TxHash: "tx-bid", CreatedDate: testDate},
				buildTestTransaction(nft.TokenAddress, buyer, "sei1seller", 11, "tx-bid", testDate))
			require.NoError(t, err)
		}

		biddings, err := store.ListBiddings(ctx, listing.ID)
		require.NoError(t, err)
		assert.Len(t, biddings, 2)

		err = store.DeleteListingWithActivity(ctx, listing.ID, buildTestActivity(nft.ID, domain.EventKindDelist, 10, "tx-delist"))
		require.NoError(t, err)

		got, err := store.GetListingByNftID(ctx, nft.ID)
		require.NoError(t, err)
		assert.Nil(t, got)

		biddings, err = store.ListBiddings(ctx, listing.ID)
		require.NoError(t, err)
		assert.Empty(t, biddings)
	})
}

func testBiddings(t *testing.T, store Store) {
	ctx := context.Background()

	nft := createTestNft(t, store, "sei1biddings", "1", "sei1seller")
	listing := buildTestListing(nft, "sei1seller", 10)
	_, err := store.CreateListingWithActivity(ctx, CreateListingInput{
		Listing:  listing,
		Activity: buildTestActivity(nft.ID, domain.EventKindList, 10, "tx-list"),
	})
	require.NoError(t, err)

	t.Run("rebid replaces the price", func(t *testing.T) {
		for _, price := range []int64{11, 15} {
			err := store.CreateBiddingWithTransaction(ctx,
				&schema.Bidding{ListingID: listing.ID, BuyerAddress: "sei1buyer", Price: decimal.NewFromInt(price), TxHash: "tx", CreatedDate: testDate},
				buildTestTransaction(nft.TokenAddress, "sei1buyer", "sei1seller", price, "tx", testDate))
			require.NoError(t, err)
		}

		biddings, err := store.ListBiddings(ctx, listing.ID)
		require.NoError(t, err)
		require.Len(t, biddings, 1)
		assert.True(t, decimal.NewFromInt(15).Equal(biddings[0].Price))

		transactions, err := store.ListTransactions(ctx, nft.TokenAddress)
		require.NoError(t, err)
		assert.Len(t, transactions, 2)
	})

	t.Run("delete biddings of buyer", func(t *testing.T) {
		deleted, err := store.DeleteBiddings(ctx, listing.ID, "sei1buyer")
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		deleted, err = store.DeleteBiddings(ctx, listing.ID, "sei1buyer")
		require.NoError(t, err)
		assert.Equal(t, int64(0), deleted)
	})
}

func testOffers(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("highest nft offer excludes the given buyer", func(t *testing.T) {
		nft := createTestNft(t, store, "sei1offers", "1", "sei1seller")
		for buyer, price := range map[string]int64{"sei1a": 5, "sei1b": 9, "sei1seller": 50} {
			created, err := store.CreateNftOfferWithActivity(ctx, buildTestNftOffer(nft.ID, buyer, price),
				buildTestActivity(nft.ID, domain.EventKindMakeOffer, price, "tx-"+buyer))
			require.NoError(t, err)
			assert.True(t, created)
		}

		highest, err := store.FindHighestNftOffer(ctx, nft.ID, "sei1seller")
		require.NoError(t, err)
		require.NotNil(t, highest)
		assert.Equal(t, "sei1b", highest.BuyerAddress)

		none, err := store.FindHighestNftOffer(ctx, nft.ID+1000, "sei1seller")
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("duplicate nft offer is a no-op", func(t *testing.T) {
		nft := createTestNft(t, store, "sei1offers", "2", "sei1seller")
		created, err := store.CreateNftOfferWithActivity(ctx, buildTestNftOffer(nft.ID, "sei1a", 5),
			buildTestActivity(nft.ID, domain.EventKindMakeOffer, 5, "tx-1"))
		require.NoError(t, err)
		assert.True(t, created)

		created, err = store.CreateNftOfferWithActivity(ctx, buildTestNftOffer(nft.ID, "sei1a", 7),
			buildTestActivity(nft.ID, domain.EventKindMakeOffer, 7, "tx-2"))
		require.NoError(t, err)
		assert.False(t, created)

		activities, err := store.ListActivities(ctx, nft.ID)
		require.NoError(t, err)
		assert.Len(t, activities, 1)

		offer, err := store.GetNftOfferByBuyer(ctx, nft.ID, "sei1a")
		require.NoError(t, err)
		require.NotNil(t, offer)
		require.NoError(t, store.DeleteNftOfferWithActivity(ctx, offer.ID,
			buildTestActivity(nft.ID, domain.EventKindCancelOffer, 5, "tx-3")))

		offer, err = store.GetNftOfferByBuyer(ctx, nft.ID, "sei1a")
		require.NoError(t, err)
		assert.Nil(t, offer)
	})

	t.Run("highest collection offer skips exhausted offers", func(t *testing.T) {
		_, err := store.CreateCollection(ctx, buildTestCollection("sei1coll"))
		require.NoError(t, err)

		low := buildTestCollectionOffer("sei1coll", "sei1low", 3, 1)
		high := buildTestCollectionOffer("sei1coll", "sei1high", 8, 1)
		own := buildTestCollectionOffer("sei1coll", "sei1seller", 100, 1)
		for _, offer := range []*schema.CollectionOffer{low, high, own} {
			created, err := store.CreateCollectionOffer(ctx, offer)
			require.NoError(t, err)
			assert.True(t, created)
		}

		highest, err := store.FindHighestCollectionOffer(ctx, "sei1coll", "sei1seller")
		require.NoError(t, err)
		require.NotNil(t, highest)
		assert.Equal(t, "sei1high", highest.BuyerAddress)
		assert.Equal(t, domain.OfferStatusPending, highest.Status)

		nft := createTestNft(t, store, "sei1coll", "1", "sei1seller")
		err = store.SettleSale(ctx, SettleSaleInput{
			CollectionOfferID: int64Ptr(high.ID),
			Transaction:       buildTestTransaction("sei1coll", "sei1high", "sei1seller", 8, "tx-sale", testDate),
			Activity:          buildTestActivity(nft.ID, domain.EventKindSale, 8, "tx-sale"),
		})
		require.NoError(t, err)

		highest, err = store.FindHighestCollectionOffer(ctx, "sei1coll", "sei1seller")
		require.NoError(t, err)
		require.NotNil(t, highest)
		assert.Equal(t, "sei1low", highest.BuyerAddress)

		// Completed offers are removed
		gone, err := store.GetCollectionOfferByBuyer(ctx, "sei1coll", "sei1high")
		require.NoError(t, err)
		assert.Nil(t, gone)
	})

	t.Run("collection offer fills up to quantity", func(t *testing.T) {
		_, err := store.CreateCollection(ctx, buildTestCollection("sei1fill"))
		require.NoError(t, err)
		offer := buildTestCollectionOffer("sei1fill", "sei1buyer", 5, 2)
		_, err = store.CreateCollectionOffer(ctx, offer)
		require.NoError(t, err)

		nft := createTestNft(t, store, "sei1fill", "1", "sei1seller")
		settle := func(txHash string) error {
			return store.SettleSale(ctx, SettleSaleInput{
				CollectionOfferID: int64Ptr(offer.ID),
				Transaction:       buildTestTransaction("sei1fill", "sei1buyer", "sei1seller", 5, txHash, testDate),
				Activity:          buildTestActivity(nft.ID, domain.EventKindSale, 5, txHash),
			})
		}

		require.NoError(t, settle("tx-1"))
		stored, err := store.GetCollectionOfferByBuyer(ctx, "sei1fill", "sei1buyer")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, int64(1), stored.CurrentQuantity)
		assert.Equal(t, domain.OfferStatusPending, stored.Status)

		require.NoError(t, settle("tx-2"))
		stored, err = store.GetCollectionOfferByBuyer(ctx, "sei1fill", "sei1buyer")
		require.NoError(t, err)
		assert.Nil(t, stored)

		// A third fill is rejected and rolls back the whole sale
		err = settle("tx-3")
		assert.ErrorIs(t, err, ErrOfferExhausted)

		transactions, err := store.ListTransactions(ctx, "sei1fill")
		require.NoError(t, err)
		assert.Len(t, transactions, 2)
	})
}

func testSettleSale(t *testing.T, store Store) {
	ctx := context.Background()

	nft := createTestNft(t, store, "sei1settle", "1", "sei1seller")
	listing := buildTestListing(nft, "sei1seller", 10)
	_, err := store.CreateListingWithActivity(ctx, CreateListingInput{
		Listing:  listing,
		Activity: buildTestActivity(nft.ID, domain.EventKindList, 10, "tx-list"),
	})
	require.NoError(t, err)

	offer := buildTestNftOffer(nft.ID, "sei1buyer", 12)
	_, err = store.CreateNftOfferWithActivity(ctx, offer, buildTestActivity(nft.ID, domain.EventKindMakeOffer, 12, "tx-offer"))
	require.NoError(t, err)

	err = store.SettleSale(ctx, SettleSaleInput{
		ListingID:   int64Ptr(listing.ID),
		NftOfferID:  int64Ptr(offer.ID),
		Transaction: buildTestTransaction("sei1settle", "sei1buyer", "sei1seller", 12, "tx-sale", testDate),
		Activity:    buildTestActivity(nft.ID, domain.EventKindSale, 12, "tx-sale"),
	})
	require.NoError(t, err)

	got, err := store.GetListingByNftID(ctx, nft.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	gotOffer, err := store.GetNftOfferByBuyer(ctx, nft.ID, "sei1buyer")
	require.NoError(t, err)
	assert.Nil(t, gotOffer)

	transactions, err := store.ListTransactions(ctx, "sei1settle")
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.True(t, decimal.NewFromInt(12).Equal(transactions[0].Volume))

	activities, err := store.ListActivities(ctx, nft.ID)
	require.NoError(t, err)
	require.Len(t, activities, 3)
	assert.Equal(t, domain.EventKindSale, activities[2].EventKind)
}

func testLedger(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("claim once per key", func(t *testing.T) {
		row := &schema.StreamTx{ID: "01HX0000000000000000000001", TxHash: "tx1", Action: "start_sale", DedupKey: "tx1|start_sale|abc", Source: domain.SourceStream}
		claimed, err := store.ClaimStreamTx(ctx, row)
		require.NoError(t, err)
		assert.True(t, claimed)

		dup := &schema.StreamTx{ID: "01HX0000000000000000000002", TxHash: "tx1", Action: "start_sale", DedupKey: "tx1|start_sale|abc", Source: domain.SourceScanner}
		claimed, err = store.ClaimStreamTx(ctx, dup)
		require.NoError(t, err)
		assert.False(t, claimed)

		seen, err := store.HasSuccessfulStreamTx(ctx, "tx1|start_sale|abc")
		require.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("failures do not count as seen", func(t *testing.T) {
		for i, id := range []string{"01HX0000000000000000000003", "01HX0000000000000000000004"} {
			err := store.CreateStreamTx(ctx, &schema.StreamTx{
				ID: id, TxHash: "tx2", Action: "bidding", DedupKey: "tx2|bidding|def",
				Source: domain.SourceStream, IsFailure: true, Message: fmt.Sprintf("failure %d", i),
			})
			require.NoError(t, err)
		}

		seen, err := store.HasSuccessfulStreamTx(ctx, "tx2|bidding|def")
		require.NoError(t, err)
		assert.False(t, seen)

		failure := true
		row, err := store.FindStreamTxByTxHash(ctx, "tx2", &failure)
		require.NoError(t, err)
		require.NotNil(t, row)
		assert.Equal(t, "failure 1", row.Message)

		success := false
		row, err = store.FindStreamTxByTxHash(ctx, "tx2", &success)
		require.NoError(t, err)
		assert.Nil(t, row)

		failures, err := store.ListStreamTxFailures(ctx, 1)
		require.NoError(t, err)
		require.Len(t, failures, 1)
		assert.Equal(t, "01HX0000000000000000000004", failures[0].ID)
	})

	t.Run("cw721 failures and blocks", func(t *testing.T) {
		require.NoError(t, store.CreateCwr721FailureTx(ctx, &schema.Cwr721FailureTx{
			ID: "01HX0000000000000000000005", TxHash: "tx3", Action: "mint", Height: 7, Message: "boom",
		}))
		failures, err := store.ListCwr721Failures(ctx, 10)
		require.NoError(t, err)
		require.Len(t, failures, 1)
		assert.Equal(t, uint64(7), failures[0].Height)

		require.NoError(t, store.CreateBlock(ctx, &schema.Block{Height: 7, TxHash: "tx3", Sender: "sei1sender", Action: "mint", Date: testDate}))
	})
}

func testCheckpoint(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("get missing checkpoint", func(t *testing.T) {
		_, found, err := store.GetCheckpoint(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("init keeps the first value", func(t *testing.T) {
		value, err := store.InitCheckpoint(ctx, domain.CURRENT_HEIGHT_KEY, 100)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), value)

		value, err = store.InitCheckpoint(ctx, domain.CURRENT_HEIGHT_KEY, 5)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), value)
	})

	t.Run("advance never regresses", func(t *testing.T) {
		advanced, err := store.AdvanceCheckpoint(ctx, domain.CURRENT_HEIGHT_KEY, 101)
		require.NoError(t, err)
		assert.True(t, advanced)

		// 99 < 101 numerically but "99" > "101" as text
		advanced, err = store.AdvanceCheckpoint(ctx, domain.CURRENT_HEIGHT_KEY, 99)
		require.NoError(t, err)
		assert.False(t, advanced)

		advanced, err = store.AdvanceCheckpoint(ctx, domain.CURRENT_HEIGHT_KEY, 101)
		require.NoError(t, err)
		assert.False(t, advanced)

		value, found, err := store.GetCheckpoint(ctx, domain.CURRENT_HEIGHT_KEY)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, uint64(101), value)
	})

	t.Run("advance creates a missing checkpoint", func(t *testing.T) {
		advanced, err := store.AdvanceCheckpoint(ctx, "fresh", 3)
		require.NoError(t, err)
		assert.True(t, advanced)
	})

	t.Run("set overwrites", func(t *testing.T) {
		require.NoError(t, store.SetCheckpoint(ctx, domain.CURRENT_HEIGHT_KEY, 50))
		value, _, err := store.GetCheckpoint(ctx, domain.CURRENT_HEIGHT_KEY)
		require.NoError(t, err)
		assert.Equal(t, uint64(50), value)
	})
}

func testCollectionStats(t *testing.T, store Store) {
	ctx := context.Background()
	now := testDate.Add(48 * time.Hour)

	first := createTestNft(t, store, "sei1stats", "1", "sei1alice")
	second := createTestNft(t, store, "sei1stats", "2", "sei1bob")
	createTestNft(t, store, "sei1stats", "3", "sei1alice")

	for i, nft := range []*schema.Nft{first, second} {
		_, err := store.CreateListingWithActivity(ctx, CreateListingInput{
			Listing:  buildTestListing(nft, nft.OwnerAddress, int64(20-i*5)),
			Activity: buildTestActivity(nft.ID, domain.EventKindList, 10, "tx"),
		})
		require.NoError(t, err)
	}

	for _, tx := range []*schema.Transaction{
		buildTestTransaction("sei1stats", "b", "s", 1, "tx-a", now.Add(-30*time.Minute)),
		buildTestTransaction("sei1stats", "b", "s", 2, "tx-b", now.Add(-5*time.Hour)),
		buildTestTransaction("sei1stats", "b", "s", 4, "tx-c", now.Add(-3*24*time.Hour)),
		buildTestTransaction("sei1stats", "b", "s", 8, "tx-d", now.Add(-30*24*time.Hour)),
	} {
		require.NoError(t, store.CreateBiddingWithTransaction(ctx,
			&schema.Bidding{ListingID: mustListing(t, store, first).ID, BuyerAddress: tx.TxHash, Price: tx.Volume, TxHash: tx.TxHash, CreatedDate: tx.Date},
			tx))
	}

	stats, err := store.GetCollectionStats(ctx, "sei1stats", now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Supply)
	assert.Equal(t, int64(2), stats.Owners)
	assert.Equal(t, int64(2), stats.Listed)
	require.True(t, stats.FloorPrice.Valid)
	assert.True(t, decimal.NewFromInt(15).Equal(stats.FloorPrice.Decimal))
	assert.Equal(t, int64(4), stats.Sales)
	assert.True(t, decimal.NewFromInt(15).Equal(stats.Volume), stats.Volume.String())
	assert.True(t, decimal.NewFromInt(1).Equal(stats.Volume1h))
	assert.True(t, decimal.NewFromInt(3).Equal(stats.Volume24h))
	assert.True(t, decimal.NewFromInt(7).Equal(stats.Volume7d))

	empty, err := store.GetCollectionStats(ctx, "sei1empty", now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.Supply)
	assert.False(t, empty.FloorPrice.Valid)
	assert.True(t, empty.Volume.IsZero())
}

func mustListing(t *testing.T, store Store, nft *schema.Nft) *schema.Listing {
	listing, err := store.GetListingByNftID(context.Background(), nft.ID)
	require.NoError(t, err)
	require.NotNil(t, listing)
	return listing
}

func testTransactionRollback(t *testing.T, store Store) {
	ctx := context.Background()

	errBoom := fmt.Errorf("boom")
	err := store.Transaction(ctx, func(tx Store) error {
		if _, err := tx.CreateCollection(ctx, buildTestCollection("sei1rollback")); err != nil {
			return err
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	collection, err := store.GetCollectionByAddress(ctx, "sei1rollback")
	require.NoError(t, err)
	assert.Nil(t, collection)

	err = store.Transaction(ctx, func(tx Store) error {
		_, err := tx.CreateCollection(ctx, buildTestCollection("sei1commit"))
		return err
	})
	require.NoError(t, err)

	collection, err = store.GetCollectionByAddress(ctx, "sei1commit")
	require.NoError(t, err)
	assert.NotNil(t, collection)
}

// RunStoreTests runs every store test against the given implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"Collections", testCollections},
		{"Nfts", testNfts},
		{"Listings", testListings},
		{"Biddings", testBiddings},
		{"Offers", testOffers},
		{"SettleSale", testSettleSale},
		{"Ledger", testLedger},
		{"Checkpoint", testCheckpoint},
		{"CollectionStats", testCollectionStats},
		{"TransactionRollback", testTransactionRollback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
