package domain

// Action is the `action` attribute of a wasm event
type Action string

// Marketplace actions, in dispatch order
const (
	ActionStartSale             Action = "start_sale"
	ActionAcceptOffer           Action = "accept_offer"
	ActionAcceptSale            Action = "accept_sale"
	ActionCancelSale            Action = "cancel_sale"
	ActionMakeCollectionOffer   Action = "make_collection_offer"
	ActionCancelCollectionOffer Action = "cancel_collection_offer"
	ActionFixedSell             Action = "fixed_sell"
	ActionBidding               Action = "bidding"
	ActionEditSale              Action = "edit_sale"
	ActionCancelPropose         Action = "cancel_propose"
)

// Token lifecycle actions emitted by cw721 contracts
const (
	ActionMint        Action = "mint"
	ActionTransferNft Action = "transfer_nft"
	ActionSendNft     Action = "send_nft"
)

// ActionKind separates the two disjoint action sets
type ActionKind string

const (
	ActionKindMarketplace ActionKind = "marketplace"
	ActionKindCw721       ActionKind = "cw721"
)

var marketplaceActions = []Action{
	ActionStartSale,
	ActionAcceptOffer,
	ActionAcceptSale,
	ActionCancelSale,
	ActionMakeCollectionOffer,
	ActionCancelCollectionOffer,
	ActionFixedSell,
	ActionBidding,
	ActionEditSale,
	ActionCancelPropose,
}

var cw721Actions = []Action{
	ActionMint,
	ActionTransferNft,
	ActionSendNft,
}

// MarketplaceActions returns the marketplace action set in dispatch order
func MarketplaceActions() []Action {
	return append([]Action(nil), marketplaceActions...)
}

// Cw721Actions returns the token lifecycle action set
func Cw721Actions() []Action {
	return append([]Action(nil), cw721Actions...)
}

func (a Action) String() string {
	return string(a)
}
