package chain

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/feral-file/mrkt-indexer/internal/adapter"
	"github.com/feral-file/mrkt-indexer/internal/decoder"
	"github.com/feral-file/mrkt-indexer/internal/domain"
)

const (
	// txSearchPerPage is the largest page CometBFT serves
	txSearchPerPage = 100
	// maxTxSearchPages bounds the paging loop of a single height
	maxTxSearchPages = 100
)

// Tx is a transaction of a block with its decoded wasm events
type Tx struct {
	Hash   string
	Height uint64
	Code   uint32
	Events []domain.ContractEvent
}

// ContractInfo is the response of the cw721 contract_info query
type ContractInfo struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// NftInfo is the response of the cw721 nft_info query
type NftInfo struct {
	TokenURI  string       `json:"token_uri"`
	Extension NftExtension `json:"extension"`
}

// NftExtension carries the optional royalty of a token
type NftExtension struct {
	RoyaltyPercentage *decimal.Decimal `json:"royalty_percentage,omitempty"`
}

// Config holds the chain endpoints
type Config struct {
	RPCURL  string
	RESTURL string
	APIKey  string
}

// Client defines the chain operations used by the indexer
//
//go:generate mockgen -source=client.go -destination=../mocks/chain_client.go -package=mocks -mock_names=Client=MockChainClient
type Client interface {
	// LatestHeight returns the latest block height from the RPC status endpoint
	LatestHeight(ctx context.Context) (uint64, error)

	// BlockTime returns the header time of a block
	BlockTime(ctx context.Context, height uint64) (time.Time, error)

	// SearchTxs returns every successful transaction of a block, in block order
	SearchTxs(ctx context.Context, height uint64) ([]Tx, error)

	// ContractInfo queries the name and symbol of a cw721 contract
	ContractInfo(ctx context.Context, address string) (*ContractInfo, error)

	// NftInfo queries the token_uri and royalty of a token
	NftInfo(ctx context.Context, address, tokenID string) (*NftInfo, error)

	// OwnerOf queries the current owner of a token
	OwnerOf(ctx context.Context, address, tokenID string) (string, error)

	// NumTokens queries the number of tokens minted by a contract
	NumTokens(ctx context.Context, address string) (uint64, error)

	// AllTokens queries a page of token ids, starting after startAfter
	AllTokens(ctx context.Context, address, startAfter string, limit int) ([]string, error)
}

type client struct {
	config     Config
	httpClient adapter.HTTPClient
	json       adapter.JSON
	base64     adapter.Base64
	decoder    *decoder.Decoder
}

// NewClient creates a new chain client
func NewClient(config Config, httpClient adapter.HTTPClient, json adapter.JSON, base64 adapter.Base64) Client {
	config.RPCURL = strings.TrimRight(config.RPCURL, "/")
	config.RESTURL = strings.TrimRight(config.RESTURL, "/")

	return &client{
		config:     config,
		httpClient: httpClient,
		json:       json,
		base64:     base64,
		decoder:    decoder.New(base64, json),
	}
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type rpcResponse[T any] struct {
	Result *T                `json:"result"`
	Error  *decoder.RPCError `json:"error"`
}

type statusResult struct {
	SyncInfo struct {
		LatestBlockHeight string `json:"latest_block_height"`
	} `json:"sync_info"`
}

type blockResult struct {
	Block struct {
		Header struct {
			Height string    `json:"height"`
			Time   time.Time `json:"time"`
		} `json:"header"`
	} `json:"block"`
}

type txSearchResult struct {
	Txs []struct {
		Hash     string `json:"hash"`
		Height   string `json:"height"`
		Index    uint32 `json:"index"`
		TxResult struct {
			Code   uint32             `json:"code"`
			Events []decoder.RawEvent `json:"events"`
		} `json:"tx_result"`
	} `json:"txs"`
	TotalCount string `json:"total_count"`
}

// call performs a JSON-RPC request against the RPC endpoint
func call[T any](ctx context.Context, c *client, method string, params interface{}) (*T, error) {
	body, err := c.json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.New().String(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	respBody, err := c.httpClient.Post(ctx, c.config.RPCURL, "application/json", body)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}

	var resp rpcResponse[T]
	if err := c.json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s response: %w", method, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%s failed: %w", method, resp.Error)
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("%s returned an empty result", method)
	}

	return resp.Result, nil
}

// LatestHeight returns the latest block height from the RPC status endpoint
func (c *client) LatestHeight(ctx context.Context) (uint64, error) {
	result, err := call[statusResult](ctx, c, "status", map[string]interface{}{})
	if err != nil {
		return 0, err
	}

	height, err := strconv.ParseUint(result.SyncInfo.LatestBlockHeight, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse latest block height: %w", err)
	}

	return height, nil
}

// BlockTime returns the header time of a block
func (c *client) BlockTime(ctx context.Context, height uint64) (time.Time, error) {
	result, err := call[blockResult](ctx, c, "block", map[string]string{
		"height": strconv.FormatUint(height, 10),
	})
	if err != nil {
		return time.Time{}, err
	}

	if result.Block.Header.Time.IsZero() {
		return time.Time{}, fmt.Errorf("block %d has no header time", height)
	}

	return result.Block.Header.Time.UTC(), nil
}

// SearchTxs returns every successful transaction of a block, in block order.
// Failed transactions carry no state changes and are dropped.
func (c *client) SearchTxs(ctx context.Context, height uint64) ([]Tx, error) {
	var txs []Tx
	seen, total := 0, 0

	for page := 1; page <= maxTxSearchPages; page++ {
		result, err := call[txSearchResult](ctx, c, "tx_search", map[string]interface{}{
			"query":    fmt.Sprintf("tx.height=%d", height),
			"prove":    false,
			"page":     strconv.Itoa(page),
			"per_page": strconv.Itoa(txSearchPerPage),
			"order_by": "asc",
		})
		if err != nil {
			return nil, err
		}

		total, err = strconv.Atoi(result.TotalCount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse tx_search total_count: %w", err)
		}

		for _, raw := range result.Txs {
			seen++
			if raw.TxResult.Code != 0 {
				continue
			}

			events, err := c.decoder.WasmEvents(raw.TxResult.Events, decoder.EncodingAuto)
			if err != nil {
				return nil, fmt.Errorf("failed to decode events of tx %s: %w", raw.Hash, err)
			}

			txs = append(txs, Tx{
				Hash:   raw.Hash,
				Height: height,
				Code:   raw.TxResult.Code,
				Events: events,
			})
		}

		if seen >= total || len(result.Txs) == 0 {
			return txs, nil
		}
	}

	// A partial height must not be reported as complete
	return nil, fmt.Errorf("tx_search page limit reached at height %d: %d of %d txs", height, seen, total)
}

// smartQuery runs a CosmWasm smart query through the REST endpoint and decodes its data
func (c *client) smartQuery(ctx context.Context, address string, query interface{}, result interface{}) error {
	msg, err := c.json.Marshal(query)
	if err != nil {
		return fmt.Errorf("failed to marshal smart query: %w", err)
	}

	endpoint := fmt.Sprintf("%s/cosmwasm/wasm/v1/contract/%s/smart/%s",
		c.config.RESTURL, url.PathEscape(address), url.PathEscape(c.base64.Encode(msg)))

	var headers map[string]string
	if c.config.APIKey != "" {
		headers = map[string]string{"x-apikey": c.config.APIKey}
	}

	var resp struct {
		Data interface{} `json:"data"`
	}
	resp.Data = result
	if err := c.httpClient.GetWithHeaders(ctx, endpoint, headers, &resp); err != nil {
		return fmt.Errorf("failed to query contract %s: %w", address, err)
	}

	return nil
}

// ContractInfo queries the name and symbol of a cw721 contract
func (c *client) ContractInfo(ctx context.Context, address string) (*ContractInfo, error) {
	var info ContractInfo
	err := c.smartQuery(ctx, address, map[string]interface{}{
		"contract_info": struct{}{},
	}, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// NftInfo queries the token_uri and royalty of a token
func (c *client) NftInfo(ctx context.Context, address, tokenID string) (*NftInfo, error) {
	var info NftInfo
	err := c.smartQuery(ctx, address, map[string]interface{}{
		"nft_info": map[string]string{"token_id": tokenID},
	}, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// OwnerOf queries the current owner of a token
func (c *client) OwnerOf(ctx context.Context, address, tokenID string) (string, error) {
	var owner struct {
		Owner string `json:"owner"`
	}
	err := c.smartQuery(ctx, address, map[string]interface{}{
		"owner_of": map[string]string{"token_id": tokenID},
	}, &owner)
	if err != nil {
		return "", err
	}
	return owner.Owner, nil
}

// NumTokens queries the number of tokens minted by a contract
func (c *client) NumTokens(ctx context.Context, address string) (uint64, error) {
	var count struct {
		Count uint64 `json:"count"`
	}
	err := c.smartQuery(ctx, address, map[string]interface{}{
		"num_tokens": struct{}{},
	}, &count)
	if err != nil {
		return 0, err
	}
	return count.Count, nil
}

// AllTokens queries a page of token ids, starting after startAfter
func (c *client) AllTokens(ctx context.Context, address, startAfter string, limit int) ([]string, error) {
	params := map[string]interface{}{}
	if startAfter != "" {
		params["start_after"] = startAfter
	}
	if limit > 0 {
		params["limit"] = limit
	}

	var tokens struct {
		Tokens []string `json:"tokens"`
	}
	err := c.smartQuery(ctx, address, map[string]interface{}{
		"all_tokens": params,
	}, &tokens)
	if err != nil {
		return nil, err
	}
	return tokens.Tokens, nil
}
