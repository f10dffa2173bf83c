package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/feral-file/mrkt-indexer/internal/adapter"
	"github.com/feral-file/mrkt-indexer/internal/domain"
	"github.com/feral-file/mrkt-indexer/internal/logger"
)

// ErrUnsupportedContent is returned when a token_uri serves neither JSON nor media
var ErrUnsupportedContent = errors.New("unsupported metadata content")

// Trait is a normalized metadata attribute
type Trait struct {
	Attribute   string
	Value       string
	DisplayType string
}

// NftMetadata represents the normalized off-chain metadata of a token
type NftMetadata struct {
	Raw         map[string]interface{}
	Name        string
	Description string
	Image       string
	ExternalURL string
	MimeType    string
	Traits      []Trait
}

// Config holds configuration for the metadata resolver
type Config struct {
	// IPFSGateway replaces the ipfs:// scheme
	IPFSGateway string
	// RequestsPerSecond throttles outgoing fetches; zero disables throttling
	RequestsPerSecond float64
	Burst             int
}

// Resolver defines the interface for resolving metadata from a token_uri
//
//go:generate mockgen -source=resolver.go -destination=../mocks/metadata_resolver.go -package=mocks -mock_names=Resolver=MockMetadataResolver
type Resolver interface {
	Resolve(ctx context.Context, tokenURI string) (*NftMetadata, error)
}

type resolver struct {
	httpClient adapter.HTTPClient
	json       adapter.JSON
	base64     adapter.Base64
	limiter    *rate.Limiter
	config     Config
}

// NewResolver creates a metadata resolver
func NewResolver(httpClient adapter.HTTPClient, json adapter.JSON, base64 adapter.Base64, config Config) Resolver {
	if config.IPFSGateway == "" {
		config.IPFSGateway = domain.DEFAULT_IPFS_GATEWAY
	}
	config.IPFSGateway = strings.TrimRight(config.IPFSGateway, "/")

	limiter := rate.NewLimiter(rate.Inf, 0)
	if config.RequestsPerSecond > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}

	return &resolver{
		httpClient: httpClient,
		json:       json,
		base64:     base64,
		limiter:    limiter,
		config:     config,
	}
}

// Resolve fetches and normalizes the metadata behind a token_uri
func (r *resolver) Resolve(ctx context.Context, tokenURI string) (*NftMetadata, error) {
	tokenURI = strings.TrimSpace(tokenURI)
	if tokenURI == "" {
		return nil, fmt.Errorf("empty token_uri")
	}

	if strings.HasPrefix(tokenURI, "data:") {
		raw, err := r.parseDataURI(tokenURI)
		if err != nil {
			return nil, err
		}
		return r.normalize(raw), nil
	}

	url := r.uriToGateway(tokenURI)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("unsupported URI scheme: %s", tokenURI)
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	content, err := r.httpClient.GetBytes(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata from URI %s: %w", url, err)
	}

	kind, mimeType := detectContent(content)
	switch kind {
	case contentMedia:
		logger.DebugCtx(ctx, "token_uri serves media directly", zap.String("url", url), zap.String("mimeType", mimeType))
		return &NftMetadata{Image: url, MimeType: mimeType}, nil
	case contentJSON:
		var raw map[string]interface{}
		if err := r.json.Unmarshal(bytes.TrimPrefix(content, []byte("\xef\xbb\xbf")), &raw); err != nil {
			return nil, fmt.Errorf("failed to parse metadata JSON: %w", err)
		}
		metadata := r.normalize(raw)
		metadata.MimeType = mimeType
		return metadata, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContent, mimeType)
	}
}

// normalize maps a metadata document following the OpenSea metadata standard
// https://docs.opensea.io/docs/metadata-standards
func (r *resolver) normalize(raw map[string]interface{}) *NftMetadata {
	metadata := &NftMetadata{
		Raw:         raw,
		Name:        stringField(raw, "name"),
		Description: stringField(raw, "description"),
		Image:       r.uriToGateway(stringField(raw, "image")),
		ExternalURL: stringField(raw, "external_url"),
	}

	attributes, _ := raw["attributes"].([]interface{})
	for _, item := range attributes {
		attr, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		// trait_type is standard; some collections emit `type` instead
		name := stringField(attr, "trait_type")
		if name == "" {
			name = stringField(attr, "type")
		}

		value, ok := scalarString(attr["value"])
		if name == "" || !ok {
			continue
		}

		metadata.Traits = append(metadata.Traits, Trait{
			Attribute:   name,
			Value:       value,
			DisplayType: stringField(attr, "display_type"),
		})
	}

	return metadata
}

// parseDataURI parses a data URI and returns the metadata
func (r *resolver) parseDataURI(uri string) (map[string]interface{}, error) {
	// data:application/json;base64,<encoded data>
	// or data:application/json,<json data>
	parts := strings.SplitN(uri[len("data:"):], ",", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid data URI format")
	}

	dataType := parts[0]
	data := []byte(parts[1])

	if strings.Contains(dataType, "base64") {
		decoded, err := r.base64.Decode(parts[1])
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64: %w", err)
		}
		data = decoded
	}

	var metadata map[string]interface{}
	if err := r.json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return metadata, nil
}

// uriToGateway converts ipfs:// and ar:// URIs to gateway URLs
func (r *resolver) uriToGateway(uri string) string {
	if after, ok := strings.CutPrefix(uri, "ipfs://"); ok {
		after = strings.TrimPrefix(after, "ipfs/")
		return fmt.Sprintf("%s/ipfs/%s", r.config.IPFSGateway, after)
	}
	if after, ok := strings.CutPrefix(uri, "ar://"); ok {
		return fmt.Sprintf("%s/%s", domain.DEFAULT_ARWEAVE_GATEWAY, after)
	}
	return uri
}

func stringField(m map[string]interface{}, key string) string {
	value, _ := m[key].(string)
	return strings.TrimSpace(value)
}

// scalarString renders a JSON scalar the way it appeared in the document
func scalarString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}
