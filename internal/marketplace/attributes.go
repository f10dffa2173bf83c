package marketplace

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feral-file/mrkt-indexer/internal/domain"
)

// Event attribute keys
const (
	attrCw721Address           = "cw721_address"
	attrTokenID                = "token_id"
	attrInitialPrice           = "initial_price"
	attrSaleType               = "sale_type"
	attrSeller                 = "seller"
	attrBuyer                  = "buyer"
	attrDenom                  = "denom"
	attrPrice                  = "price"
	attrQuantity               = "quantity"
	attrDuration               = "duration"
	attrDurationType           = "duration_type"
	attrMinBidIncrementPercent = "min_bid_increment_percent"
	attrMessages               = "messages"
	attrOwner                  = "owner"
	attrRecipient              = "recipient"
)

// requireAttributes fails with the missing attribute error when any key is absent or empty
func requireAttributes(in Input, keys ...string) error {
	if _, missing := in.Event.Missing(keys...); missing {
		return domain.MissingAttribute(in.Action, in.TxHash)
	}
	return nil
}

func invalidAttribute(in Input, key string, err error) error {
	return domain.NewPermanentError(domain.ErrInvalidAttribute,
		"invalid %s in %s: %s: %v", key, in.Action, in.TxHash, err)
}

// parseDecimal reads a required numeric attribute
func parseDecimal(in Input, key string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(in.Event.Get(key)))
	if err != nil {
		return decimal.Zero, invalidAttribute(in, key, err)
	}
	return value, nil
}

// parseOptionalDecimal reads a numeric attribute, returning nil when it is absent or empty
func parseOptionalDecimal(in Input, key string) (*decimal.Decimal, error) {
	if in.Event.Get(key) == "" {
		return nil, nil
	}
	value, err := parseDecimal(in, key)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func parseQuantity(in Input) (int64, error) {
	quantity, err := strconv.ParseInt(strings.TrimSpace(in.Event.Get(attrQuantity)), 10, 64)
	if err != nil {
		return 0, invalidAttribute(in, attrQuantity, err)
	}
	if quantity <= 0 {
		return 0, invalidAttribute(in, attrQuantity, fmt.Errorf("quantity must be positive, got %d", quantity))
	}
	return quantity, nil
}

// durationPayload is the `{"start": ..., "end": ...}` JSON carried by duration attributes.
// The contract emits unix seconds either as numbers or as strings.
type durationPayload struct {
	Start interface{} `json:"start"`
	End   interface{} `json:"end"`
}

// parseWindow decodes a duration attribute into a UTC time window
func (m *machine) parseWindow(in Input, key string) (domain.TimeWindow, error) {
	var payload durationPayload
	if err := m.json.Unmarshal([]byte(in.Event.Get(key)), &payload); err != nil {
		return domain.TimeWindow{}, invalidAttribute(in, key, err)
	}

	start, err := unixSeconds(payload.Start)
	if err != nil {
		return domain.TimeWindow{}, invalidAttribute(in, key, fmt.Errorf("start: %w", err))
	}
	end, err := unixSeconds(payload.End)
	if err != nil {
		return domain.TimeWindow{}, invalidAttribute(in, key, fmt.Errorf("end: %w", err))
	}

	return domain.TimeWindow{Start: start, End: end}, nil
}

func unixSeconds(v interface{}) (time.Time, error) {
	var seconds decimal.Decimal
	switch value := v.(type) {
	case float64:
		seconds = decimal.NewFromFloat(value)
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return time.Time{}, err
		}
		seconds = parsed
	case nil:
		return time.Time{}, fmt.Errorf("missing value")
	default:
		return time.Time{}, fmt.Errorf("unexpected type %T", v)
	}

	nanos := seconds.Mul(decimal.NewFromInt(int64(time.Second))).IntPart()
	return time.Unix(0, nanos).UTC(), nil
}

// activityMetadata encodes the free-form metadata of an activity row
func (m *machine) activityMetadata(fields map[string]interface{}) ([]byte, error) {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	data, err := m.json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal activity metadata: %w", err)
	}
	return data, nil
}
