package binding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"spreader/internal/catalog"
	"spreader/internal/field"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// MarketRecord is the plain form of one role binding.
type MarketRecord struct {
	Role        Role   `json:"role" yaml:"role" msgpack:"role" mapstructure:"role"`
	Market      string `json:"market" yaml:"market" msgpack:"market" mapstructure:"market"`
	HandleID    string `json:"handle_id" yaml:"handle_id" msgpack:"handle_id" mapstructure:"handle_id"`
	TradingPair string `json:"trading_pair" yaml:"trading_pair" msgpack:"trading_pair" mapstructure:"trading_pair"`
	BaseAsset   string `json:"base_asset" yaml:"base_asset" msgpack:"base_asset" mapstructure:"base_asset"`
	QuoteAsset  string `json:"quote_asset" yaml:"quote_asset" msgpack:"quote_asset" mapstructure:"quote_asset"`
}

// Record is the structured form of a finished pass: raw field values plus
// the resolved bindings and scalars. It is what gets archived and replayed.
type Record struct {
	PassID               string            `json:"pass_id" yaml:"pass_id" msgpack:"pass_id" mapstructure:"pass_id"`
	Strategy             string            `json:"strategy" yaml:"strategy" msgpack:"strategy" mapstructure:"strategy"`
	Fields               map[string]string `json:"fields" yaml:"fields" msgpack:"fields" mapstructure:"fields"`
	Markets              []MarketRecord    `json:"markets" yaml:"markets" msgpack:"markets" mapstructure:"markets"`
	OrderAmount          string            `json:"order_amount" yaml:"order_amount" msgpack:"order_amount" mapstructure:"order_amount"`
	OrderSpread          string            `json:"order_spread" yaml:"order_spread" msgpack:"order_spread" mapstructure:"order_spread"`
	StatusReportInterval time.Duration     `json:"status_report_interval" yaml:"status_report_interval" msgpack:"status_report_interval" mapstructure:"status_report_interval"`
	LoggingOptions       []string          `json:"logging_options" yaml:"logging_options" msgpack:"logging_options" mapstructure:"logging_options"`
	Notify               bool              `json:"notify" yaml:"notify" msgpack:"notify" mapstructure:"notify"`
	RequiredExchanges    []string          `json:"required_exchanges" yaml:"required_exchanges" msgpack:"required_exchanges" mapstructure:"required_exchanges"`
	RequiredAssets       []string          `json:"required_assets" yaml:"required_assets" msgpack:"required_assets" mapstructure:"required_assets"`
	CreatedAt            time.Time         `json:"created_at" yaml:"created_at" msgpack:"created_at" mapstructure:"created_at"`
}

// NewRecord captures values and sb.
func NewRecord(passID string, values *field.ResolvedSet, sb StrategyBinding) Record {
	rec := Record{
		PassID:               passID,
		Strategy:             sb.Strategy(),
		Fields:               values.Raw(),
		OrderAmount:          sb.OrderAmount().String(),
		OrderSpread:          sb.OrderSpread().String(),
		StatusReportInterval: sb.StatusReportInterval(),
		LoggingOptions:       sb.LoggingFlags().Names(),
		Notify:               sb.Notify(),
		RequiredExchanges:    sb.RequiredExchanges(),
		RequiredAssets:       sb.RequiredAssets(),
		CreatedAt:            time.Now().UTC().Truncate(time.Second),
	}
	for _, pair := range sb.MarketPairs() {
		rec.Markets = append(rec.Markets, marketRecord(RoleMaker, pair.Maker), marketRecord(RoleRef, pair.Ref))
		if pair.HasHedger() {
			rec.Markets = append(rec.Markets, marketRecord(RoleHedger, pair.Hedger))
		}
	}
	return rec
}

func marketRecord(role Role, m MarketTradingPair) MarketRecord {
	return MarketRecord{
		Role:        role,
		Market:      m.Market.Name(),
		HandleID:    m.Market.ID(),
		TradingPair: m.TradingPair,
		BaseAsset:   m.BaseAsset,
		QuoteAsset:  m.QuoteAsset,
	}
}

// Binding rebuilds the strategy binding the record was made from, reusing
// the stored handle ids.
func (r Record) Binding() (StrategyBinding, error) {
	amount, err := decimal.NewFromString(r.OrderAmount)
	if err != nil {
		return StrategyBinding{}, fmt.Errorf("record order_amount: %w", err)
	}
	spread, err := decimal.NewFromString(r.OrderSpread)
	if err != nil {
		return StrategyBinding{}, fmt.Errorf("record order_spread: %w", err)
	}
	flags := LoggingFlags(0)
	if len(r.LoggingOptions) > 0 {
		if flags, err = ParseLoggingFlags(r.LoggingOptions); err != nil {
			return StrategyBinding{}, err
		}
	}
	var pair CrossMarketPair
	for _, m := range r.Markets {
		b := MarketTradingPair{
			Market:      catalog.NewHandle(m.Market, m.HandleID),
			TradingPair: m.TradingPair,
			BaseAsset:   m.BaseAsset,
			QuoteAsset:  m.QuoteAsset,
		}
		switch m.Role {
		case RoleMaker:
			pair.Maker = b
		case RoleRef:
			pair.Ref = b
		case RoleHedger:
			pair.Hedger = b
		default:
			return StrategyBinding{}, fmt.Errorf("record has unknown market role %q", m.Role)
		}
	}
	if pair.Maker.IsZero() || pair.Ref.IsZero() {
		return StrategyBinding{}, fmt.Errorf("record %s lacks maker or ref market", r.PassID)
	}
	return StrategyBinding{
		strategy:             r.Strategy,
		marketPairs:          []CrossMarketPair{pair},
		orderAmount:          amount,
		orderSpread:          spread,
		statusReportInterval: r.StatusReportInterval,
		loggingFlags:         flags,
		notify:               r.Notify,
		requiredExchanges:    append([]string(nil), r.RequiredExchanges...),
		requiredAssets:       append([]string(nil), r.RequiredAssets...),
	}, nil
}

// FieldKeys returns the recorded field keys sorted.
func (r Record) FieldKeys() []string {
	out := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Map converts the record into a generic map with the same keys as its JSON
// form.
func (r Record) Map() (map[string]any, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("record to map: %w", err)
	}
	out := make(map[string]any)
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("record to map: %w", err)
	}
	return out, nil
}

// RecordFromMap decodes a generic map, as produced by Map or by decoding
// JSON/YAML into map[string]any.
func RecordFromMap(m map[string]any) (Record, error) {
	var rec Record
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rec,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return Record{}, err
	}
	if err := dec.Decode(m); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

// Format selects a record encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatMsgpack, "mp":
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("unknown record format %q", s)
	}
}

func EncodeRecord(f Format, r Record) ([]byte, error) {
	switch f {
	case FormatJSON:
		return json.MarshalIndent(r, "", "  ")
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatMsgpack:
		return msgpack.Marshal(r)
	default:
		return nil, fmt.Errorf("unknown record format %q", f)
	}
}

func DecodeRecord(f Format, data []byte) (Record, error) {
	var rec Record
	var err error
	switch f {
	case FormatJSON:
		err = json.Unmarshal(data, &rec)
	case FormatYAML:
		err = yaml.Unmarshal(data, &rec)
	case FormatMsgpack:
		err = msgpack.Unmarshal(data, &rec)
	default:
		return Record{}, fmt.Errorf("unknown record format %q", f)
	}
	if err != nil {
		return Record{}, fmt.Errorf("decode %s record: %w", f, err)
	}
	return rec, nil
}
