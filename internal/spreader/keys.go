// Package spreader declares the cross exchange spreader configuration and
// runs a resolution pass from raw input to a strategy binding.
package spreader

import (
	"fmt"
	"strings"

	"spreader/internal/cfgerr"
	"spreader/internal/field"
)

const StrategyName = "cross_exchange_spreader"

const (
	KeyStrategy    field.Key = "strategy"
	KeyMakerMarket field.Key = "maker_market"
	KeyRefMarket   field.Key = "ref_market"
	KeyHedgeMarket field.Key = "hedge_market"
	KeyMakerPair   field.Key = "maker_market_trading_pair"
	KeyRefPair     field.Key = "ref_market_trading_pair"
	KeyHedgePair   field.Key = "hedge_market_trading_pair"
	KeyOrderAmount field.Key = "order_amount"
	KeyOrderSpread field.Key = "order_spread"
)

var allKeys = []field.Key{
	KeyStrategy,
	KeyMakerMarket,
	KeyRefMarket,
	KeyHedgeMarket,
	KeyMakerPair,
	KeyRefPair,
	KeyHedgePair,
	KeyOrderAmount,
	KeyOrderSpread,
}

// ParseKey maps a key read from input to the enumeration. Anything else,
// including near misses, is an UnknownField error.
func ParseKey(s string) (field.Key, error) {
	raw := strings.TrimSpace(s)
	for _, k := range allKeys {
		if string(k) == raw {
			return k, nil
		}
	}
	return "", cfgerr.Errorf(cfgerr.KindUnknownField, raw, "unknown config field: %s", raw)
}

// Variant selects the two-market (maker/ref) or three-market (with hedge)
// configuration.
type Variant string

const (
	TwoMarket   Variant = "two_market"
	ThreeMarket Variant = "three_market"
)

func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case "", TwoMarket:
		return TwoMarket, nil
	case ThreeMarket:
		return ThreeMarket, nil
	default:
		return "", fmt.Errorf("unknown strategy variant %q", s)
	}
}

// Keys returns the field keys of the variant in declaration order.
func (v Variant) Keys() []field.Key {
	out := make([]field.Key, 0, len(allKeys))
	for _, k := range allKeys {
		if v != ThreeMarket && (k == KeyHedgeMarket || k == KeyHedgePair) {
			continue
		}
		out = append(out, k)
	}
	return out
}
