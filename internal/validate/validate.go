// Package validate builds the field validators used by the strategy
// registry. Each rule reads upstream values only through the view it is
// handed, never through shared state.
package validate

import (
	"strings"

	"spreader/internal/cfgerr"
	"spreader/internal/field"

	"github.com/shopspring/decimal"
)

// Markets is the catalog view the rules read. catalog.Snapshot satisfies it.
type Markets interface {
	Supported(name string) bool
	Names() []string
	ActivePair(market, pair string) bool
	MinimumOrderAmount(market, pair string) (decimal.Decimal, bool)
}

var one = decimal.NewFromInt(1)

// Market accepts a supported connector name.
func Market(m Markets) field.ValidateFunc {
	return func(v field.Value, _ field.Values) error {
		name := strings.TrimSpace(v.String())
		if name == "" || !m.Supported(name) {
			return cfgerr.Errorf(cfgerr.KindUnsupportedMarket, "",
				"Invalid exchange, please choose value from %s", strings.Join(m.Names(), ", "))
		}
		return nil
	}
}

// TradingPair accepts a pair that is active on the market held by marketKey.
// The market is read from upstream at call time, so a changed market is
// always honoured.
func TradingPair(m Markets, marketKey field.Key) field.ValidateFunc {
	return func(v field.Value, upstream field.Values) error {
		market, err := upstreamString(upstream, marketKey)
		if err != nil {
			return err
		}
		pair := strings.TrimSpace(v.String())
		if pair == "" || !m.ActivePair(market, pair) {
			return cfgerr.Errorf(cfgerr.KindUnknownTradingPair, "",
				"%s is not an active market on %s.", pair, market)
		}
		return nil
	}
}

// OrderAmount enforces the market and pair specific minimum.
func OrderAmount(m Markets, marketKey, pairKey field.Key) field.ValidateFunc {
	return func(v field.Value, upstream field.Values) error {
		market, err := upstreamString(upstream, marketKey)
		if err != nil {
			return err
		}
		pair, err := upstreamString(upstream, pairKey)
		if err != nil {
			return err
		}
		minimum, ok := m.MinimumOrderAmount(market, pair)
		if !ok {
			return cfgerr.Errorf(cfgerr.KindUnsupportedMarket, "",
				"Invalid exchange, please choose value from %s", strings.Join(m.Names(), ", "))
		}
		amount := v.Decimal()
		if amount.LessThan(minimum) {
			return cfgerr.Errorf(cfgerr.KindBelowMinimumOrderAmount, "",
				"Order amount must be at least %s.", minimum.String())
		}
		if !amount.IsPositive() {
			return cfgerr.New(cfgerr.KindInvalidOrderAmount, "", "Order amount must be greater than zero.")
		}
		return nil
	}
}

// MalformedOrderAmount rejects non-numeric order amount input.
func MalformedOrderAmount(string) error {
	return cfgerr.New(cfgerr.KindInvalidOrderAmount, "", "Invalid order amount.")
}

// OrderSpread accepts 0 <= v <= 1.
func OrderSpread() field.ValidateFunc {
	return func(v field.Value, _ field.Values) error {
		spread := v.Decimal()
		if spread.IsNegative() {
			return cfgerr.Errorf(cfgerr.KindSpreadBelowZero, "",
				"Order spread (%s) must be greater than zero.", v.String())
		}
		if spread.GreaterThan(one) {
			return cfgerr.Errorf(cfgerr.KindSpreadAboveOne, "",
				"Order spread (%s) must not be greater than 1", v.String())
		}
		return nil
	}
}

// MalformedOrderSpread rejects non-numeric order spread input.
func MalformedOrderSpread(string) error {
	return cfgerr.New(cfgerr.KindInvalidOrderSpread, "", "Invalid order spread.")
}

func upstreamString(upstream field.Values, key field.Key) (string, error) {
	if upstream == nil {
		return "", cfgerr.Errorf(cfgerr.KindUnresolvedDependency, "", "%s must be set first", key)
	}
	v, ok := upstream.Lookup(key)
	if !ok || strings.TrimSpace(v.String()) == "" {
		return "", cfgerr.Errorf(cfgerr.KindUnresolvedDependency, "", "%s must be set first", key)
	}
	return strings.TrimSpace(v.String()), nil
}
