// Package binding turns resolved field values into market bindings and the
// immutable strategy binding handed to the strategy runtime.
package binding

import (
	"fmt"
	"time"

	"spreader/internal/catalog"

	"github.com/shopspring/decimal"
)

// Role names the part a market plays in a cross-market pair.
type Role string

const (
	RoleMaker  Role = "maker"
	RoleRef    Role = "ref"
	RoleHedger Role = "hedger"
)

// MarketTradingPair binds a market handle to a pair. TradingPair is always
// BaseAsset-QuoteAsset.
type MarketTradingPair struct {
	Market      catalog.Handle
	TradingPair string
	BaseAsset   string
	QuoteAsset  string
}

func (m MarketTradingPair) IsZero() bool { return m.Market.IsZero() }

func (m MarketTradingPair) String() string {
	if m.IsZero() {
		return "<unbound>"
	}
	return fmt.Sprintf("%s:%s", m.Market.Name(), m.TradingPair)
}

// sameRole reports whether two bindings point at the same market and pair.
func (m MarketTradingPair) sameRole(o MarketTradingPair) bool {
	return m.Market.Name() == o.Market.Name() && m.TradingPair == o.TradingPair
}

// CrossMarketPair is the maker/reference pair, optionally with a hedge leg.
type CrossMarketPair struct {
	Maker  MarketTradingPair
	Ref    MarketTradingPair
	Hedger MarketTradingPair
}

func (c CrossMarketPair) HasHedger() bool { return !c.Hedger.IsZero() }

// Bindings is what the resolver produces for one pass.
type Bindings struct {
	Maker  MarketTradingPair
	Ref    MarketTradingPair
	Hedger MarketTradingPair
	// Assets are the maker assets the wallet must hold.
	Assets []string
}

func (b Bindings) Pair() CrossMarketPair {
	return CrossMarketPair{Maker: b.Maker, Ref: b.Ref, Hedger: b.Hedger}
}

// StrategyBinding is the startup contract of the strategy runtime. It cannot
// be modified after Assemble returns it; accessors return copies.
type StrategyBinding struct {
	strategy             string
	marketPairs          []CrossMarketPair
	orderAmount          decimal.Decimal
	orderSpread          decimal.Decimal
	statusReportInterval time.Duration
	loggingFlags         LoggingFlags
	notify               bool
	requiredExchanges    []string
	requiredAssets       []string
}

func (s StrategyBinding) Strategy() string { return s.strategy }

func (s StrategyBinding) MarketPairs() []CrossMarketPair {
	return append([]CrossMarketPair(nil), s.marketPairs...)
}

func (s StrategyBinding) OrderAmount() decimal.Decimal        { return s.orderAmount }
func (s StrategyBinding) OrderSpread() decimal.Decimal        { return s.orderSpread }
func (s StrategyBinding) StatusReportInterval() time.Duration { return s.statusReportInterval }
func (s StrategyBinding) LoggingFlags() LoggingFlags          { return s.loggingFlags }
func (s StrategyBinding) Notify() bool                        { return s.notify }
func (s StrategyBinding) IsZero() bool                        { return len(s.marketPairs) == 0 }

// RequiredExchanges lists the markets to instantiate before start, in the
// order they were validated.
func (s StrategyBinding) RequiredExchanges() []string {
	return append([]string(nil), s.requiredExchanges...)
}

func (s StrategyBinding) RequiredAssets() []string {
	return append([]string(nil), s.requiredAssets...)
}

// Equal compares by value; decimals compare numerically.
func (s StrategyBinding) Equal(o StrategyBinding) bool {
	if s.strategy != o.strategy ||
		!s.orderAmount.Equal(o.orderAmount) ||
		!s.orderSpread.Equal(o.orderSpread) ||
		s.statusReportInterval != o.statusReportInterval ||
		s.loggingFlags != o.loggingFlags ||
		s.notify != o.notify {
		return false
	}
	if len(s.marketPairs) != len(o.marketPairs) {
		return false
	}
	for i := range s.marketPairs {
		if s.marketPairs[i] != o.marketPairs[i] {
			return false
		}
	}
	return equalStrings(s.requiredExchanges, o.requiredExchanges) &&
		equalStrings(s.requiredAssets, o.requiredAssets)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
