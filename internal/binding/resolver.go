package binding

import (
	"strings"

	"spreader/internal/catalog"
	"spreader/internal/cfgerr"
	"spreader/internal/pkg/symbol"
)

// Resolver turns validated (market, pair) values into bindings. Opening the
// connector is delegated to the factory.
type Resolver struct {
	factory      catalog.Factory
	walletTokens []string
}

func NewResolver(factory catalog.Factory, walletTokens []string) *Resolver {
	tokens := make([]string, 0, len(walletTokens))
	for _, t := range walletTokens {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			tokens = append(tokens, t)
		}
	}
	return &Resolver{factory: factory, walletTokens: tokens}
}

// Resolve binds pair on marketID. marketID must be one of the required
// exchanges collected during validation. The pair is decomposed before the
// market is opened.
func (r *Resolver) Resolve(marketID, pair string, required []string) (MarketTradingPair, error) {
	market := strings.ToLower(strings.TrimSpace(marketID))
	sym, err := symbol.Split(pair)
	if err != nil {
		return MarketTradingPair{}, cfgerr.Wrap(cfgerr.KindAssetDecomposition, "", err,
			"trading pair "+pair+" must be in BASE-QUOTE format")
	}
	if !contains(required, market) {
		return MarketTradingPair{}, cfgerr.Errorf(cfgerr.KindMarketInstantiation, "",
			"market %s was not declared as a required exchange", market)
	}
	h, err := r.factory.Open(market)
	if err != nil {
		return MarketTradingPair{}, cfgerr.Wrap(cfgerr.KindMarketInstantiation, "", err,
			"failed to initialize market "+market+": "+err.Error())
	}
	return MarketTradingPair{
		Market:      h,
		TradingPair: sym.Internal(),
		BaseAsset:   sym.Base,
		QuoteAsset:  sym.Quote,
	}, nil
}

// RequiredAssets is the wallet asset set for the maker binding: its base and
// quote assets, restricted to the configured wallet tokens when there are
// any.
func (r *Resolver) RequiredAssets(maker MarketTradingPair) []string {
	var out []string
	sym := symbol.Symbol{Base: maker.BaseAsset, Quote: maker.QuoteAsset}
	for _, asset := range sym.Assets() {
		if asset == "" || contains(out, asset) {
			continue
		}
		if len(r.walletTokens) > 0 && !contains(r.walletTokens, strings.ToUpper(asset)) {
			continue
		}
		out = append(out, asset)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
