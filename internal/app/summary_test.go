package app

import (
	"testing"

	"spreader/internal/binding"
	"spreader/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchangeSymbol(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	snap := cat.Snapshot()

	cases := []struct {
		market string
		pair   string
		want   string
	}{
		{"binance", "ETH-USDT", "ETHUSDT"},
		{"gate_io", "ETH-USDT", "ETH_USDT"},
		{"dydx", "AAVE-DAI", "AAVE-DAI"},
		{"unlisted", "AAVE-DAI", "AAVE-DAI"},
	}
	for _, tc := range cases {
		t.Run(tc.market, func(t *testing.T) {
			m := binding.MarketTradingPair{Market: catalog.NewHandle(tc.market, "id"), TradingPair: tc.pair}
			assert.Equal(t, tc.want, exchangeSymbol(snap, m))
		})
	}
}

func TestCatalogBlock(t *testing.T) {
	cat, err := catalog.FromBytes([]byte("markets:\n  dydx:\n    pairs: [AAVE-DAI, ETH-DAI]\n  kucoin: {}\n"))
	require.NoError(t, err)

	block := catalogBlock(cat.Snapshot())
	assert.Contains(t, block, "market catalog v1")
	assert.Contains(t, block, "  dydx: 2 pairs, e.g. AAVE-DAI\n")
	assert.Contains(t, block, "  kucoin: any pair\n")
}
