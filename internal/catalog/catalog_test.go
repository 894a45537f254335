package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
markets:
  dydx:
    example_pair: AAVE-DAI
    pairs: [AAVE-DAI, eth-usdc]
    min_order_amount: 0.1
    min_order_amounts:
      AAVE-DAI: "1.5"
  binance:
    pair_format: binance
    example_pair: ETHUSDT
    pairs: [ETHUSDT, BTCUSDT, BTCUSDT]
    min_order_amount: "0.001"
    credentials: [BINANCE_API_KEY]
  open_book:
    min_order_amount: "0.01"
`

func TestSnapshotQueries(t *testing.T) {
	cat, err := FromBytes([]byte(testCatalog))
	require.NoError(t, err)
	snap := cat.Snapshot()

	assert.Equal(t, int64(1), snap.Version)
	assert.Equal(t, []string{"binance", "dydx", "open_book"}, snap.Names())
	assert.True(t, snap.Supported(" DYDX "))
	assert.False(t, snap.Supported("ftx"))

	t.Run("pairs", func(t *testing.T) {
		assert.True(t, snap.ActivePair("dydx", "AAVE-DAI"))
		assert.True(t, snap.ActivePair("dydx", "ETH-USDC"))
		assert.False(t, snap.ActivePair("dydx", "AAVEDAI"))
		assert.True(t, snap.ActivePair("binance", "btc-usdt"))
		assert.False(t, snap.ActivePair("binance", "ETHUSDT"))
		assert.False(t, snap.ActivePair("ftx", "AAVE-DAI"))
	})

	t.Run("connector without listing accepts any pair", func(t *testing.T) {
		c, ok := snap.Connector("open_book")
		require.True(t, ok)
		assert.False(t, c.ListsPairs())
		assert.True(t, snap.ActivePair("open_book", "AAVEDAI"))
	})

	t.Run("minimums", func(t *testing.T) {
		m, ok := snap.MinimumOrderAmount("dydx", "aave-dai")
		require.True(t, ok)
		assert.True(t, m.Equal(decimal.RequireFromString("1.5")))
		m, _ = snap.MinimumOrderAmount("dydx", "ETH-USDC")
		assert.True(t, m.Equal(decimal.RequireFromString("0.1")))
		_, ok = snap.MinimumOrderAmount("ftx", "AAVE-DAI")
		assert.False(t, ok)
	})

	t.Run("example pair", func(t *testing.T) {
		assert.Equal(t, "AAVE-DAI", snap.ExamplePair("dydx"))
		assert.Equal(t, "ETH-USDT", snap.ExamplePair("binance"))
		assert.Equal(t, "", snap.ExamplePair("open_book"))
	})

	c, _ := snap.Connector("binance")
	assert.Equal(t, []string{"ETH-USDT", "BTC-USDT"}, c.Pairs)
	assert.Equal(t, "spot", c.Kind)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := FromBytes([]byte("markets:\n  dydx:\n    pairz: [AAVE-DAI]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema")

	_, err = FromBytes([]byte("markets: {}\n"))
	assert.Error(t, err)

	_, err = FromBytes([]byte("markets:\n  dydx:\n    kind: futures\n"))
	assert.Error(t, err)
}

func TestDefaultCatalog(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)
	snap := cat.Snapshot()
	for _, name := range []string{"dydx", "ftx_otc", "binance", "gate_io", "kucoin"} {
		assert.True(t, snap.Supported(name), name)
	}
	assert.True(t, snap.ActivePair("ftx_otc", "AAVE-DAI"))
	assert.True(t, snap.ActivePair("gate_io", "ETH-USDT"))
	assert.True(t, snap.ActivePair("kucoin", "AAVEDAI"))
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o644))
	cat, err := Load(path)
	require.NoError(t, err)
	_, ok := cat.Connector("dydx")
	assert.True(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("markets:\n  kucoin: {}\n"), 0o644))
	require.NoError(t, cat.reload())
	snap := cat.Snapshot()
	assert.Equal(t, int64(2), snap.Version)
	assert.Equal(t, []string{"kucoin"}, snap.Names())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWatchFollowsFileUntilClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o644))
	cat, err := Load(path)
	require.NoError(t, err)

	var notified atomic.Int32
	cat.OnChange(func(Snapshot) { notified.Add(1) })
	require.NoError(t, cat.Watch())
	require.NoError(t, cat.Watch(), "second watch is a no-op")

	tmp := filepath.Join(dir, "catalog.yaml.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("markets:\n  kucoin: {}\n"), 0o644))
	require.NoError(t, os.Rename(tmp, path))
	require.Eventually(t, func() bool {
		snap := cat.Snapshot()
		return snap.Supported("kucoin") && !snap.Supported("dydx")
	}, 5*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool { return notified.Load() > 0 }, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, cat.Close())
	require.NoError(t, cat.Close())
	version := cat.Snapshot().Version
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, version, cat.Snapshot().Version, "closed catalog must not reload")
}

func TestWatchNeedsFile(t *testing.T) {
	cat, err := FromBytes([]byte(testCatalog))
	require.NoError(t, err)
	assert.Error(t, cat.Watch())
	assert.NoError(t, cat.Close())
}

func TestSnapshotIsolatedFromReload(t *testing.T) {
	cat, err := FromBytes([]byte(testCatalog))
	require.NoError(t, err)
	before := cat.Snapshot()
	require.NoError(t, cat.reloadBytes([]byte("markets:\n  kucoin: {}\n")))
	assert.True(t, before.Supported("dydx"))
	assert.False(t, cat.Snapshot().Supported("dydx"))
}

func TestEnvFactory(t *testing.T) {
	cat, err := FromBytes([]byte(testCatalog))
	require.NoError(t, err)
	env := map[string]string{}
	f := NewEnvFactory(cat, WithLookup(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))

	h, err := f.Open("dydx")
	require.NoError(t, err)
	assert.Equal(t, "dydx", h.Name())
	assert.False(t, h.IsZero())
	again, err := f.Open("DYDX")
	require.NoError(t, err)
	assert.Equal(t, h, again)

	_, err = f.Open("binance")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCredentials))
	assert.Contains(t, err.Error(), "BINANCE_API_KEY")

	env["BINANCE_API_KEY"] = "k"
	bh, err := f.Open("binance")
	require.NoError(t, err)
	assert.NotEqual(t, h, bh)

	_, err = f.Open("ftx")
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, LoadEnvFile(""))
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SPREADER_TEST_CATALOG_KEY=abc\n"), 0o600))
	t.Setenv("SPREADER_TEST_CATALOG_KEY", "")
	require.NoError(t, os.Unsetenv("SPREADER_TEST_CATALOG_KEY"))
	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "abc", os.Getenv("SPREADER_TEST_CATALOG_KEY"))
}

func TestHandleString(t *testing.T) {
	assert.Equal(t, "<none>", Handle{}.String())
	assert.Equal(t, "dydx#abc", NewHandle("DYDX", "abc").String())
}
