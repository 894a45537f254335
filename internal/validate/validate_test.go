package validate

import (
	"errors"
	"testing"

	"spreader/internal/cfgerr"
	"spreader/internal/field"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMarkets struct {
	pairs map[string][]string
	mins  map[string]decimal.Decimal
}

func (s stubMarkets) Supported(name string) bool {
	_, ok := s.pairs[name]
	return ok
}

func (s stubMarkets) Names() []string {
	return []string{"dydx", "ftx_otc"}
}

func (s stubMarkets) ActivePair(market, pair string) bool {
	pairs, ok := s.pairs[market]
	if !ok {
		return false
	}
	if len(pairs) == 0 {
		return true
	}
	for _, p := range pairs {
		if p == pair {
			return true
		}
	}
	return false
}

func (s stubMarkets) MinimumOrderAmount(market, pair string) (decimal.Decimal, bool) {
	if !s.Supported(market) {
		return decimal.Zero, false
	}
	return s.mins[market+"/"+pair], true
}

func newStub() stubMarkets {
	return stubMarkets{
		pairs: map[string][]string{
			"dydx":    {"AAVE-DAI", "ETH-USDC"},
			"ftx_otc": {"AAVE-DAI"},
			"kucoin":  nil,
		},
		mins: map[string]decimal.Decimal{
			"dydx/AAVE-DAI": decimal.RequireFromString("1.5"),
			"dydx/ETH-USDC": decimal.RequireFromString("0.01"),
		},
	}
}

func dec(t *testing.T, raw string) field.Value {
	t.Helper()
	v, err := field.TypeDecimal.Parse(raw)
	require.NoError(t, err)
	return v
}

func TestMarket(t *testing.T) {
	check := Market(newStub())
	assert.NoError(t, check(field.StringValue("dydx"), nil))

	err := check(field.StringValue("ftx"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cfgerr.ErrUnsupportedMarket))
	assert.Equal(t, "Invalid exchange, please choose value from dydx, ftx_otc", err.Error())

	assert.True(t, errors.Is(check(field.StringValue(""), nil), cfgerr.ErrUnsupportedMarket))
}

func TestTradingPairReadsCurrentMarket(t *testing.T) {
	check := TradingPair(newStub(), "maker_market")
	pair := field.StringValue("ETH-USDC")

	err := check(pair, field.Map{"maker_market": field.StringValue("ftx_otc")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, cfgerr.ErrUnknownTradingPair))
	assert.Equal(t, "ETH-USDC is not an active market on ftx_otc.", err.Error())

	assert.NoError(t, check(pair, field.Map{"maker_market": field.StringValue("dydx")}))
}

func TestTradingPairWithoutListing(t *testing.T) {
	check := TradingPair(newStub(), "maker_market")
	assert.NoError(t, check(field.StringValue("AAVEDAI"), field.Map{"maker_market": field.StringValue("kucoin")}))
}

func TestTradingPairNeedsMarket(t *testing.T) {
	check := TradingPair(newStub(), "maker_market")
	err := check(field.StringValue("AAVE-DAI"), field.Map{})
	assert.True(t, errors.Is(err, cfgerr.ErrUnresolvedDependency))
	err = check(field.StringValue("AAVE-DAI"), nil)
	assert.True(t, errors.Is(err, cfgerr.ErrUnresolvedDependency))
}

func TestOrderAmount(t *testing.T) {
	check := OrderAmount(newStub(), "maker_market", "maker_market_trading_pair")
	up := field.Map{
		"maker_market":              field.StringValue("dydx"),
		"maker_market_trading_pair": field.StringValue("AAVE-DAI"),
	}

	t.Run("at minimum", func(t *testing.T) {
		assert.NoError(t, check(dec(t, "1.5"), up))
		assert.NoError(t, check(dec(t, "10"), up))
	})

	t.Run("below minimum quotes minimum", func(t *testing.T) {
		err := check(dec(t, "1.49"), up)
		require.Error(t, err)
		assert.True(t, errors.Is(err, cfgerr.ErrBelowMinimumOrderAmount))
		assert.Equal(t, "Order amount must be at least 1.5.", err.Error())
	})

	t.Run("zero minimum still needs positive amount", func(t *testing.T) {
		kucoin := field.Map{
			"maker_market":              field.StringValue("kucoin"),
			"maker_market_trading_pair": field.StringValue("AAVE-DAI"),
		}
		err := check(dec(t, "0"), kucoin)
		assert.True(t, errors.Is(err, cfgerr.ErrInvalidOrderAmount))
		err = check(dec(t, "-1"), kucoin)
		assert.True(t, errors.Is(err, cfgerr.ErrBelowMinimumOrderAmount))
	})

	t.Run("unknown market", func(t *testing.T) {
		err := check(dec(t, "1"), field.Map{
			"maker_market":              field.StringValue("ftx"),
			"maker_market_trading_pair": field.StringValue("AAVE-DAI"),
		})
		assert.True(t, errors.Is(err, cfgerr.ErrUnsupportedMarket))
	})

	t.Run("missing pair", func(t *testing.T) {
		err := check(dec(t, "1"), field.Map{"maker_market": field.StringValue("dydx")})
		assert.True(t, errors.Is(err, cfgerr.ErrUnresolvedDependency))
	})

	err := MalformedOrderAmount("ten")
	assert.True(t, errors.Is(err, cfgerr.ErrInvalidOrderAmount))
	assert.Equal(t, "Invalid order amount.", err.Error())
}

func TestOrderAmountBelowMinimumProperty(t *testing.T) {
	check := OrderAmount(newStub(), "maker_market", "maker_market_trading_pair")
	up := field.Map{
		"maker_market":              field.StringValue("dydx"),
		"maker_market_trading_pair": field.StringValue("AAVE-DAI"),
	}
	minimum := decimal.RequireFromString("1.5")

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("amount below minimum is rejected quoting the minimum", prop.ForAll(
		func(milli int64) bool {
			amount := decimal.New(milli, -3)
			err := check(field.DecimalValue(amount), up)
			if amount.LessThan(minimum) {
				return errors.Is(err, cfgerr.ErrBelowMinimumOrderAmount) &&
					err.Error() == "Order amount must be at least "+minimum.String()+"."
			}
			return err == nil
		},
		gen.Int64Range(-5000, 5000),
	))

	properties.TestingRun(t)
}

func TestOrderSpreadBoundaries(t *testing.T) {
	check := OrderSpread()
	for _, raw := range []string{"0", "1", "0.01", "1.0000", "-0"} {
		assert.NoError(t, check(dec(t, raw), nil), raw)
	}

	err := check(dec(t, "-0.0001"), nil)
	assert.True(t, errors.Is(err, cfgerr.ErrSpreadBelowZero))
	assert.Equal(t, "Order spread (-0.0001) must be greater than zero.", err.Error())

	err = check(dec(t, "1.0001"), nil)
	assert.True(t, errors.Is(err, cfgerr.ErrSpreadAboveOne))
	assert.Equal(t, "Order spread (1.0001) must not be greater than 1", err.Error())

	err = check(dec(t, "1.5"), nil)
	assert.True(t, errors.Is(err, cfgerr.ErrSpreadAboveOne))

	assert.True(t, errors.Is(MalformedOrderSpread("wide"), cfgerr.ErrInvalidOrderSpread))
}

func TestOrderSpreadProperty(t *testing.T) {
	check := OrderSpread()
	lower, upper := decimal.Zero, decimal.NewFromInt(1)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("spread accepted iff 0 <= v <= 1", prop.ForAll(
		func(bp int64) bool {
			v := decimal.New(bp, -4)
			err := check(field.DecimalValue(v), nil)
			switch {
			case v.LessThan(lower):
				return errors.Is(err, cfgerr.ErrSpreadBelowZero)
			case v.GreaterThan(upper):
				return errors.Is(err, cfgerr.ErrSpreadAboveOne)
			default:
				return err == nil
			}
		},
		gen.Int64Range(-20000, 20000),
	))

	properties.TestingRun(t)
}
