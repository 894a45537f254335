package cfgerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesSentinelByKind(t *testing.T) {
	err := Errorf(KindSpreadAboveOne, "order_spread", "Order spread (%s) must not be greater than 1.", "1.5")
	assert.True(t, errors.Is(err, ErrSpreadAboveOne))
	assert.False(t, errors.Is(err, ErrSpreadBelowZero))
	assert.Equal(t, "Order spread (1.5) must not be greater than 1.", err.Error())

	wrapped := fmt.Errorf("resolve: %w", err)
	assert.True(t, errors.Is(wrapped, ErrSpreadAboveOne))
	assert.Equal(t, KindSpreadAboveOne, KindOf(wrapped))
	assert.Equal(t, "order_spread", KeyOf(wrapped))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, "", KeyOf(errors.New("boom")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("missing DYDX_API_KEY")
	err := Wrap(KindMarketInstantiation, "maker_market", cause, "cannot open dydx")
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrMarketInstantiation)
	assert.Equal(t, "cannot open dydx", err.Error())
}

func TestErrorWithoutMessage(t *testing.T) {
	err := &Error{Kind: KindInvalidValue, Err: errors.New("bad")}
	assert.Equal(t, "InvalidValue: bad", err.Error())
	assert.Equal(t, "UnknownField", ErrUnknownField.Error())
}

func TestFatalKinds(t *testing.T) {
	fatal := []Kind{KindIncompleteConfiguration, KindDuplicateMarketRole, KindMarketInstantiation, KindAssetDecomposition}
	for _, k := range fatal {
		assert.True(t, k.Fatal(), k)
	}
	recoverable := []Kind{KindUnsupportedMarket, KindUnknownTradingPair, KindInvalidOrderAmount,
		KindBelowMinimumOrderAmount, KindInvalidOrderSpread, KindSpreadBelowZero, KindSpreadAboveOne}
	for _, k := range recoverable {
		assert.False(t, k.Fatal(), k)
	}
}
