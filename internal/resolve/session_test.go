package resolve

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"spreader/internal/cfgerr"
	"spreader/internal/field"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var pairsByMarket = map[string][]string{
	"dydx":    {"AAVE-DAI", "ETH-USDC"},
	"ftx_otc": {"AAVE-DAI"},
}

func marketRule(v field.Value, _ field.Values) error {
	if _, ok := pairsByMarket[v.String()]; !ok {
		return cfgerr.Errorf(cfgerr.KindUnsupportedMarket, "", "Invalid exchange %s", v.String())
	}
	return nil
}

func pairRule(v field.Value, up field.Values) error {
	m, ok := up.Lookup("market")
	if !ok {
		return cfgerr.New(cfgerr.KindUnresolvedDependency, "", "market missing")
	}
	for _, p := range pairsByMarket[m.String()] {
		if p == v.String() {
			return nil
		}
	}
	return cfgerr.Errorf(cfgerr.KindUnknownTradingPair, "", "%s is not an active market on %s.", v.String(), m.String())
}

func spreadRule(v field.Value, _ field.Values) error {
	if v.Decimal().IsNegative() {
		return cfgerr.New(cfgerr.KindSpreadBelowZero, "", "below zero")
	}
	return nil
}

func testRegistry(t *testing.T, hookCalls *int) *field.Registry {
	t.Helper()
	reg, err := field.NewRegistry(
		field.Field{Key: "strategy", Default: "cross_exchange_spreader"},
		field.Field{
			Key:         "market",
			Prompt:      field.Static("Enter your maker spot connector >>> "),
			Normalize:   strings.ToLower,
			Validate:    marketRule,
			PromptOnNew: true,
			Required:    true,
			OnValidated: func(v field.Value, acc *field.Accumulator) {
				*hookCalls++
				acc.RequireExchange(v.String())
			},
		},
		field.Field{
			Key:      "pair",
			Requires: []field.Key{"market"},
			Prompt: field.Generated(func(v field.Values) string {
				m, _ := v.Lookup("market")
				return "pair on " + m.String() + " >>> "
			}),
			Validate:    pairRule,
			PromptOnNew: true,
			Required:    true,
		},
		field.Field{
			Key:         "spread",
			Type:        field.TypeDecimal,
			Prompt:      field.Static("spread >>> "),
			Validate:    spreadRule,
			PromptOnNew: true,
			Required:    true,
			Malformed: func(string) error {
				return cfgerr.New(cfgerr.KindInvalidOrderSpread, "", "Invalid order spread.")
			},
		},
		field.Field{Key: "size", Type: field.TypeDecimal, Default: "1"},
	)
	require.NoError(t, err)
	return reg
}

func TestValidateStoresExactValue(t *testing.T) {
	var hooks int
	s := NewSession(testRegistry(t, &hooks))

	v, err := s.Validate("market", " DYDX ")
	require.NoError(t, err)
	assert.Equal(t, "dydx", v.String())
	assert.Equal(t, Resolved, s.State("market"))
	got, err := s.Get("market")
	require.NoError(t, err)
	assert.True(t, got.Equal(v))
	assert.Equal(t, 1, hooks)
	assert.Equal(t, []string{"dydx"}, s.Accumulator().Exchanges())

	v, err = s.Validate("spread", "0.010")
	require.NoError(t, err)
	assert.Equal(t, "0.010", v.String())
}

func TestRejectionSkipsHookAndKeepsUpstream(t *testing.T) {
	var hooks int
	s := NewSession(testRegistry(t, &hooks))

	_, err := s.Validate("market", "ftx")
	assert.True(t, errors.Is(err, cfgerr.ErrUnsupportedMarket))
	assert.Equal(t, Rejected, s.State("market"))
	assert.Equal(t, 0, hooks)
	assert.Zero(t, s.Accumulator().Len())

	_, err = s.Validate("market", "ftx_otc")
	require.NoError(t, err)
	_, err = s.Validate("pair", "ETH-USDC")
	require.Error(t, err)
	assert.True(t, errors.Is(err, cfgerr.ErrUnknownTradingPair))
	assert.Equal(t, "pair", errKey(err))

	m, err := s.Get("market")
	require.NoError(t, err)
	assert.Equal(t, "ftx_otc", m.String())
	assert.Equal(t, Resolved, s.State("market"))
}

func TestGetErrors(t *testing.T) {
	var hooks int
	s := NewSession(testRegistry(t, &hooks))

	_, err := s.Get("tref_market_trading_pair")
	assert.True(t, errors.Is(err, cfgerr.ErrUnknownField))
	_, err = s.Get("pair")
	assert.True(t, errors.Is(err, cfgerr.ErrUnresolvedField))
}

func TestDependenciesAreChecked(t *testing.T) {
	var hooks int
	s := NewSession(testRegistry(t, &hooks))

	_, err := s.PromptFor("pair")
	assert.True(t, errors.Is(err, cfgerr.ErrUnresolvedDependency))
	_, err = s.Validate("pair", "AAVE-DAI")
	assert.True(t, errors.Is(err, cfgerr.ErrUnresolvedDependency))
	assert.Equal(t, Unset, s.State("pair"))

	_, err = s.Validate("market", "dydx")
	require.NoError(t, err)
	text, err := s.PromptFor("pair")
	require.NoError(t, err)
	assert.Equal(t, "pair on dydx >>> ", text)
	assert.Equal(t, PromptIssued, s.State("pair"))
}

func TestPairRevalidatesAgainstChangedMarket(t *testing.T) {
	var hooks int
	s := NewSession(testRegistry(t, &hooks))

	_, err := s.Validate("market", "ftx_otc")
	require.NoError(t, err)
	_, err = s.Validate("pair", "ETH-USDC")
	require.True(t, errors.Is(err, cfgerr.ErrUnknownTradingPair))

	_, err = s.Validate("market", "dydx")
	require.True(t, errors.Is(err, cfgerr.ErrInvalidValue), "resolved fields need a reset")

	require.NoError(t, s.Reset("market"))
	assert.Equal(t, Unset, s.State("market"))
	assert.Equal(t, Unset, s.State("pair"))

	_, err = s.Validate("market", "dydx")
	require.NoError(t, err)
	_, err = s.Validate("pair", "ETH-USDC")
	require.NoError(t, err)

	assert.Equal(t, 2, hooks)
	assert.Equal(t, []string{"ftx_otc", "dydx"}, s.Accumulator().Exchanges())
}

func TestResetCascades(t *testing.T) {
	var hooks int
	s := NewSession(testRegistry(t, &hooks))
	require.NoError(t, s.Apply([]Input{
		{Key: "market", Raw: "dydx"},
		{Key: "pair", Raw: "AAVE-DAI"},
		{Key: "spread", Raw: "0.1"},
	}))
	require.NoError(t, s.Reset("market"))
	assert.Equal(t, []field.Key{"strategy", "spread", "size"}, s.Values().Keys())
	assert.Equal(t, []field.Key{"market", "pair"}, s.Missing())

	assert.True(t, errors.Is(s.Reset("nope"), cfgerr.ErrUnknownField))
}

func TestMalformedInput(t *testing.T) {
	var hooks int
	s := NewSession(testRegistry(t, &hooks))

	_, err := s.Validate("spread", "wide")
	assert.True(t, errors.Is(err, cfgerr.ErrInvalidOrderSpread))
	assert.Equal(t, "spread", errKey(err))

	_, err = s.Validate("size", "lots")
	assert.True(t, errors.Is(err, cfgerr.ErrInvalidValue))
	assert.Equal(t, "lots is not in decimal format.", err.Error())
}

func TestDefaultsApplyToEmptyInput(t *testing.T) {
	var hooks int
	s := NewSession(testRegistry(t, &hooks))
	v, err := s.Validate("strategy", "  ")
	require.NoError(t, err)
	assert.Equal(t, "cross_exchange_spreader", v.String())
}

type scriptedPrompter struct {
	answers  map[field.Key][]string
	prompts  []string
	rejected []string
}

func (p *scriptedPrompter) Prompt(_ context.Context, key field.Key, text string) (string, error) {
	p.prompts = append(p.prompts, text)
	queue := p.answers[key]
	if len(queue) == 0 {
		return "", io.EOF
	}
	p.answers[key] = queue[1:]
	return queue[0], nil
}

func (p *scriptedPrompter) Reject(_ field.Key, msg string) {
	p.rejected = append(p.rejected, msg)
}

func TestRunRepromptsOnRejection(t *testing.T) {
	var hooks int
	s := NewSession(testRegistry(t, &hooks))
	p := &scriptedPrompter{answers: map[field.Key][]string{
		"market": {"ftx", "dydx"},
		"pair":   {"BTC-USD", "AAVE-DAI"},
		"spread": {"-1", "0.01"},
	}}

	require.NoError(t, s.Run(context.Background(), p))
	assert.True(t, s.Complete())
	assert.Len(t, p.rejected, 3)
	assert.Equal(t, "BTC-USD is not an active market on dydx.", p.rejected[1])
	assert.Equal(t, "pair on dydx >>> ", p.prompts[2])
	assert.Equal(t, 1, hooks)

	res := s.Result()
	assert.Equal(t, s.ID(), res.PassID)
	assert.Equal(t, []string{"dydx"}, res.Exchanges)
	assert.Equal(t, map[string]string{
		"strategy": "cross_exchange_spreader",
		"market":   "dydx",
		"pair":     "AAVE-DAI",
		"spread":   "0.01",
		"size":     "1",
	}, res.Values.Raw())
}

func TestRunStopsWhenPrompterFails(t *testing.T) {
	var hooks int
	s := NewSession(testRegistry(t, &hooks))
	p := &scriptedPrompter{answers: map[field.Key][]string{"market": {"dydx"}}}
	err := s.Run(context.Background(), p)
	assert.ErrorIs(t, err, io.EOF)
	assert.False(t, s.Complete())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s = NewSession(testRegistry(t, &hooks))
	assert.ErrorIs(t, s.Run(ctx, p), context.Canceled)
}

func TestApplyIsTerminalOnRejection(t *testing.T) {
	var hooks int
	s := NewSession(testRegistry(t, &hooks))
	err := s.Apply([]Input{
		{Key: "spread", Raw: "-0.5"},
		{Key: "pair", Raw: "AAVE-DAI"},
		{Key: "market", Raw: "dydx"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, cfgerr.ErrSpreadBelowZero))
	assert.Equal(t, Resolved, s.State("pair"), "declaration order, not input order")
	assert.Equal(t, []string{"dydx"}, s.Accumulator().Exchanges())

	s = NewSession(testRegistry(t, &hooks))
	err = s.Apply([]Input{{Key: "tref_market_trading_pair", Raw: "AAVE-DAI"}})
	assert.True(t, errors.Is(err, cfgerr.ErrUnknownField))
	assert.Zero(t, s.Values().Len())

}

func TestApplyLeavesFieldsWithMissingUpstreamUnset(t *testing.T) {
	var hooks int
	s := NewSession(testRegistry(t, &hooks))
	require.NoError(t, s.Apply([]Input{{Key: "pair", Raw: "AAVE-DAI"}}))
	assert.Equal(t, Unset, s.State("pair"))
	assert.Contains(t, s.Missing(), field.Key("market"))
	assert.Contains(t, s.Missing(), field.Key("pair"))
	assert.False(t, s.Complete())
}

func TestApplyRejectsRepeatedKeys(t *testing.T) {
	var hooks int
	s := NewSession(testRegistry(t, &hooks))
	err := s.Apply([]Input{
		{Key: "market", Raw: "dydx"},
		{Key: "market", Raw: "ftx_otc"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, cfgerr.ErrDuplicateField))
	assert.Equal(t, "market", cfgerr.KeyOf(err))
	assert.Zero(t, hooks, "nothing is validated before the input is accepted")
	assert.Equal(t, Unset, s.State("market"))
}

type mockObserver struct{ mock.Mock }

func (m *mockObserver) FieldResolved(key field.Key) { m.Called(key) }
func (m *mockObserver) FieldRejected(key field.Key, kind cfgerr.Kind) {
	m.Called(key, kind)
}

func TestObserverSeesOutcomes(t *testing.T) {
	var hooks int
	obs := &mockObserver{}
	obs.On("FieldResolved", field.Key("market")).Once()
	obs.On("FieldRejected", field.Key("pair"), cfgerr.KindUnknownTradingPair).Once()

	s := NewSession(testRegistry(t, &hooks), WithObserver(obs), WithID("pass-1"))
	assert.Equal(t, "pass-1", s.ID())
	_, _ = s.Validate("market", "dydx")
	_, _ = s.Validate("pair", "XRP-USD")
	obs.AssertExpectations(t)
}

func errKey(err error) string {
	var ce *cfgerr.Error
	if errors.As(err, &ce) {
		return ce.Key
	}
	return ""
}
