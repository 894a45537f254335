package binding

import (
	"fmt"
	"strings"
	"time"

	"spreader/internal/cfgerr"
	"spreader/internal/field"

	"github.com/shopspring/decimal"
)

// DuplicatePolicy decides whether two roles may share a (market, pair).
type DuplicatePolicy string

const (
	DuplicateReject DuplicatePolicy = "reject"
	DuplicateAllow  DuplicatePolicy = "allow"
)

// ParseDuplicatePolicy accepts "reject" (also the empty default) and "allow".
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DuplicateReject:
		return DuplicateReject, nil
	case DuplicateAllow:
		return DuplicateAllow, nil
	default:
		return "", fmt.Errorf("unknown duplicate role policy %q", s)
	}
}

// Keys names the fields the assembler reads scalars from.
type Keys struct {
	Strategy    field.Key
	OrderAmount field.Key
	OrderSpread field.Key
}

// Params are the non-field inputs of a strategy binding.
type Params struct {
	StatusReportInterval time.Duration
	LoggingFlags         LoggingFlags
	Notify               bool
	Duplicates           DuplicatePolicy
}

// Assembler builds StrategyBinding values. It holds no pass state, so one
// assembler may serve any number of passes.
type Assembler struct {
	required []field.Key
	keys     Keys
	params   Params
}

func NewAssembler(required []field.Key, keys Keys, params Params) *Assembler {
	if params.Duplicates == "" {
		params.Duplicates = DuplicateReject
	}
	return &Assembler{
		required: append([]field.Key(nil), required...),
		keys:     keys,
		params:   params,
	}
}

// Assemble composes values and bindings. It never returns a partial binding:
// any missing required key fails with IncompleteConfiguration, and under
// DuplicateReject two roles bound to the same (market, pair) fail with
// DuplicateMarketRole.
func (a *Assembler) Assemble(values field.Values, b Bindings, exchanges []string) (StrategyBinding, error) {
	missing := a.missing(values)
	if b.Maker.IsZero() {
		missing = append(missing, string(RoleMaker)+" binding")
	}
	if b.Ref.IsZero() {
		missing = append(missing, string(RoleRef)+" binding")
	}
	if len(missing) > 0 {
		return StrategyBinding{}, cfgerr.Errorf(cfgerr.KindIncompleteConfiguration, "",
			"incomplete configuration, missing: %s", strings.Join(missing, ", "))
	}

	if a.params.Duplicates == DuplicateReject {
		if err := checkDistinct(b); err != nil {
			return StrategyBinding{}, err
		}
	}

	amount, err := a.decimal(values, a.keys.OrderAmount)
	if err != nil {
		return StrategyBinding{}, err
	}
	if !amount.IsPositive() {
		return StrategyBinding{}, cfgerr.New(cfgerr.KindInvalidOrderAmount, string(a.keys.OrderAmount),
			"Order amount must be greater than zero.")
	}
	spread, err := a.decimal(values, a.keys.OrderSpread)
	if err != nil {
		return StrategyBinding{}, err
	}
	if spread.IsNegative() {
		return StrategyBinding{}, cfgerr.Errorf(cfgerr.KindSpreadBelowZero, string(a.keys.OrderSpread),
			"Order spread (%s) must be greater than zero.", spread)
	}
	if spread.GreaterThan(one) {
		return StrategyBinding{}, cfgerr.Errorf(cfgerr.KindSpreadAboveOne, string(a.keys.OrderSpread),
			"Order spread (%s) must not be greater than 1", spread)
	}

	var strategy string
	if a.keys.Strategy != "" {
		if v, ok := values.Lookup(a.keys.Strategy); ok {
			strategy = v.String()
		}
	}

	return StrategyBinding{
		strategy:             strategy,
		marketPairs:          []CrossMarketPair{b.Pair()},
		orderAmount:          amount,
		orderSpread:          spread,
		statusReportInterval: a.params.StatusReportInterval,
		loggingFlags:         a.params.LoggingFlags,
		notify:               a.params.Notify,
		requiredExchanges:    append([]string(nil), exchanges...),
		requiredAssets:       append([]string(nil), b.Assets...),
	}, nil
}

var one = decimal.NewFromInt(1)

// CheckComplete fails with IncompleteConfiguration listing every required key
// absent from values.
func (a *Assembler) CheckComplete(values field.Values) error {
	if missing := a.missing(values); len(missing) > 0 {
		return cfgerr.Errorf(cfgerr.KindIncompleteConfiguration, "",
			"incomplete configuration, missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (a *Assembler) missing(values field.Values) []string {
	var out []string
	for _, k := range a.required {
		if _, ok := values.Lookup(k); !ok {
			out = append(out, string(k))
		}
	}
	return out
}

func (a *Assembler) decimal(values field.Values, key field.Key) (decimal.Decimal, error) {
	v, ok := values.Lookup(key)
	if !ok {
		return decimal.Zero, cfgerr.Errorf(cfgerr.KindIncompleteConfiguration, string(key),
			"incomplete configuration, missing: %s", key)
	}
	if v.Type() == field.TypeDecimal {
		return v.Decimal(), nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v.String()))
	if err != nil {
		return decimal.Zero, cfgerr.Wrap(cfgerr.KindInvalidValue, string(key), err,
			fmt.Sprintf("%s is not in decimal format.", v.String()))
	}
	return d, nil
}

func checkDistinct(b Bindings) error {
	if b.Maker.sameRole(b.Ref) {
		return duplicateRole(RoleMaker, RoleRef, b.Maker)
	}
	if b.Hedger.IsZero() {
		return nil
	}
	if b.Hedger.sameRole(b.Maker) {
		return duplicateRole(RoleHedger, RoleMaker, b.Hedger)
	}
	if b.Hedger.sameRole(b.Ref) {
		return duplicateRole(RoleHedger, RoleRef, b.Hedger)
	}
	return nil
}

func duplicateRole(a, b Role, m MarketTradingPair) error {
	return cfgerr.Errorf(cfgerr.KindDuplicateMarketRole, "",
		"%s and %s markets both resolve to %s", a, b, m)
}
