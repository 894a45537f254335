package spreader

import (
	"fmt"
	"strings"

	"spreader/internal/field"
	"spreader/internal/pkg/symbol"
	"spreader/internal/validate"
)

// Markets is the catalog view the strategy fields need.
type Markets interface {
	validate.Markets
	ExamplePair(market string) string
}

// NewRegistry declares the strategy fields for variant. Declaration order
// follows the dependency edges: markets, then pairs, then the amount that
// needs the maker pair.
func NewRegistry(variant Variant, m Markets) (*field.Registry, error) {
	fields := []field.Field{
		{
			Key:     KeyStrategy,
			Prompt:  field.Static(""),
			Default: StrategyName,
		},
		marketField(KeyMakerMarket, "Enter your maker spot connector >>> ", m),
		marketField(KeyRefMarket, "Enter your reference spot connector >>> ", m),
	}
	if variant == ThreeMarket {
		fields = append(fields, marketField(KeyHedgeMarket, "Enter your hedge spot connector >>> ", m))
	}
	fields = append(fields,
		pairField(KeyMakerPair, KeyMakerMarket, "Enter the token trading pair you would like to trade on maker market: %s%s >>> ", m),
		pairField(KeyRefPair, KeyRefMarket, "Enter the token trading pair you would like to use as reference market: %s%s >>> ", m),
	)
	if variant == ThreeMarket {
		fields = append(fields,
			pairField(KeyHedgePair, KeyHedgeMarket, "Enter the token trading pair you would like to hedge on: %s%s >>> ", m))
	}
	fields = append(fields,
		field.Field{
			Key:         KeyOrderAmount,
			Type:        field.TypeDecimal,
			Requires:    []field.Key{KeyMakerMarket, KeyMakerPair},
			Prompt:      field.Generated(orderAmountPrompt(m)),
			Malformed:   validate.MalformedOrderAmount,
			Validate:    validate.OrderAmount(m, KeyMakerMarket, KeyMakerPair),
			PromptOnNew: true,
			Required:    true,
		},
		field.Field{
			Key:         KeyOrderSpread,
			Type:        field.TypeDecimal,
			Prompt:      field.Static("What is the spread to apply for each order? >>> "),
			Malformed:   validate.MalformedOrderSpread,
			Validate:    validate.OrderSpread(),
			PromptOnNew: true,
			Required:    true,
		},
	)
	return field.NewRegistry(fields...)
}

func marketField(key field.Key, prompt string, m Markets) field.Field {
	return field.Field{
		Key:         key,
		Prompt:      field.Static(prompt),
		Normalize:   normalizeMarket,
		Validate:    validate.Market(m),
		OnValidated: requireExchange,
		PromptOnNew: true,
		Required:    true,
	}
}

// pairField instantiates the "pair valid on its market" rule for one role.
func pairField(key, marketKey field.Key, format string, m Markets) field.Field {
	return field.Field{
		Key:      key,
		Requires: []field.Key{marketKey},
		Prompt: field.Generated(func(vals field.Values) string {
			market, _ := vals.Lookup(marketKey)
			example := ""
			if ex := m.ExamplePair(market.String()); ex != "" {
				example = fmt.Sprintf(" (e.g. %s)", ex)
			}
			return fmt.Sprintf(format, market.String(), example)
		}),
		Normalize:   normalizePair,
		Validate:    validate.TradingPair(m, marketKey),
		PromptOnNew: true,
		Required:    true,
	}
}

func orderAmountPrompt(m Markets) func(field.Values) string {
	return func(vals field.Values) string {
		market, _ := vals.Lookup(KeyMakerMarket)
		pair, _ := vals.Lookup(KeyMakerPair)
		base := pair.String()
		if sym, err := symbol.Split(pair.String()); err == nil {
			base = sym.Base
		}
		minimum, _ := m.MinimumOrderAmount(market.String(), pair.String())
		return fmt.Sprintf("What is the amount of %s per order? (minimum %s) >>> ", base, minimum)
	}
}

func requireExchange(v field.Value, acc *field.Accumulator) {
	acc.RequireExchange(v.String())
}

func normalizeMarket(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
func normalizePair(s string) string   { return strings.ToUpper(strings.TrimSpace(s)) }
