package symbol

import (
	"fmt"
	"strings"
)

// Delimiter separates base and quote in the canonical pair form (AAVE-DAI).
const Delimiter = "-"

type Format string

const (
	FormatInternal Format = "internal"
	FormatBinance  Format = "binance"
	FormatGate     Format = "gate"
	FormatSlash    Format = "slash"
)

type Converter interface {
	ToExchange(internal string) string

	FromExchange(raw string) string

	Format() Format
}

type Symbol struct {
	Base  string
	Quote string
}

func (s Symbol) Internal() string {
	if s.Base == "" || s.Quote == "" {
		return ""
	}
	return s.Base + Delimiter + s.Quote
}

// Assets returns base and quote in that order.
func (s Symbol) Assets() []string {
	return []string{s.Base, s.Quote}
}

// Split decomposes a canonical pair strictly: exactly two non-empty parts on
// Delimiter. Case is preserved.
func Split(pair string) (Symbol, error) {
	trimmed := strings.TrimSpace(pair)
	parts := strings.Split(trimmed, Delimiter)
	if len(parts) != 2 {
		return Symbol{}, fmt.Errorf("trading pair %q must be BASE%sQUOTE", pair, Delimiter)
	}
	base := strings.TrimSpace(parts[0])
	quote := strings.TrimSpace(parts[1])
	if base == "" || quote == "" {
		return Symbol{}, fmt.Errorf("trading pair %q has an empty asset", pair)
	}
	return Symbol{Base: base, Quote: quote}, nil
}

// Parse is the lenient counterpart of Split used for exchange-native
// listings. It accepts BASE-QUOTE, BASE/QUOTE, BASE_QUOTE and concatenated
// BASEQUOTE with a known quote suffix.
func Parse(s string) Symbol {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Symbol{}
	}

	if idx := strings.Index(s, ":"); idx >= 0 {
		s = s[:idx]
	}

	for _, sep := range []string{Delimiter, "/", "_"} {
		if parts := strings.SplitN(s, sep, 2); len(parts) == 2 {
			base := strings.TrimSpace(parts[0])
			quote := strings.TrimSpace(parts[1])
			if base == "" || quote == "" {
				return Symbol{}
			}
			return Symbol{Base: base, Quote: quote}
		}
	}

	quoteCurrencies := []string{"USDT", "BUSD", "USDC", "TUSD", "DAI", "BTC", "ETH", "BNB"}
	for _, quote := range quoteCurrencies {
		if strings.HasSuffix(s, quote) && len(s) > len(quote) {
			return Symbol{
				Base:  s[:len(s)-len(quote)],
				Quote: quote,
			}
		}
	}

	return Symbol{}
}

// Normalize returns the canonical BASE-QUOTE form of a listing, or "" when
// it cannot be parsed.
func Normalize(s string) string {
	return Parse(s).Internal()
}

// ConverterFor returns the converter for a listing format; unknown or empty
// formats fall back to the internal form.
func ConverterFor(f Format) Converter {
	switch Format(strings.ToLower(strings.TrimSpace(string(f)))) {
	case FormatBinance:
		return Binance
	case FormatGate:
		return Gate
	case FormatSlash:
		return Slash
	default:
		return Internal
	}
}

type InternalConverter struct{}

func (InternalConverter) ToExchange(internal string) string {
	return strings.ToUpper(strings.TrimSpace(internal))
}

func (InternalConverter) FromExchange(raw string) string {
	return Normalize(raw)
}

func (InternalConverter) Format() Format {
	return FormatInternal
}

var Internal = InternalConverter{}
