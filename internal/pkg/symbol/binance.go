package symbol

import "strings"

type BinanceConverter struct{}

func (BinanceConverter) ToExchange(internal string) string {
	s := strings.ToUpper(strings.TrimSpace(internal))
	return strings.ReplaceAll(s, Delimiter, "")
}

func (BinanceConverter) FromExchange(raw string) string {
	return Normalize(raw)
}

func (BinanceConverter) Format() Format {
	return FormatBinance
}

var Binance = BinanceConverter{}

type SlashConverter struct{}

func (SlashConverter) ToExchange(internal string) string {
	s := strings.ToUpper(strings.TrimSpace(internal))
	return strings.ReplaceAll(s, Delimiter, "/")
}

func (SlashConverter) FromExchange(raw string) string {
	return Normalize(raw)
}

func (SlashConverter) Format() Format {
	return FormatSlash
}

var Slash = SlashConverter{}
